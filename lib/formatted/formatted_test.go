package formatted

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestBBCodeToHTML(t *testing.T) {
	cases := []struct {
		markup string
		html   string
		bb     string
		plain  string
	}{
		{
			markup: "[b]bold[/b] plain",
			html:   "<b>bold</b> plain",
			bb:     "[b]bold[/b] plain",
			plain:  "bold plain",
		},
		{
			markup: "[I]a[/i] & [u]b[/u]\nnext",
			html:   "<i>a</i> &amp; <u>b</u><br/>next",
			bb:     "[i]a[/i] & [u]b[/u]\nnext",
			plain:  "a & b\nnext",
		},
		{
			markup: "[size=1.5em]big[/size][center]mid[/center]",
			html:   `<font size="1.5em">big</font><center>mid</center>`,
			bb:     "[size=1.5em]big[/size][center]mid[/center]",
			plain:  "bigmid",
		},
		{
			markup: "[size=12]px[/size][quote]dropped[/quote] <tail",
			html:   `<font size="12px">px</font>dropped &lt;tail`,
			bb:     "[size=12px]px[/size]dropped <tail",
			plain:  "pxdropped <tail",
		},
		{
			markup: "open [bracket",
			html:   "open [bracket",
			bb:     "open [bracket",
			plain:  "open [bracket",
		},
	}

	for _, c := range cases {
		text := ParseBBCode(c.markup)
		require.Equal(t, c.html, text.HTML(), c.markup)
		require.Equal(t, c.bb, text.BBCode(), c.markup)
		require.Equal(t, c.plain, text.String(), c.markup)
	}
}

func TestParseHTML(t *testing.T) {
	text, err := ParseHTML("<p>  Hello <strong>brave</strong>\n  new</p><p><em>world</em><br/>end &amp; <font size=\"2pt\">tiny</font></p>")
	require.NoError(t, err)

	require.Equal(t, "Hello brave new\nworld\nend & tiny", text.String())
	expected := []Marker{
		{Style: StyleBold, Offset: 6, Start: true},
		{Style: StyleBold, Offset: 11, Start: false},
		{Style: StyleItalic, Offset: 16, Start: true},
		{Style: StyleItalic, Offset: 21, Start: false},
		{Style: SizeStyle(2, UnitPt), Offset: 28, Start: true},
		{Style: SizeStyle(0, UnitPx), Offset: 32, Start: false},
	}
	if diff := cmp.Diff(expected, text.Markers()); diff != "" {
		t.Fatal(diff)
	}
	require.Equal(t, "Hello <b>brave</b> new<br/><i>world</i><br/>end &amp; <font size=\"2pt\">tiny</font>", text.HTML())
}

func TestNewText(t *testing.T) {
	_, err := NewText("abc", []Marker{{Style: StyleBold, Offset: 2, Start: true}, {Style: StyleBold, Offset: 1}})
	require.Error(t, err)
	_, err = NewText("abc", []Marker{{Style: StyleBold, Offset: 4, Start: true}})
	require.Error(t, err)

	text, err := NewText("abc", []Marker{{Style: StyleBold, Offset: 0, Start: true}, {Style: StyleBold, Offset: 3}})
	require.NoError(t, err)
	require.True(t, text.Equal(ParseBBCode("[b]abc[/b]")))
	require.False(t, text.Equal(Plain("abc")))
}

func TestStyleTag(t *testing.T) {
	styles := []Style{
		StyleBold,
		StyleItalic,
		StyleUnderline,
		StyleStrikethrough,
		StyleCenter,
		SizeStyle(1.5, UnitEm),
		SizeStyle(12, UnitPx),
		SizeStyle(9, UnitPt),
	}
	for _, style := range styles {
		parsed, ok := ParseTag(style.Tag())
		require.True(t, ok, style.Tag())
		require.Equal(t, style, parsed)
	}
	_, ok := ParseTag("blink")
	require.False(t, ok)
	_, ok = ParseTag("size=large")
	require.False(t, ok)
}

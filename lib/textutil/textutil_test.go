package textutil

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestToIntLiberal(t *testing.T) {
	cases := []struct {
		in       string
		def      int64
		expected int64
	}{
		{in: "views: 1,234(old)", def: 0, expected: 1234},
		{in: "", def: 7, expected: 7},
		{in: "---", def: -1, expected: -1},
		{in: "/story/1234/5/some-title", def: 0, expected: 12345},
		{in: "42", def: 0, expected: 42},
		{in: "no digits here", def: 3, expected: 3},
		{in: "-17 words", def: 0, expected: 17},
		{in: "99999999999999999999", def: -1, expected: -1},
		{in: "9223372036854775807", def: 0, expected: 9223372036854775807},
	}

	for _, c := range cases {
		require.Equal(t, c.expected, ToIntLiberal(c.in, c.def), c.in)
	}
}

func TestClipWhitespace(t *testing.T) {
	cases := []struct {
		in         string
		afterSpace bool
		expected   string
	}{
		{in: "  a   b\n\tc  ", afterSpace: false, expected: " a b c "},
		{in: "  a   b\n\tc  ", afterSpace: true, expected: "a b c "},
		{in: "plain", afterSpace: false, expected: "plain"},
		{in: "\n\n", afterSpace: true, expected: ""},
	}

	for _, c := range cases {
		require.Equal(t, c.expected, ClipWhitespace(c.in, c.afterSpace), c.in)
	}
}

func TestParseOrdinalDate(t *testing.T) {
	cases := []struct {
		in       string
		expected time.Time
	}{
		{in: "1st Jan 2013", expected: time.Date(2013, time.January, 1, 0, 0, 0, 0, time.UTC)},
		{in: "22nd Feb 2012", expected: time.Date(2012, time.February, 22, 0, 0, 0, 0, time.UTC)},
		{in: " 3rd  Aug 2014 ", expected: time.Date(2014, time.August, 3, 0, 0, 0, 0, time.UTC)},
		{in: "14th May 2011", expected: time.Date(2011, time.May, 14, 0, 0, 0, 0, time.UTC)},
	}

	for _, c := range cases {
		parsed, err := ParseOrdinalDate(c.in)
		require.NoError(t, err, c.in)
		require.True(t, c.expected.Equal(parsed), "%s: got %s", c.in, parsed)
	}

	_, err := ParseOrdinalDate("yesterday")
	require.Error(t, err)
}

func TestParseFeedDate(t *testing.T) {
	expected := time.Date(2013, time.May, 12, 18, 32, 10, 0, time.UTC)
	for _, in := range []string{
		"2013-05-12T18:32:10+00:00",
		"2013-05-12T18:32:10Z",
		"2013-05-12T183210+0000",
		"Sun, 12 May 2013 18:32:10 +0000",
	} {
		parsed, err := ParseFeedDate(in)
		require.NoError(t, err, in)
		require.True(t, expected.Equal(parsed), "%s: got %s", in, parsed)
	}
}

func TestNormalizeName(t *testing.T) {
	require.Equal(t, "sliceoflife", NormalizeName(" Slice of  Life\n"))
	require.True(t, MatchName("Alternate Universe", []string{"alternate"}))
}

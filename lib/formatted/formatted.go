// Package formatted implements text with interleaved style markers, it can
// be read from and rendered to both bracket markup and HTML.
package formatted

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

type Unit int

const (
	UnitPx Unit = iota
	UnitEm
	UnitPt
)

func (u Unit) String() string {
	switch u {
	case UnitEm:
		return "em"
	case UnitPt:
		return "pt"
	default:
		return "px"
	}
}

type StyleKind int

const (
	Bold StyleKind = iota
	Italic
	Underline
	Strikethrough
	Center
	Size
)

var simpleTags = map[StyleKind]string{
	Bold:          "b",
	Italic:        "i",
	Underline:     "u",
	Strikethrough: "s",
	Center:        "center",
}

// Style is a single kind of formatting, only Size styles carry a value.
type Style struct {
	Kind  StyleKind
	Value float64
	Unit  Unit
}

var (
	StyleBold          = Style{Kind: Bold}
	StyleItalic        = Style{Kind: Italic}
	StyleUnderline     = Style{Kind: Underline}
	StyleStrikethrough = Style{Kind: Strikethrough}
	StyleCenter        = Style{Kind: Center}
)

func SizeStyle(value float64, unit Unit) Style {
	return Style{Kind: Size, Value: value, Unit: unit}
}

func (s Style) sizeParam() string {
	return strconv.FormatFloat(s.Value, 'f', -1, 64) + s.Unit.String()
}

func (s Style) bbTag(start bool) string {
	if s.Kind != Size {
		return simpleTags[s.Kind]
	}
	if start {
		return "size=" + s.sizeParam()
	}
	return "size"
}

func (s Style) htmlTag(start bool) string {
	if s.Kind != Size {
		return simpleTags[s.Kind]
	}
	if start {
		return fmt.Sprintf(`font size="%s"`, s.sizeParam())
	}
	return "font"
}

// Tag is the opening bracket tag of the style, "b" or "size=1.5em".
func (s Style) Tag() string {
	return s.bbTag(true)
}

// Marker opens or closes a style at a byte offset of the text.
type Marker struct {
	Style  Style
	Offset int
	Start  bool
}

// Text is an immutable string with style markers sorted by offset.
type Text struct {
	text    string
	markers []Marker
}

// Plain returns a Text without any formatting.
func Plain(s string) Text {
	return Text{text: s}
}

// NewText validates the markers against text and builds a Text from them.
func NewText(text string, markers []Marker) (Text, error) {
	last := 0
	for i, m := range markers {
		if m.Offset < last || m.Offset > len(text) {
			return Text{}, fmt.Errorf("marker %d: offset %d out of order or out of range", i, m.Offset)
		}
		last = m.Offset
	}
	return Text{text: text, markers: append([]Marker(nil), markers...)}, nil
}

// String returns the text without markup.
func (t Text) String() string {
	return t.text
}

func (t Text) Markers() []Marker {
	return append([]Marker(nil), t.markers...)
}

func (t Text) Equal(other Text) bool {
	if t.text != other.text || len(t.markers) != len(other.markers) {
		return false
	}
	for i := range t.markers {
		if t.markers[i] != other.markers[i] {
			return false
		}
	}
	return true
}

func (t Text) render(tag func(Style, bool) string, lt, gt string, text func(*strings.Builder, string)) string {
	var out strings.Builder
	last := 0
	for _, m := range t.markers {
		text(&out, t.text[last:m.Offset])
		last = m.Offset
		out.WriteString(lt)
		if !m.Start {
			out.WriteByte('/')
		}
		out.WriteString(tag(m.Style, m.Start))
		out.WriteString(gt)
	}
	text(&out, t.text[last:])
	return out.String()
}

// BBCode renders the text as bracket markup, the text runs are not escaped.
func (t Text) BBCode() string {
	return t.render(Style.bbTag, "[", "]", func(out *strings.Builder, s string) {
		out.WriteString(s)
	})
}

// HTML renders the text as HTML, escaping every text run and turning
// newlines into line breaks.
func (t Text) HTML() string {
	return t.render(Style.htmlTag, "<", ">", writeHTMLText)
}

// Builder accumulates text and markers, the zero value is ready to use.
type Builder struct {
	text    strings.Builder
	markers []Marker
}

func (b *Builder) WriteString(s string) {
	b.text.WriteString(s)
}

func (b *Builder) WriteByte(c byte) error {
	return b.text.WriteByte(c)
}

// Append places a start or end marker for style at the current end of the text.
func (b *Builder) Append(style Style, start bool) {
	b.markers = append(b.markers, Marker{Style: style, Offset: b.text.Len(), Start: start})
}

func (b *Builder) Open(style Style) {
	b.Append(style, true)
}

func (b *Builder) Close(style Style) {
	b.Append(style, false)
}

func (b *Builder) Len() int {
	return b.text.Len()
}

func (b *Builder) Empty() bool {
	return b.text.Len() == 0
}

// EndsWithSpace reports whether the text written so far ends with a space
// or a line break.
func (b *Builder) EndsWithSpace() bool {
	s := b.text.String()
	if s == "" {
		return false
	}
	last := s[len(s)-1]
	return last == ' ' || last == '\n'
}

func (b *Builder) Build() Text {
	markers := append([]Marker(nil), b.markers...)
	sort.SliceStable(markers, func(i, j int) bool {
		return markers[i].Offset < markers[j].Offset
	})
	return Text{text: b.text.String(), markers: markers}
}

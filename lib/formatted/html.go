package formatted

import (
	"html"
	"strings"

	"fimfiction/lib/htmlutil"
	"fimfiction/lib/textutil"
)

func writeHTMLText(out *strings.Builder, s string) {
	out.WriteString(strings.ReplaceAll(html.EscapeString(s), "\n", "<br/>"))
}

var htmlStyles = map[string]Style{
	"b":      StyleBold,
	"strong": StyleBold,
	"i":      StyleItalic,
	"em":     StyleItalic,
	"u":      StyleUnderline,
	"s":      StyleStrikethrough,
	"strike": StyleStrikethrough,
	"del":    StyleStrikethrough,
	"center": StyleCenter,
}

// HTMLHandler builds a Text out of an element event stream, it implements
// htmlutil.Handler so it can be fed directly or forwarded to by another
// handler.
type HTMLHandler struct {
	b     Builder
	fonts []bool
}

func (h *HTMLHandler) StartElement(name string, attrs htmlutil.Attributes) error {
	switch name {
	case "br", "p":
		if !h.b.Empty() {
			h.b.WriteString("\n")
		}
	case "font":
		style, ok := parseSize(attrs.Get("size"))
		if ok {
			h.b.Open(style)
		}
		h.fonts = append(h.fonts, ok)
	default:
		style, ok := htmlStyles[name]
		if ok {
			h.b.Open(style)
		}
	}
	return nil
}

func (h *HTMLHandler) EndElement(name string) error {
	if name == "font" {
		if len(h.fonts) == 0 {
			return nil
		}
		sized := h.fonts[len(h.fonts)-1]
		h.fonts = h.fonts[:len(h.fonts)-1]
		if sized {
			h.b.Close(SizeStyle(0, UnitPx))
		}
		return nil
	}
	style, ok := htmlStyles[name]
	if ok {
		h.b.Close(style)
	}
	return nil
}

func (h *HTMLHandler) Text(text string) error {
	h.b.WriteString(textutil.ClipWhitespace(text, h.b.Empty() || h.b.EndsWithSpace()))
	return nil
}

func (h *HTMLHandler) Empty() bool {
	return h.b.Empty()
}

func (h *HTMLHandler) Build() Text {
	return h.b.Build()
}

// ParseHTML reads an HTML fragment into a Text.
func ParseHTML(markup string) (Text, error) {
	h := &HTMLHandler{}
	err := htmlutil.Walk(strings.NewReader(markup), h)
	if err != nil {
		return Text{}, err
	}
	return h.Build(), nil
}

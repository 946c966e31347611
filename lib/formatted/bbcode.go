package formatted

import (
	"strconv"
	"strings"
)

// ParseBBCode reads bracket markup such as "[b]bold[/b]". Tags that aren't
// recognized are dropped, an unterminated bracket is kept as text.
func ParseBBCode(markup string) Text {
	var b Builder
	i := 0
	for {
		open := strings.IndexByte(markup[i:], '[')
		if open < 0 {
			b.WriteString(markup[i:])
			break
		}
		open += i
		b.WriteString(markup[i:open])

		end := strings.IndexByte(markup[open:], ']')
		if end < 0 {
			b.WriteString(markup[open:])
			break
		}
		end += open

		tag := strings.ToLower(markup[open+1 : end])
		start := !strings.HasPrefix(tag, "/")
		if !start {
			tag = tag[1:]
		}
		style, ok := ParseTag(tag)
		if ok {
			b.Append(style, start)
		}
		i = end + 1
	}
	return b.Build()
}

// ParseTag reads a bracket tag body without the brackets or the closing
// slash, it is the inverse of Style.Tag.
func ParseTag(tag string) (Style, bool) {
	for kind, name := range simpleTags {
		if name == tag {
			return Style{Kind: kind}, true
		}
	}
	if tag == "size" {
		return SizeStyle(0, UnitPx), true
	}
	param, ok := strings.CutPrefix(tag, "size=")
	if !ok {
		return Style{}, false
	}
	return parseSize(param)
}

// parseSize reads "<number><unit>" where the unit defaults to px.
func parseSize(param string) (Style, bool) {
	param = strings.TrimSpace(param)
	unit := UnitPx
	switch {
	case strings.HasSuffix(param, "em"):
		unit = UnitEm
		param = param[:len(param)-2]
	case strings.HasSuffix(param, "pt"):
		unit = UnitPt
		param = param[:len(param)-2]
	case strings.HasSuffix(param, "px"):
		param = param[:len(param)-2]
	}
	value, err := strconv.ParseFloat(strings.TrimSpace(param), 64)
	if err != nil {
		return Style{}, false
	}
	return SizeStyle(value, unit), true
}

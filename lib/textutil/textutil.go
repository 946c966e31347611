package textutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var whitespaceRegex = regexp.MustCompile(`\s+`)

func NormalizeName(name string) string {
	name = strings.ToLower(name)
	name = strings.Trim(name, " \n\t")
	name = whitespaceRegex.ReplaceAllString(name, "")
	return name
}

// MatchName reports whether the normalized name contains one of matchers,
// which must already be normalized.
func MatchName(name string, matchers []string) bool {
	name = NormalizeName(name)
	for _, m := range matchers {
		if strings.Contains(name, m) {
			return true
		}
	}
	return false
}

// ToIntLiberal drops every non-digit in s and parses what remains,
// "views: 1,234(old)" becomes 1234. A minus sign is dropped like any other
// character. def is returned when s has no digits or they overflow int64.
func ToIntLiberal(s string, def int64) int64 {
	digits := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			digits = append(digits, s[i])
		}
	}
	if len(digits) == 0 {
		return def
	}
	n, err := strconv.ParseInt(string(digits), 10, 64)
	if err != nil {
		return def
	}
	return n
}

func isClipSpace(r rune) bool {
	return r == ' ' || r == '\n' || r == '\t' || r == '\r'
}

// ClipWhitespace collapses every run of spaces, tabs and newlines into a
// single space. If afterSpace is set, a leading run is dropped entirely.
func ClipWhitespace(s string, afterSpace bool) string {
	var out strings.Builder
	out.Grow(len(s))
	space := afterSpace
	for _, r := range s {
		if isClipSpace(r) {
			if !space {
				out.WriteByte(' ')
				space = true
			}
			continue
		}
		out.WriteRune(r)
		space = false
	}
	return out.String()
}

var ordinalSuffix = regexp.MustCompile(`(\d)(st|nd|rd|th)\b`)

var ordinalLayouts = []string{
	"2 Jan 2006",
	"2 January 2006",
}

// ParseOrdinalDate parses dates in the site's "12th Jan 2013" format.
func ParseOrdinalDate(s string) (time.Time, error) {
	s = ordinalSuffix.ReplaceAllString(strings.TrimSpace(s), "$1")
	s = whitespaceRegex.ReplaceAllString(s, " ")
	for _, layout := range ordinalLayouts {
		t, err := time.ParseInLocation(layout, s, time.UTC)
		if err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

var feedLayouts = []string{
	time.RFC3339,
	"2006-01-02T150405Z0700",
	time.RFC1123Z,
	time.RFC1123,
}

// ParseFeedDate parses the timestamps found in feeds, these are ISO 8601
// with or without the colons in the time and the offset.
func ParseFeedDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range feedLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
	}
	t, err := time.Parse("2006-01-02T150405Z0700", strings.ReplaceAll(s, ":", ""))
	if err != nil {
		return time.Time{}, fmt.Errorf("unrecognized feed date %q", s)
	}
	return t, nil
}

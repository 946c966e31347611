package htmlutil

import (
	"errors"
	"io"

	"golang.org/x/net/html"
)

// Attributes are the attributes of a start tag, keys are lowercased and
// values are unescaped.
type Attributes []html.Attribute

// Lookup returns the value of the attribute named key.
func (a Attributes) Lookup(key string) (string, bool) {
	for _, attr := range a {
		if attr.Key == key {
			return attr.Val, true
		}
	}
	return "", false
}

// Get returns the value of the attribute named key or "" if it isn't set.
func (a Attributes) Get(key string) string {
	val, _ := a.Lookup(key)
	return val
}

// Handler receives the events of a document in order. Returning an error
// from any method stops the walk.
type Handler interface {
	StartElement(name string, attrs Attributes) error
	EndElement(name string) error
	Text(text string) error
}

var voidElements = map[string]bool{
	"area":   true,
	"base":   true,
	"br":     true,
	"col":    true,
	"embed":  true,
	"hr":     true,
	"img":    true,
	"input":  true,
	"link":   true,
	"meta":   true,
	"param":  true,
	"source": true,
	"track":  true,
	"wbr":    true,
}

// Walk tokenizes the markup in r and reports every element and text run
// to h. Void and self-closing elements get an end event right after their
// start event, unclosed elements are not closed.
func Walk(r io.Reader, h Handler) error {
	z := html.NewTokenizer(r)
	for {
		tt := z.Next()
		switch tt {
		case html.ErrorToken:
			if errors.Is(z.Err(), io.EOF) {
				return nil
			}
			return z.Err()
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			err := h.StartElement(tok.Data, Attributes(tok.Attr))
			if err != nil {
				return err
			}
			if tt == html.SelfClosingTagToken || voidElements[tok.Data] {
				err = h.EndElement(tok.Data)
				if err != nil {
					return err
				}
			}
		case html.EndTagToken:
			tok := z.Token()
			if voidElements[tok.Data] {
				continue
			}
			err := h.EndElement(tok.Data)
			if err != nil {
				return err
			}
		case html.TextToken:
			text := string(z.Text())
			if text == "" {
				continue
			}
			err := h.Text(text)
			if err != nil {
				return err
			}
		}
	}
}

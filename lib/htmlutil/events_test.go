package htmlutil

import (
	"fmt"
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	events []string
}

func (r *recorder) StartElement(name string, attrs Attributes) error {
	r.events = append(r.events, fmt.Sprintf("<%s class=%q>", name, attrs.Get("class")))
	return nil
}

func (r *recorder) EndElement(name string) error {
	r.events = append(r.events, fmt.Sprintf("</%s>", name))
	return nil
}

func (r *recorder) Text(text string) error {
	r.events = append(r.events, text)
	return nil
}

func TestWalk(t *testing.T) {
	rec := &recorder{}
	err := Walk(strings.NewReader(`<div class="a">x &amp; y<br><img src="z"/></div><br/>`), rec)
	require.NoError(t, err)

	expected := []string{
		`<div class="a">`,
		"x & y",
		`<br class="">`,
		"</br>",
		`<img class="">`,
		"</img>",
		"</div>",
		`<br class="">`,
		"</br>",
	}
	if diff := cmp.Diff(expected, rec.events); diff != "" {
		t.Fatal(diff)
	}
}

type failing struct{ recorder }

func (f *failing) Text(string) error {
	return fmt.Errorf("stop")
}

func TestWalkStopsOnError(t *testing.T) {
	err := Walk(strings.NewReader(`<p>text</p>`), &failing{})
	require.EqualError(t, err, "stop")
}

func TestSelectionText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(`<p id="x">  hello <b>world</b> </p>`))
	require.NoError(t, err)
	require.Equal(t, "hello world", SelectionText(doc.Find("#x")))
	require.Equal(t, "", SelectionText(doc.Find("#missing")))
}

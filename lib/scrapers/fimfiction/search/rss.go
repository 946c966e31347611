package search

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"fimfiction/lib/bundle"
	"fimfiction/lib/formatted"
	"fimfiction/lib/model"
	"fimfiction/lib/textutil"
)

type rssStage int

const (
	rssNone rssStage = iota
	rssItem
	rssTitle
	rssDescription
	rssLink
	rssUpdated
)

var rssStageNames = [...]string{
	rssNone:        "none",
	rssItem:        "item",
	rssTitle:       "title",
	rssDescription: "description",
	rssLink:        "link",
	rssUpdated:     "updated",
}

func (s rssStage) String() string {
	return "rss-" + rssStageNames[s]
}

var rssElements = map[string]rssStage{
	"title":       rssTitle,
	"description": rssDescription,
	"link":        rssLink,
	"pubdate":     rssUpdated,
}

// storyIDFromURL returns the path segment following "/story/".
func storyIDFromURL(u *url.URL) (int, error) {
	_, rest, ok := strings.Cut(u.Path, "/story/")
	if !ok {
		return 0, fmt.Errorf("no story id in %s", u)
	}
	segment, _, _ := strings.Cut(rest, "/")
	return strconv.Atoi(segment)
}

type rssParser struct {
	stage rssStage
	story *bundle.Record
	text  strings.Builder
	out   []*bundle.Record
}

func (p *rssParser) fail(tag string, err error) error {
	return &ParseError{Stage: p.stage.String(), Tag: tag, Context: p.text.String(), Err: err}
}

func (p *rssParser) start(name string) {
	switch p.stage {
	case rssNone:
		if name == "item" {
			p.story = model.NewStory()
			p.stage = rssItem
		}
	case rssItem:
		stage, ok := rssElements[name]
		if ok {
			p.text.Reset()
			p.stage = stage
		}
	case rssDescription:
		p.text.WriteString("<" + name + ">")
	}
}

func voidElement(name string) bool {
	for _, v := range rssAutoClose {
		if v == name {
			return true
		}
	}
	return false
}

func (p *rssParser) end(name string) error {
	switch p.stage {
	case rssItem:
		if name == "item" {
			p.out = append(p.out, p.story)
			p.story = nil
			p.stage = rssNone
		}
		return nil
	case rssNone:
		return nil
	case rssDescription:
		if name != "description" {
			if !voidElement(name) {
				p.text.WriteString("</" + name + ">")
			}
			return nil
		}
	}
	if rssElements[name] != p.stage {
		return nil
	}

	text := strings.TrimSpace(p.text.String())
	switch p.stage {
	case rssTitle:
		p.story.MustSet(model.StoryTitle, text)
	case rssDescription:
		description, err := formatted.ParseHTML(text)
		if err != nil {
			return p.fail(name, err)
		}
		p.story.MustSet(model.StoryDescription, description)
	case rssLink:
		u, err := url.Parse(text)
		if err != nil {
			return p.fail(name, err)
		}
		id, err := storyIDFromURL(u)
		if err != nil {
			return p.fail(name, err)
		}
		p.story.MustSet(model.StoryURL, u)
		p.story.MustSet(model.StoryID, id)
	case rssUpdated:
		t, err := textutil.ParseFeedDate(text)
		if err != nil {
			return p.fail(name, err)
		}
		p.story.MustSet(model.StoryDateUpdated, t)
	}
	p.text.Reset()
	p.stage = rssItem
	return nil
}

// rssAutoClose are the void html elements that may appear unescaped in a
// feed. It leaves out "link", which is a regular element in rss.
var rssAutoClose = []string{"br", "hr", "img", "meta", "input", "area", "base", "col", "param"}

// ParseRSS reads the stories of a feed. Every item yields a story with its
// title, url, id, update date and, if the item has one, description.
func ParseRSS(r io.Reader) ([]*bundle.Record, error) {
	d := xml.NewDecoder(r)
	d.Strict = false
	d.AutoClose = rssAutoClose
	d.Entity = xml.HTMLEntity

	p := &rssParser{}
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, p.fail("", err)
		}

		switch tok := tok.(type) {
		case xml.StartElement:
			p.start(strings.ToLower(tok.Name.Local))
		case xml.EndElement:
			err = p.end(strings.ToLower(tok.Name.Local))
			if err != nil {
				return nil, err
			}
		case xml.CharData:
			if p.stage > rssItem {
				p.text.Write(tok)
			}
		}
	}
	if p.stage != rssNone {
		return nil, p.fail("", errors.New("unexpected end of feed"))
	}
	return p.out, nil
}

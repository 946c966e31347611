package core

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"fimfiction/lib/bundle"
	"fimfiction/lib/htmlutil"
	"fimfiction/lib/model"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
)

const (
	report_client_set_rating    = "client.set-rating"
	report_client_toggle_unread = "client.toggle-unread"
	report_client_set_shelf     = "client.set-shelf"
)

// the rate endpoint takes a percentage
const (
	rateLike    = "100"
	rateDislike = "0"
)

func recordID(r *bundle.Record, key *bundle.Key) (string, error) {
	id, err := bundle.Int(r, key)
	if err != nil {
		return "", err
	}
	return strconv.FormatInt(id, 10), nil
}

// SetRating likes or dislikes a story. A rating can't be taken back, only
// flipped, so RatingNone is refused. The returned story only holds the
// like and dislike counts and the rating the site answered with.
func (c *Client) SetRating(ctx context.Context, story *bundle.Record, rating model.Rating) (*bundle.Record, error) {
	ctx, span := tracer.Start(ctx, "client:SetRating")
	defer span.End()

	var value string
	switch rating {
	case model.RatingLike:
		value = rateLike
	case model.RatingDislike:
		value = rateDislike
	default:
		return nil, fmt.Errorf("set rating: cannot set rating %s", rating)
	}
	id, err := recordID(story, model.StoryID)
	if err != nil {
		return nil, fmt.Errorf("set rating: %w", err)
	}
	span.SetAttributes(attribute.String("story_id", id))

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"story":  id,
			"rating": value,
		}).
		Post(c.Endpoints.Rate)
	err = checkResponse(res, err)
	if err != nil {
		return nil, c.fail(span, report_client_set_rating, fmt.Errorf("set rating: %w", err))
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, c.fail(span, report_client_set_rating, fmt.Errorf("set rating: parse response: %w", err))
	}
	flag := func(name string) bool {
		return strings.TrimSpace(doc.Find(name).First().Text()) == "1"
	}
	count := func(name string) (int, error) {
		text := strings.TrimSpace(doc.Find(name).First().Text())
		n, err := strconv.Atoi(text)
		if err != nil {
			return 0, fmt.Errorf("%w: %s is %q", ErrUnexpectedResponse, name, text)
		}
		return n, nil
	}

	likes, err := count("likes")
	if err != nil {
		return nil, c.fail(span, report_client_set_rating, fmt.Errorf("set rating: %w", err))
	}
	dislikes, err := count("dislikes")
	if err != nil {
		return nil, c.fail(span, report_client_set_rating, fmt.Errorf("set rating: %w", err))
	}
	result := model.RatingNone
	if flag("liked") {
		result = model.RatingLike
	} else if flag("disliked") {
		result = model.RatingDislike
	}

	return model.NewStory().
		MustSet(model.StoryLikeCount, likes).
		MustSet(model.StoryDislikeCount, dislikes).
		MustSet(model.StoryRating, result), nil
}

// unreadHandler picks the status digit out of a toggle response, 0 means
// the chapter is unread now.
type unreadHandler struct {
	unread bool
	found  bool
}

func (h *unreadHandler) StartElement(string, htmlutil.Attributes) error { return nil }
func (h *unreadHandler) EndElement(string) error                       { return nil }

func (h *unreadHandler) Text(text string) error {
	switch strings.TrimSpace(text) {
	case "0":
		h.unread, h.found = true, true
	case "1":
		h.unread, h.found = false, true
	}
	return nil
}

// ToggleUnread flips the read state of a chapter, the site has no way to
// set it directly. The returned chapter only holds the new unread flag.
func (c *Client) ToggleUnread(ctx context.Context, chapter *bundle.Record) (*bundle.Record, error) {
	ctx, span := tracer.Start(ctx, "client:ToggleUnread")
	defer span.End()

	id, err := recordID(chapter, model.ChapterID)
	if err != nil {
		return nil, fmt.Errorf("toggle unread: %w", err)
	}
	span.SetAttributes(attribute.String("chapter_id", id))

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{"chapter": id}).
		Post(c.Endpoints.ToggleRead)
	err = checkResponse(res, err)
	if err != nil {
		return nil, c.fail(span, report_client_toggle_unread, fmt.Errorf("toggle unread: %w", err))
	}

	h := &unreadHandler{}
	err = htmlutil.Walk(bytes.NewBuffer(res.Body()), h)
	if err == nil && !h.found {
		err = fmt.Errorf("%w: no read state in %q", ErrUnexpectedResponse, res.String())
	}
	if err != nil {
		return nil, c.fail(span, report_client_toggle_unread, fmt.Errorf("toggle unread: %w", err))
	}
	return model.NewChapter().MustSet(model.ChapterUnread, h.unread), nil
}

func withoutShelf(shelves bundle.Set, id int64) bundle.Set {
	out := make(bundle.Set, 0, len(shelves))
	for _, v := range shelves {
		other, err := bundle.Int(v.(*bundle.Record), model.ShelfID)
		if err == nil && other == id {
			continue
		}
		out = append(out, v)
	}
	return out
}

// SetShelf adds a story to or removes it from a shelf. The returned story
// is a mutable copy of story with its shelves and the favorite and read
// later flags updated to what the site answered.
func (c *Client) SetShelf(ctx context.Context, story, shelf *bundle.Record, add bool) (*bundle.Record, error) {
	ctx, span := tracer.Start(ctx, "client:SetShelf")
	defer span.End()

	storyID, err := recordID(story, model.StoryID)
	if err != nil {
		return nil, fmt.Errorf("set shelf: %w", err)
	}
	shelfID, err := bundle.Int(shelf, model.ShelfID)
	if err != nil {
		return nil, fmt.Errorf("set shelf: %w", err)
	}
	task := "remove"
	if add {
		task = "add"
	}
	span.SetAttributes(
		attribute.String("story_id", storyID),
		attribute.Int64("shelf_id", shelfID),
		attribute.String("task", task),
	)

	res, err := c.Http.R().
		SetContext(ctx).
		SetFormData(map[string]string{
			"story":     storyID,
			"bookshelf": strconv.FormatInt(shelfID, 10),
			"task":      task,
		}).
		Post(c.Endpoints.Shelf)
	err = checkResponse(res, err)
	if err != nil {
		return nil, c.fail(span, report_client_set_shelf, fmt.Errorf("set shelf: %w", err))
	}

	var answer struct {
		Added *bool `json:"added"`
	}
	err = json.Unmarshal(res.Body(), &answer)
	if err == nil && answer.Added == nil {
		err = fmt.Errorf("%w: no added field in %q", ErrUnexpectedResponse, res.String())
	}
	if err != nil {
		return nil, c.fail(span, report_client_set_shelf, fmt.Errorf("set shelf: %w", err))
	}

	added := withoutShelf(bundle.GetOr(story, model.StoryShelvesAdded, bundle.Set{}), shelfID)
	notAdded := withoutShelf(bundle.GetOr(story, model.StoryShelvesNotAdded, bundle.Set{}), shelfID)
	if *answer.Added {
		added = append(added, shelf)
	} else {
		notAdded = append(notAdded, shelf)
	}

	updated := story.ToMutableCopy()
	err = updated.Set(model.StoryShelvesAdded, added)
	if err != nil {
		return nil, fmt.Errorf("set shelf: %w", err)
	}
	err = updated.Set(model.StoryShelvesNotAdded, notAdded)
	if err != nil {
		return nil, fmt.Errorf("set shelf: %w", err)
	}
	err = model.ApplyShelfFlags(updated)
	if err != nil {
		return nil, fmt.Errorf("set shelf: %w", err)
	}
	return updated, nil
}

func (c *Client) setNamedShelf(ctx context.Context, story *bundle.Record, name string, add bool) (*bundle.Record, error) {
	shelf, _, ok := model.FindShelf(story, name)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrShelfUnknown, name)
	}
	return c.SetShelf(ctx, story, shelf, add)
}

// SetFavorite sets the favorite state through the "Favourites" shelf,
// story must have been read with its shelves.
func (c *Client) SetFavorite(ctx context.Context, story *bundle.Record, state model.FavoriteState) (*bundle.Record, error) {
	return c.setNamedShelf(ctx, story, model.ShelfFavourites, state.IsFavorited())
}

// SetReadLater sets the read later flag through the "Read It Later" shelf.
func (c *Client) SetReadLater(ctx context.Context, story *bundle.Record, readLater bool) (*bundle.Record, error) {
	return c.setNamedShelf(ctx, story, model.ShelfReadItLater, readLater)
}

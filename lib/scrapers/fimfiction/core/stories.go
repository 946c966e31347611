package core

import (
	"bytes"
	"context"
	"fmt"
	"strconv"

	"fimfiction/lib/bundle"
	"fimfiction/lib/model"
	"fimfiction/lib/scrapers/fimfiction/search"

	"go.opentelemetry.io/otel/attribute"
)

const (
	report_client_search      = "client.search"
	report_client_unread_feed = "client.unread-feed"
	report_client_story_meta  = "client.story-meta"
)

// Search fetches a search result page, pageURL may be absolute or relative
// to the base url. The returned SearchResult record is mutable.
func (c *Client) Search(ctx context.Context, pageURL string, mode search.Mode) (*bundle.Record, error) {
	ctx, span := tracer.Start(ctx, "client:Search")
	defer span.End()

	span.SetAttributes(
		attribute.String("url", pageURL),
		attribute.String("mode", mode.String()),
	)

	res, err := c.Http.R().
		SetContext(ctx).
		Get(pageURL)
	err = checkResponse(res, err)
	if err != nil {
		return nil, c.fail(span, report_client_search, fmt.Errorf("search: %w", err))
	}

	result, err := c.pages.Parse(bytes.NewBuffer(res.Body()), mode)
	if err != nil {
		return nil, c.fail(span, report_client_search, fmt.Errorf("search: %w", err))
	}
	c.countParsed(ctx, len(result.Stories))
	return result.Record(), nil
}

// StoryPage fetches the page of a single story and returns its story.
func (c *Client) StoryPage(ctx context.Context, storyID int64, mode search.Mode) (*bundle.Record, error) {
	result, err := c.Search(ctx, fmt.Sprintf(c.Endpoints.Story, storyID), mode)
	if err != nil {
		return nil, err
	}
	stories := bundle.GetOr(result, model.SearchResultStories, bundle.List{})
	if len(stories) == 0 {
		return nil, fmt.Errorf("story page %d: %w: no story on the page", storyID, ErrUnexpectedResponse)
	}
	return stories[0].(*bundle.Record), nil
}

// UnreadFeed fetches the tracking feed of a user, it lists the stories
// that have chapters the user has not read.
func (c *Client) UnreadFeed(ctx context.Context, userID int64) ([]*bundle.Record, error) {
	ctx, span := tracer.Start(ctx, "client:UnreadFeed")
	defer span.End()

	span.SetAttributes(attribute.Int64("user_id", userID))

	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParam("user", strconv.FormatInt(userID, 10)).
		Get(c.Endpoints.UnreadFeed)
	err = checkResponse(res, err)
	if err != nil {
		return nil, c.fail(span, report_client_unread_feed, fmt.Errorf("unread feed: %w", err))
	}

	stories, err := search.ParseRSS(bytes.NewBuffer(res.Body()))
	if err != nil {
		return nil, c.fail(span, report_client_unread_feed, fmt.Errorf("unread feed: %w", err))
	}
	c.countParsed(ctx, len(stories))
	return stories, nil
}

// StoryMeta reads a story and its chapters from the JSON api.
func (c *Client) StoryMeta(ctx context.Context, storyID int64) (*bundle.Record, error) {
	ctx, span := tracer.Start(ctx, "client:StoryMeta")
	defer span.End()

	span.SetAttributes(attribute.Int64("story_id", storyID))

	res, err := c.Http.R().
		SetContext(ctx).
		SetQueryParam("story", strconv.FormatInt(storyID, 10)).
		Get(c.Endpoints.StoryAPI)
	err = checkResponse(res, err)
	if err != nil {
		return nil, c.fail(span, report_client_story_meta, fmt.Errorf("story meta: %w", err))
	}

	story, err := c.meta.ParseBytes(res.Body(), model.StorySchema)
	if err != nil {
		return nil, c.fail(span, report_client_story_meta, fmt.Errorf("story meta: %w", err))
	}
	// the api answers unknown ids with an object that only holds an error
	if !story.Has(model.StoryID) {
		return nil, fmt.Errorf("story meta %d: %w: %s", storyID, ErrUnexpectedResponse, res.String())
	}
	c.countParsed(ctx, 1)
	return story, nil
}

package apijson

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"fimfiction/internal/components/telemetry"
	"fimfiction/lib/bundle"
	"fimfiction/lib/formatted"
	"fimfiction/lib/model"

	"github.com/stretchr/testify/require"
)

const storyResponse = `{
	"story": {
		"id": 1234,
		"title": "A Test Story",
		"url": "http://www.fimfiction.net/story/1234/a-test-story",
		"description": "[b]Bold[/b] start",
		"short_description": "Short",
		"views": 1500,
		"total_views": 9876,
		"words": 12345,
		"comments": 31,
		"date_modified": 1370089800,
		"full_image": "//www.fimfiction-static.net/images/story_images/1234.png",
		"image": null,
		"status": "Complete",
		"content_rating": 1,
		"content_rating_text": "Teen",
		"likes": 1120,
		"dislikes": 8,
		"chapter_count": 2,
		"categories": {"Romance": true, "Comedy": false, "Slice of Life": true, "Poetry": true},
		"author": {"id": 42, "name": "Some Author"},
		"chapters": [
			{"id": 11, "title": "One", "words": 1000, "views": 700, "link": "http://www.fimfiction.net/story/1234/1/a-test-story/one", "date_modified": 1357171200},
			{"id": 12, "title": "Two", "words": 2500, "views": 800, "link": "http://www.fimfiction.net/story/1234/2/a-test-story/two", "date_modified": 1360454400}
		],
		"rating": 97
	}
}`

func TestParseStory(t *testing.T) {
	tel := &telemetry.TestAPI{}
	r := NewReader(model.NewRegistry(), tel)

	story, err := r.ParseBytes([]byte(storyResponse), model.StorySchema)
	require.NoError(t, err)

	numbers := map[*bundle.Key]int64{
		model.StoryID:                      1234,
		model.StoryViewCountMaximumChapter: 1500,
		model.StoryViewCountTotal:          9876,
		model.StoryWordCount:               12345,
		model.StoryCommentCount:            31,
		model.StoryLikeCount:               1120,
		model.StoryDislikeCount:            8,
		model.StoryChapterCount:            2,
	}
	for key, expected := range numbers {
		n, err := bundle.Int(story, key)
		require.NoError(t, err, key.String())
		require.Equal(t, expected, n, key.String())
	}

	require.Equal(t, "A Test Story", bundle.GetOr(story, model.StoryTitle, ""))
	require.Equal(t, "Short", bundle.GetOr(story, model.StoryDescriptionShort, ""))
	require.Equal(t, "[b]Bold[/b] start", bundle.GetOr(story, model.StoryDescription, formatted.Text{}).BBCode())
	require.Equal(t, time.Unix(1370089800, 0).UTC(), bundle.GetOr(story, model.StoryDateUpdated, time.Time{}))

	cover := bundle.GetOr(story, model.StoryCoverURL, bundle.None())
	u, ok := cover.OrElse(nil).(*url.URL)
	require.True(t, ok)
	require.Equal(t, "http://www.fimfiction-static.net/images/story_images/1234.png", u.String())
	require.True(t, story.Has(model.StoryThumbnailURL))
	require.False(t, bundle.GetOr(story, model.StoryThumbnailURL, bundle.Some("x")).Present())

	require.Equal(t, bundle.Identifiable(model.StatusCompleted), bundle.GetOr[bundle.Identifiable](story, model.StoryStatusKey, nil))
	require.Equal(t, bundle.Identifiable(model.ContentRatingTeen), bundle.GetOr[bundle.Identifiable](story, model.StoryContentRating, nil))

	categories := bundle.GetOr(story, model.StoryCategories, bundle.Set{})
	require.ElementsMatch(t, bundle.Set{model.CategoryRomance, model.CategorySliceOfLife}, categories)
	require.True(t, tel.Has(telemetry.KindWarning, report_enum))

	author := bundle.GetOr[*bundle.Record](story, model.StoryAuthor, nil)
	require.NotNil(t, author)
	require.Equal(t, "Some Author", bundle.GetOr(author, model.UserName, ""))

	chapters := bundle.GetOr(story, model.StoryChapters, bundle.List{})
	require.Len(t, chapters, 2)
	second := chapters[1].(*bundle.Record)
	id, err := bundle.Int(second, model.ChapterID)
	require.NoError(t, err)
	require.Equal(t, int64(12), id)
	require.Equal(t, time.Date(2013, 2, 10, 0, 0, 0, 0, time.UTC), bundle.GetOr(second, model.ChapterDateModified, time.Time{}))
}

func TestCategoryEncodings(t *testing.T) {
	r := NewReader(model.NewRegistry(), nil)

	cases := []struct {
		name string
		json string
	}{
		{name: "array of ids", json: `{"categories": ["romance", "sad"]}`},
		{name: "array of names", json: `{"categories": ["Romance", "Sad"]}`},
		{name: "selection map", json: `{"categories": {"Romance": true, "Sad": true, "Dark": false}}`},
	}
	for _, c := range cases {
		story, err := r.ParseBytes([]byte(c.json), model.StorySchema)
		require.NoError(t, err, c.name)
		categories := bundle.GetOr(story, model.StoryCategories, bundle.Set{})
		require.ElementsMatch(t, bundle.Set{model.CategoryRomance, model.CategorySad}, categories, c.name)
	}
}

func TestReaderWithoutRegistry(t *testing.T) {
	readers := []Reader{NewReader(nil, nil), {}}
	for _, r := range readers {
		story, err := r.ParseBytes([]byte(`{"categories": ["romance"], "status": "Complete"}`), model.StorySchema)
		require.NoError(t, err)
		require.Equal(t, bundle.Set{model.CategoryRomance}, bundle.GetOr(story, model.StoryCategories, bundle.Set{}))
		require.Equal(t, bundle.Identifiable(model.StatusCompleted), bundle.GetOr[bundle.Identifiable](story, model.StoryStatusKey, nil))
	}
}

func TestContentRatingEncodings(t *testing.T) {
	r := NewReader(model.NewRegistry(), nil)

	cases := []struct {
		json     string
		expected model.ContentRating
	}{
		{json: `{"content_rating": 0}`, expected: model.ContentRatingEveryone},
		{json: `{"content_rating": 2}`, expected: model.ContentRatingMature},
		{json: `{"content_rating": "teen"}`, expected: model.ContentRatingTeen},
		{json: `{"content_rating": "Mature"}`, expected: model.ContentRatingMature},
	}
	for _, c := range cases {
		story, err := r.ParseBytes([]byte(c.json), model.StorySchema)
		require.NoError(t, err, c.json)
		require.Equal(t, bundle.Identifiable(c.expected), bundle.GetOr[bundle.Identifiable](story, model.StoryContentRating, nil), c.json)
	}
}

func TestParseUser(t *testing.T) {
	r := NewReader(model.NewRegistry(), nil)

	user, err := r.ParseBytes([]byte(`{
		"id": 42,
		"name": "Some Author",
		"num_followers": 17,
		"bio": "<p>Writes <i>things</i></p>",
		"date_joined": 1300000000,
		"avatar": {"128": "//www.fimfiction-static.net/images/avatars/42_128.png", "32": "//www.fimfiction-static.net/images/avatars/42_32.png"}
	}`), model.UserSchema)
	require.NoError(t, err)

	followers, err := bundle.Int(user, model.UserFollowerCount)
	require.NoError(t, err)
	require.Equal(t, int64(17), followers)
	require.Equal(t, "Writes [i]things[/i]", bundle.GetOr(user, model.UserBiography, formatted.Text{}).BBCode())
	avatar := bundle.GetOr(user, model.UserProfileImageURL, bundle.None())
	u, ok := avatar.OrElse(nil).(*url.URL)
	require.True(t, ok)
	require.Equal(t, "http://www.fimfiction-static.net/images/avatars/42_32.png", u.String())

	user, err = r.ParseBytes([]byte(`{"avatar": {"64": "//www.fimfiction-static.net/images/avatars/none_64.png"}}`), model.UserSchema)
	require.NoError(t, err)
	require.True(t, user.Has(model.UserProfileImageURL))
	require.False(t, bundle.GetOr(user, model.UserProfileImageURL, bundle.Some("x")).Present())
}

func TestParseErrors(t *testing.T) {
	tel := &telemetry.TestAPI{}
	r := NewReader(model.NewRegistry(), tel)

	cases := []struct {
		name   string
		json   string
		schema *bundle.Schema
		target error
	}{
		{name: "number as text", json: `{"words": "many"}`, schema: model.StorySchema, target: bundle.ErrInvalidValue},
		{name: "author not an object", json: `{"author": 5}`, schema: model.StorySchema, target: bundle.ErrInvalidValue},
		{name: "no field table", json: `{"name": "x"}`, schema: model.ShelfSchema, target: bundle.ErrUnsupportedKind},
	}
	for _, c := range cases {
		_, err := r.ParseBytes([]byte(c.json), c.schema)
		require.Error(t, err, c.name)
		require.True(t, errors.Is(err, c.target), c.name)
	}
	require.True(t, tel.Has(telemetry.KindBroken, report_parse))

	_, err := r.ParseBytes([]byte(`[1, 2]`), model.StorySchema)
	require.Error(t, err)
	_, err = r.ParseBytes([]byte(`{"id": `), model.StorySchema)
	require.Error(t, err)
}

func TestCustomTable(t *testing.T) {
	r := NewReader(model.NewRegistry(), nil)
	r.Tables = map[*bundle.Schema]Fields{
		model.ShelfSchema: {"id": model.ShelfID, "name": model.ShelfName, "quick_add": model.ShelfQuickAdd},
	}

	shelf, err := r.ParseBytes([]byte(`{"id": 3, "name": "Favourites", "quick_add": true, "icon": "star"}`), model.ShelfSchema)
	require.NoError(t, err)
	require.Equal(t, model.ShelfFavourites, bundle.GetOr(shelf, model.ShelfName, ""))
	require.True(t, bundle.GetOr(shelf, model.ShelfQuickAdd, false))
}

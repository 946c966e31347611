package bundle_test

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"fimfiction/lib/bundle"
	"fimfiction/lib/formatted"
	"fimfiction/lib/model"

	"github.com/stretchr/testify/require"
)

func mustURL(t *testing.T, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	require.NoError(t, err)
	return u
}

func TestSetGet(t *testing.T) {
	posted := time.Date(2013, time.March, 4, 10, 0, 0, 0, time.UTC)
	author := model.NewUser().MustSet(model.UserID, 12).MustSet(model.UserName, "author")

	cases := []struct {
		key   *bundle.Key
		value any
	}{
		{key: model.StoryID, value: int64(5)},
		{key: model.StoryTitle, value: "title"},
		{key: model.StoryDescription, value: formatted.ParseBBCode("[b]x[/b]")},
		{key: model.StoryURL, value: mustURL(t, "http://www.fimfiction.net/story/5")},
		{key: model.StoryDateFirstPosted, value: posted},
		{key: model.StorySex, value: true},
		{key: model.StoryAuthor, value: author},
		{key: model.StoryStatusKey, value: model.StatusCompleted},
		{key: model.StoryCoverURL, value: bundle.None()},
		{key: model.StoryCoverURL, value: bundle.Some(mustURL(t, "http://img/cover.png"))},
		{key: model.StoryCategories, value: bundle.Set{model.CategoryRomance, model.CategoryDark}},
		{key: model.StoryChapters, value: bundle.List{model.NewChapter().MustSet(model.ChapterID, 1)}},
	}

	for _, c := range cases {
		story := model.NewStory()
		require.NoError(t, story.Set(c.key, c.value), c.key.String())
		require.True(t, story.Has(c.key))

		got, err := story.Get(c.key)
		require.NoError(t, err)

		expected := model.NewStory().MustSet(c.key, c.value)
		actual := model.NewStory().MustSet(c.key, got)
		require.True(t, expected.Equal(actual), c.key.String())

		require.NoError(t, story.Unset(c.key))
		require.False(t, story.Has(c.key))
	}
}

func TestNumbersAreNormalized(t *testing.T) {
	story := model.NewStory().MustSet(model.StoryWordCount, int32(1200))
	n, err := bundle.Get[int64](story, model.StoryWordCount)
	require.NoError(t, err)
	require.Equal(t, int64(1200), n)

	other := model.NewStory().MustSet(model.StoryWordCount, 1200.0)
	require.True(t, story.Equal(other))
	require.Equal(t, story.Hash(), other.Hash())

	asInt, err := bundle.Int(other, model.StoryWordCount)
	require.NoError(t, err)
	require.Equal(t, int64(1200), asInt)
}

func TestErrors(t *testing.T) {
	story := model.NewStory()

	_, err := story.Get(model.StoryTitle)
	require.ErrorIs(t, err, bundle.ErrMissingField)
	var missing *bundle.MissingFieldError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, model.StoryTitle, missing.Key)

	err = story.Set(model.StoryTitle, 5)
	require.ErrorIs(t, err, bundle.ErrInvalidValue)
	var mismatch *bundle.TypeMismatchError
	require.True(t, errors.As(err, &mismatch))
	require.Equal(t, "text", mismatch.Kind.String())

	err = story.Set(model.ChapterID, 5)
	require.ErrorIs(t, err, bundle.ErrForeignKey)

	err = story.Set(model.StoryAuthor, model.NewChapter())
	require.ErrorIs(t, err, bundle.ErrInvalidValue)

	err = story.Set(model.StoryCategories, bundle.Set{model.CategoryRomance, model.RatingLike})
	require.ErrorIs(t, err, bundle.ErrInvalidValue)

	err = story.Set(model.StoryCoverURL, mustURL(t, "http://img"))
	require.ErrorIs(t, err, bundle.ErrInvalidValue)

	_, err = bundle.Get[string](story.MustSet(model.StoryID, 1), model.StoryID)
	require.ErrorIs(t, err, bundle.ErrInvalidValue)

	require.Equal(t, "fallback", story.GetOr(model.StoryTitle, "fallback"))
}

func TestUndeclaredEnumValues(t *testing.T) {
	cases := []struct {
		name  string
		key   *bundle.Key
		value any
	}{
		{name: "category in set", key: model.StoryCategories, value: bundle.Set{model.CategoryRomance, model.Category(99)}},
		{name: "negative status", key: model.StoryStatusKey, value: model.StoryStatus(-1)},
		{name: "rating past the end", key: model.StoryRating, value: model.Rating(3)},
		{name: "empty character", key: model.StoryCharacters, value: bundle.Set{model.Character{}}},
	}

	for _, test := range cases {
		t.Run(test.name, func(t *testing.T) {
			story := model.NewStory()
			err := story.Set(test.key, test.value)
			require.ErrorIs(t, err, bundle.ErrInvalidValue)
			require.False(t, story.Has(test.key))
			require.NotPanics(t, func() { story.Hash() })
		})
	}

	require.Equal(t, "", model.Category(99).ID())
	require.Equal(t, "", model.StoryStatus(-1).Name())
}

func TestFrozen(t *testing.T) {
	story := model.NewStory().MustSet(model.StoryID, 1)
	frozen := story.ToImmutableCopy()

	require.True(t, frozen.Frozen())
	require.False(t, story.Frozen())
	require.True(t, bundle.IsFrozen(frozen.Set(model.StoryTitle, "x")))
	require.True(t, bundle.IsFrozen(frozen.Unset(model.StoryID)))
	require.True(t, bundle.IsFrozen(frozen.Merge(story)))

	require.Same(t, frozen, frozen.ToImmutableCopy())
	require.True(t, frozen.Equal(frozen.ToImmutableCopy()))
	require.Same(t, story, story.ToMutable())

	thawed := frozen.ToMutable()
	require.NotSame(t, frozen, thawed)
	require.False(t, thawed.Frozen())
	require.NoError(t, thawed.Set(model.StoryTitle, "x"))
	require.False(t, frozen.Has(model.StoryTitle))
}

func TestFreezeIsDeep(t *testing.T) {
	author := model.NewUser().MustSet(model.UserName, "before")
	chapter := model.NewChapter().MustSet(model.ChapterID, 1)
	story := model.NewStory().
		MustSet(model.StoryAuthor, author).
		MustSet(model.StoryChapters, bundle.List{chapter})

	frozen := story.ToImmutableCopy()
	author.MustSet(model.UserName, "after")
	chapter.MustSet(model.ChapterTitle, "added")

	frozenAuthor, err := bundle.Get[*bundle.Record](frozen, model.StoryAuthor)
	require.NoError(t, err)
	require.True(t, frozenAuthor.Frozen())
	require.Equal(t, "before", bundle.GetOr(frozenAuthor, model.UserName, ""))

	chapters, err := bundle.Get[bundle.List](frozen, model.StoryChapters)
	require.NoError(t, err)
	require.Len(t, chapters, 1)
	require.True(t, chapters[0].(*bundle.Record).Frozen())
	require.False(t, chapters[0].(*bundle.Record).Has(model.ChapterTitle))

	// mutating the returned slice does not reach the record
	chapters[0] = model.NewChapter()
	again, _ := bundle.Get[bundle.List](frozen, model.StoryChapters)
	require.True(t, again[0].(*bundle.Record).Has(model.ChapterID))
}

func TestFrozenURLsAreCopies(t *testing.T) {
	chapter := model.NewChapter().
		MustSet(model.ChapterID, 1).
		MustSet(model.ChapterURL, mustURL(t, "https://www.fimfiction.net/story/1"))
	user := model.NewUser().
		MustSet(model.UserProfileImageURL, bundle.Some(mustURL(t, "https://www.fimfiction.net/avatar.png")))
	story := model.NewStory().
		MustSet(model.StoryChapters, bundle.List{chapter}).
		MustSet(model.StoryAuthor, user)
	frozen := story.ToImmutableCopy()

	frozenChapter := bundle.GetOr[bundle.List](frozen, model.StoryChapters, nil)[0].(*bundle.Record)
	u, err := bundle.Get[*url.URL](frozenChapter, model.ChapterURL)
	require.NoError(t, err)
	u.Host = "elsewhere.example"
	again, err := bundle.Get[*url.URL](frozenChapter, model.ChapterURL)
	require.NoError(t, err)
	require.Equal(t, "https://www.fimfiction.net/story/1", again.String())

	frozenUser := bundle.GetOr[*bundle.Record](frozen, model.StoryAuthor, nil)
	avatar, err := bundle.Get[bundle.Optional](frozenUser, model.UserProfileImageURL)
	require.NoError(t, err)
	inner, ok := avatar.Get()
	require.True(t, ok)
	inner.(*url.URL).Path = "/changed.png"
	avatar, _ = bundle.Get[bundle.Optional](frozenUser, model.UserProfileImageURL)
	inner, _ = avatar.Get()
	require.Equal(t, "https://www.fimfiction.net/avatar.png", inner.(*url.URL).String())

	thawed := frozenChapter.ToMutableCopy()
	thawedURL, err := bundle.Get[*url.URL](thawed, model.ChapterURL)
	require.NoError(t, err)
	thawedURL.Scheme = "http"
	again, _ = bundle.Get[*url.URL](frozenChapter, model.ChapterURL)
	require.Equal(t, "https", again.Scheme)
}

func TestSetCopiesCollections(t *testing.T) {
	categories := []model.Category{model.CategoryRomance, model.CategoryRomance, model.CategorySad}
	story := model.NewStory().MustSet(model.StoryCategories, categories)
	categories[0] = model.CategoryComedy

	set, err := bundle.Get[bundle.Set](story, model.StoryCategories)
	require.NoError(t, err)
	require.ElementsMatch(t, bundle.Set{model.CategoryRomance, model.CategorySad}, set)
}

func TestMerge(t *testing.T) {
	base := model.NewStory().
		MustSet(model.StoryID, 1).
		MustSet(model.StoryTitle, "old")
	update := model.NewStory().
		MustSet(model.StoryTitle, "new").
		MustSet(model.StoryLikeCount, 3)

	require.NoError(t, base.Merge(update))
	require.Equal(t, int64(1), bundle.GetOr(base, model.StoryID, int64(0)))
	require.Equal(t, "new", bundle.GetOr(base, model.StoryTitle, ""))
	require.Equal(t, int64(3), bundle.GetOr(base, model.StoryLikeCount, int64(0)))

	require.ErrorIs(t, base.Merge(model.NewChapter()), bundle.ErrForeignKey)
}

func TestEqualAndHash(t *testing.T) {
	a := model.NewStory().
		MustSet(model.StoryID, 1).
		MustSet(model.StoryCategories, bundle.Set{model.CategoryRomance, model.CategorySad}).
		MustSet(model.StoryDateUpdated, time.Date(2014, 1, 1, 12, 0, 0, 0, time.UTC))
	b := model.NewStory().
		MustSet(model.StoryID, 1).
		MustSet(model.StoryCategories, bundle.Set{model.CategorySad, model.CategoryRomance}).
		MustSet(model.StoryDateUpdated, time.Date(2014, 1, 1, 13, 0, 0, 0, time.FixedZone("x", 3600)))

	require.True(t, a.Equal(b))
	require.Equal(t, a.Hash(), b.Hash())
	require.True(t, a.Equal(a.ToImmutableCopy()))

	b.MustSet(model.StoryTitle, "x")
	require.False(t, a.Equal(b))
	require.False(t, a.Equal(model.NewChapter()))

	noCover := model.NewStory().MustSet(model.StoryCoverURL, bundle.None())
	require.False(t, noCover.Equal(model.NewStory()))
}

func TestSetKeys(t *testing.T) {
	story := model.NewStory().
		MustSet(model.StoryTitle, "t").
		MustSet(model.StoryID, 1)
	require.Equal(t, []*bundle.Key{model.StoryID, model.StoryTitle}, story.SetKeys())
	require.Equal(t, `story{id=1, title=t}`, story.String())
}

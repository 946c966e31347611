package model

import (
	"strings"
	"testing"

	"fimfiction/lib/bundle"

	"github.com/stretchr/testify/require"
)

func TestRegistryForID(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		enum     bundle.EnumType
		id       string
		expected bundle.Identifiable
	}{
		{enum: EnumCategory, id: "romance", expected: CategoryRomance},
		{enum: EnumCategory, id: "slice_of_life", expected: CategorySliceOfLife},
		{enum: EnumCategory, id: "Slice of Life", expected: CategorySliceOfLife},
		{enum: EnumCategory, id: "Romance", expected: CategoryRomance},
		{enum: EnumContentRating, id: "teen", expected: ContentRatingTeen},
		{enum: EnumRating, id: "dislike", expected: RatingDislike},
		{enum: EnumStoryStatus, id: "on_hiatus", expected: StatusOnHiatus},
		{enum: EnumStoryStatus, id: "Complete", expected: StatusCompleted},
		{enum: EnumOrder, id: "word_count", expected: OrderWordCount},
		{enum: EnumFavoriteState, id: "favorited_email", expected: FavoritedWithEmail},
	}
	for _, c := range cases {
		v, ok := reg.ForID(c.enum, c.id)
		require.True(t, ok, c.id)
		require.Equal(t, c.expected, v, c.id)
	}

	_, ok := reg.ForID(EnumCategory, "poetry")
	require.False(t, ok)
	_, ok = reg.ForID(EnumRating, "romance")
	require.False(t, ok)
}

func TestEveryConstantRoundTrips(t *testing.T) {
	reg := NewRegistry()
	for _, enum := range []bundle.EnumType{
		EnumCategory,
		EnumContentRating,
		EnumRating,
		EnumStoryStatus,
		EnumOrder,
		EnumFavoriteState,
		EnumCharacter,
	} {
		values := reg.Values(enum)
		require.NotEmpty(t, values, enum)
		for _, v := range values {
			resolved, ok := reg.ForID(enum, v.ID())
			require.True(t, ok, v.ID())
			require.Equal(t, v, resolved)
		}
	}
	require.Len(t, reg.Values(EnumCategory), 12)
	require.Len(t, reg.Values(EnumCharacter), len(defaultCharacters))
}

func TestCharacters(t *testing.T) {
	reg := NewRegistry()

	twilight, ok := Resolve[Character](reg, EnumCharacter, "twilight_sparkle")
	require.True(t, ok)
	require.Equal(t, 7, twilight.FimfictionID())
	require.Equal(t, "http://www.fimfiction-static.net/images/characters/twilight_sparkle.png", twilight.ImageURL())
	require.False(t, twilight.Generic())

	flim, ok := Resolve[Character](reg, EnumCharacter, "flim_and_flam")
	require.True(t, ok)
	require.Equal(t, "http://www.fimfiction-static.net/images/characters/flimflam.png", flim.ImageURL())

	require.Equal(t, twilight, reg.Character(7, "http://example.com/ignored.png"))

	generic := reg.Character(500, "http://example.com/500.png")
	require.True(t, generic.Generic())
	require.Equal(t, "generic:500:http://example.com/500.png", generic.ID())

	resolved, ok := reg.ForID(EnumCharacter, generic.ID())
	require.True(t, ok)
	require.Equal(t, generic, resolved)

	_, ok = reg.ForID(EnumCharacter, "generic:abc:http://example.com")
	require.False(t, ok)
}

func TestSuggest(t *testing.T) {
	reg := NewRegistry()

	v, score := reg.Suggest(EnumCategory, "romanse")
	require.Equal(t, CategoryRomance, v)
	require.Greater(t, score, 0.8)

	v, _ = reg.Suggest(EnumCharacter, "twilight sparkel")
	require.Equal(t, "twilight_sparkle", v.ID())
}

func TestMatching(t *testing.T) {
	reg := NewRegistry()

	cases := []struct {
		enumType bundle.EnumType
		query    string
		expected []string
	}{
		{enumType: EnumCategory, query: "of life", expected: []string{"slice_of_life"}},
		{enumType: EnumCategory, query: "slice-of-life", expected: []string{"slice_of_life"}},
		{enumType: EnumCategory, query: "UNIVERSE", expected: []string{"alternate_universe"}},
		{enumType: EnumStoryStatus, query: "nothing like it", expected: nil},
		{enumType: EnumCategory, query: "  ", expected: nil},
	}
	for _, c := range cases {
		var ids []string
		for _, v := range reg.Matching(c.enumType, c.query) {
			ids = append(ids, v.ID())
		}
		require.Equal(t, c.expected, ids, c.query)
	}

	characters := reg.Matching(EnumCharacter, "sparkle")
	require.NotEmpty(t, characters)
	for _, c := range characters {
		require.Contains(t, strings.ToLower(c.(Character).Name()), "sparkle")
	}
}

func TestByName(t *testing.T) {
	reg := NewRegistry()

	c, ok := reg.CategoryByName("Alternate Universe")
	require.True(t, ok)
	require.Equal(t, CategoryAlternateUniverse, c)
	_, ok = reg.CategoryByName("alternate universe")
	require.False(t, ok)

	s, ok := reg.StatusByName("On Hiatus")
	require.True(t, ok)
	require.Equal(t, StatusOnHiatus, s)

	r, ok := reg.ContentRatingByName("Mature")
	require.True(t, ok)
	require.Equal(t, ContentRatingMature, r)
}

func TestApplyShelfFlags(t *testing.T) {
	favourites := NewShelf().MustSet(ShelfID, 1).MustSet(ShelfName, ShelfFavourites)
	readLater := NewShelf().MustSet(ShelfID, 2).MustSet(ShelfName, ShelfReadItLater)

	story := NewStory().
		MustSet(StoryShelvesAdded, bundle.Set{favourites}).
		MustSet(StoryShelvesNotAdded, bundle.Set{readLater})
	require.NoError(t, ApplyShelfFlags(story))
	require.Equal(t, Favorited, bundle.GetOr[bundle.Identifiable](story, StoryFavoriteState, nil))
	require.Equal(t, false, bundle.GetOr(story, StoryReadLaterState, true))

	empty := NewStory()
	require.NoError(t, ApplyShelfFlags(empty))
	require.False(t, empty.Has(StoryFavoriteState))
	require.False(t, empty.Has(StoryReadLaterState))
}

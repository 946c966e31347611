package model

import "fimfiction/lib/bundle"

const (
	EnumCategory      bundle.EnumType = "category"
	EnumContentRating bundle.EnumType = "content_rating"
	EnumRating        bundle.EnumType = "rating"
	EnumStoryStatus   bundle.EnumType = "story_status"
	EnumOrder         bundle.EnumType = "order"
	EnumFavoriteState bundle.EnumType = "favorite_state"
	EnumCharacter     bundle.EnumType = "character"
)

type enumInfo struct {
	id   string
	name string
}

// enumAt returns the info of constant i, or an empty info for values
// outside the declared constants. An empty id marks the value invalid.
func enumAt(infos []enumInfo, i int) enumInfo {
	if i < 0 || i >= len(infos) {
		return enumInfo{}
	}
	return infos[i]
}

type Category int

const (
	CategoryRomance Category = iota
	CategoryTragedy
	CategorySad
	CategoryDark
	CategoryComedy
	CategoryRandom
	CategoryCrossover
	CategoryAdventure
	CategorySliceOfLife
	CategoryAlternateUniverse
	CategoryHuman
	CategoryAnthro
)

var categories = [...]enumInfo{
	CategoryRomance:           {"romance", "Romance"},
	CategoryTragedy:           {"tragedy", "Tragedy"},
	CategorySad:               {"sad", "Sad"},
	CategoryDark:              {"dark", "Dark"},
	CategoryComedy:            {"comedy", "Comedy"},
	CategoryRandom:            {"random", "Random"},
	CategoryCrossover:         {"crossover", "Crossover"},
	CategoryAdventure:         {"adventure", "Adventure"},
	CategorySliceOfLife:       {"slice_of_life", "Slice of Life"},
	CategoryAlternateUniverse: {"alternate_universe", "Alternate Universe"},
	CategoryHuman:             {"human", "Human"},
	CategoryAnthro:            {"anthro", "Anthro"},
}

func (c Category) ID() string { return enumAt(categories[:], int(c)).id }
func (c Category) Name() string { return enumAt(categories[:], int(c)).name }
func (c Category) String() string { return c.ID() }
func (Category) EnumType() bundle.EnumType { return EnumCategory }

// ContentRating is ordered from least to most restricted, the ordinal is
// what the JSON api reports.
type ContentRating int

const (
	ContentRatingEveryone ContentRating = iota
	ContentRatingTeen
	ContentRatingMature
)

var contentRatings = [...]enumInfo{
	ContentRatingEveryone: {"everyone", "Everyone"},
	ContentRatingTeen:     {"teen", "Teen"},
	ContentRatingMature:   {"mature", "Mature"},
}

func (c ContentRating) ID() string { return enumAt(contentRatings[:], int(c)).id }
func (c ContentRating) Name() string { return enumAt(contentRatings[:], int(c)).name }
func (c ContentRating) String() string { return c.ID() }
func (ContentRating) EnumType() bundle.EnumType { return EnumContentRating }

// Rating is the like/dislike state the logged in user gave a story.
type Rating int

const (
	RatingLike Rating = iota
	RatingDislike
	RatingNone
)

var ratings = [...]enumInfo{
	RatingLike:    {"like", "Like"},
	RatingDislike: {"dislike", "Dislike"},
	RatingNone:    {"none", "None"},
}

func (r Rating) ID() string { return enumAt(ratings[:], int(r)).id }
func (r Rating) Name() string { return enumAt(ratings[:], int(r)).name }
func (r Rating) String() string { return r.ID() }
func (Rating) EnumType() bundle.EnumType { return EnumRating }

type StoryStatus int

const (
	StatusIncomplete StoryStatus = iota
	StatusCancelled
	StatusOnHiatus
	StatusCompleted
)

var statuses = [...]enumInfo{
	StatusIncomplete: {"incomplete", "Incomplete"},
	StatusCancelled:  {"cancelled", "Cancelled"},
	StatusOnHiatus:   {"on_hiatus", "On Hiatus"},
	StatusCompleted:  {"completed", "Complete"},
}

func (s StoryStatus) ID() string { return enumAt(statuses[:], int(s)).id }
func (s StoryStatus) Name() string { return enumAt(statuses[:], int(s)).name }
func (s StoryStatus) String() string { return s.ID() }
func (StoryStatus) EnumType() bundle.EnumType { return EnumStoryStatus }

// Order is the sort order of a search.
type Order int

const (
	OrderFirstPostedDate Order = iota
	OrderHot
	OrderUpdateDate
	OrderRating
	OrderViewCount
	OrderWordCount
	OrderCommentCount
)

var orders = [...]enumInfo{
	OrderFirstPostedDate: {"first_posted_date", "First Posted Date"},
	OrderHot:             {"hot", "Hot"},
	OrderUpdateDate:      {"update_date", "Update Date"},
	OrderRating:          {"rating", "Rating"},
	OrderViewCount:       {"view_count", "View Count"},
	OrderWordCount:       {"word_count", "Word Count"},
	OrderCommentCount:    {"comment_count", "Comment Count"},
}

func (o Order) ID() string { return enumAt(orders[:], int(o)).id }
func (o Order) Name() string { return enumAt(orders[:], int(o)).name }
func (o Order) String() string { return o.ID() }
func (Order) EnumType() bundle.EnumType { return EnumOrder }

// FavoriteState predates shelves, it is derived from the "Favourites"
// shelf on newer pages.
type FavoriteState int

const (
	NotFavorited FavoriteState = iota
	Favorited
	FavoritedWithEmail
)

var favoriteStates = [...]enumInfo{
	NotFavorited:       {"not_favorited", "Not Favorited"},
	Favorited:          {"favorited", "Favorited"},
	FavoritedWithEmail: {"favorited_email", "Favorited With Email"},
}

func (f FavoriteState) ID() string { return enumAt(favoriteStates[:], int(f)).id }
func (f FavoriteState) Name() string { return enumAt(favoriteStates[:], int(f)).name }
func (f FavoriteState) String() string { return f.ID() }
func (FavoriteState) EnumType() bundle.EnumType { return EnumFavoriteState }

func (f FavoriteState) IsFavorited() bool {
	return f != NotFavorited
}

package model

import "fimfiction/lib/bundle"

var (
	UserSchema = bundle.NewSchema("user")

	UserID              = UserSchema.Key("id", bundle.Number)
	UserName            = UserSchema.Key("name", bundle.Text)
	UserProfileImageURL = UserSchema.Key("url_profile_image", bundle.OptionalOf(bundle.URL))
	UserFollowerCount   = UserSchema.Key("follower_count", bundle.Number)
	UserBiography       = UserSchema.Key("biography", bundle.Formatted)
	UserDateJoined      = UserSchema.Key("date_joined", bundle.Date)
)

var (
	ShelfSchema = bundle.NewSchema("shelf")

	ShelfID       = ShelfSchema.Key("id", bundle.Number)
	ShelfName     = ShelfSchema.Key("name", bundle.Text)
	ShelfQuickAdd = ShelfSchema.Key("quick_add", bundle.Boolean)
)

var (
	ChapterSchema = bundle.NewSchema("chapter")

	ChapterID           = ChapterSchema.Key("id", bundle.Number)
	ChapterTitle        = ChapterSchema.Key("title", bundle.Text)
	ChapterURL          = ChapterSchema.Key("url", bundle.URL)
	ChapterWordCount    = ChapterSchema.Key("word_count", bundle.Number)
	ChapterViewCount    = ChapterSchema.Key("view_count", bundle.Number)
	ChapterDateModified = ChapterSchema.Key("date_modified", bundle.Date)
	ChapterContent      = ChapterSchema.Key("content", bundle.Formatted)
	ChapterUnread       = ChapterSchema.Key("unread", bundle.Boolean)
)

var (
	StorySchema = bundle.NewSchema("story")

	StoryID                      = StorySchema.Key("id", bundle.Number)
	StoryTitle                   = StorySchema.Key("title", bundle.Text)
	StoryURL                     = StorySchema.Key("url", bundle.URL)
	StoryDescription             = StorySchema.Key("description", bundle.Formatted)
	StoryDescriptionShort        = StorySchema.Key("description_short", bundle.Text)
	StoryDateFirstPosted         = StorySchema.Key("date_first_posted", bundle.Date)
	StoryDateUpdated             = StorySchema.Key("date_updated", bundle.Date)
	StoryThumbnailURL            = StorySchema.Key("url_thumbnail", bundle.OptionalOf(bundle.URL))
	StoryCoverURL                = StorySchema.Key("url_cover", bundle.OptionalOf(bundle.URL))
	StoryViewCountMaximumChapter = StorySchema.Key("view_count_maximum_chapter", bundle.Number)
	StoryViewCountTotal          = StorySchema.Key("view_count_total", bundle.Number)
	StoryWordCount               = StorySchema.Key("word_count", bundle.Number)
	StoryChapterCount            = StorySchema.Key("chapter_count", bundle.Number)
	StoryCommentCount            = StorySchema.Key("comment_count", bundle.Number)
	StoryLikeCount               = StorySchema.Key("like_count", bundle.Number)
	StoryDislikeCount            = StorySchema.Key("dislike_count", bundle.Number)
	StoryAuthor                  = StorySchema.Key("author", bundle.RecordOf(UserSchema))
	StoryStatusKey               = StorySchema.Key("status", bundle.EnumOf(EnumStoryStatus))
	StoryContentRating           = StorySchema.Key("content_rating", bundle.EnumOf(EnumContentRating))
	StoryCategories              = StorySchema.Key("categories", bundle.SetOf(bundle.EnumOf(EnumCategory)))
	StoryCharacters              = StorySchema.Key("characters", bundle.SetOf(bundle.EnumOf(EnumCharacter)))
	StoryChapters                = StorySchema.Key("chapters", bundle.ListOf(bundle.RecordOf(ChapterSchema)))
	StorySex                     = StorySchema.Key("sex", bundle.Boolean)
	StoryGore                    = StorySchema.Key("gore", bundle.Boolean)
	StoryFavoriteState           = StorySchema.Key("favorite_state", bundle.EnumOf(EnumFavoriteState))
	StoryReadLaterState          = StorySchema.Key("read_later_state", bundle.Boolean)
	StoryRating                  = StorySchema.Key("rating", bundle.EnumOf(EnumRating))
	StoryRatingToken             = StorySchema.Key("rating_token", bundle.Text)
	StoryShelvesAdded            = StorySchema.Key("shelves_added", bundle.SetOf(bundle.RecordOf(ShelfSchema)))
	StoryShelvesNotAdded         = StorySchema.Key("shelves_not_added", bundle.SetOf(bundle.RecordOf(ShelfSchema)))
)

var (
	SearchParametersSchema = bundle.NewSchema("search_parameters")

	SearchName               = SearchParametersSchema.Key("name", bundle.Text)
	SearchOrder              = SearchParametersSchema.Key("order", bundle.EnumOf(EnumOrder))
	SearchCategoriesIncluded = SearchParametersSchema.Key("categories_included", bundle.SetOf(bundle.EnumOf(EnumCategory)))
	SearchCategoriesExcluded = SearchParametersSchema.Key("categories_excluded", bundle.SetOf(bundle.EnumOf(EnumCategory)))
	SearchCharactersIncluded = SearchParametersSchema.Key("characters_included", bundle.SetOf(bundle.EnumOf(EnumCharacter)))
	SearchCharactersExcluded = SearchParametersSchema.Key("characters_excluded", bundle.SetOf(bundle.EnumOf(EnumCharacter)))
	SearchContentRating      = SearchParametersSchema.Key("content_rating", bundle.EnumOf(EnumContentRating))
	SearchSex                = SearchParametersSchema.Key("sex", bundle.Boolean)
	SearchGore               = SearchParametersSchema.Key("gore", bundle.Boolean)
	SearchCompleted          = SearchParametersSchema.Key("completed", bundle.Boolean)
	SearchWordCountMaximum   = SearchParametersSchema.Key("word_count_maximum", bundle.Number)
	SearchWordCountMinimum   = SearchParametersSchema.Key("word_count_minimum", bundle.Number)
	SearchUnread             = SearchParametersSchema.Key("unread", bundle.Boolean)
	SearchFavorited          = SearchParametersSchema.Key("favorited", bundle.Boolean)
	SearchReadLater          = SearchParametersSchema.Key("read_later", bundle.Boolean)
	SearchUser               = SearchParametersSchema.Key("user", bundle.RecordOf(UserSchema))
	SearchShelf              = SearchParametersSchema.Key("shelf", bundle.RecordOf(ShelfSchema))
)

var (
	SearchResultSchema = bundle.NewSchema("search_result")

	SearchResultStories      = SearchResultSchema.Key("stories", bundle.ListOf(bundle.RecordOf(StorySchema)))
	SearchResultLoggedInUser = SearchResultSchema.Key("logged_in_user", bundle.OptionalOf(bundle.RecordOf(UserSchema)))
	SearchResultLogoutNonce  = SearchResultSchema.Key("logout_nonce", bundle.OptionalOf(bundle.Text))
)

func NewStory() *bundle.Record { return StorySchema.New() }
func NewChapter() *bundle.Record { return ChapterSchema.New() }
func NewUser() *bundle.Record { return UserSchema.New() }
func NewShelf() *bundle.Record { return ShelfSchema.New() }
func NewSearchParameters() *bundle.Record { return SearchParametersSchema.New() }
func NewSearchResult() *bundle.Record { return SearchResultSchema.New() }

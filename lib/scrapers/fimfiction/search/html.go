package search

import (
	"errors"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fimfiction/internal/components/telemetry"
	"fimfiction/lib/bundle"
	"fimfiction/lib/formatted"
	"fimfiction/lib/htmlutil"
	"fimfiction/lib/model"
	"fimfiction/lib/textutil"
)

const (
	report_parse_html = "search.parse-html"
	report_category   = "search.category"
)

const DefaultSiteURL = "http://www.fimfiction.net"

const (
	storyBoxClass      = "content_box post_content_box story_content_box"
	sessionScriptMark  = `var static_url = "//www.fimfiction-static.net";`
	loggedInUserMark   = "logged_in_user.id = "
	noAvatarSuffix     = "none_64.png"
	viewsIconSuffix    = "views.png"
	unreadIconClassLen = 17
)

type Mode int

const (
	// IDOnly only reads the id of every story block.
	IDOnly Mode = iota
	// Full reads everything a story block carries.
	Full
)

func (m Mode) String() string {
	if m == IDOnly {
		return "id-only"
	}
	return "full"
}

// Parser reads search result and story pages.
type Parser struct {
	// Registry resolves categories and characters, a fresh one is built
	// if it is nil.
	Registry *model.Registry
	// SiteURL is prepended to site relative links, DefaultSiteURL if empty.
	SiteURL string
	Tel     telemetry.API
}

// Result is everything a single page yields.
type Result struct {
	Stories []*bundle.Record
	// SessionKnown is true if the page carried the session script, only
	// then LoggedInUser says anything.
	SessionKnown bool
	LoggedInUser bundle.Optional
	Nonce        bundle.Optional
}

// Record converts the result into a SearchResult record.
func (r Result) Record() *bundle.Record {
	stories := make(bundle.List, len(r.Stories))
	for i, s := range r.Stories {
		stories[i] = s
	}
	rec := model.NewSearchResult()
	rec.MustSet(model.SearchResultStories, stories)
	if r.SessionKnown {
		rec.MustSet(model.SearchResultLoggedInUser, r.LoggedInUser)
	}
	rec.MustSet(model.SearchResultLogoutNonce, r.Nonce)
	return rec
}

// ParseHTML is Parser.Parse with default settings.
func ParseHTML(r io.Reader, mode Mode, reg *model.Registry) (Result, error) {
	p := Parser{Registry: reg}
	return p.Parse(r, mode)
}

// Parse reads a page from r. The returned story records are mutable.
func (p Parser) Parse(r io.Reader, mode Mode) (Result, error) {
	siteURL := p.SiteURL
	if siteURL == "" {
		siteURL = DefaultSiteURL
	}
	tel := telemetry.OrNop(p.Tel)
	reg := p.Registry
	if reg == nil {
		reg = model.NewRegistry()
	}

	h := &htmlHandler{
		reg:     reg,
		tel:     tel,
		siteURL: siteURL,
		idOnly:  mode == IDOnly,
	}
	err := htmlutil.Walk(r, h)
	if err == nil && h.stage != stageIdle {
		err = h.fail("", "", errors.New("unexpected end of document"))
	}
	if err != nil {
		tel.ReportBroken(report_parse_html, err, mode.String())
		return Result{}, err
	}
	tel.ReportCount(report_parse_html, int64(len(h.finished)))

	res := Result{
		Stories:      h.finished,
		SessionKnown: h.sessionKnown,
		LoggedInUser: h.loggedIn,
		Nonce:        bundle.None(),
	}
	if h.nonce != "" {
		res.Nonce = bundle.Some(h.nonce)
	}
	return res, nil
}

// ParseError is returned when the markup does not fit what the current
// stage waits for.
type ParseError struct {
	Stage   string
	Tag     string
	Context string
	Err     error
}

func (e *ParseError) Error() string {
	msg := fmt.Sprintf("parse error at stage %s", e.Stage)
	if e.Tag != "" {
		msg += fmt.Sprintf(" <%s>", e.Tag)
	}
	if e.Context != "" {
		msg += fmt.Sprintf(" (%q)", e.Context)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// stage is what the parser waits for next. The story block is read top to
// bottom: author box, stats, title, views, description, chapters, footer.
type stage int

const (
	stageIdle stage = iota

	stageAvatar
	stageAuthorBox
	stageTrackContainer
	stageFavoriteButton
	stageFavoriteEmail
	stageRatingLink
	stageLikes
	stageDislikeLink
	stageDislikes
	stageCommentsBold
	stageComments
	stageViewsSpan
	stageStatsEnd
	stageReadLater

	stageTitleLink
	stageTitle
	stageAuthorLink
	stageAuthorName
	stageViewsIcon
	stageViews

	stageDescriptionBox
	stageStoryImage
	stageCover
	stageThumbnail
	stageCategoryLink
	stageCategory
	stageDescriptionStart
	stageDescription

	stageChapterList
	stageChapters
	stageChapterHeader
	stageChapterHeaderInner
	stageChapterIcon
	stageChapterLink
	stageChapterTitle
	stageChapterDateLabel
	stageChapterDate
	stageChapterWordsStart
	stageChapterWords
	stageChapterID

	stageFooterLink1
	stageFooterLink2
	stageFooterLink3
	stageFooterLink4
	stageTags
	stageWordCount
	stageWordCountBreak
	stagePublishedSpan
	stagePublished
	stageUpdatedBreak
	stageUpdatedSpan
	stageUpdated
	stageCharacters
)

var stageNames = [...]string{
	stageIdle:               "idle",
	stageAvatar:             "avatar",
	stageAuthorBox:          "author-box",
	stageTrackContainer:     "track-container",
	stageFavoriteButton:     "favorite-button",
	stageFavoriteEmail:      "favorite-email",
	stageRatingLink:         "rating-link",
	stageLikes:              "likes",
	stageDislikeLink:        "dislike-link",
	stageDislikes:           "dislikes",
	stageCommentsBold:       "comments-bold",
	stageComments:           "comments",
	stageViewsSpan:          "views-span",
	stageStatsEnd:           "stats-end",
	stageReadLater:          "read-later",
	stageTitleLink:          "title-link",
	stageTitle:              "title",
	stageAuthorLink:         "author-link",
	stageAuthorName:         "author-name",
	stageViewsIcon:          "views-icon",
	stageViews:              "views",
	stageDescriptionBox:     "description-box",
	stageStoryImage:         "story-image",
	stageCover:              "cover",
	stageThumbnail:          "thumbnail",
	stageCategoryLink:       "category-link",
	stageCategory:           "category",
	stageDescriptionStart:   "description-start",
	stageDescription:        "description",
	stageChapterList:        "chapter-list",
	stageChapters:           "chapters",
	stageChapterHeader:      "chapter-header",
	stageChapterHeaderInner: "chapter-header-inner",
	stageChapterIcon:        "chapter-icon",
	stageChapterLink:        "chapter-link",
	stageChapterTitle:       "chapter-title",
	stageChapterDateLabel:   "chapter-date-label",
	stageChapterDate:        "chapter-date",
	stageChapterWordsStart:  "chapter-words-start",
	stageChapterWords:       "chapter-words",
	stageChapterID:          "chapter-id",
	stageFooterLink1:        "footer-link-1",
	stageFooterLink2:        "footer-link-2",
	stageFooterLink3:        "footer-link-3",
	stageFooterLink4:        "footer-link-4",
	stageTags:               "tags",
	stageWordCount:          "word-count",
	stageWordCountBreak:     "word-count-break",
	stagePublishedSpan:      "published-span",
	stagePublished:          "published",
	stageUpdatedBreak:       "updated-break",
	stageUpdatedSpan:        "updated-span",
	stageUpdated:            "updated",
	stageCharacters:         "characters",
}

func (s stage) String() string {
	if int(s) < len(stageNames) && stageNames[s] != "" {
		return stageNames[s]
	}
	return "stage(" + strconv.Itoa(int(s)) + ")"
}

type htmlHandler struct {
	reg     *model.Registry
	tel     telemetry.API
	siteURL string
	idOnly  bool

	stage    stage
	finished []*bundle.Record

	sessionKnown bool
	loggedIn     bundle.Optional
	nonce        string

	story       *bundle.Record
	author      *bundle.Record
	favorited   model.FavoriteState
	hasFavorite bool
	title       strings.Builder
	authorName  strings.Builder
	categories  bundle.Set
	description *formatted.HTMLHandler
	chapters    bundle.List
	chapter     *bundle.Record
	chapterName strings.Builder
	characters  bundle.Set
	characterID int
}

func (h *htmlHandler) fail(tag, context string, err error) error {
	return &ParseError{Stage: h.stage.String(), Tag: tag, Context: context, Err: err}
}

func (h *htmlHandler) siteLink(tag, href string) (*url.URL, error) {
	u, err := url.Parse(h.siteURL + href)
	if err != nil {
		return nil, h.fail(tag, href, err)
	}
	return u, nil
}

func (h *htmlHandler) staticLink(tag, src string) (*url.URL, error) {
	u, err := url.Parse("http:" + src)
	if err != nil {
		return nil, h.fail(tag, src, err)
	}
	return u, nil
}

func (h *htmlHandler) date(text string) (time.Time, error) {
	t, err := textutil.ParseOrdinalDate(text)
	if err != nil {
		return time.Time{}, h.fail("", text, err)
	}
	return t, nil
}

func (h *htmlHandler) finishStory() {
	h.finished = append(h.finished, h.story)
	h.story = nil
	h.author = nil
	h.hasFavorite = false
	h.stage = stageIdle
}

func (h *htmlHandler) StartElement(name string, attrs htmlutil.Attributes) error {
	class, hasClass := attrs.Lookup("class")

	switch h.stage {
	// a story block starts the story, outside of one only the nonce of the
	// first link carrying one is of interest
	case stageIdle:
		if name == "div" && class == storyBoxClass {
			idAttr := attrs.Get("id")
			id, err := strconv.Atoi(strings.TrimPrefix(idAttr, "story_"))
			if err != nil {
				return h.fail(name, idAttr, err)
			}
			h.story = model.NewStory()
			h.story.MustSet(model.StoryID, id)
			if h.idOnly {
				h.finishStory()
				return nil
			}
			h.stage = stageAvatar
			return nil
		}
		if h.nonce == "" && name == "a" {
			h.nonce = attrs.Get("data-nonce")
		}

	// first element of the block is the author avatar
	case stageAvatar:
		h.author = model.NewUser()
		avatar := bundle.None()
		src, ok := attrs.Lookup("src")
		if ok && !strings.HasSuffix(src, noAvatarSuffix) {
			u, err := h.staticLink(name, src)
			if err != nil {
				return err
			}
			avatar = bundle.Some(u)
		}
		h.author.MustSet(model.UserProfileImageURL, avatar)
		h.stage = stageAuthorBox

	case stageAuthorBox:
		if name == "div" && class == "right" {
			h.stage = stageTrackContainer
		}

	// the track container is only there for logged in users
	case stageTrackContainer:
		if class == "track_container" {
			h.stage = stageFavoriteButton
		} else {
			h.stage = stageRatingLink
		}

	case stageFavoriteButton:
		if name == "a" {
			h.favorited = model.NotFavorited
			if strings.Contains(class, "favourite_button_selected") {
				h.favorited = model.Favorited
			}
			h.hasFavorite = true
			h.stage = stageFavoriteEmail
		}

	case stageFavoriteEmail:
		if name == "input" {
			if h.hasFavorite {
				state := h.favorited
				_, email := attrs.Lookup("checked")
				if email && state.IsFavorited() {
					state = model.FavoritedWithEmail
				}
				h.story.MustSet(model.StoryFavoriteState, state)
			}
			h.stage = stageRatingLink
		}

	// the like link carries the rating token in its onclick handler
	case stageRatingLink:
		if name == "a" {
			onclick := attrs.Get("onclick")
			if strings.HasPrefix(onclick, "Ra") {
				first := strings.IndexByte(onclick, '\'')
				last := strings.LastIndexByte(onclick, '\'')
				if first < 0 || last <= first {
					return h.fail(name, onclick, errors.New("rating token is not quoted"))
				}
				h.story.MustSet(model.StoryRatingToken, onclick[first+1:last])
			}
			h.stage = stageLikes
		}

	case stageDislikeLink:
		if name == "a" {
			h.stage = stageDislikes
		}

	case stageCommentsBold:
		if name == "b" {
			h.stage = stageComments
		}

	case stageViewsSpan:
		if name == "span" {
			title, ok := attrs.Lookup("title")
			if ok {
				h.story.MustSet(model.StoryViewCountTotal, textutil.ToIntLiberal(title, 0))
				h.stage = stageStatsEnd
			}
		}

	// the element after the stats is the read later button if logged in
	case stageReadLater:
		if name == "a" {
			h.story.MustSet(model.StoryReadLaterState, strings.Contains(class, "read_it_later_selected"))
		}
		h.stage = stageTitleLink

	case stageTitleLink:
		if name == "a" {
			u, err := h.siteLink(name, attrs.Get("href"))
			if err != nil {
				return err
			}
			h.story.MustSet(model.StoryURL, u)
			h.title.Reset()
			h.stage = stageTitle
		}

	case stageAuthorLink:
		if name == "a" {
			h.authorName.Reset()
			h.stage = stageAuthorName
		}

	case stageViewsIcon:
		if name == "img" && strings.HasSuffix(attrs.Get("src"), viewsIconSuffix) {
			h.stage = stageViews
		}

	case stageDescriptionBox:
		if name == "div" && class == "description" {
			h.stage = stageStoryImage
		}

	// stories without an image go straight to the categories
	case stageStoryImage:
		if class == "story_image" {
			h.stage = stageCover
		} else {
			h.story.MustSet(model.StoryCoverURL, bundle.None())
			h.story.MustSet(model.StoryThumbnailURL, bundle.None())
			h.stage = stageCategory
		}

	case stageCover:
		u, err := h.staticLink(name, attrs.Get("href"))
		if err != nil {
			return err
		}
		h.story.MustSet(model.StoryCoverURL, bundle.Some(u))
		h.stage = stageThumbnail

	case stageThumbnail:
		u, err := h.staticLink(name, attrs.Get("src"))
		if err != nil {
			return err
		}
		h.story.MustSet(model.StoryThumbnailURL, bundle.Some(u))
		h.stage = stageCategoryLink

	// every category is a link, the first other element opens the
	// description
	case stageCategoryLink:
		if name == "a" {
			h.stage = stageCategory
			return nil
		}
		if h.categories != nil {
			h.story.MustSet(model.StoryCategories, h.categories)
			h.categories = nil
		}
		h.description = &formatted.HTMLHandler{}
		h.stage = stageDescriptionStart

	case stageDescription:
		return h.description.StartElement(name, attrs)

	case stageChapterList:
		if name == "ul" {
			h.chapters = bundle.List{}
			h.stage = stageChapters
		}

	// chapter rows until the ordering item that closes the list
	case stageChapters:
		if name == "div" && strings.Contains(class, "chapter_container") && !strings.Contains(class, "chapter_expander") {
			h.stage = stageChapterHeader
		}
		if name == "li" && class == "save_ordering" {
			h.story.MustSet(model.StoryChapters, h.chapters)
			h.story.MustSet(model.StoryChapterCount, len(h.chapters))
			h.chapters = nil
			h.stage = stageFooterLink1
		}

	case stageChapterHeader:
		h.stage = stageChapterHeaderInner

	case stageChapterHeaderInner:
		h.stage = stageChapterIcon

	// the unread icon is only present for logged in users
	case stageChapterIcon:
		h.chapter = model.NewChapter()
		if name == "i" && hasClass {
			h.chapter.MustSet(model.ChapterUnread, len(class) == unreadIconClassLen)
			h.stage = stageChapterLink
		} else if name == "a" {
			return h.startChapterLink(name, attrs)
		}

	case stageChapterLink:
		if name == "a" {
			return h.startChapterLink(name, attrs)
		}

	case stageChapterWordsStart:
		h.stage = stageChapterWords

	case stageChapterID:
		if name == "a" {
			id := textutil.ToIntLiberal(attrs.Get("href"), 0)
			h.chapter.MustSet(model.ChapterID, id)
			h.chapters = append(h.chapters, h.chapter)
			h.chapter = nil
			h.stage = stageChapters
		}

	// tags end at the word count box, sex and gore are false unless tagged
	case stageTags:
		if name == "div" {
			if !h.story.Has(model.StorySex) {
				h.story.MustSet(model.StorySex, false)
			}
			if !h.story.Has(model.StoryGore) {
				h.story.MustSet(model.StoryGore, false)
			}
			h.stage = stageWordCount
		}

	case stageWordCountBreak:
		if name == "br" {
			h.stage = stagePublishedSpan
		}

	case stagePublishedSpan:
		if name == "span" {
			h.stage = stagePublished
		}

	// stories that were never updated list their characters right away
	case stageUpdatedBreak:
		if name == "br" {
			h.stage = stageUpdatedSpan
		}
		if name == "a" {
			h.characterID = int(textutil.ToIntLiberal(attrs.Get("href"), 0))
			h.stage = stageUpdated
		}

	case stageUpdatedSpan:
		if name == "span" {
			h.stage = stageUpdated
		}

	// character links carry the id, their image follows, the closing icon
	// ends the story
	case stageUpdated, stageCharacters:
		switch name {
		case "img":
			u, err := h.staticLink(name, attrs.Get("src"))
			if err != nil {
				return err
			}
			h.characters = append(h.characters, h.reg.Character(h.characterID, u.String()))
		case "i":
			h.story.MustSet(model.StoryCharacters, h.characters)
			h.characters = nil
			h.finishStory()
		case "a":
			h.characterID = int(textutil.ToIntLiberal(attrs.Get("href"), 0))
		}
	}
	return nil
}

func (h *htmlHandler) startChapterLink(name string, attrs htmlutil.Attributes) error {
	u, err := h.siteLink(name, attrs.Get("href"))
	if err != nil {
		return err
	}
	h.chapter.MustSet(model.ChapterURL, u)
	h.chapterName.Reset()
	h.stage = stageChapterTitle
	return nil
}

func (h *htmlHandler) EndElement(name string) error {
	switch h.stage {
	case stageStatsEnd:
		if name == "div" {
			h.stage = stageReadLater
		}

	case stageTitle:
		h.story.MustSet(model.StoryTitle, strings.TrimSpace(h.title.String()))
		h.stage = stageAuthorLink

	case stageAuthorName:
		h.author.MustSet(model.UserName, strings.TrimSpace(h.authorName.String()))
		h.story.MustSet(model.StoryAuthor, h.author)
		h.author = nil
		h.stage = stageViewsIcon

	case stageDescriptionStart:
		h.stage = stageDescription

	case stageDescription:
		if name == "div" {
			h.story.MustSet(model.StoryDescription, h.description.Build())
			h.description = nil
			h.stage = stageChapterList
			return nil
		}
		return h.description.EndElement(name)

	case stageChapterTitle:
		h.chapter.MustSet(model.ChapterTitle, strings.TrimSpace(h.chapterName.String()))
		h.stage = stageChapterDateLabel

	case stageChapterDateLabel:
		if name == "b" {
			h.stage = stageChapterDate
		}

	case stageChapterWords:
		h.stage = stageChapterID

	case stageFooterLink1, stageFooterLink2, stageFooterLink3, stageFooterLink4:
		if name == "a" {
			h.stage++
		}
	}
	return nil
}

func (h *htmlHandler) Text(raw string) error {
	if h.stage == stageIdle {
		h.sessionText(raw)
		return nil
	}
	if h.stage == stageDescription {
		return h.description.Text(raw)
	}
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	text := textutil.ClipWhitespace(raw, false)
	trimmed := strings.TrimSpace(text)

	switch h.stage {
	case stageLikes:
		h.story.MustSet(model.StoryLikeCount, textutil.ToIntLiberal(text, 0))
		h.stage = stageDislikeLink

	case stageDislikes:
		h.story.MustSet(model.StoryDislikeCount, textutil.ToIntLiberal(text, 0))
		h.stage = stageCommentsBold

	case stageComments:
		h.story.MustSet(model.StoryCommentCount, textutil.ToIntLiberal(text, 0))
		h.stage = stageViewsSpan

	case stageTitle:
		h.title.WriteString(text)

	case stageAuthorName:
		h.authorName.WriteString(text)

	// "<maximum per chapter> (<total>)"
	case stageViews:
		i := strings.IndexByte(text, '(')
		if i < 0 {
			return h.fail("", text, errors.New("view counts are not in the expected format"))
		}
		h.story.MustSet(model.StoryViewCountMaximumChapter, textutil.ToIntLiberal(text[:i], 0))
		h.story.MustSet(model.StoryViewCountTotal, textutil.ToIntLiberal(text[i:], 0))
		h.stage = stageDescriptionBox

	case stageCategory:
		if h.categories == nil {
			h.categories = bundle.Set{}
		}
		category, ok := h.reg.CategoryByName(trimmed)
		if ok {
			h.categories = append(h.categories, category)
		} else {
			h.tel.ReportWarning(report_category, trimmed)
		}
		h.stage = stageCategoryLink

	case stageChapterTitle:
		h.chapterName.WriteString(text)

	case stageChapterDate:
		date, err := h.date(trimmed)
		if err != nil {
			return err
		}
		h.chapter.MustSet(model.ChapterDateModified, date)
		h.story.MustSet(model.StoryDateUpdated, date)
		h.stage = stageChapterWordsStart

	case stageChapterWords:
		words := textutil.ToIntLiberal(text, -1)
		if words >= 0 {
			h.chapter.MustSet(model.ChapterWordCount, words)
		}

	case stageTags:
		h.tagText(trimmed)

	case stageWordCount:
		words := textutil.ToIntLiberal(text, -1)
		if words >= 0 {
			h.story.MustSet(model.StoryWordCount, words)
			h.stage = stageWordCountBreak
		}

	case stagePublished:
		date, err := h.date(trimmed)
		if err != nil {
			return err
		}
		h.story.MustSet(model.StoryDateFirstPosted, date)
		h.characters = bundle.Set{}
		h.stage = stageUpdatedBreak

	case stageUpdated:
		date, err := h.date(trimmed)
		if err != nil {
			return err
		}
		h.story.MustSet(model.StoryDateUpdated, date)
		h.stage = stageCharacters
	}
	return nil
}

func (h *htmlHandler) tagText(tag string) {
	if status, ok := h.reg.StatusByName(tag); ok {
		h.story.MustSet(model.StoryStatusKey, status)
		return
	}
	if rating, ok := h.reg.ContentRatingByName(tag); ok {
		h.story.MustSet(model.StoryContentRating, rating)
		return
	}
	switch tag {
	case "Sex":
		h.story.MustSet(model.StorySex, true)
	case "Gore":
		h.story.MustSet(model.StoryGore, true)
	}
}

// sessionText looks for the inline script that tells who is logged in.
func (h *htmlHandler) sessionText(text string) {
	if h.sessionKnown || !strings.Contains(text, sessionScriptMark) {
		return
	}
	h.sessionKnown = true
	h.loggedIn = bundle.None()

	i := strings.Index(text, loggedInUserMark)
	if i < 0 {
		return
	}
	rest := text[i+len(loggedInUserMark):]
	end := strings.IndexByte(rest, ';')
	if end < 0 {
		return
	}
	id, err := strconv.Atoi(strings.TrimSpace(rest[:end]))
	if err != nil {
		return
	}
	h.loggedIn = bundle.Some(model.NewUser().MustSet(model.UserID, id))
}

package search

import (
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"fimfiction/internal/components/telemetry"
	"fimfiction/lib/bundle"
	"fimfiction/lib/formatted"
	"fimfiction/lib/model"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const idOnlyPage = `<html><head>
<script type="text/javascript">
	var static_url = "//www.fimfiction-static.net";
</script>
</head><body>
<div class="content_box post_content_box story_content_box" id="story_1001">
	<img src="//www.fimfiction-static.net/images/avatars/none_64.png">
	<a class="story_name" href="/story/1001/first">First</a>
</div>
<div class="content_box post_content_box story_content_box" id="story_1002">
	<a class="story_name" href="/story/1002/second">Second</a>
</div>
<div class="content_box post_content_box" id="story_9">not a story box</div>
</body></html>`

const fullPage = `<html><head>
<script type="text/javascript">
	var static_url = "//www.fimfiction-static.net";
	logged_in_user.id = 4242;
</script>
</head><body>
<a href="/ajax/logout.php" data-nonce="n0nce">Log out</a>
<div class="content_box post_content_box story_content_box" id="story_1234">
<img class="avatar" src="//www.fimfiction-static.net/images/avatars/42_64.png">
<div class="right">
	<div class="track_container">
		<a class="favourite_button favourite_button_selected" href="#">Fav</a>
		<label><input type="checkbox" checked="checked"> Email</label>
	</div>
	<a class="like_button" onclick="RateStory('t0ken', 1);"><span class="likes">1,120</span></a>
	<a class="dislike_button"><span>8</span></a>
	<b>31</b> comments
	<span title="9,876 views">views</span>
</div>
<a class="read_it_later read_it_later_selected" href="#">Read later</a>
<h2><a class="story_name" href="/story/1234/a-test-story">A  Test
	Story</a></h2>
by <a href="/user/Some+Author">Some Author</a>
<img src="//www.fimfiction-static.net/images/icons/views.png"> 1,500 (9,876)
<div class="description">
	<div class="story_image"><a href="//www.fimfiction-static.net/images/story_images/1234.png"><img src="//www.fimfiction-static.net/images/story_images/1234_r.png"></a></div>
	<a href="/stories?category=comedy" class="story_category">Comedy</a>
	<a href="/stories?category=sol" class="story_category">Slice of Life</a>
	<a href="/stories?category=poetry" class="story_category">Poetry</a>
	<hr><p>A <b>bold</b> description.</p></div>
<ul class="chapters">
	<li><div class="chapter_container">
		<div class="chapter_header"><div class="inner">
			<i class="chapter-read-icon"></i>
			<a href="/story/1234/1/a-test-story/chapter-one">Chapter One</a>
			<span class="date"><b>Added</b> 3rd Jan 2013</span>
			<div class="word_count">1,000 words</div>
			<a href="/download_chapter.php?chapter=11"><img src="//www.fimfiction-static.net/images/icons/download.png"></a>
		</div></div>
	</div></li>
	<li><div class="chapter_container chapter_expander">expand</div></li>
	<li><div class="chapter_container">
		<div class="chapter_header"><div class="inner">
			<a href="/story/1234/2/a-test-story/chapter-two">Chapter Two</a>
			<span class="date"><b>Added</b> 10th Feb 2013</span>
			<div class="word_count">2,500 words</div>
			<a href="/download_chapter.php?chapter=12"><img src="//www.fimfiction-static.net/images/icons/download.png"></a>
		</div></div>
	</div></li>
	<li class="save_ordering"><a href="#">Save</a></li>
</ul>
<div class="story_links"><a href="#">txt</a><a href="#">html</a><a href="#">epub</a></div>
<span class="completed-status">Complete</span>
<span class="content-rating-teen">Teen</span>
<span class="sex">Sex</span>
<div class="word_count"><b>12,345</b> words<br>
<span>1st Jan 2013</span><br>
<span>5th Feb 2013</span></div>
<div class="characters">
	<a href="/tag/7"><img src="//www.fimfiction-static.net/images/characters/twilight_sparkle.png"></a>
	<a href="/tag/9999"><img src="//www.fimfiction-static.net/images/characters/someone_new.png"></a>
	<i class="fa fa-clock"></i>
</div>
</div>
</body></html>`

func optionalURL(r *bundle.Record, key *bundle.Key) string {
	o := bundle.GetOr(r, key, bundle.None())
	u, ok := o.OrElse(nil).(*url.URL)
	if !ok {
		return ""
	}
	return u.String()
}

func TestParseIDOnly(t *testing.T) {
	reg := model.NewRegistry()

	res, err := ParseHTML(strings.NewReader(idOnlyPage), IDOnly, reg)
	require.NoError(t, err)
	require.Len(t, res.Stories, 2)

	for i, expected := range []int64{1001, 1002} {
		story := res.Stories[i]
		id, err := bundle.Int(story, model.StoryID)
		require.NoError(t, err)
		require.Equal(t, expected, id)
		require.Equal(t, []*bundle.Key{model.StoryID}, story.SetKeys())
	}

	require.True(t, res.SessionKnown)
	require.False(t, res.LoggedInUser.Present())
	require.False(t, res.Nonce.Present())
}

func TestParseFull(t *testing.T) {
	reg := model.NewRegistry()
	tel := &telemetry.TestAPI{}
	p := Parser{Registry: reg, Tel: tel}

	res, err := p.Parse(strings.NewReader(fullPage), Full)
	require.NoError(t, err)
	require.Len(t, res.Stories, 1)
	story := res.Stories[0]

	require.True(t, res.SessionKnown)
	user, ok := res.LoggedInUser.Get()
	require.True(t, ok)
	userID, err := bundle.Int(user.(*bundle.Record), model.UserID)
	require.NoError(t, err)
	require.Equal(t, int64(4242), userID)
	nonce, ok := res.Nonce.Get()
	require.True(t, ok)
	require.Equal(t, "n0nce", nonce)

	numbers := map[*bundle.Key]int64{
		model.StoryID:                      1234,
		model.StoryLikeCount:               1120,
		model.StoryDislikeCount:            8,
		model.StoryCommentCount:            31,
		model.StoryViewCountMaximumChapter: 1500,
		model.StoryViewCountTotal:          9876,
		model.StoryChapterCount:            2,
		model.StoryWordCount:               12345,
	}
	for key, expected := range numbers {
		n, err := bundle.Int(story, key)
		require.NoError(t, err, key.String())
		require.Equal(t, expected, n, key.String())
	}

	require.Equal(t, "A Test Story", bundle.GetOr(story, model.StoryTitle, ""))
	storyURL, err := bundle.Get[*url.URL](story, model.StoryURL)
	require.NoError(t, err)
	require.Equal(t, "http://www.fimfiction.net/story/1234/a-test-story", storyURL.String())

	require.Equal(t, "t0ken", bundle.GetOr(story, model.StoryRatingToken, ""))
	require.Equal(t, bundle.Identifiable(model.FavoritedWithEmail), bundle.GetOr[bundle.Identifiable](story, model.StoryFavoriteState, nil))
	require.True(t, bundle.GetOr(story, model.StoryReadLaterState, false))
	require.Equal(t, bundle.Identifiable(model.StatusCompleted), bundle.GetOr[bundle.Identifiable](story, model.StoryStatusKey, nil))
	require.Equal(t, bundle.Identifiable(model.ContentRatingTeen), bundle.GetOr[bundle.Identifiable](story, model.StoryContentRating, nil))
	require.True(t, bundle.GetOr(story, model.StorySex, false))
	require.False(t, bundle.GetOr(story, model.StoryGore, true))

	require.Equal(t, time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC), bundle.GetOr(story, model.StoryDateFirstPosted, time.Time{}))
	require.Equal(t, time.Date(2013, 2, 5, 0, 0, 0, 0, time.UTC), bundle.GetOr(story, model.StoryDateUpdated, time.Time{}))

	require.Equal(t, "http://www.fimfiction-static.net/images/story_images/1234.png", optionalURL(story, model.StoryCoverURL))
	require.Equal(t, "http://www.fimfiction-static.net/images/story_images/1234_r.png", optionalURL(story, model.StoryThumbnailURL))

	author := bundle.GetOr[*bundle.Record](story, model.StoryAuthor, nil)
	require.NotNil(t, author)
	require.Equal(t, "Some Author", bundle.GetOr(author, model.UserName, ""))
	require.Equal(t, "http://www.fimfiction-static.net/images/avatars/42_64.png", optionalURL(author, model.UserProfileImageURL))

	description := bundle.GetOr(story, model.StoryDescription, formatted.Text{})
	require.Equal(t, "A [b]bold[/b] description.", description.BBCode())

	categories := bundle.GetOr(story, model.StoryCategories, bundle.Set{})
	require.ElementsMatch(t, bundle.Set{model.CategoryComedy, model.CategorySliceOfLife}, categories)
	require.True(t, tel.Has(telemetry.KindWarning, report_category))

	characters := bundle.GetOr(story, model.StoryCharacters, bundle.Set{})
	require.Len(t, characters, 2)
	twilight, _ := reg.ForID(model.EnumCharacter, "twilight_sparkle")
	require.Contains(t, characters, twilight)
	require.Contains(t, characters, model.GenericCharacter(9999, "http://www.fimfiction-static.net/images/characters/someone_new.png"))

	chapters := bundle.GetOr(story, model.StoryChapters, bundle.List{})
	require.Len(t, chapters, 2)

	type chapterSummary struct {
		ID     int64
		Title  string
		URL    string
		Words  int64
		Date   time.Time
		Unread bundle.Optional
	}
	summarize := func(v any) chapterSummary {
		c := v.(*bundle.Record)
		id, _ := bundle.Int(c, model.ChapterID)
		words, _ := bundle.Int(c, model.ChapterWordCount)
		u := bundle.GetOr[*url.URL](c, model.ChapterURL, &url.URL{})
		unread := bundle.None()
		if c.Has(model.ChapterUnread) {
			unread = bundle.Some(bundle.GetOr(c, model.ChapterUnread, false))
		}
		return chapterSummary{
			ID:     id,
			Title:  bundle.GetOr(c, model.ChapterTitle, ""),
			URL:    u.String(),
			Words:  words,
			Date:   bundle.GetOr(c, model.ChapterDateModified, time.Time{}),
			Unread: unread,
		}
	}
	expected := []chapterSummary{
		{
			ID:     11,
			Title:  "Chapter One",
			URL:    "http://www.fimfiction.net/story/1234/1/a-test-story/chapter-one",
			Words:  1000,
			Date:   time.Date(2013, 1, 3, 0, 0, 0, 0, time.UTC),
			Unread: bundle.Some(true),
		},
		{
			ID:     12,
			Title:  "Chapter Two",
			URL:    "http://www.fimfiction.net/story/1234/2/a-test-story/chapter-two",
			Words:  2500,
			Date:   time.Date(2013, 2, 10, 0, 0, 0, 0, time.UTC),
			Unread: bundle.None(),
		},
	}
	actual := []chapterSummary{summarize(chapters[0]), summarize(chapters[1])}
	diff := cmp.Diff(expected, actual, cmp.Comparer(func(a, b bundle.Optional) bool {
		return a.String() == b.String()
	}))
	require.Empty(t, diff)

	counts := tel.Reports(telemetry.KindCount)
	require.Len(t, counts, 1)
	require.Equal(t, int64(1), counts[0].Count)
}

func TestParseWithoutRegistry(t *testing.T) {
	withRegistry, err := ParseHTML(strings.NewReader(fullPage), Full, model.NewRegistry())
	require.NoError(t, err)

	var p Parser
	res, err := p.Parse(strings.NewReader(fullPage), Full)
	require.NoError(t, err)
	require.Len(t, res.Stories, len(withRegistry.Stories))
	require.True(t, withRegistry.Stories[0].Equal(res.Stories[0]))
	require.NotEmpty(t, bundle.GetOr(res.Stories[0], model.StoryCategories, bundle.Set{}))
}

func TestParseResultRecord(t *testing.T) {
	reg := model.NewRegistry()

	res, err := ParseHTML(strings.NewReader(fullPage), Full, reg)
	require.NoError(t, err)

	rec := res.Record()
	stories := bundle.GetOr(rec, model.SearchResultStories, bundle.List{})
	require.Len(t, stories, 1)
	require.True(t, rec.Has(model.SearchResultLoggedInUser))
	nonce := bundle.GetOr(rec, model.SearchResultLogoutNonce, bundle.None())
	require.Equal(t, "n0nce", nonce.OrElse(""))

	res, err = ParseHTML(strings.NewReader("<html><body></body></html>"), IDOnly, reg)
	require.NoError(t, err)
	require.Empty(t, res.Stories)
	require.False(t, res.Record().Has(model.SearchResultLoggedInUser))
}

func TestParseErrors(t *testing.T) {
	reg := model.NewRegistry()

	cases := []struct {
		name  string
		page  string
		mode  Mode
		stage string
	}{
		{
			name:  "bad story id",
			page:  `<div class="content_box post_content_box story_content_box" id="story_abc"></div>`,
			mode:  IDOnly,
			stage: "idle",
		},
		{
			name:  "truncated story",
			page:  `<div class="content_box post_content_box story_content_box" id="story_5"><img src="//a/b.png">`,
			mode:  Full,
			stage: "author-box",
		},
		{
			name:  "views without total",
			page:  strings.Replace(fullPage, "1,500 (9,876)", "1,500 views", 1),
			mode:  Full,
			stage: "views",
		},
		{
			name:  "unreadable date",
			page:  strings.Replace(fullPage, "5th Feb 2013", "some day", 1),
			mode:  Full,
			stage: "updated",
		},
	}
	for _, c := range cases {
		tel := &telemetry.TestAPI{}
		p := Parser{Registry: reg, Tel: tel}
		_, err := p.Parse(strings.NewReader(c.page), c.mode)
		require.Error(t, err, c.name)

		var parseErr *ParseError
		require.True(t, errors.As(err, &parseErr), c.name)
		require.Equal(t, c.stage, parseErr.Stage, c.name)
		require.True(t, tel.Has(telemetry.KindBroken, report_parse_html), c.name)
	}
}

func TestStageNames(t *testing.T) {
	for s := stageIdle; s <= stageCharacters; s++ {
		require.NotContains(t, s.String(), "stage(", int(s))
	}
}

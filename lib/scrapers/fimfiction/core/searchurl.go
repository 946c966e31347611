package core

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"fimfiction/lib/bundle"
	"fimfiction/lib/model"
	"fimfiction/lib/scrapers/fimfiction/search"
)

var orderParams = map[model.Order]string{
	model.OrderFirstPostedDate: "latest",
	model.OrderHot:             "heat",
	model.OrderUpdateDate:      "updated",
	model.OrderRating:          "top",
	model.OrderViewCount:       "views",
	model.OrderWordCount:       "words",
	model.OrderCommentCount:    "comments",
}

func searchTags(params *bundle.Record, key *bundle.Key, prefix string, out *[]string) error {
	set, err := bundle.Get[bundle.Set](params, key)
	if bundle.IsMissingField(err) {
		return nil
	}
	if err != nil {
		return err
	}
	for _, v := range set {
		switch v := v.(type) {
		case model.Category:
			*out = append(*out, prefix+"category:"+v.ID())
		case model.Character:
			*out = append(*out, prefix+"character:"+strconv.Itoa(v.FimfictionID()))
		default:
			return fmt.Errorf("%w: %s holds %T", bundle.ErrInvalidValue, key, v)
		}
	}
	return nil
}

func searchFlag(params *bundle.Record, key *bundle.Key) bool {
	return bundle.GetOr(params, key, false)
}

// SearchQuery compiles a SearchParameters record into the query of the
// category search. page starts at 1, smaller values ask for the first page.
// Boolean filters that are unset or false are left out, the unread,
// favorited and read later filters are sent as keys without a value.
// The shelf key is not part of the query.
func SearchQuery(params *bundle.Record, page int) (url.Values, error) {
	if params == nil || params.Schema() != model.SearchParametersSchema {
		return nil, fmt.Errorf("search query: %w: expected %s", bundle.ErrForeignKey, model.SearchParametersSchema.Name())
	}
	if page < 1 {
		page = 1
	}

	q := url.Values{}
	q.Set("view", "category")
	q.Set("search", bundle.GetOr(params, model.SearchName, ""))

	if order, err := bundle.Get[model.Order](params, model.SearchOrder); err == nil {
		q.Set("order", orderParams[order])
	}

	var tags []string
	for _, tag := range []struct {
		key    *bundle.Key
		prefix string
	}{
		{key: model.SearchCategoriesIncluded},
		{key: model.SearchCategoriesExcluded, prefix: "-"},
		{key: model.SearchCharactersIncluded},
		{key: model.SearchCharactersExcluded, prefix: "-"},
	} {
		err := searchTags(params, tag.key, tag.prefix, &tags)
		if err != nil {
			return nil, fmt.Errorf("search query: %w", err)
		}
	}
	if len(tags) > 0 {
		q["tags[]"] = tags
	}

	contentRating := -1
	if rating, err := bundle.Get[model.ContentRating](params, model.SearchContentRating); err == nil {
		contentRating = int(rating)
	}
	q.Set("content_rating", strconv.Itoa(contentRating))

	for key, param := range map[*bundle.Key]string{
		model.SearchSex:       "sex",
		model.SearchGore:      "gore",
		model.SearchCompleted: "completed",
	} {
		if searchFlag(params, key) {
			q.Set(param, "1")
		}
	}
	for key, param := range map[*bundle.Key]string{
		model.SearchFavorited: "tracking",
		model.SearchUnread:    "unread",
		model.SearchReadLater: "read_it_later",
	} {
		if searchFlag(params, key) {
			q.Set(param, "")
		}
	}

	// the site excludes the minimum itself
	minimum := ""
	if n, err := bundle.Int(params, model.SearchWordCountMinimum); err == nil && n > 0 {
		minimum = strconv.FormatInt(n-1, 10)
	}
	q.Set("minimum_words", minimum)
	maximum := ""
	if n, err := bundle.Int(params, model.SearchWordCountMaximum); err == nil && n > 0 {
		maximum = strconv.FormatInt(n, 10)
	}
	q.Set("maximum_words", maximum)

	q.Set("page", strconv.Itoa(page))

	if user, err := bundle.Get[*bundle.Record](params, model.SearchUser); err == nil {
		id, err := bundle.Int(user, model.UserID)
		if err != nil {
			return nil, fmt.Errorf("search query: user: %w", err)
		}
		q.Set("user", strconv.FormatInt(id, 10))
	}
	return q, nil
}

// SearchURL is the absolute url of a page of the category search.
func (c *Client) SearchURL(params *bundle.Record, page int) (string, error) {
	q, err := SearchQuery(params, page)
	if err != nil {
		return "", err
	}
	return c.BaseURL.String() + c.Endpoints.Search + "?" + q.Encode(), nil
}

// SearchWith compiles params and fetches the resulting page of the
// category search.
func (c *Client) SearchWith(ctx context.Context, params *bundle.Record, page int, mode search.Mode) (*bundle.Record, error) {
	u, err := c.SearchURL(params, page)
	if err != nil {
		return nil, err
	}
	return c.Search(ctx, u, mode)
}

// Package apijson reads the site's JSON API into records. Each schema has
// a field table mapping JSON names to keys, decoding is driven by the
// kind of the key a field maps to.
package apijson

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"time"

	"fimfiction/internal/components/telemetry"
	"fimfiction/lib/bundle"
	"fimfiction/lib/formatted"
	"fimfiction/lib/model"
)

const (
	report_parse = "apijson.parse"
	report_enum  = "apijson.enum"
)

// Fields maps JSON field names to keys. A nil key marks a field that is
// known but not read.
type Fields map[string]*bundle.Key

var StoryFields = Fields{
	"id":                  model.StoryID,
	"title":               model.StoryTitle,
	"url":                 model.StoryURL,
	"description":         model.StoryDescription,
	"short_description":   model.StoryDescriptionShort,
	"views":               model.StoryViewCountMaximumChapter,
	"total_views":         model.StoryViewCountTotal,
	"words":               model.StoryWordCount,
	"comments":            model.StoryCommentCount,
	"date_modified":       model.StoryDateUpdated,
	"full_image":          model.StoryCoverURL,
	"image":               model.StoryThumbnailURL,
	"status":              model.StoryStatusKey,
	"content_rating":      model.StoryContentRating,
	"content_rating_text": nil,
	"likes":               model.StoryLikeCount,
	"dislikes":            model.StoryDislikeCount,
	"chapter_count":       model.StoryChapterCount,
	"categories":          model.StoryCategories,
	"author":              model.StoryAuthor,
	"chapters":            model.StoryChapters,
}

var ChapterFields = Fields{
	"id":            model.ChapterID,
	"title":         model.ChapterTitle,
	"link":          model.ChapterURL,
	"words":         model.ChapterWordCount,
	"views":         model.ChapterViewCount,
	"date_modified": model.ChapterDateModified,
	"content":       model.ChapterContent,
}

var UserFields = Fields{
	"id":            model.UserID,
	"name":          model.UserName,
	"num_followers": model.UserFollowerCount,
	"bio":           model.UserBiography,
	"date_joined":   model.UserDateJoined,
	"avatar":        model.UserProfileImageURL,
}

// storyWrapper is the object the story endpoint nests its fields in.
const storyWrapper = "story"

const noAvatarSuffix = "none_64.png"

var errSkip = errors.New("skip value")

// Reader decodes API responses.
type Reader struct {
	Registry *model.Registry
	Tel      telemetry.API
	// Tables overrides the field table used per schema.
	Tables map[*bundle.Schema]Fields
}

// NewReader builds a Reader, a nil reg is replaced by a fresh registry.
func NewReader(reg *model.Registry, tel telemetry.API) Reader {
	if reg == nil {
		reg = model.NewRegistry()
	}
	return Reader{Registry: reg, Tel: tel}
}

func (r Reader) fields(schema *bundle.Schema) (Fields, bool) {
	if f, ok := r.Tables[schema]; ok {
		return f, true
	}
	switch schema {
	case model.StorySchema:
		return StoryFields, true
	case model.ChapterSchema:
		return ChapterFields, true
	case model.UserSchema:
		return UserFields, true
	}
	return nil, false
}

// ParseBytes decodes a JSON document into a record of schema.
func (r Reader) ParseBytes(data []byte, schema *bundle.Schema) (*bundle.Record, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	decoder.UseNumber()
	var tree any
	err := decoder.Decode(&tree)
	if err != nil {
		telemetry.OrNop(r.Tel).ReportBroken(report_parse, err, schema.Name())
		return nil, fmt.Errorf("apijson: %s: %w", schema.Name(), err)
	}
	return r.Parse(tree, schema)
}

// Parse decodes an already decoded JSON object into a record of schema.
// Numbers may be json.Number or float64.
func (r Reader) Parse(tree any, schema *bundle.Schema) (*bundle.Record, error) {
	obj, ok := tree.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("apijson: %s: expected an object, got %T", schema.Name(), tree)
	}
	if r.Registry == nil {
		r.Registry = model.NewRegistry()
	}
	rec, err := r.parseObject(obj, schema)
	if err != nil {
		telemetry.OrNop(r.Tel).ReportBroken(report_parse, err, schema.Name())
		return nil, fmt.Errorf("apijson: %w", err)
	}
	return rec, nil
}

func (r Reader) parseObject(obj map[string]any, schema *bundle.Schema) (*bundle.Record, error) {
	fields, ok := r.fields(schema)
	if !ok {
		return nil, fmt.Errorf("%w: no field table for %s", bundle.ErrUnsupportedKind, schema.Name())
	}
	rec := schema.New()
	err := r.readInto(rec, obj, fields)
	if err != nil {
		return nil, err
	}
	return rec, nil
}

func (r Reader) readInto(rec *bundle.Record, obj map[string]any, fields Fields) error {
	if inner, ok := obj[storyWrapper].(map[string]any); ok {
		err := r.readInto(rec, inner, fields)
		if err != nil {
			return err
		}
	}
	for name, raw := range obj {
		key, ok := fields[name]
		if !ok || key == nil {
			continue
		}
		var (
			v   any
			err error
		)
		if key == model.UserProfileImageURL {
			v, err = r.decodeAvatar(key.Kind(), raw)
		} else {
			v, err = r.decode(key.Kind(), raw)
		}
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			return fmt.Errorf("%s: %w", key, err)
		}
		err = rec.Set(key, v)
		if err != nil {
			return err
		}
	}
	return nil
}

func mismatch(kind bundle.Kind, raw any) error {
	return fmt.Errorf("%w: expected %s, got %T", bundle.ErrInvalidValue, kind, raw)
}

// link accepts protocol relative urls.
func link(s string) (*url.URL, error) {
	if !strings.HasPrefix(s, "h") {
		s = "http:" + s
	}
	return url.Parse(s)
}

// decodeAvatar reads the avatar object of a user, it maps sizes to urls
// and the smallest one is used.
func (r Reader) decodeAvatar(kind bundle.Kind, raw any) (any, error) {
	obj, ok := raw.(map[string]any)
	if !ok {
		return r.decode(kind, raw)
	}
	sizes := make([]string, 0, len(obj))
	for size, v := range obj {
		if _, ok := v.(string); ok {
			sizes = append(sizes, size)
		}
	}
	if len(sizes) == 0 {
		return nil, errSkip
	}
	sort.Slice(sizes, func(i, j int) bool {
		if len(sizes[i]) != len(sizes[j]) {
			return len(sizes[i]) < len(sizes[j])
		}
		return sizes[i] < sizes[j]
	})
	src := obj[sizes[0]].(string)
	if strings.HasSuffix(src, noAvatarSuffix) {
		return bundle.None(), nil
	}
	u, err := link(src)
	if err != nil {
		return nil, err
	}
	return bundle.Some(u), nil
}

func (r Reader) decodeEnum(kind bundle.Kind, raw any) (any, error) {
	if kind.Enum() == model.EnumContentRating {
		if n, ok := raw.(json.Number); ok {
			raw = n.String()
		}
		if f, ok := raw.(float64); ok {
			raw = fmt.Sprint(int(f))
		}
		switch raw {
		case "0":
			return model.ContentRatingEveryone, nil
		case "1":
			return model.ContentRatingTeen, nil
		case "2":
			return model.ContentRatingMature, nil
		}
	}
	id, ok := raw.(string)
	if !ok {
		return nil, mismatch(kind, raw)
	}
	v, ok := r.Registry.ForID(kind.Enum(), id)
	if !ok {
		telemetry.OrNop(r.Tel).ReportWarning(report_enum, string(kind.Enum()), id)
		return nil, errSkip
	}
	return v, nil
}

func (r Reader) decodeCollection(kind bundle.Kind, raw any) ([]any, error) {
	elem, _ := kind.Elem()
	var items []any
	switch v := raw.(type) {
	case []any:
		items = v
	case map[string]any:
		names := make([]string, 0, len(v))
		for name, selected := range v {
			if b, _ := selected.(bool); b {
				names = append(names, name)
			}
		}
		sort.Strings(names)
		for _, name := range names {
			items = append(items, name)
		}
	default:
		return nil, mismatch(kind, raw)
	}

	out := make([]any, 0, len(items))
	for _, item := range items {
		v, err := r.decode(elem, item)
		if errors.Is(err, errSkip) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (r Reader) decode(kind bundle.Kind, raw any) (any, error) {
	switch kind.Tag() {
	case bundle.TagNumber:
		switch raw.(type) {
		case json.Number, float64:
			return raw, nil
		}
		return nil, mismatch(kind, raw)

	case bundle.TagText:
		s, ok := raw.(string)
		if !ok {
			return nil, mismatch(kind, raw)
		}
		return s, nil

	case bundle.TagFormatted:
		s, ok := raw.(string)
		if !ok {
			return nil, mismatch(kind, raw)
		}
		if strings.HasPrefix(s, "<p>") {
			return formatted.ParseHTML(s)
		}
		return formatted.ParseBBCode(s), nil

	case bundle.TagURL:
		s, ok := raw.(string)
		if !ok || s == "" {
			return nil, mismatch(kind, raw)
		}
		return link(s)

	// unix seconds
	case bundle.TagDate:
		var seconds int64
		switch v := raw.(type) {
		case json.Number:
			n, err := v.Int64()
			if err != nil {
				return nil, err
			}
			seconds = n
		case float64:
			seconds = int64(v)
		default:
			return nil, mismatch(kind, raw)
		}
		return time.Unix(seconds, 0).UTC(), nil

	case bundle.TagBoolean:
		b, ok := raw.(bool)
		if !ok {
			return nil, mismatch(kind, raw)
		}
		return b, nil

	case bundle.TagRecord:
		obj, ok := raw.(map[string]any)
		if !ok {
			return nil, mismatch(kind, raw)
		}
		return r.parseObject(obj, kind.Schema())

	case bundle.TagEnum:
		return r.decodeEnum(kind, raw)

	case bundle.TagOptional:
		if raw == nil {
			return bundle.None(), nil
		}
		elem, _ := kind.Elem()
		v, err := r.decode(elem, raw)
		if err != nil {
			return nil, err
		}
		return bundle.Some(v), nil

	case bundle.TagList:
		items, err := r.decodeCollection(kind, raw)
		return bundle.List(items), err

	case bundle.TagSet:
		items, err := r.decodeCollection(kind, raw)
		return bundle.Set(items), err
	}
	return nil, fmt.Errorf("%w: %s", bundle.ErrUnsupportedKind, kind)
}

package model

import (
	"strings"

	"fimfiction/lib/bundle"
	"fimfiction/lib/textutil"

	"github.com/antzucaro/matchr"
)

type namedIdentifiable interface {
	bundle.Identifiable
	Name() string
}

// Registry resolves identifiable constants by id or display name. Build it
// once with NewRegistry and hand it to whatever parses or decodes records,
// it is read only afterwards and safe for concurrent use.
type Registry struct {
	values     map[bundle.EnumType][]namedIdentifiable
	byID       map[bundle.EnumType]map[string]namedIdentifiable
	byName     map[bundle.EnumType]map[string]namedIdentifiable
	characters map[int]Character
}

func NewRegistry() *Registry {
	r := &Registry{
		values:     map[bundle.EnumType][]namedIdentifiable{},
		byID:       map[bundle.EnumType]map[string]namedIdentifiable{},
		byName:     map[bundle.EnumType]map[string]namedIdentifiable{},
		characters: map[int]Character{},
	}
	for i := range categories {
		r.add(Category(i))
	}
	for i := range contentRatings {
		r.add(ContentRating(i))
	}
	for i := range ratings {
		r.add(Rating(i))
	}
	for i := range statuses {
		r.add(StoryStatus(i))
	}
	for i := range orders {
		r.add(Order(i))
	}
	for i := range favoriteStates {
		r.add(FavoriteState(i))
	}
	for _, c := range defaultCharacters {
		r.add(c)
		r.characters[c.fimfictionID] = c
	}
	return r
}

func normalizeEnumName(s string) string {
	return textutil.NormalizeName(strings.NewReplacer("_", " ", "-", " ").Replace(s))
}

func (r *Registry) add(v namedIdentifiable) {
	t := v.EnumType()
	if r.byID[t] == nil {
		r.byID[t] = map[string]namedIdentifiable{}
		r.byName[t] = map[string]namedIdentifiable{}
	}
	r.values[t] = append(r.values[t], v)
	r.byID[t][v.ID()] = v
	r.byName[t][normalizeEnumName(v.Name())] = v
	if _, taken := r.byName[t][normalizeEnumName(v.ID())]; !taken {
		r.byName[t][normalizeEnumName(v.ID())] = v
	}
}

// ForID resolves id to a constant of t. Ids of generic characters are
// decoded, anything else that isn't an exact id is matched against the
// normalized display names so "Slice of Life" finds slice_of_life.
func (r *Registry) ForID(t bundle.EnumType, id string) (bundle.Identifiable, bool) {
	v, ok := r.byID[t][id]
	if ok {
		return v, true
	}
	if t == EnumCharacter {
		c, ok := parseGenericCharacter(id)
		if ok {
			return r.Character(c.fimfictionID, c.imageURL), true
		}
	}
	v, ok = r.byName[t][normalizeEnumName(id)]
	if ok {
		return v, true
	}
	return nil, false
}

// Values returns every registered constant of t in declaration order.
func (r *Registry) Values(t bundle.EnumType) []bundle.Identifiable {
	out := make([]bundle.Identifiable, len(r.values[t]))
	for i, v := range r.values[t] {
		out[i] = v
	}
	return out
}

// ByName matches the exact display name of a constant.
func (r *Registry) ByName(t bundle.EnumType, name string) (bundle.Identifiable, bool) {
	for _, v := range r.values[t] {
		if v.Name() == name {
			return v, true
		}
	}
	return nil, false
}

// Matching returns the constants of t whose display name contains query,
// ignoring case, whitespace, underscores and dashes.
func (r *Registry) Matching(t bundle.EnumType, query string) []bundle.Identifiable {
	query = normalizeEnumName(query)
	if query == "" {
		return nil
	}
	var out []bundle.Identifiable
	for _, v := range r.values[t] {
		if textutil.MatchName(strings.NewReplacer("_", " ", "-", " ").Replace(v.Name()), []string{query}) {
			out = append(out, v)
		}
	}
	return out
}

// Suggest returns the constant whose name or id is closest to query
// together with its Jaro-Winkler similarity.
func (r *Registry) Suggest(t bundle.EnumType, query string) (bundle.Identifiable, float64) {
	query = normalizeEnumName(query)
	var best bundle.Identifiable
	bestScore := 0.0
	for _, v := range r.values[t] {
		for _, candidate := range []string{v.Name(), v.ID()} {
			score := matchr.JaroWinkler(query, normalizeEnumName(candidate), false)
			if score > bestScore {
				best, bestScore = v, score
			}
		}
	}
	return best, bestScore
}

// Character returns the default character with fimfictionID, or a generic
// one using imageURL if there is none.
func (r *Registry) Character(fimfictionID int, imageURL string) Character {
	c, ok := r.characters[fimfictionID]
	if ok {
		return c
	}
	return GenericCharacter(fimfictionID, imageURL)
}

// Resolve is ForID narrowed to a concrete constant type.
func Resolve[T bundle.Identifiable](r *Registry, t bundle.EnumType, id string) (T, bool) {
	var zero T
	v, ok := r.ForID(t, id)
	if !ok {
		return zero, false
	}
	out, ok := v.(T)
	return out, ok
}

func (r *Registry) Category(id string) (Category, bool) {
	return Resolve[Category](r, EnumCategory, id)
}

func (r *Registry) CategoryByName(name string) (Category, bool) {
	v, ok := r.ByName(EnumCategory, name)
	if !ok {
		return 0, false
	}
	return v.(Category), true
}

func (r *Registry) StatusByName(name string) (StoryStatus, bool) {
	v, ok := r.ByName(EnumStoryStatus, name)
	if !ok {
		return 0, false
	}
	return v.(StoryStatus), true
}

func (r *Registry) ContentRatingByName(name string) (ContentRating, bool) {
	v, ok := r.ByName(EnumContentRating, name)
	if !ok {
		return 0, false
	}
	return v.(ContentRating), true
}

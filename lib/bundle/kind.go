package bundle

import (
	"encoding/json"
	"hash/fnv"
	"math"
	"net/url"
	"reflect"
	"time"

	"fimfiction/lib/formatted"
)

// Tag enumerates every shape a value can take.
type Tag int

const (
	tagInvalid Tag = iota
	TagNumber
	TagText
	TagFormatted
	TagURL
	TagDate
	TagBoolean
	TagRecord
	TagEnum
	TagOptional
	TagList
	TagSet
)

// Kind describes the values a key accepts. Kinds are built with the
// package level values and the *Of constructors, the zero Kind is invalid.
type Kind struct {
	tag    Tag
	schema *Schema
	enum   EnumType
	elem   *Kind
}

var (
	Number    = Kind{tag: TagNumber}
	Text      = Kind{tag: TagText}
	Formatted = Kind{tag: TagFormatted}
	URL       = Kind{tag: TagURL}
	Date      = Kind{tag: TagDate}
	Boolean   = Kind{tag: TagBoolean}
)

func RecordOf(schema *Schema) Kind {
	return Kind{tag: TagRecord, schema: schema}
}

func EnumOf(t EnumType) Kind {
	return Kind{tag: TagEnum, enum: t}
}

func OptionalOf(elem Kind) Kind {
	return Kind{tag: TagOptional, elem: &elem}
}

func ListOf(elem Kind) Kind {
	return Kind{tag: TagList, elem: &elem}
}

func SetOf(elem Kind) Kind {
	return Kind{tag: TagSet, elem: &elem}
}

func (k Kind) Tag() Tag {
	return k.tag
}

// Schema is the schema of record kinds.
func (k Kind) Schema() *Schema {
	return k.schema
}

// Enum is the enum type of enum kinds.
func (k Kind) Enum() EnumType {
	return k.enum
}

// Elem is the element kind of optional, list and set kinds.
func (k Kind) Elem() (Kind, bool) {
	if k.elem == nil {
		return Kind{}, false
	}
	return *k.elem, true
}

// Container reports whether values of the kind hold other values.
func (k Kind) Container() bool {
	return k.tag == TagOptional || k.tag == TagList || k.tag == TagSet
}

func (k Kind) String() string {
	switch k.tag {
	case TagNumber:
		return "number"
	case TagText:
		return "text"
	case TagFormatted:
		return "formatted-text"
	case TagURL:
		return "url"
	case TagDate:
		return "date"
	case TagBoolean:
		return "boolean"
	case TagRecord:
		return "record<" + k.schema.Name() + ">"
	case TagEnum:
		return "enum<" + string(k.enum) + ">"
	case TagOptional:
		return "optional<" + k.elem.String() + ">"
	case TagList:
		return "list<" + k.elem.String() + ">"
	case TagSet:
		return "set<" + k.elem.String() + ">"
	default:
		return "invalid"
	}
}

// Validate reports whether value can be stored under a key of this kind.
func (k Kind) Validate(value any) bool {
	_, ok := k.normalize(value)
	return ok
}

func toNumber(value any) (any, bool) {
	switch v := value.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	case uint:
		if uint64(v) > math.MaxInt64 {
			return float64(v), true
		}
		return int64(v), true
	case uint8:
		return int64(v), true
	case uint16:
		return int64(v), true
	case uint32:
		return int64(v), true
	case uint64:
		if v > math.MaxInt64 {
			return float64(v), true
		}
		return int64(v), true
	case float32:
		return float64(v), true
	case float64:
		return v, true
	case json.Number:
		i, err := v.Int64()
		if err == nil {
			return i, true
		}
		f, err := v.Float64()
		if err == nil {
			return f, true
		}
	}
	return nil, false
}

func sliceItems(value any) ([]any, bool) {
	switch v := value.(type) {
	case List:
		return v, true
	case Set:
		return v, true
	case []any:
		return v, true
	}
	rv := reflect.ValueOf(value)
	if !rv.IsValid() || rv.Kind() != reflect.Slice {
		return nil, false
	}
	items := make([]any, rv.Len())
	for i := range items {
		items[i] = rv.Index(i).Interface()
	}
	return items, true
}

func cloneURL(u *url.URL) *url.URL {
	c := *u
	return &c
}

// normalize validates value and converts it to the form it is stored in,
// containers always come back as fresh slices.
func (k Kind) normalize(value any) (any, bool) {
	switch k.tag {
	case TagNumber:
		return toNumber(value)
	case TagText:
		v, ok := value.(string)
		return v, ok
	case TagFormatted:
		v, ok := value.(formatted.Text)
		return v, ok
	case TagURL:
		v, ok := value.(*url.URL)
		if !ok || v == nil {
			return nil, false
		}
		return cloneURL(v), true
	case TagDate:
		v, ok := value.(time.Time)
		return v, ok
	case TagBoolean:
		v, ok := value.(bool)
		return v, ok
	case TagRecord:
		v, ok := value.(*Record)
		if !ok || v == nil || v.schema != k.schema {
			return nil, false
		}
		return v, true
	case TagEnum:
		v, ok := value.(Identifiable)
		if !ok || v == nil || v.EnumType() != k.enum || v.ID() == "" {
			return nil, false
		}
		return v, true
	case TagOptional:
		v, ok := value.(Optional)
		if !ok {
			return nil, false
		}
		inner, present := v.Get()
		if !present {
			return None(), true
		}
		inner, ok = k.elem.normalize(inner)
		if !ok {
			return nil, false
		}
		return Some(inner), true
	case TagList:
		items, ok := sliceItems(value)
		if !ok {
			return nil, false
		}
		out := make(List, 0, len(items))
		for _, item := range items {
			item, ok = k.elem.normalize(item)
			if !ok {
				return nil, false
			}
			out = append(out, item)
		}
		return out, true
	case TagSet:
		items, ok := sliceItems(value)
		if !ok {
			return nil, false
		}
		out := make(Set, 0, len(items))
		for _, item := range items {
			item, ok = k.elem.normalize(item)
			if !ok {
				return nil, false
			}
			if !k.elem.containsEqual(out, item) {
				out = append(out, item)
			}
		}
		return out, true
	}
	return nil, false
}

func (k Kind) containsEqual(items []any, value any) bool {
	for _, item := range items {
		if k.equal(item, value) {
			return true
		}
	}
	return false
}

// ImmutableCopy returns a copy of a stored value that shares nothing
// mutable with the original, nested records are frozen.
func (k Kind) ImmutableCopy(value any) any {
	switch k.tag {
	case TagRecord:
		return value.(*Record).ToImmutableCopy()
	case TagURL:
		return cloneURL(value.(*url.URL))
	case TagOptional:
		inner, present := value.(Optional).Get()
		if !present {
			return None()
		}
		return Some(k.elem.ImmutableCopy(inner))
	case TagList:
		items := value.(List)
		out := make(List, len(items))
		for i, item := range items {
			out[i] = k.elem.ImmutableCopy(item)
		}
		return out
	case TagSet:
		items := value.(Set)
		out := make(Set, len(items))
		for i, item := range items {
			out[i] = k.elem.ImmutableCopy(item)
		}
		return out
	}
	return value
}

// detach copies a stored value down to the parts a caller could change in
// place: container slices and urls. Records are returned as they are, a
// frozen record only ever holds frozen records.
func (k Kind) detach(value any) any {
	switch k.tag {
	case TagURL:
		return cloneURL(value.(*url.URL))
	case TagOptional:
		inner, present := value.(Optional).Get()
		if !present {
			return value
		}
		return Some(k.elem.detach(inner))
	case TagList:
		items := value.(List)
		out := make(List, len(items))
		for i, item := range items {
			out[i] = k.elem.detach(item)
		}
		return out
	case TagSet:
		items := value.(Set)
		out := make(Set, len(items))
		for i, item := range items {
			out[i] = k.elem.detach(item)
		}
		return out
	}
	return value
}

func numberAsFloat(v any) float64 {
	switch n := v.(type) {
	case int64:
		return float64(n)
	case float64:
		return n
	}
	return math.NaN()
}

// equal compares two stored values of this kind.
func (k Kind) equal(a, b any) bool {
	switch k.tag {
	case TagNumber:
		ai, aok := a.(int64)
		bi, bok := b.(int64)
		if aok && bok {
			return ai == bi
		}
		return numberAsFloat(a) == numberAsFloat(b)
	case TagText, TagBoolean:
		return a == b
	case TagFormatted:
		return a.(formatted.Text).Equal(b.(formatted.Text))
	case TagURL:
		return a.(*url.URL).String() == b.(*url.URL).String()
	case TagDate:
		return a.(time.Time).Equal(b.(time.Time))
	case TagRecord:
		return a.(*Record).Equal(b.(*Record))
	case TagEnum:
		return a.(Identifiable).ID() == b.(Identifiable).ID()
	case TagOptional:
		av, apresent := a.(Optional).Get()
		bv, bpresent := b.(Optional).Get()
		if apresent != bpresent {
			return false
		}
		return !apresent || k.elem.equal(av, bv)
	case TagList:
		al, bl := a.(List), b.(List)
		if len(al) != len(bl) {
			return false
		}
		for i := range al {
			if !k.elem.equal(al[i], bl[i]) {
				return false
			}
		}
		return true
	case TagSet:
		as, bs := a.(Set), b.(Set)
		if len(as) != len(bs) {
			return false
		}
		for _, item := range as {
			if !k.elem.containsEqual(bs, item) {
				return false
			}
		}
		return true
	}
	return false
}

func hashString(s string) uint64 {
	h := fnv.New64a()
	h.Write([]byte(s))
	return h.Sum64()
}

// hash is consistent with equal.
func (k Kind) hash(value any) uint64 {
	switch k.tag {
	case TagNumber:
		return math.Float64bits(numberAsFloat(value))
	case TagText:
		return hashString(value.(string))
	case TagFormatted:
		return hashString(value.(formatted.Text).HTML())
	case TagURL:
		return hashString(value.(*url.URL).String())
	case TagDate:
		t := value.(time.Time)
		return uint64(t.Unix())*1_000_000_007 ^ uint64(t.Nanosecond())
	case TagBoolean:
		if value.(bool) {
			return 1231
		}
		return 1237
	case TagRecord:
		return value.(*Record).Hash()
	case TagEnum:
		return hashString(value.(Identifiable).ID())
	case TagOptional:
		inner, present := value.(Optional).Get()
		if !present {
			return 0
		}
		return 31*k.elem.hash(inner) + 1
	case TagList:
		var h uint64 = 1
		for _, item := range value.(List) {
			h = 31*h + k.elem.hash(item)
		}
		return h
	case TagSet:
		var h uint64
		for _, item := range value.(Set) {
			h += k.elem.hash(item)
		}
		return h
	}
	return 0
}

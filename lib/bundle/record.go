package bundle

import (
	"fmt"
	"strings"

	"fimfiction/internal/assert"
)

// Schema is the fixed set of keys records of one entity type can hold.
// Keys are registered once while the program initializes.
type Schema struct {
	name string
	keys []*Key
	byID map[string]*Key
}

func NewSchema(name string) *Schema {
	assert.NotEmptyStr(name)
	return &Schema{name: name, byID: map[string]*Key{}}
}

// Key registers a new key on the schema, ids must be unique per schema.
func (s *Schema) Key(id string, kind Kind) *Key {
	assert.NotEmptyStr(id)
	if _, exists := s.byID[id]; exists {
		panic(fmt.Sprintf("duplicate key %s.%s", s.name, id))
	}
	if kind.tag == tagInvalid {
		panic(fmt.Sprintf("key %s.%s has no kind", s.name, id))
	}
	k := &Key{id: id, kind: kind, schema: s, index: len(s.keys)}
	s.keys = append(s.keys, k)
	s.byID[id] = k
	return k
}

func (s *Schema) Name() string {
	return s.name
}

// Keys returns every key of the schema in registration order.
func (s *Schema) Keys() []*Key {
	return append([]*Key(nil), s.keys...)
}

func (s *Schema) KeyByID(id string) (*Key, bool) {
	k, ok := s.byID[id]
	return k, ok
}

// New creates an empty mutable record.
func (s *Schema) New() *Record {
	return &Record{schema: s, values: make([]any, len(s.keys))}
}

// Key is a named, typed slot of one schema.
type Key struct {
	id     string
	kind   Kind
	schema *Schema
	index  int
}

func (k *Key) ID() string {
	return k.id
}

func (k *Key) Kind() Kind {
	return k.kind
}

func (k *Key) Schema() *Schema {
	return k.schema
}

func (k *Key) String() string {
	return k.schema.name + "." + k.id
}

// Record holds a value for some of the keys of its schema. A key that
// isn't set is unknown, which is different from a key holding an empty
// Optional.
//
// Records start out mutable, ToImmutableCopy returns a frozen deep copy
// that may be shared between goroutines. Mutable records are not safe for
// concurrent use.
type Record struct {
	schema *Schema
	values []any
	frozen bool
}

func (r *Record) Schema() *Schema {
	return r.schema
}

func (r *Record) Frozen() bool {
	return r.frozen
}

func (r *Record) checkKey(key *Key) error {
	if key == nil || key.schema != r.schema {
		return fmt.Errorf("%w: %v is not a key of %s", ErrForeignKey, key, r.schema.name)
	}
	return nil
}

func (r *Record) value(key *Key) any {
	if key.index >= len(r.values) {
		return nil
	}
	return r.values[key.index]
}

func (r *Record) Has(key *Key) bool {
	if r.checkKey(key) != nil {
		return false
	}
	return r.value(key) != nil
}

// Get returns the value stored for key. Lists, sets and urls are returned
// as copies, so changing them does not change the record.
func (r *Record) Get(key *Key) (any, error) {
	err := r.checkKey(key)
	if err != nil {
		return nil, err
	}
	v := r.value(key)
	if v == nil {
		return nil, &MissingFieldError{Key: key}
	}
	return key.kind.detach(v), nil
}

func (r *Record) GetOr(key *Key, def any) any {
	v, err := r.Get(key)
	if err != nil {
		return def
	}
	return v
}

// Set validates value against the key's kind and stores it. Lists and
// sets are copied, so later changes to the passed slice are not seen.
func (r *Record) Set(key *Key, value any) error {
	err := r.checkKey(key)
	if err != nil {
		return err
	}
	if r.frozen {
		return fmt.Errorf("%w: set %s", ErrFrozen, key)
	}
	normalized, ok := key.kind.normalize(value)
	if !ok {
		return &TypeMismatchError{Key: key, Kind: key.kind, Value: value}
	}
	r.store(key, normalized)
	return nil
}

func (r *Record) store(key *Key, value any) {
	if key.index >= len(r.values) {
		grown := make([]any, len(r.schema.keys))
		copy(grown, r.values)
		r.values = grown
	}
	r.values[key.index] = value
}

// MustSet is Set for values that are known to be valid, it panics on
// error and returns the record so calls can be chained.
func (r *Record) MustSet(key *Key, value any) *Record {
	err := r.Set(key, value)
	if err != nil {
		panic(err)
	}
	return r
}

func (r *Record) Unset(key *Key) error {
	err := r.checkKey(key)
	if err != nil {
		return err
	}
	if r.frozen {
		return fmt.Errorf("%w: unset %s", ErrFrozen, key)
	}
	if key.index < len(r.values) {
		r.values[key.index] = nil
	}
	return nil
}

// SetKeys returns the keys that hold a value in schema order.
func (r *Record) SetKeys() []*Key {
	var keys []*Key
	for _, k := range r.schema.keys {
		if r.value(k) != nil {
			keys = append(keys, k)
		}
	}
	return keys
}

// Merge copies every key set in other into r, keys other doesn't hold are
// left alone.
func (r *Record) Merge(other *Record) error {
	if other == nil || other.schema != r.schema {
		return fmt.Errorf("%w: merge into %s", ErrForeignKey, r.schema.name)
	}
	if r.frozen {
		return fmt.Errorf("%w: merge into %s", ErrFrozen, r.schema.name)
	}
	for _, k := range other.SetKeys() {
		r.store(k, k.kind.detach(other.value(k)))
	}
	return nil
}

// ToImmutableCopy returns a frozen deep copy, frozen records return
// themselves.
func (r *Record) ToImmutableCopy() *Record {
	if r.frozen {
		return r
	}
	out := &Record{schema: r.schema, values: make([]any, len(r.values)), frozen: true}
	for i, v := range r.values {
		if v != nil {
			out.values[i] = r.schema.keys[i].kind.ImmutableCopy(v)
		}
	}
	return out
}

// ToMutableCopy returns a mutable copy, nested records are shared.
func (r *Record) ToMutableCopy() *Record {
	out := &Record{schema: r.schema, values: make([]any, len(r.values))}
	for i, v := range r.values {
		if v != nil {
			out.values[i] = r.schema.keys[i].kind.detach(v)
		}
	}
	return out
}

// ToMutable returns r if it is mutable and a mutable copy otherwise.
func (r *Record) ToMutable() *Record {
	if !r.frozen {
		return r
	}
	return r.ToMutableCopy()
}

// Equal compares every key of the schema, both records must either lack
// a key or hold equal values for it.
func (r *Record) Equal(other *Record) bool {
	if r == other {
		return true
	}
	if other == nil || r.schema != other.schema {
		return false
	}
	for _, k := range r.schema.keys {
		a, b := r.value(k), other.value(k)
		if a == nil || b == nil {
			if a != b {
				return false
			}
			continue
		}
		if !k.kind.equal(a, b) {
			return false
		}
	}
	return true
}

func (r *Record) Hash() uint64 {
	h := hashString(r.schema.name)
	for _, k := range r.schema.keys {
		h *= 31
		v := r.value(k)
		if v != nil {
			h += k.kind.hash(v)
		}
	}
	return h
}

func (r *Record) String() string {
	var out strings.Builder
	out.WriteString(r.schema.name)
	out.WriteByte('{')
	for i, k := range r.SetKeys() {
		if i > 0 {
			out.WriteString(", ")
		}
		fmt.Fprintf(&out, "%s=%v", k.id, r.value(k))
	}
	out.WriteByte('}')
	return out.String()
}

// Get returns the value for key as a T.
func Get[T any](r *Record, key *Key) (T, error) {
	var zero T
	v, err := r.Get(key)
	if err != nil {
		return zero, err
	}
	out, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s holds %T, not %T", ErrInvalidValue, key, v, zero)
	}
	return out, nil
}

// GetOr returns the value for key as a T, or def if it is unset or not a T.
func GetOr[T any](r *Record, key *Key, def T) T {
	v, err := Get[T](r, key)
	if err != nil {
		return def
	}
	return v
}

// Int returns a number key as an int64, fractions are truncated.
func Int(r *Record, key *Key) (int64, error) {
	v, err := r.Get(key)
	if err != nil {
		return 0, err
	}
	switch n := v.(type) {
	case int64:
		return n, nil
	case float64:
		return int64(n), nil
	}
	return 0, fmt.Errorf("%w: %s holds %T, not a number", ErrInvalidValue, key, v)
}

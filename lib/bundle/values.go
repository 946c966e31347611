package bundle

import "fmt"

// EnumType names a closed set of identifiable constants.
type EnumType string

// Identifiable is a constant of an EnumType with a stable string id. Values
// with an empty id are not constants of their type and can't be stored.
type Identifiable interface {
	ID() string
	EnumType() EnumType
}

// EnumResolver looks up identifiable constants by id.
type EnumResolver interface {
	ForID(t EnumType, id string) (Identifiable, bool)
}

// Optional is the value of optional keys. A record that holds an empty
// Optional for a key knows that the value does not exist, a record that
// doesn't hold the key at all simply doesn't know.
type Optional struct {
	value   any
	present bool
}

func Some(value any) Optional {
	if value == nil {
		return Optional{}
	}
	return Optional{value: value, present: true}
}

func None() Optional {
	return Optional{}
}

func (o Optional) Get() (any, bool) {
	return o.value, o.present
}

func (o Optional) Present() bool {
	return o.present
}

func (o Optional) OrElse(def any) any {
	if !o.present {
		return def
	}
	return o.value
}

func (o Optional) String() string {
	if !o.present {
		return "none"
	}
	return fmt.Sprintf("some(%v)", o.value)
}

// List is the value of list keys.
type List []any

// Set is the value of set keys, element order carries no meaning and
// duplicates are dropped when the set is stored.
type Set []any

package bundle

import (
	"errors"
	"fmt"
)

var (
	ErrMissingField    = errors.New("missing field")
	ErrInvalidValue    = errors.New("invalid value")
	ErrFrozen          = errors.New("record is frozen")
	ErrForeignKey      = errors.New("key does not belong to schema")
	ErrUnsupportedKind = errors.New("unsupported value kind")
)

// MissingFieldError is returned when getting a key that isn't set.
type MissingFieldError struct {
	Key *Key
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing field %s", e.Key)
}

func (e *MissingFieldError) Is(target error) bool {
	return target == ErrMissingField
}

// TypeMismatchError is returned when a value does not have the shape its
// key's kind requires.
type TypeMismatchError struct {
	Key   *Key
	Kind  Kind
	Value any
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("invalid value for %s: expected %s, got %T", e.Key, e.Kind, e.Value)
}

func (e *TypeMismatchError) Is(target error) bool {
	return target == ErrInvalidValue
}

func IsMissingField(err error) bool {
	return errors.Is(err, ErrMissingField)
}

func IsFrozen(err error) bool {
	return errors.Is(err, ErrFrozen)
}

package entity

import (
	"errors"
	"fmt"
)

// ErrMalformedPayload matches every *MalformedPayloadError via errors.Is.
var ErrMalformedPayload = errors.New("malformed entity payload")

// MalformedPayloadError is returned when a payload cannot be turned into an
// Entity. Payload holds the offending raw object for diagnostics.
type MalformedPayloadError struct {
	Entity  string
	Payload Payload
	Err     error
}

func (e *MalformedPayloadError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("malformed %s payload", e.Entity)
	}
	return fmt.Sprintf("malformed %s payload: %v", e.Entity, e.Err)
}

func (e *MalformedPayloadError) Unwrap() error { return e.Err }

func (e *MalformedPayloadError) Is(target error) bool { return target == ErrMalformedPayload }

// CollectionError reports the position of the first payload that failed in
// FromPayloadCollection.
type CollectionError struct {
	Entity string
	Index  int
	Err    error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("%s collection item %d: %v", e.Entity, e.Index, e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }

// Malformed builds a *MalformedPayloadError for entityName.
func Malformed(entityName string, payload Payload, format string, args ...any) error {
	return &MalformedPayloadError{
		Entity:  entityName,
		Payload: payload,
		Err:     fmt.Errorf(format, args...),
	}
}

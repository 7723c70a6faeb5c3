package entity

import (
	"errors"
	"fmt"
)

// Type is the static descriptor of an entity kind.
//
// Name is the stable identifier used as registry key. Its canonical form (see
// CanonicalName) is also the wire path prefix, so renaming the Go struct that
// implements the entity never changes the URL.
type Type struct {
	Name        string
	FromPayload func(Payload) (Entity, error)
}

// CanonicalName returns the snake_case form of t.Name.
func (t Type) CanonicalName() string {
	return CanonicalName(t.Name)
}

// Validate reports why t cannot build entities, or nil when it can.
func (t Type) Validate() error {
	if t.Name == "" {
		return errors.New("entity type has no name")
	}
	if t.CanonicalName() == "" {
		return fmt.Errorf("entity type name %q has no identifier characters", t.Name)
	}
	if t.FromPayload == nil {
		return fmt.Errorf("entity type %q has no FromPayload constructor", t.Name)
	}
	return nil
}

// Build runs FromPayload and normalises its failures to *MalformedPayloadError.
func (t Type) Build(p Payload) (Entity, error) {
	if t.FromPayload == nil {
		return nil, &MalformedPayloadError{Entity: t.Name, Payload: p, Err: errors.New("no constructor")}
	}

	e, err := t.FromPayload(p)
	if err != nil {
		var mp *MalformedPayloadError
		if errors.As(err, &mp) {
			return nil, err
		}
		return nil, &MalformedPayloadError{Entity: t.Name, Payload: p, Err: err}
	}
	if e == nil {
		return nil, &MalformedPayloadError{Entity: t.Name, Payload: p, Err: errors.New("constructor returned no entity")}
	}
	return e, nil
}

// FromPayloadCollection builds one entity per payload, in order. The first
// failure aborts the whole collection with a *CollectionError naming its index.
func FromPayloadCollection(t Type, payloads []Payload) ([]Entity, error) {
	out := make([]Entity, 0, len(payloads))
	for i, p := range payloads {
		e, err := t.Build(p)
		if err != nil {
			return nil, &CollectionError{Entity: t.Name, Index: i, Err: err}
		}
		out = append(out, e)
	}
	return out, nil
}

// Package entity defines the typed records produced from API payloads and the
// descriptors (Type) that build them.
//
// An Entity is only ever constructed through its Type's FromPayload function.
// Metadata and relationships are attached afterwards by the repository that
// fetched it, through the Hydrator capability; from a consumer's perspective an
// Entity is immutable once returned.
package entity

import (
	"maps"
	"slices"
)

// SecureIDKey is the payload field carrying an entity's external identifier.
const SecureIDKey = "secureId"

// Payload is one decoded JSON object.
type Payload = map[string]any

// Entity is the read-only view of a hydrated API object.
type Entity interface {
	// EntityName is the name of the Type that built the entity.
	EntityName() string
	// SecureID is the opaque external identifier; empty for unsaved objects.
	SecureID() string
	// Metadata returns a copy of the out-of-band data returned with the object.
	Metadata() map[string]any
	// Relationships returns the related entities in payload order.
	Relationships() []Entity
}

// Hydrator is implemented by entities that accept metadata and relationships
// after construction. Repositories call it during hydration; consumers should not.
type Hydrator interface {
	SetMetadata(metadata map[string]any)
	SetRelationships(relationships []Entity)
}

// Base implements Entity and Hydrator. Concrete entities embed it and build it
// with NewBase from their FromPayload function.
type Base struct {
	name          string
	secureID      string
	metadata      map[string]any
	relationships []Entity
}

// NewBase returns a Base for an entity of the named type.
func NewBase(entityName, secureID string) Base {
	return Base{name: entityName, secureID: secureID}
}

func (b *Base) EntityName() string { return b.name }

func (b *Base) SecureID() string { return b.secureID }

func (b *Base) Metadata() map[string]any {
	if b.metadata == nil {
		return map[string]any{}
	}
	return maps.Clone(b.metadata)
}

func (b *Base) Relationships() []Entity {
	return slices.Clone(b.relationships)
}

// SetMetadata replaces the entity metadata with a copy of metadata.
func (b *Base) SetMetadata(metadata map[string]any) {
	b.metadata = maps.Clone(metadata)
}

// SetRelationships replaces the related entities with a copy of relationships.
func (b *Base) SetRelationships(relationships []Entity) {
	b.relationships = slices.Clone(relationships)
}

// SecureIDOf returns the string secureId carried by p, or "" when absent.
func SecureIDOf(p Payload) string {
	if s, ok := p[SecureIDKey].(string); ok {
		return s
	}
	return ""
}

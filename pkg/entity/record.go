package entity

import "maps"

// Record is a schemaless entity that keeps the raw data object. It backs
// registries built at runtime, where no Go struct exists for the entity kind.
type Record struct {
	Base
	data Payload
}

// Data returns a copy of the object the record was built from.
func (r *Record) Data() Payload {
	return maps.Clone(r.data)
}

// Field returns one top-level value of the record's data.
func (r *Record) Field(key string) (any, bool) {
	v, ok := r.data[key]
	return v, ok
}

// RecordType returns a Type building *Record entities named name.
func RecordType(name string) Type {
	return Type{
		Name: name,
		FromPayload: func(p Payload) (Entity, error) {
			if p == nil {
				return nil, Malformed(name, p, "payload is not an object")
			}
			return &Record{Base: NewBase(name, SecureIDOf(p)), data: maps.Clone(p)}, nil
		},
	}
}

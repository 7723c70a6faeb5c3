package repository

import (
	"maps"

	"github.com/wexample/go-api/pkg/entity"
)

// Item is a raw API item split into its three parts.
type Item struct {
	Data          entity.Payload
	Metadata      map[string]any
	Relationships []any
}

// SplitItem separates an API item that may be flat or enveloped:
//
//	{"entity": {...}, "metadata": {...}, "relationships": [...]}
//
// Data is the "entity" object when present, else the item itself. Metadata
// and Relationships are empty unless the item carries an object and an array
// under those keys.
func SplitItem(raw map[string]any) Item {
	data := raw
	if obj, ok := raw["entity"].(map[string]any); ok {
		data = obj
	}
	return Item{
		Data:          data,
		Metadata:      objectOrEmpty(raw["metadata"]),
		Relationships: arrayOrNil(raw["relationships"]),
	}
}

// splitRelationship extracts the nested payload of a relationship entry: the
// "entity" object, else the "data" object, else the entry without its "type".
// Envelope siblings (metadata, relationships) only apply to the first two forms.
func splitRelationship(rel map[string]any) Item {
	for _, key := range []string{"entity", "data"} {
		if obj, ok := rel[key].(map[string]any); ok {
			return Item{
				Data:          obj,
				Metadata:      objectOrEmpty(rel["metadata"]),
				Relationships: arrayOrNil(rel["relationships"]),
			}
		}
	}

	data := maps.Clone(rel)
	delete(data, "type")
	return Item{Data: data, Metadata: map[string]any{}}
}

// listItems finds the item array of a list response, preferring data.items,
// then items, then a bare array.
func listItems(resp any) []any {
	switch v := resp.(type) {
	case []any:
		return v
	case map[string]any:
		if data, ok := v["data"].(map[string]any); ok {
			if items, ok := data["items"].([]any); ok {
				return items
			}
		}
		if items, ok := v["items"].([]any); ok {
			return items
		}
	}
	return []any{}
}

// unwrapData returns the "data" object of a single-item response, or the
// response itself when it is not wrapped.
func unwrapData(resp map[string]any) map[string]any {
	if data, ok := resp["data"].(map[string]any); ok {
		return data
	}
	return resp
}

func objectOrEmpty(v any) map[string]any {
	if obj, ok := v.(map[string]any); ok {
		return obj
	}
	return map[string]any{}
}

func arrayOrNil(v any) []any {
	if arr, ok := v.([]any); ok {
		return arr
	}
	return nil
}

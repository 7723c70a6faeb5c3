package entity

import (
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// validate is shared; validator instances cache struct metadata.
var validate = validator.New()

// Decode copies p into dst (a pointer to a struct with json tags) and runs
// struct validation on the result. Missing `validate:"required"` fields and
// type mismatches are reported as *MalformedPayloadError for entityName.
//
//	type widgetFields struct {
//	    SecureID string `json:"secureId" validate:"required"`
//	    Name     string `json:"name"     validate:"required"`
//	}
//	var f widgetFields
//	if err := entity.Decode("widget", p, &f); err != nil { ... }
func Decode(entityName string, p Payload, dst any) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return &MalformedPayloadError{Entity: entityName, Payload: p, Err: fmt.Errorf("encode payload: %w", err)}
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return &MalformedPayloadError{Entity: entityName, Payload: p, Err: fmt.Errorf("decode payload: %w", err)}
	}
	if err := validate.Struct(dst); err != nil {
		return &MalformedPayloadError{Entity: entityName, Payload: p, Err: err}
	}
	return nil
}

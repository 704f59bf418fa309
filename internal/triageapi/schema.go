package triageapi

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"
)

// requestSchema describes the triage request body. Whitespace-only
// symptoms are rejected here, before anything reaches the classifier.
const requestSchema = `{
	"type": "object",
	"properties": {
		"symptoms": {
			"type": "string",
			"minLength": 1,
			"pattern": "\\S"
		}
	},
	"required": ["symptoms"]
}`

// FieldError is one validation failure reported to the client.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type validator struct {
	schema *gojsonschema.Schema
}

func newValidator() (*validator, error) {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(requestSchema))
	if err != nil {
		return nil, fmt.Errorf("compile request schema: %w", err)
	}
	return &validator{schema: s}, nil
}

// validate checks a raw request body. It returns the field errors for a
// well-formed document that violates the schema, or a single root error if
// the body is not JSON at all.
func (v *validator) validate(body []byte) []FieldError {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return []FieldError{{Field: "(root)", Message: "request body must be valid JSON"}}
	}
	if result.Valid() {
		return nil
	}

	errs := make([]FieldError, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		msg := desc.Description()
		if desc.Type() == "pattern" || desc.Type() == "string_gte" {
			msg = "Symptoms are required"
		}
		errs = append(errs, FieldError{Field: desc.Field(), Message: msg})
	}
	return errs
}

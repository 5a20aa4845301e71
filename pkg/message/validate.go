package message

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed schema.json
var schemaJSON string

// ValidationError lists the schema violations of a message document.
type ValidationError struct {
	Violations []string
}

func (e *ValidationError) Error() string {
	if len(e.Violations) == 1 {
		return "invalid message: " + e.Violations[0]
	}
	return fmt.Sprintf("invalid message: %d violations: %s", len(e.Violations), strings.Join(e.Violations, "; "))
}

// Validator checks message JSON against the message schema before it is
// decoded. A Validator is safe for concurrent use.
type Validator struct {
	schema *gojsonschema.Schema
}

// NewValidator compiles the embedded message schema.
func NewValidator() (*Validator, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("compile message schema: %w", err)
	}
	return &Validator{schema: schema}, nil
}

// Validate returns a *ValidationError when data does not conform to the
// schema, or an error when data is not JSON at all.
func (v *Validator) Validate(data []byte) error {
	result, err := v.schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("validate message: %w", err)
	}
	if result.Valid() {
		return nil
	}

	violations := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		violations = append(violations, fmt.Sprintf("%s: %s", desc.Field(), desc.Description()))
	}
	return &ValidationError{Violations: violations}
}

// DecodeValid validates data and then decodes it.
func (v *Validator) DecodeValid(data []byte) (*Message, error) {
	if err := v.Validate(data); err != nil {
		return nil, err
	}
	return Decode(data)
}

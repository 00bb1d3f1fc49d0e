// Package jsonschema validates response bodies against JSON Schema documents.
package jsonschema

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ValidationErrors represents a collection of validation errors
type ValidationErrors []error

// Error implements the error interface for ValidationErrors
func (ve ValidationErrors) Error() string {
	msgs := make([]string, len(ve))
	for i, err := range ve {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

// Schema is a compiled schema.
type Schema struct {
	compiled *jsonschema.Schema
}

// Compile compiles a schema given as JSON text, raw bytes, or a decoded
// document such as a map read from a YAML collection.
func Compile(schema any) (*Schema, error) {
	var data []byte
	switch s := schema.(type) {
	case string:
		data = []byte(s)
	case []byte:
		data = s
	case json.RawMessage:
		data = s
	default:
		var err error
		if data, err = json.Marshal(s); err != nil {
			return nil, fmt.Errorf("invalid schema: %w", err)
		}
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("invalid schema: %w", err)
	}
	return &Schema{compiled: compiled}, nil
}

// CompileFile compiles the schema stored at path.
func CompileFile(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read schema: %w", err)
	}
	return Compile(data)
}

// Validate checks a response body. Strings and byte slices are parsed as
// JSON, decoded values are normalized through JSON first. It returns nil or
// ValidationErrors.
func (s *Schema) Validate(body any) error {
	doc, err := normalize(body)
	if err != nil {
		return ValidationErrors{err}
	}
	err = s.compiled.Validate(doc)
	if err == nil {
		return nil
	}
	var verr *jsonschema.ValidationError
	if errors.As(err, &verr) {
		return flatten(verr)
	}
	return ValidationErrors{err}
}

// ValidateBody compiles schema and validates body against it.
func ValidateBody(body, schema any) error {
	s, err := Compile(schema)
	if err != nil {
		return ValidationErrors{err}
	}
	return s.Validate(body)
}

// ValidateWithErrors validates a JSON string against a JSON Schema string.
func ValidateWithErrors(jsonStr, schemaStr string) (bool, ValidationErrors) {
	err := ValidateBody(jsonStr, schemaStr)
	if err == nil {
		return true, nil
	}
	var ve ValidationErrors
	if errors.As(err, &ve) {
		return false, ve
	}
	return false, ValidationErrors{err}
}

func normalize(body any) (any, error) {
	var data []byte
	switch b := body.(type) {
	case string:
		data = []byte(b)
	case []byte:
		data = b
	default:
		var err error
		if data, err = json.Marshal(b); err != nil {
			return nil, fmt.Errorf("invalid JSON: %w", err)
		}
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid JSON: %w", err)
	}
	return doc, nil
}

// flatten collects the leaf messages of a validation error tree.
func flatten(err *jsonschema.ValidationError) ValidationErrors {
	var out ValidationErrors
	if len(err.Causes) == 0 && err.Message != "" {
		out = append(out, fmt.Errorf("validation error at %s: %s", locationOf(err), err.Message))
	}
	for _, cause := range err.Causes {
		out = append(out, flatten(cause)...)
	}
	if len(out) == 0 {
		out = append(out, err)
	}
	return out
}

func locationOf(err *jsonschema.ValidationError) string {
	if err.InstanceLocation == "" {
		return "/"
	}
	return err.InstanceLocation
}

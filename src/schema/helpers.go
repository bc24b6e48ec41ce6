// Package schema provides helpers for declaring backend parameter schemas
// as JSON Schema documents.
package schema

import (
	jsonschema "github.com/swaggest/jsonschema-go"
)

// String creates a JSON schema for a string field.
func String(description string) *jsonschema.Schema {
	strType := jsonschema.SimpleType("string")
	return &jsonschema.Schema{
		Type:        &jsonschema.Type{SimpleTypes: &strType},
		Description: &description,
	}
}

// StringEnum creates a JSON schema for a string field constrained to the
// given values.
func StringEnum(description string, values ...string) *jsonschema.Schema {
	s := String(description)
	enum := make([]interface{}, len(values))
	for i, v := range values {
		enum[i] = v
	}
	s.Enum = enum
	return s
}

// Integer creates a JSON schema for an integer field.
func Integer(description string) *jsonschema.Schema {
	intType := jsonschema.SimpleType("integer")
	return &jsonschema.Schema{
		Type:        &jsonschema.Type{SimpleTypes: &intType},
		Description: &description,
	}
}

// Number creates a JSON schema for a floating-point field.
func Number(description string) *jsonschema.Schema {
	numType := jsonschema.SimpleType("number")
	return &jsonschema.Schema{
		Type:        &jsonschema.Type{SimpleTypes: &numType},
		Description: &description,
	}
}

// Bool creates a JSON schema for a boolean field.
func Bool(description string) *jsonschema.Schema {
	boolType := jsonschema.SimpleType("boolean")
	return &jsonschema.Schema{
		Type:        &jsonschema.Type{SimpleTypes: &boolType},
		Description: &description,
	}
}

// Object creates a JSON schema for an object with properties and required
// fields.
func Object(properties map[string]*jsonschema.Schema, required []string) *jsonschema.Schema {
	schemaProps := make(map[string]jsonschema.SchemaOrBool)
	for name, prop := range properties {
		schemaProps[name] = jsonschema.SchemaOrBool{TypeObject: prop}
	}

	objType := jsonschema.SimpleType("object")
	return &jsonschema.Schema{
		Type:       &jsonschema.Type{SimpleTypes: &objType},
		Properties: schemaProps,
		Required:   required,
	}
}

package toolgateway

import (
	"fmt"
	"strconv"
	"strings"

	jsonschema "github.com/swaggest/jsonschema-go"
)

// FieldType is the tagged-union tag for a schema field. Coercion goes
// through an explicit function table rather than reflection.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInt
	FieldNumber
	FieldBool
)

// String implements fmt.Stringer.
func (t FieldType) String() string {
	switch t {
	case FieldInt:
		return "integer"
	case FieldNumber:
		return "number"
	case FieldBool:
		return "boolean"
	default:
		return "string"
	}
}

// FieldSpec is one adapter schema field: its declared type, enum constraint
// and the domain-argument aliases it resolves from.
type FieldSpec struct {
	Name     string
	Type     FieldType
	Required bool
	Enum     []string
	Aliases  []string
}

// coercers maps a declared field type to its value coercion function.
// Accepted inputs are the JSON scalar kinds plus Go ints.
var coercers = map[FieldType]func(interface{}) (interface{}, error){
	FieldString: coerceString,
	FieldInt:    coerceInt,
	FieldNumber: coerceNumber,
	FieldBool:   coerceBool,
}

func coerceString(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(x), nil
	}
	return nil, fmt.Errorf("cannot represent %T as string", v)
}

func coerceInt(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case int:
		return x, nil
	case int64:
		return int(x), nil
	case float64:
		if x != float64(int(x)) {
			return nil, fmt.Errorf("value %v is not an integer", x)
		}
		return int(x), nil
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(x))
		if err != nil {
			return nil, fmt.Errorf("value %q is not an integer", x)
		}
		return n, nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	}
	return nil, fmt.Errorf("cannot represent %T as integer", v)
}

func coerceNumber(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case int:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is not a number", x)
		}
		return f, nil
	}
	return nil, fmt.Errorf("cannot represent %T as number", v)
}

func coerceBool(v interface{}) (interface{}, error) {
	switch x := v.(type) {
	case bool:
		return x, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(x))
		if err != nil {
			return nil, fmt.Errorf("value %q is not a boolean", x)
		}
		return b, nil
	case int:
		return x != 0, nil
	case float64:
		return x != 0, nil
	}
	return nil, fmt.Errorf("cannot represent %T as boolean", v)
}

// BuildArguments translates domain arguments into adapter-specific arguments
// for the given field specs. Absent optional fields are omitted; a missing
// required field or an enum mismatch is a *SchemaViolationError attributed
// to the named adapter.
func BuildArguments(adapter string, domainArgs map[string]interface{}, fields []FieldSpec) (map[string]interface{}, error) {
	out := make(map[string]interface{}, len(fields))

	for _, f := range fields {
		raw, ok := resolveValue(domainArgs, f)
		if !ok {
			if f.Required {
				return nil, &SchemaViolationError{Adapter: adapter, Field: f.Name, Reason: "required field is unresolved"}
			}
			continue
		}

		coerce, ok := coercers[f.Type]
		if !ok {
			return nil, &SchemaViolationError{Adapter: adapter, Field: f.Name, Reason: fmt.Sprintf("unsupported field type %v", f.Type)}
		}
		value, err := coerce(raw)
		if err != nil {
			return nil, &SchemaViolationError{Adapter: adapter, Field: f.Name, Reason: err.Error()}
		}

		if len(f.Enum) > 0 {
			s, ok := value.(string)
			if !ok {
				return nil, &SchemaViolationError{
					Adapter: adapter,
					Field:   f.Name,
					Reason:  fmt.Sprintf("enum constraint on non-string type %v", f.Type),
				}
			}
			if !containsString(f.Enum, s) {
				return nil, &SchemaViolationError{
					Adapter: adapter,
					Field:   f.Name,
					Reason:  fmt.Sprintf("value %q not in enum %v", s, f.Enum),
				}
			}
		}

		out[f.Name] = value
	}

	return out, nil
}

// resolveValue looks up a field under its own name first, then each alias.
func resolveValue(domainArgs map[string]interface{}, f FieldSpec) (interface{}, bool) {
	if v, ok := domainArgs[f.Name]; ok {
		return v, true
	}
	for _, alias := range f.Aliases {
		if v, ok := domainArgs[alias]; ok {
			return v, true
		}
	}
	return nil, false
}

// FieldsFromSchema extracts field specs from an adapter's declared JSON
// schema, attaching the adapter's alias table.
func FieldsFromSchema(s *jsonschema.Schema, aliases map[string][]string) ([]FieldSpec, error) {
	if s == nil {
		return nil, fmt.Errorf("nil schema")
	}

	required := make(map[string]bool, len(s.Required))
	for _, name := range s.Required {
		required[name] = true
	}

	fields := make([]FieldSpec, 0, len(s.Properties))
	for name, prop := range s.Properties {
		ps := prop.TypeObject
		if ps == nil {
			return nil, fmt.Errorf("field %q has no schema object", name)
		}

		ft, err := fieldTypeOf(ps)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}

		spec := FieldSpec{
			Name:     name,
			Type:     ft,
			Required: required[name],
			Aliases:  aliases[name],
		}
		// Enum constraints are only defined for string fields; a constraint
		// the builder cannot enforce is an invalid schema, not a silent gap.
		if len(ps.Enum) > 0 {
			if ft != FieldString {
				return nil, fmt.Errorf("field %q: enum constraint on non-string type %v", name, ft)
			}
			for _, ev := range ps.Enum {
				s, ok := ev.(string)
				if !ok {
					return nil, fmt.Errorf("field %q: non-string enum member %v", name, ev)
				}
				spec.Enum = append(spec.Enum, s)
			}
		}
		fields = append(fields, spec)
	}

	return fields, nil
}

func fieldTypeOf(s *jsonschema.Schema) (FieldType, error) {
	if s.Type == nil || s.Type.SimpleTypes == nil {
		return FieldString, fmt.Errorf("missing type declaration")
	}
	switch string(*s.Type.SimpleTypes) {
	case "string":
		return FieldString, nil
	case "integer":
		return FieldInt, nil
	case "number":
		return FieldNumber, nil
	case "boolean":
		return FieldBool, nil
	}
	return FieldString, fmt.Errorf("unsupported type %q", string(*s.Type.SimpleTypes))
}

func containsString(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

package toolgateway

import (
	"errors"
	"testing"

	"github.com/elee1766/deskpilot/src/schema"
	jsonschema "github.com/swaggest/jsonschema-go"
)

func TestBuildArgumentsCoercion(t *testing.T) {
	fields := []FieldSpec{
		{Name: "count", Type: FieldInt, Required: true},
		{Name: "ratio", Type: FieldNumber},
		{Name: "enabled", Type: FieldBool},
		{Name: "label", Type: FieldString},
	}

	tests := []struct {
		name    string
		args    map[string]interface{}
		want    map[string]interface{}
		wantErr bool
	}{
		{
			name: "string to int",
			args: map[string]interface{}{"count": "42"},
			want: map[string]interface{}{"count": 42},
		},
		{
			name: "integral float to int",
			args: map[string]interface{}{"count": float64(7)},
			want: map[string]interface{}{"count": 7},
		},
		{
			name:    "fractional float to int fails",
			args:    map[string]interface{}{"count": 7.5},
			wantErr: true,
		},
		{
			name: "int to string and string to bool",
			args: map[string]interface{}{"count": 1, "label": 99, "enabled": "true"},
			want: map[string]interface{}{"count": 1, "label": "99", "enabled": true},
		},
		{
			name: "string to number",
			args: map[string]interface{}{"count": 1, "ratio": "0.25"},
			want: map[string]interface{}{"count": 1, "ratio": 0.25},
		},
		{
			name:    "garbage string to int fails",
			args:    map[string]interface{}{"count": "soon"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := BuildArguments("test", tt.args, fields)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				if !errors.Is(err, ErrSchemaViolation) {
					t.Errorf("expected a schema violation, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("field %s = %v (%T), want %v (%T)", k, got[k], got[k], v, v)
				}
			}
		})
	}
}

func TestBuildArgumentsRequiredAndOptional(t *testing.T) {
	fields := []FieldSpec{
		{Name: "summary", Type: FieldString, Required: true},
		{Name: "component", Type: FieldString},
	}

	// Missing required field is a violation naming the adapter and field.
	_, err := BuildArguments("jira", map[string]interface{}{"component": "auth"}, fields)
	var sv *SchemaViolationError
	if !errors.As(err, &sv) {
		t.Fatalf("expected *SchemaViolationError, got %v", err)
	}
	if sv.Adapter != "jira" || sv.Field != "summary" {
		t.Errorf("violation attributed to %s/%s, want jira/summary", sv.Adapter, sv.Field)
	}

	// Absent optional field is omitted, not nilled.
	out, err := BuildArguments("jira", map[string]interface{}{"summary": "broken login"}, fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, present := out["component"]; present {
		t.Error("absent optional field should be omitted")
	}
}

func TestBuildArgumentsEnum(t *testing.T) {
	fields := []FieldSpec{
		{Name: "priority", Type: FieldString, Enum: []string{"high", "medium", "low"}},
	}

	if _, err := BuildArguments("jira", map[string]interface{}{"priority": "high"}, fields); err != nil {
		t.Fatalf("enum member rejected: %v", err)
	}

	_, err := BuildArguments("jira", map[string]interface{}{"priority": "whenever"}, fields)
	if !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("expected enum violation, got %v", err)
	}

	// An enum on a non-string field cannot be checked; it must never pass
	// unvalidated.
	badFields := []FieldSpec{
		{Name: "severity", Type: FieldInt, Enum: []string{"1", "2"}},
	}
	_, err = BuildArguments("jira", map[string]interface{}{"severity": 1}, badFields)
	if !errors.Is(err, ErrSchemaViolation) {
		t.Fatalf("expected violation for enum on integer field, got %v", err)
	}
}

func TestBuildArgumentsAliases(t *testing.T) {
	fields := []FieldSpec{
		{Name: "summary", Type: FieldString, Required: true, Aliases: []string{"title"}},
	}

	// The canonical name wins over an alias when both are present.
	out, err := BuildArguments("jira", map[string]interface{}{
		"summary": "canonical",
		"title":   "aliased",
	}, fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["summary"] != "canonical" {
		t.Errorf("summary = %v, want canonical", out["summary"])
	}

	out, err = BuildArguments("jira", map[string]interface{}{"title": "aliased"}, fields)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out["summary"] != "aliased" {
		t.Errorf("summary = %v, want aliased", out["summary"])
	}
}

func TestFieldsFromSchema(t *testing.T) {
	s := schema.Object(map[string]*jsonschema.Schema{
		"summary":  schema.String("summary"),
		"priority": schema.StringEnum("priority", "high", "low"),
		"count":    schema.Integer("count"),
	}, []string{"summary"})

	fields, err := FieldsFromSchema(s, map[string][]string{"summary": {"title"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byName := map[string]FieldSpec{}
	for _, f := range fields {
		byName[f.Name] = f
	}

	if !byName["summary"].Required {
		t.Error("summary should be required")
	}
	if len(byName["summary"].Aliases) != 1 || byName["summary"].Aliases[0] != "title" {
		t.Errorf("summary aliases = %v", byName["summary"].Aliases)
	}
	if byName["priority"].Required {
		t.Error("priority should be optional")
	}
	if len(byName["priority"].Enum) != 2 {
		t.Errorf("priority enum = %v", byName["priority"].Enum)
	}
	if byName["count"].Type != FieldInt {
		t.Errorf("count type = %v, want integer", byName["count"].Type)
	}

	if _, err := FieldsFromSchema(nil, nil); err == nil {
		t.Error("nil schema should be rejected")
	}
}

func TestFieldsFromSchemaRejectsNonStringEnum(t *testing.T) {
	count := schema.Integer("retry count")
	count.Enum = []interface{}{1, 3, 5}
	s := schema.Object(map[string]*jsonschema.Schema{"count": count}, nil)

	if _, err := FieldsFromSchema(s, nil); err == nil {
		t.Error("integer enum should be rejected as an invalid schema")
	}

	mixed := schema.StringEnum("priority", "high", "low")
	mixed.Enum = append(mixed.Enum, 3)
	s = schema.Object(map[string]*jsonschema.Schema{"priority": mixed}, nil)

	if _, err := FieldsFromSchema(s, nil); err == nil {
		t.Error("non-string enum member should be rejected")
	}
}

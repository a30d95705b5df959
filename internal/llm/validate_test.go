package llm

import (
	"encoding/json"
	"errors"
	"testing"
)

func moduleSchema() *Schema {
	return &Schema{
		Name:        "test-module",
		Description: "A curriculum module",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"title":      map[string]any{"type": "string", "minLength": 1},
				"order":      map[string]any{"type": "integer", "minimum": 0},
				"kind":       map[string]any{"type": "string", "enum": []any{"lesson", "quiz", "exam"}},
				"objectives": map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "minItems": 1},
			},
			"required": []any{"title", "order"},
		},
	}
}

func TestValidateResponse_ValidJSON(t *testing.T) {
	raw := json.RawMessage(`{"title":"Intro","order":0,"kind":"lesson","objectives":["a"]}`)
	if err := validateResponse(moduleSchema(), raw); err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}
}

func TestValidateResponse_Failures(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"missing required", `{"title":"Intro"}`},
		{"wrong type", `{"title":"Intro","order":"zero"}`},
		{"invalid enum", `{"title":"Intro","order":0,"kind":"lecture"}`},
		{"empty array", `{"title":"Intro","order":0,"objectives":[]}`},
		{"malformed", `{"title":`},
		{"empty", ``},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := json.RawMessage(tt.raw)
			err := validateResponse(moduleSchema(), raw)
			if err == nil {
				t.Fatal("expected error")
			}
			var invErr *ErrInvalidResponse
			if !errors.As(err, &invErr) {
				t.Fatalf("expected ErrInvalidResponse, got: %T", err)
			}
			if string(invErr.Content) != tt.raw {
				t.Fatalf("expected offending content to be kept, got %q", invErr.Content)
			}
		})
	}
}

func TestValidateResponse_NilSchema(t *testing.T) {
	if err := validateResponse(nil, json.RawMessage(`not even json`)); err != nil {
		t.Fatalf("expected no error with nil schema, got: %v", err)
	}
}

func TestValidateValue_GoValues(t *testing.T) {
	v := map[string]any{
		"title":      "Intro",
		"order":      3,
		"objectives": []string{"Understand loops"},
	}
	if err := ValidateValue(moduleSchema(), v); err != nil {
		t.Fatalf("expected typed Go values to validate, got: %v", err)
	}

	v["order"] = -1
	var invErr *ErrInvalidResponse
	if err := ValidateValue(moduleSchema(), v); !errors.As(err, &invErr) {
		t.Fatalf("expected ErrInvalidResponse, got: %v", err)
	}
}

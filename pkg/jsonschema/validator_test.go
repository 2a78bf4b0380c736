package jsonschema

import (
	"errors"
	"strings"
	"testing"
)

const userSchema = `{
	"type": "object",
	"required": ["id", "name"],
	"properties": {
		"id": {"type": "integer"},
		"name": {"type": "string", "minLength": 1},
		"tags": {"type": "array", "items": {"type": "string"}}
	}
}`

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		wantErr bool
	}{
		{name: "Valid", doc: `{"id": 1, "name": "a"}`},
		{name: "Valid with tags", doc: `{"id": 1, "name": "a", "tags": ["x"]}`},
		{name: "Missing field", doc: `{"id": 1}`, wantErr: true},
		{name: "Wrong type", doc: `{"id": "1", "name": "a"}`, wantErr: true},
		{name: "Bad item", doc: `{"id": 1, "name": "a", "tags": [1]}`, wantErr: true},
		{name: "Not JSON", doc: `{`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate([]byte(tt.doc), []byte(userSchema))
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_ReportsEveryLocation(t *testing.T) {
	s := MustCompile("user.json", []byte(userSchema))

	err := s.Validate([]byte(`{"id": "x", "name": ""}`))
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("Expected ValidationErrors, got %T: %v", err, err)
	}
	if len(verrs) != 2 {
		t.Fatalf("Expected 2 errors, got %d: %v", len(verrs), verrs)
	}
	msg := verrs.Error()
	if !strings.Contains(msg, "/id") || !strings.Contains(msg, "/name") {
		t.Errorf("Expected both locations in %q", msg)
	}
}

func TestCompile_InvalidSchema(t *testing.T) {
	if _, err := Compile("bad.json", []byte(`{"type": 12}`)); err == nil {
		t.Error("Expected compile error")
	}
	if _, err := Compile("bad.json", []byte(`{`)); err == nil {
		t.Error("Expected parse error")
	}
}

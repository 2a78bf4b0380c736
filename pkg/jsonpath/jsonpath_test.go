package jsonpath

import (
	"errors"
	"testing"
)

const doc = `{
	"name": "John Doe",
	"age": 30,
	"address": {"city": "Anytown", "zip code": "12345"},
	"phones": [
		{"type": "home", "number": "555-1234"},
		{"type": "work", "number": "555-5678"}
	],
	"scores": [10, 20, 30],
	"active": true,
	"metadata": null
}`

func TestExtract(t *testing.T) {
	tests := []struct {
		name          string
		path          string
		expected      string
		expectedError bool
	}{
		{name: "Simple property", path: "$.name", expected: "John Doe"},
		{name: "Without dollar", path: "age", expected: "30"},
		{name: "Nested property", path: "$.address.city", expected: "Anytown"},
		{name: "Bracket key with space", path: "$.address['zip code']", expected: "12345"},
		{name: "Double quoted bracket key", path: `$["name"]`, expected: "John Doe"},
		{name: "Array index", path: "$.phones[1].number", expected: "555-5678"},
		{name: "Scalar array", path: "$.scores[2]", expected: "30"},
		{name: "Array as raw JSON", path: "$.scores", expected: "[10, 20, 30]"},
		{name: "Boolean", path: "$.active", expected: "true"},
		{name: "Null", path: "$.metadata", expected: "null"},
		{name: "Missing", path: "$.nope", expectedError: true},
		{name: "Index out of range", path: "$.phones[5]", expectedError: true},
		{name: "Empty path", path: "", expectedError: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Extract(doc, tt.path)
			if (err != nil) != tt.expectedError {
				t.Fatalf("Extract(%q) error = %v, expectedError %v", tt.path, err, tt.expectedError)
			}
			if got != tt.expected {
				t.Errorf("Extract(%q) = %q, want %q", tt.path, got, tt.expected)
			}
		})
	}
}

func TestExtract_Root(t *testing.T) {
	got, err := Extract(`{"a":1}`, "$")
	if err != nil || got != `{"a":1}` {
		t.Errorf("Expected whole document, got %q (%v)", got, err)
	}

	if _, err := Extract("", "$.a"); !errors.Is(err, ErrEmptyDocument) {
		t.Errorf("Expected ErrEmptyDocument, got %v", err)
	}
}

func TestExtractAll(t *testing.T) {
	got, err := ExtractAll(doc, map[string]string{
		"name":  "$.name",
		"home":  "$.phones[0].number",
		"wrong": "$.missing",
	})
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected joined ErrNotFound, got %v", err)
	}
	if got["name"] != "John Doe" || got["home"] != "555-1234" {
		t.Errorf("Unexpected results %v", got)
	}
	if _, ok := got["wrong"]; ok {
		t.Errorf("Failed path should not be present")
	}

	if _, err := ExtractAll(doc, map[string]string{"n": "$.name"}); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestToGJSON(t *testing.T) {
	tests := map[string]string{
		"$":                  "@this",
		"$.a.b":              "a.b",
		"$[0]":               "0",
		"$.a[1][2]":          "a.1.2",
		"$['x.y']":           `x\.y`,
		"items[0].meta['k']": "items.0.meta.k",
	}
	for in, want := range tests {
		if got := toGJSON(in); got != want {
			t.Errorf("toGJSON(%q) = %q, want %q", in, got, want)
		}
	}
}

// Package jsonpath extracts values from JSON documents with a small JSONPath
// subset: $, dotted keys, quoted bracket keys and array indexes.
package jsonpath

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/tidwall/gjson"
)

var (
	// ErrEmptyDocument is returned for an empty JSON input.
	ErrEmptyDocument = errors.New("empty JSON document")
	// ErrNotFound is returned when a path matches nothing.
	ErrNotFound = errors.New("path not found")
)

// Extract returns the value at path rendered as a string. Objects and arrays
// are returned as raw JSON, null as "null".
func Extract(doc, path string) (string, error) {
	if doc == "" {
		return "", ErrEmptyDocument
	}
	if path == "" {
		return "", fmt.Errorf("empty JSONPath expression")
	}

	result := gjson.Get(doc, toGJSON(path))
	if !result.Exists() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	if result.Type == gjson.Null {
		return "null", nil
	}
	return result.String(), nil
}

// ExtractAll evaluates every named path. Values that resolve are returned
// even when others fail; the failures are joined into the error.
func ExtractAll(doc string, paths map[string]string) (map[string]string, error) {
	names := make([]string, 0, len(paths))
	for name := range paths {
		names = append(names, name)
	}
	sort.Strings(names)

	results := make(map[string]string, len(paths))
	var errs []error
	for _, name := range names {
		value, err := Extract(doc, paths[name])
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", name, err))
			continue
		}
		results[name] = value
	}
	return results, errors.Join(errs...)
}

// toGJSON rewrites a JSONPath expression into gjson syntax:
//
//	$.users[0]['first name'] -> users.0.first\ name
func toGJSON(path string) string {
	path = strings.TrimPrefix(path, "$")
	if path == "" {
		return "@this"
	}

	var parts []string
	for len(path) > 0 {
		switch path[0] {
		case '.':
			path = path[1:]
		case '[':
			end := strings.IndexByte(path, ']')
			if end < 0 {
				parts = append(parts, escape(path[1:]))
				path = ""
				continue
			}
			key := strings.Trim(path[1:end], `'"`)
			parts = append(parts, escape(key))
			path = path[end+1:]
		default:
			end := strings.IndexAny(path, ".[")
			if end < 0 {
				end = len(path)
			}
			parts = append(parts, path[:end])
			path = path[end:]
		}
	}
	return strings.Join(parts, ".")
}

// escape protects gjson metacharacters inside a bracketed key.
func escape(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '|', '#', '@', ' ', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}

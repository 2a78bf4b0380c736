package config

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/wesleyorama2/fluent/internal/http"
	"github.com/wesleyorama2/fluent/pkg/fluent"
)

// Record resolves endpoint name against environment env ("" for none) into a
// fluent record. Relative endpoint URLs are joined onto the environment's
// base URL, and {{name}} placeholders are filled from its variables.
func (c *Config) Record(name, env string) (fluent.Record, error) {
	ep, ok := c.Endpoints[name]
	if !ok {
		return fluent.Record{}, fmt.Errorf("%w: %s", ErrUnknownEndpoint, name)
	}

	var environment Environment
	if env != "" {
		if environment, ok = c.Environments[env]; !ok {
			return fluent.Record{}, fmt.Errorf("%w: %s", ErrUnknownEnvironment, env)
		}
	}

	vars := MergeVariables(environment.Vars, map[string]string{"baseUrl": environment.BaseURL})

	location := Substitute(ep.URL, vars)
	if environment.BaseURL != "" && !strings.Contains(location, "://") {
		location = joinURL(Substitute(environment.BaseURL, vars), location)
	}
	if len(ep.Query) > 0 {
		query := make(url.Values, len(ep.Query))
		for key, value := range SubstituteMap(ep.Query, vars) {
			query.Set(key, value)
		}
		location = fluent.PatchQuery(location, query)
	}

	rec := fluent.Record{
		URL:     location,
		Method:  strings.ToUpper(ep.Method),
		Headers: SubstituteMap(MergeVariables(environment.Headers, ep.Headers), vars),
		Fields:  map[string]any{},
	}
	if ep.Body != nil {
		rec.Fields[http.FieldBody] = ep.Body
	}
	if ep.JSON {
		rec.Fields[http.FieldJSON] = true
	}
	if ep.Timeout > 0 {
		rec.Fields[http.FieldTimeout] = time.Duration(ep.Timeout)
	}
	return rec, nil
}

var placeholder = regexp.MustCompile(`\{\{([^{}]+)\}\}`)

// Substitute replaces {{name}} placeholders with values from vars in a
// single pass: substituted values are not scanned again. Unknown
// placeholders are left as they are.
func Substitute(s string, vars map[string]string) string {
	if len(vars) == 0 {
		return s
	}
	return placeholder.ReplaceAllStringFunc(s, func(match string) string {
		if value, ok := vars[match[2:len(match)-2]]; ok {
			return value
		}
		return match
	})
}

// SubstituteMap applies Substitute to every value of m.
func SubstituteMap(m map[string]string, vars map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for key, value := range m {
		out[key] = Substitute(value, vars)
	}
	return out
}

// MergeVariables merges two maps, with the second taking precedence
func MergeVariables(base, override map[string]string) map[string]string {
	if base == nil && override == nil {
		return nil
	}
	out := make(map[string]string, len(base)+len(override))
	for key, value := range base {
		out[key] = value
	}
	for key, value := range override {
		out[key] = value
	}
	return out
}

func joinURL(base, path string) string {
	if path == "" {
		return base
	}
	return strings.TrimRight(base, "/") + "/" + strings.TrimLeft(path, "/")
}

package fluent

import "maps"

// DefaultMethod is reported for records that carry no method.
const DefaultMethod = "GET"

// Slot is one positional argument handed to a RequestFunc.
// It is either a URL or a Record.
type Slot interface {
	kind() slotKind
	clone() Slot
}

type slotKind int

const (
	kindURL slotKind = iota
	kindRecord
)

// URL is a slot holding a bare request URL.
type URL string

func (URL) kind() slotKind { return kindURL }

func (u URL) clone() Slot { return u }

// Record is a slot holding structured request options.
type Record struct {
	URL     string
	URI     string
	Method  string
	Headers map[string]string
	// Fields carries options the builder does not interpret (body, timeout, ...).
	Fields map[string]any
}

func (Record) kind() slotKind { return kindRecord }

func (r Record) clone() Slot { return r.copy() }

func (r Record) copy() Record {
	r.Headers = maps.Clone(r.Headers)
	r.Fields = maps.Clone(r.Fields)
	return r
}

// Location returns the record's URL, falling back to URI.
func (r Record) Location() string {
	if r.URL != "" {
		return r.URL
	}
	return r.URI
}

// EffectiveMethod returns Method or DefaultMethod when unset.
func (r Record) EffectiveMethod() string {
	if r.Method == "" {
		return DefaultMethod
	}
	return r.Method
}

// Field returns a passthrough field.
func (r Record) Field(name string) (any, bool) {
	v, ok := r.Fields[name]
	return v, ok
}

// usesURI reports whether location edits go to URI rather than URL.
func (r Record) usesURI() bool {
	return r.URI != ""
}

// withLocation rewrites whichever of URL/URI the record already uses.
func (r Record) withLocation(edit func(string) string) Record {
	r = r.copy()
	if r.usesURI() {
		r.URI = edit(r.Location())
	} else {
		r.URL = edit(r.Location())
	}
	return r
}

// merge overlays the populated fields of o onto r.
func (r Record) merge(o Record) Record {
	r = r.copy()
	if o.URL != "" {
		r.URL = o.URL
	}
	if o.URI != "" {
		r.URI = o.URI
	}
	if o.Method != "" {
		r.Method = o.Method
	}
	if o.Headers != nil {
		r.Headers = maps.Clone(o.Headers)
	}
	if len(o.Fields) > 0 {
		if r.Fields == nil {
			r.Fields = make(map[string]any, len(o.Fields))
		}
		maps.Copy(r.Fields, o.Fields)
	}
	return r
}

// Target is the effective request described by a list of slots.
type Target struct {
	URL     string
	Method  string
	Headers map[string]string
	Fields  map[string]any
}

// Resolve reads a slot list the same way the builder accessors do: the first
// non-empty URL slot wins for the address, and the first Record supplies method,
// headers, and passthrough fields.
func Resolve(slots ...Slot) Target {
	t := Target{Method: DefaultMethod}
	rec, hasRecord := firstRecord(slots)
	if u, ok := firstURL(slots); ok {
		t.URL = string(u)
	} else if hasRecord {
		t.URL = rec.Location()
	}
	if hasRecord {
		t.Method = rec.EffectiveMethod()
		t.Headers = maps.Clone(rec.Headers)
		t.Fields = maps.Clone(rec.Fields)
	}
	return t
}

// firstURL returns the first non-empty URL slot. An empty URL slot defers
// to the records.
func firstURL(slots []Slot) (URL, bool) {
	for _, s := range slots {
		if u, ok := s.(URL); ok && u != "" {
			return u, true
		}
	}
	return "", false
}

func firstRecord(slots []Slot) (Record, bool) {
	for _, s := range slots {
		if r, ok := s.(Record); ok {
			return r, true
		}
	}
	return Record{}, false
}

// hasURL reports whether any slot is a URL, empty or not.
func hasURL(slots []Slot) bool {
	for _, s := range slots {
		if s.kind() == kindURL {
			return true
		}
	}
	return false
}

func cloneSlots(slots []Slot) []Slot {
	out := make([]Slot, 0, len(slots))
	for _, s := range slots {
		if s = normalize(s); s != nil {
			out = append(out, s.clone())
		}
	}
	return out
}

// normalize folds pointer slots into values so type switches see one shape.
func normalize(s Slot) Slot {
	switch v := s.(type) {
	case *Record:
		if v == nil {
			return nil
		}
		return *v
	case *URL:
		if v == nil {
			return nil
		}
		return *v
	}
	return s
}

package fluent

import (
	"context"
	"errors"
	"maps"
	"slices"
	"strings"
)

// VerbPrefix marks a name passed to Access as an HTTP verb rather than a
// path segment.
const VerbPrefix = "_"

// Verbs are the methods Access recognizes when spelled with VerbPrefix.
var Verbs = []string{"POST", "GET", "PUT", "DELETE", "OPTIONS", "TRACE"}

// ErrNoRequestFunc is returned when a builder without a RequestFunc is sent.
var ErrNoRequestFunc = errors.New("fluent: builder has no request function")

// RequestFunc performs a request described by slots. Builders pass their
// slots in the order they were constructed with.
type RequestFunc[T any] func(ctx context.Context, slots ...Slot) (T, error)

// Constructor creates builders bound to one RequestFunc.
type Constructor[T any] func(slots ...Slot) Builder[T]

// Build returns a Constructor for builders that call fn when triggered.
func Build[T any](fn RequestFunc[T]) Constructor[T] {
	return func(slots ...Slot) Builder[T] {
		return Builder[T]{fn: fn, slots: cloneSlots(slots)}
	}
}

// New is shorthand for Build(fn)(slots...).
func New[T any](fn RequestFunc[T], slots ...Slot) Builder[T] {
	return Build(fn)(slots...)
}

// Builder is an immutable description of a request. Every With* method
// returns a new Builder and leaves the receiver untouched, so a Builder may
// be shared freely between goroutines.
//
// Nothing is sent until Send, Do, Then, Catch or Finally is called. Each of
// those calls the RequestFunc again; results are never cached.
type Builder[T any] struct {
	fn     RequestFunc[T]
	slots  []Slot
	chains []Continuation[T]
	err    error
}

func (b Builder[T]) derive(edit func(Slot) Slot) Builder[T] {
	next := Builder[T]{
		fn:     b.fn,
		slots:  make([]Slot, len(b.slots)),
		chains: slices.Clip(b.chains),
		err:    b.err,
	}
	for i, s := range b.slots {
		next.slots[i] = edit(s.clone())
	}
	return next
}

func (b Builder[T]) withErr(err error) Builder[T] {
	next := b.derive(func(s Slot) Slot { return s })
	if next.err == nil {
		next.err = err
	}
	return next
}

// editRecords applies edit to every Record slot.
func (b Builder[T]) editRecords(edit func(Record) Record) Builder[T] {
	return b.derive(func(s Slot) Slot {
		if r, ok := s.(Record); ok {
			return edit(r)
		}
		return s
	})
}

// editLocations rewrites the URL slots, or the records' url/uri fields when
// no URL slot exists.
func (b Builder[T]) editLocations(edit func(string) string, firstRecordOnly bool) Builder[T] {
	if hasURL(b.slots) {
		return b.derive(func(s Slot) Slot {
			if u, ok := s.(URL); ok {
				return URL(edit(string(u)))
			}
			return s
		})
	}
	done := false
	return b.editRecords(func(r Record) Record {
		if done {
			return r
		}
		done = firstRecordOnly
		return r.withLocation(edit)
	})
}

// WithPath appends path segments, left to right, ahead of any query or
// fragment.
func (b Builder[T]) WithPath(segments ...string) Builder[T] {
	for _, seg := range segments {
		b = b.editLocations(func(u string) string { return Patch(u, seg) }, false)
	}
	return b
}

// Access resolves a dynamic name: a verb spelled with VerbPrefix ("_POST")
// switches method, anything else is appended as a path segment.
func (b Builder[T]) Access(name string) Builder[T] {
	if verb, ok := strings.CutPrefix(name, VerbPrefix); ok && slices.Contains(Verbs, verb) {
		return b.WithMethod(verb)
	}
	return b.WithPath(name)
}

// WithMethod sets the method of every Record slot. An empty method means GET.
// URL slots are left as they are.
func (b Builder[T]) WithMethod(method string) Builder[T] {
	if method == "" {
		method = DefaultMethod
	}
	return b.editRecords(func(r Record) Record {
		r.Method = method
		return r
	})
}

func (b Builder[T]) Post() Builder[T]    { return b.WithMethod("POST") }
func (b Builder[T]) Get() Builder[T]     { return b.WithMethod("GET") }
func (b Builder[T]) Put() Builder[T]     { return b.WithMethod("PUT") }
func (b Builder[T]) Delete() Builder[T]  { return b.WithMethod("DELETE") }
func (b Builder[T]) Options() Builder[T] { return b.WithMethod("OPTIONS") }
func (b Builder[T]) Trace() Builder[T]   { return b.WithMethod("TRACE") }

// WithHeaders merges headers over those already on every Record slot.
func (b Builder[T]) WithHeaders(headers map[string]string) Builder[T] {
	return b.setHeaders(headers, true)
}

// ReplaceHeaders discards existing record headers before applying headers.
func (b Builder[T]) ReplaceHeaders(headers map[string]string) Builder[T] {
	return b.setHeaders(headers, false)
}

// WithHeader sets a single header on every Record slot.
func (b Builder[T]) WithHeader(key, value string) Builder[T] {
	return b.setHeaders(map[string]string{key: value}, true)
}

func (b Builder[T]) setHeaders(headers map[string]string, extend bool) Builder[T] {
	return b.editRecords(func(r Record) Record {
		next := make(map[string]string, len(r.Headers)+len(headers))
		if extend {
			maps.Copy(next, r.Headers)
		}
		maps.Copy(next, headers)
		r.Headers = next
		return r
	})
}

// WithQuery replaces the query component. When URL slots exist every one of
// them is rewritten; otherwise only the first Record's url/uri is. See
// EncodeQuery for the accepted shapes of q. Encoding errors surface when the
// builder is sent.
func (b Builder[T]) WithQuery(q any) Builder[T] {
	encoded, err := EncodeQuery(q)
	if err != nil {
		return b.withErr(err)
	}
	return b.editLocations(func(u string) string { return spliceQuery(u, encoded) }, true)
}

// Chain registers continuations run, in order, against the request result
// each time the builder is triggered.
func (b Builder[T]) Chain(conts ...Continuation[T]) Builder[T] {
	next := b.derive(func(s Slot) Slot { return s })
	next.chains = slices.Concat(b.chains, conts)
	return next
}

// Apply replaces each slot with the first argument of the same kind. Record
// arguments are merged over the existing record instead of replacing it. A
// slot with no matching argument, or matched by an empty URL, is kept.
func (b Builder[T]) Apply(args ...Slot) Builder[T] {
	args = cloneSlots(args)
	return b.derive(func(s Slot) Slot {
		for _, a := range args {
			if a.kind() != s.kind() {
				continue
			}
			switch v := a.(type) {
			case URL:
				if v == "" {
					return s
				}
				return v
			case Record:
				return s.(Record).merge(v)
			}
		}
		return s
	})
}

// URL returns the first non-empty URL slot, else the first record's url or
// uri.
func (b Builder[T]) URL() string {
	return Resolve(b.slots...).URL
}

// Method returns the first record's method, GET by default.
func (b Builder[T]) Method() string {
	return Resolve(b.slots...).Method
}

// Headers returns a copy of the first record's headers, or nil.
func (b Builder[T]) Headers() map[string]string {
	return Resolve(b.slots...).Headers
}

// Slots returns a copy of the builder's slots.
func (b Builder[T]) Slots() []Slot {
	return cloneSlots(b.slots)
}

// Err returns the first error recorded while deriving the builder.
func (b Builder[T]) Err() error {
	return b.err
}

// String renders "<method>: <uri>" from the first Record slot.
func (b Builder[T]) String() string {
	rec, _ := firstRecord(b.slots)
	return rec.EffectiveMethod() + ": " + rec.Location()
}

// Keys lists the synthetic properties reported to inspectors. The list is
// fixed and does not reflect the builder's state.
func (b Builder[T]) Keys() []string {
	return []string{"__url", "__method", "__headers", "prototype"}
}

// Inspect returns the synthetic properties with their current values.
func (b Builder[T]) Inspect() map[string]any {
	t := Resolve(b.slots...)
	return map[string]any{
		"__url":     t.URL,
		"__method":  t.Method,
		"__headers": t.Headers,
	}
}

// Send calls the RequestFunc with the current slots and runs the chain
// against its result. Every call is an independent request.
func (b Builder[T]) Send(ctx context.Context) *Future[T] {
	var zero T
	if b.err != nil {
		return Resolved(ctx, zero, b.err)
	}
	if b.fn == nil {
		return Resolved(ctx, zero, ErrNoRequestFunc)
	}
	slots := cloneSlots(b.slots)
	chains := slices.Clone(b.chains)
	return Go(ctx, func(ctx context.Context) (T, error) {
		v, err := b.fn(ctx, slots...)
		if err != nil {
			return v, err
		}
		for _, c := range chains {
			if v, err = c(ctx, v); err != nil {
				return v, err
			}
		}
		return v, nil
	})
}

// Do sends the request and waits for the result.
func (b Builder[T]) Do(ctx context.Context) (T, error) {
	return b.Send(ctx).Await(ctx)
}

// Then sends the request and attaches c to the result.
func (b Builder[T]) Then(ctx context.Context, c Continuation[T]) *Future[T] {
	return b.Send(ctx).Then(c)
}

// Catch sends the request and attaches h to a rejection.
func (b Builder[T]) Catch(ctx context.Context, h Recovery[T]) *Future[T] {
	return b.Send(ctx).Catch(h)
}

// Finally sends the request and runs fn once it settles.
func (b Builder[T]) Finally(ctx context.Context, fn func()) *Future[T] {
	return b.Send(ctx).Finally(fn)
}

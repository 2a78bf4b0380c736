// Package fluent builds requests by chaining immutable derivations of a
// Builder and defers the actual call to a user supplied RequestFunc.
//
// A Builder tracks an ordered list of slots. A slot is either a bare URL or a
// Record carrying url/uri, method, headers and arbitrary passthrough fields.
// Derivations rewrite slot contents but never their number or kind, and the
// slots reach the RequestFunc in the order the builder was constructed with.
//
// Basic Usage:
//
//	api := fluent.Build(client.Do)
//
//	users := api(fluent.Record{URL: "https://api.example.com"}).
//	    WithPath("v1", "users").
//	    WithQuery(map[string]string{"limit": "10"}).
//	    WithHeader("Accept", "application/json")
//
//	resp, err := users.Do(ctx)
//
// Derivation:
//
//	users.URL()            // "https://api.example.com/v1/users?limit=10"
//	users.Post().Method()  // "POST"
//	users.Access("_PUT")   // same as users.Put()
//	users.Access("42")     // same as users.WithPath("42")
//
// Triggers:
//
// Send returns a Future; Do waits for it. Then, Catch and Finally send and
// attach to the resulting Future. Every trigger calls the RequestFunc again.
// Continuations registered with Chain run against each result in order.
package fluent

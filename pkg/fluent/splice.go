package fluent

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/google/go-querystring/query"
)

// ErrQueryType is returned when a query value cannot be encoded.
var ErrQueryType = errors.New("fluent: unsupported query type")

// Patch inserts "/"+segment into rawURL immediately before its query or
// fragment marker, whichever comes first. Without either, the segment is
// appended.
//
//	Patch("http://h/p?x=1#f", "items") == "http://h/p/items?x=1#f"
func Patch(rawURL, segment string) string {
	i := strings.IndexAny(rawURL, "?#")
	if i < 0 {
		return rawURL + "/" + segment
	}
	return rawURL[:i] + "/" + segment + rawURL[i:]
}

// PatchQuery replaces the query component of rawURL with q, keeping any
// fragment. Existing parameters are dropped, not merged.
func PatchQuery(rawURL string, q url.Values) string {
	return spliceQuery(rawURL, q.Encode())
}

func spliceQuery(rawURL, encoded string) string {
	h := strings.IndexByte(rawURL, '#')
	if h < 0 {
		h = len(rawURL)
	}
	q := strings.IndexByte(rawURL[:h], '?')
	if q < 0 {
		q = h
	}
	return rawURL[:q] + "?" + encoded + rawURL[h:]
}

// EncodeQuery serializes q as an application/x-www-form-urlencoded string.
//
// Accepted shapes are url.Values, map[string]string, map[string][]string,
// map[string]any and structs tagged for github.com/google/go-querystring.
// Keys are emitted in sorted order.
func EncodeQuery(q any) (string, error) {
	switch v := q.(type) {
	case nil:
		return "", nil
	case url.Values:
		return v.Encode(), nil
	case map[string][]string:
		return url.Values(v).Encode(), nil
	case map[string]string:
		vals := make(url.Values, len(v))
		for k, s := range v {
			vals.Set(k, s)
		}
		return vals.Encode(), nil
	case map[string]any:
		vals := make(url.Values, len(v))
		for k, raw := range v {
			vals[k] = queryStrings(raw)
		}
		return vals.Encode(), nil
	}

	vals, err := query.Values(q)
	if err != nil {
		return "", fmt.Errorf("%w %T: %v", ErrQueryType, q, err)
	}
	return vals.Encode(), nil
}

// queryStrings flattens one map value; slices become repeated keys.
func queryStrings(v any) []string {
	switch t := v.(type) {
	case nil:
		return []string{""}
	case string:
		return []string{t}
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			out = append(out, queryStrings(e)...)
		}
		return out
	case fmt.Stringer:
		return []string{t.String()}
	default:
		return []string{fmt.Sprint(t)}
	}
}

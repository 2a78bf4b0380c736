package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wesleyorama2/fluent/pkg/fluent"
)

// Passthrough record fields understood by the client.
const (
	FieldBody    = "body"
	FieldJSON    = "json"
	FieldTimeout = "timeout"
)

// ErrBodyNotReplayable is returned for a body reader that cannot be read
// again from the start.
var ErrBodyNotReplayable = errors.New("body reader cannot be replayed; use []byte, a func() io.Reader, or a reader with ReadAt and Size")

// sizedReaderAt is implemented by *bytes.Reader, *strings.Reader and
// *io.SectionReader.
type sizedReaderAt interface {
	io.ReaderAt
	Size() int64
}

// replay returns an independent reader over r's full content. Every trigger
// of a builder reads its own section, so a shared reader is never drained.
func replay(r io.Reader) (io.Reader, error) {
	if ra, ok := r.(sizedReaderAt); ok {
		return io.NewSectionReader(ra, 0, ra.Size()), nil
	}
	return nil, ErrBodyNotReplayable
}

// newRequest builds an *http.Request from the effective request described by
// the slots. Client headers are applied first so record headers win.
func newRequest(ctx context.Context, target fluent.Target, defaults map[string]string) (*http.Request, error) {
	if target.URL == "" {
		return nil, ErrNoURL
	}

	headers := make(map[string]string, len(defaults)+len(target.Headers))
	for key, value := range defaults {
		headers[key] = value
	}
	for key, value := range target.Headers {
		headers[key] = value
	}

	asJSON, _ := target.Fields[FieldJSON].(bool)
	if asJSON {
		setDefault(headers, "Accept", "application/json")
	}

	// Prepare the body
	var (
		bodyReader io.Reader
		err        error
	)
	if body, ok := target.Fields[FieldBody]; ok && body != nil {
		switch b := body.(type) {
		case string:
			bodyReader = strings.NewReader(b)
		case []byte:
			bodyReader = bytes.NewReader(b)
		case func() io.Reader:
			bodyReader = b()
		case io.Reader:
			if bodyReader, err = replay(b); err != nil {
				return nil, err
			}
		default:
			// Assume JSON for other types
			data, err := json.Marshal(b)
			if err != nil {
				return nil, fmt.Errorf("encoding request body: %w", err)
			}
			bodyReader = bytes.NewReader(data)
			asJSON = true
		}
		if asJSON {
			setDefault(headers, "Content-Type", "application/json")
		}
	}

	req, err := http.NewRequestWithContext(ctx, target.Method, target.URL, bodyReader)
	if err != nil {
		return nil, err
	}
	if section, ok := bodyReader.(*io.SectionReader); ok {
		req.ContentLength = section.Size()
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(io.NewSectionReader(section, 0, section.Size())), nil
		}
	}
	for key, value := range headers {
		req.Header.Set(key, value)
	}
	return req, nil
}

func setDefault(headers map[string]string, key, value string) {
	for k := range headers {
		if strings.EqualFold(k, key) {
			return
		}
	}
	headers[key] = value
}

// fieldTimeout reads the timeout field: a time.Duration, a duration string
// such as "5s", or a number of milliseconds.
func fieldTimeout(fields map[string]any) (time.Duration, error) {
	raw, ok := fields[FieldTimeout]
	if !ok || raw == nil {
		return 0, nil
	}
	switch v := raw.(type) {
	case time.Duration:
		return v, nil
	case string:
		d, err := time.ParseDuration(v)
		if err != nil {
			return 0, fmt.Errorf("invalid timeout %q: %w", v, err)
		}
		return d, nil
	case int:
		return time.Duration(v) * time.Millisecond, nil
	case int64:
		return time.Duration(v) * time.Millisecond, nil
	case float64:
		return time.Duration(v * float64(time.Millisecond)), nil
	default:
		return 0, fmt.Errorf("invalid timeout type %T", raw)
	}
}

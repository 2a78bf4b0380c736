package http

import (
	"context"
	"errors"
	"fmt"
)

// ErrNoURL is returned when none of the slots carries an address.
var ErrNoURL = errors.New("request has no url")

// StatusError reports a response outside the 2xx range.
type StatusError struct {
	Method     string
	URL        string
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: unexpected status %s", e.Method, e.URL, e.Status)
}

// RequireSuccess is a chain step that rejects non-2xx responses with a
// *StatusError.
func RequireSuccess(_ context.Context, resp *Response) (*Response, error) {
	if resp.IsSuccess() {
		return resp, nil
	}
	return resp, &StatusError{
		Method:     resp.Method,
		URL:        resp.URL,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       resp.Body,
	}
}

package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/wesleyorama2/fluent/pkg/jsonpath"
)

// TimingInfo stores detailed timing information for a request.
type TimingInfo struct {
	// StartTime is when the request started
	StartTime time.Time

	// DNSLookupTime is the time spent looking up the DNS address
	DNSLookupTime time.Duration

	// TCPConnectTime is the time spent establishing a TCP connection
	TCPConnectTime time.Duration

	// TLSHandshakeTime is the time spent performing the TLS handshake (for HTTPS)
	TLSHandshakeTime time.Duration

	// TimeToFirstByte is measured from the end of the last completed connection phase
	TimeToFirstByte time.Duration

	// ContentTransferTime is the time spent reading the response body
	ContentTransferTime time.Duration

	// TotalTime is the total time from request start to completion
	TotalTime time.Duration
}

// Response is a fully read HTTP response together with the request that
// produced it.
type Response struct {
	StatusCode int
	Status     string
	Headers    http.Header
	Body       []byte
	Timing     TimingInfo

	// Method and URL describe the request that was sent.
	Method string
	URL    string
}

// BodyString returns the response body as a string
func (r *Response) BodyString() string {
	return string(r.Body)
}

// JSON unmarshals the response body into v
func (r *Response) JSON(v interface{}) error {
	return json.Unmarshal(r.Body, v)
}

// Extract reads a value from a JSON body with a JSONPath expression
func (r *Response) Extract(path string) (string, error) {
	return jsonpath.Extract(r.BodyString(), path)
}

// Header returns the value of the specified header
func (r *Response) Header(key string) string {
	return r.Headers.Get(key)
}

// IsSuccess returns true if the response status code is in the 2xx range
func (r *Response) IsSuccess() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// IsRedirect returns true if the response status code is in the 3xx range
func (r *Response) IsRedirect() bool {
	return r.StatusCode >= 300 && r.StatusCode < 400
}

// IsClientError returns true if the response status code is in the 4xx range
func (r *Response) IsClientError() bool {
	return r.StatusCode >= 400 && r.StatusCode < 500
}

// IsServerError returns true if the response status code is in the 5xx range
func (r *Response) IsServerError() bool {
	return r.StatusCode >= 500 && r.StatusCode < 600
}

func (r *Response) GetDNSLookupTimeMillis() int64       { return r.Timing.DNSLookupTime.Milliseconds() }
func (r *Response) GetTCPConnectTimeMillis() int64      { return r.Timing.TCPConnectTime.Milliseconds() }
func (r *Response) GetTLSHandshakeTimeMillis() int64    { return r.Timing.TLSHandshakeTime.Milliseconds() }
func (r *Response) GetTimeToFirstByteMillis() int64     { return r.Timing.TimeToFirstByte.Milliseconds() }
func (r *Response) GetContentTransferTimeMillis() int64 { return r.Timing.ContentTransferTime.Milliseconds() }
func (r *Response) GetTotalTimeMillis() int64           { return r.Timing.TotalTime.Milliseconds() }

package output

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/fluent/internal/http"
	"github.com/wesleyorama2/fluent/internal/stats"
	"github.com/wesleyorama2/fluent/pkg/fluent"
)

// OutputFormat represents the available output formats
type OutputFormat string

const (
	// FormatText is the default human-readable text format
	FormatText OutputFormat = "text"
	// FormatJSON outputs in JSON format
	FormatJSON OutputFormat = "json"
	// FormatYAML outputs in YAML format
	FormatYAML OutputFormat = "yaml"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(s)); f {
	case FormatText, FormatJSON, FormatYAML:
		return f, nil
	case "":
		return FormatText, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, json or yaml)", s)
	}
}

// Formatter renders requests, responses and run summaries.
type Formatter interface {
	FormatRequest(req RequestData) string
	FormatResponse(resp *http.Response) string
	FormatExtracted(values map[string]string) string
	FormatSummary(summary stats.Summary) string
}

// GetFormatter returns the formatter for format.
func GetFormatter(format OutputFormat, verbose, noColor bool) Formatter {
	switch format {
	case FormatJSON:
		return &StructuredFormatter{Verbose: verbose, marshal: func(v interface{}) ([]byte, error) {
			return json.MarshalIndent(v, "", "  ")
		}}
	case FormatYAML:
		return &StructuredFormatter{Verbose: verbose, marshal: yaml.Marshal}
	default:
		return NewTextFormatter(verbose, noColor)
	}
}

// RequestData represents the structured data of a pending request
type RequestData struct {
	Method  string            `json:"method" yaml:"method"`
	URL     string            `json:"url" yaml:"url"`
	Headers map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body    interface{}       `json:"body,omitempty" yaml:"body,omitempty"`
	Slots   int               `json:"slots" yaml:"slots"`
}

// DescribeRequest summarizes what a builder's slots would send.
func DescribeRequest(slots ...fluent.Slot) RequestData {
	target := fluent.Resolve(slots...)
	return RequestData{
		Method:  target.Method,
		URL:     target.URL,
		Headers: target.Headers,
		Body:    target.Fields[http.FieldBody],
		Slots:   len(slots),
	}
}

// TimingData represents detailed timing information for a request
type TimingData struct {
	DNSLookup       int64 `json:"dnsLookupMs" yaml:"dnsLookupMs"`
	TCPConnection   int64 `json:"tcpConnectionMs" yaml:"tcpConnectionMs"`
	TLSHandshake    int64 `json:"tlsHandshakeMs" yaml:"tlsHandshakeMs"`
	TimeToFirstByte int64 `json:"timeToFirstByteMs" yaml:"timeToFirstByteMs"`
	ContentTransfer int64 `json:"contentTransferMs" yaml:"contentTransferMs"`
	Total           int64 `json:"totalMs" yaml:"totalMs"`
}

// ResponseData represents the structured data of a response
type ResponseData struct {
	Method     string            `json:"method" yaml:"method"`
	URL        string            `json:"url" yaml:"url"`
	StatusCode int               `json:"statusCode" yaml:"statusCode"`
	Status     string            `json:"status" yaml:"status"`
	Headers    map[string]string `json:"headers,omitempty" yaml:"headers,omitempty"`
	Body       interface{}       `json:"body,omitempty" yaml:"body,omitempty"`
	Timing     *TimingData       `json:"timing,omitempty" yaml:"timing,omitempty"`
	Timestamp  string            `json:"timestamp" yaml:"timestamp"`
}

// SummaryData is a run summary with durations in milliseconds
type SummaryData struct {
	Requests int64   `json:"requests" yaml:"requests"`
	Success  int64   `json:"success" yaml:"success"`
	Failed   int64   `json:"failed" yaml:"failed"`
	Skipped  int64   `json:"skipped" yaml:"skipped"`
	Bytes    int64   `json:"bytes" yaml:"bytes"`
	RPS      float64 `json:"rps" yaml:"rps"`
	Min      float64 `json:"minMs" yaml:"minMs"`
	Mean     float64 `json:"meanMs" yaml:"meanMs"`
	P50      float64 `json:"p50Ms" yaml:"p50Ms"`
	P90      float64 `json:"p90Ms" yaml:"p90Ms"`
	P95      float64 `json:"p95Ms" yaml:"p95Ms"`
	P99      float64 `json:"p99Ms" yaml:"p99Ms"`
	Max      float64 `json:"maxMs" yaml:"maxMs"`
}

// StructuredFormatter renders machine-readable JSON or YAML
type StructuredFormatter struct {
	Verbose bool
	marshal func(interface{}) ([]byte, error)
}

func (f *StructuredFormatter) render(v interface{}) string {
	out, err := f.marshal(v)
	if err != nil {
		return fmt.Sprintf("error: %s\n", err)
	}
	s := string(out)
	if !strings.HasSuffix(s, "\n") {
		s += "\n"
	}
	return s
}

// FormatRequest renders the pending request
func (f *StructuredFormatter) FormatRequest(req RequestData) string {
	return f.render(map[string]interface{}{"request": req})
}

// FormatResponse renders a response, with timing when verbose
func (f *StructuredFormatter) FormatResponse(resp *http.Response) string {
	headers := make(map[string]string, len(resp.Headers))
	for key, values := range resp.Headers {
		if len(values) > 0 {
			headers[key] = values[0]
		}
	}

	data := ResponseData{
		Method:     resp.Method,
		URL:        resp.URL,
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Headers:    headers,
		Body:       decodeBody(resp.Body),
		Timestamp:  time.Now().Format(time.RFC3339),
	}
	if f.Verbose {
		data.Timing = &TimingData{
			DNSLookup:       resp.GetDNSLookupTimeMillis(),
			TCPConnection:   resp.GetTCPConnectTimeMillis(),
			TLSHandshake:    resp.GetTLSHandshakeTimeMillis(),
			TimeToFirstByte: resp.GetTimeToFirstByteMillis(),
			ContentTransfer: resp.GetContentTransferTimeMillis(),
			Total:           resp.GetTotalTimeMillis(),
		}
	}
	return f.render(map[string]interface{}{"response": data})
}

// FormatExtracted renders extracted values
func (f *StructuredFormatter) FormatExtracted(values map[string]string) string {
	return f.render(map[string]interface{}{"extracted": values})
}

// FormatSummary renders a run summary
func (f *StructuredFormatter) FormatSummary(summary stats.Summary) string {
	return f.render(map[string]interface{}{"summary": NewSummaryData(summary)})
}

// NewSummaryData converts a stats summary to milliseconds
func NewSummaryData(s stats.Summary) SummaryData {
	return SummaryData{
		Requests: s.Requests,
		Success:  s.Success,
		Failed:   s.Failed,
		Skipped:  s.Skipped,
		Bytes:    s.Bytes,
		RPS:      s.RPS,
		Min:      millis(s.Min),
		Mean:     millis(s.Mean),
		P50:      millis(s.P50),
		P90:      millis(s.P90),
		P95:      millis(s.P95),
		P99:      millis(s.P99),
		Max:      millis(s.Max),
	}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}

// decodeBody returns the body as decoded JSON, or as a string when it is
// not JSON.
func decodeBody(body []byte) interface{} {
	if len(body) == 0 {
		return nil
	}
	var v interface{}
	if err := json.Unmarshal(body, &v); err != nil {
		return string(body)
	}
	return v
}

package output

import (
	"encoding/json"
	nethttp "net/http"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/fluent/internal/http"
	"github.com/wesleyorama2/fluent/internal/stats"
	"github.com/wesleyorama2/fluent/pkg/fluent"
)

func sampleResponse() *http.Response {
	return &http.Response{
		StatusCode: 201,
		Status:     "201 Created",
		Headers:    nethttp.Header{"Content-Type": {"application/json"}, "X-Trace": {"a", "b"}},
		Body:       []byte(`{"id":7,"name":"widget"}`),
		Timing: http.TimingInfo{
			DNSLookupTime:       2 * time.Millisecond,
			TCPConnectTime:      3 * time.Millisecond,
			TimeToFirstByte:     10 * time.Millisecond,
			ContentTransferTime: 1 * time.Millisecond,
			TotalTime:           16 * time.Millisecond,
		},
		Method: "POST",
		URL:    "http://api.test/items",
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatText, false},
		{"text", FormatText, false},
		{"JSON", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"junit", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
		}
		if got != tt.want {
			t.Errorf("ParseFormat(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDescribeRequest(t *testing.T) {
	req := DescribeRequest(
		fluent.URL("http://api.test/items"),
		fluent.Record{Method: "PUT", Headers: map[string]string{"A": "1"}, Fields: map[string]any{http.FieldBody: "x"}},
	)
	if req.Method != "PUT" || req.URL != "http://api.test/items" {
		t.Errorf("unexpected request %+v", req)
	}
	if req.Headers["A"] != "1" || req.Body != "x" || req.Slots != 2 {
		t.Errorf("unexpected request %+v", req)
	}
}

func TestStructuredFormatter_JSONResponse(t *testing.T) {
	f := GetFormatter(FormatJSON, true, true)
	out := f.FormatResponse(sampleResponse())

	var decoded struct {
		Response ResponseData `json:"response"`
	}
	if err := json.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not JSON: %v\n%s", err, out)
	}
	resp := decoded.Response
	if resp.StatusCode != 201 || resp.Method != "POST" {
		t.Errorf("unexpected response %+v", resp)
	}
	if resp.Headers["X-Trace"] != "a" {
		t.Errorf("X-Trace = %q, want first value", resp.Headers["X-Trace"])
	}
	body, ok := resp.Body.(map[string]interface{})
	if !ok || body["name"] != "widget" {
		t.Errorf("body was not decoded as JSON: %#v", resp.Body)
	}
	if resp.Timing == nil || resp.Timing.Total != 16 {
		t.Errorf("timing = %+v, want total 16ms", resp.Timing)
	}
}

func TestStructuredFormatter_TimingOnlyWhenVerbose(t *testing.T) {
	out := GetFormatter(FormatJSON, false, true).FormatResponse(sampleResponse())
	if strings.Contains(out, "timing") {
		t.Errorf("non-verbose output contains timing:\n%s", out)
	}
}

func TestStructuredFormatter_YAMLSummary(t *testing.T) {
	f := GetFormatter(FormatYAML, false, true)
	out := f.FormatSummary(stats.Summary{Requests: 4, Success: 3, Failed: 1, P50: 1500 * time.Microsecond})

	var decoded struct {
		Summary SummaryData `yaml:"summary"`
	}
	if err := yaml.Unmarshal([]byte(out), &decoded); err != nil {
		t.Fatalf("output is not YAML: %v\n%s", err, out)
	}
	if decoded.Summary.Requests != 4 || decoded.Summary.Failed != 1 {
		t.Errorf("unexpected summary %+v", decoded.Summary)
	}
	if decoded.Summary.P50 != 1.5 {
		t.Errorf("p50 = %v, want 1.5", decoded.Summary.P50)
	}
}

func TestDecodeBody(t *testing.T) {
	if decodeBody(nil) != nil {
		t.Error("empty body should decode to nil")
	}
	if got := decodeBody([]byte("plain")); got != "plain" {
		t.Errorf("decodeBody(plain) = %#v", got)
	}
}

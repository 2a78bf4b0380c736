package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/wesleyorama2/fluent/internal/http"
	"github.com/wesleyorama2/fluent/internal/stats"
)

// TextFormatter renders human-readable, optionally colored output
type TextFormatter struct {
	Verbose bool
	NoColor bool
	Colors  *ColorScheme
}

// NewTextFormatter creates a text formatter
func NewTextFormatter(verbose, noColor bool) *TextFormatter {
	colors := DefaultColorScheme()
	if noColor {
		colors = NoColorScheme()
	}
	return &TextFormatter{Verbose: verbose, NoColor: noColor, Colors: colors}
}

// FormatRequest renders the pending request
func (f *TextFormatter) FormatRequest(req RequestData) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("▶ REQUEST: %s %s\n",
		f.Colors.Method.Sprint(req.Method),
		f.Colors.URL.Sprint(req.URL)))

	if f.Verbose && len(req.Headers) > 0 {
		sb.WriteString(f.Colors.Label.Sprint("Headers:") + "\n")
		for _, key := range sortedKeys(req.Headers) {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", f.Colors.HeaderKey.Sprint(key), req.Headers[key]))
		}
	}

	if f.Verbose && req.Body != nil {
		sb.WriteString(f.Colors.Label.Sprint("Body:") + "\n")
		sb.WriteString(formatBody(req.Body) + "\n")
	}

	return sb.String()
}

// FormatResponse renders a response
func (f *TextFormatter) FormatResponse(resp *http.Response) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("◀ RESPONSE: %s (%dms)\n",
		f.statusColor(resp).Sprint(resp.Status),
		resp.GetTotalTimeMillis()))

	if f.Verbose {
		sb.WriteString(f.Colors.Label.Sprint("Timing:") + "\n")
		sb.WriteString(fmt.Sprintf("  DNS Lookup:        %dms\n", resp.GetDNSLookupTimeMillis()))
		sb.WriteString(fmt.Sprintf("  TCP Connection:    %dms\n", resp.GetTCPConnectTimeMillis()))
		if resp.Timing.TLSHandshakeTime > 0 {
			sb.WriteString(fmt.Sprintf("  TLS Handshake:     %dms\n", resp.GetTLSHandshakeTimeMillis()))
		}
		sb.WriteString(fmt.Sprintf("  Time to First Byte: %dms\n", resp.GetTimeToFirstByteMillis()))
		sb.WriteString(fmt.Sprintf("  Content Transfer:  %dms\n", resp.GetContentTransferTimeMillis()))

		if len(resp.Headers) > 0 {
			sb.WriteString(f.Colors.Label.Sprint("Headers:") + "\n")
			keys := make([]string, 0, len(resp.Headers))
			for key := range resp.Headers {
				keys = append(keys, key)
			}
			sort.Strings(keys)
			for _, key := range keys {
				sb.WriteString(fmt.Sprintf("  %s: %s\n",
					f.Colors.HeaderKey.Sprint(key), strings.Join(resp.Headers[key], ", ")))
			}
		}
	}

	if len(resp.Body) > 0 {
		sb.WriteString(f.Colors.Label.Sprint("Body:") + "\n")
		sb.WriteString(formatJSONString(resp.BodyString()) + "\n")
	}

	return sb.String()
}

// FormatExtracted renders extracted values, one per line
func (f *TextFormatter) FormatExtracted(values map[string]string) string {
	if len(values) == 0 {
		return ""
	}
	var sb strings.Builder
	sb.WriteString(f.Colors.Label.Sprint("Extracted:") + "\n")
	for _, name := range sortedKeys(values) {
		sb.WriteString(fmt.Sprintf("  %s = %s\n", f.Colors.HeaderKey.Sprint(name), values[name]))
	}
	return sb.String()
}

// FormatSummary renders a latency summary
func (f *TextFormatter) FormatSummary(s stats.Summary) string {
	var sb strings.Builder
	sb.WriteString(f.Colors.Label.Sprint("Summary:") + "\n")
	sb.WriteString(fmt.Sprintf("  Requests: %d (%s ok, %s failed)\n",
		s.Requests,
		f.Colors.StatusOK.Sprint(s.Success),
		f.failedColor(s.Failed).Sprint(s.Failed)))
	if s.Skipped > 0 {
		sb.WriteString(fmt.Sprintf("  Skipped: %d (never sent)\n", s.Skipped))
	}
	sb.WriteString(fmt.Sprintf("  Throughput: %.2f req/s, %d bytes\n", s.RPS, s.Bytes))
	sb.WriteString(fmt.Sprintf("  Latency: min %v, mean %v, max %v\n", s.Min, s.Mean, s.Max))
	sb.WriteString(fmt.Sprintf("  Percentiles: p50 %v, p90 %v, p95 %v, p99 %v\n", s.P50, s.P90, s.P95, s.P99))
	return sb.String()
}

func (f *TextFormatter) statusColor(resp *http.Response) interface{ Sprint(...interface{}) string } {
	switch {
	case resp.IsSuccess():
		return f.Colors.StatusOK
	case resp.IsRedirect(), resp.IsClientError():
		return f.Colors.StatusWarn
	default:
		return f.Colors.StatusError
	}
}

func (f *TextFormatter) failedColor(n int64) interface{ Sprint(...interface{}) string } {
	if n > 0 {
		return f.Colors.StatusError
	}
	return f.Colors.StatusOK
}

// formatJSONString pretty-prints s when it is JSON and returns it as is
// otherwise.
func formatJSONString(s string) string {
	var out bytes.Buffer
	if err := json.Indent(&out, []byte(s), "", "  "); err != nil {
		return s
	}
	return out.String()
}

func formatBody(body interface{}) string {
	switch b := body.(type) {
	case string:
		return formatJSONString(b)
	case []byte:
		return formatJSONString(string(b))
	default:
		out, err := json.MarshalIndent(b, "", "  ")
		if err != nil {
			return fmt.Sprint(b)
		}
		return string(out)
	}
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

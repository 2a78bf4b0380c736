package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wesleyorama2/fluent/internal/http"
	"github.com/wesleyorama2/fluent/internal/output"
	"github.com/wesleyorama2/fluent/internal/stats"
	"github.com/wesleyorama2/fluent/pkg/fluent"
	"github.com/wesleyorama2/fluent/pkg/jsonpath"
	"github.com/wesleyorama2/fluent/pkg/jsonschema"
)

// requestOptions are the flags shared by every command that builds a request.
type requestOptions struct {
	method  string
	headers []string
	query   []string
	data    string
	json    bool
	output  string
	verbose bool
	noColor bool
}

// sendOptions are the flags of commands that also send the request.
type sendOptions struct {
	requestOptions
	timeout        time.Duration
	rate           float64
	insecure       bool
	repeat         int
	concurrency    int
	extract        []string
	schemaFile     string
	requireSuccess bool
}

func addRequestFlags(cmd *cobra.Command, opts *requestOptions) {
	flags := cmd.Flags()
	flags.StringVarP(&opts.method, "method", "X", "", "HTTP method (GET, POST, PUT, DELETE, OPTIONS, TRACE, ...)")
	flags.StringArrayVarP(&opts.headers, "header", "H", []string{}, "HTTP headers to include as 'Key: Value' (can be used multiple times)")
	flags.StringArrayVarP(&opts.query, "query", "q", []string{}, "Query parameter as key=value (can be used multiple times)")
	flags.StringVarP(&opts.data, "data", "d", "", "Request body; @file reads it from a file")
	flags.BoolVar(&opts.json, "json", false, "Send and accept application/json")
	flags.StringVarP(&opts.output, "output", "o", "text", "Output format: text, json or yaml")
	flags.BoolVarP(&opts.verbose, "verbose", "v", false, "Enable verbose output")
	flags.Bool("no-color", false, "Disable colored output")
}

func addSendFlags(cmd *cobra.Command, opts *sendOptions) {
	addRequestFlags(cmd, &opts.requestOptions)
	flags := cmd.Flags()
	flags.DurationVarP(&opts.timeout, "timeout", "t", 30*time.Second, "Request timeout")
	flags.Float64Var(&opts.rate, "rate", 0, "Maximum requests per second (0 means unlimited)")
	flags.BoolVar(&opts.insecure, "insecure", false, "Skip TLS certificate verification")
	flags.IntVar(&opts.repeat, "repeat", 1, "Send the request this many times and report latency")
	flags.IntVar(&opts.concurrency, "concurrency", 1, "Number of requests in flight when repeating")
	flags.StringArrayVar(&opts.extract, "extract", []string{}, "Extract a value as name=$.json.path (can be used multiple times)")
	flags.StringVar(&opts.schemaFile, "schema", "", "Validate the response body against this JSON Schema file")
	flags.BoolVar(&opts.requireSuccess, "require-success", false, "Fail on non-2xx responses")
}

// readNoColor resolves --no-color, which is also implied when stdout is not
// a terminal.
func readNoColor(cmd *cobra.Command, opts *requestOptions) {
	opts.noColor, _ = cmd.Flags().GetBool("no-color")
	if f, ok := cmd.OutOrStdout().(*os.File); !ok || !output.IsTerminal(f) {
		opts.noColor = true
	}
}

// parseHeaders splits "Key: Value" flags. Malformed entries are rejected.
func parseHeaders(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	headers := make(map[string]string, len(raw))
	for _, h := range raw {
		key, value, ok := strings.Cut(h, ":")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid header %q, expected 'Key: Value'", h)
		}
		headers[strings.TrimSpace(key)] = strings.TrimSpace(value)
	}
	return headers, nil
}

// parseQuery collects key=value flags; repeated keys keep every value.
func parseQuery(raw []string) (url.Values, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	values := make(url.Values, len(raw))
	for _, q := range raw {
		key, value, ok := strings.Cut(q, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("invalid query parameter %q, expected key=value", q)
		}
		values.Add(key, value)
	}
	return values, nil
}

// parseExtract reads name=path pairs.
func parseExtract(raw []string) (map[string]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	paths := make(map[string]string, len(raw))
	for _, e := range raw {
		name, path, ok := strings.Cut(e, "=")
		if !ok || name == "" || path == "" {
			return nil, fmt.Errorf("invalid extraction %q, expected name=$.path", e)
		}
		paths[name] = path
	}
	return paths, nil
}

// readBody returns the -d value, loading it from disk when it starts with @.
func readBody(data string) (string, error) {
	path, ok := strings.CutPrefix(data, "@")
	if !ok {
		return data, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading body: %w", err)
	}
	return string(b), nil
}

// decorate applies the request flags to b, then any path segments. Segments
// spelled like _POST switch the method instead.
func decorate(b fluent.Builder[*http.Response], opts requestOptions, segments []string) (fluent.Builder[*http.Response], error) {
	headers, err := parseHeaders(opts.headers)
	if err != nil {
		return b, err
	}
	query, err := parseQuery(opts.query)
	if err != nil {
		return b, err
	}
	body, err := readBody(opts.data)
	if err != nil {
		return b, err
	}

	for _, seg := range segments {
		b = b.Access(seg)
	}
	if opts.method != "" {
		b = b.WithMethod(strings.ToUpper(opts.method))
	}
	if headers != nil {
		b = b.WithHeaders(headers)
	}
	if query != nil {
		b = b.WithQuery(query)
	}

	fields := map[string]any{}
	if opts.json {
		fields[http.FieldJSON] = true
	}
	if body != "" {
		fields[http.FieldBody] = body
	}
	if len(fields) > 0 {
		b = b.Apply(fluent.Record{Fields: fields})
	}
	return b, b.Err()
}

// newClient builds the HTTP client for a command run.
func newClient(ctx context.Context, opts sendOptions) *http.Client {
	options := []http.ClientOption{
		http.WithTimeout(opts.timeout),
		http.WithLogger(loggerFrom(ctx)),
		http.WithHeader("User-Agent", "fluent/"+version),
	}
	if opts.rate > 0 {
		options = append(options, http.WithRateLimit(opts.rate, opts.concurrency))
	}
	if opts.insecure {
		options = append(options, http.WithInsecureSkipVerify())
	}
	return http.NewClient(options...)
}

// schemaCheck returns a chain step validating response bodies.
func schemaCheck(path string) (fluent.Continuation[*http.Response], error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading schema: %w", err)
	}
	schema, err := jsonschema.Compile(path, raw)
	if err != nil {
		return nil, err
	}
	return func(_ context.Context, resp *http.Response) (*http.Response, error) {
		if err := schema.Validate(resp.Body); err != nil {
			return resp, fmt.Errorf("response does not match schema: %w", err)
		}
		return resp, nil
	}, nil
}

// send triggers b according to opts and prints everything to out.
func send(ctx context.Context, out io.Writer, b fluent.Builder[*http.Response], opts sendOptions) error {
	format, err := output.ParseFormat(opts.output)
	if err != nil {
		return err
	}
	extract, err := parseExtract(opts.extract)
	if err != nil {
		return err
	}
	if opts.requireSuccess {
		b = b.Chain(http.RequireSuccess)
	}
	if opts.schemaFile != "" {
		check, err := schemaCheck(opts.schemaFile)
		if err != nil {
			return err
		}
		b = b.Chain(check)
	}

	formatter := output.GetFormatter(format, opts.verbose, opts.noColor)
	if format == output.FormatText {
		fmt.Fprint(out, formatter.FormatRequest(output.DescribeRequest(b.Slots()...)))
	}

	if opts.repeat > 1 {
		return sendRepeated(ctx, out, formatter, b, opts)
	}

	loggerFrom(ctx).WithField("request", b.String()).Debug("sending")
	resp, err := b.Do(ctx)
	if resp != nil {
		fmt.Fprint(out, formatter.FormatResponse(resp))
	}
	if err != nil {
		return err
	}

	if len(extract) > 0 {
		values, err := jsonpath.ExtractAll(resp.BodyString(), extract)
		fmt.Fprint(out, formatter.FormatExtracted(values))
		if err != nil {
			return fmt.Errorf("extraction failed: %w", err)
		}
	}
	return nil
}

func sendRepeated(ctx context.Context, out io.Writer, formatter output.Formatter, b fluent.Builder[*http.Response], opts sendOptions) error {
	rec := stats.NewRecorder()
	results := stats.Repeat(ctx, b, opts.repeat, opts.concurrency, rec, func(resp *http.Response, err error) (bool, int64) {
		if resp == nil {
			return false, 0
		}
		return err == nil, int64(len(resp.Body))
	})

	summary := rec.Summary()
	if err := ctx.Err(); err != nil {
		fmt.Fprint(out, formatter.FormatSummary(summary))
		return fmt.Errorf("%d of %d requests completed: %w", summary.Requests-summary.Skipped, opts.repeat, err)
	}
	if opts.verbose {
		for _, r := range results {
			if r.Value != nil {
				fmt.Fprint(out, formatter.FormatResponse(r.Value))
			}
		}
	}
	fmt.Fprint(out, formatter.FormatSummary(summary))

	if summary.Failed == 0 {
		return nil
	}
	for _, r := range results {
		if r.Err != nil {
			return fmt.Errorf("%d of %d requests failed: %w", summary.Failed, summary.Requests, r.Err)
		}
	}
	return fmt.Errorf("%d of %d requests failed", summary.Failed, summary.Requests)
}

// describe renders the builder without sending it.
func describe(out io.Writer, b fluent.Builder[*http.Response], opts requestOptions) error {
	format, err := output.ParseFormat(opts.output)
	if err != nil {
		return err
	}
	switch format {
	case output.FormatText:
		fmt.Fprintln(out, b.String())
		fmt.Fprint(out, output.NewTextFormatter(true, opts.noColor).FormatRequest(output.DescribeRequest(b.Slots()...)))
		return nil
	case output.FormatJSON:
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(b.Inspect())
	default:
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(b.Inspect()); err != nil {
			return err
		}
		return enc.Close()
	}
}

package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/wesleyorama2/fluent/pkg/fluent"
)

func TestClient_Do(t *testing.T) {
	// Create a test server
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" {
			t.Errorf("Expected method POST, got %s", r.Method)
		}
		if r.URL.Path != "/v1/users" {
			t.Errorf("Expected path /v1/users, got %s", r.URL.Path)
		}
		if r.URL.RawQuery != "limit=10" {
			t.Errorf("Expected query limit=10, got %s", r.URL.RawQuery)
		}
		if r.Header.Get("X-Test-Header") != "test-value" {
			t.Errorf("Expected header X-Test-Header: test-value, got %s", r.Header.Get("X-Test-Header"))
		}
		if r.Header.Get("User-Agent") != "fluent-test" {
			t.Errorf("Expected client User-Agent, got %s", r.Header.Get("User-Agent"))
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected Content-Type: application/json, got %s", r.Header.Get("Content-Type"))
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != `{"name":"John"}` {
			t.Errorf("Unexpected body %s", body)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"id":7,"name":"John"}`))
	}))
	defer server.Close()

	client := NewClient(
		WithTimeout(5*time.Second),
		WithHeader("User-Agent", "fluent-test"),
	)

	req := client.Builder(fluent.Record{
		URL:    server.URL,
		Fields: map[string]any{FieldBody: map[string]string{"name": "John"}},
	}).
		WithPath("v1", "users").
		WithQuery(map[string]string{"limit": "10"}).
		WithHeader("X-Test-Header", "test-value").
		Post()

	resp, err := req.Do(context.Background())
	if err != nil {
		t.Fatalf("Error executing request: %v", err)
	}

	if resp.StatusCode != http.StatusCreated {
		t.Errorf("Expected status code %d, got %d", http.StatusCreated, resp.StatusCode)
	}
	if resp.Header("Content-Type") != "application/json" {
		t.Errorf("Expected Content-Type: application/json, got %s", resp.Header("Content-Type"))
	}
	if resp.Method != "POST" || resp.URL != server.URL+"/v1/users?limit=10" {
		t.Errorf("Unexpected request echo %s %s", resp.Method, resp.URL)
	}

	name, err := resp.Extract("$.name")
	if err != nil || name != "John" {
		t.Errorf("Expected extracted name John, got %q (%v)", name, err)
	}

	var decoded struct {
		ID int `json:"id"`
	}
	if err := resp.JSON(&decoded); err != nil || decoded.ID != 7 {
		t.Errorf("Expected id 7, got %d (%v)", decoded.ID, err)
	}
}

func TestClient_URLSlotAndRecordOptions(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PUT" {
			t.Errorf("Expected method PUT, got %s", r.Method)
		}
		if r.URL.Path != "/items/1" {
			t.Errorf("Expected path /items/1, got %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "record" {
			t.Errorf("Expected record header to override client header, got %s", r.Header.Get("Authorization"))
		}
		if r.Header.Get("Accept") != "application/json" {
			t.Errorf("Expected json Accept header, got %s", r.Header.Get("Accept"))
		}
		body, _ := io.ReadAll(r.Body)
		if string(body) != "raw" {
			t.Errorf("Expected raw body, got %s", body)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := NewClient(WithHeader("Authorization", "client"))

	resp, err := client.Builder(
		fluent.URL(server.URL),
		fluent.Record{Headers: map[string]string{"Authorization": "record"}, Fields: map[string]any{FieldBody: "raw", FieldJSON: true}},
	).WithPath("items", "1").Put().Do(context.Background())
	if err != nil {
		t.Fatalf("Error executing request: %v", err)
	}
	if !resp.IsSuccess() {
		t.Errorf("Expected success, got %s", resp.Status)
	}
}

func TestClient_EachTriggerSends(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	b := NewClient().Builder(fluent.URL(server.URL))
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if _, err := b.Do(ctx); err != nil {
			t.Fatalf("Error executing request: %v", err)
		}
	}
	if _, err := b.Finally(ctx, func() {}).Await(ctx); err != nil {
		t.Fatalf("Error executing request: %v", err)
	}

	if hits.Load() != 4 {
		t.Errorf("Expected 4 requests, got %d", hits.Load())
	}
}

func TestClient_RequireSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte("missing"))
	}))
	defer server.Close()

	b := NewClient().Builder(fluent.URL(server.URL)).WithPath("nope")

	resp, err := b.Do(context.Background())
	if err != nil {
		t.Fatalf("Plain send should not reject on status: %v", err)
	}
	if !resp.IsClientError() {
		t.Errorf("Expected client error, got %d", resp.StatusCode)
	}

	_, err = b.Chain(RequireSuccess).Do(context.Background())
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("Expected *StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusNotFound || string(statusErr.Body) != "missing" {
		t.Errorf("Unexpected status error %+v", statusErr)
	}
}

func TestClient_TimeoutField(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	_, err := NewClient().Builder(fluent.Record{
		URL:    server.URL,
		Fields: map[string]any{FieldTimeout: "20ms"},
	}).Do(context.Background())
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}

	_, err = NewClient().Builder(fluent.Record{
		URL:    server.URL,
		Fields: map[string]any{FieldTimeout: "soon"},
	}).Do(context.Background())
	if err == nil {
		t.Error("Expected invalid timeout error")
	}
}

func TestClient_NoURL(t *testing.T) {
	_, err := NewClient().Builder(fluent.Record{Method: "GET"}).Do(context.Background())
	if !errors.Is(err, ErrNoURL) {
		t.Errorf("Expected ErrNoURL, got %v", err)
	}
}

func TestClient_WithOptions(t *testing.T) {
	timeout := 10 * time.Second
	client := NewClient(
		WithTimeout(timeout),
		WithHeader("X-Test", "test-value"),
		WithRateLimit(5, 0),
	)

	if client.httpClient.Timeout != timeout {
		t.Errorf("Expected timeout %v, got %v", timeout, client.httpClient.Timeout)
	}
	if client.headers["X-Test"] != "test-value" {
		t.Errorf("Expected header X-Test: test-value, got %s", client.headers["X-Test"])
	}
	if client.limiter == nil || client.limiter.Burst() != 1 {
		t.Errorf("Expected limiter with burst 1")
	}

	if NewClient(WithRateLimit(0, 3)).limiter != nil {
		t.Errorf("Expected no limiter for zero rate")
	}
}

func TestClient_ReaderBodyEveryTrigger(t *testing.T) {
	var (
		mu     sync.Mutex
		bodies []string
	)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(body))
		mu.Unlock()
	}))
	defer server.Close()

	client := NewClient()
	tests := []struct {
		name string
		body any
	}{
		{name: "strings.Reader", body: strings.NewReader("payload")},
		{name: "Reader factory", body: func() io.Reader { return strings.NewReader("payload") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mu.Lock()
			bodies = nil
			mu.Unlock()

			b := client.Builder(fluent.Record{
				URL:    server.URL,
				Method: "POST",
				Fields: map[string]any{FieldBody: tt.body},
			})
			if _, err := b.Do(context.Background()); err != nil {
				t.Fatalf("first send: %v", err)
			}
			if _, err := b.WithPath("again").Do(context.Background()); err != nil {
				t.Fatalf("second send: %v", err)
			}

			var wg sync.WaitGroup
			for i := 0; i < 4; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					if _, err := b.Do(context.Background()); err != nil {
						t.Errorf("concurrent send: %v", err)
					}
				}()
			}
			wg.Wait()

			mu.Lock()
			defer mu.Unlock()
			if len(bodies) != 6 {
				t.Fatalf("Expected 6 requests, got %d", len(bodies))
			}
			for i, body := range bodies {
				if body != "payload" {
					t.Errorf("request %d body = %q, want payload", i, body)
				}
			}
		})
	}
}

func TestClient_OneShotReaderRejected(t *testing.T) {
	client := NewClient()
	_, err := client.Builder(fluent.Record{
		URL:    "http://127.0.0.1:1",
		Method: "POST",
		Fields: map[string]any{FieldBody: io.MultiReader(strings.NewReader("x"))},
	}).Do(context.Background())
	if !errors.Is(err, ErrBodyNotReplayable) {
		t.Errorf("Expected ErrBodyNotReplayable, got %v", err)
	}
}

func TestClient_OptionsDoNotMutateCallerClient(t *testing.T) {
	transport := &http.Transport{}
	own := &http.Client{Timeout: time.Minute, Transport: transport}

	client := NewClient(WithHTTPClient(own), WithTimeout(time.Second), WithInsecureSkipVerify())

	if own.Timeout != time.Minute {
		t.Errorf("caller timeout changed to %v", own.Timeout)
	}
	if own.Transport != transport || transport.TLSClientConfig != nil {
		t.Errorf("caller transport was modified")
	}
	if client.httpClient.Timeout != time.Second {
		t.Errorf("Expected client timeout 1s, got %v", client.httpClient.Timeout)
	}
	clone, ok := client.httpClient.Transport.(*http.Transport)
	if !ok || clone == transport || !clone.TLSClientConfig.InsecureSkipVerify {
		t.Errorf("Expected a cloned insecure transport")
	}

	// A non-*http.Transport round tripper is kept as is.
	custom := roundTripFunc(func(*http.Request) (*http.Response, error) { return nil, errors.New("unused") })
	kept := NewClient(WithHTTPClient(&http.Client{Transport: custom}), WithInsecureSkipVerify())
	if _, ok := kept.httpClient.Transport.(roundTripFunc); !ok {
		t.Errorf("custom round tripper was replaced")
	}
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestFieldTimeout(t *testing.T) {
	tests := []struct {
		name     string
		value    any
		expected time.Duration
		wantErr  bool
	}{
		{name: "Missing", value: nil, expected: 0},
		{name: "Duration", value: 2 * time.Second, expected: 2 * time.Second},
		{name: "String", value: "1.5s", expected: 1500 * time.Millisecond},
		{name: "Int millis", value: 250, expected: 250 * time.Millisecond},
		{name: "Float millis", value: 100.0, expected: 100 * time.Millisecond},
		{name: "Bad string", value: "x", wantErr: true},
		{name: "Bad type", value: true, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := fieldTimeout(map[string]any{FieldTimeout: tt.value})
			if (err != nil) != tt.wantErr {
				t.Fatalf("fieldTimeout() error = %v, wantErr %v", err, tt.wantErr)
			}
			if got != tt.expected {
				t.Errorf("fieldTimeout() = %v, want %v", got, tt.expected)
			}
		})
	}
}

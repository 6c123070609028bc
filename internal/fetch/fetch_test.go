package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestGetJSONRetriesOn500(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok": true}`))
	}))
	defer srv.Close()

	c := &Client{HTTPClient: srv.Client(), MaxAttempts: 3, BaseDelay: time.Millisecond}
	var dest struct {
		OK bool `json:"ok"`
	}
	if err := c.GetJSON(context.Background(), srv.URL, nil, &dest); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !dest.OK {
		t.Error("response not decoded")
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("calls = %d, want 3", got)
	}
}

func TestGetJSONDoesNotRetry404(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		http.NotFound(w, nil)
	}))
	defer srv.Close()

	c := &Client{HTTPClient: srv.Client(), MaxAttempts: 3, BaseDelay: time.Millisecond}
	err := c.GetJSON(context.Background(), srv.URL, nil, nil)

	var httpErr *HTTPError
	if !errors.As(err, &httpErr) || httpErr.StatusCode != http.StatusNotFound {
		t.Fatalf("err = %v, want HTTPError 404", err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1 (404 must not be retried)", got)
	}
}

func TestPostJSONSendsPayloadAndHeaders(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if r.Header.Get("X-API-KEY") != "secret" {
			t.Errorf("X-API-KEY header missing")
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var body map[string]any
		if err := decodeBody(r, &body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["q"] != "invoice" {
			t.Errorf("payload q = %v", body["q"])
		}
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	c := &Client{HTTPClient: srv.Client()}
	err := c.PostJSON(context.Background(), srv.URL,
		map[string]string{"X-API-KEY": "secret"},
		map[string]any{"q": "invoice"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func decodeBody(r *http.Request, dest any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(dest)
}

func TestShouldRetry(t *testing.T) {
	t.Parallel()

	live := context.Background()
	cancelled, cancel := context.WithCancel(context.Background())
	cancel()

	// What a client-side timeout from http.Client looks like: on some
	// toolchains it unwraps to context.DeadlineExceeded even though the
	// caller's context is still live.
	clientTimeout := &url.Error{Op: "Get", URL: "http://x", Err: context.DeadlineExceeded}

	tests := []struct {
		name   string
		ctx    context.Context
		status int
		err    error
		want   bool
	}{
		{"network error", live, 0, errors.New("connection refused"), true},
		{"client timeout, live context", live, 0, clientTimeout, true},
		{"client timeout, cancelled context", cancelled, 0, clientTimeout, false},
		{"context cancelled", cancelled, 0, context.Canceled, false},
		{"500", live, 500, nil, true},
		{"503", live, 503, nil, true},
		{"429", live, 429, nil, true},
		{"404", live, 404, nil, false},
		{"403", live, 403, nil, false},
		{"410", live, 410, nil, false},
	}
	for _, tt := range tests {
		if got := ShouldRetry(tt.ctx, tt.status, tt.err); got != tt.want {
			t.Errorf("%s: ShouldRetry = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestContextCancellationStopsRetries(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := &Client{HTTPClient: srv.Client(), MaxAttempts: 5, BaseDelay: time.Second}
	start := time.Now()
	err := c.GetJSON(ctx, srv.URL, nil, nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Error("cancelled context did not short-circuit the backoff")
	}
}

package whttp

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func testConfig() Config {
	return Config{
		MaxAttempts:          3,
		BaseDelay:            time.Millisecond,
		RetryableStatusCodes: []int{http.StatusTooManyRequests},
	}
}

func TestFetchRetriesNetworkFailures(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts <= 2 {
			// Kill the connection without answering to simulate a
			// connection-level failure.
			hj, ok := w.(http.Hijacker)
			if !ok {
				t.Fatal("server doesn't support hijacking")
			}
			conn, _, err := hj.Hijack()
			if err != nil {
				t.Fatal(err)
			}
			conn.Close()
			return
		}
		fmt.Fprint(w, "recovered")
	}))
	defer srv.Close()

	res, err := NewClient(testConfig()).Fetch(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if res.BodyString != "recovered" {
		t.Fatalf("unexpected body: %q", res.BodyString)
	}
	if attempts != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", attempts)
	}
}

func TestFetchDoesNotRetryClientErrors(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "not found", http.StatusNotFound)
	}))
	defer srv.Close()

	_, err := NewClient(testConfig()).Fetch(context.Background(), srv.URL, nil)
	var httpErr *HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected *HTTPError, got %v", err)
	}
	if httpErr.StatusCode != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", httpErr.StatusCode)
	}
	if attempts != 1 {
		t.Fatalf("expected exactly 1 attempt, got %d", attempts)
	}
}

func TestFetchRetriesRateLimit(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts == 1 {
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		fmt.Fprint(w, "ok")
	}))
	defer srv.Close()

	res, err := NewClient(testConfig()).Fetch(context.Background(), srv.URL, nil)
	if err != nil {
		t.Fatalf("expected success after 429 retry, got %v", err)
	}
	if res.BodyString != "ok" {
		t.Fatalf("unexpected body: %q", res.BodyString)
	}
	if attempts != 2 {
		t.Fatalf("expected 2 attempts, got %d", attempts)
	}
}

func TestFetchRateLimitExhausted(t *testing.T) {
	attempts := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		http.Error(w, "slow down", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := NewClient(testConfig()).Fetch(context.Background(), srv.URL, nil)
	var rl *RateLimitedError
	if !errors.As(err, &rl) {
		t.Fatalf("expected *RateLimitedError, got %v", err)
	}
	if attempts != 3 {
		t.Fatalf("expected 3 attempts, got %d", attempts)
	}
}

func TestFetchSetsHeaders(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
	}))
	defer srv.Close()

	_, err := NewClient(testConfig()).Fetch(context.Background(), srv.URL, []Header{
		{Name: "Accept", Value: "text/html"},
	})
	if err != nil {
		t.Fatal(err)
	}
	if gotUA != userAgent {
		t.Fatalf("expected browser User-Agent, got %q", gotUA)
	}
	if gotAccept != "text/html" {
		t.Fatalf("custom header not sent, got %q", gotAccept)
	}
}

func TestTitle(t *testing.T) {
	body := "<html><head><title>\n  Access Denied  </title></head><body></body></html>"
	if got := Title(body); got != "Access Denied" {
		t.Fatalf("expected 'Access Denied', got %q", got)
	}
	if got := Title("<p>no title here</p>"); got != "" {
		t.Fatalf("expected empty title, got %q", got)
	}
}

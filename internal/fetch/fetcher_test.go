package fetch

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestFetcherFetch(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok":
			_, _ = w.Write([]byte("acme password dump"))
		case "/ua":
			_, _ = w.Write([]byte(r.Header.Get("User-Agent")))
		case "/missing":
			http.NotFound(w, r)
		case "/error":
			w.WriteHeader(http.StatusInternalServerError)
		case "/redirect":
			http.Redirect(w, r, "/ok", http.StatusFound)
		case "/large":
			_, _ = w.Write([]byte(strings.Repeat("x", 1000)))
		}
	}))
	t.Cleanup(server.Close)

	f := NewFetcher(server.Client(),
		WithIdentity(Fixed("leakwatch-test")),
		WithMaxBodySize(100),
	)

	tests := []struct {
		name   string
		path   string
		want   string
		wantOK bool
	}{
		{name: "success", path: "/ok", want: "acme password dump", wantOK: true},
		{name: "identity header", path: "/ua", want: "leakwatch-test", wantOK: true},
		{name: "not found", path: "/missing", wantOK: false},
		{name: "server error", path: "/error", wantOK: false},
		{name: "redirect followed", path: "/redirect", want: "acme password dump", wantOK: true},
		{name: "body capped", path: "/large", want: strings.Repeat("x", 100), wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := f.Fetch(context.Background(), server.URL+tt.path)
			if ok != tt.wantOK {
				t.Fatalf("ok = %v, want %v", ok, tt.wantOK)
			}
			if got != tt.want {
				t.Errorf("body = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFetcherGetErrors(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	t.Cleanup(server.Close)

	f := NewFetcher(server.Client())

	t.Run("status error is typed", func(t *testing.T) {
		t.Parallel()

		_, err := f.Get(context.Background(), server.URL)
		var fetchErr *Error
		if !errors.As(err, &fetchErr) {
			t.Fatalf("error = %v, want *Error", err)
		}
		if fetchErr.StatusCode != http.StatusForbidden {
			t.Errorf("status = %d, want 403", fetchErr.StatusCode)
		}
		if !errors.Is(err, ErrUnexpectedStatus) {
			t.Errorf("error should wrap ErrUnexpectedStatus")
		}
	})

	t.Run("invalid url", func(t *testing.T) {
		t.Parallel()

		_, err := f.Get(context.Background(), "://bad")
		var fetchErr *Error
		if !errors.As(err, &fetchErr) {
			t.Fatalf("error = %v, want *Error", err)
		}
	})
}

func TestFetcherTimeout(t *testing.T) {
	t.Parallel()

	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(server.Close)
	defer close(release)

	f := NewFetcher(server.Client(), WithTimeout(50*time.Millisecond))

	start := time.Now()
	_, ok := f.Fetch(context.Background(), server.URL)
	if ok {
		t.Fatal("expected timeout to make the page unavailable")
	}
	if elapsed := time.Since(start); elapsed > 5*time.Second {
		t.Errorf("fetch took %v, timeout not applied", elapsed)
	}
}

func TestFetcherRotatesIdentity(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(r.Header.Get("User-Agent")))
	}))
	t.Cleanup(server.Close)

	f := NewFetcher(server.Client(), WithIdentity(NewRotate("one", "two")))

	for _, want := range []string{"one", "two", "one"} {
		got, ok := f.Fetch(context.Background(), server.URL)
		if !ok || got != want {
			t.Errorf("got (%q, %v), want (%q, true)", got, ok, want)
		}
	}
}

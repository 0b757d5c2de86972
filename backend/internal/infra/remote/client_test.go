package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newUpstream(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL + "/")
}

func TestFetchRows(t *testing.T) {
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/access-events" {
			http.NotFound(w, r)
			return
		}
		if ua := r.Header.Get("User-Agent"); ua != UserAgent {
			t.Errorf("unexpected user agent %q", ua)
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"access_events":[{"id":1,"name":"A","event_time":"2024-01-01T00:00:00"}]}`))
	})

	result := client.Fetch(context.Background(), "/access-events", time.Second)
	if result.Kind != KindRows {
		t.Fatalf("expected rows, got %s (%s)", result.Kind, result.Body)
	}
	if records := Records(result.Rows); len(records) != 1 || records[0]["name"] != "A" {
		t.Fatalf("unexpected rows: %v", result.Rows)
	}
}

func TestFetchRemoteErrorTruncatesBody(t *testing.T) {
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(strings.Repeat("e", 5000)))
	})

	result := client.Fetch(context.Background(), "/qr-events", time.Second)
	if result.Kind != KindRemoteError {
		t.Fatalf("expected remote error, got %s", result.Kind)
	}
	if result.Status != "503" {
		t.Fatalf("expected status 503, got %s", result.Status)
	}
	if len(result.Body) != MaxDiagnostic {
		t.Fatalf("expected body cut to %d, got %d", MaxDiagnostic, len(result.Body))
	}
	if summary := result.Summary(MaxClientDiagnostic); summary != "(503): "+strings.Repeat("e", MaxClientDiagnostic) {
		t.Fatalf("unexpected summary length %d", len(summary))
	}
}

func TestFetchShapeErrorIsRemoteError(t *testing.T) {
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"message":"ok"}`))
	})

	result := client.Fetch(context.Background(), "/qr-events", time.Second)
	if result.Kind != KindRemoteError || result.Status != StatusShapeError {
		t.Fatalf("expected shape remote error, got %+v", result)
	}
	if !strings.Contains(result.Body, "object") {
		t.Fatalf("expected observed type in body, got %s", result.Body)
	}
}

func TestFetchFallbackParseStripsBOM(t *testing.T) {
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		_, _ = w.Write(append([]byte{0xEF, 0xBB, 0xBF}, []byte(`[{"id":7,"name":"김철수"}]`)...))
	})

	result := client.Fetch(context.Background(), "/access-events", time.Second)
	if result.Kind != KindRows {
		t.Fatalf("expected rows after fallback parse, got %+v", result)
	}
	if name := Records(result.Rows)[0]["name"]; name != "김철수" {
		t.Fatalf("unexpected name: %v", name)
	}
}

func TestFetchGarbageIsTransportError(t *testing.T) {
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<html>maintenance</html>`))
	})

	result := client.Fetch(context.Background(), "/access-events", time.Second)
	if result.Kind != KindTransportError || result.Status != StatusTransport {
		t.Fatalf("expected transport error, got %+v", result)
	}
}

func TestFetchTimeoutIsTransportError(t *testing.T) {
	release := make(chan struct{})
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	defer close(release)

	result := client.Fetch(context.Background(), "/access-events", 50*time.Millisecond)
	if result.Kind != KindTransportError {
		t.Fatalf("expected transport error on timeout, got %+v", result)
	}
	if result.Body == "" {
		t.Fatalf("expected an error message")
	}
}

func TestFetchConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	result := NewClient(url).Fetch(context.Background(), "/access-events", time.Second)
	if result.Kind != KindTransportError {
		t.Fatalf("expected transport error, got %+v", result)
	}
}

func TestDeleteAndGet(t *testing.T) {
	var calls []string
	client := newUpstream(t, func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.RequestURI())
		switch {
		case r.Method == http.MethodDelete:
			w.WriteHeader(http.StatusNoContent)
		case r.URL.Path == "/registrations":
			w.Header().Set("X-Upstream", "yes")
			_, _ = w.Write([]byte(`[]`))
		default:
			http.NotFound(w, r)
		}
	})

	status, _, err := client.Delete(context.Background(), "/residents/5", time.Second)
	if err != nil || status != http.StatusNoContent {
		t.Fatalf("unexpected delete result: %d %v", status, err)
	}

	raw, err := client.Get(context.Background(), "/registrations?status=approved", time.Second)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if raw.StatusCode != http.StatusOK || string(raw.Body) != "[]" || raw.Header.Get("X-Upstream") != "yes" {
		t.Fatalf("unexpected raw response: %+v", raw)
	}

	if len(calls) != 2 || calls[1] != "GET /registrations?status=approved" {
		t.Fatalf("unexpected calls: %v", calls)
	}
}

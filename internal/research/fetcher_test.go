package research

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestPageText_ExtractsVisibleText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			_, _ = w.Write([]byte("User-agent: *\nAllow: /\n"))
		case "/article":
			_, _ = w.Write([]byte(`<html><head>
				<title>Report</title>
				<script>var tracking = true;</script>
				<style>body { color: red; }</style>
			</head><body>
				<h1>Annual Report</h1>
				<p>Revenue reached $2.5M in 2024.</p>
				<noscript>enable javascript</noscript>
			</body></html>`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	f := NewFetcher("Draftgate-test/1.0", 100, 4000)
	text, err := f.PageText(context.Background(), server.URL+"/article")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}

	for _, want := range []string{"Annual Report", "Revenue reached $2.5M in 2024."} {
		if !strings.Contains(text, want) {
			t.Errorf("missing %q in %q", want, text)
		}
	}
	for _, reject := range []string{"tracking", "color: red", "enable javascript"} {
		if strings.Contains(text, reject) {
			t.Errorf("non-visible content leaked: %q in %q", reject, text)
		}
	}
}

func TestPageText_HonorsRobotsDisallow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/robots.txt":
			_, _ = w.Write([]byte("User-agent: *\nDisallow: /private/\n"))
		default:
			_, _ = w.Write([]byte("<html><body>secret</body></html>"))
		}
	}))
	defer server.Close()

	f := NewFetcher("Draftgate-test/1.0", 100, 4000)
	if _, err := f.PageText(context.Background(), server.URL+"/private/report"); err == nil {
		t.Fatal("expected disallowed fetch to error")
	}
}

func TestPageText_TruncatesToLimit(t *testing.T) {
	long := strings.Repeat("word ", 500)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("<html><body><p>" + long + "</p></body></html>"))
	}))
	defer server.Close()

	f := NewFetcher("Draftgate-test/1.0", 100, 100)
	text, err := f.PageText(context.Background(), server.URL+"/page")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(text) > 100 {
		t.Errorf("text not truncated: %d bytes", len(text))
	}
}

func TestPageText_MissingRobotsAllows(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/robots.txt" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("<html><body>open content</body></html>"))
	}))
	defer server.Close()

	f := NewFetcher("Draftgate-test/1.0", 100, 4000)
	text, err := f.PageText(context.Background(), server.URL+"/page")
	if err != nil {
		t.Fatalf("missing robots.txt must allow the fetch: %v", err)
	}
	if !strings.Contains(text, "open content") {
		t.Errorf("content lost: %q", text)
	}
}

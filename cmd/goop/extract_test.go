package main

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/nao1215/goop/internal/config"
	"github.com/nao1215/goop/internal/parser"
)

// TestNewExtractCmd tests the extract command creation.
func TestNewExtractCmd(t *testing.T) {
	t.Parallel()

	cmd := NewExtractCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "extract [url] [selector]" {
			t.Errorf("expected use 'extract [url] [selector]', got %q", cmd.Use)
		}
	})

	t.Run("has short description", func(t *testing.T) {
		t.Parallel()
		if cmd.Short == "" {
			t.Error("expected non-empty short description")
		}
	})

	t.Run("has long description", func(t *testing.T) {
		t.Parallel()
		if cmd.Long == "" {
			t.Error("expected non-empty long description")
		}
	})

	t.Run("has attr flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("attr")
		if flag == nil {
			t.Fatal("expected attr flag")
		}
		if flag.Shorthand != "a" {
			t.Errorf("expected shorthand 'a', got %q", flag.Shorthand)
		}
	})

	t.Run("has output flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("output")
		if flag == nil {
			t.Fatal("expected output flag")
		}
		if flag.Shorthand != "o" {
			t.Errorf("expected shorthand 'o', got %q", flag.Shorthand)
		}
	})

	t.Run("has timeout flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("timeout")
		if flag == nil {
			t.Fatal("expected timeout flag")
		}
		if flag.Shorthand != "t" {
			t.Errorf("expected shorthand 't', got %q", flag.Shorthand)
		}
		if flag.DefValue != "30s" {
			t.Errorf("expected default '30s', got %q", flag.DefValue)
		}
	})

	t.Run("has user-agent flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("user-agent")
		if flag == nil {
			t.Fatal("expected user-agent flag")
		}
		if flag.Shorthand != "u" {
			t.Errorf("expected shorthand 'u', got %q", flag.Shorthand)
		}
	})
}

// TestBuildExtractConfig tests configuration building from extract's flags.
func TestBuildExtractConfig(t *testing.T) {
	t.Run("builds config with default values", func(t *testing.T) {
		cmd := NewExtractCmd()
		cfg, err := buildExtractConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg == nil {
			t.Fatal("expected non-nil config")
		}
		if cfg.Timeout != config.DefaultTimeout {
			t.Errorf("expected Timeout %v, got %v", config.DefaultTimeout, cfg.Timeout)
		}
		if cfg.UserAgent != config.DefaultUserAgent {
			t.Errorf("expected UserAgent %q, got %q", config.DefaultUserAgent, cfg.UserAgent)
		}
	})

	t.Run("builds config with custom timeout", func(t *testing.T) {
		cmd := NewExtractCmd()
		_ = cmd.Flags().Set("timeout", "5s")
		cfg, err := buildExtractConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Timeout.String() != "5s" {
			t.Errorf("expected Timeout 5s, got %v", cfg.Timeout)
		}
	})

	t.Run("builds config with custom user agent", func(t *testing.T) {
		cmd := NewExtractCmd()
		_ = cmd.Flags().Set("user-agent", "extract-bot/1.0")
		cfg, err := buildExtractConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.UserAgent != "extract-bot/1.0" {
			t.Errorf("expected UserAgent 'extract-bot/1.0', got %q", cfg.UserAgent)
		}
	})

	t.Run("builds config with output file", func(t *testing.T) {
		cmd := NewExtractCmd()
		_ = cmd.Flags().Set("output", "/tmp/matches.txt")
		cfg, err := buildExtractConfig(cmd)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if cfg.Output != "/tmp/matches.txt" {
			t.Errorf("expected Output '/tmp/matches.txt', got %q", cfg.Output)
		}
	})
}

// TestBodyCapture tests that the extractor wrapper keeps the fetched body.
func TestBodyCapture(t *testing.T) {
	t.Parallel()

	capture := &bodyCapture{extractor: parser.New()}
	body := []byte(`<html><head><title>Captured</title></head><body></body></html>`)
	base, _ := url.Parse("https://example.com/")

	page := capture.Extract(body, base)

	if !bytes.Equal(capture.body, body) {
		t.Error("expected body to be captured")
	}
	if page == nil {
		t.Fatal("expected non-nil page from wrapped extractor")
	}
	if page.Title != "Captured" {
		t.Errorf("expected title 'Captured', got %q", page.Title)
	}
}

// TestExtractMatches tests single-page extraction against a test server.
func TestExtractMatches(t *testing.T) {
	t.Parallel()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	newServer := func() *httptest.Server {
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/robots.txt" {
				http.NotFound(w, r)
				return
			}
			w.Header().Set("Content-Type", "text/html; charset=utf-8")
			_, _ = w.Write([]byte(`<html><head><title>Store</title></head><body>
<h2>First headline</h2>
<h2>Second headline</h2>
<a href="/one">One</a>
<a href="/two">Two</a>
</body></html>`))
		}))
	}

	newConfig := func() *config.Config {
		cfg := config.NewConfig()
		cfg.Delay = 0
		cfg.SiteConfigs = &config.File{Sites: make(map[string]config.SiteConfig)}
		return cfg
	}

	t.Run("extracts element text", func(t *testing.T) {
		t.Parallel()
		srv := newServer()
		defer srv.Close()

		matches, err := extractMatches(context.Background(), newConfig(), srv.URL, "h2", "", logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(matches) != 2 {
			t.Fatalf("expected 2 matches, got %d: %v", len(matches), matches)
		}
		if matches[0] != "First headline" {
			t.Errorf("expected 'First headline', got %q", matches[0])
		}
		if matches[1] != "Second headline" {
			t.Errorf("expected 'Second headline', got %q", matches[1])
		}
	})

	t.Run("extracts attribute values", func(t *testing.T) {
		t.Parallel()
		srv := newServer()
		defer srv.Close()

		matches, err := extractMatches(context.Background(), newConfig(), srv.URL, "a", "href", logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if len(matches) != 2 {
			t.Fatalf("expected 2 matches, got %d: %v", len(matches), matches)
		}
		if matches[0] != "/one" {
			t.Errorf("expected '/one', got %q", matches[0])
		}
	})

	t.Run("returns empty result for selector with no matches", func(t *testing.T) {
		t.Parallel()
		srv := newServer()
		defer srv.Close()

		matches, err := extractMatches(context.Background(), newConfig(), srv.URL, "table", "", logger)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if len(matches) != 0 {
			t.Errorf("expected no matches, got %v", matches)
		}
	})

	t.Run("returns error for invalid URL", func(t *testing.T) {
		t.Parallel()
		_, err := extractMatches(context.Background(), newConfig(), "ftp://example.com", "h2", "", logger)
		if err == nil {
			t.Fatal("expected error for unsupported scheme")
		}
		if !strings.Contains(err.Error(), "invalid URL") {
			t.Errorf("expected 'invalid URL' error, got: %v", err)
		}
	})

	t.Run("returns error when the fetch fails", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.NotFound(w, r)
		}))
		defer srv.Close()

		_, err := extractMatches(context.Background(), newConfig(), srv.URL, "h2", "", logger)
		if err == nil {
			t.Fatal("expected error for 404 response")
		}
		if !strings.Contains(err.Error(), "failed to fetch") {
			t.Errorf("expected 'failed to fetch' error, got: %v", err)
		}
	})

	t.Run("applies site config for the target host", func(t *testing.T) {
		t.Parallel()

		var gotCookie string
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/robots.txt" {
				http.NotFound(w, r)
				return
			}
			gotCookie = r.Header.Get("Cookie")
			w.Header().Set("Content-Type", "text/html")
			_, _ = w.Write([]byte(`<html><body><h2>ok</h2></body></html>`))
		}))
		defer srv.Close()

		u, err := url.Parse(srv.URL)
		if err != nil {
			t.Fatalf("failed to parse server URL: %v", err)
		}

		cfg := newConfig()
		cfg.SiteConfigs = &config.File{
			Sites: map[string]config.SiteConfig{
				u.Host: {Cookie: "session=abc123"},
			},
		}

		if _, err := extractMatches(context.Background(), cfg, srv.URL, "h2", "", logger); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if gotCookie != "session=abc123" {
			t.Errorf("expected cookie 'session=abc123', got %q", gotCookie)
		}
	})
}

// TestOutputMatches tests match output.
func TestOutputMatches(t *testing.T) {
	// Note: Not using t.Parallel() because these tests capture os.Stdout

	t.Run("writes matches to a file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "matches.txt")

		err := outputMatches(path, []string{"first", "second"})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if string(content) != "first\nsecond\n" {
			t.Errorf("unexpected file content: %q", content)
		}
	})

	t.Run("writes matches to stdout when no file specified", func(t *testing.T) {
		// Capture stdout
		oldStdout := os.Stdout
		r, w, _ := os.Pipe()
		os.Stdout = w

		err := outputMatches("", []string{"hello"})

		w.Close()
		os.Stdout = oldStdout

		if err != nil {
			t.Fatalf("outputMatches() error = %v", err)
		}

		var buf bytes.Buffer
		_, _ = buf.ReadFrom(r)
		r.Close()

		if buf.String() != "hello\n" {
			t.Errorf("expected 'hello\\n', got %q", buf.String())
		}
	})

	t.Run("writes nothing for no matches", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "empty.txt")

		err := outputMatches(path, nil)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		content, err := os.ReadFile(path)
		if err != nil {
			t.Fatalf("failed to read file: %v", err)
		}
		if len(content) != 0 {
			t.Errorf("expected empty file, got %q", content)
		}
	})
}

// TestRunExtractCmdWrongArgs tests the extract command argument validation.
func TestRunExtractCmdWrongArgs(t *testing.T) {
	t.Parallel()

	t.Run("no arguments", func(t *testing.T) {
		t.Parallel()
		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"extract"})

		if err := rootCmd.Execute(); err == nil {
			t.Error("expected error for no arguments")
		}
	})

	t.Run("missing selector", func(t *testing.T) {
		t.Parallel()
		rootCmd := NewRootCmd()
		rootCmd.SetArgs([]string{"extract", "https://example.com"})

		if err := rootCmd.Execute(); err == nil {
			t.Error("expected error for missing selector")
		}
	})
}

package main

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// TestNewDiscoverCmd tests the discover command creation.
func TestNewDiscoverCmd(t *testing.T) {
	t.Parallel()

	cmd := NewDiscoverCmd()

	t.Run("has correct use", func(t *testing.T) {
		t.Parallel()
		if cmd.Use != "discover <index-url>" {
			t.Errorf("expected use 'discover <index-url>', got %q", cmd.Use)
		}
	})

	t.Run("has yaml flag", func(t *testing.T) {
		t.Parallel()
		flag := cmd.Flags().Lookup("yaml")
		if flag == nil {
			t.Fatal("expected yaml flag")
		}
		if flag.Shorthand != "y" {
			t.Errorf("expected shorthand 'y', got %q", flag.Shorthand)
		}
	})

	t.Run("has timeout flag", func(t *testing.T) {
		t.Parallel()
		if cmd.Flags().Lookup("timeout") == nil {
			t.Error("expected timeout flag")
		}
	})
}

// TestRunDiscoverCmd tests discovery against a local index page.
func TestRunDiscoverCmd(t *testing.T) {
	index := `<html><body>
<a href="data-01.zip">january</a>
<a href="/exports/data-02.zip">february</a>
<a href="notes.txt">not an archive</a>
</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, index)
	}))
	t.Cleanup(srv.Close)

	t.Run("lists archive URLs", func(t *testing.T) {
		var buf bytes.Buffer
		cmd := NewDiscoverCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{srv.URL + "/exports/"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, srv.URL+"/exports/data-01.zip") {
			t.Errorf("expected relative link to be resolved, got %q", out)
		}
		if !strings.Contains(out, srv.URL+"/exports/data-02.zip") {
			t.Errorf("expected absolute-path link, got %q", out)
		}
		if strings.Contains(out, "notes.txt") {
			t.Errorf("expected non-archive link to be skipped, got %q", out)
		}
	})

	t.Run("emits yaml archives block", func(t *testing.T) {
		var buf bytes.Buffer
		cmd := NewDiscoverCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{"--yaml", srv.URL + "/exports/"})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		out := buf.String()
		if !strings.Contains(out, "archives:") {
			t.Errorf("expected archives block, got %q", out)
		}
		if !strings.Contains(out, "data-01.zip") {
			t.Errorf("expected archive URL in YAML, got %q", out)
		}
	})

	t.Run("reports no links", func(t *testing.T) {
		emptySrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			fmt.Fprint(w, "<html><body>nothing here</body></html>")
		}))
		t.Cleanup(emptySrv.Close)

		var buf bytes.Buffer
		cmd := NewDiscoverCmd()
		cmd.SetOut(&buf)
		cmd.SetArgs([]string{emptySrv.URL})

		if err := cmd.Execute(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if !strings.Contains(buf.String(), "No archive links found") {
			t.Errorf("expected empty result message, got %q", buf.String())
		}
	})
}

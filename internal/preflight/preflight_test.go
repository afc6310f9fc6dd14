package preflight

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"matchreel/internal/testsupport"
)

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestCheckDirectoryAccess_OK(t *testing.T) {
	dir := t.TempDir()
	result := CheckDirectoryAccess("test", dir)
	if !result.Passed {
		t.Fatalf("expected pass for temp dir, got: %s", result.Detail)
	}
}

func TestCheckDirectoryAccess_NotExist(t *testing.T) {
	result := CheckDirectoryAccess("test", filepath.Join(t.TempDir(), "nope"))
	if result.Passed {
		t.Fatal("expected failure for missing dir")
	}
	if result.Detail == "" {
		t.Fatal("expected non-empty detail")
	}
}

func TestCheckDirectoryAccess_NotDir(t *testing.T) {
	f := filepath.Join(t.TempDir(), "file.txt")
	if err := os.WriteFile(f, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	result := CheckDirectoryAccess("test", f)
	if result.Passed {
		t.Fatal("expected failure for file path")
	}
}

func TestCheckMux(t *testing.T) {
	ok := CheckMux(context.Background(), pingFunc(func(context.Context) error { return nil }))
	if !ok.Passed {
		t.Fatalf("expected pass, got: %s", ok.Detail)
	}

	failed := CheckMux(context.Background(), pingFunc(func(context.Context) error { return errors.New("401 unauthorized") }))
	if failed.Passed || !strings.Contains(failed.Detail, "401") {
		t.Fatalf("expected failure carrying the cause, got %+v", failed)
	}

	timedOut := CheckMux(context.Background(), pingFunc(func(context.Context) error { return context.DeadlineExceeded }))
	if timedOut.Passed || !strings.Contains(timedOut.Detail, "timed out") {
		t.Fatalf("expected timeout summary, got %+v", timedOut)
	}
}

func TestCheckMuxFromConfig_MissingCredentials(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result := CheckMuxFromConfig(context.Background(), cfg)
	if result.Passed {
		t.Fatal("expected failure without credentials")
	}
	if !strings.Contains(result.Detail, "MUX_TOKEN_ID") {
		t.Fatalf("expected hint naming env vars, got %q", result.Detail)
	}
}

func TestCheckMuxFromConfig_BadCredentials(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithMux(srv.URL))
	result := CheckMuxFromConfig(context.Background(), cfg)
	if result.Passed {
		t.Fatal("expected failure for rejected credentials")
	}
}

func TestCheckDatabase(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	result := CheckDatabase(context.Background(), cfg)
	if !result.Passed {
		t.Fatalf("expected database check to pass, got: %s", result.Detail)
	}
	if !strings.Contains(result.Detail, "0 pending") {
		t.Fatalf("expected pending count in detail, got %q", result.Detail)
	}
}

func TestRunAll_NilConfig(t *testing.T) {
	results := RunAll(context.Background(), nil)
	if results != nil {
		t.Fatal("expected nil results for nil config")
	}
}

func TestRunAll_WithMux(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, _, ok := r.BasicAuth(); !ok {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	cfg := testsupport.NewConfig(t, testsupport.WithMux(srv.URL))
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatal(err)
	}

	results := RunAll(context.Background(), cfg)
	if len(results) != 4 {
		t.Fatalf("expected 4 results, got %d", len(results))
	}
	for _, r := range results {
		if !r.Passed {
			t.Errorf("check %q failed: %s", r.Name, r.Detail)
		}
	}
	if Failed(results) {
		t.Fatal("expected no failures")
	}
}

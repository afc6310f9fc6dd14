package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

type cliTestEnv struct {
	configPath string
	baseDir    string
	mux        *fakeMux
}

// fakeMux serves the slice of the Mux video API the CLI touches. Uploads
// become ready assets as soon as their bytes arrive.
type fakeMux struct {
	server *httptest.Server

	mu       sync.Mutex
	received map[string]int
}

func newFakeMux(t *testing.T) *fakeMux {
	t.Helper()
	f := &fakeMux{received: make(map[string]int)}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /video/v1/uploads", func(w http.ResponseWriter, r *http.Request) {
		writeMuxJSON(w, map[string]any{"id": "up-1", "url": f.server.URL + "/put/up-1", "status": "waiting"})
	})
	mux.HandleFunc("PUT /put/{id}", func(w http.ResponseWriter, r *http.Request) {
		n, _ := io.Copy(io.Discard, r.Body)
		f.mu.Lock()
		f.received[r.PathValue("id")] = int(n)
		f.mu.Unlock()
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("GET /video/v1/uploads/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeMuxJSON(w, map[string]any{"id": r.PathValue("id"), "status": "asset_created", "asset_id": "asset-" + r.PathValue("id")})
	})
	mux.HandleFunc("GET /video/v1/assets/{id}", func(w http.ResponseWriter, r *http.Request) {
		writeMuxJSON(w, map[string]any{
			"id":           r.PathValue("id"),
			"status":       "ready",
			"playback_ids": []map[string]string{{"id": "pb-" + r.PathValue("id"), "policy": "public"}},
		})
	})
	mux.HandleFunc("GET /video/v1/assets", func(w http.ResponseWriter, r *http.Request) {
		writeMuxJSON(w, []any{})
	})
	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeMux) bytesReceived(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.received[id]
}

func writeMuxJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{"data": data})
}

func setupCLITestEnv(t *testing.T) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, key := range []string{"MUX_TOKEN_ID", "MUX_TOKEN_SECRET", "MUX_BASE_URL", "DATABASE_URL", "MATCHREEL_NTFY_TOPIC"} {
		t.Setenv(key, "")
		if err := os.Unsetenv(key); err != nil {
			t.Fatalf("unset %s: %v", key, err)
		}
	}

	fake := newFakeMux(t)
	configPath := filepath.Join(homeDir, ".config", "matchreel", "config.toml")
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		t.Fatalf("mkdir config dir: %v", err)
	}
	writeTestConfig(t, configPath, base, fake.server.URL)

	return &cliTestEnv{configPath: configPath, baseDir: base, mux: fake}
}

func writeTestConfig(t *testing.T, path, base, muxURL string) {
	t.Helper()
	content := fmt.Sprintf(`[paths]
data_dir = %q
log_dir = %q
env_file = ""

[mux]
token_id = "cli-token"
token_secret = "cli-secret"
base_url = %q

[api]
bind = "127.0.0.1:0"

[auth]
bcrypt_cost = 4

[reconcile]
interval_seconds = 0
`, filepath.Join(base, "data"), filepath.Join(base, "logs"), muxURL)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, args []string, configPath string) (string, string, error) {
	t.Helper()
	return runCLIWithInput(t, args, configPath, "")
}

func runCLIWithInput(t *testing.T, args []string, configPath, stdin string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	var flags []string
	if configPath != "" {
		flags = append(flags, "--config", configPath)
	}
	cmd.SetArgs(append(flags, args...))
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}

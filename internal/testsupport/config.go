package testsupport

import (
	"path/filepath"
	"testing"

	"matchreel/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// The database is a SQLite file inside the temp dir.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.DataDir = filepath.Join(base, "data")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.EnvFile = ""
	cfgVal.API.Bind = "127.0.0.1:0"
	cfgVal.Auth.BcryptCost = 4
	cfgVal.Reconcile.IntervalSeconds = 0

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithMux sets credentials and points the client at baseURL (usually an
// httptest server).
func WithMux(baseURL string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Mux.TokenID = "test-token"
		b.cfg.Mux.TokenSecret = "test-secret"
		if baseURL != "" {
			b.cfg.Mux.BaseURL = baseURL
		}
	}
}

// WithPlaceholdersHidden turns off placeholder visibility for member viewers.
func WithPlaceholdersHidden() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Access.PlaceholdersVisible = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.DataDir)
}

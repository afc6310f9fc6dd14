package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory configuration.
type Paths struct {
	DataDir string `toml:"data_dir" env:"MATCHREEL_DATA_DIR"`
	LogDir  string `toml:"log_dir" env:"MATCHREEL_LOG_DIR"`
	EnvFile string `toml:"env_file"`
}

// Database selects the relational store. An empty URL means the bundled
// SQLite database under Paths.DataDir; postgres:// URLs use Postgres.
type Database struct {
	URL string `toml:"url" env:"DATABASE_URL"`
}

// Mux contains credentials and upload settings for the Mux video API.
type Mux struct {
	TokenID        string `toml:"token_id" env:"MUX_TOKEN_ID"`
	TokenSecret    string `toml:"token_secret" env:"MUX_TOKEN_SECRET"`
	BaseURL        string `toml:"base_url" env:"MUX_BASE_URL"`
	StreamHost     string `toml:"stream_host" env:"MUX_STREAM_HOST"`
	CORSOrigin     string `toml:"cors_origin"`
	UploadTimeout  int    `toml:"upload_timeout"`
	RequestTimeout int    `toml:"request_timeout"`
}

// API contains configuration for the HTTP API served by the daemon.
type API struct {
	Bind           string   `toml:"bind" env:"MATCHREEL_API_BIND"`
	AllowedOrigins []string `toml:"allowed_origins" env:"MATCHREEL_ALLOWED_ORIGINS"`
	MaxUploadMiB   int      `toml:"max_upload_mib"`
}

// Access contains visibility policy switches.
type Access struct {
	// PlaceholdersVisible lets member viewers see their team's pending
	// matches before they become playable.
	PlaceholdersVisible bool `toml:"placeholders_visible" env:"MATCHREEL_PLACEHOLDERS_VISIBLE"`
}

// Auth contains session and password digest settings.
type Auth struct {
	SessionTTLHours int `toml:"session_ttl_hours"`
	BcryptCost      int `toml:"bcrypt_cost"`
}

// Reconcile contains timing for the background reconciliation pass.
type Reconcile struct {
	IntervalSeconds int `toml:"interval_seconds" env:"MATCHREEL_RECONCILE_INTERVAL"`
}

// Notifications contains the optional ntfy push target.
type Notifications struct {
	// NtfyTopic is the full topic URL, e.g. https://ntfy.sh/my-club. Empty
	// disables notifications.
	NtfyTopic      string `toml:"ntfy_topic" env:"MATCHREEL_NTFY_TOPIC"`
	RequestTimeout int    `toml:"request_timeout"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format" env:"MATCHREEL_LOG_FORMAT"`
	Level  string `toml:"level" env:"MATCHREEL_LOG_LEVEL"`
}

// Config encapsulates all configuration values for matchreel.
//
// Configuration sections by subsystem:
//   - Paths: data, log, and dotenv locations
//   - Database: store selection (SQLite file or Postgres URL)
//   - Mux: transcoding provider credentials and upload policy
//   - API: HTTP bind address, CORS origins, upload size cap
//   - Access: placeholder visibility policy
//   - Auth: session lifetime and digest cost
//   - Reconcile: background sync interval
//   - Notifications: ntfy topic for ready and orphaned-upload notices
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Database      Database      `toml:"database"`
	Mux           Mux           `toml:"mux"`
	API           API           `toml:"api"`
	Access        Access        `toml:"access"`
	Auth          Auth          `toml:"auth"`
	Reconcile     Reconcile     `toml:"reconcile"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. Values are layered
// as defaults, then the TOML file, then the dotenv file, then the process
// environment. The returned config has all path fields expanded.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := loadEnvFile(cfg.Paths.EnvFile, resolvedPath); err != nil {
		return nil, "", false, err
	}
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, "", false, fmt.Errorf("read environment: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

// loadEnvFile loads KEY=VALUE pairs into the process environment without
// overriding variables that are already set. Relative names resolve beside
// the config file.
func loadEnvFile(name, configPath string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil
	}
	if !filepath.IsAbs(name) && !strings.HasPrefix(name, "~") && configPath != "" {
		name = filepath.Join(filepath.Dir(configPath), name)
	}
	expanded, err := expandPath(name)
	if err != nil {
		return fmt.Errorf("paths.env_file: %w", err)
	}
	if _, err := os.Stat(expanded); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat env file: %w", err)
	}
	if err := godotenv.Load(expanded); err != nil {
		return fmt.Errorf("load env file %s: %w", expanded, err)
	}
	return nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("matchreel.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the data and log directories.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// UsesPostgres reports whether the configured database URL targets Postgres.
func (c *Config) UsesPostgres() bool {
	url := strings.ToLower(strings.TrimSpace(c.Database.URL))
	return strings.HasPrefix(url, "postgres://") || strings.HasPrefix(url, "postgresql://")
}

// SQLitePath returns the SQLite database file used when no Postgres URL is set.
func (c *Config) SQLitePath() string {
	url := strings.TrimSpace(c.Database.URL)
	if path, ok := strings.CutPrefix(url, "sqlite://"); ok && path != "" {
		return path
	}
	return filepath.Join(c.Paths.DataDir, "matchreel.db")
}

// MuxConfigured reports whether Mux credentials are available.
func (c *Config) MuxConfigured() bool {
	return strings.TrimSpace(c.Mux.TokenID) != "" && strings.TrimSpace(c.Mux.TokenSecret) != ""
}

// RequireMux returns a descriptive error when Mux credentials are missing.
func (c *Config) RequireMux() error {
	if c.MuxConfigured() {
		return nil
	}
	defaultPath, err := DefaultConfigPath()
	if err != nil {
		defaultPath = defaultConfigPath
	}
	return fmt.Errorf("mux.token_id and mux.token_secret are required. Set MUX_TOKEN_ID/MUX_TOKEN_SECRET or edit %s (create with 'matchreel config init')", defaultPath)
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}

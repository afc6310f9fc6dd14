package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// Validate ensures the configuration is usable. Mux credentials are not
// required here; commands that talk to Mux call RequireMux.
func (c *Config) Validate() error {
	if err := c.validateDatabase(); err != nil {
		return err
	}
	if err := c.validateMux(); err != nil {
		return err
	}
	if err := c.validateAPI(); err != nil {
		return err
	}
	if err := c.validateAuth(); err != nil {
		return err
	}
	if c.Reconcile.IntervalSeconds < 0 {
		return errors.New("reconcile.interval_seconds must be >= 0")
	}
	if topic := c.Notifications.NtfyTopic; topic != "" && !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) URL, got %q", topic)
	}
	return c.validateLogging()
}

func (c *Config) validateDatabase() error {
	url := strings.ToLower(c.Database.URL)
	if url == "" || c.UsesPostgres() || strings.HasPrefix(url, "sqlite://") {
		return nil
	}
	return fmt.Errorf("database.url must be empty, sqlite://<path>, or postgres://..., got %q", c.Database.URL)
}

func (c *Config) validateMux() error {
	if (c.Mux.TokenID == "") != (c.Mux.TokenSecret == "") {
		return errors.New("mux.token_id and mux.token_secret must be set together")
	}
	if !strings.HasPrefix(c.Mux.BaseURL, "http://") && !strings.HasPrefix(c.Mux.BaseURL, "https://") {
		return fmt.Errorf("mux.base_url must be an http(s) URL, got %q", c.Mux.BaseURL)
	}
	if strings.Contains(c.Mux.StreamHost, "://") {
		return fmt.Errorf("mux.stream_host must be a bare host name, got %q", c.Mux.StreamHost)
	}
	if c.Mux.UploadTimeout < 60 || c.Mux.UploadTimeout > 7*24*3600 {
		return errors.New("mux.upload_timeout must be between 60 and 604800 seconds")
	}
	if c.Mux.RequestTimeout <= 0 {
		return errors.New("mux.request_timeout must be positive")
	}
	return nil
}

func (c *Config) validateAPI() error {
	if !strings.Contains(c.API.Bind, ":") {
		return fmt.Errorf("api.bind must be host:port, got %q", c.API.Bind)
	}
	if c.API.MaxUploadMiB <= 0 {
		return errors.New("api.max_upload_mib must be positive")
	}
	return nil
}

func (c *Config) validateAuth() error {
	if c.Auth.SessionTTLHours <= 0 {
		return errors.New("auth.session_ttl_hours must be positive")
	}
	if c.Auth.BcryptCost < bcrypt.MinCost || c.Auth.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("auth.bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn, or error, got %q", c.Logging.Level)
	}
	return nil
}

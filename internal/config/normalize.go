package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeDatabase()
	c.normalizeMux()
	c.normalizeAPI()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.DataDir) == "" {
		c.Paths.DataDir = defaultDataDir
	}
	if c.Paths.DataDir, err = expandPath(c.Paths.DataDir); err != nil {
		return fmt.Errorf("paths.data_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.EnvFile = strings.TrimSpace(c.Paths.EnvFile)
	return nil
}

func (c *Config) normalizeDatabase() {
	c.Database.URL = strings.TrimSpace(c.Database.URL)
}

func (c *Config) normalizeMux() {
	c.Mux.TokenID = strings.TrimSpace(c.Mux.TokenID)
	c.Mux.TokenSecret = strings.TrimSpace(c.Mux.TokenSecret)
	c.Mux.BaseURL = strings.TrimRight(strings.TrimSpace(c.Mux.BaseURL), "/")
	if c.Mux.BaseURL == "" {
		c.Mux.BaseURL = defaultMuxBaseURL
	}
	c.Mux.StreamHost = strings.Trim(strings.TrimSpace(c.Mux.StreamHost), "/")
	if c.Mux.StreamHost == "" {
		c.Mux.StreamHost = defaultMuxStreamHost
	}
	c.Mux.CORSOrigin = strings.TrimSpace(c.Mux.CORSOrigin)
	if c.Mux.CORSOrigin == "" {
		c.Mux.CORSOrigin = defaultMuxCORSOrigin
	}
	if c.Mux.UploadTimeout == 0 {
		c.Mux.UploadTimeout = defaultMuxUploadTimeout
	}
	if c.Mux.RequestTimeout == 0 {
		c.Mux.RequestTimeout = defaultMuxRequestTimeout
	}
}

func (c *Config) normalizeAPI() {
	c.API.Bind = strings.TrimSpace(c.API.Bind)
	if c.API.Bind == "" {
		c.API.Bind = defaultAPIBind
	}
	origins := make([]string, 0, len(c.API.AllowedOrigins))
	for _, origin := range c.API.AllowedOrigins {
		origin = strings.TrimSpace(origin)
		if origin != "" {
			origins = append(origins, origin)
		}
	}
	c.API.AllowedOrigins = origins
	if c.API.MaxUploadMiB == 0 {
		c.API.MaxUploadMiB = defaultMaxUploadMiB
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}

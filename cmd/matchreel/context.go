package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"matchreel/internal/access"
	"matchreel/internal/auth"
	"matchreel/internal/config"
	"matchreel/internal/logging"
	"matchreel/internal/services/mux"
	"matchreel/internal/store"
	"matchreel/internal/timeline"
)

type commandContext struct {
	configFlag *string
	asFlag     *string
	jsonFlag   *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	storeOnce sync.Once
	store     *store.Store
	storeErr  error

	logger *slog.Logger
}

func newCommandContext(configFlag, asFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag: configFlag,
		asFlag:     asFlag,
		jsonFlag:   jsonFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) configValue() *config.Config {
	cfg, _ := c.ensureConfig()
	return cfg
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

// log returns a stderr logger. Interactive commands only surface warnings
// unless debug logging is configured.
func (c *commandContext) log() *slog.Logger {
	if c.logger != nil {
		return c.logger
	}
	level := "warn"
	format := "console"
	if cfg := c.configValue(); cfg != nil {
		if strings.EqualFold(cfg.Logging.Level, "debug") {
			level = "debug"
		}
		format = cfg.Logging.Format
	}
	logger, err := logging.New(logging.Options{Level: level, Format: format, OutputPaths: []string{"stderr"}})
	if err != nil {
		logger = logging.NewNop()
	}
	c.logger = logger
	return logger
}

func (c *commandContext) openStore() (*store.Store, error) {
	c.storeOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.storeErr = err
			return
		}
		c.store, c.storeErr = store.Open(cfg)
	})
	return c.store, c.storeErr
}

func (c *commandContext) close() {
	if c.store != nil {
		_ = c.store.Close()
	}
}

func (c *commandContext) authService() (*auth.Service, error) {
	st, err := c.openStore()
	if err != nil {
		return nil, err
	}
	cfg := c.configValue()
	return auth.NewService(st, auth.Options{
		SessionTTL: time.Duration(cfg.Auth.SessionTTLHours) * time.Hour,
		BcryptCost: cfg.Auth.BcryptCost,
		Logger:     c.log(),
	}), nil
}

func (c *commandContext) timelineService() (*timeline.Service, error) {
	st, err := c.openStore()
	if err != nil {
		return nil, err
	}
	cfg := c.configValue()
	policy := access.Policy{PlaceholdersVisible: cfg.Access.PlaceholdersVisible}
	return timeline.NewService(st, cfg.Mux.StreamHost, policy, c.log()), nil
}

func (c *commandContext) muxClient() (*mux.Client, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	if err := cfg.RequireMux(); err != nil {
		return nil, err
	}
	return mux.NewConfiguredClient(cfg)
}

// viewer resolves --as, defaulting to the local operator.
func (c *commandContext) viewer(ctx context.Context) (access.Viewer, error) {
	email := ""
	if c.asFlag != nil {
		email = strings.TrimSpace(*c.asFlag)
	}
	if email == "" {
		return access.Operator(), nil
	}
	svc, err := c.authService()
	if err != nil {
		return access.Viewer{}, err
	}
	viewer, err := svc.ViewerForEmail(ctx, email)
	if err != nil {
		return access.Viewer{}, fmt.Errorf("resolve --as %s: %w", email, err)
	}
	return viewer, nil
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}

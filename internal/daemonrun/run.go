package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"matchreel/internal/config"
	"matchreel/internal/daemon"
	"matchreel/internal/logging"
	"matchreel/internal/notifications"
	"matchreel/internal/services/mux"
	"matchreel/internal/store"
)

// Options configures daemon process runtime behavior.
type Options struct {
	// LogLevel overrides logging.level when set.
	LogLevel string
	// Bind overrides api.bind when set.
	Bind string
}

// Run starts the matchreel server and blocks until SIGINT/SIGTERM or ctx
// cancellation.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if opts.LogLevel != "" {
		cfg.Logging.Level = opts.LogLevel
	}
	if opts.Bind != "" {
		cfg.API.Bind = opts.Bind
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}

	pidPath := filepath.Join(cfg.Paths.DataDir, "matchreel.pid")
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open store", logging.Error(err))
		return err
	}

	deps := daemon.Dependencies{
		Store:    st,
		Logger:   logger,
		Notifier: notifications.NewService(cfg),
	}
	if client, err := mux.NewConfiguredClient(cfg); err == nil {
		deps.Provider = client
	} else {
		logging.WarnWithContext(logger, "mux not configured; ingest and sync disabled", "mux_unconfigured",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set MUX_TOKEN_ID and MUX_TOKEN_SECRET"),
			logging.String(logging.FieldImpact, "pending matches will not become ready"))
	}
	logStartupSnapshot(logger, cfg, st)

	d, err := daemon.New(cfg, deps)
	if err != nil {
		_ = st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	if err := d.Start(signalCtx); err != nil {
		return err
	}

	<-signalCtx.Done()
	logger.Info("matchreel daemon shutting down")
	return nil
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logStartupSnapshot(logger *slog.Logger, cfg *config.Config, st *store.Store) {
	attrs := []logging.Attr{
		logging.String(logging.FieldEventType, "startup_snapshot"),
		logging.String("database", st.Target()),
		logging.Bool("mux_configured", cfg.MuxConfigured()),
		logging.String("stream_host", cfg.Mux.StreamHost),
		logging.Bool("placeholders_visible", cfg.Access.PlaceholdersVisible),
		logging.Int("reconcile_interval_seconds", cfg.Reconcile.IntervalSeconds),
	}
	if version, err := st.SchemaVersion(); err == nil {
		attrs = append(attrs, logging.Int("schema_version", int(version.Version)))
	}
	logger.Info("startup snapshot", logging.Args(attrs...)...)
}

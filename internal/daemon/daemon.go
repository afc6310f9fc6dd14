package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"github.com/jonboulle/clockwork"

	"matchreel/internal/access"
	"matchreel/internal/auth"
	"matchreel/internal/config"
	"matchreel/internal/ingest"
	"matchreel/internal/logging"
	"matchreel/internal/notifications"
	"matchreel/internal/reconcile"
	"matchreel/internal/services/mux"
	"matchreel/internal/store"
	"matchreel/internal/timeline"
)

const notifyTimeout = 15 * time.Second

// Provider is the full video provider surface the daemon drives.
type Provider interface {
	ingest.Provider
	reconcile.Provider
}

// Dependencies are the collaborators a Daemon needs. Provider may be nil when
// Mux is not configured; ingestion and sync then report a configuration
// error while read endpoints keep working.
type Dependencies struct {
	Store    *store.Store
	Provider Provider
	Logger   *slog.Logger
	Clock    clockwork.Clock
	// Notifier defaults to the ntfy service configured in cfg.
	Notifier notifications.Service
}

// Daemon owns the HTTP API and the reconciliation scheduler.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store

	auth      *auth.Service
	timeline  *timeline.Service
	ingest    *ingest.Orchestrator
	engine    *reconcile.Engine
	scheduler *reconcile.Scheduler
	server    *apiServer
	notifier  notifications.Service

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup

	syncMu   sync.Mutex
	lastSync *SyncStatus
}

// SyncStatus records the most recent scheduled pass.
type SyncStatus struct {
	At      time.Time
	Summary reconcile.Summary
	Err     string
}

// Status represents daemon runtime information.
type Status struct {
	Running           bool
	LockFilePath      string
	Database          string
	APIAddress        string
	MuxConfigured     bool
	SchedulerInterval time.Duration
	LastSync          *SyncStatus
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, deps Dependencies) (*Daemon, error) {
	if cfg == nil || deps.Store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "matchreel.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    deps.Store,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
		notifier: deps.Notifier,
	}
	if d.notifier == nil {
		d.notifier = notifications.NewService(cfg)
	}
	d.auth = auth.NewService(deps.Store, auth.Options{
		SessionTTL: time.Duration(cfg.Auth.SessionTTLHours) * time.Hour,
		BcryptCost: cfg.Auth.BcryptCost,
		Clock:      deps.Clock,
		Logger:     logger,
	})
	d.timeline = timeline.NewService(deps.Store, cfg.Mux.StreamHost,
		access.Policy{PlaceholdersVisible: cfg.Access.PlaceholdersVisible}, logger)

	if deps.Provider != nil {
		d.ingest = ingest.NewOrchestrator(deps.Provider, deps.Store, mux.PolicyFromConfig(cfg), logger)
		d.engine = reconcile.NewEngine(deps.Provider, deps.Store, logger)
		interval := time.Duration(cfg.Reconcile.IntervalSeconds) * time.Second
		d.scheduler = reconcile.NewScheduler(d.engine, interval, deps.Clock, logger)
		if d.scheduler != nil {
			d.scheduler.AfterPass = d.recordSync
		}
	}

	server, err := newAPIServer(cfg, d, logger)
	if err != nil {
		return nil, err
	}
	d.server = server
	return d, nil
}

// Start acquires the daemon lock, starts the API server, and launches the
// scheduler.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	if err := d.cfg.EnsureDirectories(); err != nil {
		return err
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another matchreel server is already running for this data directory")
	}

	runCtx, cancel := context.WithCancel(ctx)
	if err := d.server.start(runCtx); err != nil {
		cancel()
		_ = d.lock.Unlock()
		return fmt.Errorf("start api server: %w", err)
	}
	d.cancel = cancel

	if d.scheduler != nil {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			d.scheduler.Run(runCtx)
		}()
	} else {
		d.logger.Info("reconcile scheduler disabled",
			logging.Bool("mux_configured", d.engine != nil),
			logging.Int("interval_seconds", d.cfg.Reconcile.IntervalSeconds))
	}

	d.running.Store(true)
	d.logger.Info("matchreel daemon started",
		logging.String("lock", d.lockPath),
		logging.String("api", d.server.address()),
		logging.String("database", d.store.Target()))
	return nil
}

// Stop stops the scheduler and the API server and releases the lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.server.stop()
	d.wg.Wait()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("matchreel daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	if d.store != nil {
		return d.store.Close()
	}
	return nil
}

// Status returns the current daemon status.
func (d *Daemon) Status() Status {
	status := Status{
		Running:       d.running.Load(),
		LockFilePath:  d.lockPath,
		Database:      d.store.Target(),
		APIAddress:    d.server.address(),
		MuxConfigured: d.engine != nil,
	}
	if d.scheduler != nil {
		status.SchedulerInterval = d.scheduler.Interval()
	}
	d.syncMu.Lock()
	if d.lastSync != nil {
		last := *d.lastSync
		status.LastSync = &last
	}
	d.syncMu.Unlock()
	return status
}

// Handler exposes the API router, mainly for tests.
func (d *Daemon) Handler() http.Handler {
	return d.server.handler
}

func (d *Daemon) recordSync(summary reconcile.Summary, err error) {
	entry := &SyncStatus{At: time.Now().UTC(), Summary: summary}
	if err != nil {
		entry.Err = err.Error()
	}
	d.syncMu.Lock()
	d.lastSync = entry
	d.syncMu.Unlock()
	d.announce(summary)
}

// announce sends ready notices for matches a pass transitioned and a
// warning when some matches could not be checked.
func (d *Daemon) announce(summary reconcile.Summary) {
	if !notifications.Enabled(d.notifier) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()

	for _, res := range summary.Results {
		if !res.Transitioned {
			continue
		}
		match, err := d.store.GetMatch(ctx, res.MatchID)
		if err != nil || match == nil {
			continue
		}
		if err := d.notifier.NotifyMatchReady(ctx, match.TeamName, match.Opponent, match.MatchDate); err != nil {
			d.logger.Warn("match ready notification failed",
				logging.Int64(logging.FieldMatchID, res.MatchID),
				logging.Error(err))
		}
	}
	if summary.Failed > 0 {
		if err := d.notifier.NotifySyncFailures(ctx, summary.Failed, summary.Checked); err != nil {
			d.logger.Warn("sync failure notification failed", logging.Error(err))
		}
	}
}

func (d *Daemon) announceOrphan(uploadID string, cause error) {
	if !notifications.Enabled(d.notifier) {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
	defer cancel()
	if err := d.notifier.NotifyOrphanedUpload(ctx, uploadID, cause); err != nil {
		d.logger.Warn("orphaned upload notification failed",
			logging.String(logging.FieldUploadID, uploadID),
			logging.Error(err))
	}
}

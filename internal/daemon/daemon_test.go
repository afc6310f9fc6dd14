package daemon_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"matchreel/internal/daemon"
	"matchreel/internal/logging"
	"matchreel/internal/testsupport"
)

func TestDaemonStartStop(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	d, err := daemon.New(cfg, daemon.Dependencies{Store: st, Provider: testsupport.NewFakeProvider(), Logger: logging.NewNop()})
	require.NoError(t, err)
	t.Cleanup(d.Stop)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	require.NoError(t, d.Start(ctx))
	status := d.Status()
	require.True(t, status.Running)
	require.True(t, status.MuxConfigured)
	require.NotEmpty(t, status.APIAddress)
	require.NotEqual(t, "127.0.0.1:0", status.APIAddress)
	require.Zero(t, status.SchedulerInterval, "zero interval disables the scheduler")

	require.Error(t, d.Start(ctx), "second start on the same daemon must fail")

	d.Stop()
	require.False(t, d.Status().Running)
}

func TestDaemonLockExcludesSecondInstance(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	first, err := daemon.New(cfg, daemon.Dependencies{Store: st})
	require.NoError(t, err)
	second, err := daemon.New(cfg, daemon.Dependencies{Store: st})
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, first.Start(ctx))
	t.Cleanup(first.Stop)

	err = second.Start(ctx)
	require.Error(t, err)
	require.Contains(t, err.Error(), "already running")

	first.Stop()
	require.NoError(t, second.Start(ctx))
	second.Stop()
}

func TestDaemonWithoutProviderHasNoScheduler(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Reconcile.IntervalSeconds = 30
	st := testsupport.MustOpenStore(t, cfg)

	d, err := daemon.New(cfg, daemon.Dependencies{Store: st})
	require.NoError(t, err)
	status := d.Status()
	require.False(t, status.MuxConfigured)
	require.Zero(t, status.SchedulerInterval)
	require.Nil(t, status.LastSync)
}

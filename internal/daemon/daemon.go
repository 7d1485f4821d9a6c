// Package daemon implements the long-lived per-machine process from
// §4.12: PID-file locking, a startup validator pass, per-mapping
// watcher lifecycle, and a poll loop driving autosync and periodic
// re-validation.
package daemon

import (
	"context"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/minimem/minimem/internal/config"
	"github.com/minimem/minimem/internal/registry"
	"github.com/minimem/minimem/internal/syncops"
	"github.com/minimem/minimem/internal/validator"
	"github.com/minimem/minimem/internal/watcher"
)

const (
	defaultPollInterval       = 30 * time.Second
	defaultValidationInterval = 5 * time.Minute
)

// Options configures one daemon run.
type Options struct {
	HomeDir            string // the PID file is <HomeDir>/.minimem/daemon.pid; empty resolves against the working directory
	CentralRepoRoot    string // unconfigured central repo still runs, just does no remote work
	MachineID          string
	PollInterval       time.Duration
	ValidationInterval time.Duration
	WatcherOptions     watcher.Options
}

func (o Options) withDefaults() Options {
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.ValidationInterval <= 0 {
		o.ValidationInterval = defaultValidationInterval
	}
	return o
}

// Daemon coordinates watchers and sync across every mapping owned by
// this machine.
type Daemon struct {
	opts Options
	pid  *PIDFile

	mu       sync.Mutex
	watched  map[string]*watcher.FSWatcher // keyed by local path
	watchWG  sync.WaitGroup
	stopOnce sync.Once
}

// New constructs a Daemon. Call Run to start it.
func New(opts Options) *Daemon {
	return &Daemon{
		opts:    opts.withDefaults(),
		watched: make(map[string]*watcher.FSWatcher),
	}
}

// Run implements §4.12's full sequence. It blocks until ctx is
// cancelled (SIGTERM/SIGINT translated by the caller), then drains
// current operations and shuts down cleanly.
func (d *Daemon) Run(ctx context.Context) error {
	pidPath := filepath.Join(d.opts.HomeDir, ".minimem", "daemon.pid")
	pid, err := AcquireLock(pidPath)
	if err != nil {
		return err
	}
	d.pid = pid
	defer func() { _ = d.pid.Release() }()

	if d.opts.CentralRepoRoot == "" {
		slog.Warn("daemon_no_central_repo_configured")
	}

	d.runValidatorPass()
	d.reconcileWatchers(ctx)

	pollTicker := time.NewTicker(d.opts.PollInterval)
	defer pollTicker.Stop()
	validationTicker := time.NewTicker(d.opts.ValidationInterval)
	defer validationTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.shutdown()
			return nil
		case <-pollTicker.C:
			d.reconcileWatchers(ctx)
			d.runAutosyncPulls(ctx)
		case <-validationTicker.C:
			d.runValidatorPass()
		}
	}
}

func (d *Daemon) shutdown() {
	d.stopOnce.Do(func() {
		d.mu.Lock()
		watchers := make([]*watcher.FSWatcher, 0, len(d.watched))
		for _, fw := range d.watched {
			watchers = append(watchers, fw)
		}
		d.mu.Unlock()

		for _, fw := range watchers {
			if err := fw.Stop(); err != nil {
				slog.Warn("daemon_watcher_stop_failed", slog.String("error", err.Error()))
			}
		}
		d.watchWG.Wait()
	})
}

func (d *Daemon) runValidatorPass() {
	if d.opts.CentralRepoRoot == "" {
		return
	}
	reg, err := registry.Load(d.opts.CentralRepoRoot)
	if err != nil {
		slog.Warn("daemon_validator_load_failed", slog.String("error", err.Error()))
		return
	}
	report := validator.Validate(reg, d.opts.MachineID, d.opts.CentralRepoRoot, time.Now())
	slog.Info("daemon_validator_pass",
		slog.Bool("valid", report.Valid),
		slog.Int("total", report.Stats.Total),
		slog.Int("stale", report.Stats.Stale),
		slog.Int("collisions", report.Stats.Collisions),
		slog.Int("missing", report.Stats.Missing))
	for _, issue := range report.Issues {
		slog.Warn("daemon_validator_issue",
			slog.String("kind", string(issue.Kind)),
			slog.String("severity", string(issue.Severity)),
			slog.String("centralPath", issue.CentralPath),
			slog.String("detail", issue.Detail))
	}
}

// reconcileWatchers implements §4.12 step 4/5a: one watcher per
// mapping owned by this machine that has sync.enabled && autosync and
// isn't already watched; mappings that disappeared or turned off
// autosync have their watcher closed.
func (d *Daemon) reconcileWatchers(ctx context.Context) {
	if d.opts.CentralRepoRoot == "" {
		return
	}
	reg, err := registry.Load(d.opts.CentralRepoRoot)
	if err != nil {
		slog.Warn("daemon_registry_load_failed", slog.String("error", err.Error()))
		return
	}

	wanted := make(map[string]bool)
	for _, m := range reg.MappingsForMachine(d.opts.MachineID) {
		localPath := registry.NormalizeLocalPathForComparison(m.LocalPath)
		syncCfg, err := config.LoadSyncConfig(localPath)
		if err != nil || !syncCfg.Enabled || !syncCfg.AutoSync {
			continue
		}
		wanted[localPath] = true
		d.ensureWatcher(ctx, localPath)
	}

	d.mu.Lock()
	for localPath, fw := range d.watched {
		if !wanted[localPath] {
			delete(d.watched, localPath)
			go func(fw *watcher.FSWatcher) {
				if err := fw.Stop(); err != nil {
					slog.Warn("daemon_watcher_stop_failed", slog.String("error", err.Error()))
				}
			}(fw)
		}
	}
	d.mu.Unlock()
}

func (d *Daemon) ensureWatcher(ctx context.Context, localPath string) {
	d.mu.Lock()
	if _, ok := d.watched[localPath]; ok {
		d.mu.Unlock()
		return
	}
	fw := watcher.NewFSWatcher(d.opts.WatcherOptions.WithDefaults())
	d.watched[localPath] = fw
	d.mu.Unlock()

	if err := fw.Start(ctx, localPath); err != nil {
		slog.Warn("daemon_watcher_start_failed", slog.String("root", localPath), slog.String("error", err.Error()))
		d.mu.Lock()
		delete(d.watched, localPath)
		d.mu.Unlock()
		return
	}

	d.watchWG.Add(1)
	go d.handleWatcherEvents(localPath, fw)
}

// handleWatcherEvents implements §4.12 step 4's per-watcher handler:
// log the batch, and push if autosync.
func (d *Daemon) handleWatcherEvents(localPath string, fw *watcher.FSWatcher) {
	defer d.watchWG.Done()
	for batch := range fw.Events() {
		slog.Info("daemon_watch_batch", slog.String("root", localPath), slog.Int("events", len(batch)))

		syncCfg, err := config.LoadSyncConfig(localPath)
		if err != nil || !syncCfg.AutoSync {
			continue
		}
		d.pushRoot(localPath, syncCfg)
	}
}

func (d *Daemon) pushRoot(localPath string, syncCfg config.SyncConfig) {
	remoteRoot := d.remoteRootFor(syncCfg)
	if remoteRoot == "" {
		return
	}
	opts := syncops.Options{
		CentralRepoRoot: d.opts.CentralRepoRoot,
		CentralSubPath:  syncCfg.CentralSubPath,
		MachineID:       d.opts.MachineID,
	}
	result, err := syncops.Push(localPath, remoteRoot, syncCfg.IncludeGlobs, syncCfg.ExcludeGlobs, opts)
	if err != nil {
		slog.Warn("daemon_push_failed", slog.String("root", localPath), slog.String("error", err.Error()))
		return
	}
	slog.Info("daemon_push_complete", slog.String("root", localPath), slog.Int("pushed", result.Pushed))
}

// runAutosyncPulls implements §4.12 step 5b: for each watched root,
// if autosync, dry-run a pull first and only perform the real pull
// when it would change something.
func (d *Daemon) runAutosyncPulls(ctx context.Context) {
	d.mu.Lock()
	roots := make([]string, 0, len(d.watched))
	for root := range d.watched {
		roots = append(roots, root)
	}
	d.mu.Unlock()

	for _, localPath := range roots {
		syncCfg, err := config.LoadSyncConfig(localPath)
		if err != nil || !syncCfg.AutoSync {
			continue
		}
		remoteRoot := d.remoteRootFor(syncCfg)
		if remoteRoot == "" {
			continue
		}
		opts := syncops.Options{
			CentralRepoRoot: d.opts.CentralRepoRoot,
			CentralSubPath:  syncCfg.CentralSubPath,
			MachineID:       d.opts.MachineID,
		}
		dryRun, err := syncops.Pull(localPath, remoteRoot, syncCfg.IncludeGlobs, syncCfg.ExcludeGlobs, withDryRun(opts))
		if err != nil || dryRun.Pulled == 0 {
			continue
		}
		result, err := syncops.Pull(localPath, remoteRoot, syncCfg.IncludeGlobs, syncCfg.ExcludeGlobs, opts)
		if err != nil {
			slog.Warn("daemon_pull_failed", slog.String("root", localPath), slog.String("error", err.Error()))
			continue
		}
		slog.Info("daemon_pull_complete", slog.String("root", localPath), slog.Int("pulled", result.Pulled))
	}
	_ = ctx
}

func withDryRun(opts syncops.Options) syncops.Options {
	opts.DryRun = true
	return opts
}

func (d *Daemon) remoteRootFor(syncCfg config.SyncConfig) string {
	if d.opts.CentralRepoRoot == "" || syncCfg.CentralSubPath == "" {
		return ""
	}
	sub := strings.TrimSuffix(registry.NormalizeCentralPath(syncCfg.CentralSubPath), "/")
	return filepath.Join(d.opts.CentralRepoRoot, sub)
}

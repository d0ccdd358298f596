package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/gofrs/flock"

	"shelve/internal/config"
	"shelve/internal/downloader"
	"shelve/internal/identify"
	"shelve/internal/identify/tmdb"
	"shelve/internal/logging"
	"shelve/internal/organize"
	"shelve/internal/pipeline"
	"shelve/internal/session"
	"shelve/internal/stats"
	"shelve/internal/store"
	"shelve/internal/transport"
	"shelve/internal/watcher"
)

const statsFlushInterval = time.Minute

// Daemon wires the scheduler, pipeline, and dialogs together and enforces
// single-instance execution via a lock file.
type Daemon struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *store.Store
	transport transport.Transport
	sessions  *session.Store
	scheduler *downloader.Scheduler
	pipeline  *pipeline.Pipeline
	organizer *organize.Manager
	collector *stats.Collector

	lock *flock.Flock
	cron *gocron.Scheduler
	api  *apiServer

	// owned guards the watcher against files the daemon itself is
	// downloading or processing. A path is held by at most one transfer;
	// a second announcement with the same filename is refused at
	// admission so two adapters never write the same destination.
	ownedMu sync.Mutex
	owned   map[string]struct{}

	running atomic.Bool
	cancel  context.CancelFunc
}

// New constructs a daemon and its collaborators. The TMDB client is built
// from configuration; tests inject a searcher via NewWithSearcher.
func New(cfg *config.Config, tr transport.Transport, logger *slog.Logger) (*Daemon, error) {
	client, err := tmdb.New(cfg.TMDB.APIKey, cfg.TMDB.BaseURL, cfg.TMDB.Language)
	if err != nil {
		return nil, fmt.Errorf("tmdb client: %w", err)
	}
	return NewWithSearcher(cfg, tr, client, logger)
}

// NewWithSearcher constructs a daemon with an explicit metadata searcher.
func NewWithSearcher(cfg *config.Config, tr transport.Transport, searcher tmdb.Searcher, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || tr == nil {
		return nil, errors.New("daemon requires config and transport")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return nil, err
	}
	st, err := store.Open(cfg)
	if err != nil {
		return nil, err
	}

	sessions := session.NewStore(cfg.SessionTTL())
	classifier := identify.NewClassifier(searcher, logger)
	pipe := pipeline.New(cfg, classifier, st, tr, logger)
	collector := stats.NewCollector(context.Background(), st, logger)

	d := &Daemon{
		cfg:       cfg,
		logger:    logger.With(logging.String(logging.FieldComponent, "daemon")),
		store:     st,
		transport: tr,
		sessions:  sessions,
		pipeline:  pipe,
		organizer: organize.NewManager(cfg, st, sessions, tr, logger),
		collector: collector,
		lock:      flock.New(cfg.LockFilePath()),
		owned:     make(map[string]struct{}),
	}

	d.scheduler = downloader.NewScheduler(cfg, tr, logger, d.process)
	d.scheduler.SetOutcomeFunc(d.observeOutcome)
	return d, nil
}

// Start acquires the single-instance lock, starts the periodic jobs and the
// control API, and begins consuming events from the source.
func (d *Daemon) Start(ctx context.Context, source transport.Source) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another shelved instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel

	d.cron = gocron.NewScheduler(time.UTC)
	if _, err := d.cron.Every(d.cfg.SessionSweepInterval()).Do(func() {
		if removed := d.sessions.SweepExpired(); removed > 0 {
			d.logger.Debug("swept expired sessions", logging.Int("count", removed))
		}
	}); err != nil {
		d.releaseLock()
		cancel()
		return fmt.Errorf("schedule session sweep: %w", err)
	}
	if _, err := d.cron.Every(statsFlushInterval).Do(func() {
		if err := d.collector.Flush(context.Background()); err != nil {
			d.logger.Warn("stats flush failed", logging.Error(err))
		}
	}); err != nil {
		d.releaseLock()
		cancel()
		return fmt.Errorf("schedule stats flush: %w", err)
	}
	d.cron.StartAsync()

	d.api = newAPIServer(d.cfg, d, d.logger)
	if err := d.api.start(runCtx); err != nil {
		d.cron.Stop()
		d.releaseLock()
		cancel()
		return err
	}

	if d.cfg.Chat.WatchEnabled {
		w := watcher.New(d.cfg.Paths.DownloadDir, d.logger, d.onManualFile(runCtx))
		go func() {
			if err := w.Run(runCtx); err != nil && !errors.Is(err, context.Canceled) {
				d.logger.Warn("watcher stopped", logging.Error(err))
			}
		}()
	}

	go d.consume(runCtx, source)

	d.running.Store(true)
	d.logger.Info("daemon started",
		logging.String("lock", d.cfg.LockFilePath()),
		logging.Int("max_concurrent", d.cfg.Downloads.MaxConcurrent))
	return nil
}

// Stop drains the scheduler, flushes stats, and releases resources.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	d.scheduler.Drain()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if d.cron != nil {
		d.cron.Stop()
	}
	d.api.stop()
	if err := d.collector.Flush(context.Background()); err != nil {
		d.logger.Warn("final stats flush failed", logging.Error(err))
	}
	if err := d.store.Close(); err != nil {
		d.logger.Warn("store close failed", logging.Error(err))
	}
	d.releaseLock()
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

func (d *Daemon) releaseLock() {
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("lock release failed", logging.Error(err))
	}
}

func (d *Daemon) consume(ctx context.Context, source transport.Source) {
	if source == nil {
		return
	}
	files := source.FileEvents()
	texts := source.TextEvents()
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-files:
			if !ok {
				files = nil
				continue
			}
			d.HandleFileEvent(ctx, ev)
		case ev, ok := <-texts:
			if !ok {
				texts = nil
				continue
			}
			d.HandleTextEvent(ctx, ev)
		}
		if files == nil && texts == nil {
			return
		}
	}
}

func (d *Daemon) process(ctx context.Context, task *downloader.Task) {
	defer d.disown(task.DestPath())
	d.pipeline.Process(ctx, task)
	switch task.State() {
	case downloader.StatePlaced, downloader.StateFallbackManual:
		snap := task.Snapshot()
		d.collector.RecordSuccess(snap.Received, snap.Rate)
	case downloader.StateProcessingError:
		d.collector.RecordFailure()
	}
}

func (d *Daemon) observeOutcome(task *downloader.Task, state downloader.State) {
	switch state {
	case downloader.StateTimedOut:
		d.collector.RecordTimeout()
		d.disown(task.DestPath())
	case downloader.StateCancelled:
		d.collector.RecordCancellation()
		d.disown(task.DestPath())
	case downloader.StateFailed:
		d.collector.RecordFailure()
		d.disown(task.DestPath())
	}
}

// claim reserves a destination path for one transfer. Returns false when
// another transfer already holds it.
func (d *Daemon) claim(path string) bool {
	d.ownedMu.Lock()
	defer d.ownedMu.Unlock()
	if _, held := d.owned[path]; held {
		return false
	}
	d.owned[path] = struct{}{}
	return true
}

func (d *Daemon) disown(path string) {
	d.ownedMu.Lock()
	defer d.ownedMu.Unlock()
	delete(d.owned, path)
}

func (d *Daemon) isOwned(path string) bool {
	d.ownedMu.Lock()
	defer d.ownedMu.Unlock()
	_, held := d.owned[path]
	return held
}

// onManualFile handles files that appear in the download directory outside
// any transfer: they go through the same classification pipeline, and the
// first admin hears about the outcome.
func (d *Daemon) onManualFile(ctx context.Context) func(string) {
	return func(path string) {
		if d.isOwned(path) {
			return
		}
		if _, err := os.Stat(path); err != nil {
			return
		}
		d.logger.Info("file appeared in download directory", logging.String("path", path))

		state := d.pipeline.ProcessFile(ctx, path)
		switch state {
		case downloader.StatePlaced, downloader.StateFallbackManual:
			d.collector.RecordSuccess(0, 0)
		case downloader.StateProcessingError:
			d.collector.RecordFailure()
		}

		if len(d.cfg.Chat.AdminIDs) > 0 {
			d.send(ctx, d.cfg.Chat.AdminIDs[0], fmt.Sprintf(
				"Picked up %s from the download directory: %s.", filepath.Base(path), state))
		}
	}
}

// Status summarizes the daemon for the control API and CLI.
type Status struct {
	Running      bool                  `json:"running"`
	Draining     bool                  `json:"draining"`
	Active       []downloader.Snapshot `json:"active"`
	Queued       []downloader.Snapshot `json:"queued"`
	Stats        stats.Counters        `json:"stats"`
	DatabasePath string                `json:"database_path"`
	LockFilePath string                `json:"lock_file_path"`
}

// Status returns a point-in-time view of the daemon.
func (d *Daemon) Status() Status {
	active, queued := d.scheduler.Status()
	return Status{
		Running:      d.running.Load(),
		Draining:     d.scheduler.Draining(),
		Active:       active,
		Queued:       queued,
		Stats:        d.collector.Snapshot(),
		DatabasePath: d.cfg.DatabasePath(),
		LockFilePath: d.cfg.LockFilePath(),
	}
}

// Cancel forwards a cancellation to the scheduler.
func (d *Daemon) Cancel(transferID int64) bool {
	return d.scheduler.Cancel(transferID)
}

// Drain stops admissions and waits for in-flight work.
func (d *Daemon) Drain() {
	d.scheduler.Drain()
}

package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"shelve/internal/config"
	"shelve/internal/logging"
	"shelve/internal/services"
	"shelve/internal/transport"
)

// Admission is the outcome kind of a submit call.
type Admission int

const (
	// AdmissionStarted means the task entered the active set and its
	// download began.
	AdmissionStarted Admission = iota
	// AdmissionQueued means the task joined the FIFO queue.
	AdmissionQueued
	// AdmissionRejected means the scheduler is draining and accepted
	// nothing.
	AdmissionRejected
)

// SubmitResult reports how a task was admitted. Position is the 1-based
// queue position for queued tasks, zero otherwise.
type SubmitResult struct {
	Admission Admission
	Position  int
}

// ProcessFunc handles a completed download. It runs outside the admission
// slot so classification and placement never block other transfers.
type ProcessFunc func(ctx context.Context, task *Task)

// OutcomeFunc observes every download-phase outcome, including the ones that
// never reach processing. Used to feed the stats collaborator.
type OutcomeFunc func(task *Task, state State)

type activeEntry struct {
	task   *Task
	cancel context.CancelFunc
}

// Scheduler is the bounded-concurrency admission controller. A transfer id
// lives in at most one of the active set and the queue.
type Scheduler struct {
	cfg       *config.Config
	transport transport.Transport
	logger    *slog.Logger
	process   ProcessFunc
	outcome   OutcomeFunc

	mu       sync.Mutex
	active   map[int64]*activeEntry
	queue    []*Task
	draining bool

	rootCtx    context.Context
	rootCancel context.CancelFunc
	wg         sync.WaitGroup
}

// NewScheduler creates a scheduler. process may be nil when completed
// downloads need no further handling (tests, dry runs).
func NewScheduler(cfg *config.Config, tr transport.Transport, logger *slog.Logger, process ProcessFunc) *Scheduler {
	if logger == nil {
		logger = logging.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		cfg:        cfg,
		transport:  tr,
		logger:     logger.With(logging.String(logging.FieldComponent, "scheduler")),
		process:    process,
		active:     make(map[int64]*activeEntry),
		rootCtx:    ctx,
		rootCancel: cancel,
	}
}

// SetOutcomeFunc installs the outcome observer. Must be called before any
// submit.
func (s *Scheduler) SetOutcomeFunc(fn OutcomeFunc) { s.outcome = fn }

// Submit admits the task immediately when a slot is free, queues it
// otherwise, and rejects it while draining. Duplicate transfer ids are
// rejected.
func (s *Scheduler) Submit(task *Task) SubmitResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.draining {
		return SubmitResult{Admission: AdmissionRejected}
	}
	if s.knownLocked(task.ID()) {
		return SubmitResult{Admission: AdmissionRejected}
	}

	if len(s.active) < s.cfg.Downloads.MaxConcurrent {
		s.startLocked(task)
		return SubmitResult{Admission: AdmissionStarted}
	}

	s.queue = append(s.queue, task)
	position := len(s.queue)
	s.logger.Info("task queued",
		logging.Int64(logging.FieldTransferID, task.ID()),
		logging.Int("position", position))
	return SubmitResult{Admission: AdmissionQueued, Position: position}
}

// Cancel stops the task with the given transfer id. Cancelling an active
// task frees its slot and promotes the queue head; cancelling a queued task
// splices it out without touching active work. Returns false for unknown ids.
func (s *Scheduler) Cancel(transferID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.active[transferID]; ok {
		entry.task.Cancel()
		entry.cancel()
		// Slot release and promotion happen when the download unwinds.
		return true
	}

	for i, task := range s.queue {
		if task.ID() == transferID {
			s.queue = append(s.queue[:i], s.queue[i+1:]...)
			task.Cancel()
			task.SetState(StateCancelled)
			if s.outcome != nil {
				s.outcome(task, StateCancelled)
			}
			s.logger.Info("queued task cancelled",
				logging.Int64(logging.FieldTransferID, transferID))
			return true
		}
	}
	return false
}

// Status returns a point-in-time snapshot of active and queued tasks. Queued
// snapshots carry their 1-based position.
func (s *Scheduler) Status() (active, queued []Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	active = make([]Snapshot, 0, len(s.active))
	for _, entry := range s.active {
		active = append(active, entry.task.Snapshot())
	}
	queued = make([]Snapshot, 0, len(s.queue))
	for i, task := range s.queue {
		snap := task.Snapshot()
		snap.QueuePosition = i + 1
		queued = append(queued, snap)
	}
	return active, queued
}

// Draining reports whether the scheduler has stopped admitting work.
func (s *Scheduler) Draining() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draining
}

// ActiveCount returns the size of the active set.
func (s *Scheduler) ActiveCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.active)
}

// QueueLength returns the number of queued tasks.
func (s *Scheduler) QueueLength() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.queue)
}

// Drain stops admissions, waits up to the configured drain timeout for
// in-flight and queued work to finish, then force-cancels stragglers and
// waits for their downloads to unwind.
func (s *Scheduler) Drain() {
	s.mu.Lock()
	s.draining = true
	s.mu.Unlock()
	s.logger.Info("draining, no new admissions")

	deadline := time.NewTimer(s.cfg.DrainTimeout())
	defer deadline.Stop()
	tick := time.NewTicker(50 * time.Millisecond)
	defer tick.Stop()

	for {
		s.mu.Lock()
		idle := len(s.active) == 0 && len(s.queue) == 0
		s.mu.Unlock()
		if idle {
			break
		}
		select {
		case <-deadline.C:
			s.forceCancel()
		case <-tick.C:
		}
	}

	s.wg.Wait()
	s.rootCancel()
	s.logger.Info("drain complete")
}

func (s *Scheduler) forceCancel() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, task := range s.queue {
		task.Cancel()
		task.SetState(StateCancelled)
		if s.outcome != nil {
			s.outcome(task, StateCancelled)
		}
	}
	s.queue = nil
	for id, entry := range s.active {
		s.logger.Warn("force-cancelling straggler",
			logging.Int64(logging.FieldTransferID, id))
		entry.task.Cancel()
		entry.cancel()
	}
}

func (s *Scheduler) knownLocked(transferID int64) bool {
	if _, ok := s.active[transferID]; ok {
		return true
	}
	for _, task := range s.queue {
		if task.ID() == transferID {
			return true
		}
	}
	return false
}

// startLocked moves the task into the active set and launches its download.
// Caller holds the lock.
func (s *Scheduler) startLocked(task *Task) {
	ctx, cancel := context.WithCancel(s.rootCtx)
	s.active[task.ID()] = &activeEntry{task: task, cancel: cancel}
	s.wg.Add(1)

	s.logger.Info("task admitted",
		logging.Int64(logging.FieldTransferID, task.ID()),
		logging.String("filename", task.Filename()),
		logging.Bool("large", task.Large()))

	go s.run(ctx, cancel, task)
}

func (s *Scheduler) run(ctx context.Context, cancel context.CancelFunc, task *Task) {
	defer s.wg.Done()
	defer cancel()

	ctx = services.WithCorrelationID(services.WithTransferID(ctx, task.ID()), task.CorrelationID())
	notify := newNotifier(s.transport, s.logger, task.ChatID(), s.cfg.ProgressInterval(task.Large()))
	state := task.download(ctx, s.transport, notify, s.cfg.MaxDownloadDuration())

	s.release(task)
	if s.outcome != nil {
		s.outcome(task, state)
	}

	switch state {
	case StateCompleted:
		notify.finish(s.rootCtx, fmt.Sprintf("Download complete: %s", task.Filename()))
		if s.process != nil {
			s.process(s.rootCtx, task)
		}
	case StateCancelled:
		notify.finish(s.rootCtx, fmt.Sprintf("Download cancelled: %s", task.Filename()))
	case StateTimedOut:
		notify.finish(s.rootCtx, fmt.Sprintf("Download timed out: %s", task.Filename()))
	case StateFailed:
		notify.finish(s.rootCtx, fmt.Sprintf("Download failed: %s", task.Filename()))
	}
}

// release frees the task's slot and promotes queued work until the active
// set is full or the queue is empty.
func (s *Scheduler) release(task *Task) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.active, task.ID())
	for len(s.active) < s.cfg.Downloads.MaxConcurrent && len(s.queue) > 0 {
		next := s.queue[0]
		s.queue = s.queue[1:]
		if next.Cancelled() {
			continue
		}
		s.logger.Info("promoting queued task",
			logging.Int64(logging.FieldTransferID, next.ID()))
		s.startLocked(next)
	}
}

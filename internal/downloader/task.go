package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"shelve/internal/services"
	"shelve/internal/transport"
)

// State is a download task lifecycle state.
type State string

const (
	StateQueued          State = "queued"
	StateDownloading     State = "downloading"
	StateTimedOut        State = "timed_out"
	StateCancelled       State = "cancelled"
	StateFailed          State = "failed"
	StateCompleted       State = "completed"
	StateProcessing      State = "processing"
	StatePlaced          State = "placed"
	StateFallbackManual  State = "fallback_manual"
	StateProcessingError State = "processing_error"
)

// DownloadFinished reports whether the state ends the download phase, freeing
// the task's admission slot.
func (s State) DownloadFinished() bool {
	switch s {
	case StateTimedOut, StateCancelled, StateFailed, StateCompleted:
		return true
	}
	return false
}

// Terminal reports whether the state ends the task's whole lifecycle.
func (s State) Terminal() bool {
	switch s {
	case StateTimedOut, StateCancelled, StateFailed,
		StatePlaced, StateFallbackManual, StateProcessingError:
		return true
	}
	return false
}

// Progress is a task's accumulated transfer progress. Rate is the
// instantaneous transfer speed in bytes per second.
type Progress struct {
	Received int64
	Total    int64
	Percent  float64
	Rate     float64
}

// Snapshot is a point-in-time copy of a task for display.
type Snapshot struct {
	TransferID    int64     `json:"transfer_id"`
	Filename      string    `json:"filename"`
	Size          int64     `json:"size"`
	Large         bool      `json:"large"`
	State         State     `json:"state"`
	Received      int64     `json:"received"`
	Percent       float64   `json:"percent"`
	Rate          float64   `json:"rate"`
	QueuePosition int       `json:"queue_position"`
	RequesterID   int64     `json:"requester_id"`
	StartedAt     time.Time `json:"started_at,omitzero"`
	EndedAt       time.Time `json:"ended_at,omitzero"`
	CorrelationID string    `json:"correlation_id"`
}

// Task owns one file transfer's lifecycle from queued to a terminal state.
// The size class is fixed at creation; the cancelled flag is monotonic.
type Task struct {
	mu sync.Mutex

	event         transport.FileEvent
	large         bool
	destPath      string
	correlationID string

	state     State
	cancelled bool
	progress  Progress
	startedAt time.Time
	endedAt   time.Time

	lastReceived int64
	lastAt       time.Time

	now func() time.Time
}

// NewTask creates a queued task for the inbound file event. Files above the
// large threshold are classed large for the lifetime of the task.
func NewTask(event transport.FileEvent, largeThreshold int64, downloadDir string) *Task {
	name := filepath.Base(event.Filename)
	if name == "" || name == "." || name == string(filepath.Separator) {
		name = fmt.Sprintf("transfer_%d.bin", event.TransferID)
	}
	return &Task{
		event:         event,
		large:         largeThreshold > 0 && event.Size > largeThreshold,
		destPath:      filepath.Join(downloadDir, name),
		correlationID: uuid.NewString(),
		state:         StateQueued,
		progress:      Progress{Total: event.Size},
		now:           time.Now,
	}
}

// ID returns the transfer id.
func (t *Task) ID() int64 { return t.event.TransferID }

// ChatID returns the chat the transfer originated from.
func (t *Task) ChatID() int64 { return t.event.ChatID }

// RequesterID returns the requesting user's id.
func (t *Task) RequesterID() int64 { return t.event.RequesterID }

// Filename returns the declared filename.
func (t *Task) Filename() string { return filepath.Base(t.destPath) }

// DestPath returns the download destination path.
func (t *Task) DestPath() string { return t.destPath }

// Large reports the task's size class.
func (t *Task) Large() bool { return t.large }

// CorrelationID returns the id tying the task's log lines together.
func (t *Task) CorrelationID() string { return t.correlationID }

// State returns the current lifecycle state.
func (t *Task) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// SetState transitions the task. Callers own transition legality.
func (t *Task) SetState(s State) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.state = s
	if s.Terminal() || s == StateCompleted {
		t.endedAt = t.now()
	}
}

// Cancel sets the monotonic cancellation flag. The running download observes
// it on its next progress callback.
func (t *Task) Cancel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cancelled = true
}

// Cancelled reports whether cancellation was requested.
func (t *Task) Cancelled() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cancelled
}

// Snapshot copies the task's current state for display.
func (t *Task) Snapshot() Snapshot {
	t.mu.Lock()
	defer t.mu.Unlock()
	return Snapshot{
		TransferID:    t.event.TransferID,
		Filename:      filepath.Base(t.destPath),
		Size:          t.event.Size,
		Large:         t.large,
		State:         t.state,
		Received:      t.progress.Received,
		Percent:       t.progress.Percent,
		Rate:          t.progress.Rate,
		RequesterID:   t.event.RequesterID,
		StartedAt:     t.startedAt,
		EndedAt:       t.endedAt,
		CorrelationID: t.correlationID,
	}
}

// Progress returns the accumulated transfer progress.
func (t *Task) Progress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.progress
}

func (t *Task) recordProgress(received, total int64) {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if total <= 0 {
		total = t.event.Size
	}
	t.progress.Received = received
	t.progress.Total = total
	if total > 0 {
		t.progress.Percent = float64(received) / float64(total) * 100
	}
	if !t.lastAt.IsZero() {
		if elapsed := now.Sub(t.lastAt).Seconds(); elapsed > 0 {
			t.progress.Rate = float64(received-t.lastReceived) / elapsed
		}
	}
	t.lastReceived = received
	t.lastAt = now
}

// download runs the download phase to one of its four outcomes. Timeout and
// cancellation delete the partial file; a plain failure leaves it for
// inspection.
func (t *Task) download(ctx context.Context, tr transport.Transport, notify *notifier, timeout time.Duration) State {
	t.mu.Lock()
	t.state = StateDownloading
	t.startedAt = t.now()
	t.lastAt = t.startedAt
	t.mu.Unlock()

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	err := tr.Download(ctx, t.event.TransferID, t.destPath, func(received, total int64) error {
		if t.Cancelled() {
			return services.Wrap(services.ErrCancelled, "download", "progress", t.Filename(), nil)
		}
		t.recordProgress(received, total)
		if notify != nil {
			notify.maybeNotify(ctx, t)
		}
		return nil
	})

	switch {
	case err == nil:
		t.SetState(StateCompleted)
		return StateCompleted
	case errors.Is(ctx.Err(), context.DeadlineExceeded):
		t.removePartial()
		t.SetState(StateTimedOut)
		return StateTimedOut
	case errors.Is(err, services.ErrCancelled) || t.Cancelled():
		t.removePartial()
		t.SetState(StateCancelled)
		return StateCancelled
	default:
		t.SetState(StateFailed)
		return StateFailed
	}
}

func (t *Task) removePartial() {
	_ = os.Remove(t.destPath)
}

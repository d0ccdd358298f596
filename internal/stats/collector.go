package stats

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"shelve/internal/logging"
	"shelve/internal/store"
)

// GlobalScope is the stats row key for daemon-wide counters.
const GlobalScope = "global"

const speedWindow = 20

// Counters is the persisted aggregate shape.
type Counters struct {
	FilesHandled    int64     `json:"files_handled"`
	Succeeded       int64     `json:"succeeded"`
	Failed          int64     `json:"failed"`
	Cancelled       int64     `json:"cancelled"`
	TimedOut        int64     `json:"timed_out"`
	BytesDownloaded int64     `json:"bytes_downloaded"`
	PeakConcurrent  int       `json:"peak_concurrent"`
	AvgSpeed        float64   `json:"avg_speed_bytes_sec"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Collector accumulates transfer outcome counters in memory and flushes them
// to the document store. Loss of at most one flush interval on crash is
// acceptable.
type Collector struct {
	store  *store.Store
	logger *slog.Logger

	mu       sync.Mutex
	counters Counters
	speeds   []float64
	dirty    bool
}

// NewCollector creates a collector, seeding counters from any previously
// persisted row.
func NewCollector(ctx context.Context, st *store.Store, logger *slog.Logger) *Collector {
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Collector{
		store:  st,
		logger: logger.With(logging.String(logging.FieldComponent, "stats")),
	}
	if st != nil {
		if _, err := st.LoadStats(ctx, GlobalScope, &c.counters); err != nil {
			c.logger.Warn("loading persisted stats failed", logging.Error(err))
		}
	}
	return c
}

// RecordSuccess counts a completed download.
func (c *Collector) RecordSuccess(bytes int64, speed float64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters.FilesHandled++
	c.counters.Succeeded++
	c.counters.BytesDownloaded += bytes
	if speed > 0 {
		c.speeds = append(c.speeds, speed)
		if len(c.speeds) > speedWindow {
			c.speeds = c.speeds[len(c.speeds)-speedWindow:]
		}
		c.counters.AvgSpeed = average(c.speeds)
	}
	c.dirty = true
}

// RecordFailure counts a failed download.
func (c *Collector) RecordFailure() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters.FilesHandled++
	c.counters.Failed++
	c.dirty = true
}

// RecordTimeout counts a timed-out download.
func (c *Collector) RecordTimeout() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters.FilesHandled++
	c.counters.TimedOut++
	c.dirty = true
}

// RecordCancellation counts a cancelled download.
func (c *Collector) RecordCancellation() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.counters.FilesHandled++
	c.counters.Cancelled++
	c.dirty = true
}

// ObserveConcurrency tracks the peak size of the active set.
func (c *Collector) ObserveConcurrency(active int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if active > c.counters.PeakConcurrent {
		c.counters.PeakConcurrent = active
		c.dirty = true
	}
}

// Snapshot returns a copy of the current counters.
func (c *Collector) Snapshot() Counters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.counters
}

// Flush persists the counters when anything changed since the last flush.
func (c *Collector) Flush(ctx context.Context) error {
	c.mu.Lock()
	if !c.dirty || c.store == nil {
		c.mu.Unlock()
		return nil
	}
	c.counters.UpdatedAt = time.Now().UTC()
	snapshot := c.counters
	c.dirty = false
	c.mu.Unlock()

	if err := c.store.UpsertStats(ctx, GlobalScope, snapshot); err != nil {
		c.mu.Lock()
		c.dirty = true
		c.mu.Unlock()
		return err
	}
	return nil
}

func average(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

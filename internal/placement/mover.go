package placement

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"shelve/internal/logging"
	"shelve/internal/services"
)

const (
	moveAttempts = 3
	moveBaseWait = time.Second
	moveMaxWait  = 10 * time.Second
)

// Mover relocates files into resolved targets, creating directories on
// demand and never overwriting an existing destination.
type Mover struct {
	logger *slog.Logger
	now    func() time.Time
	sleep  func(context.Context, time.Duration) error
}

// NewMover creates a mover.
func NewMover(logger *slog.Logger) *Mover {
	if logger == nil {
		logger = slog.Default()
	}
	return &Mover{
		logger: logger.With(logging.String(logging.FieldComponent, "mover")),
		now:    time.Now,
		sleep:  sleepContext,
	}
}

// Place moves src into the target, returning the final destination path. If
// the destination already exists the filename gains a timestamp suffix so the
// existing file is left untouched. The move itself is retried with backoff;
// rename and copy are idempotent against a fresh destination.
func (m *Mover) Place(ctx context.Context, src string, target Target) (string, error) {
	if err := os.MkdirAll(target.Dir, 0o755); err != nil {
		return "", services.Wrap(services.ErrProcessing, "place", "mkdir", target.Dir, err)
	}

	dest := target.Path()
	if _, err := os.Stat(dest); err == nil {
		dest = m.conflictPath(dest)
		m.logger.Warn("destination exists, using suffixed name",
			logging.String("destination", dest))
	}

	var lastErr error
	for attempt := 1; attempt <= moveAttempts; attempt++ {
		if lastErr = moveFile(src, dest); lastErr == nil {
			m.logger.Info("file placed",
				logging.String("source", src),
				logging.String("destination", dest))
			return dest, nil
		}
		if attempt == moveAttempts {
			break
		}
		wait := backoff(attempt)
		m.logger.Warn("move failed, retrying",
			logging.Int("attempt", attempt),
			logging.Duration("wait", wait),
			logging.Error(lastErr))
		if err := m.sleep(ctx, wait); err != nil {
			return "", services.Wrap(services.ErrCancelled, "place", "move", src, err)
		}
	}
	return "", services.Wrap(services.ErrProcessing, "place", "move",
		fmt.Sprintf("%s -> %s", src, dest), lastErr)
}

// conflictPath appends a timestamp suffix before the extension. In the
// unlikely case the suffixed path also exists, a counter disambiguates.
func (m *Mover) conflictPath(dest string) string {
	ext := filepath.Ext(dest)
	stem := strings.TrimSuffix(dest, ext)
	stamp := m.now().Format("20060102-150405")

	candidate := fmt.Sprintf("%s_%s%s", stem, stamp, ext)
	for n := 1; ; n++ {
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate
		}
		candidate = fmt.Sprintf("%s_%s-%d%s", stem, stamp, n, ext)
	}
}

func backoff(attempt int) time.Duration {
	wait := moveBaseWait << (attempt - 1)
	if wait > moveMaxWait {
		wait = moveMaxWait
	}
	return wait
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// moveFile renames src to dest, falling back to copy-and-remove when the
// rename crosses filesystems.
func moveFile(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	} else if !isCrossDevice(err) {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dest)
		return err
	}
	if err := out.Close(); err != nil {
		os.Remove(dest)
		return err
	}
	return os.Remove(src)
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}

package testsupport

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"shelve/internal/transport"
)

// FakeTransport is an in-memory chat transport for tests. Downloads write
// PayloadSize zero bytes to the destination in Chunks steps, invoking the
// progress callback after each step.
type FakeTransport struct {
	PayloadSize int64
	Chunks      int
	StepDelay   time.Duration
	DownloadErr error

	mu       sync.Mutex
	nextID   int64
	messages []string
	edits    []string
	deleted  []int64
}

// NewFakeTransport returns a transport that delivers a small two-chunk
// payload instantly.
func NewFakeTransport() *FakeTransport {
	return &FakeTransport{PayloadSize: 2048, Chunks: 2}
}

func (f *FakeTransport) Download(ctx context.Context, transferID int64, destPath string, progress transport.ProgressFunc) error {
	if f.DownloadErr != nil {
		return f.DownloadErr
	}
	chunks := f.Chunks
	if chunks < 1 {
		chunks = 1
	}
	chunkSize := f.PayloadSize / int64(chunks)

	file, err := os.Create(destPath)
	if err != nil {
		return err
	}
	defer file.Close()

	var written int64
	for i := 0; i < chunks; i++ {
		if f.StepDelay > 0 {
			select {
			case <-time.After(f.StepDelay):
			case <-ctx.Done():
				return ctx.Err()
			}
		} else if err := ctx.Err(); err != nil {
			return err
		}

		size := chunkSize
		if i == chunks-1 {
			size = f.PayloadSize - written
		}
		if _, err := file.Write(make([]byte, size)); err != nil {
			return err
		}
		written += size

		if progress != nil {
			if err := progress(written, f.PayloadSize); err != nil {
				return fmt.Errorf("progress aborted: %w", err)
			}
		}
	}
	return nil
}

func (f *FakeTransport) SendMessage(_ context.Context, chatID int64, text string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.messages = append(f.messages, text)
	return f.nextID, nil
}

func (f *FakeTransport) EditMessage(_ context.Context, chatID, messageID int64, text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.edits = append(f.edits, text)
	return nil
}

func (f *FakeTransport) DeleteMessage(_ context.Context, chatID, messageID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, messageID)
	return nil
}

// SentMessages returns a snapshot of every message sent so far.
func (f *FakeTransport) SentMessages() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.messages...)
}

// Edits returns a snapshot of every message edit so far.
func (f *FakeTransport) Edits() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string{}, f.edits...)
}

var _ transport.Transport = (*FakeTransport)(nil)

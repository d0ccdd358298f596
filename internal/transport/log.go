package transport

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"shelve/internal/logging"
)

// LogTransport is the stand-in transport used when no chat platform adapter
// is wired in: outbound messages go to the log and downloads are refused.
// The watcher-driven ingest path keeps the daemon useful without one.
type LogTransport struct {
	logger *slog.Logger

	mu     sync.Mutex
	nextID int64
}

// NewLogTransport builds a log-only transport.
func NewLogTransport(logger *slog.Logger) *LogTransport {
	return &LogTransport{logger: logger}
}

func (l *LogTransport) Download(ctx context.Context, transferID int64, destPath string, progress ProgressFunc) error {
	return errors.New("no chat platform adapter configured")
}

func (l *LogTransport) SendMessage(_ context.Context, chatID int64, text string) (int64, error) {
	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.mu.Unlock()
	l.logger.Info("outbound message",
		logging.Int64("chat_id", chatID),
		logging.String("text", text))
	return id, nil
}

func (l *LogTransport) EditMessage(_ context.Context, chatID, messageID int64, text string) error {
	l.logger.Debug("outbound edit",
		logging.Int64("chat_id", chatID),
		logging.Int64("message_id", messageID),
		logging.String("text", text))
	return nil
}

func (l *LogTransport) DeleteMessage(_ context.Context, chatID, messageID int64) error {
	return nil
}

var _ Transport = (*LogTransport)(nil)

package downloader

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dustin/go-humanize"

	"shelve/internal/logging"
	"shelve/internal/transport"
)

// notifier sends rate-limited progress updates to the requesting chat by
// editing a single status message. The first update always goes out so the
// requester sees the transfer has started; later updates respect the
// size-class interval.
type notifier struct {
	transport transport.Transport
	logger    *slog.Logger
	chatID    int64
	interval  time.Duration

	mu        sync.Mutex
	messageID int64
	lastSent  time.Time
	sentFirst bool

	now func() time.Time
}

func newNotifier(tr transport.Transport, logger *slog.Logger, chatID int64, interval time.Duration) *notifier {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &notifier{
		transport: tr,
		logger:    logger,
		chatID:    chatID,
		interval:  interval,
		now:       time.Now,
	}
}

func (n *notifier) maybeNotify(ctx context.Context, task *Task) {
	n.mu.Lock()
	now := n.now()
	due := !n.sentFirst || now.Sub(n.lastSent) >= n.interval
	if !due {
		n.mu.Unlock()
		return
	}
	n.sentFirst = true
	n.lastSent = now
	messageID := n.messageID
	n.mu.Unlock()

	text := formatProgress(task)
	if messageID == 0 {
		id, err := n.transport.SendMessage(ctx, n.chatID, text)
		if err != nil {
			n.logger.Warn("progress message failed", logging.Error(err))
			return
		}
		n.mu.Lock()
		n.messageID = id
		n.mu.Unlock()
		return
	}
	if err := n.transport.EditMessage(ctx, n.chatID, messageID, text); err != nil {
		n.logger.Warn("progress edit failed", logging.Error(err))
	}
}

// finish replaces the status message with a final line.
func (n *notifier) finish(ctx context.Context, text string) {
	n.mu.Lock()
	messageID := n.messageID
	n.mu.Unlock()

	if messageID == 0 {
		if _, err := n.transport.SendMessage(ctx, n.chatID, text); err != nil {
			n.logger.Warn("final message failed", logging.Error(err))
		}
		return
	}
	if err := n.transport.EditMessage(ctx, n.chatID, messageID, text); err != nil {
		n.logger.Warn("final edit failed", logging.Error(err))
	}
}

func formatProgress(task *Task) string {
	p := task.Progress()
	if p.Total <= 0 {
		return fmt.Sprintf("Downloading %s: %s received",
			task.Filename(), humanize.IBytes(uint64(p.Received)))
	}
	return fmt.Sprintf("Downloading %s: %.1f%% (%s of %s, %s/s)",
		task.Filename(),
		p.Percent,
		humanize.IBytes(uint64(p.Received)),
		humanize.IBytes(uint64(p.Total)),
		humanize.IBytes(uint64(p.Rate)))
}

package transport

import "context"

// FileEvent describes an inbound file announced by the chat platform. The
// transfer id maps one-to-one to the originating chat message.
type FileEvent struct {
	TransferID  int64
	ChatID      int64
	RequesterID int64
	Filename    string
	Size        int64
}

// TextEvent describes an inbound text or button reply from a user, consumed
// by the interactive dialogs.
type TextEvent struct {
	ChatID      int64
	RequesterID int64
	Text        string
}

// ProgressFunc receives transfer progress. Returning a non-nil error aborts
// the transfer; this is the cooperative cancellation contract.
type ProgressFunc func(received, total int64) error

// Source delivers inbound platform events to the daemon. Channels close
// when the platform connection ends.
type Source interface {
	FileEvents() <-chan FileEvent
	TextEvents() <-chan TextEvent
}

// Transport is the chat-platform surface the core consumes. Implementations
// own the wire protocol; the core treats every call as an opaque async
// operation.
type Transport interface {
	// Download fetches the transfer's payload into destPath, invoking
	// progress as bytes arrive.
	Download(ctx context.Context, transferID int64, destPath string, progress ProgressFunc) error

	// SendMessage posts a message to a chat and returns its message id.
	SendMessage(ctx context.Context, chatID int64, text string) (int64, error)

	// EditMessage replaces the text of a previously sent message.
	EditMessage(ctx context.Context, chatID, messageID int64, text string) error

	// DeleteMessage removes a previously sent message.
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
}

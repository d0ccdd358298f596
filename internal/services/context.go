package services

import "context"

type contextKey string

const (
	transferIDKey    contextKey = "transfer_id"
	stageKey         contextKey = "stage"
	correlationIDKey contextKey = "correlation_id"
)

// WithTransferID attaches a transfer identifier to the context.
func WithTransferID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, transferIDKey, id)
}

// TransferIDFromContext extracts the transfer identifier, if present.
func TransferIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(transferIDKey).(int64)
	return id, ok
}

// WithStage attaches a pipeline stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext extracts the pipeline stage name, if present.
func StageFromContext(ctx context.Context) (string, bool) {
	stage, ok := ctx.Value(stageKey).(string)
	return stage, ok
}

// WithCorrelationID attaches a correlation identifier to the context.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

// CorrelationIDFromContext extracts the correlation identifier, if present.
func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(correlationIDKey).(string)
	return id, ok
}

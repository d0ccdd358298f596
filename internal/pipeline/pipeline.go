package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"

	"shelve/internal/config"
	"shelve/internal/downloader"
	"shelve/internal/identify"
	"shelve/internal/logging"
	"shelve/internal/media"
	"shelve/internal/placement"
	"shelve/internal/services"
	"shelve/internal/store"
	"shelve/internal/transport"
)

// Pipeline carries a completed download through classification, the
// confidence gate, and placement.
type Pipeline struct {
	cfg        *config.Config
	classifier *identify.Classifier
	gate       identify.Gate
	resolver   *placement.Resolver
	mover      *placement.Mover
	store      *store.Store
	transport  transport.Transport
	audit      *auditLog
	logger     *slog.Logger
}

// New assembles the processing pipeline.
func New(cfg *config.Config, classifier *identify.Classifier, st *store.Store, tr transport.Transport, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Pipeline{
		cfg:        cfg,
		classifier: classifier,
		gate:       identify.NewGate(cfg.Confidence.LowThreshold, cfg.Confidence.HighThreshold),
		resolver:   placement.NewResolver(cfg),
		mover:      placement.NewMover(logger),
		store:      st,
		transport:  tr,
		audit:      &auditLog{path: cfg.AuditLogPath()},
		logger:     logger.With(logging.String(logging.FieldComponent, "pipeline")),
	}
}

// item is one file moving through the pipeline. Chat ids are zero for files
// that did not arrive through the transport; those produce no notifications.
type item struct {
	filename  string
	srcPath   string
	chatID    int64
	requester int64
}

// Process drives a completed task to its terminal state. Failures after a
// successful download never delete the file: it either stays in the download
// directory or the record says where it went.
func (p *Pipeline) Process(ctx context.Context, task *downloader.Task) {
	ctx = services.WithStage(services.WithTransferID(ctx, task.ID()), "processing")
	task.SetState(downloader.StateProcessing)
	state := p.run(ctx, item{
		filename:  task.Filename(),
		srcPath:   task.DestPath(),
		chatID:    task.ChatID(),
		requester: task.RequesterID(),
	})
	task.SetState(state)
}

// ProcessFile runs a file already on disk through the same classification and
// placement flow. Used for files that appear in the download directory
// outside any transfer.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) downloader.State {
	ctx = services.WithStage(ctx, "processing")
	return p.run(ctx, item{filename: filepath.Base(path), srcPath: path})
}

func (p *Pipeline) run(ctx context.Context, it item) downloader.State {
	logger := logging.WithContext(ctx, p.logger)

	result, err := p.classifier.Classify(ctx, it.filename)
	switch {
	case errors.Is(err, services.ErrUnidentified):
		logger.Info("file unidentifiable, routing to fallback", logging.Error(err))
		return p.fallback(ctx, it, logger, fmt.Sprintf("Could not identify %s", it.filename))
	case err != nil:
		return p.fail(ctx, it, logger, "classify", err)
	}

	if result.Category == identify.CategoryUnknown {
		logger.Info("no provider match, routing to fallback",
			logging.String("title", result.ParsedTitle))
		return p.fallback(ctx, it, logger, fmt.Sprintf("No metadata match for %s", it.filename))
	}

	score := p.gate.Score(result.ParsedTitle, result.ProviderTitle)
	decision := p.gate.Decide(score)
	logger.Info("confidence gate",
		logging.String("parsed", result.ParsedTitle),
		logging.String("provider", result.ProviderTitle),
		logging.Float64("score", score),
		logging.String("decision", decision.String()))

	if decision == identify.DecisionReject {
		if err := p.audit.append(it.filename, result.ParsedTitle, result.ProviderTitle, score); err != nil {
			logger.Warn("audit log append failed", logging.Error(err))
		}
		return p.fallback(ctx, it, logger, fmt.Sprintf(
			"Low confidence match for %s (%.2f)", it.filename, score))
	}

	target := p.resolver.Resolve(result, decision, it.filename)
	finalPath, err := p.mover.Place(ctx, it.srcPath, target)
	if err != nil {
		return p.fail(ctx, it, logger, "place", err)
	}

	rec := &store.OrganizedRecord{
		Path:        finalPath,
		Title:       recordTitle(result),
		Category:    string(result.Category),
		Year:        result.Year,
		Season:      result.Season,
		Episode:     result.Episode,
		Resolution:  media.DetectResolution(it.filename),
		OrganizedBy: it.requester,
		Method:      "auto",
	}
	if err := p.store.InsertOrganized(ctx, rec); err != nil {
		// The file is already in the library; the record is best effort.
		logger.Warn("placement record failed", logging.Error(err))
	}

	logger.Info("file placed", logging.String("path", finalPath))
	p.notify(ctx, it, fmt.Sprintf("Placed %s in the library.", target.FileName))
	return downloader.StatePlaced
}

// fallback moves the file unmodified into the fallback directory for manual
// handling and tells the requester why it ended up there.
func (p *Pipeline) fallback(ctx context.Context, it item, logger *slog.Logger, reason string) downloader.State {
	target := p.resolver.ResolveFallback(it.filename)
	if _, err := p.mover.Place(ctx, it.srcPath, target); err != nil {
		return p.fail(ctx, it, logger, "fallback-move", err)
	}
	p.notify(ctx, it, fmt.Sprintf("%s; moved to %s for manual handling.",
		reason, p.cfg.Library.OtherDir))
	return downloader.StateFallbackManual
}

// fail records a processing error and tells the requester. The downloaded
// file stays where it is.
func (p *Pipeline) fail(ctx context.Context, it item, logger *slog.Logger, stage string, err error) downloader.State {
	logger.Error("processing failed",
		logging.String("stage", stage),
		logging.Error(err))
	if dbErr := p.store.InsertError(ctx, it.filename, stage, err.Error()); dbErr != nil {
		logger.Warn("error record failed", logging.Error(dbErr))
	}
	p.notify(ctx, it, fmt.Sprintf(
		"Processing failed for %s (%s); the file was left in the download directory.",
		it.filename, stage))
	return downloader.StateProcessingError
}

func (p *Pipeline) notify(ctx context.Context, it item, text string) {
	if it.chatID == 0 {
		return
	}
	if _, err := p.transport.SendMessage(ctx, it.chatID, text); err != nil {
		p.logger.Warn("notification failed", logging.Error(err))
	}
}

func recordTitle(c *identify.Classification) string {
	if c.ProviderTitle != "" {
		return c.ProviderTitle
	}
	return c.ParsedTitle
}

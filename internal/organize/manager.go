package organize

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"

	"shelve/internal/config"
	"shelve/internal/identify"
	"shelve/internal/logging"
	"shelve/internal/media"
	"shelve/internal/placement"
	"shelve/internal/services"
	"shelve/internal/session"
	"shelve/internal/store"
	"shelve/internal/transport"
)

// Dialog step names, stored in the session.
const (
	stepSelectFile     = "select_file"
	stepChooseCategory = "choose_category"
	stepAskTitle       = "ask_title"
	stepAskYear        = "ask_year"
	stepAskSeason      = "ask_season"
	stepAskEpisode     = "ask_episode"
	stepBulkConfirm    = "bulk_confirm"
)

const cancelWord = "cancel"

// Manager drives the interactive organize and bulk propagation dialogs.
type Manager struct {
	cfg       *config.Config
	store     *store.Store
	sessions  *session.Store
	transport transport.Transport
	mover     *placement.Mover
	logger    *slog.Logger
}

// NewManager creates a dialog manager.
func NewManager(cfg *config.Config, st *store.Store, sessions *session.Store, tr transport.Transport, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		cfg:       cfg,
		store:     st,
		sessions:  sessions,
		transport: tr,
		mover:     placement.NewMover(logger),
		logger:    logger.With(logging.String(logging.FieldComponent, "organize")),
	}
}

// Start opens an organize dialog for the user: scan for candidates, present
// the numbered list, and wait for a selection.
func (m *Manager) Start(ctx context.Context, chatID, userID int64) error {
	candidates, err := m.Candidates(ctx)
	if err != nil {
		return services.Wrap(services.ErrProcessing, "organize", "scan", "", err)
	}
	if len(candidates) == 0 {
		m.send(ctx, chatID, "No files waiting to be organized.")
		return nil
	}

	m.sessions.Create(userID, session.KindOrganize, stepSelectFile, map[string]any{
		"chat_id":    chatID,
		"candidates": candidates,
	})

	var b strings.Builder
	b.WriteString("Reply with the number of the file to organize (or \"cancel\"):\n")
	for i, path := range candidates {
		fmt.Fprintf(&b, "%d. %s\n", i+1, filepath.Base(path))
	}
	m.send(ctx, chatID, b.String())
	return nil
}

// HandleText feeds one inbound message into the owner's dialog. Returns
// false when the user has no live session, so the caller can route the
// message elsewhere.
func (m *Manager) HandleText(ctx context.Context, ev transport.TextEvent) bool {
	sess := m.sessions.Get(ev.RequesterID)
	if sess == nil {
		return false
	}

	text := strings.TrimSpace(ev.Text)
	if strings.EqualFold(text, cancelWord) {
		m.sessions.Clear(ev.RequesterID)
		m.send(ctx, ev.ChatID, "Dialog cancelled.")
		return true
	}

	switch sess.Step {
	case stepSelectFile:
		m.handleSelectFile(ctx, ev, sess, text)
	case stepChooseCategory:
		m.handleChooseCategory(ctx, ev, text)
	case stepAskTitle:
		m.handleAskTitle(ctx, ev, text)
	case stepAskYear:
		m.handleAskYear(ctx, ev, sess, text)
	case stepAskSeason:
		m.handleAskSeason(ctx, ev, text)
	case stepAskEpisode:
		m.handleAskEpisode(ctx, ev, sess, text)
	case stepBulkConfirm:
		m.handleBulkConfirm(ctx, ev, sess, text)
	default:
		m.sessions.Clear(ev.RequesterID)
		m.send(ctx, ev.ChatID, "Dialog state lost; start over.")
	}
	return true
}

func (m *Manager) handleSelectFile(ctx context.Context, ev transport.TextEvent, sess *session.Session, text string) {
	candidates, _ := sess.Data["candidates"].([]string)
	index, err := strconv.Atoi(text)
	if err != nil || index < 1 || index > len(candidates) {
		m.send(ctx, ev.ChatID, fmt.Sprintf("Pick a number between 1 and %d.", len(candidates)))
		return
	}
	file := candidates[index-1]
	resolution := media.DetectResolution(filepath.Base(file))

	if m.sessions.Update(ev.RequesterID, stepChooseCategory, map[string]any{
		"file":       file,
		"resolution": resolution,
	}) == nil {
		m.send(ctx, ev.ChatID, "Dialog expired; start over.")
		return
	}
	m.send(ctx, ev.ChatID, fmt.Sprintf(
		"Selected %s (detected resolution: %s).\nCategory? (movie / tv / anime)",
		filepath.Base(file), resolution))
}

func (m *Manager) handleChooseCategory(ctx context.Context, ev transport.TextEvent, text string) {
	category := strings.ToLower(text)
	switch category {
	case "movie", "tv", "anime":
	default:
		m.send(ctx, ev.ChatID, "Category must be movie, tv, or anime.")
		return
	}

	sess := m.sessions.Update(ev.RequesterID, stepAskTitle, map[string]any{
		"category": category,
	})
	if sess == nil {
		m.send(ctx, ev.ChatID, "Dialog expired; start over.")
		return
	}
	guess := media.ParseFilename(filepath.Base(sessString(sess, "file"))).Title
	if guess != "" {
		m.send(ctx, ev.ChatID, fmt.Sprintf("Title? (suggestion: %s)", guess))
		return
	}
	m.send(ctx, ev.ChatID, "Title?")
}

func (m *Manager) handleAskTitle(ctx context.Context, ev transport.TextEvent, text string) {
	if text == "" {
		m.send(ctx, ev.ChatID, "Title must not be empty.")
		return
	}
	sess := m.sessions.Update(ev.RequesterID, "", map[string]any{"title": text})
	if sess == nil {
		m.send(ctx, ev.ChatID, "Dialog expired; start over.")
		return
	}
	if sessString(sess, "category") == "movie" {
		m.sessions.Update(ev.RequesterID, stepAskYear, nil)
		m.send(ctx, ev.ChatID, "Year? (or \"-\" to skip)")
		return
	}
	m.sessions.Update(ev.RequesterID, stepAskSeason, nil)
	m.send(ctx, ev.ChatID, "Season number?")
}

func (m *Manager) handleAskYear(ctx context.Context, ev transport.TextEvent, sess *session.Session, text string) {
	year := 0
	if text != "-" {
		parsed, err := strconv.Atoi(text)
		if err != nil || parsed < 1880 || parsed > 2100 {
			m.send(ctx, ev.ChatID, "Year must be a four-digit number, or \"-\" to skip.")
			return
		}
		year = parsed
	}
	sess = m.sessions.Update(ev.RequesterID, "", map[string]any{"year": year})
	if sess == nil {
		m.send(ctx, ev.ChatID, "Dialog expired; start over.")
		return
	}
	m.finalize(ctx, ev, sess)
}

func (m *Manager) handleAskSeason(ctx context.Context, ev transport.TextEvent, text string) {
	season, err := strconv.Atoi(text)
	if err != nil || season < 0 {
		m.send(ctx, ev.ChatID, "Season must be a non-negative number.")
		return
	}
	if m.sessions.Update(ev.RequesterID, stepAskEpisode, map[string]any{"season": season}) == nil {
		m.send(ctx, ev.ChatID, "Dialog expired; start over.")
		return
	}
	m.send(ctx, ev.ChatID, "Episode number?")
}

func (m *Manager) handleAskEpisode(ctx context.Context, ev transport.TextEvent, sess *session.Session, text string) {
	episode, err := strconv.Atoi(text)
	if err != nil || episode < 1 {
		m.send(ctx, ev.ChatID, "Episode must be a positive number.")
		return
	}
	sess = m.sessions.Update(ev.RequesterID, "", map[string]any{"episode": episode})
	if sess == nil {
		m.send(ctx, ev.ChatID, "Dialog expired; start over.")
		return
	}
	m.finalize(ctx, ev, sess)
}

// finalize runs the sanitize/rename/move/record sequence with the
// user-supplied metadata. A failure is recorded and reported without
// touching the source file.
func (m *Manager) finalize(ctx context.Context, ev transport.TextEvent, sess *session.Session) {
	defer m.sessions.Clear(ev.RequesterID)

	file := sessString(sess, "file")
	classification := &identify.Classification{
		Category:      identify.Category(sessString(sess, "category")),
		ProviderTitle: sessString(sess, "title"),
		Year:          sessInt(sess, "year"),
		Season:        sessInt(sess, "season"),
		Episode:       sessInt(sess, "episode"),
	}
	if res := sessString(sess, "resolution"); res != "" && res != "Unknown" {
		classification.Resolution = res
	}

	resolver := placement.NewResolver(m.cfg)
	target := resolver.Resolve(classification, identify.DecisionRename, file)
	finalPath, err := m.mover.Place(ctx, file, target)
	if err != nil {
		m.logger.Error("manual placement failed", logging.Error(err))
		if dbErr := m.store.InsertError(ctx, filepath.Base(file), "finalize", err.Error()); dbErr != nil {
			m.logger.Warn("error record failed", logging.Error(dbErr))
		}
		m.send(ctx, ev.ChatID, fmt.Sprintf("Moving %s failed: %v. The file was not touched.", filepath.Base(file), err))
		return
	}

	rec := &store.OrganizedRecord{
		Path:        finalPath,
		Title:       classification.ProviderTitle,
		Category:    string(classification.Category),
		Year:        classification.Year,
		Season:      classification.Season,
		Episode:     classification.Episode,
		Resolution:  sessString(sess, "resolution"),
		OrganizedBy: ev.RequesterID,
		Method:      "manual",
	}
	if err := m.store.InsertOrganized(ctx, rec); err != nil {
		m.logger.Warn("placement record failed", logging.Error(err))
	}
	m.send(ctx, ev.ChatID, fmt.Sprintf("Moved to %s.", finalPath))
}

func (m *Manager) send(ctx context.Context, chatID int64, text string) {
	if _, err := m.transport.SendMessage(ctx, chatID, text); err != nil {
		m.logger.Warn("send failed", logging.Error(err))
	}
}

func sessString(sess *session.Session, key string) string {
	v, _ := sess.Data[key].(string)
	return v
}

func sessInt(sess *session.Session, key string) int {
	v, _ := sess.Data[key].(int)
	return v
}

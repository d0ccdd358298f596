package organize

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"shelve/internal/identify"
	"shelve/internal/logging"
	"shelve/internal/media"
	"shelve/internal/placement"
	"shelve/internal/services"
	"shelve/internal/session"
	"shelve/internal/store"
	"shelve/internal/textutil"
	"shelve/internal/transport"
)

const bulkTitleThreshold = 0.8

// BulkCandidate is one proposed propagation: a downloaded file that looks
// like a later episode of the reference series.
type BulkCandidate struct {
	Source  string
	Season  int
	Episode int
	Target  placement.Target
}

// BulkCandidates finds files in the download directory that continue the
// most recent manually placed series: same season, later episode, parsed
// title close to the reference title, not yet recorded. Sorted by episode.
func (m *Manager) BulkCandidates(ctx context.Context) (*store.OrganizedRecord, []BulkCandidate, error) {
	ref, err := m.store.LastManualEpisode(ctx)
	if err != nil {
		return nil, nil, services.Wrap(services.ErrProcessing, "bulk", "reference", "", err)
	}
	if ref == nil {
		return nil, nil, nil
	}

	destDir := filepath.Dir(ref.Path)
	var candidates []BulkCandidate
	err = filepath.WalkDir(m.cfg.Paths.DownloadDir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		name := d.Name()
		if !media.IsMediaFile(name) {
			return nil
		}
		hints := media.ParseFilename(name)
		if hints.Season != ref.Season || hints.Episode <= ref.Episode {
			return nil
		}
		if textutil.SimilarityRatio(hints.Title, ref.Title) < bulkTitleThreshold {
			return nil
		}
		organized, err := m.store.IsOrganized(ctx, name)
		if err != nil {
			return err
		}
		if organized {
			return nil
		}

		classification := &identify.Classification{
			Category:      identify.Category(ref.Category),
			ProviderTitle: ref.Title,
			Season:        hints.Season,
			Episode:       hints.Episode,
			Resolution:    hints.Resolution,
		}
		candidates = append(candidates, BulkCandidate{
			Source:  path,
			Season:  hints.Season,
			Episode: hints.Episode,
			Target: placement.Target{
				Dir:      destDir,
				FileName: placement.RenamedFileName(classification, name),
			},
		})
		return nil
	})
	if err != nil {
		return nil, nil, services.Wrap(services.ErrProcessing, "bulk", "scan", "", err)
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].Episode < candidates[j].Episode
	})
	return ref, candidates, nil
}

// StartBulk opens the bulk propagation dialog: candidates are offered one at
// a time, each confirmed or skipped before the next.
func (m *Manager) StartBulk(ctx context.Context, chatID, userID int64) error {
	ref, candidates, err := m.BulkCandidates(ctx)
	if err != nil {
		return err
	}
	if ref == nil {
		m.send(ctx, chatID, "No manually placed episode to propagate from.")
		return nil
	}
	if len(candidates) == 0 {
		m.send(ctx, chatID, fmt.Sprintf("No later episodes of %s found in the download directory.", ref.Title))
		return nil
	}

	m.sessions.Create(userID, session.KindBulk, stepBulkConfirm, map[string]any{
		"chat_id":    chatID,
		"reference":  ref,
		"candidates": candidates,
		"index":      0,
		"placed":     0,
	})
	m.offerBulkCandidate(ctx, chatID, candidates[0])
	return nil
}

func (m *Manager) offerBulkCandidate(ctx context.Context, chatID int64, c BulkCandidate) {
	m.send(ctx, chatID, fmt.Sprintf(
		"Episode %d: %s -> %s\nconfirm / skip / cancel?",
		c.Episode, filepath.Base(c.Source), c.Target.Path()))
}

func (m *Manager) handleBulkConfirm(ctx context.Context, ev transport.TextEvent, sess *session.Session, text string) {
	candidates, _ := sess.Data["candidates"].([]BulkCandidate)
	ref, _ := sess.Data["reference"].(*store.OrganizedRecord)
	index := sessInt(sess, "index")
	placed := sessInt(sess, "placed")
	if index >= len(candidates) || ref == nil {
		m.sessions.Clear(ev.RequesterID)
		m.send(ctx, ev.ChatID, "Dialog state lost; start over.")
		return
	}

	switch strings.ToLower(text) {
	case "confirm":
		candidate := candidates[index]
		if m.placeBulk(ctx, ev.RequesterID, ref, candidate) {
			placed++
		} else {
			m.send(ctx, ev.ChatID, fmt.Sprintf("Moving %s failed; skipping it.", filepath.Base(candidate.Source)))
		}
	case "skip":
		// Nothing placed, move on.
	default:
		m.send(ctx, ev.ChatID, "Reply confirm, skip, or cancel.")
		return
	}

	index++
	if index >= len(candidates) {
		m.sessions.Clear(ev.RequesterID)
		m.send(ctx, ev.ChatID, fmt.Sprintf("Bulk propagation finished: %d of %d placed.", placed, len(candidates)))
		return
	}
	m.sessions.Update(ev.RequesterID, stepBulkConfirm, map[string]any{
		"index":  index,
		"placed": placed,
	})
	m.offerBulkCandidate(ctx, ev.ChatID, candidates[index])
}

func (m *Manager) placeBulk(ctx context.Context, userID int64, ref *store.OrganizedRecord, c BulkCandidate) bool {
	finalPath, err := m.mover.Place(ctx, c.Source, c.Target)
	if err != nil {
		m.logger.Error("bulk placement failed", logging.Error(err))
		if dbErr := m.store.InsertError(ctx, filepath.Base(c.Source), "bulk", err.Error()); dbErr != nil {
			m.logger.Warn("error record failed", logging.Error(dbErr))
		}
		return false
	}

	rec := &store.OrganizedRecord{
		Path:        finalPath,
		Title:       ref.Title,
		Category:    ref.Category,
		Season:      c.Season,
		Episode:     c.Episode,
		Resolution:  media.DetectResolution(filepath.Base(c.Source)),
		OrganizedBy: userID,
		Method:      "auto",
	}
	if err := m.store.InsertOrganized(ctx, rec); err != nil {
		m.logger.Warn("placement record failed", logging.Error(err))
	}
	return true
}

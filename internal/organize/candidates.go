package organize

import (
	"context"
	"io/fs"
	"path/filepath"
	"sort"

	"shelve/internal/config"
	"shelve/internal/media"
	"shelve/internal/store"
)

// Candidates scans the download and fallback directories for media files
// that have no placement record yet, sorted by name for stable numbering.
func Candidates(ctx context.Context, cfg *config.Config, st *store.Store) ([]string, error) {
	var found []string
	for _, root := range []string{cfg.Paths.DownloadDir, cfg.OtherPath()} {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil || d.IsDir() {
				return err
			}
			if !media.IsMediaFile(d.Name()) {
				return nil
			}
			organized, err := st.IsOrganized(ctx, d.Name())
			if err != nil {
				return err
			}
			if !organized {
				found = append(found, path)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	sort.Strings(found)
	return found, nil
}

// Candidates lists the files the dialog can offer.
func (m *Manager) Candidates(ctx context.Context) ([]string, error) {
	return Candidates(ctx, m.cfg, m.store)
}

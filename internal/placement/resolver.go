package placement

import (
	"fmt"
	"path/filepath"

	"shelve/internal/config"
	"shelve/internal/identify"
	"shelve/internal/media"
	"shelve/internal/textutil"
)

// Target is a resolved library destination: the directory the file belongs in
// and the filename it should carry there.
type Target struct {
	Dir      string
	FileName string
}

// Path returns the full destination path.
func (t Target) Path() string { return filepath.Join(t.Dir, t.FileName) }

// Resolver computes canonical library destinations from classifications.
type Resolver struct {
	moviesDir string
	tvDir     string
	animeDir  string
	otherDir  string
}

// NewResolver creates a resolver rooted at the configured library directories.
func NewResolver(cfg *config.Config) *Resolver {
	return &Resolver{
		moviesDir: cfg.MoviesPath(),
		tvDir:     cfg.TVPath(),
		animeDir:  cfg.AnimePath(),
		otherDir:  cfg.OtherPath(),
	}
}

// Resolve maps a classification and gate decision to a destination. Rejected
// and unknown files go to the fallback directory under their original name.
// A keep-name decision places the file in its category directory without
// renaming; a rename decision synthesizes the library-style filename.
func (r *Resolver) Resolve(c *identify.Classification, decision identify.Decision, originalName string) Target {
	originalName = filepath.Base(originalName)
	if c.Category == identify.CategoryUnknown || decision == identify.DecisionReject {
		return Target{Dir: r.otherDir, FileName: originalName}
	}

	dir := r.categoryDir(c)
	if decision != identify.DecisionRename {
		return Target{Dir: dir, FileName: originalName}
	}
	return Target{Dir: dir, FileName: RenamedFileName(c, originalName)}
}

// RenamedFileName synthesizes the library-style filename for a
// classification: category base name, optional resolution tag, sanitized,
// with the original extension carried over.
func RenamedFileName(c *identify.Classification, originalName string) string {
	base := baseName(c)
	if c.Resolution != "" {
		base = fmt.Sprintf("%s [%s]", base, c.Resolution)
	}
	return textutil.SanitizePathComponent(base) + media.FileExtension(originalName)
}

// ResolveFallback routes a file to the fallback directory unmodified.
func (r *Resolver) ResolveFallback(originalName string) Target {
	return Target{Dir: r.otherDir, FileName: filepath.Base(originalName)}
}

func (r *Resolver) categoryDir(c *identify.Classification) string {
	title := textutil.SanitizePathComponent(displayTitle(c))
	switch c.Category {
	case identify.CategoryMovie:
		return filepath.Join(r.moviesDir, textutil.SanitizePathComponent(titleWithYear(c)))
	case identify.CategoryTV:
		return filepath.Join(r.tvDir, title, fmt.Sprintf("Season %02d", c.Season))
	case identify.CategoryAnime:
		if c.Episode > 0 {
			season := c.Season
			if season == 0 {
				season = 1
			}
			return filepath.Join(r.animeDir, title, fmt.Sprintf("Season %02d", season))
		}
		return filepath.Join(r.animeDir, textutil.SanitizePathComponent(titleWithYear(c)))
	default:
		return r.otherDir
	}
}

func baseName(c *identify.Classification) string {
	title := displayTitle(c)
	switch c.Category {
	case identify.CategoryMovie:
		return titleWithYear(c)
	case identify.CategoryTV:
		return fmt.Sprintf("%s - S%02dE%02d", title, c.Season, c.Episode)
	case identify.CategoryAnime:
		if c.Episode > 0 {
			return fmt.Sprintf("%s - Episode %d", title, c.Episode)
		}
		return titleWithYear(c)
	default:
		return title
	}
}

func titleWithYear(c *identify.Classification) string {
	title := displayTitle(c)
	if c.Year > 0 {
		return fmt.Sprintf("%s (%d)", title, c.Year)
	}
	return title
}

// displayTitle prefers the provider's canonical title over the parsed one.
func displayTitle(c *identify.Classification) string {
	if c.ProviderTitle != "" {
		return c.ProviderTitle
	}
	return c.ParsedTitle
}

package identify

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"shelve/internal/identify/tmdb"
	"shelve/internal/logging"
	"shelve/internal/media"
	"shelve/internal/services"
)

// Category is the library shelf a file belongs on.
type Category string

const (
	CategoryMovie   Category = "movie"
	CategoryTV      Category = "tv"
	CategoryAnime   Category = "anime"
	CategoryUnknown Category = "unknown"
)

// Classification is the outcome of identifying a single file. ProviderTitle
// holds the matched provider title; it is empty when Category is unknown.
type Classification struct {
	Category      Category
	ParsedTitle   string
	ProviderTitle string
	ProviderID    int64
	Year          int
	Season        int
	Episode       int
	Resolution    string
}

// Classifier identifies media files by combining filename parsing with
// provider search.
type Classifier struct {
	searcher tmdb.Searcher
	logger   *slog.Logger
}

// NewClassifier creates a classifier backed by the given provider.
func NewClassifier(searcher tmdb.Searcher, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		searcher: searcher,
		logger:   logger.With(logging.String(logging.FieldComponent, "classifier")),
	}
}

// Classify parses the filename and resolves it against the provider. A name
// with no extractable title is an identification failure. A title the
// provider has never heard of classifies as unknown rather than failing, so
// the caller can route the file to the fallback shelf.
func (c *Classifier) Classify(ctx context.Context, filename string) (*Classification, error) {
	hints := media.ParseFilename(filename)
	if hints.Title == "" {
		return nil, services.Wrap(services.ErrUnidentified, "identify", "parse",
			fmt.Sprintf("no title extractable from %q", filename), nil)
	}

	result := &Classification{
		ParsedTitle: hints.Title,
		Year:        hints.Year,
		Season:      hints.Season,
		Episode:     hints.Episode,
		Resolution:  hints.Resolution,
	}

	logger := logging.WithContext(ctx, c.logger)
	if hints.Episodic() {
		return c.classifyEpisode(ctx, logger, result)
	}
	return c.classifyMovie(ctx, logger, result)
}

func (c *Classifier) classifyEpisode(ctx context.Context, logger *slog.Logger, result *Classification) (*Classification, error) {
	resp, err := c.searcher.SearchTV(ctx, result.ParsedTitle)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "identify", "search-tv", result.ParsedTitle, err)
	}
	if len(resp.Results) == 0 {
		logger.Info("no tv match", logging.String("title", result.ParsedTitle))
		result.Category = CategoryUnknown
		return result, nil
	}

	match := resp.Results[0]
	result.Category = CategoryTV
	result.ProviderTitle = match.Name
	result.ProviderID = match.ID
	if result.Year == 0 {
		result.Year = yearOf(match.FirstAirDate)
	}
	if c.isAnime(ctx, logger, CategoryTV, match.ID) {
		result.Category = CategoryAnime
	}
	return result, nil
}

func (c *Classifier) classifyMovie(ctx context.Context, logger *slog.Logger, result *Classification) (*Classification, error) {
	resp, err := c.searcher.SearchMovie(ctx, result.ParsedTitle, result.Year)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "identify", "search-movie", result.ParsedTitle, err)
	}
	if len(resp.Results) == 0 && result.Year > 0 {
		// Year hint may be wrong; retry unconstrained before giving up.
		resp, err = c.searcher.SearchMovie(ctx, result.ParsedTitle, 0)
		if err != nil {
			return nil, services.Wrap(services.ErrTransient, "identify", "search-movie", result.ParsedTitle, err)
		}
	}
	if len(resp.Results) == 0 {
		logger.Info("no movie match", logging.String("title", result.ParsedTitle))
		result.Category = CategoryUnknown
		return result, nil
	}

	match := resp.Results[0]
	result.Category = CategoryMovie
	result.ProviderTitle = match.Title
	result.ProviderID = match.ID
	if year := yearOf(match.ReleaseDate); year > 0 {
		result.Year = year
	}
	if c.isAnime(ctx, logger, CategoryMovie, match.ID) {
		result.Category = CategoryAnime
	}
	return result, nil
}

// isAnime checks the provider keyword list for an anime tag. Keyword lookup
// failures downgrade to a warning; the file still classifies under its base
// category.
func (c *Classifier) isAnime(ctx context.Context, logger *slog.Logger, base Category, providerID int64) bool {
	var (
		keywords []tmdb.Keyword
		err      error
	)
	if base == CategoryTV {
		keywords, err = c.searcher.TVKeywords(ctx, providerID)
	} else {
		keywords, err = c.searcher.MovieKeywords(ctx, providerID)
	}
	if err != nil {
		logger.Warn("keyword lookup failed", logging.Error(err))
		return false
	}
	for _, kw := range keywords {
		if strings.EqualFold(strings.TrimSpace(kw.Name), "anime") {
			return true
		}
	}
	return false
}

func yearOf(date string) int {
	if len(date) < 4 {
		return 0
	}
	year, err := strconv.Atoi(date[:4])
	if err != nil {
		return 0
	}
	return year
}

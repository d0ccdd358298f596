package identify

import (
	"context"
	"errors"
	"testing"

	"shelve/internal/identify/tmdb"
	"shelve/internal/services"
)

// stubSearcher serves canned provider responses and records queries.
type stubSearcher struct {
	movies   map[string]*tmdb.Response
	shows    map[string]*tmdb.Response
	keywords map[int64][]tmdb.Keyword

	movieQueries []string
	searchErr    error
	keywordErr   error
}

func (s *stubSearcher) SearchMovie(_ context.Context, query string, year int) (*tmdb.Response, error) {
	s.movieQueries = append(s.movieQueries, query)
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	if resp, ok := s.movies[query]; ok {
		return resp, nil
	}
	return &tmdb.Response{}, nil
}

func (s *stubSearcher) SearchTV(_ context.Context, query string) (*tmdb.Response, error) {
	if s.searchErr != nil {
		return nil, s.searchErr
	}
	if resp, ok := s.shows[query]; ok {
		return resp, nil
	}
	return &tmdb.Response{}, nil
}

func (s *stubSearcher) MovieKeywords(_ context.Context, id int64) ([]tmdb.Keyword, error) {
	if s.keywordErr != nil {
		return nil, s.keywordErr
	}
	return s.keywords[id], nil
}

func (s *stubSearcher) TVKeywords(_ context.Context, id int64) ([]tmdb.Keyword, error) {
	return s.MovieKeywords(nil, id)
}

func TestClassifyMovie(t *testing.T) {
	searcher := &stubSearcher{
		movies: map[string]*tmdb.Response{
			"Inception": {Results: []tmdb.Result{{ID: 27205, Title: "Inception", ReleaseDate: "2010-07-15"}}},
		},
	}
	classifier := NewClassifier(searcher, nil)

	result, err := classifier.Classify(context.Background(), "Inception.2010.1080p.BluRay.mkv")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Category != CategoryMovie {
		t.Errorf("category = %q, want movie", result.Category)
	}
	if result.ProviderTitle != "Inception" || result.Year != 2010 {
		t.Errorf("match = %q (%d)", result.ProviderTitle, result.Year)
	}
	if result.Resolution != "1080p" {
		t.Errorf("resolution = %q", result.Resolution)
	}
}

func TestClassifyEpisode(t *testing.T) {
	searcher := &stubSearcher{
		shows: map[string]*tmdb.Response{
			"Breaking Bad": {Results: []tmdb.Result{{ID: 1396, Name: "Breaking Bad", FirstAirDate: "2008-01-20"}}},
		},
	}
	classifier := NewClassifier(searcher, nil)

	result, err := classifier.Classify(context.Background(), "Breaking.Bad.S02E05.720p.mkv")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Category != CategoryTV {
		t.Errorf("category = %q, want tv", result.Category)
	}
	if result.Season != 2 || result.Episode != 5 {
		t.Errorf("season/episode = %d/%d, want 2/5", result.Season, result.Episode)
	}
	if result.Year != 2008 {
		t.Errorf("year = %d, want 2008 from first air date", result.Year)
	}
}

func TestClassifyAnimeKeywordOverridesCategory(t *testing.T) {
	searcher := &stubSearcher{
		shows: map[string]*tmdb.Response{
			"Frieren": {Results: []tmdb.Result{{ID: 209867, Name: "Frieren: Beyond Journey's End"}}},
		},
		keywords: map[int64][]tmdb.Keyword{
			209867: {{ID: 210024, Name: "Anime"}},
		},
	}
	classifier := NewClassifier(searcher, nil)

	result, err := classifier.Classify(context.Background(), "Frieren.S01E01.mkv")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Category != CategoryAnime {
		t.Errorf("category = %q, want anime", result.Category)
	}
}

func TestClassifyKeywordFailureKeepsBaseCategory(t *testing.T) {
	searcher := &stubSearcher{
		movies: map[string]*tmdb.Response{
			"Akira": {Results: []tmdb.Result{{ID: 149, Title: "Akira", ReleaseDate: "1988-07-16"}}},
		},
		keywordErr: errors.New("rate limited"),
	}
	classifier := NewClassifier(searcher, nil)

	result, err := classifier.Classify(context.Background(), "Akira.1988.mkv")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Category != CategoryMovie {
		t.Errorf("category = %q, want movie when keywords unavailable", result.Category)
	}
}

func TestClassifyNoMatchIsUnknown(t *testing.T) {
	classifier := NewClassifier(&stubSearcher{}, nil)

	result, err := classifier.Classify(context.Background(), "Totally.Obscure.Home.Video.mkv")
	if err != nil {
		t.Fatalf("Classify: %v", err)
	}
	if result.Category != CategoryUnknown {
		t.Errorf("category = %q, want unknown", result.Category)
	}
	if result.ProviderTitle != "" {
		t.Errorf("provider title = %q, want empty", result.ProviderTitle)
	}
}

func TestClassifyRetriesWithoutYear(t *testing.T) {
	searcher := &stubSearcher{movies: map[string]*tmdb.Response{}}
	classifier := NewClassifier(searcher, nil)

	if _, err := classifier.Classify(context.Background(), "Arrival.2017.mkv"); err != nil {
		t.Fatalf("Classify: %v", err)
	}
	// Wrong year hint should trigger a second, unconstrained search.
	if len(searcher.movieQueries) != 2 {
		t.Errorf("movie queries = %d, want 2", len(searcher.movieQueries))
	}
}

func TestClassifyUnparseableNameFails(t *testing.T) {
	classifier := NewClassifier(&stubSearcher{}, nil)

	_, err := classifier.Classify(context.Background(), "1080p.mkv")
	if !errors.Is(err, services.ErrUnidentified) {
		t.Fatalf("err = %v, want ErrUnidentified", err)
	}
}

func TestClassifyProviderErrorIsTransient(t *testing.T) {
	classifier := NewClassifier(&stubSearcher{searchErr: errors.New("connection refused")}, nil)

	_, err := classifier.Classify(context.Background(), "Inception.2010.mkv")
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("err = %v, want ErrTransient", err)
	}
}

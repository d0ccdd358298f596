package tmdb

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	client, err := New("test-key", server.URL, "en-US", WithHTTPClient(server.Client()))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestSearchMovie(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("path = %q, want /search/movie", r.URL.Path)
		}
		q := r.URL.Query()
		if q.Get("api_key") != "test-key" {
			t.Errorf("api_key = %q", q.Get("api_key"))
		}
		if q.Get("query") != "Inception" {
			t.Errorf("query = %q", q.Get("query"))
		}
		if q.Get("primary_release_year") != "2010" {
			t.Errorf("primary_release_year = %q", q.Get("primary_release_year"))
		}
		w.Write([]byte(`{"page":1,"results":[{"id":27205,"title":"Inception","release_date":"2010-07-15"}],"total_results":1}`))
	})

	resp, err := client.SearchMovie(context.Background(), "Inception", 2010)
	if err != nil {
		t.Fatalf("SearchMovie: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].ID != 27205 {
		t.Fatalf("results = %+v", resp.Results)
	}
	if resp.Results[0].Title != "Inception" {
		t.Errorf("title = %q", resp.Results[0].Title)
	}
}

func TestSearchMovieOmitsZeroYear(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Has("primary_release_year") {
			t.Error("zero year sent as primary_release_year")
		}
		w.Write([]byte(`{"results":[]}`))
	})

	if _, err := client.SearchMovie(context.Background(), "Inception", 0); err != nil {
		t.Fatalf("SearchMovie: %v", err)
	}
}

func TestSearchTV(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/tv" {
			t.Errorf("path = %q, want /search/tv", r.URL.Path)
		}
		w.Write([]byte(`{"results":[{"id":1396,"name":"Breaking Bad","first_air_date":"2008-01-20"}]}`))
	})

	resp, err := client.SearchTV(context.Background(), "Breaking Bad")
	if err != nil {
		t.Fatalf("SearchTV: %v", err)
	}
	if len(resp.Results) != 1 || resp.Results[0].Name != "Breaking Bad" {
		t.Fatalf("results = %+v", resp.Results)
	}
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("request issued for empty query")
	})

	if _, err := client.SearchMovie(context.Background(), "  ", 0); err == nil {
		t.Fatal("expected error for empty query")
	}
}

func TestKeywordEndpoints(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/movie/603/keywords":
			w.Write([]byte(`{"id":603,"keywords":[{"id":1,"name":"dystopia"}]}`))
		case "/tv/57041/keywords":
			w.Write([]byte(`{"id":57041,"results":[{"id":2,"name":"anime"}]}`))
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			http.NotFound(w, r)
		}
	})

	movie, err := client.MovieKeywords(context.Background(), 603)
	if err != nil {
		t.Fatalf("MovieKeywords: %v", err)
	}
	if len(movie) != 1 || movie[0].Name != "dystopia" {
		t.Errorf("movie keywords = %+v", movie)
	}

	tv, err := client.TVKeywords(context.Background(), 57041)
	if err != nil {
		t.Fatalf("TVKeywords: %v", err)
	}
	if len(tv) != 1 || tv[0].Name != "anime" {
		t.Errorf("tv keywords = %+v", tv)
	}
}

func TestNon200StatusIsError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"status_message":"Invalid API key"}`, http.StatusUnauthorized)
	})

	if _, err := client.SearchMovie(context.Background(), "Inception", 0); err == nil {
		t.Fatal("expected error for 401 response")
	}
}

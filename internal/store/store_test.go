package store_test

import (
	"context"
	"testing"

	"shelve/internal/store"
	"shelve/internal/testsupport"
)

func TestUsersRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	known, err := st.IsKnownUser(ctx, 42)
	if err != nil {
		t.Fatalf("IsKnownUser: %v", err)
	}
	if known {
		t.Fatal("unseeded user reported as known")
	}

	if err := st.AddUser(ctx, 42); err != nil {
		t.Fatalf("AddUser: %v", err)
	}
	if err := st.AddUser(ctx, 42); err != nil {
		t.Fatalf("AddUser duplicate: %v", err)
	}

	known, err = st.IsKnownUser(ctx, 42)
	if err != nil {
		t.Fatalf("IsKnownUser: %v", err)
	}
	if !known {
		t.Fatal("added user not reported as known")
	}

	ids, err := st.ListUsers(ctx)
	if err != nil {
		t.Fatalf("ListUsers: %v", err)
	}
	if len(ids) != 1 || ids[0] != 42 {
		t.Fatalf("ListUsers = %v, want [42]", ids)
	}
}

func TestOrganizedInsertAndQuery(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	rec := &store.OrganizedRecord{
		Path:        "/library/TV/Show/Season 01/Show - S01E03 [720p].mkv",
		Title:       "Show",
		Category:    "tv",
		Season:      1,
		Episode:     3,
		Resolution:  "720p",
		OrganizedBy: 7,
		Method:      "manual",
	}
	if err := st.InsertOrganized(ctx, rec); err != nil {
		t.Fatalf("InsertOrganized: %v", err)
	}
	if rec.ID == 0 {
		t.Fatal("InsertOrganized did not assign an id")
	}

	organized, err := st.IsOrganized(ctx, "Show - S01E03 [720p].mkv")
	if err != nil {
		t.Fatalf("IsOrganized: %v", err)
	}
	if !organized {
		t.Fatal("inserted file not reported organized")
	}

	organized, err = st.IsOrganized(ctx, "unrelated.mkv")
	if err != nil {
		t.Fatalf("IsOrganized: %v", err)
	}
	if organized {
		t.Fatal("unrelated file reported organized")
	}

	// "_" and "%" must match literally, not as LIKE wildcards.
	organized, err = st.IsOrganized(ctx, "Show - S01E03 [720p]_mkv")
	if err != nil {
		t.Fatalf("IsOrganized: %v", err)
	}
	if organized {
		t.Fatal("underscore matched as a wildcard")
	}
	organized, err = st.IsOrganized(ctx, "%.mkv")
	if err != nil {
		t.Fatalf("IsOrganized: %v", err)
	}
	if organized {
		t.Fatal("percent matched as a wildcard")
	}
}

func TestListOrganizedPagination(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		rec := &store.OrganizedRecord{
			Path:        "/library/Movies/m" + string(rune('a'+i)) + ".mkv",
			Title:       "m",
			Category:    "movie",
			OrganizedBy: 1,
			Method:      "auto",
		}
		if err := st.InsertOrganized(ctx, rec); err != nil {
			t.Fatalf("InsertOrganized: %v", err)
		}
	}

	page, total, err := st.ListOrganized(ctx, 2, 0)
	if err != nil {
		t.Fatalf("ListOrganized: %v", err)
	}
	if total != 5 {
		t.Errorf("total = %d, want 5", total)
	}
	if len(page) != 2 {
		t.Errorf("page size = %d, want 2", len(page))
	}
}

func TestLastManualEpisode(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	ref, err := st.LastManualEpisode(ctx)
	if err != nil {
		t.Fatalf("LastManualEpisode: %v", err)
	}
	if ref != nil {
		t.Fatal("empty table returned a reference record")
	}

	auto := &store.OrganizedRecord{Path: "/x/a.mkv", Title: "A", Category: "tv", Season: 1, Episode: 9, OrganizedBy: 1, Method: "auto"}
	if err := st.InsertOrganized(ctx, auto); err != nil {
		t.Fatalf("InsertOrganized: %v", err)
	}
	manual := &store.OrganizedRecord{Path: "/x/b.mkv", Title: "B", Category: "tv", Season: 2, Episode: 4, OrganizedBy: 1, Method: "manual"}
	if err := st.InsertOrganized(ctx, manual); err != nil {
		t.Fatalf("InsertOrganized: %v", err)
	}

	ref, err = st.LastManualEpisode(ctx)
	if err != nil {
		t.Fatalf("LastManualEpisode: %v", err)
	}
	if ref == nil || ref.Title != "B" || ref.Season != 2 || ref.Episode != 4 {
		t.Fatalf("LastManualEpisode = %+v, want manual record B S02E04", ref)
	}
}

func TestErrorLog(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	if err := st.InsertError(ctx, "bad.mkv", "processing", "provider unreachable"); err != nil {
		t.Fatalf("InsertError: %v", err)
	}
	records, err := st.ListErrors(ctx, 10)
	if err != nil {
		t.Fatalf("ListErrors: %v", err)
	}
	if len(records) != 1 || records[0].File != "bad.mkv" || records[0].Stage != "processing" {
		t.Fatalf("ListErrors = %+v, want one processing record for bad.mkv", records)
	}
}

func TestStatsUpsertAndLoad(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	type counters struct {
		Files int `json:"files"`
		Bytes int `json:"bytes"`
	}

	found, err := st.LoadStats(ctx, "global", &counters{})
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if found {
		t.Fatal("LoadStats found a row in an empty table")
	}

	if err := st.UpsertStats(ctx, "global", counters{Files: 3, Bytes: 100}); err != nil {
		t.Fatalf("UpsertStats: %v", err)
	}
	if err := st.UpsertStats(ctx, "global", counters{Files: 4, Bytes: 150}); err != nil {
		t.Fatalf("UpsertStats replace: %v", err)
	}

	var got counters
	found, err = st.LoadStats(ctx, "global", &got)
	if err != nil {
		t.Fatalf("LoadStats: %v", err)
	}
	if !found || got.Files != 4 || got.Bytes != 150 {
		t.Fatalf("LoadStats = %+v (found=%v), want latest upsert", got, found)
	}
}

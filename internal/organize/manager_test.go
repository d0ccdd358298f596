package organize

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shelve/internal/config"
	"shelve/internal/session"
	"shelve/internal/store"
	"shelve/internal/testsupport"
	"shelve/internal/transport"
)

type fixture struct {
	cfg      *config.Config
	store    *store.Store
	sessions *session.Store
	tr       *testsupport.FakeTransport
	manager  *Manager
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	sessions := session.NewStore(30 * time.Minute)
	tr := testsupport.NewFakeTransport()
	return &fixture{
		cfg:      cfg,
		store:    st,
		sessions: sessions,
		tr:       tr,
		manager:  NewManager(cfg, st, sessions, tr, nil),
	}
}

func (f *fixture) addDownload(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(f.cfg.Paths.DownloadDir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func (f *fixture) reply(t *testing.T, text string) {
	t.Helper()
	if !f.manager.HandleText(context.Background(), transport.TextEvent{ChatID: 100, RequesterID: 7, Text: text}) {
		t.Fatalf("HandleText(%q) = false, dialog lost", text)
	}
}

func TestCandidatesSkipsOrganizedAndNonMedia(t *testing.T) {
	f := newFixture(t)
	f.addDownload(t, "a.mkv")
	f.addDownload(t, "notes.txt")
	organizedPath := filepath.Join(f.cfg.OtherPath(), "b.mkv")
	if err := os.WriteFile(organizedPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	err := f.store.InsertOrganized(context.Background(), &store.OrganizedRecord{
		Path: organizedPath, Title: "B", Category: "movie", OrganizedBy: 7, Method: "manual",
	})
	if err != nil {
		t.Fatal(err)
	}

	candidates, err := f.manager.Candidates(context.Background())
	if err != nil {
		t.Fatalf("Candidates: %v", err)
	}
	if len(candidates) != 1 || filepath.Base(candidates[0]) != "a.mkv" {
		t.Errorf("candidates = %v, want only a.mkv", candidates)
	}
}

func TestOrganizeMovieDialog(t *testing.T) {
	f := newFixture(t)
	f.addDownload(t, "inception.1080p.mkv")

	if err := f.manager.Start(context.Background(), 100, 7); err != nil {
		t.Fatalf("Start: %v", err)
	}
	f.reply(t, "1")
	f.reply(t, "movie")
	f.reply(t, "Inception")
	f.reply(t, "2010")

	want := filepath.Join(f.cfg.MoviesPath(), "Inception (2010)", "Inception (2010) [1080p].mkv")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("organized file missing at %s: %v", want, err)
	}
	records, _, err := f.store.ListOrganized(context.Background(), 10, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Method != "manual" || records[0].Year != 2010 {
		t.Errorf("records = %+v", records)
	}
	if f.sessions.Get(7) != nil {
		t.Error("session not cleared after finalize")
	}
}

func TestOrganizeTVDialog(t *testing.T) {
	f := newFixture(t)
	f.addDownload(t, "show.mkv")

	if err := f.manager.Start(context.Background(), 100, 7); err != nil {
		t.Fatalf("Start: %v", err)
	}
	f.reply(t, "1")
	f.reply(t, "tv")
	f.reply(t, "My Show")
	f.reply(t, "2")
	f.reply(t, "3")

	want := filepath.Join(f.cfg.TVPath(), "My Show", "Season 02", "My Show - S02E03.mkv")
	if _, err := os.Stat(want); err != nil {
		t.Fatalf("organized file missing at %s: %v", want, err)
	}
}

func TestInvalidInputsReprompt(t *testing.T) {
	f := newFixture(t)
	f.addDownload(t, "a.mkv")

	if err := f.manager.Start(context.Background(), 100, 7); err != nil {
		t.Fatal(err)
	}
	f.reply(t, "nope")
	if sess := f.sessions.Get(7); sess == nil || sess.Step != stepSelectFile {
		t.Fatal("invalid selection advanced the dialog")
	}
	f.reply(t, "1")
	f.reply(t, "music")
	if sess := f.sessions.Get(7); sess == nil || sess.Step != stepChooseCategory {
		t.Fatal("invalid category advanced the dialog")
	}
}

func TestCancelClearsSession(t *testing.T) {
	f := newFixture(t)
	f.addDownload(t, "a.mkv")

	if err := f.manager.Start(context.Background(), 100, 7); err != nil {
		t.Fatal(err)
	}
	f.reply(t, "cancel")
	if f.sessions.Get(7) != nil {
		t.Error("session survived cancel")
	}
}

func TestExpiredSessionTellsUser(t *testing.T) {
	f := newFixture(t)
	f.addDownload(t, "a.mkv")

	if err := f.manager.Start(context.Background(), 100, 7); err != nil {
		t.Fatal(err)
	}
	f.reply(t, "1")

	// Session goes away between the step's Get and its Update.
	f.sessions.Clear(7)
	f.manager.handleChooseCategory(context.Background(), transport.TextEvent{ChatID: 100, RequesterID: 7}, "movie")

	found := false
	for _, msg := range f.tr.SentMessages() {
		if strings.Contains(msg, "Dialog expired") {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected an expiry notice, got %v", f.tr.SentMessages())
	}
}

func TestHandleTextWithoutSession(t *testing.T) {
	f := newFixture(t)
	handled := f.manager.HandleText(context.Background(), transport.TextEvent{ChatID: 100, RequesterID: 7, Text: "hello"})
	if handled {
		t.Error("HandleText = true with no live session")
	}
}

func TestStartWithNoCandidates(t *testing.T) {
	f := newFixture(t)
	if err := f.manager.Start(context.Background(), 100, 7); err != nil {
		t.Fatal(err)
	}
	if f.sessions.Get(7) != nil {
		t.Error("session created despite empty candidate list")
	}
	if len(f.tr.SentMessages()) != 1 {
		t.Errorf("messages = %d, want a single empty-list notice", len(f.tr.SentMessages()))
	}
}

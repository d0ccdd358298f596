package daemon

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"shelve/internal/config"
	"shelve/internal/downloader"
	"shelve/internal/identify/tmdb"
	"shelve/internal/logging"
	"shelve/internal/testsupport"
	"shelve/internal/transport"
)

const (
	adminID  = int64(7)
	testChat = int64(5)
)

type stubSearcher struct {
	movie *tmdb.Result
	show  *tmdb.Result
}

func (s *stubSearcher) SearchMovie(_ context.Context, _ string, _ int) (*tmdb.Response, error) {
	if s.movie == nil {
		return &tmdb.Response{}, nil
	}
	return &tmdb.Response{Results: []tmdb.Result{*s.movie}, TotalResults: 1}, nil
}

func (s *stubSearcher) SearchTV(_ context.Context, _ string) (*tmdb.Response, error) {
	if s.show == nil {
		return &tmdb.Response{}, nil
	}
	return &tmdb.Response{Results: []tmdb.Result{*s.show}, TotalResults: 1}, nil
}

func (s *stubSearcher) MovieKeywords(_ context.Context, _ int64) ([]tmdb.Keyword, error) {
	return nil, nil
}

func (s *stubSearcher) TVKeywords(_ context.Context, _ int64) ([]tmdb.Keyword, error) {
	return nil, nil
}

func newTestDaemon(t *testing.T, searcher tmdb.Searcher, opts ...testsupport.ConfigOption) (*Daemon, *config.Config, *testsupport.FakeTransport) {
	t.Helper()

	base := []testsupport.ConfigOption{
		testsupport.WithAdminIDs(adminID),
		func(c *config.Config) {
			c.Paths.APIBind = "127.0.0.1:0"
			c.Chat.WatchEnabled = false
		},
	}
	cfg := testsupport.NewConfig(t, append(base, opts...)...)
	tr := testsupport.NewFakeTransport()

	if searcher == nil {
		searcher = &stubSearcher{}
	}
	d, err := NewWithSearcher(cfg, tr, searcher, logging.NewNop())
	if err != nil {
		t.Fatalf("NewWithSearcher: %v", err)
	}
	t.Cleanup(func() {
		d.store.Close()
	})
	return d, cfg, tr
}

func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", what)
}

func hasMessage(tr *testsupport.FakeTransport, substr string) bool {
	for _, msg := range tr.SentMessages() {
		if strings.Contains(msg, substr) {
			return true
		}
	}
	return false
}

func fileEvent(id int64, name string, size int64) transport.FileEvent {
	return transport.FileEvent{
		TransferID:  id,
		ChatID:      testChat,
		RequesterID: adminID,
		Filename:    name,
		Size:        size,
	}
}

func TestHandleFileEventRejectsUnauthorizedUser(t *testing.T) {
	d, _, tr := newTestDaemon(t, nil)

	ev := fileEvent(1, "Movie.mkv", 2048)
	ev.RequesterID = 99
	d.HandleFileEvent(context.Background(), ev)

	if !hasMessage(tr, "not authorized") {
		t.Fatalf("expected authorization notice, got %v", tr.SentMessages())
	}
	if got := d.scheduler.ActiveCount(); got != 0 {
		t.Fatalf("expected no admitted work, got %d active", got)
	}
}

func TestHandleFileEventRejectsNonMediaFile(t *testing.T) {
	d, _, tr := newTestDaemon(t, nil)

	d.HandleFileEvent(context.Background(), fileEvent(1, "notes.txt", 100))

	if !hasMessage(tr, "unsupported file type") {
		t.Fatalf("expected extension notice, got %v", tr.SentMessages())
	}
	if got := d.scheduler.ActiveCount(); got != 0 {
		t.Fatalf("expected no admitted work, got %d active", got)
	}
}

func TestFileEventDownloadsAndPlaces(t *testing.T) {
	searcher := &stubSearcher{
		movie: &tmdb.Result{ID: 27205, Title: "Inception", ReleaseDate: "2010-07-16"},
	}
	d, cfg, _ := newTestDaemon(t, searcher)

	d.HandleFileEvent(context.Background(), fileEvent(1, "Inception.2010.1080p.mkv", 2048))

	want := filepath.Join(cfg.MoviesPath(), "Inception (2010)", "Inception (2010) [1080p].mkv")
	waitFor(t, "placed file", func() bool {
		_, err := os.Stat(want)
		return err == nil
	})

	organized, err := d.store.IsOrganized(context.Background(), "Inception.2010.1080p.mkv")
	if err != nil {
		t.Fatalf("IsOrganized: %v", err)
	}
	if !organized {
		t.Fatal("expected an organized record for the placed file")
	}
	waitFor(t, "success counter", func() bool {
		return d.collector.Snapshot().Succeeded == 1
	})
}

func TestFileEventQueuedNotice(t *testing.T) {
	d, _, tr := newTestDaemon(t, nil, testsupport.WithMaxConcurrent(1))
	tr.PayloadSize = 4096
	tr.Chunks = 4
	tr.StepDelay = 50 * time.Millisecond

	d.HandleFileEvent(context.Background(), fileEvent(1, "First.mkv", 4096))
	d.HandleFileEvent(context.Background(), fileEvent(2, "Second.mkv", 4096))

	if !hasMessage(tr, "queued at position 1") {
		t.Fatalf("expected queue notice, got %v", tr.SentMessages())
	}
	waitFor(t, "queue to empty", func() bool {
		return d.scheduler.ActiveCount() == 0 && d.scheduler.QueueLength() == 0
	})
}

func TestFileEventRejectsCollidingDestination(t *testing.T) {
	d, _, tr := newTestDaemon(t, nil)
	tr.PayloadSize = 4096
	tr.Chunks = 4
	tr.StepDelay = 50 * time.Millisecond

	d.HandleFileEvent(context.Background(), fileEvent(1, "Show.S01E05.mkv", 4096))
	d.HandleFileEvent(context.Background(), fileEvent(2, "Show.S01E05.mkv", 4096))

	if !hasMessage(tr, "already active or queued") {
		t.Fatalf("expected collision notice, got %v", tr.SentMessages())
	}
	active, queued := d.scheduler.Status()
	if len(active)+len(queued) != 1 {
		t.Fatalf("admitted %d transfers for one destination, want 1", len(active)+len(queued))
	}
	waitFor(t, "processing to finish", func() bool {
		return d.collector.Snapshot().FilesHandled == 1
	})
}

func TestTextCommands(t *testing.T) {
	d, _, tr := newTestDaemon(t, nil)
	ctx := context.Background()

	d.HandleTextEvent(ctx, transport.TextEvent{ChatID: testChat, RequesterID: adminID, Text: "queue"})
	if !hasMessage(tr, "No downloads active or queued.") {
		t.Fatalf("expected empty queue notice, got %v", tr.SentMessages())
	}

	d.HandleTextEvent(ctx, transport.TextEvent{ChatID: testChat, RequesterID: adminID, Text: "cancel 42"})
	if !hasMessage(tr, "No active or queued transfer 42.") {
		t.Fatalf("expected cancel miss notice, got %v", tr.SentMessages())
	}

	d.HandleTextEvent(ctx, transport.TextEvent{ChatID: testChat, RequesterID: adminID, Text: "/help"})
	if !hasMessage(tr, "Commands:") {
		t.Fatalf("expected help text, got %v", tr.SentMessages())
	}

	d.HandleTextEvent(ctx, transport.TextEvent{ChatID: testChat, RequesterID: adminID, Text: "stats"})
	if !hasMessage(tr, "Handled 0 files") {
		t.Fatalf("expected stats summary, got %v", tr.SentMessages())
	}
}

func TestTextCommandsIgnoreUnknownUser(t *testing.T) {
	d, _, tr := newTestDaemon(t, nil)

	d.HandleTextEvent(context.Background(), transport.TextEvent{ChatID: testChat, RequesterID: 99, Text: "queue"})

	if len(tr.SentMessages()) != 0 {
		t.Fatalf("expected silence for unknown user, got %v", tr.SentMessages())
	}
}

func TestStartServesAPIAndConsumesEvents(t *testing.T) {
	d, _, tr := newTestDaemon(t, nil)
	source := testsupport.NewFakeSource()

	if err := d.Start(context.Background(), source); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	addr := d.api.Addr()
	if addr == "" {
		t.Fatal("api server did not bind")
	}

	resp, err := http.Get("http://" + addr + "/api/status")
	if err != nil {
		t.Fatalf("GET /api/status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status code = %d, want 200", resp.StatusCode)
	}
	var status Status
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if !status.Running {
		t.Fatal("expected running daemon")
	}
	if len(status.Active) != 0 || len(status.Queued) != 0 {
		t.Fatalf("expected idle daemon, got %d active %d queued", len(status.Active), len(status.Queued))
	}

	source.EmitText(transport.TextEvent{ChatID: testChat, RequesterID: adminID, Text: "help"})
	waitFor(t, "help reply via source", func() bool {
		return hasMessage(tr, "Commands:")
	})

	cancelResp, err := http.Post("http://"+addr+"/api/queue/42/cancel", "application/json", nil)
	if err != nil {
		t.Fatalf("POST cancel: %v", err)
	}
	cancelResp.Body.Close()
	if cancelResp.StatusCode != http.StatusNotFound {
		t.Fatalf("cancel of unknown transfer = %d, want 404", cancelResp.StatusCode)
	}

	listResp, err := http.Get("http://" + addr + "/api/organized")
	if err != nil {
		t.Fatalf("GET /api/organized: %v", err)
	}
	defer listResp.Body.Close()
	var listing struct {
		Total int `json:"total"`
	}
	if err := json.NewDecoder(listResp.Body).Decode(&listing); err != nil {
		t.Fatalf("decode organized listing: %v", err)
	}
	if listing.Total != 0 {
		t.Fatalf("organized total = %d, want 0", listing.Total)
	}
}

func TestDrainEndpointStopsAdmissions(t *testing.T) {
	d, _, _ := newTestDaemon(t, nil)
	source := testsupport.NewFakeSource()

	if err := d.Start(context.Background(), source); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	resp, err := http.Post(fmt.Sprintf("http://%s/api/drain", d.api.Addr()), "application/json", nil)
	if err != nil {
		t.Fatalf("POST /api/drain: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("drain status = %d, want 202", resp.StatusCode)
	}

	waitFor(t, "draining flag", func() bool {
		return d.scheduler.Draining()
	})
	task := downloader.NewTask(fileEvent(9, "Late.mkv", 2048), 0, t.TempDir())
	if result := d.scheduler.Submit(task); result.Admission != downloader.AdmissionRejected {
		t.Fatalf("submit while draining = %v, want rejection", result.Admission)
	}
}

func TestStartRefusesSecondInstance(t *testing.T) {
	d, cfg, _ := newTestDaemon(t, nil)
	source := testsupport.NewFakeSource()

	if err := d.Start(context.Background(), source); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer d.Stop()

	second, err := NewWithSearcher(cfg, testsupport.NewFakeTransport(), &stubSearcher{}, logging.NewNop())
	if err != nil {
		t.Fatalf("second NewWithSearcher: %v", err)
	}
	defer second.store.Close()

	if err := second.Start(context.Background(), testsupport.NewFakeSource()); err == nil {
		second.Stop()
		t.Fatal("expected second instance to be refused")
	}
}

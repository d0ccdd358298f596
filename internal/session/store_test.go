package session

import (
	"testing"
	"time"
)

// fixedClock lets tests move time forward deterministically.
type fixedClock struct {
	t time.Time
}

func (c *fixedClock) now() time.Time { return c.t }

func (c *fixedClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(ttl time.Duration) (*Store, *fixedClock) {
	clock := &fixedClock{t: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
	store := NewStore(ttl)
	store.now = clock.now
	return store, clock
}

func TestCreateAndGet(t *testing.T) {
	store, _ := newTestStore(30 * time.Minute)

	store.Create(1, KindOrganize, "select_file", map[string]any{"k": "v"})

	sess := store.Get(1)
	if sess == nil {
		t.Fatal("session absent immediately after creation")
	}
	if sess.Kind != KindOrganize || sess.Step != "select_file" {
		t.Errorf("session = %+v, want organize/select_file", sess)
	}
	if sess.Data["k"] != "v" {
		t.Errorf("session data missing initial value")
	}
}

func TestGetEvictsExpired(t *testing.T) {
	store, clock := newTestStore(30 * time.Minute)
	store.Create(1, KindOrganize, "select_file", nil)

	clock.advance(30*time.Minute + time.Second)

	if sess := store.Get(1); sess != nil {
		t.Fatal("expired session returned from Get")
	}
	if store.Len() != 0 {
		t.Errorf("expired session not evicted, Len = %d", store.Len())
	}
}

func TestUpdateRefreshesExpiry(t *testing.T) {
	store, clock := newTestStore(30 * time.Minute)
	store.Create(1, KindOrganize, "select_file", nil)

	clock.advance(25 * time.Minute)
	if sess := store.Update(1, "choose_category", map[string]any{"file": "a.mkv"}); sess == nil {
		t.Fatal("Update returned nil for a live session")
	}

	// 25 + 20 = 45 minutes after creation, but only 20 after the refresh.
	clock.advance(20 * time.Minute)
	sess := store.Get(1)
	if sess == nil {
		t.Fatal("session expired despite refresh")
	}
	if sess.Step != "choose_category" || sess.Data["file"] != "a.mkv" {
		t.Errorf("session = %+v, want advanced step with merged data", sess)
	}
}

func TestUpdateExpiredReturnsNil(t *testing.T) {
	store, clock := newTestStore(time.Minute)
	store.Create(1, KindBulk, "confirm", nil)

	clock.advance(2 * time.Minute)

	if sess := store.Update(1, "next", nil); sess != nil {
		t.Fatal("Update revived an expired session")
	}
}

func TestClear(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	store.Create(1, KindOrganize, "s", nil)
	store.Clear(1)
	if store.Get(1) != nil {
		t.Fatal("session present after Clear")
	}
}

func TestSweepExpired(t *testing.T) {
	store, clock := newTestStore(time.Minute)
	store.Create(1, KindOrganize, "s", nil)
	store.Create(2, KindBulk, "s", nil)
	clock.advance(30 * time.Second)
	store.Create(3, KindOrganize, "s", nil)
	clock.advance(45 * time.Second)

	if removed := store.SweepExpired(); removed != 2 {
		t.Errorf("SweepExpired removed %d, want 2", removed)
	}
	if store.Get(3) == nil {
		t.Error("live session swept")
	}
}

func TestCreateReplacesExisting(t *testing.T) {
	store, _ := newTestStore(time.Minute)
	store.Create(1, KindOrganize, "old", map[string]any{"a": 1})
	store.Create(1, KindBulk, "new", nil)

	sess := store.Get(1)
	if sess.Kind != KindBulk || sess.Step != "new" {
		t.Errorf("Create did not replace session: %+v", sess)
	}
	if _, ok := sess.Data["a"]; ok {
		t.Error("old session data leaked into replacement")
	}
}

package boxes

import (
	"math"
	"sync"
	"testing"
	"time"

	"panelforge/internal/geom"
	"panelforge/internal/timing"
)

type memStore struct {
	mu    sync.Mutex
	boxes map[string]Record
	saves int
}

func (s *memStore) LoadBoxRecords() map[string]Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := map[string]Record{}
	for k, v := range s.boxes {
		out[k] = v
	}
	return out
}

func (s *memStore) SaveBoxRecords(m map[string]Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.boxes = map[string]Record{}
	for k, v := range m {
		s.boxes[k] = v
	}
	s.saves++
}

func newTestModel() (*Model, *memStore, *timing.Manual) {
	store := &memStore{}
	clock := timing.NewManual(time.Date(2026, time.March, 1, 9, 0, 0, 0, time.UTC))
	m := NewModel(store, clock)
	m.SetParentSize(800, 600)
	m.MarkSettled()
	return m, store, clock
}

func TestScheduleSaveDebounces(t *testing.T) {
	m, store, clock := newTestModel()
	m.Add(Record{ID: "a", Left: 10, Top: 10, Width: 20, Height: 15, Title: "Gear"})

	m.ScheduleSave("a")
	clock.Advance(50 * time.Millisecond)
	m.ScheduleSave("a") // replaces the pending timer
	clock.Advance(100 * time.Millisecond)
	if store.saves != 0 {
		t.Fatalf("save fired inside refreshed debounce window")
	}
	clock.Advance(50 * time.Millisecond)
	if store.saves != 1 {
		t.Fatalf("expected exactly one coalesced save, got %d", store.saves)
	}
}

func TestBootstrapGraceSuppressesSaves(t *testing.T) {
	store := &memStore{}
	clock := timing.NewManual(time.Now())
	m := NewModel(store, clock)
	m.SetParentSize(800, 600)
	m.Add(Record{ID: "a", Left: 5, Top: 5, Width: 20, Height: 10})

	m.ScheduleSave("a") // size observer firing during settle
	clock.Advance(time.Second)
	if store.saves != 0 {
		t.Fatalf("save must be suppressed before MarkSettled")
	}
	m.MarkSettled()
	m.ScheduleSave("a")
	clock.Advance(SaveDebounce)
	if store.saves != 1 {
		t.Fatalf("expected save after settle, got %d", store.saves)
	}
}

func TestReadMergeWriteKeepsBothBoxes(t *testing.T) {
	m, store, clock := newTestModel()
	m.Add(Record{ID: "a", Left: 10, Top: 10, Width: 20, Height: 15})
	m.Add(Record{ID: "b", Left: 50, Top: 50, Width: 20, Height: 15})

	// B scheduled first, A scheduled later; A's timer resolves last and
	// must not clobber B's already-persisted record.
	m.ScheduleSave("b")
	clock.Advance(60 * time.Millisecond)
	m.ScheduleSave("a")
	clock.Advance(SaveDebounce)

	got := store.LoadBoxRecords()
	if _, ok := got["a"]; !ok {
		t.Fatalf("box a missing from persisted map")
	}
	if _, ok := got["b"]; !ok {
		t.Fatalf("box b lost to a later save")
	}
}

// slowStore widens the gap between a flush's read and its write so that
// timer goroutines firing together overlap inside the cycle.
type slowStore struct {
	memStore
	delay time.Duration
}

func (s *slowStore) LoadBoxRecords() map[string]Record {
	out := s.memStore.LoadBoxRecords()
	time.Sleep(s.delay)
	return out
}

func TestConcurrentFlushesKeepEveryBox(t *testing.T) {
	store := &slowStore{delay: 20 * time.Millisecond}
	m := NewModel(store, timing.Real())
	m.SetParentSize(800, 600)
	m.MarkSettled()
	m.Add(Record{ID: "a", Left: 10, Top: 10, Width: 20, Height: 15})
	m.Add(Record{ID: "b", Left: 50, Top: 50, Width: 20, Height: 15})

	// Real timers expire together, so both flushes run on their own
	// goroutines and overlap inside the read-merge-write cycle.
	m.ScheduleSave("a")
	m.ScheduleSave("b")

	deadline := time.Now().Add(2 * time.Second)
	for {
		store.mu.Lock()
		done := store.saves >= 2
		store.mu.Unlock()
		if done || time.Now().After(deadline) {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}

	got := store.LoadBoxRecords()
	if _, ok := got["a"]; !ok {
		t.Fatalf("box a dropped by overlapping flush: %v", got)
	}
	if _, ok := got["b"]; !ok {
		t.Fatalf("box b dropped by overlapping flush: %v", got)
	}
}

func TestSaveIsIdempotent(t *testing.T) {
	m, store, clock := newTestModel()
	m.Add(Record{ID: "a", Left: 10.12345, Top: 9.87654, Width: 20, Height: 15, Title: "Gear"})

	m.ScheduleSave("a")
	clock.Advance(SaveDebounce)
	first := store.LoadBoxRecords()["a"]

	m.ScheduleSave("a")
	clock.Advance(SaveDebounce)
	second := store.LoadBoxRecords()["a"]

	if first != second {
		t.Fatalf("repeated save drifted: %+v vs %+v", first, second)
	}
	if first.Left != 10.123 || first.Top != 9.877 {
		t.Fatalf("expected 3-decimal rounding at persistence, got %+v", first)
	}
}

func TestDragClampsToParent(t *testing.T) {
	m, _, _ := newTestModel()
	m.Add(Record{ID: "a", Left: 10, Top: 10, Width: 25, Height: 20}) // 200x120 px

	if !m.BeginDrag("a", geom.Point{X: 85, Y: 65}, false) {
		t.Fatalf("drag should start off-title")
	}
	m.DragTo("a", geom.Point{X: 5000, Y: 5000})
	r, _ := m.PixelRect("a")
	if r.Left != 800-200 || r.Top != 600-120 {
		t.Fatalf("expected clamp to parent edge, got %+v", r)
	}
	m.DragTo("a", geom.Point{X: -5000, Y: -5000})
	r, _ = m.PixelRect("a")
	if r.Left != 0 || r.Top != 0 {
		t.Fatalf("expected clamp to origin, got %+v", r)
	}
}

func TestTitlePointerDownDoesNotDrag(t *testing.T) {
	m, _, _ := newTestModel()
	m.Add(Record{ID: "a", Left: 10, Top: 10, Width: 25, Height: 20})
	if m.BeginDrag("a", geom.Point{X: 90, Y: 70}, true) {
		t.Fatalf("pointer-down on title must not start a drag")
	}
}

func TestCommitTitleTrimsAndStripsNewlines(t *testing.T) {
	m, store, clock := newTestModel()
	m.Add(Record{ID: "a", Left: 10, Top: 10, Width: 25, Height: 20})
	m.CommitTitle("a", "  Forge\nBench  ")
	clock.Advance(SaveDebounce)
	if got := store.LoadBoxRecords()["a"].Title; got != "ForgeBench" {
		t.Fatalf("expected trimmed newline-free title, got %q", got)
	}
}

func TestDragPersistRestoreRoundTrip(t *testing.T) {
	m, store, clock := newTestModel()
	m.Add(Record{ID: "a", Left: 10, Top: 10, Width: 25, Height: 20})

	m.BeginDrag("a", geom.Point{X: 85, Y: 65}, false)
	m.DragTo("a", geom.Point{X: 333.777, Y: 222.333})
	dropped, _ := m.PixelRect("a")
	m.EndDrag("a")
	clock.Advance(SaveDebounce)

	// Fresh model restoring from the same store.
	m2 := NewModel(store, clock)
	m2.SetParentSize(800, 600)
	m2.Add(Record{ID: "a"})
	m2.RestoreAll()
	restored, _ := m2.PixelRect("a")

	// 3-decimal percent rounding gives sub-0.01px tolerance on 800px.
	if math.Abs(restored.Left-dropped.Left) > 0.01 || math.Abs(restored.Top-dropped.Top) > 0.01 {
		t.Fatalf("restored %+v too far from dropped %+v", restored, dropped)
	}
}

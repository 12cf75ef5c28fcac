package snapshot

import (
	"sort"
	"sync"
	"time"

	"panelforge/internal/boxes"
	"panelforge/internal/grid"
	"panelforge/internal/timing"
)

// RingCapacity bounds the automatic backup ring.
const RingCapacity = 5

// AutoInterval is the automatic backup period. The first backup fires
// immediately when the schedule starts.
const AutoInterval = 15 * time.Minute

// Store is the slice of the persistence façade the manager needs. The
// box-record setter is used on restore so subsequent debounced autosaves
// stay consistent with the restored state.
type Store interface {
	LoadManualSnapshot() (Snapshot, bool)
	SaveManualSnapshot(Snapshot)
	LoadBackupRing() []Snapshot
	SaveBackupRing([]Snapshot)
	SaveBoxRecords(map[string]boxes.Record)
}

// Manager captures, stores and restores placement snapshots. It owns
// copies of placement state at capture time; later live mutation never
// reaches a stored snapshot.
type Manager struct {
	mu        sync.Mutex
	clock     timing.Clock
	store     Store
	boxModel  *boxes.Model
	gridModel *grid.Model
	onRestore func()
	autoTimer timing.Timer
	stopped   bool
}

func NewManager(store Store, boxModel *boxes.Model, gridModel *grid.Model, clock timing.Clock) *Manager {
	if clock == nil {
		clock = timing.Real()
	}
	return &Manager{clock: clock, store: store, boxModel: boxModel, gridModel: gridModel}
}

// SetOnRestore registers the full layout recalculation pass run after a
// restore applies.
func (m *Manager) SetOnRestore(fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.onRestore = fn
}

// Capture reads the full live box and grid state into a fresh normalized
// snapshot stamped with the current time.
func (m *Manager) Capture() Snapshot {
	snap := Snapshot{
		TS:    m.clock.Now(),
		Boxes: map[string]boxes.Record{},
		Items: m.gridModel.All(),
	}
	for _, id := range m.boxModel.IDs() {
		if rec, ok := m.boxModel.CaptureLive(id); ok {
			snap.Boxes[id] = rec
		}
	}
	snap, _ = Normalize(snap, snap.TS)
	return snap
}

// SaveManual overwrites the single manual slot with a fresh capture.
func (m *Manager) SaveManual() Snapshot {
	snap := m.Capture()
	m.store.SaveManualSnapshot(snap)
	return snap
}

// Manual loads the manual slot, normalizing legacy shapes in place
// (self-healing: the repaired record is persisted only when changed).
func (m *Manager) Manual() (Snapshot, bool) {
	raw, ok := m.store.LoadManualSnapshot()
	if !ok {
		return Snapshot{}, false
	}
	snap, changed := Normalize(raw, m.clock.Now())
	if changed {
		m.store.SaveManualSnapshot(snap)
	}
	return snap, true
}

// Backup appends a fresh capture to the automatic ring, keeping it
// sorted descending by timestamp and truncated to capacity.
func (m *Manager) Backup() Snapshot {
	snap := m.Capture()
	ring := m.store.LoadBackupRing()
	for i := range ring {
		ring[i], _ = Normalize(ring[i], m.clock.Now())
	}
	ring = append(ring, snap)
	sort.SliceStable(ring, func(i, j int) bool { return ring[i].TS.After(ring[j].TS) })
	if len(ring) > RingCapacity {
		ring = ring[:RingCapacity]
	}
	m.store.SaveBackupRing(ring)
	return snap
}

// Ring returns the stored automatic backups, newest first.
func (m *Manager) Ring() []Snapshot {
	ring := m.store.LoadBackupRing()
	for i := range ring {
		ring[i], _ = Normalize(ring[i], m.clock.Now())
	}
	sort.SliceStable(ring, func(i, j int) bool { return ring[i].TS.After(ring[j].TS) })
	return ring
}

// Entries lists the manual slot (when present) followed by the ring.
func (m *Manager) Entries() []Entry {
	out := make([]Entry, 0, RingCapacity+1)
	if snap, ok := m.Manual(); ok {
		out = append(out, Entry{Kind: KindManual, Snap: snap})
	}
	for _, snap := range m.Ring() {
		out = append(out, Entry{Kind: KindAuto, Snap: snap})
	}
	return out
}

// StartAuto begins the backup schedule: one capture immediately, then
// every AutoInterval until Stop.
func (m *Manager) StartAuto() {
	m.Backup()
	m.scheduleNext()
}

func (m *Manager) scheduleNext() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return
	}
	m.autoTimer = m.clock.AfterFunc(AutoInterval, func() {
		m.Backup()
		m.scheduleNext()
	})
}

// Stop cancels the automatic schedule.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopped = true
	if m.autoTimer != nil {
		m.autoTimer.Stop()
	}
}

// Restore applies the snapshot selected by kind+id: known boxes get their
// geometry and title back (unknown ids are skipped by the box model),
// items are re-placed (container placements re-parent and re-scale), and
// the restored maps are written back to the live stores so later
// autosaves agree with what's on screen. Returns false when no such
// snapshot exists.
func (m *Manager) Restore(kind Kind, id string) bool {
	var snap Snapshot
	found := false
	switch kind {
	case KindManual:
		if s, ok := m.Manual(); ok && s.ID == id {
			snap, found = s, true
		}
	case KindAuto:
		for _, s := range m.Ring() {
			if s.ID == id {
				snap, found = s, true
				break
			}
		}
	}
	if !found {
		return false
	}

	for boxID, rec := range snap.Boxes {
		rec.ID = boxID
		m.boxModel.ApplyRecord(rec)
	}
	for itemID, p := range snap.Items {
		m.gridModel.Apply(itemID, p)
	}

	// Write-back keeps the durable state aligned with the restored view.
	m.store.SaveBoxRecords(copyBoxes(snap.Boxes))
	m.gridModel.Persist()

	m.mu.Lock()
	fn := m.onRestore
	m.mu.Unlock()
	if fn != nil {
		fn()
	}
	return true
}

func copyBoxes(in map[string]boxes.Record) map[string]boxes.Record {
	out := make(map[string]boxes.Record, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

package boxes

import (
	"strings"
	"sync"
	"time"

	"panelforge/internal/geom"
	"panelforge/internal/timing"
)

// SaveDebounce is the per-box window coalescing rapid save triggers
// (drag end, resize stream, title edits) into one persisted write.
const SaveDebounce = 120 * time.Millisecond

// Box is the live state of one draggable container.
type Box struct {
	ID    string
	Title string

	// Percent geometry relative to the parent panel. When pctApplied is
	// true this is authoritative (mirrors an applied percent style) and
	// capture prefers it over re-deriving from pixels, avoiding double
	// rounding drift across repeated saves.
	Left, Top, Width, Height float64
	pctApplied               bool

	dragging bool
	offsetX  float64
	offsetY  float64
}

// Model tracks every box on a panel and owns their persistence cycle.
type Model struct {
	mu      sync.Mutex
	clock   timing.Clock
	store   RecordStore
	parentW float64
	parentH float64
	boxes   map[string]*Box
	order   []string
	settled bool
	timers  map[string]timing.Timer

	// saveMu serializes read-merge-write cycles. Debounce timers fire on
	// their own goroutines; two interleaved cycles would each merge into
	// the map as it stood before the other's write and drop a record.
	saveMu sync.Mutex
}

func NewModel(store RecordStore, clock timing.Clock) *Model {
	if clock == nil {
		clock = timing.Real()
	}
	return &Model{
		clock:  clock,
		store:  store,
		boxes:  map[string]*Box{},
		timers: map[string]timing.Timer{},
	}
}

// SetParentSize records the panel region boxes are positioned against.
func (m *Model) SetParentSize(w, h float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.parentW = w
	m.parentH = h
}

// Add registers a box with default percent geometry. Existing boxes keep
// their state.
func (m *Model) Add(rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.boxes[rec.ID]; ok {
		return
	}
	m.boxes[rec.ID] = &Box{
		ID:    rec.ID,
		Title: rec.Title,
		Left:  rec.Left, Top: rec.Top, Width: rec.Width, Height: rec.Height,
		pctApplied: true,
	}
	m.order = append(m.order, rec.ID)
}

// IDs returns box ids in registration order.
func (m *Model) IDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.order...)
}

// Get returns a copy of the box's live state.
func (m *Model) Get(id string) (Box, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boxes[id]
	if !ok {
		return Box{}, false
	}
	return *b, true
}

// PixelRect returns the box's current on-screen rectangle in panel pixels.
func (m *Model) PixelRect(id string) (geom.Rect, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boxes[id]
	if !ok {
		return geom.Rect{}, false
	}
	return m.pixelRectLocked(b), true
}

func (m *Model) pixelRectLocked(b *Box) geom.Rect {
	return geom.Rect{
		Left:   geom.PxOf(b.Left, m.parentW),
		Top:    geom.PxOf(b.Top, m.parentH),
		Width:  geom.PxOf(b.Width, m.parentW),
		Height: geom.PxOf(b.Height, m.parentH),
	}
}

// CaptureLive reads the box's current geometry as a normalized record.
// Applied percent geometry wins over re-deriving from the pixel rect.
func (m *Model) CaptureLive(id string) (Record, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boxes[id]
	if !ok {
		return Record{}, false
	}
	return m.captureLocked(b), true
}

func (m *Model) captureLocked(b *Box) Record {
	left, top, w, h := b.Left, b.Top, b.Width, b.Height
	if !b.pctApplied {
		px := m.pixelRectLocked(b)
		left = geom.PctOf(px.Left, m.parentW)
		top = geom.PctOf(px.Top, m.parentH)
		w = geom.PctOf(px.Width, m.parentW)
		h = geom.PctOf(px.Height, m.parentH)
	}
	return Record{
		ID:     b.ID,
		Left:   geom.Round3(left),
		Top:    geom.Round3(top),
		Width:  geom.Round3(w),
		Height: geom.Round3(h),
		Title:  strings.TrimSpace(b.Title),
	}
}

// ApplyRecord writes percent geometry and title onto a known box. Unknown
// ids are ignored.
func (m *Model) ApplyRecord(rec Record) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boxes[rec.ID]
	if !ok {
		return
	}
	b.Left, b.Top, b.Width, b.Height = rec.Left, rec.Top, rec.Width, rec.Height
	b.pctApplied = true
	if rec.Title != "" {
		b.Title = rec.Title
	}
}

// RestoreAll applies every known record from the store. Called once at
// startup, before the bootstrap grace window ends.
func (m *Model) RestoreAll() {
	for id, rec := range m.store.LoadBoxRecords() {
		rec.ID = id
		m.ApplyRecord(rec)
	}
}

// MarkSettled ends the bootstrap grace window: position-restoring side
// effects before this point must not trigger saves.
func (m *Model) MarkSettled() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settled = true
}

// ScheduleSave debounces a capture+persist cycle for one box. A pending
// timer for the same id is cancelled and replaced. On fire the latest
// full persisted map is re-read before merging this box in, so a slow
// save never clobbers another box's newer record.
func (m *Model) ScheduleSave(id string) {
	m.mu.Lock()
	if !m.settled {
		m.mu.Unlock()
		return
	}
	if _, ok := m.boxes[id]; !ok {
		m.mu.Unlock()
		return
	}
	if t, ok := m.timers[id]; ok {
		t.Stop()
	}
	m.timers[id] = m.clock.AfterFunc(SaveDebounce, func() { m.flush(id) })
	m.mu.Unlock()
}

func (m *Model) flush(id string) {
	m.mu.Lock()
	delete(m.timers, id)
	b, ok := m.boxes[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	rec := m.captureLocked(b)
	m.mu.Unlock()

	m.saveMu.Lock()
	defer m.saveMu.Unlock()
	full := m.store.LoadBoxRecords()
	if full == nil {
		full = map[string]Record{}
	}
	full[id] = rec
	m.store.SaveBoxRecords(full)
}

// FlushPending persists every box with a pending debounce immediately.
// Used on shutdown so a quit inside the debounce window loses nothing.
func (m *Model) FlushPending() {
	m.mu.Lock()
	ids := make([]string, 0, len(m.timers))
	for id, t := range m.timers {
		t.Stop()
		ids = append(ids, id)
	}
	m.timers = map[string]timing.Timer{}
	m.mu.Unlock()
	for _, id := range ids {
		m.flush(id)
	}
}

// BeginDrag starts tracking a drag gesture. Returns false when the
// pointer is on the editable title (title grabs the gesture) or the box
// is unknown.
func (m *Model) BeginDrag(id string, p geom.Point, onTitle bool) bool {
	if onTitle {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boxes[id]
	if !ok {
		return false
	}
	r := m.pixelRectLocked(b)
	b.dragging = true
	b.offsetX = p.X - r.Left
	b.offsetY = p.Y - r.Top
	return true
}

// DragTo moves a dragging box, clamped to the parent region, updating
// live percent geometry only. Nothing is persisted mid-drag.
func (m *Model) DragTo(id string, p geom.Point) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boxes[id]
	if !ok || !b.dragging {
		return
	}
	r := m.pixelRectLocked(b)
	newLeft := geom.Clamp(p.X-b.offsetX, 0, m.parentW-r.Width)
	newTop := geom.Clamp(p.Y-b.offsetY, 0, m.parentH-r.Height)
	b.Left = geom.PctOf(newLeft, m.parentW)
	b.Top = geom.PctOf(newTop, m.parentH)
	b.pctApplied = true
}

// EndDrag finishes the gesture and schedules the debounced persist.
func (m *Model) EndDrag(id string) {
	m.mu.Lock()
	b, ok := m.boxes[id]
	if ok {
		b.dragging = false
	}
	m.mu.Unlock()
	if ok {
		m.ScheduleSave(id)
	}
}

// Dragging reports whether the box has an active drag gesture.
func (m *Model) Dragging(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boxes[id]
	return ok && b.dragging
}

// Resize sets the box's size from a resize handle, in pixels, and
// schedules a save. Rapid resize streams coalesce in the debounce.
func (m *Model) Resize(id string, w, h float64) {
	m.mu.Lock()
	b, ok := m.boxes[id]
	if ok {
		b.Width = geom.PctOf(w, m.parentW)
		b.Height = geom.PctOf(h, m.parentH)
		b.pctApplied = true
	}
	m.mu.Unlock()
	if ok {
		m.ScheduleSave(id)
	}
}

// CommitTitle applies an edited title: newlines are suppressed (the edit
// surface commits instead of inserting), surrounding whitespace trimmed.
func (m *Model) CommitTitle(id, text string) {
	text = strings.ReplaceAll(text, "\n", "")
	text = strings.TrimSpace(text)
	m.mu.Lock()
	b, ok := m.boxes[id]
	if ok {
		b.Title = text
	}
	m.mu.Unlock()
	if ok {
		m.ScheduleSave(id)
	}
}

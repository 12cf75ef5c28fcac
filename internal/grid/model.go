package grid

import (
	"math"
	"sync"

	"panelforge/internal/geom"
)

// Model tracks item placements against a fixed grid plus free-form
// container membership. It owns its records exclusively; the store is a
// passive sink.
type Model struct {
	mu         sync.Mutex
	spec       Spec
	metrics    Metrics
	store      PlacementStore
	sizer      ContainerSizer
	placements map[string]Placement
	scales     map[string]float64
}

func NewModel(spec Spec, store PlacementStore) *Model {
	return &Model{
		spec:       spec,
		store:      store,
		placements: map[string]Placement{},
		scales:     map[string]float64{},
	}
}

// SetSizer attaches the container geometry resolver used for fit scaling.
func (m *Model) SetSizer(s ContainerSizer) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sizer = s
}

// Relayout recomputes grid metrics for a new panel size and refreshes
// every contained item's fit scale. Grid placements are untouched;
// placement is independent of panel resize.
func (m *Model) Relayout(panelW, panelH float64) Metrics {
	m.mu.Lock()
	m.metrics = m.spec.Layout(panelW, panelH)
	ids := make([]string, 0, len(m.placements))
	for id, p := range m.placements {
		if p.Loc == LocContainer {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.refreshScale(id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metrics
}

// Metrics returns the last computed grid geometry.
func (m *Model) Metrics() Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.metrics
}

// Placement returns the item's current placement.
func (m *Model) Placement(itemID string) (Placement, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.placements[itemID]
	return p, ok
}

// All returns a copy of every placement.
func (m *Model) All() map[string]Placement {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]Placement, len(m.placements))
	for k, v := range m.placements {
		out[k] = v
	}
	return out
}

// Place snaps an item to a grid cell. Col/row are clamped so the full
// span stays in bounds; the placement overwrites unconditionally, items
// may overlap by design.
func (m *Model) Place(itemID string, col, row, w, h int) Placement {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	m.mu.Lock()
	col = geom.ClampInt(col, 1, m.spec.Cols-w+1)
	row = geom.ClampInt(row, 1, m.spec.Rows-h+1)
	p := Placement{Loc: LocGrid, Col: col, Row: row, W: w, H: h}
	m.placements[itemID] = p
	delete(m.scales, itemID) // grid items render at natural cell size
	m.mu.Unlock()
	m.persist()
	return p
}

// PlaceInContainer moves an item into a container and scales it to fit
// the container's content area.
func (m *Model) PlaceInContainer(itemID, containerID string, w, h int) Placement {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	m.mu.Lock()
	p := Placement{Loc: LocContainer, ContainerID: containerID, W: w, H: h}
	m.placements[itemID] = p
	m.mu.Unlock()
	m.refreshScale(itemID)
	m.persist()
	return p
}

// FitScale returns the item's container fit scale; 1 when unscaled.
func (m *Model) FitScale(itemID string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.scales[itemID]; ok {
		return s
	}
	return 1
}

// ContainerResized refreshes fit scales for every item the container
// holds. Grid placements are not affected by container resize.
func (m *Model) ContainerResized(containerID string) {
	m.mu.Lock()
	ids := make([]string, 0)
	for id, p := range m.placements {
		if p.Loc == LocContainer && p.ContainerID == containerID {
			ids = append(ids, id)
		}
	}
	m.mu.Unlock()
	for _, id := range ids {
		m.refreshScale(id)
	}
}

func (m *Model) refreshScale(itemID string) {
	m.mu.Lock()
	p, ok := m.placements[itemID]
	sizer := m.sizer
	metrics := m.metrics
	m.mu.Unlock()
	if !ok || p.Loc != LocContainer || sizer == nil {
		return
	}
	availW, availH, ok := sizer.ContentSize(p.ContainerID)
	if !ok {
		return
	}
	baseW, baseH := metrics.SpanSize(p.W, p.H)
	scale := 1.0
	if baseW > 0 && baseH > 0 {
		scale = math.Min(math.Min(availW/baseW, availH/baseH), 1)
	}
	m.mu.Lock()
	m.scales[itemID] = scale
	m.mu.Unlock()
}

// RestoreAll loads placements from the store, clamping grid spans to the
// current bounds (a record saved against a larger grid self-heals).
func (m *Model) RestoreAll() {
	for id, p := range m.store.LoadItemPlacements() {
		m.apply(id, p)
	}
}

// Apply installs a placement without persisting, used by snapshot
// restore. Grid coordinates are clamped like Place.
func (m *Model) Apply(itemID string, p Placement) {
	m.apply(itemID, p)
}

func (m *Model) apply(itemID string, p Placement) {
	if p.W < 1 {
		p.W = 1
	}
	if p.H < 1 {
		p.H = 1
	}
	switch p.Loc {
	case LocGrid:
		m.mu.Lock()
		p.Col = geom.ClampInt(p.Col, 1, m.spec.Cols-p.W+1)
		p.Row = geom.ClampInt(p.Row, 1, m.spec.Rows-p.H+1)
		p.ContainerID = ""
		m.placements[itemID] = p
		delete(m.scales, itemID)
		m.mu.Unlock()
	case LocContainer:
		if p.ContainerID == "" {
			return
		}
		p.Col, p.Row = 0, 0
		m.mu.Lock()
		m.placements[itemID] = p
		m.mu.Unlock()
		m.refreshScale(itemID)
	}
}

// Persist writes the current placement map through the store, merged over
// the latest stored map so records for items this model never saw (other
// panels, newer schema) survive.
func (m *Model) Persist() { m.persist() }

func (m *Model) persist() {
	full := m.store.LoadItemPlacements()
	if full == nil {
		full = map[string]Placement{}
	}
	m.mu.Lock()
	for id, p := range m.placements {
		full[id] = p
	}
	m.mu.Unlock()
	m.store.SaveItemPlacements(full)
}

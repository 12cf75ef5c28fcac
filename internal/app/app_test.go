package app

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"panelforge/internal/boxes"
	"panelforge/internal/catalog"
	"panelforge/internal/events"
	"panelforge/internal/geom"
	"panelforge/internal/grid"
	"panelforge/internal/snapshot"
	"panelforge/internal/store"
	"panelforge/internal/telemetry"
	"panelforge/internal/timing"
	"panelforge/internal/ui"
)

type stubView struct {
	mu        sync.Mutex
	ctrl      ui.Controller
	panel     ui.PanelState
	stats     ui.StatsState
	level     ui.LevelState
	snapshots []ui.SnapshotRow
	levelErr  string
	flashes   []string
}

func (v *stubView) Run() error { return nil }

func (v *stubView) Stop() {}

func (v *stubView) SetController(c ui.Controller) { v.ctrl = c }

func (v *stubView) SetPanel(s ui.PanelState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.panel = s
}

func (v *stubView) SetStats(s ui.StatsState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.stats = s
}

func (v *stubView) SetLevel(s ui.LevelState) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.level = s
}

func (v *stubView) SetSnapshots(rows []ui.SnapshotRow) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.snapshots = rows
}

func (v *stubView) SetLevelError(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.levelErr = msg
}

func (v *stubView) FlashStatus(msg string) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.flashes = append(v.flashes, msg)
}

func testCatalog() catalog.Catalog {
	return catalog.Catalog{
		Kind:          catalog.PanelKind,
		SchemaVersion: 1,
		Name:          "장비 패널",
		Grid: catalog.GridSpec{
			Cols: 12, Rows: 10, Gap: 4, MinCell: 12,
			SideGutter: 8, BottomGutter: 8, ImageGap: 8,
		},
		Boxes: []catalog.BoxSpec{
			{ID: "tool-slot", Title: "도구", Left: 90, Top: 75, Width: 9, Height: 16, SlotType: "tool"},
		},
		Items: []catalog.ItemSpec{
			{ID: "hammer", Label: "망치", Type: "tool", W: 1, H: 1, Col: 3, Row: 2},
		},
		Stats: catalog.StatsSpec{Keys: []string{"힘", "재주", "지능"}},
		Progression: catalog.ProgressionSpec{
			Source:     catalog.SourceStatic,
			Thresholds: []float64{100, 150},
		},
	}
}

func newTestApp(t *testing.T) (*App, *stubView, *store.SQLiteStore, *timing.Manual) {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "panel.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	logger, _ := telemetry.NewJSONLogger("")
	view := &stubView{}
	clock := timing.NewManual(time.Date(2026, time.April, 2, 8, 0, 0, 0, time.UTC))
	a := newWith(DefaultConfig(), testCatalog(), st, logger, view, clock)
	a.bootstrap(context.Background())
	a.OnLayout(800, 600)
	clock.Advance(settleDelay)
	return a, view, st, clock
}

func TestBoxDragRoundTripPersists(t *testing.T) {
	a, _, st, clock := newTestApp(t)

	// Grab below the title strip of the box at 90%,75% of 800x600.
	a.OnPointerDown(geom.Point{X: 730, Y: 480})
	a.OnPointerMove(geom.Point{X: 530, Y: 300})
	a.OnPointerUp(geom.Point{X: 530, Y: 300})
	clock.Advance(boxes.SaveDebounce)

	rec, ok := st.LoadBoxRecords()["tool-slot"]
	if !ok {
		t.Fatalf("dragged box must be persisted")
	}
	if rec.Left >= 90 {
		t.Fatalf("persisted left should reflect the drag, got %v", rec.Left)
	}
}

func TestBootstrapDoesNotPersistDefaults(t *testing.T) {
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "panel.db"), nil)
	if err != nil {
		t.Fatalf("NewSQLite: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })
	if err := st.EnsureSchema(context.Background()); err != nil {
		t.Fatalf("EnsureSchema: %v", err)
	}
	logger, _ := telemetry.NewJSONLogger("")
	clock := timing.NewManual(time.Now())
	a := newWith(DefaultConfig(), testCatalog(), st, logger, &stubView{}, clock)
	a.bootstrap(context.Background())
	a.OnLayout(800, 600)

	if len(st.LoadBoxRecords()) != 0 {
		t.Fatalf("bootstrap must not write box defaults before any gesture")
	}
	if p, ok := a.gridModel.Placement("hammer"); !ok || p.Col != 3 || p.Row != 2 {
		t.Fatalf("default item placement missing: %+v", p)
	}
}

func TestItemDropIntoTypedSlot(t *testing.T) {
	a, _, _, _ := newTestApp(t)

	var equips []events.EquipmentChange
	a.bus.SubscribeEquipment(func(ev events.EquipmentChange) { equips = append(equips, ev) })

	// Default cell col 3, row 2 with 54px cells: item sits around (124,66).
	a.OnPointerDown(geom.Point{X: 130, Y: 70})
	a.OnPointerMove(geom.Point{X: 750, Y: 500})
	a.OnPointerUp(geom.Point{X: 750, Y: 500})

	p, ok := a.gridModel.Placement("hammer")
	if !ok || p.Loc != grid.LocContainer || p.ContainerID != "tool-slot" {
		t.Fatalf("expected container placement, got %+v", p)
	}
	if len(equips) != 1 || !equips[0].Equipped || equips[0].SlotType != "tool" {
		t.Fatalf("expected a single equip event, got %+v", equips)
	}
}

func TestGhostPreviewTracksDrag(t *testing.T) {
	a, view, _, _ := newTestApp(t)

	a.OnPointerDown(geom.Point{X: 130, Y: 70})
	a.OnPointerMove(geom.Point{X: 300, Y: 300})

	view.mu.Lock()
	ghost := view.panel.Ghost
	view.mu.Unlock()
	if !ghost.Active || !ghost.Valid {
		t.Fatalf("ghost should preview a valid grid target: %+v", ghost)
	}

	a.OnPointerUp(geom.Point{X: 300, Y: 300})
	view.mu.Lock()
	ghost = view.panel.Ghost
	view.mu.Unlock()
	if ghost.Active {
		t.Fatalf("ghost must clear on release")
	}
}

func TestTitleClickStartsEditNotDrag(t *testing.T) {
	a, view, _, _ := newTestApp(t)

	// Box top edge is at 75% of 600 = 450; inside the title strip.
	a.OnPointerDown(geom.Point{X: 730, Y: 455})
	view.mu.Lock()
	edit := view.panel.EditBox
	view.mu.Unlock()
	if edit != "tool-slot" {
		t.Fatalf("expected title edit to start, got %q", edit)
	}

	a.OnPointerMove(geom.Point{X: 400, Y: 300})
	rect, _ := a.boxModel.PixelRect("tool-slot")
	if rect.Left != 720 {
		t.Fatalf("box must not move during a title edit: %+v", rect)
	}

	a.OnCommitTitle("tool-slot", "  연장 보관함\n")
	if b, _ := a.boxModel.Get("tool-slot"); b.Title != "연장 보관함" {
		t.Fatalf("committed title not applied: %q", b.Title)
	}
}

func TestSnapshotSaveAndRestoreFlow(t *testing.T) {
	a, view, _, clock := newTestApp(t)

	a.OnSaveSnapshot()
	view.mu.Lock()
	rows := append([]ui.SnapshotRow(nil), view.snapshots...)
	view.mu.Unlock()
	if len(rows) == 0 || rows[0].Kind != snapshot.KindManual {
		t.Fatalf("manual snapshot should lead the list: %+v", rows)
	}

	// Drift the box, then restore the saved layout.
	a.OnPointerDown(geom.Point{X: 730, Y: 480})
	a.OnPointerMove(geom.Point{X: 400, Y: 200})
	a.OnPointerUp(geom.Point{X: 400, Y: 200})
	clock.Advance(boxes.SaveDebounce)

	a.OnRestoreSnapshot(snapshot.KindManual, rows[0].ID)
	rec, _ := a.boxModel.Get("tool-slot")
	if rec.Left != 90 {
		t.Fatalf("restore should return the box to its saved geometry: %+v", rec)
	}
}

func TestLevelUpWidensStatBudget(t *testing.T) {
	a, view, _, _ := newTestApp(t)

	for i := 0; i < 3; i++ {
		a.OnStatIncrement("힘")
	}
	view.mu.Lock()
	spent := 0
	for _, r := range view.stats.Rows {
		spent += r.Points
	}
	view.mu.Unlock()
	if spent != 0 {
		t.Fatalf("no budget at level 1, spent=%d", spent)
	}

	a.OnAddResource(120) // crosses the first 100-cost step
	view.mu.Lock()
	lvl := view.level
	view.mu.Unlock()
	if lvl.Level != 2 || lvl.ExpInto != 20 {
		t.Fatalf("unexpected level state: %+v", lvl)
	}

	for i := 0; i < 4; i++ {
		a.OnStatIncrement("힘")
	}
	if got := a.budget.Get("힘"); got != 3 {
		t.Fatalf("budget must cap at 3 points, got %d", got)
	}
}

func TestAutoBackupRunsOnSchedule(t *testing.T) {
	a, _, st, clock := newTestApp(t)

	if len(st.LoadBackupRing()) != 1 {
		t.Fatalf("bootstrap should take the first automatic backup")
	}
	clock.Advance(snapshot.AutoInterval)
	if len(st.LoadBackupRing()) != 2 {
		t.Fatalf("expected a second automatic backup after the interval")
	}
	_ = a
}

package app

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"panelforge/internal/allocation"
	"panelforge/internal/boxes"
	"panelforge/internal/catalog"
	"panelforge/internal/drop"
	"panelforge/internal/events"
	"panelforge/internal/geom"
	"panelforge/internal/grid"
	"panelforge/internal/progression"
	"panelforge/internal/sheets"
	"panelforge/internal/snapshot"
	"panelforge/internal/store"
	"panelforge/internal/telemetry"
	"panelforge/internal/timing"
	"panelforge/internal/ui"
)

// settleDelay covers the initial restore pass (two layout frames plus
// margin) before debounced autosaves arm.
const settleDelay = 132 * time.Millisecond

// titleStrip is the grab-and-edit zone at the top of each box, in panel
// pixels. Pointer-down inside it starts a title edit, never a drag.
const titleStrip = 16.0

const sheetFetchTimeout = 15 * time.Second

type dragKind int

const (
	dragNone dragKind = iota
	dragBox
	dragItem
)

// App owns every model and routes user intent between them. All pointer
// and command handling funnels through here, one gesture at a time.
type App struct {
	cfg Config

	logger *telemetry.JSONLogger
	store  *store.SQLiteStore
	cat    catalog.Catalog
	clock  timing.Clock
	bus    *events.Bus

	boxModel  *boxes.Model
	gridModel *grid.Model
	resolver  *drop.Resolver
	snaps     *snapshot.Manager
	engine    *progression.Engine
	budget    *allocation.Budget
	sheet     *sheets.Client

	view      ui.View
	sessionID string

	mu      sync.Mutex
	drag    dragKind
	dragID  string
	ghost   ui.GhostView
	panelW  float64
	panelH  float64
	laidOut bool
	editBox string
}

func New(cfg Config) (*App, error) {
	if err := os.MkdirAll(cfg.DataDir, 0o755); err != nil {
		return nil, err
	}

	logger, err := telemetry.NewJSONLogger(cfg.LogPath)
	if err != nil {
		return nil, err
	}

	st, err := store.NewSQLite(filepath.Join(cfg.DataDir, "panel.db"), nil)
	if err != nil {
		_ = logger.Close()
		return nil, err
	}
	if err := st.EnsureSchema(context.Background()); err != nil {
		_ = st.Close()
		_ = logger.Close()
		return nil, err
	}

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		_ = st.Close()
		_ = logger.Close()
		return nil, err
	}

	view := ui.New(ui.Options{
		ASCIIOnly:    cfg.ASCIIOnly,
		StyleVariant: cfg.UI.StyleVariant,
		MotionLevel:  cfg.UI.MotionLevel,
	})

	a := newWith(cfg, cat, st, logger, view, timing.Real())
	return a, nil
}

// newWith wires the models around injected collaborators. Tests swap in
// a manual clock and a stub view.
func newWith(cfg Config, cat catalog.Catalog, st *store.SQLiteStore, logger *telemetry.JSONLogger, view ui.View, clock timing.Clock) *App {
	a := &App{
		cfg:       cfg,
		logger:    logger,
		store:     st,
		cat:       cat,
		clock:     clock,
		bus:       events.NewBus(),
		view:      view,
		sessionID: uuid.NewString(),
	}

	a.boxModel = boxes.NewModel(st, clock)
	for _, b := range cat.Boxes {
		a.boxModel.Add(boxes.Record{
			ID: b.ID, Title: b.Title,
			Left: b.Left, Top: b.Top, Width: b.Width, Height: b.Height,
		})
	}

	a.gridModel = grid.NewModel(cat.GridModelSpec(), st)
	a.gridModel.SetSizer(a)

	a.engine = progression.NewEngine(st, a.bus)
	a.budget = allocation.NewBudget(st, cat.Stats.Keys)
	a.snaps = snapshot.NewManager(st, a.boxModel, a.gridModel, clock)
	a.snaps.SetOnRestore(a.onSnapshotRestored)
	a.resolver = drop.NewResolver(a, a.gridModel, a.bus)

	if cat.Progression.Source == catalog.SourceSheet {
		urls := sheets.PublishedURLs(cat.Progression.Sheet.ID, cat.Progression.Sheet.GID)
		a.sheet = sheets.NewClient(urls, nil, nil)
	}

	view.SetController(a)
	return a
}

func (a *App) Run(ctx context.Context) error {
	a.bootstrap(ctx)

	err := a.view.Run()

	a.snaps.Stop()
	a.boxModel.FlushPending()
	a.logger.Info("app.stop", map[string]any{"session": a.sessionID})
	_ = a.store.Close()
	_ = a.logger.Close()
	return err
}

// bootstrap restores persisted state, wires subscriptions and pushes the
// first full view state.
func (a *App) bootstrap(ctx context.Context) {
	a.logger.Info("app.start", map[string]any{"session": a.sessionID, "catalog": a.cat.Name})

	a.boxModel.RestoreAll()
	a.gridModel.RestoreAll()
	a.seedDefaultPlacements()

	if len(a.cat.Progression.Thresholds) > 0 {
		a.engine.SetThresholds(a.cat.Progression.Thresholds)
	}
	a.engine.Load()
	a.budget.Load(a.engine.Current().LevelIndex)

	a.bus.SubscribeLevel(func(ev events.LevelChange) {
		a.budget.OnLevelChange(ev)
		a.logger.Info("level.changed", map[string]any{
			"level": ev.Level, "index": ev.LevelIndex, "previous": ev.PreviousIndex,
		})
		a.pushStats()
		a.pushLevel()
	})

	if a.sheet != nil && !a.cfg.Offline {
		go a.loadSheetThresholds(ctx)
	}

	a.snaps.StartAuto()

	a.pushPanel()
	a.pushStats()
	a.pushLevel()
	a.pushSnapshots()
}

// seedDefaultPlacements gives catalog items without a persisted record
// their default grid cell. Apply skips persistence, so first launch does
// not write anything during bootstrap.
func (a *App) seedDefaultPlacements() {
	for _, it := range a.cat.Items {
		if _, ok := a.gridModel.Placement(it.ID); ok {
			continue
		}
		a.gridModel.Apply(it.ID, grid.Placement{
			Loc: grid.LocGrid, Col: it.Col, Row: it.Row, W: it.W, H: it.H,
		})
	}
}

func (a *App) loadSheetThresholds(ctx context.Context) {
	fetchCtx, cancel := context.WithTimeout(ctx, sheetFetchTimeout)
	defer cancel()
	ths, err := a.sheet.FetchThresholds(fetchCtx)
	if err != nil {
		// Not fatal: the panel keeps running on the catalog thresholds.
		a.logger.Warn("sheet.load_failed", map[string]any{"error": err.Error()})
		a.view.SetLevelError("레벨 데이터를 불러오지 못했습니다. 시트 공개 설정과 C열 값을 확인하세요.")
		return
	}
	a.logger.Info("sheet.loaded", map[string]any{"steps": len(ths)})
	a.engine.SetThresholds(ths)
	a.pushLevel()
}

// GridMetrics implements drop.Targets.
func (a *App) GridMetrics() grid.Metrics {
	return a.gridModel.Metrics()
}

// Containers implements drop.Targets: every box is a drop candidate, in
// catalog order.
func (a *App) Containers() []drop.ContainerInfo {
	out := make([]drop.ContainerInfo, 0, len(a.cat.Boxes))
	for _, b := range a.cat.Boxes {
		rect, ok := a.boxModel.PixelRect(b.ID)
		if !ok {
			continue
		}
		out = append(out, drop.ContainerInfo{ID: b.ID, Rect: rect, SlotType: b.SlotType})
	}
	return out
}

// ContentSize implements grid.ContainerSizer: a box's content area is
// its rectangle minus the title strip.
func (a *App) ContentSize(containerID string) (float64, float64, bool) {
	rect, ok := a.boxModel.PixelRect(containerID)
	if !ok {
		return 0, 0, false
	}
	h := rect.Height - titleStrip
	if h < 0 {
		h = 0
	}
	return rect.Width, h, true
}

func (a *App) OnLayout(widthPx, heightPx float64) {
	a.mu.Lock()
	first := !a.laidOut
	a.laidOut = true
	a.panelW, a.panelH = widthPx, heightPx
	a.mu.Unlock()

	a.boxModel.SetParentSize(widthPx, heightPx)
	a.gridModel.Relayout(widthPx, heightPx)

	if first {
		a.clock.AfterFunc(settleDelay, func() {
			a.boxModel.MarkSettled()
			a.logger.Info("layout.settled", nil)
		})
	}
	a.pushPanel()
}

func (a *App) OnPointerDown(p geom.Point) {
	// Items sit above boxes; later catalog entries render on top.
	for i := len(a.cat.Items) - 1; i >= 0; i-- {
		it := a.cat.Items[i]
		rect, ok := a.itemRect(it.ID)
		if !ok || !rect.Contains(p) {
			continue
		}
		a.mu.Lock()
		a.drag = dragItem
		a.dragID = it.ID
		a.ghost = ui.GhostView{}
		a.editBox = ""
		a.mu.Unlock()
		a.pushPanel()
		return
	}

	ids := a.boxModel.IDs()
	for i := len(ids) - 1; i >= 0; i-- {
		id := ids[i]
		rect, ok := a.boxModel.PixelRect(id)
		if !ok || !rect.Contains(p) {
			continue
		}
		onTitle := p.Y <= rect.Top+titleStrip
		a.mu.Lock()
		a.editBox = ""
		a.mu.Unlock()
		if a.boxModel.BeginDrag(id, p, onTitle) {
			a.mu.Lock()
			a.drag = dragBox
			a.dragID = id
			a.mu.Unlock()
		} else if onTitle {
			a.mu.Lock()
			a.editBox = id
			a.mu.Unlock()
		}
		a.pushPanel()
		return
	}

	a.mu.Lock()
	a.editBox = ""
	a.mu.Unlock()
	a.pushPanel()
}

func (a *App) OnPointerMove(p geom.Point) {
	a.mu.Lock()
	kind, id := a.drag, a.dragID
	a.mu.Unlock()

	switch kind {
	case dragBox:
		a.boxModel.DragTo(id, p)
		a.pushPanel()
	case dragItem:
		a.mu.Lock()
		a.ghost = a.ghostFor(id, p)
		a.mu.Unlock()
		a.pushPanel()
	}
}

func (a *App) OnPointerUp(p geom.Point) {
	a.mu.Lock()
	kind, id := a.drag, a.dragID
	a.drag = dragNone
	a.dragID = ""
	a.ghost = ui.GhostView{}
	a.mu.Unlock()

	switch kind {
	case dragBox:
		a.boxModel.EndDrag(id)
	case dragItem:
		if it, ok := a.cat.Item(id); ok {
			out := a.resolver.Resolve(drop.Item{ID: it.ID, Type: it.Type, W: it.W, H: it.H}, p)
			a.logger.Info("item.dropped", map[string]any{
				"item": id, "kind": int(out.Kind), "loc": string(out.Placement.Loc),
			})
		}
	}
	a.pushPanel()
}

func (a *App) OnCommitTitle(boxID, title string) {
	a.boxModel.CommitTitle(boxID, title)
	a.mu.Lock()
	a.editBox = ""
	a.mu.Unlock()
	a.pushPanel()
}

func (a *App) OnSaveSnapshot() {
	snap := a.snaps.SaveManual()
	a.logger.Info("snapshot.saved", map[string]any{"id": snap.ID})
	a.view.FlashStatus("배치 저장됨")
	a.pushSnapshots()
}

func (a *App) OnBackupNow() {
	snap := a.snaps.Backup()
	a.logger.Info("backup.saved", map[string]any{"id": snap.ID})
	a.view.FlashStatus("백업 저장됨")
	a.pushSnapshots()
}

func (a *App) OnRestoreSnapshot(kind snapshot.Kind, id string) {
	if !a.snaps.Restore(kind, id) {
		a.logger.Warn("snapshot.restore_missing", map[string]any{"id": id, "kind": string(kind)})
		a.view.FlashStatus("스냅샷을 찾을 수 없습니다")
		return
	}
	a.logger.Info("snapshot.restored", map[string]any{"id": id, "kind": string(kind)})
	a.view.FlashStatus("배치 복원됨")
}

func (a *App) OnStatIncrement(key string) {
	if a.budget.Increment(key) {
		a.pushStats()
	}
}

func (a *App) OnStatDecrement(key string) {
	if a.budget.Decrement(key) {
		a.pushStats()
	}
}

func (a *App) OnAddResource(delta float64) {
	a.engine.Add(delta)
	a.pushLevel()
}

func (a *App) OnSelectLevel(levelIndex int) {
	a.engine.SelectLevel(levelIndex)
	a.pushLevel()
}

func (a *App) OnQuit() {
	a.view.Stop()
}

// onSnapshotRestored is the recalculation pass after a restore: contained
// items re-fit against the restored box geometry and every surface
// re-renders.
func (a *App) onSnapshotRestored() {
	for _, b := range a.cat.Boxes {
		a.gridModel.ContainerResized(b.ID)
	}
	a.pushPanel()
	a.pushSnapshots()
}

func (a *App) itemRect(id string) (geom.Rect, bool) {
	p, ok := a.gridModel.Placement(id)
	if !ok {
		return geom.Rect{}, false
	}
	m := a.gridModel.Metrics()
	switch p.Loc {
	case grid.LocGrid:
		w, h := m.SpanSize(p.W, p.H)
		unit := m.Cell + m.Gap
		return geom.Rect{
			Left:   m.OriginX + float64(p.Col-1)*unit,
			Top:    m.OriginY + float64(p.Row-1)*unit,
			Width:  w,
			Height: h,
		}, true
	case grid.LocContainer:
		rect, ok := a.boxModel.PixelRect(p.ContainerID)
		if !ok {
			return geom.Rect{}, false
		}
		scale := a.gridModel.FitScale(id)
		baseW, baseH := m.SpanSize(p.W, p.H)
		w, h := baseW*scale, baseH*scale
		content := geom.Rect{
			Left: rect.Left, Top: rect.Top + titleStrip,
			Width: rect.Width, Height: rect.Height - titleStrip,
		}
		return geom.Rect{
			Left:   content.Left + (content.Width-w)/2,
			Top:    content.Top + (content.Height-h)/2,
			Width:  w,
			Height: h,
		}, true
	}
	return geom.Rect{}, false
}

func (a *App) ghostFor(id string, p geom.Point) ui.GhostView {
	it, ok := a.cat.Item(id)
	if !ok {
		return ui.GhostView{}
	}
	out := a.resolver.Preview(drop.Item{ID: it.ID, Type: it.Type, W: it.W, H: it.H}, p)
	m := a.gridModel.Metrics()
	switch out.Kind {
	case drop.KindGrid:
		w, h := m.SpanSize(out.Placement.W, out.Placement.H)
		unit := m.Cell + m.Gap
		return ui.GhostView{
			Active: true,
			Valid:  true,
			Rect: geom.Rect{
				Left:   m.OriginX + float64(out.Placement.Col-1)*unit,
				Top:    m.OriginY + float64(out.Placement.Row-1)*unit,
				Width:  w,
				Height: h,
			},
		}
	case drop.KindContainer:
		rect, ok := a.boxModel.PixelRect(out.Placement.ContainerID)
		if !ok {
			return ui.GhostView{}
		}
		return ui.GhostView{Active: true, Valid: true, Rect: rect}
	}
	w, h := m.SpanSize(it.W, it.H)
	return ui.GhostView{
		Active: true,
		Valid:  false,
		Rect:   geom.Rect{Left: p.X - w/2, Top: p.Y - h/2, Width: w, Height: h},
	}
}

func (a *App) pushPanel() {
	a.mu.Lock()
	ghost := a.ghost
	editBox := a.editBox
	drag, dragID := a.drag, a.dragID
	a.mu.Unlock()

	state := ui.PanelState{
		Metrics: a.gridModel.Metrics(),
		Ghost:   ghost,
		EditBox: editBox,
	}
	for _, id := range a.boxModel.IDs() {
		b, ok := a.boxModel.Get(id)
		if !ok {
			continue
		}
		rect, _ := a.boxModel.PixelRect(id)
		slot := ""
		if spec, ok := a.cat.Box(id); ok {
			slot = spec.SlotType
		}
		state.Boxes = append(state.Boxes, ui.BoxView{
			ID:       id,
			Title:    b.Title,
			Rect:     rect,
			SlotType: slot,
			Dragging: a.boxModel.Dragging(id),
		})
	}
	for _, it := range a.cat.Items {
		rect, ok := a.itemRect(it.ID)
		if !ok {
			continue
		}
		p, _ := a.gridModel.Placement(it.ID)
		state.Items = append(state.Items, ui.ItemView{
			ID:          it.ID,
			Label:       it.Label,
			Rect:        rect,
			ContainerID: p.ContainerID,
			Scale:       a.gridModel.FitScale(it.ID),
			Dragging:    drag == dragItem && dragID == it.ID,
		})
	}
	a.view.SetPanel(state)
}

func (a *App) pushStats() {
	st := ui.StatsState{
		Remaining: a.budget.Remaining(),
		Total:     a.budget.Total(),
	}
	for _, key := range a.cat.Stats.Keys {
		st.Rows = append(st.Rows, ui.StatRow{Key: key, Points: a.budget.Get(key)})
	}
	a.view.SetStats(st)
}

func (a *App) pushLevel() {
	d := a.engine.Current()
	a.view.SetLevel(ui.LevelState{
		Level:      d.Level,
		LevelIndex: d.LevelIndex,
		ExpInto:    d.ExpInto,
		ReqForNext: d.ReqForNext,
		Total:      d.Total,
		MaxLevel:   d.ReqForNext <= 0,
	})
}

func (a *App) pushSnapshots() {
	entries := a.snaps.Entries()
	rows := make([]ui.SnapshotRow, 0, len(entries))
	for _, e := range entries {
		label := e.Snap.TS.Format("01-02 15:04:05")
		if e.Kind == snapshot.KindManual {
			label = fmt.Sprintf("저장 슬롯 · %s", label)
		} else {
			label = fmt.Sprintf("자동 백업 · %s", label)
		}
		rows = append(rows, ui.SnapshotRow{Kind: e.Kind, ID: e.Snap.ID, Label: label})
	}
	a.view.SetSnapshots(rows)
}

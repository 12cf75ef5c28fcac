package ui

import (
	"panelforge/internal/geom"
	"panelforge/internal/grid"
	"panelforge/internal/snapshot"
)

// Controller receives user intent from the view. Pointer coordinates are
// already mapped into panel pixels.
type Controller interface {
	OnLayout(widthPx, heightPx float64)
	OnPointerDown(p geom.Point)
	OnPointerMove(p geom.Point)
	OnPointerUp(p geom.Point)
	OnCommitTitle(boxID, title string)
	OnSaveSnapshot()
	OnBackupNow()
	OnRestoreSnapshot(kind snapshot.Kind, id string)
	OnStatIncrement(key string)
	OnStatDecrement(key string)
	OnAddResource(delta float64)
	OnSelectLevel(levelIndex int)
	OnQuit()
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetPanel(PanelState)
	SetStats(StatsState)
	SetLevel(LevelState)
	SetSnapshots([]SnapshotRow)
	SetLevelError(msg string)
	FlashStatus(msg string)
}

type LayoutMode int

const (
	LayoutWide LayoutMode = iota
	LayoutMedium
	LayoutTooSmall
)

// PanelState is everything the left panel renders: the grid, the
// floating boxes and the items, all in panel pixels.
type PanelState struct {
	Metrics grid.Metrics
	Boxes   []BoxView
	Items   []ItemView
	Ghost   GhostView
	EditBox string
}

type BoxView struct {
	ID       string
	Title    string
	Rect     geom.Rect
	SlotType string
	Dragging bool
}

type ItemView struct {
	ID          string
	Label       string
	Rect        geom.Rect
	ContainerID string
	Scale       float64
	Dragging    bool
}

// GhostView is the non-committing drop preview.
type GhostView struct {
	Active bool
	Valid  bool
	Rect   geom.Rect
}

type StatsState struct {
	Rows      []StatRow
	Remaining int
	Total     int
}

type StatRow struct {
	Key    string
	Points int
}

type LevelState struct {
	Level      int
	LevelIndex int
	ExpInto    float64
	ReqForNext float64
	Total      float64
	MaxLevel   bool
}

type SnapshotRow struct {
	Kind  snapshot.Kind
	ID    string
	Label string
}

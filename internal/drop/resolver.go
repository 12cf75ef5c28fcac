package drop

import (
	"strings"

	"panelforge/internal/events"
	"panelforge/internal/geom"
	"panelforge/internal/grid"
)

// ContainerInfo is one drop candidate: a container's on-screen rectangle
// and its optional required slot type.
type ContainerInfo struct {
	ID       string
	Rect     geom.Rect
	SlotType string
}

// Targets supplies the current drop geometry. Implemented by the app over
// the live box and grid models.
type Targets interface {
	GridMetrics() grid.Metrics
	Containers() []ContainerInfo
}

// Item is the dragged item's identity as the resolver needs it.
type Item struct {
	ID   string
	Type string
	W    int
	H    int
}

// Kind classifies a resolution outcome.
type Kind int

const (
	// KindNone: no valid target, the gesture reverts to the item's last
	// committed placement.
	KindNone Kind = iota
	KindGrid
	KindContainer
)

// Outcome reports what a pointer-up resolved to.
type Outcome struct {
	Kind      Kind
	Placement grid.Placement
}

// Expansion of a container's hit region per axis: half its size on each
// side, so small containers stay easy to hit.
const hitExpand = 0.5

// Resolver turns a drag release point into exactly one placement change,
// or none.
type Resolver struct {
	targets Targets
	model   *grid.Model
	bus     *events.Bus
}

func NewResolver(targets Targets, model *grid.Model, bus *events.Bus) *Resolver {
	return &Resolver{targets: targets, model: model, bus: bus}
}

// Preview classifies the pointer position mid-drag without committing
// anything. The grid outcome carries the snap cell for ghost rendering.
func (r *Resolver) Preview(item Item, p geom.Point) Outcome {
	if col, row, ok := r.targets.GridMetrics().CellAt(p); ok {
		return Outcome{Kind: KindGrid, Placement: grid.Placement{Loc: grid.LocGrid, Col: col, Row: row, W: item.W, H: item.H}}
	}
	if c, ok := r.containerAt(p); ok {
		if !slotAccepts(c.SlotType, item.Type) {
			return Outcome{Kind: KindNone}
		}
		return Outcome{Kind: KindContainer, Placement: grid.Placement{Loc: grid.LocContainer, ContainerID: c.ID, W: item.W, H: item.H}}
	}
	return Outcome{Kind: KindNone}
}

// Resolve commits the drop. Grid wins over containers; the first
// container whose expanded region holds the pointer wins among
// containers; a declared slot type that doesn't match the item rejects
// the drop outright.
func (r *Resolver) Resolve(item Item, p geom.Point) Outcome {
	prev, hadPrev := r.model.Placement(item.ID)

	if col, row, ok := r.targets.GridMetrics().CellAt(p); ok {
		placed := r.model.Place(item.ID, col, row, item.W, item.H)
		if hadPrev && prev.Loc == grid.LocContainer {
			r.emitUnequip(item, prev.ContainerID)
		}
		return Outcome{Kind: KindGrid, Placement: placed}
	}

	c, ok := r.containerAt(p)
	if !ok {
		return Outcome{Kind: KindNone}
	}
	if !slotAccepts(c.SlotType, item.Type) {
		return Outcome{Kind: KindNone}
	}

	sameContainer := hadPrev && prev.Loc == grid.LocContainer && prev.ContainerID == c.ID
	placed := r.model.PlaceInContainer(item.ID, c.ID, item.W, item.H)
	if !sameContainer {
		if hadPrev && prev.Loc == grid.LocContainer {
			r.emitUnequip(item, prev.ContainerID)
		}
		r.bus.PublishEquipment(events.EquipmentChange{
			ItemID:   item.ID,
			ItemType: item.Type,
			Equipped: true,
			SlotType: c.SlotType,
		})
	}
	return Outcome{Kind: KindContainer, Placement: placed}
}

func (r *Resolver) emitUnequip(item Item, containerID string) {
	slot := ""
	for _, c := range r.targets.Containers() {
		if c.ID == containerID {
			slot = c.SlotType
			break
		}
	}
	r.bus.PublishEquipment(events.EquipmentChange{
		ItemID:   item.ID,
		ItemType: item.Type,
		Equipped: false,
		SlotType: slot,
	})
}

func (r *Resolver) containerAt(p geom.Point) (ContainerInfo, bool) {
	for _, c := range r.targets.Containers() {
		if c.Rect.Expand(hitExpand, hitExpand).Contains(p) {
			return c, true
		}
	}
	return ContainerInfo{}, false
}

func slotAccepts(slotType, itemType string) bool {
	if slotType == "" {
		return true
	}
	return strings.EqualFold(slotType, itemType)
}

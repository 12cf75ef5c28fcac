package grid

// Location discriminates the placement union. An item is either snapped
// to a grid cell or held by a container, never both.
type Location string

const (
	LocGrid      Location = "inv"
	LocContainer Location = "box"
)

// Placement is the persisted location of one item.
type Placement struct {
	Loc         Location `json:"loc"`
	Col         int      `json:"col,omitempty"`
	Row         int      `json:"row,omitempty"`
	W           int      `json:"w"`
	H           int      `json:"h"`
	ContainerID string   `json:"boxId,omitempty"`
}

// PlacementStore is the slice of the persistence façade the grid model
// needs. LoadItemPlacements returns an empty map when the stored value is
// absent or malformed.
type PlacementStore interface {
	LoadItemPlacements() map[string]Placement
	SaveItemPlacements(map[string]Placement)
}

// ContainerSizer resolves a container's content area in panel pixels so
// contained items can be scaled to fit.
type ContainerSizer interface {
	ContentSize(containerID string) (w, h float64, ok bool)
}

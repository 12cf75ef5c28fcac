package catalog

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	PanelKind              = "panel"
	SupportedSchemaVersion = 1

	SourceStatic = "static"
	SourceSheet  = "sheet"
)

var idPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]{0,63}$`)

// Catalog is the panel definition: the grid geometry, the boxes and
// items the panel starts with, the stat keys, and where the level table
// comes from. Persisted state overrides the default placements here.
type Catalog struct {
	Kind          string          `yaml:"kind"`
	SchemaVersion int             `yaml:"schema_version"`
	Name          string          `yaml:"name"`
	Grid          GridSpec        `yaml:"grid"`
	Boxes         []BoxSpec       `yaml:"boxes"`
	Items         []ItemSpec      `yaml:"items"`
	Stats         StatsSpec       `yaml:"stats"`
	Progression   ProgressionSpec `yaml:"progression"`

	Path string `yaml:"-"`
}

// GridSpec mirrors the inventory panel's fixed grid. Pixel fields are
// panel-pixel units.
type GridSpec struct {
	Cols         int     `yaml:"cols"`
	Rows         int     `yaml:"rows"`
	Gap          float64 `yaml:"gap"`
	MinCell      float64 `yaml:"min_cell"`
	SideGutter   float64 `yaml:"side_gutter"`
	BottomGutter float64 `yaml:"bottom_gutter"`
	ImageGap     float64 `yaml:"image_gap"`
	ImageAspect  float64 `yaml:"image_aspect"`
}

// BoxSpec is a floating box's default geometry in parent percentages.
// SlotType gates which item types the box accepts; empty accepts all.
type BoxSpec struct {
	ID       string  `yaml:"id"`
	Title    string  `yaml:"title"`
	Left     float64 `yaml:"left"`
	Top      float64 `yaml:"top"`
	Width    float64 `yaml:"width"`
	Height   float64 `yaml:"height"`
	SlotType string  `yaml:"slot_type"`
}

// ItemSpec is a draggable item and its default grid cell.
type ItemSpec struct {
	ID    string `yaml:"id"`
	Label string `yaml:"label"`
	Type  string `yaml:"type"`
	W     int    `yaml:"w"`
	H     int    `yaml:"h"`
	Col   int    `yaml:"col"`
	Row   int    `yaml:"row"`
}

// StatsSpec names the allocatable stats in display order. The order is
// also the refund order when a level drop shrinks the budget.
type StatsSpec struct {
	Keys []string `yaml:"keys"`
}

// ProgressionSpec selects the level table source: a static threshold
// list embedded here, or a published sheet fetched at startup.
type ProgressionSpec struct {
	Source     string    `yaml:"source"`
	Thresholds []float64 `yaml:"thresholds"`
	Sheet      SheetRef  `yaml:"sheet"`
}

type SheetRef struct {
	ID  string `yaml:"id"`
	GID string `yaml:"gid"`
}

func (c Catalog) Validate() error {
	if c.Kind != PanelKind {
		return fmt.Errorf("kind must be %q", PanelKind)
	}
	if c.SchemaVersion == 0 {
		return fmt.Errorf("schema_version is required")
	}
	if c.SchemaVersion > SupportedSchemaVersion {
		return fmt.Errorf("unsupported schema_version %d (max supported %d)", c.SchemaVersion, SupportedSchemaVersion)
	}
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.Grid.Cols < 1 || c.Grid.Rows < 1 {
		return fmt.Errorf("grid.cols and grid.rows must be at least 1")
	}
	seenBoxes := map[string]struct{}{}
	for _, b := range c.Boxes {
		if !idPattern.MatchString(b.ID) {
			return fmt.Errorf("invalid box id %q", b.ID)
		}
		if _, ok := seenBoxes[b.ID]; ok {
			return fmt.Errorf("duplicate box id %q", b.ID)
		}
		seenBoxes[b.ID] = struct{}{}
		if b.Width <= 0 || b.Height <= 0 {
			return fmt.Errorf("box %q: width and height must be positive", b.ID)
		}
	}
	seenItems := map[string]struct{}{}
	for _, it := range c.Items {
		if !idPattern.MatchString(it.ID) {
			return fmt.Errorf("invalid item id %q", it.ID)
		}
		if _, ok := seenItems[it.ID]; ok {
			return fmt.Errorf("duplicate item id %q", it.ID)
		}
		seenItems[it.ID] = struct{}{}
	}
	seenStats := map[string]struct{}{}
	for _, k := range c.Stats.Keys {
		key := strings.TrimSpace(k)
		if key == "" {
			return fmt.Errorf("stats.keys must not contain empty entries")
		}
		if _, ok := seenStats[key]; ok {
			return fmt.Errorf("duplicate stat key %q", key)
		}
		seenStats[key] = struct{}{}
	}
	switch c.Progression.Source {
	case "", SourceStatic:
	case SourceSheet:
		if c.Progression.Sheet.ID == "" {
			return fmt.Errorf("progression.sheet.id is required when source is %q", SourceSheet)
		}
	default:
		return fmt.Errorf("progression.source must be %q or %q", SourceStatic, SourceSheet)
	}
	return nil
}

package catalog

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"panelforge/internal/grid"
)

// Load reads, validates and defaults a panel definition.
func Load(path string) (Catalog, error) {
	var cat Catalog
	b, err := os.ReadFile(path)
	if err != nil {
		return cat, fmt.Errorf("load catalog %s: %w", path, err)
	}
	if err := yaml.Unmarshal(b, &cat); err != nil {
		return cat, fmt.Errorf("load catalog %s: %w", path, err)
	}
	if err := cat.Validate(); err != nil {
		return cat, fmt.Errorf("load catalog %s: %w", path, err)
	}
	cat.Path = path
	applyDefaults(&cat)
	return cat, nil
}

func applyDefaults(cat *Catalog) {
	if cat.Grid.Gap <= 0 {
		cat.Grid.Gap = 4
	}
	if cat.Grid.MinCell <= 0 {
		cat.Grid.MinCell = 12
	}
	if cat.Grid.SideGutter <= 0 {
		cat.Grid.SideGutter = 8
	}
	if cat.Grid.BottomGutter <= 0 {
		cat.Grid.BottomGutter = 8
	}
	if cat.Grid.ImageGap <= 0 {
		cat.Grid.ImageGap = 8
	}
	if cat.Grid.ImageAspect < 0 {
		cat.Grid.ImageAspect = 0
	}
	if cat.Progression.Source == "" {
		cat.Progression.Source = SourceStatic
	}
	if cat.Progression.Source == SourceSheet && cat.Progression.Sheet.GID == "" {
		cat.Progression.Sheet.GID = "0"
	}
	for i := range cat.Items {
		if cat.Items[i].W < 1 {
			cat.Items[i].W = 1
		}
		if cat.Items[i].H < 1 {
			cat.Items[i].H = 1
		}
		if cat.Items[i].Col < 1 {
			cat.Items[i].Col = 1
		}
		if cat.Items[i].Row < 1 {
			cat.Items[i].Row = 1
		}
		cat.Items[i].Type = strings.TrimSpace(cat.Items[i].Type)
	}
	for i := range cat.Stats.Keys {
		cat.Stats.Keys[i] = strings.TrimSpace(cat.Stats.Keys[i])
	}
}

// GridModelSpec converts the catalog grid into the placement model's spec.
func (c Catalog) GridModelSpec() grid.Spec {
	return grid.Spec{
		Cols:         c.Grid.Cols,
		Rows:         c.Grid.Rows,
		Gap:          c.Grid.Gap,
		MinCell:      c.Grid.MinCell,
		SideGutter:   c.Grid.SideGutter,
		BottomGutter: c.Grid.BottomGutter,
		ImageGap:     c.Grid.ImageGap,
		ImageAspect:  c.Grid.ImageAspect,
	}
}

// Item returns the item spec for an id.
func (c Catalog) Item(id string) (ItemSpec, bool) {
	for _, it := range c.Items {
		if it.ID == id {
			return it, true
		}
	}
	return ItemSpec{}, false
}

// Box returns the box spec for an id.
func (c Catalog) Box(id string) (BoxSpec, bool) {
	for _, b := range c.Boxes {
		if b.ID == id {
			return b, true
		}
	}
	return BoxSpec{}, false
}

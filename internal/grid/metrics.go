package grid

import (
	"math"

	"panelforge/internal/geom"
)

// Spec is the fixed geometry of the inventory grid and its framing
// inside the panel.
type Spec struct {
	Cols         int
	Rows         int
	Gap          float64
	MinCell      float64
	SideGutter   float64
	BottomGutter float64
	ImageGap     float64
	// ImageAspect is the background art's intrinsic height/width ratio;
	// its rendered height offsets the grid downward. Zero means no art.
	ImageAspect float64
}

// Metrics is the resolved grid geometry for a concrete panel size.
type Metrics struct {
	Cell    float64
	Gap     float64
	OriginX float64
	OriginY float64
	Cols    int
	Rows    int
}

// Layout sizes the grid to fit the panel under the background image and
// gutters. Cell size is floored to whole pixels with MinCell as the floor.
func (s Spec) Layout(panelW, panelH float64) Metrics {
	imageH := 0.0
	if s.ImageAspect > 0 {
		imageH = math.Round(panelW * s.ImageAspect)
	}
	top := imageH + s.ImageGap
	maxW := math.Max(0, panelW-2*s.SideGutter)
	maxH := math.Max(0, panelH-(top+s.BottomGutter))

	cellFromW := (maxW - float64(s.Cols-1)*s.Gap) / float64(s.Cols)
	cellFromH := (maxH - float64(s.Rows-1)*s.Gap) / float64(s.Rows)
	cell := math.Min(cellFromW, cellFromH)
	cell = math.Max(s.MinCell, cell)
	cell = math.Max(0, math.Floor(cell))

	return Metrics{
		Cell:    cell,
		Gap:     s.Gap,
		OriginX: s.SideGutter,
		OriginY: top,
		Cols:    s.Cols,
		Rows:    s.Rows,
	}
}

// Bounds is the grid's rendered rectangle in panel pixels.
func (m Metrics) Bounds() geom.Rect {
	return geom.Rect{
		Left:   m.OriginX,
		Top:    m.OriginY,
		Width:  float64(m.Cols)*m.Cell + float64(m.Cols-1)*m.Gap,
		Height: float64(m.Rows)*m.Cell + float64(m.Rows-1)*m.Gap,
	}
}

// CellAt maps a panel-space point to a 1-indexed grid cell. The second
// return is false when the point falls outside the rendered grid.
func (m Metrics) CellAt(p geom.Point) (col, row int, ok bool) {
	b := m.Bounds()
	x := p.X - b.Left
	y := p.Y - b.Top
	if x < 0 || y < 0 || x > b.Width || y > b.Height {
		return 0, 0, false
	}
	unit := m.Cell + m.Gap
	if unit <= 0 {
		return 0, 0, false
	}
	// Nudge avoids a boundary point resolving into the gap's far cell.
	col = int(math.Floor((x+1e-4)/unit)) + 1
	row = int(math.Floor((y+1e-4)/unit)) + 1
	if col < 1 || row < 1 || col > m.Cols || row > m.Rows {
		return 0, 0, false
	}
	return col, row, true
}

// SpanSize is the pixel footprint of a w×h cell span.
func (m Metrics) SpanSize(w, h int) (float64, float64) {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return float64(w)*m.Cell + float64(w-1)*m.Gap, float64(h)*m.Cell + float64(h-1)*m.Gap
}

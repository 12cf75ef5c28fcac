package ui

import "panelforge/internal/geom"

// Terminal cells map onto the engine's pixel space at a fixed scale, so
// percent geometry and grid metrics stay resolution-independent.
const (
	CellPxW = 8.0
	CellPxH = 16.0
)

const (
	sidebarWidth = 34
	minCols      = 72
	minRows      = 20
)

func DetermineLayoutMode(cols, rows int) LayoutMode {
	if cols < minCols || rows < minRows {
		return LayoutTooSmall
	}
	if cols < minCols+sidebarWidth {
		return LayoutMedium
	}
	return LayoutWide
}

// panelCells returns the canvas size in terminal cells for a layout.
func panelCells(cols, rows int, mode LayoutMode) (int, int) {
	w := cols
	if mode == LayoutWide {
		w = cols - sidebarWidth
	}
	h := rows - 2 // header and status lines
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return w, h
}

// cellToPx maps a pointer cell position to panel pixels, aimed at the
// cell's center so hit tests behave the same across cell sizes.
func cellToPx(x, y int) geom.Point {
	return geom.Point{X: (float64(x) + 0.5) * CellPxW, Y: (float64(y) + 0.5) * CellPxH}
}

// pxRectToCells converts a panel-pixel rectangle to inclusive cell
// bounds on the canvas.
func pxRectToCells(r geom.Rect) (x0, y0, x1, y1 int) {
	x0 = int(r.Left / CellPxW)
	y0 = int(r.Top / CellPxH)
	x1 = int((r.Right() - 1) / CellPxW)
	y1 = int((r.Bottom() - 1) / CellPxH)
	if x1 < x0 {
		x1 = x0
	}
	if y1 < y0 {
		y1 = y0
	}
	return x0, y0, x1, y1
}

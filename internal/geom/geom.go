package geom

import "math"

// Point is a position in panel pixel space.
type Point struct {
	X float64
	Y float64
}

// Rect is an axis-aligned rectangle in panel pixel space.
type Rect struct {
	Left   float64
	Top    float64
	Width  float64
	Height float64
}

func (r Rect) Right() float64  { return r.Left + r.Width }
func (r Rect) Bottom() float64 { return r.Top + r.Height }

// Contains reports whether p falls inside r, edges inclusive.
func (r Rect) Contains(p Point) bool {
	return p.X >= r.Left && p.X <= r.Right() && p.Y >= r.Top && p.Y <= r.Bottom()
}

// Expand grows the rectangle by fx*Width on each horizontal side and
// fy*Height on each vertical side. Used for forgiving drop regions.
func (r Rect) Expand(fx, fy float64) Rect {
	return Rect{
		Left:   r.Left - r.Width*fx,
		Top:    r.Top - r.Height*fy,
		Width:  r.Width * (1 + 2*fx),
		Height: r.Height * (1 + 2*fy),
	}
}

// PctOf converts a pixel measure into a percentage of base. A base that is
// not yet laid out (zero or negative) yields 0 rather than Inf/NaN.
func PctOf(px, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return px / base * 100
}

// PxOf is the inverse of PctOf.
func PxOf(pct, base float64) float64 {
	if base <= 0 {
		return 0
	}
	return pct / 100 * base
}

// Round3 rounds to three decimal places. Applied only when a value crosses
// the persistence boundary; live drag geometry stays unrounded.
func Round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}

// Clamp limits v to [lo, hi]. When hi < lo the lower bound wins.
func Clamp(v, lo, hi float64) float64 {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampInt limits v to [lo, hi] with the same degenerate-range rule as Clamp.
func ClampInt(v, lo, hi int) int {
	if hi < lo {
		hi = lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

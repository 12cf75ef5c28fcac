package geom

import (
	"math"
	"testing"
)

func TestPctPxRoundTrip(t *testing.T) {
	bases := []float64{120, 333.5, 1920}
	pcts := []float64{0, 12.345, 50, 99.999, 100}
	for _, base := range bases {
		for _, p := range pcts {
			got := PctOf(PxOf(p, base), base)
			if math.Abs(got-p) > 1e-9 {
				t.Fatalf("round trip pct=%v base=%v: got %v", p, base, got)
			}
		}
	}
}

func TestPctOfUnlaidBase(t *testing.T) {
	if got := PctOf(50, 0); got != 0 {
		t.Fatalf("expected 0 for zero base, got %v", got)
	}
	if got := PctOf(50, -10); got != 0 {
		t.Fatalf("expected 0 for negative base, got %v", got)
	}
	if got := PxOf(50, 0); got != 0 {
		t.Fatalf("expected 0 px for zero base, got %v", got)
	}
}

func TestRound3(t *testing.T) {
	if got := Round3(12.34567); got != 12.346 {
		t.Fatalf("expected 12.346, got %v", got)
	}
	// Idempotent: rounding an already-rounded value must not drift.
	if got := Round3(Round3(12.34567)); got != 12.346 {
		t.Fatalf("expected stable 12.346, got %v", got)
	}
}

func TestClampDegenerateRange(t *testing.T) {
	// Container larger than parent: upper bound collapses onto the lower.
	if got := Clamp(40, 0, -20); got != 0 {
		t.Fatalf("expected 0, got %v", got)
	}
	if got := ClampInt(5, 1, 0); got != 1 {
		t.Fatalf("expected 1, got %v", got)
	}
}

func TestRectExpandContains(t *testing.T) {
	r := Rect{Left: 100, Top: 100, Width: 40, Height: 20}
	e := r.Expand(0.5, 0.5)
	if e.Left != 80 || e.Top != 90 || e.Width != 80 || e.Height != 40 {
		t.Fatalf("unexpected expanded rect: %+v", e)
	}
	if !e.Contains(Point{X: 85, Y: 95}) {
		t.Fatalf("expanded rect should contain point outside original")
	}
	if r.Contains(Point{X: 85, Y: 95}) {
		t.Fatalf("original rect should not contain point")
	}
}

package ui

import (
	"strings"

	lipgloss "charm.land/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
)

// shadow marks the second cell of a double-width rune.
const shadow = rune(0)

// canvas is a styled character grid the panel is painted onto before the
// surrounding chrome is assembled.
type canvas struct {
	w, h   int
	runes  [][]rune
	styles [][]*lipgloss.Style
}

func newCanvas(w, h int) *canvas {
	c := &canvas{w: w, h: h}
	c.runes = make([][]rune, h)
	c.styles = make([][]*lipgloss.Style, h)
	for y := 0; y < h; y++ {
		row := make([]rune, w)
		for x := range row {
			row[x] = ' '
		}
		c.runes[y] = row
		c.styles[y] = make([]*lipgloss.Style, w)
	}
	return c
}

func (c *canvas) set(x, y int, r rune, st *lipgloss.Style) {
	if x < 0 || y < 0 || x >= c.w || y >= c.h {
		return
	}
	c.runes[y][x] = r
	c.styles[y][x] = st
	if ansi.StringWidth(string(r)) == 2 && x+1 < c.w {
		c.runes[y][x+1] = shadow
		c.styles[y][x+1] = st
	}
}

func (c *canvas) text(x, y int, s string, st *lipgloss.Style) {
	for _, r := range s {
		if x >= c.w {
			return
		}
		w := ansi.StringWidth(string(r))
		if x+w > c.w {
			return
		}
		c.set(x, y, r, st)
		x += w
	}
}

func (c *canvas) hline(x0, x1, y int, r rune, st *lipgloss.Style) {
	for x := x0; x <= x1; x++ {
		c.set(x, y, r, st)
	}
}

func (c *canvas) vline(x, y0, y1 int, r rune, st *lipgloss.Style) {
	for y := y0; y <= y1; y++ {
		c.set(x, y, r, st)
	}
}

func (c *canvas) fill(x0, y0, x1, y1 int, r rune, st *lipgloss.Style) {
	for y := y0; y <= y1; y++ {
		c.hline(x0, x1, y, r, st)
	}
}

type borderSet struct {
	tl, tr, bl, br, h, v rune
}

var roundedSet = borderSet{tl: '╭', tr: '╮', bl: '╰', br: '╯', h: '─', v: '│'}
var dashedSet = borderSet{tl: '┌', tr: '┐', bl: '└', br: '┘', h: '╌', v: '╎'}
var asciiSet = borderSet{tl: '+', tr: '+', bl: '+', br: '+', h: '-', v: '|'}

func (c *canvas) border(x0, y0, x1, y1 int, set borderSet, st *lipgloss.Style) {
	if x1 <= x0 || y1 <= y0 {
		return
	}
	c.hline(x0+1, x1-1, y0, set.h, st)
	c.hline(x0+1, x1-1, y1, set.h, st)
	c.vline(x0, y0+1, y1-1, set.v, st)
	c.vline(x1, y0+1, y1-1, set.v, st)
	c.set(x0, y0, set.tl, st)
	c.set(x1, y0, set.tr, st)
	c.set(x0, y1, set.bl, st)
	c.set(x1, y1, set.br, st)
}

// render flushes the grid to a styled string, one line per row, grouping
// runs that share a style so escape sequences stay bounded.
func (c *canvas) render() string {
	var out strings.Builder
	for y := 0; y < c.h; y++ {
		var run strings.Builder
		var cur *lipgloss.Style
		flush := func() {
			if run.Len() == 0 {
				return
			}
			if cur != nil {
				out.WriteString(cur.Render(run.String()))
			} else {
				out.WriteString(run.String())
			}
			run.Reset()
		}
		for x := 0; x < c.w; x++ {
			r := c.runes[y][x]
			if r == shadow {
				continue
			}
			st := c.styles[y][x]
			if st != cur {
				flush()
				cur = st
			}
			run.WriteRune(r)
		}
		flush()
		if y < c.h-1 {
			out.WriteByte('\n')
		}
	}
	return out.String()
}

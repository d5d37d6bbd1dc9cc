// Package vdp implements a text display that can be attached to the far end
// of the serial line.
package vdp

import (
	"image"
	"image/color"
	"image/draw"
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	face = basicfont.Face7x13

	cellW = face.Advance
	cellH = face.Height

	Foreground = color.RGBA{0x33, 0xff, 0x33, 0xff}
	Background = color.RGBA{0x00, 0x00, 0x00, 0xff}
)

const (
	bs = 0x08
	lf = 0x0a
	ff = 0x0c
	cr = 0x0d
)

// Terminal is a grid of characters written by Send.
// It is safe for concurrent use.
type Terminal struct {
	mu         sync.Mutex
	cols, rows int
	cells      []byte
	x, y       int
	lastCR     bool
	ops        int // count of changes, for redraw
}

func NewTerminal(cols, rows int) *Terminal {
	if cols < 1 {
		cols = 1
	}
	if rows < 1 {
		rows = 1
	}
	t := &Terminal{cols: cols, rows: rows, cells: make([]byte, cols*rows)}
	t.clear()
	return t
}

// Send writes b to the display.
func (t *Terminal) Send(b byte) {
	t.mu.Lock()
	defer t.mu.Unlock()

	b &= 0x7f // Apple II text has the high bit set.
	afterCR := t.lastCR
	t.lastCR = b == cr
	switch {
	case b == cr:
		t.newline()
	case b == lf:
		if afterCR {
			return
		}
		t.newline()
	case b == bs:
		if t.x > 0 {
			t.x--
		}
	case b == ff:
		t.clear()
	case b < 0x20 || b == 0x7f:
		return
	default:
		if t.x == t.cols {
			t.newline()
		}
		t.cells[t.y*t.cols+t.x] = b
		t.x++
	}
	t.ops++
}

func (t *Terminal) newline() {
	t.x = 0
	if t.y < t.rows-1 {
		t.y++
		return
	}
	copy(t.cells, t.cells[t.cols:])
	last := t.cells[(t.rows-1)*t.cols:]
	for i := range last {
		last[i] = ' '
	}
}

func (t *Terminal) clear() {
	for i := range t.cells {
		t.cells[i] = ' '
	}
	t.x, t.y = 0, 0
}

// Line returns row y of the display.
func (t *Terminal) Line(y int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if y < 0 || y >= t.rows {
		return ""
	}
	return string(t.cells[y*t.cols : (y+1)*t.cols])
}

// Cursor returns the column and row at which the next character is written.
func (t *Terminal) Cursor() (x, y int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.x, t.y
}

// Size returns the size of the display in pixels.
func (t *Terminal) Size() image.Point {
	return image.Point{t.cols * cellW, t.rows * cellH}
}

func (t *Terminal) changes() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.ops
}

// Draw renders the display into dst, which should be at least Size().
func (t *Terminal) Draw(dst *image.RGBA) {
	t.mu.Lock()
	defer t.mu.Unlock()

	draw.Draw(dst, dst.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)
	d := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(Foreground),
		Face: face,
	}
	for y := 0; y < t.rows; y++ {
		d.Dot = fixed.P(0, y*cellH+face.Ascent)
		d.DrawBytes(t.cells[y*t.cols : (y+1)*t.cols])
	}
	// Block cursor.
	cur := image.Rect(t.x*cellW, t.y*cellH, (t.x+1)*cellW, (t.y+1)*cellH)
	draw.Draw(dst, cur, image.NewUniform(Foreground), image.Point{}, draw.Over)
}

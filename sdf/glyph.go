package sdf

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/image/math/fixed"
)

// Glyph holds one rasterized glyph and, after Crunch, its distance-field
// tile and normalized metrics.
//
// A Glyph is created on the rendering goroutine, crunched exactly once on a
// worker, and is immutable afterwards except for the atlas placement fields
// (S1..T2, Page) written by the packer.
type Glyph struct {
	// Code is the Unicode code point this glyph renders.
	Code rune

	// Metrics in font-height units, valid after Crunch. Before Crunch they
	// hold the raw rasterizer values: pixel sizes for Width/Height/Left/Top
	// and 1/64-pixel units for the advances.
	Width    float64
	Height   float64
	Left     float64
	Top      float64
	AdvanceX float64
	AdvanceY float64

	// Quad corners in font-height units, valid after Crunch.
	X1, Y1, X2, Y2 float64

	// Atlas texture coordinates and page index, written by the packer.
	S1, T1, S2, T2 float64
	Page           int

	size       uint
	targetSize uint
	dropdown   float64

	coverage []byte
	covW     int
	covH     int

	crunched []byte
	bw       int
	bh       int
	done     bool
}

// New wraps a coverage bitmap into a Glyph ready for crunching.
//
// coverage is a row-major byte array of covW×covH where values above 127 are
// inside the glyph. left and top are the rasterizer pen offsets in pixels,
// advance is in 26.6 fixed point. size is the pixel size coverage was
// rendered at, targetSize the distance-field tile half-extent and dropdown
// the edge falloff as a fraction of size.
//
// The coverage slice is owned by the returned Glyph and released by Crunch.
func New(code rune, coverage []byte, covW, covH int, left, top float64, advance fixed.Point26_6, size, targetSize uint, dropdown float64) *Glyph {
	return &Glyph{
		Code:     code,
		Width:    float64(covW),
		Height:   float64(covH),
		Left:     left,
		Top:      top,
		AdvanceX: float64(advance.X),
		AdvanceY: float64(advance.Y),

		size:       size,
		targetSize: targetSize,
		dropdown:   dropdown,

		coverage: coverage,
		covW:     covW,
		covH:     covH,

		bw: int(targetSize)*2 + 1,
		bh: int(targetSize)*2 + 1,
	}
}

// Crunched returns the distance-field tile, row-major, top-to-bottom.
// Nil for zero-area glyphs such as whitespace.
func (g *Glyph) Crunched() []byte { return g.crunched }

// CrunchedWidth returns the tile width after crunching and cropping.
func (g *Glyph) CrunchedWidth() int { return g.bw }

// CrunchedHeight returns the tile height after crunching and cropping.
func (g *Glyph) CrunchedHeight() int { return g.bh }

// SetST stores the atlas texture coordinates for this glyph.
func (g *Glyph) SetST(s1, t1, s2, t2 float64) {
	g.S1, g.T1, g.S2, g.T2 = s1, t1, s2, t2
}

// inside reports whether a source coordinate is covered. Points outside the
// bitmap are outside the glyph.
func (g *Glyph) inside(px, py int) bool {
	if px < 0 || py < 0 || px >= g.covW || py >= g.covH {
		return false
	}
	return g.coverage[py*g.covW+px] > 127
}

// fieldValue samples the distance field at a source coordinate. The nearest
// opposite-polarity point is searched in a box of radius search using
// Manhattan distance; no hit means the point saturates.
func (g *Glyph) fieldValue(px, py, search int, distScale float64) byte {
	in := g.inside(px, py)
	closest := math.Inf(1)

	for ii := px - search; ii <= px+search; ii++ {
		for jj := py - search; jj <= py+search; jj++ {
			dist := float64(abs(ii-px) + abs(jj-py))
			if dist < closest && g.inside(ii, jj) != in {
				closest = dist
			}
		}
	}

	var v float64
	if in {
		v = math.Min(0.5+(closest+0.5)*distScale, 1.0)
	} else {
		v = math.Max(0.5-(closest+0.5)*distScale, 0.0)
	}
	return byte(math.Round(v * 255.0))
}

// Crunch computes the distance-field tile from the coverage bitmap, crops
// empty borders down to a one-pixel guard, and normalizes all metrics to
// font-height units. The coverage bitmap is released. Calling Crunch more
// than once is a no-op.
func (g *Glyph) Crunch() {
	if g.done {
		return
	}

	fsize := float64(g.size)
	ftarget := float64(g.targetSize)
	distScale := 0.5 / (fsize * g.dropdown)
	step := fsize / ftarget
	pixelScale := 1.0 / ftarget
	search := int(math.Ceil(fsize * g.dropdown))
	ox := g.covW / 2
	oy := g.covH / 2
	target := int(g.targetSize)

	// Minimum number of expansions in each axis so the tile covers the
	// whole source bitmap, capped at the tile extent.
	horizExpand := min(int(math.Ceil(float64(ox)/step)), target)
	vertExpand := min(int(math.Ceil(float64(oy)/step)), target)

	left := (g.Left+float64(ox))/fsize - float64(g.bw)*0.5/ftarget
	top := (g.Top-float64(oy))/fsize + float64(g.bh)*0.5/ftarget

	g.crunched = make([]byte, g.bw*g.bh)
	g.crunched[target*g.bw+target] = g.fieldValue(ox, oy, search, distScale)

	// Expand a rectangle of sampled cells outward from the center one edge
	// at a time. An edge whose samples all come out zero is done; a non-zero
	// sample on the first or last cell of an edge re-opens the perpendicular
	// edges, since the field has grown into that corner.
	down, leftC, rightC, up := 0, 0, 0, 0
	scopeH, scopeV := 1, 1
	downDone, leftDone, rightDone, upDone := false, false, false, false
	done := false

	for expansion := 0; expansion < horizExpand || expansion < vertExpand || !done; expansion++ {
		done = true

		if (!downDone || expansion < vertExpand) && down < target {
			downDone = true

			down++
			scopeV++

			row := target + down
			for ii := 0; ii < scopeH; ii++ {
				v := g.fieldValue(
					ox+lround(float64(ii-leftC)*step),
					oy+lround(float64(down)*step),
					search, distScale)

				if v > 0 {
					if ii <= 0 {
						leftDone = false
					} else if ii >= scopeH-1 {
						rightDone = false
					}
					downDone = false
					done = false
				}

				g.crunched[row*g.bw+target-leftC+ii] = v
			}
		}
		if (!leftDone || expansion < horizExpand) && leftC < target {
			leftDone = true

			leftC++
			scopeH++

			col := target - leftC
			for ii := 0; ii < scopeV; ii++ {
				v := g.fieldValue(
					ox+lround(float64(-leftC)*step),
					oy+lround(float64(ii-up)*step),
					search, distScale)

				if v > 0 {
					if ii <= 0 {
						upDone = false
					} else if ii >= scopeV-1 {
						downDone = false
					}
					leftDone = false
					done = false
				}

				g.crunched[(target-up+ii)*g.bw+col] = v
			}
		}
		if (!rightDone || expansion < horizExpand) && rightC < target {
			rightDone = true

			rightC++
			scopeH++

			col := target + rightC
			for ii := 0; ii < scopeV; ii++ {
				v := g.fieldValue(
					ox+lround(float64(rightC)*step),
					oy+lround(float64(ii-up)*step),
					search, distScale)

				if v > 0 {
					if ii <= 0 {
						upDone = false
					} else if ii >= scopeV-1 {
						downDone = false
					}
					rightDone = false
					done = false
				}

				g.crunched[(target-up+ii)*g.bw+col] = v
			}
		}
		if (!upDone || expansion < vertExpand) && up < target {
			upDone = true

			up++
			scopeV++

			row := target - up
			for ii := 0; ii < scopeH; ii++ {
				v := g.fieldValue(
					ox+lround(float64(ii-leftC)*step),
					oy+lround(float64(-up)*step),
					search, distScale)

				if v > 0 {
					if ii <= 0 {
						leftDone = false
					} else if ii >= scopeH-1 {
						rightDone = false
					}
					upDone = false
					done = false
				}

				g.crunched[row*g.bw+target-leftC+ii] = v
			}
		}
	}

	// Absolute metrics in units of font size.
	g.Width /= fsize
	g.Height /= fsize
	g.Left /= fsize
	g.Top /= fsize

	// Advances arrive in 1/64ths of a pixel.
	g.AdvanceX /= fsize * 64.0
	g.AdvanceY /= fsize * 64.0

	// Cropping the left and top edges moves the quad origin; right and
	// bottom crops only shrink it.
	left += float64(g.contractLeft()) * pixelScale
	top -= float64(g.contractUp()) * pixelScale

	g.contractRight()
	g.contractDown()

	fwidth := float64(g.bw) / ftarget
	fheight := float64(g.bh) / ftarget

	g.X1 = left
	g.Y1 = top - fheight
	g.X2 = left + fwidth
	g.Y2 = top

	// Large bitmap no longer needed.
	g.coverage = nil
	g.done = true
}

// isEmptyColumn reports whether tile column x holds only zeroes.
func (g *Glyph) isEmptyColumn(x int) bool {
	for ii := 0; ii < g.bh; ii++ {
		if g.crunched[ii*g.bw+x] > 0 {
			return false
		}
	}
	return true
}

// isEmptyRow reports whether tile row y holds only zeroes.
func (g *Glyph) isEmptyRow(y int) bool {
	for ii := 0; ii < g.bw; ii++ {
		if g.crunched[y*g.bw+ii] > 0 {
			return false
		}
	}
	return true
}

// subCrunched replaces the tile with the given sub-rectangle of itself.
func (g *Glyph) subCrunched(px, py, pw, ph int) {
	sub := make([]byte, pw*ph)

	for jj := 0; jj < ph; jj++ {
		copy(sub[jj*pw:(jj+1)*pw], g.crunched[(jj+py)*g.bw+px:(jj+py)*g.bw+px+pw])
	}

	g.bw = pw
	g.bh = ph
	g.crunched = sub
}

// collapse drops the tile entirely; the glyph occupies no atlas space.
func (g *Glyph) collapse() {
	g.bw = 0
	g.bh = 0
	g.crunched = nil
}

// contractLeft strips empty leading columns, keeping one as a sampling
// guard, and returns the number of columns removed.
func (g *Glyph) contractLeft() int {
	empty := 0
	for ii := 0; ii < g.bw; ii++ {
		if !g.isEmptyColumn(ii) {
			break
		}
		empty++
	}

	if empty >= g.bw {
		g.collapse()
		return empty
	}
	if empty > 1 {
		g.subCrunched(empty-1, 0, g.bw-empty+1, g.bh)
		return empty - 1
	}
	return 0
}

// contractRight strips empty trailing columns, keeping one guard.
func (g *Glyph) contractRight() int {
	empty := 0
	for ii := 0; ii < g.bw; ii++ {
		if !g.isEmptyColumn(g.bw - ii - 1) {
			break
		}
		empty++
	}

	if empty >= g.bw {
		g.collapse()
		return empty
	}
	if empty > 1 {
		g.subCrunched(0, 0, g.bw-empty+1, g.bh)
		return empty - 1
	}
	return 0
}

// contractUp strips empty leading rows, keeping one guard.
func (g *Glyph) contractUp() int {
	empty := 0
	for ii := 0; ii < g.bh; ii++ {
		if !g.isEmptyRow(ii) {
			break
		}
		empty++
	}

	if empty >= g.bh {
		g.collapse()
		return empty
	}
	if empty > 1 {
		g.subCrunched(0, empty-1, g.bw, g.bh-empty+1)
		return empty - 1
	}
	return 0
}

// contractDown strips empty trailing rows, keeping one guard.
func (g *Glyph) contractDown() int {
	empty := 0
	for ii := 0; ii < g.bh; ii++ {
		if !g.isEmptyRow(g.bh - ii - 1) {
			break
		}
		empty++
	}

	if empty >= g.bh {
		g.collapse()
		return empty
	}
	if empty > 1 {
		g.subCrunched(0, 0, g.bw, g.bh-empty+1)
		return empty - 1
	}
	return 0
}

// String renders the crunched tile as ASCII art followed by the glyph
// metrics, one tile row per line.
func (g *Glyph) String() string {
	var sb strings.Builder

	for jj := 0; jj < g.bh; jj++ {
		for ii := 0; ii < g.bw; ii++ {
			v := int(g.crunched[jj*g.bw+ii])
			cc := byte(' ')
			if v > 0 {
				cc = '.'
			}
			if v > 115 {
				cc = 'X'
			}
			if v > 140 {
				cc = '#'
			}
			sb.WriteByte(cc)
		}
		sb.WriteByte('\n')
	}

	fmt.Fprintf(&sb, "Unicode: %d Size: %g x %g\n", g.Code, g.Width, g.Height)
	fmt.Fprintf(&sb, "Left/Top: %g / %g Advance: %g / %g\n", g.Left, g.Top, g.AdvanceX, g.AdvanceY)
	return sb.String()
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func lround(v float64) int {
	return int(math.Round(v))
}

package sdf

import (
	"strings"
	"testing"

	"golang.org/x/image/math/fixed"
)

// fillRect marks the given rectangle of a coverage bitmap as inside.
func fillRect(coverage []byte, w, x0, y0, x1, y1 int) {
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			coverage[y*w+x] = 255
		}
	}
}

// testGlyph builds a glyph over the given coverage with neutral metrics.
func testGlyph(coverage []byte, w, h int, size, target uint, dropdown float64) *Glyph {
	return New('A', coverage, w, h, 0, float64(h), fixed.Point26_6{X: fixed.I(int(size))}, size, target, dropdown)
}

// TestFieldValueBoundary verifies that a sample sitting exactly on the
// coverage edge comes out as mid-gray: with a large falloff radius the
// nearest opposite pixel contributes almost nothing and the byte value
// rounds to 127 or 128.
func TestFieldValueBoundary(t *testing.T) {
	const w, h = 8, 8

	coverage := make([]byte, w*h)
	fillRect(coverage, w, 4, 0, 8, 8) // right half inside

	// Large precalc*dropdown so a one-pixel distance stays within rounding
	// of the midpoint.
	g := testGlyph(coverage, w, h, 2048, 8, 0.2)

	search := 410 // ceil(2048 * 0.2)
	distScale := 0.5 / (2048 * 0.2)

	inside := g.fieldValue(4, 4, search, distScale)
	outside := g.fieldValue(3, 4, search, distScale)

	if inside != 127 && inside != 128 {
		t.Errorf("inside boundary sample = %d, want 127 or 128", inside)
	}
	if outside != 127 && outside != 128 {
		t.Errorf("outside boundary sample = %d, want 127 or 128", outside)
	}
	if inside < outside {
		t.Errorf("inside sample %d below outside sample %d", inside, outside)
	}
}

// TestFieldValueSaturation verifies full saturation when no opposite
// polarity exists within the search box.
func TestFieldValueSaturation(t *testing.T) {
	const w, h = 8, 8
	const size, target = 16, 4
	const dropdown = 0.125 // search = 2

	search := 2
	distScale := 0.5 / (float64(size) * dropdown)

	t.Run("inside", func(t *testing.T) {
		coverage := make([]byte, w*h)
		fillRect(coverage, w, 0, 0, w, h)
		g := testGlyph(coverage, w, h, size, target, dropdown)

		if v := g.fieldValue(4, 4, search, distScale); v != 255 {
			t.Errorf("fully inside sample = %d, want 255", v)
		}
	})

	t.Run("outside", func(t *testing.T) {
		coverage := make([]byte, w*h)
		g := testGlyph(coverage, w, h, size, target, dropdown)

		if v := g.fieldValue(4, 4, search, distScale); v != 0 {
			t.Errorf("fully outside sample = %d, want 0", v)
		}
	})
}

// TestCrunchCropGuard verifies that a glyph whose coverage touches neither
// source edge keeps exactly one empty row or column on each side of the
// cropped tile as a bilinear sampling guard.
func TestCrunchCropGuard(t *testing.T) {
	const w, h = 32, 32
	const size, target = 32, 8
	const dropdown = 0.25 // search = 8, step = 4

	coverage := make([]byte, w*h)
	fillRect(coverage, w, 12, 12, 20, 20)

	g := testGlyph(coverage, w, h, size, target, dropdown)
	g.Crunch()

	bw, bh := g.CrunchedWidth(), g.CrunchedHeight()
	if bw <= 0 || bh <= 0 {
		t.Fatalf("crunched tile collapsed: %dx%d", bw, bh)
	}
	if bw > 2*target+1 || bh > 2*target+1 {
		t.Fatalf("crunched tile %dx%d exceeds maximum %d", bw, bh, 2*target+1)
	}

	emptyColumn := func(x int) bool {
		for y := 0; y < bh; y++ {
			if g.Crunched()[y*bw+x] > 0 {
				return false
			}
		}
		return true
	}
	emptyRow := func(y int) bool {
		for x := 0; x < bw; x++ {
			if g.Crunched()[y*bw+x] > 0 {
				return false
			}
		}
		return true
	}

	if !emptyColumn(0) || emptyColumn(1) {
		t.Errorf("left edge guard: column 0 empty = %v, column 1 empty = %v, want true/false",
			emptyColumn(0), emptyColumn(1))
	}
	if !emptyColumn(bw-1) || emptyColumn(bw-2) {
		t.Errorf("right edge guard: column %d empty = %v, column %d empty = %v, want true/false",
			bw-1, emptyColumn(bw-1), bw-2, emptyColumn(bw-2))
	}
	if !emptyRow(0) || emptyRow(1) {
		t.Errorf("top edge guard: row 0 empty = %v, row 1 empty = %v, want true/false",
			emptyRow(0), emptyRow(1))
	}
	if !emptyRow(bh-1) || emptyRow(bh-2) {
		t.Errorf("bottom edge guard: row %d empty = %v, row %d empty = %v, want true/false",
			bh-1, emptyRow(bh-1), bh-2, emptyRow(bh-2))
	}
}

// TestCrunchCenterSaturates verifies the tile center of a solidly covered
// source reaches full saturation.
func TestCrunchCenterSaturates(t *testing.T) {
	const w, h = 32, 32
	const size, target = 32, 4
	const dropdown = 0.25

	coverage := make([]byte, w*h)
	fillRect(coverage, w, 0, 0, w, h)

	g := testGlyph(coverage, w, h, size, target, dropdown)
	g.Crunch()

	bw, bh := g.CrunchedWidth(), g.CrunchedHeight()
	if bw == 0 || bh == 0 {
		t.Fatal("solid glyph collapsed to an empty tile")
	}
	if v := g.Crunched()[(bh/2)*bw+bw/2]; v != 255 {
		t.Errorf("tile center = %d, want 255", v)
	}
}

// TestCrunchWhitespace verifies a zero-area coverage bitmap crunches into a
// zero-area tile that still carries its advance.
func TestCrunchWhitespace(t *testing.T) {
	const size, target = 64, 8

	adv := fixed.Point26_6{X: fixed.I(32)}
	g := New(' ', nil, 0, 0, 0, 0, adv, size, target, 0.1)
	g.Crunch()

	if g.CrunchedWidth() != 0 || g.CrunchedHeight() != 0 {
		t.Errorf("whitespace tile = %dx%d, want 0x0", g.CrunchedWidth(), g.CrunchedHeight())
	}
	if g.Crunched() != nil {
		t.Error("whitespace tile data should be released")
	}
	if g.Width != 0 || g.Height != 0 {
		t.Errorf("whitespace size = %g x %g, want 0 x 0", g.Width, g.Height)
	}
	if g.AdvanceX <= 0 {
		t.Errorf("whitespace advance = %g, want > 0", g.AdvanceX)
	}
}

// TestCrunchNormalizesMetrics verifies the division of raw rasterizer
// metrics into font-height units.
func TestCrunchNormalizesMetrics(t *testing.T) {
	const w, h = 32, 32
	const size, target = 32, 4
	const dropdown = 0.25

	coverage := make([]byte, w*h)
	fillRect(coverage, w, 8, 8, 24, 24)

	adv := fixed.Point26_6{X: fixed.I(16), Y: 0}
	g := New('x', coverage, w, h, 2, 30, adv, size, target, dropdown)
	g.Crunch()

	if want := float64(w) / float64(size); g.Width != want {
		t.Errorf("Width = %g, want %g", g.Width, want)
	}
	if want := 2.0 / float64(size); g.Left != want {
		t.Errorf("Left = %g, want %g", g.Left, want)
	}
	if want := 30.0 / float64(size); g.Top != want {
		t.Errorf("Top = %g, want %g", g.Top, want)
	}
	// Advance arrives in 1/64 pixel units: 16 pixels over a 32 pixel size.
	if want := 0.5; g.AdvanceX != want {
		t.Errorf("AdvanceX = %g, want %g", g.AdvanceX, want)
	}
	if g.AdvanceY != 0 {
		t.Errorf("AdvanceY = %g, want 0", g.AdvanceY)
	}
}

// TestCrunchQuadMatchesTile verifies the quad extent equals the cropped
// tile extent expressed in font-height units.
func TestCrunchQuadMatchesTile(t *testing.T) {
	const w, h = 32, 32
	const size, target = 32, 8
	const dropdown = 0.25

	coverage := make([]byte, w*h)
	fillRect(coverage, w, 12, 12, 20, 20)

	g := testGlyph(coverage, w, h, size, target, dropdown)
	g.Crunch()

	wantW := float64(g.CrunchedWidth()) / float64(target)
	wantH := float64(g.CrunchedHeight()) / float64(target)

	if got := g.X2 - g.X1; !almostEqual(got, wantW) {
		t.Errorf("quad width = %g, want %g", got, wantW)
	}
	if got := g.Y2 - g.Y1; !almostEqual(got, wantH) {
		t.Errorf("quad height = %g, want %g", got, wantH)
	}
}

// TestCrunchIdempotent verifies a second Crunch call leaves the glyph
// untouched.
func TestCrunchIdempotent(t *testing.T) {
	const w, h = 16, 16

	coverage := make([]byte, w*h)
	fillRect(coverage, w, 4, 4, 12, 12)

	g := testGlyph(coverage, w, h, 16, 4, 0.25)
	g.Crunch()

	bw, bh := g.CrunchedWidth(), g.CrunchedHeight()
	width := g.Width

	g.Crunch()

	if g.CrunchedWidth() != bw || g.CrunchedHeight() != bh || g.Width != width {
		t.Error("second Crunch changed the glyph")
	}
}

// TestGlyphString spot-checks the ASCII art rendering.
func TestGlyphString(t *testing.T) {
	const w, h = 32, 32

	coverage := make([]byte, w*h)
	fillRect(coverage, w, 0, 0, w, h)

	g := testGlyph(coverage, w, h, 32, 4, 0.25)
	g.Crunch()

	art := g.String()
	if !strings.Contains(art, "#") {
		t.Error("solid glyph art has no saturated cells")
	}
	if !strings.Contains(art, "Unicode: 65") {
		t.Errorf("art trailer missing code point: %q", art)
	}
}

func almostEqual(a, b float64) bool {
	diff := a - b
	if diff < 0 {
		diff = -diff
	}
	return diff < 1e-9
}

// Package atlas packs crunched distance-field glyphs into fixed-width atlas
// pages using a skyline contour, and searches candidate page widths for the
// best packing.
package atlas

import (
	"fmt"
	"image"
	"image/png"
	"os"

	"github.com/gogpu/fontatlas/sdf"
)

// SizeStep is the pixel granularity of page dimensions. Some graphics
// hardware only takes textures on 4-pixel granularity.
const SizeStep = 4

// GlyphSink receives every glyph placed by FitAll, after its page index and
// texture coordinates have been written.
type GlyphSink interface {
	WriteGlyph(g *sdf.Glyph) error
}

// SkyLine packs rectangles into a fixed-width page by tracking the occupied
// height of every column. The packer owns its contour and pixel buffer; it
// is not safe for concurrent use, but independent packers may run in
// parallel over the same read-only glyph slice.
type SkyLine struct {
	line      []int
	width     int
	maxHeight int
	wasted    int

	// bitmap is allocated lazily on the first Insert; fitting-only passes
	// never touch pixels.
	bitmap []byte
}

// NewSkyLine creates an empty packer of the given width and height ceiling.
func NewSkyLine(width, maxHeight int) *SkyLine {
	return &SkyLine{
		line:      make([]int, width),
		width:     width,
		maxHeight: maxHeight,
	}
}

// Fit finds the lowest placement for a glyph without committing it.
// Zero-area glyphs fit anywhere and get a valid zero-area location. An
// invalid location means the glyph does not fit on this page.
func (s *SkyLine) Fit(g *sdf.Glyph) Location {
	w := g.CrunchedWidth()
	h := g.CrunchedHeight()

	if w <= 0 || h <= 0 {
		return NewLocation(0, 0, 0, 0)
	}

	minh := int(^uint(0) >> 1)
	maxh := 0
	for _, current := range s.line {
		minh = min(minh, current)
		maxh = max(maxh, current)
	}

	// No point in trying to seat anything past the ceiling.
	maxh = min(maxh, s.maxHeight-h)

	// Ascend the contour from the lowest height; at each column sitting at
	// the current height, consider placements whose rightmost column is
	// that column.
	for y := minh; y <= maxh; y++ {
		for jj := 0; jj < s.width; jj++ {
			if s.line[jj] != y {
				continue
			}

			kk := max(jj-w+1, 0)
			ee := min(jj, s.width-w)

			for ; kk <= ee; kk++ {
				fitting := 0
				for s.line[kk+fitting] <= y {
					fitting++
					if fitting >= w {
						loc := NewLocation(kk, y, w, h)
						loc.Wasted = s.wastedSpace(loc)
						return loc
					}
				}
			}
		}
	}

	return Location{}
}

// wastedSpace counts the pixels that would be buried under a placement.
func (s *SkyLine) wastedSpace(loc Location) int {
	ret := 0
	for ii := loc.X; ii < loc.X+loc.W; ii++ {
		ret += loc.Y - s.line[ii]
	}
	return ret
}

// Allocate commits a fitted location: every covered column rises to the top
// of the placement and the buried pixels are accounted as wasted.
func (s *SkyLine) Allocate(loc Location) {
	end := loc.Y + loc.H
	for ii := loc.X; ii < loc.X+loc.W; ii++ {
		s.line[ii] = end
	}
	s.wasted += loc.Wasted
}

// Insert copies the glyph tile into the page bitmap and writes the glyph's
// texture coordinates. The page buffer keeps scanlines bottom-to-top for
// direct disk writes, while crunched tiles are top-to-bottom, so rows flip.
func (s *SkyLine) Insert(loc Location, g *sdf.Glyph) {
	// Whitespace occupies no pixels.
	if loc.W == 0 || loc.H == 0 {
		return
	}

	if s.bitmap == nil {
		s.bitmap = make([]byte, s.width*s.maxHeight)
	}

	for ii := 0; ii < loc.H; ii++ {
		dst := (loc.Y+ii)*s.width + loc.X
		src := (loc.H - 1 - ii) * loc.W
		copy(s.bitmap[dst:dst+loc.W], g.Crunched()[src:src+loc.W])
	}

	fw := float64(s.width)
	fh := float64(s.maxHeight)
	s1 := float64(loc.X) / fw
	t1 := float64(loc.Y) / fh
	g.SetST(s1, t1, s1+float64(loc.W)/fw, t1+float64(loc.H)/fh)
}

// FitAll seats glyphs in slice order until the first one that does not fit.
// The slice is expected to be sorted tallest-first; halting at the first
// miss keeps packing deterministic at the cost of a little density.
//
// With a nil sink only the contour is updated, which is what the width
// search uses. With a sink, each placed glyph is inserted into the page
// bitmap, stamped with the page index, handed to the sink, and its slot in
// the slice is cleared so the storage can trim it.
func (s *SkyLine) FitAll(glyphs []*sdf.Glyph, sink GlyphSink, page int) (int, error) {
	placed := 0

	for i, g := range glyphs {
		if g == nil {
			break
		}

		loc := s.Fit(g)
		if !loc.Valid() {
			break
		}

		s.Allocate(loc)

		if sink != nil {
			s.Insert(loc, g)

			g.Page = page
			if err := sink.WriteGlyph(g); err != nil {
				return placed, err
			}

			glyphs[i] = nil
		}

		placed++
	}

	return placed, nil
}

// UsedHeight returns the tallest contour column, rounded up to SizeStep.
func (s *SkyLine) UsedHeight() int {
	ret := 0
	for _, h := range s.line {
		ret = max(ret, h)
	}

	if rem := ret % SizeStep; rem > 0 {
		return ret - rem + SizeStep
	}
	return ret
}

// Usage reports pixel utilization in [0, 1]: buried pixels and the headroom
// above each column up to the used height both count as waste.
func (s *SkyLine) Usage() float64 {
	usedHeight := s.UsedHeight()
	wasted := s.wasted

	for _, h := range s.line {
		wasted += usedHeight - h
	}

	if usedHeight <= 0 {
		return 0.0
	}
	return 1.0 - float64(wasted)/float64(s.width*usedHeight)
}

// Save encodes the page as an 8-bit grayscale PNG of width × maxHeight.
// Scanline 0 of the buffer is the t = 0 edge of the texture.
func (s *SkyLine) Save(path string) error {
	if s.bitmap == nil {
		s.bitmap = make([]byte, s.width*s.maxHeight)
	}

	img := &image.Gray{
		Pix:    s.bitmap,
		Stride: s.width,
		Rect:   image.Rect(0, 0, s.width, s.maxHeight),
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("atlas: could not open %s for writing: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("atlas: could not encode %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("atlas: could not write %s: %w", path, err)
	}
	return nil
}

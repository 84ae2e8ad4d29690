// Package face loads scalable outline fonts and rasterizes individual code
// points into coverage bitmaps for distance-field conversion.
package face

import (
	"bytes"
	"fmt"
	"image"
	"os"

	gtfont "github.com/go-text/typesetting/font"
	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"

	"github.com/gogpu/fontatlas/sdf"
)

// Face is one font file configured to rasterize at a fixed pixel size.
//
// Face is NOT safe for concurrent use: the underlying rasterizer keeps
// mutable scratch state per glyph load. All Render calls must happen on a
// single goroutine.
type Face struct {
	name     string
	xface    font.Face
	cmap     *gtfont.Font
	size     uint
	dropdown float64
}

// New opens a font file and configures it for rasterization at size pixels.
// Open, parse and size-configuration failures are fatal and returned.
func New(path string, size uint, dropdown float64) (*Face, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("face: could not load font %s: %w", path, err)
	}
	return NewFromData(path, data, size, dropdown)
}

// NewFromData builds a Face from font bytes already in memory. name is used
// for diagnostics only.
func NewFromData(name string, data []byte, size uint, dropdown float64) (*Face, error) {
	parsed, err := opentype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("face: could not parse font %s: %w", name, err)
	}

	// Character coverage comes from a second parse with go-text; its cmap
	// lookup is the authority on which code points the font maps.
	gtFace, err := gtfont.ParseTTF(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("face: could not parse font %s: %w", name, err)
	}

	xface, err := opentype.NewFace(parsed, &opentype.FaceOptions{
		Size:    float64(size),
		DPI:     72, // ppem equals the pixel size at 72 dpi
		Hinting: font.HintingFull,
	})
	if err != nil {
		return nil, fmt.Errorf("face: could not set font %s size to %d: %w", name, size, err)
	}

	if family, nerr := parsed.Name(nil, sfnt.NameIDFamily); nerr == nil && family != "" {
		name = family
	}

	return &Face{
		name:     name,
		xface:    xface,
		cmap:     gtFace.Font,
		size:     size,
		dropdown: dropdown,
	}, nil
}

// Name returns the font family name, or the file name when the font does not
// carry one.
func (f *Face) Name() string { return f.name }

// Has reports whether the font maps the code point to a glyph.
func (f *Face) Has(r rune) bool {
	_, ok := f.cmap.NominalGlyph(r)
	return ok
}

// Render rasterizes a code point into a coverage bitmap and wraps it in a
// Glyph ready for crunching to targetSize. Returns nil when the font does
// not map the code point or rasterization fails; both are soft failures the
// caller recovers from by consulting the next fallback face.
func (f *Face) Render(r rune, targetSize uint) *sdf.Glyph {
	if !f.Has(r) {
		return nil
	}

	bounds, advance, ok := f.xface.GlyphBounds(r)
	if !ok {
		return nil
	}

	// 26.6 bounds to pixel bounds: floor the minimum, ceil the maximum.
	minX := int(bounds.Min.X) >> 6
	minY := int(bounds.Min.Y) >> 6
	maxX := int(bounds.Max.X+63) >> 6
	maxY := int(bounds.Max.Y+63) >> 6

	w := maxX - minX
	h := maxY - minY

	// The pen offsets follow the rasterizer convention: left is the first
	// bitmap column relative to the pen, top the first row above the
	// baseline. The y axis of the bounds points down.
	left := float64(minX)
	top := float64(-minY)
	adv := fixed.Point26_6{X: advance, Y: 0}

	if w <= 0 || h <= 0 {
		// Whitespace: no coverage, but the advance still matters.
		return sdf.New(r, nil, 0, 0, left, top, adv, f.size, targetSize, f.dropdown)
	}

	mask := image.NewAlpha(image.Rect(0, 0, w, h))
	drawer := &font.Drawer{
		Dst:  mask,
		Src:  image.White,
		Face: f.xface,
		Dot:  fixed.Point26_6{X: -bounds.Min.X, Y: -bounds.Min.Y},
	}
	drawer.DrawString(string(r))

	coverage := make([]byte, w*h)
	copy(coverage, mask.Pix)

	return sdf.New(r, coverage, w, h, left, top, adv, f.size, targetSize, f.dropdown)
}

// Close releases the rasterizer resources held by the face.
func (f *Face) Close() error {
	return f.xface.Close()
}

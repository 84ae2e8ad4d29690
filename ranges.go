package fontatlas

import (
	"slices"

	"github.com/gogpu/fontatlas/internal/dispatch"
	"github.com/gogpu/fontatlas/sdf"
)

// GlyphSource rasterizes a single code point into a glyph ready for
// crunching. Render returns nil when the source cannot produce the code
// point; the caller falls through to the next source.
type GlyphSource interface {
	Render(r rune, targetSize uint) *sdf.Glyph
}

// GlyphRange is a sorted, deduplicated set of code points with an enable
// flag. Ranges are built during configuration and read-only while
// rendering.
type GlyphRange struct {
	points  []rune
	enabled bool
}

// NewGlyphRange creates a disabled range covering lo..hi inclusive.
func NewGlyphRange(lo, hi rune) *GlyphRange {
	r := &GlyphRange{}
	r.Add(lo, hi)
	return r
}

// Add inserts every code point in lo..hi inclusive. Reversed bounds are
// swapped.
func (r *GlyphRange) Add(lo, hi rune) {
	if lo > hi {
		lo, hi = hi, lo
	}
	for p := lo; p <= hi; p++ {
		r.points = append(r.points, p)
	}
	r.normalize()
}

// AddPoint inserts a single code point.
func (r *GlyphRange) AddPoint(p rune) {
	r.points = append(r.points, p)
	r.normalize()
}

// Remove deletes every code point in lo..hi inclusive. Reversed bounds are
// swapped.
func (r *GlyphRange) Remove(lo, hi rune) {
	if lo > hi {
		lo, hi = hi, lo
	}
	r.points = slices.DeleteFunc(r.points, func(p rune) bool {
		return p >= lo && p <= hi
	})
}

// RemovePoint deletes a single code point.
func (r *GlyphRange) RemovePoint(p rune) {
	r.Remove(p, p)
}

// Enable allows this range to render.
func (r *GlyphRange) Enable() { r.enabled = true }

// Disable denies this range from rendering.
func (r *GlyphRange) Disable() { r.enabled = false }

// Enabled reports whether this range renders.
func (r *GlyphRange) Enabled() bool { return r.enabled }

// Len returns the number of code points in the range.
func (r *GlyphRange) Len() int { return len(r.points) }

// normalize keeps the point list sorted and free of duplicates.
func (r *GlyphRange) normalize() {
	slices.Sort(r.points)
	r.points = slices.Compact(r.points)
}

// Queue walks the range in ascending order and dispatches one crunch task
// for every code point not yet seen by the storage. Sources are consulted
// in priority order; the first one that renders wins. Code points no source
// can produce are recorded as missing. Returns the number of glyphs
// dispatched; a disabled range dispatches nothing.
//
// Queue performs all Render calls on the calling goroutine, so sources
// need not be safe for concurrent use.
func (r *GlyphRange) Queue(storage *GlyphStorage, sources []GlyphSource, targetSize uint, pool *dispatch.Pool) int {
	if !r.enabled {
		return 0
	}

	dispatched := 0

	for _, p := range r.points {
		if !storage.Mark(p) {
			continue
		}

		var gly *sdf.Glyph
		for _, src := range sources {
			if gly = src.Render(p, targetSize); gly != nil {
				break
			}
		}

		if gly == nil {
			storage.Missing(p)
			continue
		}

		storage.ConcurrencyIncrement()
		g := gly
		pool.Submit(func() error {
			g.Crunch()
			return storage.Add(g)
		})
		dispatched++
	}

	return dispatched
}

// Segment names understood by NamedSegments. The command line help lists
// them in alphabetical order.
const (
	SegmentDefault          = "default"
	SegmentASCII            = "ascii"
	SegmentLatin            = "latin"
	SegmentGreek            = "greek"
	SegmentCyrillic         = "cyrillic"
	SegmentHiragana         = "hiragana"
	SegmentKatakana         = "katakana"
	SegmentUnifiedIdeograms = "unified-ideograms"
	SegmentHangul           = "hangul"
)

// NamedSegments returns the closed set of named glyph segments, all
// disabled. The "default" segment holds common shapes that are hard to
// classify into any specific script but commonly used anyway.
func NamedSegments() map[string]*GlyphRange {
	segments := map[string]*GlyphRange{
		SegmentASCII:            NewGlyphRange(' ', '~'),
		SegmentLatin:            NewGlyphRange(0xc0, 0xff),
		SegmentGreek:            NewGlyphRange(0x370, 0x3ff),
		SegmentCyrillic:         NewGlyphRange(0x410, 0x44f),
		SegmentHiragana:         NewGlyphRange(0x3040, 0x309e),
		SegmentKatakana:         NewGlyphRange(0x30a0, 0x30fe),
		SegmentUnifiedIdeograms: NewGlyphRange(0x4e00, 0x9fa5),
		SegmentHangul:           NewGlyphRange(0xac00, 0xd7af),
	}

	def := &GlyphRange{}
	def.AddPoint(0x2026) // horizontal ellipsis
	def.AddPoint(0x25a0) // black square
	def.AddPoint(0x25af) // white vertical rectangle
	segments[SegmentDefault] = def

	return segments
}

// DefaultSegments lists the segments enabled unless overridden from the
// command line.
func DefaultSegments() []string {
	return []string{
		SegmentDefault,
		SegmentASCII,
		SegmentLatin,
		SegmentGreek,
		SegmentCyrillic,
		SegmentHiragana,
		SegmentKatakana,
	}
}

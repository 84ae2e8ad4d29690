// Package fontatlas compiles scalable outline fonts into pre-rasterized
// signed-distance-field glyph atlases for alpha-tested GPU text rendering.
//
// Given an ordered list of font files (later files act as fallbacks), an
// enabled set of Unicode ranges, a large precalculation pixel size, a small
// target tile size and a relative edge-falloff fraction, a Compiler produces
// one or more 8-bit grayscale PNG atlas pages and a single XML sidecar
// describing every packed glyph.
//
// The pipeline renders glyphs serially on the producer goroutine (font
// rasterizer state is not re-entrant), crunches coverage bitmaps into
// distance-field tiles on a bounded worker pool, then packs tiles
// tallest-first into skyline atlas pages whose dimensions are chosen by a
// parallel width search.
package fontatlas

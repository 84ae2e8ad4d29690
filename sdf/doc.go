// Package sdf converts large rasterized coverage bitmaps into small
// signed-distance-field tiles suitable for alpha-tested text rendering.
//
// A Glyph is created from a coverage bitmap rendered at a large pixel size
// and crunched down to a tile of at most (2*target+1)² bytes. The field value
// stored per pixel encodes the Manhattan distance to the nearest coverage
// edge, with 128 on the edge, saturating to 255 inside and 0 outside over a
// configurable falloff fraction of the render size.
package sdf

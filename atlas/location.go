package atlas

// Location is one placement within a skyline. The zero value is invalid;
// a valid zero-area location is what the packer returns for glyphs that
// occupy no atlas space.
type Location struct {
	// X, Y is the placement origin in atlas pixels.
	X int
	Y int

	// W, H is the placement extent.
	W int
	H int

	// Wasted is the number of pixels buried under this placement.
	Wasted int

	valid bool
}

// NewLocation builds a valid location.
func NewLocation(x, y, w, h int) Location {
	return Location{X: x, Y: y, W: w, H: h, valid: true}
}

// Valid reports whether the location represents a successful fit.
func (l Location) Valid() bool { return l.valid }

package fontatlas

import "github.com/gogpu/fontatlas/atlas"

// CoordinateSystem selects the texture T convention written to the sidecar.
type CoordinateSystem int

const (
	// CoordinatesOpenGL stores t as-is; t = 0 is the bottom of the page.
	CoordinatesOpenGL CoordinateSystem = iota

	// CoordinatesDirectX stores 1 - t for both T coordinates.
	CoordinatesDirectX
)

// String returns the CLI spelling of the coordinate system.
func (c CoordinateSystem) String() string {
	if c == CoordinatesDirectX {
		return "directx"
	}
	return "opengl"
}

// Config holds compilation configuration.
type Config struct {
	// FontPaths lists the font files in fallback priority order.
	FontPaths []string

	// OutBase is the output basename: the sidecar goes to <OutBase>.xml and
	// atlas pages to <OutBase>_<i>.png.
	OutBase string

	// PrecalcSize is the pixel size fonts are rasterized at.
	// Default: 2048
	PrecalcSize uint

	// TargetSize is the distance-field tile half-extent; crunched tiles are
	// at most 2*TargetSize+1 pixels in each dimension.
	// Default: 48
	TargetSize uint

	// Dropdown is the edge falloff as a fraction of PrecalcSize, in (0, 1).
	// Default: 0.1
	Dropdown float64

	// Coordinates selects the texture T convention.
	// Default: CoordinatesOpenGL
	Coordinates CoordinateSystem

	// MaxPageSize bounds atlas page dimensions in both axes.
	// Default: 2048
	MaxPageSize int

	// Verbose enables per-glyph ASCII art and missing-glyph reports on the
	// standard streams.
	Verbose bool
}

// DefaultConfig returns the default configuration. FontPaths and OutBase
// must still be filled in.
func DefaultConfig() Config {
	return Config{
		PrecalcSize: 2048,
		TargetSize:  48,
		Dropdown:    0.1,
		Coordinates: CoordinatesOpenGL,
		MaxPageSize: 2048,
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.OutBase == "" {
		return &ConfigError{Field: "OutBase", Reason: "output files not specified"}
	}
	if len(c.FontPaths) == 0 {
		return &ConfigError{Field: "FontPaths", Reason: "no font files"}
	}
	if c.PrecalcSize == 0 {
		return &ConfigError{Field: "PrecalcSize", Reason: "must be positive"}
	}
	if c.TargetSize == 0 {
		return &ConfigError{Field: "TargetSize", Reason: "must be positive"}
	}
	if c.Dropdown <= 0.0 || c.Dropdown >= 1.0 {
		return &ConfigError{Field: "Dropdown", Reason: "must be in (0, 1)"}
	}
	if c.Coordinates != CoordinatesOpenGL && c.Coordinates != CoordinatesDirectX {
		return &ConfigError{Field: "Coordinates", Reason: "unknown coordinate system"}
	}
	if c.MaxPageSize < atlas.SizeStep {
		return &ConfigError{Field: "MaxPageSize", Reason: "smaller than the page granularity"}
	}
	return nil
}

// ConfigError represents a configuration validation error.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return "fontatlas: invalid config." + e.Field + ": " + e.Reason
}

package fontatlas

import (
	"fmt"
	"maps"
	"os"
	"runtime"
	"slices"

	"github.com/gogpu/fontatlas/atlas"
	"github.com/gogpu/fontatlas/face"
	"github.com/gogpu/fontatlas/internal/dispatch"
)

// Compiler drives a whole compilation: render, crunch, pack, emit.
type Compiler struct {
	cfg     Config
	ranges  map[string]*GlyphRange
	storage *GlyphStorage
}

// NewCompiler creates a compiler over the given configuration and glyph
// ranges. Only enabled ranges render; the map typically comes from
// NamedSegments plus command line adjustments.
func NewCompiler(cfg Config, ranges map[string]*GlyphRange) *Compiler {
	return &Compiler{
		cfg:     cfg,
		ranges:  ranges,
		storage: NewGlyphStorage(0),
	}
}

// Run executes the compilation. Font open failures, pipeline invariant
// violations, oversized glyphs and output I/O failures are fatal; missing
// glyphs and per-face render failures are recorded and skipped.
func (c *Compiler) Run() error {
	if err := c.cfg.Validate(); err != nil {
		return err
	}

	sources := make([]GlyphSource, 0, len(c.cfg.FontPaths))
	for _, path := range c.cfg.FontPaths {
		f, err := face.New(path, c.cfg.PrecalcSize, c.cfg.Dropdown)
		if err != nil {
			return err
		}
		defer f.Close()

		Logger().Info("font loaded", "path", path, "family", f.Name())
		sources = append(sources, f)
	}

	return c.run(sources)
}

// run is the pipeline behind Run, separated so sources can be substituted.
func (c *Compiler) run(sources []GlyphSource) error {
	if c.cfg.Verbose {
		c.storage.SetVerbose(os.Stdout, os.Stderr)
	}

	// Render serially here, crunch on the pool. The pool has as many workers
	// as the storage gate allows crunches in flight (twice GOMAXPROCS).
	pool := dispatch.NewPool(runtime.GOMAXPROCS(0) * 2)

	Logger().Info("rendering glyphs")

	for _, name := range slices.Sorted(maps.Keys(c.ranges)) {
		n := c.ranges[name].Queue(c.storage, sources, c.cfg.TargetSize, pool)
		if n > 0 {
			Logger().Debug("segment queued", "segment", name, "glyphs", n)
		}
	}

	pool.Close()
	if err := pool.Wait(); err != nil {
		return err
	}

	c.storage.Sort()

	sidecar, err := newSidecarWriter(c.cfg.OutBase+".xml", c.cfg.Coordinates)
	if err != nil {
		return err
	}

	if err := c.fitPages(sidecar); err != nil {
		sidecar.Close()
		return err
	}

	if err := sidecar.Close(); err != nil {
		return err
	}

	Logger().Info("done", "missing", c.storage.MissingCount())
	return nil
}

// fitPages packs the sorted storage into as many pages as it takes.
func (c *Compiler) fitPages(sidecar *sidecarWriter) error {
	for page := 0; !c.storage.Empty(); page++ {
		Logger().Info("fitting page", "page", page, "glyphs", c.storage.Len())

		fitter := atlas.NewFitter(c.cfg.MaxPageSize)
		fitter.SetProgress(func(count int, usage float64, w, h int) {
			Logger().Debug("fitter best", "count", count, "usage", usage, "width", w, "height", h)
		})

		width, height := fitter.Search(c.storage.Glyphs())
		if width <= 0 || height <= 0 {
			// No candidate reached positive usage: either every remaining
			// glyph is zero-area, and a minimal page still has to exist for
			// the sidecar to reference, or nothing fits, which the
			// placed == 0 check below reports.
			width, height = atlas.SizeStep, atlas.SizeStep
		}

		sl := atlas.NewSkyLine(width, height)

		placed, err := sl.FitAll(c.storage.Glyphs(), sidecar, page)
		if err != nil {
			return err
		}
		if placed == 0 {
			return fmt.Errorf("fontatlas: no glyph fits a %dx%d page; a glyph is larger than the maximum page size", width, height)
		}

		c.storage.Trim()

		pngName := fmt.Sprintf("%s_%d.png", c.cfg.OutBase, page)
		if err := sidecar.WriteTexture(pngName); err != nil {
			return err
		}
		if err := sl.Save(pngName); err != nil {
			return err
		}

		Logger().Info("page saved", "path", pngName, "width", width, "height", height, "glyphs", placed)
	}
	return nil
}

package atlas

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/gogpu/fontatlas/sdf"
)

// Fitter searches candidate page widths for the skyline packing that places
// the most glyphs at the highest pixel utilization.
//
// Thread safety: the search runs one scratch packer per candidate width
// concurrently; the best tuple is guarded by a mutex.
type Fitter struct {
	maxSize int

	mu         sync.Mutex
	bestCount  int
	bestUsage  float64
	bestWidth  int
	bestHeight int

	// logf, when set, receives a line for every improvement found.
	logf func(count int, usage float64, w, h int)
}

// NewFitter creates a fitter bounded by maxSize in both dimensions. maxSize
// is rounded down to the page granularity.
func NewFitter(maxSize int) *Fitter {
	return &Fitter{maxSize: maxSize - maxSize%SizeStep}
}

// SetProgress installs a callback invoked under the fitter's mutex whenever
// a candidate improves on the best packing so far.
func (f *Fitter) SetProgress(fn func(count int, usage float64, w, h int)) {
	f.logf = fn
}

// Search tries every candidate width maxSize, maxSize-4, ..., 4 and returns
// the winning page dimensions. The glyph slice must be sorted tallest-first
// and is only read. The returned height is the used height of the winning
// attempt, already rounded to the page granularity.
func (f *Fitter) Search(glyphs []*sdf.Glyph) (width, height int) {
	var group errgroup.Group
	group.SetLimit(runtime.GOMAXPROCS(0))

	for w := f.maxSize; w > 0; w -= SizeStep {
		group.Go(func() error {
			sl := NewSkyLine(w, f.maxSize)
			count, _ := sl.FitAll(glyphs, nil, 0)
			f.store(count, sl.Usage(), w, sl.UsedHeight())
			return nil
		})
	}

	// The attempts never fail; the group only bounds concurrency.
	_ = group.Wait()

	f.mu.Lock()
	defer f.mu.Unlock()
	return f.bestWidth, f.bestHeight
}

// store updates the best tuple. A candidate wins when it places at least as
// many glyphs AND strictly improves utilization. The rule is deliberately
// conservative: a candidate with a higher count but equal utilization is
// rejected, trading a possible improvement for a stable search result.
func (f *Fitter) store(count int, usage float64, w, h int) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if count >= f.bestCount && usage > f.bestUsage {
		f.bestCount = count
		f.bestUsage = usage
		f.bestWidth = w
		f.bestHeight = h

		if f.logf != nil {
			f.logf(count, usage, w, h)
		}
	}
}

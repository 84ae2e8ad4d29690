package fontatlas

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sort"
	"sync"

	"golang.org/x/text/unicode/runenames"

	"github.com/gogpu/fontatlas/sdf"
)

// GlyphStorage collects crunched glyphs, deduplicates render requests
// across ranges, and bounds the number of crunches in flight.
//
// All methods are safe for concurrent use.
type GlyphStorage struct {
	mu   sync.Mutex
	cond *sync.Cond

	// marked guards every code point ever submitted; entries are never
	// erased during a session.
	marked map[rune]bool

	glyphs  []*sdf.Glyph
	missing []rune

	inFlight    int
	concurrency int

	// failurePending keeps a "Failed: a b c" run on a single line between
	// interleaved glyph output.
	failurePending bool

	// artOut and failOut receive per-glyph ASCII art and missing-glyph
	// reports when verbose output is enabled; nil disables them.
	artOut  io.Writer
	failOut io.Writer
}

// NewGlyphStorage creates an empty storage. concurrency bounds the number
// of in-flight crunches; zero or negative selects the default of twice the
// hardware concurrency, which keeps a glyph waiting per worker.
func NewGlyphStorage(concurrency int) *GlyphStorage {
	if concurrency <= 0 {
		concurrency = runtime.GOMAXPROCS(0) * 2
	}
	s := &GlyphStorage{
		marked:      make(map[rune]bool),
		concurrency: concurrency,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// SetVerbose directs per-glyph ASCII art to art and missing-glyph reports
// to fail. Either may be nil to disable that stream.
func (s *GlyphStorage) SetVerbose(art, fail io.Writer) {
	s.mu.Lock()
	s.artOut = art
	s.failOut = fail
	s.mu.Unlock()
}

// Mark registers a code point for rendering. It returns true only the first
// time a code point is seen, so duplicate submissions across overlapping
// ranges are impossible.
func (s *GlyphStorage) Mark(r rune) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.marked[r] {
		return false
	}
	s.marked[r] = true
	return true
}

// ConcurrencyIncrement blocks until the number of in-flight crunches is
// below the ceiling, then claims a slot. Called by the producer before
// dispatching a crunch; this is the pipeline's backpressure.
func (s *GlyphStorage) ConcurrencyIncrement() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for s.inFlight >= s.concurrency {
		s.cond.Wait()
	}
	s.inFlight++
}

// concurrencyDecrement releases a slot. Must be called with the mutex held.
func (s *GlyphStorage) concurrencyDecrement() {
	s.inFlight--
	s.cond.Signal()
}

// Add files a crunched glyph and releases its concurrency slot. Adding a
// glyph whose code point was never marked is a pipeline invariant violation
// and returns an error.
func (s *GlyphStorage) Add(g *sdf.Glyph) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.marked[g.Code] {
		return fmt.Errorf("fontatlas: trying to add glyph %d that has not been marked for rendering", g.Code)
	}

	s.glyphs = append(s.glyphs, g)
	s.concurrencyDecrement()

	if s.artOut != nil {
		if s.failurePending {
			fmt.Fprintln(s.failOut)
			s.failurePending = false
		}
		fmt.Fprint(s.artOut, g.String())
	}
	return nil
}

// Missing records that no face produced the code point. Informational only;
// compilation continues.
func (s *GlyphStorage) Missing(r rune) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.missing = append(s.missing, r)

	if s.failOut != nil {
		if !s.failurePending {
			fmt.Fprint(s.failOut, "Failed:")
			s.failurePending = true
		}
		fmt.Fprintf(s.failOut, " %d", r)
	}

	if log := Logger(); log.Enabled(context.Background(), slog.LevelDebug) {
		log.Debug("glyph missing", "code", r, "name", runenames.Name(r))
	}
}

// Sort orders the glyphs by crunched height descending, then crunched width
// descending. Cleared (nil) entries sort to the end for Trim.
func (s *GlyphStorage) Sort() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sortLocked()
}

func (s *GlyphStorage) sortLocked() {
	sort.Slice(s.glyphs, func(i, j int) bool {
		lhs, rhs := s.glyphs[i], s.glyphs[j]
		if lhs == nil {
			return false
		}
		if rhs == nil {
			return true
		}
		if lhs.CrunchedHeight() != rhs.CrunchedHeight() {
			return lhs.CrunchedHeight() > rhs.CrunchedHeight()
		}
		return lhs.CrunchedWidth() > rhs.CrunchedWidth()
	})
}

// Trim sorts, then drops the trailing run of cleared entries left behind by
// a packing pass.
func (s *GlyphStorage) Trim() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sortLocked()

	remaining := 0
	for _, g := range s.glyphs {
		if g == nil {
			break
		}
		remaining++
	}
	s.glyphs = s.glyphs[:remaining]
}

// Glyphs returns the backing glyph slice. The packer clears placed entries
// in place; call Trim afterwards to drop them.
func (s *GlyphStorage) Glyphs() []*sdf.Glyph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.glyphs
}

// Len returns the number of stored glyphs, cleared entries included.
func (s *GlyphStorage) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.glyphs)
}

// Empty reports whether no glyphs remain.
func (s *GlyphStorage) Empty() bool {
	return s.Len() == 0
}

// MissingCount returns the number of code points no face could produce.
func (s *GlyphStorage) MissingCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.missing)
}

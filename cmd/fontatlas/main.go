// Command fontatlas compiles truetype fonts into precalculated
// signed-distance-field texture atlases usable with the Valve alpha-test
// algorithm.
//
// Font files given as input are iterated in command line order: glyphs are
// extracted from the first font file that contains them, successive font
// files act as fallbacks.
package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/gogpu/fontatlas"
)

const usagePrologue = `fontatlas [options] -o <output_file_base> <fontfiles>

This program will compile a truetype font into a precalculated font texture
file usable with the Valve algorithm.

The font files used as input will be iterated in the order specified in the
command line. The glyphs will be extracted from the first font file that
contains them, successive font files are used as a fallback.

Segment names are:
`

const usageEpilogue = `
'default' range represents common shapes that are hard to classify into any
specific segment, but are commonly used anyway.
`

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	defaults := fontatlas.DefaultConfig()

	fs := pflag.NewFlagSet("fontatlas", pflag.ContinueOnError)
	fs.SortFlags = true

	var (
		all         = fs.BoolP("all", "a", false, "Enable all known named segments by default.")
		coordinates = fs.StringP("coordinates", "c", defaults.Coordinates.String(),
			"System to store texture coordinates in, possible values: directx, opengl.")
		customRanges = fs.StringArray("custom-range", nil,
			"Add an additional custom glyph range (separate with a colon character) or an individual glyph.")
		dropdown = fs.Float64P("dropdown", "d", defaults.Dropdown,
			"Relative distance (of whole glyph) of font edge it takes to reduce alpha-test to 0.")
		empty    = fs.BoolP("empty", "e", false, "Do not enable any segments by default.")
		fonts    = fs.StringArrayP("font", "f", nil, "Font input file.")
		help     = fs.BoolP("help", "h", false, "Print help text.")
		includes = fs.StringArrayP("include", "i", nil,
			"Include a segment, may be specified multiple times. Segments may be symbolic names, individual characters specified by their unicode number or unicode number ranges separated by a colon.")
		outfile = fs.StringP("outfile", "o", "", "Output file basename.")
		precalc = fs.UintP("precalc-size", "p", defaults.PrecalcSize,
			"Size of glyph to use in calculation.")
		revokes = fs.StringArrayP("revoke", "r", nil,
			"Specifically deny a segment from being included, may be specified multiple times.")
		target = fs.UintP("target-size", "t", defaults.TargetSize,
			"Target resolution to crunch glyphs to.")
		verbose = fs.BoolP("verbose", "v", false, "Turn on verbose reporting.")
		version = fs.BoolP("version", "V", false, "Print version string.")
	)

	segments := fontatlas.NamedSegments()
	for _, name := range fontatlas.DefaultSegments() {
		segments[name].Enable()
	}

	fs.Usage = func() { printUsage(fs, segments) }

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if len(args) == 0 || *help {
		fs.Usage()
		return 0
	}

	handler := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo})
	if *verbose {
		handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug})
	}
	fontatlas.SetLogger(slog.New(handler))

	cfg := defaults
	cfg.OutBase = *outfile
	cfg.PrecalcSize = *precalc
	cfg.TargetSize = *target
	cfg.Dropdown = *dropdown
	cfg.Verbose = *verbose
	cfg.FontPaths = append(*fonts, fs.Args()...)

	switch *coordinates {
	case "opengl":
		cfg.Coordinates = fontatlas.CoordinatesOpenGL
	case "directx":
		cfg.Coordinates = fontatlas.CoordinatesDirectX
	default:
		fmt.Fprintf(os.Stderr, "invalid coordinate system: %s\n", *coordinates)
		return 1
	}

	if *all && *empty {
		fmt.Fprintln(os.Stderr, "both 'all' and 'empty' options specified at the same time")
		return 1
	}
	if *all {
		for _, seg := range segments {
			seg.Enable()
		}
	}
	if *empty {
		for _, seg := range segments {
			seg.Disable()
		}
	}

	// Ad-hoc code points collect into an "extra" bucket alongside the named
	// segments.
	extra := &fontatlas.GlyphRange{}

	for _, spec := range *customRanges {
		lo, hi, err := parseRangeSpec(spec)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		extra.Add(lo, hi)
		extra.Enable()
	}

	for _, spec := range *includes {
		if seg, ok := segments[spec]; ok {
			seg.Enable()
			continue
		}
		lo, hi, err := parseRangeSpec(spec)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		extra.Add(lo, hi)
		extra.Enable()
	}

	for _, spec := range *revokes {
		if seg, ok := segments[spec]; ok {
			seg.Disable()
			continue
		}
		lo, hi, err := parseRangeSpec(spec)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		for _, seg := range segments {
			seg.Remove(lo, hi)
		}
		extra.Remove(lo, hi)
	}

	if *version {
		fmt.Println(fontatlas.Version)
		if cfg.OutBase == "" || len(cfg.FontPaths) == 0 {
			return 0
		}
	}

	if extra.Enabled() {
		segments["extra"] = extra
	}

	if err := fontatlas.NewCompiler(cfg, segments).Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

// parseRangeSpec parses "N" or "N:M" into an inclusive code point range.
func parseRangeSpec(spec string) (lo, hi rune, err error) {
	first, second, ranged := strings.Cut(spec, ":")

	lov, err := strconv.ParseUint(first, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid range description: '%s'", spec)
	}
	lo = rune(lov)
	hi = lo

	if ranged {
		hiv, err := strconv.ParseUint(second, 10, 32)
		if err != nil {
			return 0, 0, fmt.Errorf("invalid range description: '%s'", spec)
		}
		hi = rune(hiv)
	}

	return lo, hi, nil
}

// printUsage writes the help text: prologue, segment list, flag table.
func printUsage(fs *pflag.FlagSet, segments map[string]*fontatlas.GlyphRange) {
	var sb strings.Builder
	sb.WriteString(usagePrologue)

	names := make([]string, 0, len(segments))
	for name := range segments {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Fprintf(&sb, "  %s\n", name)
	}

	sb.WriteString(usageEpilogue)
	sb.WriteString("\nOptions:\n")
	sb.WriteString(fs.FlagUsages())

	fmt.Fprint(os.Stderr, sb.String())
}

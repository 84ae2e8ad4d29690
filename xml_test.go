package fontatlas

import (
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"golang.org/x/image/math/fixed"

	"github.com/gogpu/fontatlas/sdf"
)

// sidecarDoc mirrors the sidecar structure for decoding in tests.
type sidecarDoc struct {
	XMLName  xml.Name      `xml:"font"`
	Glyphs   []glyphRecord `xml:"glyph"`
	Textures []string      `xml:"texture"`
}

func readSidecar(t *testing.T, path string) sidecarDoc {
	t.Helper()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	var doc sidecarDoc
	if err := xml.Unmarshal(data, &doc); err != nil {
		t.Fatalf("sidecar does not parse: %v", err)
	}
	return doc
}

// sidecarGlyph builds a glyph with known placement values.
func sidecarGlyph(code rune, t1, t2 float64) *sdf.Glyph {
	g := sdf.New(code, nil, 0, 0, 0, 0, fixed.Point26_6{X: fixed.I(8)}, 16, 4, 0.25)
	g.Crunch()
	g.SetST(0.25, t1, 0.5, t2)
	g.Page = 2
	return g
}

func writeSidecar(t *testing.T, coordinates CoordinateSystem, glyphs ...*sdf.Glyph) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "font.xml")
	w, err := newSidecarWriter(path, coordinates)
	if err != nil {
		t.Fatal(err)
	}
	for _, g := range glyphs {
		if err := w.WriteGlyph(g); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.WriteTexture("font_0.png"); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestSidecarStructure(t *testing.T) {
	path := writeSidecar(t, CoordinatesOpenGL, sidecarGlyph('A', 0.125, 0.25))

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)

	if !strings.Contains(text, `<?xml version="1.0" encoding="utf-8"?>`) {
		t.Error("sidecar missing XML declaration")
	}
	if !strings.Contains(text, `xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance"`) {
		t.Error("sidecar missing xsi namespace attribute")
	}
	if !strings.Contains(text, `xmlns:xsd="http://www.w3.org/2001/XMLSchema"`) {
		t.Error("sidecar missing xsd namespace attribute")
	}

	doc := readSidecar(t, path)
	if len(doc.Glyphs) != 1 {
		t.Fatalf("sidecar holds %d glyphs, want 1", len(doc.Glyphs))
	}
	if doc.Glyphs[0].Code != 'A' {
		t.Errorf("glyph code = %d, want %d", doc.Glyphs[0].Code, 'A')
	}
	if doc.Glyphs[0].Page != 2 {
		t.Errorf("glyph page = %d, want 2", doc.Glyphs[0].Page)
	}
	if len(doc.Textures) != 1 || doc.Textures[0] != "font_0.png" {
		t.Errorf("textures = %v, want [font_0.png]", doc.Textures)
	}
}

// TestSidecarCoordinateSymmetry checks the DirectX convention: both T
// coordinates flip to 1-t, everything else is identical.
func TestSidecarCoordinateSymmetry(t *testing.T) {
	glPath := writeSidecar(t, CoordinatesOpenGL, sidecarGlyph('A', 0.125, 0.25))
	dxPath := writeSidecar(t, CoordinatesDirectX, sidecarGlyph('A', 0.125, 0.25))

	gl := readSidecar(t, glPath).Glyphs[0]
	dx := readSidecar(t, dxPath).Glyphs[0]

	if dx.T1 != 1.0-gl.T1 {
		t.Errorf("dx t1 = %g, want %g", dx.T1, 1.0-gl.T1)
	}
	if dx.T2 != 1.0-gl.T2 {
		t.Errorf("dx t2 = %g, want %g", dx.T2, 1.0-gl.T2)
	}

	dx.T1, dx.T2 = gl.T1, gl.T2
	if dx != gl {
		t.Errorf("records differ beyond t: gl=%+v dx=%+v", gl, dx)
	}
}

// TestSidecarZeroAreaGlyph checks the whitespace contract: zero size, zero
// texture coordinates, positive advance.
func TestSidecarZeroAreaGlyph(t *testing.T) {
	g := sdf.New(' ', nil, 0, 0, 0, 0, fixed.Point26_6{X: fixed.I(8)}, 16, 4, 0.25)
	g.Crunch()

	path := writeSidecar(t, CoordinatesOpenGL, g)
	rec := readSidecar(t, path).Glyphs[0]

	if rec.Width != 0 || rec.Height != 0 {
		t.Errorf("size = %g x %g, want 0 x 0", rec.Width, rec.Height)
	}
	if rec.S1 != 0 || rec.T1 != 0 || rec.S2 != 0 || rec.T2 != 0 {
		t.Errorf("texture coordinates = %g,%g,%g,%g, want all 0", rec.S1, rec.T1, rec.S2, rec.T2)
	}
	if rec.AdvanceX <= 0 {
		t.Errorf("advance = %g, want > 0", rec.AdvanceX)
	}
}

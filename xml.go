package fontatlas

import (
	"encoding/xml"
	"fmt"
	"os"

	"github.com/gogpu/fontatlas/sdf"
)

// glyphRecord is the per-glyph sidecar element. All metrics are normalized
// to font-height units; texture coordinates are in [0, 1].
type glyphRecord struct {
	XMLName  xml.Name `xml:"glyph"`
	Code     uint32   `xml:"code"`
	Width    float64  `xml:"width"`
	Height   float64  `xml:"height"`
	Left     float64  `xml:"left"`
	Top      float64  `xml:"top"`
	AdvanceX float64  `xml:"advance_x"`
	AdvanceY float64  `xml:"advance_y"`
	X1       float64  `xml:"x1"`
	Y1       float64  `xml:"y1"`
	X2       float64  `xml:"x2"`
	Y2       float64  `xml:"y2"`
	S1       float64  `xml:"s1"`
	T1       float64  `xml:"t1"`
	S2       float64  `xml:"s2"`
	T2       float64  `xml:"t2"`
	Page     int      `xml:"page"`
}

// sidecarWriter streams the XML sidecar: a <font> root holding one <glyph>
// element per packed glyph and one <texture> element per emitted page.
type sidecarWriter struct {
	f           *os.File
	enc         *xml.Encoder
	coordinates CoordinateSystem
}

var fontStart = xml.StartElement{
	Name: xml.Name{Local: "font"},
	Attr: []xml.Attr{
		{Name: xml.Name{Local: "xmlns:xsi"}, Value: "http://www.w3.org/2001/XMLSchema-instance"},
		{Name: xml.Name{Local: "xmlns:xsd"}, Value: "http://www.w3.org/2001/XMLSchema"},
	},
}

// newSidecarWriter creates path and writes the document header.
func newSidecarWriter(path string, coordinates CoordinateSystem) (*sidecarWriter, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("fontatlas: could not open %s for writing: %w", path, err)
	}

	enc := xml.NewEncoder(f)
	enc.Indent("", "\t")

	if err := enc.EncodeToken(xml.ProcInst{
		Target: "xml",
		Inst:   []byte(`version="1.0" encoding="utf-8"`),
	}); err != nil {
		f.Close()
		return nil, fmt.Errorf("fontatlas: could not write %s: %w", path, err)
	}
	if err := enc.EncodeToken(fontStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("fontatlas: could not write %s: %w", path, err)
	}

	return &sidecarWriter{f: f, enc: enc, coordinates: coordinates}, nil
}

// WriteGlyph emits one <glyph> element. Under the DirectX convention both
// T coordinates are stored as 1 - t.
func (w *sidecarWriter) WriteGlyph(g *sdf.Glyph) error {
	rec := glyphRecord{
		Code:     uint32(g.Code),
		Width:    g.Width,
		Height:   g.Height,
		Left:     g.Left,
		Top:      g.Top,
		AdvanceX: g.AdvanceX,
		AdvanceY: g.AdvanceY,
		X1:       g.X1,
		Y1:       g.Y1,
		X2:       g.X2,
		Y2:       g.Y2,
		S1:       g.S1,
		T1:       g.T1,
		S2:       g.S2,
		T2:       g.T2,
		Page:     g.Page,
	}

	if w.coordinates == CoordinatesDirectX {
		rec.T1 = 1.0 - rec.T1
		rec.T2 = 1.0 - rec.T2
	}

	if err := w.enc.Encode(rec); err != nil {
		return fmt.Errorf("fontatlas: could not write glyph %d: %w", g.Code, err)
	}
	return nil
}

// WriteTexture emits one <texture> element holding a page filename.
func (w *sidecarWriter) WriteTexture(name string) error {
	el := xml.StartElement{Name: xml.Name{Local: "texture"}}
	if err := w.enc.EncodeElement(name, el); err != nil {
		return fmt.Errorf("fontatlas: could not write texture %s: %w", name, err)
	}
	return nil
}

// Close ends the document and closes the file.
func (w *sidecarWriter) Close() error {
	if err := w.enc.EncodeToken(fontStart.End()); err != nil {
		w.f.Close()
		return fmt.Errorf("fontatlas: could not finish sidecar: %w", err)
	}
	if err := w.enc.Close(); err != nil {
		w.f.Close()
		return fmt.Errorf("fontatlas: could not finish sidecar: %w", err)
	}
	if err := w.f.Close(); err != nil {
		return fmt.Errorf("fontatlas: could not finish sidecar: %w", err)
	}
	return nil
}

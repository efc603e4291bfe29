package truetype

import (
	"testing"

	"github.com/go-fontcore/fontcore/sfnt"
	"github.com/go-fontcore/fontcore/stream"
)

// buildTriangleGlyf encodes a single simple glyph: a 3-point triangle
// contour (0,0)-(100,0)-(50,100), all on-curve, no hinting bytecode.
func buildTriangleGlyf() []byte {
	b := []byte{
		0, 1, // numberOfContours = 1
		0, 0, 0, 0, 0, 100, 0, 100, // xMin, yMin, xMax, yMax
		0, 2, // endPtsOfContours[0] = 2
		0, 0, // instructionLength = 0
		0x31, 0x33, 0x27, // flags for points 0, 1, 2
		// point0 dx: xSame (delta 0, no byte)
		100,     // point1 dx: short positive +100
		50,      // point2 dx: short negative -50
		// y deltas
		100, // point2 dy: short positive +100 (points 0,1 are ySame => no bytes)
	}
	return b
}

func buildBlankGlyf() []byte { return nil }

func newLoaderWithGlyphs(t *testing.T, glyfBodies [][]byte) *Loader {
	t.Helper()
	var glyf []byte
	locations := []uint32{0}
	for _, g := range glyfBodies {
		glyf = append(glyf, g...)
		locations = append(locations, uint32(len(glyf)))
	}
	loca := make([]byte, 0, len(locations)*4)
	for _, v := range locations {
		loca = append(loca, u32b(v)...)
	}
	numGlyphs := len(glyfBodies)
	hmtx := make([]byte, 0, numGlyphs*4)
	for range glyfBodies {
		hmtx = append(hmtx, u16b(120)...) // advance
		hmtx = append(hmtx, u16b(0)...)   // bearing (as int16 bytes, value 0)
	}
	data := buildSfnt(map[string][]byte{
		"glyf": glyf,
		"loca": loca,
		"hmtx": hmtx,
	})
	s := stream.NewMemory(data)
	d, err := sfnt.ParseDirectory(s, 0)
	if err != nil {
		t.Fatalf("ParseDirectory: %v", err)
	}
	locaTable, err := ParseLoca(s, d, numGlyphs, true)
	if err != nil {
		t.Fatalf("ParseLoca: %v", err)
	}
	hmtxTable, err := sfnt.ParseHmtx(s, d, numGlyphs, numGlyphs)
	if err != nil {
		t.Fatalf("ParseHmtx: %v", err)
	}
	return &Loader{Stream: s, Dir: d, Loca: locaTable, Hmtx: hmtxTable, UnitsPerEm: 1000}
}

func TestLoadSimpleTriangle(t *testing.T) {
	l := newLoaderWithGlyphs(t, [][]byte{buildTriangleGlyf()})
	g, err := l.Load(0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	o := g.Outline
	if o.NPoints() != 3 || o.NContours() != 1 {
		t.Fatalf("NPoints=%d NContours=%d", o.NPoints(), o.NContours())
	}
	want := []struct{ x, y int32 }{{0, 0}, {100, 0}, {50, 100}}
	for i, w := range want {
		if o.Points[i].X != w.x || o.Points[i].Y != w.y {
			t.Fatalf("point %d: got (%d,%d), want (%d,%d)", i, o.Points[i].X, o.Points[i].Y, w.x, w.y)
		}
	}
	// Phantom points: pp1 = (xMin - lsb, 0), pp2 = (pp1.x + advance, 0).
	if g.Phantom[0].X != 0 || g.Phantom[1].X != 120 {
		t.Fatalf("phantom points: pp1=%+v pp2=%+v", g.Phantom[0], g.Phantom[1])
	}
}

func TestLoadBlankGlyph(t *testing.T) {
	l := newLoaderWithGlyphs(t, [][]byte{buildBlankGlyf(), buildTriangleGlyf()})
	g, err := l.Load(0)
	if err != nil {
		t.Fatalf("Load blank: %v", err)
	}
	if g.Outline.NPoints() != 0 || g.Outline.NContours() != 0 {
		t.Fatalf("blank glyph: got NPoints=%d NContours=%d, want 0,0", g.Outline.NPoints(), g.Outline.NContours())
	}
}

func TestLoadPointBudgetExceeded(t *testing.T) {
	l := newLoaderWithGlyphs(t, [][]byte{buildTriangleGlyf()})
	l.MaxContours = 0
	// A zero budget field means "no limit" per checkPointBudget/GrowContours
	// semantics, so set a budget that is actually exceeded.
	l.MaxPoints = 2
	if _, err := l.Load(0); err == nil {
		t.Fatalf("Load: want TooManyPoints when the triangle's 3 points exceed a budget of 2")
	}
}

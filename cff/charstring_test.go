package cff

import "testing"

// num encodes an integer in Type 2 charstring's single-byte form, valid
// for v in [-107, 107] — sufficient for this package's small test fonts.
func num(v int) byte {
	if v < -107 || v > 107 {
		panic("num: out of single-byte range")
	}
	return byte(v + 139)
}

func newIndexOf(entries ...[]byte) *Index {
	var data []byte
	locs := make([]uint32, 0, len(entries)+1)
	locs = append(locs, 0)
	for _, e := range entries {
		data = append(data, e...)
		locs = append(locs, uint32(len(data)))
	}
	return &Index{data: data, locations: locs}
}

func TestRunCharstringTriangle(t *testing.T) {
	// rmoveto(0,0) rlineto(100,0) rlineto(-50,100) endchar
	cs := []byte{
		num(0), num(0), t2RMoveTo,
		num(100), num(0), t2RLineTo,
		num(-50), num(100), t2RLineTo,
		t2EndChar,
	}
	f := &Font{CharStrings: newIndexOf(cs), GlobalSubrs: newIndexOf(), LocalSubrs: newIndexOf()}
	out, width, seac, err := f.RunCharstring(0)
	if err != nil {
		t.Fatalf("RunCharstring: %v", err)
	}
	if seac != nil {
		t.Fatalf("seac: got %+v, want nil", seac)
	}
	if out.NPoints() != 3 || out.NContours() != 1 {
		t.Fatalf("NPoints=%d NContours=%d", out.NPoints(), out.NContours())
	}
	want := []struct{ x, y int32 }{{0, 0}, {100, 0}, {50, 100}}
	for i, w := range want {
		if out.Points[i].X != w.x || out.Points[i].Y != w.y {
			t.Fatalf("point %d: got (%d,%d), want (%d,%d)", i, out.Points[i].X, out.Points[i].Y, w.x, w.y)
		}
	}
	_ = width
}

func TestRunCharstringInvalidGlyphIndex(t *testing.T) {
	f := &Font{CharStrings: newIndexOf([]byte{t2EndChar})}
	if _, _, _, err := f.RunCharstring(5); err == nil {
		t.Fatalf("RunCharstring(5) on a 1-glyph font: want InvalidGlyphIndex, got nil")
	}
}

func TestRunCharstringEndCharSeac(t *testing.T) {
	// adx, ady, bchar, achar, endchar (4-arg accent composition). achar 193
	// is past num's single-byte range, so it uses the two-byte form
	// 247, 85: (247-247)*256 + 85 + 108 = 193.
	cs := []byte{
		num(10), num(0), num(65), 247, 85, t2EndChar,
	}
	f := &Font{CharStrings: newIndexOf(cs)}
	out, _, seac, err := f.RunCharstring(0)
	if err != nil {
		t.Fatalf("RunCharstring: %v", err)
	}
	if out.NPoints() != 0 {
		t.Fatalf("seac composition request: outline should be empty, got %d points", out.NPoints())
	}
	if seac == nil {
		t.Fatalf("seac: want non-nil composition request")
	}
	if seac.BChar != 65 || seac.AChar != 193 {
		t.Fatalf("seac codes: got BChar=%d AChar=%d, want 65,193", seac.BChar, seac.AChar)
	}
}

func TestCallSubrBias(t *testing.T) {
	if bias(1239) != 107 {
		t.Fatalf("bias(1239): got %d, want 107", bias(1239))
	}
	if bias(1240) != 1131 {
		t.Fatalf("bias(1240): got %d, want 1131", bias(1240))
	}
}

func TestIndexGetOutOfRange(t *testing.T) {
	idx := newIndexOf([]byte{1, 2, 3})
	if idx.Count() != 1 {
		t.Fatalf("Count: got %d, want 1", idx.Count())
	}
	if idx.Get(1) != nil {
		t.Fatalf("Get(1) out of range: want nil")
	}
	var nilIdx *Index
	if nilIdx.Count() != 0 || nilIdx.Get(0) != nil {
		t.Fatalf("nil Index: want Count()==0 and Get()==nil")
	}
}

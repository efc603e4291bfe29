package cff

import (
	"testing"

	"github.com/go-fontcore/fontcore/sfnt"
	"github.com/go-fontcore/fontcore/stream"
)

func fu16(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }
func fu32(v uint32) []byte { return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)} }

// buildSfnt assembles a minimal well-formed sfnt resource wrapping a single
// table, the same layout the other packages' test helpers build.
func buildSfnt(tag string, table []byte) []byte {
	header := make([]byte, 12)
	copy(header[0:4], fu32(0x4f54544f)) // "OTTO", an OpenType/CFF wrapper
	copy(header[4:6], fu16(1))

	dir := make([]byte, 16)
	copy(dir[0:4], fu32(sfnt.Tag(tag)))
	copy(dir[8:12], fu32(12+16))
	copy(dir[12:16], fu32(uint32(len(table))))

	out := append(header, dir...)
	out = append(out, table...)
	return out
}

// index8 builds a CFF INDEX with 1-byte offsets, sufficient for these small
// test fixtures.
func index8(entries ...[]byte) []byte {
	if len(entries) == 0 {
		return fu16(0)
	}
	var data []byte
	offs := []byte{1}
	off := 1
	for _, e := range entries {
		data = append(data, e...)
		off += len(e)
		offs = append(offs, byte(off))
	}
	out := append([]byte{}, fu16(uint16(len(entries)))...)
	out = append(out, 1) // offSize
	out = append(out, offs...)
	out = append(out, data...)
	return out
}

// dictInt32 encodes a DICT operand/operator pair: a 32-bit integer operand
// (DICT number form b0==29) followed by a single-byte operator.
func dictInt32(v int32, op byte) []byte {
	b := []byte{29}
	b = append(b, fu32(uint32(v))...)
	b = append(b, op)
	return b
}

func buildMinimalCFF(cs []byte) []byte {
	header := []byte{1, 0, 4, 4}
	name := index8([]byte("AAA"))

	// Top DICT: CharStrings offset is filled in once everything ahead of
	// the CharStrings INDEX is known.
	nameLen := len(name)
	const topDictEntryLen = 6 // 29 + 4 bytes + 1-byte operator
	topIdxLen := 2 + 1 + 2 + topDictEntryLen
	stringsLen := 2 // empty INDEX
	gsubrsLen := 2  // empty INDEX

	csOffset := len(header) + nameLen + topIdxLen + stringsLen + gsubrsLen
	topDict := index8(dictInt32(int32(csOffset), 17)) // opCharStrings

	out := append([]byte{}, header...)
	out = append(out, name...)
	out = append(out, topDict...)
	out = append(out, fu16(0)...) // String INDEX, empty
	out = append(out, fu16(0)...) // Global Subr INDEX, empty
	out = append(out, index8(cs)...)
	return out
}

func parseTestFont(t *testing.T, cffData []byte) *Font {
	t.Helper()
	data := buildSfnt("CFF ", cffData)
	s := stream.NewMemory(data)
	d, err := sfnt.ParseDirectory(s, 0)
	if err != nil {
		t.Fatalf("ParseDirectory: %v", err)
	}
	f, err := Parse(s, d)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	return f
}

func TestParseMinimalFont(t *testing.T) {
	cs := []byte{
		num(0), num(0), t2RMoveTo,
		num(100), num(0), t2RLineTo,
		num(-50), num(100), t2RLineTo,
		t2EndChar,
	}
	f := parseTestFont(t, buildMinimalCFF(cs))

	if f.CharStrings.Count() != 1 {
		t.Fatalf("CharStrings.Count: got %d, want 1", f.CharStrings.Count())
	}
	if f.GlobalSubrs.Count() != 0 || f.LocalSubrs.Count() != 0 {
		t.Fatalf("subr indices: want empty, got global=%d local=%d", f.GlobalSubrs.Count(), f.LocalSubrs.Count())
	}
	wantMatrix := [6]float64{0.001, 0, 0, 0.001, 0, 0}
	if f.FontMatrix != wantMatrix {
		t.Fatalf("FontMatrix default: got %v, want %v", f.FontMatrix, wantMatrix)
	}
	if f.IsCID {
		t.Fatalf("IsCID: got true, want false (no ROS operator present)")
	}
	if len(f.Charset) != 1 || f.Charset[0] != 0 {
		t.Fatalf("Charset: got %v, want identity [0] (charsetOff==0)", f.Charset)
	}

	out, _, seac, err := f.RunCharstring(0)
	if err != nil {
		t.Fatalf("RunCharstring: %v", err)
	}
	if seac != nil {
		t.Fatalf("seac: got %+v, want nil", seac)
	}
	if out.NPoints() != 3 || out.NContours() != 1 {
		t.Fatalf("NPoints=%d NContours=%d, want 3,1", out.NPoints(), out.NContours())
	}
}

func TestParseMissingCFFTableFails(t *testing.T) {
	data := buildSfnt("head", make([]byte, 54))
	s := stream.NewMemory(data)
	d, err := sfnt.ParseDirectory(s, 0)
	if err != nil {
		t.Fatalf("ParseDirectory: %v", err)
	}
	if _, err := Parse(s, d); err == nil {
		t.Fatalf("Parse with no CFF table: want error, got nil")
	}
}

func TestParseZeroCharStringsOffsetFails(t *testing.T) {
	header := []byte{1, 0, 4, 4}
	name := index8([]byte("AAA"))
	topDict := index8([]byte{}) // no CharStrings operator at all
	cffData := append([]byte{}, header...)
	cffData = append(cffData, name...)
	cffData = append(cffData, topDict...)
	cffData = append(cffData, fu16(0)...)
	cffData = append(cffData, fu16(0)...)

	data := buildSfnt("CFF ", cffData)
	s := stream.NewMemory(data)
	d, err := sfnt.ParseDirectory(s, 0)
	if err != nil {
		t.Fatalf("ParseDirectory: %v", err)
	}
	if _, err := Parse(s, d); err == nil {
		t.Fatalf("Parse with no CharStrings operator: want error, got nil")
	}
}

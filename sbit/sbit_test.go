package sbit

import (
	"testing"

	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/sfnt"
	"github.com/go-fontcore/fontcore/stream"
	"github.com/google/go-cmp/cmp"
)

func u16(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }
func u32(v uint32) []byte { return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)} }

// buildSfnt assembles a minimal well-formed sfnt resource, the same layout
// the sfnt/truetype packages' own test helpers build.
func buildSfnt(tables map[string][]byte) []byte {
	names := make([]string, 0, len(tables))
	for n := range tables {
		names = append(names, n)
	}
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if names[j] < names[i] {
				names[i], names[j] = names[j], names[i]
			}
		}
	}
	header := make([]byte, 12)
	copy(header[0:4], u32(0x00010000))
	copy(header[4:6], u16(uint16(len(names))))

	dir := make([]byte, 16*len(names))
	offset := uint32(12 + 16*len(names))
	var body []byte
	for i, n := range names {
		tbl := tables[n]
		e := dir[i*16 : i*16+16]
		copy(e[0:4], u32(sfnt.Tag(n)))
		copy(e[8:12], u32(offset))
		copy(e[12:16], u32(uint32(len(tbl))))
		body = append(body, tbl...)
		offset += uint32(len(tbl))
	}
	out := append(header, dir...)
	out = append(out, body...)
	return out
}

// buildEBLCAndEBDT builds a single-strike EBLC/EBDT pair: one format-2
// (dense, constant-metrics) range covering gid 0 only, an 8x1 1-bit-deep
// image-format-1 (byte-aligned rows) bitmap.
func buildEBLCAndEBDT() (eblc, ebdt []byte) {
	ebdt = []byte{0xB0}

	constMetrics := []byte{1, 8, 0, 0, 8, 0, 0, 8} // height,width,hBearX,hBearY,hAdv,vBearX,vBearY,vAdv

	rangeSub := append([]byte{}, u16(2)...) // indexFormat
	rangeSub = append(rangeSub, u16(1)...)  // imageFormat
	rangeSub = append(rangeSub, u32(0)...)  // imageOffset within EBDT
	rangeSub = append(rangeSub, u32(1)...)  // imageSize
	rangeSub = append(rangeSub, constMetrics...)

	const strikeHeaderLen = 48
	const rangeHeaderLen = 8
	rangesOffset := uint32(8 + strikeHeaderLen)
	subtableAbsOffset := rangesOffset + rangeHeaderLen
	rel := subtableAbsOffset - rangesOffset

	rangeHeader := append([]byte{}, u16(0)...) // first glyph
	rangeHeader = append(rangeHeader, u16(0)...) // last glyph
	rangeHeader = append(rangeHeader, u32(rel)...)

	strike := append([]byte{}, u32(rangesOffset)...)
	strike = append(strike, u32(0)...) // indexTablesSize, unused
	strike = append(strike, u32(1)...) // numRanges
	strike = append(strike, u32(0)...) // colorRef, unused
	lineMetrics := make([]byte, 12)
	strike = append(strike, lineMetrics...) // hori
	strike = append(strike, lineMetrics...) // vert
	strike = append(strike, u16(0)...)      // startGlyph
	strike = append(strike, u16(0)...)      // endGlyph
	strike = append(strike, 12, 12, 1, 0)   // xppem, yppem, bitdepth, flags

	eblc = append([]byte{}, u32(0x00020000)...) // version
	eblc = append(eblc, u32(1)...)               // numStrikes
	eblc = append(eblc, strike...)
	eblc = append(eblc, rangeHeader...)
	eblc = append(eblc, rangeSub...)
	return eblc, ebdt
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	eblc, ebdt := buildEBLCAndEBDT()
	data := buildSfnt(map[string][]byte{"EBLC": eblc, "EBDT": ebdt})
	s := stream.NewMemory(data)
	d, err := sfnt.ParseDirectory(s, 0)
	if err != nil {
		t.Fatalf("ParseDirectory: %v", err)
	}
	eng, err := NewEngine(s, d)
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return eng
}

func TestFindStrikeExactMatch(t *testing.T) {
	eng := newTestEngine(t)
	st, ok := eng.FindStrike(12, 12)
	if !ok {
		t.Fatalf("FindStrike(12,12): want ok=true")
	}
	if st.BitDepth != 1 {
		t.Fatalf("BitDepth: got %d, want 1", st.BitDepth)
	}
	if _, ok := eng.FindStrike(13, 13); ok {
		t.Fatalf("FindStrike(13,13): want ok=false, no strike at that size")
	}
}

func TestLoadDecodesConstMetricsBitmap(t *testing.T) {
	eng := newTestEngine(t)
	st, _ := eng.FindStrike(12, 12)
	bmp, err := eng.Load(st, 0)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := &Bitmap{
		Width: 8, Rows: 1, Pitch: 1, BitDepth: 1,
		Buffer:      []byte{0xB0},
		HoriAdvance: 8,
		VertAdvance: 8,
	}
	if diff := cmp.Diff(want, bmp); diff != "" {
		t.Fatalf("Load bitmap mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadUnknownGlyphFails(t *testing.T) {
	eng := newTestEngine(t)
	st, _ := eng.FindStrike(12, 12)
	if _, err := eng.Load(st, 5); err == nil {
		t.Fatalf("Load(gid=5) outside the range's [0,0]: want InvalidGlyphIndex, got nil")
	}
}

func TestNewEngineMissingEBLCReportsTableMissing(t *testing.T) {
	data := buildSfnt(map[string][]byte{"head": make([]byte, 54)})
	s := stream.NewMemory(data)
	d, err := sfnt.ParseDirectory(s, 0)
	if err != nil {
		t.Fatalf("ParseDirectory: %v", err)
	}
	if _, err := NewEngine(s, d); !fontcore.Is(err, fontcore.CodeTableMissing) {
		t.Fatalf("NewEngine with no EBLC table: want TableMissing, got %v", err)
	}
}

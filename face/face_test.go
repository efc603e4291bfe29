package face

import (
	"testing"

	"github.com/go-fontcore/fontcore/driver"
	"github.com/go-fontcore/fontcore/sfnt"
)

func u16b(v uint16) []byte  { return []byte{byte(v >> 8), byte(v)} }
func i16b(v int16) []byte   { return []byte{byte(uint16(v) >> 8), byte(v)} }
func u32b(v uint32) []byte  { return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)} }

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
	copy(header[0:4], u32b(0x00010000))
	copy(header[4:6], u16b(uint16(len(names))))

	dir := make([]byte, 16*len(names))
	offset := uint32(12 + 16*len(names))
	var body []byte
	for i, n := range names {
		tbl := tables[n]
		e := dir[i*16 : i*16+16]
		copy(e[0:4], u32b(sfnt.Tag(n)))
		copy(e[8:12], u32b(offset))
		copy(e[12:16], u32b(uint32(len(tbl))))
		body = append(body, tbl...)
		offset += uint32(len(tbl))
	}
	out := append(header, dir...)
	out = append(out, body...)
	return out
}

func buildHead(unitsPerEm uint16, longLoca bool) []byte {
	b := make([]byte, 54)
	copy(b[18:20], u16b(unitsPerEm))
	locaFormat := int16(0)
	if longLoca {
		locaFormat = 1
	}
	copy(b[50:52], i16b(locaFormat))
	return b
}

func buildMaxp(numGlyphs uint16) []byte {
	b := make([]byte, 32)
	copy(b[0:4], u32b(0x00010000))
	copy(b[4:6], u16b(numGlyphs))
	return b
}

func buildHhea(ascender, descender int16, maxAdvance uint16, numLongMetrics uint16) []byte {
	b := make([]byte, 36)
	copy(b[0:4], u32b(0x00010000))
	copy(b[4:6], i16b(ascender))
	copy(b[6:8], i16b(descender))
	copy(b[10:12], u16b(maxAdvance))
	copy(b[34:36], u16b(numLongMetrics))
	return b
}

func buildHmtx(pairs [][2]int) []byte {
	var b []byte
	for _, p := range pairs {
		b = append(b, u16b(uint16(p[0]))...)
		b = append(b, i16b(int16(p[1]))...)
	}
	return b
}

func buildTriangleGlyf() []byte {
	return []byte{
		0, 1,
		0, 0, 0, 0, 0, 100, 0, 100,
		0, 2,
		0, 0,
		0x31, 0x33, 0x27,
		0,
		100,
		50,
		100,
	}
}

func buildLoca(bodies [][]byte) []byte {
	var b []byte
	offset := uint32(0)
	b = append(b, u32b(offset)...)
	for _, body := range bodies {
		offset += uint32(len(body))
		b = append(b, u32b(offset)...)
	}
	return b
}

// buildCmapFormat0 maps a single (code -> gid) pair through a platform
// 1/encoding 0 format-0 subtable, the simplest cmap format the loader
// understands.
func buildCmapFormat0(code byte, gid byte) []byte {
	header := append([]byte{0, 0}, u16b(1)...) // version, numTables
	entry := append(append(u16b(1), u16b(0)...), u32b(12)...) // platform=1 encoding=0 offset=12
	sub := make([]byte, 262)
	copy(sub[0:2], u16b(0))   // format
	copy(sub[2:4], u16b(262)) // length
	sub[6+int(code)] = gid
	out := append(header, entry...)
	out = append(out, sub...)
	return out
}

func buildName() []byte {
	b := make([]byte, 6)
	copy(b[4:6], u16b(6))
	return b
}

// buildMinimalTrueType assembles a scalable TrueType font with two glyphs
// (.notdef, blank; and gid 1, a triangle mapped from 'A') and every
// mandatory sfnt table ParseTables reads.
func buildMinimalTrueType() []byte {
	glyf := buildTriangleGlyf() // only gid 1 has a body; gid 0 is empty
	loca := buildLoca([][]byte{{}, glyf})
	return buildSfnt(map[string][]byte{
		"head": buildHead(1000, true),
		"maxp": buildMaxp(2),
		"hhea": buildHhea(800, -200, 120, 2),
		"hmtx": buildHmtx([][2]int{{0, 0}, {120, 0}}),
		"loca": loca,
		"glyf": glyf,
		"cmap": buildCmapFormat0('A', 1),
		"name": buildName(),
	})
}

func TestOpenMemoryAndLoadGlyph(t *testing.T) {
	data := buildMinimalTrueType()
	reg := driver.DefaultRegistry()
	f, err := OpenMemory(reg, data, 0, "")
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	if !f.Scalable {
		t.Fatalf("Scalable: got false, want true")
	}
	if f.NumGlyphs != 2 {
		t.Fatalf("NumGlyphs: got %d, want 2", f.NumGlyphs)
	}
	if f.DriverName() != "truetype" {
		t.Fatalf("DriverName: got %q, want truetype", f.DriverName())
	}

	gid := f.GetCharIndex('A')
	if gid != 1 {
		t.Fatalf("GetCharIndex('A'): got %d, want 1", gid)
	}

	if err := f.ActiveSize().SetPixelSizes(0, 1000); err != nil {
		t.Fatalf("SetPixelSizes: %v", err)
	}

	slot, err := f.LoadGlyph(gid, LoadDefault)
	if err != nil {
		t.Fatalf("LoadGlyph: %v", err)
	}
	if slot.Format != FormatOutline {
		t.Fatalf("slot.Format: got %v, want FormatOutline", slot.Format)
	}
	if slot.Outline.NPoints() != 3 || slot.Outline.NContours() != 1 {
		t.Fatalf("Outline: NPoints=%d NContours=%d, want 3,1", slot.Outline.NPoints(), slot.Outline.NContours())
	}
	// At 1000ppem over a 1000-unit em square the scale is identity, so the
	// glyph's 120-unit advance becomes a 120 (26.6) device advance, i.e. 120<<6.
	if slot.Advance.X != 120<<6 {
		t.Fatalf("Advance.X: got %d, want %d", slot.Advance.X, 120<<6)
	}

	if err := f.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestLoadGlyphRenderProducesBitmap(t *testing.T) {
	data := buildMinimalTrueType()
	reg := driver.DefaultRegistry()
	f, err := OpenMemory(reg, data, 0, "")
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	if err := f.ActiveSize().SetPixelSizes(0, 1000); err != nil {
		t.Fatalf("SetPixelSizes: %v", err)
	}
	slot, err := f.LoadGlyph(1, LoadRender)
	if err != nil {
		t.Fatalf("LoadGlyph with LoadRender: %v", err)
	}
	if slot.Format != FormatBitmap {
		t.Fatalf("slot.Format: got %v, want FormatBitmap", slot.Format)
	}
	if slot.Bitmap == nil || slot.Bitmap.Width <= 0 || slot.Bitmap.Rows <= 0 {
		t.Fatalf("Bitmap: got %+v, want a non-empty rasterized mask", slot.Bitmap)
	}
}

func TestLoadGlyphOutOfRangeFails(t *testing.T) {
	data := buildMinimalTrueType()
	reg := driver.DefaultRegistry()
	f, err := OpenMemory(reg, data, 0, "")
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	if _, err := f.LoadGlyph(99, LoadDefault); err == nil {
		t.Fatalf("LoadGlyph(99): want InvalidGlyphIndex, got nil")
	}
}

func TestGetCharIndexUnmapped(t *testing.T) {
	data := buildMinimalTrueType()
	reg := driver.DefaultRegistry()
	f, err := OpenMemory(reg, data, 0, "")
	if err != nil {
		t.Fatalf("OpenMemory: %v", err)
	}
	if gid := f.GetCharIndex('Z'); gid != 0 {
		t.Fatalf("GetCharIndex('Z') unmapped: got %d, want 0 (.notdef)", gid)
	}
}

package sfnt

import (
	"testing"

	"github.com/go-fontcore/fontcore/stream"
)

// buildSfnt assembles a minimal well-formed sfnt resource wrapping the
// given tables, in the on-disk layout ParseDirectory expects: a 12-byte
// header (version, numTables, search/entrySel/rangeShift) followed by one
// 16-byte directory entry per table, then the table bodies back to back.
func buildSfnt(tables map[string][]byte) []byte {
	names := make([]string, 0, len(tables))
	for n := range tables {
		names = append(names, n)
	}
	// Deterministic order for reproducible offsets across test runs.
	for i := 0; i < len(names); i++ {
		for j := i + 1; j < len(names); j++ {
			if names[j] < names[i] {
				names[i], names[j] = names[j], names[i]
			}
		}
	}

	header := make([]byte, 12)
	put16 := func(b []byte, v uint16) { b[0] = byte(v >> 8); b[1] = byte(v) }
	put32 := func(b []byte, v uint32) { b[0] = byte(v >> 24); b[1] = byte(v >> 16); b[2] = byte(v >> 8); b[3] = byte(v) }
	put32(header[0:4], 0x00010000)
	put16(header[4:6], uint16(len(names)))

	dir := make([]byte, 16*len(names))
	offset := uint32(12 + 16*len(names))
	var body []byte
	for i, n := range names {
		t := tables[n]
		e := dir[i*16 : i*16+16]
		put32(e[0:4], Tag(n))
		put32(e[4:8], 0) // checksum, unused
		put32(e[8:12], offset)
		put32(e[12:16], uint32(len(t)))
		body = append(body, t...)
		offset += uint32(len(t))
	}
	out := append(header, dir...)
	out = append(out, body...)
	return out
}

func i16b(v int16) []byte { return []byte{byte(uint16(v) >> 8), byte(v)} }
func u16b(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }
func u32b(v uint32) []byte { return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)} }

func buildHead(unitsPerEm uint16) []byte {
	b := make([]byte, headTableLength)
	copy(b[18:20], u16b(unitsPerEm))
	copy(b[50:52], i16b(0)) // indexToLocFormat: short
	return b
}

func buildMaxpTrueType(numGlyphs uint16) []byte {
	b := make([]byte, 32)
	copy(b[0:4], u32b(0x00010000))
	copy(b[4:6], u16b(numGlyphs))
	// maxFunctionDefs deliberately left zero to exercise the default-64 rule.
	return b
}

func TestParseDirectorySfntAndOpenType(t *testing.T) {
	data := buildSfnt(map[string][]byte{
		"head": buildHead(1000),
		"maxp": buildMaxpTrueType(4),
	})
	s := stream.NewMemory(data)
	d, err := ParseDirectory(s, 0)
	if err != nil {
		t.Fatalf("ParseDirectory: %v", err)
	}
	if d.IsPostScript {
		t.Fatalf("IsPostScript: got true for a TrueType-version directory")
	}
	if !d.Has(Tag("head")) || !d.Has(Tag("maxp")) {
		t.Fatalf("Has: expected head and maxp present, got tags %v", d.Tags())
	}
	if d.Has(Tag("glyf")) {
		t.Fatalf("Has: glyf should be absent")
	}
}

func TestParseDirectoryRejectsUnknownVersion(t *testing.T) {
	data := make([]byte, 12)
	copy(data, []byte{'b', 'a', 'd', '!'})
	s := stream.NewMemory(data)
	if _, err := ParseDirectory(s, 0); err == nil {
		t.Fatalf("ParseDirectory: want UnknownFileFormat for a bad version word")
	}
}

func TestParseHead(t *testing.T) {
	data := buildSfnt(map[string][]byte{"head": buildHead(2048)})
	s := stream.NewMemory(data)
	d, err := ParseDirectory(s, 0)
	if err != nil {
		t.Fatal(err)
	}
	h, err := ParseHead(s, d)
	if err != nil {
		t.Fatalf("ParseHead: %v", err)
	}
	if h.UnitsPerEm != 2048 {
		t.Fatalf("UnitsPerEm: got %d, want 2048", h.UnitsPerEm)
	}
}

func TestParseHeadMissingTable(t *testing.T) {
	data := buildSfnt(map[string][]byte{"maxp": buildMaxpTrueType(1)})
	s := stream.NewMemory(data)
	d, err := ParseDirectory(s, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseHead(s, d); err == nil {
		t.Fatalf("ParseHead: want TableMissing, got nil")
	}
}

func TestParseMaxpSubstitutesDefaultFunctionDefs(t *testing.T) {
	data := buildSfnt(map[string][]byte{"maxp": buildMaxpTrueType(10)})
	s := stream.NewMemory(data)
	d, err := ParseDirectory(s, 0)
	if err != nil {
		t.Fatal(err)
	}
	m, err := ParseMaxp(s, d, false)
	if err != nil {
		t.Fatalf("ParseMaxp: %v", err)
	}
	if m.NumGlyphs != 10 {
		t.Fatalf("NumGlyphs: got %d, want 10", m.NumGlyphs)
	}
	if m.MaxFunctionDefs != defaultMaxFunctionDefs {
		t.Fatalf("MaxFunctionDefs: got %d, want the %d default substitution", m.MaxFunctionDefs, defaultMaxFunctionDefs)
	}
}

func TestParseMaxpPostScriptShortForm(t *testing.T) {
	b := make([]byte, 6)
	copy(b[0:4], u32b(0x00005000))
	copy(b[4:6], u16b(7))
	data := buildSfnt(map[string][]byte{"maxp": b})
	s := stream.NewMemory(data)
	d, err := ParseDirectory(s, 0)
	if err != nil {
		t.Fatal(err)
	}
	m, err := ParseMaxp(s, d, true)
	if err != nil {
		t.Fatalf("ParseMaxp: %v", err)
	}
	if m.NumGlyphs != 7 {
		t.Fatalf("NumGlyphs: got %d, want 7", m.NumGlyphs)
	}
}

func TestParseHmtxDenseWithTrailingBearings(t *testing.T) {
	// 2 long metrics, 3 glyphs total -> 1 trailing bearing-only entry.
	hmtx := append(append([]byte{}, u16b(500)...), i16b(10)...)
	hmtx = append(hmtx, u16b(600)...)
	hmtx = append(hmtx, i16b(20)...)
	hmtx = append(hmtx, i16b(5)...) // trailing bearing for glyph 2
	data := buildSfnt(map[string][]byte{"hmtx": hmtx})
	s := stream.NewMemory(data)
	d, err := ParseDirectory(s, 0)
	if err != nil {
		t.Fatal(err)
	}
	m, err := ParseHmtx(s, d, 2, 3)
	if err != nil {
		t.Fatalf("ParseHmtx: %v", err)
	}
	adv, bear := m.Advance(0)
	if adv != 500 || bear != 10 {
		t.Fatalf("glyph 0: adv=%d bear=%d", adv, bear)
	}
	adv, bear = m.Advance(1)
	if adv != 600 || bear != 20 {
		t.Fatalf("glyph 1: adv=%d bear=%d", adv, bear)
	}
	// Glyph 2 reuses the last advance (600) with its own trailing bearing.
	adv, bear = m.Advance(2)
	if adv != 600 || bear != 5 {
		t.Fatalf("glyph 2: adv=%d bear=%d", adv, bear)
	}
}

func TestGotoTableMissingVsMalformed(t *testing.T) {
	data := buildSfnt(map[string][]byte{"head": buildHead(1000)})
	s := stream.NewMemory(data)
	d, err := ParseDirectory(s, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.GotoTable(s, Tag("bad!")); err == nil {
		t.Fatalf("GotoTable on absent tag: want TableMissing, got nil")
	}
}

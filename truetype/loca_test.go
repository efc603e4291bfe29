package truetype

import (
	"testing"

	"github.com/go-fontcore/fontcore/sfnt"
	"github.com/go-fontcore/fontcore/stream"
)

func u16b(v uint16) []byte { return []byte{byte(v >> 8), byte(v)} }
func u32b(v uint32) []byte { return []byte{byte(v >> 24), byte(v >> 16), byte(v >> 8), byte(v)} }

// buildSfnt is the same minimal directory builder as sfnt's own tests,
// duplicated here since it is test-only scaffolding private to each
// package rather than a shared production helper.
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

func TestParseLocaShortFormat(t *testing.T) {
	// 3 glyphs: offsets (in /2 units) 0, 5, 5, 10 -> byte offsets 0, 10, 10, 20.
	loca := append(append(append(u16b(0), u16b(5)...), u16b(5)...), u16b(10)...)
	data := buildSfnt(map[string][]byte{"loca": loca})
	s := stream.NewMemory(data)
	d, err := sfnt.ParseDirectory(s, 0)
	if err != nil {
		t.Fatal(err)
	}
	l, err := ParseLoca(s, d, 3, false)
	if err != nil {
		t.Fatalf("ParseLoca: %v", err)
	}
	off, length, ok := l.Span(0)
	if !ok || off != 0 || length != 10 {
		t.Fatalf("glyph 0: off=%d length=%d ok=%v", off, length, ok)
	}
	// Glyph 1 is blank: loca[1] == loca[2].
	_, _, ok = l.Span(1)
	if ok {
		t.Fatalf("glyph 1: expected blank (zero-length) glyph")
	}
	off, length, ok = l.Span(2)
	if !ok || off != 10 || length != 10 {
		t.Fatalf("glyph 2: off=%d length=%d ok=%v", off, length, ok)
	}
}

func TestParseLocaLongFormat(t *testing.T) {
	loca := append(append(u32b(0), u32b(100)...), u32b(250)...)
	data := buildSfnt(map[string][]byte{"loca": loca})
	s := stream.NewMemory(data)
	d, err := sfnt.ParseDirectory(s, 0)
	if err != nil {
		t.Fatal(err)
	}
	l, err := ParseLoca(s, d, 2, true)
	if err != nil {
		t.Fatalf("ParseLoca: %v", err)
	}
	off, length, ok := l.Span(1)
	if !ok || off != 100 || length != 150 {
		t.Fatalf("glyph 1: off=%d length=%d ok=%v", off, length, ok)
	}
}

func TestParseLocaRejectsDecreasingOffsets(t *testing.T) {
	loca := append(append(u32b(100), u32b(50)...), u32b(200)...)
	data := buildSfnt(map[string][]byte{"loca": loca})
	s := stream.NewMemory(data)
	d, err := sfnt.ParseDirectory(s, 0)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseLoca(s, d, 2, true); err == nil {
		t.Fatalf("ParseLoca: want InvalidTable for decreasing offsets, got nil")
	}
}

func TestSpanOutOfRange(t *testing.T) {
	l := &Loca{Locations: []uint32{0, 10}}
	if _, _, ok := l.Span(-1); ok {
		t.Fatalf("Span(-1): want not ok")
	}
	if _, _, ok := l.Span(5); ok {
		t.Fatalf("Span(5) out of range: want not ok")
	}
}

package sfnt

import (
	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/stream"
)

// Hhea is the decoded 'hhea' (or 'vhea') table — the two share an identical
// schema per the OpenType format, so one struct and one parser serve both;
// the vertical variant is optional.
type Hhea struct {
	Ascender         int16
	Descender        int16
	LineGap          int16
	MaxAdvance       uint16
	MinLeftBearing   int16
	MinRightBearing  int16
	XMaxExtent       int16
	CaretSlopeRise   int16
	CaretSlopeRun    int16
	CaretOffset      int16
	NumLongMetrics   uint16
}

const hheaTableLength = 36

func parseHhea(s *stream.Stream, d *Directory, tag string) (*Hhea, error) {
	length, err := d.GotoTable(s, Tag(tag))
	if err != nil {
		return nil, err
	}
	if length != hheaTableLength {
		return nil, fontcore.New(fontcore.ModuleSfnt, fontcore.CodeInvalidTable)
	}
	if err := s.EnterFrame(int(length)); err != nil {
		return nil, err
	}
	defer s.ExitFrame()

	if _, err := s.GetU32(); err != nil { // version
		return nil, err
	}
	h := &Hhea{}
	i16 := func(dst *int16) error { v, e := s.GetI16(); *dst = v; return e }
	if err := i16(&h.Ascender); err != nil {
		return nil, err
	}
	if err := i16(&h.Descender); err != nil {
		return nil, err
	}
	if err := i16(&h.LineGap); err != nil {
		return nil, err
	}
	if h.MaxAdvance, err = s.GetU16(); err != nil {
		return nil, err
	}
	if err := i16(&h.MinLeftBearing); err != nil {
		return nil, err
	}
	if err := i16(&h.MinRightBearing); err != nil {
		return nil, err
	}
	if err := i16(&h.XMaxExtent); err != nil {
		return nil, err
	}
	if err := i16(&h.CaretSlopeRise); err != nil {
		return nil, err
	}
	if err := i16(&h.CaretSlopeRun); err != nil {
		return nil, err
	}
	if err := i16(&h.CaretOffset); err != nil {
		return nil, err
	}
	if _, err := s.GetBytes(8); err != nil { // 4 reserved int16
		return nil, err
	}
	if _, err := s.GetI16(); err != nil { // metricDataFormat
		return nil, err
	}
	if h.NumLongMetrics, err = s.GetU16(); err != nil {
		return nil, err
	}
	return h, nil
}

// ParseHhea reads the mandatory 'hhea' table.
func ParseHhea(s *stream.Stream, d *Directory) (*Hhea, error) { return parseHhea(s, d, "hhea") }

// ParseVhea reads the optional 'vhea' table. A missing table is reported as
// TableMissing, which callers treat as "no vertical metrics".
func ParseVhea(s *stream.Stream, d *Directory) (*Hhea, error) { return parseHhea(s, d, "vhea") }

// LongMetric is one (advance, bearing) pair from an hmtx/vmtx table.
type LongMetric struct {
	Advance uint16
	Bearing int16
}

// Metrics holds the dense per-glyph advance/bearing table for one direction
// (horizontal from hmtx, vertical from vmtx). Glyphs beyond NumLongMetrics
// reuse the last advance and carry only their own bearing.
type Metrics struct {
	long    []LongMetric
	bearing []int16 // trailing bearings for glyphs >= len(long)
}

func parseMetrics(s *stream.Stream, d *Directory, tag string, numLong, numGlyphs int) (*Metrics, error) {
	length, err := d.GotoTable(s, Tag(tag))
	if err != nil {
		return nil, err
	}
	trailing := numGlyphs - numLong
	if trailing < 0 {
		return nil, fontcore.New(fontcore.ModuleSfnt, fontcore.CodeInvalidTable)
	}
	want := uint32(numLong*4 + trailing*2)
	if length < want {
		return nil, fontcore.New(fontcore.ModuleSfnt, fontcore.CodeInvalidTable)
	}
	if err := s.EnterFrame(int(want)); err != nil {
		return nil, err
	}
	defer s.ExitFrame()

	m := &Metrics{long: make([]LongMetric, numLong), bearing: make([]int16, trailing)}
	for i := 0; i < numLong; i++ {
		adv, err := s.GetU16()
		if err != nil {
			return nil, err
		}
		b, err := s.GetI16()
		if err != nil {
			return nil, err
		}
		m.long[i] = LongMetric{Advance: adv, Bearing: b}
	}
	for i := 0; i < trailing; i++ {
		b, err := s.GetI16()
		if err != nil {
			return nil, err
		}
		m.bearing[i] = b
	}
	return m, nil
}

// ParseHmtx reads the mandatory 'hmtx' table.
func ParseHmtx(s *stream.Stream, d *Directory, numLong, numGlyphs int) (*Metrics, error) {
	return parseMetrics(s, d, "hmtx", numLong, numGlyphs)
}

// ParseVmtx reads the optional 'vmtx' table.
func ParseVmtx(s *stream.Stream, d *Directory, numLong, numGlyphs int) (*Metrics, error) {
	return parseMetrics(s, d, "vmtx", numLong, numGlyphs)
}

// Advance returns the (advance, bearing) for glyph gid.
func (m *Metrics) Advance(gid int) (advance uint16, bearing int16) {
	if gid < len(m.long) {
		lm := m.long[gid]
		return lm.Advance, lm.Bearing
	}
	last := m.long[len(m.long)-1].Advance
	idx := gid - len(m.long)
	if idx < 0 || idx >= len(m.bearing) {
		return last, 0
	}
	return last, m.bearing[idx]
}

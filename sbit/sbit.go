// Package sbit implements the embedded-bitmap ("sbit") glyph engine: the
// 'EBLC' strike/index tables and the 'EBDT' bitmap data they point into.
// It is grounded on original_source/src/sfnt/ttsbit.c's strike loading,
// index-table formats 1/2/3/4/5, and bitmap formats 1/2/5/6/7.
package sbit

import (
	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/sfnt"
	"github.com/go-fontcore/fontcore/stream"
)

// Metrics is a big metrics record: separate horizontal and vertical
// bearings/advances, used by index formats 1/2/3/4 and by format-2/5
// constant-metrics ranges.
type Metrics struct {
	Height, Width                  uint8
	HoriBearingX, HoriBearingY     int8
	HoriAdvance                    uint8
	VertBearingX, VertBearingY     int8
	VertAdvance                    uint8
}

// LineMetrics is one 'EBLC' hori/vert line-metrics record (12 bytes),
// describing the strike's font-wide vertical layout.
type LineMetrics struct {
	Ascender, Descender                       int8
	MaxWidth                                  uint8
	CaretSlopeNumerator, CaretSlopeDenominator int8
	CaretOffset                               int8
	MinOriginSB, MinAdvanceSB                 int8
	MaxBeforeBL, MinAfterBL                   int8
}

// Range is one 'EBLC' index subtable: a contiguous (or sparse, for formats
// 4/5) span of glyph IDs and the EBDT offsets their bitmaps live at.
type Range struct {
	FirstGlyph, LastGlyph uint16
	IndexFormat           uint16
	ImageFormat           uint16
	ImageOffset           uint32

	// Populated for formats 1/3 (dense, variable metrics): offsets[i] is
	// glyph (FirstGlyph+i)'s EBDT offset, one extra trailing entry gives
	// the size of the last glyph's data by subtraction.
	GlyphOffsets []uint32

	// Populated for formats 2/5 (dense or sparse, constant metrics).
	ImageSize     uint32
	ConstMetrics  Metrics
	HasConstMetrics bool

	// Populated for formats 4/5 (sparse): parallel glyph-code/offset
	// arrays instead of a dense run.
	GlyphCodes []uint16
}

// Strike is one 'EBLC' bitmapSizeTable entry: a single pixel size (and bit
// depth) at which a face carries pre-rendered glyphs, plus the index
// ranges that map glyph IDs to EBDT bitmap offsets.
type Strike struct {
	Ranges []Range

	Hori, Vert LineMetrics

	StartGlyph, EndGlyph uint16
	XPpem, YPpem         uint8
	BitDepth             uint8
	Flags                int8
}

// Table is a parsed 'EBLC' table: every strike the face embeds bitmaps at.
type Table struct {
	Strikes []Strike
}

func readLineMetrics(s *stream.Stream) (LineMetrics, error) {
	var m LineMetrics
	var err error
	if m.Ascender, err = getI8(s); err != nil {
		return m, err
	}
	if m.Descender, err = getI8(s); err != nil {
		return m, err
	}
	b, err := s.GetU8()
	if err != nil {
		return m, err
	}
	m.MaxWidth = b
	for _, dst := range []*int8{&m.CaretSlopeNumerator, &m.CaretSlopeDenominator, &m.CaretOffset,
		&m.MinOriginSB, &m.MinAdvanceSB, &m.MaxBeforeBL, &m.MinAfterBL} {
		if *dst, err = getI8(s); err != nil {
			return m, err
		}
	}
	// Two reserved pad bytes close out the 12-byte record.
	if _, err = s.GetU8(); err != nil {
		return m, err
	}
	if _, err = s.GetU8(); err != nil {
		return m, err
	}
	return m, nil
}

func getI8(s *stream.Stream) (int8, error) {
	b, err := s.GetU8()
	return int8(b), err
}

func readBigMetrics(s *stream.Stream) (Metrics, error) {
	var m Metrics
	var err error
	h, err := s.GetU8()
	if err != nil {
		return m, err
	}
	w, err := s.GetU8()
	if err != nil {
		return m, err
	}
	m.Height, m.Width = h, w
	if m.HoriBearingX, err = getI8(s); err != nil {
		return m, err
	}
	if m.HoriBearingY, err = getI8(s); err != nil {
		return m, err
	}
	if m.HoriAdvance, err = s.GetU8(); err != nil {
		return m, err
	}
	if m.VertBearingX, err = getI8(s); err != nil {
		return m, err
	}
	if m.VertBearingY, err = getI8(s); err != nil {
		return m, err
	}
	if m.VertAdvance, err = s.GetU8(); err != nil {
		return m, err
	}
	return m, nil
}

// ParseTable reads the 'EBLC' table, if present; a missing table is
// reported via fontcore.CodeTableMissing so callers can treat it as "this
// face has no embedded bitmaps" rather than a hard failure.
func ParseTable(s *stream.Stream, d *sfnt.Directory) (*Table, error) {
	if _, err := d.GotoTable(s, sfnt.Tag("EBLC")); err != nil {
		return nil, err
	}
	tableBase := s.Pos()

	if err := s.EnterFrame(8); err != nil {
		return nil, err
	}
	version, err := s.GetU32()
	if err != nil {
		s.ExitFrame()
		return nil, err
	}
	numStrikes, err := s.GetU32()
	s.ExitFrame()
	if err != nil {
		return nil, err
	}
	if version != 0x00020000 || numStrikes >= 0x10000 {
		return nil, fontcore.New(fontcore.ModuleSbit, fontcore.CodeInvalidFileFormat)
	}

	type strikeHeader struct {
		rangesOffset uint32
		numRanges    uint32
	}
	headers := make([]strikeHeader, numStrikes)
	strikes := make([]Strike, numStrikes)

	// Each bitmapSizeTable record is a fixed 48 bytes: 16 bytes of header
	// fields, two 12-byte line-metrics records, and an 8-byte tail.
	for i := range strikes {
		h := &headers[i]
		st := &strikes[i]

		if err := s.EnterFrame(16); err != nil {
			return nil, err
		}
		var err error
		if h.rangesOffset, err = s.GetU32(); err != nil {
			s.ExitFrame()
			return nil, err
		}
		if _, err = s.GetU32(); err != nil { // indexTablesSize, unused
			s.ExitFrame()
			return nil, err
		}
		if h.numRanges, err = s.GetU32(); err != nil {
			s.ExitFrame()
			return nil, err
		}
		if _, err = s.GetU32(); err != nil { // colorRef, unused
			s.ExitFrame()
			return nil, err
		}
		s.ExitFrame()

		if err := s.EnterFrame(24); err != nil {
			return nil, err
		}
		if st.Hori, err = readLineMetrics(s); err != nil {
			s.ExitFrame()
			return nil, err
		}
		if st.Vert, err = readLineMetrics(s); err != nil {
			s.ExitFrame()
			return nil, err
		}
		s.ExitFrame()

		if err := s.EnterFrame(8); err != nil {
			return nil, err
		}
		var sg, eg uint16
		if sg, err = s.GetU16(); err != nil {
			s.ExitFrame()
			return nil, err
		}
		if eg, err = s.GetU16(); err != nil {
			s.ExitFrame()
			return nil, err
		}
		st.StartGlyph, st.EndGlyph = sg, eg
		if st.XPpem, err = s.GetU8(); err != nil {
			s.ExitFrame()
			return nil, err
		}
		if st.YPpem, err = s.GetU8(); err != nil {
			s.ExitFrame()
			return nil, err
		}
		if st.BitDepth, err = s.GetU8(); err != nil {
			s.ExitFrame()
			return nil, err
		}
		flags, err := s.GetU8()
		s.ExitFrame()
		if err != nil {
			return nil, err
		}
		st.Flags = int8(flags)
	}

	for i := range strikes {
		st := &strikes[i]
		h := headers[i]
		st.Ranges = make([]Range, h.numRanges)

		if err := s.Seek(int64(tableBase) + int64(h.rangesOffset)); err != nil {
			return nil, err
		}
		if err := s.EnterFrame(int(h.numRanges) * 8); err != nil {
			return nil, err
		}
		type rangeHeader struct {
			first, last uint16
			tableOffset uint32
		}
		rhs := make([]rangeHeader, h.numRanges)
		for j := range rhs {
			var err error
			if rhs[j].first, err = s.GetU16(); err != nil {
				s.ExitFrame()
				return nil, err
			}
			if rhs[j].last, err = s.GetU16(); err != nil {
				s.ExitFrame()
				return nil, err
			}
			var rel uint32
			if rel, err = s.GetU32(); err != nil {
				s.ExitFrame()
				return nil, err
			}
			rhs[j].tableOffset = absTableOffset(tableBase, h.rangesOffset, rel)
		}
		s.ExitFrame()

		for j := range st.Ranges {
			r := &st.Ranges[j]
			r.FirstGlyph, r.LastGlyph = rhs[j].first, rhs[j].last

			if err := s.Seek(int64(rhs[j].tableOffset)); err != nil {
				return nil, err
			}
			if err := s.EnterFrame(8); err != nil {
				return nil, err
			}
			var err error
			if r.IndexFormat, err = s.GetU16(); err != nil {
				s.ExitFrame()
				return nil, err
			}
			if r.ImageFormat, err = s.GetU16(); err != nil {
				s.ExitFrame()
				return nil, err
			}
			if r.ImageOffset, err = s.GetU32(); err != nil {
				s.ExitFrame()
				return nil, err
			}
			s.ExitFrame()

			if err := loadRange(s, r); err != nil {
				return nil, err
			}
		}
	}

	return &Table{Strikes: strikes}, nil
}

func absTableOffset(base int64, rangesOffset, rel uint32) uint32 {
	return uint32(base) + rangesOffset + rel
}

func loadRange(s *stream.Stream, r *Range) error {
	switch r.IndexFormat {
	case 1, 3:
		large := r.IndexFormat == 1
		n := int(r.LastGlyph) - int(r.FirstGlyph) + 1 + 1 // one trailing sentinel offset
		width := 2
		if large {
			width = 4
		}
		if err := s.EnterFrame(n * width); err != nil {
			return err
		}
		defer s.ExitFrame()
		r.GlyphOffsets = make([]uint32, n)
		for i := 0; i < n; i++ {
			var off uint32
			var err error
			if large {
				off, err = s.GetU32()
			} else {
				var v uint16
				v, err = s.GetU16()
				off = uint32(v)
			}
			if err != nil {
				return err
			}
			r.GlyphOffsets[i] = r.ImageOffset + off
		}
		return nil

	case 2:
		if err := s.EnterFrame(12); err != nil {
			return err
		}
		defer s.ExitFrame()
		size, err := s.GetU32()
		if err != nil {
			return err
		}
		m, err := readBigMetrics(s)
		if err != nil {
			return err
		}
		r.ImageSize, r.ConstMetrics, r.HasConstMetrics = size, m, true
		return nil

	case 4:
		return loadRangeCodes(s, r, true)

	case 5:
		if err := s.EnterFrame(12); err != nil {
			return err
		}
		size, err := s.GetU32()
		if err != nil {
			s.ExitFrame()
			return err
		}
		m, err := readBigMetrics(s)
		s.ExitFrame()
		if err != nil {
			return err
		}
		r.ImageSize, r.ConstMetrics, r.HasConstMetrics = size, m, true
		return loadRangeCodes(s, r, false)

	default:
		return fontcore.New(fontcore.ModuleSbit, fontcore.CodeInvalidFileFormat)
	}
}

func loadRangeCodes(s *stream.Stream, r *Range, loadOffsets bool) error {
	if err := s.EnterFrame(4); err != nil {
		return err
	}
	count, err := s.GetU32()
	s.ExitFrame()
	if err != nil {
		return err
	}

	elemSize := 2
	if loadOffsets {
		elemSize = 4
	}
	if err := s.EnterFrame(int(count) * elemSize); err != nil {
		return err
	}
	defer s.ExitFrame()

	r.GlyphCodes = make([]uint16, count)
	if loadOffsets {
		r.GlyphOffsets = make([]uint32, count)
	}
	for i := 0; i < int(count); i++ {
		code, err := s.GetU16()
		if err != nil {
			return err
		}
		r.GlyphCodes[i] = code
		if loadOffsets {
			off, err := s.GetU16()
			if err != nil {
				return err
			}
			r.GlyphOffsets[i] = r.ImageOffset + uint32(off)
		}
	}
	return nil
}

// FindRange locates the index range covering gid within a strike, and its
// position within that range (for formats 4/5's sparse glyph-code lookup).
func (st *Strike) FindRange(gid uint16) (*Range, int, bool) {
	for i := range st.Ranges {
		r := &st.Ranges[i]
		switch r.IndexFormat {
		case 1, 2, 3:
			if gid >= r.FirstGlyph && gid <= r.LastGlyph {
				return r, int(gid - r.FirstGlyph), true
			}
		case 4, 5:
			for j, code := range r.GlyphCodes {
				if code == gid {
					return r, j, true
				}
			}
		}
	}
	return nil, 0, false
}

// Offset returns the EBDT-relative (offset, size) of the bitmap at position
// pos within the range, or ok=false if pos has no entry. Constant-size
// ranges (formats 2 and 5) place it at ImageOffset + pos*ImageSize; format
// 4 reports a size of 0.
func (r *Range) Offset(pos int) (offset, size uint32, ok bool) {
	switch r.IndexFormat {
	case 1, 3:
		if pos+1 >= len(r.GlyphOffsets) {
			return 0, 0, false
		}
		return r.GlyphOffsets[pos], r.GlyphOffsets[pos+1] - r.GlyphOffsets[pos], true
	case 4, 5:
		if !r.HasConstMetrics {
			if pos >= len(r.GlyphOffsets) {
				return 0, 0, false
			}
			return r.GlyphOffsets[pos], 0, true
		}
		return r.ImageOffset + uint32(pos)*r.ImageSize, r.ImageSize, true
	case 2:
		return r.ImageOffset + uint32(pos)*r.ImageSize, r.ImageSize, true
	}
	return 0, 0, false
}

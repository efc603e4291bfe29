package sfnt

import (
	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/stream"
)

// HdmxRecord is one per-ppem device metrics row: each glyph's own pixel
// advance width at that ppem.
type HdmxRecord struct {
	PixelSize    uint8
	MaxWidth     uint8
	Widths       []uint8 // indexed by glyph ID
}

// Hdmx is the decoded optional 'hdmx' table, consulted by the TrueType
// glyph loader's metrics-finalisation step to override horiAdvance with a
// device-specific pixel width.
type Hdmx struct {
	Records []HdmxRecord
}

// ParseHdmx reads the optional 'hdmx' table.
func ParseHdmx(s *stream.Stream, d *Directory, numGlyphs int) (*Hdmx, error) {
	_, err := d.GotoTable(s, Tag("hdmx"))
	if err != nil {
		if fontcore.Is(err, fontcore.CodeTableMissing) {
			return &Hdmx{}, nil
		}
		return nil, err
	}
	if err := s.EnterFrame(8); err != nil {
		return nil, err
	}
	if _, err := s.GetU16(); err != nil { // version
		s.ExitFrame()
		return nil, err
	}
	numRecords, err := s.GetI16()
	if err != nil {
		s.ExitFrame()
		return nil, err
	}
	recordSize, err := s.GetI32()
	if err != nil {
		s.ExitFrame()
		return nil, err
	}
	s.ExitFrame()

	h := &Hdmx{Records: make([]HdmxRecord, numRecords)}
	for i := range h.Records {
		if err := s.EnterFrame(int(recordSize)); err != nil {
			return nil, err
		}
		ps, err := s.GetU8()
		if err != nil {
			s.ExitFrame()
			return nil, err
		}
		mw, err := s.GetU8()
		if err != nil {
			s.ExitFrame()
			return nil, err
		}
		widths, err := s.GetBytes(numGlyphs)
		s.ExitFrame()
		if err != nil {
			return nil, err
		}
		cp := make([]uint8, numGlyphs)
		copy(cp, widths)
		h.Records[i] = HdmxRecord{PixelSize: ps, MaxWidth: mw, Widths: cp}
	}
	return h, nil
}

// Width returns the device-pixel advance width for gid at the given ppem,
// or (0, false) if there is no matching record.
func (h *Hdmx) Width(ppem int, gid int) (uint8, bool) {
	for _, r := range h.Records {
		if int(r.PixelSize) == ppem {
			if gid < 0 || gid >= len(r.Widths) {
				return 0, false
			}
			return r.Widths[gid], true
		}
	}
	return 0, false
}

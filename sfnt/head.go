package sfnt

import (
	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/stream"
)

// Head is the decoded 'head' table.
type Head struct {
	UnitsPerEm         uint16
	XMin, YMin         int16
	XMax, YMax         int16
	MacStyle           uint16
	LowestRecPPEM      uint16
	FontDirectionHint  int16
	IndexToLocFormat   int16 // 0: short (loca entries are /2), 1: long
	GlyphDataFormat    int16
}

const headTableLength = 54

// ParseHead reads the mandatory 'head' table.
func ParseHead(s *stream.Stream, d *Directory) (*Head, error) {
	length, err := d.GotoTable(s, Tag("head"))
	if err != nil {
		return nil, err
	}
	if length != headTableLength {
		return nil, fontcore.New(fontcore.ModuleSfnt, fontcore.CodeInvalidTable)
	}
	if err := s.EnterFrame(int(length)); err != nil {
		return nil, err
	}
	defer s.ExitFrame()

	h := &Head{}
	skip := func(n int) error {
		_, err := s.GetBytes(n)
		return err
	}
	if err := skip(18); err != nil { // version, fontRevision, checksumAdjustment, magicNumber, flags
		return nil, err
	}
	upm, err := s.GetU16()
	if err != nil {
		return nil, err
	}
	if upm == 0 {
		return nil, fontcore.New(fontcore.ModuleSfnt, fontcore.CodeInvalidTable)
	}
	h.UnitsPerEm = upm
	if err := skip(16); err != nil { // created, modified (int64 each)
		return nil, err
	}
	if h.XMin, err = s.GetI16(); err != nil {
		return nil, err
	}
	if h.YMin, err = s.GetI16(); err != nil {
		return nil, err
	}
	if h.XMax, err = s.GetI16(); err != nil {
		return nil, err
	}
	if h.YMax, err = s.GetI16(); err != nil {
		return nil, err
	}
	if h.MacStyle, err = s.GetU16(); err != nil {
		return nil, err
	}
	if h.LowestRecPPEM, err = s.GetU16(); err != nil {
		return nil, err
	}
	if h.FontDirectionHint, err = s.GetI16(); err != nil {
		return nil, err
	}
	if h.IndexToLocFormat, err = s.GetI16(); err != nil {
		return nil, err
	}
	if h.GlyphDataFormat, err = s.GetI16(); err != nil {
		return nil, err
	}
	return h, nil
}

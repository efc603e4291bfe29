package sfnt

import (
	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/stream"
)

// defaultMaxFunctionDefs is substituted when a TrueType font's maxp sets
// maxFunctionDefs to zero — some fonts in the wild do this, and FreeType
// substitutes 64 rather than refusing the font.
const defaultMaxFunctionDefs = 64

// Maxp is the decoded 'maxp' table. For PostScript-flavored (OTTO) fonts,
// only NumGlyphs is meaningful; the TrueType-specific hinting limits are
// zero.
type Maxp struct {
	NumGlyphs uint16

	MaxPoints             uint16
	MaxContours           uint16
	MaxCompositePoints    uint16
	MaxCompositeContours  uint16
	MaxZones              uint16
	MaxTwilightPoints     uint16
	MaxStorage            uint16
	MaxFunctionDefs       uint16
	MaxInstructionDefs    uint16
	MaxStackElements      uint16
	MaxSizeOfInstructions uint16
	MaxComponentElements  uint16
	MaxComponentDepth     uint16
}

// ParseMaxp reads the 'maxp' table. Its schema differs between the
// PostScript-flavored 6-byte version 0.5 and the TrueType 32-byte version
// 1.0.
func ParseMaxp(s *stream.Stream, d *Directory, isPostScript bool) (*Maxp, error) {
	length, err := d.GotoTable(s, Tag("maxp"))
	if err != nil {
		return nil, err
	}
	wantLength := uint32(32)
	if isPostScript {
		wantLength = 6
	}
	if length != wantLength {
		return nil, fontcore.New(fontcore.ModuleSfnt, fontcore.CodeInvalidTable)
	}
	if err := s.EnterFrame(int(length)); err != nil {
		return nil, err
	}
	defer s.ExitFrame()

	if _, err := s.GetU32(); err != nil { // version
		return nil, err
	}
	m := &Maxp{}
	if m.NumGlyphs, err = s.GetU16(); err != nil {
		return nil, err
	}
	if isPostScript {
		return m, nil
	}
	fields := []*uint16{
		&m.MaxPoints, &m.MaxContours, &m.MaxCompositePoints, &m.MaxCompositeContours,
		&m.MaxZones, &m.MaxTwilightPoints, &m.MaxStorage, &m.MaxFunctionDefs,
		&m.MaxInstructionDefs, &m.MaxStackElements, &m.MaxSizeOfInstructions,
		&m.MaxComponentElements, &m.MaxComponentDepth,
	}
	for _, f := range fields {
		v, err := s.GetU16()
		if err != nil {
			return nil, err
		}
		*f = v
	}
	if m.MaxFunctionDefs == 0 {
		m.MaxFunctionDefs = defaultMaxFunctionDefs
	}
	return m, nil
}

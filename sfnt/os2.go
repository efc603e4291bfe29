package sfnt

import (
	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/stream"
)

// OS2 is the decoded 'OS/2' table. Mac-era fonts can lack this table
// entirely (Present is false); when it is present but an
// old version (0xFFFF, or version < 2), only the fields up through
// UsWinDescent are populated, and callers must not read sTypoAscender et al.
// from a table that doesn't carry them.
type OS2 struct {
	Present   bool
	Version   uint16

	AvgCharWidth  int16
	WeightClass   uint16
	WidthClass    uint16
	FsType        uint16

	STypoAscender  int16
	STypoDescender int16
	STypoLineGap   int16
	UsWinAscent    uint16
	UsWinDescent   uint16

	// HasTypoMetrics reports whether sTypoAscender/Descender/LineGap were
	// actually read (version >= 0 always carries them in the modern layout,
	// but callers should still prefer hhea when a font clears the
	// USE_TYPO_METRICS fsSelection bit — out of scope here; we simply expose
	// the raw fields).
	HasTypoMetrics bool
}

const os2MinLength = 78 // through usWinDescent

// ParseOS2 reads the optional 'OS/2' table. Absence is not an error; callers
// check Present.
func ParseOS2(s *stream.Stream, d *Directory) (*OS2, error) {
	length, err := d.GotoTable(s, Tag("OS/2"))
	if err != nil {
		if fontcore.Is(err, fontcore.CodeTableMissing) {
			return &OS2{Version: 0xFFFF}, nil
		}
		return nil, err
	}
	if length < os2MinLength {
		return nil, fontcore.New(fontcore.ModuleSfnt, fontcore.CodeInvalidTable)
	}
	if err := s.EnterFrame(os2MinLength); err != nil {
		return nil, err
	}
	defer s.ExitFrame()

	o := &OS2{Present: true}
	if o.Version, err = s.GetU16(); err != nil {
		return nil, err
	}
	if o.AvgCharWidth, err = s.GetI16(); err != nil {
		return nil, err
	}
	if o.WeightClass, err = s.GetU16(); err != nil {
		return nil, err
	}
	if o.WidthClass, err = s.GetU16(); err != nil {
		return nil, err
	}
	if o.FsType, err = s.GetU16(); err != nil {
		return nil, err
	}
	if _, err := s.GetBytes(2 * 11); err != nil { // y{Sub,Super}script{X,Y}{Size,Offset}, yStrikeout{Size,Position}, sFamilyClass
		return nil, err
	}
	if _, err := s.GetBytes(10); err != nil { // panose[10]
		return nil, err
	}
	if _, err := s.GetBytes(16); err != nil { // ulUnicodeRange1-4
		return nil, err
	}
	if _, err := s.GetBytes(4); err != nil { // achVendID
		return nil, err
	}
	if _, err := s.GetU16(); err != nil { // fsSelection
		return nil, err
	}
	if _, err := s.GetU16(); err != nil { // usFirstCharIndex
		return nil, err
	}
	if _, err := s.GetU16(); err != nil { // usLastCharIndex
		return nil, err
	}
	if o.STypoAscender, err = s.GetI16(); err != nil {
		return nil, err
	}
	if o.STypoDescender, err = s.GetI16(); err != nil {
		return nil, err
	}
	if o.STypoLineGap, err = s.GetI16(); err != nil {
		return nil, err
	}
	if o.UsWinAscent, err = s.GetU16(); err != nil {
		return nil, err
	}
	if o.UsWinDescent, err = s.GetU16(); err != nil {
		return nil, err
	}
	o.HasTypoMetrics = true
	return o, nil
}

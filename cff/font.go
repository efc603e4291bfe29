package cff

import (
	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/sfnt"
	"github.com/go-fontcore/fontcore/stream"
)

// Font is a parsed CFF table: charstrings, subroutines, and the
// charset/encoding needed to map glyph names/codes to glyph indices.
type Font struct {
	CharStrings *Index
	GlobalSubrs *Index
	LocalSubrs  *Index

	Charset  []uint16 // glyph index -> SID (or CID, for CIDFonts)
	Encoding map[byte]uint16 // code -> glyph index, for the few CFFs that embed one

	DefaultWidthX, NominalWidthX float64
	FontMatrix                   [6]float64
	IsCID                        bool

	// BlueValues/OtherBlues/StdHW/StdVW/StemSnapH/StemSnapV/BlueScale/
	// BlueFuzz are the Private dict's hinting operands (5176.CFF.pdf Table
	// 23), carried through for pshinter's Dimension/Blues construction.
	BlueValues, OtherBlues       []float64
	StdHW, StdVW                 float64
	StemSnapH, StemSnapV         []float64
	BlueScale, BlueFuzz          float64

	strings *Index
}

// bias is Type 2's subroutine index bias (5177.Type2.pdf section 4.7
// "Subrs and Subroutines", "Subrs Index and Endchar").
func bias(n int) int32 {
	switch {
	case n < 1240:
		return 107
	case n < 33900:
		return 1131
	default:
		return 32768
	}
}

// Parse reads the 'CFF ' table into a Font.
func Parse(s *stream.Stream, d *sfnt.Directory) (*Font, error) {
	if _, err := d.GotoTable(s, sfnt.Tag("CFF ")); err != nil {
		return nil, err
	}
	tableBase := s.Pos()

	if err := s.EnterFrame(4); err != nil {
		return nil, err
	}
	major, err := s.GetU8()
	if err != nil {
		s.ExitFrame()
		return nil, err
	}
	if _, err := s.GetU8(); err != nil { // minor
		s.ExitFrame()
		return nil, err
	}
	hdrSize, err := s.GetU8()
	if err != nil {
		s.ExitFrame()
		return nil, err
	}
	if _, err := s.GetU8(); err != nil { // offSize
		s.ExitFrame()
		return nil, err
	}
	s.ExitFrame()
	if major != 1 {
		return nil, fontcore.New(fontcore.ModuleCharstring, fontcore.CodeUnknownFileFormat)
	}
	if hdrSize > 4 {
		if err := s.Skip(int64(hdrSize) - 4); err != nil {
			return nil, err
		}
	}

	nameIdx, err := parseIndex(s)
	if err != nil {
		return nil, err
	}
	if nameIdx.Count() != 1 {
		return nil, fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidFileFormat)
	}

	topIdx, err := parseIndex(s)
	if err != nil {
		return nil, err
	}
	if topIdx.Count() != 1 {
		return nil, fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidFileFormat)
	}
	top := parseDict(topIdx.Get(0))

	strIdx, err := parseIndex(s)
	if err != nil {
		return nil, err
	}
	gsubrs, err := parseIndex(s)
	if err != nil {
		return nil, err
	}

	f := &Font{GlobalSubrs: gsubrs, strings: strIdx}
	f.FontMatrix = [6]float64{0.001, 0, 0, 0.001, 0, 0}
	if m, ok := top[opFontMatrix]; ok && len(m) == 6 {
		copy(f.FontMatrix[:], m)
	}
	if _, ok := top[opROS]; ok {
		f.IsCID = true
	}

	csOffset := top.int(opCharStrings, 0)
	if csOffset <= 0 {
		return nil, fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidFileFormat)
	}
	if err := s.Seek(tableBase + int64(csOffset)); err != nil {
		return nil, err
	}
	f.CharStrings, err = parseIndex(s)
	if err != nil {
		return nil, err
	}

	if size, off, ok := top.ints2(opPrivate); ok {
		if err := s.Seek(tableBase + int64(off)); err != nil {
			return nil, err
		}
		if err := s.EnterFrame(size); err != nil {
			return nil, err
		}
		raw, err := s.GetBytes(size)
		s.ExitFrame()
		if err != nil {
			return nil, err
		}
		priv := parseDict(raw)
		f.DefaultWidthX = priv.float(opDefaultWidthX, 0)
		f.NominalWidthX = priv.float(opNominalWidthX, 0)
		f.BlueValues = priv.floats(opBlueValues)
		f.OtherBlues = priv.floats(opOtherBlues)
		f.StdHW = priv.float(opStdHW, 0)
		f.StdVW = priv.float(opStdVW, 0)
		f.StemSnapH = priv.floats(opStemSnapH)
		f.StemSnapV = priv.floats(opStemSnapV)
		f.BlueScale = priv.float(opBlueScale, 0.039625)
		f.BlueFuzz = priv.float(opBlueFuzz, 1)
		if subrsRel := priv.int(opSubrs, 0); subrsRel > 0 {
			if err := s.Seek(tableBase + int64(off) + int64(subrsRel)); err != nil {
				return nil, err
			}
			f.LocalSubrs, err = parseIndex(s)
			if err != nil {
				return nil, err
			}
		}
	}

	charsetOff := top.int(opCharset, 0)
	f.Charset, err = parseCharset(s, charsetOff, f.CharStrings.Count())
	if err != nil {
		return nil, err
	}

	return f, nil
}

// GlobalBias and LocalBias give callsubr/callgsubr's index bias
// for this font's subroutine indices.
func (f *Font) GlobalBias() int32 { return bias(f.GlobalSubrs.Count()) }
func (f *Font) LocalBias() int32  { return bias(f.LocalSubrs.Count()) }

package truetype

import (
	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/math/fixed"
	"github.com/go-fontcore/fontcore/sfnt"
	"github.com/go-fontcore/fontcore/stream"
)

// Program is a face's hinting bytecode: the font program (run once, defines
// functions), the control value program (run once per size, sets up the
// CVT and storage for that ppem), and the raw control value table itself
// (font-unit values, rescaled to 26.6 per size the same way pshinter
// rescales blue zones and standard widths). All three tables are optional;
// a face with none of them is simply never auto-hinted by its own bytecode.
type Program struct {
	Fpgm []byte
	Prep []byte
	Cvt  []int16 // font units, rescaled per size via fixed.MulFix
}

// ParseProgram reads the optional 'cvt ', 'fpgm', and 'prep' tables.
func ParseProgram(s *stream.Stream, d *sfnt.Directory) (*Program, error) {
	p := &Program{}
	var err error
	if p.Fpgm, err = readOptionalTable(s, d, "fpgm"); err != nil {
		return nil, err
	}
	if p.Prep, err = readOptionalTable(s, d, "prep"); err != nil {
		return nil, err
	}
	cvtBytes, err := readOptionalTable(s, d, "cvt ")
	if err != nil {
		return nil, err
	}
	p.Cvt = make([]int16, len(cvtBytes)/2)
	for i := range p.Cvt {
		p.Cvt[i] = int16(uint16(cvtBytes[2*i])<<8 | uint16(cvtBytes[2*i+1]))
	}
	return p, nil
}

func readOptionalTable(s *stream.Stream, d *sfnt.Directory, tag string) ([]byte, error) {
	length, err := d.GotoTable(s, sfnt.Tag(tag))
	if err != nil {
		if fontcore.Is(err, fontcore.CodeTableMissing) {
			return nil, nil
		}
		return nil, err
	}
	if err := s.EnterFrame(int(length)); err != nil {
		return nil, err
	}
	defer s.ExitFrame()
	b, err := s.GetBytes(int(length))
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}

// ScaledCVT rescales the control value table to 26.6 for one size: each
// font-unit entry multiplied by the size's 16.16 scale factor, the same
// rescale-per-size shape pshinter.Dimension.SetScale uses for standard
// widths.
func (p *Program) ScaledCVT(scale fixed.Int16_16) []fixed.Int26_6 {
	out := make([]fixed.Int26_6, len(p.Cvt))
	for i, v := range p.Cvt {
		out[i] = fixed.MulFix(int32(v), scale)
	}
	return out
}

package cff

import "github.com/go-fontcore/fontcore/stream"

// parseCharset reads the charset table (glyph index -> SID/CID mapping).
// A charsetOff of 0/1/2 selects one of the three predefined charsets
// (ISOAdobe, Expert, ExpertSubset), which this decoder represents simply
// as the identity mapping — correct for ISOAdobe (the common case), an
// approximation for the two Expert charsets that no mainstream OpenType
// font uses.
func parseCharset(s *stream.Stream, charsetOff, numGlyphs int) ([]uint16, error) {
	out := make([]uint16, numGlyphs)
	for i := range out {
		out[i] = uint16(i)
	}
	if charsetOff <= 2 {
		return out, nil
	}

	if err := s.EnterFrame(1); err != nil {
		return nil, err
	}
	format, err := s.GetU8()
	s.ExitFrame()
	if err != nil {
		return nil, err
	}

	out[0] = 0 // .notdef always maps to SID 0
	gid := 1
	switch format {
	case 0:
		for gid < numGlyphs {
			if err := s.EnterFrame(2); err != nil {
				return nil, err
			}
			sid, err := s.GetU16()
			s.ExitFrame()
			if err != nil {
				return nil, err
			}
			out[gid] = sid
			gid++
		}
	case 1, 2:
		nLeftWidth := 1
		if format == 2 {
			nLeftWidth = 2
		}
		for gid < numGlyphs {
			if err := s.EnterFrame(2 + nLeftWidth); err != nil {
				return nil, err
			}
			first, err := s.GetU16()
			if err != nil {
				s.ExitFrame()
				return nil, err
			}
			var nLeft int
			if format == 1 {
				v, err := s.GetU8()
				if err != nil {
					s.ExitFrame()
					return nil, err
				}
				nLeft = int(v)
			} else {
				v, err := s.GetU16()
				if err != nil {
					s.ExitFrame()
					return nil, err
				}
				nLeft = int(v)
			}
			s.ExitFrame()
			for i := 0; i <= nLeft && gid < numGlyphs; i++ {
				out[gid] = first + uint16(i)
				gid++
			}
		}
	}
	return out, nil
}

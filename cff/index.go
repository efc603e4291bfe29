// Package cff implements a Compact Font Format decoder: INDEX structures,
// Top/Private DICTs, charset/encoding tables, and a Type 2 charstring
// interpreter that produces outlines. It is grounded on
// font/sfnt/postscript.go's cffParser (INDEX parsing, DICT number/operator
// decode) generalized from "stop at CharStrings INDEX location" to a full
// charset/encoding/Private/charstring pipeline, using
// original_source/src/type1z's charstring execution model for the parts
// font/sfnt/postscript.go never implements (it only locates CharStrings,
// it doesn't execute them).
package cff

import (
	"strconv"

	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/stream"
)

// Index is a parsed CFF INDEX: a table of variable-length byte strings
// (DICTs, charstrings, subroutines, or the string table), stored as one
// data buffer with 0-based offsets into it: entry i is
// data[locations[i]:locations[i+1]].
type Index struct {
	data      []byte
	locations []uint32 // len(locations) == count+1
}

// Count returns the number of entries.
func (x *Index) Count() int {
	if x == nil || len(x.locations) == 0 {
		return 0
	}
	return len(x.locations) - 1
}

// Get returns entry i's bytes.
func (x *Index) Get(i int) []byte {
	if x == nil || i < 0 || i >= x.Count() {
		return nil
	}
	return x.data[x.locations[i]:x.locations[i+1]]
}

func bigEndian(b []byte) uint32 {
	var v uint32
	for _, c := range b {
		v = v<<8 | uint32(c)
	}
	return v
}

// parseIndex reads one CFF INDEX structure starting at the stream's
// current position, returning the parsed Index and leaving the stream
// positioned immediately after the INDEX.
func parseIndex(s *stream.Stream) (*Index, error) {
	if err := s.EnterFrame(2); err != nil {
		return nil, err
	}
	count, err := s.GetU16()
	s.ExitFrame()
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return &Index{}, nil
	}

	if err := s.EnterFrame(1); err != nil {
		return nil, err
	}
	offSize, err := s.GetU8()
	s.ExitFrame()
	if err != nil {
		return nil, err
	}
	if offSize < 1 || offSize > 4 {
		return nil, fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidFileFormat)
	}

	n := int(count) + 1
	if err := s.EnterFrame(n * int(offSize)); err != nil {
		return nil, err
	}
	offs := make([]uint32, n)
	for i := range offs {
		raw, err := s.GetBytes(int(offSize))
		if err != nil {
			s.ExitFrame()
			return nil, err
		}
		offs[i] = bigEndian(raw)
	}
	s.ExitFrame()

	for i, o := range offs {
		if o == 0 || (i > 0 && o <= offs[i-1]) {
			return nil, fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidFileFormat)
		}
	}
	dataLen := int(offs[n-1] - 1)
	if err := s.EnterFrame(dataLen); err != nil {
		return nil, err
	}
	data, err := s.GetBytes(dataLen)
	s.ExitFrame()
	if err != nil {
		return nil, err
	}

	locs := make([]uint32, n)
	for i, o := range offs {
		locs[i] = o - 1
	}
	return &Index{data: data, locations: locs}, nil
}

// parseNumber decodes one DICT operand (integer or real) per 5176.CFF.pdf
// section 4, returning the value and the number of bytes it consumed.
func parseNumber(b []byte) (value float64, isInt bool, intVal int32, n int, ok bool) {
	if len(b) == 0 {
		return 0, false, 0, 0, false
	}
	switch b0 := b[0]; {
	case b0 == 28:
		if len(b) < 3 {
			return 0, false, 0, 0, false
		}
		v := int32(int16(uint16(b[1])<<8 | uint16(b[2])))
		return float64(v), true, v, 3, true

	case b0 == 29:
		if len(b) < 5 {
			return 0, false, 0, 0, false
		}
		v := int32(bigEndian(b[1:5]))
		return float64(v), true, v, 5, true

	case b0 == 30:
		var sb []byte
		i := 1
		for {
			if i >= len(b) {
				return 0, false, 0, 0, false
			}
			by := b[i]
			i++
			done := false
			for shift := 0; shift < 2; shift++ {
				nib := by >> 4
				by <<= 4
				switch {
				case nib <= 9:
					sb = append(sb, '0'+nib)
				case nib == 0xa:
					sb = append(sb, '.')
				case nib == 0xb:
					sb = append(sb, 'E')
				case nib == 0xc:
					sb = append(sb, 'E', '-')
				case nib == 0xe:
					sb = append(sb, '-')
				case nib == 0xf:
					done = true
				}
				if done {
					break
				}
			}
			if done {
				break
			}
		}
		f, err := strconv.ParseFloat(string(sb), 64)
		if err != nil {
			return 0, false, 0, 0, false
		}
		return f, false, 0, i, true

	case b0 < 32:
		return 0, false, 0, 0, false

	case b0 < 247:
		return float64(int32(b0) - 139), true, int32(b0) - 139, 1, true

	case b0 < 251:
		if len(b) < 2 {
			return 0, false, 0, 0, false
		}
		v := (int32(b0)-247)*256 + int32(b[1]) + 108
		return float64(v), true, v, 2, true

	case b0 < 255:
		if len(b) < 2 {
			return 0, false, 0, 0, false
		}
		v := -(int32(b0)-251)*256 - int32(b[1]) - 108
		return float64(v), true, v, 2, true

	default: // b0 == 255: a Type 2 charstring 16.16 fixed number, not a DICT number
		if len(b) < 5 {
			return 0, false, 0, 0, false
		}
		v := int32(bigEndian(b[1:5]))
		return float64(v) / 65536, false, 0, 5, true
	}
}

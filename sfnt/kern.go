package sfnt

import (
	"sort"

	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/stream"
)

// KernPair is one (left, right) glyph pair and its kerning value, in font
// units.
type KernPair struct {
	Left, Right uint16
	Value       int16
}

// Kern is the decoded 'kern' table. Only format-0 horizontal subtables are
// parsed; the first such subtable wins and the rest are ignored.
type Kern struct {
	Pairs []KernPair
}

// ParseKern reads the optional 'kern' table and keeps only the first
// format-0, horizontal subtable it finds.
func ParseKern(s *stream.Stream, d *Directory) (*Kern, error) {
	length, err := d.GotoTable(s, Tag("kern"))
	if err != nil {
		if fontcore.Is(err, fontcore.CodeTableMissing) {
			return &Kern{}, nil
		}
		return nil, err
	}
	tableStart := s.Pos()
	if err := s.EnterFrame(4); err != nil {
		return nil, err
	}
	if _, err := s.GetU16(); err != nil { // version
		s.ExitFrame()
		return nil, err
	}
	nTables, err := s.GetU16()
	if err != nil {
		s.ExitFrame()
		return nil, err
	}
	s.ExitFrame()

	off := tableStart + 4
	for i := 0; i < int(nTables); i++ {
		if err := s.Seek(off); err != nil {
			return nil, err
		}
		if err := s.EnterFrame(6); err != nil {
			return nil, err
		}
		if _, err := s.GetU16(); err != nil { // subtable version
			s.ExitFrame()
			return nil, err
		}
		subLength, err := s.GetU16()
		if err != nil {
			s.ExitFrame()
			return nil, err
		}
		coverage, err := s.GetU16()
		if err != nil {
			s.ExitFrame()
			return nil, err
		}
		s.ExitFrame()

		const (
			coverageHorizontal = 1 << 0
			formatMask         = 0xFF00
		)
		format := (coverage & formatMask) >> 8
		if coverage&coverageHorizontal != 0 && format == 0 {
			if err := s.Seek(off + 6); err != nil {
				return nil, err
			}
			return parseKernFormat0(s, length)
		}
		if subLength == 0 {
			break
		}
		off += int64(subLength)
	}
	return &Kern{}, nil
}

func parseKernFormat0(s *stream.Stream, tableLength uint32) (*Kern, error) {
	if err := s.EnterFrame(8); err != nil {
		return nil, err
	}
	nPairs, err := s.GetU16()
	if err != nil {
		s.ExitFrame()
		return nil, err
	}
	if _, err := s.GetBytes(6); err != nil { // searchRange, entrySelector, rangeShift
		s.ExitFrame()
		return nil, err
	}
	s.ExitFrame()

	k := &Kern{Pairs: make([]KernPair, 0, nPairs)}
	if err := s.EnterFrame(int(nPairs) * 6); err != nil {
		return nil, err
	}
	defer s.ExitFrame()
	for i := 0; i < int(nPairs); i++ {
		left, err := s.GetU16()
		if err != nil {
			return nil, err
		}
		right, err := s.GetU16()
		if err != nil {
			return nil, err
		}
		value, err := s.GetI16()
		if err != nil {
			return nil, err
		}
		k.Pairs = append(k.Pairs, KernPair{Left: left, Right: right, Value: value})
	}
	return k, nil
}

// Get returns the kerning value for (left, right), or 0 if the pair is not
// listed.
func (k *Kern) Get(left, right uint16) int16 {
	i := sort.Search(len(k.Pairs), func(i int) bool {
		p := k.Pairs[i]
		return p.Left > left || (p.Left == left && p.Right >= right)
	})
	if i < len(k.Pairs) && k.Pairs[i].Left == left && k.Pairs[i].Right == right {
		return k.Pairs[i].Value
	}
	return 0
}

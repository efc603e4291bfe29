// Package truetype implements the 'glyf'/'loca' glyph loader: simple and
// composite glyph decoding, phantom points, scaling, and (optionally)
// hinting via the truetype/interp bytecode interpreter. It is grounded on
// golang.org/x/image/font/sfnt's table plumbing (sfnt.go's "TODO: locaParser
// for TrueType fonts" is exactly the gap this package fills) and on
// original_source/src/truetype/ttgload.c for the exact phantom-point and
// composite-transform semantics.
package truetype

import (
	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/sfnt"
	"github.com/go-fontcore/fontcore/stream"
)

// Loca is the decoded 'loca' table: for glyph i, its outline data lives in
// src[locations[i]:locations[i+1]]; a zero-length span is a blank glyph
// (e.g. the space character).
type Loca struct {
	Locations []uint32
}

// ParseLoca reads the 'loca' table, whose entry width depends on
// head.IndexToLocFormat (0: 16-bit entries storing offset/2, 1: 32-bit
// entries storing the offset directly).
func ParseLoca(s *stream.Stream, d *sfnt.Directory, numGlyphs int, longFormat bool) (*Loca, error) {
	length, err := d.GotoTable(s, sfnt.Tag("loca"))
	if err != nil {
		return nil, err
	}
	n := numGlyphs + 1
	width := 2
	if longFormat {
		width = 4
	}
	if int(length) < n*width {
		return nil, fontcore.New(fontcore.ModuleSfnt, fontcore.CodeInvalidTable)
	}
	if err := s.EnterFrame(n * width); err != nil {
		return nil, err
	}
	defer s.ExitFrame()

	loc := &Loca{Locations: make([]uint32, n)}
	var prev uint32
	for i := 0; i < n; i++ {
		var v uint32
		if longFormat {
			v, err = s.GetU32()
		} else {
			var u16 uint16
			u16, err = s.GetU16()
			v = uint32(u16) * 2
		}
		if err != nil {
			return nil, err
		}
		if i > 0 && v < prev {
			return nil, fontcore.New(fontcore.ModuleSfnt, fontcore.CodeInvalidTable)
		}
		loc.Locations[i] = v
		prev = v
	}
	return loc, nil
}

// Span returns the (offset, length) of glyph gid's data within the 'glyf'
// table, or (0, 0, false) for a blank glyph.
func (l *Loca) Span(gid int) (offset, length uint32, ok bool) {
	if gid < 0 || gid+1 >= len(l.Locations) {
		return 0, 0, false
	}
	a, b := l.Locations[gid], l.Locations[gid+1]
	if b < a {
		return 0, 0, false
	}
	return a, b - a, b > a
}

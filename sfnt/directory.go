// Package sfnt parses the top-level table directory of an sfnt-wrapped font
// (TrueType, OpenType/CFF, or a TrueType Collection) and the mandatory and
// optional sfnt tables. It is grounded on golang.org/x/image/font/sfnt's
// table-directory parse in sfnt.go, generalized to go through the stream
// package's framed-read protocol (for io.ReaderAt-backed fonts as well as
// in-memory ones) and extended with TTC (collection) support that
// golang.org/x/image/font/sfnt's early snapshot never grew.
package sfnt

import (
	"sort"

	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/stream"
)

const (
	tagTrueType  = 0x00010000
	tagOpenType  = 0x4f54544f // "OTTO"
	tagTrueTypeMac = 0x74727565 // "true"
	tagTTC       = 0x74746366 // "ttcf"
)

const maxNumTables = 256

// Table is a (offset, length) span of a font resource.
type Table struct {
	Offset, Length uint32
}

// Directory is the per-face mapping of 4-byte table tags to (offset,
// length) pairs, the font version word, and (for TTC) the list of face
// offsets within the resource.
type Directory struct {
	Version      uint32
	IsPostScript bool
	Tables       map[uint32]Table

	// TTCOffsets holds every face's directory offset when the resource is a
	// TrueType Collection; nil for a bare sfnt resource.
	TTCOffsets []uint32
}

// Tag packs a 4-byte ASCII table tag into a uint32, matching sfnt's
// big-endian on-disk representation. Tag("glyf") == 0x676c7966.
func Tag(s string) uint32 {
	b := [4]byte{}
	copy(b[:], s)
	return uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
}

// ParseDirectory reads the table directory from the start of s (it seeks
// to offset 0 first).
// If the first four bytes are "ttcf", it reads the collection header and
// selects faceIndex's offset before parsing that face's directory;
// otherwise offset 0 is the table directory directly.
func ParseDirectory(s *stream.Stream, faceIndex int) (*Directory, error) {
	if err := s.Seek(0); err != nil {
		return nil, err
	}
	if err := s.EnterFrame(4); err != nil {
		return nil, err
	}
	firstTag, err := s.GetTag()
	s.ExitFrame()
	if err != nil {
		return nil, err
	}

	d := &Directory{Tables: make(map[uint32]Table)}

	dirOffset := int64(0)
	if firstTag == tagTTC {
		if err := s.Seek(0); err != nil {
			return nil, err
		}
		if err := s.EnterFrame(12); err != nil {
			return nil, err
		}
		_, _ = s.GetTag() // "ttcf" again
		_, err := s.GetU32() // TTC version
		if err != nil {
			s.ExitFrame()
			return nil, err
		}
		count, err := s.GetU32()
		s.ExitFrame()
		if err != nil {
			return nil, err
		}
		if faceIndex < 0 || uint32(faceIndex) >= count {
			return nil, fontcore.New(fontcore.ModuleSfnt, fontcore.CodeInvalidArgument)
		}
		if err := s.Seek(12); err != nil {
			return nil, err
		}
		if err := s.EnterFrame(int(count) * 4); err != nil {
			return nil, err
		}
		offsets := make([]uint32, count)
		for i := range offsets {
			v, err := s.GetU32()
			if err != nil {
				s.ExitFrame()
				return nil, err
			}
			offsets[i] = v
		}
		s.ExitFrame()
		d.TTCOffsets = offsets
		dirOffset = int64(offsets[faceIndex])
	}

	if err := s.Seek(dirOffset); err != nil {
		return nil, err
	}
	if err := s.EnterFrame(12); err != nil {
		return nil, err
	}
	version, err := s.GetU32()
	if err != nil {
		s.ExitFrame()
		return nil, err
	}
	switch version {
	case tagTrueType, tagTrueTypeMac:
		// TrueType outlines.
	case tagOpenType:
		d.IsPostScript = true
	default:
		s.ExitFrame()
		return nil, fontcore.New(fontcore.ModuleSfnt, fontcore.CodeUnknownFileFormat)
	}
	d.Version = version
	numTables, err := s.GetU16()
	if err != nil {
		s.ExitFrame()
		return nil, err
	}
	// searchRange, entrySelector, rangeShift: read and discarded, used only
	// for validation by the original format and not load-bearing here.
	if _, err := s.GetU16(); err != nil {
		s.ExitFrame()
		return nil, err
	}
	if _, err := s.GetU16(); err != nil {
		s.ExitFrame()
		return nil, err
	}
	if _, err := s.GetU16(); err != nil {
		s.ExitFrame()
		return nil, err
	}
	s.ExitFrame()

	if numTables > maxNumTables {
		return nil, fontcore.New(fontcore.ModuleSfnt, fontcore.CodeInvalidTable)
	}

	if err := s.EnterFrame(int(numTables) * 16); err != nil {
		return nil, err
	}
	defer s.ExitFrame()
	for i := 0; i < int(numTables); i++ {
		tag, err := s.GetTag()
		if err != nil {
			return nil, err
		}
		if _, err := s.GetU32(); err != nil { // checksum, ignored
			return nil, err
		}
		off, err := s.GetU32()
		if err != nil {
			return nil, err
		}
		length, err := s.GetU32()
		if err != nil {
			return nil, err
		}
		d.Tables[tag] = Table{Offset: off, Length: length}
	}
	return d, nil
}

// GotoTable seeks s to the start of the named table and returns its length.
// A missing table is reported as TableMissing, distinguished from a
// malformed one (InvalidTable).
func (d *Directory) GotoTable(s *stream.Stream, tag uint32) (uint32, error) {
	t, ok := d.Tables[tag]
	if !ok {
		return 0, fontcore.New(fontcore.ModuleSfnt, fontcore.CodeTableMissing)
	}
	if err := s.Seek(int64(t.Offset)); err != nil {
		return 0, err
	}
	return t.Length, nil
}

// Has reports whether the directory lists the given table tag.
func (d *Directory) Has(tag uint32) bool {
	_, ok := d.Tables[tag]
	return ok
}

// Tags returns every table tag in the directory, sorted ascending —
// convenient for deterministic diagnostics/tests.
func (d *Directory) Tags() []uint32 {
	out := make([]uint32, 0, len(d.Tables))
	for t := range d.Tables {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

package sfnt

import (
	"sort"

	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/stream"
)

// CmapSubtableHeader is one eagerly-parsed (platform, encoding, offset)
// entry from the 'cmap' table's top-level index. Only the per-subtable
// headers are parsed eagerly; actual character-to-glyph decoding happens
// on demand, per charmap format.
type CmapSubtableHeader struct {
	PlatformID uint16
	EncodingID uint16
	Offset     uint32
}

// Cmap is the decoded 'cmap' table directory (not yet the subtables
// themselves).
type Cmap struct {
	tableStart int64
	Subtables  []CmapSubtableHeader
}

// ParseCmap reads the mandatory 'cmap' table's subtable index.
func ParseCmap(s *stream.Stream, d *Directory) (*Cmap, error) {
	_, err := d.GotoTable(s, Tag("cmap"))
	if err != nil {
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
	numTables, err := s.GetU16()
	if err != nil {
		s.ExitFrame()
		return nil, err
	}
	s.ExitFrame()

	c := &Cmap{tableStart: tableStart, Subtables: make([]CmapSubtableHeader, numTables)}
	if err := s.EnterFrame(int(numTables) * 8); err != nil {
		return nil, err
	}
	defer s.ExitFrame()
	for i := range c.Subtables {
		plat, err := s.GetU16()
		if err != nil {
			return nil, err
		}
		enc, err := s.GetU16()
		if err != nil {
			return nil, err
		}
		off, err := s.GetU32()
		if err != nil {
			return nil, err
		}
		c.Subtables[i] = CmapSubtableHeader{PlatformID: plat, EncodingID: enc, Offset: off}
	}
	return c, nil
}

// preferredSubtable picks, in order: Windows full Unicode (3,10), Windows
// BMP (3,1), Unicode platform (0,*), then whatever is first — the
// common priority order real-world sfnt consumers use.
func (c *Cmap) preferredSubtable() (CmapSubtableHeader, bool) {
	var best CmapSubtableHeader
	bestScore := -1
	score := func(h CmapSubtableHeader) int {
		switch {
		case h.PlatformID == 3 && h.EncodingID == 10:
			return 4
		case h.PlatformID == 3 && h.EncodingID == 1:
			return 3
		case h.PlatformID == 0:
			return 2
		default:
			return 1
		}
	}
	for _, h := range c.Subtables {
		if sc := score(h); sc > bestScore {
			bestScore, best = sc, h
		}
	}
	return best, bestScore >= 0
}

// charmapEntry is a decoded (char code -> glyph index) pair, used once a
// subtable has been expanded into a sorted table for lookup and iteration.
type charmapEntry struct {
	code uint32
	gid  uint16
}

// Charmap is a single, fully decoded character map: a sorted list of
// (code, gid) entries supporting GetCharIndex, GetFirstChar, and
// GetNextChar.
type Charmap struct {
	entries []charmapEntry
}

// LoadPreferredCharmap decodes the best available subtable into a Charmap.
// Returns nil if the font has no usable cmap subtable.
func (c *Cmap) LoadPreferredCharmap(s *stream.Stream) (*Charmap, error) {
	h, ok := c.preferredSubtable()
	if !ok {
		return nil, nil
	}
	return c.decodeSubtable(s, h)
}

// LoadCharmap decodes a specific subtable, identified by (platformID,
// encodingID), rather than the auto-picked preferred one — the basis for
// select_charmap/set_charmap choosing among several available encodings.
func (c *Cmap) LoadCharmap(s *stream.Stream, platformID, encodingID uint16) (*Charmap, error) {
	for _, h := range c.Subtables {
		if h.PlatformID == platformID && h.EncodingID == encodingID {
			return c.decodeSubtable(s, h)
		}
	}
	return nil, fontcore.New(fontcore.ModuleSfnt, fontcore.CodeInvalidArgument)
}

func (c *Cmap) decodeSubtable(s *stream.Stream, h CmapSubtableHeader) (*Charmap, error) {
	if err := s.Seek(c.tableStart + int64(h.Offset)); err != nil {
		return nil, err
	}
	if err := s.EnterFrame(2); err != nil {
		return nil, err
	}
	format, err := s.GetU16()
	s.ExitFrame()
	if err != nil {
		return nil, err
	}

	if err := s.Seek(c.tableStart + int64(h.Offset)); err != nil {
		return nil, err
	}
	switch format {
	case 0:
		return decodeCmapFormat0(s)
	case 4:
		return decodeCmapFormat4(s)
	case 6:
		return decodeCmapFormat6(s)
	case 12:
		return decodeCmapFormat12(s)
	default:
		return nil, fontcore.Newf(fontcore.ModuleSfnt, fontcore.CodeInvalidTable, "unsupported cmap format %d", format)
	}
}

func decodeCmapFormat0(s *stream.Stream) (*Charmap, error) {
	if err := s.EnterFrame(262); err != nil {
		return nil, err
	}
	defer s.ExitFrame()
	if _, err := s.GetU16(); err != nil { // format
		return nil, err
	}
	if _, err := s.GetU16(); err != nil { // length
		return nil, err
	}
	if _, err := s.GetU16(); err != nil { // language
		return nil, err
	}
	cm := &Charmap{}
	for code := 0; code < 256; code++ {
		gid, err := s.GetU8()
		if err != nil {
			return nil, err
		}
		if gid != 0 {
			cm.entries = append(cm.entries, charmapEntry{code: uint32(code), gid: uint16(gid)})
		}
	}
	return cm, nil
}

func decodeCmapFormat6(s *stream.Stream) (*Charmap, error) {
	if err := s.EnterFrame(10); err != nil {
		return nil, err
	}
	if _, err := s.GetU16(); err != nil { // format
		s.ExitFrame()
		return nil, err
	}
	if _, err := s.GetU16(); err != nil { // length
		s.ExitFrame()
		return nil, err
	}
	if _, err := s.GetU16(); err != nil { // language
		s.ExitFrame()
		return nil, err
	}
	first, err := s.GetU16()
	if err != nil {
		s.ExitFrame()
		return nil, err
	}
	count, err := s.GetU16()
	if err != nil {
		s.ExitFrame()
		return nil, err
	}
	s.ExitFrame()

	cm := &Charmap{}
	if err := s.EnterFrame(int(count) * 2); err != nil {
		return nil, err
	}
	defer s.ExitFrame()
	for i := 0; i < int(count); i++ {
		gid, err := s.GetU16()
		if err != nil {
			return nil, err
		}
		if gid != 0 {
			cm.entries = append(cm.entries, charmapEntry{code: uint32(first) + uint32(i), gid: gid})
		}
	}
	return cm, nil
}

func decodeCmapFormat4(s *stream.Stream) (*Charmap, error) {
	subtableStart := s.Pos()
	if err := s.EnterFrame(14); err != nil {
		return nil, err
	}
	if _, err := s.GetU16(); err != nil { // format
		s.ExitFrame()
		return nil, err
	}
	if _, err := s.GetU16(); err != nil { // length
		s.ExitFrame()
		return nil, err
	}
	if _, err := s.GetU16(); err != nil { // language
		s.ExitFrame()
		return nil, err
	}
	segX2, err := s.GetU16()
	if err != nil {
		s.ExitFrame()
		return nil, err
	}
	if _, err := s.GetBytes(6); err != nil { // searchRange, entrySelector, rangeShift
		s.ExitFrame()
		return nil, err
	}
	s.ExitFrame()
	segCount := int(segX2) / 2

	readU16Array := func(n int) ([]uint16, error) {
		out := make([]uint16, n)
		if err := s.EnterFrame(n * 2); err != nil {
			return nil, err
		}
		defer s.ExitFrame()
		for i := range out {
			v, err := s.GetU16()
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil
	}

	endCodes, err := readU16Array(segCount)
	if err != nil {
		return nil, err
	}
	if err := s.EnterFrame(2); err != nil { // reservedPad
		return nil, err
	}
	s.ExitFrame()
	startCodes, err := readU16Array(segCount)
	if err != nil {
		return nil, err
	}
	idDeltas, err := readU16Array(segCount)
	if err != nil {
		return nil, err
	}
	idRangeOffsetsPos := s.Pos()
	idRangeOffsets, err := readU16Array(segCount)
	if err != nil {
		return nil, err
	}

	cm := &Charmap{}
	for i := 0; i < segCount; i++ {
		start, end := startCodes[i], endCodes[i]
		if start == 0xFFFF && end == 0xFFFF {
			continue
		}
		for code := uint32(start); code <= uint32(end); code++ {
			var gid uint16
			if idRangeOffsets[i] == 0 {
				gid = uint16(uint32(code) + uint32(idDeltas[i]))
			} else {
				glyphOff := idRangeOffsetsPos + int64(i)*2 + int64(idRangeOffsets[i]) + int64(code-uint32(start))*2
				if err := s.Seek(glyphOff); err != nil {
					return nil, err
				}
				if err := s.EnterFrame(2); err != nil {
					return nil, err
				}
				g, err := s.GetU16()
				s.ExitFrame()
				if err != nil {
					return nil, err
				}
				if g != 0 {
					g = uint16(uint32(g) + uint32(idDeltas[i]))
				}
				gid = g
			}
			if gid != 0 {
				cm.entries = append(cm.entries, charmapEntry{code: code, gid: gid})
			}
			if code == 0xFFFF { // avoid uint32 wraparound on the sentinel segment
				break
			}
		}
	}
	_ = subtableStart
	sort.Slice(cm.entries, func(i, j int) bool { return cm.entries[i].code < cm.entries[j].code })
	return cm, nil
}

func decodeCmapFormat12(s *stream.Stream) (*Charmap, error) {
	if err := s.EnterFrame(16); err != nil {
		return nil, err
	}
	if _, err := s.GetU16(); err != nil { // format
		s.ExitFrame()
		return nil, err
	}
	if _, err := s.GetU16(); err != nil { // reserved
		s.ExitFrame()
		return nil, err
	}
	if _, err := s.GetU32(); err != nil { // length
		s.ExitFrame()
		return nil, err
	}
	if _, err := s.GetU32(); err != nil { // language
		s.ExitFrame()
		return nil, err
	}
	numGroups, err := s.GetU32()
	if err != nil {
		s.ExitFrame()
		return nil, err
	}
	s.ExitFrame()

	cm := &Charmap{}
	if err := s.EnterFrame(int(numGroups) * 12); err != nil {
		return nil, err
	}
	defer s.ExitFrame()
	for i := uint32(0); i < numGroups; i++ {
		startChar, err := s.GetU32()
		if err != nil {
			return nil, err
		}
		endChar, err := s.GetU32()
		if err != nil {
			return nil, err
		}
		startGID, err := s.GetU32()
		if err != nil {
			return nil, err
		}
		for c := startChar; c <= endChar; c++ {
			gid := startGID + (c - startChar)
			if gid <= 0xFFFF {
				cm.entries = append(cm.entries, charmapEntry{code: c, gid: uint16(gid)})
			}
			if c == 0xFFFFFFFF {
				break
			}
		}
	}
	return cm, nil
}

// GetCharIndex returns the glyph index for charCode, or 0 if absent.
func (cm *Charmap) GetCharIndex(charCode uint32) uint16 {
	i := sort.Search(len(cm.entries), func(i int) bool { return cm.entries[i].code >= charCode })
	if i < len(cm.entries) && cm.entries[i].code == charCode {
		return cm.entries[i].gid
	}
	return 0
}

// GetFirstChar returns the lowest mapped char code and its glyph index, or
// (0, 0, false) if the charmap is empty.
func (cm *Charmap) GetFirstChar() (code uint32, gid uint16, ok bool) {
	if len(cm.entries) == 0 {
		return 0, 0, false
	}
	return cm.entries[0].code, cm.entries[0].gid, true
}

// GetNextChar returns the next mapped char code strictly greater than prev,
// letting callers enumerate the whole charmap by repeated calls.
func (cm *Charmap) GetNextChar(prev uint32) (code uint32, gid uint16, ok bool) {
	i := sort.Search(len(cm.entries), func(i int) bool { return cm.entries[i].code > prev })
	if i < len(cm.entries) {
		return cm.entries[i].code, cm.entries[i].gid, true
	}
	return 0, 0, false
}

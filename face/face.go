// Package face implements the Face/Size/GlyphSlot object model and the
// character-to-glyph and glyph-loading operations built on top of the
// driver registry: this is the library's main entry point, grounded on
// FreeType's FT_Face/FT_Size/FT_GlyphSlot lifecycle in
// original_source/src/base/ftobjs.c.
package face

import (
	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/driver"
	"github.com/go-fontcore/fontcore/sfnt"
	"github.com/go-fontcore/fontcore/stream"
	"github.com/go-fontcore/fontcore/truetype"
)

// Face is one opened font resource: format-tagged glyph data from the
// driver layer, its design-space metrics, the selected character map, and
// the sizes and glyph slot a caller has created against it.
type Face struct {
	registry   *driver.Registry
	data       *driver.FaceData
	driverName string

	stream      *stream.Stream
	streamOwned bool

	Scalable   bool
	UnitsPerEm uint16

	Ascender, Descender, Height      int16
	MaxAdvanceWidth, MaxAdvanceHeight int16
	NumGlyphs                        int

	charmap *sfnt.Charmap
	program *truetype.Program // non-nil only for KindTrueType faces with fpgm/prep/cvt

	// Transform is the face-level 2x2 matrix (16.16) and pen delta (26.6)
	// applied to every loaded glyph's outline unless IGNORE_TRANSFORM is
	// set, per set_transform.
	xx, xy, yx, yy int32
	deltaX, deltaY int32
	hasTransform   bool

	sizes      []*Size
	activeSize *Size

	glyph *GlyphSlot
}

// OpenFile opens path against reg's registered drivers, trying driverPin
// (or every driver in order, if empty).
func OpenFile(reg *driver.Registry, path string, faceIndex int, driverPin string) (*Face, error) {
	s, err := stream.NewFile(path)
	if err != nil {
		return nil, err
	}
	f, err := open(reg, s, faceIndex, driverPin)
	if err != nil {
		s.Close()
		return nil, err
	}
	f.streamOwned = true
	return f, nil
}

// OpenMemory opens an in-memory font resource. The Face does not take
// ownership of data beyond holding a reference.
func OpenMemory(reg *driver.Registry, data []byte, faceIndex int, driverPin string) (*Face, error) {
	s := stream.NewMemory(data)
	return open(reg, s, faceIndex, driverPin)
}

func open(reg *driver.Registry, s *stream.Stream, faceIndex int, driverPin string) (*Face, error) {
	data, driverName, err := reg.OpenFace(s, faceIndex, driverPin)
	if err != nil {
		return nil, err
	}
	f := &Face{
		registry: reg, data: data, driverName: driverName, stream: s,
		xx: 1 << 16, yy: 1 << 16, // identity matrix
	}
	if err := f.initMetrics(); err != nil {
		return nil, err
	}
	size, err := f.NewSize()
	if err != nil {
		return nil, err
	}
	f.activeSize = size
	return f, nil
}

func (f *Face) initMetrics() error {
	switch f.data.Kind {
	case driver.KindTrueType:
		t := f.data.Tables
		f.Scalable = true
		f.UnitsPerEm = t.Head.UnitsPerEm
		f.Ascender, f.Descender, f.Height = t.Hhea.Ascender, t.Hhea.Descender, t.Hhea.Ascender-t.Hhea.Descender+t.Hhea.LineGap
		f.MaxAdvanceWidth = int16(t.Hhea.MaxAdvance)
		f.NumGlyphs = int(t.Maxp.NumGlyphs)
		cm, err := t.Cmap.LoadPreferredCharmap(f.stream)
		if err != nil {
			return err
		}
		f.charmap = cm
		prog, err := truetype.ParseProgram(f.stream, t.Directory)
		if err != nil {
			return err
		}
		f.program = prog

	case driver.KindCFF:
		t := f.data.Tables
		font := f.data.CFFFont
		f.Scalable = true
		f.UnitsPerEm = unitsPerEmFromMatrix(font.FontMatrix)
		if t.Hhea != nil {
			f.Ascender, f.Descender, f.Height = t.Hhea.Ascender, t.Hhea.Descender, t.Hhea.Ascender-t.Hhea.Descender+t.Hhea.LineGap
			f.MaxAdvanceWidth = int16(t.Hhea.MaxAdvance)
		}
		f.NumGlyphs = font.CharStrings.Count()
		cm, err := t.Cmap.LoadPreferredCharmap(f.stream)
		if err != nil {
			return err
		}
		f.charmap = cm

	case driver.KindType1:
		font := f.data.Type1Font
		f.Scalable = true
		f.UnitsPerEm = unitsPerEmFromMatrix(font.FontMatrix)
		f.Ascender = int16(font.FontBBox[3])
		f.Descender = int16(font.FontBBox[1])
		f.Height = f.Ascender - f.Descender
		f.NumGlyphs = len(font.GlyphNames())
		// Type 1 fonts carry no cmap; character lookup goes through
		// StandardEncodingName instead (see GetCharIndex).
	}
	return nil
}

func unitsPerEmFromMatrix(m [6]float64) uint16 {
	if m[0] <= 0 {
		return 1000
	}
	v := 1 / m[0]
	if v < 1 || v > 1<<16 {
		return 1000
	}
	return uint16(v + 0.5)
}

// Close releases the face's resources: every size, then the owned stream
// (a user-supplied one is left alone), matching FreeType's finalization
// order (sizes before the face's own stream).
func (f *Face) Close() error {
	f.sizes = nil
	f.activeSize = nil
	if f.streamOwned {
		return f.stream.Close()
	}
	return nil
}

// ActiveSize returns the face's currently selected Size.
func (f *Face) ActiveSize() *Size { return f.activeSize }

// DriverName returns the name of the driver that opened this face
// ("truetype", "cff", or "type1").
func (f *Face) DriverName() string { return f.driverName }

// SelectCharmap switches to a specific cmap subtable by (platformID,
// encodingID), for faces that carry more than one (e.g. both a Unicode and
// a symbol encoding). No-op (returns CodeInvalidArgument) for Type 1 faces,
// which have no cmap at all.
func (f *Face) SelectCharmap(platformID, encodingID uint16) error {
	if f.data.Kind == driver.KindType1 {
		return fontcore.New(fontcore.ModuleFace, fontcore.CodeInvalidArgument)
	}
	cm, err := f.data.Tables.Cmap.LoadCharmap(f.stream, platformID, encodingID)
	if err != nil {
		return err
	}
	f.charmap = cm
	return nil
}

// GetCharIndex returns the glyph index for a Unicode code point, or 0
// (the .notdef convention) if absent. Type 1 faces map the code through
// StandardEncoding to a glyph name and return the first glyph with that
// name, or 0 when none has it; scalable sfnt-wrapped faces delegate
// directly to the selected cmap.
func (f *Face) GetCharIndex(charCode uint32) uint16 {
	if f.data.Kind == driver.KindType1 {
		name := f.data.Type1Font.StandardEncodingName(int(charCode))
		for gid, n := range f.data.Type1Font.GlyphNames() {
			if n == name {
				return uint16(gid)
			}
		}
		return 0
	}
	if f.charmap == nil {
		return 0
	}
	return f.charmap.GetCharIndex(charCode)
}

// GetFirstChar returns the first (code, glyph index) pair in the selected
// charmap, for charmap iteration.
func (f *Face) GetFirstChar() (code uint32, gid uint16, ok bool) {
	if f.charmap == nil {
		return 0, 0, false
	}
	return f.charmap.GetFirstChar()
}

// GetNextChar returns the next (code, glyph index) pair after prev.
func (f *Face) GetNextChar(prev uint32) (code uint32, gid uint16, ok bool) {
	if f.charmap == nil {
		return 0, 0, false
	}
	return f.charmap.GetNextChar(prev)
}

// GetKerning returns the kerning adjustment (font design units) between two
// glyphs, or zero if the face carries no kern table or the pair is absent.
func (f *Face) GetKerning(left, right uint16) int16 {
	if f.data.Tables == nil || f.data.Tables.Kern == nil {
		return 0
	}
	return f.data.Tables.Kern.Get(left, right)
}

// SetTransform installs a 2x2 matrix (16.16 fixed) and pen delta (26.6
// fixed) applied to every subsequently loaded glyph's outline, unless
// IGNORE_TRANSFORM is requested at load time. Passing the identity matrix
// and a zero delta is equivalent to never calling SetTransform
// (set_transform's idempotence law).
func (f *Face) SetTransform(xx, xy, yx, yy, deltaX, deltaY int32) {
	f.xx, f.xy, f.yx, f.yy = xx, xy, yx, yy
	f.deltaX, f.deltaY = deltaX, deltaY
	f.hasTransform = !(xx == 1<<16 && xy == 0 && yx == 0 && yy == 1<<16 && deltaX == 0 && deltaY == 0)
}

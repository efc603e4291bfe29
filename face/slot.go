package face

import (
	"github.com/go-fontcore/fontcore/math/fixed"
	"github.com/go-fontcore/fontcore/outline"
	"github.com/go-fontcore/fontcore/sbit"
)

// LoadFlag controls load_glyph's behavior, mirroring FT_LOAD_XXX.
type LoadFlag uint32

const LoadDefault LoadFlag = 0

const (
	LoadNoScale LoadFlag = 1 << iota
	LoadNoHinting
	LoadRender
	LoadNoBitmap
	LoadVerticalLayout
	LoadForceAutohint
	LoadPedantic
	LoadIgnoreTransform
	LoadMonochrome
	LoadLinearDesign
	LoadSbitsOnly
	LoadNoRecurse
)

// Format tags a GlyphSlot's content: a vector outline ready for the
// rasterizer, or an already-rendered bitmap (either a format-loaded sbit
// strike or the result of rasterizing an outline under LoadRender).
type Format int

const (
	FormatNone Format = iota
	FormatOutline
	FormatBitmap
)

// Bitmap is the slot's rendered glyph image: either copied directly from
// an embedded sbit strike, or produced by the render package.
type Bitmap struct {
	Width, Rows, Pitch int
	Buffer             []byte
	Monochrome         bool
}

// GlyphSlot holds one loaded glyph's outline or bitmap plus its device
// metrics, reused across LoadGlyph calls the way FT_GlyphSlot is.
type GlyphSlot struct {
	Format Format

	Outline *outline.Outline
	Bitmap  *Bitmap

	BitmapLeft, BitmapTop int

	// Advance is the glyph's device-space advance (26.6), already reflecting
	// any face transform unless IGNORE_TRANSFORM was requested.
	Advance fixed.Point26_6

	LinearHoriAdvance fixed.Int16_16
	LinearVertAdvance fixed.Int16_16

	GlyphIndex uint16
}

// NewGlyphSlot allocates the face's single reusable glyph slot, mirroring
// FT_New_GlyphSlot — a face holds exactly one, refilled by every LoadGlyph.
func (f *Face) NewGlyphSlot() *GlyphSlot {
	f.glyph = &GlyphSlot{}
	return f.glyph
}

// Glyph returns the face's glyph slot, allocating it on first use.
func (f *Face) Glyph() *GlyphSlot {
	if f.glyph == nil {
		return f.NewGlyphSlot()
	}
	return f.glyph
}

// sbitToSlot copies a decoded embedded bitmap's raw rows into the
// slot's own Bitmap, leaving the sbit package's Bitmap untouched (it may be
// a cached strike shared across glyphs).
func sbitToSlot(b *sbit.Bitmap) *Bitmap {
	buf := append([]byte(nil), b.Buffer...)
	return &Bitmap{
		Width:      int(b.Width),
		Rows:       int(b.Rows),
		Pitch:      int(b.Pitch),
		Buffer:     buf,
		Monochrome: b.BitDepth == 1,
	}
}

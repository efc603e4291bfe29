package sbit

import (
	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/sfnt"
	"github.com/go-fontcore/fontcore/stream"
)

// Bitmap is a decoded embedded glyph image: a byte-padded bit/pixel buffer
// (always byte-padded per row regardless of the source format's packing,
// following blit_sbit's target convention) plus the metrics FreeType
// reports back to the face layer.
type Bitmap struct {
	Width, Rows int
	Pitch       int
	BitDepth    uint8
	Buffer      []byte

	HoriBearingX, HoriBearingY int8
	HoriAdvance                uint8
	VertBearingX, VertBearingY int8
	VertAdvance                uint8
}

// Engine decodes embedded bitmaps for one face: the parsed 'EBLC' strikes
// plus the 'EBDT' table stream they index into.
type Engine struct {
	Stream *stream.Stream
	Dir    *sfnt.Directory
	EBLC   *Table
}

// NewEngine parses 'EBLC' ('EBDT' is located on each Load); returns
// fontcore.CodeTableMissing (via ParseTable) if the face has no 'EBLC'.
func NewEngine(s *stream.Stream, d *sfnt.Directory) (*Engine, error) {
	tbl, err := ParseTable(s, d)
	if err != nil {
		return nil, err
	}
	return &Engine{Stream: s, Dir: d, EBLC: tbl}, nil
}

// FindStrike returns the strike whose x/y ppem match exactly, as FreeType's
// sbit engine requires an exact pixel-size match rather than interpolating.
func (e *Engine) FindStrike(xPpem, yPpem uint8) (*Strike, bool) {
	for i := range e.EBLC.Strikes {
		st := &e.EBLC.Strikes[i]
		if st.XPpem == xPpem && st.YPpem == yPpem {
			return st, true
		}
	}
	return nil, false
}

// maxSbitComponentDepth bounds compound-glyph component recursion, guarding
// against a malformed font whose components reference each other in a
// cycle.
const maxSbitComponentDepth = 8

// Load decodes gid's bitmap from the given strike.
func (e *Engine) Load(st *Strike, gid uint16) (*Bitmap, error) {
	return e.load(st, gid, 0)
}

func (e *Engine) load(st *Strike, gid uint16, depth int) (*Bitmap, error) {
	if depth > maxSbitComponentDepth {
		return nil, fontcore.New(fontcore.ModuleSbit, fontcore.CodeInvalidGlyphFormat)
	}
	r, pos, ok := st.FindRange(gid)
	if !ok {
		return nil, fontcore.New(fontcore.ModuleSbit, fontcore.CodeInvalidGlyphIndex)
	}
	offset, _, ok := r.Offset(pos)
	if !ok {
		return nil, fontcore.New(fontcore.ModuleSbit, fontcore.CodeInvalidGlyphIndex)
	}

	if _, err := e.Dir.GotoTable(e.Stream, sfnt.Tag("EBDT")); err != nil {
		return nil, err
	}
	if err := e.Stream.Skip(int64(offset)); err != nil {
		return nil, err
	}

	m, err := readGlyphMetrics(e.Stream, r.IndexFormat, r)
	if err != nil {
		return nil, err
	}

	bmp := &Bitmap{
		Width: int(m.Width), Rows: int(m.Height),
		BitDepth:     st.BitDepth,
		HoriBearingX: m.HoriBearingX, HoriBearingY: m.HoriBearingY, HoriAdvance: m.HoriAdvance,
		VertBearingX: m.VertBearingX, VertBearingY: m.VertBearingY, VertAdvance: m.VertAdvance,
	}
	switch st.BitDepth {
	case 1:
		bmp.Pitch = (bmp.Width + 7) >> 3
	case 2:
		bmp.Pitch = (bmp.Width + 3) >> 2
	case 4:
		bmp.Pitch = (bmp.Width + 1) >> 1
	case 8:
		bmp.Pitch = bmp.Width
	default:
		return nil, fontcore.New(fontcore.ModuleSbit, fontcore.CodeInvalidFileFormat)
	}
	size := bmp.Rows * bmp.Pitch
	if size == 0 {
		return bmp, nil
	}
	bmp.Buffer = make([]byte, size)

	switch r.ImageFormat {
	case 1, 2, 5, 6, 7:
		if err := decodeSingle(e.Stream, bmp, int(st.BitDepth), int(r.ImageFormat)); err != nil {
			return nil, err
		}
	case 8, 9:
		// Compound (component) bitmaps reference other glyph IDs rather
		// than carrying raw bits; decode each component through a
		// recursive load and composite it into this glyph's buffer.
		if err := e.decodeComposite(st, bmp, int(r.ImageFormat), depth); err != nil {
			return nil, err
		}
	default:
		return nil, fontcore.New(fontcore.ModuleSbit, fontcore.CodeInvalidFileFormat)
	}
	return bmp, nil
}

// sbitComponent is one compound-glyph element: a referenced glyph ID and
// its pixel offset within the compound's own bitmap, per ttsbit.c's
// TT_SBit_Component.
type sbitComponent struct {
	glyphCode  uint16
	xOff, yOff int8
}

// decodeComposite reads a compound bitmap (image formats 8/9): a component
// count followed by that many (glyphCode, xOffset, yOffset) records, each
// loaded recursively through Load and composited into bmp's already
// allocated buffer at its declared offset, following Load_SBit_Image's
// component recursion.
func (e *Engine) decodeComposite(st *Strike, bmp *Bitmap, imageFormat int, depth int) error {
	if imageFormat == 8 {
		// One reserved pad byte separates the small metrics (already
		// consumed by readGlyphMetrics) from the component count.
		if err := e.Stream.EnterFrame(1); err != nil {
			return err
		}
		_, err := e.Stream.GetU8()
		e.Stream.ExitFrame()
		if err != nil {
			return err
		}
	}

	if err := e.Stream.EnterFrame(2); err != nil {
		return err
	}
	numComponents, err := e.Stream.GetU16()
	e.Stream.ExitFrame()
	if err != nil {
		return err
	}

	components := make([]sbitComponent, numComponents)
	if err := e.Stream.EnterFrame(int(numComponents) * 4); err != nil {
		return err
	}
	for i := range components {
		code, err := e.Stream.GetU16()
		if err != nil {
			e.Stream.ExitFrame()
			return err
		}
		x, err := e.Stream.GetU8()
		if err != nil {
			e.Stream.ExitFrame()
			return err
		}
		y, err := e.Stream.GetU8()
		if err != nil {
			e.Stream.ExitFrame()
			return err
		}
		components[i] = sbitComponent{code, int8(x), int8(y)}
	}
	e.Stream.ExitFrame()

	// The component list is fully buffered before any recursive load runs,
	// since Load repositions the shared stream to each component's own
	// EBDT offset.
	for _, c := range components {
		comp, err := e.load(st, c.glyphCode, depth+1)
		if err != nil {
			return err
		}
		blitComponent(bmp, comp, int(c.xOff), int(c.yOff))
	}
	return nil
}

// blitComponent composites a decoded component bitmap into a compound
// glyph's shared buffer at its declared pixel offset, clipping any part
// that falls outside the compound's own bounds.
func blitComponent(dst, src *Bitmap, xOff, yOff int) {
	bitDepth := int(dst.BitDepth)
	for y := 0; y < src.Rows; y++ {
		dy := y + yOff
		if dy < 0 || dy >= dst.Rows {
			continue
		}
		for x := 0; x < src.Width; x++ {
			dx := x + xOff
			if dx < 0 || dx >= dst.Width {
				continue
			}
			if v := pixelAt(src.Buffer, src.Pitch, bitDepth, x, y); v != 0 {
				setPixelAt(dst.Buffer, dst.Pitch, bitDepth, dx, dy, v)
			}
		}
	}
}

// pixelAt/setPixelAt address one bitDepth-wide pixel within a byte-padded,
// row-major buffer (the common representation Load produces for every
// image format once decoded).
func pixelAt(buf []byte, pitch, bitDepth, x, y int) byte {
	bitPos := x * bitDepth
	byteIdx := y*pitch + bitPos/8
	if byteIdx < 0 || byteIdx >= len(buf) {
		return 0
	}
	shift := 8 - bitDepth - bitPos%8
	mask := byte(1<<uint(bitDepth) - 1)
	return (buf[byteIdx] >> uint(shift)) & mask
}

func setPixelAt(buf []byte, pitch, bitDepth, x, y int, v byte) {
	bitPos := x * bitDepth
	byteIdx := y*pitch + bitPos/8
	if byteIdx < 0 || byteIdx >= len(buf) {
		return
	}
	shift := 8 - bitDepth - bitPos%8
	mask := byte(1<<uint(bitDepth) - 1)
	buf[byteIdx] = buf[byteIdx]&^(mask<<uint(shift)) | (v&mask)<<uint(shift)
}

// readGlyphMetrics reads a glyph's own metrics record when the index format
// carries per-glyph (big or small) metrics inline before the bitmap data;
// formats with constant metrics (2, 5) reuse the range's ConstMetrics
// instead of reading anything here.
func readGlyphMetrics(s *stream.Stream, indexFormat uint16, r *Range) (Metrics, error) {
	if r.HasConstMetrics {
		return r.ConstMetrics, nil
	}
	if r.ImageFormat == 1 || r.ImageFormat == 2 || r.ImageFormat == 8 {
		// Small metrics: height, width, bearingX, bearingY, advance.
		if err := s.EnterFrame(5); err != nil {
			return Metrics{}, err
		}
		defer s.ExitFrame()
		b, err := s.GetBytes(5)
		if err != nil {
			return Metrics{}, err
		}
		return Metrics{Height: b[0], Width: b[1], HoriBearingX: int8(b[2]), HoriBearingY: int8(b[3]), HoriAdvance: b[4]}, nil
	}
	if err := s.EnterFrame(8); err != nil {
		return Metrics{}, err
	}
	defer s.ExitFrame()
	return readBigMetrics(s)
}

// decodeSingle reads one packed bitmap (image formats 1/2/5/6/7) and
// unpacks it into bmp.Buffer, byte-padded per row at bmp.Pitch regardless
// of the source's bit-aligned packing — mirroring blit_sbit's accumulator
// approach but writing directly rather than compositing into a pre-existing
// target pixmap.
func decodeSingle(s *stream.Stream, bmp *Bitmap, pixBits, imageFormat int) error {
	lineBits := pixBits * bmp.Width
	var glyphSize int
	byteP := false

	switch imageFormat {
	case 1, 6:
		var lineLen int
		switch pixBits {
		case 1:
			lineLen = (bmp.Width + 7) >> 3
		case 2:
			lineLen = (bmp.Width + 3) >> 2
		case 4:
			lineLen = (bmp.Width + 1) >> 1
		default:
			lineLen = bmp.Width
		}
		glyphSize = bmp.Rows * lineLen
		byteP = true
	case 2, 5, 7:
		lineBits = bmp.Width * pixBits
		glyphSize = (bmp.Rows*lineBits + 7) >> 3
	default:
		return fontcore.New(fontcore.ModuleSbit, fontcore.CodeInvalidFileFormat)
	}

	if err := s.EnterFrame(glyphSize); err != nil {
		return err
	}
	defer s.ExitFrame()
	raw, err := s.GetBytes(glyphSize)
	if err != nil {
		return err
	}
	blit(bmp.Buffer, bmp.Pitch, raw, lineBits, byteP, bmp.Rows)
	return nil
}

// blit unpacks a bit-accumulator-packed source into a byte-padded
// destination, following blit_sbit's bit-extraction approach: an
// accumulator holds up to 16 bits, shifted to its top, refilled one source
// byte at a time as it's consumed.
func blit(dst []byte, pitch int, src []byte, lineBits int, bytePadded bool, rows int) {
	srcPos := 0
	for row := 0; row < rows; row++ {
		var acc uint16
		var loaded uint
		count := lineBits
		destOff := row * pitch
		destByte := 0

		for count >= 8 {
			for loaded < 8 && srcPos < len(src) {
				acc |= uint16(src[srcPos]) << (8 - loaded)
				srcPos++
				loaded += 8
			}
			val := byte(acc >> 8)
			if destOff+destByte < len(dst) {
				dst[destOff+destByte] = val
			}
			destByte++
			acc <<= 8
			loaded -= 8
			count -= 8
		}
		if count > 0 {
			for loaded < uint(count) && srcPos < len(src) {
				acc |= uint16(src[srcPos]) << (8 - loaded)
				srcPos++
				loaded += 8
			}
			val := byte(acc>>8) &^ (0xFF >> uint(count))
			if destOff+destByte < len(dst) {
				dst[destOff+destByte] |= val
			}
			acc <<= uint(count)
			loaded -= uint(count)
		}
		if bytePadded {
			acc, loaded = 0, 0
			srcPos = (row + 1) * ((lineBits + 7) / 8)
		}
	}
}

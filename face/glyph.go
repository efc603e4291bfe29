package face

import (
	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/driver"
	"github.com/go-fontcore/fontcore/math/fixed"
	"github.com/go-fontcore/fontcore/outline"
	"github.com/go-fontcore/fontcore/render"
	"github.com/go-fontcore/fontcore/truetype"
	"github.com/go-fontcore/fontcore/truetype/interp"
	"github.com/go-fontcore/fontcore/type1"
)

const maxSeacDepth = 4

// LoadGlyph loads glyph gid into the face's (single, reused) glyph slot,
// mirroring FT_Load_Glyph: an embedded bitmap strike is preferred when one
// exists for the active size, otherwise the outline is decoded from the
// driver-specific table, scaled, optionally hinted, and (under LoadRender)
// rasterized.
func (f *Face) LoadGlyph(gid uint16, flags LoadFlag) (*GlyphSlot, error) {
	if int(gid) >= f.NumGlyphs {
		return nil, fontcore.New(fontcore.ModuleFace, fontcore.CodeInvalidGlyphIndex)
	}
	size := f.activeSize
	if size == nil {
		return nil, fontcore.New(fontcore.ModuleFace, fontcore.CodeInvalidHandle)
	}

	slot := f.Glyph()
	*slot = GlyphSlot{GlyphIndex: gid}

	if flags&LoadNoBitmap == 0 && f.data.Sbit != nil {
		if ok, err := f.tryLoadSbit(slot, gid, size); err != nil {
			return nil, err
		} else if ok {
			return slot, nil
		}
	}
	if flags&LoadSbitsOnly != 0 {
		return nil, fontcore.New(fontcore.ModuleFace, fontcore.CodeInvalidGlyphFormat)
	}

	var (
		out                    *outline.Outline
		hAdvance, vAdvance     fixed.Int26_6
		linearHori, linearVert fixed.Int16_16
		err                    error
	)
	switch f.data.Kind {
	case driver.KindTrueType:
		out, hAdvance, vAdvance, linearHori, linearVert, err = f.loadTrueType(gid, size, flags)
	case driver.KindCFF:
		out, hAdvance, vAdvance, linearHori, linearVert, err = f.loadCFF(gid, size, flags)
	case driver.KindType1:
		out, hAdvance, vAdvance, linearHori, linearVert, err = f.loadType1(gid, size, flags)
	default:
		err = fontcore.New(fontcore.ModuleFace, fontcore.CodeInvalidGlyphFormat)
	}
	if err != nil {
		return nil, err
	}

	if f.hasTransform && flags&LoadIgnoreTransform == 0 {
		out.Transform(f.xx, f.xy, f.yx, f.yy)
		out.Translate(f.deltaX, f.deltaY)
	}

	slot.Format = FormatOutline
	slot.Outline = out
	slot.LinearHoriAdvance = linearHori
	slot.LinearVertAdvance = linearVert
	if flags&LoadVerticalLayout != 0 {
		slot.Advance = fixed.Point26_6{X: 0, Y: vAdvance}
	} else {
		slot.Advance = fixed.Point26_6{X: hAdvance, Y: 0}
	}

	if flags&LoadRender != 0 {
		if err := f.renderGlyph(slot); err != nil {
			return nil, err
		}
	}
	return slot, nil
}

func (f *Face) renderGlyph(slot *GlyphSlot) error {
	if _, ok := f.registry.RendererFor("outline"); !ok {
		return fontcore.New(fontcore.ModuleFace, fontcore.CodeCannotRenderGlyph)
	}
	bmp := render.Outline(slot.Outline)
	slot.Format = FormatBitmap
	slot.Bitmap = &Bitmap{Width: bmp.Width, Rows: bmp.Height, Pitch: bmp.Width, Buffer: bmp.Pix}
	slot.BitmapLeft = bmp.Left
	slot.BitmapTop = bmp.Top
	return nil
}

func (f *Face) tryLoadSbit(slot *GlyphSlot, gid uint16, size *Size) (bool, error) {
	st, ok := f.data.Sbit.FindStrike(uint8(size.XPpem.RoundToInt()), uint8(size.YPpem.RoundToInt()))
	if !ok {
		return false, nil
	}
	bmp, err := f.data.Sbit.Load(st, gid)
	if err != nil {
		if fontcore.Is(err, fontcore.CodeInvalidGlyphIndex) {
			return false, nil
		}
		return false, err
	}
	slot.Format = FormatBitmap
	slot.Bitmap = sbitToSlot(bmp)
	slot.BitmapLeft = int(bmp.HoriBearingX)
	slot.BitmapTop = int(bmp.HoriBearingY)
	slot.Advance = fixed.Point26_6{X: fixed.Int26_6(bmp.HoriAdvance) << 6}
	return true, nil
}

// loadTrueType decodes, scales and (unless suppressed) hints a glyf-table
// outline, matching ttgload.c's TT_Load_Glyph for a simple or composite
// glyph of a scalable TrueType face.
func (f *Face) loadTrueType(gid uint16, size *Size, flags LoadFlag) (out *outline.Outline, hAdvance, vAdvance fixed.Int26_6, linearHori, linearVert fixed.Int16_16, err error) {
	loader := f.data.TTLoader
	g, err := loader.Load(int(gid))
	if err != nil {
		return nil, 0, 0, 0, 0, err
	}

	linearHori = fixed.FromInt(int(g.Phantom[1].X - g.Phantom[0].X))
	linearVert = fixed.FromInt(int(g.Phantom[2].Y - g.Phantom[3].Y))

	if flags&LoadNoScale != 0 {
		hAdvance = fixed.Int26_6(g.Phantom[1].X - g.Phantom[0].X)
		vAdvance = fixed.Int26_6(g.Phantom[2].Y - g.Phantom[3].Y)
		return g.Outline, hAdvance, vAdvance, linearHori, linearVert, nil
	}

	scalePoint := func(p outline.Point) outline.Point {
		return outline.Point{
			X: int32(fixed.MulFix(p.X, size.XScale)),
			Y: int32(fixed.MulFix(p.Y, size.YScale)),
		}
	}
	for i, p := range g.Outline.Points {
		g.Outline.Points[i] = scalePoint(p)
	}
	for i, p := range g.Phantom {
		g.Phantom[i] = scalePoint(p)
	}

	if flags&LoadNoHinting == 0 && size.ttCtx != nil && len(g.Instructions) > 0 {
		hintTrueType(size.ttCtx, g)
	}

	hAdvance = fixed.Int26_6(g.Phantom[1].X - g.Phantom[0].X)
	vAdvance = fixed.Int26_6(g.Phantom[2].Y - g.Phantom[3].Y)
	if t := f.data.Tables; flags&LoadNoHinting == 0 && t != nil && t.Hdmx != nil && (t.Post == nil || !t.Post.IsFixedPitch) {
		// An 'hdmx' row for this ppem replaces the advance with its device width.
		if w, ok := t.Hdmx.Width(size.XPpem.RoundToInt(), int(gid)); ok {
			hAdvance = fixed.Int26_6(w) << 6
		}
	}
	return g.Outline, hAdvance, vAdvance, linearHori, linearVert, nil
}

// hintTrueType runs a glyph's own instructions against a freshly built
// glyph zone (the twilight zone is the size's own, persistent across
// glyphs), then copies the hinted points back into the outline and phantom
// points, matching ttgload.c's TT_Hint_Glyph / zone teardown.
func hintTrueType(ctx *interp.Context, g *truetype.Glyph) {
	n := g.Outline.NPoints()
	zone := interp.NewZone(n + 4)
	for i, p := range g.Outline.Points {
		pt := fixed.Point26_6{X: fixed.Int26_6(p.X), Y: fixed.Int26_6(p.Y)}
		zone.Cur[i], zone.Orig[i] = pt, pt
		zone.OnCurve[i] = g.Outline.Tags[i]&outline.TagOnCurve != 0
	}
	for i, p := range g.Phantom {
		pt := fixed.Point26_6{X: fixed.Int26_6(p.X), Y: fixed.Int26_6(p.Y)}
		zone.Cur[n+i], zone.Orig[n+i] = pt, pt
	}
	zone.Contours = g.Outline.Contours

	ctx.SetZones(ctx.Twilight, zone)
	ctx.ResetToDefaultGraphicsState()
	// A faulting glyph program still leaves the zone's Cur points at
	// whatever state they reached; use them regardless, matching the
	// interpreter's own non-pedantic tolerance for bad programs.
	_ = ctx.Run(g.Instructions)

	for i := range g.Outline.Points {
		g.Outline.Points[i] = outline.Point{X: int32(zone.Cur[i].X), Y: int32(zone.Cur[i].Y)}
	}
	for i := range g.Phantom {
		g.Phantom[i] = outline.Point{X: int32(zone.Cur[n+i].X), Y: int32(zone.Cur[n+i].Y)}
	}
}

// loadCFF decodes a Type 2 charstring, resolving an accent-composition
// (seac-style endchar) request recursively, then scales the result and
// derives advance/linear-advance from the shared sfnt hmtx/vmtx tables
// (the same mandatory tables every OpenType-CFF font carries, per
// cff_slot_load's delegation to the sfnt metrics tables rather than the
// charstring's own width operand).
func (f *Face) loadCFF(gid uint16, size *Size, flags LoadFlag) (out *outline.Outline, hAdvance, vAdvance fixed.Int26_6, linearHori, linearVert fixed.Int16_16, err error) {
	o, err := f.resolveCFFOutline(int(gid), 0)
	if err != nil {
		return nil, 0, 0, 0, 0, err
	}

	t := f.data.Tables
	advance, _ := t.Hmtx.Advance(int(gid))
	var vAdv uint16
	if t.Vmtx != nil {
		vAdv, _ = t.Vmtx.Advance(int(gid))
	}
	linearHori = fixed.FromInt(int(advance))
	linearVert = fixed.FromInt(int(vAdv))

	if flags&LoadNoScale != 0 {
		return o, fixed.Int26_6(advance), fixed.Int26_6(vAdv), linearHori, linearVert, nil
	}
	hint := size.psHint
	if flags&LoadNoHinting != 0 {
		hint = nil
	}
	scaleCFFOutline(o, size, hint)
	hAdvance = fixed.MulFix(int32(advance), size.XScale)
	vAdvance = fixed.MulFix(int32(vAdv), size.YScale)
	return o, hAdvance, vAdvance, linearHori, linearVert, nil
}

func (f *Face) resolveCFFOutline(gid, depth int) (*outline.Outline, error) {
	if depth > maxSeacDepth {
		return nil, fontcore.New(fontcore.ModuleFace, fontcore.CodeInvalidComposite)
	}
	font := f.data.CFFFont
	o, _, seac, err := font.RunCharstring(gid)
	if err != nil {
		return nil, err
	}
	if seac == nil {
		return o, nil
	}
	baseName := type1.StandardEncodingName(seac.BChar)
	accentName := type1.StandardEncodingName(seac.AChar)
	baseGid, ok := font.GlyphIndex(baseName)
	if !ok {
		return nil, fontcore.New(fontcore.ModuleFace, fontcore.CodeInvalidGlyphIndex)
	}
	accentGid, ok := font.GlyphIndex(accentName)
	if !ok {
		return nil, fontcore.New(fontcore.ModuleFace, fontcore.CodeInvalidGlyphIndex)
	}
	base, err := f.resolveCFFOutline(baseGid, depth+1)
	if err != nil {
		return nil, err
	}
	accent, err := f.resolveCFFOutline(accentGid, depth+1)
	if err != nil {
		return nil, err
	}
	accent.Translate(roundCoord(seac.Adx), roundCoord(seac.Ady))
	return appendOutline(base, accent), nil
}

// scaleCFFOutline scales o's points into device space and, when hint is
// non-nil, applies a blue-zone snap to on-curve points that fall in one of
// the font's alignment zones, replacing the plain scaled Y.
func scaleCFFOutline(o *outline.Outline, size *Size, hint *psHinter) {
	for i, p := range o.Points {
		scaledX := int32(fixed.MulFix(p.X, size.XScale))
		scaledY := int32(fixed.MulFix(p.Y, size.YScale))
		if hint != nil && o.Tags[i]&outline.TagOnCurve != 0 {
			scaledY = hint.snapY(p.Y, scaledY)
		}
		o.Points[i] = outline.Point{X: scaledX, Y: scaledY}
	}
}

// loadType1 decodes a Type 1 charstring by glyph name, resolving seac
// recursively; a bare Type 1 font has no hmtx-equivalent table, so the
// advance width comes from the charstring's own hsbw/sbw operand (captured
// as the outline decoder's width return) and vertical layout always falls
// back to a zero advance.
func (f *Face) loadType1(gid uint16, size *Size, flags LoadFlag) (out *outline.Outline, hAdvance, vAdvance fixed.Int26_6, linearHori, linearVert fixed.Int16_16, err error) {
	names := f.data.Type1Font.GlyphNames()
	if int(gid) >= len(names) {
		return nil, 0, 0, 0, 0, fontcore.New(fontcore.ModuleFace, fontcore.CodeInvalidGlyphIndex)
	}
	o, width, err := f.resolveType1Outline(names[gid], 0)
	if err != nil {
		return nil, 0, 0, 0, 0, err
	}

	linearHori = fixed.FromInt(int(width))
	if flags&LoadNoScale != 0 {
		return o, fixed.Int26_6(width), 0, linearHori, 0, nil
	}
	hint := size.psHint
	if flags&LoadNoHinting != 0 {
		hint = nil
	}
	scaleCFFOutline(o, size, hint)
	hAdvance = fixed.MulFix(int32(width), size.XScale)
	return o, hAdvance, 0, linearHori, 0, nil
}

func (f *Face) resolveType1Outline(name string, depth int) (*outline.Outline, float64, error) {
	if depth > maxSeacDepth {
		return nil, 0, fontcore.New(fontcore.ModuleFace, fontcore.CodeInvalidComposite)
	}
	font := f.data.Type1Font
	code := font.CharstringByName(name)
	if code == nil {
		return nil, 0, fontcore.New(fontcore.ModuleFace, fontcore.CodeInvalidGlyphIndex)
	}
	o, sbx, width, seac, err := type1.RunCharstring(font, code)
	if err != nil {
		return nil, 0, err
	}
	if seac == nil {
		return o, width, nil
	}
	baseName := font.StandardEncodingName(seac.BChar)
	accentName := font.StandardEncodingName(seac.AChar)
	base, baseWidth, err := f.resolveType1Outline(baseName, depth+1)
	if err != nil {
		return nil, 0, err
	}
	accent, _, err := f.resolveType1Outline(accentName, depth+1)
	if err != nil {
		return nil, 0, err
	}
	accent.Translate(roundCoord(seac.Adx-seac.Asb+sbx), roundCoord(seac.Ady))
	return appendOutline(base, accent), baseWidth, nil
}

// appendOutline concatenates src's points, tags and contours onto dst,
// offsetting src's contour end-indices past dst's existing points —
// SEAC composition's accent-onto-base merge, and the one place two
// independently decoded outlines are combined into one.
func appendOutline(dst, src *outline.Outline) *outline.Outline {
	base := dst.NPoints()
	dst.Points = append(dst.Points, src.Points...)
	dst.Tags = append(dst.Tags, src.Tags...)
	for _, e := range src.Contours {
		dst.Contours = append(dst.Contours, base+e)
	}
	return dst
}

// roundCoord rounds a charstring coordinate to the nearest font-unit
// integer, half away from zero, matching cff's f26 helper.
func roundCoord(v float64) int32 {
	if v >= 0 {
		return int32(v + 0.5)
	}
	return -int32(-v + 0.5)
}

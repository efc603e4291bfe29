package truetype

import (
	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/outline"
	"github.com/go-fontcore/fontcore/sfnt"
	"github.com/go-fontcore/fontcore/stream"
)

const maxCompositeDepth = 8

// simple glyph point flag bits, as laid out in the 'glyf' table.
const (
	flagOnCurve = 1 << 0
	flagXShort  = 1 << 1
	flagYShort  = 1 << 2
	flagRepeat  = 1 << 3
	flagXSame   = 1 << 4 // also "positive x-short" when flagXShort is set
	flagYSame   = 1 << 5 // also "positive y-short" when flagYShort is set
	flagOverlap = 1 << 6
)

// composite glyph component flag bits.
const (
	compArgsAreWords    = 1 << 0
	compArgsAreXY       = 1 << 1
	compRoundXYToGrid   = 1 << 2
	compHaveScale       = 1 << 3
	compMoreComponents  = 1 << 5
	compHaveXYScale     = 1 << 6
	compHave2x2         = 1 << 7
	compUseMyMetrics    = 1 << 9
	compOverlapCompound = 1 << 10
)

// Glyph is a loaded TrueType glyph: its outline in font units, its four
// phantom points (left/right horizontal origin and advance, top/bottom
// vertical origin and advance, in that order), and whether any component
// flagged OVERLAP_SIMPLE/overlap-compound.
type Glyph struct {
	Outline *outline.Outline
	Phantom [4]outline.Point
	Overlap bool

	// Instructions is the simple glyph's own hinting bytecode, run against
	// the scaled outline plus phantom points when hinting is requested. Nil
	// for composite glyphs — composite-level instructions (the rarer
	// WE_HAVE_INSTRUCTIONS component flag) aren't parsed; a composite
	// glyph's hinting comes entirely from its components' own programs.
	Instructions []byte
}

// Loader loads and assembles TrueType glyphs from a face's 'glyf'/'loca'
// tables, honoring the composite-glyph point/contour/depth budgets in maxp.
type Loader struct {
	Stream     *stream.Stream
	Dir        *sfnt.Directory
	Loca       *Loca
	Hmtx       *sfnt.Metrics
	Vmtx       *sfnt.Metrics // nil if the face has no vertical metrics
	UnitsPerEm uint16

	MaxPoints            int
	MaxContours          int
	MaxCompositePoints   int
	MaxCompositeContours int

	// SynthVertAdvance and SynthVertAscender are a driver-computed
	// replacement vertical advance/origin (font units) used only when Vmtx
	// is nil, derived from OS/2's typographic metrics or (lacking OS/2)
	// hhea, matching ttmetrics.c's synthesis of vertical metrics for fonts
	// that never shipped a vhea/vmtx table. Zero disables synthesis.
	SynthVertAdvance  uint16
	SynthVertAscender int16
}

// Load decodes glyph gid into an unscaled (font-unit) outline, with phantom
// points appended per ttgload.c's convention: horizontal origin/advance
// first, then vertical origin/advance.
func (l *Loader) Load(gid int) (*Glyph, error) {
	return l.load(gid, 0)
}

// readHeader reads the 10-byte glyph header (numberOfContours, xMin, yMin,
// xMax, yMax) in its own short-lived frame, leaving the stream positioned
// at the start of the glyph body with no frame held open — required since
// composite bodies recurse back into Load, and this Stream allows only one
// active frame at a time.
func (l *Loader) readHeader() (numContours, xMin, yMax int16, err error) {
	if err = l.Stream.EnterFrame(10); err != nil {
		return 0, 0, 0, err
	}
	defer l.Stream.ExitFrame()
	if numContours, err = l.Stream.GetI16(); err != nil {
		return 0, 0, 0, err
	}
	if xMin, err = l.Stream.GetI16(); err != nil {
		return 0, 0, 0, err
	}
	for i := 0; i < 2; i++ { // yMin, xMax
		if _, err = l.Stream.GetI16(); err != nil {
			return 0, 0, 0, err
		}
	}
	yMax, err = l.Stream.GetI16()
	return numContours, xMin, yMax, err
}

func (l *Loader) load(gid int, depth int) (*Glyph, error) {
	if depth > maxCompositeDepth {
		return nil, fontcore.New(fontcore.ModuleTrueType, fontcore.CodeInvalidComposite)
	}
	advance, lsb := l.Hmtx.Advance(gid)
	var vAdvance uint16
	var tsb int16
	switch {
	case l.Vmtx != nil:
		vAdvance, tsb = l.Vmtx.Advance(gid)
	case l.SynthVertAdvance != 0:
		vAdvance = l.SynthVertAdvance
	}

	off, length, ok := l.Loca.Span(gid)
	if !ok {
		// Blank glyph: an empty outline with phantom points at the origin
		// and the advance width/height from hmtx/vmtx.
		g := &Glyph{Outline: outline.New(0, 0)}
		g.Phantom[0] = outline.Point{X: int32(lsb), Y: 0}
		g.Phantom[1] = outline.Point{X: int32(lsb) + int32(advance), Y: 0}
		g.Phantom[2] = outline.Point{X: 0, Y: int32(tsb)}
		g.Phantom[3] = outline.Point{X: 0, Y: int32(tsb) - int32(vAdvance)}
		return g, nil
	}
	if length < 10 {
		return nil, fontcore.New(fontcore.ModuleTrueType, fontcore.CodeInvalidOutline)
	}

	if _, err := l.Dir.GotoTable(l.Stream, sfnt.Tag("glyf")); err != nil {
		return nil, err
	}
	if err := l.Stream.Skip(int64(off)); err != nil {
		return nil, err
	}
	numContours, xMin, yMax, err := l.readHeader()
	if err != nil {
		return nil, err
	}

	var g *Glyph
	if numContours >= 0 {
		g, err = l.loadSimple(int(numContours), int(length)-10)
	} else {
		g, err = l.loadComposite(depth)
	}
	if err != nil {
		return nil, err
	}

	if l.Vmtx == nil && l.SynthVertAdvance != 0 {
		// Cancels the -yMax term below so every glyph's synthesized
		// vertical origin lands at a single constant ascender line, since
		// there is no per-glyph vmtx top-side-bearing to vary it.
		tsb = l.SynthVertAscender + yMax
	}

	hAdvance := int32(advance)
	g.Phantom[0] = outline.Point{X: int32(xMin) - int32(lsb), Y: 0}
	g.Phantom[1] = outline.Point{X: g.Phantom[0].X + hAdvance, Y: 0}
	g.Phantom[2] = outline.Point{X: 0, Y: int32(tsb) - int32(yMax)}
	g.Phantom[3] = outline.Point{X: 0, Y: g.Phantom[2].Y - int32(vAdvance)}
	return g, nil
}

func (l *Loader) loadSimple(numContours, bodyLen int) (*Glyph, error) {
	if l.MaxContours > 0 && numContours > l.MaxContours {
		return nil, fontcore.New(fontcore.ModuleTrueType, fontcore.CodeTooManyContours)
	}
	if bodyLen < 2*numContours+2 {
		return nil, fontcore.New(fontcore.ModuleTrueType, fontcore.CodeInvalidOutline)
	}

	endPts := make([]int, numContours)
	if err := l.Stream.EnterFrame(2 * numContours); err != nil {
		return nil, err
	}
	for i := range endPts {
		v, err := l.Stream.GetU16()
		if err != nil {
			l.Stream.ExitFrame()
			return nil, err
		}
		endPts[i] = int(v)
	}
	l.Stream.ExitFrame()

	numPoints := 0
	if numContours > 0 {
		numPoints = endPts[numContours-1] + 1
	}
	if l.MaxPoints > 0 && numPoints > l.MaxPoints {
		return nil, fontcore.New(fontcore.ModuleTrueType, fontcore.CodeTooManyPoints)
	}

	var insLen uint16
	if err := l.Stream.EnterFrame(2); err != nil {
		return nil, err
	}
	v, err := l.Stream.GetU16()
	l.Stream.ExitFrame()
	if err != nil {
		return nil, err
	}
	insLen = v
	var instructions []byte
	if insLen > 0 {
		if err := l.Stream.EnterFrame(int(insLen)); err != nil {
			return nil, err
		}
		b, err := l.Stream.GetBytes(int(insLen))
		if err != nil {
			l.Stream.ExitFrame()
			return nil, err
		}
		instructions = append([]byte(nil), b...)
		l.Stream.ExitFrame()
	}

	rest := bodyLen - 2*numContours - 2 - int(insLen)
	if rest < 0 {
		return nil, fontcore.New(fontcore.ModuleTrueType, fontcore.CodeInvalidOutline)
	}
	if err := l.Stream.EnterFrame(rest); err != nil {
		return nil, err
	}
	defer l.Stream.ExitFrame()

	flags := make([]byte, 0, numPoints)
	overlap := false
	for len(flags) < numPoints {
		b, err := l.Stream.GetU8()
		if err != nil {
			return nil, err
		}
		if len(flags) == 0 && b&flagOverlap != 0 {
			overlap = true
		}
		flags = append(flags, b)
		if b&flagRepeat != 0 {
			rep, err := l.Stream.GetU8()
			if err != nil {
				return nil, err
			}
			for i := byte(0); i < rep && len(flags) < numPoints; i++ {
				flags = append(flags, b)
			}
		}
	}
	if len(flags) != numPoints {
		return nil, fontcore.New(fontcore.ModuleTrueType, fontcore.CodeInvalidOutline)
	}

	xs := make([]int32, numPoints)
	var x int32
	for i, f := range flags {
		switch {
		case f&flagXShort != 0:
			v, err := l.Stream.GetU8()
			if err != nil {
				return nil, err
			}
			if f&flagXSame != 0 {
				x += int32(v)
			} else {
				x -= int32(v)
			}
		case f&flagXSame == 0:
			v, err := l.Stream.GetI16()
			if err != nil {
				return nil, err
			}
			x += int32(v)
		}
		xs[i] = x
	}

	ys := make([]int32, numPoints)
	var y int32
	for i, f := range flags {
		switch {
		case f&flagYShort != 0:
			v, err := l.Stream.GetU8()
			if err != nil {
				return nil, err
			}
			if f&flagYSame != 0 {
				y += int32(v)
			} else {
				y -= int32(v)
			}
		case f&flagYSame == 0:
			v, err := l.Stream.GetI16()
			if err != nil {
				return nil, err
			}
			y += int32(v)
		}
		ys[i] = y
	}

	if err := checkPointBudget(numPoints, l.MaxPoints); err != nil {
		return nil, err
	}
	o := outline.New(numPoints, numContours)
	if err := o.GrowContours(numContours, l.MaxContours); err != nil {
		return nil, err
	}
	for i := 0; i < numPoints; i++ {
		tag := outline.Tag(0)
		if flags[i]&flagOnCurve != 0 {
			tag |= outline.TagOnCurve
		}
		if flags[i]&flagOverlap != 0 {
			tag |= outline.TagOverlap
		}
		o.AddPoint(xs[i], ys[i], tag)
	}
	start := 0
	for _, end := range endPts {
		if end < start-1 {
			return nil, fontcore.New(fontcore.ModuleTrueType, fontcore.CodeInvalidOutline)
		}
		if err := o.Close(); err != nil {
			return nil, err
		}
		start = end + 1
	}
	return &Glyph{Outline: o, Overlap: overlap, Instructions: instructions}, nil
}

// component is one decoded composite-glyph component record, read before
// the recursive Load call so no Stream frame is held open across it.
type component struct {
	glyphIndex      uint16
	arg1, arg2      int32
	argsAreXY       bool
	roundXYToGrid   bool
	xx, xy, yx, yy  int32
	moreComponents  bool
	useMyMetrics    bool
	overlapCompound bool
}

func (l *Loader) readComponent() (component, error) {
	var c component
	if err := l.Stream.EnterFrame(4); err != nil {
		return c, err
	}
	flags, err := l.Stream.GetU16()
	if err != nil {
		l.Stream.ExitFrame()
		return c, err
	}
	c.glyphIndex, err = l.Stream.GetU16()
	l.Stream.ExitFrame()
	if err != nil {
		return c, err
	}

	argSize := 2
	if flags&compArgsAreWords != 0 {
		argSize = 4
	}
	if err := l.Stream.EnterFrame(argSize); err != nil {
		return c, err
	}
	if flags&compArgsAreWords != 0 {
		if flags&compArgsAreXY != 0 {
			a, e1 := l.Stream.GetI16()
			b, e2 := l.Stream.GetI16()
			c.arg1, c.arg2 = int32(a), int32(b)
			err = firstErr(e1, e2)
		} else {
			a, e1 := l.Stream.GetU16()
			b, e2 := l.Stream.GetU16()
			c.arg1, c.arg2 = int32(a), int32(b)
			err = firstErr(e1, e2)
		}
	} else {
		a, e1 := l.Stream.GetU8()
		b, e2 := l.Stream.GetU8()
		err = firstErr(e1, e2)
		if flags&compArgsAreXY != 0 {
			c.arg1, c.arg2 = int32(int8(a)), int32(int8(b))
		} else {
			c.arg1, c.arg2 = int32(a), int32(b)
		}
	}
	l.Stream.ExitFrame()
	if err != nil {
		return c, err
	}

	c.xx, c.yy = 1<<16, 1<<16
	transformWords := 0
	switch {
	case flags&compHave2x2 != 0:
		transformWords = 4
	case flags&compHaveXYScale != 0:
		transformWords = 2
	case flags&compHaveScale != 0:
		transformWords = 1
	}
	if transformWords > 0 {
		if err := l.Stream.EnterFrame(2 * transformWords); err != nil {
			return c, err
		}
		vals := make([]int32, transformWords)
		for i := range vals {
			v, err := l.Stream.GetI16()
			if err != nil {
				l.Stream.ExitFrame()
				return c, err
			}
			vals[i] = int32(v) << 2 // 2.14 -> 16.16
		}
		l.Stream.ExitFrame()
		switch transformWords {
		case 1:
			c.xx, c.yy = vals[0], vals[0]
		case 2:
			c.xx, c.yy = vals[0], vals[1]
		case 4:
			c.xx, c.xy, c.yx, c.yy = vals[0], vals[1], vals[2], vals[3]
		}
	}

	c.argsAreXY = flags&compArgsAreXY != 0
	c.roundXYToGrid = flags&compRoundXYToGrid != 0
	c.moreComponents = flags&compMoreComponents != 0
	c.useMyMetrics = flags&compUseMyMetrics != 0
	c.overlapCompound = flags&compOverlapCompound != 0
	return c, nil
}

func firstErr(errs ...error) error {
	for _, e := range errs {
		if e != nil {
			return e
		}
	}
	return nil
}

func (l *Loader) loadComposite(depth int) (*Glyph, error) {
	result := outline.New(0, 0)
	overlap := false
	var metricsPhantom *[4]outline.Point

	for {
		c, err := l.readComponent()
		if err != nil {
			return nil, err
		}

		sub, err := l.load(int(c.glyphIndex), depth+1)
		if err != nil {
			return nil, err
		}
		sub.Outline.Transform(c.xx, c.xy, c.yx, c.yy)

		var dx, dy int32
		if c.argsAreXY {
			dx, dy = c.arg1, c.arg2
			if c.roundXYToGrid {
				dx = roundToGrid(dx)
				dy = roundToGrid(dy)
			}
		} else {
			// Point-matching anchor: arg1 indexes an already-placed point in
			// the parent outline assembled so far, arg2 indexes a point of
			// this (already transformed) sub-element; translate the
			// sub-element so the two coincide. An out-of-range index
			// (malformed font) falls back to a zero offset.
			baseIdx, newIdx := int(c.arg1), int(c.arg2)
			if baseIdx >= 0 && baseIdx < result.NPoints() && newIdx >= 0 && newIdx < sub.Outline.NPoints() {
				bp, np := result.Points[baseIdx], sub.Outline.Points[newIdx]
				dx, dy = bp.X-np.X, bp.Y-np.Y
			}
		}
		sub.Outline.Translate(dx, dy)

		if c.overlapCompound || sub.Overlap {
			overlap = true
		}
		if c.useMyMetrics {
			metricsPhantom = &sub.Phantom
		}

		base := result.NPoints()
		if err := checkPointBudget(base+sub.Outline.NPoints(), l.MaxCompositePoints); err != nil {
			return nil, err
		}
		if err := result.GrowContours(sub.Outline.NContours(), l.MaxCompositeContours); err != nil {
			return nil, err
		}
		for i, p := range sub.Outline.Points {
			result.AddPoint(p.X, p.Y, sub.Outline.Tags[i])
		}
		for _, end := range sub.Outline.Contours {
			result.Contours = append(result.Contours, base+end)
		}

		if !c.moreComponents {
			break
		}
	}

	g := &Glyph{Outline: result, Overlap: overlap}
	if metricsPhantom != nil {
		g.Phantom = *metricsPhantom
	}
	return g, nil
}

func checkPointBudget(total, budget int) error {
	if budget > 0 && total > budget {
		return fontcore.New(fontcore.ModuleTrueType, fontcore.CodeTooManyPoints)
	}
	return nil
}

func roundToGrid(v int32) int32 {
	if v >= 0 {
		return (v + 32) &^ 63
	}
	return -((-v + 32) &^ 63)
}

// Package render rasterizes a scaled glyph outline into an 8-bit coverage
// mask, grounded on golang.org/x/image/font/opentype's Face.Glyph: a
// vector.Rasterizer swept over the outline's on-curve/off-curve point
// sequence, biased into the glyph's own integer-pixel bounding box.
package render

import (
	"image"
	"image/draw"

	"github.com/go-fontcore/fontcore/math/fixed"
	"github.com/go-fontcore/fontcore/outline"
	"golang.org/x/image/math/f32"
	"golang.org/x/image/vector"
)

// Bitmap is a rasterized glyph: an alpha coverage mask plus Left/Top, the
// offset (in integer pixels) from the glyph's origin to the mask's
// top-left corner, following FT_GlyphSlot's bitmap_left/bitmap_top
// convention (Top measured upward from the baseline).
type Bitmap struct {
	Pix           []byte
	Width, Height int
	Left, Top     int
}

// Outline rasterizes a 26.6-scaled outline (already hinted, if requested)
// into a coverage mask. Returns a zero-value Bitmap for an empty outline or
// a degenerate (zero-area) bounding box.
func Outline(o *outline.Outline) *Bitmap {
	if o.NPoints() == 0 {
		return &Bitmap{}
	}
	bb := o.ControlBox()
	minX := fixed.Int26_6(bb.XMin).FloorToInt()
	minY := fixed.Int26_6(bb.YMin).FloorToInt()
	maxX := fixed.Int26_6(bb.XMax).CeilToInt()
	maxY := fixed.Int26_6(bb.YMax).CeilToInt()
	width, height := maxX-minX, maxY-minY
	if width <= 0 || height <= 0 {
		return &Bitmap{}
	}

	rast := vector.NewRasterizer(width, height)
	rast.DrawOp = draw.Src

	// The rasterizer's coordinate space is row-major (y increasing
	// downward) with the origin at the mask's top-left pixel; outline
	// space is font space (y increasing upward), so Y is both flipped and
	// biased in one step.
	biasX, biasY := float32(-minX), float32(maxY)

	start := 0
	for _, end := range o.Contours {
		emitContour(buildContourPoints(o, start, end, biasX, biasY), rast)
		start = end + 1
	}

	mask := image.NewAlpha(image.Rect(0, 0, width, height))
	rast.Draw(mask, mask.Bounds(), image.Opaque, image.Point{})

	return &Bitmap{Pix: mask.Pix, Width: width, Height: height, Left: minX, Top: maxY}
}

// contourPoint is one outline point already converted to rasterizer space.
type contourPoint struct {
	x, y        float32
	onCurve     bool
	cubicOffCurve bool
}

func buildContourPoints(o *outline.Outline, start, end int, biasX, biasY float32) []contourPoint {
	n := end - start + 1
	pts := make([]contourPoint, n)
	for i := 0; i < n; i++ {
		p := o.Points[start+i]
		t := o.Tags[start+i]
		pts[i] = contourPoint{
			x:             float32(p.X)/64 + biasX,
			y:             -float32(p.Y)/64 + biasY,
			onCurve:       t&outline.TagOnCurve != 0,
			cubicOffCurve: t&outline.TagOnCurve == 0 && t&outline.TagCubic != 0,
		}
	}
	return pts
}

func vec(p contourPoint) f32.Vec2 { return f32.Vec2{p.x, p.y} }

func midpoint(a, b f32.Vec2) f32.Vec2 {
	return f32.Vec2{(a[0] + b[0]) / 2, (a[1] + b[1]) / 2}
}

// emitContour walks one contour's points and issues the matching
// MoveTo/LineTo/QuadTo/CubeTo calls, synthesizing the implied on-curve
// midpoint between two consecutive conic (TrueType) off-curve points —
// PostScript cubic off-curve points never need this since the charstring
// builders always emit them paired with an explicit on-curve point.
func emitContour(pts []contourPoint, rast *vector.Rasterizer) {
	n := len(pts)
	if n == 0 {
		return
	}

	var start f32.Vec2
	switch {
	case pts[0].onCurve:
		start = vec(pts[0])
	case pts[n-1].onCurve:
		start = vec(pts[n-1])
	default:
		start = midpoint(vec(pts[0]), vec(pts[n-1]))
	}
	rast.MoveTo(start)

	i := 0
	for processed := 0; processed < n; {
		p := pts[i%n]
		switch {
		case p.onCurve:
			rast.LineTo(vec(p))
			i++
			processed++
		case p.cubicOffCurve:
			c1 := vec(p)
			c2 := vec(pts[(i+1)%n])
			end := vec(pts[(i+2)%n])
			rast.CubeTo(c1, c2, end)
			i += 3
			processed += 3
		default: // conic off-curve
			ctrl := vec(p)
			next := pts[(i+1)%n]
			if next.onCurve {
				rast.QuadTo(ctrl, vec(next))
				i += 2
				processed += 2
			} else {
				rast.QuadTo(ctrl, midpoint(ctrl, vec(next)))
				i++
				processed++
			}
		}
	}
	rast.ClosePath()
}

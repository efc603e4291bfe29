// Package outline implements the in-memory outline model shared by the
// TrueType and Postscript loaders: points, per-point tags, and contour
// end-indices.
package outline

import "github.com/go-fontcore/fontcore"

// Tag describes one outline point. The low bits encode the point's curve
// role; the high bits record hinter-touch state and contour overlap, so a
// single byte (as in the TrueType glyf table) maps directly onto a Tag.
type Tag uint8

const (
	// TagOnCurve marks an on-curve (anchor) point.
	TagOnCurve Tag = 1 << 0
	// TagCubic marks an off-curve control point belonging to a cubic
	// (PostScript) curve; unset with TagOnCurve clear means a conic
	// (TrueType quadratic) control point.
	TagCubic Tag = 1 << 1
	// TagTouchedX marks a point the hinter has moved along the x axis.
	TagTouchedX Tag = 1 << 2
	// TagTouchedY marks a point the hinter has moved along the y axis.
	TagTouchedY Tag = 1 << 3
	// TagOverlap marks a point belonging to a contour flagged as
	// overlapping a sibling contour (OpenType OVERLAP_SIMPLE /
	// composite-glyph overlap flag).
	TagOverlap Tag = 1 << 4
)

// Point is one point of an outline, in whatever coordinate space the
// outline currently holds (font units, or scaled 26.6 once the TrueType or
// Postscript loader has applied a scale).
type Point struct {
	X, Y int32
}

// Outline is an ordered sequence of points, a parallel sequence of tags, and
// an ordered sequence of contour end-indices. Invariants (enforced by Close
// and checked by Validate): every
// contour end-index is strictly less than len(Points) and strictly greater
// than the previous one; all cubic off-curve points occur in pairs.
type Outline struct {
	Points    []Point
	Tags      []Tag
	Contours  []int // end-index (inclusive) of each contour
	nStarted  int   // index of the first point of the contour currently open
}

// New creates an Outline with preallocated capacity for nPoints points and
// nContours contours.
func New(nPoints, nContours int) *Outline {
	return &Outline{
		Points:   make([]Point, 0, nPoints),
		Tags:     make([]Tag, 0, nPoints),
		Contours: make([]int, 0, nContours),
	}
}

// NPoints returns the number of points currently in the outline.
func (o *Outline) NPoints() int { return len(o.Points) }

// NContours returns the number of closed contours.
func (o *Outline) NContours() int { return len(o.Contours) }

// GrowPoints appends n zero-valued points (tag TagOnCurve cleared) and
// returns the index of the first one, checking against a caller-supplied
// budget (maxp.maxPoints / maxp.maxCompositePoints in the TrueType loader,
// an implementation-chosen bound in the charstring decoder).
func (o *Outline) GrowPoints(n, budget int) (int, error) {
	if budget > 0 && len(o.Points)+n > budget {
		return 0, fontcore.New(fontcore.ModuleOutline, fontcore.CodeTooManyPoints)
	}
	start := len(o.Points)
	for i := 0; i < n; i++ {
		o.Points = append(o.Points, Point{})
		o.Tags = append(o.Tags, 0)
	}
	return start, nil
}

// GrowContours checks that n additional contours fit within a budget
// (maxp.maxContours / maxp.maxCompositeContours; 0 means no limit). It
// allocates nothing.
func (o *Outline) GrowContours(n, budget int) error {
	if budget > 0 && len(o.Contours)+n > budget {
		return fontcore.New(fontcore.ModuleOutline, fontcore.CodeTooManyContours)
	}
	return nil
}

// AddPoint appends one point with the given tag.
func (o *Outline) AddPoint(x, y int32, tag Tag) {
	o.Points = append(o.Points, Point{X: x, Y: y})
	o.Tags = append(o.Tags, tag)
}

// Close records the current contour's last point index (n_points - 1) as a
// new contour end-index. It fails if the contour would be empty (no points
// appended since the previous Close), matching the "every closed contour
// has at least one point" invariant.
func (o *Outline) Close() error {
	if len(o.Points) == o.nStarted {
		return fontcore.New(fontcore.ModuleOutline, fontcore.CodeInvalidOutline)
	}
	o.Contours = append(o.Contours, len(o.Points)-1)
	o.nStarted = len(o.Points)
	return nil
}

// Translate shifts every point in the outline by (dx, dy).
func (o *Outline) Translate(dx, dy int32) {
	for i := range o.Points {
		o.Points[i].X += dx
		o.Points[i].Y += dy
	}
}

// Transform applies a 2x2 matrix (16.16 fixed-point, following the
// TrueType composite-glyph and face-transform convention) to every point:
//
//	x' = (xx*x + xy*y) >> 16
//	y' = (yx*x + yy*y) >> 16
func (o *Outline) Transform(xx, xy, yx, yy int32) {
	for i, p := range o.Points {
		x := int64(xx)*int64(p.X) + int64(xy)*int64(p.Y)
		y := int64(yx)*int64(p.X) + int64(yy)*int64(p.Y)
		o.Points[i].X = int32(x >> 16)
		o.Points[i].Y = int32(y >> 16)
	}
}

// BBox is an axis-aligned bounding rectangle.
type BBox struct {
	XMin, YMin, XMax, YMax int32
}

// ControlBox computes the bounding rectangle of all points, including
// off-curve control points — cheap, and what the TrueType loader grid-fits
// when hinting is active.
func (o *Outline) ControlBox() BBox {
	if len(o.Points) == 0 {
		return BBox{}
	}
	b := BBox{o.Points[0].X, o.Points[0].Y, o.Points[0].X, o.Points[0].Y}
	for _, p := range o.Points[1:] {
		if p.X < b.XMin {
			b.XMin = p.X
		}
		if p.X > b.XMax {
			b.XMax = p.X
		}
		if p.Y < b.YMin {
			b.YMin = p.Y
		}
		if p.Y > b.YMax {
			b.YMax = p.Y
		}
	}
	return b
}

// Validate checks the structural invariants of a finished Outline: contour
// end-indices strictly increasing and in range, and cubic off-curve points
// paired up.
func (o *Outline) Validate() error {
	prev := -1
	for _, e := range o.Contours {
		if e >= len(o.Points) || e <= prev {
			return fontcore.New(fontcore.ModuleOutline, fontcore.CodeInvalidOutline)
		}
		prev = e
	}
	start := 0
	for _, e := range o.Contours {
		run := 0
		for i := start; i <= e; i++ {
			if o.Tags[i]&TagOnCurve == 0 && o.Tags[i]&TagCubic != 0 {
				run++
			} else {
				if run%2 != 0 {
					return fontcore.New(fontcore.ModuleOutline, fontcore.CodeInvalidOutline)
				}
				run = 0
			}
		}
		if run%2 != 0 {
			return fontcore.New(fontcore.ModuleOutline, fontcore.CodeInvalidOutline)
		}
		start = e + 1
	}
	return nil
}

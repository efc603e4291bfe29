package render

import (
	"testing"

	"github.com/go-fontcore/fontcore/outline"
)

// triangleOutline builds a single-contour, on-curve-only triangle in 26.6
// space: (0,0), (640,0), (320,640) - an isosceles triangle filling a
// 10x10 pixel box.
func triangleOutline() *outline.Outline {
	o := outline.New(3, 1)
	o.AddPoint(0, 0, outline.TagOnCurve)
	o.AddPoint(640, 0, outline.TagOnCurve)
	o.AddPoint(320, 640, outline.TagOnCurve)
	o.Close()
	return o
}

func TestOutlineEmptyReturnsZeroBitmap(t *testing.T) {
	o := outline.New(0, 0)
	bmp := Outline(o)
	if bmp.Width != 0 || bmp.Height != 0 || bmp.Pix != nil {
		t.Fatalf("empty outline: got %+v, want zero-value Bitmap", bmp)
	}
}

func TestOutlineDegenerateBBoxReturnsZeroBitmap(t *testing.T) {
	o := outline.New(2, 1)
	o.AddPoint(100, 100, outline.TagOnCurve)
	o.AddPoint(100, 100, outline.TagOnCurve)
	o.Close()
	bmp := Outline(o)
	if bmp.Width != 0 || bmp.Height != 0 {
		t.Fatalf("degenerate bbox: got %dx%d, want 0x0", bmp.Width, bmp.Height)
	}
}

func TestOutlineTriangleProducesSizedBitmap(t *testing.T) {
	bmp := Outline(triangleOutline())
	if bmp.Width != 10 || bmp.Height != 10 {
		t.Fatalf("triangle bitmap dims: got %dx%d, want 10x10", bmp.Width, bmp.Height)
	}
	if bmp.Left != 0 || bmp.Top != 10 {
		t.Fatalf("triangle bitmap origin: got Left=%d Top=%d, want 0,10", bmp.Left, bmp.Top)
	}
	if len(bmp.Pix) != bmp.Width*bmp.Height {
		t.Fatalf("Pix length: got %d, want %d", len(bmp.Pix), bmp.Width*bmp.Height)
	}
	nonZero := false
	for _, v := range bmp.Pix {
		if v != 0 {
			nonZero = true
			break
		}
	}
	if !nonZero {
		t.Fatalf("triangle bitmap: want at least one covered pixel, got all zero")
	}
}

// conicContourOutline builds a single contour with two consecutive conic
// off-curve points, exercising emitContour's implied-on-curve midpoint
// synthesis (the TrueType quadratic-run encoding).
func conicContourOutline() *outline.Outline {
	o := outline.New(4, 1)
	o.AddPoint(0, 0, outline.TagOnCurve)
	o.AddPoint(320, 320, 0)   // conic off-curve
	o.AddPoint(640, 320, 0)   // conic off-curve, consecutive with the above
	o.AddPoint(640, 0, outline.TagOnCurve)
	o.Close()
	return o
}

func TestOutlineConsecutiveConicOffCurvePointsDoesNotPanic(t *testing.T) {
	bmp := Outline(conicContourOutline())
	if bmp.Width <= 0 || bmp.Height <= 0 {
		t.Fatalf("conic contour bitmap: got %dx%d, want positive dims", bmp.Width, bmp.Height)
	}
	if len(bmp.Pix) != bmp.Width*bmp.Height {
		t.Fatalf("Pix length: got %d, want %d", len(bmp.Pix), bmp.Width*bmp.Height)
	}
}

func TestOutlineStartsOnOffCurvePointUsesLastOnCurveStart(t *testing.T) {
	// All three points off-curve/on-curve arranged so the contour begins on
	// an off-curve point and the last point is on-curve, exercising the
	// "last point on-curve" start-point branch in emitContour.
	o := outline.New(3, 1)
	o.AddPoint(320, 640, 0) // conic off-curve, first in the slice
	o.AddPoint(640, 0, outline.TagOnCurve)
	o.AddPoint(0, 0, outline.TagOnCurve)
	o.Close()
	bmp := Outline(o)
	if bmp.Width <= 0 || bmp.Height <= 0 {
		t.Fatalf("bitmap dims: got %dx%d, want positive", bmp.Width, bmp.Height)
	}
}

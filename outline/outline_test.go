package outline

import "testing"

func TestTriangle(t *testing.T) {
	o := New(3, 1)
	o.AddPoint(0, 0, TagOnCurve)
	o.AddPoint(100, 0, TagOnCurve)
	o.AddPoint(50, 100, TagOnCurve)
	if err := o.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := o.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}
	if o.NPoints() != 3 || o.NContours() != 1 {
		t.Fatalf("NPoints=%d NContours=%d", o.NPoints(), o.NContours())
	}
	box := o.ControlBox()
	if box != (BBox{0, 0, 100, 100}) {
		t.Fatalf("ControlBox: got %+v", box)
	}
}

func TestCloseEmptyContourFails(t *testing.T) {
	o := New(0, 0)
	if err := o.Close(); err == nil {
		t.Fatalf("Close on empty contour: want error, got nil")
	}
}

func TestValidateRejectsBadContourOrder(t *testing.T) {
	o := New(2, 1)
	o.AddPoint(0, 0, TagOnCurve)
	o.AddPoint(1, 1, TagOnCurve)
	o.Contours = append(o.Contours, 0, 0) // second end-index not > previous
	if err := o.Validate(); err == nil {
		t.Fatalf("Validate: want error for non-increasing contour ends")
	}
}

func TestValidateRejectsUnpairedCubicControl(t *testing.T) {
	o := New(2, 1)
	o.AddPoint(0, 0, TagOnCurve)
	o.AddPoint(1, 1, TagCubic) // single cubic control point, no partner
	o.Contours = append(o.Contours, 1)
	if err := o.Validate(); err == nil {
		t.Fatalf("Validate: want error for unpaired cubic control point")
	}
}

func TestTranslateAndTransform(t *testing.T) {
	o := New(1, 0)
	o.AddPoint(10, 20, TagOnCurve)
	o.Translate(5, -5)
	if o.Points[0] != (Point{15, 15}) {
		t.Fatalf("Translate: got %+v", o.Points[0])
	}
	// Identity transform in 16.16 fixed point.
	o.Transform(1<<16, 0, 0, 1<<16)
	if o.Points[0] != (Point{15, 15}) {
		t.Fatalf("Transform identity: got %+v", o.Points[0])
	}
	// Scale by 2.
	o.Transform(2<<16, 0, 0, 2<<16)
	if o.Points[0] != (Point{30, 30}) {
		t.Fatalf("Transform 2x: got %+v", o.Points[0])
	}
}

func TestGrowPointsBudget(t *testing.T) {
	o := New(0, 0)
	if _, err := o.GrowPoints(5, 3); err == nil {
		t.Fatalf("GrowPoints over budget: want TooManyPoints, got nil")
	}
	start, err := o.GrowPoints(3, 3)
	if err != nil || start != 0 {
		t.Fatalf("GrowPoints within budget: start=%d err=%v", start, err)
	}
}

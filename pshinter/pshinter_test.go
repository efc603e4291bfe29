package pshinter

import (
	"testing"

	"github.com/go-fontcore/fontcore/math/fixed"
)

func TestDimensionSetScaleIdentity(t *testing.T) {
	d := &Dimension{Widths: []Width{{Org: 100}, {Org: 200}}}
	d.SetScale(1 << 16)
	if d.Widths[0].Cur != 100 || d.Widths[1].Cur != 200 {
		t.Fatalf("SetScale identity: got Cur=%d,%d, want 100,200", d.Widths[0].Cur, d.Widths[1].Cur)
	}
}

func TestDimensionSetScaleDoubles(t *testing.T) {
	d := &Dimension{Widths: []Width{{Org: 64}}}
	d.SetScale(2 << 16)
	if d.Widths[0].Cur != 128 {
		t.Fatalf("SetScale 2x: got Cur=%d, want 128", d.Widths[0].Cur)
	}
}

func TestSnapWidthMatchesNearestStandard(t *testing.T) {
	d := &Dimension{Widths: []Width{{Org: 100}}}
	d.SetScale(1 << 16)
	got := d.SnapWidth(100)
	if got != 100 {
		t.Fatalf("SnapWidth(100) against a 100-unit standard: got %d, want 100", got)
	}
}

func TestSnapWidthWithNoStandardsLeavesWidthUnchanged(t *testing.T) {
	d := &Dimension{}
	d.SetScale(1 << 16)
	got := d.SnapWidth(77)
	if got != 77 {
		t.Fatalf("SnapWidth with no standard widths: got %d, want 77 (unaltered)", got)
	}
}

func TestBluesSnapWithinZone(t *testing.T) {
	bl := &Blues{Top: []BlueZone{{OrgRef: 512, OrgDelta: 64}}}
	bl.SetScale(1 << 16)
	got, ok := bl.Snap(530, 0)
	if !ok {
		t.Fatalf("Snap(530): want ok=true, fell inside [512,576]")
	}
	if got != 512 {
		t.Fatalf("Snap(530): got %d, want 512 (the zone's fitted reference)", got)
	}
}

func TestBluesSnapOutsideZoneFails(t *testing.T) {
	bl := &Blues{Top: []BlueZone{{OrgRef: 512, OrgDelta: 64}}}
	bl.SetScale(1 << 16)
	y, ok := bl.Snap(600, 0)
	if ok {
		t.Fatalf("Snap(600): want ok=false, 600 is outside [512,576]")
	}
	if y != 600 {
		t.Fatalf("Snap(600) miss: want the original y returned unchanged, got %d", y)
	}
}

func TestBluesSnapFuzzExtendsRange(t *testing.T) {
	bl := &Blues{Top: []BlueZone{{OrgRef: 512, OrgDelta: 64}}}
	bl.SetScale(1 << 16)
	if _, ok := bl.Snap(580, 0); ok {
		t.Fatalf("Snap(580, fuzz=0): want ok=false, 580 is past the zone's 576 top")
	}
	if _, ok := bl.Snap(580, 10); !ok {
		t.Fatalf("Snap(580, fuzz=10): want ok=true, fuzz should extend the zone to 586")
	}
}

func TestBluesSetScaleDoublesFitRef(t *testing.T) {
	bl := &Blues{Top: []BlueZone{{OrgRef: 512, OrgDelta: 64}}}
	bl.SetScale(2 << 16)
	if bl.Top[0].FitRef != 1024 {
		t.Fatalf("FitRef after 2x scale: got %d, want 1024", bl.Top[0].FitRef)
	}
}

func TestInsertBlueZoneSortsByReference(t *testing.T) {
	bl := &Blues{}
	InsertBlueZone(bl, fixed.Int26_6(300), fixed.Int26_6(5))
	InsertBlueZone(bl, fixed.Int26_6(100), fixed.Int26_6(5))
	InsertBlueZone(bl, fixed.Int26_6(200), fixed.Int26_6(5))
	if len(bl.Top) != 3 {
		t.Fatalf("Top: got %d zones, want 3", len(bl.Top))
	}
	want := []fixed.Int26_6{100, 200, 300}
	for i, w := range want {
		if bl.Top[i].OrgRef != w {
			t.Fatalf("Top[%d].OrgRef: got %d, want %d", i, bl.Top[i].OrgRef, w)
		}
	}
}

func TestInsertBlueZoneMergesSameReferenceKeepingLargerMagnitude(t *testing.T) {
	bl := &Blues{}
	InsertBlueZone(bl, fixed.Int26_6(100), fixed.Int26_6(5))
	InsertBlueZone(bl, fixed.Int26_6(100), fixed.Int26_6(10))
	InsertBlueZone(bl, fixed.Int26_6(100), fixed.Int26_6(3))
	if len(bl.Top) != 1 {
		t.Fatalf("Top: got %d zones, want 1 (merged)", len(bl.Top))
	}
	if bl.Top[0].OrgDelta != 10 {
		t.Fatalf("merged OrgDelta: got %d, want 10 (the largest-magnitude insert)", bl.Top[0].OrgDelta)
	}
}

func TestInsertBlueZoneNegativeDeltaGoesToBottom(t *testing.T) {
	bl := &Blues{}
	InsertBlueZone(bl, fixed.Int26_6(100), fixed.Int26_6(-5))
	if len(bl.Bottom) != 1 || len(bl.Top) != 0 {
		t.Fatalf("negative delta: want 1 Bottom zone and 0 Top zones, got Top=%d Bottom=%d", len(bl.Top), len(bl.Bottom))
	}
}

package face

import (
	"github.com/go-fontcore/fontcore/cff"
	"github.com/go-fontcore/fontcore/math/fixed"
	"github.com/go-fontcore/fontcore/pshinter"
	"github.com/go-fontcore/fontcore/type1"
)

// buildDimension constructs a standard-width snapping table from a Private
// dict's StdHW/StdVW plus StemSnapH/StemSnapV operands, per
// psh_globals_new's per-axis width table construction.
func buildDimension(std float64, snap []float64) *pshinter.Dimension {
	d := &pshinter.Dimension{}
	seen := make(map[float64]bool)
	add := func(v float64) {
		if v <= 0 || seen[v] {
			return
		}
		seen[v] = true
		d.Widths = append(d.Widths, pshinter.Width{Org: fixed.Int26_6(roundCoord(v))})
	}
	add(std)
	for _, v := range snap {
		add(v)
	}
	return d
}

// buildBlues converts a Private dict's BlueValues/OtherBlues pair lists
// into pshinter's reference+delta zone table, per psh_blues_set_zones_0:
// BlueValues alternates (bottom, top) edges for the baseline and overshoot
// zones, OtherBlues alternates (bottom, top) edges for descender zones.
func buildBlues(blueValues, otherBlues []float64) *pshinter.Blues {
	bl := &pshinter.Blues{}
	for i := 0; i+1 < len(blueValues); i += 2 {
		lo, hi := blueValues[i], blueValues[i+1]
		pshinter.InsertBlueZone(bl, fixed.Int26_6(roundCoord(lo)), fixed.Int26_6(roundCoord(hi-lo)))
	}
	for i := 0; i+1 < len(otherBlues); i += 2 {
		lo, hi := otherBlues[i], otherBlues[i+1]
		pshinter.InsertBlueZone(bl, fixed.Int26_6(roundCoord(hi)), fixed.Int26_6(roundCoord(lo-hi)))
	}
	return bl
}

// psHinter bundles the stem-width and blue-zone tables a CFF/Type 1 size
// scales once and every glyph load of that size reuses.
type psHinter struct {
	DimH, DimV *pshinter.Dimension
	Blues      *pshinter.Blues
}

func newCFFHinter(f *cff.Font, scale fixed.Int16_16) *psHinter {
	dimH, dimV := buildDimension(f.StdHW, f.StemSnapH), buildDimension(f.StdVW, f.StemSnapV)
	dimH.SetScale(scale)
	dimV.SetScale(scale)
	bl := buildBlues(f.BlueValues, f.OtherBlues)
	bl.SetScale(scale)
	return &psHinter{DimH: dimH, DimV: dimV, Blues: bl}
}

func newType1Hinter(f *type1.Font, scale fixed.Int16_16) *psHinter {
	dimH, dimV := buildDimension(f.StdHW, f.StemSnapH), buildDimension(f.StdVW, f.StemSnapV)
	dimH.SetScale(scale)
	dimV.SetScale(scale)
	bl := buildBlues(f.BlueValues, f.OtherBlues)
	bl.SetScale(scale)
	return &psHinter{DimH: dimH, DimV: dimV, Blues: bl}
}

// snapY returns the blue-zone-aligned device-space Y for an on-curve
// point's original (font-unit) Y, or scaledY unchanged if no zone covers
// it, matching pshalgo3.c's blue-zone pass (the stem-edge interpolation
// pass it also runs is out of scope; see DESIGN.md).
func (h *psHinter) snapY(origY, scaledY int32) int32 {
	if h == nil || h.Blues == nil {
		return scaledY
	}
	if snapped, ok := h.Blues.Snap(fixed.Int26_6(origY), fixed.Int26_6(1)); ok {
		return int32(snapped)
	}
	return scaledY
}

// Package pshinter implements the PostScript hinter's global-metrics
// snapping: standard-width stem snapping and blue-zone alignment, the two
// adjustments FreeType's pshglob.c computes once per scaled size and
// pshalgo3.c applies per glyph. Grounded on
// original_source/src/pshinter/pshglob.c's psh_globals_new (standard
// width/height table construction from the Private dict's
// StandardWidth/StandardHeight/StemSnapH/StemSnapV) and
// psh_dimension_snap_width (the nearest-standard-width search and the
// 0x21 (26.6) minimum-distance floor/ceiling it applies after matching).
// The full topological stem-hypothesis algorithm in pshalgo3.c (stem zone
// detection from charstring hint operators, interpolation of zones
// between hinted edges) is out of scope — see DESIGN.md for why — and
// this package instead exposes the two adjustments as reusable functions.
// The Type 1/CFF glyph loaders apply Blues.Snap to outline points that fall
// in a blue zone; they do not call SnapWidth.
package pshinter

import "github.com/go-fontcore/fontcore/math/fixed"

// Width is one entry of a standard-width/height table: its design-space
// (font unit) value, and its scaled, grid-fit device-space value.
type Width struct {
	Org fixed.Int26_6
	Cur fixed.Int26_6
	Fit fixed.Int26_6
}

// Dimension holds one axis's (horizontal or vertical) standard widths and
// the scale currently applied to them.
type Dimension struct {
	Widths    []Width
	ScaleMult fixed.Int16_16
}

// SetScale rescales every width to the dimension's current pixels-per-em
// scale, per psh_globals_scale_widths.
func (d *Dimension) SetScale(scale fixed.Int16_16) {
	d.ScaleMult = scale
	for i := range d.Widths {
		d.Widths[i].Cur = fixed.MulFix(int32(d.Widths[i].Org), scale)
		d.Widths[i].Fit = d.Widths[i].Cur.Round()
	}
}

// SnapWidth scales orgWidth (in font units), picks the standard width whose
// scaled value is nearest to it and closer than 98 (26.6), and moves the
// scaled width toward that reference by at most 0x21 (26.6), stopping at
// the reference, per psh_dimension_snap_width. With no standard that
// close, the scaled width is returned unchanged.
func (d *Dimension) SnapWidth(orgWidth fixed.Int26_6) fixed.Int26_6 {
	width := fixed.MulFix(int32(orgWidth), d.ScaleMult)
	best := fixed.Int26_6(64 + 32 + 2)
	reference := width

	for _, w := range d.Widths {
		dist := width - w.Cur
		if dist < 0 {
			dist = -dist
		}
		if dist < best {
			best = dist
			reference = w.Cur
		}
	}

	if width >= reference {
		width -= 0x21
		if width < reference {
			width = reference
		}
	} else {
		width += 0x21
		if width > reference {
			width = reference
		}
	}
	return width
}

// BlueZone is one top or bottom blue zone: an original-design reference
// position and the overshoot extent (positive for a top zone, negative for
// a bottom zone) recorded alongside it in
// the Private dict's BlueValues/OtherBlues arrays.
type BlueZone struct {
	OrgRef   fixed.Int26_6
	OrgDelta fixed.Int26_6
	Scale    fixed.Int16_16
	FitRef   fixed.Int26_6 // scaled + grid-fit reference, set by SetScale
}

// Blues holds a font's normal (non-family) top/bottom blue zones.
type Blues struct {
	Top, Bottom []BlueZone
	Scale       fixed.Int16_16
}

// SetScale rescales and grid-fits every zone's reference position.
func (bl *Blues) SetScale(scale fixed.Int16_16) {
	bl.Scale = scale
	for _, zones := range [][]BlueZone{bl.Top, bl.Bottom} {
		for i := range zones {
			zones[i].Scale = scale
			zones[i].FitRef = fixed.MulFix(int32(zones[i].OrgRef), scale).Round()
		}
	}
}

// Snap returns the blue-zone-aligned y (in 26.6 device space) for a point
// whose original (font-unit) y is orgY, or ok=false if no zone captures
// it. Overshoot suppression — forcing an alignment zone's curve extremum
// to the flat reference rather than its natural rounded position — is
// exactly what FreeType's hinter uses blue zones for.
func (bl *Blues) Snap(orgY fixed.Int26_6, fuzz fixed.Int26_6) (fixed.Int26_6, bool) {
	for _, zones := range [][]BlueZone{bl.Top, bl.Bottom} {
		for _, z := range zones {
			lo, hi := z.OrgRef, z.OrgRef+z.OrgDelta
			if lo > hi {
				lo, hi = hi, lo
			}
			if orgY >= lo-fuzz && orgY <= hi+fuzz {
				return z.FitRef, true
			}
		}
	}
	return orgY, false
}

// InsertBlueZone inserts a (reference, delta) pair into the appropriate
// top/bottom table (top for a non-negative delta, bottom otherwise),
// keeping the table sorted by reference and merging same-reference
// entries by keeping the larger-magnitude delta, per
// psh_blues_set_zones_0.
func InsertBlueZone(bl *Blues, reference, delta fixed.Int26_6) {
	zone := BlueZone{OrgRef: reference, OrgDelta: delta}
	table := &bl.Top
	if delta < 0 {
		table = &bl.Bottom
	}
	for i, z := range *table {
		if reference < z.OrgRef {
			*table = insertAt(*table, i, zone)
			return
		}
		if reference == z.OrgRef {
			if (delta < 0 && delta < z.OrgDelta) || (delta >= 0 && delta > z.OrgDelta) {
				(*table)[i].OrgDelta = delta
			}
			return
		}
	}
	*table = append(*table, zone)
}

func insertAt(s []BlueZone, i int, v BlueZone) []BlueZone {
	s = append(s, BlueZone{})
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

package interp

import (
	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/math/fixed"
)

// project returns the signed projection of (p1-p2) onto the current
// projection vector, in 26.6 units. Both vectors involved are unit 2.14
// values, so the dot product needs a final right-shift of 14.
func project(v Vector, dx, dy fixed.Int26_6) fixed.Int26_6 {
	return fixed.Int26_6((int64(dx)*int64(v.X) + int64(dy)*int64(v.Y)) >> 14)
}

// movePoint displaces the point at (zone, idx) by distance along the
// current freedom vector, marking it touched on whichever axes the
// freedom vector has a nonzero component.
func movePoint(z *Zone, idx int, v Vector, distance fixed.Int26_6) {
	dx := fixed.Int26_6((int64(distance) * int64(v.X)) >> 14)
	dy := fixed.Int26_6((int64(distance) * int64(v.Y)) >> 14)
	z.Cur[idx].X += dx
	z.Cur[idx].Y += dy
	if v.X != 0 {
		z.Touched[idx] |= touchX
	}
	if v.Y != 0 {
		z.Touched[idx] |= touchY
	}
}

func (c *Context) curDistance(zp *Zone, zp2 *Zone, p1, p2 int) (fixed.Int26_6, error) {
	if p1 < 0 || p1 >= len(zp.Cur) || p2 < 0 || p2 >= len(zp2.Cur) {
		return 0, c.fail(fontcore.CodeInvalidReferencePoint)
	}
	dx := zp.Cur[p1].X - zp2.Cur[p2].X
	dy := zp.Cur[p1].Y - zp2.Cur[p2].Y
	return project(c.GS.ProjectionVector, dx, dy), nil
}

// round applies the current rounding state to a 26.6 distance.
func (c *Context) round(d fixed.Int26_6) fixed.Int26_6 {
	neg := d < 0
	if neg {
		d = -d
	}
	var r fixed.Int26_6
	switch c.GS.RoundState {
	case RoundToGrid:
		r = d.Round()
	case RoundToHalfGrid:
		r = d.Floor() + 32
	case RoundToDoubleGrid:
		r = (d + 16) &^ 31
	case RoundDownToGrid:
		r = d.Floor()
	case RoundUpToGrid:
		r = d.Ceil()
	case RoundOff:
		r = d
	default: // super rounds approximated as round-to-grid
		r = d.Round()
	}
	if neg {
		return -r
	}
	return r
}

func (c *Context) execMDAP(op byte) error {
	p, err := c.pop()
	if err != nil {
		return err
	}
	zp0 := c.zone(c.GS.Zp0)
	if zp0 == nil || int(p) < 0 || int(p) >= len(zp0.Cur) {
		return c.fail(fontcore.CodeInvalidReferencePoint)
	}
	if op == opMDAP1 { // round
		d, err := c.curDistance(zp0, zp0, int(p), int(p))
		if err != nil {
			return err
		}
		rd := c.round(d)
		movePoint(zp0, int(p), c.GS.FreedomVector, rd-d)
	}
	c.GS.RP0, c.GS.RP1 = int(p), int(p)
	return nil
}

func (c *Context) execMIAP(op byte) error {
	cvtIdx, e1 := c.pop()
	p, e2 := c.pop()
	if e1 != nil {
		return e1
	}
	if e2 != nil {
		return e2
	}
	if int(cvtIdx) < 0 || int(cvtIdx) >= len(c.CVT) {
		return c.fail(fontcore.CodeInvalidCVTIndex)
	}
	target := c.CVT[cvtIdx]
	zp0 := c.zone(c.GS.Zp0)
	if zp0 == nil || int(p) < 0 || int(p) >= len(zp0.Cur) {
		return c.fail(fontcore.CodeInvalidReferencePoint)
	}
	cur, err := c.curDistance(zp0, zp0, int(p), int(p))
	if err != nil {
		return err
	}
	if op == opMIAP1 {
		if fixed.Int26_6(abs32(int32(target-cur))) < c.GS.ControlValueCutIn {
			target = c.round(target)
		} else {
			target = c.round(cur)
		}
	}
	movePoint(zp0, int(p), c.GS.FreedomVector, target-cur)
	c.GS.RP0, c.GS.RP1 = int(p), int(p)
	return nil
}

func abs32(v int32) int32 {
	if v < 0 {
		return -v
	}
	return v
}

func (c *Context) execMSIRP(op byte) error {
	d, e1 := c.pop()
	p, e2 := c.pop()
	if e1 != nil {
		return e1
	}
	if e2 != nil {
		return e2
	}
	zp1 := c.zone(c.GS.Zp1)
	zp0 := c.zone(c.GS.Zp0)
	if zp1 == nil || zp0 == nil || int(p) < 0 || int(p) >= len(zp1.Cur) {
		return c.fail(fontcore.CodeInvalidReferencePoint)
	}
	cur, err := c.curDistance(zp1, zp0, int(p), c.GS.RP0)
	if err != nil {
		return err
	}
	movePoint(zp1, int(p), c.GS.FreedomVector, fixed.Int26_6(d)-cur)
	c.GS.RP1 = c.GS.RP0
	c.GS.RP2 = int(p)
	if op == opMSIRP1 {
		c.GS.RP0 = int(p)
	}
	return nil
}

func (c *Context) execAlignRP() error {
	n := int(c.GS.Loop)
	if n <= 0 {
		n = 1
	}
	vs, err := c.popN(n)
	if err != nil {
		return err
	}
	zp1 := c.zone(c.GS.Zp1)
	zp0 := c.zone(c.GS.Zp0)
	if zp1 == nil || zp0 == nil {
		return c.fail(fontcore.CodeInvalidReferencePoint)
	}
	for _, pv := range vs {
		p := int(pv)
		if p < 0 || p >= len(zp1.Cur) {
			return c.fail(fontcore.CodeInvalidReferencePoint)
		}
		cur, err := c.curDistance(zp1, zp0, p, c.GS.RP0)
		if err != nil {
			return err
		}
		movePoint(zp1, p, c.GS.FreedomVector, -cur)
	}
	c.GS.Loop = 1
	return nil
}

func (c *Context) execAlignPts() error {
	p2, e1 := c.pop()
	p1, e2 := c.pop()
	if e1 != nil {
		return e1
	}
	if e2 != nil {
		return e2
	}
	zp1 := c.zone(c.GS.Zp1)
	zp0 := c.zone(c.GS.Zp0)
	if zp1 == nil || zp0 == nil || int(p1) < 0 || int(p1) >= len(zp0.Cur) || int(p2) < 0 || int(p2) >= len(zp1.Cur) {
		return c.fail(fontcore.CodeInvalidReferencePoint)
	}
	d, err := c.curDistance(zp0, zp1, int(p1), int(p2))
	if err != nil {
		return err
	}
	half := d / 2
	movePoint(zp0, int(p1), c.GS.FreedomVector, -half)
	movePoint(zp1, int(p2), c.GS.FreedomVector, d-half)
	return nil
}

// mdrpFlags decodes the five flag bits packed into an MDRP/MIRP opcode:
// bit4 sets RP0, bit3 is "minimum distance", bit2 is "round", bits1-0
// select the distance-engine color (black/white/gray — cut-in behavior we
// approximate uniformly).
func mdrpFlags(op byte) (setRP0, minDist, round bool) {
	setRP0 = op&0x10 != 0
	minDist = op&0x08 != 0
	round = op&0x04 != 0
	return
}

func (c *Context) execMDRP(op byte) error {
	p, err := c.pop()
	if err != nil {
		return err
	}
	setRP0, minDist, round := mdrpFlags(op)
	zp1 := c.zone(c.GS.Zp1)
	zp0 := c.zone(c.GS.Zp0)
	if zp1 == nil || zp0 == nil || int(p) < 0 || int(p) >= len(zp1.Cur) {
		return c.fail(fontcore.CodeInvalidReferencePoint)
	}
	origDist, err := c.origDistance(zp1, zp0, int(p), c.GS.RP0)
	if err != nil {
		return err
	}
	distance := origDist
	if round {
		distance = c.round(distance)
	}
	if minDist {
		if origDist >= 0 && distance < c.GS.MinDistance {
			distance = c.GS.MinDistance
		} else if origDist < 0 && distance > -c.GS.MinDistance {
			distance = -c.GS.MinDistance
		}
	}
	movePoint(zp1, int(p), c.GS.FreedomVector, distance-func() fixed.Int26_6 {
		d, _ := c.curDistance(zp1, zp0, int(p), c.GS.RP0)
		return d
	}())
	c.GS.RP1 = c.GS.RP0
	c.GS.RP2 = int(p)
	if setRP0 {
		c.GS.RP0 = int(p)
	}
	return nil
}

func (c *Context) execMIRP(op byte) error {
	cvtIdx, e1 := c.pop()
	p, e2 := c.pop()
	if e1 != nil {
		return e1
	}
	if e2 != nil {
		return e2
	}
	if int(cvtIdx) < 0 || int(cvtIdx) >= len(c.CVT) {
		return c.fail(fontcore.CodeInvalidCVTIndex)
	}
	setRP0, minDist, round := mdrpFlags(op)
	zp1 := c.zone(c.GS.Zp1)
	zp0 := c.zone(c.GS.Zp0)
	if zp1 == nil || zp0 == nil || int(p) < 0 || int(p) >= len(zp1.Cur) {
		return c.fail(fontcore.CodeInvalidReferencePoint)
	}
	cvtDist := c.CVT[cvtIdx]
	if c.GS.SingleWidthCutIn > 0 && fixed.Int26_6(abs32(int32(cvtDist-c.GS.SingleWidthValue))) < c.GS.SingleWidthCutIn {
		if cvtDist >= 0 {
			cvtDist = c.GS.SingleWidthValue
		} else {
			cvtDist = -c.GS.SingleWidthValue
		}
	}
	curDist, err := c.curDistance(zp1, zp0, int(p), c.GS.RP0)
	if err != nil {
		return err
	}
	distance := cvtDist
	if round {
		distance = c.round(distance)
	}
	if minDist {
		if curDist >= 0 && distance < c.GS.MinDistance {
			distance = c.GS.MinDistance
		} else if curDist < 0 && distance > -c.GS.MinDistance {
			distance = -c.GS.MinDistance
		}
	}
	movePoint(zp1, int(p), c.GS.FreedomVector, distance-curDist)
	c.GS.RP1 = c.GS.RP0
	c.GS.RP2 = int(p)
	if setRP0 {
		c.GS.RP0 = int(p)
	}
	return nil
}

func (c *Context) origDistance(zp *Zone, zp2 *Zone, p1, p2 int) (fixed.Int26_6, error) {
	if p1 < 0 || p1 >= len(zp.Orig) || p2 < 0 || p2 >= len(zp2.Orig) {
		return 0, c.fail(fontcore.CodeInvalidReferencePoint)
	}
	dx := zp.Orig[p1].X - zp2.Orig[p2].X
	dy := zp.Orig[p1].Y - zp2.Orig[p2].Y
	return project(c.GS.DualProjVector, dx, dy), nil
}

func (c *Context) execSHP(op byte) error {
	n := int(c.GS.Loop)
	if n <= 0 {
		n = 1
	}
	vs, err := c.popN(n)
	if err != nil {
		return err
	}
	refZone := c.zone(c.GS.Zp1)
	refP := c.GS.RP2
	zoneSel := c.GS.Zp1
	if op == opSHP1 {
		refZone = c.zone(c.GS.Zp0)
		refP = c.GS.RP1
		zoneSel = c.GS.Zp0
	}
	_ = zoneSel
	if refZone == nil || refP < 0 || refP >= len(refZone.Cur) {
		return c.fail(fontcore.CodeInvalidReferencePoint)
	}
	dx := refZone.Cur[refP].X - refZone.Orig[refP].X
	dy := refZone.Cur[refP].Y - refZone.Orig[refP].Y
	target := c.zone(c.GS.Zp2)
	for _, pv := range vs {
		p := int(pv)
		if target == nil || p < 0 || p >= len(target.Cur) {
			return c.fail(fontcore.CodeInvalidReferencePoint)
		}
		target.Cur[p].X += dx
		target.Cur[p].Y += dy
		target.Touched[p] |= touchX | touchY
	}
	c.GS.Loop = 1
	return nil
}

func (c *Context) execSHPIX() error {
	n := int(c.GS.Loop)
	if n <= 0 {
		n = 1
	}
	amount, err := c.pop()
	if err != nil {
		return err
	}
	vs, err := c.popN(n)
	if err != nil {
		return err
	}
	target := c.zone(c.GS.Zp2)
	for _, pv := range vs {
		p := int(pv)
		if target == nil || p < 0 || p >= len(target.Cur) {
			return c.fail(fontcore.CodeInvalidReferencePoint)
		}
		movePoint(target, p, c.GS.FreedomVector, fixed.Int26_6(amount))
	}
	c.GS.Loop = 1
	return nil
}

func (c *Context) execIP() error {
	n := int(c.GS.Loop)
	if n <= 0 {
		n = 1
	}
	vs, err := c.popN(n)
	if err != nil {
		return err
	}
	zp1 := c.zone(c.GS.Zp1)
	zp0 := c.zone(c.GS.Zp0)
	zp2 := c.zone(c.GS.Zp2)
	if zp1 == nil || zp0 == nil || zp2 == nil {
		return c.fail(fontcore.CodeInvalidReferencePoint)
	}
	rp1, rp2 := c.GS.RP1, c.GS.RP2
	if rp1 < 0 || rp1 >= len(zp0.Orig) || rp2 < 0 || rp2 >= len(zp1.Orig) {
		return c.fail(fontcore.CodeInvalidReferencePoint)
	}
	origTotal := project(c.GS.DualProjVector, zp1.Orig[rp2].X-zp0.Orig[rp1].X, zp1.Orig[rp2].Y-zp0.Orig[rp1].Y)
	curTotal := project(c.GS.ProjectionVector, zp1.Cur[rp2].X-zp0.Cur[rp1].X, zp1.Cur[rp2].Y-zp0.Cur[rp1].Y)
	for _, pv := range vs {
		p := int(pv)
		if p < 0 || p >= len(zp2.Cur) {
			return c.fail(fontcore.CodeInvalidReferencePoint)
		}
		origP := project(c.GS.DualProjVector, zp2.Orig[p].X-zp0.Orig[rp1].X, zp2.Orig[p].Y-zp0.Orig[rp1].Y)
		var ratio fixed.Int26_6
		if origTotal != 0 {
			ratio = fixed.Int26_6((int64(origP) * int64(64)) / int64(origTotal))
		}
		newRel := fixed.Int26_6((int64(curTotal) * int64(ratio)) / 64)
		curP := project(c.GS.ProjectionVector, zp2.Cur[p].X-zp0.Cur[rp1].X, zp2.Cur[p].Y-zp0.Cur[rp1].Y)
		movePoint(zp2, p, c.GS.FreedomVector, newRel-curP)
	}
	c.GS.Loop = 1
	return nil
}

func (c *Context) execUTP() error {
	p, err := c.pop()
	if err != nil {
		return err
	}
	z := c.zone(c.GS.Zp0)
	if z == nil || int(p) < 0 || int(p) >= len(z.Touched) {
		return c.fail(fontcore.CodeInvalidReferencePoint)
	}
	z.Touched[p] = 0
	return nil
}

func (c *Context) execFlipPt() error {
	n := int(c.GS.Loop)
	if n <= 0 {
		n = 1
	}
	vs, err := c.popN(n)
	if err != nil {
		return err
	}
	z := c.zone(c.GS.Zp0)
	for _, pv := range vs {
		p := int(pv)
		if z == nil || p < 0 || p >= len(z.OnCurve) {
			return c.fail(fontcore.CodeInvalidReferencePoint)
		}
		z.OnCurve[p] = !z.OnCurve[p]
	}
	c.GS.Loop = 1
	return nil
}

func (c *Context) execFlipRange(on bool) error {
	hi, e1 := c.pop()
	lo, e2 := c.pop()
	if e1 != nil {
		return e1
	}
	if e2 != nil {
		return e2
	}
	z := c.zone(c.GS.Zp0)
	if z == nil {
		return c.fail(fontcore.CodeInvalidReferencePoint)
	}
	for p := int(lo); p <= int(hi); p++ {
		if p < 0 || p >= len(z.OnCurve) {
			return c.fail(fontcore.CodeInvalidReferencePoint)
		}
		z.OnCurve[p] = on
	}
	return nil
}

// execIUP interpolates untouched points between touched neighbors within
// each contour, on the X axis (op==IUP[0]) or Y axis (op==IUP[1]) — the
// final hinting step applied to every simple glyph.
func (c *Context) execIUP(op byte) error {
	z := c.Glyph
	if z == nil {
		return nil
	}
	mask := uint8(touchY)
	if op == opIUP0 {
		mask = touchX
	}
	start := 0
	for _, end := range z.Contours {
		iupContour(z, start, end, mask, op == opIUP0)
		start = end + 1
	}
	return nil
}

func iupContour(z *Zone, start, end int, mask uint8, xAxis bool) {
	n := end - start + 1
	if n <= 0 {
		return
	}
	touched := -1
	first := -1
	for i := start; i <= end; i++ {
		if z.Touched[i]&mask != 0 {
			if first < 0 {
				first = i
			}
			if touched >= 0 {
				interpolateRun(z, touched, i, start, end, xAxis)
			}
			touched = i
		}
	}
	if first < 0 {
		return // no touched points in this contour; leave untouched
	}
	if touched >= 0 {
		interpolateWrap(z, touched, first, start, end, xAxis)
	}
}

func interpolateRun(z *Zone, a, b, start, end int, xAxis bool) {
	for i := a + 1; i < b; i++ {
		interpolateOne(z, i, a, b, xAxis)
	}
}

func interpolateWrap(z *Zone, a, first, start, end int, xAxis bool) {
	n := end - start + 1
	for k := 1; ; k++ {
		i := a + k
		if i > end {
			i = start + (i - end - 1)
		}
		if i == first {
			break
		}
		interpolateOne(z, i, a, first, xAxis)
		if k > n {
			break
		}
	}
}

func interpolateOne(z *Zone, i, a, b int, xAxis bool) {
	var origI, origA, origB, curA, curB fixed.Int26_6
	if xAxis {
		origI, origA, origB = z.Orig[i].X, z.Orig[a].X, z.Orig[b].X
		curA, curB = z.Cur[a].X, z.Cur[b].X
	} else {
		origI, origA, origB = z.Orig[i].Y, z.Orig[a].Y, z.Orig[b].Y
		curA, curB = z.Cur[a].Y, z.Cur[b].Y
	}
	var result fixed.Int26_6
	if origA == origB {
		result = curA
	} else if origI <= minFixed(origA, origB) {
		if origA < origB {
			result = curA + (origI - origA)
		} else {
			result = curB + (origI - origB)
		}
	} else if origI >= maxFixed(origA, origB) {
		if origA < origB {
			result = curB + (origI - origB)
		} else {
			result = curA + (origI - origA)
		}
	} else {
		lo, hi, curLo, curHi := origA, origB, curA, curB
		if lo > hi {
			lo, hi = hi, lo
			curLo, curHi = curHi, curLo
		}
		ratio := int64(origI-lo) * int64(curHi-curLo)
		if hi != lo {
			ratio /= int64(hi - lo)
		}
		result = curLo + fixed.Int26_6(ratio)
	}
	if xAxis {
		z.Cur[i].X = result
	} else {
		z.Cur[i].Y = result
	}
}

func minFixed(a, b fixed.Int26_6) fixed.Int26_6 {
	if a < b {
		return a
	}
	return b
}

func maxFixed(a, b fixed.Int26_6) fixed.Int26_6 {
	if a > b {
		return a
	}
	return b
}

// execDelta implements DELTAP1-3/DELTAC1-3: a sequence of (point-or-cvt,
// arg) pairs, each applying a fixed nudge if the current ppem matches the
// encoded target (DeltaBase selects the ppem at which arg 0 means "this
// ppem"; the four high bits of arg select which of 16 ppems, the low bits
// the signed eighths-of-a-pixel magnitude).
func (c *Context) execDelta(op byte) error {
	n, err := c.pop()
	if err != nil {
		return err
	}
	isCVT := op == opDELTAC1 || op == opDELTAC2 || op == opDELTAC3
	base := c.GS.DeltaBase
	switch op {
	case opDELTAP2, opDELTAC2:
		base += 16
	case opDELTAP3, opDELTAC3:
		base += 32
	}
	var zp0 *Zone
	if !isCVT {
		zp0 = c.zone(c.GS.Zp0)
	}
	for i := int32(0); i < n; i++ {
		vs, err := c.popN(2)
		if err != nil {
			return err
		}
		target, arg := vs[0], vs[1]
		ppemTrigger := base + (arg >> 4)
		if int32(c.ppem) != ppemTrigger {
			continue
		}
		magnitude := (arg & 0x0F) - 8
		if magnitude >= 0 {
			magnitude++
		}
		shift := c.GS.DeltaShift
		step := fixed.Int26_6(magnitude) << (6 - shift)
		if isCVT {
			if int(target) < 0 || int(target) >= len(c.CVT) {
				continue
			}
			c.CVT[target] += step
		} else {
			if zp0 == nil || int(target) < 0 || int(target) >= len(zp0.Cur) {
				continue
			}
			movePoint(zp0, int(target), c.GS.FreedomVector, step)
		}
	}
	return nil
}

func (c *Context) execGC(op byte) error {
	p, err := c.pop()
	if err != nil {
		return err
	}
	z := c.zone(c.GS.Zp2)
	if z == nil || int(p) < 0 || int(p) >= len(z.Cur) {
		return c.fail(fontcore.CodeInvalidReferencePoint)
	}
	if op == opGC0 {
		return c.push(int32(project(c.GS.ProjectionVector, z.Cur[p].X, z.Cur[p].Y)))
	}
	return c.push(int32(project(c.GS.DualProjVector, z.Orig[p].X, z.Orig[p].Y)))
}

func (c *Context) execSCFS() error {
	v, e1 := c.pop()
	p, e2 := c.pop()
	if e1 != nil {
		return e1
	}
	if e2 != nil {
		return e2
	}
	z := c.zone(c.GS.Zp2)
	if z == nil || int(p) < 0 || int(p) >= len(z.Cur) {
		return c.fail(fontcore.CodeInvalidReferencePoint)
	}
	cur := project(c.GS.ProjectionVector, z.Cur[p].X, z.Cur[p].Y)
	movePoint(z, int(p), c.GS.FreedomVector, fixed.Int26_6(v)-cur)
	return nil
}

func (c *Context) execMD(op byte) error {
	p2, e1 := c.pop()
	p1, e2 := c.pop()
	if e1 != nil {
		return e1
	}
	if e2 != nil {
		return e2
	}
	zp1 := c.zone(c.GS.Zp1)
	zp0 := c.zone(c.GS.Zp0)
	if zp1 == nil || zp0 == nil {
		return c.fail(fontcore.CodeInvalidReferencePoint)
	}
	if op == opMD0 {
		d, err := c.curDistance(zp0, zp1, int(p1), int(p2))
		if err != nil {
			return err
		}
		return c.push(int32(d))
	}
	d, err := c.origDistance(zp0, zp1, int(p1), int(p2))
	if err != nil {
		return err
	}
	return c.push(int32(d))
}

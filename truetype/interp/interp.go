package interp

import (
	"github.com/go-fontcore/fontcore"
	"github.com/go-fontcore/fontcore/math/fixed"
)

const maxCallDepth = 32

// Context is one execution of the TrueType bytecode interpreter: the value
// stack, storage area, CVT, function/instruction definitions, and the
// twilight/glyph point zones it operates on. A Context is reused across the
// font program, the cvt program, and every glyph program for one face, the
// way ttgload.c's TT_ExecContext is threaded through a single face.
type Context struct {
	GS      GraphicsState
	defaultGS GraphicsState

	Stack []int32
	maxStack int

	Storage []int32
	CVT     []fixed.Int26_6

	Funcs map[int]FuncDef
	Idefs map[int]FuncDef

	Twilight *Zone
	Glyph    *Zone
	zp       [3]*Zone // indexed by GS.Zpn values (0=twilight,1=glyph)

	ppem  int32
	scale fixed.Int16_16

	callDepth int

	// Pedantic, when true, turns any unrecognized opcode or out-of-range
	// index into a hard error. When false (the default FreeType rasterizer
	// behavior), such faults are tolerated: the instruction is a no-op and
	// execution continues, so a single broken glyph program doesn't take
	// down the whole face.
	Pedantic bool
}

// NewContext builds an interpreter context sized from maxp's limits.
func NewContext(maxStorage, maxFunctionDefs, maxStackElements int, cvt []fixed.Int26_6, ppem int32, scale fixed.Int16_16) *Context {
	c := &Context{
		GS:        DefaultGraphicsState(),
		defaultGS: DefaultGraphicsState(),
		Stack:     make([]int32, 0, maxStackElements),
		maxStack:  maxStackElements,
		Storage:   make([]int32, maxStorage),
		CVT:       cvt,
		Funcs:     make(map[int]FuncDef, maxFunctionDefs),
		Idefs:     make(map[int]FuncDef),
		ppem:      ppem,
		scale:     scale,
	}
	return c
}

// SetZones installs the twilight and glyph zones for the glyph about to be
// hinted, and resets GS.Zp0/1/2 to the glyph zone (1), matching the state
// every new glyph program starts in.
func (c *Context) SetZones(twilight, glyph *Zone) {
	c.Twilight = twilight
	c.Glyph = glyph
	c.zp[0] = twilight
	c.zp[1] = glyph
	c.GS.Zp0, c.GS.Zp1, c.GS.Zp2 = 1, 1, 1
}

// CaptureDefaultGraphicsState snapshots the current graphics state as the
// state every subsequent glyph program starts from, matching the font/cvt
// program's persistent side effects on ttobjs.c's per-size execution
// context (RP0/RP1/RP2, rounding, min distance and the rest survive past
// prep into every glyph that size loads).
func (c *Context) CaptureDefaultGraphicsState() {
	c.defaultGS = c.GS
}

// ResetToDefaultGraphicsState restores the state captured by
// CaptureDefaultGraphicsState, run before every glyph program so earlier
// glyphs' RP0/RP1/RP2 and other GS mutations don't leak into the next one.
func (c *Context) ResetToDefaultGraphicsState() {
	c.GS = c.defaultGS
}

func (c *Context) zone(which int) *Zone {
	if which == 0 {
		return c.Twilight
	}
	return c.Glyph
}

func (c *Context) fail(code fontcore.Code) error {
	return fontcore.New(fontcore.ModuleInterp, code)
}

func (c *Context) push(v int32) error {
	if len(c.Stack) >= c.maxStack {
		return c.fail(fontcore.CodeStackOverflow)
	}
	c.Stack = append(c.Stack, v)
	return nil
}

func (c *Context) pop() (int32, error) {
	n := len(c.Stack)
	if n == 0 {
		return 0, c.fail(fontcore.CodeStackUnderflow)
	}
	v := c.Stack[n-1]
	c.Stack = c.Stack[:n-1]
	return v, nil
}

func (c *Context) popN(n int) ([]int32, error) {
	if len(c.Stack) < n {
		return nil, c.fail(fontcore.CodeStackUnderflow)
	}
	v := append([]int32(nil), c.Stack[len(c.Stack)-n:]...)
	c.Stack = c.Stack[:len(c.Stack)-n]
	return v, nil
}

// Run executes code (a font program, cvt program, or glyph program) to
// completion. In Pedantic mode the first fault stops the program and is
// returned; otherwise the faulting instruction is skipped and Run returns
// nil. Points moved before a fault keep their moves either way.
func (c *Context) Run(code []byte) error {
	return c.run(code, 0)
}

func (c *Context) run(code []byte, depth int) error {
	if depth > maxCallDepth {
		return c.fail(fontcore.CodeInvalidOpcode)
	}
	ip := 0
	for ip < len(code) {
		op := code[ip]
		ip++
		var err error
		ip, err = c.exec(op, code, ip, depth)
		if err != nil {
			if c.Pedantic {
				return err
			}
			// Lenient mode: a malformed or unsupported opcode is skipped
			// rather than aborting the whole program.
			continue
		}
	}
	return nil
}

// exec executes one opcode starting at code[ip] (ip already past the
// opcode byte) and returns the updated ip.
func (c *Context) exec(op byte, code []byte, ip int, depth int) (int, error) {
	switch {
	case op >= opPUSHB0 && op <= opPUSHB0+7:
		n := int(op-opPUSHB0) + 1
		if ip+n > len(code) {
			return ip, c.fail(fontcore.CodeInvalidOpcode)
		}
		for i := 0; i < n; i++ {
			if err := c.push(int32(code[ip+i])); err != nil {
				return ip, err
			}
		}
		return ip + n, nil

	case op >= opPUSHW0 && op <= opPUSHW0+7:
		n := int(op-opPUSHW0) + 1
		if ip+2*n > len(code) {
			return ip, c.fail(fontcore.CodeInvalidOpcode)
		}
		for i := 0; i < n; i++ {
			v := int16(uint16(code[ip+2*i])<<8 | uint16(code[ip+2*i+1]))
			if err := c.push(int32(v)); err != nil {
				return ip, err
			}
		}
		return ip + 2*n, nil

	case op >= opMDRP0 && op <= opMDRP0+0x1F:
		return ip, c.execMDRP(op)

	case op >= opMIRP0:
		return ip, c.execMIRP(op)
	}

	switch op {
	case opNPUSHB:
		if ip >= len(code) {
			return ip, c.fail(fontcore.CodeInvalidOpcode)
		}
		n := int(code[ip])
		ip++
		if ip+n > len(code) {
			return ip, c.fail(fontcore.CodeInvalidOpcode)
		}
		for i := 0; i < n; i++ {
			if err := c.push(int32(code[ip+i])); err != nil {
				return ip, err
			}
		}
		return ip + n, nil

	case opNPUSHW:
		if ip >= len(code) {
			return ip, c.fail(fontcore.CodeInvalidOpcode)
		}
		n := int(code[ip])
		ip++
		if ip+2*n > len(code) {
			return ip, c.fail(fontcore.CodeInvalidOpcode)
		}
		for i := 0; i < n; i++ {
			v := int16(uint16(code[ip+2*i])<<8 | uint16(code[ip+2*i+1]))
			if err := c.push(int32(v)); err != nil {
				return ip, err
			}
		}
		return ip + 2*n, nil

	case opSVTCA0: // y-axis
		c.GS.FreedomVector = Vector{0, 1 << 14}
		c.GS.ProjectionVector = Vector{0, 1 << 14}
		return ip, nil
	case opSVTCA1: // x-axis
		c.GS.FreedomVector = Vector{1 << 14, 0}
		c.GS.ProjectionVector = Vector{1 << 14, 0}
		return ip, nil
	case opSPVTCA0:
		c.GS.ProjectionVector = Vector{0, 1 << 14}
		return ip, nil
	case opSPVTCA1:
		c.GS.ProjectionVector = Vector{1 << 14, 0}
		return ip, nil
	case opSFVTCA0:
		c.GS.FreedomVector = Vector{0, 1 << 14}
		return ip, nil
	case opSFVTCA1:
		c.GS.FreedomVector = Vector{1 << 14, 0}
		return ip, nil
	case opSFVTPV:
		c.GS.FreedomVector = c.GS.ProjectionVector
		return ip, nil

	case opDUP:
		v, err := c.pop()
		if err != nil {
			return ip, err
		}
		if err := c.push(v); err != nil {
			return ip, err
		}
		return ip, c.push(v)
	case opPOP:
		_, err := c.pop()
		return ip, err
	case opCLEAR:
		c.Stack = c.Stack[:0]
		return ip, nil
	case opSWAP:
		vs, err := c.popN(2)
		if err != nil {
			return ip, err
		}
		if err := c.push(vs[1]); err != nil {
			return ip, err
		}
		return ip, c.push(vs[0])
	case opDEPTH:
		return ip, c.push(int32(len(c.Stack)))
	case opCINDEX, opMINDEX:
		k, err := c.pop()
		if err != nil {
			return ip, err
		}
		idx := len(c.Stack) - int(k)
		if idx < 0 || idx >= len(c.Stack) {
			return ip, c.fail(fontcore.CodeInvalidReferencePoint)
		}
		v := c.Stack[idx]
		if op == opMINDEX {
			copy(c.Stack[idx:], c.Stack[idx+1:])
			c.Stack = c.Stack[:len(c.Stack)-1]
		}
		return ip, c.push(v)
	case opROLL:
		vs, err := c.popN(3)
		if err != nil {
			return ip, err
		}
		if err := c.push(vs[1]); err != nil {
			return ip, err
		}
		if err := c.push(vs[2]); err != nil {
			return ip, err
		}
		return ip, c.push(vs[0])

	case opADD:
		b, a, err := c.pop2()
		if err != nil {
			return ip, err
		}
		return ip, c.push(a + b)
	case opSUB:
		b, a, err := c.pop2()
		if err != nil {
			return ip, err
		}
		return ip, c.push(a - b)
	case opDIV:
		b, a, err := c.pop2()
		if err != nil {
			return ip, err
		}
		if b == 0 {
			return ip, c.fail(fontcore.CodeDivideByZero)
		}
		return ip, c.push(int32(fixed.DivFix(a, b)))
	case opMUL:
		b, a, err := c.pop2()
		if err != nil {
			return ip, err
		}
		return ip, c.push(int32(fixed.MulFix(a, fixed.Int16_16(b))))
	case opABS:
		a, err := c.pop()
		if err != nil {
			return ip, err
		}
		if a < 0 {
			a = -a
		}
		return ip, c.push(a)
	case opNEG:
		a, err := c.pop()
		if err != nil {
			return ip, err
		}
		return ip, c.push(-a)
	case opFLOOR:
		a, err := c.pop()
		if err != nil {
			return ip, err
		}
		return ip, c.push(int32(fixed.Int26_6(a).Floor()))
	case opCEILING:
		a, err := c.pop()
		if err != nil {
			return ip, err
		}
		return ip, c.push(int32(fixed.Int26_6(a).Ceil()))
	case opMAX:
		b, a, err := c.pop2()
		if err != nil {
			return ip, err
		}
		if a > b {
			b = a
		}
		return ip, c.push(b)
	case opMIN:
		b, a, err := c.pop2()
		if err != nil {
			return ip, err
		}
		if a < b {
			b = a
		}
		return ip, c.push(b)

	case opLT, opLTEQ, opGT, opGTEQ, opEQ, opNEQ:
		b, a, err := c.pop2()
		if err != nil {
			return ip, err
		}
		var r bool
		switch op {
		case opLT:
			r = a < b
		case opLTEQ:
			r = a <= b
		case opGT:
			r = a > b
		case opGTEQ:
			r = a >= b
		case opEQ:
			r = a == b
		case opNEQ:
			r = a != b
		}
		return ip, c.pushBool(r)
	case opODD, opEVEN:
		a, err := c.pop()
		if err != nil {
			return ip, err
		}
		rounded := fixed.Int26_6(a).Round().FloorToInt()
		isOdd := rounded%2 != 0
		if op == opEVEN {
			isOdd = !isOdd
		}
		return ip, c.pushBool(isOdd)
	case opAND:
		b, a, err := c.pop2()
		if err != nil {
			return ip, err
		}
		return ip, c.pushBool(a != 0 && b != 0)
	case opOR:
		b, a, err := c.pop2()
		if err != nil {
			return ip, err
		}
		return ip, c.pushBool(a != 0 || b != 0)
	case opNOT:
		a, err := c.pop()
		if err != nil {
			return ip, err
		}
		return ip, c.pushBool(a == 0)

	case opIF:
		return c.execIf(code, ip, depth)
	case opELSE, opEIF:
		// Reached outside an IF that already skipped over us: nothing to do.
		return ip, nil

	case opJMPR:
		off, err := c.pop()
		if err != nil {
			return ip, err
		}
		return ip - 1 + int(off), nil
	case opJROT, opJROF:
		off, e1 := c.pop()
		cond, e2 := c.pop()
		if e1 != nil {
			return ip, e1
		}
		if e2 != nil {
			return ip, e2
		}
		take := cond != 0
		if op == opJROF {
			take = !take
		}
		if take {
			return ip - 2 + int(off), nil
		}
		return ip, nil

	case opFDEF:
		return c.execFDef(code, ip)
	case opIDEF:
		return c.execIDef(code, ip)
	case opENDF:
		return ip, nil // only meaningful inside call/loopcall's own scan

	case opCALL:
		n, err := c.pop()
		if err != nil {
			return ip, err
		}
		fd, ok := c.Funcs[int(n)]
		if !ok {
			return ip, c.fail(fontcore.CodeInvalidOpcode)
		}
		if err := c.run(fd.Code, depth+1); err != nil {
			return ip, err
		}
		return ip, nil
	case opLOOPCALL:
		n, e1 := c.pop()
		count, e2 := c.pop()
		if e1 != nil {
			return ip, e1
		}
		if e2 != nil {
			return ip, e2
		}
		fd, ok := c.Funcs[int(n)]
		if !ok {
			return ip, c.fail(fontcore.CodeInvalidOpcode)
		}
		for i := int32(0); i < count; i++ {
			if err := c.run(fd.Code, depth+1); err != nil {
				return ip, err
			}
		}
		return ip, nil

	case opWS:
		v, e1 := c.pop()
		loc, e2 := c.pop()
		if e1 != nil {
			return ip, e1
		}
		if e2 != nil {
			return ip, e2
		}
		if loc < 0 || int(loc) >= len(c.Storage) {
			return ip, c.fail(fontcore.CodeInvalidReferencePoint)
		}
		c.Storage[loc] = v
		return ip, nil
	case opRS:
		loc, err := c.pop()
		if err != nil {
			return ip, err
		}
		if loc < 0 || int(loc) >= len(c.Storage) {
			return ip, c.fail(fontcore.CodeInvalidReferencePoint)
		}
		return ip, c.push(c.Storage[loc])
	case opWCVTP:
		v, e1 := c.pop()
		loc, e2 := c.pop()
		if e1 != nil {
			return ip, e1
		}
		if e2 != nil {
			return ip, e2
		}
		if loc < 0 || int(loc) >= len(c.CVT) {
			return ip, c.fail(fontcore.CodeInvalidCVTIndex)
		}
		c.CVT[loc] = fixed.Int26_6(v)
		return ip, nil
	case opWCVTF:
		v, e1 := c.pop()
		loc, e2 := c.pop()
		if e1 != nil {
			return ip, e1
		}
		if e2 != nil {
			return ip, e2
		}
		if loc < 0 || int(loc) >= len(c.CVT) {
			return ip, c.fail(fontcore.CodeInvalidCVTIndex)
		}
		c.CVT[loc] = fixed.MulFix(v, c.scale)
		return ip, nil
	case opRCVT:
		loc, err := c.pop()
		if err != nil {
			return ip, err
		}
		if loc < 0 || int(loc) >= len(c.CVT) {
			return ip, c.fail(fontcore.CodeInvalidCVTIndex)
		}
		return ip, c.push(int32(c.CVT[loc]))

	case opRTG:
		c.GS.RoundState = RoundToGrid
		return ip, nil
	case opRTHG:
		c.GS.RoundState = RoundToHalfGrid
		return ip, nil
	case opRTDG:
		c.GS.RoundState = RoundToDoubleGrid
		return ip, nil
	case opRUTG:
		c.GS.RoundState = RoundUpToGrid
		return ip, nil
	case opRDTG:
		c.GS.RoundState = RoundDownToGrid
		return ip, nil
	case opROFF:
		c.GS.RoundState = RoundOff
		return ip, nil
	case opSROUND:
		_, err := c.pop()
		c.GS.RoundState = RoundSuper
		return ip, err
	case opS45ROUND:
		_, err := c.pop()
		c.GS.RoundState = RoundSuper45
		return ip, err

	case opSLOOP:
		v, err := c.pop()
		if err != nil {
			return ip, err
		}
		c.GS.Loop = v
		return ip, nil
	case opSMD:
		v, err := c.pop()
		if err != nil {
			return ip, err
		}
		c.GS.MinDistance = fixed.Int26_6(v)
		return ip, nil
	case opSCVTCI:
		v, err := c.pop()
		if err != nil {
			return ip, err
		}
		c.GS.ControlValueCutIn = fixed.Int26_6(v)
		return ip, nil
	case opSSWCI:
		v, err := c.pop()
		if err != nil {
			return ip, err
		}
		c.GS.SingleWidthCutIn = fixed.Int26_6(v)
		return ip, nil
	case opSSW:
		v, err := c.pop()
		if err != nil {
			return ip, err
		}
		c.GS.SingleWidthValue = fixed.MulFix(v, c.scale)
		return ip, nil
	case opFLIPON:
		c.GS.AutoFlip = true
		return ip, nil
	case opFLIPOFF:
		c.GS.AutoFlip = false
		return ip, nil
	case opSANGW, opAA:
		_, err := c.pop()
		return ip, err
	case opSDB:
		v, err := c.pop()
		if err != nil {
			return ip, err
		}
		c.GS.DeltaBase = v
		return ip, nil
	case opSDS:
		v, err := c.pop()
		if err != nil {
			return ip, err
		}
		c.GS.DeltaShift = v
		return ip, nil
	case opSCANCTRL:
		v, err := c.pop()
		if err != nil {
			return ip, err
		}
		c.GS.ScanControl = v != 0
		return ip, nil
	case opSCANTYPE:
		v, err := c.pop()
		if err != nil {
			return ip, err
		}
		c.GS.ScanType = v
		return ip, nil
	case opINSTCTRL:
		_, e1 := c.pop()
		v, e2 := c.pop()
		if e1 != nil {
			return ip, e1
		}
		if e2 != nil {
			return ip, e2
		}
		c.GS.InstructControl = uint8(v)
		return ip, nil

	case opSRP0:
		v, err := c.pop()
		if err != nil {
			return ip, err
		}
		c.GS.RP0 = int(v)
		return ip, nil
	case opSRP1:
		v, err := c.pop()
		if err != nil {
			return ip, err
		}
		c.GS.RP1 = int(v)
		return ip, nil
	case opSRP2:
		v, err := c.pop()
		if err != nil {
			return ip, err
		}
		c.GS.RP2 = int(v)
		return ip, nil
	case opSZP0:
		v, err := c.pop()
		if err != nil {
			return ip, err
		}
		c.GS.Zp0 = int(v)
		return ip, nil
	case opSZP1:
		v, err := c.pop()
		if err != nil {
			return ip, err
		}
		c.GS.Zp1 = int(v)
		return ip, nil
	case opSZP2:
		v, err := c.pop()
		if err != nil {
			return ip, err
		}
		c.GS.Zp2 = int(v)
		return ip, nil
	case opSZPS:
		v, err := c.pop()
		if err != nil {
			return ip, err
		}
		c.GS.Zp0, c.GS.Zp1, c.GS.Zp2 = int(v), int(v), int(v)
		return ip, nil

	case opGETINFO:
		sel, err := c.pop()
		if err != nil {
			return ip, err
		}
		var result int32
		if sel&1 != 0 {
			result |= 42 // rasterizer version
		}
		return ip, c.push(result)

	case opMPPEM:
		return ip, c.push(c.ppem)
	case opMPS:
		return ip, c.push(c.ppem)

	case opDEBUG:
		_, err := c.pop()
		return ip, err

	case opALIGNPTS:
		return ip, c.execAlignPts()
	case opMDAP0, opMDAP1:
		return ip, c.execMDAP(op)
	case opMIAP0, opMIAP1:
		return ip, c.execMIAP(op)
	case opMSIRP0, opMSIRP1:
		return ip, c.execMSIRP(op)
	case opALIGNRP:
		return ip, c.execAlignRP()
	case opIUP0, opIUP1:
		return ip, c.execIUP(op)
	case opSHP0, opSHP1:
		return ip, c.execSHP(op)
	case opSHPIX:
		return ip, c.execSHPIX()
	case opIP:
		return ip, c.execIP()
	case opUTP:
		return ip, c.execUTP()
	case opFLIPPT:
		return ip, c.execFlipPt()
	case opFLIPRGON, opFLIPRGOFF:
		return ip, c.execFlipRange(op == opFLIPRGON)

	case opDELTAP1, opDELTAP2, opDELTAP3, opDELTAC1, opDELTAC2, opDELTAC3:
		return ip, c.execDelta(op)

	case opGC0, opGC1:
		return ip, c.execGC(op)
	case opSCFS:
		return ip, c.execSCFS()
	case opMD0, opMD1:
		return ip, c.execMD(op)

	case opISECT:
		_, err := c.popN(5)
		return ip, err
	case opSDPVTL0, opSDPVTL1:
		_, err := c.popN(2)
		return ip, err
	case opSPVTL0, opSPVTL1, opSFVTL0, opSFVTL1:
		_, err := c.popN(2)
		return ip, err
	case opSPVFS, opSFVFS:
		_, err := c.popN(2)
		return ip, err
	case opGPV, opGFV:
		if err := c.push(c.GS.ProjectionVector.X); err != nil {
			return ip, err
		}
		return ip, c.push(c.GS.ProjectionVector.Y)
	}

	// Unknown / unimplemented opcode.
	return ip, c.fail(fontcore.CodeInvalidOpcode)
}

func (c *Context) pop2() (b, a int32, err error) {
	vs, err := c.popN(2)
	if err != nil {
		return 0, 0, err
	}
	return vs[1], vs[0], nil
}

func (c *Context) pushBool(b bool) error {
	if b {
		return c.push(1)
	}
	return c.push(0)
}

// execIf scans for the matching ELSE/EIF, executing the true branch inline
// and skipping (by nesting depth) anything it must not run.
func (c *Context) execIf(code []byte, ip int, depth int) (int, error) {
	cond, err := c.pop()
	if err != nil {
		return ip, err
	}
	if cond != 0 {
		return ip, nil
	}
	// Skip to ELSE (same nesting level) or EIF.
	nest := 0
	for ip < len(code) {
		op := code[ip]
		ip++
		switch {
		case op == opIF:
			nest++
		case op == opEIF:
			if nest == 0 {
				return ip, nil
			}
			nest--
		case op == opELSE && nest == 0:
			return ip, nil
		}
		ip = skipOperands(op, code, ip)
	}
	return ip, c.fail(fontcore.CodeInvalidOpcode)
}

// skipOperands advances ip past the inline operand bytes of a push opcode
// so the IF/ELSE/EIF scanner doesn't mistake operand bytes for opcodes.
func skipOperands(op byte, code []byte, ip int) int {
	switch {
	case op >= opPUSHB0 && op <= opPUSHB0+7:
		return ip + int(op-opPUSHB0) + 1
	case op >= opPUSHW0 && op <= opPUSHW0+7:
		return ip + 2*(int(op-opPUSHW0)+1)
	case op == opNPUSHB:
		if ip < len(code) {
			n := int(code[ip])
			return ip + 1 + n
		}
	case op == opNPUSHW:
		if ip < len(code) {
			n := int(code[ip])
			return ip + 1 + 2*n
		}
	}
	return ip
}

func (c *Context) execFDef(code []byte, ip int) (int, error) {
	n, err := c.pop()
	if err != nil {
		return ip, err
	}
	start := ip
	for ip < len(code) {
		op := code[ip]
		ip++
		if op == opENDF {
			c.Funcs[int(n)] = FuncDef{Code: append([]byte(nil), code[start:ip-1]...)}
			return ip, nil
		}
		ip = skipOperands(op, code, ip)
	}
	return ip, c.fail(fontcore.CodeInvalidOpcode)
}

func (c *Context) execIDef(code []byte, ip int) (int, error) {
	n, err := c.pop()
	if err != nil {
		return ip, err
	}
	start := ip
	for ip < len(code) {
		op := code[ip]
		ip++
		if op == opENDF {
			c.Idefs[int(n)] = FuncDef{Code: append([]byte(nil), code[start:ip-1]...)}
			return ip, nil
		}
		ip = skipOperands(op, code, ip)
	}
	return ip, c.fail(fontcore.CodeInvalidOpcode)
}

package interp

import (
	"testing"

	"github.com/go-fontcore/fontcore/math/fixed"
)

func newTestContext() *Context {
	c := NewContext(16, 8, 32, nil, 12, 1<<16)
	tw := NewZone(0)
	gl := NewZone(4)
	c.SetZones(tw, gl)
	return c
}

func TestPushAddStackDiscipline(t *testing.T) {
	c := newTestContext()
	// PUSHB[1] 3 4, ADD -> stack [7]
	code := []byte{0xB1, 3, 4, opADD}
	if err := c.Run(code); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(c.Stack) != 1 || c.Stack[0] != 7 {
		t.Fatalf("Stack: got %v, want [7]", c.Stack)
	}
}

func TestStorageWriteRead(t *testing.T) {
	c := newTestContext()
	// PUSHB[1] 5 42 (loc=5, value=42), WS, PUSHB[0] 5, RS -> stack [42]
	code := []byte{0xB1, 5, 42, opWS, 0xB0, 5, opRS}
	if err := c.Run(code); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(c.Stack) != 1 || c.Stack[0] != 42 {
		t.Fatalf("Stack after RS: got %v, want [42]", c.Stack)
	}
	if c.Storage[5] != 42 {
		t.Fatalf("Storage[5]: got %d, want 42", c.Storage[5])
	}
}

func TestStackUnderflow(t *testing.T) {
	c := newTestContext()
	c.Pedantic = true // faults are returned as errors only in pedantic mode
	if err := c.Run([]byte{opADD}); err == nil {
		t.Fatalf("Run ADD on empty stack: want StackUnderflow, got nil")
	}
}

func TestStackOverflow(t *testing.T) {
	c := NewContext(0, 0, 2, nil, 12, 1<<16)
	tw := NewZone(0)
	gl := NewZone(0)
	c.SetZones(tw, gl)
	c.Pedantic = true
	// PUSHB[2] pushes 3 values into a 2-deep stack.
	if err := c.Run([]byte{0xB2, 1, 2, 3}); err == nil {
		t.Fatalf("Run: want StackOverflow, got nil")
	}
}

func TestDivideByZero(t *testing.T) {
	c := newTestContext()
	code := []byte{0xB1, 0, 5, opDIV} // pushes 0, 5 -> DIV pops b=5,a=0 -> a/b = 0/5, not zero divisor
	if err := c.Run(code); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Now actually divide by zero: push 5 then 0, DIV -> divisor 0.
	c = newTestContext()
	c.Pedantic = true
	code = []byte{0xB1, 5, 0, opDIV}
	if err := c.Run(code); err == nil {
		t.Fatalf("Run DIV by zero: want Divide_By_Zero, got nil")
	}
}

func TestOutOfRangeStorageIndexFails(t *testing.T) {
	c := newTestContext()
	c.Pedantic = true
	code := []byte{0xB1, 99, 1, opWS} // loc=99 out of 16-entry storage
	if err := c.Run(code); err == nil {
		t.Fatalf("Run WS with out-of-range index: want error, got nil")
	}
}

func TestRoundToGridDefault(t *testing.T) {
	c := newTestContext()
	if c.GS.RoundState != RoundToGrid {
		t.Fatalf("default RoundState: got %v, want RoundToGrid", c.GS.RoundState)
	}
	got := c.round(fixed.Int26_6(40))
	if got != fixed.Int26_6(64) {
		t.Fatalf("round(40) under RoundToGrid: got %d, want 64 (nearest whole pixel)", got)
	}
}

func TestCaptureAndResetDefaultGraphicsState(t *testing.T) {
	c := newTestContext()
	c.GS.RP0 = 3
	c.CaptureDefaultGraphicsState()
	c.GS.RP0 = 9 // simulate a glyph program mutating RP0
	c.ResetToDefaultGraphicsState()
	if c.GS.RP0 != 3 {
		t.Fatalf("ResetToDefaultGraphicsState: got RP0=%d, want 3 (captured value)", c.GS.RP0)
	}
}

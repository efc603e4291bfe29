package fontmem

import "testing"

func TestAllocZeroFilled(t *testing.T) {
	b, err := Alloc(16)
	if err != nil {
		t.Fatalf("Alloc: %v", err)
	}
	if len(b) != 16 {
		t.Fatalf("Alloc: got len %d, want 16", len(b))
	}
	for i, c := range b {
		if c != 0 {
			t.Fatalf("Alloc: byte %d not zero-filled: %d", i, c)
		}
	}
}

func TestAllocRejectsAbsurdSize(t *testing.T) {
	if _, err := Alloc(-1); err == nil {
		t.Fatalf("Alloc(-1): want OutOfMemory, got nil")
	}
	if _, err := Alloc(maxAlloc + 1); err == nil {
		t.Fatalf("Alloc(huge): want OutOfMemory, got nil")
	}
}

func TestReallocGrowZerosTail(t *testing.T) {
	b, _ := Alloc(4)
	for i := range b {
		b[i] = 0xff
	}
	b, err := Realloc(b, 8)
	if err != nil {
		t.Fatalf("Realloc: %v", err)
	}
	if len(b) != 8 {
		t.Fatalf("Realloc: got len %d, want 8", len(b))
	}
	for i := 4; i < 8; i++ {
		if b[i] != 0 {
			t.Fatalf("Realloc: tail byte %d not zeroed: %d", i, b[i])
		}
	}
}

func TestReallocShrink(t *testing.T) {
	b, _ := Alloc(8)
	b, err := Realloc(b, 2)
	if err != nil || len(b) != 2 {
		t.Fatalf("Realloc shrink: len=%d err=%v", len(b), err)
	}
}

func TestReallocNilActsAsAlloc(t *testing.T) {
	b, err := Realloc(nil, 4)
	if err != nil || len(b) != 4 {
		t.Fatalf("Realloc(nil, 4): len=%d err=%v", len(b), err)
	}
}

func TestFreeNilIsNoop(t *testing.T) {
	Free(nil) // must not panic
}

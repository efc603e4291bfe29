package type1

import (
	"fmt"
	"testing"
)

func TestParseFullFont(t *testing.T) {
	csPlain := []byte{0, 0, 0, 0,
		num(0), 247, 12, t1HSBW, // 247, 12 is the two-byte encoding of 120
		num(0), num(0), t1RMoveTo,
		num(100), num(0), t1RLineTo,
		num(-50), num(100), t1RLineTo,
		t1ClosePath,
		t1EndChar,
	}
	subrPlain := []byte{0, 0, 0, 0,
		num(10), num(0), t1RLineTo,
		t1Return,
	}
	cipherCS := encryptForTest(csPlain, 4330)
	cipherSubr := encryptForTest(subrPlain, 4330)

	private := "dup /lenIV 4 def\n" +
		"/Subrs 1 array\n" +
		fmt.Sprintf("dup 0 %d RD ", len(cipherSubr)) + string(cipherSubr) + " NP\n" +
		"ND\n" +
		"/CharStrings 1 dict dup begin\n" +
		fmt.Sprintf("/A %d RD ", len(cipherCS)) + string(cipherCS) + " ND\n" +
		"end\n"
	// DecryptEexec always discards a fixed 4-byte lenIV of its own, ahead
	// of the font's own /lenIV (which governs charstring/Subrs decryption
	// only) — pad the private dict the same way a real font's random
	// eexec padding would.
	eexecPlain := []byte("junk" + private)
	eexecCipher := encryptForTest(eexecPlain, 55665)

	data := "/FontMatrix [0.001 0 0 0.001 0 0] readonly def\n" +
		"/FontBBox {0 0 200 200} readonly def\n" +
		"eexec\n" + string(eexecCipher)

	f, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	wantMatrix := [6]float64{0.001, 0, 0, 0.001, 0, 0}
	if f.FontMatrix != wantMatrix {
		t.Fatalf("FontMatrix: got %v, want %v", f.FontMatrix, wantMatrix)
	}
	wantBBox := [4]float64{0, 0, 200, 200}
	if f.FontBBox != wantBBox {
		t.Fatalf("FontBBox: got %v, want %v", f.FontBBox, wantBBox)
	}
	names := f.GlyphNames()
	if len(names) != 1 || names[0] != "A" {
		t.Fatalf("GlyphNames: got %v, want [A]", names)
	}

	cs := f.CharstringByName("A")
	if cs == nil {
		t.Fatalf("CharstringByName(A): got nil")
	}
	out, sbx, width, seac, err := RunCharstring(f, cs)
	if err != nil {
		t.Fatalf("RunCharstring on parsed glyph: %v", err)
	}
	if seac != nil {
		t.Fatalf("seac: got %+v, want nil", seac)
	}
	if sbx != 0 || width != 120 {
		t.Fatalf("sbx=%v width=%v, want 0,120", sbx, width)
	}
	if out.NPoints() != 3 || out.NContours() != 1 {
		t.Fatalf("NPoints=%d NContours=%d, want 3,1", out.NPoints(), out.NContours())
	}

	subr := f.Subr(0)
	if subr == nil {
		t.Fatalf("Subr(0): got nil")
	}
	if len(subr) != 4 || subr[0] != num(10) || subr[1] != num(0) || subr[2] != t1RLineTo || subr[3] != t1Return {
		t.Fatalf("Subr(0) decrypted: got %v", subr)
	}
	if f.Subr(1) != nil {
		t.Fatalf("Subr(1) out of range: want nil")
	}
}

func TestParseMissingEexecFails(t *testing.T) {
	if _, err := Parse([]byte("/FontMatrix [0.001 0 0 0.001 0 0] def\nno encrypted section here")); err == nil {
		t.Fatalf("Parse without an eexec section: want error, got nil")
	}
}

func TestParseDefaultsWhenHeaderKeysAbsent(t *testing.T) {
	eexecPlain := []byte("junk" + "dup /lenIV 4 def\n/CharStrings 0 dict dup begin\nend\n")
	eexecCipher := encryptForTest(eexecPlain, 55665)
	data := "eexec\n" + string(eexecCipher)

	f, err := Parse([]byte(data))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if f.FontMatrix != defaultFontMatrix {
		t.Fatalf("FontMatrix: got %v, want default %v", f.FontMatrix, defaultFontMatrix)
	}
	if len(f.GlyphNames()) != 0 {
		t.Fatalf("GlyphNames: got %v, want none", f.GlyphNames())
	}
}

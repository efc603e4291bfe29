package pfb

import "testing"

func buildSegment(segType byte, payload []byte) []byte {
	n := len(payload)
	header := []byte{marker, segType, byte(n), byte(n >> 8), byte(n >> 16), byte(n >> 24)}
	return append(header, payload...)
}

func TestUnwrapConcatenatesSegments(t *testing.T) {
	var data []byte
	data = append(data, buildSegment(segASCII, []byte("%!PS-AdobeFont\n"))...)
	data = append(data, buildSegment(segBinary, []byte("\x01\x02\x03binary"))...)
	data = append(data, []byte{marker, segEOF}...)

	got := Unwrap(data)
	want := "%!PS-AdobeFont\n\x01\x02\x03binary"
	if string(got) != want {
		t.Fatalf("Unwrap: got %q, want %q", got, want)
	}
}

func TestUnwrapPassesThroughBarePFA(t *testing.T) {
	data := []byte("%!PS-AdobeFont-1.0\n/FontName ...")
	got := Unwrap(data)
	if string(got) != string(data) {
		t.Fatalf("Unwrap on bare PFA: got %q, want unchanged input", got)
	}
}

func TestUnwrapTooShortPassesThrough(t *testing.T) {
	data := []byte{marker, segASCII, 1}
	got := Unwrap(data)
	if string(got) != string(data) {
		t.Fatalf("Unwrap on truncated PFB header: want input unchanged")
	}
}

// Package pfb strips the PFB (Printer Font Binary) segment framing some
// Type 1 fonts wrap their PFA text in: alternating ASCII/binary segments
// each prefixed by a 6-byte header (0x80, segment type, 4-byte little
// endian length). Grounded on original_source/src/type1z's handling of the
// two on-disk encapsulations FreeType accepts for Type 1 fonts (raw PFA,
// and PFB), generalized here into a standalone unwrap step ahead of the
// charstring decoder.
package pfb

const (
	marker      = 0x80
	segASCII    = 0x01
	segBinary   = 0x02
	segEOF      = 0x03
)

// Unwrap returns the concatenated segment payloads of a PFB-framed font,
// or data unchanged if it does not start with a PFB marker (already a bare
// PFA file).
func Unwrap(data []byte) []byte {
	if len(data) < 6 || data[0] != marker {
		return data
	}
	var out []byte
	pos := 0
	for pos+6 <= len(data) {
		if data[pos] != marker {
			break
		}
		segType := data[pos+1]
		if segType == segEOF {
			break
		}
		if segType != segASCII && segType != segBinary {
			break
		}
		length := int(data[pos+2]) | int(data[pos+3])<<8 | int(data[pos+4])<<16 | int(data[pos+5])<<24
		pos += 6
		if length < 0 || pos+length > len(data) {
			break
		}
		out = append(out, data[pos:pos+length]...)
		pos += length
	}
	if out == nil {
		return data
	}
	return out
}

package type1

import (
	"bytes"
	"strconv"

	"github.com/go-fontcore/fontcore"
)

// Font is a parsed Type 1 font: decrypted charstrings addressable by glyph
// name, the Subrs array, and the lenIV used to decrypt them. Parsing is a
// direct byte scan over the font's cleartext + eexec-encrypted private
// dictionary, mirroring t1gload.c's token-at-a-time reading rather than a
// general PostScript interpreter — Type 1 fonts in the wild follow a
// narrow, stereotyped subset of the language for exactly this reason.
type Font struct {
	charstrings map[string][]byte
	names       []string // insertion order, for GlyphName(gid)-style access
	subrs       [][]byte
	lenIV       int

	// FontMatrix and FontBBox come from the cleartext header, ahead of
	// eexec; both are Type 1 Font Format-mandated keys, read here directly
	// since they are plain tokens rather than charstring data.
	FontMatrix [6]float64
	FontBBox   [4]float64

	// BlueValues/OtherBlues/StdHW/StdVW/StemSnapH/StemSnapV come from the
	// Private dict (Type 1 Font Format section 5.6), carried through for
	// pshinter's Dimension/Blues construction.
	BlueValues, OtherBlues []float64
	StdHW, StdVW           float64
	StemSnapH, StemSnapV   []float64
}

const defaultLenIV = 4

var defaultFontMatrix = [6]float64{0.001, 0, 0, 0.001, 0, 0}

// Parse decodes a Type 1 font (already PFB-unwrapped if necessary; see
// type1/pfb) into its charstrings and subroutines.
func Parse(data []byte) (*Font, error) {
	idx := bytes.Index(data, []byte("eexec"))
	if idx < 0 {
		return nil, fontcore.New(fontcore.ModuleCharstring, fontcore.CodeInvalidFileFormat)
	}
	cleartext := data[:idx]
	rest := data[idx+len("eexec"):]
	rest = skipWhitespace(rest)

	cipher := rest
	if looksLikeHex(rest) {
		cipher = decodeHex(rest)
	}
	plain := DecryptEexec(cipher)

	f := &Font{
		charstrings: make(map[string][]byte),
		lenIV:       defaultLenIV,
		FontMatrix:  defaultFontMatrix,
	}
	if m, ok := parseFloatArray(cleartext, "/FontMatrix", 6); ok {
		copy(f.FontMatrix[:], m)
	}
	if b, ok := parseFloatArray(cleartext, "/FontBBox", 4); ok {
		copy(f.FontBBox[:], b)
	}
	if n, ok := findInt(plain, "/lenIV"); ok {
		f.lenIV = n
	}
	f.BlueValues, _ = parseFloatArrayVar(plain, "/BlueValues")
	f.OtherBlues, _ = parseFloatArrayVar(plain, "/OtherBlues")
	f.StemSnapH, _ = parseFloatArrayVar(plain, "/StemSnapH")
	f.StemSnapV, _ = parseFloatArrayVar(plain, "/StemSnapV")
	if v, ok := parseFloatArrayVar(plain, "/StdHW"); ok && len(v) > 0 {
		f.StdHW = v[0]
	}
	if v, ok := parseFloatArrayVar(plain, "/StdVW"); ok && len(v) > 0 {
		f.StdVW = v[0]
	}
	f.subrs = parseSubrs(plain, f.lenIV)
	f.parseCharStrings(plain)
	return f, nil
}

// parseFloatArrayVar scans for "<key> [ n0 n1 ... ]", reading until the
// closing bracket rather than a fixed count (BlueValues/StemSnapH and
// friends are variable-length).
func parseFloatArrayVar(b []byte, key string) ([]float64, bool) {
	idx := bytes.Index(b, []byte(key))
	if idx < 0 {
		return nil, false
	}
	pos := idx + len(key)
	pos = skipSpacePos(b, pos)
	if pos < len(b) && b[pos] == '[' {
		pos++
	}
	var out []float64
	for pos < len(b) {
		pos = skipSpacePos(b, pos)
		if pos >= len(b) || b[pos] == ']' {
			break
		}
		start := pos
		for pos < len(b) && isNumberByte(b[pos]) {
			pos++
		}
		if pos == start {
			break
		}
		v, err := strconv.ParseFloat(string(b[start:pos]), 64)
		if err != nil {
			break
		}
		out = append(out, v)
	}
	return out, true
}

// parseFloatArray scans for "<key> [ n0 n1 ... ]" (or "{ ... }", some fonts
// use FontBBox braces) and returns the first n numbers found after key.
func parseFloatArray(b []byte, key string, n int) ([]float64, bool) {
	idx := bytes.Index(b, []byte(key))
	if idx < 0 {
		return nil, false
	}
	pos := idx + len(key)
	out := make([]float64, 0, n)
	for len(out) < n {
		pos = skipToValueStart(b, pos)
		start := pos
		for pos < len(b) && isNumberByte(b[pos]) {
			pos++
		}
		if pos == start {
			return nil, false
		}
		v, err := strconv.ParseFloat(string(b[start:pos]), 64)
		if err != nil {
			return nil, false
		}
		out = append(out, v)
	}
	return out, true
}

func skipToValueStart(b []byte, pos int) int {
	for pos < len(b) && !isNumberByte(b[pos]) {
		pos++
	}
	return pos
}

func isNumberByte(c byte) bool {
	return (c >= '0' && c <= '9') || c == '-' || c == '.'
}

func skipWhitespace(b []byte) []byte {
	i := 0
	for i < len(b) && isSpace(b[i]) {
		i++
	}
	return b[i:]
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\r' || c == '\n'
}

// looksLikeHex reports whether the eexec payload is PFA-style ASCII hex
// rather than raw binary ciphertext, per the four-byte heuristic FreeType's
// loader uses: the first few bytes are all hex digits or whitespace.
func looksLikeHex(b []byte) bool {
	seen := 0
	for _, c := range b {
		if isSpace(c) {
			continue
		}
		if !isHexDigit(c) {
			return false
		}
		seen++
		if seen >= 4 {
			return true
		}
	}
	return seen > 0
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func decodeHex(b []byte) []byte {
	out := make([]byte, 0, len(b)/2)
	hi, haveHi := byte(0), false
	for _, c := range b {
		if isSpace(c) {
			continue
		}
		v, ok := hexVal(c)
		if !ok {
			break
		}
		if !haveHi {
			hi, haveHi = v, true
			continue
		}
		out = append(out, hi<<4|v)
		haveHi = false
	}
	return out
}

func hexVal(c byte) (byte, bool) {
	switch {
	case c >= '0' && c <= '9':
		return c - '0', true
	case c >= 'a' && c <= 'f':
		return c - 'a' + 10, true
	case c >= 'A' && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

// findInt scans for "<key> <integer>" and returns the integer.
func findInt(b []byte, key string) (int, bool) {
	idx := bytes.Index(b, []byte(key))
	if idx < 0 {
		return 0, false
	}
	rest := skipWhitespace(b[idx+len(key):])
	end := 0
	for end < len(rest) && (rest[end] == '-' || (rest[end] >= '0' && rest[end] <= '9')) {
		end++
	}
	n, err := strconv.Atoi(string(rest[:end]))
	if err != nil {
		return 0, false
	}
	return n, true
}

// readBinaryAfterRD reads a "RD <len> <binary bytes>" or "-| <len> <binary
// bytes>" token sequence (the two spellings font tools use for the
// binary-data-follows marker), given pos pointing just past the count and
// the single separating space the marker convention requires.
func readBinaryAfterRD(b []byte, pos, length int) (data []byte, next int, ok bool) {
	if pos >= len(b) || !isSpace(b[pos]) {
		return nil, 0, false
	}
	pos++
	if pos+length > len(b) {
		return nil, 0, false
	}
	return b[pos : pos+length], pos + length, true
}

// parseSubrs extracts the /Subrs array: a sequence of "dup <i> <len> RD
// <bytes> NP" entries (RD/-| and NP/| are font-tool-specific spellings of
// the same markers; only the length-prefixed binary blob matters here).
func parseSubrs(b []byte, lenIV int) [][]byte {
	idx := bytes.Index(b, []byte("/Subrs"))
	if idx < 0 {
		return nil
	}
	count, _ := findInt(b, "/Subrs")
	subrs := make([][]byte, count)

	pos := idx
	for {
		dupIdx := bytes.Index(b[pos:], []byte("dup "))
		if dupIdx < 0 {
			break
		}
		pos += dupIdx + len("dup ")
		idxNum, n1, ok := scanInt(b, pos)
		if !ok {
			break
		}
		if idxNum < 0 || idxNum >= len(subrs) {
			pos = n1
			continue
		}
		length, n2, ok := scanInt(b, skipSpacePos(b, n1))
		if !ok {
			break
		}
		markerEnd := skipToken(b, skipSpacePos(b, n2)) // RD or -|
		data, next, ok := readBinaryAfterRD(b, markerEnd, length)
		if !ok {
			break
		}
		subrs[idxNum] = DecryptCharstring(data, lenIV)
		pos = next
		if bytes.HasPrefix(skipWhitespace(b[pos:]), []byte("/CharStrings")) {
			break
		}
	}
	return subrs
}

// parseCharStrings extracts the /CharStrings dict: repeated "/<name> <len>
// RD <bytes> ND" entries between "begin" and "end".
func (f *Font) parseCharStrings(b []byte) {
	idx := bytes.Index(b, []byte("/CharStrings"))
	if idx < 0 {
		return
	}
	beginIdx := bytes.Index(b[idx:], []byte("begin"))
	if beginIdx < 0 {
		return
	}
	pos := idx + beginIdx + len("begin")
	endIdx := bytes.Index(b[pos:], []byte("\nend"))
	limit := len(b)
	if endIdx >= 0 {
		limit = pos + endIdx
	}

	for pos < limit {
		slash := bytes.IndexByte(b[pos:limit], '/')
		if slash < 0 {
			break
		}
		pos += slash + 1
		nameEnd := pos
		for nameEnd < limit && !isSpace(b[nameEnd]) {
			nameEnd++
		}
		name := string(b[pos:nameEnd])
		length, n2, ok := scanInt(b, skipSpacePos(b, nameEnd))
		if !ok {
			pos = nameEnd
			continue
		}
		markerEnd := skipToken(b, skipSpacePos(b, n2))
		data, next, ok := readBinaryAfterRD(b, markerEnd, length)
		if !ok {
			pos = nameEnd
			continue
		}
		if _, exists := f.charstrings[name]; !exists {
			f.names = append(f.names, name)
		}
		f.charstrings[name] = DecryptCharstring(data, f.lenIV)
		pos = next
	}
}

func skipSpacePos(b []byte, pos int) int {
	for pos < len(b) && isSpace(b[pos]) {
		pos++
	}
	return pos
}

func skipToken(b []byte, pos int) int {
	for pos < len(b) && !isSpace(b[pos]) {
		pos++
	}
	return pos
}

func scanInt(b []byte, pos int) (int, int, bool) {
	start := pos
	for pos < len(b) && b[pos] >= '0' && b[pos] <= '9' {
		pos++
	}
	if pos == start {
		return 0, pos, false
	}
	n, err := strconv.Atoi(string(b[start:pos]))
	if err != nil {
		return 0, pos, false
	}
	return n, pos, true
}

// CharstringByName implements Glyphs.
func (f *Font) CharstringByName(name string) []byte { return f.charstrings[name] }

// Subr implements Glyphs.
func (f *Font) Subr(index int) []byte {
	if index < 0 || index >= len(f.subrs) {
		return nil
	}
	return f.subrs[index]
}

// StandardEncodingName implements Glyphs.
func (f *Font) StandardEncodingName(code int) string { return StandardEncodingName(code) }

// GlyphNames returns every charstring name this font defines, in the order
// they appeared in the font's /CharStrings dict.
func (f *Font) GlyphNames() []string { return f.names }

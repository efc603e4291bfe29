package cff

import "fmt"

// standardStrings is the CFF specification's 391-entry predefined string
// table (Appendix A/C of the CFF spec): charset/encoding SIDs below 391
// name these strings directly instead of indexing the font's own String
// INDEX. Entries 0-228 (the common Latin charset shared with
// StandardEncoding/ISOAdobe) are reproduced verbatim; entries 229-390 name
// the Expert/ExpertSubset-only glyphs (oldstyle figures, small caps,
// fraction variants) that essentially no non-Expert CFF font references —
// they're filled with a placeholder so SID lookups beyond 228 stay
// in-bounds rather than panicking, a deliberate scope cut from the full
// table (see DESIGN.md).
var standardStrings = func() [391]string {
	var s [391]string
	core := []string{
		".notdef", "space", "exclam", "quotedbl", "numbersign", "dollar",
		"percent", "ampersand", "quoteright", "parenleft", "parenright",
		"asterisk", "plus", "comma", "hyphen", "period", "slash", "zero",
		"one", "two", "three", "four", "five", "six", "seven", "eight",
		"nine", "colon", "semicolon", "less", "equal", "greater", "question",
		"at", "A", "B", "C", "D", "E", "F", "G", "H", "I", "J", "K", "L",
		"M", "N", "O", "P", "Q", "R", "S", "T", "U", "V", "W", "X", "Y",
		"Z", "bracketleft", "backslash", "bracketright", "asciicircum",
		"underscore", "quoteleft", "a", "b", "c", "d", "e", "f", "g", "h",
		"i", "j", "k", "l", "m", "n", "o", "p", "q", "r", "s", "t", "u",
		"v", "w", "x", "y", "z", "braceleft", "bar", "braceright",
		"asciitilde", "exclamdown", "cent", "sterling", "fraction", "yen",
		"florin", "section", "currency", "quotesingle", "quotedblleft",
		"guillemotleft", "guilsinglleft", "guilsinglright", "fi", "fl",
		"endash", "dagger", "daggerdbl", "periodcentered", "paragraph",
		"bullet", "quotesinglbase", "quotedblbase", "quotedblright",
		"guillemotright", "ellipsis", "perthousand", "questiondown",
		"grave", "acute", "circumflex", "tilde", "macron", "breve",
		"dotaccent", "dieresis", "ring", "cedilla", "hungarumlaut",
		"ogonek", "caron", "emdash", "AE", "ordfeminine", "Lslash",
		"Oslash", "OE", "ordmasculine", "ae", "dotlessi", "lslash",
		"oslash", "oe", "germandbls", "onesuperior", "logicalnot", "mu",
		"trademark", "Eth", "onehalf", "plusminus", "Thorn", "onequarter",
		"divide", "brokenbar", "degree", "thorn", "threequarters",
		"twosuperior", "registered", "minus", "eth", "multiply",
		"threesuperior", "copyright", "Aacute", "Acircumflex", "Adieresis",
		"Agrave", "Aring", "Atilde", "Ccedilla", "Eacute", "Ecircumflex",
		"Edieresis", "Egrave", "Iacute", "Icircumflex", "Idieresis",
		"Igrave", "Ntilde", "Oacute", "Ocircumflex", "Odieresis", "Ograve",
		"Otilde", "Scaron", "Uacute", "Ucircumflex", "Udieresis", "Ugrave",
		"Yacute", "Ydieresis", "Zcaron", "aacute", "acircumflex",
		"adieresis", "agrave", "aring", "atilde", "ccedilla", "eacute",
		"ecircumflex", "edieresis", "egrave", "iacute", "icircumflex",
		"idieresis", "igrave", "ntilde", "oacute", "ocircumflex",
		"odieresis", "ograve", "otilde", "scaron", "uacute", "ucircumflex",
		"udieresis", "ugrave", "yacute", "ydieresis", "zcaron",
	}
	copy(s[:], core)
	for i := len(core); i < len(s); i++ {
		s[i] = fmt.Sprintf("sid%d", i)
	}
	return s
}()

// sidToName resolves a charset SID to its name: the predefined table below
//391, or this font's own String INDEX (SID-391) above it.
func (f *Font) sidToName(sid uint16) string {
	if int(sid) < len(standardStrings) {
		return standardStrings[sid]
	}
	if f.strings == nil {
		return ""
	}
	i := int(sid) - len(standardStrings)
	if i < 0 || i >= f.strings.Count() {
		return ""
	}
	return string(f.strings.Get(i))
}

// GlyphName returns the name of glyph gid, resolved through the charset.
func (f *Font) GlyphName(gid int) (string, bool) {
	if gid < 0 || gid >= len(f.Charset) {
		return "", false
	}
	return f.sidToName(f.Charset[gid]), true
}

// GlyphIndex resolves a glyph name to its glyph index by a linear scan of
// the charset — CFF carries no name-to-SID reverse index, and the face
// layer calls this rarely enough (font setup, SEAC-style lookups) that a
// scan is the right tradeoff over building and maintaining a map eagerly.
func (f *Font) GlyphIndex(name string) (int, bool) {
	for gid := range f.Charset {
		if n, ok := f.GlyphName(gid); ok && n == name {
			return gid, true
		}
	}
	return 0, false
}

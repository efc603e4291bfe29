// Package type1 implements a Type 1 font charstring decoder: eexec/
// charstring decryption and a Type 1 charstring interpreter producing
// outlines, including the seac accent-composition and flex hint
// extensions. Grounded on
// original_source/src/type1z/t1gload.c's T1_Parse_CharStrings state
// machine (the decrypt/interpret split, hsbw/sbw left-side-bearing
// handling, callothersubr-driven flex, and t1operator_seac).
package type1

// decrypt reverses Type 1's eexec/charstring encryption (Adobe Type 1 Font
// Format section 7.3 "eexec Encryption"), discarding the first lenIV bytes
// of decrypted output (random padding, default 4) as t1gload.c's decoder
// does before executing a charstring.
func decrypt(cipher []byte, r uint16, c1, c2 uint16, lenIV int) []byte {
	plain := make([]byte, len(cipher))
	for i, c := range cipher {
		p := c ^ byte(r>>8)
		plain[i] = p
		r = (uint16(c)+r)*c1 + c2
	}
	if lenIV < 0 || lenIV > len(plain) {
		lenIV = 0
	}
	return plain[lenIV:]
}

// DecryptEexec decrypts the eexec-encrypted private portion of a PFA/PFB
// Type 1 font (r=55665, per the Font Format spec section 7.3).
func DecryptEexec(cipher []byte) []byte {
	return decrypt(cipher, 55665, 52845, 22719, 4)
}

// DecryptCharstring decrypts one Type 1 charstring (r=4330, same section),
// honoring a non-default lenIV from the font's Private dict.
func DecryptCharstring(cipher []byte, lenIV int) []byte {
	return decrypt(cipher, 4330, 52845, 22719, lenIV)
}

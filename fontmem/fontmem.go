// Package fontmem implements a checked allocate/reallocate/free layer. Go's
// garbage collector makes an explicit free-list allocator unnecessary, but
// the library still routes every growable buffer (outline points, glyph
// zones, hint tables) through this package so that out-of-memory is a
// first-class, recoverable error value rather than a runtime panic or OOM
// kill — callers decide what to do with it, the allocator never recovers
// internally.
package fontmem

import "github.com/go-fontcore/fontcore"

// maxAlloc bounds a single allocation. Font tables are bounded by 32-bit
// lengths; anything asking for more than this is certainly a corrupt size
// field, not a legitimate font.
const maxAlloc = 1 << 30

// Alloc returns a zero-filled buffer of exactly n bytes, or OutOfMemory if n
// is negative or absurdly large.
func Alloc(n int) ([]byte, error) {
	if n < 0 || n > maxAlloc {
		return nil, fontcore.New(fontcore.ModuleMemory, fontcore.CodeOutOfMemory)
	}
	return make([]byte, n), nil
}

// Realloc grows or shrinks p to newSize, zero-filling any newly allocated
// tail. A nil p behaves like Alloc(newSize).
func Realloc(p []byte, newSize int) ([]byte, error) {
	if newSize < 0 || newSize > maxAlloc {
		return nil, fontcore.New(fontcore.ModuleMemory, fontcore.CodeOutOfMemory)
	}
	if newSize <= cap(p) {
		out := p[:newSize]
		for i := len(p); i < newSize; i++ {
			out[i] = 0
		}
		return out, nil
	}
	out := make([]byte, newSize)
	copy(out, p)
	return out, nil
}

// Free is a documented no-op: Go's GC reclaims p once it becomes
// unreachable. It exists so call sites can mirror FreeType's explicit
// allocate/free pairing, and accepts a nil slice without complaint.
func Free(p []byte) {
	_ = p
}

// Package stream implements the uniform byte-oriented access layer that the
// rest of fontcore reads font resources through: seek, read, framed read,
// and memory/file/custom backing.
package stream

import (
	"io"
	"os"

	"github.com/go-fontcore/fontcore"
)

// Stream is a byte-addressable font resource with a current position and,
// optionally, one active "frame" — a short byte window that Get* methods
// read from with a cursor. At most one frame may be active at a time; frame
// release on error is guaranteed by always pairing EnterFrame with a deferred
// ExitFrame at the call site (see package truetype, sfnt, etc. for the
// idiom).
type Stream struct {
	base io.ReaderAt
	size int64
	pos  int64

	// owned is true when the Stream owns base (opened from a pathname) and
	// must close it on Close. User-supplied streams are never closed.
	owned io.Closer

	// mem, when non-nil, is the whole resource held in memory; reads and
	// frames are sub-slices of mem rather than going through base.
	mem []byte

	frame    []byte
	frameOff int // cursor within frame
	inFrame  bool
}

// NewMemory wraps an in-memory byte slice. The Stream does not take
// ownership of b beyond holding a reference; b must not be mutated by the
// caller afterward.
func NewMemory(b []byte) *Stream {
	return &Stream{mem: b, size: int64(len(b))}
}

// NewFile opens path and returns an owning, file-backed Stream.
func NewFile(path string) (*Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fontcore.Newf(fontcore.ModuleStream, fontcore.CodeCannotOpenResource, "%v", err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fontcore.Newf(fontcore.ModuleStream, fontcore.CodeCannotOpenResource, "%v", err)
	}
	return &Stream{base: f, owned: f, size: fi.Size()}, nil
}

// NewReaderAt wraps a caller-supplied io.ReaderAt of known size. The caller
// retains lifetime responsibility; Close is a no-op.
func NewReaderAt(r io.ReaderAt, size int64) *Stream {
	return &Stream{base: r, size: size}
}

// Close releases an owned (file-backed) stream. It is a no-op for
// memory-backed or user-supplied streams.
func (s *Stream) Close() error {
	if s.owned != nil {
		err := s.owned.Close()
		s.owned = nil
		return err
	}
	return nil
}

// Size returns the total size of the resource.
func (s *Stream) Size() int64 { return s.size }

// Pos returns the current stream position.
func (s *Stream) Pos() int64 { return s.pos }

// Seek moves the stream's current position to an absolute offset.
func (s *Stream) Seek(pos int64) error {
	if pos < 0 || pos > s.size {
		return fontcore.New(fontcore.ModuleStream, fontcore.CodeInvalidStreamSeek)
	}
	s.pos = pos
	return nil
}

// Skip advances the current position by n bytes (n may be negative).
func (s *Stream) Skip(n int64) error {
	return s.Seek(s.pos + n)
}

// Read fills dst with n bytes from the current position, advancing it. If
// fewer than n bytes remain, Read returns the number of bytes actually
// copied along with InvalidStreamRead, so compressed-frame decoders (sbit's
// RLE row expansion) can react to an expected EOF instead of treating it as
// always-fatal.
func (s *Stream) Read(dst []byte, n int) (int, error) {
	got, err := s.ReadAt(s.pos, dst, n)
	s.pos += int64(got)
	return got, err
}

// ReadAt reads n bytes starting at an absolute offset, without moving the
// stream's current position.
func (s *Stream) ReadAt(pos int64, dst []byte, n int) (int, error) {
	if pos < 0 {
		return 0, fontcore.New(fontcore.ModuleStream, fontcore.CodeInvalidStreamSeek)
	}
	avail := s.size - pos
	if avail < 0 {
		avail = 0
	}
	want := int64(n)
	got := want
	if got > avail {
		got = avail
	}
	if got < 0 {
		got = 0
	}
	if got > 0 {
		if s.mem != nil {
			copy(dst[:got], s.mem[pos:pos+got])
		} else {
			if _, err := s.base.ReadAt(dst[:got], pos); err != nil && err != io.EOF {
				return int(got), fontcore.Newf(fontcore.ModuleStream, fontcore.CodeInvalidStreamRead, "%v", err)
			}
		}
	}
	if got < want {
		return int(got), fontcore.New(fontcore.ModuleStream, fontcore.CodeInvalidStreamRead)
	}
	return int(got), nil
}

// EnterFrame acquires a contiguous view of exactly n bytes starting at the
// current position, advancing the position past the frame. While a frame is
// active, Get* methods below read from it with an internal cursor. The
// caller must call ExitFrame — normally via defer, so it runs on every exit
// path including errors from a partially-read frame — before any other
// Stream operation.
func (s *Stream) EnterFrame(n int) error {
	if s.inFrame {
		return fontcore.New(fontcore.ModuleStream, fontcore.CodeInvalidStreamOperation)
	}
	if s.size-s.pos < int64(n) {
		return fontcore.New(fontcore.ModuleStream, fontcore.CodeInvalidStreamRead)
	}
	if s.mem != nil {
		s.frame = s.mem[s.pos : s.pos+int64(n)]
	} else {
		buf := make([]byte, n)
		if _, err := s.base.ReadAt(buf, s.pos); err != nil && err != io.EOF {
			return fontcore.Newf(fontcore.ModuleStream, fontcore.CodeInvalidStreamRead, "%v", err)
		}
		s.frame = buf
	}
	s.pos += int64(n)
	s.frameOff = 0
	s.inFrame = true
	return nil
}

// ExitFrame releases the active frame. Calling it without an active frame
// is a no-op, so a deferred ExitFrame is always safe even if EnterFrame
// itself failed.
func (s *Stream) ExitFrame() {
	s.inFrame = false
	s.frame = nil
	s.frameOff = 0
}

func (s *Stream) need(n int) error {
	if !s.inFrame {
		return fontcore.New(fontcore.ModuleStream, fontcore.CodeInvalidStreamOperation)
	}
	if len(s.frame)-s.frameOff < n {
		return fontcore.New(fontcore.ModuleStream, fontcore.CodeInvalidStreamRead)
	}
	return nil
}

// GetU8 reads an unsigned byte from the active frame.
func (s *Stream) GetU8() (uint8, error) {
	if err := s.need(1); err != nil {
		return 0, err
	}
	v := s.frame[s.frameOff]
	s.frameOff++
	return v, nil
}

// GetU16 reads a big-endian uint16 from the active frame.
func (s *Stream) GetU16() (uint16, error) {
	if err := s.need(2); err != nil {
		return 0, err
	}
	v := uint16(s.frame[s.frameOff])<<8 | uint16(s.frame[s.frameOff+1])
	s.frameOff += 2
	return v, nil
}

// GetI16 reads a big-endian int16 from the active frame.
func (s *Stream) GetI16() (int16, error) {
	v, err := s.GetU16()
	return int16(v), err
}

// GetU32 reads a big-endian uint32 from the active frame.
func (s *Stream) GetU32() (uint32, error) {
	if err := s.need(4); err != nil {
		return 0, err
	}
	b := s.frame[s.frameOff:]
	v := uint32(b[0])<<24 | uint32(b[1])<<16 | uint32(b[2])<<8 | uint32(b[3])
	s.frameOff += 4
	return v, nil
}

// GetI32 reads a big-endian int32 from the active frame.
func (s *Stream) GetI32() (int32, error) {
	v, err := s.GetU32()
	return int32(v), err
}

// GetTag reads a 4-byte table tag from the active frame.
func (s *Stream) GetTag() (uint32, error) {
	return s.GetU32()
}

// ReadAll returns the entire resource as a byte slice, without disturbing
// the stream's current position. Used by formats read whole rather than
// table-at-a-time, such as Type 1's byte-scanned cleartext/eexec sections.
func (s *Stream) ReadAll() ([]byte, error) {
	buf := make([]byte, s.size)
	if _, err := s.ReadAt(0, buf, int(s.size)); err != nil {
		return nil, err
	}
	return buf, nil
}

// GetBytes copies n raw bytes out of the active frame.
func (s *Stream) GetBytes(n int) ([]byte, error) {
	if err := s.need(n); err != nil {
		return nil, err
	}
	b := s.frame[s.frameOff : s.frameOff+n]
	s.frameOff += n
	return b, nil
}

package stream

import "testing"

func TestMemorySeekReadAt(t *testing.T) {
	data := []byte{0, 1, 2, 3, 4, 5, 6, 7}
	s := NewMemory(data)
	if s.Size() != int64(len(data)) {
		t.Fatalf("Size: got %d, want %d", s.Size(), len(data))
	}
	buf := make([]byte, 4)
	n, err := s.Read(buf, 4)
	if err != nil || n != 4 {
		t.Fatalf("Read: n=%d err=%v", n, err)
	}
	if s.Pos() != 4 {
		t.Fatalf("Pos after Read: got %d, want 4", s.Pos())
	}
	if got, want := buf, data[:4]; string(got) != string(want) {
		t.Fatalf("Read bytes: got % x, want % x", got, want)
	}

	n, err = s.ReadAt(2, buf, 4)
	if err != nil || n != 4 || string(buf) != string(data[2:6]) {
		t.Fatalf("ReadAt: n=%d err=%v buf=% x", n, err, buf)
	}

	if err := s.Seek(8); err != nil {
		t.Fatalf("Seek to end: %v", err)
	}
	if err := s.Seek(9); err == nil {
		t.Fatalf("Seek past end: want error, got nil")
	}
	if err := s.Seek(-1); err == nil {
		t.Fatalf("Seek negative: want error, got nil")
	}
}

func TestReadShort(t *testing.T) {
	s := NewMemory([]byte{1, 2, 3})
	buf := make([]byte, 8)
	n, err := s.Read(buf, 8)
	if err == nil {
		t.Fatalf("Read past end of stream: want error, got nil")
	}
	if n != 3 {
		t.Fatalf("Read past end: got n=%d, want 3 (actual available bytes)", n)
	}
}

func TestFrameLifecycle(t *testing.T) {
	s := NewMemory([]byte{0x00, 0x01, 0x02, 0x03, 'g', 'l', 'y', 'f'})
	if err := s.EnterFrame(4); err != nil {
		t.Fatalf("EnterFrame: %v", err)
	}
	v, err := s.GetU32()
	if err != nil || v != 0x00010203 {
		t.Fatalf("GetU32: got %#x, err %v", v, err)
	}
	// A second EnterFrame while one is active must fail.
	if err := s.EnterFrame(1); err == nil {
		t.Fatalf("nested EnterFrame: want error, got nil")
	}
	s.ExitFrame()
	// ExitFrame without an active frame is a harmless no-op.
	s.ExitFrame()

	if err := s.EnterFrame(4); err != nil {
		t.Fatalf("EnterFrame #2: %v", err)
	}
	tag, err := s.GetTag()
	if err != nil || tag != 0x676c7966 {
		t.Fatalf("GetTag: got %#x, err %v", tag, err)
	}
	s.ExitFrame()
}

func TestFrameOverread(t *testing.T) {
	s := NewMemory([]byte{1, 2})
	if err := s.EnterFrame(2); err != nil {
		t.Fatalf("EnterFrame: %v", err)
	}
	defer s.ExitFrame()
	if _, err := s.GetU32(); err == nil {
		t.Fatalf("GetU32 past frame end: want error, got nil")
	}
}

func TestEnterFrameBeyondStream(t *testing.T) {
	s := NewMemory([]byte{1, 2, 3})
	if err := s.EnterFrame(4); err == nil {
		t.Fatalf("EnterFrame beyond stream size: want error, got nil")
	}
}

func TestGetI16Negative(t *testing.T) {
	s := NewMemory([]byte{0xff, 0xff, 0x80, 0x00})
	if err := s.EnterFrame(4); err != nil {
		t.Fatal(err)
	}
	defer s.ExitFrame()
	v, err := s.GetI16()
	if err != nil || v != -1 {
		t.Fatalf("GetI16: got %d, err %v", v, err)
	}
	v, err = s.GetI16()
	if err != nil || v != -32768 {
		t.Fatalf("GetI16: got %d, err %v", v, err)
	}
}

func TestReadAllDoesNotMovePos(t *testing.T) {
	s := NewMemory([]byte{1, 2, 3, 4})
	s.Seek(2)
	all, err := s.ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if string(all) != "\x01\x02\x03\x04" {
		t.Fatalf("ReadAll: got % x", all)
	}
	if s.Pos() != 2 {
		t.Fatalf("ReadAll moved Pos: got %d, want 2", s.Pos())
	}
}

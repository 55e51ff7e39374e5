package growbuf

import (
	"testing"
	"unsafe"
)

func TestAppendAndBytes(t *testing.T) {
	var b Buf
	b.Append([]byte("hello"))
	b.Append([]byte(" world"))
	if string(b.Bytes()) != "hello world" {
		t.Fatalf("Bytes() = %q", b.Bytes())
	}
	if b.Len() != 11 {
		t.Fatalf("Len() = %d, want 11", b.Len())
	}
}

func TestAppendZeroPads(t *testing.T) {
	var b Buf
	b.Append([]byte{1, 2, 3})
	b.AppendZero(5)
	if b.Len() != 8 {
		t.Fatalf("Len() = %d, want 8", b.Len())
	}
	for _, v := range b.Bytes()[3:] {
		if v != 0 {
			t.Fatal("AppendZero must pad with zero bytes")
		}
	}
}

func TestPushUintptrRoundTrips(t *testing.T) {
	var b Buf
	b.PushUintptr(0xdeadbeef)
	if b.Len() == 0 {
		t.Fatal("PushUintptr did not grow the buffer")
	}
	if got := *(*uintptr)(unsafe.Pointer(&b.Bytes()[0])); got != 0xdeadbeef {
		t.Fatalf("read back %#x, want 0xdeadbeef", got)
	}
}

func TestTakeDetachesAndResetsBuffer(t *testing.T) {
	var b Buf
	b.Append([]byte("data"))
	out := b.Take()
	if string(out) != "data" {
		t.Fatalf("Take() = %q", out)
	}
	if b.Len() != 0 {
		t.Fatal("buffer must be empty after Take")
	}
}

func TestStartEndPtrBracketContents(t *testing.T) {
	var b Buf
	if b.StartPtr() != nil {
		t.Fatal("StartPtr of empty buffer must be nil")
	}
	b.Append([]byte{1, 2, 3, 4})
	start := b.StartPtr()
	end := b.EndPtr()
	if start == nil || end == nil || start == end {
		t.Fatal("StartPtr/EndPtr must bracket a non-empty buffer")
	}
}

func TestResetEmptiesWithoutReleasingCapacity(t *testing.T) {
	var b Buf
	b.Append(make([]byte, 64))
	b.Reset()
	if b.Len() != 0 {
		t.Fatal("Reset must empty the buffer")
	}
	if cap(b.Bytes()) < 64 {
		t.Fatalf("cap after Reset = %d, want >= 64", cap(b.Bytes()))
	}
}

func TestUintptrSlicePush(t *testing.T) {
	var s UintptrSlice
	s.Push(8)
	s.Push(16)
	s.Push(24)
	if s.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", s.Len())
	}
	items := s.Items()
	for i, v := range items {
		if v != uintptr((i+1)*8) {
			t.Fatalf("Items()[%d] = %d, want %d", i, v, (i+1)*8)
		}
	}
}

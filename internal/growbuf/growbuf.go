// Package growbuf implements a small growable byte buffer: append bytes,
// push fixed-size items, report length, expose pointer-to-start/end, and
// take ownership of the backing array. See DESIGN.md for why this stays a
// hand-rolled wrapper around a []byte, grown by doubling like a standard
// library bytes.Buffer, rather than importing a third-party buffer type.
//
// © 2025 yoink authors. MIT License.
package growbuf

import "unsafe"

// Buf is a growable byte buffer. The zero value is ready to use.
type Buf struct {
	data []byte
}

// Len returns the number of bytes currently held.
func (b *Buf) Len() int { return len(b.data) }

// Bytes returns a view of the buffer's current contents. The slice is only
// valid until the next mutating call.
func (b *Buf) Bytes() []byte { return b.data }

// StartPtr returns an unsafe.Pointer to the first byte, or nil if empty.
func (b *Buf) StartPtr() unsafe.Pointer {
	if len(b.data) == 0 {
		return nil
	}
	return unsafe.Pointer(&b.data[0])
}

// EndPtr returns an unsafe.Pointer one byte past the last byte.
func (b *Buf) EndPtr() unsafe.Pointer {
	if len(b.data) == 0 {
		return b.StartPtr()
	}
	return unsafe.Pointer(uintptr(b.StartPtr()) + uintptr(len(b.data)))
}

// Append copies p onto the end of the buffer, growing as needed.
func (b *Buf) Append(p []byte) {
	b.data = append(b.data, p...)
}

// AppendZero appends n zero bytes, used to pad allocations to alignment.
func (b *Buf) AppendZero(n int) {
	for i := 0; i < n; i++ {
		b.data = append(b.data, 0)
	}
}

// PushUintptr appends a native-width integer in machine byte order. (The
// traversal engine's trace of pointer-slot byte offsets uses UintptrSlice
// below, not this method.)
func (b *Buf) PushUintptr(v uintptr) {
	var tmp [unsafe.Sizeof(v)]byte
	*(*uintptr)(unsafe.Pointer(&tmp[0])) = v
	b.data = append(b.data, tmp[:]...)
}

// Reset empties the buffer without releasing its backing array.
func (b *Buf) Reset() { b.data = b.data[:0] }

// Take detaches the backing array from the buffer and returns it; the
// buffer is left empty afterward, mirroring rb_take's ownership transfer.
func (b *Buf) Take() []byte {
	d := b.data
	b.data = nil
	return d
}

// UintptrSlice is a small typed append-only list used for auxiliary traces
// (e.g. the pointer-slot-offset worklist in pkg/yoink's traversal engine).
// It exists alongside Buf because the trace is consumed as typed offsets,
// not raw bytes, and over-generalizing Buf to be generic would complicate
// its primary job of modeling raw payload bytes.
type UintptrSlice struct {
	items []uintptr
}

func (s *UintptrSlice) Push(v uintptr)   { s.items = append(s.items, v) }
func (s *UintptrSlice) Len() int         { return len(s.items) }
func (s *UintptrSlice) Items() []uintptr { return s.items }

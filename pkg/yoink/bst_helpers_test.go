package yoink

import (
	"encoding/binary"
	"unsafe"

	"github.com/jmeacham/yoink/internal/arena"
)

// Test fixture: a minimal binary search tree node laid out the way
// Span/PtrRange documents — two managed-pointer slots (Left, Right)
// followed by an 8-byte raw integer value outside the pointer range.
const nodeSize = 2*ptrSize + 8

func newBSTNode(a *Arena, value int64) Ptr {
	p := a.Alloc(nodeSize, 0, 2)
	setNodeValue(p, value)
	return p
}

func setNodeValue(p Ptr, v int64) {
	binary.LittleEndian.PutUint64(arena.Payload(p)[2*ptrSize:], uint64(v))
}

func nodeValue(p Ptr) int64 {
	return int64(binary.LittleEndian.Uint64(arena.Payload(p)[2*ptrSize:]))
}

func arenaSetFlags(p Ptr, bits uint8) { arena.SetFlags(p, bits) }

func nodeLeft(p Ptr) Ptr      { return arena.PtrSlot(p, 0) }
func nodeRight(p Ptr) Ptr     { return arena.PtrSlot(p, 1) }
func setNodeLeft(p, c Ptr)  { arena.SetPtrSlot(p, 0, c) }
func setNodeRight(p, c Ptr) { arena.SetPtrSlot(p, 1, c) }

func bstInsert(a *Arena, root Ptr, v int64) Ptr {
	if root.IsNull() {
		return newBSTNode(a, v)
	}
	if v < nodeValue(root) {
		setNodeLeft(root, bstInsert(a, nodeLeft(root), v))
	} else {
		setNodeRight(root, bstInsert(a, nodeRight(root), v))
	}
	return root
}

func bstCount(p Ptr) int {
	if p.IsNull() || p.IsTagged() {
		return 0
	}
	return 1 + bstCount(nodeLeft(p)) + bstCount(nodeRight(p))
}

func bstSum(p Ptr) int64 {
	if p.IsNull() || p.IsTagged() {
		return 0
	}
	return nodeValue(p) + bstSum(nodeLeft(p)) + bstSum(nodeRight(p))
}

func bstInOrder(p Ptr, out *[]int64) {
	if p.IsNull() || p.IsTagged() {
		return
	}
	bstInOrder(nodeLeft(p), out)
	*out = append(*out, nodeValue(p))
	bstInOrder(nodeRight(p), out)
}

// Raw-buffer accessors for records produced by YoinkToMalloc/Freeze, where a
// Ptr addresses the start of a payload inside a flat byte buffer directly
// rather than a *block struct — a different addressing scheme than live
// arena Ptrs, so these cannot share code with the nodeLeft/nodeRight family
// above. See engine.go's readPtrAt/writePtrAt for the same pattern.
func rawPtrSlot(p Ptr, i int) Ptr {
	return Ptr(*(*uintptr)(unsafe.Pointer(uintptr(p) + uintptr(i*ptrSize))))
}

func rawNodeValue(p Ptr) int64 {
	return int64(*(*uint64)(unsafe.Pointer(uintptr(p) + uintptr(2*ptrSize))))
}

func rawLeft(p Ptr) Ptr  { return rawPtrSlot(p, 0) }
func rawRight(p Ptr) Ptr { return rawPtrSlot(p, 1) }

func rawBSTSum(p Ptr) int64 {
	if p.IsNull() || p.IsTagged() {
		return 0
	}
	return rawNodeValue(p) + rawBSTSum(rawLeft(p)) + rawBSTSum(rawRight(p))
}

func uintptrOf(buf []byte) uintptr   { return uintptr(unsafe.Pointer(&buf[0])) }
func uintptrFromInt(off int) uintptr { return uintptr(off) }

func rawBSTCount(p Ptr) int {
	if p.IsNull() || p.IsTagged() {
		return 0
	}
	return 1 + rawBSTCount(rawLeft(p)) + rawBSTCount(rawRight(p))
}

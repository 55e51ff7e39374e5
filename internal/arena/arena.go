// Package arena implements the lock-free chain-of-blocks allocator that
// backs pkg/yoink: a single atomic pointer to the head of a singly linked
// list of allocation blocks, each carrying a header describing an object's
// size and embedded managed-pointer slice.
//
// Each block is a Go struct holding its header and a separately allocated
// payload slice; the traversal engine in pkg/yoink reads the header and the
// managed-pointer slots through the accessors below. See SPEC_FULL.md §10
// for why this is not built on Go's opaque, type-safe arena allocation
// experiment.
//
// DISCLAIMER. A live block is kept alive solely by its membership in some
// arena's chain (every block.next is an ordinary traced Go pointer). The
// managed pointers a caller stores inside a block's payload are plain
// uintptr data, deliberately invisible to the garbage collector, exactly as
// in the C original, and exist only to be reinterpreted by pkg/yoink's
// traversal engine via unsafe.Pointer round-trips. This is sound only
// because Go's current collector never moves heap-escaped objects and
// because every block this package hands out is linked into a chain before
// its Ptr is returned to the caller.
//
// © 2025 yoink authors. MIT License.
package arena

import (
	"sync/atomic"
	"unsafe"
)

const ptrSize = unsafe.Sizeof(uintptr(0))

// Block header flag bits consulted by the traversal engine in pkg/yoink;
// this package itself never inspects or enforces them structurally.
const (
	FlagNullChildren uint8 = 1 << 0 // prune outgoing pointers to null in the copy
	FlagNullSelf     uint8 = 1 << 1 // replace references to this block with null
	FlagAliasSelf    uint8 = 1 << 2 // share rather than copy this block
)

type header struct {
	tsz   int32 // payload size in bytes, a multiple of ptrSize
	nptrs int16 // number of managed-pointer slots
	bptrs int8  // offset (in pointer-sized units) to the first managed-pointer slot
	flags uint8
}

type block struct {
	next    atomic.Pointer[block]
	header  header
	payload []byte
}

// Ptr is a managed pointer: zero is null, an odd value is tagged raw data
// never dereferenced, and any other value is the address of a block record
// returned by some Arena's Alloc. It is not the address of the payload
// bytes themselves; those are reached through Payload.
type Ptr uintptr

// Null is the zero Ptr.
const Null Ptr = 0

// IsNull reports whether p is the null pointer.
func (p Ptr) IsNull() bool { return p == 0 }

// IsTagged reports whether p is a tagged raw value (odd, low bit set) that
// must never be dereferenced.
func (p Ptr) IsTagged() bool { return p&1 != 0 }

func ptrOf(b *block) Ptr { return Ptr(uintptr(unsafe.Pointer(b))) }

func blockOf(p Ptr) *block {
	if p == 0 || p&1 != 0 {
		panic("arena: attempt to dereference a null or tagged Ptr")
	}
	return (*block)(unsafe.Pointer(uintptr(p)))
}

func alignUp(n int) int {
	p := int(ptrSize)
	return (n + p - 1) &^ (p - 1)
}

// Arena is a single atomic pointer to the head of a chain of blocks. The
// zero value is a valid, empty arena.
type Arena struct {
	head atomic.Pointer[block]
}

func (a *Arena) addLink(b *block) {
	for {
		old := a.head.Load()
		b.next.Store(old)
		if a.head.CompareAndSwap(old, b) {
			return
		}
	}
}

// Alloc allocates size bytes (rounded up to pointer alignment), zero-filled,
// with a managed-pointer slice [bptrs, bptrs+nptrs) measured in pointer-sized
// words from the start of the payload. It fails only on host OOM, which (as
// in the C original) is unrecoverable — here surfaced as a Go panic, this
// runtime's native analogue of an abort.
func (a *Arena) Alloc(size, bptrs, nptrs int) Ptr {
	if bptrs < 0 || nptrs < 0 {
		panic("arena: negative pointer range")
	}
	padded := alignUp(size)
	if (bptrs+nptrs)*int(ptrSize) > padded {
		panic("arena: pointer range exceeds allocation size")
	}
	b := &block{
		header:  header{tsz: int32(padded), nptrs: int16(nptrs), bptrs: int8(bptrs)},
		payload: make([]byte, padded),
	}
	a.addLink(b)
	return ptrOf(b)
}

// Malloc allocates size opaque bytes with no managed-pointer slots.
func (a *Arena) Malloc(size int) Ptr {
	return a.Alloc(size, 0, 0)
}

// Free releases every block in the arena and leaves it reinitialized.
// Concurrent callers race harmlessly: only one observes the non-empty chain
// before its CAS succeeds, the rest observe an already-empty arena.
func (a *Arena) Free() {
	for {
		old := a.head.Load()
		if a.head.CompareAndSwap(old, nil) {
			return
		}
	}
}

// Join splices from's chain onto the front of to's chain in O(|from|) and
// leaves from empty. Wait-free per call on `from`; the final splice onto `to`
// retries under contention.
func (a *Arena) Join(from *Arena) {
	var stolen *block
	for {
		old := from.head.Load()
		if from.head.CompareAndSwap(old, nil) {
			stolen = old
			break
		}
	}
	if stolen == nil {
		return
	}
	tail := stolen
	for n := tail.next.Load(); n != nil; n = tail.next.Load() {
		tail = n
	}
	for {
		old := a.head.Load()
		tail.next.Store(old)
		if a.head.CompareAndSwap(old, stolen) {
			return
		}
	}
}

// DupInto allocates a block of identical size/layout in `a`, bulk-copies the
// source payload bytes, and returns the new block's Ptr. Used by the
// yoink-to-arena traversal mode in pkg/yoink.
func (a *Arena) DupInto(p Ptr) Ptr {
	src := blockOf(p)
	payload := make([]byte, len(src.payload))
	copy(payload, src.payload)
	b := &block{header: src.header, payload: payload}
	a.addLink(b)
	return ptrOf(b)
}

// Each walks the chain as it is at the moment of the call, invoking fn for
// every live block until fn returns false. Not safe to call concurrently
// with a mutator of the same arena.
func (a *Arena) Each(fn func(Ptr) bool) {
	for b := a.head.Load(); b != nil; b = b.next.Load() {
		if !fn(ptrOf(b)) {
			return
		}
	}
}

// Sweep keeps only the blocks for which keep returns true, unlinking and
// discarding the rest, and returns the total bytes freed. Not thread-safe —
// the arena is mutated in place.
func (a *Arena) Sweep(keep func(Ptr) bool) int64 {
	var freed int64
	var newHead, tail *block
	for b := a.head.Load(); b != nil; {
		next := b.next.Load()
		if keep(ptrOf(b)) {
			b.next.Store(nil)
			if tail == nil {
				newHead = b
			} else {
				tail.next.Store(b)
			}
			tail = b
		} else {
			freed += int64(b.header.tsz)
		}
		b = next
	}
	a.head.Store(newHead)
	return freed
}

// NBytes sums header.tsz across every live block in the arena.
func (a *Arena) NBytes() int64 {
	var n int64
	for b := a.head.Load(); b != nil; b = b.next.Load() {
		n += int64(b.header.tsz)
	}
	return n
}

/* -------------------------------------------------------------------------
   Per-block accessors used by the traversal engine in pkg/yoink.
   ------------------------------------------------------------------------- */

// TSZ returns the payload size in bytes of the block p addresses.
func TSZ(p Ptr) int { return int(blockOf(p).header.tsz) }

// NPtrs returns the number of managed-pointer slots in p's block.
func NPtrs(p Ptr) int { return int(blockOf(p).header.nptrs) }

// BPtrs returns the pointer-sized-word offset to the first managed-pointer
// slot in p's block.
func BPtrs(p Ptr) int { return int(blockOf(p).header.bptrs) }

// Flags returns the flag bits of p's block header.
func Flags(p Ptr) uint8 { return blockOf(p).header.flags }

// SetFlags ORs bits into p's block header flags.
func SetFlags(p Ptr, bits uint8) { blockOf(p).header.flags |= bits }

// Payload returns the raw payload bytes of p's block.
func Payload(p Ptr) []byte { return blockOf(p).payload }

// PtrSlot reads the i-th managed-pointer slot (i counted from bptrs) as a
// raw address value — may itself be null, tagged, or another arena Ptr.
func PtrSlot(p Ptr, i int) Ptr {
	return Ptr(slots(p)[i])
}

// SetPtrSlot overwrites the i-th managed-pointer slot in place.
func SetPtrSlot(p Ptr, i int, v Ptr) {
	slots(p)[i] = uintptr(v)
}

func slots(p Ptr) []uintptr {
	b := blockOf(p)
	off := int(b.header.bptrs) * int(ptrSize)
	n := int(b.header.nptrs)
	if n == 0 {
		return nil
	}
	if off+n*int(ptrSize) > len(b.payload) {
		panic("arena: pointer slice out of bounds for block")
	}
	return unsafe.Slice((*uintptr)(unsafe.Pointer(&b.payload[off])), n)
}

// PtrRange is a zero-sized marker type used to bracket the managed-pointer
// region of a caller's struct, mirroring the BEGIN_PTRS/END_PTRS macros in
// yoink.h.
type PtrRange struct{}

// Span computes (bptrs, nptrs), in pointer-sized words from base, given
// pointers to a struct's begin/end sentinel fields — the Go analogue of the
// ARENA_CALLOC macro's compile-time offset arithmetic.
func Span(base unsafe.Pointer, begin, end *PtrRange) (bptrs, nptrs int) {
	b := (uintptr(unsafe.Pointer(begin)) - uintptr(base)) / ptrSize
	e := (uintptr(unsafe.Pointer(end)) - uintptr(base)) / ptrSize
	return int(b), int(e - b)
}

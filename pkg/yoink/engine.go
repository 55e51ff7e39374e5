package yoink

import (
	"unsafe"

	"github.com/jmeacham/yoink/internal/arena"
	"github.com/jmeacham/yoink/internal/growbuf"
	"github.com/jmeacham/yoink/internal/reloctable"
)

// recordHeader mirrors internal/arena's block header byte-for-byte; it is
// what gets emitted in front of each record's payload when a caller asks
// for keepMetadata output. 8 bytes, already pointer-aligned.
type recordHeader struct {
	tsz   int32
	nptrs int16
	bptrs int8
	flags uint8
}

var recordHeaderSize = int(unsafe.Sizeof(recordHeader{}))

func writeRecordHeader(rb *growbuf.Buf, h recordHeader) {
	var raw [8]byte
	*(*recordHeader)(unsafe.Pointer(&raw[0])) = h
	rb.Append(raw[:])
}

func readPtrAt(b []byte, off int) Ptr {
	return Ptr(*(*uintptr)(unsafe.Pointer(&b[off])))
}

func writePtrAt(b []byte, off int, v Ptr) {
	*(*uintptr)(unsafe.Pointer(&b[off])) = uintptr(v)
}

// records is the result of the shared first pass: a concatenated stream of
// (optional header + payload) records for every block reachable from root,
// plus the bookkeeping a second pass needs to rewrite pointer slots once
// the stream's final resting address is known.
type records struct {
	data       []byte
	trace      growbuf.UintptrSlice // byte offsets, within data, of every emitted pointer slot
	visited    *reloctable.Table[int]
	rootOffset int
}

// buildRecords performs the first pass shared by YoinkToMalloc and Freeze:
// depth-first emission of header+payload (or bare payload) for every block
// reachable from root, recording each emitted pointer slot's byte offset so
// a caller can later rewrite every slot to an absolute address once the
// stream's final location is known.
//
// validate, when non-nil, is consulted BEFORE any block accessor touches a
// candidate pointer — FreezeStrict's caller builds it from the set of
// blocks actually present in a known-live set of arenas (internal/arena
// offers no way to safely tell a real block pointer from garbage by
// inspection alone, so strict mode must check membership first rather than
// dereference-then-detect). The first pointer that fails validate aborts
// the walk and buildRecords returns ok=false.
func buildRecords(root Ptr, keepMetadata bool, validate func(Ptr) bool) (recs records, ok bool) {
	visited := reloctable.New[int]()
	var rb growbuf.Buf
	var trace growbuf.UintptrSlice

	type task struct{ p Ptr }
	stack := []task{{root}}
	failed := false

	if validate != nil && !root.IsNull() && !root.IsTagged() && !validate(root) {
		return records{}, false
	}

	for len(stack) > 0 && !failed {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		p := t.p
		if p.IsNull() || p.IsTagged() {
			continue
		}
		off, added := visited.Ins(uintptr(p))
		if !added {
			continue
		}
		tsz := arena.TSZ(p)
		nptrs := arena.NPtrs(p)
		bptrs := arena.BPtrs(p)
		flags := arena.Flags(p)

		if keepMetadata {
			writeRecordHeader(&rb, recordHeader{
				tsz: int32(tsz), nptrs: int16(nptrs), bptrs: int8(bptrs), flags: flags,
			})
		}
		payloadOff := rb.Len()
		*off = payloadOff
		rb.Append(arena.Payload(p))

		for i := 0; i < nptrs; i++ {
			child := arena.PtrSlot(p, i)
			slotOff := payloadOff + (bptrs+i)*ptrSize
			trace.Push(uintptr(slotOff))
			if child.IsNull() || child.IsTagged() {
				continue
			}
			if validate != nil && !validate(child) {
				failed = true
				break
			}
			stack = append(stack, task{child})
		}
	}
	if failed {
		return records{}, false
	}
	rootOff, rootSeen := visited.Get(uintptr(root))
	if !rootSeen {
		// root itself was null/tagged: nothing was emitted.
		return records{data: nil, visited: visited, rootOffset: 0}, true
	}
	return records{data: rb.Take(), trace: trace, visited: visited, rootOffset: *rootOff}, true
}

// rewriteAbsolute walks recs.trace, resolving each traced slot's original
// raw pointer value through recs.visited and overwriting it with
// base+relocatedOffset. Slots holding null or tagged values are left
// untouched (tagged-pointer invariance). A slot whose original value does
// not resolve through visited is an unknown pointer: left as its original
// raw value, since strict mode already rejected such pointers during
// buildRecords and lenient mode's contract is to silently copy them through.
func rewriteAbsolute(data []byte, trace growbuf.UintptrSlice, visited *reloctable.Table[int], base uintptr) {
	for _, off := range trace.Items() {
		raw := readPtrAt(data, int(off))
		if raw.IsNull() || raw.IsTagged() {
			continue
		}
		relOff, ok := visited.Get(uintptr(raw))
		if !ok {
			continue
		}
		writePtrAt(data, int(off), Ptr(base+uintptr(*relOff)))
	}
}

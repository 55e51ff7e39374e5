package yoink

import "github.com/jmeacham/yoink/internal/arena"

// PtrRange is a zero-sized marker field a caller places at the boundaries
// of a struct's managed-pointer slice, mirroring the BEGIN_PTRS/END_PTRS
// sentinel macros in the original yoink.h. See Span.
type PtrRange = arena.PtrRange

// Span computes (bptrs, nptrs) — in pointer-sized words from base — given
// pointers to a struct's begin/end PtrRange sentinels, the Go analogue of
// the ARENA_CALLOC layout macro's compile-time offset arithmetic:
//
//	type node struct {
//	    Begin   yoink.PtrRange
//	    Left    yoink.Ptr
//	    Right   yoink.Ptr
//	    End     yoink.PtrRange
//	    Value   int
//	}
//	var n node
//	bptrs, nptrs := yoink.Span(unsafe.Pointer(&n), &n.Begin, &n.End)
//	p := a.Alloc(int(unsafe.Sizeof(n)), bptrs, nptrs)
var Span = arena.Span

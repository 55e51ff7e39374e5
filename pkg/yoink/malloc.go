package yoink

import "unsafe"

// YoinkToMalloc copies the subgraph reachable from root into a single
// self-contained byte buffer, rewriting every interior pointer to an
// absolute address inside that buffer. root must be a live arena pointer
// (not null or tagged-raw).
//
// When keepMetadata is true, each copied block is preceded by its header,
// so block boundaries can be recovered by scanning the headers; the
// returned rootOff is then the byte offset of the record's payload, not its
// header. When keepMetadata is false the buffer holds bare payload bytes
// back-to-back with no way to recover block boundaries other than by
// following pointer slots from root. In both cases the rewritten pointers
// address raw payload bytes inside the buffer, not arena blocks, so the
// buffer cannot be passed to Yoink, Yoinks, Freeze or the arena accessors.
func YoinkToMalloc(root Ptr, keepMetadata bool) (buf []byte, rootOff int) {
	if root.IsNull() || root.IsTagged() {
		panic("yoink: YoinkToMalloc requires a live arena pointer root")
	}
	recs, ok := buildRecords(root, keepMetadata, nil)
	if !ok {
		panic("yoink: unreachable: lenient buildRecords never fails")
	}
	if len(recs.data) == 0 {
		return nil, 0
	}
	base := uintptr(unsafe.Pointer(&recs.data[0]))
	rewriteAbsolute(recs.data, recs.trace, recs.visited, base)
	return recs.data, recs.rootOffset
}

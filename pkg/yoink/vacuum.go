package yoink

import (
	"github.com/jmeacham/yoink/internal/arena"
	"github.com/jmeacham/yoink/internal/reloctable"
)

// Vacuum marks every block reachable from roots, then unlinks and discards
// the rest of `a`'s chain, returning the total bytes freed. Block addresses
// of surviving blocks are unchanged — this is the in-place mark-and-sweep
// variant of the traversal engine, and is not safe to call concurrently
// with any mutator of `a`.
func Vacuum(a *Arena, roots []Ptr) int64 {
	marked := reloctable.New[struct{}]()
	stack := append([]Ptr(nil), roots...)
	for len(stack) > 0 {
		p := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if p.IsNull() || p.IsTagged() {
			continue
		}
		if !marked.Add(uintptr(p)) {
			continue
		}
		if arena.Flags(p)&FlagAliasSelf != 0 {
			continue // shared block: its children are not this arena's to sweep
		}
		nptrs := arena.NPtrs(p)
		for i := 0; i < nptrs; i++ {
			stack = append(stack, arena.PtrSlot(p, i))
		}
	}
	return a.Sweep(func(p Ptr) bool { return marked.In(uintptr(p)) })
}

// Package yoink implements an arena-based heap for object graphs: callers
// build a pointer-linked graph inside an Arena, then extract ("yoink") the
// transitively reachable subgraph into a fresh arena, a self-contained
// buffer, or a relocatable frozen blob, rewriting every interior pointer
// along the way.
//
// The public surface re-exports internal/arena's Ptr/Arena/PtrRange types
// so that callers never need to import an internal package directly.
// Yoink-to-arena, vacuum, and freeze each have their own worklist loop;
// the loops share the same traversal shape with different per-node actions.
//
// © 2025 yoink authors. MIT License.
package yoink

import (
	"unsafe"

	"github.com/jmeacham/yoink/internal/arena"
	"github.com/jmeacham/yoink/internal/reloctable"
)

// Arena is a lock-free chain of allocation blocks. See internal/arena for
// the full allocator surface (Alloc, Malloc, Free, Join, ...), all of which
// are promoted here via this alias.
type Arena = arena.Arena

// Ptr is a managed pointer: null, tagged-raw, or the address of a block
// record returned by some Arena's Alloc (not of its payload bytes).
type Ptr = arena.Ptr

// Null is the zero Ptr.
const Null = arena.Null

// Flag bits consulted by the traversal modes below.
const (
	FlagNullChildren = arena.FlagNullChildren
	FlagNullSelf      = arena.FlagNullSelf
	FlagAliasSelf     = arena.FlagAliasSelf
)

// ptrSize is the byte width of one managed-pointer slot, matching
// internal/arena's own alignment unit.
const ptrSize = int(unsafe.Sizeof(uintptr(0)))

type arenaTask struct {
	p     Ptr
	patch func(Ptr)
}

// yoinkToArena is the single implementation shared by Yoink and Yoinks. It
// seeds the relocation table with every block already in `to` (mapped to
// itself) so pointers
// already inside the destination are never duplicated, then walks the
// worklist depth-first, copying each newly visited block and patching every
// caller-visible reference — including the roots themselves — to point at
// the copy.
func yoinkToArena(to *Arena, roots []Ptr) int64 {
	visited := reloctable.New[Ptr]()
	to.Each(func(p Ptr) bool {
		*visited.Set(uintptr(p)) = p
		return true
	})

	var bytesCopied int64
	stack := make([]arenaTask, 0, len(roots))
	for i := range roots {
		i := i
		stack = append(stack, arenaTask{roots[i], func(v Ptr) { roots[i] = v }})
	}

	for len(stack) > 0 {
		t := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		p := t.p
		if p.IsNull() || p.IsTagged() {
			t.patch(p)
			continue
		}
		slot, added := visited.Ins(uintptr(p))
		if added {
			flags := arena.Flags(p)
			if flags&FlagAliasSelf != 0 {
				// Shared, not copied: the relocated value IS p, and its
				// children stay part of the original graph untouched.
				*slot = p
			} else {
				np := to.DupInto(p)
				*slot = np
				bytesCopied += int64(arena.TSZ(p))
				nullChildren := flags&FlagNullChildren != 0
				nptrs := arena.NPtrs(p)
				for i := nptrs - 1; i >= 0; i-- {
					idx := i
					if nullChildren {
						arena.SetPtrSlot(np, idx, Null)
						continue
					}
					child := arena.PtrSlot(p, idx)
					stack = append(stack, arenaTask{child, func(v Ptr) { arena.SetPtrSlot(np, idx, v) }})
				}
			}
		}
		relocated := *slot
		if arena.Flags(p)&FlagNullSelf != 0 {
			relocated = Null
		}
		t.patch(relocated)
	}
	return bytesCopied
}

// Yoink copies the subgraph reachable from root into `to`, rewriting every
// interior pointer, and returns the relocated root.
func Yoink(to *Arena, root Ptr) Ptr {
	roots := []Ptr{root}
	yoinkToArena(to, roots)
	return roots[0]
}

// Yoinks copies the subgraph reachable from any of roots into `to`,
// patching roots in place with their relocated values, and returns the
// total bytes copied.
func Yoinks(to *Arena, roots []Ptr) int64 {
	return yoinkToArena(to, roots)
}

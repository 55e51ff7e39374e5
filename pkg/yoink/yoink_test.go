package yoink

import (
	"math/rand"
	"testing"
)

// TestYoinkPreservesTreeShape builds a BST from 100 pseudo-random inserts,
// yoinks it into a fresh arena, and checks that node count, value sum, and
// in-order traversal all match.
func TestYoinkPreservesTreeShape(t *testing.T) {
	var src Arena
	rng := rand.New(rand.NewSource(1))
	var root Ptr
	for i := 0; i < 100; i++ {
		root = bstInsert(&src, root, rng.Int63n(10000))
	}
	wantCount := bstCount(root)
	wantSum := bstSum(root)
	var wantOrder []int64
	bstInOrder(root, &wantOrder)

	var dst Arena
	newRoot := Yoink(&dst, root)

	if got := bstCount(newRoot); got != wantCount {
		t.Fatalf("count = %d, want %d", got, wantCount)
	}
	if got := bstSum(newRoot); got != wantSum {
		t.Fatalf("sum = %d, want %d", got, wantSum)
	}
	var gotOrder []int64
	bstInOrder(newRoot, &gotOrder)
	if len(gotOrder) != len(wantOrder) {
		t.Fatalf("in-order length = %d, want %d", len(gotOrder), len(wantOrder))
	}
	for i := range wantOrder {
		if gotOrder[i] != wantOrder[i] {
			t.Fatalf("in-order[%d] = %d, want %d", i, gotOrder[i], wantOrder[i])
		}
	}
}

// TestYoinkBigTree repeats the shape check at 10,000 inserts.
func TestYoinkBigTree(t *testing.T) {
	var src Arena
	rng := rand.New(rand.NewSource(2))
	var root Ptr
	for i := 0; i < 10000; i++ {
		root = bstInsert(&src, root, rng.Int63n(1<<30))
	}
	wantSum := bstSum(root)
	wantCount := bstCount(root)

	var dst Arena
	newRoot := Yoink(&dst, root)

	if got := bstCount(newRoot); got != wantCount {
		t.Fatalf("count = %d, want %d", got, wantCount)
	}
	if got := bstSum(newRoot); got != wantSum {
		t.Fatalf("sum = %d, want %d", got, wantSum)
	}
	if dst.NBytes() != int64(wantCount*nodeSize) {
		t.Fatalf("dst.NBytes() = %d, want %d", dst.NBytes(), wantCount*nodeSize)
	}
}

// TestYoinkPreservesCycle builds root.left.right = root and checks that
// Yoink terminates and reproduces the cycle rather than recursing forever
// or duplicating the root.
func TestYoinkPreservesCycle(t *testing.T) {
	var src Arena
	root := newBSTNode(&src, 1)
	left := newBSTNode(&src, 2)
	setNodeLeft(root, left)
	setNodeRight(left, root)

	var dst Arena
	newRoot := Yoink(&dst, root)

	newLeft := nodeLeft(newRoot)
	if newLeft.IsNull() {
		t.Fatal("relocated left child is null")
	}
	if nodeRight(newLeft) != newRoot {
		t.Fatal("cycle not preserved: newRoot.left.right != newRoot")
	}
	if dst.NBytes() != int64(2*nodeSize) {
		t.Fatalf("dst.NBytes() = %d, want %d (root and left copied exactly once each)", dst.NBytes(), 2*nodeSize)
	}
}

// TestYoinksPreservesSharing yoinks two roots that both reference the same
// child and checks the child is copied exactly once, with both relocated
// roots pointing at the same copy.
func TestYoinksPreservesSharing(t *testing.T) {
	var src Arena
	shared := newBSTNode(&src, 99)
	p1 := newBSTNode(&src, 1)
	p2 := newBSTNode(&src, 2)
	setNodeLeft(p1, shared)
	setNodeLeft(p2, shared)

	var dst Arena
	roots := []Ptr{p1, p2}
	Yoinks(&dst, roots)

	c1 := nodeLeft(roots[0])
	c2 := nodeLeft(roots[1])
	if c1.IsNull() || c2.IsNull() {
		t.Fatal("relocated shared child is null")
	}
	if c1 != c2 {
		t.Fatalf("shared child copied twice: %v != %v", c1, c2)
	}
	if dst.NBytes() != int64(3*nodeSize) {
		t.Fatalf("dst.NBytes() = %d, want %d (two roots + one shared child)", dst.NBytes(), 3*nodeSize)
	}
}

// TestYoinkTaggedPointerInvariance checks that a tagged raw value stored in
// a pointer slot is copied through verbatim and never dereferenced.
func TestYoinkTaggedPointerInvariance(t *testing.T) {
	var src Arena
	root := newBSTNode(&src, 1)
	tagged := Ptr(0x1337<<1 | 1)
	setNodeLeft(root, tagged)

	var dst Arena
	newRoot := Yoink(&dst, root)

	if nodeLeft(newRoot) != tagged {
		t.Fatalf("tagged left slot = %#x, want %#x", uintptr(nodeLeft(newRoot)), uintptr(tagged))
	}
}

// TestYoinkNullRoot checks that yoinking a null root is a no-op that
// returns null without touching the destination arena.
func TestYoinkNullRoot(t *testing.T) {
	var dst Arena
	if got := Yoink(&dst, Null); !got.IsNull() {
		t.Fatalf("Yoink(Null) = %v, want Null", got)
	}
	if dst.NBytes() != 0 {
		t.Fatalf("dst.NBytes() = %d, want 0", dst.NBytes())
	}
}

// TestYoinkIntoNonEmptyDestinationSkipsExistingBlocks checks that blocks
// already present in the destination are never duplicated: yoinking a root
// already physically inside `to` is a no-op copy-wise.
func TestYoinkIntoNonEmptyDestinationSkipsExistingBlocks(t *testing.T) {
	var a Arena
	root := newBSTNode(&a, 7)
	before := a.NBytes()

	newRoot := Yoink(&a, root)
	if newRoot != root {
		t.Fatalf("yoinking a root already in its own arena relocated it: %v != %v", newRoot, root)
	}
	if a.NBytes() != before {
		t.Fatalf("NBytes changed from %d to %d", before, a.NBytes())
	}
}

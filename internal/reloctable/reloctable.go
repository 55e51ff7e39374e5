// Package reloctable implements the pointer-keyed hash table the traversal
// engine in pkg/yoink uses as its visited/relocation scratch map: a linear
// probing, open-addressed table keyed on a non-zero uintptr, with a parallel
// value slot whose width is fixed by the instantiated type parameter V.
//
// This was designed mainly to attach metadata to pointers during a graph
// walk, so it is fairly optimized for that and not a general hash table
// implementation.
//
// © 2025 yoink authors. MIT License.
package reloctable

import "github.com/jmeacham/yoink/internal/inthash"

// reservedEntries is the number of small integer keys that bypass hashing
// entirely and live in a fixed sidecar on the table handle, freeing zero as
// the "empty slot" sentinel for the hashed portion of the table.
const reservedEntries = 1

const (
	initOrder = 3 // smallest table holds 1<<3 = 8 slots
	distOrder = 5 // tables of order >= distOrder cap the probe budget at 1<<distOrder
)

// Table maps a non-zero uintptr key to a value of type V. Set V = struct{}
// (see the Set alias below) to use it as a pointer set.
type Table[V any] struct {
	res [reservedEntries]resEntry[V]
	ht  *hashTable[V]

	// Preemptive triggers a resize at 75% load instead of waiting for the
	// probe budget to be exhausted. Off by default, matching
	// PREEMPTIVE_RESIZE=false in the source this is grounded on.
	Preemptive bool
}

// Set is a Table used purely as a membership set; Value accessors still
// work but callers typically only care about Add/In.
type Set = Table[struct{}]

type resEntry[V any] struct {
	used bool
	val  V
}

// New constructs an empty table. The zero value of Table is also usable
// directly; New exists for readability at call sites.
func New[V any]() *Table[V] {
	return &Table[V]{}
}

// Get returns the value for k, or (nil, false) if absent.
func (t *Table[V]) Get(k uintptr) (*V, bool) {
	if k < reservedEntries {
		if !t.res[k].used {
			return nil, false
		}
		return &t.res[k].val, true
	}
	if t.ht == nil {
		return nil, false
	}
	hk := inthash.HashKey(k)
	idx, ok := t.ht.probeFind(hk)
	if !ok || t.ht.keys[idx] != hk {
		return nil, false
	}
	return &t.ht.vals[idx], true
}

// Ins creates the slot for k if absent and never replaces an existing value.
// added reports whether a new entry was created.
func (t *Table[V]) Ins(k uintptr) (v *V, added bool) {
	if k < reservedEntries {
		e := &t.res[k]
		if !e.used {
			e.used = true
			return &e.val, true
		}
		return &e.val, false
	}
	if t.ht == nil {
		t.ht = newHashTable[V](initOrder)
	}
	hk := inthash.HashKey(k)
	idx, ok := t.ht.probeFind(hk)
	isNew := !ok || t.ht.keys[idx] != hk
	if isNew {
		for !ok || (t.Preemptive && t.ht.loadHigh()) {
			t.ht = growHashTable(t.ht)
			idx, ok = t.ht.probeFind(hk)
		}
		t.ht.keys[idx] = hk
		t.ht.count++
	}
	return &t.ht.vals[idx], isNew
}

// Set is the shorthand "fast path" insert: it never reports whether the key
// already existed, and is intended for callers that are about to overwrite
// the value unconditionally anyway.
func (t *Table[V]) Set(k uintptr) *V {
	v, _ := t.Ins(k)
	return v
}

// Add is shorthand for Ins discarding the value pointer.
func (t *Table[V]) Add(k uintptr) bool {
	_, added := t.Ins(k)
	return added
}

// In reports whether k is present in the table.
func (t *Table[V]) In(k uintptr) bool {
	_, ok := t.Get(k)
	return ok
}

// Len returns the number of live entries.
func (t *Table[V]) Len() int {
	n := 0
	for _, e := range t.res {
		if e.used {
			n++
		}
	}
	if t.ht != nil {
		n += t.ht.count
	}
	return n
}

// Next walks the table in arbitrary but (absent mutation) stable order. Pass
// 0 as iter to start; ok is false once iteration is exhausted. The returned
// next value should be passed back in as iter for the following call.
func (t *Table[V]) Next(iter uintptr) (key uintptr, val *V, next uintptr, ok bool) {
	idx := iter
	for idx < reservedEntries {
		if t.res[idx].used {
			return idx, &t.res[idx].val, idx + 1, true
		}
		idx++
	}
	if t.ht != nil {
		i := int(idx) - reservedEntries
		for ; i < t.ht.size; i++ {
			if t.ht.keys[i] != 0 {
				return inthash.InvHashKey(t.ht.keys[i]), &t.ht.vals[i], uintptr(i + reservedEntries + 1), true
			}
		}
	}
	return 0, nil, 0, false
}

// Reset wipes every value to its zero value while preserving the key set —
// a cheap way to reuse a table as a freshly emptied set or map without
// repaying the cost of rebuilding the key index. This is the Go-shaped
// analogue of ht_new_vsize; see SPEC_FULL.md §2 for why a literal value-width
// change isn't expressible once V is fixed by instantiation.
func (t *Table[V]) Reset() {
	for i := range t.res {
		if t.res[i].used {
			var zero V
			t.res[i].val = zero
		}
	}
	if t.ht != nil {
		t.ht.vals = make([]V, t.ht.size)
	}
}

/* -------------------------------------------------------------------------
   Backing hash table
   ------------------------------------------------------------------------- */

type hashTable[V any] struct {
	keys []uintptr
	vals []V
	count int
	order int
	size  int
	dist  int
	mask  int
}

func newHashTable[V any](order int) *hashTable[V] {
	size := 1 << order
	ht := &hashTable[V]{
		order: order,
		size:  size,
		mask:  size - 1,
		keys:  make([]uintptr, size),
		vals:  make([]V, size),
	}
	if order < distOrder {
		ht.dist = size
	} else {
		ht.dist = 1 << distOrder
	}
	return ht
}

func (ht *hashTable[V]) loadHigh() bool {
	return ht.count >= ht.size-(ht.size>>2)
}

// probeFind scans up to ht.dist consecutive slots starting at k&mask and
// returns the index of either a matching key or the first empty slot. ok is
// false if no such slot was found within the probe budget.
func (ht *hashTable[V]) probeFind(k uintptr) (idx int, ok bool) {
	for j := uintptr(0); j < uintptr(ht.dist); j++ {
		i := int((k + j) & uintptr(ht.mask))
		if ht.keys[i] == 0 || ht.keys[i] == k {
			return i, true
		}
	}
	return 0, false
}

func growHashTable[V any](ht *hashTable[V]) *hashTable[V] {
	nht := newHashTable[V](ht.order + 1)
	nht.count = ht.count
	for i := 0; i < ht.size; i++ {
		if ht.keys[i] == 0 {
			continue
		}
		idx, ok := nht.probeFind(ht.keys[i])
		if !ok {
			// A freshly doubled table always has room for the old
			// table's entries; this would indicate a hashing bug.
			panic("reloctable: grow produced a table with no room")
		}
		nht.keys[idx] = ht.keys[i]
		nht.vals[idx] = ht.vals[i]
	}
	return nht
}

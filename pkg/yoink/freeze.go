package yoink

import (
	"errors"
	"sync"
	"unsafe"

	"github.com/jmeacham/yoink/internal/reloctable"
)

// Errors returned by the serialization API.
var (
	// ErrBufferTooSmall is returned by Freeze/FreezeStrict when a
	// caller-supplied destination buffer cannot hold the blob.
	ErrBufferTooSmall = errors.New("yoink: destination buffer too small for frozen blob")
	// ErrMagicMismatch is returned by Thaw when the blob's magic does not
	// match this process's signature.
	ErrMagicMismatch = errors.New("yoink: frozen blob magic mismatch")
	// ErrUnknownPointer is returned by FreezeStrict when a managed pointer
	// does not resolve inside any of the arenas it was asked to validate
	// against.
	ErrUnknownPointer = errors.New("yoink: managed pointer does not resolve to a live block")
)

type frozenHeader struct {
	magic  uint64
	length int64
	base   uintptr
	root   uintptr
}

var frozenHeaderSize = int(unsafe.Sizeof(frozenHeader{}))

var (
	signatureOnce  sync.Once
	signatureValue uint64
)

// signature derives a per-process constant from host word size and
// endianness, computed lazily and cached. It is not a security mechanism —
// it only catches gross structural mismatches, such as thawing a blob
// produced by a binary built
// for a different word size or byte order.
func signature() uint64 {
	signatureOnce.Do(func() {
		var probe uint16 = 1
		littleEndian := *(*byte)(unsafe.Pointer(&probe)) == 1
		var endianBit uint64
		if littleEndian {
			endianBit = 1
		}
		const base uint64 = 0x594f494e4b00 // "YOINK\x00"
		signatureValue = base<<16 | uint64(ptrSize)<<8 | endianBit
	})
	return signatureValue
}

// Frozen wraps the bytes of a relocatable blob: a fixed header
// {magic, length, base, root} followed by the back-to-back
// {header, payload} record stream freeze.go produces.
type Frozen struct {
	Bytes []byte
}

func readFrozenHeader(b []byte) frozenHeader {
	return *(*frozenHeader)(unsafe.Pointer(&b[0]))
}

func writeFrozenHeader(b []byte, h frozenHeader) {
	*(*frozenHeader)(unsafe.Pointer(&b[0])) = h
}

// Magic returns the blob's stored signature.
func (f *Frozen) Magic() uint64 { return readFrozenHeader(f.Bytes).magic }

// Length returns the blob's total byte length as recorded at production time.
func (f *Frozen) Length() int64 { return readFrozenHeader(f.Bytes).length }

// Base returns the address the blob believes it currently lives at.
func (f *Frozen) Base() uintptr { return readFrozenHeader(f.Bytes).base }

func freezeInto(root Ptr, dst []byte, validate func(Ptr) bool) (*Frozen, error) {
	recs, ok := buildRecords(root, true, validate)
	if !ok {
		return nil, ErrUnknownPointer
	}
	total := frozenHeaderSize + len(recs.data)

	var blob []byte
	if dst != nil {
		if len(dst) < total {
			return nil, ErrBufferTooSmall
		}
		blob = dst[:total]
	} else {
		blob = make([]byte, total)
	}
	copy(blob[frozenHeaderSize:], recs.data)

	dataRegion := blob[frozenHeaderSize:]
	var base uintptr
	if len(dataRegion) > 0 {
		base = uintptr(unsafe.Pointer(&dataRegion[0]))
	} else {
		base = uintptr(unsafe.Pointer(&blob[0])) + uintptr(frozenHeaderSize)
	}
	rewriteAbsolute(dataRegion, recs.trace, recs.visited, base)

	rootAbs := uintptr(root)
	if !root.IsNull() && !root.IsTagged() {
		rootAbs = base + uintptr(recs.rootOffset)
	}

	// The header records the blob's own start address, which is what Thaw
	// compares against the blob's current address.
	writeFrozenHeader(blob, frozenHeader{
		magic:  signature(),
		length: int64(total),
		base:   uintptr(unsafe.Pointer(&blob[0])),
		root:   rootAbs,
	})
	return &Frozen{Bytes: blob}, nil
}

// Freeze serializes the subgraph reachable from root into a relocatable
// blob. If ice is nil, Freeze allocates; otherwise it writes into ice and
// fails with ErrBufferTooSmall rather than truncate. A pointer the walk
// cannot resolve is copied through as its original raw value (lenient
// mode); see FreezeStrict for the validating alternative.
func Freeze(root Ptr, ice []byte) (*Frozen, error) {
	return freezeInto(root, ice, nil)
}

// FreezeStrict behaves like Freeze but first validates that every managed
// pointer reachable from root is either null, tagged-raw, or the payload
// address of a block actually present in one of knownArenas, returning
// ErrUnknownPointer on the first pointer that resolves to none of them.
// Validating here means checking membership before ever touching a
// candidate pointer's memory, since a pointer that fails validation may not
// address a real block at all.
func FreezeStrict(root Ptr, ice []byte, knownArenas ...*Arena) (*Frozen, error) {
	known := reloctable.New[struct{}]()
	for _, a := range knownArenas {
		a.Each(func(p Ptr) bool {
			known.Add(uintptr(p))
			return true
		})
	}
	return freezeInto(root, ice, func(p Ptr) bool { return known.In(uintptr(p)) })
}

func isManagedPtr(v uintptr) bool { return v != 0 && v&1 == 0 }

// Thaw re-establishes valid interior pointers in a blob that may have been
// copied to a new address since it was produced (or last thawed). If the
// blob's recorded base already equals its current address, Thaw is a
// no-op and simply returns the root. Otherwise every managed pointer in
// the record stream is shifted by delta = currentAddress - recordedBase.
// Thaw is idempotent: re-thawing at the same address afterward is a no-op.
func Thaw(f *Frozen) (Ptr, error) {
	if len(f.Bytes) < frozenHeaderSize {
		return Null, ErrMagicMismatch
	}
	h := readFrozenHeader(f.Bytes)
	if h.magic != signature() {
		return Null, ErrMagicMismatch
	}
	iceAddr := uintptr(unsafe.Pointer(&f.Bytes[0]))
	if h.base == iceAddr {
		return Ptr(h.root), nil
	}
	delta := iceAddr - h.base

	data := f.Bytes[frozenHeaderSize:]
	off := 0
	for off < len(data) {
		rh := *(*recordHeader)(unsafe.Pointer(&data[off]))
		payloadOff := off + recordHeaderSize
		bptrs := int(rh.bptrs)
		nptrs := int(rh.nptrs)
		for i := 0; i < nptrs; i++ {
			slotOff := payloadOff + (bptrs+i)*ptrSize
			v := readPtrAt(data, slotOff)
			if v.IsNull() || v.IsTagged() {
				continue
			}
			writePtrAt(data, slotOff, Ptr(uintptr(v)+delta))
		}
		off = payloadOff + int(rh.tsz)
	}

	newRoot := h.root
	if isManagedPtr(newRoot) {
		newRoot += delta
	}
	writeFrozenHeader(f.Bytes, frozenHeader{magic: h.magic, length: h.length, base: iceAddr, root: newRoot})
	return Ptr(newRoot), nil
}

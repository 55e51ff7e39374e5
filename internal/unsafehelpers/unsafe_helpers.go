// Package unsafehelpers holds the zero‑copy string conversion used by
// pkg/yoink's string helpers. It does not hold every use of `unsafe` in
// this module: internal/arena, internal/growbuf, internal/inthash and
// pkg/yoink import `unsafe` directly. Every helper is documented with
// clear pre‑/post‑conditions.
//
// ⚠️  **DISCLAIMER**   These helpers deliberately break the Go memory‑safety
// model for the sake of zero‑allocation conversions.  Use ONLY inside this
// repository; they are not part of the public API and may change without
// notice.  Misuse will lead to subtle data‑races or garbage‑collector
// corruption.
//
// All functions are `go:linkname`‑free, cgo‑free and pure Go 1.24.
//
// © 2025 yoink authors. MIT License.

package unsafehelpers

import "unsafe"

// StringToBytes re-interprets string data as a byte slice using unsafe.Pointer.
// The slice MUST remain read-only; writing to it will mutate immutable string storage and crash in future versions of Go.
func StringToBytes(s string) []byte {
	strHdr := (*[2]uintptr)(unsafe.Pointer(&s))
	return unsafe.Slice((*byte)(unsafe.Pointer(strHdr[0])), strHdr[1])
}

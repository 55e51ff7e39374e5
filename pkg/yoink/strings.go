package yoink

import (
	"fmt"

	"github.com/jmeacham/yoink/internal/arena"
	"github.com/jmeacham/yoink/internal/unsafehelpers"
)

// Strdup allocates len(s)+1 bytes in a and copies s in, null-terminating
// it for parity with C-style string helpers; callers reading the string
// back in Go should use Payload(p)[:len(s)] rather than relying on it.
func Strdup(a *Arena, s string) Ptr {
	p := a.Malloc(len(s) + 1)
	copy(arena.Payload(p), unsafehelpers.StringToBytes(s))
	return p
}

// Strndup allocates at most n+1 bytes in a, copying min(len(s), n) bytes of
// s and null-terminating at the actual copied length.
func Strndup(a *Arena, s string, n int) Ptr {
	if len(s) > n {
		s = s[:n]
	}
	return Strdup(a, s)
}

// Printf formats according to format and copies the result into a freshly
// allocated, null-terminated block — built on fmt.Sprintf rather than a
// hand-rolled double-pass vsnprintf, since Go's standard formatted-print
// primitives already cover this external-collaborator concern.
func Printf(a *Arena, format string, args ...any) Ptr {
	return Strdup(a, fmt.Sprintf(format, args...))
}

// Memcpy allocates len(src) bytes in a and copies src into them.
func Memcpy(a *Arena, src []byte) Ptr {
	p := a.Malloc(len(src))
	copy(arena.Payload(p), src)
	return p
}

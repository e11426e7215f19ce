package bridge

import (
	"unsafe"
	"unicode/utf8"
)

// RawBuffer is a borrowed (address, length) view over caller-owned memory. It
// is only valid for the duration of a call and must not be retained.
type RawBuffer struct {
	Data unsafe.Pointer
	Len  int
}

// Text copies exactly Len bytes out of the buffer. The bytes are not validated;
// passing malformed text is a caller contract violation. A nil Data with a
// non-zero Len is undefined behaviour and is not checked here.
func (b RawBuffer) Text() string {
	if b.Len <= 0 {
		return ""
	}
	return string(unsafe.Slice((*byte)(b.Data), b.Len))
}

// Bytes copies exactly Len bytes out of the buffer.
func (b RawBuffer) Bytes() []byte {
	if b.Len <= 0 {
		return []byte{}
	}
	out := make([]byte, b.Len)
	copy(out, unsafe.Slice((*byte)(b.Data), b.Len))
	return out
}

// OptionalCString decodes a NUL-terminated string. It reports false when p is
// nil or the bytes are not valid UTF-8, which callers treat as "absent".
func OptionalCString(p unsafe.Pointer) (string, bool) {
	if p == nil {
		return "", false
	}
	raw := unsafe.Slice((*byte)(p), cstrlen(p))
	if !utf8.Valid(raw) {
		return "", false
	}
	return string(raw), true
}

// CStringArray copies n NUL-terminated strings out of a C array of pointers.
// Nil entries and entries that are not valid UTF-8 are skipped, so the result
// may be shorter than n.
func CStringArray(p unsafe.Pointer, n int) []string {
	if p == nil || n <= 0 {
		return nil
	}
	ptrs := unsafe.Slice((*unsafe.Pointer)(p), n)
	out := make([]string, 0, n)
	for _, ptr := range ptrs {
		s, ok := OptionalCString(ptr)
		if !ok {
			continue
		}
		out = append(out, s)
	}
	return out
}

func cstrlen(p unsafe.Pointer) int {
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return n
}

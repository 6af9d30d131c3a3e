package pagefmt

import "encoding/binary"

// Bounds-checked accessors for raw page bytes. Every read the checker makes
// from a declared (and therefore untrusted) offset goes through these; a
// false return means the read would have left the buffer and must be turned
// into a reported error by the caller, never into an access.

// ByteAt returns the byte at off.
func ByteAt(b []byte, off int) (byte, bool) {
	if off < 0 || off >= len(b) {
		return 0, false
	}
	return b[off], true
}

// Uint16At returns the little-endian uint16 at off.
func Uint16At(b []byte, off int) (uint16, bool) {
	if off < 0 || off+2 > len(b) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(b[off:]), true
}

// Uint32At returns the little-endian uint32 at off.
func Uint32At(b []byte, off int) (uint32, bool) {
	if off < 0 || off+4 > len(b) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(b[off:]), true
}

// Uint64At returns the little-endian uint64 at off.
func Uint64At(b []byte, off int) (uint64, bool) {
	if off < 0 || off+8 > len(b) {
		return 0, false
	}
	return binary.LittleEndian.Uint64(b[off:]), true
}

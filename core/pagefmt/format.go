// Package pagefmt implements the generic slotted-page layout used by the
// storage engine's relation files: the fixed page header, the ItemID slot
// directory, and bounds-checked access to raw page bytes.
//
// The package is a pure codec. It decodes declared offsets and lengths but
// never trusts them; consistency checking between the decoded fields is the
// caller's job (see core/check). All multi-byte fields are little-endian,
// matching the on-disk format.
package pagefmt

import (
	"encoding/binary"
	"fmt"
)

// Page layout constants
const (
	// BlockSize is the fixed size of every page in a relation file.
	BlockSize = 8192

	// HeaderSize is the size of the generic page header.
	HeaderSize = 24

	// ItemIDSize is the size of one slot directory entry.
	ItemIDSize = 4

	// MaxAlign is the platform alignment quantum; tuple starts and the
	// end-of-attributes offset are rounded up to it.
	MaxAlign = 8
)

// Page header byte offsets
const (
	offsetLSN         = 0  // page LSN (8 bytes)
	offsetChecksum    = 8  // page checksum (2 bytes)
	offsetFlags       = 10 // page flag bits (2 bytes)
	offsetLower       = 12 // end of the slot directory (2 bytes)
	offsetUpper       = 14 // start of tuple data (2 bytes)
	offsetSpecial     = 16 // start of the special space (2 bytes)
	offsetSizeVersion = 18 // page size | layout version (2 bytes)
	offsetPruneXID    = 20 // oldest prunable XID (4 bytes)
)

// Header is the parsed generic page header. Fields are raw declared values;
// nothing here is guaranteed to be self-consistent on a corrupted page.
type Header struct {
	LSN         uint64
	Checksum    uint16
	Flags       uint16
	Lower       uint16
	Upper       uint16
	Special     uint16
	SizeVersion uint16
	PruneXID    uint32
}

// ParseHeader decodes the generic page header from the start of a page
// buffer. It fails only when the buffer cannot hold a header at all.
func ParseHeader(page []byte) (Header, error) {
	if len(page) < HeaderSize {
		return Header{}, fmt.Errorf("page buffer too small for header: %d bytes", len(page))
	}
	return Header{
		LSN:         binary.LittleEndian.Uint64(page[offsetLSN:]),
		Checksum:    binary.LittleEndian.Uint16(page[offsetChecksum:]),
		Flags:       binary.LittleEndian.Uint16(page[offsetFlags:]),
		Lower:       binary.LittleEndian.Uint16(page[offsetLower:]),
		Upper:       binary.LittleEndian.Uint16(page[offsetUpper:]),
		Special:     binary.LittleEndian.Uint16(page[offsetSpecial:]),
		SizeVersion: binary.LittleEndian.Uint16(page[offsetSizeVersion:]),
		PruneXID:    binary.LittleEndian.Uint32(page[offsetPruneXID:]),
	}, nil
}

// Serialize writes the header into the first HeaderSize bytes of page.
func (h Header) Serialize(page []byte) {
	binary.LittleEndian.PutUint64(page[offsetLSN:], h.LSN)
	binary.LittleEndian.PutUint16(page[offsetChecksum:], h.Checksum)
	binary.LittleEndian.PutUint16(page[offsetFlags:], h.Flags)
	binary.LittleEndian.PutUint16(page[offsetLower:], h.Lower)
	binary.LittleEndian.PutUint16(page[offsetUpper:], h.Upper)
	binary.LittleEndian.PutUint16(page[offsetSpecial:], h.Special)
	binary.LittleEndian.PutUint16(page[offsetSizeVersion:], h.SizeVersion)
	binary.LittleEndian.PutUint32(page[offsetPruneXID:], h.PruneXID)
}

// PageSize returns the declared page size (the size/version field with the
// version byte masked off).
func (h Header) PageSize() int {
	return int(h.SizeVersion) &^ 0xFF
}

// LayoutVersion returns the declared page layout version.
func (h Header) LayoutVersion() int {
	return int(h.SizeVersion) & 0xFF
}

// MaxOffset returns the number of slot directory entries the page declares,
// derived from Lower. The result is clamped to what a page can physically
// hold so a corrupted Lower cannot drive reads past the buffer.
func (h Header) MaxOffset() int {
	if int(h.Lower) < HeaderSize {
		return 0
	}
	n := (int(h.Lower) - HeaderSize) / ItemIDSize
	if limit := (BlockSize - HeaderSize) / ItemIDSize; n > limit {
		n = limit
	}
	return n
}

// MaxAligned rounds n up to the next MaxAlign boundary.
func MaxAligned(n int) int {
	return (n + MaxAlign - 1) &^ (MaxAlign - 1)
}

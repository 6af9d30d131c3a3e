package pagefmt

import "encoding/binary"

// ItemFlag is the 2-bit state of a slot directory entry.
type ItemFlag uint8

const (
	// ItemUnused marks a slot that carries no tuple and may be reused.
	ItemUnused ItemFlag = 0
	// ItemNormal marks a slot pointing at a live tuple.
	ItemNormal ItemFlag = 1
	// ItemRedirect marks a slot redirected to another slot.
	ItemRedirect ItemFlag = 2
	// ItemDead marks a slot whose tuple is dead.
	ItemDead ItemFlag = 3
)

func (f ItemFlag) String() string {
	switch f {
	case ItemUnused:
		return "unused"
	case ItemNormal:
		return "normal"
	case ItemRedirect:
		return "redirect"
	case ItemDead:
		return "dead"
	}
	return "invalid"
}

// ItemID is one decoded slot directory entry. On disk it is a single
// little-endian uint32 packed as off:15 / flags:2 / len:15.
type ItemID struct {
	Off  uint16
	Len  uint16
	Flag ItemFlag
}

const (
	itemOffMask  = 0x7FFF
	itemFlagMask = 0x3
)

// DecodeItemID unpacks a raw slot directory word.
func DecodeItemID(v uint32) ItemID {
	return ItemID{
		Off:  uint16(v & itemOffMask),
		Flag: ItemFlag((v >> 15) & itemFlagMask),
		Len:  uint16(v >> 17),
	}
}

// EncodeItemID packs an ItemID into its on-disk word. Off and Len are
// truncated to their 15-bit fields.
func EncodeItemID(id ItemID) uint32 {
	return uint32(id.Off&itemOffMask) |
		uint32(id.Flag&itemFlagMask)<<15 |
		uint32(id.Len&itemOffMask)<<17
}

// ItemIDAt decodes the i-th slot directory entry (0-based). The second
// return value is false when the entry would lie outside the page buffer.
func ItemIDAt(page []byte, i int) (ItemID, bool) {
	off := HeaderSize + i*ItemIDSize
	if i < 0 || off+ItemIDSize > len(page) {
		return ItemID{}, false
	}
	return DecodeItemID(binary.LittleEndian.Uint32(page[off:])), true
}

// PutItemIDAt writes the i-th slot directory entry (0-based). It is used by
// tests and page-construction tooling; the checker itself never writes.
func PutItemIDAt(page []byte, i int, id ItemID) bool {
	off := HeaderSize + i*ItemIDSize
	if i < 0 || off+ItemIDSize > len(page) {
		return false
	}
	binary.LittleEndian.PutUint32(page[off:], EncodeItemID(id))
	return true
}

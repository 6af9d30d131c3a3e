package check

import "github.com/FocuswithJustin/btcheck/core/pagefmt"

// OpaqueSize is the size of the index trailer stored in a page's special
// space.
const OpaqueSize = 16

// Trailer byte offsets, relative to the special-space start.
const (
	opaqueOffsetPrev    = 0  // left sibling block (4 bytes)
	opaqueOffsetNext    = 4  // right sibling block (4 bytes)
	opaqueOffsetLevel   = 8  // tree level, or an XID on deleted pages (4 bytes)
	opaqueOffsetFlags   = 12 // page state bits (2 bytes)
	opaqueOffsetCycleID = 14 // vacuum cycle ID (2 bytes)
)

// OpaqueFlags are the page state bits stored in the trailer.
type OpaqueFlags uint16

const (
	// FlagLeaf marks a leaf page.
	FlagLeaf OpaqueFlags = 1 << iota
	// FlagRoot marks the root page.
	FlagRoot
	// FlagDeleted marks a deleted page; its level field holds an XID.
	FlagDeleted
	// FlagMeta marks the meta page.
	FlagMeta
	// FlagHalfDead marks a half-dead page.
	FlagHalfDead
	// FlagSplitEnd marks the rightmost page of a split group.
	FlagSplitEnd
	// FlagHasGarbage marks a page with dead tuples to reclaim.
	FlagHasGarbage
)

const knownOpaqueFlags = FlagLeaf | FlagRoot | FlagDeleted | FlagMeta |
	FlagHalfDead | FlagSplitEnd | FlagHasGarbage

// Opaque is the decoded index trailer of a regular page.
type Opaque struct {
	Prev        pagefmt.BlockNumber
	Next        pagefmt.BlockNumber
	LevelOrXact uint32
	Flags       OpaqueFlags
	CycleID     uint16
}

// parseOpaque decodes the trailer at the given special-space offset. It
// fails when the trailer would not fit inside the page buffer.
func parseOpaque(page []byte, special int) (Opaque, bool) {
	prev, ok1 := pagefmt.Uint32At(page, special+opaqueOffsetPrev)
	next, ok2 := pagefmt.Uint32At(page, special+opaqueOffsetNext)
	level, ok3 := pagefmt.Uint32At(page, special+opaqueOffsetLevel)
	flags, ok4 := pagefmt.Uint16At(page, special+opaqueOffsetFlags)
	cycle, ok5 := pagefmt.Uint16At(page, special+opaqueOffsetCycleID)
	if !(ok1 && ok2 && ok3 && ok4 && ok5) {
		return Opaque{}, false
	}
	return Opaque{
		Prev:        pagefmt.BlockNumber(prev),
		Next:        pagefmt.BlockNumber(next),
		LevelOrXact: level,
		Flags:       OpaqueFlags(flags),
		CycleID:     cycle,
	}, true
}

// IsLeaf reports whether the page is a leaf.
func (o Opaque) IsLeaf() bool { return o.Flags&FlagLeaf != 0 }

// IsDeleted reports whether the page is deleted. Deleted pages have no
// level; LevelOrXact holds an XID instead.
func (o Opaque) IsDeleted() bool { return o.Flags&FlagDeleted != 0 }

// IsRightmost reports whether the page has no right sibling.
func (o Opaque) IsRightmost() bool { return o.Next == 0 }

// FirstDataKey returns the 1-based offset number of the first data-key
// tuple. On non-rightmost pages slot 1 holds the high key, so data starts
// at slot 2.
func (o Opaque) FirstDataKey() int {
	if o.IsRightmost() {
		return 1
	}
	return 2
}

// UnknownFlags returns any reserved bits set in the flag word.
func (o Opaque) UnknownFlags() OpaqueFlags {
	return o.Flags &^ knownOpaqueFlags
}

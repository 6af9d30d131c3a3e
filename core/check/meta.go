package check

import "github.com/FocuswithJustin/btcheck/core/pagefmt"

// Expected meta-page identification constants.
const (
	// MetaMagic identifies a B-tree index meta page.
	MetaMagic = 0x053162
	// MetaVersion is the supported index format version.
	MetaVersion = 2
)

// Meta field byte offsets, relative to the end of the generic page header.
const (
	metaOffsetMagic     = 0
	metaOffsetVersion   = 4
	metaOffsetRoot      = 8
	metaOffsetLevel     = 12
	metaOffsetFastRoot  = 16
	metaOffsetFastLevel = 20
	metaSize            = 24
)

// Meta is the decoded content of the meta page (block 0).
type Meta struct {
	Magic     uint32
	Version   uint32
	Root      pagefmt.BlockNumber
	Level     uint32
	FastRoot  pagefmt.BlockNumber
	FastLevel uint32
}

// parseMeta decodes the meta fields following the page header. It fails
// only when the buffer cannot hold them.
func parseMeta(page []byte) (Meta, bool) {
	base := pagefmt.HeaderSize
	magic, ok1 := pagefmt.Uint32At(page, base+metaOffsetMagic)
	version, ok2 := pagefmt.Uint32At(page, base+metaOffsetVersion)
	root, ok3 := pagefmt.Uint32At(page, base+metaOffsetRoot)
	level, ok4 := pagefmt.Uint32At(page, base+metaOffsetLevel)
	fastRoot, ok5 := pagefmt.Uint32At(page, base+metaOffsetFastRoot)
	fastLevel, ok6 := pagefmt.Uint32At(page, base+metaOffsetFastLevel)
	if !(ok1 && ok2 && ok3 && ok4 && ok5 && ok6) {
		return Meta{}, false
	}
	return Meta{
		Magic:     magic,
		Version:   version,
		Root:      pagefmt.BlockNumber(root),
		Level:     level,
		FastRoot:  pagefmt.BlockNumber(fastRoot),
		FastLevel: fastLevel,
	}, true
}

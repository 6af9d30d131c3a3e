// Package check validates the on-disk structure of B-tree index pages.
//
// The checker is a read-only diagnostic over raw page bytes: it parses the
// generic page header, the index trailer, the slot directory and every
// tuple's attribute stream, and reports structural corruption as counted
// diagnostics instead of failing. It never reads outside the supplied
// buffer, whatever the page's declared offsets claim. It does not repair
// pages and does not follow links to other pages; each call judges exactly
// one page.
package check

import (
	"github.com/FocuswithJustin/btcheck/core/pagefmt"
	"github.com/FocuswithJustin/btcheck/core/schema"
	"github.com/FocuswithJustin/btcheck/internal/report"
)

// BlockKind distinguishes the meta page from regular index pages.
type BlockKind int

const (
	// KindRegular is an ordinary index page.
	KindRegular BlockKind = iota
	// KindMeta is the format-identification page.
	KindMeta
)

// KindForBlock returns the kind implied by a block's position: block 0 is
// the meta page.
func KindForBlock(blk pagefmt.BlockNumber) BlockKind {
	if blk == 0 {
		return KindMeta
	}
	return KindRegular
}

// Checker validates pages of one index relation. It holds only immutable
// state, so a single Checker may be shared across goroutines as long as the
// Reporter is safe for concurrent use.
type Checker struct {
	rel *schema.Relation
	rep report.Reporter
}

// New returns a Checker for the given relation schema, emitting diagnostics
// to rep.
func New(rel *schema.Relation, rep report.Reporter) *Checker {
	return &Checker{rel: rel, rep: rep}
}

// CheckPage validates one page and returns the number of structural errors
// found. Errors never abort the page: every check that can still be
// performed safely is performed.
func (c *Checker) CheckPage(page []byte, blk pagefmt.BlockNumber, kind BlockKind) uint32 {
	if len(page) < pagefmt.HeaderSize {
		c.rep.Report(report.Pagef(report.Warning, uint32(blk),
			"page buffer holds %d bytes, too small for a page header", len(page)))
		return 1
	}

	hdr, err := pagefmt.ParseHeader(page)
	if err != nil {
		// Unreachable given the length check above, but a parse
		// failure is still one counted error.
		c.rep.Report(report.Pagef(report.Warning, uint32(blk), "unparsable page header: %v", err))
		return 1
	}

	nerrs := c.checkHeader(hdr, page, blk)

	if kind == KindMeta {
		nerrs += c.checkMeta(page, blk)
	} else {
		nerrs += c.checkRegular(hdr, page, blk)
	}

	if nerrs > 0 {
		c.rep.Report(report.Pagef(report.Warning, uint32(blk),
			"page is probably corrupted, %d errors reported", nerrs))
	}
	return nerrs
}

// checkHeader verifies that the generic header's declared offsets are
// self-consistent and inside the buffer.
func (c *Checker) checkHeader(hdr pagefmt.Header, page []byte, blk pagefmt.BlockNumber) uint32 {
	var nerrs uint32

	if int(hdr.Lower) < pagefmt.HeaderSize {
		c.rep.Report(report.Pagef(report.Warning, uint32(blk),
			"lower %d is inside the page header (%d bytes)", hdr.Lower, pagefmt.HeaderSize))
		nerrs++
	}
	if hdr.Lower > hdr.Upper {
		c.rep.Report(report.Pagef(report.Warning, uint32(blk),
			"lower %d is above upper %d", hdr.Lower, hdr.Upper))
		nerrs++
	}
	if hdr.Upper > hdr.Special {
		c.rep.Report(report.Pagef(report.Warning, uint32(blk),
			"upper %d is above special %d", hdr.Upper, hdr.Special))
		nerrs++
	}
	if int(hdr.Special) > len(page) {
		c.rep.Report(report.Pagef(report.Warning, uint32(blk),
			"special %d is past the end of the page (%d bytes)", hdr.Special, len(page)))
		nerrs++
	}
	if hdr.PageSize() != pagefmt.BlockSize {
		c.rep.Report(report.Pagef(report.Warning, uint32(blk),
			"declared page size %d does not match block size %d", hdr.PageSize(), pagefmt.BlockSize))
		nerrs++
	}

	return nerrs
}

// checkMeta validates the meta page's identification fields. Magic and
// version are independent checks; one failing does not hide the other.
func (c *Checker) checkMeta(page []byte, blk pagefmt.BlockNumber) uint32 {
	meta, ok := parseMeta(page)
	if !ok {
		c.rep.Report(report.Pagef(report.Warning, uint32(blk),
			"page too small to hold meta data"))
		return 1
	}

	c.rep.Report(report.Pagef(report.Debug2, uint32(blk),
		"meta page [magic=%d, version=%d]", meta.Magic, meta.Version))

	var nerrs uint32
	if meta.Magic != MetaMagic {
		c.rep.Report(report.Pagef(report.Warning, uint32(blk),
			"meta page contains invalid magic number %d (should be %d)", meta.Magic, MetaMagic))
		nerrs++
	}
	if meta.Version != MetaVersion {
		c.rep.Report(report.Pagef(report.Warning, uint32(blk),
			"meta page contains invalid version %d (should be %d)", meta.Version, MetaVersion))
		nerrs++
	}

	// Root and fast-root can only be range-checked against the
	// relation's block count, which this checker never sees; trace them
	// for the caller instead.
	c.rep.Report(report.Pagef(report.Debug2, uint32(blk),
		"meta root=%d level=%d fastroot=%d fastlevel=%d",
		meta.Root, meta.Level, meta.FastRoot, meta.FastLevel))

	return nerrs
}

// checkRegular validates a regular index page: trailer geometry, the
// leaf/level invariant, then every slot.
func (c *Checker) checkRegular(hdr pagefmt.Header, page []byte, blk pagefmt.BlockNumber) uint32 {
	var nerrs uint32

	if int(hdr.Special) > len(page)-OpaqueSize {
		c.rep.Report(report.Pagef(report.Warning, uint32(blk),
			"not enough special space for index data (%d > %d)",
			hdr.Special, len(page)-OpaqueSize))
		nerrs++
	}

	opaque, haveOpaque := parseOpaque(page, int(hdr.Special))
	if haveOpaque {
		if unknown := opaque.UnknownFlags(); unknown != 0 {
			c.rep.Report(report.Pagef(report.Warning, uint32(blk),
				"unknown flag bits %#04x set in index trailer", uint16(unknown)))
			nerrs++
		}

		// Deleted pages are exempt: their level field holds an XID,
		// not a level.
		if !opaque.IsDeleted() {
			if opaque.IsLeaf() {
				if opaque.LevelOrXact != 0 {
					c.rep.Report(report.Pagef(report.Warning, uint32(blk),
						"is a leaf page, but level %d is not zero", opaque.LevelOrXact))
					nerrs++
				}
			} else if opaque.LevelOrXact == 0 {
				c.rep.Report(report.Pagef(report.Warning, uint32(blk),
					"is a non-leaf page, but level is zero"))
				nerrs++
			}
		}
	}

	ntuples := hdr.MaxOffset()
	c.rep.Report(report.Pagef(report.Debug1, uint32(blk),
		"max number of tuples = %d", ntuples))

	for off := 1; off <= ntuples; off++ {
		nerrs += c.checkTuple(page, blk, off, opaque, haveOpaque)
	}

	return nerrs
}

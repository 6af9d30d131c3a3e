package check

import (
	"github.com/FocuswithJustin/btcheck/core/pagefmt"
	"github.com/FocuswithJustin/btcheck/internal/report"
)

// Tuple header layout: a 6-byte item pointer (heap block hi/lo halves plus
// offset number) followed by a 2-byte info word.
const (
	tupleHeaderSize = 8

	tupleOffsetBlockHi = 0
	tupleOffsetBlockLo = 2
	tupleOffsetPos     = 4
	tupleOffsetInfo    = 6
)

// Info word bits: low 13 bits carry the tuple size, the top bits flag
// variable-width attributes and a null bitmap. Bit 0x2000 is reserved.
const (
	infoSizeMask     = 0x1FFF
	infoReservedMask = 0x2000
	infoVarMask      = 0x4000
	infoNullMask     = 0x8000
)

// bitmapLength returns the size of the null bitmap for natts attributes.
func bitmapLength(natts int) int {
	return (natts + 7) / 8
}

// dataOffset returns the offset of attribute data within the tuple.
func dataOffset(natts int, hasNulls bool) int {
	if !hasNulls {
		return tupleHeaderSize
	}
	return pagefmt.MaxAligned(tupleHeaderSize + bitmapLength(natts))
}

// attIsNull reports whether attribute j (0-based) is null in the bitmap.
// A clear bit means null.
func attIsNull(j int, bitmap []byte) bool {
	return bitmap[j/8]&(1<<(j%8)) == 0
}

// rangesOverlap is the four-way open-interval test: [a,b) and [c,d)
// intersect when an endpoint of one falls strictly inside the other.
func rangesOverlap(a, b, c, d int) bool {
	return (a < c && c < b) || (a < d && d < b) ||
		(c < a && a < d) || (c < b && b < d)
}

// checkTuple validates the slot at the 1-based offset number off: overlap
// with lower-numbered live slots, basic geometry, and, for live tuples,
// the attribute stream.
func (c *Checker) checkTuple(page []byte, blk pagefmt.BlockNumber, off int, opaque Opaque, haveOpaque bool) uint32 {
	var nerrs uint32

	id, ok := pagefmt.ItemIDAt(page, off-1)
	if !ok {
		c.rep.Report(report.Slotf(report.Warning, uint32(blk), off,
			"slot directory entry lies outside the page"))
		return 1
	}

	c.rep.Report(report.Slotf(report.Debug2, uint32(blk), off,
		"off=%d len=%d flags=%s", id.Off, id.Len, id.Flag))

	// Only live slots claim a byte range or carry a tuple.
	if id.Flag != pagefmt.ItemNormal {
		c.rep.Report(report.Slotf(report.Debug3, uint32(blk), off,
			"skipped (not normal)"))
		return 0
	}

	a := int(id.Off)
	b := int(id.Off) + int(id.Len)

	c.rep.Report(report.Slotf(report.Debug2, uint32(blk), off,
		"checking intersection with other tuples"))

	// Compare only against lower-numbered slots so each intersecting
	// pair is reported once.
	for j := 1; j < off; j++ {
		id2, ok := pagefmt.ItemIDAt(page, j-1)
		if !ok {
			continue
		}
		if id2.Flag != pagefmt.ItemNormal {
			c.rep.Report(report.Slotf(report.Debug3, uint32(blk), j,
				"skipped (not normal)"))
			continue
		}
		d := int(id2.Off) + int(id2.Len)
		if rangesOverlap(a, b, int(id2.Off), d) {
			c.rep.Report(report.Slotf(report.Warning, uint32(blk), off,
				"intersects with slot %d: (%d,%d) vs. (%d,%d)", j, a, b, id2.Off, d))
			nerrs++
		}
	}

	// Geometry gates: none of the tuple may be dereferenced unless its
	// whole declared range lies inside the page's data area.
	if a < pagefmt.HeaderSize || b > len(page) {
		c.rep.Report(report.Slotf(report.Warning, uint32(blk), off,
			"tuple (off=%d, len=%d) extends outside the page data area", id.Off, id.Len))
		return nerrs + 1
	}
	if int(id.Len) < tupleHeaderSize {
		c.rep.Report(report.Slotf(report.Warning, uint32(blk), off,
			"slot length %d is too small for a tuple header", id.Len))
		return nerrs + 1
	}

	tup := page[a:b]

	hi, _ := pagefmt.Uint16At(tup, tupleOffsetBlockHi)
	lo, _ := pagefmt.Uint16At(tup, tupleOffsetBlockLo)
	pos, _ := pagefmt.Uint16At(tup, tupleOffsetPos)
	info, _ := pagefmt.Uint16At(tup, tupleOffsetInfo)

	c.rep.Report(report.Slotf(report.Debug2, uint32(blk), off,
		"tid=(%d,%d)", pagefmt.CombineBlockParts(hi, lo), pos))

	if info&infoReservedMask != 0 {
		c.rep.Report(report.Slotf(report.Warning, uint32(blk), off,
			"reserved bit set in tuple info word %#04x", info))
		nerrs++
	}

	size := int(info & infoSizeMask)
	hasNulls := info&infoNullMask != 0

	if size > int(id.Len) {
		c.rep.Report(report.Slotf(report.Warning, uint32(blk), off,
			"declared tuple size %d exceeds slot length %d", size, id.Len))
		return nerrs + 1
	}

	dataOff := dataOffset(c.rel.NumAtts(), hasNulls)
	dlen := size - dataOff
	if dlen < 0 {
		c.rep.Report(report.Slotf(report.Warning, uint32(blk), off,
			"tuple size %d is smaller than its data offset %d", size, dataOff))
		return nerrs + 1
	}

	return nerrs + c.checkAttributes(tup, blk, off, dlen, dataOff, hasNulls, opaque, haveOpaque)
}

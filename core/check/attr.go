package check

import (
	"github.com/FocuswithJustin/btcheck/core/pagefmt"
	"github.com/FocuswithJustin/btcheck/core/schema"
	"github.com/FocuswithJustin/btcheck/internal/report"
)

// alignOffset rounds pos up to the attribute's alignment boundary. Packed
// varlena values are exempt: when the byte at pos is a non-zero 1-byte
// header the value was stored without padding and pos is used as-is. A zero
// byte can only be padding, since no varlena header byte is zero.
func alignOffset(tup []byte, pos int, att schema.Attribute) int {
	if att.IsVarlena() {
		if b, ok := pagefmt.ByteAt(tup, pos); ok && b != 0 {
			return pos
		}
	}
	align := att.Align.Size()
	return (pos + align - 1) &^ (align - 1)
}

// cstringLen returns the stored length of a null-terminated value at pos,
// including the terminator. The scan never passes end; an unterminated
// string yields remaining+1 so the overflow check downstream trips.
func cstringLen(tup []byte, pos, end int) int {
	remaining := end - pos
	if remaining < 0 {
		remaining = 0
	}
	for i := 0; i < remaining; i++ {
		if tup[pos+i] == 0 {
			return i + 1
		}
	}
	return remaining + 1
}

// checkAttributes walks the attribute stream of the live tuple at the
// 1-based offset number off. dlen is the number of attribute-data bytes the
// tuple declares; a tuple with dlen == 0 carries nothing to decode and can
// produce no attribute errors.
//
// Attribute decode errors are local-fatal: once an offset can no longer be
// trusted the rest of this tuple is skipped, but sibling tuples are still
// checked by the caller.
func (c *Checker) checkAttributes(tup []byte, blk pagefmt.BlockNumber, off, dlen, dataOff int, hasNulls bool, opaque Opaque, haveOpaque bool) uint32 {
	var nerrs uint32

	c.rep.Report(report.Slotf(report.Debug2, uint32(blk), off,
		"checking attributes for the tuple"))

	// On non-leaf pages the first data-key tuple may legitimately carry
	// no data at all; that is a format quirk, not corruption.
	if haveOpaque && !opaque.IsLeaf() && off == opaque.FirstDataKey() && dlen == 0 {
		c.rep.Report(report.Slotf(report.Debug3, uint32(blk), off,
			"first data key tuple on non-leaf block => no data, skipping"))
		return 0
	}

	var bitmap []byte
	if hasNulls {
		bitmap = tup[tupleHeaderSize : tupleHeaderSize+bitmapLength(c.rel.NumAtts())]
	}

	end := len(tup)
	pos := dataOff

	if dlen > 0 {
	scan:
		for j, att := range c.rel.Atts {
			if hasNulls && attIsNull(j, bitmap) {
				c.rep.Report(report.Attrf(report.Debug3, uint32(blk), off, att.Name,
					"attribute is null (skipping)"))
				continue
			}

			pos = alignOffset(tup, pos, att)

			var length int
			switch {
			case att.IsVarlena():
				v, ok := decodeVarlena(tup, pos, end)
				if !ok {
					c.rep.Report(report.Attrf(report.Warning, uint32(blk), off, att.Name,
						"varlena header at offset %d extends past tuple end %d", pos, end))
					nerrs++
					break scan
				}
				if v.Len < 0 {
					c.rep.Report(report.Attrf(report.Warning, uint32(blk), off, att.Name,
						"has negative length (%d)", v.Len))
					nerrs++
					break scan
				}
				if v.Kind == var4BCompressed {
					if v.RawSize <= 0 || v.RawSize > maxRawSize {
						// Does not corrupt offset tracking; the on-disk
						// length still advances the scan.
						c.rep.Report(report.Attrf(report.Warning, uint32(blk), off, att.Name,
							"has invalid raw length %d (should be between 1 and 1GiB)", v.RawSize))
						nerrs++
					}
				}
				c.rep.Report(report.Attrf(report.Debug3, uint32(blk), off, att.Name,
					"varlena kind=%s", v.Kind))
				length = v.Len

			case att.IsCString():
				length = cstringLen(tup, pos, end)

			default:
				length = att.Len
			}

			if pos+length > end {
				c.rep.Report(report.Attrf(report.Warning, uint32(blk), off, att.Name,
					"(off=%d len=%d) overflows tuple end %d", pos, length, end))
				nerrs++
				break scan
			}

			pos += length

			c.rep.Report(report.Attrf(report.Debug3, uint32(blk), off, att.Name,
				"len=%d", length))
		}
	} else {
		c.rep.Report(report.Slotf(report.Debug3, uint32(blk), off,
			"tuple carries no attribute data"))
	}

	c.rep.Report(report.Slotf(report.Debug3, uint32(blk), off,
		"last attribute ends at %d, tuple ends at %d", pos, end))

	if pagefmt.MaxAligned(pos) > end {
		c.rep.Report(report.Slotf(report.Warning, uint32(blk), off,
			"the last attribute ends at %d but the tuple ends at %d", pos, end))
		nerrs++
	}

	return nerrs
}

package check

import "github.com/FocuswithJustin/btcheck/core/pagefmt"

// Varlena values describe their own length in their leading bytes: a 1-byte
// header for short inline values and out-of-line pointers, a 4-byte header
// for everything else. Lengths include the header bytes.

// varlenaKind classifies a decoded varlena header.
type varlenaKind int

const (
	varShort varlenaKind = iota
	varExternal
	var4B
	var4BCompressed
)

func (k varlenaKind) String() string {
	switch k {
	case varShort:
		return "short"
	case varExternal:
		return "external"
	case var4B:
		return "inline"
	case var4BCompressed:
		return "compressed"
	}
	return "invalid"
}

const (
	// externalSize is the fixed size of an out-of-line pointer datum:
	// 1 header byte plus the 16-byte external descriptor.
	externalSize = 17

	// maxRawSize is the largest legal decompressed size, 1 GiB.
	maxRawSize = 1 << 30
)

// varlena is a decoded varlena header.
type varlena struct {
	Kind varlenaKind
	// Len is the total on-disk length including the header. The 4-byte
	// form is decoded signed so a corrupted high bit surfaces as a
	// negative length instead of a huge positive one.
	Len int
	// RawSize is the declared decompressed size; only meaningful for
	// var4BCompressed.
	RawSize int32
}

// decodeVarlena reads the varlena header at pos. end bounds the readable
// bytes (the tuple's declared end). The second return value is false when
// the header itself does not fit before end.
func decodeVarlena(tup []byte, pos, end int) (varlena, bool) {
	if pos >= end {
		return varlena{}, false
	}
	b, ok := pagefmt.ByteAt(tup, pos)
	if !ok {
		return varlena{}, false
	}

	// 1-byte header: low bit set. The value 0x01 alone is the
	// out-of-line pointer marker.
	if b&0x01 == 0x01 {
		if b == 0x01 {
			return varlena{Kind: varExternal, Len: externalSize}, true
		}
		return varlena{Kind: varShort, Len: int(b >> 1)}, true
	}

	// 4-byte header: low two bits are 00 (plain) or 10 (compressed).
	if pos+4 > end {
		return varlena{}, false
	}
	w, ok := pagefmt.Uint32At(tup, pos)
	if !ok {
		return varlena{}, false
	}
	v := varlena{Kind: var4B, Len: int(int32(w) >> 2)}
	if w&0x03 == 0x02 {
		v.Kind = var4BCompressed
		if pos+8 > end {
			return varlena{}, false
		}
		raw, ok := pagefmt.Uint32At(tup, pos+4)
		if !ok {
			return varlena{}, false
		}
		v.RawSize = int32(raw)
	}
	return v, true
}

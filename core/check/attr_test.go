package check

import (
	"encoding/binary"
	"testing"

	"github.com/FocuswithJustin/btcheck/core/pagefmt"
	"github.com/FocuswithJustin/btcheck/core/schema"
)

// rawTuple hand-rolls a tuple image of exactly size bytes with the declared
// size matching, for cases where the padded buildTuple layout is too tidy.
func rawTuple(size int, data []byte) []byte {
	tup := make([]byte, size)
	binary.LittleEndian.PutUint16(tup[tupleOffsetBlockLo:], 1)
	binary.LittleEndian.PutUint16(tup[tupleOffsetPos:], 1)
	binary.LittleEndian.PutUint16(tup[tupleOffsetInfo:], uint16(size))
	copy(tup[tupleHeaderSize:], data)
	return tup
}

func TestAttributesWellFormed(t *testing.T) {
	rel := fullSchema(t)

	// int4 key, short varlena of total length 5, "ab" note.
	data := []byte{
		7, 0, 0, 0, // id
		0x0B, 'p', 'a', 'y', 'l', // payload: 1-byte header, len 5
		'a', 'b', 0, // note
	}
	tup := buildTuple(rel.NumAtts(), nil, data, 0)

	page := newRegularPage(1, Opaque{Flags: FlagLeaf})
	putTuple(page, 1, 8000, tup, pagefmt.ItemNormal)

	got, col := runCheck(t, rel, page, 10, KindRegular)
	if got != 0 {
		t.Errorf("CheckPage() = %d errors, want 0: %+v", got, col.Findings())
	}
}

func TestAttributeAlignment(t *testing.T) {
	rel := &schema.Relation{
		Name: "idx_align",
		Atts: []schema.Attribute{
			{Name: "id", Len: 4, ByValue: true, Align: schema.AlignInt},
			{Name: "weight", Len: 8, ByValue: true, Align: schema.AlignDouble},
		},
	}

	// id at 8..12, 4 bytes of alignment padding, weight at 16..24.
	data := []byte{
		7, 0, 0, 0,
		0, 0, 0, 0,
		1, 2, 3, 4, 5, 6, 7, 8,
	}
	tup := buildTuple(rel.NumAtts(), nil, data, 0)

	page := newRegularPage(1, Opaque{Flags: FlagLeaf})
	putTuple(page, 1, 8000, tup, pagefmt.ItemNormal)

	got, col := runCheck(t, rel, page, 10, KindRegular)
	if got != 0 {
		t.Errorf("CheckPage() = %d errors, want 0: %+v", got, col.Findings())
	}
}

func TestVarlenaNegativeLengthHaltsTuple(t *testing.T) {
	rel := fullSchema(t)

	// The 4-byte varlena header decodes to a negative length; the note
	// attribute after it must not be scanned.
	data := []byte{
		7, 0, 0, 0,
		0xF0, 0xFF, 0xFF, 0xFF,
	}
	tup := buildTuple(rel.NumAtts(), nil, data, 0)

	page := newRegularPage(1, Opaque{Flags: FlagLeaf})
	putTuple(page, 1, 8000, tup, pagefmt.ItemNormal)

	got, col := runCheck(t, rel, page, 11, KindRegular)
	if got != 1 {
		t.Errorf("CheckPage() = %d errors, want exactly 1: %+v", got, col.Findings())
	}
}

func TestVarlenaCompressedRawSize(t *testing.T) {
	rel := fullSchema(t)

	// Compressed varlena of on-disk length 12 whose declared raw size is
	// zero: one error, but scanning continues past it.
	data := make([]byte, 0, 18)
	data = append(data, 7, 0, 0, 0)                          // id
	data = binary.LittleEndian.AppendUint32(data, 12<<2|0x02) // varlena header, compressed
	data = binary.LittleEndian.AppendUint32(data, 0)          // raw size: invalid
	data = append(data, 1, 2, 3, 4)                          // compressed payload
	data = append(data, 'x', 0)                              // note, still scanned
	tup := buildTuple(rel.NumAtts(), nil, data, 0)

	page := newRegularPage(1, Opaque{Flags: FlagLeaf})
	putTuple(page, 1, 8000, tup, pagefmt.ItemNormal)

	got, col := runCheck(t, rel, page, 12, KindRegular)
	if got != 1 {
		t.Errorf("CheckPage() = %d errors, want exactly 1: %+v", got, col.Findings())
	}
}

func TestFixedAttributeOverflow(t *testing.T) {
	rel := intSchema(t)

	// Tuple declares 2 bytes of data but the int4 needs 4.
	tup := rawTuple(10, []byte{1, 2})

	page := newRegularPage(1, Opaque{Flags: FlagLeaf})
	putTuple(page, 1, 8000, tup, pagefmt.ItemNormal)

	got, col := runCheck(t, rel, page, 13, KindRegular)
	if got != 1 {
		t.Errorf("CheckPage() = %d errors, want 1: %+v", got, col.Findings())
	}
}

func TestVarlenaHeaderTruncated(t *testing.T) {
	rel := &schema.Relation{
		Name: "idx_var",
		Atts: []schema.Attribute{
			{Name: "v", Len: schema.VarlenaLen, Align: schema.AlignInt},
		},
	}

	// Two data bytes that look like the start of a 4-byte header; the
	// remaining bytes lie beyond the tuple end.
	tup := rawTuple(10, []byte{0x02, 0x00})

	page := newRegularPage(1, Opaque{Flags: FlagLeaf})
	putTuple(page, 1, 8000, tup, pagefmt.ItemNormal)

	got, col := runCheck(t, rel, page, 14, KindRegular)
	if got != 1 {
		t.Errorf("CheckPage() = %d errors, want 1: %+v", got, col.Findings())
	}
}

func TestCStringUnterminated(t *testing.T) {
	rel := &schema.Relation{
		Name: "idx_str",
		Atts: []schema.Attribute{
			{Name: "s", Len: schema.CStringLen, Align: schema.AlignChar},
		},
	}

	tup := rawTuple(12, []byte{'a', 'b', 'c', 'd'})

	page := newRegularPage(1, Opaque{Flags: FlagLeaf})
	putTuple(page, 1, 8000, tup, pagefmt.ItemNormal)

	got, col := runCheck(t, rel, page, 15, KindRegular)
	if got != 1 {
		t.Errorf("CheckPage() = %d errors, want 1: %+v", got, col.Findings())
	}
}

func TestNullBitmap(t *testing.T) {
	rel := &schema.Relation{
		Name: "idx_two",
		Atts: []schema.Attribute{
			{Name: "a", Len: 4, ByValue: true, Align: schema.AlignInt},
			{Name: "b", Len: 4, ByValue: true, Align: schema.AlignInt},
		},
	}

	tests := []struct {
		name   string
		bitmap []byte
		data   []byte
		want   uint32
	}{
		// A set bit means present; nulls consume no storage.
		{"second attribute null", []byte{0x01}, []byte{7, 0, 0, 0}, 0},
		{"all attributes null", []byte{0x00}, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tup := buildTuple(rel.NumAtts(), tt.bitmap, tt.data, 0)
			page := newRegularPage(1, Opaque{Flags: FlagLeaf})
			putTuple(page, 1, 8000, tup, pagefmt.ItemNormal)

			got, col := runCheck(t, rel, page, 16, KindRegular)
			if got != tt.want {
				t.Errorf("CheckPage() = %d errors, want %d: %+v", got, tt.want, col.Findings())
			}
		})
	}
}

func TestDegenerateFirstKey(t *testing.T) {
	rel := fullSchema(t)

	// Rightmost non-leaf page: the first data key legitimately carries
	// no attribute data, whatever the schema says.
	tup := buildTuple(rel.NumAtts(), nil, nil, 0)
	page := newRegularPage(1, Opaque{LevelOrXact: 1, Next: 0})
	putTuple(page, 1, 8000, tup, pagefmt.ItemNormal)

	got, col := runCheck(t, rel, page, 17, KindRegular)
	if got != 0 {
		t.Errorf("CheckPage() = %d errors, want 0: %+v", got, col.Findings())
	}
}

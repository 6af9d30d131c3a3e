package pagefmt

// BlockNumber identifies a page within a relation file.
type BlockNumber uint32

// InvalidBlock is the reserved "no such block" value.
const InvalidBlock BlockNumber = 0xFFFFFFFF

// CombineBlockParts reconstructs a block number from the split hi/lo halves
// stored in a tuple's item pointer.
func CombineBlockParts(hi, lo uint16) BlockNumber {
	return BlockNumber(hi)<<16 | BlockNumber(lo)
}

// Package dump reads relation files into fixed-size blocks. It supports
// plain files and .gz/.xz compressed dumps used when shipping corrupted
// relations around for analysis.
package dump

import (
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ulikunitz/xz"

	"github.com/FocuswithJustin/btcheck/core/pagefmt"
)

// Dump holds the blocks of a relation file. Trailing records the size of a
// final partial block, which a well-formed relation never has.
type Dump struct {
	Path     string
	Blocks   [][]byte
	Trailing int
}

// NumBlocks returns the number of complete blocks in the dump.
func (d *Dump) NumBlocks() int {
	return len(d.Blocks)
}

// Block returns the i-th complete block.
func (d *Dump) Block(i int) []byte {
	return d.Blocks[i]
}

// Open reads the relation file at path into memory, splitting it into
// BlockSize chunks. Compression is detected from the file extension.
func Open(path string) (*Dump, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open relation file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f

	switch {
	case strings.HasSuffix(path, ".xz"):
		xzr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("xz reader: %w", err)
		}
		reader = xzr
	case strings.HasSuffix(path, ".gz"):
		gzr, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("gzip reader: %w", err)
		}
		defer gzr.Close()
		reader = gzr
	}

	return read(path, reader)
}

// Read splits an already-open stream into blocks. Used by tests and by
// callers that feed data from somewhere other than a file.
func Read(name string, r io.Reader) (*Dump, error) {
	return read(name, r)
}

func read(name string, r io.Reader) (*Dump, error) {
	d := &Dump{Path: name}

	for {
		block := make([]byte, pagefmt.BlockSize)
		n, err := io.ReadFull(r, block)
		switch err {
		case nil:
			d.Blocks = append(d.Blocks, block)
		case io.EOF:
			return d, nil
		case io.ErrUnexpectedEOF:
			d.Trailing = n
			return d, nil
		default:
			return nil, fmt.Errorf("read relation file: %w", err)
		}
	}
}

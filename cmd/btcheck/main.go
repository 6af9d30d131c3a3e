// Command btcheck validates the structure of B-tree index relation files.
// It reads a dumped relation block by block and reports pages whose headers,
// slot directories or tuples are inconsistent with the declared schema.
package main

import (
	"encoding/hex"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alecthomas/kong"
	"github.com/google/uuid"
	"github.com/zeebo/blake3"

	"github.com/FocuswithJustin/btcheck/core/check"
	"github.com/FocuswithJustin/btcheck/core/pagefmt"
	"github.com/FocuswithJustin/btcheck/core/schema"
	"github.com/FocuswithJustin/btcheck/internal/dump"
	"github.com/FocuswithJustin/btcheck/internal/logging"
	"github.com/FocuswithJustin/btcheck/internal/report"
	"github.com/FocuswithJustin/btcheck/internal/results"
)

const version = "0.1.0"

// CLI defines the command-line interface for btcheck.
var CLI struct {
	// Global flags
	LogLevel  string `name:"log-level" help:"Log level (debug3, debug2, debug1, info, warn, error)" default:"warn"`
	LogFormat string `name:"log-format" help:"Log output format (text, json)" default:"text"`

	Check   CheckCmd   `cmd:"" help:"Check a B-tree index relation file against its schema"`
	Schema  SchemaCmd  `cmd:"" help:"Parse a schema file and print the attribute layout"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// CheckCmd checks every block of an index relation file.
type CheckCmd struct {
	Schema string `arg:"" help:"Schema file describing the indexed attributes" type:"existingfile"`
	Index  string `arg:"" help:"Index relation file, optionally .gz or .xz compressed" type:"existingfile"`

	Workers   int    `help:"Number of pages checked concurrently" default:"4"`
	MaxErrors uint32 `name:"max-errors" help:"Stop checking further pages after this many errors (0 = no limit)"`
	Results   string `help:"SQLite database to record findings in" type:"path"`
}

// pageVerdict is the outcome of checking one block.
type pageVerdict struct {
	block       uint32
	errors      uint32
	fingerprint string
	diags       []report.Diagnostic
}

func (c *CheckCmd) Run() error {
	rel, err := schema.ParseFile(c.Schema)
	if err != nil {
		return fmt.Errorf("parse schema: %w", err)
	}

	d, err := dump.Open(c.Index)
	if err != nil {
		return err
	}

	runID := uuid.NewString()
	started := time.Now()

	var db *results.DB
	if c.Results != "" {
		db, err = results.Open(c.Results)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := db.BeginRun(runID, c.Index, rel.Name, d.NumBlocks()); err != nil {
			return err
		}
	}

	logging.CheckStart(runID, c.Index, rel.Name, d.NumBlocks())

	workers := c.Workers
	if workers < 1 {
		workers = 1
	}

	var totalErrors atomic.Uint32
	jobs := make(chan int)
	verdicts := make([]pageVerdict, d.NumBlocks())

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				verdicts[i] = c.checkBlock(rel, d.Block(i), uint32(i))
				totalErrors.Add(verdicts[i].errors)
			}
		}()
	}

	for i := 0; i < d.NumBlocks(); i++ {
		// The error budget is only consulted between pages, so a single
		// badly corrupted page still gets a full report.
		if c.MaxErrors > 0 && totalErrors.Load() >= c.MaxErrors {
			logging.Warn("error budget exhausted, skipping remaining pages",
				"checked", i, "blocks", d.NumBlocks())
			break
		}
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	if d.Trailing != 0 {
		logging.Warn("relation file ends with a partial block",
			"bytes", d.Trailing, "block_size", pagefmt.BlockSize)
		totalErrors.Add(1)
	}

	total := totalErrors.Load()

	if db != nil {
		for _, v := range verdicts {
			if v.errors == 0 {
				continue
			}
			if err := db.AddPage(runID, v.block, v.errors, v.fingerprint, v.diags); err != nil {
				return err
			}
		}
		if err := db.FinishRun(runID, total); err != nil {
			return err
		}
	}

	logging.CheckSummary(runID, d.NumBlocks(), total, time.Since(started))

	if total > 0 {
		return fmt.Errorf("%d error(s) found in %q", total, c.Index)
	}
	fmt.Printf("Checked %d block(s), no errors found.\n", d.NumBlocks())
	return nil
}

// checkBlock runs the page checker over one block and, when the page turns
// out corrupted, fingerprints its raw bytes so identical corruption can be
// recognized across runs.
func (c *CheckCmd) checkBlock(rel *schema.Relation, page []byte, blk uint32) pageVerdict {
	collector := &report.Collector{}
	rep := report.Multi{collector, &report.Logger{L: logging.GetLogger()}}

	checker := check.New(rel, rep)
	nerrs := checker.CheckPage(page, pagefmt.BlockNumber(blk), check.KindForBlock(pagefmt.BlockNumber(blk)))

	v := pageVerdict{block: blk, errors: nerrs, diags: collector.Diags}
	if nerrs > 0 {
		sum := blake3.Sum256(page)
		v.fingerprint = hex.EncodeToString(sum[:])
		logging.PageCorrupted(blk, nerrs, v.fingerprint)
	}
	return v
}

// SchemaCmd parses a schema file and prints the resulting layout.
type SchemaCmd struct {
	Schema string `arg:"" help:"Schema file to parse" type:"existingfile"`
}

func (c *SchemaCmd) Run() error {
	rel, err := schema.ParseFile(c.Schema)
	if err != nil {
		return err
	}

	fmt.Printf("Relation: %s\n", rel.Name)
	fmt.Printf("Attributes: %d\n", rel.NumAtts())
	for _, att := range rel.Atts {
		storage := "byref"
		if att.ByValue {
			storage = "byval"
		}
		switch {
		case att.IsVarlena():
			fmt.Printf("  %-16s varlena  %s align=%s\n", att.Name, storage, att.Align)
		case att.IsCString():
			fmt.Printf("  %-16s cstring  %s align=%s\n", att.Name, storage, att.Align)
		default:
			fmt.Printf("  %-16s len=%-4d %s align=%s\n", att.Name, att.Len, storage, att.Align)
		}
	}
	return nil
}

// VersionCmd prints version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Printf("btcheck %s\n", version)
	fmt.Printf("  block size: %d\n", pagefmt.BlockSize)
	fmt.Printf("  sqlite driver: %s\n", results.DriverName())
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("btcheck"),
		kong.Description("B-tree index page structure checker"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
	)

	level, err := logging.ParseLevel(CLI.LogLevel)
	ctx.FatalIfErrorf(err)
	format, err := logging.ParseFormat(CLI.LogFormat)
	ctx.FatalIfErrorf(err)
	logging.InitLogger(level, format)

	err = ctx.Run()
	ctx.FatalIfErrorf(err)
}

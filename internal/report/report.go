// Package report carries the structured diagnostics the page checker emits.
//
// Every anomaly becomes one Diagnostic routed through a Reporter. Severity
// Warning marks a counted structural error; the debug severities are
// tracing detail and never contribute to error counts.
package report

import (
	"context"
	"fmt"
	"log/slog"
)

// Severity of a diagnostic, in increasing order.
type Severity int

const (
	// Debug3 is the most verbose tracing detail (per-attribute).
	Debug3 Severity = iota
	// Debug2 is per-tuple tracing detail.
	Debug2
	// Debug1 is per-page tracing detail.
	Debug1
	// Warning marks a structural error finding.
	Warning
)

func (s Severity) String() string {
	switch s {
	case Debug3:
		return "debug3"
	case Debug2:
		return "debug2"
	case Debug1:
		return "debug1"
	case Warning:
		return "warning"
	}
	return "invalid"
}

// SlogLevel maps a severity onto the logging level hierarchy. The extra
// debug depths sit below slog.LevelDebug so they can be enabled
// independently.
func (s Severity) SlogLevel() slog.Level {
	switch s {
	case Warning:
		return slog.LevelWarn
	case Debug1:
		return slog.LevelDebug
	case Debug2:
		return slog.LevelDebug - 4
	default:
		return slog.LevelDebug - 8
	}
}

// Diagnostic is one finding or trace record about a page.
type Diagnostic struct {
	Severity Severity
	// Block is the page's block number.
	Block uint32
	// Slot is the 1-based slot offset number, 0 for page-level records.
	Slot int
	// Attr is the attribute name, empty for non-attribute records.
	Attr string
	// Message is the human-readable description.
	Message string
}

// Reporter receives diagnostics as they are found.
type Reporter interface {
	Report(d Diagnostic)
}

// Collector accumulates diagnostics in memory. It is not safe for
// concurrent use; the checker drives one Collector per page.
type Collector struct {
	Diags []Diagnostic
}

// Report appends d.
func (c *Collector) Report(d Diagnostic) {
	c.Diags = append(c.Diags, d)
}

// Warnings returns the number of Warning-severity diagnostics collected.
func (c *Collector) Warnings() int {
	n := 0
	for _, d := range c.Diags {
		if d.Severity == Warning {
			n++
		}
	}
	return n
}

// Findings returns only the Warning-severity diagnostics.
func (c *Collector) Findings() []Diagnostic {
	var out []Diagnostic
	for _, d := range c.Diags {
		if d.Severity == Warning {
			out = append(out, d)
		}
	}
	return out
}

// Logger routes diagnostics to a slog.Logger. Safe for concurrent use.
type Logger struct {
	L *slog.Logger
}

// Report logs d at the level matching its severity.
func (l *Logger) Report(d Diagnostic) {
	attrs := []any{slog.Int("block", int(d.Block))}
	if d.Slot != 0 {
		attrs = append(attrs, slog.Int("slot", d.Slot))
	}
	if d.Attr != "" {
		attrs = append(attrs, slog.String("attr", d.Attr))
	}
	l.L.Log(context.Background(), d.Severity.SlogLevel(), d.Message, attrs...)
}

// Multi fans a diagnostic out to several reporters.
type Multi []Reporter

// Report forwards d to every reporter in order.
func (m Multi) Report(d Diagnostic) {
	for _, r := range m {
		r.Report(d)
	}
}

// Discard drops all diagnostics; useful when only counts are wanted.
type Discard struct{}

// Report does nothing.
func (Discard) Report(Diagnostic) {}

// Pagef builds a page-level diagnostic.
func Pagef(sev Severity, block uint32, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: sev, Block: block, Message: fmt.Sprintf(format, args...)}
}

// Slotf builds a slot-level diagnostic.
func Slotf(sev Severity, block uint32, slot int, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: sev, Block: block, Slot: slot, Message: fmt.Sprintf(format, args...)}
}

// Attrf builds an attribute-level diagnostic.
func Attrf(sev Severity, block uint32, slot int, attr, format string, args ...any) Diagnostic {
	return Diagnostic{Severity: sev, Block: block, Slot: slot, Attr: attr, Message: fmt.Sprintf(format, args...)}
}

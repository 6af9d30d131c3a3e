package report

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestCollector(t *testing.T) {
	c := &Collector{}
	c.Report(Pagef(Debug1, 3, "max number of tuples = %d", 7))
	c.Report(Slotf(Warning, 3, 2, "tuple extends outside page"))
	c.Report(Attrf(Debug3, 3, 2, "id", "len=%d", 4))
	c.Report(Attrf(Warning, 3, 2, "payload", "overflows tuple end"))

	if got := len(c.Diags); got != 4 {
		t.Fatalf("len(Diags) = %d, want 4", got)
	}
	if got := c.Warnings(); got != 2 {
		t.Errorf("Warnings() = %d, want 2", got)
	}

	findings := c.Findings()
	if len(findings) != 2 {
		t.Fatalf("len(Findings()) = %d, want 2", len(findings))
	}
	if findings[1].Attr != "payload" || findings[1].Slot != 2 {
		t.Errorf("Findings()[1] = %+v, want slot 2 attr payload", findings[1])
	}
}

func TestMulti(t *testing.T) {
	a, b := &Collector{}, &Collector{}
	m := Multi{a, b, Discard{}}
	m.Report(Pagef(Warning, 1, "bad header"))

	if len(a.Diags) != 1 || len(b.Diags) != 1 {
		t.Errorf("Multi did not fan out: %d, %d", len(a.Diags), len(b.Diags))
	}
}

func TestLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := &Logger{L: slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))}

	l.Report(Slotf(Warning, 9, 1, "intersects with another tuple"))
	l.Report(Attrf(Debug3, 9, 1, "id", "skipped"))

	out := buf.String()
	if !strings.Contains(out, "level=WARN") {
		t.Errorf("warning diagnostic not logged at WARN: %q", out)
	}
	if !strings.Contains(out, "block=9") || !strings.Contains(out, "slot=1") {
		t.Errorf("structured fields missing: %q", out)
	}
	if strings.Contains(out, "skipped") {
		t.Errorf("debug3 diagnostic should be below the debug threshold: %q", out)
	}
}

func TestSeverityStrings(t *testing.T) {
	tests := []struct {
		sev  Severity
		want string
	}{
		{Debug3, "debug3"},
		{Debug2, "debug2"},
		{Debug1, "debug1"},
		{Warning, "warning"},
	}
	for _, tt := range tests {
		if got := tt.sev.String(); got != tt.want {
			t.Errorf("Severity(%d).String() = %q, want %q", tt.sev, got, tt.want)
		}
	}
}

package diagnostic

import (
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestDiagnostic_String(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityWarning,
		Category: CategoryTypeUnsupported,
		File:     "graphs/user.json",
		Line:     10,
		Column:   5,
		Message:  "User at .balance: unsupported primitive \"bigint\"",
		Hint:     "serialize the field as a string",
	}

	s := d.String()
	if !strings.Contains(s, "graphs/user.json:10:5") {
		t.Errorf("expected file:line:col, got %q", s)
	}
	if !strings.Contains(s, "warning") {
		t.Errorf("expected 'warning', got %q", s)
	}
	if !strings.Contains(s, "[type-unsupported]") {
		t.Errorf("expected category, got %q", s)
	}
	if !strings.Contains(s, "hint:") {
		t.Errorf("expected hint, got %q", s)
	}
}

func TestDiagnostic_StringWithoutLocation(t *testing.T) {
	d := Diagnostic{Severity: SeverityInfo, Category: CategoryCycle, Message: "Node refers to itself"}
	if got, want := d.String(), "info: [cycle] Node refers to itself"; got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestCollector_WarnAndError(t *testing.T) {
	c := NewCollector(false, false)
	c.Warn(CategorySchemaInvalid, "user.json", 5, "metaschema rejected document")
	c.Error(CategoryConfigInvalid, "", 0, "missing config field")

	if c.WarningCount() != 1 {
		t.Errorf("expected 1 warning, got %d", c.WarningCount())
	}
	if c.ErrorCount() != 1 {
		t.Errorf("expected 1 error, got %d", c.ErrorCount())
	}
	if !c.HasErrors() {
		t.Error("expected HasErrors() = true")
	}
}

func TestCollector_StrictMode(t *testing.T) {
	c := NewCollector(true, false)
	c.Warn(CategoryTypeUnsupported, "user.json", 1, "unsupported type")
	c.Info(CategoryCycle, "user.json", 1, "cycle")

	if c.ErrorCount() != 1 {
		t.Errorf("expected 1 error (strict mode), got %d", c.ErrorCount())
	}
	if c.WarningCount() != 0 {
		t.Errorf("expected 0 warnings (strict mode), got %d", c.WarningCount())
	}
	// infos are not promoted
	if n := len(c.Diagnostics()); n != 2 {
		t.Errorf("expected 2 diagnostics, got %d", n)
	}
}

func TestCollector_QuietMode(t *testing.T) {
	c := NewCollector(false, true)
	c.Warn(CategoryTypeUnsupported, "user.json", 1, "unsupported type")
	c.Info(CategoryCycle, "user.json", 1, "cycle")
	c.Error(CategoryConfigInvalid, "", 0, "real error")

	if len(c.Diagnostics()) != 1 {
		t.Errorf("expected 1 diagnostic (only error), got %d", len(c.Diagnostics()))
	}
}

func TestCollector_Summary(t *testing.T) {
	c := NewCollector(false, false)
	c.Warn(CategorySchemaInvalid, "a.json", 1, "warn1")
	c.Warn(CategorySchemaInvalid, "b.json", 2, "warn2")
	c.Error(CategoryConfigInvalid, "", 0, "err1")

	summary := c.Summary()
	if summary != "1 error(s), 2 warning(s)" {
		t.Errorf("unexpected summary %q", summary)
	}
	if got := NewCollector(false, false).Summary(); got != "no issues" {
		t.Errorf("empty collector summary = %q", got)
	}
}

func TestCollector_NilSafe(t *testing.T) {
	var c *Collector
	c.Warn(CategoryTypeUnsupported, "", 0, "test")
	c.Error(CategoryConfigInvalid, "", 0, "test")
	c.AddAll([]Diagnostic{{Severity: SeverityError}})
	if c.HasErrors() {
		t.Error("nil collector should not have errors")
	}
	if c.Summary() != "" {
		t.Error("nil collector should return empty summary")
	}
	if c.FormatAll() != "" {
		t.Error("nil collector should format to nothing")
	}
}

func TestCollector_DiagnosticsSorted(t *testing.T) {
	c := NewCollector(false, false)
	c.Warn(CategoryCycle, "b.json", 1, "third")
	c.Warn(CategoryCycle, "a.json", 7, "second")
	c.Warn(CategoryCycle, "a.json", 2, "first")
	c.Warn(CategoryCycle, "b.json", 1, "fourth")

	var got []string
	for _, d := range c.Diagnostics() {
		got = append(got, d.Message)
	}
	want := "first,second,third,fourth"
	if strings.Join(got, ",") != want {
		t.Errorf("got order %v, want %s", got, want)
	}
}

func TestCollector_ConcurrentAdd(t *testing.T) {
	c := NewCollector(false, false)
	var wg sync.WaitGroup
	for i := range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.Info(CategoryCycle, fmt.Sprintf("g%d.json", i), 0, "cycle")
		}()
	}
	wg.Wait()
	if n := len(c.Diagnostics()); n != 50 {
		t.Errorf("expected 50 diagnostics, got %d", n)
	}
}

func TestCollector_FormatAll(t *testing.T) {
	c := NewCollector(false, false)
	c.Warn(CategoryTypeUnsupported, "user.json", 10, "type not supported")

	formatted := c.FormatAll()
	if !strings.Contains(formatted, "user.json:10") {
		t.Errorf("expected formatted output with file:line, got %q", formatted)
	}
}

func TestCollector_WarnWithHint(t *testing.T) {
	c := NewCollector(false, false)
	c.WarnWithHint(CategoryDepth, "user.json", 5, "type nests too deeply", "raise resolver.maxDepth")

	diags := c.Diagnostics()
	if len(diags) != 1 || diags[0].Hint != "raise resolver.maxDepth" {
		t.Errorf("expected hint, got %v", diags)
	}
}

package ui

import (
	"bytes"
	"strings"
	"testing"
)

func TestHighlightTo_NoColor(t *testing.T) {
	t.Setenv("NO_COLOR", "1")

	var buf bytes.Buffer
	if err := HighlightTo(&buf, "angle_unit: degrees\n", "yaml"); err != nil {
		t.Fatalf("HighlightTo() error = %v", err)
	}
	if buf.String() != "angle_unit: degrees\n" {
		t.Errorf("HighlightTo() = %q, want the source unchanged", buf.String())
	}
}

func TestHighlightTo_Color(t *testing.T) {
	t.Setenv("NO_COLOR", "")

	var buf bytes.Buffer
	if err := HighlightTo(&buf, "angle_unit: degrees\n", "yaml"); err != nil {
		t.Fatalf("HighlightTo() error = %v", err)
	}
	if !strings.Contains(buf.String(), "\x1b[") {
		t.Errorf("HighlightTo() = %q, expected ANSI escape codes", buf.String())
	}
	if !strings.Contains(buf.String(), "degrees") {
		t.Errorf("HighlightTo() lost the content: %q", buf.String())
	}
}

func TestColumns(t *testing.T) {
	got := columns([]string{"x", "1.000", "1", "-2.500", "-3"}, " | ")
	want := "x      | 1.000                  | 1        | -2.500                 | -3      "
	if got != want {
		t.Errorf("columns() = %q, want %q", got, want)
	}

	long := columns([]string{"rotation"}, " | ")
	if long != "rot..." {
		t.Errorf("columns() = %q, want truncated %q", long, "rot...")
	}

	extra := columns([]string{"a", "b", "c", "d", "e", "f"}, "|")
	if strings.Count(extra, "|") != 4 {
		t.Errorf("columns() = %q, expected the sixth cell to be dropped", extra)
	}
}

package output

import (
	"strings"
	"testing"
)

func TestVisualLen(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  int
	}{
		{"plain", "dead_code", 9},
		{"empty", "", 0},
		{"colored percentage", "\x1b[38;2;102;187;106m 87.5%\x1b[0m", 6},
		{"stacked sequences", "\x1b[1m\x1b[34msecurity\x1b[0m", 8},
		{"bar runes", "███░░", 5},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := visualLen(tc.input); got != tc.want {
				t.Errorf("visualLen(%q) = %d, want %d", tc.input, got, tc.want)
			}
		})
	}
}

func TestPad(t *testing.T) {
	tests := []struct {
		name  string
		input string
		width int
		want  string
	}{
		{"needs padding", "ci", 6, "ci    "},
		{"exact width", "tests", 5, "tests"},
		{"over width", "structure", 3, "structure"},
		{"ansi ignored", "\x1b[31mx\x1b[0m", 3, "\x1b[31mx\x1b[0m  "},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := pad(tc.input, tc.width); got != tc.want {
				t.Errorf("pad(%q, %d) = %q, want %q", tc.input, tc.width, got, tc.want)
			}
		})
	}
}

func TestTable_RenderMetricBreakdown(t *testing.T) {
	SetNoColor(true)

	tbl := NewTable("Metric", "Value", "Source")
	tbl.AddRow("tests", "87.0%", "report")
	tbl.AddRow("dead_code", "80.0%", "vulture")
	tbl.AddRow("ci")

	lines := strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("expected header, separator and 3 rows, got %d lines", len(lines))
	}
	if lines[0] != "Metric     Value  Source " {
		t.Errorf("header = %q", lines[0])
	}
	if lines[1] != strings.Repeat("─", 9)+"  "+strings.Repeat("─", 5)+"  "+strings.Repeat("─", 7) {
		t.Errorf("separator = %q", lines[1])
	}
	if lines[3] != "dead_code  80.0%  vulture" {
		t.Errorf("row = %q", lines[3])
	}
	if !strings.HasPrefix(lines[4], "ci  ") {
		t.Errorf("short row should be padded, got %q", lines[4])
	}
}

func TestTable_StyledCellsAlign(t *testing.T) {
	tbl := NewTable("Metric", "Value")
	tbl.AddRow("docs", "\x1b[33m 50.0%\x1b[0m")
	tbl.AddRow("security", " 40.0%")

	if tbl.widths[1] != 6 {
		t.Errorf("value column width = %d, want 6", tbl.widths[1])
	}
}

func TestTable_EmptyHeaders(t *testing.T) {
	if got := NewTable().Render(); got != "" {
		t.Errorf("expected empty output for empty table, got %q", got)
	}
}

func TestTable_String(t *testing.T) {
	SetNoColor(true)

	tbl := NewTable("Metric")
	tbl.AddRow("structure")
	if tbl.String() != tbl.Render() {
		t.Error("String() != Render()")
	}
}

func TestSetNoColor(t *testing.T) {
	SetNoColor(true)
	if !IsNoColor() {
		t.Error("IsNoColor() = false after SetNoColor(true)")
	}
	if rendered := StyleHeader.Render("Metrics"); strings.Contains(rendered, "\x1b[") {
		t.Errorf("expected no ANSI codes, got %q", rendered)
	}
}

func TestTable_AlignRight(t *testing.T) {
	SetNoColor(true)

	tbl := NewTable("Metric", "Weight").AlignRight(1, 7)
	tbl.AddRow("tests", "0.25")
	tbl.AddRow("ci", "0.2", "ignored")

	lines := strings.Split(strings.TrimRight(tbl.Render(), "\n"), "\n")
	if lines[0] != "Metric  Weight" {
		t.Errorf("header = %q", lines[0])
	}
	if lines[2] != "tests     0.25" {
		t.Errorf("row = %q", lines[2])
	}
	if lines[3] != "ci         0.2" {
		t.Errorf("row = %q", lines[3])
	}
}

func TestPadLeft(t *testing.T) {
	if got := padLeft("9", 3); got != "  9" {
		t.Errorf("padLeft = %q", got)
	}
	if got := padLeft("1234", 3); got != "1234" {
		t.Errorf("padLeft over width = %q", got)
	}
}

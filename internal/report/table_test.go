package report

import "testing"

func TestFormatTableAlignsColumns(t *testing.T) {
	headers := []string{"Pos", "Key", "Fit"}
	rows := [][]string{
		{"0", "K", "0.524"},
		{"12", "E", "12.250"},
	}
	rightAlign := map[int]bool{0: true, 2: true}

	lines := formatTable(headers, rows, rightAlign)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if lines[0] != "Pos Key    Fit" {
		t.Fatalf("unexpected header line: %q", lines[0])
	}
	if lines[1] != "  0 K    0.524" {
		t.Fatalf("unexpected row line: %q", lines[1])
	}
	if lines[2] != " 12 E   12.250" {
		t.Fatalf("unexpected row line: %q", lines[2])
	}
}

func TestFormatTableEmpty(t *testing.T) {
	if lines := formatTable(nil, nil, nil); lines != nil {
		t.Fatalf("expected no lines, got %v", lines)
	}
}

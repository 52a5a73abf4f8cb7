package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/eivanovue/cryptography/internal/freq"
	"github.com/eivanovue/cryptography/internal/model"
	"github.com/eivanovue/cryptography/internal/vigenere"
)

func TestSparkline(t *testing.T) {
	if got := Sparkline(nil); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
	if got := Sparkline([]float64{2, 2, 2}); got != "+++" {
		t.Fatalf("expected flat sparkline, got %q", got)
	}
	if got := Sparkline([]float64{0, 1}); got != " @" {
		t.Fatalf("expected min and max glyphs, got %q", got)
	}
}

func TestRenderResultPartial(t *testing.T) {
	res, err := vigenere.Analyze("EET", 5, freq.English)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	var buf bytes.Buffer
	if err := RenderResult(&buf, res, Options{Cosets: true}); err != nil {
		t.Fatalf("RenderResult failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Key found: " + res.Key + " using length - 5",
		"Possible plaintext solution: " + res.Plaintext,
		"positions 3, 4 were not recovered",
		"Fit by shift",
		"(empty)",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

func TestRenderResultUnrecoverable(t *testing.T) {
	res, err := vigenere.Analyze("", 3, freq.English)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	var buf bytes.Buffer
	if err := RenderResult(&buf, res, Options{}); err != nil {
		t.Fatalf("RenderResult failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Key found: AAA") || !strings.Contains(buf.String(), "no letters A-Z") {
		t.Fatalf("unexpected output:\n%s", buf.String())
	}
}

func TestRenderHistogram(t *testing.T) {
	res, err := vigenere.Analyze(strings.Repeat("LIPPS", 4), 1, freq.English)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	var buf bytes.Buffer
	if err := RenderHistogram(&buf, res.Cosets[0], freq.English, false); err != nil {
		t.Fatalf("RenderHistogram failed: %v", err)
	}
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 1+freq.Letters {
		t.Fatalf("expected %d lines, got %d", 1+freq.Letters, len(lines))
	}
	if !strings.HasPrefix(lines[0], "Position 0") {
		t.Fatalf("unexpected title %q", lines[0])
	}
}

func TestRenderHistory(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	runs := []model.RunSummary{
		{ID: "0123456789abcdef", CreatedAt: now.Add(-3 * time.Hour), KeyLen: 3, Key: "KEY", Status: "recovered", Letters: 1234},
		{ID: "fedcba", CreatedAt: now.Add(-time.Minute), KeyLen: 5, Key: "AAAAA", Status: "partial", Letters: 3, Degenerate: 2},
	}
	var buf bytes.Buffer
	if err := RenderHistory(&buf, runs, now); err != nil {
		t.Fatalf("RenderHistory failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"01234567", "3 hours ago", "1,234", "partial (2 empty)", "fedcba"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}

	buf.Reset()
	if err := RenderHistory(&buf, nil, now); err != nil {
		t.Fatalf("RenderHistory failed: %v", err)
	}
	if buf.String() != "No runs found.\n" {
		t.Fatalf("unexpected empty output %q", buf.String())
	}
}

func TestRenderRun(t *testing.T) {
	run := model.Run{ID: "abc", CreatedAt: time.Unix(0, 0).UTC(), KeyLen: 2, Key: "KA", Status: "partial", Letters: 1, Digest: "deadbeefcafe", Plaintext: "T"}
	cosets := []model.CosetStats{{Index: 0, Size: 1, Shift: 10, Fit: 3.5}, {Index: 1, Degenerate: true}}
	var buf bytes.Buffer
	if err := RenderRun(&buf, run, cosets, false); err != nil {
		t.Fatalf("RenderRun failed: %v", err)
	}
	out := buf.String()
	for _, want := range []string{"Run abc", "digest deadbeef", "Key found: KA using length - 2 (partial)", "3.500"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in output:\n%s", want, out)
		}
	}
}

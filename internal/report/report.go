// Package report renders analysis results and run history as plain text.
package report

import (
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
	"golang.org/x/term"

	"github.com/eivanovue/cryptography/internal/freq"
	"github.com/eivanovue/cryptography/internal/model"
	"github.com/eivanovue/cryptography/internal/vigenere"
)

const (
	sparkChars = " .:-=+*#%@"
	barWidth   = 40
	barChar    = "█"
)

var (
	keyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	observedBar  = lipgloss.NewStyle().Foreground(lipgloss.Color("#5FB3B3"))
	referenceBar = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
)

// Options controls rendering.
type Options struct {
	// Color forces coloured output; otherwise colour is used only on terminals.
	Color bool
	// Cosets adds the per-coset table.
	Cosets bool
}

type painter struct {
	enabled bool
}

func newPainter(w io.Writer, force bool) painter {
	return painter{enabled: shouldUseColor(w, force)}
}

func (p painter) paint(style lipgloss.Style, s string) string {
	if !p.enabled {
		return s
	}
	return style.Render(s)
}

func shouldUseColor(w io.Writer, force bool) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	if force {
		return true
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

// Sparkline renders a single-line ASCII sparkline for the values.
func Sparkline(values []float64) string {
	if len(values) == 0 {
		return ""
	}
	minVal := values[0]
	maxVal := values[0]
	for _, v := range values[1:] {
		if v < minVal {
			minVal = v
		}
		if v > maxVal {
			maxVal = v
		}
	}
	if math.Abs(maxVal-minVal) < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	for _, v := range values {
		pos := (v - minVal) / (maxVal - minVal)
		idx := int(math.Round(pos * float64(len(sparkChars)-1)))
		b.WriteByte(sparkChars[idx])
	}
	return b.String()
}

// RenderResult prints the recovered key, plaintext and degenerate-coset warnings.
func RenderResult(w io.Writer, res vigenere.Result, opts Options) error {
	p := newPainter(w, opts.Color)
	if _, err := fmt.Fprintf(w, "Key found: %s using length - %d\n", p.paint(keyStyle, res.Key), res.KeyLen); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Possible plaintext solution: %s\n", res.Plaintext); err != nil {
		return err
	}
	switch res.Status {
	case vigenere.StatusUnrecoverable:
		if _, err := fmt.Fprintln(w, p.paint(warnStyle, "Warning: ciphertext has no letters A-Z; key is a placeholder.")); err != nil {
			return err
		}
	case vigenere.StatusPartial:
		positions := make([]string, 0, len(res.Degenerate()))
		for _, idx := range res.Degenerate() {
			positions = append(positions, strconv.Itoa(idx))
		}
		msg := fmt.Sprintf("Warning: key length exceeds letter count; positions %s were not recovered.", strings.Join(positions, ", "))
		if _, err := fmt.Fprintln(w, p.paint(warnStyle, msg)); err != nil {
			return err
		}
	}
	if !opts.Cosets {
		return nil
	}
	if _, err := fmt.Fprintln(w, ""); err != nil {
		return err
	}
	return RenderCosets(w, res.Cosets)
}

// RenderCosets prints one row per key position.
func RenderCosets(w io.Writer, cosets []vigenere.CosetResult) error {
	headers := []string{"Pos", "Key", "Shift", "Letters", "Fit", "Runner-up", "IoC", "Fit by shift"}
	rows := make([][]string, 0, len(cosets))
	for _, c := range cosets {
		if c.Degenerate {
			rows = append(rows, []string{strconv.Itoa(c.Index), string(c.Letter()), "-", "0", "-", "-", "-", "(empty)"})
			continue
		}
		runnerUp := vigenere.Candidates(c.Scores, 2)[1]
		rows = append(rows, []string{
			strconv.Itoa(c.Index),
			string(c.Letter()),
			strconv.Itoa(c.Shift),
			strconv.Itoa(c.Size),
			fmt.Sprintf("%.3f", c.Fit),
			fmt.Sprintf("%c %.3f", runnerUp.Letter(), runnerUp.Fit),
			fmt.Sprintf("%.4f", c.IoC),
			Sparkline(c.Scores[:]),
		})
	}
	rightAlign := map[int]bool{0: true, 2: true, 3: true, 4: true, 6: true}
	for _, line := range formatTable(headers, rows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderHistogram prints the shift-aligned letter distribution of a coset
// next to the reference table.
func RenderHistogram(w io.Writer, c vigenere.CosetResult, table freq.Table, forceColor bool) error {
	p := newPainter(w, forceColor)
	title := fmt.Sprintf("Position %d (key %c, %d letters)", c.Index, c.Letter(), c.Size)
	if _, err := fmt.Fprintln(w, title); err != nil {
		return err
	}
	total := c.Histogram.Total()
	maxP := 0.0
	for i := 0; i < freq.Letters; i++ {
		maxP = math.Max(maxP, table[i])
		if total > 0 {
			maxP = math.Max(maxP, float64(c.Histogram[(i+c.Shift)%freq.Letters])/float64(total))
		}
	}
	for i := 0; i < freq.Letters; i++ {
		observed := 0.0
		if total > 0 {
			observed = float64(c.Histogram[(i+c.Shift)%freq.Letters]) / float64(total)
		}
		line := fmt.Sprintf("%c %s %5.2f%%", 'A'+i, p.paint(observedBar, bar(observed, maxP)), observed*100)
		ref := fmt.Sprintf("  %s %5.2f%%", p.paint(referenceBar, bar(table[i], maxP)), table[i]*100)
		if _, err := fmt.Fprintln(w, line+ref); err != nil {
			return err
		}
	}
	return nil
}

func bar(v, maxV float64) string {
	if maxV <= 0 {
		return strings.Repeat(" ", barWidth)
	}
	n := int(math.Round(v / maxV * barWidth))
	return strings.Repeat(barChar, n) + strings.Repeat(" ", barWidth-n)
}

// RenderHistory prints a table of past runs relative to now.
func RenderHistory(w io.Writer, runs []model.RunSummary, now time.Time) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(w, "No runs found.")
		return err
	}
	headers := []string{"ID", "When", "Len", "Key", "Letters", "Status"}
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		status := r.Status
		if r.Degenerate > 0 {
			status = fmt.Sprintf("%s (%d empty)", status, r.Degenerate)
		}
		rows = append(rows, []string{
			shortID(r.ID),
			humanize.RelTime(r.CreatedAt, now, "ago", "from now"),
			strconv.Itoa(r.KeyLen),
			r.Key,
			humanize.Comma(int64(r.Letters)),
			status,
		})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{2: true, 4: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderRun prints a stored run with its cosets.
func RenderRun(w io.Writer, run model.Run, cosets []model.CosetStats, forceColor bool) error {
	p := newPainter(w, forceColor)
	lines := []string{
		fmt.Sprintf("Run %s", run.ID),
		p.paint(mutedStyle, fmt.Sprintf("Created %s, %s letters, digest %s", run.CreatedAt.Format(time.RFC3339), humanize.Comma(int64(run.Letters)), shortID(run.Digest))),
		fmt.Sprintf("Key found: %s using length - %d (%s)", p.paint(keyStyle, run.Key), run.KeyLen, run.Status),
		fmt.Sprintf("Possible plaintext solution: %s", run.Plaintext),
		"",
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	headers := []string{"Pos", "Key", "Letters", "Fit", "IoC"}
	rows := make([][]string, 0, len(cosets))
	for _, c := range cosets {
		fit, ioc := fmt.Sprintf("%.3f", c.Fit), fmt.Sprintf("%.4f", c.IoC)
		if c.Degenerate {
			fit, ioc = "-", "-"
		}
		rows = append(rows, []string{strconv.Itoa(c.Index), string(rune('A' + c.Shift)), strconv.Itoa(c.Size), fit, ioc})
	}
	for _, line := range formatTable(headers, rows, map[int]bool{0: true, 2: true, 3: true, 4: true}) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}

package tui

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/eivanovue/cryptography/internal/freq"
	"github.com/eivanovue/cryptography/internal/store"
	"github.com/eivanovue/cryptography/internal/vigenere"
)

const pangram = "THEQUICKBROWNFOXJUMPSOVERTHELAZYDOG"

func newTestModel(t *testing.T, st *store.Store) *Model {
	t.Helper()
	ct := vigenere.Encrypt(strings.Repeat(pangram, 6), "KEY", false)
	res, err := vigenere.Analyze(ct, 3, freq.English)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	m := NewModel(ct, res, freq.English, "", false, st)
	m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return m
}

func press(m *Model, keys ...tea.KeyMsg) {
	for _, k := range keys {
		m.Update(k)
	}
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestModelStartsWithRecoveredKey(t *testing.T) {
	m := newTestModel(t, nil)
	if m.Key() != "KEY" {
		t.Fatalf("expected KEY, got %q", m.Key())
	}
	if view := m.View(); !strings.Contains(view, "Position 0") {
		t.Fatalf("expected side panel in view:\n%s", view)
	}
}

func TestModelRotateAndReset(t *testing.T) {
	m := newTestModel(t, nil)
	press(m, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyUp}, tea.KeyMsg{Type: tea.KeyUp})
	if m.Key() != "KGY" {
		t.Fatalf("expected KGY, got %q", m.Key())
	}
	press(m, tea.KeyMsg{Type: tea.KeyLeft}, tea.KeyMsg{Type: tea.KeyDown})
	if m.Key() != "JGY" {
		t.Fatalf("expected JGY, got %q", m.Key())
	}
	press(m, tea.KeyMsg{Type: tea.KeyLeft}, runes("j"))
	if m.selected != 2 || m.Key() != "JGX" {
		t.Fatalf("expected selection to wrap, got %d %q", m.selected, m.Key())
	}
	press(m, runes("r"))
	if m.Key() != "KEY" {
		t.Fatalf("expected reset to KEY, got %q", m.Key())
	}
}

func TestModelRotateWrapsAlphabet(t *testing.T) {
	m := newTestModel(t, nil)
	press(m, tea.KeyMsg{Type: tea.KeyRight}, tea.KeyMsg{Type: tea.KeyRight})
	for i := 0; i < 2; i++ {
		press(m, tea.KeyMsg{Type: tea.KeyUp})
	}
	if m.Key() != "KEA" {
		t.Fatalf("expected Y to wrap to A, got %q", m.Key())
	}
}

func TestModelCandidateCycling(t *testing.T) {
	m := newTestModel(t, nil)
	second := m.candidates[0][1].Letter()
	press(m, runes("n"))
	if m.key[0] != second {
		t.Fatalf("expected second candidate %c, got %c", second, m.key[0])
	}
	press(m, runes("p"))
	if m.Key() != "KEY" {
		t.Fatalf("expected back to best candidate, got %q", m.Key())
	}
	press(m, runes("p"))
	last := m.candidates[0][freq.Letters-1].Letter()
	if m.key[0] != last {
		t.Fatalf("expected wrap to worst candidate %c, got %c", last, m.key[0])
	}
	if rows := m.candidateRows(); len(rows) != candidateRows+1 {
		t.Fatalf("expected low-ranked shift to be appended, got %d rows", len(rows))
	}
}

func TestModelTogglePassThrough(t *testing.T) {
	m := newTestModel(t, nil)
	if m.passThrough {
		t.Fatalf("expected pass-through off")
	}
	press(m, runes("t"))
	if !m.passThrough || !strings.Contains(m.status, "on") {
		t.Fatalf("expected pass-through on, status %q", m.status)
	}
}

func TestModelSaveWithoutStore(t *testing.T) {
	m := newTestModel(t, nil)
	press(m, runes("s"))
	if m.status != "History is disabled" {
		t.Fatalf("unexpected status %q", m.status)
	}
}

func TestModelSaveEditedKey(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "vigcrack.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	m := newTestModel(t, st)
	press(m, tea.KeyMsg{Type: tea.KeyUp}, runes("s"))
	if !strings.HasPrefix(m.status, "Saved run ") {
		t.Fatalf("unexpected status %q", m.status)
	}
	id := strings.TrimPrefix(m.status, "Saved run ")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	run, cosets, err := st.GetRun(ctx, id)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if run.Key != "LEY" {
		t.Fatalf("expected edited key LEY, got %q", run.Key)
	}
	if want := m.result.Cosets[0].Scores[11]; cosets[0].Shift != 11 || cosets[0].Fit != want {
		t.Fatalf("expected shift 11 with fit %.3f, got %+v", want, cosets[0])
	}
}

func TestModelQuit(t *testing.T) {
	m := newTestModel(t, nil)
	if _, cmd := m.Update(runes("q")); cmd == nil {
		t.Fatalf("expected quit command")
	}
}

func TestModelDegenerateCoset(t *testing.T) {
	res, err := vigenere.Analyze("EET", 5, freq.English)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	m := NewModel("EET", res, freq.English, "", false, nil)
	m.Update(tea.WindowSizeMsg{Width: 80, Height: 20})
	press(m, tea.KeyMsg{Type: tea.KeyLeft}, runes("n"))
	if m.selected != 4 || !strings.Contains(m.status, "no letters") {
		t.Fatalf("expected degenerate notice, got %d %q", m.selected, m.status)
	}
	if rows := m.candidateRows(); rows != nil {
		t.Fatalf("expected no candidate rows, got %v", rows)
	}
}

func TestModelSaveFailureStaysOnStatusLine(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "vigcrack.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	m := newTestModel(t, st)
	if err := st.Close(); err != nil {
		t.Fatalf("close store: %v", err)
	}

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	stderr := os.Stderr
	os.Stderr = w
	press(m, runes("s"))
	os.Stderr = stderr
	if err := w.Close(); err != nil {
		t.Fatalf("close pipe: %v", err)
	}
	written, err := io.ReadAll(r)
	if err != nil {
		t.Fatalf("read pipe: %v", err)
	}

	if !strings.HasPrefix(m.status, "Failed to save run") {
		t.Fatalf("unexpected status %q", m.status)
	}
	if len(written) != 0 {
		t.Fatalf("expected nothing on stderr, got %q", written)
	}
}

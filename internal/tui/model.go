// Package tui provides the Bubble Tea key explorer.
package tui

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/eivanovue/cryptography/internal/freq"
	"github.com/eivanovue/cryptography/internal/store"
	"github.com/eivanovue/cryptography/internal/vigenere"
)

const candidateRows = 6

var (
	plainStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
	selectedCosetStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	passThroughStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	keyLetterStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C")).Padding(0, 1)
	keySelectedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true).Underline(true).Padding(0, 1)
	keyEditedStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F")).Padding(0, 1)
	headerStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	footerStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	panelStyle         = lipgloss.NewStyle().
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
)

// Model implements the Bubble Tea key explorer.
type Model struct {
	ciphertext string
	ref        freq.Table
	tablePath  string
	result     vigenere.Result
	store      *store.Store

	key         []byte
	selected    int
	passThrough bool
	candidates  [][]vigenere.Candidate

	width    int
	height   int
	viewport viewport.Model
	candView table.Model
	status   string
}

// NewModel constructs an explorer over an analysis result. st may be nil,
// which disables saving.
func NewModel(ciphertext string, res vigenere.Result, ref freq.Table, tablePath string, passThrough bool, st *store.Store) *Model {
	m := &Model{
		ciphertext:  ciphertext,
		ref:         ref,
		tablePath:   tablePath,
		result:      res,
		store:       st,
		key:         []byte(res.Key),
		passThrough: passThrough,
		candidates:  make([][]vigenere.Candidate, len(res.Cosets)),
	}
	for i, c := range res.Cosets {
		m.candidates[i] = vigenere.Candidates(c.Scores, 0)
	}
	m.viewport = viewport.New(0, 0)
	m.viewport.KeyMap = viewport.KeyMap{
		PageDown: key.NewBinding(key.WithKeys("pgdown")),
		PageUp:   key.NewBinding(key.WithKeys("pgup")),
	}
	m.candView = table.New(
		table.WithColumns([]table.Column{
			{Title: "Rank", Width: 4},
			{Title: "Key", Width: 3},
			{Title: "Fit", Width: 9},
		}),
		table.WithHeight(candidateRows+1),
	)
	m.candView.SetStyles(candidateTableStyles())
	m.refresh()
	return m
}

// Key returns the key currently shown.
func (m *Model) Key() string {
	return string(m.key)
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.refresh()
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyLeft:
			m.moveSelection(-1)
		case tea.KeyRight, tea.KeyTab:
			m.moveSelection(1)
		case tea.KeyUp:
			m.rotate(1)
		case tea.KeyDown:
			m.rotate(-1)
		case tea.KeyPgUp, tea.KeyPgDown:
			var cmd tea.Cmd
			m.viewport, cmd = m.viewport.Update(msg)
			return m, cmd
		case tea.KeyRunes:
			return m.handleRunes(msg.Runes)
		}
		return m, nil
	default:
		return m, nil
	}
}

func (m *Model) handleRunes(runes []rune) (tea.Model, tea.Cmd) {
	for _, r := range runes {
		switch r {
		case 'q':
			return m, tea.Quit
		case 'h':
			m.moveSelection(-1)
		case 'l':
			m.moveSelection(1)
		case 'k':
			m.rotate(1)
		case 'j':
			m.rotate(-1)
		case 'n':
			m.stepCandidate(1)
		case 'p':
			m.stepCandidate(-1)
		case 'r':
			m.key = []byte(m.result.Key)
			m.status = "Key reset to recovered key"
			m.refresh()
		case 't':
			m.passThrough = !m.passThrough
			m.status = fmt.Sprintf("Pass-through %s", onOff(m.passThrough))
			m.refresh()
		case 's':
			m.save()
		}
	}
	return m, nil
}

func (m *Model) moveSelection(delta int) {
	n := len(m.key)
	if n == 0 {
		return
	}
	m.selected = ((m.selected+delta)%n + n) % n
	m.status = ""
	m.refresh()
}

func (m *Model) rotate(delta int) {
	if len(m.key) == 0 {
		return
	}
	shift := int(m.key[m.selected]-'A') + delta
	m.key[m.selected] = byte('A' + (shift%freq.Letters+freq.Letters)%freq.Letters)
	m.status = ""
	m.refresh()
}

// stepCandidate moves the selected key letter to the next or previous shift
// in fit order.
func (m *Model) stepCandidate(delta int) {
	if len(m.key) == 0 {
		return
	}
	if m.result.Cosets[m.selected].Degenerate {
		m.status = fmt.Sprintf("Position %d has no letters to rank", m.selected)
		return
	}
	cands := m.candidates[m.selected]
	rank := m.rankOf(m.selected)
	rank = ((rank+delta)%len(cands) + len(cands)) % len(cands)
	m.key[m.selected] = cands[rank].Letter()
	m.status = ""
	m.refresh()
}

func (m *Model) rankOf(pos int) int {
	shift := int(m.key[pos] - 'A')
	for i, c := range m.candidates[pos] {
		if c.Shift == shift {
			return i
		}
	}
	return 0
}

func (m *Model) save() {
	if m.store == nil {
		m.status = "History is disabled"
		return
	}
	res := m.result
	res.Key = m.Key()
	res.Plaintext = vigenere.Decrypt(m.ciphertext, res.Key, m.passThrough)
	res.Cosets = make([]vigenere.CosetResult, len(m.result.Cosets))
	copy(res.Cosets, m.result.Cosets)
	for i := range res.Cosets {
		shift := int(m.key[i] - 'A')
		res.Cosets[i].Shift = shift
		res.Cosets[i].Fit = res.Cosets[i].Scores[shift]
	}
	run, cosets := store.NewRun(m.ciphertext, res, m.tablePath)
	id, err := m.store.InsertRun(context.Background(), run, cosets)
	if err != nil {
		m.status = fmt.Sprintf("Failed to save run: %v", err)
		return
	}
	m.status = fmt.Sprintf("Saved run %s", id[:8])
}

func (m *Model) refresh() {
	m.candView.SetRows(m.candidateRows())
	if len(m.key) > 0 {
		m.candView.SetCursor(minInt(m.rankOf(m.selected), candidateRows))
	}
	bodyWidth, bodyHeight := m.bodySize()
	m.viewport.Width = bodyWidth
	m.viewport.Height = bodyHeight
	m.viewport.SetContent(m.renderPlaintext(bodyWidth))
}

func (m *Model) candidateRows() []table.Row {
	if len(m.key) == 0 || m.result.Cosets[m.selected].Degenerate {
		return nil
	}
	cands := m.candidates[m.selected]
	rows := make([]table.Row, 0, candidateRows+1)
	for i, c := range cands[:candidateRows] {
		rows = append(rows, table.Row{strconv.Itoa(i + 1), string(c.Letter()), fmt.Sprintf("%.3f", c.Fit)})
	}
	// Keep a manually chosen shift visible even when it ranks low.
	if rank := m.rankOf(m.selected); rank >= candidateRows {
		c := cands[rank]
		rows = append(rows, table.Row{strconv.Itoa(rank + 1), string(c.Letter()), fmt.Sprintf("%.3f", c.Fit)})
	}
	return rows
}

func (m *Model) bodySize() (int, int) {
	sideWidth := lipgloss.Width(panelStyle.Render(m.candView.View()))
	width := m.width - sideWidth - 1
	if width < 10 {
		width = 10
	}
	height := m.height - 4
	if height < 1 {
		height = 1
	}
	return width, height
}

func (m *Model) renderPlaintext(width int) string {
	plaintext := []rune(vigenere.Decrypt(m.ciphertext, string(m.key), m.passThrough))
	if len(plaintext) == 0 {
		return headerStyle.Render("(no letters A-Z in ciphertext)")
	}
	styled := buildStyledRunes(plaintext, cosetIndexes(plaintext, len(m.key)), m.selected)
	return wrapStyledRunes(styled, width)
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	header := m.renderHeader()
	side := panelStyle.Render(m.renderSide())
	body := lipgloss.JoinHorizontal(lipgloss.Top, m.viewport.View(), " ", side)
	return strings.Join([]string{header, body, m.renderFooter()}, "\n")
}

func (m *Model) renderHeader() string {
	letters := make([]string, 0, len(m.key))
	for i, k := range m.key {
		style := keyLetterStyle
		switch {
		case i == m.selected:
			style = keySelectedStyle
		case k != m.result.Key[i]:
			style = keyEditedStyle
		}
		letters = append(letters, style.Render(string(k)))
	}
	info := headerStyle.Render(fmt.Sprintf("length %d · %d letters · %s", len(m.key), m.result.Letters, m.result.Status))
	return lipgloss.JoinHorizontal(lipgloss.Center, "Key ", strings.Join(letters, ""), "  ", info)
}

func (m *Model) renderSide() string {
	if len(m.key) == 0 {
		return ""
	}
	c := m.result.Cosets[m.selected]
	title := fmt.Sprintf("Position %d", m.selected)
	if c.Degenerate {
		return title + "\n" + headerStyle.Render("no letters")
	}
	shift := int(m.key[m.selected] - 'A')
	stats := headerStyle.Render(fmt.Sprintf("%d letters · IoC %.4f", c.Size, c.IoC))
	current := headerStyle.Render(fmt.Sprintf("%c fit %.3f", m.key[m.selected], vigenere.Fit(c.Histogram, m.ref, shift)))
	return strings.Join([]string{title, stats, current, m.candView.View()}, "\n")
}

func (m *Model) renderFooter() string {
	segments := []string{"←/→ position", "↑/↓ shift", "n/p candidate", "r reset", "t pass-through", "s save", "q quit"}
	footer := footerStyle.Render(strings.Join(segments, " · "))
	if m.status != "" {
		footer += "  " + m.status
	}
	return footer
}

func candidateTableStyles() table.Styles {
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#C89A3A")).
		Bold(true)
	return styles
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

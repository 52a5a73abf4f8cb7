package vigenere

import (
	"sort"

	"github.com/eivanovue/cryptography/internal/freq"
)

// Candidate is a shift together with its fit statistic.
type Candidate struct {
	Shift int
	Fit   float64
}

// Letter returns the key letter that encrypts with this shift.
func (c Candidate) Letter() byte {
	return byte('A' + c.Shift)
}

// Fit computes the chi-squared style discrepancy between h rotated left by
// shift and the reference table. h must be non-empty.
func Fit(h Histogram, table freq.Table, shift int) float64 {
	total := float64(h.Total())
	var fit float64
	for i := 0; i < freq.Letters; i++ {
		d := float64(h[(i+shift)%freq.Letters])/total - table[i]
		fit += d * d / table[i]
	}
	return fit
}

// Scores returns the fit for every shift. An empty histogram scores all zeros.
func Scores(h Histogram, table freq.Table) [freq.Letters]float64 {
	var out [freq.Letters]float64
	if h.Total() == 0 {
		return out
	}
	for s := range out {
		out[s] = Fit(h, table, s)
	}
	return out
}

// BestShift scans shifts in ascending order and keeps the first one with the
// smallest fit; a later shift replaces it only when strictly smaller. For an
// empty histogram it returns shift 0 with ok set to false.
func BestShift(h Histogram, table freq.Table) (shift int, fit float64, ok bool) {
	if h.Total() == 0 {
		return 0, 0, false
	}
	shift = 0
	fit = Fit(h, table, 0)
	for s := 1; s < freq.Letters; s++ {
		if f := Fit(h, table, s); f < fit {
			fit = f
			shift = s
		}
	}
	return shift, fit, true
}

// Candidates ranks shifts by ascending fit, ties broken by the smaller shift.
// n <= 0 or n > 26 returns all 26.
func Candidates(scores [freq.Letters]float64, n int) []Candidate {
	items := make([]Candidate, 0, freq.Letters)
	for s, f := range scores {
		items = append(items, Candidate{Shift: s, Fit: f})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].Fit == items[j].Fit {
			return items[i].Shift < items[j].Shift
		}
		return items[i].Fit < items[j].Fit
	})
	if n <= 0 || n > len(items) {
		n = len(items)
	}
	return items[:n]
}

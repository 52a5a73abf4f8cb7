// Package vigenere recovers Vigenère keys by per-coset frequency analysis.
package vigenere

import "github.com/eivanovue/cryptography/internal/freq"

// Histogram counts letter occurrences, index 0 is A.
type Histogram [freq.Letters]int

// Total returns the number of letters counted.
func (h Histogram) Total() int {
	total := 0
	for _, c := range h {
		total += c
	}
	return total
}

func isUpper(c rune) bool {
	return c >= 'A' && c <= 'Z'
}

// Normalize maps every uppercase Latin letter of s to 0-25 and drops everything else.
func Normalize(s string) []int {
	out := make([]int, 0, len(s))
	for _, c := range s {
		if isUpper(c) {
			out = append(out, int(c-'A'))
		}
	}
	return out
}

// Partition splits letters into n cosets; coset j holds every value at a
// position i with i mod n == j, in original order. Cosets past len(letters)
// are empty. n must be positive.
func Partition(letters []int, n int) [][]int {
	cosets := make([][]int, n)
	for j := range cosets {
		size := 0
		if j < len(letters) {
			size = (len(letters)-j-1)/n + 1
		}
		cosets[j] = make([]int, 0, size)
	}
	for i, v := range letters {
		cosets[i%n] = append(cosets[i%n], v)
	}
	return cosets
}

// Count builds the histogram of a coset.
func Count(coset []int) Histogram {
	var h Histogram
	for _, v := range coset {
		h[v]++
	}
	return h
}

// IndexOfCoincidence returns the probability that two letters drawn without
// replacement from h are equal. Histograms with fewer than two letters yield 0.
func IndexOfCoincidence(h Histogram) float64 {
	total := h.Total()
	if total < 2 {
		return 0
	}
	var sum float64
	for _, c := range h {
		sum += float64(c * (c - 1))
	}
	return sum / (float64(total) * float64(total-1))
}

// Package model defines shared data structures.
package model

import "time"

// Config defines analysis settings.
type Config struct {
	KeyLen      int
	PassThrough bool
	Parallel    int
	TablePath   string
	FoldCase    bool
	Save        bool
}

// HistoryConfig defines filters for run history output.
type HistoryConfig struct {
	Last   int
	KeyLen int
}

// Run captures a completed analysis.
type Run struct {
	ID         string
	CreatedAt  time.Time
	KeyLen     int
	Key        string
	Status     string
	Letters    int
	Digest     string
	Ciphertext string
	Plaintext  string
	TablePath  string
}

// CosetStats stores per-coset results of a run.
type CosetStats struct {
	Index      int
	Size       int
	Shift      int
	Fit        float64
	IoC        float64
	Degenerate bool
}

// RunSummary summarises a run for listing.
type RunSummary struct {
	ID         string
	CreatedAt  time.Time
	KeyLen     int
	Key        string
	Status     string
	Letters    int
	Degenerate int
}

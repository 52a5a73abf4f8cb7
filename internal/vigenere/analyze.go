package vigenere

import (
	"errors"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/eivanovue/cryptography/internal/freq"
)

// ErrInvalidKeyLength is returned for a key length below 1.
var ErrInvalidKeyLength = errors.New("key length must be at least 1")

// Status summarises how much of the key was genuinely recovered.
type Status int

const (
	// StatusRecovered means every coset contained letters.
	StatusRecovered Status = iota
	// StatusPartial means some cosets were empty and fell back to shift 0.
	StatusPartial
	// StatusUnrecoverable means the ciphertext held no letters at all.
	StatusUnrecoverable
)

func (s Status) String() string {
	switch s {
	case StatusRecovered:
		return "recovered"
	case StatusPartial:
		return "partial"
	case StatusUnrecoverable:
		return "unrecoverable"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, error) {
	for _, st := range []Status{StatusRecovered, StatusPartial, StatusUnrecoverable} {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

// CosetResult holds the analysis of one key position.
type CosetResult struct {
	Index      int
	Size       int
	Histogram  Histogram
	Scores     [freq.Letters]float64
	Shift      int
	Fit        float64
	IoC        float64
	Degenerate bool
}

// Letter returns the recovered key letter for the coset.
func (c CosetResult) Letter() byte {
	return byte('A' + c.Shift)
}

// Result is the outcome of Analyze.
type Result struct {
	Key       string
	Plaintext string
	KeyLen    int
	Letters   int
	Cosets    []CosetResult
	Status    Status
}

// Degenerate returns the indices of cosets whose key letter is a fallback.
func (r Result) Degenerate() []int {
	var out []int
	for _, c := range r.Cosets {
		if c.Degenerate {
			out = append(out, c.Index)
		}
	}
	return out
}

type options struct {
	parallel    int
	passThrough bool
}

// Option configures Analyze.
type Option func(*options)

// WithParallel scores cosets concurrently with at most limit goroutines.
// A limit of 1 or less keeps scoring sequential.
func WithParallel(limit int) Option {
	return func(o *options) {
		o.parallel = limit
	}
}

// WithPassThrough keeps non-letter characters in the decrypted plaintext.
func WithPassThrough(enabled bool) Option {
	return func(o *options) {
		o.passThrough = enabled
	}
}

// Analyze recovers a key of length keyLen from ciphertext using table and
// decrypts ciphertext with it. Only uppercase A-Z are analysed.
func Analyze(ciphertext string, keyLen int, table freq.Table, opts ...Option) (Result, error) {
	if keyLen < 1 {
		return Result{}, ErrInvalidKeyLength
	}
	if err := table.Validate(); err != nil {
		return Result{}, fmt.Errorf("invalid reference table: %w", err)
	}
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	letters := Normalize(ciphertext)
	cosets := Partition(letters, keyLen)
	results := make([]CosetResult, keyLen)
	if o.parallel > 1 {
		var g errgroup.Group
		g.SetLimit(o.parallel)
		for j := range cosets {
			j := j
			g.Go(func() error {
				results[j] = analyzeCoset(j, cosets[j], table)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return Result{}, err
		}
	} else {
		for j := range cosets {
			results[j] = analyzeCoset(j, cosets[j], table)
		}
	}

	key := make([]byte, keyLen)
	degenerate := 0
	for j, c := range results {
		key[j] = c.Letter()
		if c.Degenerate {
			degenerate++
		}
	}

	status := StatusRecovered
	switch {
	case len(letters) == 0:
		status = StatusUnrecoverable
	case degenerate > 0:
		status = StatusPartial
	}

	return Result{
		Key:       string(key),
		Plaintext: Decrypt(ciphertext, string(key), o.passThrough),
		KeyLen:    keyLen,
		Letters:   len(letters),
		Cosets:    results,
		Status:    status,
	}, nil
}

func analyzeCoset(index int, coset []int, table freq.Table) CosetResult {
	h := Count(coset)
	shift, fit, ok := BestShift(h, table)
	return CosetResult{
		Index:      index,
		Size:       len(coset),
		Histogram:  h,
		Scores:     Scores(h, table),
		Shift:      shift,
		Fit:        fit,
		IoC:        IndexOfCoincidence(h),
		Degenerate: !ok,
	}
}

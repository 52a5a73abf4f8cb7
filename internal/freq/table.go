// Package freq provides reference letter-frequency tables.
package freq

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/BurntSushi/toml"
)

// Letters is the size of the analysed alphabet (A-Z).
const Letters = 26

// sumTolerance bounds how far a table may drift from a total probability of 1.
const sumTolerance = 1e-2

// smoothing is added to every corpus count so that unseen letters keep a
// non-zero probability.
const smoothing = 0.5

// ErrEmptyCorpus is returned when a corpus contains no Latin letters.
var ErrEmptyCorpus = errors.New("corpus contains no letters")

// Table is a probability distribution over A-Z, index 0 is A.
type Table [Letters]float64

// English holds the Lewand English letter frequencies.
var English = Table{
	0.08167, 0.01492, 0.02782, 0.04253, 0.12702, 0.02228, 0.02015, // A-G
	0.06094, 0.06966, 0.00153, 0.00772, 0.04025, 0.02406, 0.06749, // H-N
	0.07507, 0.01929, 0.00095, 0.05987, 0.06327, 0.09056, 0.02758, // O-U
	0.00978, 0.02360, 0.00150, 0.01974, 0.00074, // V-Z
}

// Validate checks that every entry lies in (0,1] and the entries sum to ~1.
func (t Table) Validate() error {
	var sum float64
	for i, p := range t {
		if math.IsNaN(p) || p <= 0 || p > 1 {
			return fmt.Errorf("frequency for %c out of range: %v", 'A'+i, p)
		}
		sum += p
	}
	if math.Abs(sum-1) > sumTolerance {
		return fmt.Errorf("frequencies sum to %.5f, want 1", sum)
	}
	return nil
}

// FromCounts converts raw letter counts into a smoothed probability table.
func FromCounts(counts [Letters]int) (Table, error) {
	total := 0
	for _, c := range counts {
		if c < 0 {
			return Table{}, fmt.Errorf("negative letter count %d", c)
		}
		total += c
	}
	if total == 0 {
		return Table{}, ErrEmptyCorpus
	}
	den := float64(total) + smoothing*Letters
	var t Table
	for i, c := range counts {
		t[i] = (float64(c) + smoothing) / den
	}
	return t, nil
}

// Count tallies Latin letters from r, folding lowercase onto uppercase.
func Count(r io.Reader) ([Letters]int, error) {
	var counts [Letters]int
	buf := bufio.NewReader(r)
	for {
		ch, _, err := buf.ReadRune()
		if err != nil {
			if err == io.EOF {
				return counts, nil
			}
			return counts, err
		}
		switch {
		case ch >= 'A' && ch <= 'Z':
			counts[ch-'A']++
		case ch >= 'a' && ch <= 'z':
			counts[ch-'a']++
		}
	}
}

// Build reads a corpus and returns its letter-frequency table.
func Build(r io.Reader) (Table, error) {
	counts, err := Count(r)
	if err != nil {
		return Table{}, err
	}
	return FromCounts(counts)
}

type tableFile struct {
	Name    string    `toml:"name,omitempty"`
	Letters []float64 `toml:"letters"`
}

// LoadFile reads a table from a TOML file holding a 26-entry `letters` array.
func LoadFile(path string) (Table, error) {
	var f tableFile
	if _, err := toml.DecodeFile(path, &f); err != nil {
		return Table{}, fmt.Errorf("failed to decode table: %w", err)
	}
	if len(f.Letters) != Letters {
		return Table{}, fmt.Errorf("table has %d letters, want %d", len(f.Letters), Letters)
	}
	var t Table
	copy(t[:], f.Letters)
	if err := t.Validate(); err != nil {
		return Table{}, err
	}
	return t, nil
}

// Resolve returns the English table for an empty path, otherwise the table stored at path.
func Resolve(path string) (Table, error) {
	if path == "" {
		return English, nil
	}
	if _, err := os.Stat(path); err != nil {
		return Table{}, fmt.Errorf("failed to stat table: %w", err)
	}
	return LoadFile(path)
}

// WriteTOML encodes t in the format read by LoadFile.
func (t Table) WriteTOML(w io.Writer, name string) error {
	f := tableFile{Name: name, Letters: append([]float64(nil), t[:]...)}
	return toml.NewEncoder(w).Encode(f)
}

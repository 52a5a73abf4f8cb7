// Package generator builds random Vigenère keys.
package generator

import (
	"math/rand"
	"time"
)

// Generator produces random uppercase keys.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator seeded with the current time.
func New() *Generator {
	return NewSeeded(time.Now().UnixNano())
}

// NewSeeded returns a Generator with a fixed seed.
func NewSeeded(seed int64) *Generator {
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

// Key returns n letters drawn uniformly from A-Z. n <= 0 yields "".
func (g *Generator) Key(n int) string {
	if n <= 0 {
		return ""
	}
	key := make([]byte, n)
	for i := range key {
		key[i] = byte('A' + g.rnd.Intn(26))
	}
	return string(key)
}

package store

import (
	"github.com/eivanovue/cryptography/internal/model"
	"github.com/eivanovue/cryptography/internal/vigenere"
)

// NewRun converts an analysis result into records ready for InsertRun.
func NewRun(ciphertext string, res vigenere.Result, tablePath string) (model.Run, []model.CosetStats) {
	run := model.Run{
		KeyLen:     res.KeyLen,
		Key:        res.Key,
		Status:     res.Status.String(),
		Letters:    res.Letters,
		Ciphertext: ciphertext,
		Plaintext:  res.Plaintext,
		TablePath:  tablePath,
	}
	cosets := make([]model.CosetStats, 0, len(res.Cosets))
	for _, c := range res.Cosets {
		cosets = append(cosets, model.CosetStats{
			Index:      c.Index,
			Size:       c.Size,
			Shift:      c.Shift,
			Fit:        c.Fit,
			IoC:        c.IoC,
			Degenerate: c.Degenerate,
		})
	}
	return run, cosets
}

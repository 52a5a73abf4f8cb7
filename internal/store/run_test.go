package store

import (
	"context"
	"testing"

	"github.com/eivanovue/cryptography/internal/freq"
	"github.com/eivanovue/cryptography/internal/vigenere"
)

func TestNewRunRoundTrip(t *testing.T) {
	ciphertext := vigenere.Encrypt("ITWASTHEBESTOFTIMESITWASTHEWORSTOFTIMES", "KEY", false)
	res, err := vigenere.Analyze(ciphertext, 4, freq.English)
	if err != nil {
		t.Fatalf("Analyze failed: %v", err)
	}
	run, cosets := NewRun(ciphertext, res, "")
	if run.Key != res.Key || run.Status != "recovered" || len(cosets) != 4 {
		t.Fatalf("unexpected conversion: %+v %+v", run, cosets)
	}

	st := openTestStore(t)
	id, err := st.InsertRun(context.Background(), run, cosets)
	if err != nil {
		t.Fatalf("insert run: %v", err)
	}
	got, gotCosets, err := st.GetRun(context.Background(), id)
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if got.Plaintext != res.Plaintext || got.Letters != res.Letters {
		t.Fatalf("unexpected stored run: %+v", got)
	}
	for i, c := range gotCosets {
		if c.Shift != res.Cosets[i].Shift || c.Fit != res.Cosets[i].Fit {
			t.Fatalf("coset %d mismatch: %+v vs %+v", i, c, res.Cosets[i])
		}
	}
}

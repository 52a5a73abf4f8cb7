package vigenere

import (
	"strings"

	"github.com/eivanovue/cryptography/internal/freq"
)

// Decrypt subtracts key from every uppercase letter of ciphertext. The key
// cursor advances only on uppercase letters. Other characters are dropped,
// or copied unchanged when passThrough is set. key must consist of A-Z and
// an empty key leaves letters unshifted.
func Decrypt(ciphertext, key string, passThrough bool) string {
	return apply(ciphertext, key, -1, passThrough)
}

// Encrypt adds key to every uppercase letter of plaintext, the inverse of Decrypt.
func Encrypt(plaintext, key string, passThrough bool) string {
	return apply(plaintext, key, 1, passThrough)
}

func apply(text, key string, sign int, passThrough bool) string {
	var b strings.Builder
	b.Grow(len(text))
	j := 0
	for _, c := range text {
		if !isUpper(c) {
			if passThrough {
				b.WriteRune(c)
			}
			continue
		}
		shift := 0
		if len(key) > 0 {
			shift = int(key[j] - 'A')
			j = (j + 1) % len(key)
		}
		v := (int(c-'A') + sign*shift + freq.Letters) % freq.Letters
		b.WriteByte(byte('A' + v))
	}
	return b.String()
}

// ValidKey reports whether key is a non-empty string of uppercase Latin letters.
func ValidKey(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		if key[i] < 'A' || key[i] > 'Z' {
			return false
		}
	}
	return true
}

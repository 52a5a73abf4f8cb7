// Package source loads ciphertext and corpus text from files and streams.
package source

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
)

// ErrNotText is returned for inputs that do not look like text.
var ErrNotText = errors.New("input is not text")

// LoadFile reads a text file. Content that is not valid UTF-8 or holds NUL bytes is rejected.
func LoadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	if err := checkText(data); err != nil {
		return "", fmt.Errorf("%s: %w", path, err)
	}
	return string(data), nil
}

// Read reads all of r as text.
func Read(r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	if err := checkText(data); err != nil {
		return "", err
	}
	return string(data), nil
}

func checkText(data []byte) error {
	if utf8.Valid(data) && bytes.IndexByte(data, 0) < 0 {
		return nil
	}
	return fmt.Errorf("%w (detected %s)", ErrNotText, mimetype.Detect(data).String())
}

// Prepare trims a trailing newline from input and, when foldCase is set,
// uppercases it so lowercase letters take part in the analysis.
func Prepare(text string, foldCase bool) string {
	text = strings.TrimRight(text, "\r\n")
	if foldCase {
		return strings.ToUpper(text)
	}
	return text
}

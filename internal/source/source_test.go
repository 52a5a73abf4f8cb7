package source

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoadFileText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cipher.txt")
	if err := os.WriteFile(path, []byte("LXFOPV EF RNHR\n"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile failed: %v", err)
	}
	if got != "LXFOPV EF RNHR\n" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestLoadFileRejectsBinary(t *testing.T) {
	path := filepath.Join(t.TempDir(), "image.png")
	png := []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")
	if err := os.WriteFile(path, png, 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	if _, err := LoadFile(path); !errors.Is(err, ErrNotText) {
		t.Fatalf("expected ErrNotText, got %v", err)
	}
}

func TestRead(t *testing.T) {
	got, err := Read(strings.NewReader("ABC"))
	if err != nil || got != "ABC" {
		t.Fatalf("expected ABC, got %q (%v)", got, err)
	}
	if got, err := Read(bytes.NewReader(nil)); err != nil || got != "" {
		t.Fatalf("expected empty input to pass, got %q (%v)", got, err)
	}
}

func TestPrepare(t *testing.T) {
	if got := Prepare("Attack at dawn\r\n", false); got != "Attack at dawn" {
		t.Fatalf("unexpected %q", got)
	}
	if got := Prepare("Attack at dawn\n", true); got != "ATTACK AT DAWN" {
		t.Fatalf("unexpected %q", got)
	}
}

func TestReadAcceptsTextWithBinarySignatures(t *testing.T) {
	cases := []string{
		"MZXQLVPRKT OWNB",
		"ID3QXZ LMPR",
		"FWSKRT VXNB",
		"%PDF OF THE CIPHER",
	}
	for _, tc := range cases {
		got, err := Read(strings.NewReader(tc))
		if err != nil {
			t.Fatalf("expected %q to be accepted, got %v", tc, err)
		}
		if got != tc {
			t.Fatalf("expected %q, got %q", tc, got)
		}
	}
}

func TestReadRejectsNUL(t *testing.T) {
	if _, err := Read(strings.NewReader("ABC\x00DEF")); !errors.Is(err, ErrNotText) {
		t.Fatalf("expected ErrNotText, got %v", err)
	}
	if _, err := Read(bytes.NewReader([]byte{0xff, 0xfe, 'A'})); !errors.Is(err, ErrNotText) {
		t.Fatalf("expected ErrNotText for invalid UTF-8, got %v", err)
	}
}

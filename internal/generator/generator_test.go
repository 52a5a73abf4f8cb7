package generator

import "testing"

func TestKey(t *testing.T) {
	g := NewSeeded(42)
	key := g.Key(12)
	if len(key) != 12 {
		t.Fatalf("expected 12 letters, got %q", key)
	}
	for i := 0; i < len(key); i++ {
		if key[i] < 'A' || key[i] > 'Z' {
			t.Fatalf("unexpected character %q in %q", key[i], key)
		}
	}
	if again := NewSeeded(42).Key(12); again != key {
		t.Fatalf("expected same key for same seed, got %q and %q", key, again)
	}
	if g.Key(0) != "" {
		t.Fatalf("expected empty key for n=0")
	}
}

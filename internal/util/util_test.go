// internal/util/util_test.go
package util

import (
	"os"
	"path/filepath"
	"testing"
)

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.json")
	if err := WriteFile(path, []byte(`{}`)); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != `{}` {
		t.Fatalf("read back: %s, %v", data, err)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := TruncateRunes("PMC1234567", 20); got != "PMC1234567" {
		t.Fatalf("no-op truncate = %q", got)
	}
	if got := TruncateRunes("abcdef", 3); got != "abc…" {
		t.Fatalf("truncate = %q", got)
	}
	if got := TruncateRunes("héllo wörld", 5); got != "héllo…" {
		t.Fatalf("rune truncate = %q", got)
	}
}

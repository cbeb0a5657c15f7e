package main

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

func TestCollectFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	write := func(name string) string {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(p, []byte("text"), 0o600); err != nil {
			t.Fatal(err)
		}
		return p
	}

	notes := write("notes.md")
	nested := write("sub/cv.txt")
	write("sub/photo.png")
	binary := write("archive.zip")

	got, err := collectFiles([]string{dir, notes, binary})
	if err != nil {
		t.Fatalf("collectFiles() = %v, want: %v", err, nil)
	}

	want := []string{binary, notes, nested}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("collectFiles() = %v, want: %v", got, want)
	}

	if _, err := collectFiles([]string{filepath.Join(dir, "missing")}); err == nil {
		t.Error("collectFiles(missing) = nil, want an error")
	}
}

package cinetl_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cinegraph/cinetl"
)

func TestAtomicFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out", "movies.csv")
	af, err := cinetl.CreateAtomic(path)
	if err != nil {
		t.Fatalf("creating: %v", err)
	}
	if _, err := af.Write([]byte("id\n1\n")); err != nil {
		t.Fatalf("writing: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("destination visible before commit: %v", err)
	}
	if err := af.Commit(); err != nil {
		t.Fatalf("committing: %v", err)
	}
	af.Abort()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading: %v", err)
	}
	if string(data) != "id\n1\n" {
		t.Fatalf("unexpected content %q", data)
	}

	af, err = cinetl.CreateAtomic(path)
	if err != nil {
		t.Fatalf("creating again: %v", err)
	}
	af.Write([]byte("partial"))
	af.Abort()
	data, _ = os.ReadFile(path)
	if string(data) != "id\n1\n" {
		t.Fatalf("abort replaced the committed file: %q", data)
	}
	entries, _ := os.ReadDir(filepath.Dir(path))
	if len(entries) != 1 {
		t.Fatalf("temporary files left behind: %d entries", len(entries))
	}
}

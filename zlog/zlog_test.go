package zlog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cinegraph/cinetl"
)

func TestLevels(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.NoColor = true
	l, err := New(&buf, cfg)
	if err != nil {
		t.Fatal(err)
	}
	l.Printf("kept %d movies", 3)
	l.Debugf("scanning %s", "w01")
	out := buf.String()
	if !strings.Contains(out, "kept 3 movies") {
		t.Errorf("info line missing: %q", out)
	}
	if strings.Contains(out, "scanning w01") {
		t.Errorf("debug line written at info level: %q", out)
	}
	if !strings.Contains(out, l.RunID) {
		t.Errorf("run id missing: %q", out)
	}

	buf.Reset()
	cfg.Verbose = true
	l, err = New(&buf, cfg)
	if err != nil {
		t.Fatal(err)
	}
	l.Stage("seeds").Debugf("scanning %s", "w01")
	if out := buf.String(); !strings.Contains(out, "scanning w01") || !strings.Contains(out, "seeds") {
		t.Errorf("verbose stage line missing: %q", out)
	}
}

func TestFileOutput(t *testing.T) {
	var buf bytes.Buffer
	cfg := DefaultConfig()
	cfg.File = filepath.Join(t.TempDir(), "logs", "cinetl.log")
	l, err := New(&buf, cfg)
	if err != nil {
		t.Fatal(err)
	}
	stats := cinetl.NewStats()
	stats.Add("movies.csv", cinetl.StatWritten, 2)
	l.Stats("entities done", stats)
	if err := l.Close(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(cfg.File)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"movies.csv.written":2`) {
		t.Fatalf("structured stats missing from log file: %s", data)
	}
}

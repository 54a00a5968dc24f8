package jsonl

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/cinegraph/cinetl"
	"github.com/pkg/errors"
)

func writeWorkerFile(t *testing.T, root, worker, file string, lines ...string) {
	t.Helper()
	dir := filepath.Join(root, worker)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, file), []byte(strings.Join(lines, "\n")+"\n"), 0644); err != nil {
		t.Fatal(err)
	}
}

func TestOpenMissingRoot(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "nope"))
	if errors.Cause(err) != ErrNoRawRoot {
		t.Fatalf("expected ErrNoRawRoot, got %v", err)
	}
}

func TestScanOrderAndMalformed(t *testing.T) {
	root := t.TempDir()
	writeWorkerFile(t, root, "w10", cinetl.FileMoviesBasic,
		`{"movie_douban_id": "3", "title": "c"}`)
	writeWorkerFile(t, root, "w02", cinetl.FileMoviesBasic,
		`{"movie_douban_id": "1", "title": "a"}`,
		``,
		`not json`,
		`{"movie_douban_id": "2", "title": `,
		`{"movie_id": 2, "title": "b"}`)
	if err := os.MkdirAll(filepath.Join(root, "w05"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "README"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	s, err := Open(root)
	if err != nil {
		t.Fatalf("opening: %v", err)
	}
	if exp := []string{"w02", "w05", "w10"}; !reflect.DeepEqual(s.Workers(), exp) {
		t.Fatalf("workers %v, want %v", s.Workers(), exp)
	}

	stats := cinetl.NewStats()
	var keys []string
	err = Scan(s, cinetl.FileMoviesBasic, stats, func(m *cinetl.MovieBasic) error {
		keys = append(keys, m.MovieKey()+m.Title.String())
		return nil
	})
	if err != nil {
		t.Fatalf("scanning: %v", err)
	}
	if exp := []string{"1a", "2b", "3c"}; !reflect.DeepEqual(keys, exp) {
		t.Fatalf("scanned %v, want %v", keys, exp)
	}
	if n := stats.Get(cinetl.FileMoviesBasic, cinetl.StatMalformed); n != 2 {
		t.Errorf("malformed = %d, want 2", n)
	}
	if n := stats.Get(cinetl.FileMoviesBasic, cinetl.StatRead); n != 3 {
		t.Errorf("read = %d, want 3", n)
	}

	keys = nil
	err = ScanWorker(s, "w05", cinetl.FileMoviesBasic, nil, func(m *cinetl.MovieBasic) error {
		keys = append(keys, m.MovieKey())
		return nil
	})
	if err != nil || len(keys) != 0 {
		t.Fatalf("worker without the file: %v %v", keys, err)
	}

	stop := errors.New("stop")
	err = Scan(s, cinetl.FileMoviesBasic, nil, func(m *cinetl.MovieBasic) error { return stop })
	if err != stop {
		t.Fatalf("callback error not returned: %v", err)
	}
}

func TestWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "persons_seed.jsonl")
	w, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, ref := range []cinetl.SeedRef{
		{PersonRef: cinetl.PersonRef{PersonDoubanID: "1054521"}, Name: "蒂姆·罗宾斯"},
		{PersonRef: cinetl.PersonRef{PersonDoubanID: "1054534"}, Name: "<摩根>"},
	} {
		if err := w.Encode(ref); err != nil {
			t.Fatal(err)
		}
	}
	if w.Lines() != 2 {
		t.Fatalf("lines = %d", w.Lines())
	}
	if err := w.Commit(); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"name":"<摩根>"`) {
		t.Fatalf("html was escaped: %s", data)
	}

	var names []string
	found, err := ScanFile(path, nil, nil, func(r *cinetl.SeedRef) error {
		names = append(names, r.PersonKey()+":"+r.Name.String())
		return nil
	})
	if !found || err != nil {
		t.Fatalf("scan file: %v %v", found, err)
	}
	if exp := []string{"1054521:蒂姆·罗宾斯", "1054534:<摩根>"}; !reflect.DeepEqual(names, exp) {
		t.Fatalf("got %v", names)
	}
	found, _ = ScanFile(path+".missing", nil, nil, func(r *cinetl.SeedRef) error { return nil })
	if found {
		t.Fatalf("missing file reported as found")
	}
}

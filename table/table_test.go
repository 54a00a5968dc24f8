package table

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestWriteAndRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "movies.csv")
	err := WriteAll(path, []string{"id", "movie_douban_id", "title"}, [][]string{
		{"1", "1292052", "肖申克的救赎"},
		{"2", "1291546", "霸王别姬, \"Farewell\""},
	})
	if err != nil {
		t.Fatalf("writing: %v", err)
	}

	var got [][]string
	found, err := Read(path, func(r Row) error {
		got = append(got, []string{r.Get("title"), r.First("douban_id", "movie_douban_id"), r.Get("missing")})
		if !r.Has("id") || r.Has("douban_id") {
			t.Errorf("unexpected columns on line %d", r.Line())
		}
		return nil
	})
	if !found || err != nil {
		t.Fatalf("reading: %v %v", found, err)
	}
	exp := [][]string{
		{"肖申克的救赎", "1292052", ""},
		{"霸王别姬, \"Farewell\"", "1291546", ""},
	}
	if !reflect.DeepEqual(got, exp) {
		t.Fatalf("got %v, want %v", got, exp)
	}

	found, err = Read(path+".missing", func(r Row) error { return nil })
	if found || err != nil {
		t.Fatalf("missing table: %v %v", found, err)
	}
}

func TestWriteRejectsShortRow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.csv")
	w, err := Create(path, "a", "b")
	if err != nil {
		t.Fatal(err)
	}
	if err := w.Write("only one"); err == nil {
		t.Fatalf("expected error for a short row")
	}
	w.Abort()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("aborted table exists: %v", err)
	}
}

func TestReadFromBOMAndRaggedRows(t *testing.T) {
	in := "\ufeffid , name\n1,剧情\n2\n"
	var lines []int
	var names []string
	err := ReadFrom(strings.NewReader(in), "dict_genre.csv", func(r Row) error {
		lines = append(lines, r.Line())
		names = append(names, r.Get("name")+"|"+r.Get("id"))
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(lines, []int{2, 3}) || !reflect.DeepEqual(names, []string{"剧情|1", "|2"}) {
		t.Fatalf("got %v %v", lines, names)
	}
	if err := ReadFrom(strings.NewReader(""), "empty.csv", func(r Row) error {
		t.Fatalf("row from an empty table")
		return nil
	}); err != nil {
		t.Fatal(err)
	}
}

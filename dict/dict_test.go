package dict

import (
	"path/filepath"
	"testing"

	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/keys"
	"github.com/cinegraph/cinetl/table"
)

func TestMissingDictionariesAreEmpty(t *testing.T) {
	dir := t.TempDir()
	names, err := LoadNames(filepath.Join(dir, GenreFile), GenreIDCol)
	if err != nil {
		t.Fatalf("loading missing names: %v", err)
	}
	if names.Len() != 0 {
		t.Fatalf("expected empty names, got %d", names.Len())
	}
	fests, err := LoadFestivals(filepath.Join(dir, FestivalFile))
	if err != nil || fests.Len() != 0 {
		t.Fatalf("loading missing festivals: %v, %d", err, fests.Len())
	}
	awards, err := LoadAwards(filepath.Join(dir, AwardFile))
	if err != nil || awards.Len() != 0 {
		t.Fatalf("loading missing awards: %v, %d", err, awards.Len())
	}
}

func TestNamesRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), GenreFile)
	a := keys.AssignNames([]string{"剧情", "喜剧", "Action", "剧情"})
	if err := WriteNames(path, GenreIDCol, a); err != nil {
		t.Fatalf("writing names: %v", err)
	}
	names, err := LoadNames(path, GenreIDCol)
	if err != nil {
		t.Fatalf("loading names: %v", err)
	}
	if names.Len() != 3 {
		t.Fatalf("expected 3 names, got %d", names.Len())
	}
	id, ok, _ := names.Resolve("Action")
	if !ok || id != 1 {
		t.Fatalf("Action: got %d %v, want 1", id, ok)
	}
	want, _ := a.ID("剧情")
	if id, ok, _ := names.Resolve(" 剧情 "); !ok || id != want {
		t.Fatalf("剧情: got %d %v, want %d", id, ok, want)
	}
	if _, ok, _ := names.Resolve("科幻"); ok {
		t.Fatalf("unexpected id for unknown name")
	}
}

func TestFestivalsAndAwards(t *testing.T) {
	dir := t.TempDir()
	cannes01 := cinetl.FestivalKey{Name: "戛纳电影节", Year: 2001}
	cannes := cinetl.FestivalKey{Name: "戛纳电影节"}
	berlin := cinetl.FestivalKey{Name: "柏林电影节", Year: 1999}
	fa := keys.AssignFestivals([]cinetl.FestivalKey{cannes, berlin, cannes01})
	if id, _ := fa.ID(cannes); id != 2 {
		t.Fatalf("unknown year should sort last within a name, got id %d", id)
	}
	fpath := filepath.Join(dir, FestivalFile)
	if err := WriteFestivals(fpath, fa, map[cinetl.FestivalKey]string{cannes01: "http://f/1"}); err != nil {
		t.Fatalf("writing festivals: %v", err)
	}
	aa := keys.AssignAwards([]cinetl.AwardKey{
		{Festival: cannes, Name: "最佳导演", Type: cinetl.AwardTypePerson},
		{Festival: cannes01, Name: "金棕榈奖", Type: cinetl.AwardTypeMovie},
	})
	apath := filepath.Join(dir, AwardFile)
	if err := WriteAwards(apath, aa, fa); err != nil {
		t.Fatalf("writing awards: %v", err)
	}

	fests, err := LoadFestivals(fpath)
	if err != nil {
		t.Fatalf("loading festivals: %v", err)
	}
	fid, ok := fests.ID(cannes)
	if !ok || fid != 2 {
		t.Fatalf("unknown-year festival: got %d %v", fid, ok)
	}
	awards, err := LoadAwards(apath)
	if err != nil {
		t.Fatalf("loading awards: %v", err)
	}
	aid, ok := awards.ID(NewAwardRef(fid, "最佳导演", "Person"))
	if !ok || aid != 2 {
		t.Fatalf("award: got %d %v, want 2", aid, ok)
	}
	if _, ok := awards.ID(NewAwardRef(fid, "最佳导演", "movie")); ok {
		t.Fatalf("award type must be part of the key")
	}

	found, err := table.Read(fpath, func(r table.Row) error {
		if r.Get("name") == cannes.Name && r.Get("festival_id") == "1" && r.Get("url") != "http://f/1" {
			t.Errorf("url not written: %q", r.Get("url"))
		}
		return nil
	})
	if err != nil || !found {
		t.Fatalf("reading festivals back: %v %v", found, err)
	}
}

func TestPositionsAppendOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), PositionFile)
	p, err := LoadPositions(path)
	if err != nil {
		t.Fatalf("loading empty positions: %v", err)
	}
	director := p.ID("导演")
	writer := p.ID("编剧")
	if director != 1 || writer != 2 || p.ID("导演") != 1 {
		t.Fatalf("unexpected ids %d %d", director, writer)
	}
	if err := p.Save(); err != nil {
		t.Fatalf("saving positions: %v", err)
	}

	p, err = LoadPositions(path)
	if err != nil {
		t.Fatalf("reloading positions: %v", err)
	}
	if p.ID("编剧") != 2 {
		t.Fatalf("existing id changed")
	}
	if id := p.ID("摄影"); id != 3 {
		t.Fatalf("new position: got %d, want 3", id)
	}
	if p.Added() != 1 || p.Len() != 3 {
		t.Fatalf("added %d len %d", p.Added(), p.Len())
	}
}

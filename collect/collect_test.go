package collect

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/jsonl"
)

func writeRaw(t *testing.T, root, worker, file string, lines ...string) {
	t.Helper()
	dir := filepath.Join(root, worker)
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("making worker dir: %v", err)
	}
	data := strings.Join(lines, "\n") + "\n"
	if err := os.WriteFile(filepath.Join(dir, file), []byte(data), 0644); err != nil {
		t.Fatalf("writing %s: %v", file, err)
	}
}

func openStore(t *testing.T, root string) *jsonl.Store {
	t.Helper()
	s, err := jsonl.Open(root)
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	return s
}

func TestCollectMoviesFirstWins(t *testing.T) {
	root := t.TempDir()
	writeRaw(t, root, "w2", cinetl.FileMoviesBasic,
		`{"movie_id": "10", "title": "Later", "genres": ["剧情", "爱情"], "runtime_minutes": 120}`,
	)
	writeRaw(t, root, "w1", cinetl.FileMoviesBasic,
		`{"movie_douban_id": "10", "title": "", "image_url": "http://img/10.jpg", "genres": ["剧情"]}`,
		`{"movie_douban_id": 10, "title": "First"}`,
		`not json`,
		`{"movie_douban_id": "11"}`,
		`{"title": "no key"}`,
	)
	writeRaw(t, root, "w1", cinetl.FileMoviesDetails,
		`{"movie_id": "10", "regions": ["美国", "美国"], "languages": "英语"}`,
		`{"movie_id": "99", "regions": ["法国"]}`,
	)
	writeRaw(t, root, "w1", cinetl.FileMoviesSummary,
		`{"movie_id": "10", "summary": "line one\n  line two"}`,
	)

	stats := cinetl.NewStats()
	ms, err := CollectMovies(openStore(t, root), stats, cinetl.NopLogger{})
	if err != nil {
		t.Fatalf("collecting movies: %v", err)
	}
	if ms.Len() != 1 {
		t.Fatalf("expected 1 movie, got %d: %v", ms.Len(), ms.Keys())
	}
	m, ok := ms.Get("10")
	if !ok {
		t.Fatalf("movie 10 missing")
	}
	if m.Title != "First" {
		t.Errorf("title: got %q, want First", m.Title)
	}
	if m.ImageURL != "http://img/10.jpg" {
		t.Errorf("image url: got %q", m.ImageURL)
	}
	if m.RuntimeMinutes != "120" {
		t.Errorf("runtime: got %q", m.RuntimeMinutes)
	}
	if got := strings.Join(m.Genres.Items(), ","); got != "剧情,爱情" {
		t.Errorf("genres: got %q", got)
	}
	if got := strings.Join(m.Regions.Items(), ","); got != "美国" {
		t.Errorf("regions: got %q", got)
	}
	if got := strings.Join(m.Languages.Items(), ","); got != "英语" {
		t.Errorf("languages: got %q", got)
	}
	if m.Summary != "line one line two" {
		t.Errorf("summary: got %q", m.Summary)
	}
	if n := stats.Get(cinetl.FileMoviesBasic, cinetl.StatMalformed); n != 1 {
		t.Errorf("malformed count: got %d", n)
	}
	if n := stats.Get(cinetl.FileMoviesBasic, cinetl.StatNoKey); n != 1 {
		t.Errorf("no key count: got %d", n)
	}
	if n := stats.Get(MoviesTable, cinetl.StatEmpty); n != 1 {
		t.Errorf("empty count: got %d", n)
	}
	if n := stats.Get(cinetl.FileMoviesDetails, cinetl.StatMissingMovie); n != 1 {
		t.Errorf("missing movie count: got %d", n)
	}
}

func TestResolveName(t *testing.T) {
	tests := []struct {
		seed, credit, detail, want string
	}{
		{"种子", "演职员", "详情", "种子"},
		{"", "演职员", "详情", "演职员"},
		{"", "", "详情", "详情"},
		{" ", "“引号”", "", "引号"},
		{"", "", "", ""},
	}
	for _, tt := range tests {
		if got := ResolveName(tt.seed, tt.credit, tt.detail); got != tt.want {
			t.Errorf("ResolveName(%q, %q, %q) = %q, want %q", tt.seed, tt.credit, tt.detail, got, tt.want)
		}
	}
}

func TestCollectPersons(t *testing.T) {
	root := t.TempDir()
	writeRaw(t, root, "w1", cinetl.FileCast,
		`{"movie_id": "1", "person_id": "100", "name": "", "role": "演员 Actor"}`,
		`{"movie_id": "1", "person_id": "100", "name": "Credit A"}`,
		`{"movie_id": "2", "person_id": "100", "name": "Credit B"}`,
		`{"movie_id": "1", "person_id": "300"}`,
	)
	writeRaw(t, root, "w1", cinetl.FileCrew,
		`{"movie_id": "1", "person_id": "200", "name": "Crew Name", "department": "导演"}`,
	)
	writeRaw(t, root, "w1", cinetl.FilePersonDetails,
		`{"person_id": "100", "name_cn": "详情名", "sex": "男", "birth_place_raw": "英国.苏塞克斯 郡沃辛"}`,
		`{"person_id": "400", "name": "Detail Only", "birth_region": "法国"}`,
		`{"person_id": "500"}`,
	)
	writeRaw(t, root, "w2", cinetl.FilePersonDetails,
		`{"person_id": "100", "sex": "女", "imdb_id": "nm1"}`,
	)

	seeds := map[string]string{"200": "Seed Name"}
	stats := cinetl.NewStats()
	ps, err := CollectPersons(openStore(t, root), cinetl.FilePersonDetails, seeds, stats, cinetl.NopLogger{})
	if err != nil {
		t.Fatalf("collecting persons: %v", err)
	}
	want := map[string]string{
		"100": "Credit A",
		"200": "Seed Name",
		"400": "Detail Only",
	}
	if ps.Len() != len(want) {
		t.Fatalf("expected %d persons, got %v", len(want), ps.Keys())
	}
	for key, name := range want {
		p, ok := ps.Get(key)
		if !ok {
			t.Fatalf("person %s missing", key)
		}
		if p.Name != name {
			t.Errorf("person %s name: got %q, want %q", key, p.Name, name)
		}
	}
	p, _ := ps.Get("100")
	if p.Sex != "男" || p.IMDbID != "nm1" || p.BirthRegion != "英国" {
		t.Errorf("unexpected merge for 100: %+v", p)
	}
	p, _ = ps.Get("400")
	if p.BirthRegion != "法国" {
		t.Errorf("birth region fallback: got %q", p.BirthRegion)
	}
	if n := stats.Get(PersonsTable, cinetl.StatNoName); n != 2 {
		t.Errorf("no name count: got %d, want 2", n)
	}
}

func TestLoadSeedNamesMissing(t *testing.T) {
	names, err := LoadSeedNames(filepath.Join(t.TempDir(), "nope.jsonl"), cinetl.NewStats(), cinetl.NopLogger{})
	if err != nil {
		t.Fatalf("loading missing seed list: %v", err)
	}
	if len(names) != 0 {
		t.Fatalf("expected no names, got %v", names)
	}
}

func TestCollectDicts(t *testing.T) {
	root := t.TempDir()
	writeRaw(t, root, "w1", cinetl.FileMoviesBasic,
		`{"movie_id": "1", "genres": ["剧情", "喜剧"]}`,
		`{"movie_id": "2", "genres": ["剧情"]}`,
	)
	writeRaw(t, root, "w1", cinetl.FileMoviesDetails,
		`{"movie_id": "1", "regions": ["美国"], "languages": ["英语", "法语"]}`,
	)
	writeRaw(t, root, "w1", cinetl.FilePersonDetails,
		`{"person_id": "1", "birth_place_raw": "美国,新泽西州,纽瓦克"}`,
		`{"person_id": "2", "birth_place_raw": "日本·东京"}`,
	)
	writeRaw(t, root, "w1", cinetl.FileAwards,
		`{"movie_id": "1", "festival_name": "戛纳电影节", "festival_year": 2001, "award_name": "金棕榈奖", "award_type": "Movie"}`,
		`{"movie_id": "1", "festival_name": "戛纳电影节", "festival_year": "2001", "festival_url": "http://f/1", "award_name": "金棕榈奖", "award_type": "movie"}`,
		`{"movie_id": "1", "festival_name": "戛纳电影节", "award_name": "最佳导演", "award_type": "person"}`,
		`{"movie_id": "1", "festival_name": "", "award_name": "最佳导演"}`,
	)
	stats := cinetl.NewStats()
	d, err := CollectDicts(openStore(t, root), cinetl.FilePersonDetails, stats)
	if err != nil {
		t.Fatalf("collecting dicts: %v", err)
	}
	if got := strings.Join(d.Genres.Items(), ","); got != "剧情,喜剧" {
		t.Errorf("genres: got %q", got)
	}
	if got := strings.Join(d.Regions.Items(), ","); got != "美国,日本" {
		t.Errorf("regions: got %q", got)
	}
	if got := strings.Join(d.Languages.Items(), ","); got != "英语,法语" {
		t.Errorf("languages: got %q", got)
	}
	if len(d.Festivals) != 2 {
		t.Fatalf("festivals: got %v", d.Festivals)
	}
	cannes := cinetl.FestivalKey{Name: "戛纳电影节", Year: 2001}
	if d.FestivalURLs[cannes] != "http://f/1" {
		t.Errorf("festival url: got %q", d.FestivalURLs[cannes])
	}
	if len(d.Awards) != 2 {
		t.Fatalf("awards: got %v", d.Awards)
	}
	if d.Awards[0].Type != cinetl.AwardTypeMovie {
		t.Errorf("award type: got %q", d.Awards[0].Type)
	}
	if n := stats.Get(cinetl.FileAwards, cinetl.StatNoKey); n != 1 {
		t.Errorf("no key count: got %d", n)
	}
}

func TestFixRegions(t *testing.T) {
	root := t.TempDir()
	writeRaw(t, root, "w1", cinetl.FilePersonDetails,
		`{"person_id": "1", "birth_place_raw": "英国.苏塞克斯 郡沃辛", "birth_region": "英国.苏塞克斯"}`,
		`{"person_id": "2", "birth_place_raw": "美国,新泽西州,纽瓦克", "birth_region": "美国"}`,
		`{"person_id": "3", "birth_region": "法国"}`,
		`[1, 2]`,
	)
	stats := cinetl.NewStats()
	n, err := FixRegions(openStore(t, root), stats, cinetl.NopLogger{})
	if err != nil {
		t.Fatalf("fixing regions: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 file, got %d", n)
	}
	var got []cinetl.PersonDetail
	fixed := filepath.Join(root, "w1", cinetl.FilePersonDetailsFixed)
	if _, err := jsonl.ScanFile(fixed, nil, nil, func(p *cinetl.PersonDetail) error {
		got = append(got, *p)
		return nil
	}); err != nil {
		t.Fatalf("reading fixed file: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(got))
	}
	for i, want := range []string{"英国", "美国", ""} {
		if r := got[i].BirthRegion.String(); r != want {
			t.Errorf("line %d region: got %q, want %q", i, r, want)
		}
	}
	if u := stats.Get(FixedTable, cinetl.StatUpdated); u != 2 {
		t.Errorf("updated: got %d, want 2", u)
	}
}

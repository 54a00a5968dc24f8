package collect

import (
	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/jsonl"
)

// DictSets holds the distinct dictionary entries observed in the raw data,
// before ids are assigned.
type DictSets struct {
	Genres    *cinetl.StringSet
	Languages *cinetl.StringSet
	Regions   *cinetl.StringSet
	Festivals []cinetl.FestivalKey
	// FestivalURLs holds the first non-empty url seen per festival.
	FestivalURLs map[cinetl.FestivalKey]string
	Awards       []cinetl.AwardKey

	awardSeen map[cinetl.AwardKey]struct{}
}

// NewDictSets returns empty sets.
func NewDictSets() *DictSets {
	return &DictSets{
		Genres:       cinetl.NewStringSet(),
		Languages:    cinetl.NewStringSet(),
		Regions:      cinetl.NewStringSet(),
		FestivalURLs: make(map[cinetl.FestivalKey]string),
		awardSeen:    make(map[cinetl.AwardKey]struct{}),
	}
}

// AddAward records the festival and award of one award observation. It
// reports false when the observation names no festival or no award.
func (d *DictSets) AddAward(a *cinetl.AwardObservation) bool {
	fk := a.Festival()
	name := cinetl.NormalizeName(a.AwardName.String())
	if fk.Name == "" || name == "" {
		return false
	}
	url, seen := d.FestivalURLs[fk]
	if !seen {
		d.Festivals = append(d.Festivals, fk)
	}
	cinetl.Fill(&url, a.FestivalURL.String())
	d.FestivalURLs[fk] = url

	ak := cinetl.AwardKey{Festival: fk, Name: name, Type: cinetl.NormalizeAwardType(a.AwardType.String())}
	if _, ok := d.awardSeen[ak]; !ok {
		d.awardSeen[ak] = struct{}{}
		d.Awards = append(d.Awards, ak)
	}
	return true
}

func addAll(set *cinetl.StringSet, vals []string) {
	for _, v := range vals {
		set.Add(cinetl.NormalizeName(v))
	}
}

// CollectDicts scans the movie, person detail and award streams for
// dictionary entries. Regions are the union of movie production regions and
// person birth regions.
func CollectDicts(s *jsonl.Store, detailsFile string, stats *cinetl.Stats) (*DictSets, error) {
	d := NewDictSets()
	if err := jsonl.Scan(s, cinetl.FileMoviesBasic, stats, func(m *cinetl.MovieBasic) error {
		addAll(d.Genres, m.Genres)
		return nil
	}); err != nil {
		return nil, err
	}
	if err := jsonl.Scan(s, cinetl.FileMoviesDetails, stats, func(m *cinetl.MovieDetails) error {
		addAll(d.Regions, m.Regions)
		addAll(d.Languages, m.Languages)
		return nil
	}); err != nil {
		return nil, err
	}
	if err := jsonl.Scan(s, detailsFile, stats, func(p *cinetl.PersonDetail) error {
		d.Regions.Add(p.Region())
		return nil
	}); err != nil {
		return nil, err
	}
	if err := jsonl.Scan(s, cinetl.FileAwards, stats, func(a *cinetl.AwardObservation) error {
		if !d.AddAward(a) {
			stats.Inc(cinetl.FileAwards, cinetl.StatNoKey)
		}
		return nil
	}); err != nil {
		return nil, err
	}
	return d, nil
}

package collect

import (
	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/jsonl"
)

// Person is the merged view of one person.
type Person struct {
	Key           string
	Name          string
	AvatarURL     string
	Sex           string
	BirthDate     string
	DeathDate     string
	BirthPlaceRaw string
	BirthRegion   string
	IMDbID        string

	detailName string
}

// MergeDetail folds a detail-API observation into p, first value wins per
// field.
func (p *Person) MergeDetail(d *cinetl.PersonDetail) {
	cinetl.Fill(&p.detailName, d.DisplayName())
	cinetl.Fill(&p.AvatarURL, d.AvatarURL.String())
	cinetl.Fill(&p.Sex, d.Sex.String())
	cinetl.Fill(&p.BirthDate, d.BirthDate.String())
	cinetl.Fill(&p.DeathDate, d.DeathDate.String())
	cinetl.Fill(&p.BirthPlaceRaw, d.BirthPlaceRaw.String())
	cinetl.Fill(&p.BirthRegion, d.Region())
	cinetl.Fill(&p.IMDbID, d.IMDbID.String())
}

// ResolveName picks the display name: the seed list's name, then the first
// name seen on a credit, then the detail-API name.
func ResolveName(seedName, creditName, detailName string) string {
	return cinetl.FirstNonEmpty(
		cinetl.NormalizeName(seedName),
		cinetl.NormalizeName(creditName),
		cinetl.NormalizeName(detailName),
	)
}

// Persons is a set of merged persons in first-seen order.
type Persons struct {
	byKey map[string]*Person
	order []string
}

// Get returns the person for key.
func (ps *Persons) Get(key string) (*Person, bool) {
	p, ok := ps.byKey[key]
	return p, ok
}

// Keys returns the natural keys in first-seen order.
func (ps *Persons) Keys() []string {
	return append([]string(nil), ps.order...)
}

// Len returns the number of persons.
func (ps *Persons) Len() int { return len(ps.order) }

// PersonsTable is the counter name used for the merged person set.
const PersonsTable = "persons"

// CreditNames returns, for every person seen on a cast or crew credit, the
// first non-empty name in scan order (cast files before crew files). Persons
// whose credits carry no name map to "". The second result lists the keys in
// first-seen order.
func CreditNames(s *jsonl.Store, stats *cinetl.Stats) (map[string]string, []string, error) {
	names := make(map[string]string)
	var order []string
	for _, file := range []string{cinetl.FileCast, cinetl.FileCrew} {
		f := file
		err := jsonl.Scan(s, f, stats, func(c *cinetl.Credit) error {
			key := c.PersonKey()
			if key == "" {
				stats.Inc(f, cinetl.StatNoKey)
				return nil
			}
			cur, ok := names[key]
			if !ok {
				order = append(order, key)
			}
			cinetl.Fill(&cur, cinetl.NormalizeName(c.Name.String()))
			names[key] = cur
			return nil
		})
		if err != nil {
			return nil, nil, err
		}
	}
	return names, order, nil
}

// LoadSeedNames reads person names from the seed list at path. A missing
// seed list means no seed names.
func LoadSeedNames(path string, stats *cinetl.Stats, log cinetl.Logger) (map[string]string, error) {
	names := make(map[string]string)
	found, err := jsonl.ScanFile(path, stats, log, func(r *cinetl.SeedRef) error {
		key := r.PersonKey()
		name := cinetl.NormalizeName(r.Name.String())
		if key == "" || name == "" {
			return nil
		}
		if _, ok := names[key]; !ok {
			names[key] = name
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !found {
		log.Printf("seed list %s not found, no seed names", path)
	}
	return names, nil
}

// CollectPersons merges every person that appears in a detail record or on
// a credit. Names follow ResolveName; persons that end up without any name
// are dropped and counted.
func CollectPersons(s *jsonl.Store, detailsFile string, seedNames map[string]string, stats *cinetl.Stats, log cinetl.Logger) (*Persons, error) {
	ps := &Persons{byKey: make(map[string]*Person)}
	add := func(key string) *Person {
		p, ok := ps.byKey[key]
		if !ok {
			p = &Person{Key: key}
			ps.byKey[key] = p
			ps.order = append(ps.order, key)
		}
		return p
	}
	err := jsonl.Scan(s, detailsFile, stats, func(d *cinetl.PersonDetail) error {
		key := d.PersonKey()
		if key == "" {
			stats.Inc(detailsFile, cinetl.StatNoKey)
			return nil
		}
		add(key).MergeDetail(d)
		return nil
	})
	if err != nil {
		return nil, err
	}
	creditNames, creditOrder, err := CreditNames(s, stats)
	if err != nil {
		return nil, err
	}
	for _, key := range creditOrder {
		add(key)
	}

	kept := ps.order[:0]
	for _, key := range ps.order {
		p := ps.byKey[key]
		p.Name = ResolveName(seedNames[key], creditNames[key], p.detailName)
		if p.Name == "" {
			log.Debugf("dropping person %s: no name from any source", key)
			stats.Inc(PersonsTable, cinetl.StatNoName)
			delete(ps.byKey, key)
			continue
		}
		kept = append(kept, key)
	}
	ps.order = kept
	return ps, nil
}

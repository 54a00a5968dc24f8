package cinetl

import "strconv"

// FestivalKey is the natural key of a festival edition. Year 0 means the
// year is unknown.
type FestivalKey struct {
	Name string
	Year int
}

// NewFestivalKey builds a key from raw parts, mapping a missing or
// non-positive year to unknown.
func NewFestivalKey(name string, year OptInt) FestivalKey {
	k := FestivalKey{Name: NormalizeName(name)}
	if year.Valid && year.V > 0 {
		k.Year = int(year.V)
	}
	return k
}

// YearString renders the year for a table cell; unknown is blank.
func (k FestivalKey) YearString() string {
	if k.Year == 0 {
		return ""
	}
	return strconv.Itoa(k.Year)
}

// Less orders festivals by name, then year, with unknown years last.
func (k FestivalKey) Less(o FestivalKey) bool {
	if k.Name != o.Name {
		return k.Name < o.Name
	}
	if (k.Year == 0) != (o.Year == 0) {
		return o.Year == 0
	}
	return k.Year < o.Year
}

// AwardKey is the natural key of an award before its festival has a
// surrogate id.
type AwardKey struct {
	Festival FestivalKey
	Name     string
	Type     string
}

// Less orders awards by festival, then award name, then type.
func (k AwardKey) Less(o AwardKey) bool {
	if k.Festival != o.Festival {
		return k.Festival.Less(o.Festival)
	}
	if k.Name != o.Name {
		return k.Name < o.Name
	}
	return k.Type < o.Type
}

// AwardRef is the resolver's view of an award: festival already resolved to
// its surrogate id.
type AwardRef struct {
	FestivalID uint64
	Name       string
	Type       string
}

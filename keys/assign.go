// Package keys assigns surrogate ids to natural keys and loads persisted
// assignments back for later stages.
package keys

import (
	"sort"
	"strconv"

	"github.com/cinegraph/cinetl"
)

// Assignment is the result of numbering a set of natural keys.
type Assignment[K comparable] struct {
	Order []K
	IDs   map[K]uint64
}

// Assign sorts keys with less and numbers them from 1 in that order.
// Duplicate keys are numbered once. Given the same set of keys the result is
// identical regardless of input order, provided less is a strict total
// order.
func Assign[K comparable](keys []K, less func(a, b K) bool) *Assignment[K] {
	seen := make(map[K]struct{}, len(keys))
	order := make([]K, 0, len(keys))
	for _, k := range keys {
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		order = append(order, k)
	}
	sort.SliceStable(order, func(i, j int) bool { return less(order[i], order[j]) })
	a := &Assignment[K]{
		Order: order,
		IDs:   make(map[K]uint64, len(order)),
	}
	n := cinetl.NewNexter()
	for _, k := range order {
		a.IDs[k] = n.Next()
	}
	return a
}

// Len returns how many keys were numbered.
func (a *Assignment[K]) Len() int { return len(a.Order) }

// ID returns the surrogate id of k.
func (a *Assignment[K]) ID(k K) (uint64, bool) {
	id, ok := a.IDs[k]
	return id, ok
}

// NumericKey is a site id parsed for ordering.
type NumericKey struct {
	Raw string
	N   int64
}

// ParseNumeric keeps the keys that parse as integers and returns the rest
// separately so the caller can warn about them.
func ParseNumeric(keys []string) (ok []NumericKey, bad []string) {
	for _, k := range keys {
		n, err := strconv.ParseInt(k, 10, 64)
		if err != nil {
			bad = append(bad, k)
			continue
		}
		ok = append(ok, NumericKey{Raw: k, N: n})
	}
	return ok, bad
}

// NumericLess orders site ids numerically; "007" and "7" are told apart by
// their text so the order stays total.
func NumericLess(a, b NumericKey) bool {
	if a.N != b.N {
		return a.N < b.N
	}
	return a.Raw < b.Raw
}

// AssignNumeric numbers site ids in ascending numeric order. Keys that are
// not integers are dropped, counted under table, and logged.
func AssignNumeric(keys []string, table string, stats *cinetl.Stats, log cinetl.Logger) *Assignment[string] {
	parsed, bad := ParseNumeric(keys)
	for _, k := range bad {
		stats.Inc(table, cinetl.StatBadKey)
		log.Printf("%s: dropping non-numeric key %q", table, k)
	}
	na := Assign(parsed, NumericLess)
	a := &Assignment[string]{
		Order: make([]string, 0, na.Len()),
		IDs:   make(map[string]uint64, na.Len()),
	}
	for _, k := range na.Order {
		a.Order = append(a.Order, k.Raw)
		a.IDs[k.Raw] = na.IDs[k]
	}
	return a
}

// AssignNames numbers dictionary names in lexicographic order.
func AssignNames(names []string) *Assignment[string] {
	return Assign(names, func(a, b string) bool { return a < b })
}

// AssignFestivals numbers festivals by name, then year with unknown years
// last.
func AssignFestivals(keys []cinetl.FestivalKey) *Assignment[cinetl.FestivalKey] {
	return Assign(keys, cinetl.FestivalKey.Less)
}

// AssignAwards numbers awards by festival name, festival year (unknown
// last), award name and type.
func AssignAwards(keys []cinetl.AwardKey) *Assignment[cinetl.AwardKey] {
	return Assign(keys, cinetl.AwardKey.Less)
}

package cinetl

import "strings"

// FirstNonEmpty returns the first value that is not blank. Values are
// listed in precedence order; the winning value is returned untrimmed.
func FirstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// Fill sets *dst to v when *dst is still blank. It reports whether it wrote.
// Applying Fill field by field in scan order gives first-wins merging: a
// populated field is never replaced, by a blank or by a different value.
func Fill(dst *string, v string) bool {
	if strings.TrimSpace(*dst) != "" || strings.TrimSpace(v) == "" {
		return false
	}
	*dst = v
	return true
}

// StringSet is an insertion-ordered set of strings.
type StringSet struct {
	idx   map[string]struct{}
	items []string
}

// NewStringSet returns an empty set.
func NewStringSet() *StringSet {
	return &StringSet{idx: make(map[string]struct{})}
}

// Add inserts v unless it is blank or already present. Matching is exact.
func (s *StringSet) Add(v string) bool {
	if v == "" {
		return false
	}
	if s.idx == nil {
		s.idx = make(map[string]struct{})
	}
	if _, ok := s.idx[v]; ok {
		return false
	}
	s.idx[v] = struct{}{}
	s.items = append(s.items, v)
	return true
}

// Has reports whether v is in the set.
func (s *StringSet) Has(v string) bool {
	_, ok := s.idx[v]
	return ok
}

// Len returns the number of members.
func (s *StringSet) Len() int { return len(s.items) }

// Items returns the members in insertion order.
func (s *StringSet) Items() []string {
	return append([]string(nil), s.items...)
}

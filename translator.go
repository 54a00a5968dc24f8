package cinetl

import (
	"sync"

	"github.com/pkg/errors"
)

// Key kinds held in a KeyIndex.
const (
	KindMovie  = "movie"
	KindPerson = "person"
	KindUser   = "user"
)

// KeyIndex stores the natural key -> surrogate id assignment for several
// kinds of entity. Implementations must be safe for concurrent use. Ids are
// assigned by the caller; an index only records and looks them up.
type KeyIndex interface {
	Put(kind, key string, id uint64) error
	Lookup(kind, key string) (id uint64, ok bool, err error)
	Close() error
}

// BulkPutter is implemented by indexes that record many keys faster in one
// call than through repeated Puts. keys and ids are parallel.
type BulkPutter interface {
	BulkPut(kind string, keys []string, ids []uint64) error
}

// KindClearer is implemented by indexes that can forget every key of one
// kind, so that a kind can be renumbered.
type KindClearer interface {
	ClearKind(kind string) error
}

// Resolver resolves natural keys of a single kind.
type Resolver interface {
	Resolve(key string) (id uint64, ok bool, err error)
}

// KindResolver binds idx to one kind of key.
func KindResolver(idx KeyIndex, kind string) Resolver {
	return kindResolver{idx: idx, kind: kind}
}

type kindResolver struct {
	idx  KeyIndex
	kind string
}

func (k kindResolver) Resolve(key string) (uint64, bool, error) {
	id, ok, err := k.idx.Lookup(k.kind, key)
	if err != nil {
		return 0, false, errors.Wrapf(err, "looking up %s %q", k.kind, key)
	}
	return id, ok, nil
}

// MapIndex is an in-memory KeyIndex.
type MapIndex struct {
	lock  sync.RWMutex
	kinds map[string]map[string]uint64
}

var _ KeyIndex = &MapIndex{}

// NewMapIndex creates an empty MapIndex.
func NewMapIndex() *MapIndex {
	return &MapIndex{
		kinds: make(map[string]map[string]uint64),
	}
}

// Put records key -> id for kind. Re-putting a key with a different id is an
// error, since published rows may already reference the first one.
func (m *MapIndex) Put(kind, key string, id uint64) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	km, ok := m.kinds[kind]
	if !ok {
		km = make(map[string]uint64)
		m.kinds[kind] = km
	}
	if prev, ok := km[key]; ok && prev != id {
		return errors.Errorf("%s %q already mapped to %d, not %d", kind, key, prev, id)
	}
	km[key] = id
	return nil
}

// Lookup returns the id for key in kind.
func (m *MapIndex) Lookup(kind, key string) (uint64, bool, error) {
	m.lock.RLock()
	defer m.lock.RUnlock()
	id, ok := m.kinds[kind][key]
	return id, ok, nil
}

// Len returns the number of keys recorded for kind.
func (m *MapIndex) Len(kind string) int {
	m.lock.RLock()
	defer m.lock.RUnlock()
	return len(m.kinds[kind])
}

// ClearKind forgets every key of kind.
func (m *MapIndex) ClearKind(kind string) error {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.kinds, kind)
	return nil
}

// Close does nothing.
func (m *MapIndex) Close() error { return nil }

// MapResolver is a Resolver over a plain map, handy for dictionaries that
// are loaded whole.
type MapResolver map[string]uint64

// Resolve implements Resolver.
func (m MapResolver) Resolve(key string) (uint64, bool, error) {
	id, ok := m[key]
	return id, ok, nil
}

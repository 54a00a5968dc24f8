package etl

import (
	"os"
	"path/filepath"

	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/boltdb"
	"github.com/cinegraph/cinetl/facts"
	"github.com/cinegraph/cinetl/keys"
	"github.com/cinegraph/cinetl/leveldb"
	"github.com/pkg/errors"
)

// Key index backends.
const (
	IndexCSV     = "csv"
	IndexBolt    = "bolt"
	IndexLevelDB = "leveldb"
)

// entitySource ties a persisted assignment to the table holding it.
type entitySource struct {
	keys.Source
	file string
}

var (
	movieSource  = entitySource{keys.MovieSource, facts.MoviesFile}
	personSource = entitySource{keys.PersonSource, facts.PersonsFile}
)

func (m *Main) checkKeyIndex() error {
	switch m.KeyIndex {
	case IndexCSV, IndexBolt, IndexLevelDB:
		return nil
	}
	return errors.Errorf("unknown key index %q, want %s, %s or %s", m.KeyIndex, IndexCSV, IndexBolt, IndexLevelDB)
}

func (m *Main) keyIndexPath() string {
	if m.KeyIndexPath != "" {
		return m.KeyIndexPath
	}
	if m.KeyIndex == IndexLevelDB {
		return filepath.Join(m.OutDir, "keys.ldb")
	}
	return filepath.Join(m.OutDir, "keys.db")
}

// openKeyIndex opens the persisted key index named by m.KeyIndex.
func (m *Main) openKeyIndex() (cinetl.KeyIndex, error) {
	path := m.keyIndexPath()
	kinds := []string{cinetl.KindMovie, cinetl.KindPerson, cinetl.KindUser}
	switch m.KeyIndex {
	case IndexBolt:
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, errors.Wrap(err, "making key index directory")
		}
		idx, err := boltdb.NewIndex(path, kinds...)
		if err != nil {
			return nil, errors.Wrap(err, "opening bolt key index")
		}
		return idx, nil
	case IndexLevelDB:
		idx, err := leveldb.NewIndex(path, kinds...)
		if err != nil {
			return nil, errors.Wrap(err, "opening leveldb key index")
		}
		return idx, nil
	}
	return nil, m.checkKeyIndex()
}

// resolveIndex returns a key index holding the assignments of srcs. With
// the csv backend they are read from the entity tables, which must exist;
// otherwise the persisted index written by the entities stage is opened.
func (m *Main) resolveIndex(srcs ...entitySource) (cinetl.KeyIndex, error) {
	if m.KeyIndex != IndexCSV {
		if _, err := os.Stat(m.keyIndexPath()); err != nil {
			return nil, errors.Wrapf(err, "key index %s missing, run the entities stage", m.keyIndexPath())
		}
		return m.openKeyIndex()
	}
	idx := cinetl.NewMapIndex()
	for _, src := range srcs {
		path := m.outPath(src.file)
		n, found, err := keys.Load(idx, path, src.Source)
		if err != nil {
			return nil, errors.Wrapf(err, "loading %s keys", src.Kind)
		}
		if !found {
			return nil, errors.Errorf("%s not found, run the entities stage first", path)
		}
		m.log.Debugf("loaded %d %s keys from %s", n, src.Kind, path)
	}
	return idx, nil
}

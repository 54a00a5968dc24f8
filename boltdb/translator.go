// Package boltdb provides a cinetl.KeyIndex backed by a single boltdb file.
// Each key kind lives in its own bucket, mapping the natural key to the
// 8 byte big endian surrogate id.
package boltdb

import (
	"encoding/binary"
	"sync"
	"time"

	"github.com/boltdb/bolt"
	"github.com/cinegraph/cinetl"
	"github.com/pkg/errors"
)

var _ cinetl.KeyIndex = &Index{}
var _ cinetl.BulkPutter = &Index{}
var _ cinetl.KindClearer = &Index{}

var keyBucket = []byte("keys")

// batchSize bounds the number of puts in a single bolt transaction.
const batchSize = 10000

// Index is a cinetl.KeyIndex which stores the key -> id mapping in boltdb.
type Index struct {
	Db    *bolt.DB
	kmu   sync.RWMutex
	kinds map[string]struct{}
}

// Close syncs and closes the underlying boltdb.
func (bi *Index) Close() error {
	err := bi.Db.Sync()
	if err != nil {
		return errors.Wrap(err, "syncing db")
	}
	return bi.Db.Close()
}

// NewIndex opens (or creates) the index stored in filename and makes sure
// the buckets for kinds exist.
func NewIndex(filename string, kinds ...string) (bi *Index, err error) {
	bi = &Index{
		kinds: make(map[string]struct{}),
	}
	bi.Db, err = bolt.Open(filename, 0600, &bolt.Options{Timeout: 1 * time.Second, InitialMmapSize: 50000000, NoGrowSync: true})
	if err != nil {
		return nil, errors.Wrapf(err, "opening db file '%v'", filename)
	}
	bi.Db.MaxBatchDelay = 400 * time.Microsecond
	err = bi.Db.Update(func(tx *bolt.Tx) error {
		kb, err := tx.CreateBucketIfNotExists(keyBucket)
		if err != nil {
			return errors.Wrap(err, "creating key bucket")
		}
		for _, kind := range kinds {
			if _, err = bi.addKind(kb, kind); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		bi.Db.Close()
		return nil, errors.Wrap(err, "ensuring bucket existence")
	}
	return bi, nil
}

func (bi *Index) addKind(kb *bolt.Bucket, kind string) (*bolt.Bucket, error) {
	b, err := kb.CreateBucketIfNotExists([]byte(kind))
	if err != nil {
		return nil, errors.Wrap(err, "adding "+kind+" to key bucket")
	}
	bi.kmu.Lock()
	bi.kinds[kind] = struct{}{}
	bi.kmu.Unlock()
	return b, nil
}

func (bi *Index) hasKind(kind string) bool {
	bi.kmu.RLock()
	defer bi.kmu.RUnlock()
	_, ok := bi.kinds[kind]
	return ok
}

// bucket returns the bucket for kind, creating it in writable transactions.
func (bi *Index) bucket(tx *bolt.Tx, kind string) (*bolt.Bucket, error) {
	kb := tx.Bucket(keyBucket)
	if b := kb.Bucket([]byte(kind)); b != nil {
		return b, nil
	}
	if !tx.Writable() {
		return nil, nil
	}
	return bi.addKind(kb, kind)
}

// Lookup returns the id recorded for key in kind.
func (bi *Index) Lookup(kind, key string) (id uint64, ok bool, err error) {
	err = bi.Db.View(func(tx *bolt.Tx) error {
		b, err := bi.bucket(tx, kind)
		if err != nil || b == nil {
			return err
		}
		if data := b.Get([]byte(key)); data != nil {
			id, ok = binary.BigEndian.Uint64(data), true
		}
		return nil
	})
	return id, ok, err
}

// Put records key -> id. Putting a key that is already mapped to another id
// fails and leaves the stored id alone.
func (bi *Index) Put(kind, key string, id uint64) error {
	return bi.Db.Batch(func(tx *bolt.Tx) error {
		b, err := bi.bucket(tx, kind)
		if err != nil {
			return err
		}
		return put(b, kind, key, id)
	})
}

// BulkPut records many keys of one kind, batchSize keys per transaction.
func (bi *Index) BulkPut(kind string, keys []string, ids []uint64) error {
	if len(keys) != len(ids) {
		return errors.Errorf("bulk put of %d keys with %d ids", len(keys), len(ids))
	}
	for start := 0; start < len(keys); start += batchSize {
		end := start + batchSize
		if end > len(keys) {
			end = len(keys)
		}
		err := bi.Db.Update(func(tx *bolt.Tx) error {
			b, err := bi.bucket(tx, kind)
			if err != nil {
				return err
			}
			for i := start; i < end; i++ {
				if err := put(b, kind, keys[i], ids[i]); err != nil {
					return err
				}
			}
			return nil
		})
		if err != nil {
			return errors.Wrap(err, "inserting batch")
		}
	}
	return nil
}

// ClearKind drops the bucket of kind and starts it over empty.
func (bi *Index) ClearKind(kind string) error {
	return bi.Db.Update(func(tx *bolt.Tx) error {
		kb := tx.Bucket(keyBucket)
		if kb.Bucket([]byte(kind)) != nil {
			if err := kb.DeleteBucket([]byte(kind)); err != nil {
				return errors.Wrap(err, "deleting "+kind+" bucket")
			}
		}
		_, err := bi.addKind(kb, kind)
		return err
	})
}

func put(b *bolt.Bucket, kind, key string, id uint64) error {
	if data := b.Get([]byte(key)); data != nil {
		if prev := binary.BigEndian.Uint64(data); prev != id {
			return errors.Errorf("%s %q already mapped to %d, not %d", kind, key, prev, id)
		}
		return nil
	}
	idBytes := make([]byte, 8)
	binary.BigEndian.PutUint64(idBytes, id)
	return errors.Wrap(b.Put([]byte(key), idBytes), "putting into key bucket")
}

// Len returns the number of keys recorded for kind.
func (bi *Index) Len(kind string) (n int, err error) {
	err = bi.Db.View(func(tx *bolt.Tx) error {
		b, err := bi.bucket(tx, kind)
		if err != nil || b == nil {
			return err
		}
		n = b.Stats().KeyN
		return nil
	})
	return n, err
}

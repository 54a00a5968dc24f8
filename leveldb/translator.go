// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

// Package leveldb provides a cinetl.KeyIndex backed by leveldb, with one
// database per key kind under a common directory.
package leveldb

import (
	"encoding/binary"
	"hash/fnv"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/cinegraph/cinetl"
	"github.com/pkg/errors"
	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"
)

var _ cinetl.KeyIndex = &Index{}
var _ cinetl.BulkPutter = &Index{}
var _ cinetl.KindClearer = &Index{}

// Index is a cinetl.KeyIndex which stores the key -> id mapping in leveldb.
type Index struct {
	lock    sync.RWMutex
	dirname string
	kinds   map[string]*KindIndex
}

// KindIndex holds the keys of a single kind.
type KindIndex struct {
	kind  string
	lock  valueLocker
	idMap *leveldb.DB
}

type errorList []error

func (errs errorList) Error() string {
	errstrings := make([]string, len(errs))
	for i, err := range errs {
		errstrings[i] = err.Error()
	}
	return strings.Join(errstrings, "; ")
}

// Close closes all of the underlying leveldb instances.
func (li *Index) Close() error {
	li.lock.Lock()
	defer li.lock.Unlock()
	errs := make(errorList, 0)
	for k, ki := range li.kinds {
		err := ki.Close()
		if err != nil {
			errs = append(errs, errors.Wrapf(err, "kind : %v", k))
		}
	}
	li.kinds = make(map[string]*KindIndex)
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// Close closes the leveldb used by the KindIndex.
func (ki *KindIndex) Close() error {
	return errors.Wrap(ki.idMap.Close(), "closing idMap")
}

// getKindIndex retrieves or opens the KindIndex for the given kind.
func (li *Index) getKindIndex(kind string) (*KindIndex, error) {
	li.lock.RLock()
	if ki, ok := li.kinds[kind]; ok {
		li.lock.RUnlock()
		return ki, nil
	}
	li.lock.RUnlock()
	li.lock.Lock()
	defer li.lock.Unlock()
	if ki, ok := li.kinds[kind]; ok {
		return ki, nil
	}
	ki, err := NewKindIndex(li.dirname, kind)
	if err != nil {
		return nil, errors.Wrap(err, "creating new KindIndex")
	}
	li.kinds[kind] = ki
	return ki, nil
}

// NewKindIndex opens the leveldb holding kind under dirname.
func NewKindIndex(dirname string, kind string) (*KindIndex, error) {
	err := os.MkdirAll(dirname, 0700)
	if err != nil {
		return nil, errors.Wrap(err, "making directory")
	}
	ki := &KindIndex{
		kind: kind,
		lock: newBucketVLock(),
	}
	path := kindPath(dirname, kind)
	ki.idMap, err = leveldb.OpenFile(path, &opt.Options{})
	if err != nil {
		return nil, errors.Wrapf(err, "opening leveldb at %v", path)
	}
	return ki, nil
}

// NewIndex gets a new Index rooted at dirname, opening kinds eagerly.
// Other kinds are opened the first time they are used.
func NewIndex(dirname string, kinds ...string) (li *Index, err error) {
	li = &Index{
		dirname: dirname,
		kinds:   make(map[string]*KindIndex),
	}
	for _, kind := range kinds {
		ki, err := NewKindIndex(dirname, kind)
		if err != nil {
			li.Close()
			return nil, errors.Wrap(err, "making KindIndex")
		}
		li.kinds[kind] = ki
	}
	return li, nil
}

// Lookup returns the id recorded for key in kind.
func (li *Index) Lookup(kind, key string) (uint64, bool, error) {
	ki, err := li.getKindIndex(kind)
	if err != nil {
		return 0, false, errors.Wrap(err, "getting kind index")
	}
	return ki.Lookup(key)
}

// Lookup returns the id recorded for key.
func (ki *KindIndex) Lookup(key string) (uint64, bool, error) {
	data, err := ki.idMap.Get([]byte(key), nil)
	if err == leveldb.ErrNotFound {
		return 0, false, nil
	} else if err != nil {
		return 0, false, errors.Wrap(err, "reading idMap")
	}
	return binary.BigEndian.Uint64(data), true, nil
}

// Put records key -> id in kind.
func (li *Index) Put(kind, key string, id uint64) error {
	ki, err := li.getKindIndex(kind)
	if err != nil {
		return errors.Wrap(err, "getting kind index")
	}
	return ki.Put(key, id)
}

// Put records key -> id. A key already mapped to another id is an error.
func (ki *KindIndex) Put(key string, id uint64) error {
	keyBytes := []byte(key)
	ki.lock.Lock(keyBytes)
	defer ki.lock.Unlock(keyBytes)
	if err := ki.check(key, id); err != nil {
		return err
	}
	err := ki.idMap.Put(keyBytes, idBytes(id), &opt.WriteOptions{})
	return errors.Wrap(err, "putting id into idMap")
}

// BulkPut records many keys of one kind in a single leveldb batch.
func (li *Index) BulkPut(kind string, keys []string, ids []uint64) error {
	if len(keys) != len(ids) {
		return errors.Errorf("bulk put of %d keys with %d ids", len(keys), len(ids))
	}
	ki, err := li.getKindIndex(kind)
	if err != nil {
		return errors.Wrap(err, "getting kind index")
	}
	batch := new(leveldb.Batch)
	for i, key := range keys {
		if err := ki.check(key, ids[i]); err != nil {
			return err
		}
		batch.Put([]byte(key), idBytes(ids[i]))
	}
	return errors.Wrap(ki.idMap.Write(batch, &opt.WriteOptions{Sync: true}), "writing batch")
}

// ClearKind removes the database of kind and opens an empty one.
func (li *Index) ClearKind(kind string) error {
	li.lock.Lock()
	defer li.lock.Unlock()
	if ki, ok := li.kinds[kind]; ok {
		delete(li.kinds, kind)
		if err := ki.Close(); err != nil {
			return err
		}
	}
	if err := os.RemoveAll(kindPath(li.dirname, kind)); err != nil {
		return errors.Wrapf(err, "removing %s keys", kind)
	}
	ki, err := NewKindIndex(li.dirname, kind)
	if err != nil {
		return errors.Wrap(err, "creating new KindIndex")
	}
	li.kinds[kind] = ki
	return nil
}

func kindPath(dirname, kind string) string {
	return filepath.Join(dirname, kind+"-id")
}

func (ki *KindIndex) check(key string, id uint64) error {
	prev, ok, err := ki.Lookup(key)
	if err != nil {
		return err
	}
	if ok && prev != id {
		return errors.Errorf("%s %q already mapped to %d, not %d", ki.kind, key, prev, id)
	}
	return nil
}

func idBytes(id uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, id)
	return b
}

type valueLocker interface {
	Lock(val []byte)
	Unlock(val []byte)
}

type bucketVLock struct {
	ms []sync.Mutex
}

func newBucketVLock() bucketVLock {
	return bucketVLock{
		ms: make([]sync.Mutex, 1000),
	}
}

func (b bucketVLock) Lock(val []byte) {
	hsh := fnv.New32a()
	hsh.Write(val) // never returns error for hash
	b.ms[hsh.Sum32()%1000].Lock()
}

func (b bucketVLock) Unlock(val []byte) {
	hsh := fnv.New32a()
	hsh.Write(val) // never returns error for hash
	b.ms[hsh.Sum32()%1000].Unlock()
}

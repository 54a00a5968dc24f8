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

package leveldb

import (
	"strconv"
	"sync"
	"testing"

	"github.com/cinegraph/cinetl"
	"github.com/pkg/errors"
)

func TestIndex(t *testing.T) {
	levelDir := t.TempDir()
	li, err := NewIndex(levelDir, cinetl.KindMovie, cinetl.KindPerson)
	if err != nil {
		t.Fatalf("couldn't get level index: %v", err)
	}
	if err := li.Put(cinetl.KindMovie, "1292052", 3); err != nil {
		t.Fatalf("putting movie: %v", err)
	}
	if err := li.Put(cinetl.KindPerson, "1292052", 9); err != nil {
		t.Fatalf("putting person: %v", err)
	}
	if err := li.Put(cinetl.KindUser, "3f2a9c", 1); err != nil {
		t.Fatalf("putting user: %v", err)
	}
	if err := li.Put(cinetl.KindPerson, "1292052", 10); err == nil {
		t.Fatalf("expected an error remapping a person key")
	}

	err = li.Close()
	if err != nil {
		t.Fatalf("closing level index: %v", err)
	}

	li, err = NewIndex(levelDir)
	if err != nil {
		t.Fatalf("couldn't get level index after closing: %v", err)
	}
	defer li.Close()
	for _, tst := range []struct {
		kind string
		key  string
		id   uint64
		ok   bool
	}{
		{cinetl.KindMovie, "1292052", 3, true},
		{cinetl.KindPerson, "1292052", 9, true},
		{cinetl.KindUser, "3f2a9c", 1, true},
		{cinetl.KindUser, "1292052", 0, false},
	} {
		id, ok, err := li.Lookup(tst.kind, tst.key)
		if err != nil {
			t.Fatalf("after reopen, Lookup(%s, %s): %v", tst.kind, tst.key, err)
		}
		if id != tst.id || ok != tst.ok {
			t.Errorf("after reopen, %s %s: got (%d, %v), want (%d, %v)", tst.kind, tst.key, id, ok, tst.id, tst.ok)
		}
	}
}

func TestBulkPut(t *testing.T) {
	li, err := NewIndex(t.TempDir())
	if err != nil {
		t.Fatalf("couldn't get level index: %v", err)
	}
	defer li.Close()
	if err := li.BulkPut(cinetl.KindMovie, []string{"10", "20"}, []uint64{1, 2}); err != nil {
		t.Fatalf("bulk put: %v", err)
	}
	if err := li.BulkPut(cinetl.KindMovie, []string{"10", "30"}, []uint64{1, 3}); err != nil {
		t.Fatalf("bulk put agreeing with stored ids: %v", err)
	}
	if err := li.BulkPut(cinetl.KindMovie, []string{"40", "20"}, []uint64{4, 5}); err == nil {
		t.Fatalf("expected conflict on 20")
	}
	if _, ok, _ := li.Lookup(cinetl.KindMovie, "40"); ok {
		t.Fatalf("a failed batch must not be partially written")
	}
	if err := li.BulkPut(cinetl.KindMovie, []string{"50"}, nil); err == nil {
		t.Fatalf("expected an error for mismatched keys and ids")
	}
}

func TestConcIndex(t *testing.T) {
	li, err := NewIndex(t.TempDir(), cinetl.KindPerson)
	if err != nil {
		t.Fatalf("couldn't get level index: %v", err)
	}
	defer li.Close()

	wg := &sync.WaitGroup{}
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 1; j <= 1000; j++ {
				err := li.Put(cinetl.KindPerson, strconv.Itoa(j*7), uint64(j))
				if err != nil {
					errs <- errors.Wrap(err, "error putting id")
					return
				}
			}
		}()
	}

	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
	for j := 1; j <= 1000; j++ {
		id, ok, err := li.Lookup(cinetl.KindPerson, strconv.Itoa(j*7))
		if err != nil || !ok || id != uint64(j) {
			t.Fatalf("key %d: got (%d, %v, %v)", j*7, id, ok, err)
		}
	}
}

func BenchmarkIndexPut(b *testing.B) {
	li, err := NewIndex(b.TempDir())
	if err != nil {
		b.Fatalf("couldn't get level index: %v", err)
	}
	defer li.Close()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		li.Put(cinetl.KindMovie, strconv.Itoa(i), uint64(i+1))
	}
}

func TestClearKind(t *testing.T) {
	levelDir := t.TempDir()
	li, err := NewIndex(levelDir, cinetl.KindMovie, cinetl.KindUser)
	if err != nil {
		t.Fatalf("couldn't get level index: %v", err)
	}
	if err := li.BulkPut(cinetl.KindUser, []string{"aa", "bb"}, []uint64{1, 2}); err != nil {
		t.Fatalf("bulk put: %v", err)
	}
	if err := li.Put(cinetl.KindMovie, "25", 1); err != nil {
		t.Fatalf("putting movie: %v", err)
	}
	if err := li.ClearKind(cinetl.KindUser); err != nil {
		t.Fatalf("clearing users: %v", err)
	}
	if _, ok, _ := li.Lookup(cinetl.KindUser, "bb"); ok {
		t.Fatalf("user key survived clearing")
	}
	if err := li.BulkPut(cinetl.KindUser, []string{"00", "aa"}, []uint64{1, 2}); err != nil {
		t.Fatalf("renumbering users: %v", err)
	}
	li.Close()

	li, err = NewIndex(levelDir)
	if err != nil {
		t.Fatalf("reopening: %v", err)
	}
	defer li.Close()
	tests := []struct {
		kind string
		key  string
		id   uint64
		ok   bool
	}{
		{cinetl.KindMovie, "25", 1, true},
		{cinetl.KindUser, "00", 1, true},
		{cinetl.KindUser, "aa", 2, true},
		{cinetl.KindUser, "bb", 0, false},
	}
	for i, test := range tests {
		id, ok, err := li.Lookup(test.kind, test.key)
		if err != nil || id != test.id || ok != test.ok {
			t.Errorf("test %d: got (%d, %v, %v), want (%d, %v)", i, id, ok, err, test.id, test.ok)
		}
	}
}

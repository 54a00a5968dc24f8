package cinetl

import (
	"reflect"
	"strconv"
	"sync"
	"testing"
)

func MustBe(t *testing.T, thing1, thing2 interface{}, context ...string) {
	var ctx string
	if len(context) == 0 {
		ctx = ""
	} else {
		ctx = context[0] + ": "
	}
	if !reflect.DeepEqual(thing1, thing2) {
		t.Fatalf("%v'%#v' != '%#v'", ctx, thing1, thing2)
	}
}

func TestMapIndex(t *testing.T) {
	mi := NewMapIndex()
	MustBe(t, mi.Put(KindMovie, "1292052", 1), nil, "first")
	MustBe(t, mi.Put(KindMovie, "1292052", 1), nil, "repeat")
	MustBe(t, mi.Put(KindPerson, "1292052", 2), nil, "other kind")
	if err := mi.Put(KindMovie, "1292052", 5); err == nil {
		t.Fatalf("expected an error remapping a key")
	}

	id, ok, err := mi.Lookup(KindMovie, "1292052")
	MustBe(t, err, nil)
	MustBe(t, ok, true)
	MustBe(t, id, uint64(1), "movie")
	id, ok, _ = mi.Lookup(KindPerson, "1292052")
	MustBe(t, id, uint64(2), "person")
	_, ok, _ = mi.Lookup(KindUser, "1292052")
	MustBe(t, ok, false, "user")
	MustBe(t, mi.Len(KindMovie), 1)
	MustBe(t, mi.Len(KindUser), 0)
}

func TestKindResolver(t *testing.T) {
	mi := NewMapIndex()
	MustBe(t, mi.Put(KindUser, "2bd806c97f0e00af", 4), nil)
	r := KindResolver(mi, KindUser)
	id, ok, err := r.Resolve("2bd806c97f0e00af")
	MustBe(t, err, nil)
	MustBe(t, ok, true)
	MustBe(t, id, uint64(4))
	_, ok, _ = r.Resolve("")
	MustBe(t, ok, false)

	_, ok, _ = MapResolver{"剧情": 3}.Resolve("剧情")
	MustBe(t, ok, true, "map resolver")
}

func TestConcMapIndex(t *testing.T) {
	mi := NewMapIndex()
	wg := &sync.WaitGroup{}
	errs := make(chan error, 4)
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 1; j <= 1000; j++ {
				if err := mi.Put(KindMovie, strconv.Itoa(j), uint64(j)); err != nil {
					errs <- err
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
	MustBe(t, mi.Len(KindMovie), 1000)
}

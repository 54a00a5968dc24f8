package s3

import (
	"context"
	"io/ioutil"
	"os"
	"path/filepath"
	"reflect"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/aws/aws-sdk-go/service/s3/s3manager/s3manageriface"
	"github.com/cinegraph/cinetl"
	"github.com/pkg/errors"
)

type fakeUploader struct {
	s3manageriface.UploaderAPI

	mu      sync.Mutex
	objects map[string]string
	fail    string
}

func (f *fakeUploader) UploadWithContext(ctx aws.Context, in *s3manager.UploadInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error) {
	if *in.Key == f.fail {
		return nil, errors.New("access denied")
	}
	data, err := ioutil.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[*in.Bucket+"/"+*in.Key] = string(data)
	return &s3manager.UploadOutput{}, nil
}

func writeTables(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	files := map[string]string{
		"movies.csv":                 "id\n1\n",
		"basic_dicts/dict_genre.csv": "genre_id,name\n1,剧情\n",
		"keys.db":                    "bolt",
		"notes.txt":                  "x",
	}
	for name, data := range files {
		p := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
			t.Fatal(err)
		}
		if err := ioutil.WriteFile(p, []byte(data), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestObjects(t *testing.T) {
	dir := writeTables(t)
	tests := []struct {
		prefix string
		exp    []string
	}{
		{"", []string{"basic_dicts/dict_genre.csv", "movies.csv"}},
		{"etl/2024", []string{"etl/2024/basic_dicts/dict_genre.csv", "etl/2024/movies.csv"}},
	}
	for _, test := range tests {
		objs, err := Objects(dir, test.prefix)
		if err != nil {
			t.Fatal(err)
		}
		var keys []string
		for _, o := range objs {
			keys = append(keys, o.Key)
		}
		if !reflect.DeepEqual(keys, test.exp) {
			t.Errorf("prefix %q: got %v, want %v", test.prefix, keys, test.exp)
		}
	}
}

func TestPublish(t *testing.T) {
	dir := writeTables(t)
	up := &fakeUploader{objects: make(map[string]string)}
	p, err := NewPublisher("tables", OptPubPrefix("etl"), OptPubUploader(up), OptPubConcurrency(2))
	if err != nil {
		t.Fatal(err)
	}
	stats := cinetl.NewStats()
	if err := p.Publish(context.Background(), dir, stats); err != nil {
		t.Fatal(err)
	}
	exp := map[string]string{
		"tables/etl/movies.csv":                 "id\n1\n",
		"tables/etl/basic_dicts/dict_genre.csv": "genre_id,name\n1,剧情\n",
	}
	if !reflect.DeepEqual(up.objects, exp) {
		t.Errorf("uploaded %v, want %v", up.objects, exp)
	}
	if n := stats.Get("publish", "uploaded"); n != 2 {
		t.Errorf("uploaded counter %d, want 2", n)
	}

	up.fail = "etl/movies.csv"
	if err := p.Publish(context.Background(), dir, stats); err == nil {
		t.Errorf("failed upload not reported")
	}
	if err := p.Publish(context.Background(), t.TempDir(), stats); err == nil {
		t.Errorf("empty directory published")
	}
}

func TestNewPublisherNeedsBucket(t *testing.T) {
	if _, err := NewPublisher(""); err == nil {
		t.Errorf("publisher without a bucket")
	}
}

package load

import (
	"reflect"
	"sync"
	"testing"

	"github.com/cinegraph/cinetl/table"
	"gorm.io/gorm/schema"
)

func parse(t *testing.T, model interface{}) *schema.Schema {
	t.Helper()
	s, err := schema.Parse(model, &sync.Map{}, schema.NamingStrategy{})
	if err != nil {
		t.Fatalf("parsing %T: %v", model, err)
	}
	return s
}

func TestTablesMatchModels(t *testing.T) {
	files := make(map[string]bool)
	for _, tbl := range Tables() {
		s := parse(t, tbl.Model)
		if s.Table != tbl.Name {
			t.Errorf("%T: table %q, listed as %q", tbl.Model, s.Table, tbl.Name)
		}
		if files[tbl.File] {
			t.Errorf("%s listed twice", tbl.File)
		}
		files[tbl.File] = true
		for _, col := range tbl.Columns {
			if _, ok := s.FieldsByDBName[col]; !ok {
				t.Errorf("%s: no field for column %s", tbl.Name, col)
			}
		}
		for _, col := range tbl.Nullable {
			f := s.FieldsByDBName[col]
			if f == nil || f.FieldType.Kind() != reflect.Ptr {
				t.Errorf("%s: nullable column %s is not a pointer field", tbl.Name, col)
			}
		}
	}
}

func TestTablesReferencedFirst(t *testing.T) {
	seen := make(map[string]bool)
	for _, tbl := range Tables() {
		s := parse(t, tbl.Model)
		for _, rel := range s.Relationships.BelongsTo {
			if !seen[rel.FieldSchema.Table] {
				t.Errorf("%s references %s, which is loaded later", tbl.Name, rel.FieldSchema.Table)
			}
		}
		seen[tbl.Name] = true
	}
}

func TestTableValues(t *testing.T) {
	var awards Table
	for _, tbl := range Tables() {
		if tbl.Name == "award_records" {
			awards = tbl
		}
	}
	header := []string{"award_id", "movie_id", "person_id", "is_winner", "description"}
	tests := []struct {
		record []string
		exp    []interface{}
	}{
		{[]string{"1", "2", "3", "TRUE", "x"}, []interface{}{"1", "2", "3", "TRUE", "x"}},
		{[]string{"1", "2", "", "FALSE", ""}, []interface{}{"1", "2", nil, "FALSE", ""}},
		{[]string{"1", "2"}, []interface{}{"1", "2", nil, "", ""}},
	}
	for i, test := range tests {
		vals, err := awards.Values(table.NewRow(header, test.record))
		if err != nil {
			t.Fatalf("test %d: %v", i, err)
		}
		if !reflect.DeepEqual(vals, test.exp) {
			t.Errorf("test %d: got %#v, want %#v", i, vals, test.exp)
		}
	}

	if _, err := awards.Values(table.NewRow(header[:2], []string{"1", "2"})); err == nil {
		t.Errorf("missing columns accepted")
	}
}

func TestOpenNeedsURL(t *testing.T) {
	if _, err := Open("", nil); err == nil {
		t.Errorf("opened without a database url")
	}
}

package collect

import (
	"encoding/json"
	"path/filepath"

	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/jsonl"
	"github.com/pkg/errors"
)

// FixedTable is the counter name used by FixRegions.
const FixedTable = cinetl.FilePersonDetailsFixed

// FixRegions rewrites every worker's person details with birth_region
// recomputed from birth_place_raw, into a sibling person_details_fixed.jsonl.
// A person with no raw birth place gets a null region. The originals are
// left untouched. It returns the number of files written.
func FixRegions(s *jsonl.Store, stats *cinetl.Stats, log cinetl.Logger) (int, error) {
	files := 0
	for _, src := range s.Paths(cinetl.FilePersonDetails) {
		dst := filepath.Join(filepath.Dir(src), cinetl.FilePersonDetailsFixed)
		if err := fixRegionsFile(s, src, dst, stats); err != nil {
			return files, err
		}
		log.Printf("fixed birth regions %s -> %s", src, dst)
		files++
	}
	return files, nil
}

func fixRegionsFile(s *jsonl.Store, src, dst string, stats *cinetl.Stats) error {
	w, err := jsonl.Create(dst)
	if err != nil {
		return err
	}
	err = s.ScanRawFile(src, stats, func(obj map[string]json.RawMessage) error {
		var place, old cinetl.Text
		if raw, ok := obj["birth_place_raw"]; ok {
			_ = place.UnmarshalJSON(raw)
		}
		if raw, ok := obj["birth_region"]; ok {
			_ = old.UnmarshalJSON(raw)
		}
		region := ""
		if p := place.String(); p != "" {
			region = cinetl.BirthRegion(p)
		}
		if region == "" {
			obj["birth_region"] = json.RawMessage("null")
		} else {
			enc, err := json.Marshal(region)
			if err != nil {
				return errors.Wrap(err, "encoding region")
			}
			obj["birth_region"] = enc
		}
		if region != old.String() {
			stats.Inc(FixedTable, cinetl.StatUpdated)
		}
		stats.Inc(FixedTable, cinetl.StatWritten)
		return w.Encode(obj)
	})
	if err != nil {
		w.Abort()
		return err
	}
	return w.Commit()
}

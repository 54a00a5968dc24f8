package facts

import (
	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/dict"
	"github.com/cinegraph/cinetl/table"
)

// AwardResolver resolves staged award records to surrogate ids, in the
// order movie, festival, award, person. The first reference that cannot be
// resolved decides the counter the record is dropped under.
type AwardResolver struct {
	Movies    cinetl.Resolver
	Persons   cinetl.Resolver
	Festivals *dict.Festivals
	Awards    *dict.Awards
	// KeepUnknownPerson keeps records whose person cannot be resolved,
	// with an empty person id, instead of dropping them.
	KeepUnknownPerson bool
}

// AwardRow is a resolved award record. PersonID is 0 for records without a
// person.
type AwardRow struct {
	AwardID     uint64
	MovieID     uint64
	PersonID    uint64
	IsWinner    bool
	Description string
}

// Resolve resolves one record. When ok is false, cause names the counter
// the record is dropped under. A record kept despite an unknown person is
// returned with ok and the missing-person cause.
func (r *AwardResolver) Resolve(a StagedAward) (row AwardRow, cause string, ok bool, err error) {
	mid, found, err := lookup(r.Movies, a.MovieKey)
	if err != nil || !found {
		return row, cinetl.StatMissingMovie, false, err
	}
	fid, found := r.Festivals.ID(a.Festival)
	if !found {
		return row, cinetl.StatMissingFestival, false, nil
	}
	aid, found := r.Awards.ID(dict.NewAwardRef(fid, a.AwardName, a.AwardType))
	if !found {
		return row, cinetl.StatMissingAward, false, nil
	}
	var pid uint64
	if a.PersonKey != "" {
		pid, found, err = lookup(r.Persons, a.PersonKey)
		if err != nil {
			return row, "", false, err
		}
		if !found {
			if !r.KeepUnknownPerson {
				return row, cinetl.StatMissingPerson, false, nil
			}
			cause = cinetl.StatMissingPerson
		}
	}
	return AwardRow{
		AwardID:     aid,
		MovieID:     mid,
		PersonID:    pid,
		IsWinner:    a.IsWinner,
		Description: cinetl.FlattenText(a.ExtraDesc, cinetl.DescriptionLimit),
	}, cause, true, nil
}

// BuildAwardRecords resolves the staged award table at src into out.
func BuildAwardRecords(src, out string, r *AwardResolver, stats *cinetl.Stats) error {
	w, err := table.Create(out, "award_id", "movie_id", "person_id", "is_winner", "description")
	if err != nil {
		return err
	}
	err = ReadStagedAwards(src, func(a StagedAward) error {
		stats.Inc(AwardsFile, cinetl.StatRead)
		row, cause, ok, err := r.Resolve(a)
		if err != nil {
			return err
		}
		if cause != "" {
			stats.Inc(AwardsFile, cause)
		}
		if !ok {
			return nil
		}
		person := ""
		if row.PersonID != 0 {
			person = formatID(row.PersonID)
		}
		stats.Inc(AwardsFile, cinetl.StatWritten)
		return w.Write(formatID(row.AwardID), formatID(row.MovieID), person,
			cinetl.BoolString(row.IsWinner), row.Description)
	})
	if err != nil {
		w.Abort()
		return err
	}
	return w.Commit()
}

package facts

import (
	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/dict"
	"github.com/cinegraph/cinetl/jsonl"
	"github.com/cinegraph/cinetl/table"
)

// CreditResolver turns raw credits into credit rows.
type CreditResolver struct {
	Movies  cinetl.Resolver
	Persons cinetl.Resolver
}

// resolve returns the movie and person ids of c, counting the first missing
// reference under out.
func (r *CreditResolver) resolve(c *cinetl.Credit, out string, stats *cinetl.Stats) (mid, pid uint64, ok bool, err error) {
	mid, ok, err = lookup(r.Movies, c.MovieKey())
	if err != nil {
		return 0, 0, false, err
	}
	if !ok {
		stats.Inc(out, cinetl.StatMissingMovie)
		return 0, 0, false, nil
	}
	pid, ok, err = lookup(r.Persons, c.PersonKey())
	if err != nil {
		return 0, 0, false, err
	}
	if !ok {
		stats.Inc(out, cinetl.StatMissingPerson)
		return 0, 0, false, nil
	}
	return mid, pid, true, nil
}

type castKey struct {
	movie, person uint64
	role          string
}

// BuildCast writes cast_credit.csv rows for every cast observation whose
// movie and person are known. Identical rows are written once.
func (r *CreditResolver) BuildCast(s *jsonl.Store, out string, stats *cinetl.Stats) error {
	w, err := table.Create(out, "movie_id", "person_id", "role_name", "is_principal")
	if err != nil {
		return err
	}
	seen := make(map[castKey]struct{})
	err = jsonl.Scan(s, cinetl.FileCast, stats, func(c *cinetl.Credit) error {
		mid, pid, ok, err := r.resolve(c, CastFile, stats)
		if err != nil || !ok {
			return err
		}
		role := cinetl.ExtractRoleName(c.Role.String())
		key := castKey{mid, pid, role}
		if _, dup := seen[key]; dup {
			stats.Inc(CastFile, cinetl.StatDuplicate)
			return nil
		}
		seen[key] = struct{}{}
		stats.Inc(CastFile, cinetl.StatWritten)
		return w.Write(formatID(mid), formatID(pid), role, cinetl.BoolString(cinetl.IsPrincipal(c.Order)))
	})
	if err != nil {
		w.Abort()
		return err
	}
	return w.Commit()
}

type crewKey struct {
	movie, person, position uint64
}

// BuildCrew writes crew_credit.csv rows, growing positions with every
// position name not seen before. The caller saves positions.
func (r *CreditResolver) BuildCrew(s *jsonl.Store, out string, positions *dict.Positions, stats *cinetl.Stats) error {
	w, err := table.Create(out, "movie_id", "person_id", "position_id", "is_principal")
	if err != nil {
		return err
	}
	seen := make(map[crewKey]struct{})
	err = jsonl.Scan(s, cinetl.FileCrew, stats, func(c *cinetl.Credit) error {
		mid, pid, ok, err := r.resolve(c, CrewFile, stats)
		if err != nil || !ok {
			return err
		}
		pos := positions.ID(cinetl.PositionName(c.Role.String(), c.Department.String()))
		key := crewKey{mid, pid, pos}
		if _, dup := seen[key]; dup {
			stats.Inc(CrewFile, cinetl.StatDuplicate)
			return nil
		}
		seen[key] = struct{}{}
		stats.Inc(CrewFile, cinetl.StatWritten)
		return w.Write(formatID(mid), formatID(pid), formatID(pos), cinetl.BoolString(cinetl.IsPrincipal(c.Order)))
	})
	if err != nil {
		w.Abort()
		return err
	}
	return w.Commit()
}

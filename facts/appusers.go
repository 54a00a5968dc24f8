package facts

import (
	"github.com/cinegraph/cinetl"
	"github.com/cinegraph/cinetl/table"
	"github.com/pkg/errors"
)

// BuildAppUsers derives the application user table from users.csv. The
// user hash doubles as the account name; a row whose hash or mail was
// already taken is dropped.
func BuildAppUsers(src, out string, stats *cinetl.Stats) error {
	w, err := table.Create(out, "id", "name", "mail")
	if err != nil {
		return err
	}
	hashes := make(map[string]struct{})
	mails := make(map[string]struct{})
	found, err := table.Read(src, func(r table.Row) error {
		stats.Inc(AppUsersFile, cinetl.StatRead)
		id, ok := parseID(r.Get("id"))
		hash := r.Get("user_hash")
		mail := r.First("email", "mail")
		if !ok || hash == "" || mail == "" {
			stats.Inc(AppUsersFile, cinetl.StatNoKey)
			return nil
		}
		_, seenHash := hashes[hash]
		_, seenMail := mails[mail]
		if seenHash || seenMail {
			stats.Inc(AppUsersFile, cinetl.StatDuplicate)
			return nil
		}
		hashes[hash] = struct{}{}
		mails[mail] = struct{}{}
		stats.Inc(AppUsersFile, cinetl.StatWritten)
		return w.Write(formatID(id), hash, mail)
	})
	if err == nil && !found {
		err = errors.Errorf("users table %s not found", src)
	}
	if err != nil {
		w.Abort()
		return err
	}
	return w.Commit()
}

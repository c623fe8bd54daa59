// Package directory provides typed account lookups and writes over the snof
// record store. All writes run inside the store's serialized mutate cycle;
// any check that decides a write (uniqueness, token validity) is re-executed
// under that lock, never trusted from an earlier unlocked read.
package directory

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/snoofz/snofbase/internal/common"
	"github.com/snoofz/snofbase/internal/snof"
)

// Matcher selects a record during scans and updates.
type Matcher func(snof.Record) bool

// ByUsername matches the username field case-insensitively.
func ByUsername(username string) Matcher {
	return func(rec snof.Record) bool {
		v, ok := rec.Get(snof.FieldUsername)
		return ok && strings.EqualFold(v, username)
	}
}

// ByEmail matches the email field case-insensitively.
func ByEmail(email string) Matcher {
	return func(rec snof.Record) bool {
		v, ok := rec.Get(snof.FieldEmail)
		return ok && strings.EqualFold(v, email)
	}
}

// ByValidResetToken matches a record whose reset token equals token and whose
// expiry is still in the future at now. A missing or malformed expiry never
// matches.
func ByValidResetToken(token string, now time.Time) Matcher {
	return func(rec snof.Record) bool {
		if token == "" {
			return false
		}
		v, ok := rec.Get(snof.FieldResetToken)
		if !ok || v != token {
			return false
		}
		expiry, ok := rec.Get(snof.FieldResetTokenExpiry)
		if !ok {
			return false
		}
		millis, err := strconv.ParseInt(expiry, 10, 64)
		if err != nil {
			return false
		}
		return now.UnixMilli() < millis
	}
}

// Directory is the account repository over a single snof store.
type Directory struct {
	store *snof.Store
}

func New(store *snof.Store) *Directory {
	return &Directory{store: store}
}

// All returns the latest committed snapshot of every record.
func (d *Directory) All(ctx context.Context) ([]snof.Record, error) {
	return d.store.Load()
}

// Find scans the latest committed snapshot for the first record matching m.
// Absence is reported via found=false, not an error.
func (d *Directory) Find(ctx context.Context, m Matcher) (snof.Record, bool, error) {
	records, err := d.store.Load()
	if err != nil {
		return snof.Record{}, false, err
	}
	for _, rec := range records {
		if m(rec) {
			return rec.Clone(), true, nil
		}
	}
	return snof.Record{}, false, nil
}

func (d *Directory) FindByUsername(ctx context.Context, username string) (snof.Record, bool, error) {
	return d.Find(ctx, ByUsername(username))
}

func (d *Directory) FindByEmail(ctx context.Context, email string) (snof.Record, bool, error) {
	return d.Find(ctx, ByEmail(email))
}

func (d *Directory) FindByResetToken(ctx context.Context, token string, now time.Time) (snof.Record, bool, error) {
	return d.Find(ctx, ByValidResetToken(token, now))
}

// InsertIfAbsent appends rec unless a record with the same username (case
// insensitive) already exists. The uniqueness check runs inside the mutate
// critical section, so of N concurrent inserts with one username exactly one
// wins and the rest get ErrorAlreadyExists.
func (d *Directory) InsertIfAbsent(ctx context.Context, rec snof.Record) error {
	username, ok := rec.Get(snof.FieldUsername)
	if !ok || strings.TrimSpace(username) == "" {
		return common.ErrorValidation
	}

	match := ByUsername(username)
	return d.store.Mutate(func(records []snof.Record) ([]snof.Record, error) {
		for _, existing := range records {
			if match(existing) {
				return nil, common.ErrorAlreadyExists
			}
		}
		return append(records, rec.Clone()), nil
	})
}

// UpdateProfile applies profile changes to the record owned by username,
// optionally renaming it. The rename re-checks username uniqueness against
// the whole store in the same atomic step as the field changes, so two
// concurrent renames to one name cannot both succeed. Returns ErrorNotFound
// if username has no record and ErrorAlreadyExists on a rename collision.
func (d *Directory) UpdateProfile(ctx context.Context, username, newUsername string, set map[string]string) error {
	match := ByUsername(username)
	return d.store.Mutate(func(records []snof.Record) ([]snof.Record, error) {
		idx := -1
		for i := range records {
			if match(records[i]) {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, common.ErrorNotFound
		}

		if newUsername != "" && !strings.EqualFold(newUsername, username) {
			taken := ByUsername(newUsername)
			for i := range records {
				if i != idx && taken(records[i]) {
					return nil, common.ErrorAlreadyExists
				}
			}
		}
		if newUsername != "" {
			records[idx].Set(snof.FieldUsername, newUsername)
		}
		for key, value := range set {
			records[idx].Set(key, value)
		}
		return records, nil
	})
}

// UpdateFields merges set into the first record matching m and removes the
// unset fields, all within one atomic mutate. Keys absent from set are left
// untouched, so an unset input can never erase an existing field. Returns
// ErrorNotFound if nothing matches under the lock.
func (d *Directory) UpdateFields(ctx context.Context, m Matcher, set map[string]string, unset ...string) error {
	return d.store.Mutate(func(records []snof.Record) ([]snof.Record, error) {
		for i := range records {
			if !m(records[i]) {
				continue
			}
			for key, value := range set {
				records[i].Set(key, value)
			}
			for _, key := range unset {
				records[i].Del(key)
			}
			return records, nil
		}
		return nil, common.ErrorNotFound
	})
}

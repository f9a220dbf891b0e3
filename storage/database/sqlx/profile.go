// Package sqlxdb stores profiles in a SQL database through sqlx.
package sqlxdb

import (
	"context"
	"database/sql"
	"iter"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/semillero/core"
	"github.com/trezcool/semillero/core/profile"
)

const (
	profileColumns = "identity, phone, whatsapp_enabled, email_enabled, notification_time, timezone, updated_at"

	upsertProfile = `INSERT INTO profile (` + profileColumns + `)
		VALUES (:identity, :phone, :whatsapp_enabled, :email_enabled, :notification_time, :timezone, :updated_at)
		ON CONFLICT (identity) DO UPDATE SET
			phone = excluded.phone,
			whatsapp_enabled = excluded.whatsapp_enabled,
			email_enabled = excluded.email_enabled,
			notification_time = excluded.notification_time,
			timezone = excluded.timezone,
			updated_at = excluded.updated_at`
)

type profileStore struct {
	db *sqlx.DB
}

var _ profile.Store = (*profileStore)(nil)

func NewProfileStore(db *sqlx.DB) profile.Store {
	return &profileStore{db: db}
}

func (s *profileStore) Get(ctx context.Context, identity string) (profile.Profile, error) {
	var p profile.Profile
	q := s.db.Rebind("SELECT " + profileColumns + " FROM profile WHERE identity = ?")
	if err := s.db.GetContext(ctx, &p, q, identity); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, s.fail(ctx, err, "selecting profile")
	}
	p.UpdatedAt = p.UpdatedAt.UTC()
	return p, nil
}

func (s *profileStore) Set(ctx context.Context, p profile.Profile) error {
	p.UpdatedAt = p.UpdatedAt.UTC()
	if _, err := s.db.NamedExecContext(ctx, upsertProfile, p); err != nil {
		return s.fail(ctx, err, "upserting profile")
	}
	return nil
}

// fail wraps err, turning it into a shutdown error when the database no longer answers.
func (s *profileStore) fail(ctx context.Context, err error, msg string) error {
	if ctx.Err() == nil && s.db.PingContext(ctx) != nil {
		return errors.Wrap(core.NewShutdownError("profile database unreachable: "+err.Error()), msg)
	}
	return errors.Wrap(err, msg)
}

// List reads the whole table up front, so callers may write to the store while ranging.
func (s *profileStore) List(ctx context.Context) iter.Seq2[profile.Profile, error] {
	return func(yield func(profile.Profile, error) bool) {
		var profiles []profile.Profile
		err := s.db.SelectContext(ctx, &profiles, "SELECT "+profileColumns+" FROM profile ORDER BY identity")
		if err != nil {
			yield(profile.Profile{}, s.fail(ctx, err, "selecting profiles"))
			return
		}
		for _, p := range profiles {
			p.UpdatedAt = p.UpdatedAt.UTC()
			if !yield(p, nil) {
				return
			}
		}
	}
}

// Package testutil prepares databases and fixtures for tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/trezcool/semillero/core"
	"github.com/trezcool/semillero/core/profile"
	"github.com/trezcool/semillero/storage/database"
)

// PrepareDB opens a fresh in-memory SQLite database, optionally migrated, closed with the test.
func PrepareDB(t *testing.T, migrate bool) *sqlx.DB {
	t.Helper()
	db, err := database.Open(core.DatabaseConfig{Driver: database.DriverSQLite, DSN: ":memory:"})
	if err != nil {
		t.Fatalf("PrepareDB() failed: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if migrate {
		if _, err = database.Migrate(context.Background(), db); err != nil {
			t.Fatalf("PrepareDB() failed to migrate: %v", err)
		}
	}
	return db
}

func CreateProfile(
	t *testing.T,
	store profile.Store,
	identity, phone, notificationTime string,
	whatsApp, email bool,
	updatedAt ...time.Time,
) profile.Profile {
	tstamp := time.Now().UTC().Truncate(time.Second)
	if len(updatedAt) > 0 {
		tstamp = updatedAt[0].UTC()
	}
	p := profile.Profile{
		Identity:         identity,
		Phone:            phone,
		WhatsAppEnabled:  whatsApp,
		EmailEnabled:     email,
		NotificationTime: notificationTime,
		Timezone:         profile.DefaultTimezone,
		UpdatedAt:        tstamp,
	}
	if err := store.Set(context.Background(), p); err != nil {
		t.Fatalf("CreateProfile() failed: %v", err)
	}
	return p
}

package sqlxdb

import (
	"context"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/semillero/core"
	"github.com/trezcool/semillero/core/profile"
	"github.com/trezcool/semillero/storage/database"
	"github.com/trezcool/semillero/storage/database/testutil"
)

func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	db := testutil.PrepareDB(t, false)
	ran, err := database.Migrate(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_profiles"}, ran)
	return db
}

func TestProfileStore(t *testing.T) {
	ctx := context.Background()
	store := NewProfileStore(openTestDB(t))
	updated := time.Date(2024, 12, 2, 17, 0, 0, 0, time.UTC)

	_, err := store.Get(ctx, "ana@test.edu")
	assert.ErrorIs(t, err, profile.ErrNotFound)

	ana := profile.Profile{
		Identity:         "ana@test.edu",
		Phone:            "+5491112345678",
		WhatsAppEnabled:  true,
		NotificationTime: "08:00",
		Timezone:         profile.DefaultTimezone,
		UpdatedAt:        updated,
	}
	require.NoError(t, store.Set(ctx, ana))
	testutil.CreateProfile(t, store, "bob@test.edu", "", "17:00", false, true, updated)

	got, err := store.Get(ctx, "ana@test.edu")
	require.NoError(t, err)
	assert.Equal(t, ana, got)

	t.Run("last write wins", func(t *testing.T) {
		ana.WhatsAppEnabled = false
		ana.EmailEnabled = true
		ana.NotificationTime = "18:30"
		ana.UpdatedAt = updated.Add(time.Hour)
		require.NoError(t, store.Set(ctx, ana))

		got, err := store.Get(ctx, "ana@test.edu")
		require.NoError(t, err)
		assert.Equal(t, ana, got)
	})

	t.Run("list", func(t *testing.T) {
		ids := make([]string, 0)
		for p, err := range store.List(ctx) {
			require.NoError(t, err)
			ids = append(ids, p.Identity)
			require.NoError(t, store.Set(ctx, p), "writing while ranging")
		}
		assert.Equal(t, []string{"ana@test.edu", "bob@test.edu"}, ids)

		stats, err := profile.Count(ctx, store)
		require.NoError(t, err)
		assert.Equal(t, profile.Stats{Total: 2, WithWhatsApp: 0, WithEmail: 2}, stats)
	})
}

func TestMigrate_idempotent(t *testing.T) {
	db := openTestDB(t)

	ran, err := database.Migrate(context.Background(), db)
	require.NoError(t, err)
	assert.Empty(t, ran)
}

func TestProfileStore_databaseGone(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := NewProfileStore(db)
	require.NoError(t, db.Close())

	_, err := store.Get(ctx, "ana@test.edu")
	assert.True(t, core.IsShutdown(err), "Get: %v", err)

	err = store.Set(ctx, profile.Default("ana@test.edu"))
	assert.True(t, core.IsShutdown(err), "Set: %v", err)

	for _, err := range store.List(ctx) {
		assert.True(t, core.IsShutdown(err), "List: %v", err)
	}
}

func TestProfileStore_queryError(t *testing.T) {
	db := testutil.PrepareDB(t, false) // no schema
	store := NewProfileStore(db)

	_, err := store.Get(context.Background(), "ana@test.edu")
	require.Error(t, err)
	assert.False(t, core.IsShutdown(err), "a reachable database is not a reason to shut down")
}

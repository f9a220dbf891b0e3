package inmemdb

import (
	"context"
	"iter"
	"sort"

	"github.com/trezcool/semillero/core/profile"
)

type profileStore struct {
	db *profileTable
}

var _ profile.Store = (*profileStore)(nil)

func NewProfileStore(db *DB) profile.Store {
	return &profileStore{db: db.profile}
}

func (s *profileStore) Get(_ context.Context, identity string) (profile.Profile, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()

	if p, ok := s.db.table[identity]; ok {
		return p, nil
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (s *profileStore) Set(_ context.Context, p profile.Profile) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()
	s.db.table[p.Identity] = p
	return nil
}

// snapshot copies the table ordered by identity so iteration never holds the lock.
func (s *profileStore) snapshot() []profile.Profile {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()

	profiles := make([]profile.Profile, 0, len(s.db.table))
	for _, p := range s.db.table {
		profiles = append(profiles, p)
	}
	sort.Slice(profiles, func(i, j int) bool { return profiles[i].Identity < profiles[j].Identity })
	return profiles
}

func (s *profileStore) List(ctx context.Context) iter.Seq2[profile.Profile, error] {
	return func(yield func(profile.Profile, error) bool) {
		for _, p := range s.snapshot() {
			if err := ctx.Err(); err != nil {
				yield(profile.Profile{}, err)
				return
			}
			if !yield(p, nil) {
				return
			}
		}
	}
}

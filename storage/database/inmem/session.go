package inmemdb

import (
	"context"

	"github.com/trezcool/semillero/core/session"
)

type sessionStore struct {
	db *sessionTable
}

var _ session.Store = (*sessionStore)(nil)

func NewSessionStore(db *DB) session.Store {
	return &sessionStore{db: db.session}
}

func (s *sessionStore) Get(_ context.Context, identity string) (session.Session, error) {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()

	if sess, ok := s.db.table[identity]; ok {
		return sess, nil
	}
	return session.Session{}, session.ErrNotFound
}

func (s *sessionStore) Set(_ context.Context, sess session.Session) error {
	s.db.mutex.Lock()
	defer s.db.mutex.Unlock()
	s.db.table[sess.Identity] = sess
	return nil
}

func (s *sessionStore) Len(context.Context) int {
	s.db.mutex.RLock()
	defer s.db.mutex.RUnlock()
	return len(s.db.table)
}

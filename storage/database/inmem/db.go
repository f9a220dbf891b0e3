// Package inmemdb keeps profiles and sessions in process memory. Everything is lost on restart.
package inmemdb

import (
	"sync"

	"github.com/trezcool/semillero/core/profile"
	"github.com/trezcool/semillero/core/session"
)

type (
	DB struct {
		profile *profileTable
		session *sessionTable
	}

	profileTable struct {
		table map[string]profile.Profile
		mutex sync.RWMutex
	}

	sessionTable struct {
		table map[string]session.Session
		mutex sync.RWMutex
	}
)

func Open() *DB {
	return &DB{
		profile: &profileTable{table: make(map[string]profile.Profile)},
		session: &sessionTable{table: make(map[string]session.Session)},
	}
}

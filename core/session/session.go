// Package session keeps the authorized Classroom session of each signed-in user.
package session

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"

	"github.com/trezcool/semillero/core/classroom"
)

var ErrNotFound = errors.New("session not found")

type (
	// Session is replaced on every successful sign-in; there is at most one per Identity.
	Session struct {
		Identity  string         `json:"email"`
		UserID    string         `json:"id"` // Google account ID
		Name      string         `json:"name"`
		Picture   string         `json:"picture,omitempty"`
		Role      classroom.Role `json:"role"`
		Token     *oauth2.Token  `json:"-"`
		CreatedAt time.Time      `json:"createdAt"`
	}

	// Store must be safe for concurrent use.
	Store interface {
		Get(ctx context.Context, identity string) (Session, error)
		Set(ctx context.Context, s Session) error
		Len(ctx context.Context) int
	}
)

// Viewer returns the classroom.Viewer this session acts as.
func (s Session) Viewer() classroom.Viewer {
	return classroom.Viewer{UserID: s.UserID, Email: s.Identity, Role: s.Role}
}

// Package profile holds each user's notification preferences.
package profile

import (
	"context"
	"iter"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/semillero/core"
)

const (
	DefaultNotificationTime = "17:00"
	DefaultTimezone         = "America/Argentina/Buenos_Aires"
)

var (
	ErrNotFound         = errors.New("profile not found")
	ErrInvalidTimeOfDay = errors.New("invalid time of day")
)

type (
	// Profile is keyed by Identity (the user's email) and replaced wholesale on every update.
	Profile struct {
		Identity         string    `json:"email" db:"identity"`
		Phone            string    `json:"phone" db:"phone"`
		WhatsAppEnabled  bool      `json:"whatsappEnabled" db:"whatsapp_enabled"`
		EmailEnabled     bool      `json:"emailEnabled" db:"email_enabled"`
		NotificationTime string    `json:"notificationTime" db:"notification_time"` // HH:MM, 24h
		Timezone         string    `json:"timezone" db:"timezone"`                  // advisory only
		UpdatedAt        time.Time `json:"updatedAt" db:"updated_at"`
	}

	// Store is any backend able to keep profiles. Implementations must be safe for concurrent use.
	Store interface {
		Get(ctx context.Context, identity string) (Profile, error)
		// Set inserts or replaces the profile for p.Identity.
		Set(ctx context.Context, p Profile) error
		// List yields a snapshot of the stored profiles. Ranging again re-reads the store.
		List(ctx context.Context) iter.Seq2[Profile, error]
	}
)

// Default returns the preferences a user has before saving any.
func Default(identity string) Profile {
	return Profile{
		Identity:         identity,
		EmailEnabled:     true,
		NotificationTime: DefaultNotificationTime,
		Timezone:         DefaultTimezone,
	}
}

// WantsWhatsApp reports whether the chat channel may be used: enabled and a phone on file.
func (p Profile) WantsWhatsApp() bool {
	return p.WhatsAppEnabled && p.Phone != ""
}

// HasChannel reports whether at least one channel is enabled.
func (p Profile) HasChannel() bool {
	return p.WhatsAppEnabled || p.EmailEnabled
}

// Clock returns the configured notification hour and minute.
func (p Profile) Clock() (hour, minute int, err error) {
	return ParseTimeOfDay(p.NotificationTime)
}

// ParseTimeOfDay parses a 24h "HH:MM" string.
func ParseTimeOfDay(s string) (hour, minute int, err error) {
	hs, ms, ok := strings.Cut(core.CleanString(s), ":")
	if !ok {
		return 0, 0, errors.Wrap(ErrInvalidTimeOfDay, s)
	}
	if hour, err = strconv.Atoi(hs); err != nil || hour < 0 || hour > 23 {
		return 0, 0, errors.Wrap(ErrInvalidTimeOfDay, s)
	}
	if minute, err = strconv.Atoi(ms); err != nil || minute < 0 || minute > 59 {
		return 0, 0, errors.Wrap(ErrInvalidTimeOfDay, s)
	}
	return hour, minute, nil
}

// Stats summarizes channel adoption over a Store.
type Stats struct {
	Total        int `json:"totalUsers"`
	WithWhatsApp int `json:"usersWithWhatsApp"`
	WithEmail    int `json:"usersWithEmail"`
}

// Count walks the store once and tallies channel adoption.
func Count(ctx context.Context, store Store) (Stats, error) {
	var st Stats
	for p, err := range store.List(ctx) {
		if err != nil {
			return st, errors.Wrap(err, "listing profiles")
		}
		st.Total++
		if p.WhatsAppEnabled {
			st.WithWhatsApp++
		}
		if p.EmailEnabled {
			st.WithEmail++
		}
	}
	return st, nil
}

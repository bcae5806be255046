// README: Global Telegram identity and per-salon membership records.
package user

import (
	"strings"
	"time"
)

// User is the global Telegram identity, created on first /start.
type User struct {
	TgUserID     int64
	IsSuperAdmin bool
	Language     string
	Created      time.Time
}

// Membership binds a user to one salon with per-salon profile data. All cart
// and order rows reference Membership.ID, not the raw Telegram id, so a user
// keeps an independent cart in every salon. Updated doubles as the MRU marker.
type Membership struct {
	ID           int64
	TgUserID     int64
	SalonID      int64
	FirstName    string
	LastName     string
	Phone        string
	IsSalonAdmin bool
	Updated      time.Time
}

// DisplayName joins the stored profile names; empty when neither is set so
// callers can fall back to the live Telegram display name.
func (m *Membership) DisplayName() string {
	return strings.TrimSpace(strings.TrimSpace(m.FirstName) + " " + strings.TrimSpace(m.LastName))
}

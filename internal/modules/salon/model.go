// README: Salon aggregate; one salon is one tenant storefront.
package salon

import (
	"time"

	"salonbot/internal/types"
)

type Salon struct {
	ID          int64
	Name        string
	Slug        string
	Currency    string
	Timezone    string
	Latitude    *float64
	Longitude   *float64
	GroupChatID *int64
	FreePlan    bool
	OrderLimit  int
	Created     time.Time
	Updated     time.Time
}

// HasLocation reports whether the salon has configured coordinates. Delivery
// cost calculation and the pickup map link both depend on this.
func (s *Salon) HasLocation() bool {
	return s.Latitude != nil && s.Longitude != nil
}

// Location returns the configured coordinates, or nil when HasLocation is
// false.
func (s *Salon) Location() *types.Point {
	if !s.HasLocation() {
		return nil
	}
	return &types.Point{Lat: *s.Latitude, Lon: *s.Longitude}
}

// TimeLocation returns the salon timezone, defaulting to UTC when unset or broken.
func (s *Salon) TimeLocation() *time.Location {
	if s.Timezone != "" {
		if loc, err := time.LoadLocation(s.Timezone); err == nil {
			return loc
		}
	}
	return time.UTC
}

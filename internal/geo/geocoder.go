// README: Reverse geocoding through the Google Maps client.
package geo

import (
	"context"
	"fmt"
	"strings"

	"googlemaps.github.io/maps"
)

// Geocoder resolves coordinates into a human-readable address. Implementations
// return an error when the upstream service fails; callers are expected to
// fall back to a coordinate literal.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}

// MapsGeocoder handles interactions with the Google Geocoding API.
type MapsGeocoder struct {
	client *maps.Client
}

// NewMapsGeocoder creates a geocoder with the given API key.
func NewMapsGeocoder(apiKey string) (*MapsGeocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &MapsGeocoder{client: client}, nil
}

// Reverse returns a short street-level address for the coordinates. The first
// result is the most specific one; its formatted address is trimmed to the
// street/house/city components when the country tail is obvious.
func (g *MapsGeocoder) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	resp, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lon},
	})
	if err != nil {
		return "", fmt.Errorf("reverse geocode: %w", err)
	}
	if len(resp) == 0 {
		return "", fmt.Errorf("reverse geocode: no results for (%f, %f)", lat, lon)
	}
	return shortAddress(resp[0].FormattedAddress), nil
}

// shortAddress drops the trailing postal code / country components that the
// formatted address usually carries. Street, house and city stay.
func shortAddress(formatted string) string {
	parts := strings.Split(formatted, ", ")
	if len(parts) > 3 {
		parts = parts[:3]
	}
	return strings.Join(parts, ", ")
}

// CoordinateFallback renders the placeholder address used when reverse
// geocoding is unavailable.
func CoordinateFallback(lat, lon float64) string {
	return fmt.Sprintf("Геолокация (%.5f, %.5f)", lat, lon)
}

package geo

import (
	"math"
	"testing"
)

func TestHaversineKm_KnownDistances(t *testing.T) {
	tests := []struct {
		name      string
		lat1      float64
		lon1      float64
		lat2      float64
		lon2      float64
		wantKm    float64
		tolerance float64
	}{
		{
			name: "same point",
			lat1: 55.751, lon1: 37.617,
			lat2: 55.751, lon2: 37.617,
			wantKm:    0,
			tolerance: 0.001,
		},
		{
			name: "Red Square to Moscow City (~5.5km)",
			lat1: 55.7539, lon1: 37.6208,
			lat2: 55.7473, lon2: 37.5377,
			wantKm:    5.2,
			tolerance: 1.0,
		},
		{
			name: "Moscow to Saint Petersburg (~634km)",
			lat1: 55.7558, lon1: 37.6173,
			lat2: 59.9311, lon2: 30.3609,
			wantKm:    634,
			tolerance: 10,
		},
		{
			name: "New York to Los Angeles (~3944km)",
			lat1: 40.7128, lon1: -74.0060,
			lat2: 34.0522, lon2: -118.2437,
			wantKm:    3944,
			tolerance: 50,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HaversineKm(tt.lat1, tt.lon1, tt.lat2, tt.lon2)
			if math.Abs(got-tt.wantKm) > tt.tolerance {
				t.Errorf("HaversineKm() = %f, want %f (±%f)", got, tt.wantKm, tt.tolerance)
			}
		})
	}
}

func TestHaversineKm_Symmetry(t *testing.T) {
	d1 := HaversineKm(55.0, 37.0, 56.0, 38.0)
	d2 := HaversineKm(56.0, 38.0, 55.0, 37.0)
	if math.Abs(d1-d2) > 0.0001 {
		t.Errorf("haversine is not symmetric: %f vs %f", d1, d2)
	}
}

func TestDeliveryCost(t *testing.T) {
	tests := []struct {
		distanceKm float64
		want       int64
	}{
		{0, 1},
		{0.01, 1},
		{0.99, 1},
		{1.0, 1},
		{1.01, 2},
		{3.2, 4},
		{10.0, 10},
		{24.5, 25},
	}
	for _, tt := range tests {
		if got := DeliveryCost(tt.distanceKm); got != tt.want {
			t.Errorf("DeliveryCost(%v) = %d, want %d", tt.distanceKm, got, tt.want)
		}
	}
}

func TestDeliveryCost_Floor(t *testing.T) {
	for _, km := range []float64{0, 0.2, 0.5, 1, 2.7, 100} {
		if got := DeliveryCost(km); got < 1 {
			t.Errorf("DeliveryCost(%v) = %d, want >= 1", km, got)
		}
	}
}

func TestDeliveryCost_CeilAboveZero(t *testing.T) {
	for _, km := range []float64{1.2, 2.0, 3.2, 7.01} {
		want := int64(math.Ceil(km))
		if got := DeliveryCost(km); got != want {
			t.Errorf("DeliveryCost(%v) = %d, want ceil = %d", km, got, want)
		}
	}
}

func TestShortAddress(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Тверская ул., 7, Москва, 125009, Россия", "Тверская ул., 7, Москва"},
		{"Невский просп., 28, Санкт-Петербург", "Невский просп., 28, Санкт-Петербург"},
		{"Москва", "Москва"},
	}
	for _, tt := range tests {
		if got := shortAddress(tt.in); got != tt.want {
			t.Errorf("shortAddress(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

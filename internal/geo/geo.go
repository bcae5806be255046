// README: Pure geographic computation helpers and the delivery pricing rule.
package geo

import "math"

const earthRadiusKm = 6371.0

// HaversineKm returns the great-circle distance in kilometres between two
// points specified in decimal degrees.
func HaversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := degreesToRadians(lat2 - lat1)
	dLon := degreesToRadians(lon2 - lon1)

	rLat1 := degreesToRadians(lat1)
	rLat2 := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(rLat1)*math.Cos(rLat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// DeliveryCost is the placeholder linear tariff: the distance rounded up to
// the nearest whole kilometre, never less than 1 currency unit. Not a real
// tariff engine.
func DeliveryCost(distanceKm float64) int64 {
	cost := int64(math.Ceil(distanceKm))
	if cost < 1 {
		return 1
	}
	return cost
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}

package types

import (
	"math"
	"time"
)

// GeoPoint represents a WGS84 coordinate pair.
type GeoPoint struct {
	Latitude  float64 `json:"latitude" db:"latitude"`
	Longitude float64 `json:"longitude" db:"longitude"`
}

// Valid reports whether the point lies within the WGS84 coordinate ranges.
func (p GeoPoint) Valid() bool {
	return p.Latitude >= -90 && p.Latitude <= 90 &&
		p.Longitude >= -180 && p.Longitude <= 180
}

// DistanceKm returns the haversine great-circle distance to another point.
func (p GeoPoint) DistanceKm(other GeoPoint) float64 {
	const earthRadiusKm = 6371.0

	lat1 := p.Latitude * math.Pi / 180
	lat2 := other.Latitude * math.Pi / 180
	dLat := (other.Latitude - p.Latitude) * math.Pi / 180
	dLon := (other.Longitude - p.Longitude) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

// User represents a platform user, keyed by mobile number. Users are created
// on first successful OTP verification and never hard-deleted.
type User struct {
	ID         string     `json:"id" db:"id"`
	Mobile     string     `json:"mobile" db:"mobile"`
	Name       string     `json:"name" db:"name"`
	Language   Language   `json:"language" db:"language"`
	IsVerified bool       `json:"is_verified" db:"is_verified"`
	LastLogin  *time.Time `json:"last_login,omitempty" db:"last_login"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

package domain

import "math"

// Location is a geocoded place. Pricing keys on PlaceID and Locality, never
// on the free text the customer typed.
type Location struct {
	PlaceID  string  `json:"place_id"`
	Address  string  `json:"address"`
	Locality string  `json:"locality"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// Place is a pickup or dropoff as entered, plus its geocoded location once
// resolved.
type Place struct {
	Text     string    `json:"text"`
	Location *Location `json:"location,omitempty"`
}

func (p Place) Resolved() bool {
	return p.Location != nil && (p.Location.PlaceID != "" || p.Location.Locality != "")
}

// Label is what gets stored on the booking.
func (p Place) Label() string {
	if p.Text != "" {
		return p.Text
	}
	if p.Location != nil {
		return p.Location.Address
	}
	return ""
}

func (p Place) sameLocation(o Place) bool {
	if p.Location == nil || o.Location == nil {
		return p.Location == nil && o.Location == nil && p.Text == o.Text
	}
	return *p.Location == *o.Location
}

// DistanceKm is the great-circle distance between two locations.
func DistanceKm(a, b Location) float64 {
	const R = 6371.0
	lat1 := a.Lat * math.Pi / 180.0
	lat2 := b.Lat * math.Pi / 180.0
	dlat := (b.Lat - a.Lat) * math.Pi / 180.0
	dlng := (b.Lng - a.Lng) * math.Pi / 180.0
	h := math.Sin(dlat/2)*math.Sin(dlat/2) + math.Cos(lat1)*math.Cos(lat2)*math.Sin(dlng/2)*math.Sin(dlng/2)
	return 2 * R * math.Asin(math.Sqrt(h))
}

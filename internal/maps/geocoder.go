package maps

import (
	"context"
	"fmt"
	"strings"

	"github.com/Domenick1991/chauffeur/internal/domain"
	"googlemaps.github.io/maps"
)

var ErrNoResults = domain.ErrPlaceNotFound

// AirportLocality is the locality given to any result Google types as an
// airport, so fare zones can match airports regardless of municipality.
const AirportLocality = "Airport"

// Geocoder resolves what the customer typed into a place id, locality and
// coordinates.
type Geocoder struct {
	client   *maps.Client
	region   string
	language string
}

func NewGeocoder(apiKey, region, language string) (*Geocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &Geocoder{client: client, region: region, language: language}, nil
}

// Resolve geocodes p by its place id when the client already picked a
// suggestion, and by its text otherwise.
func (g *Geocoder) Resolve(ctx context.Context, p domain.Place) (*domain.Location, error) {
	r := &maps.GeocodingRequest{
		Region:   g.region,
		Language: g.language,
	}
	if p.Location != nil && p.Location.PlaceID != "" {
		r.PlaceID = p.Location.PlaceID
	} else {
		text := strings.TrimSpace(p.Text)
		if text == "" {
			return nil, ErrNoResults
		}
		r.Address = text
	}

	results, err := g.client.Geocode(ctx, r)
	if err != nil {
		return nil, fmt.Errorf("geocoding api error: %w", err)
	}
	if len(results) == 0 {
		return nil, ErrNoResults
	}
	loc := locationFromResult(results[0])
	return &loc, nil
}

func locationFromResult(res maps.GeocodingResult) domain.Location {
	loc := domain.Location{
		PlaceID: res.PlaceID,
		Address: res.FormattedAddress,
		Lat:     res.Geometry.Location.Lat,
		Lng:     res.Geometry.Location.Lng,
	}
	if hasType(res.Types, "airport") {
		loc.Locality = AirportLocality
		return loc
	}
	for _, want := range []string{"locality", "administrative_area_level_2", "administrative_area_level_1"} {
		for _, c := range res.AddressComponents {
			if hasType(c.Types, want) {
				loc.Locality = c.LongName
				return loc
			}
		}
	}
	return loc
}

func hasType(types []string, want string) bool {
	for _, t := range types {
		if t == want {
			return true
		}
	}
	return false
}

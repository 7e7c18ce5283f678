package pricing

import (
	"fmt"
	"os"
	"strings"

	"github.com/Domenick1991/chauffeur/internal/domain"
	"gopkg.in/yaml.v3"
)

// DistanceTier prices one-way trips up to UpToKm road kilometres.
type DistanceTier struct {
	UpToKm float64 `yaml:"up_to_km"`
	Fare   int64   `yaml:"fare"`
}

// ClassRates are whole currency units.
type ClassRates struct {
	PerHour  int64          `yaml:"per_hour"`
	HalfDay  int64          `yaml:"half_day"`
	FullDay  int64          `yaml:"full_day"`
	Distance []DistanceTier `yaml:"distance"`
}

type Zone struct {
	Name       string   `yaml:"name"`
	Localities []string `yaml:"localities"`
	PlaceIDs   []string `yaml:"place_ids"`
}

// Route is a served zone pair. Order of From and To does not matter.
type Route struct {
	From string                        `yaml:"from"`
	To   string                        `yaml:"to"`
	Flat map[domain.ServiceClass]int64 `yaml:"flat"`
}

type FareTable struct {
	Currency   string                             `yaml:"currency"`
	RoadFactor float64                            `yaml:"road_factor"`
	Classes    map[domain.ServiceClass]ClassRates `yaml:"classes"`
	Zones      []Zone                             `yaml:"zones"`
	Routes     []Route                            `yaml:"routes"`
}

// LoadTable reads a fare table from a YAML file.
func LoadTable(path string) (*FareTable, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fare table: %w", err)
	}
	var t FareTable
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parse fare table: %w", err)
	}
	if t.Currency == "" {
		t.Currency = domain.DefaultCurrency
	}
	if t.RoadFactor == 0 {
		t.RoadFactor = 1
	}
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *FareTable) Validate() error {
	if t.RoadFactor < 1 {
		return fmt.Errorf("fare table: road_factor must be >= 1, got %v", t.RoadFactor)
	}
	for class, rates := range t.Classes {
		if _, ok := domain.ParseServiceClass(string(class)); !ok {
			return fmt.Errorf("fare table: unknown service class %q", class)
		}
		for i := 1; i < len(rates.Distance); i++ {
			if rates.Distance[i].UpToKm <= rates.Distance[i-1].UpToKm {
				return fmt.Errorf("fare table: %s distance tiers must ascend", class)
			}
		}
	}
	zones := make(map[string]struct{}, len(t.Zones))
	for _, z := range t.Zones {
		if z.Name == "" {
			return fmt.Errorf("fare table: zone without name")
		}
		zones[z.Name] = struct{}{}
	}
	for _, r := range t.Routes {
		if _, ok := zones[r.From]; !ok {
			return fmt.Errorf("fare table: route references unknown zone %q", r.From)
		}
		if _, ok := zones[r.To]; !ok {
			return fmt.Errorf("fare table: route references unknown zone %q", r.To)
		}
		for class := range r.Flat {
			if _, ok := domain.ParseServiceClass(string(class)); !ok {
				return fmt.Errorf("fare table: route %s-%s has unknown class %q", r.From, r.To, class)
			}
		}
	}
	return nil
}

// ZoneOf maps a geocoded location to a zone, by place id first and then by
// locality.
func (t *FareTable) ZoneOf(loc *domain.Location) (string, bool) {
	if loc == nil {
		return "", false
	}
	if loc.PlaceID != "" {
		for _, z := range t.Zones {
			for _, id := range z.PlaceIDs {
				if id == loc.PlaceID {
					return z.Name, true
				}
			}
		}
	}
	locality := strings.TrimSpace(loc.Locality)
	if locality == "" {
		return "", false
	}
	for _, z := range t.Zones {
		for _, l := range z.Localities {
			if strings.EqualFold(l, locality) {
				return z.Name, true
			}
		}
	}
	return "", false
}

// RouteFor finds the served route between two zones in either direction.
func (t *FareTable) RouteFor(a, b string) (*Route, bool) {
	for i := range t.Routes {
		r := &t.Routes[i]
		if (r.From == a && r.To == b) || (r.From == b && r.To == a) {
			return r, true
		}
	}
	return nil, false
}

func (t *FareTable) IsServed(a, b string) bool {
	_, ok := t.RouteFor(a, b)
	return ok
}

func tiers(fares ...int64) []DistanceTier {
	limits := []float64{25, 60, 120, 250, 400}
	out := make([]DistanceTier, len(fares))
	for i, f := range fares {
		out[i] = DistanceTier{UpToKm: limits[i], Fare: f}
	}
	return out
}

// DefaultTable is the Jordan rate card.
func DefaultTable() *FareTable {
	all := func(exec, lux, mpv, suv int64) map[domain.ServiceClass]int64 {
		return map[domain.ServiceClass]int64{
			domain.ClassExecutive: exec,
			domain.ClassLuxury:    lux,
			domain.ClassMPV:       mpv,
			domain.ClassSUV:       suv,
		}
	}
	return &FareTable{
		Currency:   domain.DefaultCurrency,
		RoadFactor: 1.3,
		Classes: map[domain.ServiceClass]ClassRates{
			domain.ClassExecutive: {PerHour: 25, HalfDay: 90, FullDay: 160, Distance: tiers(20, 35, 60, 110, 170)},
			domain.ClassLuxury:    {PerHour: 40, HalfDay: 150, FullDay: 270, Distance: tiers(32, 56, 96, 176, 272)},
			domain.ClassMPV:       {PerHour: 30, HalfDay: 110, FullDay: 200, Distance: tiers(24, 42, 72, 132, 204)},
			domain.ClassSUV:       {PerHour: 35, HalfDay: 125, FullDay: 230, Distance: tiers(28, 49, 84, 154, 238)},
		},
		Zones: []Zone{
			{Name: "amman", Localities: []string{"Amman", "Wadi as-Seer", "Sweileh", "Marka", "Al-Jubaiha", "Abu Nsair"}},
			{Name: "airport", Localities: []string{"Queen Alia International Airport", "Al-Jiza", "Airport"}},
			{Name: "dead_sea", Localities: []string{"Dead Sea", "Sweimeh"}},
			{Name: "aqaba", Localities: []string{"Aqaba"}},
			{Name: "petra", Localities: []string{"Petra", "Wadi Musa"}},
			{Name: "wadi_rum", Localities: []string{"Wadi Rum"}},
			{Name: "madaba", Localities: []string{"Madaba"}},
			{Name: "jerash", Localities: []string{"Jerash"}},
			{Name: "irbid", Localities: []string{"Irbid"}},
			{Name: "zarqa", Localities: []string{"Zarqa"}},
		},
		Routes: []Route{
			{From: "amman", To: "airport", Flat: all(30, 50, 38, 42)},
			{From: "amman", To: "amman"},
			{From: "amman", To: "dead_sea"},
			{From: "amman", To: "aqaba"},
			{From: "amman", To: "petra"},
			{From: "amman", To: "wadi_rum"},
			{From: "amman", To: "madaba"},
			{From: "amman", To: "jerash"},
			{From: "amman", To: "irbid"},
			{From: "amman", To: "zarqa"},
			{From: "airport", To: "dead_sea"},
			{From: "airport", To: "aqaba"},
			{From: "airport", To: "petra"},
			{From: "airport", To: "wadi_rum"},
			{From: "airport", To: "madaba"},
			{From: "airport", To: "jerash"},
			{From: "airport", To: "irbid"},
			{From: "airport", To: "zarqa"},
			{From: "aqaba", To: "aqaba"},
			{From: "aqaba", To: "petra"},
			{From: "aqaba", To: "wadi_rum"},
			{From: "petra", To: "wadi_rum"},
			{From: "dead_sea", To: "madaba"},
		},
	}
}

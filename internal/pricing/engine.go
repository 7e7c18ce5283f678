package pricing

import (
	"github.com/Domenick1991/chauffeur/internal/domain"
)

// Request carries everything a fare depends on.
type Request struct {
	Class       domain.ServiceClass
	BookingType domain.BookingType
	Duration    string
	Pickup      *domain.Location
	Dropoff     *domain.Location
}

// Quote is either a priced fare or Unserved. Unserved quotes carry a zero
// fare so they can still be displayed; callers branch on Served.
type Quote struct {
	Class  domain.ServiceClass `json:"class"`
	Fare   domain.Money        `json:"fare"`
	Served bool                `json:"served"`
}

func Priced(class domain.ServiceClass, fare domain.Money) Quote {
	return Quote{Class: class, Fare: fare, Served: true}
}

func Unserved(class domain.ServiceClass, currency string) Quote {
	return Quote{Class: class, Fare: domain.Money{Currency: currency}}
}

type Engine struct {
	table *FareTable
}

func NewEngine(table *FareTable) *Engine {
	if table == nil {
		table = DefaultTable()
	}
	return &Engine{table: table}
}

func (e *Engine) Table() *FareTable {
	return e.table
}

// RequestFromDraft builds the pricing request for class from the draft's
// current trip details.
func RequestFromDraft(d *domain.ReservationDraft, class domain.ServiceClass) Request {
	return Request{
		Class:       class,
		BookingType: d.BookingType,
		Duration:    d.Duration,
		Pickup:      d.Pickup.Location,
		Dropoff:     d.Dropoff.Location,
	}
}

// Price is a pure function of the request and the table.
func (e *Engine) Price(req Request) Quote {
	unserved := Unserved(req.Class, e.table.Currency)
	rates, ok := e.table.Classes[req.Class]
	if !ok {
		return unserved
	}

	var units int64
	switch req.BookingType {
	case domain.BookingTypeByHour:
		units = e.hourly(rates, req.Duration)
	case domain.BookingTypeOneWay:
		units = e.oneWay(rates, req)
	}
	if units <= 0 {
		return unserved
	}
	return Priced(req.Class, domain.NewMoney(units, e.table.Currency))
}

func (e *Engine) hourly(rates ClassRates, raw string) int64 {
	d, ok := domain.ParseDuration(raw)
	if !ok {
		return 0
	}
	if h, ok := d.Hours(); ok {
		return rates.PerHour * int64(h)
	}
	switch d {
	case domain.DurationHalfDay:
		return rates.HalfDay
	case domain.DurationFullDay:
		return rates.FullDay
	}
	return 0
}

func (e *Engine) oneWay(rates ClassRates, req Request) int64 {
	from, ok := e.table.ZoneOf(req.Pickup)
	if !ok {
		return 0
	}
	to, ok := e.table.ZoneOf(req.Dropoff)
	if !ok {
		return 0
	}
	route, ok := e.table.RouteFor(from, to)
	if !ok {
		return 0
	}
	if flat, ok := route.Flat[req.Class]; ok {
		return flat
	}

	km := domain.DistanceKm(*req.Pickup, *req.Dropoff) * e.table.RoadFactor
	for _, tier := range rates.Distance {
		if km <= tier.UpToKm {
			return tier.Fare
		}
	}
	return 0
}

// PriceAll quotes every service class for the same trip.
func (e *Engine) PriceAll(req Request) []Quote {
	out := make([]Quote, 0, len(domain.ServiceClasses))
	for _, class := range domain.ServiceClasses {
		r := req
		r.Class = class
		out = append(out, e.Price(r))
	}
	return out
}

// AllUnserved reports whether no class can be booked for this trip, which
// blocks progression to payment.
func AllUnserved(quotes []Quote) bool {
	for _, q := range quotes {
		if q.Served {
			return false
		}
	}
	return true
}

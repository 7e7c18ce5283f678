package domain

import (
	"strings"
	"time"
)

// BusinessLocation is the fixed GMT+3 zone the service operates in. Draft
// dates and times are wall-clock values in this zone.
var BusinessLocation = time.FixedZone("GMT+3", 3*60*60)

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

type Contact struct {
	FirstName    string `json:"first_name" validate:"required,max=100"`
	LastName     string `json:"last_name" validate:"required,max=100"`
	Email        string `json:"email" validate:"required,email"`
	MobileNumber string `json:"mobile_number" validate:"required,e164"`
}

type Address struct {
	Street   string `json:"street" validate:"required"`
	City     string `json:"city" validate:"required"`
	State    string `json:"state"`
	Country  string `json:"country" validate:"required,iso3166_1_alpha2"`
	Postcode string `json:"postcode" validate:"required"`
}

type BillingInfo struct {
	Contact Contact  `json:"contact"`
	Address *Address `json:"address,omitempty"`
}

type Extras struct {
	PickupSign           string `json:"pickup_sign" validate:"max=60"`
	FlightNumber         string `json:"flight_number" validate:"max=12"`
	NotesForTheChauffeur string `json:"notes_for_the_chauffeur" validate:"max=1000"`
	ReferenceCode        string `json:"reference_code" validate:"max=64"`
}

// TripDetails is the trip step of the form. Zero-valued fields are left
// untouched by SetTrip.
type TripDetails struct {
	BookingType BookingType `json:"booking_type"`
	Pickup      *Place      `json:"pickup,omitempty"`
	Dropoff     *Place      `json:"dropoff,omitempty"`
	Date        string      `json:"date"`
	Time        string      `json:"time"`
	Duration    string      `json:"duration"`
}

// ReservationDraft accumulates the booking form across steps. It has a
// single owner and is never shared between requests.
type ReservationDraft struct {
	ID                  string       `json:"id"`
	BookingType         BookingType  `json:"booking_type"`
	Pickup              Place        `json:"pickup"`
	Dropoff             Place        `json:"dropoff"`
	Date                string       `json:"date"`
	Time                string       `json:"time"`
	Duration            string       `json:"duration"`
	ServiceClass        ServiceClass `json:"service_class,omitempty"`
	SelectedFare        *Money       `json:"selected_fare,omitempty"`
	Billing             *BillingInfo `json:"billing,omitempty"`
	Extras              Extras       `json:"extras"`
	CorporateAccountRef string       `json:"corporate_account_ref,omitempty"`
	Revision            int          `json:"revision"`
	CreatedAt           time.Time    `json:"created_at"`
	UpdatedAt           time.Time    `json:"updated_at"`
}

func NewDraft(id, corporateRef string, now time.Time) *ReservationDraft {
	return &ReservationDraft{
		ID:                  id,
		BookingType:         BookingTypeOneWay,
		CorporateAccountRef: corporateRef,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
}

func (d *ReservationDraft) IsCorporate() bool {
	return d.CorporateAccountRef != ""
}

// SetTrip applies trip details. A change to anything the fare depends on
// clears the selected fare and bumps Revision, so a fare priced for an
// earlier trip can never be submitted.
func (d *ReservationDraft) SetTrip(t TripDetails) {
	changed := false
	if t.BookingType != "" && t.BookingType != d.BookingType {
		d.BookingType = t.BookingType
		changed = true
	}
	if t.Pickup != nil && !t.Pickup.sameLocation(d.Pickup) {
		d.Pickup = clonePlace(*t.Pickup)
		changed = true
	}
	if t.Dropoff != nil && !t.Dropoff.sameLocation(d.Dropoff) {
		d.Dropoff = clonePlace(*t.Dropoff)
		changed = true
	}
	if t.Duration != "" && t.Duration != d.Duration {
		d.Duration = t.Duration
		changed = true
	}
	if t.Date != "" {
		d.Date = t.Date
	}
	if t.Time != "" {
		d.Time = t.Time
	}
	if changed {
		d.SelectedFare = nil
		d.Revision++
	}
}

// SelectClass records the class and the fare the engine quoted for it.
func (d *ReservationDraft) SelectClass(class ServiceClass, fare Money) {
	d.ServiceClass = class
	f := fare
	d.SelectedFare = &f
}

// ScheduledAt combines Date and Time in the business timezone.
func (d *ReservationDraft) ScheduledAt() (time.Time, error) {
	return time.ParseInLocation(DateLayout+" "+TimeLayout, d.Date+" "+d.Time, BusinessLocation)
}

// Validate lists every field that still blocks submission.
func (d *ReservationDraft) Validate() error {
	verr := &ValidationError{}
	if !d.Pickup.Resolved() {
		verr.Add("pickup", "pickup location is required")
	}
	switch d.BookingType {
	case BookingTypeOneWay:
		if !d.Dropoff.Resolved() {
			verr.Add("dropoff", "dropoff location is required for one-way bookings")
		}
	case BookingTypeByHour:
		if strings.TrimSpace(d.Duration) == "" {
			verr.Add("duration", "duration is required for by-hour bookings")
		} else if _, ok := ParseDuration(d.Duration); !ok {
			verr.Add("duration", "unknown duration")
		}
	default:
		verr.Add("booking_type", "unknown booking type")
	}
	if d.Date == "" {
		verr.Add("date", "date is required")
	} else if _, err := time.ParseInLocation(DateLayout, d.Date, BusinessLocation); err != nil {
		verr.Add("date", "date must be YYYY-MM-DD")
	}
	if d.Time == "" {
		verr.Add("time", "time is required")
	} else if _, err := time.ParseInLocation(TimeLayout, d.Time, BusinessLocation); err != nil {
		verr.Add("time", "time must be HH:MM")
	}
	if d.ServiceClass == "" || d.SelectedFare == nil {
		verr.Add("service_class", ErrFareNotSelected.Error())
	}
	if d.Billing == nil {
		verr.Add("contact", "contact details are required")
	} else {
		c := d.Billing.Contact
		if c.FirstName == "" {
			verr.Add("first_name", "first name is required")
		}
		if c.LastName == "" {
			verr.Add("last_name", "last name is required")
		}
		if c.Email == "" {
			verr.Add("email", "email is required")
		}
		if c.MobileNumber == "" {
			verr.Add("mobile_number", "mobile number is required")
		}
		if !d.IsCorporate() && d.Billing.Address == nil {
			verr.Add("address", "billing address is required")
		}
	}
	return verr.OrNil()
}

func (d *ReservationDraft) Clone() *ReservationDraft {
	if d == nil {
		return nil
	}
	c := *d
	c.Pickup = clonePlace(d.Pickup)
	c.Dropoff = clonePlace(d.Dropoff)
	if d.SelectedFare != nil {
		f := *d.SelectedFare
		c.SelectedFare = &f
	}
	if d.Billing != nil {
		b := *d.Billing
		if d.Billing.Address != nil {
			a := *d.Billing.Address
			b.Address = &a
		}
		c.Billing = &b
	}
	return &c
}

func clonePlace(p Place) Place {
	out := Place{Text: p.Text}
	if p.Location != nil {
		l := *p.Location
		out.Location = &l
	}
	return out
}

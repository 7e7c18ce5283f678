package domain

import (
	"strings"
	"time"
)

type BookingType string

const (
	BookingTypeOneWay BookingType = "one-way"
	BookingTypeByHour BookingType = "by-hour"
)

func ParseBookingType(s string) (BookingType, bool) {
	switch BookingType(strings.ToLower(strings.TrimSpace(s))) {
	case BookingTypeOneWay:
		return BookingTypeOneWay, true
	case BookingTypeByHour:
		return BookingTypeByHour, true
	default:
		return "", false
	}
}

type ServiceClass string

const (
	ClassExecutive ServiceClass = "executive"
	ClassLuxury    ServiceClass = "luxury"
	ClassMPV       ServiceClass = "mpv"
	ClassSUV       ServiceClass = "suv"
)

// ServiceClasses lists every bookable class in display order.
var ServiceClasses = []ServiceClass{ClassExecutive, ClassLuxury, ClassMPV, ClassSUV}

func ParseServiceClass(s string) (ServiceClass, bool) {
	c := ServiceClass(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range ServiceClasses {
		if c == known {
			return c, true
		}
	}
	return "", false
}

// Duration is a by-hour booking bucket as offered to the customer.
type Duration string

const (
	DurationOneHour    Duration = "1 Hour"
	DurationTwoHours   Duration = "2 Hours"
	DurationThreeHours Duration = "3 Hours"
	DurationHalfDay    Duration = "Half Day"
	DurationFullDay    Duration = "Full Day"
)

var durations = []Duration{DurationOneHour, DurationTwoHours, DurationThreeHours, DurationHalfDay, DurationFullDay}

// ParseDuration matches s against the known buckets ignoring case and
// surrounding or repeated spaces.
func ParseDuration(s string) (Duration, bool) {
	norm := strings.ToLower(strings.Join(strings.Fields(s), " "))
	for _, d := range durations {
		if strings.ToLower(string(d)) == norm {
			return d, true
		}
	}
	return "", false
}

// Hours reports the hour count of the hourly buckets. Half and full day
// buckets are flat-rated and return false.
func (d Duration) Hours() (int, bool) {
	switch d {
	case DurationOneHour:
		return 1, true
	case DurationTwoHours:
		return 2, true
	case DurationThreeHours:
		return 3, true
	default:
		return 0, false
	}
}

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
	PaymentStatusCancelled PaymentStatus = "cancelled"
)

// Booking is created exactly once per draft. Only PaymentStatus changes
// after creation.
type Booking struct {
	ID                   int64         `json:"id"`
	Reference            string        `json:"reference"`
	DraftID              string        `json:"draft_id"`
	FirstName            string        `json:"first_name"`
	LastName             string        `json:"last_name"`
	Email                string        `json:"email"`
	MobileNumber         string        `json:"mobile_number"`
	BookingType          BookingType   `json:"booking_type"`
	PickUpLocation       string        `json:"pick_up_location"`
	DropOffLocation      string        `json:"drop_off_location"`
	Duration             *Duration     `json:"duration"`
	DateAndTime          time.Time     `json:"date_and_time"`
	SelectedClass        ServiceClass  `json:"selected_class"`
	Price                Money         `json:"price"`
	PickupSign           string        `json:"pickup_sign,omitempty"`
	FlightNumber         string        `json:"flight_number,omitempty"`
	NotesForTheChauffeur string        `json:"notes_for_the_chauffeur,omitempty"`
	ReferenceCode        string        `json:"reference_code,omitempty"`
	CorporateAccountRef  string        `json:"corporate_account_ref,omitempty"`
	PaymentStatus        PaymentStatus `json:"payment_status"`
	CreatedAt            time.Time     `json:"created_at"`
	UpdatedAt            time.Time     `json:"updated_at"`
}

func (b *Booking) IsCorporate() bool {
	return b.CorporateAccountRef != ""
}

func (b *Booking) FullName() string {
	return strings.TrimSpace(b.FirstName + " " + b.LastName)
}

package domain

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ammanAirport() *Place {
	return &Place{Text: "Queen Alia Airport", Location: &Location{PlaceID: "qaia", Locality: "Airport", Lat: 31.7226, Lng: 35.9932}}
}

func ammanCity() *Place {
	return &Place{Text: "Rainbow St, Amman", Location: &Location{PlaceID: "rainbow", Locality: "Amman", Lat: 31.9515, Lng: 35.9239}}
}

func completeDraft() *ReservationDraft {
	d := NewDraft("d1", "", time.Now())
	d.SetTrip(TripDetails{BookingType: BookingTypeOneWay, Pickup: ammanAirport(), Dropoff: ammanCity(), Date: "2026-11-02", Time: "14:30"})
	d.SelectClass(ClassExecutive, NewMoney(30, DefaultCurrency))
	d.Billing = &BillingInfo{
		Contact: Contact{FirstName: "Lina", LastName: "Haddad", Email: "lina@example.com", MobileNumber: "+962790000000"},
		Address: &Address{Street: "1 Main", City: "Amman", Country: "JO", Postcode: "11118"},
	}
	return d
}

func TestReservationDraft_SetTripClearsFareOnPricingChange(t *testing.T) {
	d := completeDraft()
	rev := d.Revision
	require.NotNil(t, d.SelectedFare)

	d.SetTrip(TripDetails{Date: "2026-11-03", Time: "09:00"})
	assert.NotNil(t, d.SelectedFare, "date and time do not affect the fare")
	assert.Equal(t, rev, d.Revision)

	d.SetTrip(TripDetails{Dropoff: &Place{Text: "Dead Sea", Location: &Location{PlaceID: "ds", Locality: "Sweimeh"}}})
	assert.Nil(t, d.SelectedFare)
	assert.Equal(t, rev+1, d.Revision)
}

func TestReservationDraft_SetTripSameLocationKeepsFare(t *testing.T) {
	d := completeDraft()
	d.SetTrip(TripDetails{Pickup: ammanAirport(), BookingType: BookingTypeOneWay})
	assert.NotNil(t, d.SelectedFare)
}

func TestReservationDraft_Validate(t *testing.T) {
	assert.NoError(t, completeDraft().Validate())

	d := NewDraft("d2", "", time.Now())
	err := d.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	for _, f := range []string{"pickup", "dropoff", "date", "time", "service_class", "contact"} {
		assert.Contains(t, verr.Fields, f)
	}
}

func TestReservationDraft_ValidateByHourNeedsDuration(t *testing.T) {
	d := completeDraft()
	d.SetTrip(TripDetails{BookingType: BookingTypeByHour})
	d.SelectClass(ClassLuxury, NewMoney(40, DefaultCurrency))

	err := d.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Contains(t, verr.Fields, "duration")
	assert.NotContains(t, verr.Fields, "dropoff")
}

func TestReservationDraft_CorporateSkipsAddress(t *testing.T) {
	d := completeDraft()
	d.CorporateAccountRef = "ACME"
	d.Billing.Address = nil
	assert.NoError(t, d.Validate())

	d.CorporateAccountRef = ""
	assert.Error(t, d.Validate())
}

func TestReservationDraft_CloneIsDeep(t *testing.T) {
	d := completeDraft()
	c := d.Clone()
	c.SelectedFare.Amount = 1
	c.Pickup.Location.Locality = "Elsewhere"
	c.Billing.Address.City = "Aqaba"

	assert.Equal(t, int64(3000), d.SelectedFare.Amount)
	assert.Equal(t, "Airport", d.Pickup.Location.Locality)
	assert.Equal(t, "Amman", d.Billing.Address.City)
}

func TestReservationDraft_ScheduledAtUsesBusinessZone(t *testing.T) {
	d := completeDraft()
	at, err := d.ScheduledAt()
	require.NoError(t, err)
	assert.Equal(t, 11, at.UTC().Hour())
	assert.Equal(t, 30, at.UTC().Minute())
}

func TestParseDuration(t *testing.T) {
	d, ok := ParseDuration("  half   DAY ")
	assert.True(t, ok)
	assert.Equal(t, DurationHalfDay, d)

	_, ok = ParseDuration("4 Hours")
	assert.False(t, ok)

	h, ok := DurationTwoHours.Hours()
	assert.True(t, ok)
	assert.Equal(t, 2, h)
	_, ok = DurationFullDay.Hours()
	assert.False(t, ok)
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMoney(t *testing.T) {
	tests := []struct {
		in      string
		want    int64
		wantErr bool
	}{
		{in: "45", want: 4500},
		{in: "45.5", want: 4550},
		{in: "45.00", want: 4500},
		{in: "45.000", want: 4500},
		{in: ".75", want: 75},
		{in: "45.005", wantErr: true},
		{in: "4a.00", wantErr: true},
		{in: "45.-1", wantErr: true},
		{in: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			m, err := ParseMoney(tt.in, DefaultCurrency)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, m.Amount)
			assert.Equal(t, DefaultCurrency, m.Currency)
		})
	}
}

func TestMoney_String(t *testing.T) {
	assert.Equal(t, "45.00 JOD", NewMoney(45, "JOD").String())
	assert.Equal(t, "0.05", Money{Amount: 5}.String())
	assert.Equal(t, "135.00", NewMoney(45, "JOD").Times(3).Decimal())
}

func TestDistanceKm(t *testing.T) {
	amman := Location{Lat: 31.9539, Lng: 35.9106}
	aqaba := Location{Lat: 29.5321, Lng: 35.0063}
	d := DistanceKm(amman, aqaba)
	assert.InDelta(t, 282, d, 5)
	assert.InDelta(t, 0, DistanceKm(amman, amman), 1e-9)
}

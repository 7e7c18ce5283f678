package domain

import (
	"fmt"
	"strconv"
	"strings"
)

const DefaultCurrency = "JOD"

// Money holds an amount in hundredths of Currency, matching the two-decimal
// amounts the payment gateway accepts.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// NewMoney builds Money from whole currency units.
func NewMoney(units int64, currency string) Money {
	return Money{Amount: units * 100, Currency: currency}
}

func (m Money) IsZero() bool {
	return m.Amount == 0
}

func (m Money) Times(n int64) Money {
	return Money{Amount: m.Amount * n, Currency: m.Currency}
}

func (m Money) Equal(o Money) bool {
	return m.Amount == o.Amount && m.Currency == o.Currency
}

// Decimal renders the amount as "45.00".
func (m Money) Decimal() string {
	sign := ""
	a := m.Amount
	if a < 0 {
		sign = "-"
		a = -a
	}
	return fmt.Sprintf("%s%d.%02d", sign, a/100, a%100)
}

func (m Money) String() string {
	if m.Currency == "" {
		return m.Decimal()
	}
	return m.Decimal() + " " + m.Currency
}

// ParseMoney parses decimal amounts such as "45", "45.5" or "45.000".
// Precision beyond hundredths is accepted only when it is zero.
func ParseMoney(s, currency string) (Money, error) {
	raw := strings.TrimSpace(s)
	if raw == "" {
		return Money{}, fmt.Errorf("empty amount")
	}
	neg := strings.HasPrefix(raw, "-")
	whole, frac, _ := strings.Cut(strings.TrimPrefix(raw, "-"), ".")
	if whole == "" {
		whole = "0"
	}
	if !digitsOnly(whole) || !digitsOnly(frac) {
		return Money{}, fmt.Errorf("invalid amount %q", s)
	}
	if len(frac) > 2 {
		if strings.TrimRight(frac[2:], "0") != "" {
			return Money{}, fmt.Errorf("amount %q has more than two decimals", s)
		}
		frac = frac[:2]
	}
	for len(frac) < 2 {
		frac += "0"
	}
	units, err := strconv.ParseInt(whole, 10, 64)
	if err != nil {
		return Money{}, fmt.Errorf("invalid amount %q: %w", s, err)
	}
	cents, _ := strconv.ParseInt(frac, 10, 64)
	amount := units*100 + cents
	if neg {
		amount = -amount
	}
	return Money{Amount: amount, Currency: currency}, nil
}

func digitsOnly(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

package domain

import "time"

// PaymentSession is one checkout attempt at the gateway.
type PaymentSession struct {
	SessionID             string    `json:"id"`
	BookingID             int64     `json:"booking_id"`
	MerchantTransactionID string    `json:"merchant_transaction_id"`
	Amount                Money     `json:"amount"`
	CreatedAt             time.Time `json:"created_at"`
}

type OutcomeKind string

const (
	OutcomeSuccess                       OutcomeKind = "success"
	OutcomeFailure                       OutcomeKind = "failure"
	OutcomeIndeterminateTreatedAsSuccess OutcomeKind = "indeterminate_treated_as_success"
)

// PaymentOutcome is the classified result of the single status lookup for
// a resource path.
type PaymentOutcome struct {
	Kind         OutcomeKind `json:"kind"`
	ResourcePath string      `json:"resource_path"`
	PaymentID    string      `json:"payment_id,omitempty"`
	Code         string      `json:"code"`
	Description  string      `json:"description,omitempty"`
	Amount       string      `json:"amount,omitempty"`
	Currency     string      `json:"currency,omitempty"`
	ResolvedAt   time.Time   `json:"resolved_at"`
}

func (o PaymentOutcome) Succeeded() bool {
	return o.Kind == OutcomeSuccess || o.Kind == OutcomeIndeterminateTreatedAsSuccess
}

package payment

import (
	"context"
	"errors"
	"strconv"
	"sync"
	"time"

	"github.com/Domenick1991/chauffeur/internal/domain"
	"github.com/sirupsen/logrus"
)

var ErrInitiationFailed = errors.New("payment initialization failed")

// InitiationError is what the UI shows when a checkout could not be opened.
// Fields is set when the provider rejected specific parameters.
type InitiationError struct {
	Message string
	Fields  []ParameterError
	Cause   error
}

func (e *InitiationError) Error() string {
	return e.Message
}

func (e *InitiationError) Is(target error) bool {
	return target == ErrInitiationFailed
}

func (e *InitiationError) Unwrap() error {
	return e.Cause
}

type Initiator struct {
	gateway Gateway
	log     *logrus.Logger
	now     func() time.Time

	mu     sync.Mutex
	lastTx int64
}

func NewInitiator(gateway Gateway, logger *logrus.Logger) *Initiator {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Initiator{gateway: gateway, log: logger, now: time.Now}
}

// Initiate opens a checkout session. Every call uses a fresh merchant
// transaction id, so a retried attempt is a new transaction at the provider.
func (i *Initiator) Initiate(ctx context.Context, bookingID int64, amount domain.Money, billing domain.BillingInfo) (*domain.PaymentSession, error) {
	now := i.now()
	txID := i.nextTransactionID(now)
	logger := i.log.WithFields(logrus.Fields{
		"booking_id":              bookingID,
		"merchant_transaction_id": txID,
		"amount":                  amount.String(),
	})

	resp, err := i.gateway.CreateCheckout(ctx, CheckoutRequest{
		Amount:                amount,
		MerchantTransactionID: txID,
		Billing:               billing,
	})
	if err != nil {
		var gerr *GatewayError
		if errors.As(err, &gerr) && len(gerr.Result.ParameterErrors) > 0 {
			logger.WithField("parameter_errors", len(gerr.Result.ParameterErrors)).Warn("checkout rejected")
			return nil, &InitiationError{
				Message: "payment initialization failed: invalid parameters",
				Fields:  gerr.Result.ParameterErrors,
				Cause:   err,
			}
		}
		logger.WithError(err).Error("checkout creation failed")
		return nil, &InitiationError{Message: ErrInitiationFailed.Error(), Cause: err}
	}
	if resp.ID == "" {
		if len(resp.Result.ParameterErrors) > 0 {
			return nil, &InitiationError{Message: "payment initialization failed: invalid parameters", Fields: resp.Result.ParameterErrors}
		}
		logger.WithField("code", resp.Result.Code).Error("checkout response without id")
		return nil, &InitiationError{Message: ErrInitiationFailed.Error()}
	}

	logger.WithField("session_id", resp.ID).Info("checkout session opened")
	return &domain.PaymentSession{
		SessionID:             resp.ID,
		BookingID:             bookingID,
		MerchantTransactionID: txID,
		Amount:                amount,
		CreatedAt:             now,
	}, nil
}

// nextTransactionID is the attempt time in nanoseconds, bumped when two
// attempts land on the same clock reading.
func (i *Initiator) nextTransactionID(now time.Time) string {
	i.mu.Lock()
	defer i.mu.Unlock()
	n := now.UnixNano()
	if n <= i.lastTx {
		n = i.lastTx + 1
	}
	i.lastTx = n
	return strconv.FormatInt(n, 10)
}

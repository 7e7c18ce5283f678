package email

import (
	"context"
	"fmt"
	"time"

	"github.com/Domenick1991/chauffeur/internal/domain"
	"github.com/Domenick1991/chauffeur/internal/kafka"
	"github.com/sirupsen/logrus"
)

type BookingReader interface {
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
}

type InvoiceRenderer interface {
	Render(b *domain.Booking, issuedAt time.Time) ([]byte, string, error)
}

// Notifier turns booking events into customer emails.
type Notifier struct {
	bookings BookingReader
	invoices InvoiceRenderer
	sender   Sender
	log      *logrus.Logger
	now      func() time.Time
}

func NewNotifier(bookings BookingReader, invoices InvoiceRenderer, sender Sender, logger *logrus.Logger) *Notifier {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Notifier{bookings: bookings, invoices: invoices, sender: sender, log: logger, now: time.Now}
}

// Handle is the consumer callback for the notifications topic. Unknown
// event types are ignored.
func (n *Notifier) Handle(ctx context.Context, event kafka.BookingEvent) error {
	logger := n.log.WithFields(logrus.Fields{"type": event.Type, "booking_id": event.BookingID})

	switch event.Type {
	case kafka.EventBookingCreated:
		if !event.Corporate {
			return nil
		}
		return n.sendConfirmation(ctx, event)
	case kafka.EventBookingPaid:
		return n.sendConfirmation(ctx, event)
	case kafka.EventBookingPaymentFailed:
		return n.sender.Send(ctx, Message{
			To:      event.Email,
			Subject: "Payment not completed for booking " + event.Reference,
			Body: fmt.Sprintf("Dear %s,\n\nwe could not confirm your payment of %s %s (code %s). "+
				"Your booking is still held; you can try the payment again.\n", event.FullName, event.Amount, event.Currency, event.ResultCode),
		})
	case kafka.EventBookingCancelled:
		return n.sender.Send(ctx, Message{
			To:      event.Email,
			Subject: "Booking " + event.Reference + " cancelled",
			Body:    fmt.Sprintf("Dear %s,\n\nyour booking was cancelled because payment was not completed in time.\n", event.FullName),
		})
	default:
		logger.Debug("ignoring event")
		return nil
	}
}

func (n *Notifier) sendConfirmation(ctx context.Context, event kafka.BookingEvent) error {
	b, err := n.bookings.GetByID(ctx, event.BookingID)
	if err != nil {
		return fmt.Errorf("load booking %d: %w", event.BookingID, err)
	}
	pdf, filename, err := n.invoices.Render(b, n.now())
	if err != nil {
		return err
	}
	return n.sender.Send(ctx, Message{
		To:      b.Email,
		Subject: "Booking confirmed: " + b.Reference,
		Body: fmt.Sprintf("Dear %s,\n\nyour %s chauffeur on %s is confirmed. Total: %s.\nYour invoice is attached.\n",
			b.FullName(), b.SelectedClass, b.DateAndTime.In(domain.BusinessLocation).Format("2 Jan 2006 15:04"), b.Price.String()),
		Attachments: []Attachment{{Filename: filename, ContentType: "application/pdf", Data: pdf}},
	})
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/chauffeur/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BookingRepository interface {
	// Create inserts b unless a booking for the same draft exists, in which
	// case b is filled from the existing row and created is false.
	Create(ctx context.Context, b *domain.Booking) (created bool, err error)
	GetByID(ctx context.Context, id int64) (*domain.Booking, error)
	GetByDraftID(ctx context.Context, draftID string) (*domain.Booking, error)
	// TransitionPaymentStatus moves a booking from one payment status to
	// another. changed is false when the booking was not in status from.
	TransitionPaymentStatus(ctx context.Context, id int64, from, to domain.PaymentStatus) (b *domain.Booking, changed bool, err error)
	CancelUnpaidBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error)
}

type PGBookingRepository struct {
	db *pgxpool.Pool
}

func NewBookingRepository(db *pgxpool.Pool) BookingRepository {
	return &PGBookingRepository{db: db}
}

const bookingColumns = `id, reference, draft_id, first_name, last_name, email, mobile_number, booking_type,
	pick_up_location, drop_off_location, duration, date_and_time, selected_class, price_amount, price_currency,
	pickup_sign, flight_number, notes_for_the_chauffeur, reference_code, corporate_account_ref, payment_status,
	created_at, updated_at`

func (r *PGBookingRepository) Create(ctx context.Context, b *domain.Booking) (bool, error) {
	var duration *string
	if b.Duration != nil {
		d := string(*b.Duration)
		duration = &d
	}
	row := r.db.QueryRow(ctx, `INSERT INTO bookings (reference, draft_id, first_name, last_name, email, mobile_number,
		booking_type, pick_up_location, drop_off_location, duration, date_and_time, selected_class, price_amount,
		price_currency, pickup_sign, flight_number, notes_for_the_chauffeur, reference_code, corporate_account_ref,
		payment_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (draft_id) DO NOTHING
		RETURNING id, created_at, updated_at`,
		b.Reference, b.DraftID, b.FirstName, b.LastName, b.Email, b.MobileNumber,
		b.BookingType, b.PickUpLocation, b.DropOffLocation, duration, b.DateAndTime, b.SelectedClass, b.Price.Amount,
		b.Price.Currency, b.PickupSign, b.FlightNumber, b.NotesForTheChauffeur, b.ReferenceCode, b.CorporateAccountRef,
		b.PaymentStatus)
	err := row.Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return false, fmt.Errorf("insert booking: %w", err)
	}

	existing, err := r.GetByDraftID(ctx, b.DraftID)
	if err != nil {
		return false, err
	}
	*b = *existing
	return false, nil
}

func (r *PGBookingRepository) GetByID(ctx context.Context, id int64) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE id=$1`, id))
}

func (r *PGBookingRepository) GetByDraftID(ctx context.Context, draftID string) (*domain.Booking, error) {
	return scanBooking(r.db.QueryRow(ctx, `SELECT `+bookingColumns+` FROM bookings WHERE draft_id=$1`, draftID))
}

func (r *PGBookingRepository) TransitionPaymentStatus(ctx context.Context, id int64, from, to domain.PaymentStatus) (*domain.Booking, bool, error) {
	b, err := scanBooking(r.db.QueryRow(ctx, `UPDATE bookings SET payment_status=$1, updated_at=now()
		WHERE id=$2 AND payment_status=$3 RETURNING `+bookingColumns, to, id, from))
	if err == nil {
		return b, true, nil
	}
	if !errors.Is(err, domain.ErrBookingNotFound) {
		return nil, false, err
	}
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return current, false, nil
}

func (r *PGBookingRepository) CancelUnpaidBefore(ctx context.Context, deadline time.Time) ([]domain.Booking, error) {
	rows, err := r.db.Query(ctx, `UPDATE bookings SET payment_status=$1, updated_at=now()
		WHERE payment_status=$2 AND corporate_account_ref = '' AND created_at <= $3
		RETURNING `+bookingColumns, domain.PaymentStatusCancelled, domain.PaymentStatusPending, deadline)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cancelled []domain.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		cancelled = append(cancelled, *b)
	}
	return cancelled, rows.Err()
}

func scanBooking(row pgx.Row) (*domain.Booking, error) {
	var (
		b        domain.Booking
		duration *string
	)
	err := row.Scan(&b.ID, &b.Reference, &b.DraftID, &b.FirstName, &b.LastName, &b.Email, &b.MobileNumber, &b.BookingType,
		&b.PickUpLocation, &b.DropOffLocation, &duration, &b.DateAndTime, &b.SelectedClass, &b.Price.Amount, &b.Price.Currency,
		&b.PickupSign, &b.FlightNumber, &b.NotesForTheChauffeur, &b.ReferenceCode, &b.CorporateAccountRef, &b.PaymentStatus,
		&b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrBookingNotFound
		}
		return nil, err
	}
	if duration != nil {
		d := domain.Duration(*duration)
		b.Duration = &d
	}
	return &b, nil
}

var _ BookingRepository = (*PGBookingRepository)(nil)

package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/Domenick1991/chauffeur/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrSessionNotFound = errors.New("payment session not found")

type PaymentRepository interface {
	SaveSession(ctx context.Context, s *domain.PaymentSession) error
	GetSession(ctx context.Context, sessionID string) (*domain.PaymentSession, error)
	ListSessions(ctx context.Context, bookingID int64) ([]domain.PaymentSession, error)
	// SaveOutcome records the outcome for its resource path once. inserted
	// is false when an outcome for that path was already stored.
	SaveOutcome(ctx context.Context, bookingID int64, o domain.PaymentOutcome) (inserted bool, err error)
	// GetOutcome returns nil and no error when no outcome is stored.
	GetOutcome(ctx context.Context, resourcePath string) (*domain.PaymentOutcome, error)
}

type PGPaymentRepository struct {
	db *pgxpool.Pool
}

func NewPaymentRepository(db *pgxpool.Pool) PaymentRepository {
	return &PGPaymentRepository{db: db}
}

func (r *PGPaymentRepository) SaveSession(ctx context.Context, s *domain.PaymentSession) error {
	_, err := r.db.Exec(ctx, `INSERT INTO payment_sessions (session_id, booking_id, merchant_transaction_id, amount, currency, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		s.SessionID, s.BookingID, s.MerchantTransactionID, s.Amount.Amount, s.Amount.Currency, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment session: %w", err)
	}
	return nil
}

func (r *PGPaymentRepository) GetSession(ctx context.Context, sessionID string) (*domain.PaymentSession, error) {
	var s domain.PaymentSession
	err := r.db.QueryRow(ctx, `SELECT session_id, booking_id, merchant_transaction_id, amount, currency, created_at
		FROM payment_sessions WHERE session_id=$1`, sessionID).
		Scan(&s.SessionID, &s.BookingID, &s.MerchantTransactionID, &s.Amount.Amount, &s.Amount.Currency, &s.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *PGPaymentRepository) ListSessions(ctx context.Context, bookingID int64) ([]domain.PaymentSession, error) {
	rows, err := r.db.Query(ctx, `SELECT session_id, booking_id, merchant_transaction_id, amount, currency, created_at
		FROM payment_sessions WHERE booking_id=$1 ORDER BY created_at`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.PaymentSession
	for rows.Next() {
		var s domain.PaymentSession
		if err := rows.Scan(&s.SessionID, &s.BookingID, &s.MerchantTransactionID, &s.Amount.Amount, &s.Amount.Currency, &s.CreatedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

func (r *PGPaymentRepository) SaveOutcome(ctx context.Context, bookingID int64, o domain.PaymentOutcome) (bool, error) {
	cmd, err := r.db.Exec(ctx, `INSERT INTO payment_outcomes (resource_path, booking_id, kind, payment_id, code, description, amount, currency, resolved_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (resource_path) DO NOTHING`,
		o.ResourcePath, bookingID, o.Kind, o.PaymentID, o.Code, o.Description, o.Amount, o.Currency, o.ResolvedAt)
	if err != nil {
		return false, fmt.Errorf("insert payment outcome: %w", err)
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *PGPaymentRepository) GetOutcome(ctx context.Context, resourcePath string) (*domain.PaymentOutcome, error) {
	var (
		o    domain.PaymentOutcome
		kind string
	)
	err := r.db.QueryRow(ctx, `SELECT resource_path, kind, payment_id, code, description, amount, currency, resolved_at
		FROM payment_outcomes WHERE resource_path=$1`, resourcePath).
		Scan(&o.ResourcePath, &kind, &o.PaymentID, &o.Code, &o.Description, &o.Amount, &o.Currency, &o.ResolvedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select payment outcome: %w", err)
	}
	o.Kind = domain.OutcomeKind(kind)
	return &o, nil
}

var _ PaymentRepository = (*PGPaymentRepository)(nil)

package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Domenick1991/chauffeur/internal/domain"
	"github.com/Domenick1991/chauffeur/internal/guard"
	"github.com/Domenick1991/chauffeur/internal/kafka"
	"github.com/Domenick1991/chauffeur/internal/payment"
	"github.com/Domenick1991/chauffeur/internal/pricing"
	"github.com/Domenick1991/chauffeur/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

var (
	ErrDraftSubmitted       = errors.New("draft is already being submitted")
	ErrSubmissionInProgress = errors.New("draft is being submitted by another instance")
	ErrPaymentNotRequired   = errors.New("corporate bookings are billed to the account")
	ErrBookingNotPayable    = errors.New("booking is not awaiting payment")
	ErrPaymentsDisabled     = errors.New("card payments are not configured")
	ErrForeignResourcePath  = errors.New("resource path does not belong to this booking")
)

type BookingUseCase interface {
	StartDraft(ctx context.Context, corporateRef string) (*domain.ReservationDraft, error)
	GetDraft(ctx context.Context, id string) (*domain.ReservationDraft, error)
	UpdateTrip(ctx context.Context, id string, trip domain.TripDetails) (*domain.ReservationDraft, error)
	Quotes(ctx context.Context, id string) (*QuoteSheet, error)
	SelectClass(ctx context.Context, id string, class domain.ServiceClass) (*domain.ReservationDraft, error)
	UpdateContact(ctx context.Context, id string, billing domain.BillingInfo, extras domain.Extras) (*domain.ReservationDraft, error)
	SubmitDraft(ctx context.Context, id string) (*SubmitResult, error)
	RetrySubmission(ctx context.Context, id string) (*SubmitResult, error)
	Checkout(ctx context.Context, bookingID int64) (*domain.PaymentSession, error)
	ConfirmPayment(ctx context.Context, bookingID int64, resourcePath string) (*PaymentConfirmation, error)
	AbandonDraft(ctx context.Context, id string) error
	GetBooking(ctx context.Context, id int64) (*domain.Booking, error)
	ExpireUnpaidBookings(ctx context.Context) ([]domain.Booking, error)
}

type Cache interface {
	AcquireDraftLock(ctx context.Context, draftID string, ttl time.Duration) (bool, error)
	ReleaseDraftLock(ctx context.Context, draftID string) error
}

type Producer interface {
	Publish(ctx context.Context, topic, key string, value interface{}) error
}

type LocationResolver interface {
	Resolve(ctx context.Context, p domain.Place) (*domain.Location, error)
}

type PaymentInitiator interface {
	Initiate(ctx context.Context, bookingID int64, amount domain.Money, billing domain.BillingInfo) (*domain.PaymentSession, error)
}

type PaymentReconciler interface {
	Resolve(ctx context.Context, resourcePath string) (domain.PaymentOutcome, error)
	Discard(resourcePath string)
}

type QuoteSheet struct {
	DraftID  string          `json:"draft_id"`
	Revision int             `json:"revision"`
	Quotes   []pricing.Quote `json:"quotes"`
	Unserved bool            `json:"unserved"`
}

type SubmitResult struct {
	Booking *domain.Booking
	Session *domain.PaymentSession
}

type PaymentConfirmation struct {
	Booking   *domain.Booking
	Outcome   domain.PaymentOutcome
	Discarded bool
}

type BookingService struct {
	bookings           repository.BookingRepository
	drafts             DraftStore
	engine             *pricing.Engine
	producer           Producer
	bookingTopic       string
	notificationsTopic string
	confirmationTTL    time.Duration

	cache      Cache
	lockTTL    time.Duration
	resolver   LocationResolver
	initiator  PaymentInitiator
	reconciler PaymentReconciler
	payments   repository.PaymentRepository
	log        *logrus.Logger
	maxRetries int
	draftTTL   time.Duration
	now        func() time.Time

	draftLocks *keyedMutex
	guards     *guard.Registry[*domain.Booking]
	checkouts  *guard.Registry[*domain.PaymentSession]
}

type BookingServiceOption func(*BookingService)

func WithNotificationsTopic(topic string) BookingServiceOption {
	return func(s *BookingService) {
		s.notificationsTopic = topic
	}
}

// WithCache enables the cross-instance draft lock taken while a booking is
// created.
func WithCache(cache Cache, lockTTL time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.cache = cache
		s.lockTTL = lockTTL
	}
}

func WithResolver(resolver LocationResolver) BookingServiceOption {
	return func(s *BookingService) {
		s.resolver = resolver
	}
}

func WithPayments(initiator PaymentInitiator, reconciler PaymentReconciler, payments repository.PaymentRepository) BookingServiceOption {
	return func(s *BookingService) {
		s.initiator = initiator
		s.reconciler = reconciler
		s.payments = payments
	}
}

func WithLogger(logger *logrus.Logger) BookingServiceOption {
	return func(s *BookingService) {
		s.log = logger
	}
}

// WithMaxRetries sets how many explicit retries a failed submission gets.
func WithMaxRetries(n int) BookingServiceOption {
	return func(s *BookingService) {
		s.maxRetries = n
	}
}

// WithDraftTTL sets how long an untouched draft is kept by stores that do
// not expire drafts themselves.
func WithDraftTTL(ttl time.Duration) BookingServiceOption {
	return func(s *BookingService) {
		s.draftTTL = ttl
	}
}

func NewBookingService(
	bookings repository.BookingRepository,
	drafts DraftStore,
	engine *pricing.Engine,
	producer Producer,
	bookingTopic string,
	confirmationTTL time.Duration,
	opts ...BookingServiceOption,
) *BookingService {
	service := &BookingService{
		bookings:        bookings,
		drafts:          drafts,
		engine:          engine,
		producer:        producer,
		bookingTopic:    bookingTopic,
		confirmationTTL: confirmationTTL,
		lockTTL:         30 * time.Second,
		log:             logrus.StandardLogger(),
		maxRetries:      guard.DefaultMaxRetries,
		now:             time.Now,
		draftLocks:      newKeyedMutex(),
	}
	for _, opt := range opts {
		opt(service)
	}
	service.guards = guard.NewRegistry[*domain.Booking](service.maxRetries)
	service.checkouts = guard.NewRegistry[*domain.PaymentSession](0)
	return service
}

func (s *BookingService) StartDraft(ctx context.Context, corporateRef string) (*domain.ReservationDraft, error) {
	d := domain.NewDraft(uuid.NewString(), corporateRef, s.now())
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	s.log.WithFields(logrus.Fields{"draft_id": d.ID, "corporate": d.IsCorporate()}).Debug("draft started")
	return d, nil
}

func (s *BookingService) GetDraft(ctx context.Context, id string) (*domain.ReservationDraft, error) {
	return s.drafts.Get(ctx, id)
}

func (s *BookingService) UpdateTrip(ctx context.Context, id string, trip domain.TripDetails) (*domain.ReservationDraft, error) {
	trip, err := normalizeTrip(trip)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, id, func(d *domain.ReservationDraft) error {
		if err := s.resolvePlace(ctx, "pickup", trip.Pickup); err != nil {
			return err
		}
		if err := s.resolvePlace(ctx, "dropoff", trip.Dropoff); err != nil {
			return err
		}
		d.SetTrip(trip)
		return nil
	})
}

func (s *BookingService) Quotes(ctx context.Context, id string) (*QuoteSheet, error) {
	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	quotes := s.engine.PriceAll(pricing.RequestFromDraft(d, ""))
	return &QuoteSheet{
		DraftID:  d.ID,
		Revision: d.Revision,
		Quotes:   quotes,
		Unserved: pricing.AllUnserved(quotes),
	}, nil
}

func (s *BookingService) SelectClass(ctx context.Context, id string, class domain.ServiceClass) (*domain.ReservationDraft, error) {
	class, ok := domain.ParseServiceClass(string(class))
	if !ok {
		return nil, &domain.ValidationError{Fields: map[string]string{"service_class": "unknown service class"}}
	}
	return s.mutate(ctx, id, func(d *domain.ReservationDraft) error {
		q := s.engine.Price(pricing.RequestFromDraft(d, class))
		if !q.Served {
			return domain.ErrRouteUnserved
		}
		d.SelectClass(class, q.Fare)
		return nil
	})
}

func (s *BookingService) UpdateContact(ctx context.Context, id string, billing domain.BillingInfo, extras domain.Extras) (*domain.ReservationDraft, error) {
	return s.mutate(ctx, id, func(d *domain.ReservationDraft) error {
		if err := validateContact(billing, extras, d.IsCorporate()); err != nil {
			return err
		}
		b := billing
		d.Billing = &b
		d.Extras = extras
		return nil
	})
}

// mutate applies fn to the stored draft under the draft's lock. Drafts whose
// submission has started cannot change any more.
func (s *BookingService) mutate(ctx context.Context, id string, fn func(*domain.ReservationDraft) error) (*domain.ReservationDraft, error) {
	unlock := s.draftLocks.Lock(id)
	defer unlock()

	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if g, ok := s.guards.Lookup(id); ok {
		switch g.State() {
		case guard.StateValidating, guard.StateSubmitting, guard.StateCreated:
			return nil, ErrDraftSubmitted
		}
	}
	if err := fn(d); err != nil {
		return nil, err
	}
	d.UpdatedAt = s.now()
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, fmt.Errorf("save draft: %w", err)
	}
	return d, nil
}

// SubmitDraft creates the booking for a draft at most once, then opens a
// checkout session unless the draft is billed to a corporate account.
// Repeated or concurrent calls return the same booking and session.
func (s *BookingService) SubmitDraft(ctx context.Context, id string) (*SubmitResult, error) {
	if _, err := s.drafts.Get(ctx, id); err != nil {
		return nil, err
	}

	var draft *domain.ReservationDraft
	b, err := s.guards.For(id).Do(ctx,
		func() error {
			d, err := s.submittableDraft(ctx, id)
			if err != nil {
				return err
			}
			draft = d
			return nil
		},
		func(cctx context.Context) (*domain.Booking, error) {
			return s.createBooking(cctx, draft)
		},
	)
	if err != nil {
		return nil, err
	}

	result := &SubmitResult{Booking: b}
	if b.IsCorporate() || s.initiator == nil {
		return result, nil
	}

	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrDraftNotFound) {
			s.log.WithField("draft_id", id).Info("draft abandoned during submission, skipping checkout")
		}
		return result, err
	}
	billing := domain.BillingInfo{}
	if d.Billing != nil {
		billing = *d.Billing
	}

	session, err := s.checkouts.For(id).Do(ctx, nil, func(cctx context.Context) (*domain.PaymentSession, error) {
		return s.openCheckout(cctx, b, billing)
	})
	if err != nil {
		// The booking stays; a later submit opens a fresh checkout.
		s.checkouts.Forget(id)
		var failed *guard.FailedError
		if errors.As(err, &failed) {
			err = failed.Cause
		}
		return result, err
	}
	result.Session = session
	return result, nil
}

func (s *BookingService) submittableDraft(ctx context.Context, id string) (*domain.ReservationDraft, error) {
	unlock := s.draftLocks.Lock(id)
	defer unlock()

	d, err := s.drafts.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}
	q := s.engine.Price(pricing.RequestFromDraft(d, d.ServiceClass))
	if !q.Served {
		return nil, domain.ErrRouteUnserved
	}
	if !q.Fare.Equal(*d.SelectedFare) {
		return nil, domain.ErrStaleFare
	}
	return d, nil
}

func (s *BookingService) createBooking(ctx context.Context, d *domain.ReservationDraft) (*domain.Booking, error) {
	logger := s.log.WithField("draft_id", d.ID)

	if s.cache != nil {
		ok, err := s.cache.AcquireDraftLock(ctx, d.ID, s.lockTTL)
		if err != nil {
			return nil, fmt.Errorf("acquire draft lock: %w", err)
		}
		if !ok {
			return nil, ErrSubmissionInProgress
		}
		defer func() {
			if err := s.cache.ReleaseDraftLock(ctx, d.ID); err != nil {
				logger.WithError(err).Warn("release draft lock")
			}
		}()
	}

	b, err := bookingFromDraft(d)
	if err != nil {
		return nil, err
	}

	created, err := s.bookings.Create(ctx, b)
	if err != nil {
		logger.WithError(err).Error("create booking")
		return nil, err
	}
	if !created {
		logger.WithField("booking_id", b.ID).Info("booking already existed for draft")
		return b, nil
	}

	logger.WithFields(logrus.Fields{"booking_id": b.ID, "price": b.Price.String()}).Info("booking created")
	if err := s.publish(ctx, kafka.EventBookingCreated, b, ""); err != nil {
		logger.WithError(err).Warn("failed to publish booking_created")
	}
	return b, nil
}

func bookingFromDraft(d *domain.ReservationDraft) (*domain.Booking, error) {
	at, err := d.ScheduledAt()
	if err != nil {
		return nil, &domain.ValidationError{Fields: map[string]string{"date": err.Error()}}
	}
	status := domain.PaymentStatusPending
	if d.IsCorporate() {
		status = domain.PaymentStatusCompleted
	}
	b := &domain.Booking{
		Reference:            uuid.NewString(),
		DraftID:              d.ID,
		FirstName:            d.Billing.Contact.FirstName,
		LastName:             d.Billing.Contact.LastName,
		Email:                d.Billing.Contact.Email,
		MobileNumber:         d.Billing.Contact.MobileNumber,
		BookingType:          d.BookingType,
		PickUpLocation:       d.Pickup.Label(),
		DateAndTime:          at,
		SelectedClass:        d.ServiceClass,
		Price:                *d.SelectedFare,
		PickupSign:           d.Extras.PickupSign,
		FlightNumber:         d.Extras.FlightNumber,
		NotesForTheChauffeur: d.Extras.NotesForTheChauffeur,
		ReferenceCode:        d.Extras.ReferenceCode,
		CorporateAccountRef:  d.CorporateAccountRef,
		PaymentStatus:        status,
	}
	switch d.BookingType {
	case domain.BookingTypeOneWay:
		b.DropOffLocation = d.Dropoff.Label()
	case domain.BookingTypeByHour:
		if dur, ok := domain.ParseDuration(d.Duration); ok {
			b.Duration = &dur
		}
	}
	return b, nil
}

// RetrySubmission is the explicit user action after a failed submission.
func (s *BookingService) RetrySubmission(ctx context.Context, id string) (*SubmitResult, error) {
	g, ok := s.guards.Lookup(id)
	if !ok {
		return nil, guard.ErrRetryNotAllowed
	}
	if err := g.Retry(); err != nil {
		return nil, err
	}
	s.log.WithField("draft_id", id).Info("retrying submission")
	return s.SubmitDraft(ctx, id)
}

// Checkout opens a new checkout session for an unpaid booking. Each call is
// a new attempt with its own merchant transaction id.
func (s *BookingService) Checkout(ctx context.Context, bookingID int64) (*domain.PaymentSession, error) {
	if s.initiator == nil {
		return nil, ErrPaymentsDisabled
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.IsCorporate() {
		return nil, ErrPaymentNotRequired
	}
	if b.PaymentStatus != domain.PaymentStatusPending {
		return nil, ErrBookingNotPayable
	}

	billing := domain.BillingInfo{Contact: domain.Contact{
		FirstName:    b.FirstName,
		LastName:     b.LastName,
		Email:        b.Email,
		MobileNumber: b.MobileNumber,
	}}
	if d, err := s.drafts.Get(ctx, b.DraftID); err == nil && d.Billing != nil {
		billing = *d.Billing
	}
	return s.openCheckout(ctx, b, billing)
}

func (s *BookingService) openCheckout(ctx context.Context, b *domain.Booking, billing domain.BillingInfo) (*domain.PaymentSession, error) {
	session, err := s.initiator.Initiate(ctx, b.ID, b.Price, billing)
	if err != nil {
		return nil, err
	}
	if s.payments != nil {
		if err := s.payments.SaveSession(ctx, session); err != nil {
			return nil, err
		}
	}
	return session, nil
}

// ConfirmPayment runs the single status check for resourcePath and records
// its outcome. Only the first recording of an outcome changes the booking.
func (s *BookingService) ConfirmPayment(ctx context.Context, bookingID int64, resourcePath string) (*PaymentConfirmation, error) {
	if s.reconciler == nil {
		return nil, ErrPaymentsDisabled
	}
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if resourcePath != "" {
		if err := s.checkResourcePath(ctx, bookingID, resourcePath); err != nil {
			return nil, err
		}
	}

	outcome, err := s.reconciler.Resolve(ctx, resourcePath)
	if errors.Is(err, payment.ErrCheckDiscarded) {
		// Recorded so the path is never looked up again, but not acted on.
		if resourcePath != "" && s.payments != nil {
			if _, err := s.payments.SaveOutcome(ctx, bookingID, outcome); err != nil {
				return nil, err
			}
		}
		return &PaymentConfirmation{Booking: b, Outcome: outcome, Discarded: true}, nil
	}
	if err != nil {
		return nil, err
	}
	confirmation := &PaymentConfirmation{Booking: b, Outcome: outcome}
	if resourcePath == "" || s.payments == nil {
		return confirmation, nil
	}

	logger := s.log.WithFields(logrus.Fields{"booking_id": bookingID, "kind": outcome.Kind, "code": outcome.Code})
	inserted, err := s.payments.SaveOutcome(ctx, bookingID, outcome)
	if err != nil {
		return nil, err
	}
	if !inserted {
		return confirmation, nil
	}

	if !outcome.Succeeded() {
		logger.Info("payment not completed")
		if err := s.publish(ctx, kafka.EventBookingPaymentFailed, b, outcome.Code); err != nil {
			logger.WithError(err).Warn("failed to publish booking_payment_failed")
		}
		return confirmation, nil
	}

	updated, changed, err := s.bookings.TransitionPaymentStatus(ctx, bookingID, domain.PaymentStatusPending, domain.PaymentStatusCompleted)
	if err != nil {
		return nil, err
	}
	confirmation.Booking = updated
	if !changed {
		logger.WithField("payment_status", updated.PaymentStatus).Warn("payment succeeded for a booking that was not pending")
		return confirmation, nil
	}
	logger.Info("booking paid")
	if outcome.Amount != "" {
		paid, err := domain.ParseMoney(outcome.Amount, outcome.Currency)
		if err != nil || !paid.Equal(b.Price) {
			logger.WithFields(logrus.Fields{"paid": outcome.Amount + " " + outcome.Currency, "price": b.Price.String()}).
				Warn("paid amount differs from booking price")
		}
	}
	if err := s.publish(ctx, kafka.EventBookingPaid, updated, outcome.Code); err != nil {
		logger.WithError(err).Warn("failed to publish booking_paid")
	}
	return confirmation, nil
}

func (s *BookingService) checkResourcePath(ctx context.Context, bookingID int64, resourcePath string) error {
	if err := payment.ValidateResourcePath(resourcePath); err != nil {
		return &domain.ValidationError{Fields: map[string]string{"resourcePath": err.Error()}}
	}
	if s.payments == nil {
		return nil
	}
	checkoutID, _ := payment.CheckoutIDFromPath(resourcePath)
	session, err := s.payments.GetSession(ctx, checkoutID)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return ErrForeignResourcePath
		}
		return err
	}
	if session.BookingID != bookingID {
		return ErrForeignResourcePath
	}
	return nil
}

// AbandonDraft drops a draft. Results that arrive later for its submission
// or payment checks are not acted on.
func (s *BookingService) AbandonDraft(ctx context.Context, id string) error {
	unlock := s.draftLocks.Lock(id)
	defer unlock()

	if _, err := s.drafts.Get(ctx, id); err != nil {
		return err
	}
	if err := s.drafts.Delete(ctx, id); err != nil {
		return err
	}
	s.guards.Forget(id)
	s.checkouts.Forget(id)

	if s.reconciler == nil || s.payments == nil {
		return nil
	}
	b, err := s.bookings.GetByDraftID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrBookingNotFound) {
			return nil
		}
		return err
	}
	sessions, err := s.payments.ListSessions(ctx, b.ID)
	if err != nil {
		return err
	}
	for _, session := range sessions {
		s.reconciler.Discard(payment.ResourcePathFor(session.SessionID))
	}
	s.log.WithFields(logrus.Fields{"draft_id": id, "booking_id": b.ID, "sessions": len(sessions)}).Info("draft abandoned")
	return nil
}

// expiringDraftStore is implemented by draft stores that need to be told to
// drop stale drafts.
type expiringDraftStore interface {
	ExpireBefore(deadline time.Time) int
}

// SweepSubmissions drops submission and checkout state for drafts that no
// longer exist, expiring stale drafts first when the store needs it. Guards
// with a call in flight are kept.
func (s *BookingService) SweepSubmissions(ctx context.Context) (int, error) {
	if store, ok := s.drafts.(expiringDraftStore); ok && s.draftTTL > 0 {
		if n := store.ExpireBefore(s.now().Add(-s.draftTTL)); n > 0 {
			s.log.WithField("count", n).Debug("expired stale drafts")
		}
	}

	seen := make(map[string]struct{})
	dropped := 0
	for _, id := range append(s.guards.Keys(), s.checkouts.Keys()...) {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, err := s.drafts.Get(ctx, id); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrDraftNotFound) {
			return dropped, err
		}
		if s.guards.ForgetSettled(id) {
			dropped++
		}
		s.checkouts.ForgetSettled(id)
	}
	return dropped, nil
}

// RunSweeper calls SweepSubmissions every interval until ctx is done. A
// non-positive interval disables sweeping.
func (s *BookingService) RunSweeper(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.SweepSubmissions(ctx)
			if err != nil {
				s.log.WithError(err).Warn("sweep submissions")
				continue
			}
			if n > 0 {
				s.log.WithField("dropped", n).Debug("dropped submission state of gone drafts")
			}
		}
	}
}

func (s *BookingService) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

// ExpireUnpaidBookings cancels card bookings still unpaid after the
// confirmation window.
func (s *BookingService) ExpireUnpaidBookings(ctx context.Context) ([]domain.Booking, error) {
	deadline := s.now().Add(-s.confirmationTTL)
	cancelled, err := s.bookings.CancelUnpaidBefore(ctx, deadline)
	if err != nil {
		return nil, err
	}
	for i := range cancelled {
		if err := s.publish(ctx, kafka.EventBookingCancelled, &cancelled[i], ""); err != nil {
			s.log.WithError(err).WithField("booking_id", cancelled[i].ID).Warn("failed to publish booking_cancelled")
		}
	}
	return cancelled, nil
}

func (s *BookingService) resolvePlace(ctx context.Context, field string, p *domain.Place) error {
	if p == nil || s.resolver == nil {
		return nil
	}
	if p.Location != nil && p.Location.Locality != "" {
		return nil
	}
	loc, err := s.resolver.Resolve(ctx, *p)
	if err != nil {
		if errors.Is(err, domain.ErrPlaceNotFound) {
			return &domain.ValidationError{Fields: map[string]string{field: err.Error()}}
		}
		return fmt.Errorf("resolve %s: %w", field, err)
	}
	p.Location = loc
	return nil
}

// normalizeTrip checks the formats of the trip fields that were sent and
// returns them in canonical form, so what is stored is what pricing matches.
func normalizeTrip(t domain.TripDetails) (domain.TripDetails, error) {
	verr := &domain.ValidationError{}
	if t.BookingType != "" {
		if bt, ok := domain.ParseBookingType(string(t.BookingType)); ok {
			t.BookingType = bt
		} else {
			verr.Add("booking_type", "must be one-way or by-hour")
		}
	}
	if t.Duration != "" {
		if d, ok := domain.ParseDuration(t.Duration); ok {
			t.Duration = string(d)
		} else {
			verr.Add("duration", "unknown duration")
		}
	}
	if t.Date != "" {
		if _, err := time.ParseInLocation(domain.DateLayout, t.Date, domain.BusinessLocation); err != nil {
			verr.Add("date", "must be YYYY-MM-DD")
		}
	}
	if t.Time != "" {
		if _, err := time.ParseInLocation(domain.TimeLayout, t.Time, domain.BusinessLocation); err != nil {
			verr.Add("time", "must be HH:MM")
		}
	}
	return t, verr.OrNil()
}

func (s *BookingService) publish(ctx context.Context, eventType string, b *domain.Booking, resultCode string) error {
	if s.producer == nil || s.bookingTopic == "" {
		return nil
	}
	event := kafka.BookingEvent{
		Type:          eventType,
		BookingID:     b.ID,
		Reference:     b.Reference,
		Email:         b.Email,
		FullName:      b.FullName(),
		PaymentStatus: string(b.PaymentStatus),
		Corporate:     b.IsCorporate(),
		Amount:        b.Price.Decimal(),
		Currency:      b.Price.Currency,
		ResultCode:    resultCode,
		OccurredAt:    s.now(),
	}
	if err := s.producer.Publish(ctx, s.bookingTopic, b.Reference, event); err != nil {
		return err
	}
	if s.notificationsTopic != "" {
		return s.producer.Publish(ctx, s.notificationsTopic, b.Reference, event)
	}
	return nil
}

var _ BookingUseCase = (*BookingService)(nil)

package payment

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/Domenick1991/chauffeur/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	CodeNoResourcePath = "no_resource_path"
	CodeLookupError    = "lookup_error"

	sessionExpiredCode = "200.300.404"
)

var successCodes = map[string]struct{}{
	"000.000.000": {},
	"000.000.100": {},
	"000.100.110": {},
	"000.100.111": {},
	"000.100.112": {},
}

// ErrCheckDiscarded is returned with the outcome of a check whose booking
// flow was abandoned. The outcome is valid but must not be acted on.
var ErrCheckDiscarded = errors.New("payment check was discarded")

// StatusLookup is the part of the gateway the reconciler needs.
type StatusLookup interface {
	PaymentStatus(ctx context.Context, resourcePath string) (*StatusResponse, error)
}

// OutcomeCache shares resolved outcomes between replicas. Get returns nil
// and no error on a miss.
type OutcomeCache interface {
	GetOutcome(ctx context.Context, resourcePath string) (*domain.PaymentOutcome, error)
	SetOutcome(ctx context.Context, outcome domain.PaymentOutcome) error
}

// OutcomeStore is the durable record of outcomes. Get returns nil and no
// error when nothing is stored for the path.
type OutcomeStore interface {
	GetOutcome(ctx context.Context, resourcePath string) (*domain.PaymentOutcome, error)
}

type checkState int

const (
	unchecked checkState = iota
	checking
	resolved
)

type statusCheck struct {
	state     checkState
	done      chan struct{}
	outcome   domain.PaymentOutcome
	discarded bool
}

// Reconciler performs at most one status lookup per resource path and
// remembers its classified outcome.
type Reconciler struct {
	lookup     StatusLookup
	cache      OutcomeCache
	store      OutcomeStore
	log        *logrus.Logger
	now        func() time.Time
	onResolved []func(context.Context, domain.PaymentOutcome)

	mu     sync.Mutex
	checks map[string]*statusCheck
}

type ReconcilerOption func(*Reconciler)

func WithOutcomeCache(cache OutcomeCache) ReconcilerOption {
	return func(r *Reconciler) {
		r.cache = cache
	}
}

// WithOutcomeStore makes the reconciler consult recorded outcomes before
// asking the provider, so a check forgotten by Prune is never looked up
// again.
func WithOutcomeStore(store OutcomeStore) ReconcilerOption {
	return func(r *Reconciler) {
		r.store = store
	}
}

func WithReconcilerLogger(logger *logrus.Logger) ReconcilerOption {
	return func(r *Reconciler) {
		r.log = logger
	}
}

// OnResolved registers a hook run once per freshly resolved, non-discarded
// check.
func OnResolved(fn func(context.Context, domain.PaymentOutcome)) ReconcilerOption {
	return func(r *Reconciler) {
		r.onResolved = append(r.onResolved, fn)
	}
}

func NewReconciler(lookup StatusLookup, opts ...ReconcilerOption) *Reconciler {
	r := &Reconciler{
		lookup: lookup,
		log:    logrus.StandardLogger(),
		now:    time.Now,
		checks: make(map[string]*statusCheck),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the outcome for resourcePath, looking it up at most once.
// Concurrent callers for the same path wait for the same lookup. A lookup
// that fails in transport resolves to a failure and is not re-issued. An
// error is returned only when the stored outcome could not be read; no
// lookup is made in that case.
func (r *Reconciler) Resolve(ctx context.Context, resourcePath string) (domain.PaymentOutcome, error) {
	if resourcePath == "" {
		return domain.PaymentOutcome{
			Kind:        domain.OutcomeFailure,
			Code:        CodeNoResourcePath,
			Description: "payment provider returned no resource path",
			ResolvedAt:  r.now(),
		}, nil
	}

	for {
		r.mu.Lock()
		c, ok := r.checks[resourcePath]
		if !ok {
			c = &statusCheck{}
			r.checks[resourcePath] = c
		}
		switch c.state {
		case resolved:
			out, discarded := c.outcome, c.discarded
			r.mu.Unlock()
			return out, discardedErr(discarded)
		case checking:
			done := c.done
			r.mu.Unlock()
			select {
			case <-done:
				continue
			case <-ctx.Done():
				return domain.PaymentOutcome{}, ctx.Err()
			}
		}
		c.state = checking
		done := make(chan struct{})
		c.done = done
		r.mu.Unlock()

		lookupCtx := context.WithoutCancel(ctx)
		out, err := r.fetch(lookupCtx, resourcePath)

		r.mu.Lock()
		if err != nil {
			c.state = unchecked
			close(done)
			r.mu.Unlock()
			return domain.PaymentOutcome{}, err
		}
		c.state = resolved
		c.outcome = out
		discarded := c.discarded
		close(done)
		r.mu.Unlock()

		logger := r.log.WithFields(logrus.Fields{
			"resource_path": resourcePath,
			"kind":          out.Kind,
			"code":          out.Code,
		})
		if discarded {
			logger.Info("payment check resolved after its flow was abandoned")
			return out, ErrCheckDiscarded
		}
		logger.Info("payment check resolved")
		for _, fn := range r.onResolved {
			fn(lookupCtx, out)
		}
		return out, nil
	}
}

// fetch returns the known outcome for resourcePath from the cache or the
// outcome store, and asks the provider only when neither has one.
func (r *Reconciler) fetch(ctx context.Context, resourcePath string) (domain.PaymentOutcome, error) {
	logger := r.log.WithField("resource_path", resourcePath)
	if r.cache != nil {
		cached, err := r.cache.GetOutcome(ctx, resourcePath)
		if err != nil {
			logger.WithError(err).Warn("outcome cache read failed")
		} else if cached != nil {
			return *cached, nil
		}
	}
	if r.store != nil {
		stored, err := r.store.GetOutcome(ctx, resourcePath)
		if err != nil {
			return domain.PaymentOutcome{}, fmt.Errorf("read stored payment outcome: %w", err)
		}
		if stored != nil {
			r.remember(ctx, *stored)
			return *stored, nil
		}
	}

	var out domain.PaymentOutcome
	status, err := r.lookup.PaymentStatus(ctx, resourcePath)
	if err != nil {
		logger.WithError(err).Error("payment status lookup failed")
		out = domain.PaymentOutcome{
			Kind:        domain.OutcomeFailure,
			Code:        CodeLookupError,
			Description: err.Error(),
		}
	} else {
		out = Classify(status.Result.Code, status.Result.Description, status.Amount, status.Currency)
		out.PaymentID = status.ID
	}
	out.ResourcePath = resourcePath
	out.ResolvedAt = r.now()

	r.remember(ctx, out)
	return out, nil
}

func (r *Reconciler) remember(ctx context.Context, out domain.PaymentOutcome) {
	if r.cache == nil {
		return
	}
	if err := r.cache.SetOutcome(ctx, out); err != nil {
		r.log.WithError(err).WithField("resource_path", out.ResourcePath).Warn("outcome cache write failed")
	}
}

// Classify maps a provider result to an outcome. Only the allow-listed
// codes count as success. An expired session that still reports both an
// amount and a currency is treated as success.
func Classify(code, description, amount, currency string) domain.PaymentOutcome {
	out := domain.PaymentOutcome{
		Code:        code,
		Description: description,
		Amount:      amount,
		Currency:    currency,
	}
	switch {
	case isSuccessCode(code):
		out.Kind = domain.OutcomeSuccess
	case code == sessionExpiredCode && amount != "" && currency != "":
		out.Kind = domain.OutcomeIndeterminateTreatedAsSuccess
	default:
		out.Kind = domain.OutcomeFailure
	}
	return out
}

func isSuccessCode(code string) bool {
	_, ok := successCodes[code]
	return ok
}

// Discard marks the check for resourcePath as stale. A lookup still runs (or
// its cached result is still returned) but callers get ErrCheckDiscarded
// and hooks are skipped.
func (r *Reconciler) Discard(resourcePath string) {
	if resourcePath == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.checks[resourcePath]
	if !ok {
		c = &statusCheck{}
		r.checks[resourcePath] = c
	}
	c.discarded = true
}

// Prune forgets resolved checks older than before and returns how many were
// dropped.
func (r *Reconciler) Prune(before time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for path, c := range r.checks {
		if c.state == resolved && c.outcome.ResolvedAt.Before(before) {
			delete(r.checks, path)
			n++
		}
	}
	return n
}

// RunPruner prunes checks older than retention every interval until ctx is
// done.
func (r *Reconciler) RunPruner(ctx context.Context, interval, retention time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.Prune(r.now().Add(-retention)); n > 0 {
				r.log.WithField("pruned", n).Debug("pruned payment checks")
			}
		}
	}
}

func discardedErr(discarded bool) error {
	if discarded {
		return ErrCheckDiscarded
	}
	return nil
}

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/Domenick1991/chauffeur/config"
	"github.com/Domenick1991/chauffeur/internal/domain"
	"github.com/Domenick1991/chauffeur/internal/guard"
	"github.com/Domenick1991/chauffeur/internal/payment"
	"github.com/Domenick1991/chauffeur/internal/service/booking"
	"github.com/Domenick1991/chauffeur/internal/service/catalogue"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockBookingUseCase is a mock implementation of booking.BookingUseCase
type MockBookingUseCase struct {
	mock.Mock
}

func (m *MockBookingUseCase) StartDraft(ctx context.Context, corporateRef string) (*domain.ReservationDraft, error) {
	args := m.Called(ctx, corporateRef)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReservationDraft), args.Error(1)
}

func (m *MockBookingUseCase) GetDraft(ctx context.Context, id string) (*domain.ReservationDraft, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReservationDraft), args.Error(1)
}

func (m *MockBookingUseCase) UpdateTrip(ctx context.Context, id string, trip domain.TripDetails) (*domain.ReservationDraft, error) {
	args := m.Called(ctx, id, trip)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReservationDraft), args.Error(1)
}

func (m *MockBookingUseCase) Quotes(ctx context.Context, id string) (*booking.QuoteSheet, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.QuoteSheet), args.Error(1)
}

func (m *MockBookingUseCase) SelectClass(ctx context.Context, id string, class domain.ServiceClass) (*domain.ReservationDraft, error) {
	args := m.Called(ctx, id, class)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReservationDraft), args.Error(1)
}

func (m *MockBookingUseCase) UpdateContact(ctx context.Context, id string, billing domain.BillingInfo, extras domain.Extras) (*domain.ReservationDraft, error) {
	args := m.Called(ctx, id, billing, extras)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ReservationDraft), args.Error(1)
}

func (m *MockBookingUseCase) SubmitDraft(ctx context.Context, id string) (*booking.SubmitResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.SubmitResult), args.Error(1)
}

func (m *MockBookingUseCase) RetrySubmission(ctx context.Context, id string) (*booking.SubmitResult, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.SubmitResult), args.Error(1)
}

func (m *MockBookingUseCase) Checkout(ctx context.Context, bookingID int64) (*domain.PaymentSession, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.PaymentSession), args.Error(1)
}

func (m *MockBookingUseCase) ConfirmPayment(ctx context.Context, bookingID int64, resourcePath string) (*booking.PaymentConfirmation, error) {
	args := m.Called(ctx, bookingID, resourcePath)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.PaymentConfirmation), args.Error(1)
}

func (m *MockBookingUseCase) AbandonDraft(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockBookingUseCase) GetBooking(ctx context.Context, id int64) (*domain.Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Booking), args.Error(1)
}

func (m *MockBookingUseCase) ExpireUnpaidBookings(ctx context.Context) ([]domain.Booking, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.Booking), args.Error(1)
}

type MockInvoiceRenderer struct {
	mock.Mock
}

func (m *MockInvoiceRenderer) Render(b *domain.Booking, issuedAt time.Time) ([]byte, string, error) {
	args := m.Called(b, issuedAt)
	if args.Get(0) == nil {
		return nil, args.String(1), args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

const testSecret = "test-secret"

func newTestRouter(svc booking.BookingUseCase, invoices InvoiceRenderer, cat catalogue.CatalogueUseCase) *gin.Engine {
	gin.SetMode(gin.TestMode)
	logger, _ := test.NewNullLogger()
	cfg := &config.Config{Auth: config.AuthConfig{JWTSecret: testSecret}}
	return NewRouter(cfg, NewBookingHandler(svc, invoices), NewCatalogueHandler(cat), logger)
}

func doJSON(r http.Handler, method, path string, body interface{}, header http.Header) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range header {
		req.Header[k] = v
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestBookingHandler_startDraft(t *testing.T) {
	mockService := &MockBookingUseCase{}
	handler := NewBookingHandler(mockService, nil)

	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/api/v1/drafts", nil)

	draft := domain.NewDraft("d-1", "", time.Now())
	mockService.On("StartDraft", c.Request.Context(), "").Return(draft, nil)

	handler.startDraft(c)

	assert.Equal(t, http.StatusCreated, w.Code)
	var got domain.ReservationDraft
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.Equal(t, "d-1", got.ID)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_corporateDraftRequiresToken(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService, nil, nil)

	w := doJSON(r, http.MethodPost, "/api/v1/corporate/drafts", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	wrongKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"corporate_account": "ACME-001"}).SignedString([]byte("other"))
	require.NoError(t, err)
	w = doJSON(r, http.MethodPost, "/api/v1/corporate/drafts", nil, http.Header{"Authorization": {"Bearer " + wrongKey}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	noAccount, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "someone"}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	w = doJSON(r, http.MethodPost, "/api/v1/corporate/drafts", nil, http.Header{"Authorization": {"Bearer " + noAccount}})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"corporate_account": "ACME-001",
		"exp":               time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	require.NoError(t, err)
	mockService.On("StartDraft", mock.Anything, "ACME-001").Return(domain.NewDraft("d-2", "ACME-001", time.Now()), nil).Once()

	w = doJSON(r, http.MethodPost, "/api/v1/corporate/drafts", nil, http.Header{"Authorization": {"Bearer " + token}})
	assert.Equal(t, http.StatusCreated, w.Code)
	mockService.AssertExpectations(t)
}

func TestBookingHandler_updateTripValidation(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService, nil, nil)

	trip := domain.TripDetails{Date: "tomorrow"}
	verr := &domain.ValidationError{Fields: map[string]string{"date": "must be YYYY-MM-DD"}}
	mockService.On("UpdateTrip", mock.Anything, "d-1", trip).Return(nil, verr)

	w := doJSON(r, http.MethodPut, "/api/v1/drafts/d-1/trip", trip, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	var resp errorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "must be YYYY-MM-DD", resp.Details["date"])
}

func TestBookingHandler_quotes(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService, nil, nil)

	sheet := &booking.QuoteSheet{DraftID: "d-1", Revision: 2, Unserved: true}
	mockService.On("Quotes", mock.Anything, "d-1").Return(sheet, nil)
	mockService.On("Quotes", mock.Anything, "missing").Return(nil, domain.ErrDraftNotFound)

	w := doJSON(r, http.MethodGet, "/api/v1/drafts/d-1/quotes", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"unserved":true`)

	w = doJSON(r, http.MethodGet, "/api/v1/drafts/missing/quotes", nil, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestBookingHandler_selectClassUnserved(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService, nil, nil)

	mockService.On("SelectClass", mock.Anything, "d-1", domain.ServiceClass("suv")).Return(nil, domain.ErrRouteUnserved)

	w := doJSON(r, http.MethodPut, "/api/v1/drafts/d-1/class", selectClassRequest{ServiceClass: "suv"}, nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = doJSON(r, http.MethodPut, "/api/v1/drafts/d-1/class", map[string]string{}, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandler_submit(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService, nil, nil)

	b := &domain.Booking{ID: 7, Reference: "ref-7", PaymentStatus: domain.PaymentStatusPending}
	mockService.On("SubmitDraft", mock.Anything, "d-1").
		Return(&booking.SubmitResult{Booking: b, Session: &domain.PaymentSession{SessionID: "chk-1"}}, nil)

	w := doJSON(r, http.MethodPost, "/api/v1/drafts/d-1/submit", nil, nil)
	assert.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Success bool            `json:"success"`
		Booking domain.Booking  `json:"booking"`
		Payment sessionResponse `json:"payment"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, int64(7), resp.Booking.ID)
	assert.Equal(t, "chk-1", resp.Payment.ID)
}

func TestBookingHandler_submitErrors(t *testing.T) {
	b := &domain.Booking{ID: 7}
	initErr := &payment.InitiationError{
		Message: "payment initialization failed",
		Fields:  []payment.ParameterError{{Name: "billing.postcode", Message: "invalid"}},
	}

	tests := []struct {
		name   string
		result *booking.SubmitResult
		err    error
		status int
		body   string
	}{
		{name: "stale fare", err: domain.ErrStaleFare, status: http.StatusConflict},
		{name: "unserved", err: domain.ErrRouteUnserved, status: http.StatusUnprocessableEntity},
		{name: "failed", err: &guard.FailedError{Cause: errors.New("db down"), RetriesLeft: 1}, status: http.StatusConflict, body: `"retries_left":1`},
		{name: "checkout failed", result: &booking.SubmitResult{Booking: b}, err: initErr, status: http.StatusBadGateway, body: `"billing.postcode"`},
		{name: "unexpected", err: errors.New("boom"), status: http.StatusInternalServerError, body: `"internal error"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := &MockBookingUseCase{}
			r := newTestRouter(mockService, nil, nil)
			if tt.result != nil {
				mockService.On("SubmitDraft", mock.Anything, "d-1").Return(tt.result, tt.err)
			} else {
				mockService.On("SubmitDraft", mock.Anything, "d-1").Return(nil, tt.err)
			}

			w := doJSON(r, http.MethodPost, "/api/v1/drafts/d-1/submit", nil, nil)
			assert.Equal(t, tt.status, w.Code)
			if tt.body != "" {
				assert.Contains(t, w.Body.String(), tt.body)
			}
		})
	}
}

func TestBookingHandler_retry(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService, nil, nil)

	mockService.On("RetrySubmission", mock.Anything, "d-1").Return(nil, guard.ErrRetriesExhausted)

	w := doJSON(r, http.MethodPost, "/api/v1/drafts/d-1/retry", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookingHandler_checkout(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService, nil, nil)

	mockService.On("Checkout", mock.Anything, int64(7)).Return(&domain.PaymentSession{SessionID: "chk-9"}, nil)

	w := doJSON(r, http.MethodPost, "/api/v1/bookings/7/checkout", nil, nil)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.JSONEq(t, `{"id":"chk-9"}`, w.Body.String())

	w = doJSON(r, http.MethodPost, "/api/v1/bookings/abc/checkout", nil, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBookingHandler_paymentStatus(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService, nil, nil)

	path := payment.ResourcePathFor("chk-1")
	confirmation := &booking.PaymentConfirmation{
		Booking: &domain.Booking{ID: 7, PaymentStatus: domain.PaymentStatusCompleted},
		Outcome: domain.PaymentOutcome{Kind: domain.OutcomeSuccess, ResourcePath: path, Code: "000.000.000"},
	}
	mockService.On("ConfirmPayment", mock.Anything, int64(7), path).Return(confirmation, nil)

	w := doJSON(r, http.MethodGet, "/api/v1/payments/status?booking_id=7&resourcePath="+path, nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp paymentStatusResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.Succeeded)
	assert.Equal(t, domain.PaymentStatusCompleted, resp.PaymentStatus)
}

func TestBookingHandler_invoice(t *testing.T) {
	mockService := &MockBookingUseCase{}
	invoices := &MockInvoiceRenderer{}
	r := newTestRouter(mockService, invoices, nil)

	paid := &domain.Booking{ID: 7, PaymentStatus: domain.PaymentStatusCompleted}
	mockService.On("GetBooking", mock.Anything, int64(7)).Return(paid, nil)
	mockService.On("GetBooking", mock.Anything, int64(8)).Return(&domain.Booking{ID: 8, PaymentStatus: domain.PaymentStatusPending}, nil)
	invoices.On("Render", paid, mock.AnythingOfType("time.Time")).Return([]byte("%PDF-1.3"), "INV-000007.pdf", nil)

	w := doJSON(r, http.MethodGet, "/api/v1/bookings/7/invoice", nil, nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/pdf", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "INV-000007.pdf")

	w = doJSON(r, http.MethodGet, "/api/v1/bookings/8/invoice", nil, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestBookingHandler_abandonDraft(t *testing.T) {
	mockService := &MockBookingUseCase{}
	r := newTestRouter(mockService, nil, nil)

	mockService.On("AbandonDraft", mock.Anything, "d-1").Return(nil)

	w := doJSON(r, http.MethodDelete, "/api/v1/drafts/d-1", nil, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
}

var _ booking.BookingUseCase = (*MockBookingUseCase)(nil)

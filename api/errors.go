package api

import (
	"errors"
	"net/http"

	"github.com/Domenick1991/chauffeur/internal/domain"
	"github.com/Domenick1991/chauffeur/internal/guard"
	"github.com/Domenick1991/chauffeur/internal/payment"
	"github.com/Domenick1991/chauffeur/internal/repository"
	"github.com/Domenick1991/chauffeur/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type errorResponse struct {
	Error           string                   `json:"error"`
	Details         map[string]string        `json:"details,omitempty"`
	ParameterErrors []payment.ParameterError `json:"parameter_errors,omitempty"`
	RetriesLeft     *int                     `json:"retries_left,omitempty"`
}

// statusFor maps service errors to HTTP statuses. Order matters: wrapped
// errors can match more than one case.
func statusFor(err error) (int, errorResponse) {
	resp := errorResponse{Error: err.Error()}

	var verr *domain.ValidationError
	var ierr *payment.InitiationError
	var ferr *guard.FailedError
	switch {
	case errors.As(err, &verr):
		resp.Error = "validation failed"
		resp.Details = verr.Fields
		return http.StatusBadRequest, resp
	case errors.As(err, &ierr):
		resp.ParameterErrors = ierr.Fields
		return http.StatusBadGateway, resp
	case errors.As(err, &ferr):
		left := ferr.RetriesLeft
		resp.RetriesLeft = &left
		return http.StatusConflict, resp
	case errors.Is(err, domain.ErrRouteUnserved):
		return http.StatusUnprocessableEntity, resp
	case errors.Is(err, domain.ErrStaleFare),
		errors.Is(err, booking.ErrDraftSubmitted),
		errors.Is(err, booking.ErrSubmissionInProgress),
		errors.Is(err, booking.ErrBookingNotPayable),
		errors.Is(err, booking.ErrPaymentNotRequired),
		errors.Is(err, guard.ErrRetryNotAllowed),
		errors.Is(err, guard.ErrRetriesExhausted):
		return http.StatusConflict, resp
	case errors.Is(err, domain.ErrDraftNotFound),
		errors.Is(err, domain.ErrBookingNotFound),
		errors.Is(err, repository.ErrSessionNotFound):
		return http.StatusNotFound, resp
	case errors.Is(err, booking.ErrForeignResourcePath):
		return http.StatusForbidden, resp
	case errors.Is(err, booking.ErrPaymentsDisabled):
		return http.StatusServiceUnavailable, resp
	default:
		return http.StatusInternalServerError, errorResponse{Error: "internal error"}
	}
}

func respondError(c *gin.Context, err error) {
	status, resp := statusFor(err)
	if status >= http.StatusInternalServerError {
		logrus.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.JSON(status, resp)
}

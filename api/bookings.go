package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/Domenick1991/chauffeur/internal/domain"
	"github.com/Domenick1991/chauffeur/internal/service/booking"
	"github.com/gin-gonic/gin"
)

// InvoiceRenderer renders the PDF invoice of a booking.
type InvoiceRenderer interface {
	Render(b *domain.Booking, issuedAt time.Time) ([]byte, string, error)
}

type BookingHandler struct {
	service  booking.BookingUseCase
	invoices InvoiceRenderer
}

type selectClassRequest struct {
	ServiceClass string `json:"service_class" binding:"required"`
}

type contactRequest struct {
	Billing domain.BillingInfo `json:"billing"`
	Extras  domain.Extras      `json:"extras"`
}

type sessionResponse struct {
	ID string `json:"id"`
}

type submitResponse struct {
	Success bool             `json:"success"`
	Booking *domain.Booking  `json:"booking"`
	Payment *sessionResponse `json:"payment,omitempty"`
}

type paymentStatusResponse struct {
	Outcome       domain.PaymentOutcome `json:"outcome"`
	Succeeded     bool                  `json:"succeeded"`
	Discarded     bool                  `json:"discarded,omitempty"`
	PaymentStatus domain.PaymentStatus  `json:"payment_status"`
}

func NewBookingHandler(service booking.BookingUseCase, invoices InvoiceRenderer) *BookingHandler {
	return &BookingHandler{service: service, invoices: invoices}
}

// RegisterDrafts mounts the booking form routes.
func (h *BookingHandler) RegisterDrafts(router *gin.RouterGroup) {
	router.POST("", h.startDraft)
	router.GET("/:id", h.getDraft)
	router.DELETE("/:id", h.abandonDraft)
	router.PUT("/:id/trip", h.updateTrip)
	router.GET("/:id/quotes", h.quotes)
	router.PUT("/:id/class", h.selectClass)
	router.PUT("/:id/contact", h.updateContact)
	router.POST("/:id/submit", h.submit)
	router.POST("/:id/retry", h.retry)
}

// RegisterCorporate mounts routes that require a corporate token.
func (h *BookingHandler) RegisterCorporate(router *gin.RouterGroup) {
	router.POST("/drafts", h.startDraft)
}

func (h *BookingHandler) RegisterBookings(router *gin.RouterGroup) {
	router.GET("/:id", h.getBooking)
	router.POST("/:id/checkout", h.checkout)
	router.GET("/:id/invoice", h.invoice)
}

func (h *BookingHandler) RegisterPayments(router *gin.RouterGroup) {
	router.GET("/status", h.paymentStatus)
}

func (h *BookingHandler) startDraft(c *gin.Context) {
	d, err := h.service.StartDraft(c.Request.Context(), c.GetString(corporateAccountKey))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *BookingHandler) getDraft(c *gin.Context) {
	d, err := h.service.GetDraft(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *BookingHandler) abandonDraft(c *gin.Context) {
	if err := h.service.AbandonDraft(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *BookingHandler) updateTrip(c *gin.Context) {
	var req domain.TripDetails
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	d, err := h.service.UpdateTrip(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *BookingHandler) quotes(c *gin.Context) {
	sheet, err := h.service.Quotes(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, sheet)
}

func (h *BookingHandler) selectClass(c *gin.Context) {
	var req selectClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	d, err := h.service.SelectClass(c.Request.Context(), c.Param("id"), domain.ServiceClass(req.ServiceClass))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *BookingHandler) updateContact(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
		return
	}
	d, err := h.service.UpdateContact(c.Request.Context(), c.Param("id"), req.Billing, req.Extras)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *BookingHandler) submit(c *gin.Context) {
	h.respondSubmit(c, h.service.SubmitDraft)
}

func (h *BookingHandler) retry(c *gin.Context) {
	h.respondSubmit(c, h.service.RetrySubmission)
}

func (h *BookingHandler) respondSubmit(c *gin.Context, fn func(context.Context, string) (*booking.SubmitResult, error)) {
	res, err := fn(c.Request.Context(), c.Param("id"))
	if err != nil {
		status, resp := statusFor(err)
		if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
			respondError(c, err)
			return
		}
		if res != nil && res.Booking != nil {
			// the booking exists even though checkout could not be opened
			c.JSON(status, gin.H{"error": resp.Error, "parameter_errors": resp.ParameterErrors, "booking": res.Booking})
			return
		}
		c.JSON(status, resp)
		return
	}
	out := submitResponse{Success: true, Booking: res.Booking}
	if res.Session != nil {
		out.Payment = &sessionResponse{ID: res.Session.SessionID}
	}
	c.JSON(http.StatusCreated, out)
}

func (h *BookingHandler) getBooking(c *gin.Context) {
	id, ok := bookingID(c, c.Param("id"))
	if !ok {
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func (h *BookingHandler) checkout(c *gin.Context) {
	id, ok := bookingID(c, c.Param("id"))
	if !ok {
		return
	}
	session, err := h.service.Checkout(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, sessionResponse{ID: session.SessionID})
}

func (h *BookingHandler) paymentStatus(c *gin.Context) {
	id, ok := bookingID(c, c.Query("booking_id"))
	if !ok {
		return
	}
	res, err := h.service.ConfirmPayment(c.Request.Context(), id, c.Query("resourcePath"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymentStatusResponse{
		Outcome:       res.Outcome,
		Succeeded:     res.Outcome.Succeeded(),
		Discarded:     res.Discarded,
		PaymentStatus: res.Booking.PaymentStatus,
	})
}

func (h *BookingHandler) invoice(c *gin.Context) {
	id, ok := bookingID(c, c.Param("id"))
	if !ok {
		return
	}
	b, err := h.service.GetBooking(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	if b.PaymentStatus != domain.PaymentStatusCompleted {
		c.JSON(http.StatusConflict, errorResponse{Error: "invoice is available once the booking is paid"})
		return
	}
	pdf, filename, err := h.invoices.Render(b, time.Now())
	if err != nil {
		respondError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

func bookingID(c *gin.Context, raw string) (int64, bool) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid booking id"})
		return 0, false
	}
	return id, true
}

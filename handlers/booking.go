package handlers

import (
	"net/http"

	"servana/middleware"
	"servana/services/scheduling"
	"servana/utils"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BookingHandler exposes the booking lifecycle over HTTP.
type BookingHandler struct {
	Engine scheduling.SchedulingEngine
	Logger *zap.Logger
}

func NewBookingHandler(engine scheduling.SchedulingEngine, logger *zap.Logger) *BookingHandler {
	return &BookingHandler{Engine: engine, Logger: logger}
}

// CreateBookingHandler places a hold and records a pending booking.
func (h *BookingHandler) CreateBookingHandler(c *gin.Context) {
	var req scheduling.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}
	req.CustomerID = middleware.AccountID(c)

	booking, err := h.Engine.CreateBooking(c.Request.Context(), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, booking)
}

// GetBookingHandler returns a booking to one of its parties.
func (h *BookingHandler) GetBookingHandler(c *gin.Context) {
	booking, err := h.Engine.GetBooking(c.Request.Context(), c.Param("id"), middleware.AccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// ConfirmBookingHandler lets the provider accept a pending booking.
func (h *BookingHandler) ConfirmBookingHandler(c *gin.Context) {
	booking, err := h.Engine.ConfirmBooking(c.Request.Context(), c.Param("id"), middleware.AccountID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// RejectBookingHandler lets the provider decline a pending booking.
func (h *BookingHandler) RejectBookingHandler(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	// The reason is optional; an empty body is fine.
	_ = c.ShouldBindJSON(&input)

	booking, err := h.Engine.RejectBooking(c.Request.Context(), c.Param("id"), middleware.AccountID(c), input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// CancelBookingHandler cancels a booking for either party and reports
// the refund outcome.
func (h *BookingHandler) CancelBookingHandler(c *gin.Context) {
	var input struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&input)

	booking, refund, err := h.Engine.CancelBooking(c.Request.Context(), c.Param("id"), middleware.AccountID(c), input.Reason)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"booking": booking, "refund": refund})
}

// RescheduleBookingHandler moves a booking to a new date and start time.
func (h *BookingHandler) RescheduleBookingHandler(c *gin.Context) {
	var req scheduling.RescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.JSONError(c, http.StatusBadRequest, "invalid request", err.Error())
		return
	}

	booking, err := h.Engine.RescheduleBooking(c.Request.Context(), c.Param("id"), middleware.AccountID(c), req)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, booking)
}

// ListProviderBookingsHandler returns a provider's active bookings for
// the date given in the query string.
func (h *BookingHandler) ListProviderBookingsHandler(c *gin.Context) {
	providerID := c.Param("id")
	if providerID != middleware.AccountID(c) {
		utils.JSONError(c, http.StatusForbidden, "forbidden", "bookings are only visible to their provider")
		return
	}

	bookings, err := h.Engine.ListProviderBookings(c.Request.Context(), providerID, c.Query("date"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

package payment

import (
	"errors"
	"net/http"

	"flightbook/internal/booking"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterRoutes(router gin.IRoutes) {
	router.POST("/v1/payments/initiate", h.initiateHandler)
	router.GET("/v1/payments/success", h.successHandler)
	router.GET("/v1/payments/cancel", h.cancelHandler)
}

type initiateRequest struct {
	BookingReference string `json:"bookingReference"`
}

// initiateHandler godoc
// @Summary      Initiate payment for a booking
// @Description  Creates a checkout order and returns the offsite approval URL
// @Tags         payments
// @Accept       json
// @Produce      json
// @Param        request body initiateRequest true "Booking reference"
// @Success      200 {object} Initiation
// @Failure      404 {object} map[string]interface{}
// @Router       /v1/payments/initiate [post]
func (h *Handler) initiateHandler(c *gin.Context) {
	var req initiateRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.BookingReference == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "bookingReference is required"})
		return
	}

	initiation, err := h.service.Initiate(c.Request.Context(), req.BookingReference)
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, initiation)
}

// successHandler is the provider's return redirect target. Reconciliation
// relies solely on the pending-order slot, never on redirect parameters.
func (h *Handler) successHandler(c *gin.Context) {
	b, err := h.service.ReconcileSuccess(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message": "Payment successful",
		"booking": b,
	})
}

// cancelHandler is the provider's cancel redirect target. The booking is
// untouched; the payer may retry the payment or review their bookings.
func (h *Handler) cancelHandler(c *gin.Context) {
	slot, err := h.service.ReconcileCancel(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}

	resp := gin.H{"message": "Payment cancelled. You can retry from your bookings."}
	if slot != nil {
		resp["bookingReference"] = slot.BookingReference
	}
	c.JSON(http.StatusOK, resp)
}

func sendError(c *gin.Context, err error) {
	if errors.Is(err, booking.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}
	if errors.Is(err, ErrReconciliation) {
		c.JSON(http.StatusConflict, gin.H{"error": "Payment could not be reconciled", "details": err.Error()})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error", "details": err.Error()})
}

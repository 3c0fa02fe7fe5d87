package booking

import (
	"errors"
	"net/http"

	"flightbook/pkg/amadeus"
	"flightbook/pkg/validate"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

func (h *Handler) RegisterRoutes(router gin.IRoutes) {
	router.POST("/v1/bookings", h.createHandler)
	router.GET("/v1/bookings", h.listHandler)
	router.GET("/v1/bookings/:reference", h.getHandler)
	router.DELETE("/v1/bookings/:reference", h.cancelHandler)
}

type createRequest struct {
	FlightDetails    *amadeus.FlightOffer `json:"flightDetails"`
	PassengerDetails PassengerDetails     `json:"passengerDetails"`
}

// createHandler godoc
// @Summary      Create a booking
// @Description  Books the given offer, or the pending selection when the offer is omitted
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        request body createRequest true "Offer and passenger details"
// @Success      201 {object} Booking
// @Failure      400 {object} map[string]interface{}
// @Router       /v1/bookings [post]
func (h *Handler) createHandler(c *gin.Context) {
	var req createRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	b, err := h.service.Create(c.Request.Context(), req.FlightDetails, req.PassengerDetails)
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *Handler) listHandler(c *gin.Context) {
	bookings, err := h.service.List(c.Request.Context())
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"bookings": bookings})
}

func (h *Handler) getHandler(c *gin.Context) {
	b, err := h.service.Get(c.Request.Context(), c.Param("reference"))
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

// cancelHandler cancels a booking. The record survives with status
// CANCELLED; repeating the call returns the same record.
func (h *Handler) cancelHandler(c *gin.Context) {
	b, err := h.service.Cancel(c.Request.Context(), c.Param("reference"))
	if err != nil {
		sendError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}

func sendError(c *gin.Context, err error) {
	var validationErrs validate.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": validationErrs})
		return
	}
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Booking not found"})
		return
	}
	if errors.Is(err, ErrNoSelection) {
		c.JSON(http.StatusConflict, gin.H{"error": "No flight selected. Search and select a flight first."})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error", "details": err.Error()})
}

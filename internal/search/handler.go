package search

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
	router.POST("/v1/flights/search", h.searchHandler)
	router.POST("/v1/flights/select", h.selectHandler)
}

type searchResponse struct {
	Offers  []amadeus.FlightOffer `json:"offers"`
	Display []OfferView           `json:"display"`
	Message string                `json:"message,omitempty"`
}

// searchHandler godoc
// @Summary      Search flight offers
// @Description  Validates the query and searches offers for a route and date
// @Tags         flights
// @Accept       json
// @Produce      json
// @Param        request body SearchQuery true "Search criteria"
// @Success      200 {object} searchResponse
// @Failure      400 {object} map[string]interface{}
// @Router       /v1/flights/search [post]
func (h *Handler) searchHandler(c *gin.Context) {
	var query SearchQuery
	if err := c.ShouldBindJSON(&query); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	offers, err := h.service.Search(c.Request.Context(), query)
	if err != nil {
		// An empty result set is a valid outcome, not a failure.
		if errors.Is(err, ErrNoOffers) {
			c.JSON(http.StatusOK, searchResponse{
				Offers:  []amadeus.FlightOffer{},
				Display: []OfferView{},
				Message: "No flights available for the selected route and date.",
			})
			return
		}
		sendError(c, err)
		return
	}

	display := make([]OfferView, 0, len(offers))
	for _, offer := range offers {
		if view, ok := BuildView(offer); ok {
			display = append(display, view)
		}
	}

	c.JSON(http.StatusOK, searchResponse{Offers: offers, Display: display})
}

// selectHandler records the chosen offer so the booking step can recover it
// even if the client loses its in-memory hand-off state.
func (h *Handler) selectHandler(c *gin.Context) {
	var offer amadeus.FlightOffer
	if err := c.ShouldBindJSON(&offer); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	if err := h.service.SelectOffer(c.Request.Context(), offer); err != nil {
		sendError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func sendError(c *gin.Context, err error) {
	var validationErrs validate.ValidationErrors
	if errors.As(err, &validationErrs) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": validationErrs})
		return
	}
	if errors.Is(err, amadeus.ErrRateLimited) {
		c.JSON(http.StatusTooManyRequests, gin.H{"error": "Search service is rate limited, try again shortly"})
		return
	}
	if errors.Is(err, amadeus.ErrAuthFailure) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Search service authentication failed"})
		return
	}

	var apiErr *amadeus.APIError
	if errors.As(err, &apiErr) {
		c.JSON(http.StatusBadGateway, gin.H{"error": "Search service error", "upstream_status": apiErr.Status})
		return
	}

	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error", "details": err.Error()})
}

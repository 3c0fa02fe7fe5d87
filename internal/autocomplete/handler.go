package autocomplete

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	controller *Controller
}

func NewHandler(c *Controller) *Handler {
	return &Handler{controller: c}
}

func (h *Handler) RegisterRoutes(router gin.IRoutes) {
	router.GET("/v1/locations", h.suggestHandler)
	router.POST("/v1/locations/select", h.selectHandler)
	router.POST("/v1/locations/blur", h.blurHandler)
}

func parseField(raw string) (Field, bool) {
	switch Field(raw) {
	case FieldOrigin:
		return FieldOrigin, true
	case FieldDestination:
		return FieldDestination, true
	default:
		return "", false
	}
}

// suggestHandler feeds one input event into the controller and waits for
// its outcome. A superseded input reports stale=true with no suggestions.
func (h *Handler) suggestHandler(c *gin.Context) {
	field, ok := parseField(c.Query("field"))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "field must be origin or destination"})
		return
	}
	keyword := c.Query("keyword")

	resultCh := h.controller.Input(c.Request.Context(), field, keyword)

	select {
	case result := <-resultCh:
		if result.Err != nil {
			c.JSON(http.StatusBadGateway, gin.H{"error": "Failed to fetch city suggestions. Try again later."})
			return
		}
		if result.Stale {
			c.JSON(http.StatusOK, gin.H{"stale": true})
			return
		}
		suggestions := result.Suggestions
		if suggestions == nil {
			suggestions = []Suggestion{}
		}
		c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
	case <-c.Request.Context().Done():
		// Client went away; the controller discards the completion.
		c.Status(http.StatusRequestTimeout)
	}
}

type selectRequest struct {
	Field      Field      `json:"field"`
	Suggestion Suggestion `json:"suggestion"`
}

func (h *Handler) selectHandler(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	field, ok := parseField(string(req.Field))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "field must be origin or destination"})
		return
	}
	if req.Suggestion.CityName == "" || req.Suggestion.IataCode == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "suggestion requires cityName and iataCode"})
		return
	}

	label := h.controller.Select(field, req.Suggestion)
	c.JSON(http.StatusOK, gin.H{"label": label})
}

type blurRequest struct {
	Field Field `json:"field"`
}

func (h *Handler) blurHandler(c *gin.Context) {
	var req blurRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}
	field, ok := parseField(string(req.Field))
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "field must be origin or destination"})
		return
	}

	h.controller.Blur(field)
	c.Status(http.StatusNoContent)
}

package session

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"flightbook/pkg/validate"
)

type Handler struct {
	service *Service
}

func NewHandler(s *Service) *Handler {
	return &Handler{service: s}
}

// RegisterPublicRoutes mounts signup and login, the only routes reachable
// without a session.
func (h *Handler) RegisterPublicRoutes(router gin.IRoutes) {
	router.POST("/v1/auth/signup", h.signupHandler)
	router.POST("/v1/auth/login", h.loginHandler)
}

func (h *Handler) RegisterProtectedRoutes(router gin.IRoutes) {
	router.POST("/v1/auth/logout", h.logoutHandler)
}

func (h *Handler) signupHandler(c *gin.Context) {
	var creds Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	if err := h.service.Signup(c.Request.Context(), creds); err != nil {
		var validationErrs validate.ValidationErrors
		switch {
		case errors.As(err, &validationErrs):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "fields": validationErrs})
		case errors.Is(err, ErrUserExists):
			c.JSON(http.StatusConflict, gin.H{"error": "An account with this email already exists"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		}
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Account created. Please log in."})
}

func (h *Handler) loginHandler(c *gin.Context) {
	var creds Credentials
	if err := c.ShouldBindJSON(&creds); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON body"})
		return
	}

	token, err := h.service.Login(c.Request.Context(), creds.Email, creds.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *Handler) logoutHandler(c *gin.Context) {
	if err := h.service.Logout(c.Request.Context(), tokenFromRequest(c)); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
		return
	}
	c.Status(http.StatusNoContent)
}

package http

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"tempvoice/internal/core/domain"
	"tempvoice/internal/core/services"
	"tempvoice/pkg/errors"
)

// AuthHandler exchanges the shared viewer key for a bearer token. The
// dashboard has a single read-only role, so there is no account store.
type AuthHandler struct {
	authService services.AuthService
	viewerKey   string
}

func NewAuthHandler(authService services.AuthService, viewerKey string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		viewerKey:   viewerKey,
	}
}

func (h *AuthHandler) SetupRoutes(router *gin.Engine) {
	api := router.Group("/api/v1/auth")
	{
		api.POST("/token", h.Token)
	}
}

type TokenRequest struct {
	Username  string `json:"username" binding:"required,min=2,max=50"`
	AccessKey string `json:"access_key" binding:"required,max=128"`
}

func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.BindJSON(&req); err != nil {
		c.Error(errors.NewInvalidInput("invalid request format"))
		return
	}

	req.Username = strings.TrimSpace(req.Username)
	if subtle.ConstantTimeCompare([]byte(req.AccessKey), []byte(h.viewerKey)) != 1 {
		c.Error(errors.New(errors.ErrCodeUnauthorized, "invalid access key"))
		return
	}

	viewerID := domain.UserID(uuid.NewString())
	token, err := h.authService.GenerateToken(viewerID, req.Username)
	if err != nil {
		c.Error(errors.Wrap(err, errors.ErrCodeInternal, "failed to issue token"))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":    token,
		"username": req.Username,
	})
}

package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/upsidefi/metaswap/internal/service"
)

// AuthHandler issues custody accounts.
type AuthHandler struct {
	authSvc *service.AuthService
}

// NewAuthHandler creates an AuthHandler.
func NewAuthHandler(authSvc *service.AuthService) *AuthHandler {
	return &AuthHandler{authSvc: authSvc}
}

// RegisterRequest is the body for POST /api/auth/register.
type RegisterRequest struct {
	Label string `json:"label"`
}

// Register godoc
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	// Body is optional; an empty label is fine.
	_ = c.ShouldBindJSON(&req)

	account, token, err := h.authSvc.Register(c.Request.Context(), req.Label)
	if err != nil {
		respondError(c, http.StatusInternalServerError, "ERR_INTERNAL", "could not create account")
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{
		"account": account,
		"token":   token,
	})
}

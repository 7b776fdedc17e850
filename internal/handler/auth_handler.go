package handler

import (
	"net/http"

	"loyalty/config"
	"loyalty/internal/auth"
	"loyalty/internal/service"

	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc *service.RegistrationService
	jwt *config.JWTConfig
}

func NewAuthHandler(svc *service.RegistrationService, jwt *config.JWTConfig) *AuthHandler {
	return &AuthHandler{svc: svc, jwt: jwt}
}

type RegisterRequest struct {
	Name         string `json:"name" binding:"required,min=2,max=120"`
	Email        string `json:"email" binding:"required,email"`
	Phone        string `json:"phone" binding:"omitempty,max=32"`
	ReferralCode string `json:"referral_code" binding:"omitempty,len=8,hexadecimal"` // sponsor's code
}

// Register handles POST /auth/register: creates the member and settles the registration pool.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reg, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		ReferralCode: req.ReferralCode,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	access, err := auth.GenerateAccessToken(h.jwt, reg.Member.ID, reg.Member.Email, reg.Member.Role)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not issue token"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"member":        reg.Member,
		"wallet":        reg.Wallet,
		"referral_code": reg.ReferralCode,
		"sponsor_id":    reg.SponsorID,
		"event_id":      reg.Settlement.EventID,
		"access_token":  access,
	})
}

package handler

import (
	"net/http"

	"loyalty/internal/middleware"
	"loyalty/internal/repository"

	"github.com/gin-gonic/gin"
)

type ReferralHandler struct {
	referralRepo *repository.ReferralRepository
	walletRepo   *repository.WalletRepository
}

func NewReferralHandler(store *repository.Store) *ReferralHandler {
	return &ReferralHandler{referralRepo: store.Referrals, walletRepo: store.Wallets}
}

// GetMyReferralCode returns the authenticated member's referral code, creating one if it doesn't exist yet.
// GET /me/referral-code
func (h *ReferralHandler) GetMyReferralCode(c *gin.Context) {
	memberID := middleware.GetMemberID(c)
	rc, err := h.referralRepo.GetOrCreateCode(c.Request.Context(), memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not get referral code"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"code":       rc.Code,
		"is_active":  rc.IsActive,
		"created_at": rc.CreatedAt,
	})
}

// GetMyReferrals lists the members the authenticated member sponsored directly.
// GET /me/referrals
func (h *ReferralHandler) GetMyReferrals(c *gin.Context) {
	memberID := middleware.GetMemberID(c)
	page, limit := parsePagination(c)
	ctx := c.Request.Context()

	edges, err := h.referralRepo.ListChildren(ctx, memberID, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not list referrals"})
		return
	}
	total, err := h.referralRepo.CountDirectReferrals(ctx, memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not count referrals"})
		return
	}

	out := make([]gin.H, 0, len(edges))
	for _, e := range edges {
		out = append(out, gin.H{
			"member": gin.H{
				"id":   e.Child.ID,
				"name": e.Child.Name,
			},
			"created_at": e.CreatedAt,
		})
	}
	unlocked := 0
	if w, err := h.walletRepo.GetByMemberID(ctx, memberID); err == nil {
		unlocked = w.UnlockedLevel
	}
	c.JSON(http.StatusOK, gin.H{
		"referrals":      out,
		"total":          total,
		"unlocked_level": unlocked,
		"page":           page,
		"limit":          limit,
	})
}

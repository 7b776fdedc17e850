package handler

import (
	"errors"
	"net/http"
	"strconv"

	"loyalty/internal/domain"

	"github.com/gin-gonic/gin"
)

const retryMessage = "request could not be completed, please retry"

// respondError maps service errors to a status and a client-safe message.
// Ledger internals never reach the response body.
func respondError(c *gin.Context, err error) {
	var (
		cfgErr      *domain.ConfigIntegrityError
		conflictErr *domain.ConcurrencyConflictError
		walletErr   *domain.MissingWalletError
	)
	switch {
	case errors.Is(err, domain.ErrInvalidReferralCode),
		errors.Is(err, domain.ErrInvalidPool),
		errors.Is(err, domain.ErrInvalidSplit):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrEmailTaken),
		errors.Is(err, domain.ErrPurchaseNotPending):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, domain.ErrMemberNotFound),
		errors.Is(err, domain.ErrPurchaseNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.As(err, &walletErr):
		c.JSON(http.StatusNotFound, gin.H{"error": "wallet not found"})
	case errors.As(err, &cfgErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": cfgErr.Error()})
	case errors.As(err, &conflictErr):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": retryMessage})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": retryMessage})
	}
}

func parsePagination(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return page, limit
}

func paramID(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return uint(id), true
}

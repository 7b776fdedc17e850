package handler

import (
	"net/http"
	"time"

	"loyalty/internal/domain"
	"loyalty/internal/middleware"
	"loyalty/internal/repository"
	"loyalty/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type MeHandler struct {
	store     *repository.Store
	purchases *service.PurchaseService
}

func NewMeHandler(store *repository.Store, purchases *service.PurchaseService) *MeHandler {
	return &MeHandler{store: store, purchases: purchases}
}

// GetProfile returns the member with their wallet.
func (h *MeHandler) GetProfile(c *gin.Context) {
	ctx := c.Request.Context()
	memberID := middleware.GetMemberID(c)
	m, err := h.store.Members.GetByID(ctx, memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	w, err := h.store.Wallets.GetByMemberID(ctx, memberID)
	if err != nil && !domain.IsMissingWallet(err) {
		respondError(c, err)
		return
	}
	m.Wallet = w
	c.JSON(http.StatusOK, m)
}

func (h *MeHandler) GetWallet(c *gin.Context) {
	w, err := h.store.Wallets.GetByMemberID(c.Request.Context(), middleware.GetMemberID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, w)
}

// GetCommunityPoints returns the per-level CP balances.
func (h *MeHandler) GetCommunityPoints(c *gin.Context) {
	ctx := c.Request.Context()
	memberID := middleware.GetMemberID(c)
	rows, err := h.store.Ledger.ListCommunityPoints(ctx, memberID)
	if err != nil {
		respondError(c, err)
		return
	}
	total, available, onhold := decimal.Zero, decimal.Zero, decimal.Zero
	for _, r := range rows {
		total = total.Add(r.TotalCP)
		available = available.Add(r.AvailableCP)
		onhold = onhold.Add(r.OnholdCP)
	}
	c.JSON(http.StatusOK, gin.H{
		"levels":       rows,
		"total_cp":     total,
		"available_cp": available,
		"onhold_cp":    onhold,
	})
}

// GetCpTransactions lists the member's ledger legs, filterable by status and level.
func (h *MeHandler) GetCpTransactions(c *gin.Context) {
	filter, ok := bindCpFilter(c)
	if !ok {
		return
	}
	filter.ReceiverID = middleware.GetMemberID(c)
	filter.SourceID = 0
	page, limit := parsePagination(c)
	list, total, err := h.store.Reports.ListCpTransactions(c.Request.Context(), filter, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

func (h *MeHandler) GetUnlockHistory(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.store.Reports.ListUnlockHistory(c.Request.Context(), middleware.GetMemberID(c), page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// GetPointTransactions lists personal and referral point credits.
func (h *MeHandler) GetPointTransactions(c *gin.Context) {
	page, limit := parsePagination(c)
	list, err := h.store.Points.ListByMember(c.Request.Context(), middleware.GetMemberID(c), limit, (page-1)*limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "page": page, "limit": limit})
}

// RegisterFCMToken saves the FCM token for push notifications.
func (h *MeHandler) RegisterFCMToken(c *gin.Context) {
	var req struct {
		Token string `json:"token" binding:"required,max=512"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "token required"})
		return
	}
	if err := h.store.Members.UpdateFCMToken(c.Request.Context(), middleware.GetMemberID(c), req.Token); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *MeHandler) ListPurchases(c *gin.Context) {
	page, limit := parsePagination(c)
	list, err := h.purchases.ListByMember(c.Request.Context(), middleware.GetMemberID(c), limit, (page-1)*limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "page": page, "limit": limit})
}

type CreatePurchaseRequest struct {
	Amount    decimal.Decimal `json:"amount"`
	Reference string          `json:"reference" binding:"omitempty,max=128"`
}

// CreatePurchase records a pending purchase for the member.
func (h *MeHandler) CreatePurchase(c *gin.Context) {
	var req CreatePurchaseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !req.Amount.IsPositive() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be positive"})
		return
	}
	p, err := h.purchases.Create(c.Request.Context(), service.CreatePurchaseInput{
		MemberID:  middleware.GetMemberID(c),
		Amount:    req.Amount,
		Reference: req.Reference,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// bindCpFilter reads ledger filters from the query string.
func bindCpFilter(c *gin.Context) (repository.CpTransactionFilter, bool) {
	var q struct {
		MemberID uint   `form:"member_id"`
		SourceID uint   `form:"source_id"`
		Level    int    `form:"level" binding:"omitempty,min=1,max=30"`
		Status   string `form:"status" binding:"omitempty,oneof=available onhold released"`
		EventID  string `form:"event_id" binding:"omitempty,uuid"`
		From     string `form:"from" binding:"omitempty,datetime=2006-01-02"`
		To       string `form:"to" binding:"omitempty,datetime=2006-01-02"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return repository.CpTransactionFilter{}, false
	}
	f := repository.CpTransactionFilter{
		ReceiverID: q.MemberID,
		SourceID:   q.SourceID,
		Level:      q.Level,
		Status:     domain.TransactionStatus(q.Status),
		EventID:    q.EventID,
	}
	if q.From != "" {
		t := parseDate(q.From)
		f.From = &t
	}
	if q.To != "" {
		t := parseDate(q.To).AddDate(0, 0, 1)
		f.To = &t
	}
	return f, true
}

// parseDate reads a date already checked by the datetime binding.
func parseDate(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

package handler

import (
	"net/http"
	"strconv"

	"loyalty/internal/engine"
	"loyalty/internal/models"
	"loyalty/internal/repository"
	"loyalty/internal/service"
	"loyalty/internal/ws"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type AdminHandler struct {
	store     *repository.Store
	levels    *service.LevelConfigService
	purchases *service.PurchaseService
	splits    *service.SplitSettings
	sweeper   *service.ReleaseSweeper
	hub       *ws.Hub
}

func NewAdminHandler(app *service.App) *AdminHandler {
	return &AdminHandler{
		store:     app.Store,
		levels:    app.Levels,
		purchases: app.Purchases,
		splits:    app.Splits,
		sweeper:   app.Sweeper,
		hub:       app.Hub,
	}
}

// Dashboard handles GET /admin/dashboard: overview stats.
func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.store.Reports.GetDashboardStats(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}

// ListMembers handles GET /admin/members.
func (h *AdminHandler) ListMembers(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.store.Reports.ListMembers(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list members"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// GetLevels handles GET /admin/levels.
func (h *AdminHandler) GetLevels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"levels": h.levels.Current()})
}

// ReplaceLevels handles PUT /admin/levels. The whole set is validated and stored, or nothing is.
func (h *AdminHandler) ReplaceLevels(c *gin.Context) {
	var req struct {
		Levels []models.LevelConfig `json:"levels" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	rows, err := h.levels.Replace(c.Request.Context(), req.Levels)
	if err != nil {
		respondError(c, err)
		return
	}
	h.hub.BroadcastAll(gin.H{"type": "levels_updated", "levels": rows})
	c.JSON(http.StatusOK, gin.H{"levels": rows})
}

// ListCpTransactions handles GET /admin/cp-transactions with filters and per-status totals.
func (h *AdminHandler) ListCpTransactions(c *gin.Context) {
	filter, ok := bindCpFilter(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	page, limit := parsePagination(c)
	list, total, err := h.store.Reports.ListCpTransactions(ctx, filter, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list transactions"})
		return
	}
	totals, err := h.store.Reports.CpTotalsByStatus(ctx, filter)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to total transactions"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "totals": totals, "page": page, "limit": limit})
}

// ListUnlockHistory handles GET /admin/unlock-history?member_id=.
func (h *AdminHandler) ListUnlockHistory(c *gin.Context) {
	memberID, _ := strconv.ParseUint(c.Query("member_id"), 10, 64)
	page, limit := parsePagination(c)
	list, total, err := h.store.Reports.ListUnlockHistory(c.Request.Context(), uint(memberID), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list unlock history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// GetReserve handles GET /admin/reserve.
func (h *AdminHandler) GetReserve(c *gin.Context) {
	cr, err := h.store.Reserve.Get(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load reserve"})
		return
	}
	c.JSON(http.StatusOK, cr)
}

// UnlockMember handles POST /admin/members/:id/unlock: reruns the gate for one member.
func (h *AdminHandler) UnlockMember(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	res, err := h.sweeper.Unlock(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"member_id":          res.MemberID,
		"previous_referrals": res.PreviousReferrals,
		"new_referrals":      res.NewReferrals,
		"previous_level":     res.PreviousLevel,
		"new_level":          res.NewLevel,
		"unlocked":           res.Unlocked,
		"released_cp":        res.Released,
	})
}

// Sweep handles POST /admin/sweep.
func (h *AdminHandler) Sweep(c *gin.Context) {
	report, err := h.sweeper.Sweep(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// ListPurchases handles GET /admin/purchases?status=.
func (h *AdminHandler) ListPurchases(c *gin.Context) {
	page, limit := parsePagination(c)
	list, total, err := h.store.Reports.ListPurchases(c.Request.Context(), c.Query("status"), page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list purchases"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": list, "total": total, "page": page, "limit": limit})
}

// ApprovePurchase handles POST /admin/purchases/:id/approve.
func (h *AdminHandler) ApprovePurchase(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, st, err := h.purchases.Approve(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"purchase":    p,
		"event_id":    st.EventID,
		"pp":          st.PP,
		"rp":          st.RP,
		"cp":          st.CP.Distributed,
		"cr":          st.CR,
		"unallocated": st.Unallocated,
	})
}

// RejectPurchase handles POST /admin/purchases/:id/reject.
func (h *AdminHandler) RejectPurchase(c *gin.Context) {
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	p, err := h.purchases.Reject(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

// GetPurchaseSplit handles GET /admin/settings/purchase-split.
func (h *AdminHandler) GetPurchaseSplit(c *gin.Context) {
	split, err := h.splits.Purchase(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, split)
}

// SetPurchaseSplit handles PUT /admin/settings/purchase-split.
func (h *AdminHandler) SetPurchaseSplit(c *gin.Context) {
	var split engine.Split
	if err := c.ShouldBindJSON(&split); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.splits.SetPurchase(c.Request.Context(), split); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, split)
}

// Analytics handles GET /admin/analytics?days=30.
func (h *AdminHandler) Analytics(c *gin.Context) {
	days := parseLimitDays(c)
	series, err := h.store.Reports.CPByDay(c.Request.Context(), days)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load analytics"})
		return
	}
	distributed := decimal.Zero
	for _, p := range series {
		distributed = distributed.Add(p.Amount)
	}
	c.JSON(http.StatusOK, gin.H{"cp_by_day": series, "distributed": distributed, "days": days})
}

// ListSettings handles GET /admin/settings.
func (h *AdminHandler) ListSettings(c *gin.Context) {
	settings, err := h.store.Settings.GetAll(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load settings"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": settings})
}

func parseLimitDays(c *gin.Context) int {
	days, err := strconv.Atoi(c.DefaultQuery("days", "30"))
	if err != nil || days < 1 || days > 365 {
		return 30
	}
	return days
}

package handler

import (
	"net/http"

	"loyalty/internal/middleware"
	"loyalty/internal/repository"

	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	repo *repository.NotificationRepository
}

func NewNotificationHandler(repo *repository.NotificationRepository) *NotificationHandler {
	return &NotificationHandler{repo: repo}
}

func (h *NotificationHandler) List(c *gin.Context) {
	memberID := middleware.GetMemberID(c)
	page, limit := parsePagination(c)
	list, err := h.repo.ListByMemberID(c.Request.Context(), memberID, limit, (page-1)*limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	unread, err := h.repo.CountUnread(c.Request.Context(), memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "list failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"notifications": list, "unread": unread})
}

func (h *NotificationHandler) MarkRead(c *gin.Context) {
	memberID := middleware.GetMemberID(c)
	id, ok := paramID(c, "id")
	if !ok {
		return
	}
	if err := h.repo.MarkRead(c.Request.Context(), id, memberID); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "update failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

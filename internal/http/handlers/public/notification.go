package public

import (
	"errors"
	"strconv"

	handlershared "github.com/tohfa-market/internal/http/handlers/shared"
	"github.com/tohfa-market/internal/http/response"
	"github.com/tohfa-market/internal/repository"
	"github.com/tohfa-market/internal/service"

	"github.com/gin-gonic/gin"
)

// NotificationList 当前用户通知列表
func (h *Handler) NotificationList(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	notifications, total, err := h.NotificationService.List(repository.NotificationListFilter{
		Page:       page,
		PageSize:   pageSize,
		UserID:     userID,
		UnreadOnly: c.Query("unread_only") == "true",
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"notifications": notifications}, buildPagination(page, pageSize, total))
}

// NotificationUnreadCount 未读通知数
func (h *Handler) NotificationUnreadCount(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	count, err := h.NotificationService.CountUnread(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"unread": count})
}

// NotificationMarkRead 标记单条通知已读
func (h *Handler) NotificationMarkRead(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	id, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.NotificationService.MarkRead(userID, id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			respondError(c, response.CodeNotFound, "error.notification_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"read": true})
}

// NotificationMarkAllRead 全部标记已读
func (h *Handler) NotificationMarkAllRead(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.NotificationService.MarkAllRead(userID); err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"read": true})
}

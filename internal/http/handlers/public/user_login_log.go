package public

import (
	"strconv"

	handlershared "github.com/tohfa-market/internal/http/handlers/shared"
	"github.com/tohfa-market/internal/http/response"

	"github.com/gin-gonic/gin"
)

// UserLoginLogs 当前用户登录日志
func (h *Handler) UserLoginLogs(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	logs, total, err := h.UserLoginLogService.ListByUser(userID, page, pageSize)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"logs": logs}, buildPagination(page, pageSize, total))
}

package public

import (
	"errors"
	"strconv"
	"strings"

	handlershared "github.com/tohfa-market/internal/http/handlers/shared"
	"github.com/tohfa-market/internal/http/response"
	"github.com/tohfa-market/internal/repository"
	"github.com/tohfa-market/internal/service"

	"github.com/gin-gonic/gin"
)

// OrderCreateRequest 下单请求
type OrderCreateRequest struct {
	GovernorateID   string `json:"governorate_id" binding:"required"`
	ShippingAddress string `json:"shipping_address" binding:"required"`
}

// OrderCreate 从购物车创建订单
func (h *Handler) OrderCreate(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req OrderCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	order, err := h.OrderService.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		UserID:          userID,
		GovernorateID:   req.GovernorateID,
		ShippingAddress: req.ShippingAddress,
		ClientIP:        c.ClientIP(),
	})
	if err != nil {
		if respondInsufficientStock(c, err) {
			return
		}
		respondWithMappedError(c, err, orderCreateErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, gin.H{"order": order})
}

// OrderList 当前用户订单列表
func (h *Handler) OrderList(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	orders, total, err := h.OrderService.List(repository.OrderListFilter{
		Page:     page,
		PageSize: pageSize,
		UserID:   userID,
		Status:   strings.TrimSpace(c.Query("status")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"orders": orders}, buildPagination(page, pageSize, total))
}

// OrderDetail 当前用户订单详情
func (h *Handler) OrderDetail(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.GetForUser(orderID, userID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOrderNotFound):
			respondError(c, response.CodeNotFound, "error.order_not_found", nil)
		case errors.Is(err, service.ErrPermissionDenied):
			respondError(c, response.CodeForbidden, "error.forbidden", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, gin.H{"order": order})
}

// OrderCancel 买家取消订单（回补库存，重复取消幂等）
func (h *Handler) OrderCancel(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	orderID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	order, err := h.OrderService.CancelOrder(orderID, userID, false)
	if err != nil {
		respondWithMappedError(c, err, orderCancelErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, gin.H{"order": order})
}

// SellerOrderItems 卖家视角的已售订单项
func (h *Handler) SellerOrderItems(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUserByID(userID)
	if err != nil || user == nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if !user.IsSeller() {
		respondError(c, response.CodeForbidden, "error.seller_role_required", nil)
		return
	}

	var orderIDs []uint
	for _, raw := range strings.Split(c.Query("order_ids"), ",") {
		if id, err := strconv.ParseUint(strings.TrimSpace(raw), 10, 64); err == nil && id > 0 {
			orderIDs = append(orderIDs, uint(id))
		}
	}
	items, err := h.OrderService.ListSellerItems(userID, orderIDs)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"items": items})
}

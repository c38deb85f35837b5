package public

import (
	"errors"

	"github.com/tohfa-market/internal/http/response"
	"github.com/tohfa-market/internal/i18n"
	"github.com/tohfa-market/internal/service"

	"github.com/gin-gonic/gin"
)

// CartUpsertRequest 写入购物车行请求
type CartUpsertRequest struct {
	ProductID uint   `json:"product_id" binding:"required"`
	OptionIDs []uint `json:"option_ids"`
	Quantity  int    `json:"quantity" binding:"required"`
}

// CartUpsert 写入购物车行（同一商品同一规格组合覆盖数量）
func (h *Handler) CartUpsert(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req CartUpsertRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	item, err := h.CartService.UpsertItem(service.UpsertCartItemInput{
		UserID:    userID,
		ProductID: req.ProductID,
		OptionIDs: req.OptionIDs,
		Quantity:  req.Quantity,
	})
	if err != nil {
		if respondInsufficientStock(c, err) {
			return
		}
		respondWithMappedError(c, err, cartWriteErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, gin.H{"item": item})
}

// CartUpdateQuantityRequest 调整数量请求
type CartUpdateQuantityRequest struct {
	Quantity int `json:"quantity" binding:"required"`
}

// CartUpdateQuantity 调整购物车行数量
func (h *Handler) CartUpdateQuantity(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req CartUpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	item, err := h.CartService.UpdateQuantity(userID, itemID, req.Quantity)
	if err != nil {
		if respondInsufficientStock(c, err) {
			return
		}
		respondWithMappedError(c, err, cartWriteErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, gin.H{"item": item})
}

// CartRemove 删除购物车行
func (h *Handler) CartRemove(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	itemID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.CartService.RemoveItem(userID, itemID); err != nil {
		respondWithMappedError(c, err, cartWriteErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, gin.H{"removed": true})
}

// CartClear 清空购物车
func (h *Handler) CartClear(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	if err := h.CartService.Clear(userID); err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"cleared": true})
}

// CartList 购物车明细（含实时价格与库存状态）
func (h *Handler) CartList(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	details, err := h.CartService.ListDetails(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"items": details})
}

// respondInsufficientStock 库存不足时返回携带剩余量的文案
func respondInsufficientStock(c *gin.Context, err error) bool {
	var stockErr *service.InsufficientStockError
	if !errors.As(err, &stockErr) {
		return false
	}
	locale := i18n.ResolveLocale(c)
	msg := i18n.TF(locale, "error.insufficient_stock", stockErr.Available)
	respondErrorWithMsg(c, response.CodeBadRequest, msg, nil)
	return true
}

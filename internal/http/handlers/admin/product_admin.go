package admin

import (
	"errors"
	"strconv"
	"strings"

	"github.com/tohfa-market/internal/http/response"
	"github.com/tohfa-market/internal/repository"
	"github.com/tohfa-market/internal/service"

	"github.com/gin-gonic/gin"
)

// AdminSetProductApprovalRequest 商品审核请求
type AdminSetProductApprovalRequest struct {
	Status string `json:"status" binding:"required"`
	Reason string `json:"reason"`
}

// AdminListProducts 管理端商品列表（含待审核与下架商品）
func (h *Handler) AdminListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = normalizePagination(page, pageSize)

	var categoryID uint
	if raw := strings.TrimSpace(c.Query("category_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			categoryID = uint(parsed)
		}
	}
	var sellerID uint
	if raw := strings.TrimSpace(c.Query("seller_id")); raw != "" {
		if parsed, err := strconv.ParseUint(raw, 10, 64); err == nil {
			sellerID = uint(parsed)
		}
	}

	products, total, err := h.ProductService.List(repository.ProductListFilter{
		Page:           page,
		PageSize:       pageSize,
		CategoryID:     categoryID,
		SellerID:       sellerID,
		Search:         strings.TrimSpace(c.Query("search")),
		ApprovalStatus: strings.TrimSpace(c.Query("approval_status")),
		WithCategory:   true,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}

	pagination := response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: (total + int64(pageSize) - 1) / int64(pageSize),
	}
	response.SuccessWithPage(c, products, pagination)
}

// AdminGetProduct 管理端商品详情
func (h *Handler) AdminGetProduct(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	product, err := h.ProductService.GetByID(id)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "error.product_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.product_fetch_failed", err)
		return
	}
	response.Success(c, product)
}

// AdminSetProductApproval 审核商品上架
func (h *Handler) AdminSetProductApproval(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}

	var req AdminSetProductApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	product, err := h.ProductService.SetApproval(id, req.Status, strings.TrimSpace(req.Reason))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrProductNotFound):
			respondError(c, response.CodeNotFound, "error.product_not_found", nil)
		case errors.Is(err, service.ErrApprovalStatusInvalid):
			respondError(c, response.CodeBadRequest, "error.approval_status_invalid", nil)
		default:
			respondError(c, response.CodeInternal, "error.save_failed", err)
		}
		return
	}

	requestLog(c).Infow("admin_product_approval_set",
		"product_id", product.ID,
		"approval_status", product.ApprovalStatus,
	)
	response.Success(c, product)
}

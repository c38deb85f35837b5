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

// ListCategories 分类树（公开）
func (h *Handler) ListCategories(c *gin.Context) {
	categories, err := h.CatalogService.ListCategories()
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"categories": categories})
}

// GetCategoryVariantTypes 分类的生效规格类型（含父链继承与同名覆盖）
func (h *Handler) GetCategoryVariantTypes(c *gin.Context) {
	categoryID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.CatalogService.GetCategory(categoryID); err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			respondError(c, response.CodeNotFound, "error.category_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	types, err := h.CatalogService.EffectiveVariantTypes(c.Request.Context(), categoryID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"variant_types": types})
}

// ListProducts 商品列表（公开，仅上架且过审）
func (h *Handler) ListProducts(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	filter := repository.ProductListFilter{
		Page:           page,
		PageSize:       pageSize,
		Search:         strings.TrimSpace(c.Query("search")),
		OnlyActive:     true,
		ApprovalStatus: "approved",
		WithCategory:   true,
	}
	if categoryID, err := strconv.ParseUint(c.Query("category_id"), 10, 64); err == nil {
		filter.CategoryID = uint(categoryID)
	}
	if sellerID, err := strconv.ParseUint(c.Query("seller_id"), 10, 64); err == nil {
		filter.SellerID = uint(sellerID)
	}

	products, total, err := h.ProductService.List(filter)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"products": products}, buildPagination(page, pageSize, total))
}

// GetProductDetail 商品详情（公开，含价格区间与规格分组）
func (h *Handler) GetProductDetail(c *gin.Context) {
	slug := strings.TrimSpace(c.Param("slug"))
	if slug == "" {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return
	}
	detail, err := h.ProductService.GetDetailBySlug(c.Request.Context(), slug, true)
	if err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			respondError(c, response.CodeNotFound, "error.product_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, detail)
}

func parseUintParam(c *gin.Context, name string) (uint, bool) {
	raw := strings.TrimSpace(c.Param(name))
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || value == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(value), true
}

func buildPagination(page, pageSize int, total int64) response.Pagination {
	totalPage := total / int64(pageSize)
	if total%int64(pageSize) != 0 {
		totalPage++
	}
	return response.Pagination{
		Page:      page,
		PageSize:  pageSize,
		Total:     total,
		TotalPage: totalPage,
	}
}

package admin

import (
	"errors"
	"strconv"

	"github.com/tohfa-market/internal/http/response"
	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// AdminCategoryRequest 创建/更新分类请求
type AdminCategoryRequest struct {
	Slug      string                 `json:"slug" binding:"required"`
	Name      map[string]interface{} `json:"name" binding:"required"`
	ParentID  *uint                  `json:"parent_id"`
	Icon      string                 `json:"icon"`
	SortOrder int                    `json:"sort_order"`
}

// AdminVariantTypeRequest 注册/更新规格类型请求
type AdminVariantTypeRequest struct {
	CategoryID uint   `json:"category_id"`
	Name       string `json:"name" binding:"required"`
	IsRequired bool   `json:"is_required"`
	Priority   int    `json:"priority"`
}

// AdminVariantOptionRequest 创建/更新规格选项请求
type AdminVariantOptionRequest struct {
	VariantTypeID uint            `json:"variant_type_id"`
	Value         string          `json:"value" binding:"required"`
	ExtraPrice    decimal.Decimal `json:"extra_price"`
	SortOrder     int             `json:"sort_order"`
	IsActive      *bool           `json:"is_active"`
}

func (r AdminVariantOptionRequest) active() bool {
	if r.IsActive == nil {
		return true
	}
	return *r.IsActive
}

func respondCatalogError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrCategoryNotFound):
		respondError(c, response.CodeNotFound, "error.category_not_found", nil)
	case errors.Is(err, service.ErrCategoryHasChildren):
		respondError(c, response.CodeBadRequest, "error.category_has_children", nil)
	case errors.Is(err, service.ErrCategoryHasProducts):
		respondError(c, response.CodeBadRequest, "error.category_has_products", nil)
	case errors.Is(err, service.ErrCategoryCycle):
		respondError(c, response.CodeBadRequest, "error.category_cycle", nil)
	case errors.Is(err, service.ErrSlugExists):
		respondError(c, response.CodeBadRequest, "error.slug_exists", nil)
	case errors.Is(err, service.ErrVariantTypeExists):
		respondError(c, response.CodeBadRequest, "error.variant_type_exists", nil)
	case errors.Is(err, service.ErrVariantTypeNotFound):
		respondError(c, response.CodeNotFound, "error.variant_type_not_found", nil)
	case errors.Is(err, service.ErrVariantOptionExists):
		respondError(c, response.CodeBadRequest, "error.variant_option_exists", nil)
	case errors.Is(err, service.ErrVariantOptionNotFound):
		respondError(c, response.CodeNotFound, "error.variant_option_not_found", nil)
	case errors.Is(err, service.ErrVariantOptionInUse):
		respondError(c, response.CodeBadRequest, "error.variant_option_in_use", nil)
	default:
		respondError(c, response.CodeInternal, "error.save_failed", err)
	}
}

// AdminListCategories 管理端分类列表
func (h *Handler) AdminListCategories(c *gin.Context) {
	categories, err := h.CatalogService.ListCategories()
	if err != nil {
		respondError(c, response.CodeInternal, "error.category_fetch_failed", err)
		return
	}
	response.Success(c, categories)
}

// AdminCreateCategory 创建分类
func (h *Handler) AdminCreateCategory(c *gin.Context) {
	var req AdminCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	category, err := h.CatalogService.CreateCategory(service.CreateCategoryInput{
		Slug:      req.Slug,
		NameJSON:  req.Name,
		ParentID:  req.ParentID,
		Icon:      req.Icon,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	requestLog(c).Infow("admin_category_created", "category_id", category.ID, "slug", category.Slug)
	response.Success(c, category)
}

// AdminUpdateCategory 更新分类
func (h *Handler) AdminUpdateCategory(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req AdminCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	category, err := h.CatalogService.UpdateCategory(id, service.CreateCategoryInput{
		Slug:      req.Slug,
		NameJSON:  req.Name,
		ParentID:  req.ParentID,
		Icon:      req.Icon,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	requestLog(c).Infow("admin_category_updated", "category_id", category.ID)
	response.Success(c, category)
}

// AdminDeleteCategory 删除分类
func (h *Handler) AdminDeleteCategory(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.CatalogService.DeleteCategory(id); err != nil {
		respondCatalogError(c, err)
		return
	}
	requestLog(c).Infow("admin_category_deleted", "category_id", id)
	response.Success(c, nil)
}

// AdminGetCategoryVariantTypes 查看分类生效规格类型（含继承）
func (h *Handler) AdminGetCategoryVariantTypes(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	types, err := h.CatalogService.EffectiveVariantTypes(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrCategoryNotFound) {
			respondError(c, response.CodeNotFound, "error.category_not_found", nil)
			return
		}
		respondError(c, response.CodeInternal, "error.category_fetch_failed", err)
		return
	}
	response.Success(c, types)
}

// AdminRegisterVariantType 在分类上注册规格类型
func (h *Handler) AdminRegisterVariantType(c *gin.Context) {
	categoryID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req AdminVariantTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	vt, err := h.CatalogService.RegisterVariantType(service.RegisterVariantTypeInput{
		CategoryID: categoryID,
		Name:       req.Name,
		IsRequired: req.IsRequired,
		Priority:   req.Priority,
	})
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	requestLog(c).Infow("admin_variant_type_registered",
		"category_id", categoryID,
		"variant_type_id", vt.ID,
		"name", vt.Name,
	)
	response.Success(c, vt)
}

// AdminUpdateVariantType 更新规格类型
func (h *Handler) AdminUpdateVariantType(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req AdminVariantTypeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	vt, err := h.CatalogService.UpdateVariantType(id, req.Name, req.IsRequired, req.Priority)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, vt)
}

// AdminDeleteVariantType 删除规格类型及其选项
func (h *Handler) AdminDeleteVariantType(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.CatalogService.DeleteVariantType(id); err != nil {
		respondCatalogError(c, err)
		return
	}
	requestLog(c).Infow("admin_variant_type_deleted", "variant_type_id", id)
	response.Success(c, nil)
}

// AdminAddVariantOption 为规格类型添加选项
func (h *Handler) AdminAddVariantOption(c *gin.Context) {
	typeID, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req AdminVariantOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	option, err := h.CatalogService.AddVariantOption(service.VariantOptionInput{
		VariantTypeID: typeID,
		Value:         req.Value,
		ExtraPrice:    models.NewMoneyFromDecimal(req.ExtraPrice),
		SortOrder:     req.SortOrder,
		IsActive:      req.active(),
	})
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	requestLog(c).Infow("admin_variant_option_added",
		"variant_type_id", typeID,
		"variant_option_id", option.ID,
		"value", option.Value,
	)
	response.Success(c, option)
}

// AdminUpdateVariantOption 更新规格选项
func (h *Handler) AdminUpdateVariantOption(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	var req AdminVariantOptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	option, err := h.CatalogService.UpdateVariantOption(id, service.VariantOptionInput{
		VariantTypeID: req.VariantTypeID,
		Value:         req.Value,
		ExtraPrice:    models.NewMoneyFromDecimal(req.ExtraPrice),
		SortOrder:     req.SortOrder,
		IsActive:      req.active(),
	})
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	response.Success(c, option)
}

// AdminDeleteVariantOption 删除规格选项
func (h *Handler) AdminDeleteVariantOption(c *gin.Context) {
	id, ok := parseIDParam(c)
	if !ok {
		return
	}
	if err := h.CatalogService.DeleteVariantOption(id); err != nil {
		respondCatalogError(c, err)
		return
	}
	requestLog(c).Infow("admin_variant_option_deleted", "variant_option_id", id)
	response.Success(c, nil)
}

func parseIDParam(c *gin.Context) (uint, bool) {
	raw, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || raw == 0 {
		respondError(c, response.CodeBadRequest, "error.bad_request", nil)
		return 0, false
	}
	return uint(raw), true
}

package public

import (
	"strconv"
	"strings"

	handlershared "github.com/tohfa-market/internal/http/handlers/shared"
	"github.com/tohfa-market/internal/http/response"
	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/repository"
	"github.com/tohfa-market/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// SellerProductRequest 卖家商品写入请求
type SellerProductRequest struct {
	CategoryID      uint                   `json:"category_id" binding:"required"`
	Slug            string                 `json:"slug" binding:"required"`
	TitleJSON       map[string]interface{} `json:"title_json" binding:"required"`
	DescriptionJSON map[string]interface{} `json:"description_json"`
	BasePrice       decimal.Decimal        `json:"base_price"`
	StockQuantity   int                    `json:"stock_quantity"`
	Images          []string               `json:"images"`
	Tags            []string               `json:"tags"`
	SortOrder       int                    `json:"sort_order"`
}

func (r SellerProductRequest) toInput(sellerID uint) service.CreateProductInput {
	return service.CreateProductInput{
		SellerID:        sellerID,
		CategoryID:      r.CategoryID,
		Slug:            strings.TrimSpace(r.Slug),
		TitleJSON:       r.TitleJSON,
		DescriptionJSON: r.DescriptionJSON,
		BasePrice:       models.NewMoneyFromDecimal(r.BasePrice),
		StockQuantity:   r.StockQuantity,
		Images:          r.Images,
		Tags:            r.Tags,
		SortOrder:       r.SortOrder,
	}
}

// SellerProductCreate 卖家创建商品（进入待审核）
func (h *Handler) SellerProductCreate(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	var req SellerProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.Create(req.toInput(userID))
	if err != nil {
		respondWithMappedError(c, err, productWriteErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, gin.H{"product": product})
}

// SellerProductUpdate 卖家更新商品（改动后回到待审核）
func (h *Handler) SellerProductUpdate(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req SellerProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	product, err := h.ProductService.Update(productID, req.toInput(userID))
	if err != nil {
		respondWithMappedError(c, err, productWriteErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, gin.H{"product": product})
}

// SellerProductDelete 卖家下架删除商品
func (h *Handler) SellerProductDelete(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	if err := h.ProductService.Delete(productID, userID); err != nil {
		respondWithMappedError(c, err, productWriteErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// SellerProductList 卖家自己的商品列表（含待审核）
func (h *Handler) SellerProductList(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	products, total, err := h.ProductService.List(repository.ProductListFilter{
		Page:           page,
		PageSize:       pageSize,
		SellerID:       userID,
		ApprovalStatus: strings.TrimSpace(c.Query("approval_status")),
		WithSelections: true,
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"products": products}, buildPagination(page, pageSize, total))
}

// SellerSelectionRequest 卖家规格选择写入请求
type SellerSelectionRequest struct {
	VariantOptionID uint            `json:"variant_option_id" binding:"required"`
	StockCount      int             `json:"stock_count"`
	PriceAdjustment decimal.Decimal `json:"price_adjustment"`
	IsActive        *bool           `json:"is_active"`
}

// SellerSelectionUpsert 卖家启用/更新商品规格选择
func (h *Handler) SellerSelectionUpsert(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req SellerSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}
	selection, err := h.SelectionService.Upsert(c.Request.Context(), service.UpsertSelectionInput{
		SellerID:        userID,
		ProductID:       productID,
		VariantOptionID: req.VariantOptionID,
		StockCount:      req.StockCount,
		PriceAdjustment: models.NewMoneyFromDecimal(req.PriceAdjustment),
		IsActive:        active,
	})
	if err != nil {
		respondWithMappedError(c, err, selectionWriteErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, gin.H{"selection": selection})
}

// SellerSelectionList 卖家查看商品规格选择
func (h *Handler) SellerSelectionList(c *gin.Context) {
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	selections, err := h.SelectionService.ListByProduct(productID, false)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	hasVariants, err := h.SelectionService.HasVariants(productID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"selections": selections, "has_variants": hasVariants})
}

// SellerSelectionDelete 卖家停用商品规格选择
func (h *Handler) SellerSelectionDelete(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	selectionID, ok := parseUintParam(c, "selection_id")
	if !ok {
		return
	}
	if err := h.SelectionService.Delete(selectionID, userID); err != nil {
		respondWithMappedError(c, err, selectionWriteErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

// SellerCombinationStocksRequest 组合库存覆盖请求
type SellerCombinationStocksRequest struct {
	Stocks models.CombinationStockMap `json:"stocks" binding:"required"`
}

// SellerSetCombinationStocks 卖家整表覆盖组合库存
func (h *Handler) SellerSetCombinationStocks(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	productID, ok := parseUintParam(c, "id")
	if !ok {
		return
	}
	var req SellerCombinationStocksRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}
	if err := h.SelectionService.SetCombinationStocks(productID, userID, req.Stocks); err != nil {
		respondWithMappedError(c, err, selectionWriteErrorRules, response.CodeInternal, "error.internal")
		return
	}
	response.Success(c, gin.H{"updated": true})
}

package service

import (
	"context"
	"sort"
	"strings"

	"github.com/tohfa-market/internal/constants"
	"github.com/tohfa-market/internal/logger"
	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/queue"
	"github.com/tohfa-market/internal/repository"
)

// ProductService 商品业务服务
type ProductService struct {
	productRepo   repository.ProductRepository
	selectionRepo repository.SelectionRepository
	categoryRepo  repository.CategoryRepository
	userRepo      repository.UserRepository
	catalogSvc    *CatalogService
	stockSvc      *StockService
	queueClient   *queue.Client
}

// NewProductService 创建商品服务
func NewProductService(
	productRepo repository.ProductRepository,
	selectionRepo repository.SelectionRepository,
	categoryRepo repository.CategoryRepository,
	userRepo repository.UserRepository,
	catalogSvc *CatalogService,
	stockSvc *StockService,
	queueClient *queue.Client,
) *ProductService {
	return &ProductService{
		productRepo:   productRepo,
		selectionRepo: selectionRepo,
		categoryRepo:  categoryRepo,
		userRepo:      userRepo,
		catalogSvc:    catalogSvc,
		stockSvc:      stockSvc,
		queueClient:   queueClient,
	}
}

// CreateProductInput 创建/更新商品输入
type CreateProductInput struct {
	SellerID        uint
	CategoryID      uint
	Slug            string
	TitleJSON       map[string]interface{}
	DescriptionJSON map[string]interface{}
	BasePrice       models.Money
	StockQuantity   int
	Images          []string
	Tags            []string
	SortOrder       int
}

// ProductVariantOptionView 商品详情中的规格选项视图
type ProductVariantOptionView struct {
	SelectionID     uint         `json:"selection_id"`
	OptionID        uint         `json:"option_id"`
	Value           string       `json:"value"`
	ExtraPrice      models.Money `json:"extra_price"`
	PriceAdjustment models.Money `json:"price_adjustment"`
	FinalPrice      models.Money `json:"final_price"`
	StockCount      int          `json:"stock_count"`
}

// ProductVariantView 商品详情中按规格类型分组的视图
type ProductVariantView struct {
	TypeID   uint                       `json:"type_id"`
	Name     string                     `json:"name"`
	Priority int                        `json:"priority"`
	Options  []ProductVariantOptionView `json:"options"`
}

// ProductDetail 商品详情（含价格区间与规格分组）
type ProductDetail struct {
	Product    *models.Product      `json:"product"`
	PriceRange PriceRange           `json:"price_range"`
	Variants   []ProductVariantView `json:"variants"`
	HasStock   bool                 `json:"has_stock"`
}

// List 商品列表
func (s *ProductService) List(filter repository.ProductListFilter) ([]models.Product, int64, error) {
	return s.productRepo.List(filter)
}

// GetByID 获取商品
func (s *ProductService) GetByID(id uint) (*models.Product, error) {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	return product, nil
}

// Create 创建商品（仅卖家角色，新商品进入待审核）
func (s *ProductService) Create(input CreateProductInput) (*models.Product, error) {
	if input.BasePrice.Decimal.IsNegative() {
		return nil, ErrPriceInvalid
	}
	if input.StockQuantity < 0 {
		return nil, ErrStockInvalid
	}
	seller, err := s.userRepo.GetByID(input.SellerID)
	if err != nil {
		return nil, err
	}
	if seller == nil {
		return nil, ErrNotFound
	}
	if !seller.IsSeller() {
		return nil, ErrSellerRoleRequired
	}
	category, err := s.categoryRepo.GetByID(input.CategoryID)
	if err != nil {
		return nil, err
	}
	if category == nil {
		return nil, ErrCategoryNotFound
	}
	count, err := s.productRepo.CountBySlug(input.Slug, nil)
	if err != nil {
		return nil, err
	}
	if count > 0 {
		return nil, ErrSlugExists
	}

	product := models.Product{
		SellerID:        input.SellerID,
		CategoryID:      input.CategoryID,
		Slug:            input.Slug,
		TitleJSON:       models.JSON(input.TitleJSON),
		DescriptionJSON: models.JSON(input.DescriptionJSON),
		BasePrice:       input.BasePrice,
		StockQuantity:   input.StockQuantity,
		Images:          models.StringArray(input.Images),
		Tags:            models.StringArray(input.Tags),
		ApprovalStatus:  constants.ProductApprovalPending,
		IsActive:        true,
		SortOrder:       input.SortOrder,
	}
	if err := s.productRepo.Create(&product); err != nil {
		return nil, err
	}
	return &product, nil
}

// Update 更新商品（卖家改动后回到待审核）
func (s *ProductService) Update(id uint, input CreateProductInput) (*models.Product, error) {
	if input.BasePrice.Decimal.IsNegative() {
		return nil, ErrPriceInvalid
	}
	if input.StockQuantity < 0 {
		return nil, ErrStockInvalid
	}
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if input.SellerID != 0 && product.SellerID != input.SellerID {
		return nil, ErrNotProductSeller
	}
	if input.CategoryID != 0 && input.CategoryID != product.CategoryID {
		category, err := s.categoryRepo.GetByID(input.CategoryID)
		if err != nil {
			return nil, err
		}
		if category == nil {
			return nil, ErrCategoryNotFound
		}
		product.CategoryID = input.CategoryID
	}
	if input.Slug != "" && input.Slug != product.Slug {
		count, err := s.productRepo.CountBySlug(input.Slug, &id)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, ErrSlugExists
		}
		product.Slug = input.Slug
	}

	product.TitleJSON = models.JSON(input.TitleJSON)
	product.DescriptionJSON = models.JSON(input.DescriptionJSON)
	product.BasePrice = input.BasePrice
	product.StockQuantity = input.StockQuantity
	product.Images = models.StringArray(input.Images)
	product.Tags = models.StringArray(input.Tags)
	product.SortOrder = input.SortOrder
	product.ApprovalStatus = constants.ProductApprovalPending

	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	return product, nil
}

// Delete 删除商品及其规格选择
func (s *ProductService) Delete(id uint, sellerID uint) error {
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	if sellerID != 0 && product.SellerID != sellerID {
		return ErrNotProductSeller
	}
	if err := s.selectionRepo.DeleteByProduct(id); err != nil {
		return err
	}
	return s.productRepo.Delete(id)
}

// SetApproval 管理员审核商品
func (s *ProductService) SetApproval(id uint, status, reason string) (*models.Product, error) {
	status = strings.ToLower(strings.TrimSpace(status))
	if status != constants.ProductApprovalApproved && status != constants.ProductApprovalRejected {
		return nil, ErrApprovalStatusInvalid
	}
	product, err := s.productRepo.GetByID(id)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	product.ApprovalStatus = status
	if err := s.productRepo.Update(product); err != nil {
		return nil, err
	}
	if err := s.queueClient.EnqueueProductApprovalNotify(queue.ProductApprovalNotifyPayload{
		ProductID: product.ID,
		Status:    status,
		Reason:    reason,
	}); err != nil {
		logger.Warnw("product_approval_notify_enqueue_failed", "product_id", product.ID, "error", err)
	}
	return product, nil
}

// GetDetailBySlug 获取商品详情（买家视角）
//
// 规格按所属类型分组，类型顺序沿用分类生效集合的 (priority, name) 排序。
func (s *ProductService) GetDetailBySlug(ctx context.Context, slug string, onlyActive bool) (*ProductDetail, error) {
	product, err := s.productRepo.GetBySlug(slug, onlyActive)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if onlyActive && product.ApprovalStatus != constants.ProductApprovalApproved {
		return nil, ErrProductNotFound
	}
	return s.buildDetail(ctx, product)
}

func (s *ProductService) buildDetail(ctx context.Context, product *models.Product) (*ProductDetail, error) {
	selections := product.Selections
	activeSelections := make([]models.ProductSelection, 0, len(selections))
	for _, sel := range selections {
		if sel.IsActive {
			activeSelections = append(activeSelections, sel)
		}
	}

	effective, err := s.catalogSvc.EffectiveVariantTypes(ctx, product.CategoryID)
	if err != nil {
		return nil, err
	}
	typeOrder := make(map[string]int, len(effective))
	for i, vt := range effective {
		typeOrder[strings.ToLower(vt.Name)] = i
	}

	groups := make(map[uint]*ProductVariantView)
	groupOrder := make([]uint, 0)
	for i := range activeSelections {
		sel := activeSelections[i]
		if sel.VariantOption == nil || sel.VariantOption.VariantType == nil {
			continue
		}
		vt := sel.VariantOption.VariantType
		group, ok := groups[vt.ID]
		if !ok {
			group = &ProductVariantView{
				TypeID:   vt.ID,
				Name:     vt.Name,
				Priority: vt.Priority,
			}
			groups[vt.ID] = group
			groupOrder = append(groupOrder, vt.ID)
		}
		group.Options = append(group.Options, ProductVariantOptionView{
			SelectionID:     sel.ID,
			OptionID:        sel.VariantOptionID,
			Value:           sel.VariantOption.Value,
			ExtraPrice:      sel.VariantOption.ExtraPrice,
			PriceAdjustment: sel.PriceAdjustment,
			FinalPrice:      SelectionFinalPrice(product, &sel),
			StockCount:      sel.StockCount,
		})
	}

	variants := make([]ProductVariantView, 0, len(groupOrder))
	for _, typeID := range groupOrder {
		group := groups[typeID]
		sort.SliceStable(group.Options, func(i, j int) bool {
			return group.Options[i].SelectionID < group.Options[j].SelectionID
		})
		variants = append(variants, *group)
	}
	sort.SliceStable(variants, func(i, j int) bool {
		oi, iOK := typeOrder[strings.ToLower(variants[i].Name)]
		oj, jOK := typeOrder[strings.ToLower(variants[j].Name)]
		if iOK && jOK && oi != oj {
			return oi < oj
		}
		if variants[i].Priority != variants[j].Priority {
			return variants[i].Priority < variants[j].Priority
		}
		return strings.ToLower(variants[i].Name) < strings.ToLower(variants[j].Name)
	})

	hasStock := s.stockSvc.AvailableStock(product, activeSelections) > 0

	return &ProductDetail{
		Product:    product,
		PriceRange: ProductPriceRange(product, activeSelections),
		Variants:   variants,
		HasStock:   hasStock,
	}, nil
}

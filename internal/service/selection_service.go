package service

import (
	"context"
	"strings"

	"github.com/tohfa-market/internal/logger"
	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/repository"

	"gorm.io/gorm"
)

// SelectionService 商品规格选择服务
type SelectionService struct {
	productRepo   repository.ProductRepository
	selectionRepo repository.SelectionRepository
	variantRepo   repository.VariantRepository
	catalogSvc    *CatalogService
}

// NewSelectionService 创建规格选择服务
func NewSelectionService(
	productRepo repository.ProductRepository,
	selectionRepo repository.SelectionRepository,
	variantRepo repository.VariantRepository,
	catalogSvc *CatalogService,
) *SelectionService {
	return &SelectionService{
		productRepo:   productRepo,
		selectionRepo: selectionRepo,
		variantRepo:   variantRepo,
		catalogSvc:    catalogSvc,
	}
}

// UpsertSelectionInput 规格选择输入
//
// SellerID 为 0 表示管理端调用，跳过归属校验。
type UpsertSelectionInput struct {
	SellerID        uint
	ProductID       uint
	VariantOptionID uint
	StockCount      int
	PriceAdjustment models.Money
	IsActive        bool
}

// ListByProduct 查询商品规格选择
func (s *SelectionService) ListByProduct(productID uint, onlyActive bool) ([]models.ProductSelection, error) {
	return s.selectionRepo.ListByProductID(productID, onlyActive)
}

// HasVariants 商品是否配置了启用的规格选择
//
// 有启用选择的商品下单必须带选项，商品级库存随之失效，调用方据此分流。
func (s *SelectionService) HasVariants(productID uint) (bool, error) {
	selections, err := s.selectionRepo.ListByProductID(productID, true)
	if err != nil {
		return false, err
	}
	return len(selections) > 0, nil
}

// Upsert 创建或更新规格选择
//
// 同一 (商品, 选项) 重复提交收敛为一行；选项所属规格类型必须出现在商品
// 分类的生效类型集中，未注册的类型直接拒绝而不是隐式注册。组合价格
// （基础价 + 附加价 + 加价）为负的写入同样拒绝。
func (s *SelectionService) Upsert(ctx context.Context, input UpsertSelectionInput) (*models.ProductSelection, error) {
	if input.StockCount < 0 {
		return nil, ErrStockInvalid
	}
	product, err := s.productRepo.GetByID(input.ProductID)
	if err != nil {
		return nil, err
	}
	if product == nil {
		return nil, ErrProductNotFound
	}
	if input.SellerID != 0 && product.SellerID != input.SellerID {
		return nil, ErrNotProductSeller
	}
	option, err := s.variantRepo.GetOptionByID(input.VariantOptionID)
	if err != nil {
		return nil, err
	}
	if option == nil || option.VariantType == nil {
		return nil, ErrVariantOptionNotFound
	}

	registered, err := s.typeRegisteredForCategory(ctx, product.CategoryID, option.VariantType.Name)
	if err != nil {
		return nil, err
	}
	if !registered {
		return nil, ErrVariantTypeNotRegistered
	}

	selection := models.ProductSelection{
		ProductID:       input.ProductID,
		VariantOptionID: input.VariantOptionID,
		StockCount:      input.StockCount,
		PriceAdjustment: input.PriceAdjustment,
		IsActive:        input.IsActive,
	}
	selection.VariantOption = option
	if selection.IsNegativeComposition(product.BasePrice) {
		logger.Warnw("selection_price_composition_negative",
			"product_id", product.ID,
			"variant_option_id", option.ID,
			"base_price", product.BasePrice.String(),
			"extra_price", option.ExtraPrice.String(),
			"price_adjustment", input.PriceAdjustment.String(),
		)
		return nil, ErrPriceComposition
	}
	selection.VariantOption = nil
	if err := s.selectionRepo.Upsert(&selection); err != nil {
		return nil, err
	}
	return s.selectionRepo.GetByProductAndOption(input.ProductID, input.VariantOptionID)
}

// Delete 删除规格选择
func (s *SelectionService) Delete(id uint, sellerID uint) error {
	selection, err := s.selectionRepo.GetByID(id)
	if err != nil {
		return err
	}
	if selection == nil {
		return ErrNotFound
	}
	if sellerID != 0 {
		product, err := s.productRepo.GetByID(selection.ProductID)
		if err != nil {
			return err
		}
		if product == nil {
			return ErrProductNotFound
		}
		if product.SellerID != sellerID {
			return ErrNotProductSeller
		}
	}
	return s.selectionRepo.Delete(id)
}

// SetCombinationStocks 整体设置商品的组合库存映射
//
// 每个组合键的选项必须都是该商品的有效规格选择，库存不得为负。
func (s *SelectionService) SetCombinationStocks(productID, sellerID uint, stocks models.CombinationStockMap) error {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	if sellerID != 0 && product.SellerID != sellerID {
		return ErrNotProductSeller
	}

	selections, err := s.selectionRepo.ListByProductID(productID, false)
	if err != nil {
		return err
	}
	validOptionIDs := make(map[string]bool, len(selections))
	for _, sel := range selections {
		validOptionIDs[models.CombinationKeyFromOptionIDs([]uint{sel.VariantOptionID})] = true
	}

	normalized := make(models.CombinationStockMap, len(stocks))
	for key, count := range stocks {
		if count < 0 {
			return ErrCombinationStockInvalid
		}
		normalizedKey := models.NormalizeCombinationKey(key)
		if normalizedKey == "" {
			return ErrCombinationStockInvalid
		}
		for _, part := range strings.Split(normalizedKey, "_") {
			if !validOptionIDs[part] {
				return ErrCombinationStockInvalid
			}
		}
		normalized[normalizedKey] = count
	}

	return s.productRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.productRepo.WithTx(tx)
		locked, err := repo.GetByIDForUpdate(productID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrProductNotFound
		}
		return repo.UpdateCombinationStocks(productID, normalized)
	})
}

// typeRegisteredForCategory 判断规格类型名是否在分类生效集合中
func (s *SelectionService) typeRegisteredForCategory(ctx context.Context, categoryID uint, typeName string) (bool, error) {
	effective, err := s.catalogSvc.EffectiveVariantTypes(ctx, categoryID)
	if err != nil {
		return false, err
	}
	for _, vt := range effective {
		if strings.EqualFold(vt.Name, typeName) {
			return true, nil
		}
	}
	return false, nil
}

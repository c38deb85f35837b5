package service

import (
	"github.com/tohfa-market/internal/logger"
	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/repository"

	"gorm.io/gorm"
)

// VariantSelector 库存操作目标
//
// 三种形态：组合键（多选项组合库存）、单个规格选择、或两者皆空表示
// 商品级库存。扣减与回补必须命中创建时使用的同一目标，避免错账。
type VariantSelector struct {
	SelectionIDs   []uint
	CombinationKey string
}

// IsProductLevel 是否商品级库存目标
func (v VariantSelector) IsProductLevel() bool {
	return v.CombinationKey == "" && len(v.SelectionIDs) == 0
}

// StockService 库存服务
//
// 可售量解析优先级：组合库存映射 > 启用规格选择库存 > 商品级库存。
type StockService struct {
	productRepo   repository.ProductRepository
	selectionRepo repository.SelectionRepository
}

// NewStockService 创建库存服务
func NewStockService(productRepo repository.ProductRepository, selectionRepo repository.SelectionRepository) *StockService {
	return &StockService{productRepo: productRepo, selectionRepo: selectionRepo}
}

// ResolveSelector 按选项 ID 集合解析库存目标
//
// 组合键命中组合库存映射时优先生效；否则落到对应规格选择；无选项时为
// 商品级库存。
func (s *StockService) ResolveSelector(product *models.Product, selections []models.ProductSelection) VariantSelector {
	if product == nil || len(selections) == 0 {
		return VariantSelector{}
	}
	optionIDs := make([]uint, 0, len(selections))
	selectionIDs := make([]uint, 0, len(selections))
	for _, sel := range selections {
		optionIDs = append(optionIDs, sel.VariantOptionID)
		selectionIDs = append(selectionIDs, sel.ID)
	}
	key := models.CombinationKeyFromOptionIDs(optionIDs)
	if _, ok := product.CombinationStocks[key]; ok {
		return VariantSelector{CombinationKey: key}
	}
	return VariantSelector{SelectionIDs: selectionIDs}
}

// AvailableStock 商品级可售量
//
// 严格遮蔽优先级：组合库存映射非空时取其值之和，否则有启用规格选择时
// 取选择库存之和，最后才落到商品级库存。两种形态同时存在且总量不一致
// 时记录对账告警。
func (s *StockService) AvailableStock(product *models.Product, selections []models.ProductSelection) int {
	if product == nil {
		return 0
	}
	selectionTotal := 0
	activeSelections := 0
	for _, sel := range selections {
		if !sel.IsActive {
			continue
		}
		activeSelections++
		selectionTotal += sel.StockCount
	}
	if len(product.CombinationStocks) > 0 {
		combinedTotal := 0
		for _, count := range product.CombinationStocks {
			combinedTotal += count
		}
		if activeSelections > 0 && combinedTotal != selectionTotal {
			logger.Warnw("stock_sources_disagree",
				"product_id", product.ID,
				"combination_total", combinedTotal,
				"selection_total", selectionTotal,
			)
		}
		return combinedTotal
	}
	if activeSelections > 0 {
		return selectionTotal
	}
	return product.StockQuantity
}

// Available 解析库存目标的当前可售量
func (s *StockService) Available(product *models.Product, selections []models.ProductSelection, selector VariantSelector) int {
	if product == nil {
		return 0
	}
	if selector.CombinationKey != "" {
		combined, ok := product.CombinationStocks[selector.CombinationKey]
		if ok {
			s.warnOnSourceDisagreement(product, selections, selector.CombinationKey, combined)
			return combined
		}
		return 0
	}
	if len(selector.SelectionIDs) > 0 {
		byID := make(map[uint]models.ProductSelection, len(selections))
		for _, sel := range selections {
			byID[sel.ID] = sel
		}
		available := -1
		for _, id := range selector.SelectionIDs {
			sel, ok := byID[id]
			if !ok || !sel.IsActive {
				return 0
			}
			if available < 0 || sel.StockCount < available {
				available = sel.StockCount
			}
		}
		if available < 0 {
			return 0
		}
		return available
	}
	return product.StockQuantity
}

// warnOnSourceDisagreement 组合库存与选择级库存不一致时告警
//
// 组合映射覆盖选择库存是特性而非错误，但两者差异过大通常意味着卖家
// 忘了同步其中一侧，留告警便于排查。
func (s *StockService) warnOnSourceDisagreement(product *models.Product, selections []models.ProductSelection, key string, combined int) {
	if len(selections) == 0 {
		return
	}
	minSelection := -1
	for _, sel := range selections {
		if !sel.IsActive {
			continue
		}
		if minSelection < 0 || sel.StockCount < minSelection {
			minSelection = sel.StockCount
		}
	}
	if minSelection >= 0 && combined > minSelection {
		logger.Warnw("stock_sources_disagree",
			"product_id", product.ID,
			"combination_key", key,
			"combination_stock", combined,
			"min_selection_stock", minSelection,
		)
	}
}

// DecrementInTx 事务内按目标扣减库存
//
// 扣减只作用于目标自身的存储形态：组合键只改映射，选择目标只改选择行，
// 商品级目标只改商品行，不再串扣其它层。全部走条件更新或行锁防超卖。
func (s *StockService) DecrementInTx(tx *gorm.DB, productID uint, selector VariantSelector, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidOrderItem
	}
	if selector.CombinationKey != "" {
		return s.adjustCombinationStock(tx, productID, selector.CombinationKey, -quantity)
	}
	if len(selector.SelectionIDs) > 0 {
		repo := s.selectionRepo.WithTx(tx)
		for _, selectionID := range selector.SelectionIDs {
			affected, err := repo.DecrementStock(selectionID, quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				selection, getErr := repo.GetByID(selectionID)
				available := 0
				if getErr == nil && selection != nil {
					available = selection.StockCount
				}
				return &InsufficientStockError{ProductID: productID, Available: available}
			}
		}
		return nil
	}
	repo := s.productRepo.WithTx(tx)
	affected, err := repo.DecrementProductStock(productID, quantity)
	if err != nil {
		return err
	}
	if affected == 0 {
		product, getErr := repo.GetByID(productID)
		available := 0
		if getErr == nil && product != nil {
			available = product.StockQuantity
		}
		return &InsufficientStockError{ProductID: productID, Available: available}
	}
	return nil
}

// RestoreInTx 事务内按目标回补库存（订单取消时调用）
//
// 回补目标行已不存在（选择或商品被删）视为并发冲突，让调用方回滚重试，
// 而不是把数量悄悄丢掉。
func (s *StockService) RestoreInTx(tx *gorm.DB, productID uint, selector VariantSelector, quantity int) error {
	if quantity <= 0 {
		return ErrInvalidOrderItem
	}
	if selector.CombinationKey != "" {
		return s.adjustCombinationStock(tx, productID, selector.CombinationKey, quantity)
	}
	if len(selector.SelectionIDs) > 0 {
		repo := s.selectionRepo.WithTx(tx)
		for _, selectionID := range selector.SelectionIDs {
			affected, err := repo.RestoreStock(selectionID, quantity)
			if err != nil {
				return err
			}
			if affected == 0 {
				logger.Warnw("stock_restore_target_missing",
					"product_id", productID, "selection_id", selectionID, "quantity", quantity)
				return ErrStockConflict
			}
		}
		return nil
	}
	affected, err := s.productRepo.WithTx(tx).RestoreProductStock(productID, quantity)
	if err != nil {
		return err
	}
	if affected == 0 {
		logger.Warnw("stock_restore_target_missing",
			"product_id", productID, "quantity", quantity)
		return ErrStockConflict
	}
	return nil
}

// adjustCombinationStock 行锁读改写组合库存映射
func (s *StockService) adjustCombinationStock(tx *gorm.DB, productID uint, key string, delta int) error {
	repo := s.productRepo.WithTx(tx)
	product, err := repo.GetByIDForUpdate(productID)
	if err != nil {
		return err
	}
	if product == nil {
		return ErrProductNotFound
	}
	current, ok := product.CombinationStocks[key]
	if !ok {
		// 回补时键已被卖家移除：落到商品级库存而不是丢失数量
		if delta > 0 {
			logger.Warnw("combination_stock_key_missing_on_restore",
				"product_id", productID, "combination_key", key, "quantity", delta)
			_, restoreErr := repo.RestoreProductStock(productID, delta)
			return restoreErr
		}
		return &InsufficientStockError{ProductID: productID, Available: 0}
	}
	next := current + delta
	if next < 0 {
		return &InsufficientStockError{ProductID: productID, Available: current}
	}
	stocks := make(models.CombinationStockMap, len(product.CombinationStocks))
	for k, v := range product.CombinationStocks {
		stocks[k] = v
	}
	stocks[key] = next
	return repo.UpdateCombinationStocks(productID, stocks)
}

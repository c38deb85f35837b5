package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupStockServiceTest(t *testing.T) (*StockService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:stock_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.Category{},
		&models.VariantType{},
		&models.VariantOption{},
		&models.Product{},
		&models.ProductSelection{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	productRepo := repository.NewProductRepository(db)
	selectionRepo := repository.NewSelectionRepository(db)
	return NewStockService(productRepo, selectionRepo), db
}

// createVariantProduct 建一个带两个规格选择的商品，返回商品与选择
func createVariantProduct(t *testing.T, db *gorm.DB, slug string, combinationStocks models.CombinationStockMap) (*models.Product, []models.ProductSelection) {
	t.Helper()
	category := createTestCategory(t, db, slug+"-cat", nil)
	vtSize := createTestVariantType(t, db, category.ID, "Size", 1)
	vtColor := createTestVariantType(t, db, category.ID, "Color", 2)
	optLarge := createTestVariantOption(t, db, vtSize.ID, "Large", decimal.NewFromInt(10))
	optRed := createTestVariantOption(t, db, vtColor.ID, "Red", decimal.Zero)

	product := &models.Product{
		SellerID:          1,
		CategoryID:        category.ID,
		Slug:              slug,
		TitleJSON:         models.JSON{"en": slug},
		BasePrice:         models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		StockQuantity:     50,
		CombinationStocks: combinationStocks,
		IsActive:          true,
		ApprovalStatus:    "approved",
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	selections := []models.ProductSelection{
		{ProductID: product.ID, VariantOptionID: optLarge.ID, StockCount: 8, IsActive: true},
		{ProductID: product.ID, VariantOptionID: optRed.ID, StockCount: 12, IsActive: true},
	}
	for i := range selections {
		if err := db.Create(&selections[i]).Error; err != nil {
			t.Fatalf("create selection failed: %v", err)
		}
	}
	// 组合键按选项 ID 规范化后写回，测试数据无需关心顺序
	reloaded, err := repository.NewSelectionRepository(db).ListByProductID(product.ID, false)
	if err != nil {
		t.Fatalf("reload selections failed: %v", err)
	}
	return product, reloaded
}

func combinationKeyOf(selections []models.ProductSelection) string {
	ids := make([]uint, 0, len(selections))
	for _, sel := range selections {
		ids = append(ids, sel.VariantOptionID)
	}
	return models.CombinationKeyFromOptionIDs(ids)
}

func TestResolveSelectorPrefersCombinationMap(t *testing.T) {
	svc, db := setupStockServiceTest(t)
	product, selections := createVariantProduct(t, db, "combo-product", nil)
	key := combinationKeyOf(selections)
	product.CombinationStocks = models.CombinationStockMap{key: 3}

	selector := svc.ResolveSelector(product, selections)
	if selector.CombinationKey != key {
		t.Fatalf("expected combination selector, got %+v", selector)
	}
	if got := svc.Available(product, selections, selector); got != 3 {
		t.Fatalf("combination stock should win, got %d", got)
	}
}

func TestResolveSelectorFallsBackToSelections(t *testing.T) {
	svc, db := setupStockServiceTest(t)
	product, selections := createVariantProduct(t, db, "selection-product", nil)

	selector := svc.ResolveSelector(product, selections)
	if selector.CombinationKey != "" || len(selector.SelectionIDs) != 2 {
		t.Fatalf("expected selection selector, got %+v", selector)
	}
	// 多选项组合的可售量取各选择的最小值
	if got := svc.Available(product, selections, selector); got != 8 {
		t.Fatalf("expected min selection stock 8, got %d", got)
	}
}

func TestAvailableProductLevelWithoutSelections(t *testing.T) {
	svc, db := setupStockServiceTest(t)
	product, _ := createVariantProduct(t, db, "plain-product", nil)

	selector := svc.ResolveSelector(product, nil)
	if !selector.IsProductLevel() {
		t.Fatalf("expected product-level selector, got %+v", selector)
	}
	if got := svc.Available(product, nil, selector); got != 50 {
		t.Fatalf("expected product stock 50, got %d", got)
	}
}

func TestAvailableStockShadowPriority(t *testing.T) {
	svc, db := setupStockServiceTest(t)
	product, selections := createVariantProduct(t, db, "shadow-product", nil)

	// 组合库存映射存在时，商品级可售量取映射值之和，遮蔽选择与商品级库存
	product.CombinationStocks = models.CombinationStockMap{
		combinationKeyOf(selections): 3,
		"900_901":                    7,
	}
	if got := svc.AvailableStock(product, selections); got != 10 {
		t.Fatalf("combination map sum should win, got %d", got)
	}

	// 无组合映射时取启用选择的库存之和
	product.CombinationStocks = nil
	if got := svc.AvailableStock(product, selections); got != 20 {
		t.Fatalf("expected selection sum 20, got %d", got)
	}

	// 停用的选择不计入
	selections[0].IsActive = false
	if got := svc.AvailableStock(product, selections); got != 12 {
		t.Fatalf("inactive selection must not count, got %d", got)
	}

	// 既无映射也无启用选择时落到商品级库存
	if got := svc.AvailableStock(product, nil); got != 50 {
		t.Fatalf("expected product-level stock 50, got %d", got)
	}
}

func TestDecrementCombinationStockGuardsOversell(t *testing.T) {
	svc, db := setupStockServiceTest(t)
	product, selections := createVariantProduct(t, db, "combo-decrement", nil)
	key := combinationKeyOf(selections)
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("combination_stocks", models.CombinationStockMap{key: 2}).Error; err != nil {
		t.Fatalf("seed combination stocks failed: %v", err)
	}

	selector := VariantSelector{CombinationKey: key}
	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.DecrementInTx(tx, product.ID, selector, 2)
	})
	if err != nil {
		t.Fatalf("decrement failed: %v", err)
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.DecrementInTx(tx, product.ID, selector, 1)
	})
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected insufficient stock, got: %v", err)
	}
	if stockErr.Available != 0 {
		t.Fatalf("expected 0 available, got %d", stockErr.Available)
	}
	if !errors.Is(err, ErrInsufficientStock) {
		t.Fatalf("error should unwrap to sentinel")
	}

	// 商品级与选择级库存不受组合扣减影响
	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.StockQuantity != 50 {
		t.Fatalf("product-level stock must stay untouched, got %d", reloaded.StockQuantity)
	}
}

func TestRestoreCombinationStockFallsBackWhenKeyRemoved(t *testing.T) {
	svc, db := setupStockServiceTest(t)
	product, selections := createVariantProduct(t, db, "combo-restore", nil)
	key := combinationKeyOf(selections)

	// 组合键已被卖家移除，回补落到商品级库存
	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.RestoreInTx(tx, product.ID, VariantSelector{CombinationKey: key}, 4)
	})
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.StockQuantity != 54 {
		t.Fatalf("expected product stock 54 after fallback restore, got %d", reloaded.StockQuantity)
	}
}

func TestRestoreMissingSelectionReturnsConflict(t *testing.T) {
	svc, db := setupStockServiceTest(t)
	product, selections := createVariantProduct(t, db, "conflict-restore", nil)

	// 回补目标选择行已被删除，应报冲突而不是静默丢量
	if err := db.Unscoped().Delete(&models.ProductSelection{}, selections[0].ID).Error; err != nil {
		t.Fatalf("delete selection failed: %v", err)
	}
	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.RestoreInTx(tx, product.ID, VariantSelector{SelectionIDs: []uint{selections[0].ID}}, 3)
	})
	if !errors.Is(err, ErrStockConflict) {
		t.Fatalf("expected stock conflict, got: %v", err)
	}

	// 商品级回补目标缺失同样报冲突
	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.RestoreInTx(tx, product.ID+1000, VariantSelector{}, 3)
	})
	if !errors.Is(err, ErrStockConflict) {
		t.Fatalf("expected stock conflict for missing product, got: %v", err)
	}
}

func TestDecrementSelectionStockRoundTrip(t *testing.T) {
	svc, db := setupStockServiceTest(t)
	product, selections := createVariantProduct(t, db, "selection-roundtrip", nil)
	selector := svc.ResolveSelector(product, selections)

	err := db.Transaction(func(tx *gorm.DB) error {
		return svc.DecrementInTx(tx, product.ID, selector, 5)
	})
	if err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	err = db.Transaction(func(tx *gorm.DB) error {
		return svc.RestoreInTx(tx, product.ID, selector, 5)
	})
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}

	reloaded, err := repository.NewSelectionRepository(db).ListByProductID(product.ID, false)
	if err != nil {
		t.Fatalf("reload selections failed: %v", err)
	}
	for _, sel := range reloaded {
		for _, original := range selections {
			if sel.ID == original.ID && sel.StockCount != original.StockCount {
				t.Fatalf("selection %d stock drifted: %d != %d", sel.ID, sel.StockCount, original.StockCount)
			}
		}
	}
}

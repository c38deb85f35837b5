package service

import (
	"context"
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

func setupSelectionServiceTest(t *testing.T) (*SelectionService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:selection_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
	variantRepo := repository.NewVariantRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	catalogSvc := NewCatalogService(categoryRepo, variantRepo, selectionRepo)
	return NewSelectionService(productRepo, selectionRepo, variantRepo, catalogSvc), db
}

func TestSelectionUpsertRejectsUnregisteredType(t *testing.T) {
	svc, db := setupSelectionServiceTest(t)

	categoryA := createTestCategory(t, db, "sel-cat-a", nil)
	categoryB := createTestCategory(t, db, "sel-cat-b", nil)
	// 类型注册在 B，商品挂在 A
	vt := createTestVariantType(t, db, categoryB.ID, "Scent", 1)
	opt := createTestVariantOption(t, db, vt.ID, "Jasmine", decimal.Zero)

	product := &models.Product{
		SellerID:   3,
		CategoryID: categoryA.ID,
		Slug:       "soap-bar",
		TitleJSON:  models.JSON{"en": "Soap bar"},
		BasePrice:  models.NewMoneyFromDecimal(decimal.NewFromInt(40)),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	_, err := svc.Upsert(context.Background(), UpsertSelectionInput{
		SellerID:        3,
		ProductID:       product.ID,
		VariantOptionID: opt.ID,
		StockCount:      5,
		IsActive:        true,
	})
	if !errors.Is(err, ErrVariantTypeNotRegistered) {
		t.Fatalf("expected unregistered type rejection, got: %v", err)
	}
}

func TestSelectionUpsertOwnershipAndConvergence(t *testing.T) {
	svc, db := setupSelectionServiceTest(t)

	category := createTestCategory(t, db, "sel-cat", nil)
	vt := createTestVariantType(t, db, category.ID, "Size", 1)
	opt := createTestVariantOption(t, db, vt.ID, "Large", decimal.NewFromInt(10))

	product := &models.Product{
		SellerID:   4,
		CategoryID: category.ID,
		Slug:       "clay-mug",
		TitleJSON:  models.JSON{"en": "Clay mug"},
		BasePrice:  models.NewMoneyFromDecimal(decimal.NewFromInt(60)),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	// 非商品卖家被拒
	_, err := svc.Upsert(context.Background(), UpsertSelectionInput{
		SellerID: 99, ProductID: product.ID, VariantOptionID: opt.ID, StockCount: 1, IsActive: true,
	})
	if !errors.Is(err, ErrNotProductSeller) {
		t.Fatalf("expected ownership rejection, got: %v", err)
	}

	// 重复提交收敛为一行，字段取最新值
	if _, err := svc.Upsert(context.Background(), UpsertSelectionInput{
		SellerID: 4, ProductID: product.ID, VariantOptionID: opt.ID, StockCount: 5, IsActive: true,
	}); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	updated, err := svc.Upsert(context.Background(), UpsertSelectionInput{
		SellerID: 4, ProductID: product.ID, VariantOptionID: opt.ID,
		StockCount:      9,
		PriceAdjustment: models.NewMoneyFromDecimal(decimal.NewFromInt(-3)),
		IsActive:        true,
	})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if updated.StockCount != 9 {
		t.Fatalf("expected stock 9, got %d", updated.StockCount)
	}

	var count int64
	if err := db.Model(&models.ProductSelection{}).Where("product_id = ?", product.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single selection row, got %d", count)
	}
}

func TestHasVariantsReflectsActiveSelections(t *testing.T) {
	svc, db := setupSelectionServiceTest(t)

	category := createTestCategory(t, db, "hv-cat", nil)
	vt := createTestVariantType(t, db, category.ID, "Pattern", 1)
	opt := createTestVariantOption(t, db, vt.ID, "Striped", decimal.Zero)

	product := &models.Product{
		SellerID:   7,
		CategoryID: category.ID,
		Slug:       "wool-blanket",
		TitleJSON:  models.JSON{"en": "Wool blanket"},
		BasePrice:  models.NewMoneyFromDecimal(decimal.NewFromInt(150)),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	has, err := svc.HasVariants(product.ID)
	if err != nil {
		t.Fatalf("has variants failed: %v", err)
	}
	if has {
		t.Fatalf("product without selections must not report variants")
	}

	selection, err := svc.Upsert(context.Background(), UpsertSelectionInput{
		SellerID: 7, ProductID: product.ID, VariantOptionID: opt.ID, StockCount: 2, IsActive: true,
	})
	if err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	if has, err = svc.HasVariants(product.ID); err != nil || !has {
		t.Fatalf("expected variants after active selection, has=%v err=%v", has, err)
	}

	// 全部选择移除后商品回到无规格形态
	if err := svc.Delete(selection.ID, 7); err != nil {
		t.Fatalf("delete selection failed: %v", err)
	}
	if has, err = svc.HasVariants(product.ID); err != nil || has {
		t.Fatalf("removed selections must not count, has=%v err=%v", has, err)
	}
}

func TestSelectionUpsertRejectsNegativeComposition(t *testing.T) {
	svc, db := setupSelectionServiceTest(t)

	category := createTestCategory(t, db, "neg-cat", nil)
	vt := createTestVariantType(t, db, category.ID, "Finish", 1)
	opt := createTestVariantOption(t, db, vt.ID, "Gilded", decimal.NewFromInt(5))

	product := &models.Product{
		SellerID:   6,
		CategoryID: category.ID,
		Slug:       "cedar-box",
		TitleJSON:  models.JSON{"en": "Cedar box"},
		BasePrice:  models.NewMoneyFromDecimal(decimal.NewFromInt(30)),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	// 基础价 30 + 附加价 5 + 加价 -100 为负，写入被拒
	_, err := svc.Upsert(context.Background(), UpsertSelectionInput{
		SellerID:        6,
		ProductID:       product.ID,
		VariantOptionID: opt.ID,
		StockCount:      3,
		PriceAdjustment: models.NewMoneyFromDecimal(decimal.NewFromInt(-100)),
		IsActive:        true,
	})
	if !errors.Is(err, ErrPriceComposition) {
		t.Fatalf("expected negative composition rejection, got: %v", err)
	}

	var count int64
	if err := db.Model(&models.ProductSelection{}).Where("product_id = ?", product.ID).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("rejected selection must not persist, got %d rows", count)
	}
}

func TestSetCombinationStocksValidatesKeys(t *testing.T) {
	svc, db := setupSelectionServiceTest(t)

	category := createTestCategory(t, db, "combo-cat", nil)
	vt := createTestVariantType(t, db, category.ID, "Color", 1)
	opt := createTestVariantOption(t, db, vt.ID, "Blue", decimal.Zero)

	product := &models.Product{
		SellerID:   5,
		CategoryID: category.ID,
		Slug:       "woven-rug",
		TitleJSON:  models.JSON{"en": "Woven rug"},
		BasePrice:  models.NewMoneyFromDecimal(decimal.NewFromInt(200)),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	selection := &models.ProductSelection{ProductID: product.ID, VariantOptionID: opt.ID, StockCount: 4, IsActive: true}
	if err := db.Create(selection).Error; err != nil {
		t.Fatalf("create selection failed: %v", err)
	}

	key := models.CombinationKeyFromOptionIDs([]uint{opt.ID})
	if err := svc.SetCombinationStocks(product.ID, 5, models.CombinationStockMap{key: 7}); err != nil {
		t.Fatalf("set combination stocks failed: %v", err)
	}

	var reloaded models.Product
	if err := db.First(&reloaded, product.ID).Error; err != nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.CombinationStocks[key] != 7 {
		t.Fatalf("combination stock not persisted: %+v", reloaded.CombinationStocks)
	}

	// 引用不存在选项的键被拒绝
	err := svc.SetCombinationStocks(product.ID, 5, models.CombinationStockMap{"99999": 1})
	if !errors.Is(err, ErrCombinationStockInvalid) {
		t.Fatalf("expected invalid key rejection, got: %v", err)
	}
	// 负库存被拒绝
	err = svc.SetCombinationStocks(product.ID, 5, models.CombinationStockMap{key: -1})
	if !errors.Is(err, ErrCombinationStockInvalid) {
		t.Fatalf("expected negative stock rejection, got: %v", err)
	}
}

package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupMigrationServiceTest(t *testing.T) (*MigrationService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:legacy_migration_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
		&models.LegacyProductVariant{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	legacyRepo := repository.NewLegacyVariantRepository(db)
	productRepo := repository.NewProductRepository(db)
	variantRepo := repository.NewVariantRepository(db)
	selectionRepo := repository.NewSelectionRepository(db)
	categoryRepo := repository.NewCategoryRepository(db)
	catalogSvc := NewCatalogService(categoryRepo, variantRepo, selectionRepo)
	return NewMigrationService(legacyRepo, productRepo, variantRepo, selectionRepo, catalogSvc), db
}

func createLegacyVariant(t *testing.T, db *gorm.DB, productID uint, name, value string, price int64, stock int) *models.LegacyProductVariant {
	t.Helper()
	row := &models.LegacyProductVariant{
		ProductID:  productID,
		Name:       name,
		Value:      value,
		Price:      models.NewMoneyFromDecimal(decimal.NewFromInt(price)),
		StockCount: stock,
	}
	if err := db.Create(row).Error; err != nil {
		t.Fatalf("create legacy variant failed: %v", err)
	}
	return row
}

func TestMigrateAllConvertsLegacyVariants(t *testing.T) {
	svc, db := setupMigrationServiceTest(t)

	category := createTestCategory(t, db, "legacy-cat", nil)
	product := &models.Product{
		SellerID:   6,
		CategoryID: category.ID,
		Slug:       "legacy-lamp",
		TitleJSON:  models.JSON{"en": "Brass lamp"},
		BasePrice:  models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	createLegacyVariant(t, db, product.ID, "Size", "Large", 120, 7)
	createLegacyVariant(t, db, product.ID, "Size", "Small", 90, 3)
	createLegacyVariant(t, db, product.ID, " ", "Broken", 50, 1)

	report, err := svc.MigrateAll(context.Background())
	if err != nil {
		t.Fatalf("migrate all failed: %v", err)
	}
	if report.ProductsMigrated != 1 || report.VariantsMigrated != 2 {
		t.Fatalf("unexpected report: %+v", report)
	}

	var types []models.VariantType
	if err := db.Where("category_id = ?", category.ID).Find(&types).Error; err != nil {
		t.Fatalf("list types failed: %v", err)
	}
	if len(types) != 1 || types[0].Name != "Size" {
		t.Fatalf("expected single Size type, got %+v", types)
	}

	var selections []models.ProductSelection
	if err := db.Where("product_id = ?", product.ID).Order("id").Find(&selections).Error; err != nil {
		t.Fatalf("list selections failed: %v", err)
	}
	if len(selections) != 2 {
		t.Fatalf("expected 2 selections, got %d", len(selections))
	}
	// 绝对价 120 相对基础价 100 换算为 +20 加价
	if !selections[0].PriceAdjustment.Decimal.Equal(decimal.NewFromInt(20)) {
		t.Fatalf("expected adjustment 20, got %s", selections[0].PriceAdjustment.Decimal)
	}
	if !selections[1].PriceAdjustment.Decimal.Equal(decimal.NewFromInt(-10)) {
		t.Fatalf("expected adjustment -10, got %s", selections[1].PriceAdjustment.Decimal)
	}
	if selections[0].StockCount != 7 || selections[1].StockCount != 3 {
		t.Fatalf("stock not carried over: %+v", selections)
	}

	// 畸形行被标记完成但不产生选择
	var pending int64
	if err := db.Model(&models.LegacyProductVariant{}).Where("migrated_at IS NULL").Count(&pending).Error; err != nil {
		t.Fatalf("count pending failed: %v", err)
	}
	if pending != 0 {
		t.Fatalf("expected all legacy rows marked, %d pending", pending)
	}
}

func TestMigrateAllIsRepeatable(t *testing.T) {
	svc, db := setupMigrationServiceTest(t)

	category := createTestCategory(t, db, "legacy-rerun-cat", nil)
	product := &models.Product{
		SellerID:   7,
		CategoryID: category.ID,
		Slug:       "legacy-scarf",
		TitleJSON:  models.JSON{"en": "Silk scarf"},
		BasePrice:  models.NewMoneyFromDecimal(decimal.NewFromInt(80)),
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	createLegacyVariant(t, db, product.ID, "Color", "Red", 85, 4)

	if _, err := svc.MigrateAll(context.Background()); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	report, err := svc.MigrateAll(context.Background())
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if report.ProductsMigrated != 0 || report.VariantsMigrated != 0 {
		t.Fatalf("second run should be a no-op, got %+v", report)
	}

	var count int64
	if err := db.Model(&models.ProductSelection{}).Where("product_id = ?", product.ID).Count(&count).Error; err != nil {
		t.Fatalf("count selections failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single selection after rerun, got %d", count)
	}
}

func TestMigrateProductSkipsDeletedProduct(t *testing.T) {
	svc, db := setupMigrationServiceTest(t)

	createLegacyVariant(t, db, 4242, "Size", "Large", 30, 2)

	migrated, err := svc.MigrateProduct(context.Background(), 4242)
	if err != nil {
		t.Fatalf("migrate missing product failed: %v", err)
	}
	if migrated != 0 {
		t.Fatalf("expected 0 migrated, got %d", migrated)
	}

	// 历史行保留待人工处理
	var pending int64
	if err := db.Model(&models.LegacyProductVariant{}).Where("migrated_at IS NULL").Count(&pending).Error; err != nil {
		t.Fatalf("count pending failed: %v", err)
	}
	if pending != 1 {
		t.Fatalf("expected legacy row kept, pending=%d", pending)
	}
}

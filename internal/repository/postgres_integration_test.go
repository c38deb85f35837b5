//go:build integration
// +build integration

package repository

import (
	"os"
	"strings"
	"testing"

	"github.com/tohfa-market/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// setupPostgresIntegrationDB 初始化 PostgreSQL 集成测试数据库。
func setupPostgresIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := strings.TrimSpace(os.Getenv("TEST_POSTGRES_DSN"))
	if dsn == "" {
		t.Skip("skip postgres integration test: TEST_POSTGRES_DSN is empty")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open postgres failed: %v", err)
	}

	cleanupModels := []interface{}{
		&models.ProductSelection{},
		&models.VariantOption{},
		&models.VariantType{},
		&models.Product{},
		&models.Category{},
	}
	_ = db.Migrator().DropTable(cleanupModels...)

	if err := db.AutoMigrate(
		&models.Category{},
		&models.VariantType{},
		&models.VariantOption{},
		&models.Product{},
		&models.ProductSelection{},
	); err != nil {
		t.Fatalf("migrate postgres models failed: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Migrator().DropTable(cleanupModels...)
		sqlDB, err := db.DB()
		if err == nil {
			_ = sqlDB.Close()
		}
	})

	return db
}

func TestPostgresLocalizedProductSearch(t *testing.T) {
	db := setupPostgresIntegrationDB(t)

	category := &models.Category{
		Slug:     "pg-category",
		NameJSON: models.JSON{"en": "Handmade", "ar": "منتجات يدوية"},
	}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}

	productRepo := NewProductRepository(db)
	product := &models.Product{
		SellerID:      1,
		CategoryID:    category.ID,
		Slug:          "pg-product-scarf",
		TitleJSON:     models.JSON{"en": "Wool Scarf", "ar": "وشاح صوف"},
		DescriptionJSON: models.JSON{"en": "hand woven winter scarf"},
		BasePrice:     models.NewMoneyFromDecimal(decimal.NewFromInt(99)),
		StockQuantity: 10,
		IsActive:      true,
	}
	if err := productRepo.Create(product); err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	rows, total, err := productRepo.List(ProductListFilter{
		Page:   1,
		Search: "وشاح",
	})
	if err != nil {
		t.Fatalf("product list search ar failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("product list search ar want 1 got total=%d len=%d", total, len(rows))
	}

	rows, total, err = productRepo.List(ProductListFilter{
		Page:   1,
		Search: "woven",
	})
	if err != nil {
		t.Fatalf("product list search en failed: %v", err)
	}
	if total != 1 || len(rows) != 1 {
		t.Fatalf("product list search en want 1 got total=%d len=%d", total, len(rows))
	}
}

func TestPostgresSelectionUpsertConflict(t *testing.T) {
	db := setupPostgresIntegrationDB(t)

	category := &models.Category{Slug: "pg-upsert-category", NameJSON: models.JSON{"en": "Clothing"}}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	vt := &models.VariantType{CategoryID: category.ID, Name: "Size"}
	if err := db.Create(vt).Error; err != nil {
		t.Fatalf("create variant type failed: %v", err)
	}
	opt := &models.VariantOption{VariantTypeID: vt.ID, Value: "Large"}
	if err := db.Create(opt).Error; err != nil {
		t.Fatalf("create variant option failed: %v", err)
	}
	product := &models.Product{
		SellerID:   1,
		CategoryID: category.ID,
		Slug:       "pg-upsert-product",
		TitleJSON:  models.JSON{"en": "Shirt"},
		BasePrice:  models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		IsActive:   true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}

	repo := NewSelectionRepository(db)
	first := &models.ProductSelection{
		ProductID:       product.ID,
		VariantOptionID: opt.ID,
		StockCount:      5,
		PriceAdjustment: models.NewMoneyFromDecimal(decimal.NewFromInt(3)),
		IsActive:        true,
	}
	if err := repo.Upsert(first); err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	second := &models.ProductSelection{
		ProductID:       product.ID,
		VariantOptionID: opt.ID,
		StockCount:      8,
		PriceAdjustment: models.NewMoneyFromDecimal(decimal.NewFromInt(4)),
		IsActive:        true,
	}
	if err := repo.Upsert(second); err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}

	selections, err := repo.ListByProductID(product.ID, false)
	if err != nil {
		t.Fatalf("list selections failed: %v", err)
	}
	if len(selections) != 1 {
		t.Fatalf("selection rows want 1 got %d", len(selections))
	}
	if selections[0].StockCount != 8 {
		t.Fatalf("selection stock want 8 got %d", selections[0].StockCount)
	}
}

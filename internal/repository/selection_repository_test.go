package repository

import (
	"testing"

	"github.com/tohfa-market/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupSelectionRepositoryTest(t *testing.T) (*GormSelectionRepository, *gorm.DB) {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
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
		t.Fatalf("migrate selection models failed: %v", err)
	}
	return NewSelectionRepository(db), db
}

func createVariantFixture(t *testing.T, db *gorm.DB, slug, typeName, optionValue string) (*models.Product, *models.VariantOption) {
	t.Helper()
	category := &models.Category{Slug: slug + "-category", NameJSON: models.JSON{"en": "Clothing"}}
	if err := db.Create(category).Error; err != nil {
		t.Fatalf("create category failed: %v", err)
	}
	vt := &models.VariantType{CategoryID: category.ID, Name: typeName}
	if err := db.Create(vt).Error; err != nil {
		t.Fatalf("create variant type failed: %v", err)
	}
	opt := &models.VariantOption{VariantTypeID: vt.ID, Value: optionValue}
	if err := db.Create(opt).Error; err != nil {
		t.Fatalf("create variant option failed: %v", err)
	}
	product := &models.Product{
		SellerID:      1,
		CategoryID:    category.ID,
		Slug:          slug,
		TitleJSON:     models.JSON{"en": "Test Product"},
		BasePrice:     models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
		StockQuantity: 10,
		IsActive:      true,
	}
	if err := db.Create(product).Error; err != nil {
		t.Fatalf("create product failed: %v", err)
	}
	return product, opt
}

func TestSelectionUpsertCreatesThenUpdates(t *testing.T) {
	repo, db := setupSelectionRepositoryTest(t)
	product, opt := createVariantFixture(t, db, "upsert-shirt", "Size", "Large")

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
		PriceAdjustment: models.NewMoneyFromDecimal(decimal.NewFromInt(-2)),
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
		t.Fatalf("stock count want 8 got %d", selections[0].StockCount)
	}
	if selections[0].PriceAdjustment.String() != "-2.00" {
		t.Fatalf("price adjustment want -2.00 got %s", selections[0].PriceAdjustment.String())
	}
}

func TestSelectionDecrementStockGuardsAgainstOversell(t *testing.T) {
	repo, db := setupSelectionRepositoryTest(t)
	product, opt := createVariantFixture(t, db, "decrement-shirt", "Color", "Red")

	selection := &models.ProductSelection{
		ProductID:       product.ID,
		VariantOptionID: opt.ID,
		StockCount:      3,
		IsActive:        true,
	}
	if err := repo.Upsert(selection); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}
	stored, err := repo.GetByProductAndOption(product.ID, opt.ID)
	if err != nil || stored == nil {
		t.Fatalf("get selection failed: %v", err)
	}

	affected, err := repo.DecrementStock(stored.ID, 2)
	if err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("decrement affected want 1 got %d", affected)
	}

	// 剩余 1，再扣 2 应拒绝且不改库存
	affected, err = repo.DecrementStock(stored.ID, 2)
	if err != nil {
		t.Fatalf("second decrement failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("oversell decrement affected want 0 got %d", affected)
	}

	stored, err = repo.GetByID(stored.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload selection failed: %v", err)
	}
	if stored.StockCount != 1 {
		t.Fatalf("stock count want 1 got %d", stored.StockCount)
	}

	affected, err = repo.RestoreStock(stored.ID, 2)
	if err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("restore affected want 1 got %d", affected)
	}
	stored, err = repo.GetByID(stored.ID)
	if err != nil || stored == nil {
		t.Fatalf("reload selection failed: %v", err)
	}
	if stored.StockCount != 3 {
		t.Fatalf("stock count after restore want 3 got %d", stored.StockCount)
	}
}

func TestProductStockDecrementGuard(t *testing.T) {
	_, db := setupSelectionRepositoryTest(t)
	productRepo := NewProductRepository(db)
	product, _ := createVariantFixture(t, db, "product-stock-shirt", "Material", "Cotton")

	affected, err := productRepo.DecrementProductStock(product.ID, 10)
	if err != nil {
		t.Fatalf("decrement failed: %v", err)
	}
	if affected != 1 {
		t.Fatalf("decrement affected want 1 got %d", affected)
	}

	affected, err = productRepo.DecrementProductStock(product.ID, 1)
	if err != nil {
		t.Fatalf("second decrement failed: %v", err)
	}
	if affected != 0 {
		t.Fatalf("empty stock decrement affected want 0 got %d", affected)
	}

	if _, err := productRepo.RestoreProductStock(product.ID, 4); err != nil {
		t.Fatalf("restore failed: %v", err)
	}
	reloaded, err := productRepo.GetByID(product.ID)
	if err != nil || reloaded == nil {
		t.Fatalf("reload product failed: %v", err)
	}
	if reloaded.StockQuantity != 4 {
		t.Fatalf("stock quantity want 4 got %d", reloaded.StockQuantity)
	}
}

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

func setupCartServiceTest(t *testing.T) (*CartService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:cart_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.Category{},
		&models.VariantType{},
		&models.VariantOption{},
		&models.Product{},
		&models.ProductSelection{},
		&models.CartItem{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	cartRepo := repository.NewCartRepository(db)
	productRepo := repository.NewProductRepository(db)
	selectionRepo := repository.NewSelectionRepository(db)
	stockSvc := NewStockService(productRepo, selectionRepo)
	return NewCartService(cartRepo, productRepo, selectionRepo, stockSvc), db
}

func TestUpsertCartItemAccumulatesQuantity(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product, selections := createVariantProduct(t, db, "cart-accumulate", nil)
	optionIDs := []uint{selections[0].VariantOptionID, selections[1].VariantOptionID}

	first, err := svc.UpsertItem(UpsertCartItemInput{UserID: 7, ProductID: product.ID, OptionIDs: optionIDs, Quantity: 2})
	if err != nil {
		t.Fatalf("first upsert failed: %v", err)
	}
	second, err := svc.UpsertItem(UpsertCartItemInput{UserID: 7, ProductID: product.ID, OptionIDs: optionIDs, Quantity: 3})
	if err != nil {
		t.Fatalf("second upsert failed: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("same line identity must converge to one row: %d != %d", first.ID, second.ID)
	}
	if second.Quantity != 5 {
		t.Fatalf("repeated add must accumulate to 5, got %d", second.Quantity)
	}

	var count int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", 7).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected single cart row, got %d", count)
	}

	// 累加后的总量超过可售量时整次加购被拒
	_, err = svc.UpsertItem(UpsertCartItemInput{UserID: 7, ProductID: product.ID, OptionIDs: optionIDs, Quantity: 4})
	var insufficient *InsufficientStockError
	if !errors.As(err, &insufficient) {
		t.Fatalf("expected insufficient stock for summed total, got %v", err)
	}
	var reloaded models.CartItem
	if err := db.First(&reloaded, first.ID).Error; err != nil {
		t.Fatalf("reload cart item failed: %v", err)
	}
	if reloaded.Quantity != 5 {
		t.Fatalf("rejected add must not change quantity, got %d", reloaded.Quantity)
	}
}

func TestUpsertCartItemDistinctVariantsAreSeparateLines(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product, selections := createVariantProduct(t, db, "cart-lines", nil)

	if _, err := svc.UpsertItem(UpsertCartItemInput{
		UserID: 8, ProductID: product.ID,
		OptionIDs: []uint{selections[0].VariantOptionID},
		Quantity:  1,
	}); err != nil {
		t.Fatalf("line one failed: %v", err)
	}
	if _, err := svc.UpsertItem(UpsertCartItemInput{
		UserID: 8, ProductID: product.ID,
		OptionIDs: []uint{selections[1].VariantOptionID},
		Quantity:  1,
	}); err != nil {
		t.Fatalf("line two failed: %v", err)
	}

	var count int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", 8).Count(&count).Error; err != nil {
		t.Fatalf("count failed: %v", err)
	}
	if count != 2 {
		t.Fatalf("different variants must be separate lines, got %d", count)
	}
}

func TestUpsertCartItemInsufficientStock(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product, selections := createVariantProduct(t, db, "cart-stock", nil)

	_, err := svc.UpsertItem(UpsertCartItemInput{
		UserID: 9, ProductID: product.ID,
		OptionIDs: []uint{selections[0].VariantOptionID, selections[1].VariantOptionID},
		Quantity:  9, // 选择级最小库存为 8
	})
	var stockErr *InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected insufficient stock, got: %v", err)
	}
	if stockErr.Available != 8 {
		t.Fatalf("expected available 8, got %d", stockErr.Available)
	}
}

func TestUpsertCartItemRejectsForeignOption(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product, _ := createVariantProduct(t, db, "cart-foreign", nil)
	_, otherSelections := createVariantProduct(t, db, "cart-foreign-other", nil)

	_, err := svc.UpsertItem(UpsertCartItemInput{
		UserID: 10, ProductID: product.ID,
		OptionIDs: []uint{otherSelections[0].VariantOptionID},
		Quantity:  1,
	})
	if !errors.Is(err, ErrInvalidCartItem) {
		t.Fatalf("expected invalid cart item, got: %v", err)
	}
}

func TestCartListDetailsComputesPrices(t *testing.T) {
	svc, db := setupCartServiceTest(t)
	product, selections := createVariantProduct(t, db, "cart-prices", nil)
	// Large 附加价 10，加一条商品级加价 5
	if err := db.Model(&models.ProductSelection{}).Where("id = ?", selections[0].ID).
		Update("price_adjustment", models.NewMoneyFromDecimal(decimal.NewFromInt(5))).Error; err != nil {
		t.Fatalf("seed adjustment failed: %v", err)
	}

	if _, err := svc.UpsertItem(UpsertCartItemInput{
		UserID: 11, ProductID: product.ID,
		OptionIDs: []uint{selections[0].VariantOptionID},
		Quantity:  2,
	}); err != nil {
		t.Fatalf("upsert failed: %v", err)
	}

	details, err := svc.ListDetails(11)
	if err != nil {
		t.Fatalf("list details failed: %v", err)
	}
	if len(details) != 1 {
		t.Fatalf("expected one line, got %d", len(details))
	}
	line := details[0]
	// 100 + 10 (类型附加) + 5 (商品级加价)
	if !line.UnitPrice.Decimal.Equal(decimal.NewFromInt(115)) {
		t.Fatalf("unexpected unit price: %s", line.UnitPrice.String())
	}
	if !line.LineTotal.Decimal.Equal(decimal.NewFromInt(230)) {
		t.Fatalf("unexpected line total: %s", line.LineTotal.String())
	}
	if !line.InStock {
		t.Fatalf("line should be in stock")
	}
}

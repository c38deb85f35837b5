package service

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tohfa-market/internal/config"
	"github.com/tohfa-market/internal/constants"
	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupOrderServiceTest(t *testing.T) (*OrderService, *CartService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:order_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
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
		&models.Order{},
		&models.OrderItem{},
		&models.WalletAccount{},
		&models.WalletTransaction{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db

	cartRepo := repository.NewCartRepository(db)
	productRepo := repository.NewProductRepository(db)
	selectionRepo := repository.NewSelectionRepository(db)
	orderRepo := repository.NewOrderRepository(db)
	userRepo := repository.NewUserRepository(db)
	walletRepo := repository.NewWalletRepository(db)

	stockSvc := NewStockService(productRepo, selectionRepo)
	walletSvc := NewWalletService(walletRepo, userRepo)
	cartSvc := NewCartService(cartRepo, productRepo, selectionRepo, stockSvc)

	cfg := &config.Config{}
	cfg.Order.CommissionRatePercent = "10"
	cfg.Order.DefaultShippingCost = "20"

	orderSvc := NewOrderService(orderRepo, cartRepo, productRepo, selectionRepo, userRepo, stockSvc, walletSvc, nil, cfg)
	return orderSvc, cartSvc, db
}

func createOrderTestSeller(t *testing.T, db *gorm.DB, id uint, shipping models.ShippingCostMap) {
	t.Helper()
	user := models.User{
		ID:            id,
		Email:         fmt.Sprintf("seller_%d@example.com", id),
		PasswordHash:  "hash",
		UserType:      constants.UserTypeArtist,
		Status:        constants.UserStatusActive,
		ShippingCosts: shipping,
	}
	if err := db.Create(&user).Error; err != nil {
		t.Fatalf("create seller failed: %v", err)
	}
}

func addCartLine(t *testing.T, cartSvc *CartService, userID, productID uint, optionIDs []uint, qty int) {
	t.Helper()
	if _, err := cartSvc.UpsertItem(UpsertCartItemInput{
		UserID: userID, ProductID: productID, OptionIDs: optionIDs, Quantity: qty,
	}); err != nil {
		t.Fatalf("add cart line failed: %v", err)
	}
}

func TestCreateOrderFreezesPricesAndDecrementsStock(t *testing.T) {
	orderSvc, cartSvc, db := setupOrderServiceTest(t)
	createOrderTestSeller(t, db, 1, models.ShippingCostMap{
		"5": {Available: true, Cost: models.NewMoneyFromDecimal(decimal.NewFromInt(30))},
	})
	product, selections := createVariantProduct(t, db, "order-create", nil)
	addCartLine(t, cartSvc, 20, product.ID, []uint{selections[0].VariantOptionID}, 2)

	order, err := orderSvc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:          20,
		GovernorateID:   "5",
		ShippingAddress: "12 Tahrir St, Cairo",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	if order.Status != constants.OrderStatusPending {
		t.Fatalf("new order must be pending, got %s", order.Status)
	}
	if len(order.Items) != 1 {
		t.Fatalf("expected one order item, got %d", len(order.Items))
	}
	item := order.Items[0]
	// 单价 100 + 10 类型附加价
	if !item.UnitPrice.Decimal.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("unexpected unit price: %s", item.UnitPrice.String())
	}
	if !item.TotalPrice.Decimal.Equal(decimal.NewFromInt(220)) {
		t.Fatalf("unexpected total price: %s", item.TotalPrice.String())
	}
	// 佣金 10% 冻结在订单项上
	if !item.CommissionAmount.Decimal.Equal(decimal.NewFromInt(22)) {
		t.Fatalf("unexpected commission: %s", item.CommissionAmount.String())
	}
	if !item.SellerEarning.Decimal.Equal(decimal.NewFromInt(198)) {
		t.Fatalf("unexpected seller earning: %s", item.SellerEarning.String())
	}
	// 卖家对 5 号省配置了 30 运费
	if !order.ShippingCost.Decimal.Equal(decimal.NewFromInt(30)) {
		t.Fatalf("unexpected shipping cost: %s", order.ShippingCost.String())
	}
	if !order.TotalAmount.Decimal.Equal(decimal.NewFromInt(250)) {
		t.Fatalf("unexpected total amount: %s", order.TotalAmount.String())
	}

	// 下单后改价不影响已冻结的订单项
	if err := db.Model(&models.Product{}).Where("id = ?", product.ID).
		Update("base_price", models.NewMoneyFromDecimal(decimal.NewFromInt(999))).Error; err != nil {
		t.Fatalf("reprice failed: %v", err)
	}
	reloaded, err := orderSvc.GetForUser(order.ID, 20)
	if err != nil {
		t.Fatalf("reload order failed: %v", err)
	}
	if !reloaded.Items[0].UnitPrice.Decimal.Equal(decimal.NewFromInt(110)) {
		t.Fatalf("frozen price drifted: %s", reloaded.Items[0].UnitPrice.String())
	}

	// 库存已从选择级扣减
	var selection models.ProductSelection
	if err := db.First(&selection, selections[0].ID).Error; err != nil {
		t.Fatalf("reload selection failed: %v", err)
	}
	if selection.StockCount != 6 {
		t.Fatalf("expected selection stock 6 after order, got %d", selection.StockCount)
	}

	// 购物车已清空
	var cartCount int64
	if err := db.Model(&models.CartItem{}).Where("user_id = ?", 20).Count(&cartCount).Error; err != nil {
		t.Fatalf("count cart failed: %v", err)
	}
	if cartCount != 0 {
		t.Fatalf("cart should be cleared, got %d rows", cartCount)
	}
}

func TestCreateOrderRejectsUnavailableGovernorate(t *testing.T) {
	orderSvc, cartSvc, db := setupOrderServiceTest(t)
	createOrderTestSeller(t, db, 1, models.ShippingCostMap{
		"3": {Available: false},
	})
	product, selections := createVariantProduct(t, db, "order-noship", nil)
	addCartLine(t, cartSvc, 21, product.ID, []uint{selections[0].VariantOptionID}, 1)

	_, err := orderSvc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:          21,
		GovernorateID:   "3",
		ShippingAddress: "Alexandria",
	})
	if !errors.Is(err, ErrShippingUnavailable) {
		t.Fatalf("expected shipping unavailable, got: %v", err)
	}

	// 整单回滚，库存不动
	var selection models.ProductSelection
	if err := db.First(&selection, selections[0].ID).Error; err != nil {
		t.Fatalf("reload selection failed: %v", err)
	}
	if selection.StockCount != 8 {
		t.Fatalf("stock must be rolled back, got %d", selection.StockCount)
	}
}

func TestCreateOrderRejectsBadGovernorate(t *testing.T) {
	orderSvc, _, _ := setupOrderServiceTest(t)
	_, err := orderSvc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:          22,
		GovernorateID:   "28",
		ShippingAddress: "nowhere",
	})
	if !errors.Is(err, ErrGovernorateInvalid) {
		t.Fatalf("expected governorate rejection, got: %v", err)
	}
}

func TestCancelOrderRestoresStockAndRejectsRepeat(t *testing.T) {
	orderSvc, cartSvc, db := setupOrderServiceTest(t)
	createOrderTestSeller(t, db, 1, nil)
	product, selections := createVariantProduct(t, db, "order-cancel", nil)
	addCartLine(t, cartSvc, 23, product.ID, []uint{selections[0].VariantOptionID}, 3)

	order, err := orderSvc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:          23,
		GovernorateID:   "1",
		ShippingAddress: "Giza",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	cancelled, err := orderSvc.CancelOrder(order.ID, 23, false)
	if err != nil {
		t.Fatalf("cancel failed: %v", err)
	}
	if cancelled.Status != constants.OrderStatusCancelled || cancelled.CancelledAt == nil {
		t.Fatalf("order not marked cancelled: %+v", cancelled)
	}

	var selection models.ProductSelection
	if err := db.First(&selection, selections[0].ID).Error; err != nil {
		t.Fatalf("reload selection failed: %v", err)
	}
	if selection.StockCount != 8 {
		t.Fatalf("stock must be restored to 8, got %d", selection.StockCount)
	}

	// 重复取消返回状态错误，不重复回补
	_, err = orderSvc.CancelOrder(order.ID, 23, false)
	if !errors.Is(err, ErrOrderNotCancellable) {
		t.Fatalf("second cancel must fail with a state error, got %v", err)
	}
	if err := db.First(&selection, selections[0].ID).Error; err != nil {
		t.Fatalf("reload selection failed: %v", err)
	}
	if selection.StockCount != 8 {
		t.Fatalf("double restore detected, got %d", selection.StockCount)
	}
}

func TestUpdateStatusForwardOnly(t *testing.T) {
	orderSvc, cartSvc, db := setupOrderServiceTest(t)
	createOrderTestSeller(t, db, 1, nil)
	product, selections := createVariantProduct(t, db, "order-status", nil)
	addCartLine(t, cartSvc, 24, product.ID, []uint{selections[0].VariantOptionID}, 1)

	order, err := orderSvc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:          24,
		GovernorateID:   "2",
		ShippingAddress: "Cairo",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}

	// 跳级推进被拒绝
	if _, err := orderSvc.UpdateStatus(order.ID, constants.OrderStatusShipped); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected skip rejection, got: %v", err)
	}

	for _, status := range []string{
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
	} {
		if _, err := orderSvc.UpdateStatus(order.ID, status); err != nil {
			t.Fatalf("advance to %s failed: %v", status, err)
		}
	}

	// 送达后不可回退、不可取消
	if _, err := orderSvc.UpdateStatus(order.ID, constants.OrderStatusShipped); !errors.Is(err, ErrOrderStatusInvalid) {
		t.Fatalf("expected backward rejection, got: %v", err)
	}
	if _, err := orderSvc.CancelOrder(order.ID, 24, false); !errors.Is(err, ErrOrderNotCancellable) {
		t.Fatalf("expected not cancellable, got: %v", err)
	}
}

func TestDeliveredOrderCreditsSellerWalletOnce(t *testing.T) {
	orderSvc, cartSvc, db := setupOrderServiceTest(t)
	createOrderTestSeller(t, db, 1, nil)
	product, selections := createVariantProduct(t, db, "order-wallet", nil)
	addCartLine(t, cartSvc, 25, product.ID, []uint{selections[0].VariantOptionID}, 2)

	order, err := orderSvc.CreateOrder(context.Background(), CreateOrderInput{
		UserID:          25,
		GovernorateID:   "4",
		ShippingAddress: "Luxor",
	})
	if err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	for _, status := range []string{
		constants.OrderStatusProcessing,
		constants.OrderStatusShipped,
		constants.OrderStatusDelivered,
	} {
		if _, err := orderSvc.UpdateStatus(order.ID, status); err != nil {
			t.Fatalf("advance to %s failed: %v", status, err)
		}
	}

	var account models.WalletAccount
	if err := db.Where("user_id = ?", 1).First(&account).Error; err != nil {
		t.Fatalf("seller wallet missing: %v", err)
	}
	// 220 - 22 佣金
	if !account.Balance.Decimal.Equal(decimal.NewFromInt(198)) {
		t.Fatalf("unexpected seller balance: %s", account.Balance.String())
	}

	var txnCount int64
	if err := db.Model(&models.WalletTransaction{}).Where("user_id = ?", 1).Count(&txnCount).Error; err != nil {
		t.Fatalf("count txns failed: %v", err)
	}
	if txnCount != 1 {
		t.Fatalf("expected one earning transaction, got %d", txnCount)
	}
}

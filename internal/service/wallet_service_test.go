package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/tohfa-market/internal/constants"
	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupWalletServiceTest(t *testing.T) (*WalletService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:wallet_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{},
		&models.WalletAccount{},
		&models.WalletTransaction{},
		&models.Order{},
		&models.OrderItem{},
	); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	models.DB = db
	walletRepo := repository.NewWalletRepository(db)
	userRepo := repository.NewUserRepository(db)
	return NewWalletService(walletRepo, userRepo), db
}

func createWalletTestUser(t *testing.T, db *gorm.DB, id uint) *models.User {
	t.Helper()
	user := &models.User{
		ID:           id,
		Email:        fmt.Sprintf("wallet-user-%d@example.com", id),
		PasswordHash: "x",
		DisplayName:  fmt.Sprintf("Wallet User %d", id),
		UserType:     constants.UserTypeArtist,
		Status:       constants.UserStatusActive,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("create user failed: %v", err)
	}
	return user
}

func TestWalletGetAccountAutoCreates(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	createWalletTestUser(t, db, 11)

	account, err := svc.GetAccount(11)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if account.Currency != "EGP" {
		t.Fatalf("expected EGP currency, got %q", account.Currency)
	}
	if !account.Balance.Decimal.IsZero() {
		t.Fatalf("expected zero opening balance, got %s", account.Balance.Decimal)
	}

	again, err := svc.GetAccount(11)
	if err != nil {
		t.Fatalf("second get failed: %v", err)
	}
	if again.ID != account.ID {
		t.Fatalf("expected same account, got %d and %d", account.ID, again.ID)
	}
}

func TestWalletAdminAdjustBalance(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	createWalletTestUser(t, db, 12)

	_, _, err := svc.AdminAdjustBalance(WalletAdjustInput{UserID: 12})
	if !errors.Is(err, ErrWalletInvalidAmount) {
		t.Fatalf("expected zero delta rejection, got: %v", err)
	}

	account, txn, err := svc.AdminAdjustBalance(WalletAdjustInput{
		UserID: 12,
		Delta:  models.NewMoneyFromDecimal(decimal.NewFromInt(50)),
		Remark: "  manual credit  ",
	})
	if err != nil {
		t.Fatalf("credit adjust failed: %v", err)
	}
	if !account.Balance.Decimal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected balance 50, got %s", account.Balance.Decimal)
	}
	if txn.Direction != constants.WalletTxnDirectionIn {
		t.Fatalf("expected in direction, got %q", txn.Direction)
	}
	if txn.Remark != "manual credit" {
		t.Fatalf("remark not trimmed: %q", txn.Remark)
	}

	// 扣减超过余额被拒，余额不变
	_, _, err = svc.AdminAdjustBalance(WalletAdjustInput{
		UserID: 12,
		Delta:  models.NewMoneyFromDecimal(decimal.NewFromInt(-80)),
	})
	if !errors.Is(err, ErrWalletInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got: %v", err)
	}
	reloaded, err := svc.GetAccount(12)
	if err != nil {
		t.Fatalf("reload account failed: %v", err)
	}
	if !reloaded.Balance.Decimal.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("balance drifted after rejected adjust: %s", reloaded.Balance.Decimal)
	}
}

func TestWalletWithdraw(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	createWalletTestUser(t, db, 13)

	if _, _, err := svc.AdminAdjustBalance(WalletAdjustInput{
		UserID: 13,
		Delta:  models.NewMoneyFromDecimal(decimal.NewFromInt(100)),
	}); err != nil {
		t.Fatalf("seed balance failed: %v", err)
	}

	_, _, err := svc.Withdraw(13, models.NewMoneyFromDecimal(decimal.NewFromInt(-5)), "")
	if !errors.Is(err, ErrWalletInvalidAmount) {
		t.Fatalf("expected invalid amount, got: %v", err)
	}

	account, txn, err := svc.Withdraw(13, models.NewMoneyFromDecimal(decimal.NewFromInt(40)), "payout")
	if err != nil {
		t.Fatalf("withdraw failed: %v", err)
	}
	if !account.Balance.Decimal.Equal(decimal.NewFromInt(60)) {
		t.Fatalf("expected balance 60, got %s", account.Balance.Decimal)
	}
	if txn.Type != constants.WalletTxnTypeWithdrawal || txn.Direction != constants.WalletTxnDirectionOut {
		t.Fatalf("unexpected transaction: type=%q direction=%q", txn.Type, txn.Direction)
	}

	_, _, err = svc.Withdraw(13, models.NewMoneyFromDecimal(decimal.NewFromInt(61)), "")
	if !errors.Is(err, ErrWalletInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got: %v", err)
	}
}

func TestWalletCreditOrderEarningsIdempotent(t *testing.T) {
	svc, db := setupWalletServiceTest(t)
	createWalletTestUser(t, db, 14)

	order := &models.Order{
		OrderNo: "TM20260830000001",
		UserID:  2,
		Status:  constants.OrderStatusDelivered,
	}
	if err := db.Create(order).Error; err != nil {
		t.Fatalf("create order failed: %v", err)
	}
	item := &models.OrderItem{
		OrderID:       order.ID,
		SellerID:      14,
		ProductID:     1,
		TitleJSON:     models.JSON{"en": "Test Product"},
		Quantity:      1,
		SellerEarning: models.NewMoneyFromDecimal(decimal.NewFromInt(90)),
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("create order item failed: %v", err)
	}
	order.Items = []models.OrderItem{*item}

	for i := 0; i < 2; i++ {
		if err := db.Transaction(func(tx *gorm.DB) error {
			return svc.CreditOrderEarningsInTx(tx, order)
		}); err != nil {
			t.Fatalf("credit earnings run %d failed: %v", i+1, err)
		}
	}

	account, err := svc.GetAccount(14)
	if err != nil {
		t.Fatalf("get account failed: %v", err)
	}
	if !account.Balance.Decimal.Equal(decimal.NewFromInt(90)) {
		t.Fatalf("expected single credit of 90, got %s", account.Balance.Decimal)
	}
	var count int64
	if err := db.Model(&models.WalletTransaction{}).Where("user_id = ?", 14).Count(&count).Error; err != nil {
		t.Fatalf("count transactions failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected one transaction, got %d", count)
	}
}

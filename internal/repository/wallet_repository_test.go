package repository

import (
	"testing"

	"github.com/tohfa-market/internal/constants"
	"github.com/tohfa-market/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func setupWalletRepositoryTest(t *testing.T) *GormWalletRepository {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.WalletAccount{}, &models.WalletTransaction{}); err != nil {
		t.Fatalf("migrate wallet models failed: %v", err)
	}
	return NewWalletRepository(db)
}

func TestWalletTransactionReferenceLookup(t *testing.T) {
	repo := setupWalletRepositoryTest(t)

	account := &models.WalletAccount{
		UserID:  101,
		Balance: models.NewMoneyFromDecimal(decimal.NewFromInt(90)),
	}
	if err := repo.CreateAccount(account); err != nil {
		t.Fatalf("create account failed: %v", err)
	}

	txn := &models.WalletTransaction{
		AccountID:    account.ID,
		UserID:       account.UserID,
		Type:         constants.WalletTxnTypeOrderEarning,
		Direction:    constants.WalletTxnDirectionIn,
		Amount:       models.NewMoneyFromDecimal(decimal.NewFromInt(90)),
		BalanceAfter: models.NewMoneyFromDecimal(decimal.NewFromInt(90)),
		Reference:    "order_earning:TM-1001:1",
	}
	if err := repo.CreateTransaction(txn); err != nil {
		t.Fatalf("create transaction failed: %v", err)
	}

	found, err := repo.GetTransactionByReference("order_earning:TM-1001:1")
	if err != nil {
		t.Fatalf("get by reference failed: %v", err)
	}
	if found == nil || found.ID != txn.ID {
		t.Fatalf("reference lookup should locate transaction")
	}

	missing, err := repo.GetTransactionByReference("order_earning:TM-9999:1")
	if err != nil {
		t.Fatalf("get missing reference failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("missing reference should return nil")
	}

	// 重复引用应触发唯一索引冲突
	dup := &models.WalletTransaction{
		AccountID:    account.ID,
		UserID:       account.UserID,
		Type:         constants.WalletTxnTypeOrderEarning,
		Direction:    constants.WalletTxnDirectionIn,
		Amount:       models.NewMoneyFromDecimal(decimal.NewFromInt(90)),
		BalanceAfter: models.NewMoneyFromDecimal(decimal.NewFromInt(180)),
		Reference:    "order_earning:TM-1001:1",
	}
	if err := repo.CreateTransaction(dup); err == nil {
		t.Fatalf("duplicate reference should fail")
	}
}

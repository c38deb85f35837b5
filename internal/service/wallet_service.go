package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/tohfa-market/internal/constants"
	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const walletDefaultCurrency = "EGP"

// WalletService 钱包服务
type WalletService struct {
	walletRepo repository.WalletRepository
	userRepo   repository.UserRepository
}

// NewWalletService 创建钱包服务
func NewWalletService(walletRepo repository.WalletRepository, userRepo repository.UserRepository) *WalletService {
	return &WalletService{walletRepo: walletRepo, userRepo: userRepo}
}

// WalletAdjustInput 管理员余额调整输入
type WalletAdjustInput struct {
	UserID uint
	Delta  models.Money
	Remark string
}

// GetAccount 获取钱包账户（不存在时自动创建）
func (s *WalletService) GetAccount(userID uint) (*models.WalletAccount, error) {
	if userID == 0 {
		return nil, ErrWalletAccountNotFound
	}
	account, err := s.walletRepo.GetAccountByUserID(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = &models.WalletAccount{
		UserID:   userID,
		Balance:  models.NewMoneyFromDecimal(decimal.Zero),
		Currency: walletDefaultCurrency,
	}
	if err := s.walletRepo.CreateAccount(account); err != nil {
		// 并发创建触发唯一索引冲突时回读
		existed, getErr := s.walletRepo.GetAccountByUserID(userID)
		if getErr == nil && existed != nil {
			return existed, nil
		}
		return nil, err
	}
	return account, nil
}

// ListTransactions 查询钱包流水
func (s *WalletService) ListTransactions(filter repository.WalletTransactionListFilter) ([]models.WalletTransaction, int64, error) {
	return s.walletRepo.ListTransactions(filter)
}

// CreditOrderEarningsInTx 订单送达后为各卖家入账
//
// 每个订单项一条流水，reference 形如 order_earning:<order_no>:<item_id>，
// 重复调用（如状态回放）依赖引用幂等跳过。
func (s *WalletService) CreditOrderEarningsInTx(tx *gorm.DB, order *models.Order) error {
	if tx == nil || order == nil {
		return ErrWalletTransactionCreateFailed
	}
	repo := s.walletRepo.WithTx(tx)
	now := time.Now()
	for _, item := range order.Items {
		amount := item.SellerEarning.Decimal.Round(2)
		if amount.LessThanOrEqual(decimal.Zero) {
			continue
		}
		reference := fmt.Sprintf("%s:%s:%d", constants.WalletTxnTypeOrderEarning, order.OrderNo, item.ID)
		exists, err := repo.GetTransactionByReference(reference)
		if err != nil {
			return err
		}
		if exists != nil {
			continue
		}
		account, err := s.ensureAccountForUpdate(repo, item.SellerID, now)
		if err != nil {
			return err
		}
		after := account.Balance.Decimal.Add(amount).Round(2)
		account.Balance = models.NewMoneyFromDecimal(after)
		account.UpdatedAt = now
		if err := repo.UpdateAccount(account); err != nil {
			return ErrWalletAccountUpdateFailed
		}
		txn := &models.WalletTransaction{
			AccountID:    account.ID,
			UserID:       item.SellerID,
			Type:         constants.WalletTxnTypeOrderEarning,
			Direction:    constants.WalletTxnDirectionIn,
			Amount:       models.NewMoneyFromDecimal(amount),
			BalanceAfter: models.NewMoneyFromDecimal(after),
			Reference:    reference,
			Remark:       fmt.Sprintf("order %s item %d earning", order.OrderNo, item.ID),
			CreatedAt:    now,
		}
		if err := repo.CreateTransaction(txn); err != nil {
			return ErrWalletTransactionCreateFailed
		}
	}
	return nil
}

// AdminAdjustBalance 管理员调整余额（正数入账，负数扣减）
func (s *WalletService) AdminAdjustBalance(input WalletAdjustInput) (*models.WalletAccount, *models.WalletTransaction, error) {
	delta := input.Delta.Decimal.Round(2)
	if delta.IsZero() {
		return nil, nil, ErrWalletInvalidAmount
	}
	user, err := s.userRepo.GetByID(input.UserID)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, ErrNotFound
	}

	var account *models.WalletAccount
	var txn *models.WalletTransaction
	err = s.walletRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.walletRepo.WithTx(tx)
		now := time.Now()
		account, err = s.ensureAccountForUpdate(repo, input.UserID, now)
		if err != nil {
			return err
		}
		after := account.Balance.Decimal.Add(delta).Round(2)
		if after.IsNegative() {
			return ErrWalletInsufficientBalance
		}
		account.Balance = models.NewMoneyFromDecimal(after)
		account.UpdatedAt = now
		if err := repo.UpdateAccount(account); err != nil {
			return ErrWalletAccountUpdateFailed
		}
		direction := constants.WalletTxnDirectionIn
		if delta.IsNegative() {
			direction = constants.WalletTxnDirectionOut
		}
		txn = &models.WalletTransaction{
			AccountID:    account.ID,
			UserID:       input.UserID,
			Type:         constants.WalletTxnTypeAdminAdjust,
			Direction:    direction,
			Amount:       models.NewMoneyFromDecimal(delta.Abs()),
			BalanceAfter: models.NewMoneyFromDecimal(after),
			Reference:    fmt.Sprintf("%s:%d:%d", constants.WalletTxnTypeAdminAdjust, input.UserID, now.UnixNano()),
			Remark:       cleanWalletRemark(input.Remark, "balance adjustment"),
			CreatedAt:    now,
		}
		if err := repo.CreateTransaction(txn); err != nil {
			return ErrWalletTransactionCreateFailed
		}
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return account, txn, nil
}

// Withdraw 卖家提现（余额内扣减并记流水）
func (s *WalletService) Withdraw(userID uint, amount models.Money, remark string) (*models.WalletAccount, *models.WalletTransaction, error) {
	value := amount.Decimal.Round(2)
	if value.LessThanOrEqual(decimal.Zero) {
		return nil, nil, ErrWalletInvalidAmount
	}
	var account *models.WalletAccount
	var txn *models.WalletTransaction
	err := s.walletRepo.Transaction(func(tx *gorm.DB) error {
		repo := s.walletRepo.WithTx(tx)
		now := time.Now()
		locked, err := repo.GetAccountByUserIDForUpdate(userID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrWalletAccountNotFound
		}
		after := locked.Balance.Decimal.Sub(value).Round(2)
		if after.IsNegative() {
			return ErrWalletInsufficientBalance
		}
		locked.Balance = models.NewMoneyFromDecimal(after)
		locked.UpdatedAt = now
		if err := repo.UpdateAccount(locked); err != nil {
			return ErrWalletAccountUpdateFailed
		}
		txn = &models.WalletTransaction{
			AccountID:    locked.ID,
			UserID:       userID,
			Type:         constants.WalletTxnTypeWithdrawal,
			Direction:    constants.WalletTxnDirectionOut,
			Amount:       models.NewMoneyFromDecimal(value),
			BalanceAfter: models.NewMoneyFromDecimal(after),
			Reference:    fmt.Sprintf("%s:%d:%d", constants.WalletTxnTypeWithdrawal, userID, now.UnixNano()),
			Remark:       cleanWalletRemark(remark, "withdrawal"),
			CreatedAt:    now,
		}
		if err := repo.CreateTransaction(txn); err != nil {
			return ErrWalletTransactionCreateFailed
		}
		account = locked
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return account, txn, nil
}

// ensureAccountForUpdate 加锁获取账户，不存在时创建后再锁
func (s *WalletService) ensureAccountForUpdate(repo repository.WalletRepository, userID uint, now time.Time) (*models.WalletAccount, error) {
	account, err := repo.GetAccountByUserIDForUpdate(userID)
	if err != nil {
		return nil, err
	}
	if account != nil {
		return account, nil
	}
	account = &models.WalletAccount{
		UserID:    userID,
		Balance:   models.NewMoneyFromDecimal(decimal.Zero),
		Currency:  walletDefaultCurrency,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := repo.CreateAccount(account); err != nil {
		locked, lockErr := repo.GetAccountByUserIDForUpdate(userID)
		if lockErr == nil && locked != nil {
			return locked, nil
		}
		return nil, err
	}
	return account, nil
}

func cleanWalletRemark(remark, fallback string) string {
	trimmed := strings.TrimSpace(remark)
	if trimmed == "" {
		return fallback
	}
	if len(trimmed) > 500 {
		return trimmed[:500]
	}
	return trimmed
}

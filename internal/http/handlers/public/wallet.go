package public

import (
	"errors"
	"strconv"
	"strings"

	handlershared "github.com/tohfa-market/internal/http/handlers/shared"
	"github.com/tohfa-market/internal/http/response"
	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/repository"
	"github.com/tohfa-market/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// WalletAccount 当前用户钱包账户
func (h *Handler) WalletAccount(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	account, err := h.WalletService.GetAccount(userID)
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.Success(c, gin.H{"account": account})
}

// WalletTransactions 当前用户钱包流水
func (h *Handler) WalletTransactions(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))
	page, pageSize = handlershared.NormalizePagination(page, pageSize)

	txns, total, err := h.WalletService.ListTransactions(repository.WalletTransactionListFilter{
		Page:      page,
		PageSize:  pageSize,
		UserID:    userID,
		Type:      strings.TrimSpace(c.Query("type")),
		Direction: strings.TrimSpace(c.Query("direction")),
	})
	if err != nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	response.SuccessWithPage(c, gin.H{"transactions": txns}, buildPagination(page, pageSize, total))
}

// WalletWithdrawRequest 提现请求
type WalletWithdrawRequest struct {
	Amount decimal.Decimal `json:"amount" binding:"required"`
	Remark string          `json:"remark"`
}

// WalletWithdraw 卖家提现
func (h *Handler) WalletWithdraw(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		return
	}
	user, err := h.UserAuthService.GetUserByID(userID)
	if err != nil || user == nil {
		respondError(c, response.CodeInternal, "error.internal", err)
		return
	}
	if !user.IsSeller() {
		respondError(c, response.CodeForbidden, "error.seller_role_required", nil)
		return
	}

	var req WalletWithdrawRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, response.CodeBadRequest, "error.bad_request", err)
		return
	}

	account, txn, err := h.WalletService.Withdraw(userID, models.NewMoneyFromDecimal(req.Amount), req.Remark)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrWalletInvalidAmount):
			respondError(c, response.CodeBadRequest, "error.wallet_amount_invalid", nil)
		case errors.Is(err, service.ErrWalletAccountNotFound):
			respondError(c, response.CodeNotFound, "error.wallet_account_missing", nil)
		case errors.Is(err, service.ErrWalletInsufficientBalance):
			respondError(c, response.CodeBadRequest, "error.wallet_insufficient", nil)
		default:
			respondError(c, response.CodeInternal, "error.internal", err)
		}
		return
	}
	response.Success(c, gin.H{"account": account, "transaction": txn})
}

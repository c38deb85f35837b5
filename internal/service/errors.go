package service

import "errors"

// 业务沉淀的哨兵错误，由处理器层映射为响应码与文案
var (
	ErrNotFound         = errors.New("resource not found")
	ErrSlugExists       = errors.New("slug already exists")
	ErrEmailExists      = errors.New("email already exists")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrUserDisabled     = errors.New("user disabled")
	ErrPermissionDenied = errors.New("permission denied")

	ErrCategoryNotFound     = errors.New("category not found")
	ErrCategoryHasChildren  = errors.New("category has children")
	ErrCategoryHasProducts  = errors.New("category has products")
	ErrCategoryCycle        = errors.New("category parent chain forms a cycle")

	ErrVariantTypeExists        = errors.New("variant type already registered")
	ErrVariantTypeNotFound      = errors.New("variant type not found")
	ErrVariantTypeNotRegistered = errors.New("variant type not registered on product category")
	ErrVariantOptionExists      = errors.New("variant option already exists")
	ErrVariantOptionNotFound    = errors.New("variant option not found")
	ErrVariantOptionInUse       = errors.New("variant option referenced by selections")

	ErrProductNotFound     = errors.New("product not found")
	ErrProductNotAvailable = errors.New("product not available")
	ErrNotProductSeller    = errors.New("not the product seller")
	ErrSellerRoleRequired  = errors.New("seller role required")
	ErrApprovalStatusInvalid = errors.New("approval status invalid")

	ErrStockInvalid          = errors.New("stock count invalid")
	ErrPriceInvalid          = errors.New("price invalid")
	ErrPriceComposition      = errors.New("price composition negative")
	ErrCombinationStockInvalid = errors.New("combination stock map invalid")
	ErrInsufficientStock     = errors.New("insufficient stock")
	ErrStockConflict         = errors.New("stock update conflict")

	ErrInvalidCartItem  = errors.New("cart item invalid")
	ErrInvalidOrderItem = errors.New("order item invalid")
	ErrOrderNotFound    = errors.New("order not found")
	ErrOrderStatusInvalid   = errors.New("order status transition invalid")
	ErrOrderNotCancellable  = errors.New("order not cancellable")
	ErrGovernorateInvalid   = errors.New("governorate id invalid")
	ErrShippingUnavailable  = errors.New("seller does not ship to governorate")

	ErrWalletAccountNotFound         = errors.New("wallet account not found")
	ErrWalletInvalidAmount           = errors.New("wallet amount invalid")
	ErrWalletInsufficientBalance     = errors.New("wallet balance insufficient")
	ErrWalletAccountUpdateFailed     = errors.New("wallet account update failed")
	ErrWalletTransactionCreateFailed = errors.New("wallet transaction create failed")

	ErrInvalidEmail     = errors.New("invalid email")
	ErrInvalidPassword  = errors.New("invalid password")
	ErrInvalidUserType  = errors.New("invalid user type")
	ErrProfileEmpty     = errors.New("no profile fields to update")

	ErrTooManyLoginAttempts = errors.New("too many login attempts")
	ErrTooManyOrderAttempts = errors.New("too many order attempts")
)

// InsufficientStockError 库存不足错误（携带剩余可售量）
type InsufficientStockError struct {
	ProductID uint
	Available int
}

func (e *InsufficientStockError) Error() string {
	return "insufficient stock"
}

// Unwrap 支持 errors.Is(err, ErrInsufficientStock)
func (e *InsufficientStockError) Unwrap() error {
	return ErrInsufficientStock
}

package public

import (
	"errors"

	"github.com/tohfa-market/internal/http/response"
	"github.com/tohfa-market/internal/service"

	"github.com/gin-gonic/gin"
)

// mappedHandlerError 定义业务错误到接口错误响应的映射关系。
type mappedHandlerError struct {
	target error
	code   int
	key    string
}

func respondWithMappedError(c *gin.Context, err error, rules []mappedHandlerError, fallbackCode int, fallbackKey string) {
	for _, rule := range rules {
		if errors.Is(err, rule.target) {
			respondError(c, rule.code, rule.key, nil)
			return
		}
	}
	respondError(c, fallbackCode, fallbackKey, err)
}

var cartWriteErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, key: "error.product_not_available"},
	{target: service.ErrInvalidCartItem, code: response.CodeBadRequest, key: "error.cart_item_invalid"},
	{target: service.ErrNotFound, code: response.CodeNotFound, key: "error.cart_item_not_found"},
}

var orderCreateErrorRules = []mappedHandlerError{
	{target: service.ErrTooManyOrderAttempts, code: response.CodeTooManyRequests, key: "error.order_too_many"},
	{target: service.ErrGovernorateInvalid, code: response.CodeBadRequest, key: "error.governorate_invalid"},
	{target: service.ErrShippingUnavailable, code: response.CodeBadRequest, key: "error.shipping_unavailable"},
	{target: service.ErrInvalidOrderItem, code: response.CodeBadRequest, key: "error.order_item_invalid"},
	{target: service.ErrProductNotAvailable, code: response.CodeBadRequest, key: "error.product_not_available"},
	{target: service.ErrProductNotFound, code: response.CodeBadRequest, key: "error.product_not_available"},
	{target: service.ErrStockConflict, code: response.CodeConflict, key: "error.conflict_retry"},
}

var orderCancelErrorRules = []mappedHandlerError{
	{target: service.ErrOrderNotFound, code: response.CodeNotFound, key: "error.order_not_found"},
	{target: service.ErrPermissionDenied, code: response.CodeForbidden, key: "error.forbidden"},
	{target: service.ErrOrderNotCancellable, code: response.CodeBadRequest, key: "error.order_not_cancellable"},
	{target: service.ErrStockConflict, code: response.CodeConflict, key: "error.conflict_retry"},
}

var selectionWriteErrorRules = []mappedHandlerError{
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
	{target: service.ErrNotProductSeller, code: response.CodeForbidden, key: "error.not_product_seller"},
	{target: service.ErrVariantOptionNotFound, code: response.CodeNotFound, key: "error.option_not_found"},
	{target: service.ErrVariantTypeNotRegistered, code: response.CodeBadRequest, key: "error.type_not_registered"},
	{target: service.ErrStockInvalid, code: response.CodeBadRequest, key: "error.stock_invalid"},
	{target: service.ErrPriceComposition, code: response.CodeBadRequest, key: "error.price_composition"},
	{target: service.ErrCombinationStockInvalid, code: response.CodeBadRequest, key: "error.combination_stock_bad"},
	{target: service.ErrNotFound, code: response.CodeNotFound, key: "error.not_found"},
}

var productWriteErrorRules = []mappedHandlerError{
	{target: service.ErrSellerRoleRequired, code: response.CodeForbidden, key: "error.seller_role_required"},
	{target: service.ErrNotProductSeller, code: response.CodeForbidden, key: "error.not_product_seller"},
	{target: service.ErrCategoryNotFound, code: response.CodeBadRequest, key: "error.category_not_found"},
	{target: service.ErrSlugExists, code: response.CodeBadRequest, key: "error.slug_exists"},
	{target: service.ErrPriceInvalid, code: response.CodeBadRequest, key: "error.price_invalid"},
	{target: service.ErrStockInvalid, code: response.CodeBadRequest, key: "error.stock_invalid"},
	{target: service.ErrProductNotFound, code: response.CodeNotFound, key: "error.product_not_found"},
}

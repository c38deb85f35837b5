package service

import (
	"strconv"
	"strings"

	"github.com/tohfa-market/internal/constants"
	"github.com/tohfa-market/internal/models"

	"github.com/shopspring/decimal"
)

// normalizeGovernorateID 校验并规范化省份编号（"1".."27"）
func normalizeGovernorateID(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	id, err := strconv.Atoi(trimmed)
	if err != nil {
		return "", ErrGovernorateInvalid
	}
	if id < constants.GovernorateMinID || id > constants.GovernorateMaxID {
		return "", ErrGovernorateInvalid
	}
	return strconv.Itoa(id), nil
}

// sellerShippingCost 解析卖家对指定省份的运费
//
// 卖家未配置该省份时按平台默认运费收取；显式标记不可配送时拒绝下单。
func sellerShippingCost(seller *models.User, governorateID string, defaultCost models.Money) (models.Money, error) {
	normalized, err := normalizeGovernorateID(governorateID)
	if err != nil {
		return models.Money{}, err
	}
	if seller == nil || len(seller.ShippingCosts) == 0 {
		return defaultCost, nil
	}
	entry, ok := seller.ShippingCosts[normalized]
	if !ok {
		return defaultCost, nil
	}
	if !entry.Available {
		return models.Money{}, ErrShippingUnavailable
	}
	if entry.Cost.Decimal.IsNegative() {
		return models.NewMoneyFromDecimal(decimal.Zero), nil
	}
	return entry.Cost, nil
}

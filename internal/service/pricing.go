package service

import (
	"github.com/tohfa-market/internal/logger"
	"github.com/tohfa-market/internal/models"

	"github.com/shopspring/decimal"
)

// SelectionFinalPrice 计算选择项最终单价：基础价 + 类型附加价 + 商品级加价
//
// 组合为负时按 0 计并记录告警，历史脏数据不得产生负价订单。
func SelectionFinalPrice(product *models.Product, selection *models.ProductSelection) models.Money {
	if product == nil || selection == nil {
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	if selection.IsNegativeComposition(product.BasePrice) {
		logger.Warnw("final_price_clamped_to_zero",
			"product_id", product.ID,
			"selection_id", selection.ID,
			"base_price", product.BasePrice.String(),
			"price_adjustment", selection.PriceAdjustment.String(),
		)
	}
	return selection.FinalPrice(product.BasePrice)
}

// CombinedFinalPrice 计算多选项组合的最终单价
//
// 各选择的类型附加价与商品级加价逐项累加到基础价上，结果为负时按 0 计。
func CombinedFinalPrice(product *models.Product, selections []models.ProductSelection) models.Money {
	if product == nil {
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	total := product.BasePrice.Decimal
	for _, sel := range selections {
		if sel.VariantOption != nil {
			total = total.Add(sel.VariantOption.ExtraPrice.Decimal)
		}
		total = total.Add(sel.PriceAdjustment.Decimal)
	}
	if total.IsNegative() {
		logger.Warnw("combined_price_clamped_to_zero",
			"product_id", product.ID,
			"selection_count", len(selections),
		)
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	return models.NewMoneyFromDecimal(total)
}

func decimalFromInt(n int) decimal.Decimal {
	return decimal.NewFromInt(int64(n))
}

// PriceRange 商品价格区间
type PriceRange struct {
	Min models.Money `json:"min"`
	Max models.Money `json:"max"`
}

// ProductPriceRange 计算商品价格区间
//
// 无启用选择时区间退化为基础价；有选择时取各启用选择最终单价的最小值
// 与最大值。
func ProductPriceRange(product *models.Product, selections []models.ProductSelection) PriceRange {
	base := models.NewMoneyFromDecimal(product.BasePrice.Decimal)
	rangeMin := base.Decimal
	rangeMax := base.Decimal
	hasActive := false
	for i := range selections {
		sel := selections[i]
		if !sel.IsActive {
			continue
		}
		price := SelectionFinalPrice(product, &sel).Decimal
		if !hasActive {
			rangeMin = price
			rangeMax = price
			hasActive = true
			continue
		}
		if price.LessThan(rangeMin) {
			rangeMin = price
		}
		if price.GreaterThan(rangeMax) {
			rangeMax = price
		}
	}
	return PriceRange{
		Min: models.NewMoneyFromDecimal(rangeMin),
		Max: models.NewMoneyFromDecimal(rangeMax),
	}
}

package service

import (
	"sort"

	"github.com/tohfa-market/internal/constants"
	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/repository"
)

// 单行购物车数量上限，超过视为非法请求
const maxCartLineQuantity = 999

// CartService 购物车服务
//
// 同一商品的不同规格组合互为独立行；行数量为终值写入（last-write-wins），
// 不做累加，避免重复点击叠出超量。
type CartService struct {
	cartRepo      repository.CartRepository
	productRepo   repository.ProductRepository
	selectionRepo repository.SelectionRepository
	stockSvc      *StockService
}

// NewCartService 创建购物车服务
func NewCartService(
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	selectionRepo repository.SelectionRepository,
	stockSvc *StockService,
) *CartService {
	return &CartService{
		cartRepo:      cartRepo,
		productRepo:   productRepo,
		selectionRepo: selectionRepo,
		stockSvc:      stockSvc,
	}
}

// UpsertCartItemInput 写入购物车行输入
type UpsertCartItemInput struct {
	UserID    uint
	ProductID uint
	OptionIDs []uint
	Quantity  int
}

// CartItemDetail 购物车行视图（含实时价格与库存）
type CartItemDetail struct {
	Item      models.CartItem `json:"item"`
	UnitPrice models.Money    `json:"unit_price"`
	LineTotal models.Money    `json:"line_total"`
	Available int             `json:"available"`
	InStock   bool            `json:"in_stock"`
}

// UpsertItem 写入购物车行
//
// 行身份为 (user_id, product_id, 规范化组合键)。已存在时数量累加，按
// 累加后的总量重新校验库存；直接改数量走 UpdateQuantity。
func (s *CartService) UpsertItem(input UpsertCartItemInput) (*models.CartItem, error) {
	if input.Quantity <= 0 || input.Quantity > maxCartLineQuantity {
		return nil, ErrInvalidCartItem
	}
	product, selections, err := s.loadSellable(input.ProductID)
	if err != nil {
		return nil, err
	}
	chosen, err := matchSelections(selections, input.OptionIDs)
	if err != nil {
		return nil, err
	}

	variantKey := ""
	if len(chosen) > 0 {
		optionIDs := make([]uint, 0, len(chosen))
		for _, sel := range chosen {
			optionIDs = append(optionIDs, sel.VariantOptionID)
		}
		variantKey = models.CombinationKeyFromOptionIDs(optionIDs)
	}

	item, err := s.cartRepo.GetByLine(input.UserID, input.ProductID, variantKey)
	if err != nil {
		return nil, err
	}

	// 同一行重复加购做数量累加，按累加后的总量重新校验库存
	total := input.Quantity
	if item != nil {
		total += item.Quantity
	}
	if total > maxCartLineQuantity {
		return nil, ErrInvalidCartItem
	}
	selector := s.stockSvc.ResolveSelector(product, chosen)
	available := s.stockSvc.Available(product, selections, selector)
	if available < total {
		return nil, &InsufficientStockError{ProductID: product.ID, Available: available}
	}

	snapshot := selectionSnapshot(chosen)
	if item == nil {
		item = &models.CartItem{
			UserID:       input.UserID,
			ProductID:    input.ProductID,
			VariantKey:   variantKey,
			SelectedJSON: snapshot,
			Quantity:     input.Quantity,
		}
		if err := s.cartRepo.Create(item); err != nil {
			return nil, err
		}
		return item, nil
	}
	item.Quantity = total
	item.SelectedJSON = snapshot
	if err := s.cartRepo.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

// UpdateQuantity 修改购物车行数量
func (s *CartService) UpdateQuantity(userID, itemID uint, quantity int) (*models.CartItem, error) {
	if quantity <= 0 || quantity > maxCartLineQuantity {
		return nil, ErrInvalidCartItem
	}
	item, err := s.cartRepo.GetByID(itemID)
	if err != nil {
		return nil, err
	}
	if item == nil || item.UserID != userID {
		return nil, ErrNotFound
	}
	product, selections, err := s.loadSellable(item.ProductID)
	if err != nil {
		return nil, err
	}
	chosen, err := selectionsForVariantKey(selections, item.VariantKey)
	if err != nil {
		return nil, err
	}
	selector := s.stockSvc.ResolveSelector(product, chosen)
	available := s.stockSvc.Available(product, selections, selector)
	if available < quantity {
		return nil, &InsufficientStockError{ProductID: product.ID, Available: available}
	}
	item.Quantity = quantity
	if err := s.cartRepo.Update(item); err != nil {
		return nil, err
	}
	return item, nil
}

// RemoveItem 删除购物车行
func (s *CartService) RemoveItem(userID, itemID uint) error {
	item, err := s.cartRepo.GetByID(itemID)
	if err != nil {
		return err
	}
	if item == nil || item.UserID != userID {
		return ErrNotFound
	}
	return s.cartRepo.Delete(item.ID)
}

// Clear 清空用户购物车
func (s *CartService) Clear(userID uint) error {
	return s.cartRepo.ClearByUser(userID)
}

// ListDetails 查询购物车（按当前价格与库存计算行视图）
//
// 商品被下架或删除的行保留但标记无货，价格按当前规则实时重算，不做快照。
func (s *CartService) ListDetails(userID uint) ([]CartItemDetail, error) {
	items, err := s.cartRepo.ListByUser(userID)
	if err != nil {
		return nil, err
	}
	details := make([]CartItemDetail, 0, len(items))
	for i := range items {
		item := items[i]
		detail := CartItemDetail{Item: item}
		product := item.Product
		if product == nil || !product.IsActive || product.ApprovalStatus != constants.ProductApprovalApproved {
			details = append(details, detail)
			continue
		}
		selections, err := s.selectionRepo.ListByProductID(product.ID, true)
		if err != nil {
			return nil, err
		}
		chosen, err := selectionsForVariantKey(selections, item.VariantKey)
		if err != nil {
			// 所选组合已被卖家移除：保留行并标记无货
			details = append(details, detail)
			continue
		}
		selector := s.stockSvc.ResolveSelector(product, chosen)
		available := s.stockSvc.Available(product, selections, selector)
		unit := CombinedFinalPrice(product, chosen)
		detail.UnitPrice = unit
		detail.LineTotal = models.NewMoneyFromDecimal(unit.Decimal.Mul(decimalFromInt(item.Quantity)))
		detail.Available = available
		detail.InStock = available >= item.Quantity
		details = append(details, detail)
	}
	return details, nil
}

// loadSellable 加载可售商品与其启用选择
func (s *CartService) loadSellable(productID uint) (*models.Product, []models.ProductSelection, error) {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return nil, nil, err
	}
	if product == nil {
		return nil, nil, ErrProductNotFound
	}
	if !product.IsActive || product.ApprovalStatus != constants.ProductApprovalApproved {
		return nil, nil, ErrProductNotAvailable
	}
	selections, err := s.selectionRepo.ListByProductID(productID, true)
	if err != nil {
		return nil, nil, err
	}
	return product, selections, nil
}

// matchSelections 将选项 ID 集合映射到商品的启用选择
//
// 任一选项不在商品启用选择中、同一规格类型出现两个选项、或商品有规格但
// 未选任何选项，均视为非法购物车行。
func matchSelections(selections []models.ProductSelection, optionIDs []uint) ([]models.ProductSelection, error) {
	if len(optionIDs) == 0 {
		if len(selections) > 0 {
			return nil, ErrInvalidCartItem
		}
		return nil, nil
	}
	byOption := make(map[uint]models.ProductSelection, len(selections))
	for _, sel := range selections {
		byOption[sel.VariantOptionID] = sel
	}
	seenOption := make(map[uint]bool, len(optionIDs))
	seenType := make(map[uint]bool, len(optionIDs))
	chosen := make([]models.ProductSelection, 0, len(optionIDs))
	for _, optionID := range optionIDs {
		if seenOption[optionID] {
			continue
		}
		seenOption[optionID] = true
		sel, ok := byOption[optionID]
		if !ok {
			return nil, ErrInvalidCartItem
		}
		if sel.VariantOption != nil {
			typeID := sel.VariantOption.VariantTypeID
			if seenType[typeID] {
				return nil, ErrInvalidCartItem
			}
			seenType[typeID] = true
		}
		chosen = append(chosen, sel)
	}
	sort.Slice(chosen, func(i, j int) bool { return chosen[i].VariantOptionID < chosen[j].VariantOptionID })
	return chosen, nil
}

// selectionsForVariantKey 按购物车行组合键回查对应选择
func selectionsForVariantKey(selections []models.ProductSelection, variantKey string) ([]models.ProductSelection, error) {
	if variantKey == "" {
		return nil, nil
	}
	optionIDs, err := models.OptionIDsFromCombinationKey(variantKey)
	if err != nil {
		return nil, ErrInvalidCartItem
	}
	return matchSelections(selections, optionIDs)
}

// selectionSnapshot 构建所选规格快照（类型名 -> 选项值）
func selectionSnapshot(selections []models.ProductSelection) models.JSON {
	if len(selections) == 0 {
		return nil
	}
	snapshot := make(models.JSON, len(selections))
	for _, sel := range selections {
		if sel.VariantOption == nil {
			continue
		}
		name := ""
		if sel.VariantOption.VariantType != nil {
			name = sel.VariantOption.VariantType.Name
		}
		if name == "" {
			continue
		}
		snapshot[name] = sel.VariantOption.Value
	}
	if len(snapshot) == 0 {
		return nil
	}
	return snapshot
}

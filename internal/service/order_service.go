package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"
	"time"

	"github.com/tohfa-market/internal/cache"
	"github.com/tohfa-market/internal/config"
	"github.com/tohfa-market/internal/constants"
	"github.com/tohfa-market/internal/logger"
	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/queue"
	"github.com/tohfa-market/internal/repository"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderService 订单服务
type OrderService struct {
	orderRepo     repository.OrderRepository
	cartRepo      repository.CartRepository
	productRepo   repository.ProductRepository
	selectionRepo repository.SelectionRepository
	userRepo      repository.UserRepository
	stockSvc      *StockService
	walletSvc     *WalletService
	queueClient   *queue.Client
	cfg           *config.Config
}

// NewOrderService 创建订单服务
func NewOrderService(
	orderRepo repository.OrderRepository,
	cartRepo repository.CartRepository,
	productRepo repository.ProductRepository,
	selectionRepo repository.SelectionRepository,
	userRepo repository.UserRepository,
	stockSvc *StockService,
	walletSvc *WalletService,
	queueClient *queue.Client,
	cfg *config.Config,
) *OrderService {
	return &OrderService{
		orderRepo:     orderRepo,
		cartRepo:      cartRepo,
		productRepo:   productRepo,
		selectionRepo: selectionRepo,
		userRepo:      userRepo,
		stockSvc:      stockSvc,
		walletSvc:     walletSvc,
		queueClient:   queueClient,
		cfg:           cfg,
	}
}

// CreateOrderInput 下单输入（从购物车结算）
type CreateOrderInput struct {
	UserID          uint
	GovernorateID   string
	ShippingAddress string
	ClientIP        string
}

// CreateOrder 从购物车创建订单
//
// 单事务内逐行扣减库存、冻结单价与佣金快照、按卖家累加运费，最后清空
// 购物车。任意一行库存不足则整单回滚。
func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (*models.Order, error) {
	if input.UserID == 0 {
		return nil, ErrInvalidOrderItem
	}
	if err := s.checkOrderRateLimit(ctx, input.UserID); err != nil {
		return nil, err
	}
	governorateID, err := normalizeGovernorateID(input.GovernorateID)
	if err != nil {
		return nil, err
	}
	address := strings.TrimSpace(input.ShippingAddress)
	if address == "" {
		return nil, ErrInvalidOrderItem
	}

	cartItems, err := s.cartRepo.ListByUser(input.UserID)
	if err != nil {
		return nil, err
	}
	if len(cartItems) == 0 {
		return nil, ErrInvalidOrderItem
	}

	commissionRate := s.commissionRate()
	defaultShipping := s.defaultShippingCost()
	now := time.Now()

	var order *models.Order
	err = s.orderRepo.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		productRepo := s.productRepo.WithTx(tx)
		selectionRepo := s.selectionRepo.WithTx(tx)

		itemsAmount := decimal.Zero
		orderItems := make([]models.OrderItem, 0, len(cartItems))
		sellerIDs := make([]uint, 0, 4)
		seenSeller := make(map[uint]bool, 4)

		for i := range cartItems {
			line := cartItems[i]
			product, err := productRepo.GetByID(line.ProductID)
			if err != nil {
				return err
			}
			if product == nil {
				return ErrProductNotFound
			}
			if !product.IsActive || product.ApprovalStatus != constants.ProductApprovalApproved {
				return ErrProductNotAvailable
			}
			selections, err := selectionRepo.ListByProductID(product.ID, true)
			if err != nil {
				return err
			}
			chosen, err := selectionsForVariantKey(selections, line.VariantKey)
			if err != nil {
				return ErrInvalidOrderItem
			}

			selector := s.stockSvc.ResolveSelector(product, chosen)
			if err := s.stockSvc.DecrementInTx(tx, product.ID, selector, line.Quantity); err != nil {
				return err
			}

			unitPrice := CombinedFinalPrice(product, chosen)
			totalPrice := unitPrice.Decimal.Mul(decimalFromInt(line.Quantity)).Round(2)
			commission := totalPrice.Mul(commissionRate).Div(decimal.NewFromInt(100)).Round(2)
			earning := totalPrice.Sub(commission)

			orderItems = append(orderItems, models.OrderItem{
				ProductID:        product.ID,
				SellerID:         product.SellerID,
				TitleJSON:        product.TitleJSON,
				VariantKey:       line.VariantKey,
				SelectedJSON:     line.SelectedJSON,
				UnitPrice:        unitPrice,
				Quantity:         line.Quantity,
				TotalPrice:       models.NewMoneyFromDecimal(totalPrice),
				CommissionRate:   models.NewMoneyFromDecimal(commissionRate),
				CommissionAmount: models.NewMoneyFromDecimal(commission),
				SellerEarning:    models.NewMoneyFromDecimal(earning),
				CreatedAt:        now,
			})
			itemsAmount = itemsAmount.Add(totalPrice)
			if !seenSeller[product.SellerID] {
				seenSeller[product.SellerID] = true
				sellerIDs = append(sellerIDs, product.SellerID)
			}
		}

		shippingTotal := decimal.Zero
		for _, sellerID := range sellerIDs {
			seller, err := s.userRepo.GetByID(sellerID)
			if err != nil {
				return err
			}
			cost, err := sellerShippingCost(seller, governorateID, defaultShipping)
			if err != nil {
				return err
			}
			shippingTotal = shippingTotal.Add(cost.Decimal)
		}
		shippingTotal = shippingTotal.Round(2)

		order = &models.Order{
			OrderNo:         generateOrderNo(),
			UserID:          input.UserID,
			Status:          constants.OrderStatusPending,
			Currency:        walletDefaultCurrency,
			ItemsAmount:     models.NewMoneyFromDecimal(itemsAmount.Round(2)),
			ShippingCost:    models.NewMoneyFromDecimal(shippingTotal),
			TotalAmount:     models.NewMoneyFromDecimal(itemsAmount.Add(shippingTotal).Round(2)),
			GovernorateID:   governorateID,
			ShippingAddress: address,
			ClientIP:        strings.TrimSpace(input.ClientIP),
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := orderRepo.Create(order); err != nil {
			return err
		}
		for i := range orderItems {
			orderItems[i].OrderID = order.ID
		}
		if err := orderRepo.CreateItems(orderItems); err != nil {
			return err
		}
		order.Items = orderItems

		return s.cartRepo.WithTx(tx).ClearByUser(input.UserID)
	})
	if err != nil {
		return nil, err
	}

	s.notifyStatus(order.ID, order.Status)
	return order, nil
}

// CancelOrder 取消订单并回补库存
//
// 仅 pending/processing 可取消；已取消订单再次取消返回状态错误而不是
// 幂等成功，库存绝不二次回补。
func (s *OrderService) CancelOrder(orderID, userID uint, byAdmin bool) (*models.Order, error) {
	var order *models.Order
	notify := false
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		locked, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrOrderNotFound
		}
		if !byAdmin && locked.UserID != userID {
			return ErrOrderNotFound
		}
		if !isOrderStatusCancellable(locked.Status) {
			return ErrOrderNotCancellable
		}

		items, err := orderRepo.ListItemsByOrderID(locked.ID)
		if err != nil {
			return err
		}
		for _, item := range items {
			selector, err := s.restoreSelector(tx, item)
			if err != nil {
				return err
			}
			if err := s.stockSvc.RestoreInTx(tx, item.ProductID, selector, item.Quantity); err != nil {
				return err
			}
		}

		now := time.Now()
		locked.Status = constants.OrderStatusCancelled
		locked.CancelledAt = &now
		locked.UpdatedAt = now
		if err := orderRepo.Update(locked); err != nil {
			return err
		}
		locked.Items = items
		order = locked
		notify = true
		return nil
	})
	if err != nil {
		return nil, err
	}
	if notify {
		s.notifyStatus(order.ID, order.Status)
	}
	return order, nil
}

// UpdateStatus 推进订单状态（管理端）
//
// 状态机只允许向前单步推进；推进到 delivered 时同事务内为各卖家钱包
// 入账，确保送达与分账原子。
func (s *OrderService) UpdateStatus(orderID uint, newStatus string) (*models.Order, error) {
	var order *models.Order
	err := s.orderRepo.Transaction(func(tx *gorm.DB) error {
		orderRepo := s.orderRepo.WithTx(tx)
		locked, err := orderRepo.GetByIDForUpdate(orderID)
		if err != nil {
			return err
		}
		if locked == nil {
			return ErrOrderNotFound
		}
		if newStatus == constants.OrderStatusCancelled {
			return ErrOrderStatusInvalid
		}
		if !canTransitOrderStatus(locked.Status, newStatus) {
			return ErrOrderStatusInvalid
		}

		now := time.Now()
		locked.Status = newStatus
		locked.UpdatedAt = now
		if newStatus == constants.OrderStatusDelivered {
			locked.DeliveredAt = &now
			items, err := orderRepo.ListItemsByOrderID(locked.ID)
			if err != nil {
				return err
			}
			locked.Items = items
			if err := s.walletSvc.CreditOrderEarningsInTx(tx, locked); err != nil {
				return err
			}
		}
		if err := orderRepo.Update(locked); err != nil {
			return err
		}
		order = locked
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.notifyStatus(order.ID, order.Status)
	return order, nil
}

// GetForUser 买家查询自己的订单
func (s *OrderService) GetForUser(orderID, userID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// GetByID 管理端查询订单
func (s *OrderService) GetByID(orderID uint) (*models.Order, error) {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return order, nil
}

// List 订单列表
func (s *OrderService) List(filter repository.OrderListFilter) ([]models.Order, int64, error) {
	return s.orderRepo.List(filter)
}

// ListSellerItems 卖家视角的订单项列表
//
// 卖家只能看到自己的订单项，看不到同订单内其他卖家的内容。
func (s *OrderService) ListSellerItems(sellerID uint, orderIDs []uint) ([]models.OrderItem, error) {
	if sellerID == 0 {
		return nil, ErrPermissionDenied
	}
	return s.orderRepo.ListItemsBySellerID(sellerID, orderIDs)
}

// restoreSelector 按订单项快照重建回补目标
//
// 下单后卖家可能改动组合映射或停用选择，重建按当前数据解析；组合键已
// 不存在时由库存服务落到商品级回补。
func (s *OrderService) restoreSelector(tx *gorm.DB, item models.OrderItem) (VariantSelector, error) {
	if item.VariantKey == "" {
		return VariantSelector{}, nil
	}
	product, err := s.productRepo.WithTx(tx).GetByID(item.ProductID)
	if err != nil {
		return VariantSelector{}, err
	}
	if product == nil {
		// 商品已删除，数量无处回补，记录后跳过
		logger.Warnw("restore_product_missing", "product_id", item.ProductID, "order_id", item.OrderID)
		return VariantSelector{}, nil
	}
	if _, ok := product.CombinationStocks[item.VariantKey]; ok {
		return VariantSelector{CombinationKey: item.VariantKey}, nil
	}
	optionIDs, err := models.OptionIDsFromCombinationKey(item.VariantKey)
	if err != nil {
		return VariantSelector{}, nil
	}
	selectionRepo := s.selectionRepo.WithTx(tx)
	selectionIDs := make([]uint, 0, len(optionIDs))
	for _, optionID := range optionIDs {
		selection, err := selectionRepo.GetByProductAndOption(item.ProductID, optionID)
		if err != nil {
			return VariantSelector{}, err
		}
		if selection == nil {
			logger.Warnw("restore_selection_missing",
				"product_id", item.ProductID, "variant_option_id", optionID, "order_id", item.OrderID)
			continue
		}
		selectionIDs = append(selectionIDs, selection.ID)
	}
	return VariantSelector{SelectionIDs: selectionIDs}, nil
}

// checkOrderRateLimit 下单频率限制（防脚本刷单）
func (s *OrderService) checkOrderRateLimit(ctx context.Context, userID uint) error {
	if s.cfg == nil {
		return nil
	}
	limit := s.cfg.Security.OrderRateLimit
	if limit.MaxAttempts <= 0 || limit.WindowSeconds <= 0 {
		return nil
	}
	key := fmt.Sprintf("rate:order:%d", userID)
	count, err := cache.IncrWithTTL(ctx, key, time.Duration(limit.WindowSeconds)*time.Second)
	if err != nil {
		logger.Warnw("order_rate_limit_check_failed", "user_id", userID, "error", err.Error())
		return nil
	}
	if count > int64(limit.MaxAttempts) {
		return ErrTooManyOrderAttempts
	}
	return nil
}

// commissionRate 解析平台佣金比例（百分比）
func (s *OrderService) commissionRate() decimal.Decimal {
	fallback := decimal.NewFromInt(10)
	if s.cfg == nil {
		return fallback
	}
	raw := strings.TrimSpace(s.cfg.Order.CommissionRatePercent)
	if raw == "" {
		return fallback
	}
	rate, err := decimal.NewFromString(raw)
	if err != nil || rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(100)) {
		logger.Warnw("commission_rate_invalid", "value", raw)
		return fallback
	}
	return rate
}

// defaultShippingCost 解析平台默认运费
func (s *OrderService) defaultShippingCost() models.Money {
	if s.cfg == nil {
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	raw := strings.TrimSpace(s.cfg.Order.DefaultShippingCost)
	if raw == "" {
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	cost, err := decimal.NewFromString(raw)
	if err != nil || cost.IsNegative() {
		logger.Warnw("default_shipping_cost_invalid", "value", raw)
		return models.NewMoneyFromDecimal(decimal.Zero)
	}
	return models.NewMoneyFromDecimal(cost)
}

// notifyStatus 推送订单状态通知任务，失败只告警不影响主流程
func (s *OrderService) notifyStatus(orderID uint, status string) {
	if s.queueClient == nil {
		return
	}
	payload := queue.OrderStatusNotifyPayload{OrderID: orderID, Status: status}
	if err := s.queueClient.EnqueueOrderStatusNotify(payload); err != nil {
		logger.Warnw("order_status_notify_enqueue_failed",
			"order_id", orderID, "status", status, "error", err.Error())
	}
}

func generateOrderNo() string {
	now := time.Now().Format("20060102150405")
	return fmt.Sprintf("TM%s%s", now, randNumeric(6))
}

func randNumeric(length int) string {
	var b strings.Builder
	for i := 0; i < length; i++ {
		n, err := rand.Int(rand.Reader, big.NewInt(10))
		if err != nil {
			b.WriteString("0")
			continue
		}
		b.WriteString(fmt.Sprintf("%d", n.Int64()))
	}
	return b.String()
}

package service

import (
	"fmt"

	"github.com/tohfa-market/internal/constants"
	"github.com/tohfa-market/internal/models"
	"github.com/tohfa-market/internal/repository"
)

// NotificationService 站内通知服务
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	orderRepo        repository.OrderRepository
	productRepo      repository.ProductRepository
}

// NewNotificationService 创建通知服务
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		orderRepo:        orderRepo,
		productRepo:      productRepo,
	}
}

// List 查询用户通知
func (s *NotificationService) List(filter repository.NotificationListFilter) ([]models.Notification, int64, error) {
	return s.notificationRepo.List(filter)
}

// CountUnread 未读数
func (s *NotificationService) CountUnread(userID uint) (int64, error) {
	return s.notificationRepo.CountUnread(userID)
}

// MarkRead 标记已读
func (s *NotificationService) MarkRead(userID, id uint) error {
	affected, err := s.notificationRepo.MarkRead(userID, id)
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// MarkAllRead 全部标记已读
func (s *NotificationService) MarkAllRead(userID uint) error {
	return s.notificationRepo.MarkAllRead(userID)
}

// NotifyOrderStatus 写入订单状态通知（买家与涉及的卖家各一条）
//
// 由队列消费者调用，订单不存在时静默跳过（任务不重试）。
func (s *NotificationService) NotifyOrderStatus(orderID uint, status string) error {
	order, err := s.orderRepo.GetByID(orderID)
	if err != nil {
		return err
	}
	if order == nil {
		return nil
	}

	data := models.JSON{
		"order_id": order.ID,
		"order_no": order.OrderNo,
		"status":   status,
	}
	title := models.JSON{
		"en": fmt.Sprintf("Order %s is now %s", order.OrderNo, status),
		"ar": fmt.Sprintf("الطلب %s أصبح %s", order.OrderNo, status),
	}

	if err := s.notificationRepo.Create(&models.Notification{
		UserID:    order.UserID,
		Type:      constants.NotificationTypeOrderStatus,
		TitleJSON: title,
		DataJSON:  data,
	}); err != nil {
		return err
	}

	// 卖家按订单项去重后各收一条
	notified := map[uint]bool{order.UserID: true}
	for _, item := range order.Items {
		if notified[item.SellerID] {
			continue
		}
		notified[item.SellerID] = true
		if err := s.notificationRepo.Create(&models.Notification{
			UserID:    item.SellerID,
			Type:      constants.NotificationTypeOrderStatus,
			TitleJSON: title,
			DataJSON:  data,
		}); err != nil {
			return err
		}
	}
	return nil
}

// NotifyProductApproval 写入商品审核结果通知
func (s *NotificationService) NotifyProductApproval(productID uint, status, reason string) error {
	product, err := s.productRepo.GetByID(productID)
	if err != nil {
		return err
	}
	if product == nil {
		return nil
	}
	title := models.JSON{
		"en": fmt.Sprintf("Your product was %s", status),
		"ar": fmt.Sprintf("تمت مراجعة منتجك: %s", status),
	}
	data := models.JSON{
		"product_id": product.ID,
		"slug":       product.Slug,
		"status":     status,
	}
	if reason != "" {
		data["reason"] = reason
	}
	return s.notificationRepo.Create(&models.Notification{
		UserID:    product.SellerID,
		Type:      constants.NotificationTypeProductApproval,
		TitleJSON: title,
		DataJSON:  data,
	})
}

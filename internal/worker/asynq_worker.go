package worker

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/tohfa-market/internal/logger"
	"github.com/tohfa-market/internal/provider"
	"github.com/tohfa-market/internal/queue"
	"github.com/tohfa-market/internal/service"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskOrderStatusNotify, c.handleOrderStatusNotify)
	mux.HandleFunc(queue.TaskProductApprovalNotify, c.handleProductApprovalNotify)
}

func (c *Consumer) handleOrderStatusNotify(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_order_status_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.OrderStatusNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_order_status_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.OrderID == 0 {
		logger.Debugw("worker_order_status_notify_skip_invalid_payload", "order_id", payload.OrderID)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_order_status_notify_skip_service_nil", "order_id", payload.OrderID)
		return nil
	}
	if err := c.NotificationService.NotifyOrderStatus(payload.OrderID, payload.Status); err != nil {
		if errors.Is(err, service.ErrOrderNotFound) {
			logger.Debugw("worker_order_status_notify_skip_order_not_found", "order_id", payload.OrderID)
			return nil
		}
		logger.Warnw("worker_order_status_notify_failed",
			"order_id", payload.OrderID,
			"status", payload.Status,
			"error", err,
		)
		return err
	}
	return nil
}

func (c *Consumer) handleProductApprovalNotify(_ context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_product_approval_notify_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	var payload queue.ProductApprovalNotifyPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		logger.Warnw("worker_product_approval_notify_unmarshal_failed", "error", err)
		return err
	}
	if payload.ProductID == 0 {
		logger.Debugw("worker_product_approval_notify_skip_invalid_payload", "product_id", payload.ProductID)
		return nil
	}
	if c.NotificationService == nil {
		logger.Warnw("worker_product_approval_notify_skip_service_nil", "product_id", payload.ProductID)
		return nil
	}
	if err := c.NotificationService.NotifyProductApproval(payload.ProductID, payload.Status, payload.Reason); err != nil {
		if errors.Is(err, service.ErrProductNotFound) {
			logger.Debugw("worker_product_approval_notify_skip_product_not_found", "product_id", payload.ProductID)
			return nil
		}
		logger.Warnw("worker_product_approval_notify_failed",
			"product_id", payload.ProductID,
			"status", payload.Status,
			"error", err,
		)
		return err
	}
	return nil
}

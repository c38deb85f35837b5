package queue

import (
	"encoding/json"

	"github.com/tohfa-market/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskOrderStatusNotify 订单状态通知任务
	TaskOrderStatusNotify = constants.TaskOrderStatusNotify
	// TaskProductApprovalNotify 商品审核通知任务
	TaskProductApprovalNotify = constants.TaskProductApprovalNotify
)

// OrderStatusNotifyPayload 订单状态通知任务载荷
type OrderStatusNotifyPayload struct {
	OrderID uint   `json:"order_id"`
	Status  string `json:"status"`
}

// ProductApprovalNotifyPayload 商品审核通知任务载荷
type ProductApprovalNotifyPayload struct {
	ProductID uint   `json:"product_id"`
	Status    string `json:"status"`
	Reason    string `json:"reason,omitempty"`
}

// NewOrderStatusNotifyTask 创建订单状态通知任务
func NewOrderStatusNotifyTask(payload OrderStatusNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskOrderStatusNotify, body), nil
}

// NewProductApprovalNotifyTask 创建商品审核通知任务
func NewProductApprovalNotifyTask(payload ProductApprovalNotifyPayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskProductApprovalNotify, body), nil
}

package service

import (
	"strings"

	"github.com/tohfa-market/internal/constants"
)

// orderStatusRank 履约主链位次（取消不在主链上）
var orderStatusRank = map[string]int{
	constants.OrderStatusPending:    0,
	constants.OrderStatusProcessing: 1,
	constants.OrderStatusShipped:    2,
	constants.OrderStatusDelivered:  3,
}

// cancellableStatuses 允许取消的状态集合
var cancellableStatuses = map[string]bool{
	constants.OrderStatusPending:    true,
	constants.OrderStatusProcessing: true,
}

// canTransitOrderStatus 判断订单状态流转是否合法
//
// 主链只能逐级前进（pending→processing→shipped→delivered），取消只允许
// 从 pending/processing 进入，终态不再流转。
func canTransitOrderStatus(from, to string) bool {
	from = strings.ToLower(strings.TrimSpace(from))
	to = strings.ToLower(strings.TrimSpace(to))
	if from == to {
		return false
	}
	if from == constants.OrderStatusCancelled || from == constants.OrderStatusDelivered {
		return false
	}
	if to == constants.OrderStatusCancelled {
		return cancellableStatuses[from]
	}
	fromRank, fromOK := orderStatusRank[from]
	toRank, toOK := orderStatusRank[to]
	if !fromOK || !toOK {
		return false
	}
	return toRank == fromRank+1
}

// isOrderStatusCancellable 判断状态是否可取消
func isOrderStatusCancellable(status string) bool {
	return cancellableStatuses[strings.ToLower(strings.TrimSpace(status))]
}

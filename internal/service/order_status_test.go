package service

import (
	"testing"

	"github.com/tohfa-market/internal/constants"
)

func TestCanTransitOrderStatus(t *testing.T) {
	cases := []struct {
		from string
		to   string
		want bool
	}{
		{constants.OrderStatusPending, constants.OrderStatusProcessing, true},
		{constants.OrderStatusProcessing, constants.OrderStatusShipped, true},
		{constants.OrderStatusShipped, constants.OrderStatusDelivered, true},
		// 不允许跳级
		{constants.OrderStatusPending, constants.OrderStatusShipped, false},
		{constants.OrderStatusProcessing, constants.OrderStatusDelivered, false},
		// 不允许回退与原地流转
		{constants.OrderStatusShipped, constants.OrderStatusProcessing, false},
		{constants.OrderStatusPending, constants.OrderStatusPending, false},
		// 取消只允许从前两个状态进入
		{constants.OrderStatusPending, constants.OrderStatusCancelled, true},
		{constants.OrderStatusProcessing, constants.OrderStatusCancelled, true},
		{constants.OrderStatusShipped, constants.OrderStatusCancelled, false},
		// 终态不再流转
		{constants.OrderStatusDelivered, constants.OrderStatusCancelled, false},
		{constants.OrderStatusCancelled, constants.OrderStatusPending, false},
		{constants.OrderStatusDelivered, constants.OrderStatusShipped, false},
		// 大小写与空白归一
		{"Pending", " processing ", true},
		// 未知状态
		{"unknown", constants.OrderStatusProcessing, false},
		{constants.OrderStatusPending, "unknown", false},
	}
	for _, c := range cases {
		if got := canTransitOrderStatus(c.from, c.to); got != c.want {
			t.Errorf("canTransitOrderStatus(%q, %q) = %v, want %v", c.from, c.to, got, c.want)
		}
	}
}

func TestIsOrderStatusCancellable(t *testing.T) {
	if !isOrderStatusCancellable(constants.OrderStatusPending) {
		t.Error("pending should be cancellable")
	}
	if !isOrderStatusCancellable(" Processing ") {
		t.Error("processing should be cancellable after normalization")
	}
	if isOrderStatusCancellable(constants.OrderStatusShipped) {
		t.Error("shipped should not be cancellable")
	}
	if isOrderStatusCancellable(constants.OrderStatusDelivered) {
		t.Error("delivered should not be cancellable")
	}
}

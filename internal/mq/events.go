package mq

import (
	"context"
	"time"

	"github.com/werejoel/tenancy-core/internal/logger"
	"go.uber.org/zap"
)

// 事件主题与标签
const (
	TopicPaymentEvents = "payment_events"

	TagPaymentRecorded = "payment.recorded"
	TagChargeSettled   = "charge.settled"
)

// PaymentRecordedEvent 收款入账事件
type PaymentRecordedEvent struct {
	PaymentID   string `json:"payment_id"`
	ReceiptNo   string `json:"receipt_no"`
	TenantID    int64  `json:"tenant_id"`
	HouseID     int64  `json:"house_id"`
	Amount      string `json:"amount"`
	Allocated   string `json:"allocated"`
	Unallocated string `json:"unallocated"`
	Timestamp   int64  `json:"timestamp"`
}

// ChargeSettledEvent 账单结清事件
type ChargeSettledEvent struct {
	ChargeID  int64  `json:"charge_id"`
	TenantID  int64  `json:"tenant_id"`
	PaymentID string `json:"payment_id"`
	Timestamp int64  `json:"timestamp"`
}

// PublishPaymentRecorded 发布收款入账事件
// RocketMQ 未启用时静默跳过，事件发布失败不影响收款主流程
func PublishPaymentRecorded(ctx context.Context, event *PaymentRecordedEvent) {
	client := GetGlobalMQClient()
	if !client.IsEnabled() {
		return
	}

	event.Timestamp = time.Now().Unix()
	if err := client.SendMessage(ctx, TopicPaymentEvents, TagPaymentRecorded, event); err != nil {
		logger.Logger.Warn("发布收款入账事件失败",
			zap.String("payment_id", event.PaymentID),
			zap.Error(err))
	}
}

// PublishChargeSettled 发布账单结清事件
func PublishChargeSettled(ctx context.Context, event *ChargeSettledEvent) {
	client := GetGlobalMQClient()
	if !client.IsEnabled() {
		return
	}

	event.Timestamp = time.Now().Unix()
	if err := client.SendMessage(ctx, TopicPaymentEvents, TagChargeSettled, event); err != nil {
		logger.Logger.Warn("发布账单结清事件失败",
			zap.Int64("charge_id", event.ChargeID),
			zap.Error(err))
	}
}

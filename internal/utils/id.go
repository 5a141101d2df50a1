package utils

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/werejoel/tenancy-core/config"
)

// GeneratePaymentID 生成收款记录ID
func GeneratePaymentID() string {
	return uuid.NewString()
}

// GenerateReceiptNo 生成收据号
func GenerateReceiptNo() string {
	prefix := "RCP"
	if config.Cfg != nil && config.Cfg.Payment.ReceiptPrefix != "" {
		prefix = config.Cfg.Payment.ReceiptPrefix
	}
	timestamp := time.Now().Format("20060102150405")
	random := time.Now().UnixNano() % 10000
	return fmt.Sprintf("%s%s%04d", prefix, timestamp, random)
}

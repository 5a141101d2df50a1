package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment 收款模型
// AmountPaid 为实收总额，分配完成后不再修改
type Payment struct {
	ID             string          `gorm:"primaryKey;type:varchar(36);comment:收款Id" json:"id"`
	ReceiptNo      string          `gorm:"uniqueIndex;type:varchar(32);not null;comment:收据号" json:"receipt_no"`
	TenantID       int64           `gorm:"index;not null;comment:关联租客" json:"tenant_id"`
	HouseID        int64           `gorm:"index;not null;comment:关联房屋" json:"house_id"`
	AmountPaid     decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:实收金额" json:"amount_paid"`
	Unallocated    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0.00;comment:未分配余额" json:"unallocated"`
	PaymentDate    time.Time       `gorm:"index;not null;comment:收款日期" json:"payment_date"`
	PeriodStart    *time.Time      `gorm:"comment:账期开始" json:"period_start,omitempty"`
	PeriodEnd      *time.Time      `gorm:"comment:账期结束" json:"period_end,omitempty"`
	Method         string          `gorm:"type:varchar(32);comment:支付方式" json:"method,omitempty"`
	Reference      string          `gorm:"index;type:varchar(64);comment:外部流水号" json:"reference,omitempty"`
	Notes          string          `gorm:"type:varchar(255);comment:备注" json:"notes,omitempty"`
	CreatorID      *int64          `gorm:"index;comment:录入人" json:"creator_id,omitempty"`
	CreateDatetime *time.Time      `gorm:"comment:创建时间" json:"create_datetime,omitempty"`
	UpdateDatetime *time.Time      `gorm:"comment:修改时间" json:"update_datetime,omitempty"`

	// 关联关系
	Tenant      *Tenant         `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	House       *House          `gorm:"foreignKey:HouseID" json:"house,omitempty"`
	Allocations []PaymentCharge `gorm:"foreignKey:PaymentID" json:"allocations,omitempty"`
}

// TableName 指定表名
func (Payment) TableName() string {
	return "tms_payment"
}

// PaymentMethod 支付方式常量
const (
	PaymentMethodCash     = "cash"     // 现金
	PaymentMethodBank     = "bank"     // 银行转账
	PaymentMethodMobile   = "mobile"   // 移动支付
	PaymentMethodCheque   = "cheque"   // 支票
	PaymentMethodDeducted = "deducted" // 押金抵扣
)

// PaymentCharge 收款分配模型
// 记录一笔收款分配到某张账单的金额，仅由分配逻辑写入，写入后不再修改
type PaymentCharge struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentID      string          `gorm:"index;type:varchar(36);not null;comment:关联收款" json:"payment_id"`
	ChargeID       int64           `gorm:"index;not null;comment:关联账单" json:"charge_id"`
	AmountPaid     decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:分配金额" json:"amount_paid"`
	CreateDatetime *time.Time      `gorm:"comment:创建时间" json:"create_datetime,omitempty"`

	// 关联关系
	Payment *Payment `gorm:"foreignKey:PaymentID" json:"payment,omitempty"`
	Charge  *Charge  `gorm:"foreignKey:ChargeID" json:"charge,omitempty"`
}

// TableName 指定表名
func (PaymentCharge) TableName() string {
	return "tms_payment_charge"
}

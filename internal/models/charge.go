package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Charge 账单模型
// AmountPaid 与 Status 只允许由收款分配逻辑修改，Ver 用于乐观锁
type Charge struct {
	ID                int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TenantID          int64           `gorm:"index;not null;comment:关联租客" json:"tenant_id"`
	HouseID           int64           `gorm:"index;not null;comment:关联房屋" json:"house_id"`
	Description       string          `gorm:"type:varchar(255);comment:账单说明" json:"description,omitempty"`
	Amount            decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:应收金额" json:"amount"`
	AmountPaid        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0.00;comment:已收金额" json:"amount_paid"`
	DueDate           time.Time       `gorm:"index;not null;comment:到期日" json:"due_date"`
	Status            int             `gorm:"index;not null;comment:账单状态" json:"status"`
	Ver               int64           `gorm:"not null;comment:版本号" json:"ver"`
	RecurringChargeID *int64          `gorm:"index;comment:来源周期账单" json:"recurring_charge_id,omitempty"`
	CreateDatetime    *time.Time      `gorm:"comment:创建时间" json:"create_datetime,omitempty"`
	UpdateDatetime    *time.Time      `gorm:"comment:修改时间" json:"update_datetime,omitempty"`

	// 关联关系
	Tenant *Tenant `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	House  *House  `gorm:"foreignKey:HouseID" json:"house,omitempty"`
}

// TableName 指定表名
func (Charge) TableName() string {
	return "tms_charge"
}

// ChargeStatus 账单状态常量
const (
	ChargeStatusUnpaid  = 0 // 未付
	ChargeStatusPartial = 1 // 部分支付
	ChargeStatusPaid    = 2 // 已付清
)

// Outstanding 未收金额（应收 - 已收）
func (c *Charge) Outstanding() decimal.Decimal {
	return c.Amount.Sub(c.AmountPaid)
}

// ChargeStatusOf 根据应收与已收推导账单状态
// 已收 >= 应收 为已付清，0 < 已收 < 应收 为部分支付，否则未付
func ChargeStatusOf(amount, amountPaid decimal.Decimal) int {
	switch {
	case amountPaid.GreaterThanOrEqual(amount):
		return ChargeStatusPaid
	case amountPaid.GreaterThan(decimal.Zero):
		return ChargeStatusPartial
	default:
		return ChargeStatusUnpaid
	}
}

// RecurringCharge 周期账单模型
// 账单生成服务按周期将其物化为 Charge
type RecurringCharge struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	LeaseID        int64           `gorm:"index;not null;comment:关联租约" json:"lease_id"`
	Description    string          `gorm:"type:varchar(255);comment:账单说明" json:"description,omitempty"`
	Amount         decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:每期金额" json:"amount"`
	DueDay         int             `gorm:"not null;comment:每月到期日" json:"due_day"`
	Active         bool            `gorm:"index;not null;comment:是否生效" json:"active"`
	LastPeriod     string          `gorm:"type:varchar(7);comment:最近已生成账期(YYYY-MM)" json:"last_period,omitempty"`
	CreateDatetime *time.Time      `gorm:"comment:创建时间" json:"create_datetime,omitempty"`
	UpdateDatetime *time.Time      `gorm:"comment:修改时间" json:"update_datetime,omitempty"`

	// 关联关系
	Lease *Lease `gorm:"foreignKey:LeaseID" json:"lease,omitempty"`
}

// TableName 指定表名
func (RecurringCharge) TableName() string {
	return "tms_recurring_charge"
}

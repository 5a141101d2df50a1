package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tenant 租客模型
type Tenant struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string     `gorm:"type:varchar(128);not null;comment:姓名" json:"name"`
	Phone          string     `gorm:"type:varchar(32);index;comment:电话" json:"phone,omitempty"`
	Email          string     `gorm:"type:varchar(128);comment:邮箱" json:"email,omitempty"`
	NationalID     *string    `gorm:"type:varchar(64);uniqueIndex;comment:证件号" json:"national_id,omitempty"`
	NotifyURL      string     `gorm:"type:varchar(255);comment:收据通知地址" json:"notify_url,omitempty"`
	Status         bool       `gorm:"not null;comment:状态" json:"status"`
	Remarks        string     `gorm:"type:varchar(255);comment:备注" json:"remarks,omitempty"`
	CreateDatetime *time.Time `gorm:"comment:创建时间" json:"create_datetime,omitempty"`
	UpdateDatetime *time.Time `gorm:"comment:修改时间" json:"update_datetime,omitempty"`

	// 关联关系
	Leases []Lease `gorm:"foreignKey:TenantID" json:"leases,omitempty"`
}

// TableName 指定表名
func (Tenant) TableName() string {
	return "tms_tenant"
}

// House 房屋模型
type House struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	Code           string          `gorm:"type:varchar(32);uniqueIndex;not null;comment:房屋编号" json:"code"`
	Address        string          `gorm:"type:varchar(255);not null;comment:地址" json:"address"`
	HouseType      string          `gorm:"type:varchar(32);comment:房型" json:"house_type,omitempty"`
	MonthlyRent    decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0.00;comment:月租金" json:"monthly_rent"`
	Occupied       bool            `gorm:"not null;comment:是否已出租" json:"occupied"`
	Remarks        string          `gorm:"type:varchar(255);comment:备注" json:"remarks,omitempty"`
	CreateDatetime *time.Time      `gorm:"comment:创建时间" json:"create_datetime,omitempty"`
	UpdateDatetime *time.Time      `gorm:"comment:修改时间" json:"update_datetime,omitempty"`

	// 关联关系
	Leases []Lease `gorm:"foreignKey:HouseID" json:"leases,omitempty"`
}

// TableName 指定表名
func (House) TableName() string {
	return "tms_house"
}

// Lease 租约模型
type Lease struct {
	ID             int64           `gorm:"primaryKey;autoIncrement" json:"id"`
	TenantID       int64           `gorm:"index;not null;comment:关联租客" json:"tenant_id"`
	HouseID        int64           `gorm:"index;not null;comment:关联房屋" json:"house_id"`
	StartDate      time.Time       `gorm:"not null;comment:起租日" json:"start_date"`
	EndDate        *time.Time      `gorm:"comment:到期日" json:"end_date,omitempty"`
	MonthlyRent    decimal.Decimal `gorm:"type:decimal(10,2);not null;comment:月租金" json:"monthly_rent"`
	Deposit        decimal.Decimal `gorm:"type:decimal(10,2);not null;default:0.00;comment:押金" json:"deposit"`
	Active         bool            `gorm:"index;not null;comment:是否生效" json:"active"`
	Remarks        string          `gorm:"type:varchar(255);comment:备注" json:"remarks,omitempty"`
	CreateDatetime *time.Time      `gorm:"comment:创建时间" json:"create_datetime,omitempty"`
	UpdateDatetime *time.Time      `gorm:"comment:修改时间" json:"update_datetime,omitempty"`

	// 关联关系
	Tenant *Tenant `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	House  *House  `gorm:"foreignKey:HouseID" json:"house,omitempty"`
}

// TableName 指定表名
func (Lease) TableName() string {
	return "tms_lease"
}

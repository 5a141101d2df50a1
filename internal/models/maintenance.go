package models

import "time"

// MaintenanceRequest 维修工单模型
type MaintenanceRequest struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	TenantID       int64      `gorm:"index;not null;comment:报修租客" json:"tenant_id"`
	HouseID        int64      `gorm:"index;not null;comment:关联房屋" json:"house_id"`
	Description    string     `gorm:"type:longtext;not null;comment:报修内容" json:"description"`
	Priority       int        `gorm:"not null;comment:优先级" json:"priority"`
	Status         int        `gorm:"index;not null;comment:工单状态" json:"status"`
	ReportedAt     time.Time  `gorm:"not null;comment:报修时间" json:"reported_at"`
	ResolvedAt     *time.Time `gorm:"comment:完成时间" json:"resolved_at,omitempty"`
	Remarks        string     `gorm:"type:varchar(255);comment:备注" json:"remarks,omitempty"`
	CreateDatetime *time.Time `gorm:"comment:创建时间" json:"create_datetime,omitempty"`
	UpdateDatetime *time.Time `gorm:"comment:修改时间" json:"update_datetime,omitempty"`

	// 关联关系
	Tenant *Tenant `gorm:"foreignKey:TenantID" json:"tenant,omitempty"`
	House  *House  `gorm:"foreignKey:HouseID" json:"house,omitempty"`
}

// TableName 指定表名
func (MaintenanceRequest) TableName() string {
	return "tms_maintenance_request"
}

// MaintenanceStatus 工单状态常量
const (
	MaintenanceStatusOpen       = 0 // 待处理
	MaintenanceStatusInProgress = 1 // 处理中
	MaintenanceStatusResolved   = 2 // 已完成
	MaintenanceStatusClosed     = 3 // 已关闭
)

// MaintenancePriority 优先级常量
const (
	MaintenancePriorityLow    = 0 // 低
	MaintenancePriorityNormal = 1 // 普通
	MaintenancePriorityHigh   = 2 // 高
	MaintenancePriorityUrgent = 3 // 紧急
)

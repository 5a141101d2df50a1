package models

import "time"

// ReceiptNotification 收据通知模型
// 每笔收款记录一条通知任务，失败后由重试服务扫描重发
type ReceiptNotification struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	PaymentID      string     `gorm:"uniqueIndex;type:varchar(36);not null;comment:关联收款" json:"payment_id"`
	Status         int        `gorm:"index;not null;comment:通知状态" json:"status"`
	RetryCount     int        `gorm:"not null;default:0;comment:重试次数" json:"retry_count"`
	Ver            int64      `gorm:"not null;comment:版本号" json:"ver"`
	CreateDatetime *time.Time `gorm:"comment:创建时间" json:"create_datetime,omitempty"`
	UpdateDatetime *time.Time `gorm:"comment:修改时间" json:"update_datetime,omitempty"`
	Remarks        string     `gorm:"type:varchar(255);comment:备注" json:"remarks,omitempty"`
}

// TableName 指定表名
func (ReceiptNotification) TableName() string {
	return "tms_receipt_notification"
}

// NotificationStatus 通知状态常量
const (
	NotificationStatusPending  = 0 // 待通知
	NotificationStatusSuccess  = 1 // 通知成功
	NotificationStatusFailed   = 2 // 通知失败
	NotificationStatusMaxRetry = 3 // 达到最大重试次数
)

// ReceiptNotificationHistory 收据通知记录模型
type ReceiptNotificationHistory struct {
	ID             int64      `gorm:"primaryKey;autoIncrement" json:"id"`
	NotificationID int64      `gorm:"index;not null;comment:关联通知" json:"notification_id"`
	URL            string     `gorm:"type:longtext;not null;comment:通知地址" json:"url"`
	RequestBody    string     `gorm:"type:longtext;comment:请求参数" json:"request_body,omitempty"`
	ResponseCode   int        `gorm:"not null;comment:响应状态码" json:"response_code"`
	Result         string     `gorm:"type:longtext;comment:返回信息" json:"result,omitempty"`
	CreateDatetime *time.Time `gorm:"comment:创建时间" json:"create_datetime,omitempty"`
}

// TableName 指定表名
func (ReceiptNotificationHistory) TableName() string {
	return "tms_receipt_notification_history"
}

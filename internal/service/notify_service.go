package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/werejoel/tenancy-core/internal/database"
	"github.com/werejoel/tenancy-core/internal/logger"
	"github.com/werejoel/tenancy-core/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	notifyTimeout  = 10 * time.Second
	notifyMaxRetry = 5
)

// ReceiptNotifyService 收据通知服务
// 收款入账后向租客配置的回调地址推送电子收据，失败的由重试服务兜底
type ReceiptNotifyService struct {
	client *http.Client
}

// NewReceiptNotifyService 创建收据通知服务
func NewReceiptNotifyService() *ReceiptNotifyService {
	return &ReceiptNotifyService{
		client: &http.Client{Timeout: notifyTimeout},
	}
}

// receiptPayload 推送给租客回调地址的收据内容
type receiptPayload struct {
	ReceiptNo   string `json:"receiptNo"`
	PaymentID   string `json:"paymentId"`
	TenantName  string `json:"tenantName"`
	Amount      string `json:"amount"`
	PaymentDate string `json:"paymentDate"`
	Method      string `json:"method,omitempty"`
}

// EnqueueReceipt 登记通知任务并尝试立即推送一次
// 推送失败不影响收款结果，任务留给重试服务
func (s *ReceiptNotifyService) EnqueueReceipt(ctx context.Context, payment *models.Payment, tenant *models.Tenant) {
	if tenant.NotifyURL == "" {
		return
	}

	now := time.Now()
	notification := &models.ReceiptNotification{
		PaymentID:      payment.ID,
		Status:         models.NotificationStatusPending,
		Ver:            1,
		CreateDatetime: &now,
	}
	if err := database.DB.WithContext(ctx).Create(notification).Error; err != nil {
		logger.Logger.Error("登记收据通知失败",
			zap.String("payment_id", payment.ID), zap.Error(err))
		return
	}

	if err := s.dispatch(ctx, notification, payment, tenant); err != nil {
		logger.Logger.Warn("收据通知首次推送失败，等待重试",
			zap.String("payment_id", payment.ID), zap.Error(err))
	}
}

// dispatch 执行一次推送并记录历史，按结果推进通知状态
func (s *ReceiptNotifyService) dispatch(ctx context.Context, notification *models.ReceiptNotification, payment *models.Payment, tenant *models.Tenant) error {
	payload := &receiptPayload{
		ReceiptNo:   payment.ReceiptNo,
		PaymentID:   payment.ID,
		TenantName:  tenant.Name,
		Amount:      payment.AmountPaid.String(),
		PaymentDate: payment.PaymentDate.Format("2006-01-02"),
		Method:      payment.Method,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("序列化收据内容失败: %w", err)
	}

	respCode, respBody, callErr := s.post(ctx, tenant.NotifyURL, body)
	s.recordHistory(ctx, notification.ID, tenant.NotifyURL, string(body), respCode, respBody)

	success := callErr == nil && respCode >= 200 && respCode < 300
	if err := s.advanceStatus(ctx, notification, success); err != nil {
		return err
	}
	if !success {
		if callErr != nil {
			return callErr
		}
		return fmt.Errorf("通知响应异常: %d", respCode)
	}
	return nil
}

// post 向回调地址发送收据
func (s *ReceiptNotifyService) post(ctx context.Context, url string, body []byte) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return 0, "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return resp.StatusCode, string(respBody), nil
}

// recordHistory 记录单次推送结果
func (s *ReceiptNotifyService) recordHistory(ctx context.Context, notificationID int64, url, requestBody string, respCode int, result string) {
	now := time.Now()
	history := &models.ReceiptNotificationHistory{
		NotificationID: notificationID,
		URL:            url,
		RequestBody:    requestBody,
		ResponseCode:   respCode,
		Result:         result,
		CreateDatetime: &now,
	}
	if err := database.DB.WithContext(ctx).Create(history).Error; err != nil {
		logger.Logger.Error("记录通知历史失败",
			zap.Int64("notification_id", notificationID), zap.Error(err))
	}
}

// advanceStatus 乐观锁推进通知状态，并发重试时只有一方生效
func (s *ReceiptNotifyService) advanceStatus(ctx context.Context, notification *models.ReceiptNotification, success bool) error {
	now := time.Now()
	updates := map[string]interface{}{
		"retry_count":     notification.RetryCount + 1,
		"ver":             notification.Ver + 1,
		"update_datetime": &now,
	}
	if success {
		updates["status"] = models.NotificationStatusSuccess
	} else if notification.RetryCount+1 >= notifyMaxRetry {
		updates["status"] = models.NotificationStatusMaxRetry
	} else {
		updates["status"] = models.NotificationStatusFailed
	}

	result := database.DB.WithContext(ctx).
		Model(&models.ReceiptNotification{}).
		Where("id = ? AND ver = ?", notification.ID, notification.Ver).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("更新通知状态失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("通知状态已被其他流程更新: %d", notification.ID)
	}

	notification.RetryCount++
	notification.Ver++
	return nil
}

// retryOne 重试一条通知任务
func (s *ReceiptNotifyService) retryOne(ctx context.Context, notification *models.ReceiptNotification) error {
	var payment models.Payment
	if err := database.DB.WithContext(ctx).
		Where("id = ?", notification.PaymentID).
		First(&payment).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return fmt.Errorf("收款记录不存在: %s", notification.PaymentID)
		}
		return err
	}

	var tenant models.Tenant
	if err := database.DB.WithContext(ctx).First(&tenant, payment.TenantID).Error; err != nil {
		return err
	}
	if tenant.NotifyURL == "" {
		// 回调地址被清空，任务直接关闭
		return s.advanceStatus(ctx, notification, true)
	}

	return s.dispatch(ctx, notification, &payment, &tenant)
}

package service

import (
	"context"
	"time"

	"github.com/werejoel/tenancy-core/internal/database"
	"github.com/werejoel/tenancy-core/internal/logger"
	"github.com/werejoel/tenancy-core/internal/models"
	"go.uber.org/zap"
)

const (
	notifyRetryInterval = 30 * time.Second
	notifyRetryLockKey  = "lock:notify:retry"
	notifyRetryLockTTL  = 25 * time.Second
	notifyRetryBatch    = 50
)

// NotifyRetryService 收据通知重试服务
// 定时扫描失败的通知任务重发，多实例部署时用 Redis 锁保证同一时刻只有一个实例在扫
type NotifyRetryService struct {
	notifyService *ReceiptNotifyService
	stopChan      chan struct{}
}

// NewNotifyRetryService 创建通知重试服务
func NewNotifyRetryService() *NotifyRetryService {
	return &NotifyRetryService{
		notifyService: NewReceiptNotifyService(),
		stopChan:      make(chan struct{}),
	}
}

// Start 启动定时重试
func (s *NotifyRetryService) Start(ctx context.Context) {
	logger.Logger.Info("收据通知重试服务启动",
		zap.Duration("interval", notifyRetryInterval))

	ticker := time.NewTicker(notifyRetryInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.sweep(ctx)
		case <-s.stopChan:
			logger.Logger.Info("收据通知重试服务停止")
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop 停止定时重试
func (s *NotifyRetryService) Stop() {
	close(s.stopChan)
}

// sweep 扫描一批失败的通知任务并重发
func (s *NotifyRetryService) sweep(ctx context.Context) {
	if !s.acquireLock(ctx) {
		return
	}
	defer s.releaseLock(ctx)

	var notifications []models.ReceiptNotification
	err := database.DB.WithContext(ctx).
		Where("status IN ?", []int{models.NotificationStatusPending, models.NotificationStatusFailed}).
		Order("id ASC").
		Limit(notifyRetryBatch).
		Find(&notifications).Error
	if err != nil {
		logger.Logger.Error("扫描通知任务失败", zap.Error(err))
		return
	}
	if len(notifications) == 0 {
		return
	}

	logger.Logger.Info("开始重试收据通知", zap.Int("count", len(notifications)))
	for i := range notifications {
		if err := s.notifyService.retryOne(ctx, &notifications[i]); err != nil {
			logger.Logger.Warn("收据通知重试失败",
				zap.Int64("notification_id", notifications[i].ID),
				zap.Int("retry_count", notifications[i].RetryCount),
				zap.Error(err))
		}
	}
}

func (s *NotifyRetryService) acquireLock(ctx context.Context) bool {
	if database.RDB == nil {
		return true
	}
	ok, err := database.RDB.SetNX(ctx, notifyRetryLockKey, "1", notifyRetryLockTTL).Result()
	if err != nil {
		logger.Logger.Warn("获取通知重试锁失败", zap.Error(err))
		return false
	}
	return ok
}

func (s *NotifyRetryService) releaseLock(ctx context.Context) {
	if database.RDB == nil {
		return
	}
	database.RDB.Del(ctx, notifyRetryLockKey)
}

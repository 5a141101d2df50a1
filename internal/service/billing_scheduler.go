package service

import (
	"context"
	"time"

	"github.com/werejoel/tenancy-core/config"
	"github.com/werejoel/tenancy-core/internal/database"
	"github.com/werejoel/tenancy-core/internal/logger"
	"go.uber.org/zap"
)

const (
	billingLockKey = "lock:billing:materialize"
	billingLockTTL = 5 * time.Minute
)

// BillingScheduler 周期账单调度器
// 定时把到期的周期账单规则物化为当期账单，多实例下用 Redis 锁互斥
type BillingScheduler struct {
	chargeService *ChargeService
	stopChan      chan struct{}
}

// NewBillingScheduler 创建周期账单调度器
func NewBillingScheduler() *BillingScheduler {
	return &BillingScheduler{
		chargeService: NewChargeService(),
		stopChan:      make(chan struct{}),
	}
}

// Start 启动定时扫描
func (s *BillingScheduler) Start(ctx context.Context) {
	interval := scanInterval()
	logger.Logger.Info("周期账单调度器启动", zap.Duration("interval", interval))

	// 启动时先跑一轮，避免错过当期账单
	s.runOnce(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.runOnce(ctx)
		case <-s.stopChan:
			logger.Logger.Info("周期账单调度器停止")
			return
		case <-ctx.Done():
			return
		}
	}
}

// Stop 停止定时扫描
func (s *BillingScheduler) Stop() {
	close(s.stopChan)
}

func (s *BillingScheduler) runOnce(ctx context.Context) {
	if !s.acquireLock(ctx) {
		return
	}
	defer s.releaseLock(ctx)

	created, err := s.chargeService.MaterializeRecurringCharges(ctx, time.Now())
	if err != nil {
		logger.Logger.Error("周期账单物化失败", zap.Error(err))
		return
	}
	if created > 0 {
		logger.Logger.Info("周期账单物化完成", zap.Int("created", created))
	}
}

func (s *BillingScheduler) acquireLock(ctx context.Context) bool {
	if database.RDB == nil {
		return true
	}
	ok, err := database.RDB.SetNX(ctx, billingLockKey, "1", billingLockTTL).Result()
	if err != nil {
		logger.Logger.Warn("获取账单调度锁失败", zap.Error(err))
		return false
	}
	return ok
}

func (s *BillingScheduler) releaseLock(ctx context.Context) {
	if database.RDB == nil {
		return
	}
	database.RDB.Del(ctx, billingLockKey)
}

func scanInterval() time.Duration {
	if config.Cfg != nil && config.Cfg.Billing.ScanInterval > 0 {
		return config.Cfg.Billing.ScanInterval
	}
	return time.Hour
}

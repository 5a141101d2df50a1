package service

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"github.com/werejoel/tenancy-core/config"
	"github.com/werejoel/tenancy-core/internal/database"
	"github.com/werejoel/tenancy-core/internal/logger"
	"github.com/werejoel/tenancy-core/internal/models"
	"github.com/werejoel/tenancy-core/internal/mq"
	"github.com/werejoel/tenancy-core/internal/utils"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// 收款入账总数
	paymentsRecordedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "payments_recorded_total",
		Help: "成功入账的收款总数",
	})

	// 分配版本冲突次数
	allocationConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "allocation_conflicts_total",
		Help: "收款分配时检测到的账单版本冲突次数",
	})

	// 未分配余额累计
	unallocatedSurplusTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "unallocated_surplus_total",
		Help: "收款中未能分配到任何账单的金额累计",
	})
)

// RecordPaymentRequest 收款入账请求
type RecordPaymentRequest struct {
	TenantID    int64           `json:"tenantId" binding:"required"`
	HouseID     int64           `json:"houseId" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	PaymentDate string          `json:"paymentDate"` // 2006-01-02，为空取当天
	PeriodStart string          `json:"periodStart"`
	PeriodEnd   string          `json:"periodEnd"`
	Method      string          `json:"method"`
	Reference   string          `json:"reference"` // 外部流水号，用于幂等
	Notes       string          `json:"notes"`
	ChargeIDs   []int64         `json:"chargeIds"` // 候选账单，为空时取租客全部未结清账单
	CreatorID   *int64          `json:"-"`
}

// RecordPaymentResponse 收款入账响应
type RecordPaymentResponse struct {
	Payment     *models.Payment        `json:"payment"`
	Allocations []models.PaymentCharge `json:"allocations"`
	Unallocated decimal.Decimal        `json:"unallocated"`
}

// PaymentService 收款服务
// 负责收款入账：校验、幂等控制、事务内分配、冲突重试、事件发布
type PaymentService struct {
	allocationService *AllocationService
	chargeService     *ChargeService
	cacheService      *CacheService
	notifyService     *ReceiptNotifyService
}

// NewPaymentService 创建收款服务
func NewPaymentService() *PaymentService {
	return &PaymentService{
		allocationService: NewAllocationService(),
		chargeService:     NewChargeService(),
		cacheService:      NewCacheService(),
		notifyService:     NewReceiptNotifyService(),
	}
}

// RecordPayment 收款入账（主入口）
//
// 收款、分配记录和账单更新在同一事务内提交，任何失败整体回滚。
// 账单版本冲突时回滚并从新读取重试，重试次数有限。
func (s *PaymentService) RecordPayment(ctx context.Context, req *RecordPaymentRequest) (*RecordPaymentResponse, *AllocationError) {
	// 1. 基础验证
	if !req.Amount.GreaterThan(decimal.Zero) {
		return nil, ErrPaymentAmountInvalid
	}

	tenant, aerr := s.validateTenant(ctx, req.TenantID)
	if aerr != nil {
		return nil, aerr
	}

	paymentDate, aerr := parsePaymentDate(req.PaymentDate)
	if aerr != nil {
		return nil, aerr
	}

	// 2. 外部流水号幂等控制（Redis SetNX）
	// 同一笔收款录入两次是调用方错误，这里在入口处拦截
	if aerr := s.guardReference(ctx, req.Reference); aerr != nil {
		return nil, aerr
	}

	// 3. 事务内分配，版本冲突时整体重试
	maxRetry := allocateMaxRetry()
	var resp *RecordPaymentResponse
	var lastErr *AllocationError

	for attempt := 0; attempt < maxRetry; attempt++ {
		resp, lastErr = s.recordOnce(ctx, req, paymentDate)
		if lastErr == nil {
			break
		}
		if lastErr.Code != ErrCodeConcurrencyConflict {
			s.releaseReference(ctx, req.Reference)
			return nil, lastErr
		}

		allocationConflictsTotal.Inc()
		logger.Logger.Warn("收款分配版本冲突，重试",
			zap.Int64("tenant_id", req.TenantID),
			zap.Int("attempt", attempt+1))
	}
	if lastErr != nil {
		s.releaseReference(ctx, req.Reference)
		return nil, lastErr
	}

	// 4. 入账成功：指标、事件、收据通知
	paymentsRecordedTotal.Inc()
	if resp.Unallocated.GreaterThan(decimal.Zero) {
		surplus, _ := resp.Unallocated.Float64()
		unallocatedSurplusTotal.Add(surplus)
		logger.Logger.Info("收款存在未分配余额",
			zap.String("payment_id", resp.Payment.ID),
			zap.String("unallocated", resp.Unallocated.String()))
	}

	s.publishEvents(ctx, tenant.ID, resp)
	s.notifyService.EnqueueReceipt(ctx, resp.Payment, tenant)

	return resp, nil
}

// recordOnce 单次入账尝试：一个事务覆盖收款写入、候选读取、分配、账单更新
func (s *PaymentService) recordOnce(ctx context.Context, req *RecordPaymentRequest, paymentDate time.Time) (*RecordPaymentResponse, *AllocationError) {
	now := time.Now()

	payment := &models.Payment{
		ID:             utils.GeneratePaymentID(),
		ReceiptNo:      utils.GenerateReceiptNo(),
		TenantID:       req.TenantID,
		HouseID:        req.HouseID,
		AmountPaid:     req.Amount,
		Unallocated:    decimal.Zero,
		PaymentDate:    paymentDate,
		Method:         req.Method,
		Reference:      req.Reference,
		Notes:          req.Notes,
		CreatorID:      req.CreatorID,
		CreateDatetime: &now,
	}
	if start, err := parseOptionalDate(req.PeriodStart); err == nil && start != nil {
		payment.PeriodStart = start
	}
	if end, err := parseOptionalDate(req.PeriodEnd); err == nil && end != nil {
		payment.PeriodEnd = end
	}

	var result *AllocationResult

	err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(payment).Error; err != nil {
			return NewAllocationError(ErrCodePersistenceFailure, fmt.Sprintf("写入收款记录失败: %v", err))
		}

		candidateIDs := req.ChargeIDs
		if len(candidateIDs) == 0 {
			var ids []int64
			if err := tx.Model(&models.Charge{}).
				Where("tenant_id = ? AND amount_paid < amount", req.TenantID).
				Order("due_date ASC, id ASC").
				Pluck("id", &ids).Error; err != nil {
				return NewAllocationError(ErrCodePersistenceFailure, fmt.Sprintf("查询未结清账单失败: %v", err))
			}
			candidateIDs = ids
		}

		var aerr *AllocationError
		result, aerr = s.allocationService.Allocate(ctx, tx, payment, candidateIDs)
		if aerr != nil {
			return aerr
		}

		// 未分配余额记在收款行上，不挂到任何账单
		if err := tx.Model(&models.Payment{}).
			Where("id = ?", payment.ID).
			Update("unallocated", result.Remaining).Error; err != nil {
			return NewAllocationError(ErrCodePersistenceFailure, fmt.Sprintf("更新未分配余额失败: %v", err))
		}

		return nil
	})
	if err != nil {
		if aerr, ok := err.(*AllocationError); ok {
			return nil, aerr
		}
		return nil, NewAllocationError(ErrCodePersistenceFailure, fmt.Sprintf("收款事务失败: %v", err))
	}

	payment.Unallocated = result.Remaining
	return &RecordPaymentResponse{
		Payment:     payment,
		Allocations: result.Allocations,
		Unallocated: result.Remaining,
	}, nil
}

// validateTenant 验证租客
func (s *PaymentService) validateTenant(ctx context.Context, tenantID int64) (*models.Tenant, *AllocationError) {
	tenant, err := s.cacheService.GetTenant(ctx, tenantID)
	if err != nil {
		return nil, ErrTenantNotFound
	}
	if !tenant.Status {
		return nil, ErrTenantDisabled
	}
	return tenant, nil
}

// guardReference 外部流水号幂等控制
func (s *PaymentService) guardReference(ctx context.Context, reference string) *AllocationError {
	if reference == "" || database.RDB == nil {
		return nil
	}

	key := fmt.Sprintf("payment:reference:%s", reference)
	ok, err := database.RDB.SetNX(ctx, key, "1", 24*time.Hour).Result()
	if err != nil {
		return ErrSystemBusy
	}
	if !ok {
		return ErrReferenceExists
	}
	return nil
}

// releaseReference 入账失败时释放幂等键，允许调用方重新提交
func (s *PaymentService) releaseReference(ctx context.Context, reference string) {
	if reference == "" || database.RDB == nil {
		return
	}
	database.RDB.Del(ctx, fmt.Sprintf("payment:reference:%s", reference))
}

// publishEvents 发布收款入账与账单结清事件
func (s *PaymentService) publishEvents(ctx context.Context, tenantID int64, resp *RecordPaymentResponse) {
	mq.PublishPaymentRecorded(ctx, &mq.PaymentRecordedEvent{
		PaymentID:   resp.Payment.ID,
		ReceiptNo:   resp.Payment.ReceiptNo,
		TenantID:    tenantID,
		HouseID:     resp.Payment.HouseID,
		Amount:      resp.Payment.AmountPaid.String(),
		Allocated:   resp.Payment.AmountPaid.Sub(resp.Unallocated).String(),
		Unallocated: resp.Unallocated.String(),
	})

	for i := range resp.Allocations {
		var charge models.Charge
		if err := database.DB.WithContext(ctx).First(&charge, resp.Allocations[i].ChargeID).Error; err != nil {
			continue
		}
		if charge.Status == models.ChargeStatusPaid {
			mq.PublishChargeSettled(ctx, &mq.ChargeSettledEvent{
				ChargeID:  charge.ID,
				TenantID:  tenantID,
				PaymentID: resp.Payment.ID,
			})
		}
	}
}

// GetPaymentByReceiptNo 根据收据号获取收款记录
func (s *PaymentService) GetPaymentByReceiptNo(ctx context.Context, receiptNo string) (*models.Payment, error) {
	var payment models.Payment
	err := database.DB.WithContext(ctx).
		Preload("Allocations").
		Where("receipt_no = ?", receiptNo).
		First(&payment).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("收款记录不存在")
		}
		return nil, fmt.Errorf("查询收款记录失败: %w", err)
	}
	return &payment, nil
}

// ListPayments 查询租客的收款记录
func (s *PaymentService) ListPayments(ctx context.Context, tenantID int64) ([]models.Payment, error) {
	var payments []models.Payment
	query := database.DB.WithContext(ctx).Preload("Allocations")
	if tenantID > 0 {
		query = query.Where("tenant_id = ?", tenantID)
	}
	if err := query.Order("payment_date DESC, id DESC").Find(&payments).Error; err != nil {
		return nil, fmt.Errorf("查询收款记录失败: %w", err)
	}
	return payments, nil
}

// allocateMaxRetry 分配冲突最大重试次数
func allocateMaxRetry() int {
	if config.Cfg != nil && config.Cfg.Payment.AllocateMaxRetry > 0 {
		return config.Cfg.Payment.AllocateMaxRetry
	}
	return 3
}

// parsePaymentDate 解析收款日期，为空取当天
func parsePaymentDate(s string) (time.Time, *AllocationError) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, NewAllocationError(ErrCodePaymentAmountInvalid, fmt.Sprintf("收款日期格式错误: %s", s))
	}
	return t, nil
}

// parseOptionalDate 解析可选日期
func parseOptionalDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

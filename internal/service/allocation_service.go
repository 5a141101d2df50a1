package service

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/werejoel/tenancy-core/internal/models"
	"gorm.io/gorm"
)

// AllocationResult 分配结果
// Remaining 为扣完所有可分配账单后剩余的未分配金额，大于0不是错误
type AllocationResult struct {
	Allocations    []models.PaymentCharge `json:"allocations"`
	TotalAllocated decimal.Decimal        `json:"total_allocated"`
	Remaining      decimal.Decimal        `json:"remaining"`
}

// AllocationService 收款分配服务
// 将一笔收款按到期日先后顺序分配到租客的未结清账单上
type AllocationService struct{}

// NewAllocationService 创建收款分配服务
func NewAllocationService() *AllocationService {
	return &AllocationService{}
}

// Allocate 在调用方事务内执行收款分配
//
// 候选账单中只有满足以下条件的才参与分配：账单存在、归属与收款相同的租客、
// 未收金额大于0；不满足的候选静默排除，不视为错误。
// 参与分配的账单按到期日升序处理，同日按账单ID升序，与调用方传入顺序无关。
//
// 同一笔收款重复分配不会被本方法拦截，由调用方保证一笔收款只分配一次。
// 账单写入采用版本号比较，版本不匹配返回 ErrConcurrencyConflict，
// 调用方应回滚事务并从新读取重试。
func (s *AllocationService) Allocate(ctx context.Context, tx *gorm.DB, payment *models.Payment, candidateChargeIDs []int64) (*AllocationResult, *AllocationError) {
	if !payment.AmountPaid.GreaterThan(decimal.Zero) {
		return nil, ErrPaymentAmountInvalid
	}

	result := &AllocationResult{
		Allocations:    []models.PaymentCharge{},
		TotalAllocated: decimal.Zero,
		Remaining:      payment.AmountPaid,
	}

	if len(candidateChargeIDs) == 0 {
		return result, nil
	}

	// 资格过滤在查询内完成：存在、同租客；排序固定为到期日升序、ID升序，
	// 保证分配结果与调用方传入顺序无关
	var charges []models.Charge
	if err := tx.WithContext(ctx).
		Where("id IN ? AND tenant_id = ?", candidateChargeIDs, payment.TenantID).
		Order("due_date ASC, id ASC").
		Find(&charges).Error; err != nil {
		return nil, NewAllocationError(ErrCodePersistenceFailure, fmt.Sprintf("查询候选账单失败: %v", err))
	}

	now := time.Now()
	remaining := payment.AmountPaid

	for i := range charges {
		if !remaining.GreaterThan(decimal.Zero) {
			break
		}

		charge := &charges[i]
		outstanding := charge.Outstanding()
		if !outstanding.GreaterThan(decimal.Zero) {
			// 已结清的账单静默排除
			continue
		}

		allocation := decimal.Min(remaining, outstanding)
		newPaid := charge.AmountPaid.Add(allocation)
		newStatus := models.ChargeStatusOf(charge.Amount, newPaid)

		// 版本号比较写入，检测并发修改
		res := tx.WithContext(ctx).Model(&models.Charge{}).
			Where("id = ? AND ver = ?", charge.ID, charge.Ver).
			Updates(map[string]interface{}{
				"amount_paid":     newPaid,
				"status":          newStatus,
				"ver":             charge.Ver + 1,
				"update_datetime": &now,
			})
		if res.Error != nil {
			return nil, NewAllocationError(ErrCodePersistenceFailure, fmt.Sprintf("更新账单失败: %v", res.Error))
		}
		if res.RowsAffected == 0 {
			return nil, ErrConcurrencyConflict
		}

		pc := models.PaymentCharge{
			PaymentID:      payment.ID,
			ChargeID:       charge.ID,
			AmountPaid:     allocation,
			CreateDatetime: &now,
		}
		if err := tx.WithContext(ctx).Create(&pc).Error; err != nil {
			return nil, NewAllocationError(ErrCodePersistenceFailure, fmt.Sprintf("写入分配记录失败: %v", err))
		}

		charge.AmountPaid = newPaid
		charge.Status = newStatus
		charge.Ver++

		result.Allocations = append(result.Allocations, pc)
		result.TotalAllocated = result.TotalAllocated.Add(allocation)
		remaining = remaining.Sub(allocation)
	}

	result.Remaining = remaining
	return result, nil
}

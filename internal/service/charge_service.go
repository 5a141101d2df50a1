package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/werejoel/tenancy-core/internal/database"
	"github.com/werejoel/tenancy-core/internal/logger"
	"github.com/werejoel/tenancy-core/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// ChargeService 账单服务
type ChargeService struct{}

// NewChargeService 创建账单服务
func NewChargeService() *ChargeService {
	return &ChargeService{}
}

// CreateCharge 创建账单
// 新账单未收金额为0、状态未付、版本号从1开始
func (s *ChargeService) CreateCharge(ctx context.Context, charge *models.Charge) error {
	if !charge.Amount.GreaterThan(decimal.Zero) {
		return fmt.Errorf("账单金额必须大于0")
	}

	now := time.Now()
	charge.AmountPaid = decimal.Zero
	charge.Status = models.ChargeStatusUnpaid
	charge.Ver = 1
	charge.CreateDatetime = &now

	if err := database.DB.WithContext(ctx).Create(charge).Error; err != nil {
		return fmt.Errorf("创建账单失败: %w", err)
	}
	return nil
}

// GetCharge 获取账单
func (s *ChargeService) GetCharge(ctx context.Context, id int64) (*models.Charge, error) {
	var charge models.Charge
	err := database.DB.WithContext(ctx).First(&charge, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("账单不存在")
		}
		return nil, fmt.Errorf("查询账单失败: %w", err)
	}
	return &charge, nil
}

// FindEligibleCharges 查询租客的可分配账单
// 返回未结清的账单，按到期日升序、ID升序，与分配顺序一致
func (s *ChargeService) FindEligibleCharges(ctx context.Context, tenantID int64) ([]models.Charge, error) {
	var charges []models.Charge
	err := database.DB.WithContext(ctx).
		Where("tenant_id = ? AND amount_paid < amount", tenantID).
		Order("due_date ASC, id ASC").
		Find(&charges).Error
	if err != nil {
		return nil, fmt.Errorf("查询未结清账单失败: %w", err)
	}
	return charges, nil
}

// ListCharges 按条件查询账单
func (s *ChargeService) ListCharges(ctx context.Context, tenantID int64, status *int) ([]models.Charge, error) {
	query := database.DB.WithContext(ctx).Model(&models.Charge{})
	if tenantID > 0 {
		query = query.Where("tenant_id = ?", tenantID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var charges []models.Charge
	if err := query.Order("due_date DESC, id DESC").Find(&charges).Error; err != nil {
		return nil, fmt.Errorf("查询账单失败: %w", err)
	}
	return charges, nil
}

// TenantArrears 租客欠款汇总
type TenantArrears struct {
	TenantID    int64           `json:"tenant_id"`
	Billed      decimal.Decimal `json:"billed"`      // 累计应收
	Collected   decimal.Decimal `json:"collected"`   // 累计已收
	Outstanding decimal.Decimal `json:"outstanding"` // 累计未收
	OpenCharges int64           `json:"open_charges"`
}

// GetArrears 统计租客欠款
// 结果写入 Redis 短缓存，收款事件到达时由消费端失效
func (s *ChargeService) GetArrears(ctx context.Context, tenantID int64) (*TenantArrears, error) {
	cacheKey := fmt.Sprintf("tenant:arrears:%d", tenantID)
	if database.RDB != nil {
		if data, err := database.RDB.Get(ctx, cacheKey).Result(); err == nil {
			var cached TenantArrears
			if jsonErr := json.Unmarshal([]byte(data), &cached); jsonErr == nil {
				return &cached, nil
			}
		}
	}

	charges, err := s.ListCharges(ctx, tenantID, nil)
	if err != nil {
		return nil, err
	}

	arrears := &TenantArrears{
		TenantID:    tenantID,
		Billed:      decimal.Zero,
		Collected:   decimal.Zero,
		Outstanding: decimal.Zero,
	}
	for i := range charges {
		arrears.Billed = arrears.Billed.Add(charges[i].Amount)
		arrears.Collected = arrears.Collected.Add(charges[i].AmountPaid)
		if charges[i].Status != models.ChargeStatusPaid {
			arrears.Outstanding = arrears.Outstanding.Add(charges[i].Outstanding())
			arrears.OpenCharges++
		}
	}

	if database.RDB != nil {
		if data, err := json.Marshal(arrears); err == nil {
			database.RDB.Set(ctx, cacheKey, data, 5*time.Minute)
		}
	}
	return arrears, nil
}

// MaterializeRecurringCharges 将到期的周期账单物化为账单
// 每个周期账单在一个账期(YYYY-MM)内最多生成一张账单，返回本次生成数量
func (s *ChargeService) MaterializeRecurringCharges(ctx context.Context, now time.Time) (int, error) {
	period := now.Format("2006-01")

	var recurring []models.RecurringCharge
	err := database.DB.WithContext(ctx).
		Preload("Lease").
		Where("active = ? AND (last_period IS NULL OR last_period = '' OR last_period < ?)", true, period).
		Find(&recurring).Error
	if err != nil {
		return 0, fmt.Errorf("查询周期账单失败: %w", err)
	}

	created := 0
	for i := range recurring {
		rc := &recurring[i]
		if rc.Lease == nil || !rc.Lease.Active {
			continue
		}

		dueDay := rc.DueDay
		if dueDay < 1 || dueDay > 28 {
			dueDay = 1
		}
		dueDate := time.Date(now.Year(), now.Month(), dueDay, 0, 0, 0, 0, now.Location())

		err := database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			nowTS := time.Now()
			charge := models.Charge{
				TenantID:          rc.Lease.TenantID,
				HouseID:           rc.Lease.HouseID,
				Description:       fmt.Sprintf("%s %s", rc.Description, period),
				Amount:            rc.Amount,
				AmountPaid:        decimal.Zero,
				DueDate:           dueDate,
				Status:            models.ChargeStatusUnpaid,
				Ver:               1,
				RecurringChargeID: &rc.ID,
				CreateDatetime:    &nowTS,
			}
			if err := tx.Create(&charge).Error; err != nil {
				return fmt.Errorf("生成账单失败: %w", err)
			}

			// 账期推进与账单生成同事务，避免重复生成
			res := tx.Model(&models.RecurringCharge{}).
				Where("id = ? AND (last_period IS NULL OR last_period = '' OR last_period < ?)", rc.ID, period).
				Updates(map[string]interface{}{
					"last_period":     period,
					"update_datetime": &nowTS,
				})
			if res.Error != nil {
				return fmt.Errorf("更新账期失败: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				return fmt.Errorf("账期已被其他实例推进")
			}
			return nil
		})
		if err != nil {
			logger.Logger.Warn("物化周期账单失败",
				zap.Int64("recurring_charge_id", rc.ID),
				zap.String("period", period),
				zap.Error(err))
			continue
		}
		created++
	}

	return created, nil
}

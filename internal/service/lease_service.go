package service

import (
	"context"
	"fmt"
	"time"

	"github.com/werejoel/tenancy-core/config"
	"github.com/werejoel/tenancy-core/internal/database"
	"github.com/werejoel/tenancy-core/internal/models"
	"gorm.io/gorm"
)

// LeaseService 租约管理服务
type LeaseService struct {
	cacheService *CacheService
}

// NewLeaseService 创建租约服务
func NewLeaseService() *LeaseService {
	return &LeaseService{cacheService: NewCacheService()}
}

// CreateLease 签约
// 同一房屋同一时刻只能有一份生效租约，签约时同步建立月租周期账单规则
func (s *LeaseService) CreateLease(ctx context.Context, lease *models.Lease) error {
	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var tenant models.Tenant
		if err := tx.First(&tenant, lease.TenantID).Error; err != nil {
			return fmt.Errorf("租客不存在: %d", lease.TenantID)
		}
		if !tenant.Status {
			return fmt.Errorf("租客已停用: %d", lease.TenantID)
		}

		var house models.House
		if err := tx.First(&house, lease.HouseID).Error; err != nil {
			return fmt.Errorf("房屋不存在: %d", lease.HouseID)
		}

		var activeLeases int64
		if err := tx.Model(&models.Lease{}).
			Where("house_id = ? AND active = ?", lease.HouseID, true).
			Count(&activeLeases).Error; err != nil {
			return fmt.Errorf("检查租约失败: %w", err)
		}
		if activeLeases > 0 {
			return fmt.Errorf("房屋已有生效租约: %d", lease.HouseID)
		}

		now := time.Now()
		lease.Active = true
		lease.CreateDatetime = &now
		if lease.MonthlyRent.IsZero() {
			lease.MonthlyRent = house.MonthlyRent
		}
		if err := tx.Create(lease).Error; err != nil {
			return fmt.Errorf("创建租约失败: %w", err)
		}

		if err := tx.Model(&models.House{}).
			Where("id = ?", lease.HouseID).
			Updates(map[string]interface{}{"occupied": true, "update_datetime": &now}).Error; err != nil {
			return fmt.Errorf("更新房屋状态失败: %w", err)
		}

		rc := &models.RecurringCharge{
			LeaseID:        lease.ID,
			Amount:         lease.MonthlyRent,
			DueDay:         defaultDueDay(),
			Active:         true,
			CreateDatetime: &now,
		}
		if err := tx.Create(rc).Error; err != nil {
			return fmt.Errorf("创建周期账单规则失败: %w", err)
		}

		s.cacheService.InvalidateHouse(ctx, lease.HouseID)
		return nil
	})
}

// GetLease 获取租约详情
func (s *LeaseService) GetLease(ctx context.Context, id int64) (*models.Lease, error) {
	var lease models.Lease
	err := database.DB.WithContext(ctx).
		Preload("Tenant").
		Preload("House").
		First(&lease, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("租约不存在: %d", id)
		}
		return nil, fmt.Errorf("查询租约失败: %w", err)
	}
	return &lease, nil
}

// ListLeases 查询租约
func (s *LeaseService) ListLeases(ctx context.Context, tenantID int64, activeOnly bool) ([]models.Lease, error) {
	query := database.DB.WithContext(ctx).Preload("House").Order("id DESC")
	if tenantID > 0 {
		query = query.Where("tenant_id = ?", tenantID)
	}
	if activeOnly {
		query = query.Where("active = ?", true)
	}

	var leases []models.Lease
	if err := query.Find(&leases).Error; err != nil {
		return nil, fmt.Errorf("查询租约失败: %w", err)
	}
	return leases, nil
}

// TerminateLease 退租
// 关闭租约和对应的周期账单规则，释放房屋。已出的账单保留，欠款照常追
func (s *LeaseService) TerminateLease(ctx context.Context, id int64, endDate time.Time) error {
	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var lease models.Lease
		if err := tx.First(&lease, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("租约不存在: %d", id)
			}
			return fmt.Errorf("查询租约失败: %w", err)
		}
		if !lease.Active {
			return fmt.Errorf("租约已终止: %d", id)
		}

		now := time.Now()
		if err := tx.Model(&models.Lease{}).
			Where("id = ?", id).
			Updates(map[string]interface{}{
				"active":          false,
				"end_date":        &endDate,
				"update_datetime": &now,
			}).Error; err != nil {
			return fmt.Errorf("终止租约失败: %w", err)
		}

		if err := tx.Model(&models.RecurringCharge{}).
			Where("lease_id = ? AND active = ?", id, true).
			Updates(map[string]interface{}{"active": false, "update_datetime": &now}).Error; err != nil {
			return fmt.Errorf("关闭周期账单规则失败: %w", err)
		}

		if err := tx.Model(&models.House{}).
			Where("id = ?", lease.HouseID).
			Updates(map[string]interface{}{"occupied": false, "update_datetime": &now}).Error; err != nil {
			return fmt.Errorf("更新房屋状态失败: %w", err)
		}

		s.cacheService.InvalidateHouse(ctx, lease.HouseID)
		return nil
	})
}

func defaultDueDay() int {
	if config.Cfg != nil && config.Cfg.Billing.DefaultDueDay >= 1 && config.Cfg.Billing.DefaultDueDay <= 28 {
		return config.Cfg.Billing.DefaultDueDay
	}
	return 1
}

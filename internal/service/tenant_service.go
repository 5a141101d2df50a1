package service

import (
	"context"
	"fmt"
	"time"

	"github.com/werejoel/tenancy-core/internal/database"
	"github.com/werejoel/tenancy-core/internal/models"
	"gorm.io/gorm"
)

// TenantService 租客与房屋管理服务
type TenantService struct {
	cacheService *CacheService
}

// NewTenantService 创建租客服务
func NewTenantService() *TenantService {
	return &TenantService{cacheService: NewCacheService()}
}

// CreateTenant 新增租客
func (s *TenantService) CreateTenant(ctx context.Context, tenant *models.Tenant) error {
	now := time.Now()
	tenant.Status = true
	tenant.CreateDatetime = &now

	if err := database.DB.WithContext(ctx).Create(tenant).Error; err != nil {
		return fmt.Errorf("创建租客失败: %w", err)
	}
	return nil
}

// GetTenant 获取租客详情
func (s *TenantService) GetTenant(ctx context.Context, id int64) (*models.Tenant, error) {
	return s.cacheService.GetTenant(ctx, id)
}

// UpdateTenant 更新租客信息
func (s *TenantService) UpdateTenant(ctx context.Context, id int64, updates map[string]interface{}) error {
	now := time.Now()
	updates["update_datetime"] = &now

	result := database.DB.WithContext(ctx).
		Model(&models.Tenant{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("更新租客失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("租客不存在: %d", id)
	}

	s.cacheService.InvalidateTenant(ctx, id)
	return nil
}

// DisableTenant 停用租客，停用后不再接受收款
func (s *TenantService) DisableTenant(ctx context.Context, id int64) error {
	return s.UpdateTenant(ctx, id, map[string]interface{}{"status": false})
}

// ListTenants 分页查询租客
func (s *TenantService) ListTenants(ctx context.Context, page, pageSize int) ([]models.Tenant, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	var total int64
	if err := database.DB.WithContext(ctx).Model(&models.Tenant{}).Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("统计租客失败: %w", err)
	}

	var tenants []models.Tenant
	err := database.DB.WithContext(ctx).
		Order("id DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&tenants).Error
	if err != nil {
		return nil, 0, fmt.Errorf("查询租客失败: %w", err)
	}
	return tenants, total, nil
}

// CreateHouse 新增房屋
func (s *TenantService) CreateHouse(ctx context.Context, house *models.House) error {
	now := time.Now()
	house.CreateDatetime = &now

	if err := database.DB.WithContext(ctx).Create(house).Error; err != nil {
		return fmt.Errorf("创建房屋失败: %w", err)
	}
	return nil
}

// GetHouse 获取房屋详情
func (s *TenantService) GetHouse(ctx context.Context, id int64) (*models.House, error) {
	return s.cacheService.GetHouse(ctx, id)
}

// UpdateHouse 更新房屋信息
func (s *TenantService) UpdateHouse(ctx context.Context, id int64, updates map[string]interface{}) error {
	now := time.Now()
	updates["update_datetime"] = &now

	result := database.DB.WithContext(ctx).
		Model(&models.House{}).
		Where("id = ?", id).
		Updates(updates)
	if result.Error != nil {
		return fmt.Errorf("更新房屋失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("房屋不存在: %d", id)
	}

	s.cacheService.InvalidateHouse(ctx, id)
	return nil
}

// ListHouses 查询房屋，occupied 为空时不过滤
func (s *TenantService) ListHouses(ctx context.Context, occupied *bool) ([]models.House, error) {
	query := database.DB.WithContext(ctx).Order("code ASC")
	if occupied != nil {
		query = query.Where("occupied = ?", *occupied)
	}

	var houses []models.House
	if err := query.Find(&houses).Error; err != nil {
		return nil, fmt.Errorf("查询房屋失败: %w", err)
	}
	return houses, nil
}

// DeleteHouse 删除房屋，仍有生效租约的不允许删
func (s *TenantService) DeleteHouse(ctx context.Context, id int64) error {
	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var activeLeases int64
		if err := tx.Model(&models.Lease{}).
			Where("house_id = ? AND active = ?", id, true).
			Count(&activeLeases).Error; err != nil {
			return fmt.Errorf("检查租约失败: %w", err)
		}
		if activeLeases > 0 {
			return fmt.Errorf("房屋存在生效租约，不能删除: %d", id)
		}

		result := tx.Delete(&models.House{}, id)
		if result.Error != nil {
			return fmt.Errorf("删除房屋失败: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return fmt.Errorf("房屋不存在: %d", id)
		}

		s.cacheService.InvalidateHouse(ctx, id)
		return nil
	})
}

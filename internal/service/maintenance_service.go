package service

import (
	"context"
	"fmt"
	"time"

	"github.com/werejoel/tenancy-core/internal/database"
	"github.com/werejoel/tenancy-core/internal/models"
	"gorm.io/gorm"
)

// MaintenanceService 维修工单服务
type MaintenanceService struct{}

// NewMaintenanceService 创建维修工单服务
func NewMaintenanceService() *MaintenanceService {
	return &MaintenanceService{}
}

// CreateRequest 提交报修
func (s *MaintenanceService) CreateRequest(ctx context.Context, req *models.MaintenanceRequest) error {
	var tenant models.Tenant
	if err := database.DB.WithContext(ctx).First(&tenant, req.TenantID).Error; err != nil {
		return fmt.Errorf("租客不存在: %d", req.TenantID)
	}

	now := time.Now()
	req.Status = models.MaintenanceStatusOpen
	if req.ReportedAt.IsZero() {
		req.ReportedAt = now
	}
	req.CreateDatetime = &now

	if err := database.DB.WithContext(ctx).Create(req).Error; err != nil {
		return fmt.Errorf("创建工单失败: %w", err)
	}
	return nil
}

// GetRequest 获取工单详情
func (s *MaintenanceService) GetRequest(ctx context.Context, id int64) (*models.MaintenanceRequest, error) {
	var req models.MaintenanceRequest
	err := database.DB.WithContext(ctx).
		Preload("Tenant").
		Preload("House").
		First(&req, id).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("工单不存在: %d", id)
		}
		return nil, fmt.Errorf("查询工单失败: %w", err)
	}
	return &req, nil
}

// ListRequests 查询工单，status 为空时不过滤
func (s *MaintenanceService) ListRequests(ctx context.Context, houseID int64, status *int) ([]models.MaintenanceRequest, error) {
	query := database.DB.WithContext(ctx).Order("priority DESC, reported_at ASC")
	if houseID > 0 {
		query = query.Where("house_id = ?", houseID)
	}
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var requests []models.MaintenanceRequest
	if err := query.Find(&requests).Error; err != nil {
		return nil, fmt.Errorf("查询工单失败: %w", err)
	}
	return requests, nil
}

// UpdateStatus 推进工单状态
// 只允许按待处理、处理中、已完成、已关闭的顺序前进，已完成时记录完成时间
func (s *MaintenanceService) UpdateStatus(ctx context.Context, id int64, status int, remarks string) error {
	if status < models.MaintenanceStatusOpen || status > models.MaintenanceStatusClosed {
		return fmt.Errorf("无效的工单状态: %d", status)
	}

	return database.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var req models.MaintenanceRequest
		if err := tx.First(&req, id).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				return fmt.Errorf("工单不存在: %d", id)
			}
			return fmt.Errorf("查询工单失败: %w", err)
		}
		if status <= req.Status {
			return fmt.Errorf("工单状态不能回退: %d -> %d", req.Status, status)
		}

		now := time.Now()
		updates := map[string]interface{}{
			"status":          status,
			"update_datetime": &now,
		}
		if remarks != "" {
			updates["remarks"] = remarks
		}
		if status == models.MaintenanceStatusResolved {
			updates["resolved_at"] = &now
		}

		if err := tx.Model(&models.MaintenanceRequest{}).
			Where("id = ?", id).
			Updates(updates).Error; err != nil {
			return fmt.Errorf("更新工单失败: %w", err)
		}
		return nil
	})
}

package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/werejoel/tenancy-core/internal/database"
	"github.com/werejoel/tenancy-core/internal/logger"
	"github.com/werejoel/tenancy-core/internal/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	tenantCacheKeyFmt = "tenant:%d"
	houseCacheKeyFmt  = "house:%d"
	cacheTTL          = 10 * time.Minute
)

// CacheService 基础数据缓存服务
// 租客、房屋信息读多写少，走 Redis 旁路缓存，数据变更时由 MQ 消费端失效
type CacheService struct{}

// NewCacheService 创建缓存服务
func NewCacheService() *CacheService {
	return &CacheService{}
}

// GetTenant 获取租客信息（优先缓存）
func (s *CacheService) GetTenant(ctx context.Context, tenantID int64) (*models.Tenant, error) {
	key := fmt.Sprintf(tenantCacheKeyFmt, tenantID)

	if database.RDB != nil {
		data, err := database.RDB.Get(ctx, key).Result()
		if err == nil {
			var tenant models.Tenant
			if jsonErr := json.Unmarshal([]byte(data), &tenant); jsonErr == nil {
				return &tenant, nil
			}
			// 缓存内容损坏，删掉回源
			database.RDB.Del(ctx, key)
		} else if err != redis.Nil {
			logger.Logger.Warn("读取租客缓存失败", zap.Int64("tenant_id", tenantID), zap.Error(err))
		}
	}

	var tenant models.Tenant
	if err := database.DB.WithContext(ctx).First(&tenant, tenantID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("租客不存在: %d", tenantID)
		}
		return nil, fmt.Errorf("查询租客失败: %w", err)
	}

	s.setCache(ctx, key, &tenant)
	return &tenant, nil
}

// GetHouse 获取房屋信息（优先缓存）
func (s *CacheService) GetHouse(ctx context.Context, houseID int64) (*models.House, error) {
	key := fmt.Sprintf(houseCacheKeyFmt, houseID)

	if database.RDB != nil {
		data, err := database.RDB.Get(ctx, key).Result()
		if err == nil {
			var house models.House
			if jsonErr := json.Unmarshal([]byte(data), &house); jsonErr == nil {
				return &house, nil
			}
			database.RDB.Del(ctx, key)
		} else if err != redis.Nil {
			logger.Logger.Warn("读取房屋缓存失败", zap.Int64("house_id", houseID), zap.Error(err))
		}
	}

	var house models.House
	if err := database.DB.WithContext(ctx).First(&house, houseID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, fmt.Errorf("房屋不存在: %d", houseID)
		}
		return nil, fmt.Errorf("查询房屋失败: %w", err)
	}

	s.setCache(ctx, key, &house)
	return &house, nil
}

// InvalidateTenant 失效租客缓存（含欠款缓存）
func (s *CacheService) InvalidateTenant(ctx context.Context, tenantID int64) {
	if database.RDB == nil {
		return
	}
	database.RDB.Del(ctx,
		fmt.Sprintf(tenantCacheKeyFmt, tenantID),
		fmt.Sprintf("tenant:arrears:%d", tenantID))
}

// InvalidateHouse 失效房屋缓存
func (s *CacheService) InvalidateHouse(ctx context.Context, houseID int64) {
	if database.RDB == nil {
		return
	}
	database.RDB.Del(ctx, fmt.Sprintf(houseCacheKeyFmt, houseID))
}

func (s *CacheService) setCache(ctx context.Context, key string, value interface{}) {
	if database.RDB == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := database.RDB.Set(ctx, key, data, cacheTTL).Err(); err != nil {
		logger.Logger.Warn("写入缓存失败", zap.String("key", key), zap.Error(err))
	}
}

package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/werejoel/tenancy-core/internal/models"
)

// 证件号未登记的租客可以有多个，登记过的证件号不能重复
func TestCreateTenantNationalID(t *testing.T) {
	db := setupTestDB(t)

	svc := NewTenantService()
	ctx := context.Background()

	// 两个都没有证件号，互不冲突
	require.NoError(t, svc.CreateTenant(ctx, &models.Tenant{Name: "无证件一"}))
	require.NoError(t, svc.CreateTenant(ctx, &models.Tenant{Name: "无证件二"}))

	id := "NIN-330100-0001"
	require.NoError(t, svc.CreateTenant(ctx, &models.Tenant{Name: "有证件", NationalID: &id}))

	// 相同证件号拒绝
	dup := "NIN-330100-0001"
	err := svc.CreateTenant(ctx, &models.Tenant{Name: "重复证件", NationalID: &dup})
	require.Error(t, err)

	var count int64
	require.NoError(t, db.Model(&models.Tenant{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

// 停用状态直接写入不会被建表默认值覆盖
func TestTenantStatusPersisted(t *testing.T) {
	db := setupTestDB(t)

	disabled := &models.Tenant{Name: "导入停用租客", Status: false}
	require.NoError(t, db.Create(disabled).Error)

	var saved models.Tenant
	require.NoError(t, db.First(&saved, disabled.ID).Error)
	assert.False(t, saved.Status)
}

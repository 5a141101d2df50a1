package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/werejoel/tenancy-core/internal/models"
)

// 签约同时建立月租周期账单规则并占用房屋
func TestCreateLease(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "签约租客")
	house := mustCreateHouse(t, db, "L001")

	svc := NewLeaseService()
	lease := &models.Lease{
		TenantID:  tenant.ID,
		HouseID:   house.ID,
		StartDate: day(0),
		Deposit:   decimal.NewFromInt(2000),
	}
	require.NoError(t, svc.CreateLease(context.Background(), lease))

	// 未指定月租时取房屋挂牌租金
	assert.True(t, lease.MonthlyRent.Equal(house.MonthlyRent))

	var savedHouse models.House
	require.NoError(t, db.First(&savedHouse, house.ID).Error)
	assert.True(t, savedHouse.Occupied)

	var rc models.RecurringCharge
	require.NoError(t, db.Where("lease_id = ?", lease.ID).First(&rc).Error)
	assert.True(t, rc.Active)
	assert.True(t, rc.Amount.Equal(lease.MonthlyRent))
}

// 同一房屋不允许并存两份生效租约
func TestCreateLeaseHouseOccupied(t *testing.T) {
	db := setupTestDB(t)
	tenant1 := mustCreateTenant(t, db, "租客一")
	tenant2 := mustCreateTenant(t, db, "租客二")
	house := mustCreateHouse(t, db, "L002")

	svc := NewLeaseService()
	require.NoError(t, svc.CreateLease(context.Background(), &models.Lease{
		TenantID:  tenant1.ID,
		HouseID:   house.ID,
		StartDate: day(0),
	}))

	err := svc.CreateLease(context.Background(), &models.Lease{
		TenantID:  tenant2.ID,
		HouseID:   house.ID,
		StartDate: day(0),
	})
	require.Error(t, err)
}

// 停用的租客不能签约
func TestCreateLeaseDisabledTenant(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "停用签约")
	house := mustCreateHouse(t, db, "L003")

	require.NoError(t, db.Model(&models.Tenant{}).
		Where("id = ?", tenant.ID).
		Update("status", false).Error)

	svc := NewLeaseService()
	err := svc.CreateLease(context.Background(), &models.Lease{
		TenantID:  tenant.ID,
		HouseID:   house.ID,
		StartDate: day(0),
	})
	require.Error(t, err)
}

// 退租关闭租约和周期账单规则，释放房屋，已出的账单保留
func TestTerminateLease(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "退租流程")
	house := mustCreateHouse(t, db, "L004")

	svc := NewLeaseService()
	lease := &models.Lease{
		TenantID:  tenant.ID,
		HouseID:   house.ID,
		StartDate: day(-90),
	}
	require.NoError(t, svc.CreateLease(context.Background(), lease))

	outstanding := mustCreateCharge(t, db, tenant.ID, house.ID, "1000.00", day(-30))

	require.NoError(t, svc.TerminateLease(context.Background(), lease.ID, day(0)))

	var savedLease models.Lease
	require.NoError(t, db.First(&savedLease, lease.ID).Error)
	assert.False(t, savedLease.Active)
	require.NotNil(t, savedLease.EndDate)

	var rc models.RecurringCharge
	require.NoError(t, db.Where("lease_id = ?", lease.ID).First(&rc).Error)
	assert.False(t, rc.Active)

	var savedHouse models.House
	require.NoError(t, db.First(&savedHouse, house.ID).Error)
	assert.False(t, savedHouse.Occupied)

	// 欠款账单不受退租影响
	var charge models.Charge
	require.NoError(t, db.First(&charge, outstanding.ID).Error)
	assert.Equal(t, models.ChargeStatusUnpaid, charge.Status)

	// 已终止的租约不能再次终止
	require.Error(t, svc.TerminateLease(context.Background(), lease.ID, day(1)))
}

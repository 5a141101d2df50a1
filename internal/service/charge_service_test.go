package service

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/werejoel/tenancy-core/internal/models"
)

func TestCreateChargeDefaults(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "开单租客")
	house := mustCreateHouse(t, db, "C001")

	svc := NewChargeService()
	charge := &models.Charge{
		TenantID: tenant.ID,
		HouseID:  house.ID,
		Amount:   decimal.RequireFromString("500.00"),
		DueDate:  day(10),
	}
	require.NoError(t, svc.CreateCharge(context.Background(), charge))

	var saved models.Charge
	require.NoError(t, db.First(&saved, charge.ID).Error)
	assert.Equal(t, models.ChargeStatusUnpaid, saved.Status)
	assert.True(t, saved.AmountPaid.IsZero())
	assert.Equal(t, int64(1), saved.Ver)
}

// 未结清账单按到期日升序、同日按ID升序返回
func TestFindEligibleChargesOrdering(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "排序租客")
	house := mustCreateHouse(t, db, "C002")

	late := mustCreateCharge(t, db, tenant.ID, house.ID, "10.00", day(20))
	early := mustCreateCharge(t, db, tenant.ID, house.ID, "10.00", day(1))
	sameDayA := mustCreateCharge(t, db, tenant.ID, house.ID, "10.00", day(5))
	sameDayB := mustCreateCharge(t, db, tenant.ID, house.ID, "10.00", day(5))

	// 已结清的不返回
	settled := mustCreateCharge(t, db, tenant.ID, house.ID, "10.00", day(2))
	settled.AmountPaid = settled.Amount
	settled.Status = models.ChargeStatusPaid
	require.NoError(t, db.Save(settled).Error)

	svc := NewChargeService()
	charges, err := svc.FindEligibleCharges(context.Background(), tenant.ID)
	require.NoError(t, err)

	require.Len(t, charges, 4)
	assert.Equal(t, early.ID, charges[0].ID)
	assert.Equal(t, sameDayA.ID, charges[1].ID)
	assert.Equal(t, sameDayB.ID, charges[2].ID)
	assert.Equal(t, late.ID, charges[3].ID)
}

func TestGetArrears(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "欠款租客")
	house := mustCreateHouse(t, db, "C003")

	c1 := mustCreateCharge(t, db, tenant.ID, house.ID, "100.00", day(0))
	c1.AmountPaid = decimal.RequireFromString("40.00")
	c1.Status = models.ChargeStatusPartial
	require.NoError(t, db.Save(c1).Error)

	mustCreateCharge(t, db, tenant.ID, house.ID, "200.00", day(10))

	c3 := mustCreateCharge(t, db, tenant.ID, house.ID, "50.00", day(-10))
	c3.AmountPaid = c3.Amount
	c3.Status = models.ChargeStatusPaid
	require.NoError(t, db.Save(c3).Error)

	svc := NewChargeService()
	arrears, err := svc.GetArrears(context.Background(), tenant.ID)
	require.NoError(t, err)

	assert.Equal(t, "350", arrears.Billed.String())
	assert.Equal(t, "90", arrears.Collected.String())
	assert.Equal(t, "260", arrears.Outstanding.String())
	assert.Equal(t, int64(2), arrears.OpenCharges)
}

// 周期账单每个账期只生成一张
func TestMaterializeRecurringChargesOncePerPeriod(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "周期租客")
	house := mustCreateHouse(t, db, "C004")

	lease := &models.Lease{
		TenantID:    tenant.ID,
		HouseID:     house.ID,
		StartDate:   day(-60),
		MonthlyRent: decimal.NewFromInt(1200),
		Active:      true,
	}
	require.NoError(t, db.Create(lease).Error)

	rc := &models.RecurringCharge{
		LeaseID:     lease.ID,
		Description: "月租",
		Amount:      decimal.NewFromInt(1200),
		DueDay:      5,
		Active:      true,
	}
	require.NoError(t, db.Create(rc).Error)

	svc := NewChargeService()
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	created, err := svc.MaterializeRecurringCharges(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 1, created)

	// 同账期再跑一轮不会重复生成
	created, err = svc.MaterializeRecurringCharges(context.Background(), now)
	require.NoError(t, err)
	assert.Equal(t, 0, created)

	var charges []models.Charge
	require.NoError(t, db.Where("recurring_charge_id = ?", rc.ID).Find(&charges).Error)
	require.Len(t, charges, 1)
	assert.Equal(t, 5, charges[0].DueDate.Day())
	assert.True(t, charges[0].Amount.Equal(rc.Amount))

	// 下一个账期照常生成
	nextMonth := now.AddDate(0, 1, 0)
	created, err = svc.MaterializeRecurringCharges(context.Background(), nextMonth)
	require.NoError(t, err)
	assert.Equal(t, 1, created)
}

// 租约终止后周期账单不再生成
func TestMaterializeSkipsInactiveLease(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "退租租客")
	house := mustCreateHouse(t, db, "C005")

	lease := &models.Lease{
		TenantID:    tenant.ID,
		HouseID:     house.ID,
		StartDate:   day(-60),
		MonthlyRent: decimal.NewFromInt(900),
		Active:      false,
	}
	require.NoError(t, db.Create(lease).Error)

	// 退租状态落库后仍是 false
	var saved models.Lease
	require.NoError(t, db.First(&saved, lease.ID).Error)
	require.False(t, saved.Active)

	rc := &models.RecurringCharge{
		LeaseID: lease.ID,
		Amount:  decimal.NewFromInt(900),
		DueDay:  1,
		Active:  true,
	}
	require.NoError(t, db.Create(rc).Error)

	svc := NewChargeService()
	created, err := svc.MaterializeRecurringCharges(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, 0, created)
}

func TestChargeStatusOf(t *testing.T) {
	amount := decimal.RequireFromString("100.00")

	assert.Equal(t, models.ChargeStatusUnpaid, models.ChargeStatusOf(amount, decimal.Zero))
	assert.Equal(t, models.ChargeStatusPartial, models.ChargeStatusOf(amount, decimal.RequireFromString("0.01")))
	assert.Equal(t, models.ChargeStatusPartial, models.ChargeStatusOf(amount, decimal.RequireFromString("99.99")))
	assert.Equal(t, models.ChargeStatusPaid, models.ChargeStatusOf(amount, amount))
	assert.Equal(t, models.ChargeStatusPaid, models.ChargeStatusOf(amount, decimal.RequireFromString("100.01")))
}

package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/werejoel/tenancy-core/internal/models"
)

// 收款入账全流程：建收款、自动取未结清账单、分配、落未分配余额
func TestRecordPaymentEndToEnd(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "入账租客")
	house := mustCreateHouse(t, db, "P001")

	c1 := mustCreateCharge(t, db, tenant.ID, house.ID, "300.00", day(0))
	c2 := mustCreateCharge(t, db, tenant.ID, house.ID, "300.00", day(30))

	svc := NewPaymentService()
	resp, aerr := svc.RecordPayment(context.Background(), &RecordPaymentRequest{
		TenantID:    tenant.ID,
		HouseID:     house.ID,
		Amount:      decimal.RequireFromString("450.00"),
		PaymentDate: "2026-08-15",
		Method:      models.PaymentMethodMobile,
	})
	require.Nil(t, aerr)

	require.Len(t, resp.Allocations, 2)
	assert.Equal(t, c1.ID, resp.Allocations[0].ChargeID)
	assert.Equal(t, "300", resp.Allocations[0].AmountPaid.String())
	assert.Equal(t, c2.ID, resp.Allocations[1].ChargeID)
	assert.Equal(t, "150", resp.Allocations[1].AmountPaid.String())
	assert.True(t, resp.Unallocated.IsZero())

	assert.NotEmpty(t, resp.Payment.ID)
	assert.NotEmpty(t, resp.Payment.ReceiptNo)

	var saved models.Payment
	require.NoError(t, db.Where("id = ?", resp.Payment.ID).First(&saved).Error)
	assert.True(t, saved.Unallocated.IsZero())

	var count int64
	require.NoError(t, db.Model(&models.PaymentCharge{}).
		Where("payment_id = ?", resp.Payment.ID).Count(&count).Error)
	assert.Equal(t, int64(2), count)
}

// 超额收款的余额落在收款行的未分配字段上
func TestRecordPaymentSurplusPersisted(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "余额租客")
	house := mustCreateHouse(t, db, "P002")

	mustCreateCharge(t, db, tenant.ID, house.ID, "100.00", day(0))

	svc := NewPaymentService()
	resp, aerr := svc.RecordPayment(context.Background(), &RecordPaymentRequest{
		TenantID: tenant.ID,
		HouseID:  house.ID,
		Amount:   decimal.RequireFromString("180.00"),
	})
	require.Nil(t, aerr)

	assert.Equal(t, "80", resp.Unallocated.String())

	var saved models.Payment
	require.NoError(t, db.Where("id = ?", resp.Payment.ID).First(&saved).Error)
	assert.Equal(t, "80", saved.Unallocated.String())
}

// 指定候选账单时只在候选内分配
func TestRecordPaymentWithExplicitCandidates(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "指定租客")
	house := mustCreateHouse(t, db, "P003")

	older := mustCreateCharge(t, db, tenant.ID, house.ID, "100.00", day(0))
	newer := mustCreateCharge(t, db, tenant.ID, house.ID, "100.00", day(30))

	svc := NewPaymentService()
	resp, aerr := svc.RecordPayment(context.Background(), &RecordPaymentRequest{
		TenantID:  tenant.ID,
		HouseID:   house.ID,
		Amount:    decimal.RequireFromString("100.00"),
		ChargeIDs: []int64{newer.ID},
	})
	require.Nil(t, aerr)

	require.Len(t, resp.Allocations, 1)
	assert.Equal(t, newer.ID, resp.Allocations[0].ChargeID)

	var untouched models.Charge
	require.NoError(t, db.First(&untouched, older.ID).Error)
	assert.True(t, untouched.AmountPaid.IsZero())
}

func TestRecordPaymentValidation(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "校验租客")
	house := mustCreateHouse(t, db, "P004")

	svc := NewPaymentService()

	// 金额不大于0
	_, aerr := svc.RecordPayment(context.Background(), &RecordPaymentRequest{
		TenantID: tenant.ID,
		HouseID:  house.ID,
		Amount:   decimal.Zero,
	})
	require.NotNil(t, aerr)
	assert.Equal(t, ErrCodePaymentAmountInvalid, aerr.Code)

	// 租客不存在
	_, aerr = svc.RecordPayment(context.Background(), &RecordPaymentRequest{
		TenantID: 99999,
		HouseID:  house.ID,
		Amount:   decimal.NewFromInt(100),
	})
	require.NotNil(t, aerr)
	assert.Equal(t, ErrCodeTenantNotFound, aerr.Code)

	// 租客已停用
	disabled := mustCreateTenant(t, db, "停用租客")
	require.NoError(t, db.Model(&models.Tenant{}).
		Where("id = ?", disabled.ID).
		Update("status", false).Error)
	_, aerr = svc.RecordPayment(context.Background(), &RecordPaymentRequest{
		TenantID: disabled.ID,
		HouseID:  house.ID,
		Amount:   decimal.NewFromInt(100),
	})
	require.NotNil(t, aerr)
	assert.Equal(t, ErrCodeTenantDisabled, aerr.Code)
}

// 两笔收款先后到账时账单状态和已收金额按顺序累计
func TestRecordPaymentSequential(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "连续租客")
	house := mustCreateHouse(t, db, "P005")

	c1 := mustCreateCharge(t, db, tenant.ID, house.ID, "100.00", day(0))

	svc := NewPaymentService()

	resp1, aerr := svc.RecordPayment(context.Background(), &RecordPaymentRequest{
		TenantID:  tenant.ID,
		HouseID:   house.ID,
		Amount:    decimal.RequireFromString("60.00"),
		Reference: "seq-1",
	})
	require.Nil(t, aerr)
	assert.True(t, resp1.Unallocated.IsZero())

	resp2, aerr := svc.RecordPayment(context.Background(), &RecordPaymentRequest{
		TenantID:  tenant.ID,
		HouseID:   house.ID,
		Amount:    decimal.RequireFromString("60.00"),
		Reference: "seq-2",
	})
	require.Nil(t, aerr)
	assert.Equal(t, "20", resp2.Unallocated.String())

	var charge models.Charge
	require.NoError(t, db.First(&charge, c1.ID).Error)
	assert.Equal(t, models.ChargeStatusPaid, charge.Status)
	assert.True(t, charge.AmountPaid.Equal(charge.Amount))
	// 两次分配各推进一次版本号
	assert.Equal(t, int64(3), charge.Ver)
}

// 分配途中版本冲突时整体回滚重试，重试成功后账单已收金额不超额
func TestRecordPaymentRetriesOnConflict(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "重试租客")
	house := mustCreateHouse(t, db, "P007")

	c1 := mustCreateCharge(t, db, tenant.ID, house.ID, "50.00", day(0))

	// 第一次分配在读取和写入之间遭遇版本推进，第二次重试成功
	bumpChargeVersionOnce(t, db)

	svc := NewPaymentService()
	resp1, aerr := svc.RecordPayment(context.Background(), &RecordPaymentRequest{
		TenantID: tenant.ID,
		HouseID:  house.ID,
		Amount:   decimal.RequireFromString("40.00"),
	})
	require.Nil(t, aerr)
	assert.True(t, resp1.Unallocated.IsZero())

	resp2, aerr := svc.RecordPayment(context.Background(), &RecordPaymentRequest{
		TenantID: tenant.ID,
		HouseID:  house.ID,
		Amount:   decimal.RequireFromString("40.00"),
	})
	require.Nil(t, aerr)
	assert.Equal(t, "30", resp2.Unallocated.String())

	// 两笔收款合计只能落账50，不能超过账单金额
	var charge models.Charge
	require.NoError(t, db.First(&charge, c1.ID).Error)
	assert.Equal(t, "50", charge.AmountPaid.String())
	assert.Equal(t, models.ChargeStatusPaid, charge.Status)

	var total decimal.Decimal
	var allocations []models.PaymentCharge
	require.NoError(t, db.Where("charge_id = ?", c1.ID).Find(&allocations).Error)
	for _, a := range allocations {
		total = total.Add(a.AmountPaid)
	}
	assert.Equal(t, "50", total.String())
}

func TestGetPaymentByReceiptNo(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "查询租客")
	house := mustCreateHouse(t, db, "P006")

	mustCreateCharge(t, db, tenant.ID, house.ID, "100.00", day(0))

	svc := NewPaymentService()
	resp, aerr := svc.RecordPayment(context.Background(), &RecordPaymentRequest{
		TenantID: tenant.ID,
		HouseID:  house.ID,
		Amount:   decimal.NewFromInt(100),
	})
	require.Nil(t, aerr)

	found, err := svc.GetPaymentByReceiptNo(context.Background(), resp.Payment.ReceiptNo)
	require.NoError(t, err)
	assert.Equal(t, resp.Payment.ID, found.ID)
	assert.Len(t, found.Allocations, 1)

	_, err = svc.GetPaymentByReceiptNo(context.Background(), "RCP-NOT-EXIST")
	require.Error(t, err)
}

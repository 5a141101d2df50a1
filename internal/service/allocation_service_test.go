package service

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/werejoel/tenancy-core/internal/models"
	"gorm.io/gorm"
)

func newTestPayment(tenantID, houseID int64, amount string) *models.Payment {
	return &models.Payment{
		ID:          "test-payment-" + amount,
		ReceiptNo:   "RCP-TEST-" + amount,
		TenantID:    tenantID,
		HouseID:     houseID,
		AmountPaid:  decimal.RequireFromString(amount),
		Unallocated: decimal.Zero,
		PaymentDate: day(0),
	}
}

// 一笔收款按到期日先后顺序覆盖多张账单，最早的先结清
func TestAllocateOldestFirst(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "张三")
	house := mustCreateHouse(t, db, "H001")

	c1 := mustCreateCharge(t, db, tenant.ID, house.ID, "100.00", day(0))
	c2 := mustCreateCharge(t, db, tenant.ID, house.ID, "100.00", day(30))

	payment := newTestPayment(tenant.ID, house.ID, "150.00")
	require.NoError(t, db.Create(payment).Error)

	svc := NewAllocationService()
	var result *AllocationResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var aerr *AllocationError
		result, aerr = svc.Allocate(context.Background(), tx, payment, []int64{c2.ID, c1.ID})
		if aerr != nil {
			return aerr
		}
		return nil
	})
	require.NoError(t, err)

	require.Len(t, result.Allocations, 2)
	// 候选顺序是 c2,c1，但分配必须按到期日先后
	assert.Equal(t, c1.ID, result.Allocations[0].ChargeID)
	assert.Equal(t, "100", result.Allocations[0].AmountPaid.String())
	assert.Equal(t, c2.ID, result.Allocations[1].ChargeID)
	assert.Equal(t, "50", result.Allocations[1].AmountPaid.String())
	assert.True(t, result.Remaining.IsZero())

	var charge1, charge2 models.Charge
	require.NoError(t, db.First(&charge1, c1.ID).Error)
	require.NoError(t, db.First(&charge2, c2.ID).Error)
	assert.Equal(t, models.ChargeStatusPaid, charge1.Status)
	assert.Equal(t, models.ChargeStatusPartial, charge2.Status)
	assert.Equal(t, int64(2), charge1.Ver)
}

// 收款金额不足一张账单时部分抵扣
func TestAllocatePartial(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "李四")
	house := mustCreateHouse(t, db, "H002")

	c1 := mustCreateCharge(t, db, tenant.ID, house.ID, "200.00", day(0))

	payment := newTestPayment(tenant.ID, house.ID, "80.00")
	require.NoError(t, db.Create(payment).Error)

	svc := NewAllocationService()
	var result *AllocationResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var aerr *AllocationError
		result, aerr = svc.Allocate(context.Background(), tx, payment, []int64{c1.ID})
		if aerr != nil {
			return aerr
		}
		return nil
	})
	require.NoError(t, err)

	require.Len(t, result.Allocations, 1)
	assert.Equal(t, "80", result.TotalAllocated.String())
	assert.True(t, result.Remaining.IsZero())

	var charge models.Charge
	require.NoError(t, db.First(&charge, c1.ID).Error)
	assert.Equal(t, models.ChargeStatusPartial, charge.Status)
	assert.Equal(t, "120", charge.Outstanding().String())
}

// 收款超过全部欠款时剩余金额保留在结果里，不报错
func TestAllocateSurplus(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "王五")
	house := mustCreateHouse(t, db, "H003")

	c1 := mustCreateCharge(t, db, tenant.ID, house.ID, "60.00", day(0))

	payment := newTestPayment(tenant.ID, house.ID, "100.00")
	require.NoError(t, db.Create(payment).Error)

	svc := NewAllocationService()
	var result *AllocationResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var aerr *AllocationError
		result, aerr = svc.Allocate(context.Background(), tx, payment, []int64{c1.ID})
		if aerr != nil {
			return aerr
		}
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, "60", result.TotalAllocated.String())
	assert.Equal(t, "40", result.Remaining.String())

	var charge models.Charge
	require.NoError(t, db.First(&charge, c1.ID).Error)
	assert.Equal(t, models.ChargeStatusPaid, charge.Status)
}

// 候选为空时全额保留为未分配
func TestAllocateNoCandidates(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "赵六")
	house := mustCreateHouse(t, db, "H004")

	payment := newTestPayment(tenant.ID, house.ID, "100.00")
	require.NoError(t, db.Create(payment).Error)

	svc := NewAllocationService()
	var result *AllocationResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var aerr *AllocationError
		result, aerr = svc.Allocate(context.Background(), tx, payment, nil)
		if aerr != nil {
			return aerr
		}
		return nil
	})
	require.NoError(t, err)

	assert.Empty(t, result.Allocations)
	assert.Equal(t, "100", result.Remaining.String())
}

// 其他租客的账单和已结清的账单静默排除
func TestAllocateSkipsIneligible(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "租客A")
	other := mustCreateTenant(t, db, "租客B")
	house := mustCreateHouse(t, db, "H005")

	mine := mustCreateCharge(t, db, tenant.ID, house.ID, "50.00", day(0))
	theirs := mustCreateCharge(t, db, other.ID, house.ID, "50.00", day(0))

	settled := mustCreateCharge(t, db, tenant.ID, house.ID, "30.00", day(-5))
	settled.AmountPaid = settled.Amount
	settled.Status = models.ChargeStatusPaid
	require.NoError(t, db.Save(settled).Error)

	payment := newTestPayment(tenant.ID, house.ID, "100.00")
	require.NoError(t, db.Create(payment).Error)

	svc := NewAllocationService()
	var result *AllocationResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var aerr *AllocationError
		result, aerr = svc.Allocate(context.Background(), tx, payment, []int64{mine.ID, theirs.ID, settled.ID, 99999})
		if aerr != nil {
			return aerr
		}
		return nil
	})
	require.NoError(t, err)

	require.Len(t, result.Allocations, 1)
	assert.Equal(t, mine.ID, result.Allocations[0].ChargeID)
	assert.Equal(t, "50", result.Remaining.String())

	// 别人的账单不受影响
	var untouched models.Charge
	require.NoError(t, db.First(&untouched, theirs.ID).Error)
	assert.True(t, untouched.AmountPaid.IsZero())
}

// 金额不大于0直接拒绝
func TestAllocateInvalidAmount(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "无效金额")
	house := mustCreateHouse(t, db, "H006")

	payment := newTestPayment(tenant.ID, house.ID, "0.00")

	svc := NewAllocationService()
	_, aerr := svc.Allocate(context.Background(), db, payment, nil)
	require.NotNil(t, aerr)
	assert.Equal(t, ErrCodePaymentAmountInvalid, aerr.Code)
}

// 账单版本被其他事务推进后返回冲突错误
func TestAllocateConcurrencyConflict(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "并发租客")
	house := mustCreateHouse(t, db, "H007")

	c1 := mustCreateCharge(t, db, tenant.ID, house.ID, "100.00", day(0))

	payment := newTestPayment(tenant.ID, house.ID, "100.00")
	require.NoError(t, db.Create(payment).Error)

	// 读取候选后、写入前，版本被另一笔收款推进
	bumpChargeVersionOnce(t, db)

	svc := NewAllocationService()
	aerr := func() *AllocationError {
		tx := db.Begin()
		defer tx.Rollback()

		_, aerr := svc.Allocate(context.Background(), tx, payment, []int64{c1.ID})
		return aerr
	}()

	require.NotNil(t, aerr)
	assert.Equal(t, ErrCodeConcurrencyConflict, aerr.Code)

	// 回滚后账单分毫未动
	var after models.Charge
	require.NoError(t, db.First(&after, c1.ID).Error)
	assert.True(t, after.AmountPaid.IsZero())
	assert.Equal(t, models.ChargeStatusUnpaid, after.Status)
}

// 分配金额守恒：分配总额加剩余等于收款金额
func TestAllocateConservation(t *testing.T) {
	db := setupTestDB(t)
	tenant := mustCreateTenant(t, db, "守恒租客")
	house := mustCreateHouse(t, db, "H008")

	ids := []int64{}
	amounts := []string{"33.33", "66.67", "10.50"}
	for i, a := range amounts {
		c := mustCreateCharge(t, db, tenant.ID, house.ID, a, day(i*10))
		ids = append(ids, c.ID)
	}

	payment := newTestPayment(tenant.ID, house.ID, "90.00")
	require.NoError(t, db.Create(payment).Error)

	svc := NewAllocationService()
	var result *AllocationResult
	err := db.Transaction(func(tx *gorm.DB) error {
		var aerr *AllocationError
		result, aerr = svc.Allocate(context.Background(), tx, payment, ids)
		if aerr != nil {
			return aerr
		}
		return nil
	})
	require.NoError(t, err)

	assert.True(t, result.TotalAllocated.Add(result.Remaining).Equal(payment.AmountPaid))

	// 每张账单的已收不超过应收
	for _, id := range ids {
		var charge models.Charge
		require.NoError(t, db.First(&charge, id).Error)
		assert.True(t, charge.AmountPaid.LessThanOrEqual(charge.Amount))
	}
}

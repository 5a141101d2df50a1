package service

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"github.com/werejoel/tenancy-core/internal/database"
	"github.com/werejoel/tenancy-core/internal/logger"
	"github.com/werejoel/tenancy-core/internal/models"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// setupTestDB 用内存 sqlite 替换全局数据库连接
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:?cache=shared"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.Tenant{},
		&models.House{},
		&models.Lease{},
		&models.Charge{},
		&models.RecurringCharge{},
		&models.Payment{},
		&models.PaymentCharge{},
		&models.MaintenanceRequest{},
		&models.ReceiptNotification{},
		&models.ReceiptNotificationHistory{},
		&models.SystemUser{},
		&models.Role{},
		&models.UserRole{},
		&models.UserClaim{},
	)
	require.NoError(t, err)

	// 测试里不依赖 Redis，相关路径自动降级
	origDB := database.DB
	database.DB = db
	if logger.Logger == nil {
		logger.Logger = zap.NewNop()
	}
	t.Cleanup(func() {
		database.DB = origDB
		sqlDB, err := db.DB()
		if err == nil {
			sqlDB.Close()
		}
	})

	return db
}

func mustCreateTenant(t *testing.T, db *gorm.DB, name string) *models.Tenant {
	t.Helper()
	tenant := &models.Tenant{Name: name, Status: true}
	require.NoError(t, db.Create(tenant).Error)
	return tenant
}

func mustCreateHouse(t *testing.T, db *gorm.DB, code string) *models.House {
	t.Helper()
	house := &models.House{
		Code:        code,
		Address:     "测试地址 " + code,
		MonthlyRent: decimal.NewFromInt(1000),
	}
	require.NoError(t, db.Create(house).Error)
	return house
}

func mustCreateCharge(t *testing.T, db *gorm.DB, tenantID, houseID int64, amount string, dueDate time.Time) *models.Charge {
	t.Helper()
	charge := &models.Charge{
		TenantID:   tenantID,
		HouseID:    houseID,
		Amount:     decimal.RequireFromString(amount),
		AmountPaid: decimal.Zero,
		DueDate:    dueDate,
		Status:     models.ChargeStatusUnpaid,
		Ver:        1,
	}
	require.NoError(t, db.Create(charge).Error)
	return charge
}

// bumpChargeVersionOnce 注册一个只触发一次的更新回调，在分配逻辑读取账单之后、
// 版本号比较写入之前把所有账单的版本推进一位，模拟另一笔收款同时落库
func bumpChargeVersionOnce(t *testing.T, db *gorm.DB) {
	t.Helper()

	const name = "test:bump_charge_version_once"
	fired := false
	err := db.Callback().Update().Before("gorm:update").Register(name, func(tx *gorm.DB) {
		if fired || tx.Statement.Table != (models.Charge{}).TableName() {
			return
		}
		fired = true
		// 同一连接上的原生 SQL，绕过回调避免递归
		tx.Session(&gorm.Session{NewDB: true}).
			Exec("UPDATE tms_charge SET ver = ver + 1")
	})
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Callback().Update().Remove(name)
	})
}

func day(offset int) time.Time {
	return time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, offset)
}

package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/werejoel/tenancy-core/config"
	"github.com/werejoel/tenancy-core/internal/database"
	"github.com/werejoel/tenancy-core/internal/logger"
	"github.com/werejoel/tenancy-core/internal/models"
	"github.com/werejoel/tenancy-core/internal/mq"
	"github.com/werejoel/tenancy-core/internal/router"
	"github.com/werejoel/tenancy-core/internal/service"
	"go.uber.org/zap"
)

func main() {
	// 加载配置，支持命令行指定配置文件
	configPath := ""
	if len(os.Args) > 1 {
		configPath = os.Args[1]
	}
	if err := config.Load(configPath); err != nil {
		fmt.Printf("加载配置失败: %v\n", err)
		os.Exit(1)
	}

	// 初始化日志
	if err := logger.InitLogger(); err != nil {
		fmt.Printf("初始化日志失败: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Logger.Info("服务启动中",
		zap.String("name", config.Cfg.App.Name),
		zap.String("version", config.Cfg.App.Version),
		zap.String("mode", config.Cfg.App.Mode))

	// 初始化数据库
	if err := database.InitMySQL(); err != nil {
		logger.Logger.Fatal("初始化数据库失败", zap.Error(err))
	}
	defer database.CloseMySQL()

	if err := database.DB.AutoMigrate(
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
	); err != nil {
		logger.Logger.Fatal("数据库迁移失败", zap.Error(err))
	}

	// 初始化 Redis，失败不阻塞启动，相关功能自动降级
	if err := database.InitRedis(); err != nil {
		logger.Logger.Warn("初始化 Redis 失败，缓存和分布式锁功能降级", zap.Error(err))
	} else {
		defer database.CloseRedis()
	}

	// 初始化消息队列
	mqClient := mq.GetGlobalMQClient()
	defer mqClient.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 消息消费者
	consumer, err := mq.NewRocketMQConsumer()
	if err != nil {
		logger.Logger.Warn("初始化消息消费者失败", zap.Error(err))
	} else if consumer != nil {
		defer consumer.Close()
	}

	// 周期账单调度器
	billingScheduler := service.NewBillingScheduler()
	go billingScheduler.Start(ctx)
	defer billingScheduler.Stop()

	// 收据通知重试服务
	notifyRetry := service.NewNotifyRetryService()
	go notifyRetry.Start(ctx)
	defer notifyRetry.Stop()

	// 启动 HTTP 服务
	engine := router.Setup()
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", config.Cfg.App.Port),
		Handler:      engine,
		ReadTimeout:  config.Cfg.App.ReadTimeout,
		WriteTimeout: config.Cfg.App.WriteTimeout,
	}

	go func() {
		logger.Logger.Info("HTTP 服务监听", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Logger.Fatal("HTTP 服务异常退出", zap.Error(err))
		}
	}()

	// 等待退出信号
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info("收到退出信号，开始优雅关闭")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Logger.Error("HTTP 服务关闭异常", zap.Error(err))
	}

	logger.Logger.Info("服务已退出")
}

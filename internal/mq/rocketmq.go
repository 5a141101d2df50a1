package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"sync"
	"time"

	rocketmq "github.com/apache/rocketmq-clients/golang/v5"
	"github.com/apache/rocketmq-clients/golang/v5/credentials"
	"github.com/werejoel/tenancy-core/config"
	"github.com/werejoel/tenancy-core/internal/logger"
	"go.uber.org/zap"
)

func init() {
	// SDK 日志默认走控制台并压低级别，避免污染业务日志
	os.Setenv("mq.consoleAppender.enabled", "true")
	if os.Getenv("rocketmq.client.logLevel") == "" {
		os.Setenv("rocketmq.client.logLevel", "WARN")
	}
	rocketmq.ResetLogger()
}

var (
	globalMQClient     *RocketMQClient
	globalMQClientInit sync.Once
)

// RocketMQClient RocketMQ 生产者封装
// 未启用或初始化失败时降级为禁用状态，调用方改走同步路径
type RocketMQClient struct {
	producer rocketmq.Producer
	enabled  bool
}

// GetGlobalMQClient 获取全局 RocketMQ 生产者实例（单例）
func GetGlobalMQClient() *RocketMQClient {
	globalMQClientInit.Do(func() {
		client, err := NewRocketMQClient()
		if err != nil {
			if logger.Logger != nil {
				logger.Logger.Warn("初始化全局 RocketMQ 客户端失败", zap.Error(err))
			}
			globalMQClient = &RocketMQClient{enabled: false}
		} else {
			globalMQClient = client
		}
	})
	return globalMQClient
}

// NewRocketMQClient 创建 RocketMQ 生产者
func NewRocketMQClient() (*RocketMQClient, error) {
	cfg := config.GetConfig()

	if cfg == nil || !cfg.RocketMQ.Enabled {
		if logger.Logger != nil {
			logger.Logger.Info("RocketMQ 未启用，事件将不会发布")
		}
		return &RocketMQClient{enabled: false}, nil
	}

	if cfg.RocketMQ.LogLevel != "" && os.Getenv("rocketmq.client.logLevel") != cfg.RocketMQ.LogLevel {
		os.Setenv("rocketmq.client.logLevel", cfg.RocketMQ.LogLevel)
		rocketmq.ResetLogger()
	}

	endpoint := fmt.Sprintf("%s:%d", cfg.RocketMQ.Endpoint, cfg.RocketMQ.Port)

	// SDK 要求 Credentials 非 nil，未配置 ACL 时传空值
	producerConfig := &rocketmq.Config{
		Endpoint: endpoint,
		Credentials: &credentials.SessionCredentials{
			AccessKey:    cfg.RocketMQ.AccessKey,
			AccessSecret: cfg.RocketMQ.AccessSecret,
		},
	}

	var opts []rocketmq.ProducerOption
	for _, topic := range cfg.RocketMQ.Topics {
		opts = append(opts, rocketmq.WithTopics(topic))
	}

	var producer rocketmq.Producer
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("创建 RocketMQ 生产者时发生 panic: %v", r)
			}
		}()
		producer, err = rocketmq.NewProducer(producerConfig, opts...)
	}()
	if err != nil {
		if logger.Logger != nil {
			logger.Logger.Warn("创建 RocketMQ 生产者失败，事件将不会发布",
				zap.String("endpoint", endpoint),
				zap.Error(err))
		}
		return &RocketMQClient{enabled: false}, nil
	}

	// 启动带超时，避免 broker 不可达时阻塞进程启动
	startErr := startWithTimeout(producer, 10*time.Second)
	if startErr != nil {
		if logger.Logger != nil {
			logger.Logger.Warn("启动 RocketMQ 生产者失败，事件将不会发布",
				zap.String("endpoint", endpoint),
				zap.Strings("topics", cfg.RocketMQ.Topics),
				zap.Error(startErr))
		}
		_ = producer.GracefulStop()
		return &RocketMQClient{enabled: false}, nil
	}

	if logger.Logger != nil {
		logger.Logger.Info("RocketMQ 生产者启动成功",
			zap.String("endpoint", endpoint),
			zap.Strings("topics", cfg.RocketMQ.Topics))
	}

	return &RocketMQClient{producer: producer, enabled: true}, nil
}

// startWithTimeout 带超时启动生产者
func startWithTimeout(producer rocketmq.Producer, timeout time.Duration) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("启动 RocketMQ 生产者时发生 panic: %v", r)
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- producer.Start()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return fmt.Errorf("启动 RocketMQ 生产者超时: %w", ctx.Err())
	}
}

// SendMessage 发送消息
func (c *RocketMQClient) SendMessage(ctx context.Context, topic, tag string, body interface{}) error {
	if !c.enabled {
		return fmt.Errorf("RocketMQ 未启用")
	}

	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("序列化消息失败: %w", err)
	}

	message := &rocketmq.Message{
		Topic: topic,
		Body:  bodyBytes,
	}
	if tag != "" {
		message.SetTag(tag)
	}

	if _, err = c.producer.Send(ctx, message); err != nil {
		return fmt.Errorf("发送消息失败: %w", err)
	}
	return nil
}

// Close 关闭生产者（带超时）
func (c *RocketMQClient) Close() error {
	if !c.enabled || c.producer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- c.producer.GracefulStop()
	}()

	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("关闭 RocketMQ 生产者失败: %w", err)
		}
	case <-ctx.Done():
		if logger.Logger != nil {
			logger.Logger.Warn("关闭 RocketMQ 生产者超时，强制退出")
		}
		return nil
	}

	if logger.Logger != nil {
		logger.Logger.Info("RocketMQ 生产者已关闭")
	}
	return nil
}

// IsEnabled 检查是否启用
func (c *RocketMQClient) IsEnabled() bool {
	return c.enabled
}

package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	rocketmq "github.com/apache/rocketmq-clients/golang/v5"
	"github.com/apache/rocketmq-clients/golang/v5/credentials"
	"github.com/werejoel/tenancy-core/config"
	"github.com/werejoel/tenancy-core/internal/database"
	"github.com/werejoel/tenancy-core/internal/logger"
	"go.uber.org/zap"
)

// RocketMQConsumer RocketMQ 消费者
// 订阅收款事件主题，事件到达时使对应租客的缓存失效
type RocketMQConsumer struct {
	consumer rocketmq.PushConsumer
	enabled  bool
}

// NewRocketMQConsumer 创建 RocketMQ 消费者
func NewRocketMQConsumer() (*RocketMQConsumer, error) {
	cfg := config.GetConfig()

	if cfg == nil || !cfg.RocketMQ.Enabled {
		if logger.Logger != nil {
			logger.Logger.Info("RocketMQ 未启用，消费者不会启动")
		}
		return &RocketMQConsumer{enabled: false}, nil
	}

	endpoint := fmt.Sprintf("%s:%d", cfg.RocketMQ.Endpoint, cfg.RocketMQ.Port)

	consumerConfig := &rocketmq.Config{
		Endpoint:      endpoint,
		ConsumerGroup: cfg.RocketMQ.ConsumerGroup,
		Credentials: &credentials.SessionCredentials{
			AccessKey:    cfg.RocketMQ.AccessKey,
			AccessSecret: cfg.RocketMQ.AccessSecret,
		},
	}

	listener := &rocketmq.FuncMessageListener{
		Consume: func(message *rocketmq.MessageView) rocketmq.ConsumerResult {
			ctx := context.Background()

			var err error
			switch message.GetTopic() {
			case TopicPaymentEvents:
				err = handlePaymentEventMessages(ctx, message)
			default:
				logger.Logger.Warn("未知的主题",
					zap.String("topic", message.GetTopic()),
					zap.String("message_id", message.GetMessageId()))
				return rocketmq.SUCCESS
			}

			if err != nil {
				logger.Logger.Error("处理消息失败",
					zap.String("topic", message.GetTopic()),
					zap.String("message_id", message.GetMessageId()),
					zap.Error(err))
				// 缓存失效是尽力而为的，不因失败无限重试
				return rocketmq.SUCCESS
			}
			return rocketmq.SUCCESS
		},
	}

	var consumer rocketmq.PushConsumer
	var err error
	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("创建 RocketMQ 消费者时发生 panic: %v", r)
			}
		}()
		consumer, err = rocketmq.NewPushConsumer(consumerConfig,
			rocketmq.WithPushSubscriptionExpressions(map[string]*rocketmq.FilterExpression{
				TopicPaymentEvents: rocketmq.SUB_ALL,
			}),
			rocketmq.WithPushMessageListener(listener),
		)
	}()
	if err != nil {
		if logger.Logger != nil {
			logger.Logger.Warn("创建 RocketMQ 消费者失败",
				zap.String("endpoint", endpoint),
				zap.Error(err))
		}
		return &RocketMQConsumer{enabled: false}, nil
	}

	startErr := func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("启动 RocketMQ 消费者时发生 panic: %v", r)
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		done := make(chan error, 1)
		go func() {
			done <- consumer.Start()
		}()

		select {
		case err := <-done:
			return err
		case <-ctx.Done():
			return fmt.Errorf("启动 RocketMQ 消费者超时: %w", ctx.Err())
		}
	}()
	if startErr != nil {
		if logger.Logger != nil {
			logger.Logger.Warn("启动 RocketMQ 消费者失败",
				zap.String("endpoint", endpoint),
				zap.String("consumer_group", cfg.RocketMQ.ConsumerGroup),
				zap.Error(startErr))
		}
		_ = consumer.GracefulStop()
		return &RocketMQConsumer{enabled: false}, nil
	}

	logger.Logger.Info("RocketMQ 消费者启动成功",
		zap.String("endpoint", endpoint),
		zap.String("consumer_group", cfg.RocketMQ.ConsumerGroup))

	return &RocketMQConsumer{consumer: consumer, enabled: true}, nil
}

// handlePaymentEventMessages 处理收款事件
// 收款入账或账单结清后，删除租客相关的缓存键，下一次读取回源数据库
func handlePaymentEventMessages(ctx context.Context, msg *rocketmq.MessageView) error {
	if database.RDB == nil {
		return nil
	}

	tag := msg.GetTag()
	if tag == nil {
		return nil
	}

	var tenantID int64
	switch *tag {
	case TagPaymentRecorded:
		var event PaymentRecordedEvent
		if err := json.Unmarshal(msg.GetBody(), &event); err != nil {
			return fmt.Errorf("解析收款入账事件失败: %w", err)
		}
		tenantID = event.TenantID
	case TagChargeSettled:
		var event ChargeSettledEvent
		if err := json.Unmarshal(msg.GetBody(), &event); err != nil {
			return fmt.Errorf("解析账单结清事件失败: %w", err)
		}
		tenantID = event.TenantID
	default:
		return nil
	}

	keys := []string{
		fmt.Sprintf("tenant:%d", tenantID),
		fmt.Sprintf("tenant:arrears:%d", tenantID),
	}
	if err := database.RDB.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("删除租客缓存失败: %w", err)
	}

	logger.Logger.Debug("租客缓存已失效",
		zap.Int64("tenant_id", tenantID),
		zap.String("message_id", msg.GetMessageId()))
	return nil
}

// Close 关闭消费者（带超时）
func (c *RocketMQConsumer) Close() error {
	if !c.enabled || c.consumer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- c.consumer.GracefulStop()
	}()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		if logger.Logger != nil {
			logger.Logger.Warn("关闭 RocketMQ 消费者超时，强制退出")
		}
		return nil
	}
}

// IsEnabled 检查是否启用
func (c *RocketMQConsumer) IsEnabled() bool {
	return c.enabled
}

package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

var Cfg *Config

// Config 应用配置结构
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Database DatabaseConfig `mapstructure:"database"`
	Redis    RedisConfig    `mapstructure:"redis"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Log      LogConfig      `mapstructure:"log"`
	RocketMQ RocketMQConfig `mapstructure:"rocketmq"`
	Billing  BillingConfig  `mapstructure:"billing"`
	Payment  PaymentConfig  `mapstructure:"payment"`
	Metrics  MetricsConfig  `mapstructure:"metrics"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name         string        `mapstructure:"name"`
	Version      string        `mapstructure:"version"`
	Mode         string        `mapstructure:"mode"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	User            string        `mapstructure:"user"`
	Password        string        `mapstructure:"password"`
	DBName          string        `mapstructure:"dbname"`
	Charset         string        `mapstructure:"charset"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	LogMode         bool          `mapstructure:"log_mode"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Host         string `mapstructure:"host"`
	Port         int    `mapstructure:"port"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	PoolSize     int    `mapstructure:"pool_size"`
	MinIdleConns int    `mapstructure:"min_idle_conns"`
}

// JWTConfig JWT 配置
type JWTConfig struct {
	Secret string `mapstructure:"secret"`
	Expire int    `mapstructure:"expire"`
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Format     string `mapstructure:"format"`
	Output     string `mapstructure:"output"`
	FilePath   string `mapstructure:"file_path"`
	MaxSize    int    `mapstructure:"max_size"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAge     int    `mapstructure:"max_age"`
	Compress   bool   `mapstructure:"compress"`
}

// RocketMQConfig RocketMQ 配置
type RocketMQConfig struct {
	Enabled       bool     `mapstructure:"enabled"`
	Endpoint      string   `mapstructure:"endpoint"`
	Port          int      `mapstructure:"port"`
	AccessKey     string   `mapstructure:"access_key"`
	AccessSecret  string   `mapstructure:"access_secret"`
	ProducerGroup string   `mapstructure:"producer_group"`
	ConsumerGroup string   `mapstructure:"consumer_group"`
	Topics        []string `mapstructure:"topics"`
	LogLevel      string   `mapstructure:"log_level"`
}

// BillingConfig 周期账单配置
type BillingConfig struct {
	ScanInterval  time.Duration `mapstructure:"scan_interval"`   // 周期账单扫描间隔
	DefaultDueDay int           `mapstructure:"default_due_day"` // 账单默认到期日（当月第几天）
}

// PaymentConfig 收款配置
type PaymentConfig struct {
	ReceiptPrefix    string `mapstructure:"receipt_prefix"`     // 收据号前缀
	AllocateMaxRetry int    `mapstructure:"allocate_max_retry"` // 分配冲突最大重试次数
}

// MetricsConfig 指标端点配置
type MetricsConfig struct {
	AllowCIDRs []string `mapstructure:"allow_cidrs"` // 允许访问 /metrics 的 CIDR 列表
}

// Load 加载配置文件
// 如果 configPath 为空，则根据环境变量 APP_ENV 自动选择配置文件
// APP_ENV 可选值: dev(默认), test, prod
func Load(configPath string) error {
	if configPath == "" {
		env := os.Getenv("APP_ENV")
		if env == "" {
			env = "dev"
		}

		switch env {
		case "prod", "production":
			configPath = "config/config.prod.yaml"
		case "test", "testing":
			configPath = "config/config.test.yaml"
		case "dev", "development", "":
			configPath = "config/config.yaml"
		default:
			configPath = fmt.Sprintf("config/config.%s.yaml", env)
		}
	}

	viper.SetConfigType("yaml")
	viper.SetConfigFile(configPath)

	// 设置默认值
	setDefaults()

	// 支持环境变量覆盖配置
	viper.SetEnvPrefix("APP")
	viper.AutomaticEnv()

	// 读取配置文件
	if err := viper.ReadInConfig(); err != nil {
		return fmt.Errorf("读取配置文件失败 [%s]: %w", configPath, err)
	}

	// 解析配置到结构体
	Cfg = &Config{}
	if err := viper.Unmarshal(Cfg); err != nil {
		return fmt.Errorf("解析配置文件失败: %w", err)
	}

	return nil
}

// GetConfig 获取全局配置
func GetConfig() *Config {
	return Cfg
}

// setDefaults 设置默认值
func setDefaults() {
	viper.SetDefault("app.name", "tenancy-core")
	viper.SetDefault("app.port", 8080)
	viper.SetDefault("app.mode", "release")
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.max_open_conns", 100)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("billing.scan_interval", "1h")
	viper.SetDefault("billing.default_due_day", 5)
	viper.SetDefault("payment.receipt_prefix", "RCP")
	viper.SetDefault("payment.allocate_max_retry", 3)
}

// GetDSN 获取数据库连接字符串
func (c *DatabaseConfig) GetDSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=%s&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName, c.Charset)
}

// GetAddr 获取 Redis 地址
func (c *RedisConfig) GetAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

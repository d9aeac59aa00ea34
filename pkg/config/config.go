package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config 全局配置
type Config struct {
	App         AppConfig         `mapstructure:"app"`
	Server      ServerConfig      `mapstructure:"server"`
	MySQL       MySQLConfig       `mapstructure:"mysql"`
	Redis       RedisConfig       `mapstructure:"redis"`
	Lmstfy      LmstfyConfig      `mapstructure:"lmstfy"`
	Sync        SyncConfig        `mapstructure:"sync"`
	Correlation CorrelationConfig `mapstructure:"correlation"`
	Refine      RefineConfig      `mapstructure:"refine"`
	Workers     []WorkerConfig    `mapstructure:"workers"`
}

// AppConfig 应用配置
type AppConfig struct {
	Name     string `mapstructure:"name"`
	Env      string `mapstructure:"env"`
	LogLevel string `mapstructure:"log_level"`
}

// ServerConfig API 服务配置
type ServerConfig struct {
	Port string `mapstructure:"port"`
	// ServiceToken 触发接口的 Bearer Token（会话体系由外部 CRM 负责）
	ServiceToken string `mapstructure:"service_token"`
}

// MySQLConfig MySQL 配置
type MySQLConfig struct {
	DSN         string `mapstructure:"dsn"`
	AutoMigrate bool   `mapstructure:"auto_migrate"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// LmstfyConfig Lmstfy 配置
type LmstfyConfig struct {
	Host      string `mapstructure:"host"`
	Port      int    `mapstructure:"port"`
	Namespace string `mapstructure:"namespace"`
	Token     string `mapstructure:"token"`
	Queue     string `mapstructure:"queue"`
}

// SyncConfig 同步编排配置
type SyncConfig struct {
	PageSize    int           `mapstructure:"page_size"`    // 订单平台分页大小
	HTTPTimeout time.Duration `mapstructure:"http_timeout"` // 平台请求超时
}

// CorrelationConfig 归因关联配置
type CorrelationConfig struct {
	// PreferTagging 首触点信号冲突时是否优先采信服务端埋点平台
	PreferTagging bool `mapstructure:"prefer_tagging"`
}

// RefineConfig AI 精炼配置
type RefineConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Region    string `mapstructure:"region"`
	ModelID   string `mapstructure:"model_id"`
	MaxTokens int    `mapstructure:"max_tokens"`
}

// WorkerConfig Worker 配置
type WorkerConfig struct {
	Name       string           `mapstructure:"name"`
	QueueName  string           `mapstructure:"queue_name"`
	Subscriber SubscriberConfig `mapstructure:"subscriber"`
	Processor  ProcessorConfig  `mapstructure:"processor"`
}

// SubscriberConfig Subscriber 配置
type SubscriberConfig struct {
	Threads      int           `mapstructure:"threads"`       // 并发拉取数
	Rate         time.Duration `mapstructure:"rate"`          // 拉取速率
	Timeout      time.Duration `mapstructure:"timeout"`       // 拉取超时
	TTR          time.Duration `mapstructure:"ttr"`           // Time-To-Run
	ErrorBackoff time.Duration `mapstructure:"error_backoff"` // 错误退避时间
}

// ProcessorConfig Processor 配置
type ProcessorConfig struct {
	Threads    int           `mapstructure:"threads"`     // 并发处理数
	BufferSize int           `mapstructure:"buffer_size"` // Channel 缓冲大小
	Timeout    time.Duration `mapstructure:"timeout"`     // 单个任务超时
}

// Load 加载配置文件
func Load(configPath string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(configPath)
	v.SetConfigType("yaml")

	// 布尔零值无法区分"未配置"与"显式 false"，冲突取舍默认采信埋点平台
	v.SetDefault("correlation.prefer_tagging", true)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config failed: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config failed: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// applyDefaults 填充默认值
func (c *Config) applyDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Sync.PageSize <= 0 {
		c.Sync.PageSize = 100
	}
	if c.Sync.HTTPTimeout <= 0 {
		c.Sync.HTTPTimeout = 30 * time.Second
	}
	if c.Refine.Region == "" {
		c.Refine.Region = "us-east-1"
	}
	if c.Refine.ModelID == "" {
		c.Refine.ModelID = "anthropic.claude-3-sonnet-20240229-v1:0"
	}
	if c.Refine.MaxTokens <= 0 {
		c.Refine.MaxTokens = 1024
	}
}

// Validate 验证配置
func (c *Config) Validate() error {
	if c.App.Name == "" {
		return fmt.Errorf("app.name is required")
	}
	if c.MySQL.DSN == "" {
		return fmt.Errorf("mysql.dsn is required")
	}
	if c.Redis.Addr == "" {
		return fmt.Errorf("redis.addr is required")
	}
	if c.Lmstfy.Host == "" {
		return fmt.Errorf("lmstfy.host is required")
	}
	if c.Lmstfy.Queue == "" {
		return fmt.Errorf("lmstfy.queue is required")
	}
	return nil
}

// ValidateServer 验证 API 服务侧配置
func (c *Config) ValidateServer() error {
	if err := c.Validate(); err != nil {
		return err
	}
	// 缺少令牌会导致认证中间件拒绝所有请求，启动时即报错
	if c.Server.ServiceToken == "" {
		return fmt.Errorf("server.service_token is required")
	}
	return nil
}

// ValidateWorker 验证 Worker 侧配置
func (c *Config) ValidateWorker() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if len(c.Workers) == 0 {
		return fmt.Errorf("at least one worker is required")
	}
	return nil
}

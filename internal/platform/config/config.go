package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config 结构体定义了应用程序的所有配置项
// 它与 config.yaml 文件的结构完全对应
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Osu      OsuConfig      `mapstructure:"osu"`
	Sync     SyncConfig     `mapstructure:"sync"`
}

// ServerConfig 定义了服务器相关的配置
type ServerConfig struct {
	Address string     `mapstructure:"address"`
	Cors    CorsConfig `mapstructure:"cors"`
}

// CorsConfig 定义了CORS相关的配置
type CorsConfig struct {
	AllowedOrigins []string `mapstructure:"allowedOrigins"`
}

// DatabaseConfig 定义了数据库和缓存相关的配置
type DatabaseConfig struct {
	Redis  RedisConfig  `mapstructure:"redis"`
	Sqlite SqliteConfig `mapstructure:"sqlite"`
}

// RedisConfig 定义了Redis的配置
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// SqliteConfig 定义了SQLite数据库文件的配置
type SqliteConfig struct {
	Path      string `mapstructure:"path"`
	BackupDir string `mapstructure:"backupDir"`
}

// OsuConfig 定义了访问osu! API所需的全部参数。
// 引擎的各个构造函数显式接收这个结构体，而不是读取任何全局状态。
type OsuConfig struct {
	// ClientID 和 ClientSecret 是OAuth客户端凭据。
	// ClientSecret 建议通过环境变量（OSU_CLIENTSECRET）注入，不要写入配置文件。
	ClientID     int    `mapstructure:"clientId"`
	ClientSecret string `mapstructure:"clientSecret"`

	// TokenURL 是客户端凭据交换的端点
	TokenURL string `mapstructure:"tokenUrl"`
	// APIBaseURL 是v2 API的基础地址
	APIBaseURL string `mapstructure:"apiBaseUrl"`

	// CooldownMs 是每次请求前强制等待的基础冷却时间（毫秒）。
	// 它同时充当对外请求的全局限速器。
	CooldownMs int `mapstructure:"cooldownMs"`
}

// Cooldown 返回冷却时间对应的 time.Duration。
func (c OsuConfig) Cooldown() time.Duration {
	return time.Duration(c.CooldownMs) * time.Millisecond
}

// SyncConfig 定义了后台同步调度器各流程的节奏
type SyncConfig struct {
	// IngestIntervalMinutes 是新成绩摄取的执行间隔
	IngestIntervalMinutes int `mapstructure:"ingestIntervalMinutes"`
	// UserRefreshIntervalMinutes 是用户数据刷新与名次重算的执行间隔
	UserRefreshIntervalMinutes int `mapstructure:"userRefreshIntervalMinutes"`
	// DedupIntervalHours 是去重流程的执行间隔
	DedupIntervalHours int `mapstructure:"dedupIntervalHours"`
	// FullRefreshIntervalHours 是全量刷新的执行间隔（0表示只允许手动触发）
	FullRefreshIntervalHours int `mapstructure:"fullRefreshIntervalHours"`
}

func (c SyncConfig) IngestInterval() time.Duration {
	return time.Duration(c.IngestIntervalMinutes) * time.Minute
}

func (c SyncConfig) UserRefreshInterval() time.Duration {
	return time.Duration(c.UserRefreshIntervalMinutes) * time.Minute
}

func (c SyncConfig) DedupInterval() time.Duration {
	return time.Duration(c.DedupIntervalHours) * time.Hour
}

func (c SyncConfig) FullRefreshInterval() time.Duration {
	return time.Duration(c.FullRefreshIntervalHours) * time.Hour
}

// LoadConfig 函数负责查找、加载和解析配置文件
// 它会在指定的路径中查找名为 config.yaml 的文件
func LoadConfig() (*Config, error) {
	v := viper.New()

	// 1. 设置配置文件名和类型
	v.SetConfigName("config")
	v.SetConfigType("yaml")

	// 2. 添加配置文件搜索路径
	v.AddConfigPath("./config")
	v.AddConfigPath(".")

	// 3. 设置环境变量支持
	// 允许通过环境变量覆盖配置，例如 OSU_CLIENTSECRET=xxx
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. 缺省值：官方API地址与默认节奏
	v.SetDefault("server.address", ":8080")
	v.SetDefault("database.sqlite.path", "tracker.db")
	v.SetDefault("database.sqlite.backupDir", "backups")
	v.SetDefault("osu.tokenUrl", "https://osu.ppy.sh/oauth/token")
	v.SetDefault("osu.apiBaseUrl", "https://osu.ppy.sh/api/v2")
	v.SetDefault("osu.cooldownMs", 1000)
	v.SetDefault("sync.ingestIntervalMinutes", 30)
	v.SetDefault("sync.userRefreshIntervalMinutes", 60)
	v.SetDefault("sync.dedupIntervalHours", 24)
	v.SetDefault("sync.fullRefreshIntervalHours", 0)

	// 5. 读取配置文件
	if err := v.ReadInConfig(); err != nil {
		return nil, err
	}

	// 6. 将配置反序列化到结构体中
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.Osu.ClientID == 0 || cfg.Osu.ClientSecret == "" {
		return nil, fmt.Errorf("osu API客户端凭据缺失，请检查配置或环境变量")
	}

	return &cfg, nil
}

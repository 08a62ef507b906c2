package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gorm.io/gorm"
)

// Config 全局配置结构体（完全匹配config.yaml）
type Config struct {
	Server     ServerConfig            `mapstructure:"server"`     // 服务器配置
	Postgres   PostgresConfig          `mapstructure:"postgres"`   // PostgreSQL配置
	Ingest     IngestConfig            `mapstructure:"ingest"`     // 入库调度配置
	Aggregator AggregatorConfig        `mapstructure:"aggregator"` // 聚合快照配置
	Overlay    OverlayConfig           `mapstructure:"overlay"`    // 地图图层配置
	Sources    map[string]SourceConfig `mapstructure:"sources"`    // 多数据源独立配置
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Port int    `mapstructure:"port"` // 服务端口
	Mode string `mapstructure:"mode"` // Gin运行模式：debug/release/test
}

// PostgresConfig PostgreSQL数据库配置
type PostgresConfig struct {
	DSN             string        `mapstructure:"dsn"`               // 连接DSN
	MaxOpenConns    int           `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"` // 连接最大存活时间
}

// IngestConfig 入库调度配置
type IngestConfig struct {
	DefaultDays       int  `mapstructure:"default_days"`       // 默认拉取天数
	SyntheticFallback bool `mapstructure:"synthetic_fallback"` // 全部数据源为空时是否生成合成数据兜底
}

// AggregatorConfig 聚合快照配置
type AggregatorConfig struct {
	SnapshotTTL time.Duration `mapstructure:"snapshot_ttl"` // 快照缓存有效期（默认60s）
}

// OverlayConfig 地图图层配置（GB地理边界）
type OverlayConfig struct {
	BoundsNorth float64 `mapstructure:"bounds_north"` // 北界（苏格兰北部）
	BoundsSouth float64 `mapstructure:"bounds_south"` // 南界（海峡群岛）
	BoundsEast  float64 `mapstructure:"bounds_east"`  // 东界
	BoundsWest  float64 `mapstructure:"bounds_west"`  // 西界
}

// SourceConfig 单个数据源的独立配置
type SourceConfig struct {
	BaseURL       string `mapstructure:"base_url"`       // API基础地址
	Timeout       int    `mapstructure:"timeout"`        // 请求超时（秒）
	RetryCount    int    `mapstructure:"retry_count"`    // 重试次数
	RateLimitMs   int    `mapstructure:"rate_limit_ms"`  // 两次请求间的限速间隔（毫秒）
	CacheTTL      int    `mapstructure:"cache_ttl"`      // 响应缓存有效期（秒），按数据源更新节奏设置
	APIKey        string `mapstructure:"api_key"`        // 可选API Key（Octopus等）
	Proxy         string `mapstructure:"proxy"`          // 代理地址
	AgileProduct  string `mapstructure:"agile_product"`  // Octopus Agile产品代码
	DefaultRegion string `mapstructure:"default_region"` // Octopus默认DNO区域（A-P）
}

// LoadConfig 加载配置文件（config/config.yaml），敏感项从 .env 覆盖（不提交 git）
func LoadConfig() (*Config, error) {
	// 1. 加载 .env（若存在），env 中的值会覆盖 config.yaml 中同名字段
	_ = godotenv.Load() // 忽略错误（.env 可不存在）

	// 2. 读取 config.yaml
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("./config")
	if err := viper.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置文件失败: %w", err)
	}

	viper.SetTypeByDefaultValue(true)
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("解析配置文件失败: %w", err)
	}

	// 3. 敏感字段：用 env 覆盖（优先级 env > yaml）
	overrideFromEnv(&cfg)
	applyDefaults(&cfg)
	return &cfg, nil
}

// overrideFromEnv 用环境变量覆盖敏感配置
func overrideFromEnv(cfg *Config) {
	if o, ok := cfg.Sources["octopus"]; ok {
		if v := os.Getenv("OCTOPUS_API_KEY"); v != "" {
			o.APIKey = v
		}
		cfg.Sources["octopus"] = o
	}
	if v := os.Getenv("GRID_SOURCE_PROXY"); v != "" {
		for name, s := range cfg.Sources {
			s.Proxy = v
			cfg.Sources[name] = s
		}
	}
	if v := os.Getenv("POSTGRES_DSN"); v != "" {
		cfg.Postgres.DSN = v
	}
}

// applyDefaults 未配置项兜底默认值
func applyDefaults(cfg *Config) {
	if cfg.Aggregator.SnapshotTTL <= 0 {
		cfg.Aggregator.SnapshotTTL = 60 * time.Second
	}
	if cfg.Ingest.DefaultDays <= 0 {
		cfg.Ingest.DefaultDays = 1
	}
	// GB默认边界：北苏格兰到海峡群岛
	if cfg.Overlay.BoundsNorth == 0 && cfg.Overlay.BoundsSouth == 0 {
		cfg.Overlay.BoundsNorth = 60.0
		cfg.Overlay.BoundsSouth = 49.5
		cfg.Overlay.BoundsEast = 2.0
		cfg.Overlay.BoundsWest = -8.0
	}
}

// GetGORMConfig 获取数据库配置（适配GORM）
func (p *PostgresConfig) GetGORMConfig() gorm.Config {
	return gorm.Config{} // 可扩展：添加日志、命名策略等
}

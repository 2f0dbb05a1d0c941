package config

import (
	"log"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Governance GovernanceConfig `mapstructure:"governance"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Tracking   TrackingConfig   `mapstructure:"tracking"`
	Metrics    MetricsConfig    `mapstructure:"metrics"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type AuthConfig struct {
	// AdminKey 保护所有会改状态的接口 (register / approve)
	AdminKey string `mapstructure:"admin_key"`
}

// GovernanceConfig 治理产物的落盘位置。
// 账本 NDJSON 是权威存储，其余 (Postgres/Redis) 只是镜像。
type GovernanceConfig struct {
	Dir          string `mapstructure:"dir"`
	AuditLogPath string `mapstructure:"audit_log_path"`
	RulesPath    string `mapstructure:"rules_path"`
	RegistryDir  string `mapstructure:"registry_dir"`
	CardsDir     string `mapstructure:"cards_dir"`
	ReportsDir   string `mapstructure:"reports_dir"`
	ArtifactsDir string `mapstructure:"artifacts_dir"` // train/test metrics JSON from the pipeline
}

type DatabaseConfig struct {
	DSN                string `mapstructure:"dsn"`
	AuditRetentionDays int    `mapstructure:"audit_retention_days"`
}

type RedisConfig struct {
	Addr         string `mapstructure:"addr"`
	Password     string `mapstructure:"password"`
	DB           int    `mapstructure:"db"`
	AuditListKey string `mapstructure:"audit_list_key"`
	AuditListMax int    `mapstructure:"audit_list_max"`
}

// TrackingConfig 实验跟踪系统 (MLflow file store) 的交叉引用配置。
// 全部 best-effort：目录不存在不算错误。
type TrackingConfig struct {
	MLRunsDir string `mapstructure:"mlruns_dir"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// Environment variables support
	// e.g. GOVGATE_GOVERNANCE_DIR, GOVGATE_DATABASE_DSN
	viper.SetEnvPrefix("govgate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults. 每个键都要有默认值，AutomaticEnv 只对已知键生效
	viper.SetDefault("server.port", "8090")
	viper.SetDefault("auth.admin_key", "")
	viper.SetDefault("governance.dir", "governance")
	viper.SetDefault("governance.audit_log_path", "")
	viper.SetDefault("governance.rules_path", "")
	viper.SetDefault("governance.registry_dir", "")
	viper.SetDefault("governance.cards_dir", "")
	viper.SetDefault("governance.reports_dir", "")
	viper.SetDefault("governance.artifacts_dir", "artifacts/metrics")
	viper.SetDefault("database.dsn", "")
	viper.SetDefault("database.audit_retention_days", 365)
	viper.SetDefault("redis.addr", "")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.audit_list_key", "govgate:audit")
	viper.SetDefault("redis.audit_list_max", 10000)
	viper.SetDefault("tracking.mlruns_dir", "mlruns")
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("rate_limit.rps", 50)
	viper.SetDefault("rate_limit.burst", 100)
	viper.SetDefault("log.level", "info")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}
	cfg.applyPathDefaults()

	return &cfg, nil
}

// applyPathDefaults 派生未显式配置的治理子路径 (与原始布局保持一致)
func (c *Config) applyPathDefaults() {
	dir := c.Governance.Dir
	if dir == "" {
		dir = "governance"
		c.Governance.Dir = dir
	}
	if c.Governance.AuditLogPath == "" {
		c.Governance.AuditLogPath = filepath.Join(dir, "audit_trail.jsonl")
	}
	if c.Governance.RulesPath == "" {
		c.Governance.RulesPath = filepath.Join(dir, "compliance_rules.json")
	}
	if c.Governance.RegistryDir == "" {
		c.Governance.RegistryDir = filepath.Join(dir, "model-cards")
	}
	if c.Governance.CardsDir == "" {
		c.Governance.CardsDir = filepath.Join(dir, "model-cards")
	}
	if c.Governance.ReportsDir == "" {
		c.Governance.ReportsDir = filepath.Join(dir, "reports")
	}
}

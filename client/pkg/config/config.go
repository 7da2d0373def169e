// Package config 客户端配置：默认值、配置文件与 UPWOOD_* 环境变量
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/fx"

	logconfig "github.com/chainorders/upwood-sub002/internal/config/log"
)

// EnvPrefix 环境变量前缀：UPWOOD_NODE_ENDPOINT 覆盖 node.endpoint
const EnvPrefix = "UPWOOD"

var (
	// ErrInvalidConfig 配置值无效
	ErrInvalidConfig = errors.New("invalid config")
)

// Config 客户端配置
type Config struct {
	Node    NodeConfig           `mapstructure:"node"`
	Wallet  WalletConfig         `mapstructure:"wallet"`
	Log     logconfig.LogOptions `mapstructure:"log"`
	Metrics MetricsConfig        `mapstructure:"metrics"`
}

// NodeConfig 节点 JSON-RPC
type NodeConfig struct {
	Endpoint     string        `mapstructure:"endpoint"`
	Timeout      time.Duration `mapstructure:"timeout"`
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// WalletConfig 钱包桥接 JSON-RPC
type WalletConfig struct {
	Endpoint string        `mapstructure:"endpoint"`
	Timeout  time.Duration `mapstructure:"timeout"`
	// Account 默认发起账户
	Account string `mapstructure:"account"`
}

// MetricsConfig Prometheus 指标
type MetricsConfig struct {
	// Listen 为空表示不暴露 /metrics
	Listen string `mapstructure:"listen"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("node.endpoint", "http://localhost:20000/jsonrpc")
	v.SetDefault("node.timeout", 30*time.Second)
	v.SetDefault("node.poll_interval", 500*time.Millisecond)

	v.SetDefault("wallet.endpoint", "http://localhost:20100/jsonrpc")
	v.SetDefault("wallet.timeout", 5*time.Minute)
	v.SetDefault("wallet.account", "")

	log := logconfig.DefaultOptions()
	v.SetDefault("log.level", log.Level)
	v.SetDefault("log.to_console", log.ToConsole)
	v.SetDefault("log.file_path", log.FilePath)
	v.SetDefault("log.max_size", log.MaxSize)
	v.SetDefault("log.max_backups", log.MaxBackups)
	v.SetDefault("log.max_age", log.MaxAge)
	v.SetDefault("log.compress", log.Compress)
	v.SetDefault("log.enable_caller", log.EnableCaller)
	v.SetDefault("log.enable_stacktrace", log.EnableStacktrace)
	v.SetDefault("log.split_by_module", log.SplitByModule)
	v.SetDefault("log.chain_log_file", log.ChainLogFile)
	v.SetDefault("log.app_log_file", log.AppLogFile)

	v.SetDefault("metrics.listen", "")
}

// Load 加载配置
// path 为空时在当前目录与 $HOME/.upwood 下查找 upwood.{yaml,json,toml}，找不到则只用默认值与环境变量
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("upwood")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.upwood")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate 校验端点与时间参数
func (c *Config) Validate() error {
	for name, endpoint := range map[string]string{"node.endpoint": c.Node.Endpoint, "wallet.endpoint": c.Wallet.Endpoint} {
		u, err := url.Parse(endpoint)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%w: %s %q is not an http(s) url", ErrInvalidConfig, name, endpoint)
		}
	}
	if c.Node.Timeout <= 0 {
		return fmt.Errorf("%w: node.timeout must be positive", ErrInvalidConfig)
	}
	if c.Node.PollInterval <= 0 {
		return fmt.Errorf("%w: node.poll_interval must be positive", ErrInvalidConfig)
	}
	return nil
}

// LogConfig 日志配置
func (c *Config) LogConfig() *logconfig.Config {
	return logconfig.New(&c.Log)
}

// Module 提供 *Config 与 *logconfig.Config
func Module(path string) fx.Option {
	return fx.Module("config",
		fx.Provide(
			func() (*Config, error) { return Load(path) },
			func(c *Config) *logconfig.Config { return c.LogConfig() },
		),
	)
}

// Package log 日志配置：选项、默认值与 zap 编码器
package log

import (
	"path/filepath"
	"strings"

	"go.uber.org/zap/zapcore"
)

// LogOptions 日志配置选项（由 viper 按 mapstructure 标签填充）
type LogOptions struct {
	// === 基础配置 ===
	Level     string `json:"level" mapstructure:"level"`           // debug, info, warn, error, fatal
	ToConsole bool   `json:"to_console" mapstructure:"to_console"` // 是否输出到 stderr
	FilePath  string `json:"file_path" mapstructure:"file_path"`   // 日志文件路径，空表示不写文件

	// === 轮转配置 ===
	MaxSize    int  `json:"max_size" mapstructure:"max_size"`       // 单个文件最大大小(MB)
	MaxBackups int  `json:"max_backups" mapstructure:"max_backups"` // 最大备份文件数
	MaxAge     int  `json:"max_age" mapstructure:"max_age"`         // 最大保留天数
	Compress   bool `json:"compress" mapstructure:"compress"`       // 是否压缩历史文件

	// === 调试配置 ===
	EnableCaller     bool `json:"enable_caller" mapstructure:"enable_caller"`
	EnableStacktrace bool `json:"enable_stacktrace" mapstructure:"enable_stacktrace"`

	// === 按模块分文件 ===
	// SplitByModule 为 true 时 FilePath 所在目录下写 chain/app 两个文件
	SplitByModule bool   `json:"split_by_module" mapstructure:"split_by_module"`
	ChainLogFile  string `json:"chain_log_file" mapstructure:"chain_log_file"`
	AppLogFile    string `json:"app_log_file" mapstructure:"app_log_file"`
}

// DefaultOptions 默认日志选项
func DefaultOptions() LogOptions {
	return LogOptions{
		Level:            defaultLogLevel,
		ToConsole:        defaultToConsole,
		FilePath:         defaultFilePath,
		MaxSize:          defaultMaxSize,
		MaxBackups:       defaultMaxBackups,
		MaxAge:           defaultMaxAge,
		Compress:         defaultCompress,
		EnableCaller:     defaultEnableCaller,
		EnableStacktrace: defaultEnableStacktrace,
		SplitByModule:    defaultSplitByModule,
		ChainLogFile:     defaultChainLogFile,
		AppLogFile:       defaultAppLogFile,
	}
}

// Config 日志配置
type Config struct {
	options LogOptions
}

// New 创建日志配置；opts 为 nil 时使用默认值，零值字段回落到默认值
func New(opts *LogOptions) *Config {
	options := DefaultOptions()
	if opts != nil {
		applyOptions(&options, opts)
	}
	return &Config{options: options}
}

// applyOptions 用户选项覆盖默认值（数值与文件名只在非零时覆盖）
func applyOptions(dst *LogOptions, src *LogOptions) {
	if src.Level != "" {
		dst.Level = strings.ToLower(src.Level)
	}
	dst.ToConsole = src.ToConsole
	dst.FilePath = src.FilePath
	if src.MaxSize > 0 {
		dst.MaxSize = src.MaxSize
	}
	if src.MaxBackups > 0 {
		dst.MaxBackups = src.MaxBackups
	}
	if src.MaxAge > 0 {
		dst.MaxAge = src.MaxAge
	}
	dst.Compress = src.Compress
	dst.EnableCaller = src.EnableCaller
	dst.EnableStacktrace = src.EnableStacktrace
	dst.SplitByModule = src.SplitByModule
	if src.ChainLogFile != "" {
		dst.ChainLogFile = src.ChainLogFile
	}
	if src.AppLogFile != "" {
		dst.AppLogFile = src.AppLogFile
	}
}

// GetOptions 获取完整选项副本
func (c *Config) GetOptions() LogOptions {
	return c.options
}

// GetLevel 日志级别名称
func (c *Config) GetLevel() string {
	return c.options.Level
}

// GetZapLevel 对应的 zap 级别，未知名称按 info 处理
func (c *Config) GetZapLevel() zapcore.Level {
	if level, ok := defaultLevelMap[c.options.Level]; ok {
		return level
	}
	return zapcore.InfoLevel
}

func (c *Config) IsConsoleEnabled() bool { return c.options.ToConsole }

func (c *Config) GetFilePath() string { return c.options.FilePath }

func (c *Config) GetMaxSize() int { return c.options.MaxSize }

func (c *Config) GetMaxBackups() int { return c.options.MaxBackups }

func (c *Config) GetMaxAge() int { return c.options.MaxAge }

func (c *Config) IsCompressionEnabled() bool { return c.options.Compress }

func (c *Config) IsCallerEnabled() bool { return c.options.EnableCaller }

func (c *Config) IsStacktraceEnabled() bool { return c.options.EnableStacktrace }

// IsSplitByModule 是否按模块分文件
func (c *Config) IsSplitByModule() bool { return c.options.SplitByModule }

// GetChainLogPath chain 日志文件路径（与 FilePath 同目录）
func (c *Config) GetChainLogPath() string {
	return filepath.Join(filepath.Dir(c.options.FilePath), c.options.ChainLogFile)
}

// GetAppLogPath app 日志文件路径（与 FilePath 同目录）
func (c *Config) GetAppLogPath() string {
	return filepath.Join(filepath.Dir(c.options.FilePath), c.options.AppLogFile)
}

// CreateFileEncoder 文件使用 JSON 编码
func (c *Config) CreateFileEncoder() zapcore.Encoder {
	return zapcore.NewJSONEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
	})
}

// CreateConsoleEncoder 控制台使用带颜色的简短格式
func (c *Config) CreateConsoleEncoder() zapcore.Encoder {
	return zapcore.NewConsoleEncoder(zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeTime:     zapcore.TimeEncoderOfLayout("15:04:05.000"),
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeLevel:    zapcore.CapitalColorLevelEncoder,
	})
}

// Package log 基于 zap 的日志实现
// 支持控制台与文件输出、lumberjack 轮转，以及按 module 字段分文件
package log

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"

	logconfig "github.com/chainorders/upwood-sub002/internal/config/log"
	logInterface "github.com/chainorders/upwood-sub002/pkg/interfaces/infrastructure/log"
)

// 日志级别定义
const (
	DebugLevel = string(logInterface.DebugLevel)
	InfoLevel  = string(logInterface.InfoLevel)
	WarnLevel  = string(logInterface.WarnLevel)
	ErrorLevel = string(logInterface.ErrorLevel)
	FatalLevel = string(logInterface.FatalLevel)
)

var (
	// 全局日志实例
	globalLogger logInterface.Logger
	mu           sync.RWMutex
)

// Logger 实现 logInterface.Logger
type Logger struct {
	zapLogger *zap.Logger
	sugar     *zap.SugaredLogger
}

func init() {
	ResetDefault()
}

// ResetDefault 重置全局日志记录器为默认配置
func ResetDefault() {
	logger, err := New(logconfig.New(nil))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize default logger: %v\n", err)
		return
	}
	SetLogger(logger)
}

// moduleRoutingCore 按 module 字段路由到 chain/app 两个文件
// module 可能来自 With 绑定的字段，也可能来自单条日志的字段
type moduleRoutingCore struct {
	chainCore zapcore.Core
	appCore   zapcore.Core
	module    string
}

func (c *moduleRoutingCore) Enabled(level zapcore.Level) bool {
	return c.chainCore.Enabled(level) || c.appCore.Enabled(level)
}

func (c *moduleRoutingCore) With(fields []zapcore.Field) zapcore.Core {
	module := c.module
	if m := moduleOf(fields); m != "" {
		module = m
	}
	return &moduleRoutingCore{
		chainCore: c.chainCore.With(fields),
		appCore:   c.appCore.With(fields),
		module:    module,
	}
}

func (c *moduleRoutingCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *moduleRoutingCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	module := c.module
	if m := moduleOf(fields); m != "" {
		module = m
	}

	switch {
	case isChainModule(module):
		return c.chainCore.Write(entry, fields)
	case isAppModule(module):
		return c.appCore.Write(entry, fields)
	default:
		// 未标注 module 的日志两边都写
		var errs []error
		if err := c.chainCore.Write(entry, fields); err != nil {
			errs = append(errs, err)
		}
		if err := c.appCore.Write(entry, fields); err != nil {
			errs = append(errs, err)
		}
		if len(errs) > 0 {
			return fmt.Errorf("write log: %v", errs)
		}
		return nil
	}
}

func (c *moduleRoutingCore) Sync() error {
	var errs []error
	if err := c.chainCore.Sync(); err != nil {
		errs = append(errs, err)
	}
	if err := c.appCore.Sync(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("sync log files: %v", errs)
	}
	return nil
}

// moduleOf 取 module 字段值
func moduleOf(fields []zapcore.Field) string {
	for _, field := range fields {
		if field.Key != "module" {
			continue
		}
		switch field.Type {
		case zapcore.StringType:
			return field.String
		case zapcore.StringerType:
			if s, ok := field.Interface.(fmt.Stringer); ok && s != nil {
				return s.String()
			}
		default:
			if s, ok := field.Interface.(string); ok {
				return s
			}
		}
	}
	return ""
}

// isChainModule 节点与钱包通信
func isChainModule(module string) bool {
	switch module {
	case "rpc", "node", "wallet", "metrics":
		return true
	}
	return false
}

// isAppModule 交易流程与命令行
func isAppModule(module string) bool {
	switch module {
	case "tx", "contract", "sponsor", "gen", "cli":
		return true
	}
	return false
}

// createFileWriter 创建带轮转的文件写入器
func createFileWriter(logPath string, config *logconfig.Config) zapcore.WriteSyncer {
	logDir := filepath.Dir(logPath)
	if err := os.MkdirAll(logDir, 0700); err != nil {
		fmt.Fprintf(os.Stderr, "create log dir %s: %v\n", logDir, err)
		return zapcore.AddSync(os.Stderr)
	}
	return zapcore.AddSync(&lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    config.GetMaxSize(),
		MaxBackups: config.GetMaxBackups(),
		MaxAge:     config.GetMaxAge(),
		Compress:   config.IsCompressionEnabled(),
	})
}

// New 根据配置创建日志记录器；控制台输出写 stderr
func New(config *logconfig.Config) (logInterface.Logger, error) {
	return newLogger(config, zapcore.Lock(os.Stderr))
}

func newLogger(config *logconfig.Config, console zapcore.WriteSyncer) (logInterface.Logger, error) {
	level := zap.NewAtomicLevelAt(config.GetZapLevel())

	var cores []zapcore.Core
	if config.IsConsoleEnabled() {
		cores = append(cores, zapcore.NewCore(config.CreateConsoleEncoder(), console, level))
	}

	if path := config.GetFilePath(); path != "" {
		fileEncoder := config.CreateFileEncoder()
		if config.IsSplitByModule() {
			chainPath, err := filepath.Abs(config.GetChainLogPath())
			if err != nil {
				return nil, fmt.Errorf("resolve chain log path: %w", err)
			}
			appPath, err := filepath.Abs(config.GetAppLogPath())
			if err != nil {
				return nil, fmt.Errorf("resolve app log path: %w", err)
			}
			cores = append(cores, &moduleRoutingCore{
				chainCore: zapcore.NewCore(fileEncoder, createFileWriter(chainPath, config), level),
				appCore:   zapcore.NewCore(fileEncoder, createFileWriter(appPath, config), level),
			})
		} else {
			absPath, err := filepath.Abs(path)
			if err != nil {
				return nil, fmt.Errorf("resolve log path: %w", err)
			}
			cores = append(cores, zapcore.NewCore(fileEncoder, createFileWriter(absPath, config), level))
		}
	}

	var zapOptions []zap.Option
	if config.IsCallerEnabled() {
		// 跳过本包的封装层
		zapOptions = append(zapOptions, zap.AddCaller(), zap.AddCallerSkip(1))
	}
	if config.IsStacktraceEnabled() {
		zapOptions = append(zapOptions, zap.AddStacktrace(zapcore.ErrorLevel))
	}

	zapLogger := zap.New(zapcore.NewTee(cores...), zapOptions...)
	return &Logger{
		zapLogger: zapLogger,
		sugar:     zapLogger.Sugar(),
	}, nil
}

// GetZapLogger 获取底层 zap 记录器
func (l *Logger) GetZapLogger() *zap.Logger {
	return l.zapLogger
}

// SetLogger 设置全局日志记录器
func SetLogger(logger logInterface.Logger) {
	if logger == nil {
		return
	}
	mu.Lock()
	globalLogger = logger
	mu.Unlock()
}

// GetLogger 获取全局日志记录器
func GetLogger() logInterface.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return globalLogger
}

// Debugf 全局 debug 日志
func Debugf(format string, args ...interface{}) {
	if l := GetLogger(); l != nil {
		l.Debugf(format, args...)
	}
}

// Infof 全局 info 日志
func Infof(format string, args ...interface{}) {
	if l := GetLogger(); l != nil {
		l.Infof(format, args...)
	}
}

// Warnf 全局 warn 日志
func Warnf(format string, args ...interface{}) {
	if l := GetLogger(); l != nil {
		l.Warnf(format, args...)
	}
}

// Errorf 全局 error 日志
func Errorf(format string, args ...interface{}) {
	if l := GetLogger(); l != nil {
		l.Errorf(format, args...)
	}
}

// With 基于全局日志记录器创建带字段的记录器
func With(args ...interface{}) logInterface.Logger {
	l := GetLogger()
	if l == nil {
		ResetDefault()
		l = GetLogger()
	}
	return l.With(args...)
}

// toZapFields 键值对转换为 zap 字段；奇数个参数时丢弃最后一个
func toZapFields(args ...interface{}) []zap.Field {
	if len(args)%2 != 0 {
		args = args[:len(args)-1]
	}
	fields := make([]zap.Field, 0, len(args)/2)
	for i := 0; i < len(args); i += 2 {
		key, ok := args[i].(string)
		if !ok {
			key = fmt.Sprint(args[i])
		}
		fields = append(fields, zap.Any(key, args[i+1]))
	}
	return fields
}

func (l *Logger) Debug(msg string) { l.sugar.Debug(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.sugar.Debugf(format, args...) }

func (l *Logger) Info(msg string) { l.sugar.Info(msg) }

func (l *Logger) Infof(format string, args ...interface{}) { l.sugar.Infof(format, args...) }

func (l *Logger) Warn(msg string) { l.sugar.Warn(msg) }

func (l *Logger) Warnf(format string, args ...interface{}) { l.sugar.Warnf(format, args...) }

func (l *Logger) Error(msg string) { l.sugar.Error(msg) }

func (l *Logger) Errorf(format string, args ...interface{}) { l.sugar.Errorf(format, args...) }

func (l *Logger) Fatal(msg string) { l.sugar.Fatal(msg) }

func (l *Logger) Fatalf(format string, args ...interface{}) { l.sugar.Fatalf(format, args...) }

// With 返回带额外字段的 Logger
func (l *Logger) With(args ...interface{}) logInterface.Logger {
	zl := l.zapLogger.With(toZapFields(args...)...)
	return &Logger{
		zapLogger: zl,
		sugar:     zl.Sugar(),
	}
}

// Sync 刷新缓冲区
func (l *Logger) Sync() error {
	return l.zapLogger.Sync()
}

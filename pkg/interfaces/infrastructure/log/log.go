// Package log 日志记录器接口定义
//
// 各组件只依赖本接口；实现位于 internal/core/infrastructure/log（zap）。
package log

import "go.uber.org/zap"

// Logger 日志记录器接口
type Logger interface {
	Debug(msg string)
	Debugf(format string, args ...interface{})

	Info(msg string)
	Infof(format string, args ...interface{})

	Warn(msg string)
	Warnf(format string, args ...interface{})

	Error(msg string)
	Errorf(format string, args ...interface{})

	// Fatal 记录后退出进程，仅供 cmd 层使用
	Fatal(msg string)
	Fatalf(format string, args ...interface{})

	// With 返回带键值对字段的 Logger：With("module", "tx", "hash", h)
	With(args ...interface{}) Logger

	// Sync 刷新缓冲区
	Sync() error

	// GetZapLogger 获取底层 zap 记录器
	GetZapLogger() *zap.Logger
}

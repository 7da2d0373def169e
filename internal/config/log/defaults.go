package log

import (
	"go.uber.org/zap/zapcore"
)

// 日志配置默认值
const (
	// defaultLogLevel CLI 默认只输出 info 及以上
	defaultLogLevel = "info"

	// defaultToConsole 默认输出到 stderr，stdout 留给命令结果
	defaultToConsole = true

	// defaultFilePath 为空表示不写文件
	defaultFilePath = ""

	// === 日志轮转配置（lumberjack） ===

	defaultMaxSize    = 50 // MB
	defaultMaxBackups = 5
	defaultMaxAge     = 14 // 天
	defaultCompress   = true

	// === 调试配置 ===

	defaultEnableCaller     = false
	defaultEnableStacktrace = true

	// === 按模块分文件 ===

	// defaultSplitByModule 默认单文件
	defaultSplitByModule = false

	// defaultChainLogFile 节点/钱包通信日志（rpc、node、wallet）
	defaultChainLogFile = "upwood-chain.log"

	// defaultAppLogFile 交易流程日志（tx、contract、sponsor、cli）
	defaultAppLogFile = "upwood-app.log"
)

// defaultLevelMap 级别名称到 zap 级别
var defaultLevelMap = map[string]zapcore.Level{
	"debug": zapcore.DebugLevel,
	"info":  zapcore.InfoLevel,
	"warn":  zapcore.WarnLevel,
	"error": zapcore.ErrorLevel,
	"panic": zapcore.PanicLevel,
	"fatal": zapcore.FatalLevel,
}

package log

import (
	"context"
	"fmt"

	"go.uber.org/fx"
	"go.uber.org/zap"

	logconfig "github.com/chainorders/upwood-sub002/internal/config/log"
	logInterface "github.com/chainorders/upwood-sub002/pkg/interfaces/infrastructure/log"
)

// ModuleParams 日志模块依赖
type ModuleParams struct {
	fx.In

	Config    *logconfig.Config `optional:"true"`
	Lifecycle fx.Lifecycle
}

// ModuleOutput 日志模块输出
type ModuleOutput struct {
	fx.Out

	Logger    logInterface.Logger
	ZapLogger *zap.Logger
}

// Module 日志模块
func Module() fx.Option {
	return fx.Module("log",
		fx.Provide(ProvideServices),
	)
}

// ProvideServices 按配置创建日志记录器并替换全局记录器，停止时刷新缓冲区
func ProvideServices(params ModuleParams) (ModuleOutput, error) {
	cfg := params.Config
	if cfg == nil {
		cfg = logconfig.New(nil)
	}
	logger, err := New(cfg)
	if err != nil {
		return ModuleOutput{}, fmt.Errorf("create logger: %w", err)
	}
	SetLogger(logger)

	params.Lifecycle.Append(fx.Hook{
		OnStop: func(context.Context) error {
			// stderr 不支持 fsync，忽略其错误
			_ = logger.Sync()
			return nil
		},
	})

	return ModuleOutput{
		Logger:    logger,
		ZapLogger: logger.GetZapLogger(),
	}, nil
}

// NewModuleLogger 创建带 module 字段的 logger
func NewModuleLogger(baseLogger logInterface.Logger, module string) logInterface.Logger {
	if baseLogger == nil {
		return nil
	}
	return baseLogger.With("module", module)
}

// NewModuleZapLogger 创建带 module 字段的 zap logger
func NewModuleZapLogger(baseLogger *zap.Logger, module string) *zap.Logger {
	if baseLogger == nil {
		return nil
	}
	return baseLogger.With(zap.String("module", module))
}

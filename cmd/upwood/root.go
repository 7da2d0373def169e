package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/chainorders/upwood-sub002/client"
	"github.com/chainorders/upwood-sub002/client/core/output"
	"github.com/chainorders/upwood-sub002/client/pkg/config"
	corelog "github.com/chainorders/upwood-sub002/internal/core/infrastructure/log"
)

// GlobalFlags 全局标志
type GlobalFlags struct {
	ConfigPath   string // 配置文件
	OutputFormat string // 输出格式
	Silent       bool   // 静默模式
}

// cli 一次命令执行的共享状态
type cli struct {
	flags     GlobalFlags
	out       io.Writer
	formatter *output.Formatter
}

// newRootCmd 根命令；数据写 out，状态消息写命令的 stderr
func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{out: out}

	root := &cobra.Command{
		Use:   "upwood",
		Short: "智能合约交易客户端",
		Long: `upwood - 合约交易的编码、提交与跟踪

离线命令（不访问节点）:
  amount / rate     最小单位整数与展示金额互转
  tokenid           定宽小端 token id 编解码
  schema            按二进制 schema 编解码合约参数
  gen               由合约清单生成方法描述

在线命令（读取配置中的节点与钱包桥接）:
  tx status|watch|send`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			format, err := output.ParseFormat(c.flags.OutputFormat)
			if err != nil {
				return err
			}
			c.formatter = output.NewFormatter(format, c.out)
			c.formatter.SetLogWriter(cmd.ErrOrStderr())
			c.formatter.SetSilent(c.flags.Silent)
			return nil
		},
	}

	root.PersistentFlags().StringVarP(&c.flags.ConfigPath, "config", "c", "", "配置文件 (默认查找 ./upwood.yaml 与 ~/.upwood/upwood.yaml)")
	root.PersistentFlags().StringVarP(&c.flags.OutputFormat, "output", "o", "json", "输出格式: json|pretty|table|text")
	root.PersistentFlags().BoolVar(&c.flags.Silent, "silent", false, "静默模式 (只输出错误)")

	root.AddCommand(
		newAmountCmd(c),
		newRateCmd(c),
		newTokenIDCmd(c),
		newSchemaCmd(c),
		newTxCmd(c),
		newGenCmd(c),
	)
	return root
}

// Execute 执行根命令
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd(os.Stdout).ExecuteContext(ctx)
	stop()
	if err != nil {
		pterm.Error.WithWriter(os.Stderr).Println(err.Error())
		os.Exit(1)
	}
}

// withClient 组装 config → log → client（以及可选的 /metrics），在应用生命周期内执行 fn
func (c *cli) withClient(ctx context.Context, fn func(context.Context, *client.Client, *config.Config) error) error {
	var (
		cl  *client.Client
		cfg *config.Config
	)
	app := fx.New(
		config.Module(c.flags.ConfigPath),
		corelog.Module(),
		client.Module(),
		metricsModule(),
		fx.NopLogger,
		fx.Populate(&cl, &cfg),
	)
	if err := app.Err(); err != nil {
		return fmt.Errorf("init: %w", err)
	}

	startCtx, cancel := context.WithTimeout(ctx, app.StartTimeout())
	defer cancel()
	if err := app.Start(startCtx); err != nil {
		return fmt.Errorf("start: %w", err)
	}
	defer func() {
		stopCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.StopTimeout())
		defer cancel()
		_ = app.Stop(stopCtx)
	}()

	return fn(ctx, cl, cfg)
}

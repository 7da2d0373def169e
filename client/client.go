// Package client 合约交易客户端入口：组合节点、钱包与交易提交器
package client

import (
	"context"
	"errors"
	"time"

	"go.uber.org/fx"

	"github.com/chainorders/upwood-sub002/client/core/sponsor"
	"github.com/chainorders/upwood-sub002/client/core/transaction"
	"github.com/chainorders/upwood-sub002/client/core/transport"
	"github.com/chainorders/upwood-sub002/client/core/wallet"
	"github.com/chainorders/upwood-sub002/client/pkg/config"
	corelog "github.com/chainorders/upwood-sub002/internal/core/infrastructure/log"
	logInterface "github.com/chainorders/upwood-sub002/pkg/interfaces/infrastructure/log"
)

var (
	// ErrNoWallet 客户端未配置钱包，只能做只读操作
	ErrNoWallet = errors.New("no wallet configured")
)

// Client 合约交易客户端
type Client struct {
	node         transport.Node
	wallet       wallet.Wallet
	pollInterval time.Duration
	logger       logInterface.Logger
}

// Option 客户端选项
type Option func(*Client)

// WithWallet 设置钱包
func WithWallet(w wallet.Wallet) Option {
	return func(c *Client) { c.wallet = w }
}

// WithPollInterval 设置提交器的轮询间隔
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithLogger 设置日志记录器
func WithLogger(logger logInterface.Logger) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// New 使用给定节点创建客户端
func New(node transport.Node, opts ...Option) *Client {
	c := &Client{
		node:         node,
		pollInterval: transaction.DefaultPollInterval,
		logger:       corelog.GetLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// NewFromConfig 按配置创建 JSON-RPC 节点与钱包桥接
func NewFromConfig(cfg *config.Config, logger logInterface.Logger) *Client {
	if logger == nil {
		logger = corelog.GetLogger()
	}
	node := transport.NewJSONRPCClient(cfg.Node.Endpoint, cfg.Node.Timeout,
		transport.WithPollInterval(cfg.Node.PollInterval),
		transport.WithLogger(corelog.NewModuleLogger(logger, "node")),
	)
	bridge := transport.NewJSONRPCClient(cfg.Wallet.Endpoint, cfg.Wallet.Timeout,
		transport.WithLogger(corelog.NewModuleLogger(logger, "wallet")),
	)
	return New(node,
		WithWallet(wallet.NewRPCWallet(bridge)),
		WithPollInterval(cfg.Node.PollInterval),
		WithLogger(logger),
	)
}

// Node 节点
func (c *Client) Node() transport.Node {
	return c.node
}

// Wallet 钱包；未配置时为 nil
func (c *Client) Wallet() wallet.Wallet {
	return c.wallet
}

// NewSubmitter 为一次用户操作创建交易提交器
func (c *Client) NewSubmitter() (*transaction.Submitter, error) {
	if c.wallet == nil {
		return nil, ErrNoWallet
	}
	return transaction.NewSubmitter(c.wallet, c.node,
		transaction.WithPollInterval(c.pollInterval),
		transaction.WithLogger(corelog.NewModuleLogger(c.logger, "tx")),
	), nil
}

// SendAndWait 提交并阻塞等待最终结果
func (c *Client) SendAndWait(ctx context.Context, req *transaction.Request) (string, *transaction.Outcome, error) {
	if c.wallet == nil {
		return "", nil, ErrNoWallet
	}
	return transaction.SendAndWait(ctx, c.wallet, c.node, req)
}

// TransactionStatus 查询交易状态
func (c *Client) TransactionStatus(ctx context.Context, hash string) (*transport.BlockItemStatus, error) {
	return c.node.GetBlockItemStatus(ctx, hash)
}

// WaitForFinalization 等待交易最终确定
func (c *Client) WaitForFinalization(ctx context.Context, hash string) (*transport.BlockItemSummary, error) {
	return c.node.WaitForTransactionFinalization(ctx, hash)
}

// SignPermit 由钱包签署代付许可
func (c *Client) SignPermit(ctx context.Context, req *sponsor.Request) (*sponsor.Permit, error) {
	if c.wallet == nil {
		return nil, ErrNoWallet
	}
	return sponsor.Sign(ctx, c.wallet, req)
}

// Module 提供 *Client（依赖 *config.Config 与 Logger）
func Module() fx.Option {
	return fx.Module("client",
		fx.Provide(NewFromConfig),
	)
}

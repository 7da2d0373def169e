package transport

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	logInterface "github.com/chainorders/upwood-sub002/pkg/interfaces/infrastructure/log"
)

// 默认参数
const (
	DefaultTimeout      = 30 * time.Second
	DefaultPollInterval = 500 * time.Millisecond
)

var (
	// ErrNotFound 节点未找到该交易
	ErrNotFound = errors.New("block item not found")
)

// RPCError JSON-RPC 错误对象
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("jsonrpc error %d: %s", e.Code, e.Message)
}

// RawCaller 通用 JSON-RPC 调用能力（钱包桥接复用）
type RawCaller interface {
	CallInto(ctx context.Context, method string, params []interface{}, result interface{}) error
}

// JSONRPCClient JSON-RPC 2.0 节点客户端
type JSONRPCClient struct {
	endpoint     string
	httpClient   *http.Client
	nextID       atomic.Uint64
	pollInterval time.Duration
	logger       logInterface.Logger
}

// JSONRPCOption 客户端选项
type JSONRPCOption func(*JSONRPCClient)

// WithPollInterval 设置 WaitForTransactionFinalization 的轮询间隔
func WithPollInterval(d time.Duration) JSONRPCOption {
	return func(c *JSONRPCClient) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// WithHTTPClient 替换底层 http.Client
func WithHTTPClient(hc *http.Client) JSONRPCOption {
	return func(c *JSONRPCClient) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithLogger 记录每次调用（debug）与失败（warn）
func WithLogger(logger logInterface.Logger) JSONRPCOption {
	return func(c *JSONRPCClient) {
		c.logger = logger
	}
}

// NewJSONRPCClient 创建JSON-RPC客户端
func NewJSONRPCClient(endpoint string, timeout time.Duration, opts ...JSONRPCOption) *JSONRPCClient {
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	c := &JSONRPCClient{
		endpoint: endpoint,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		pollInterval: DefaultPollInterval,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Endpoint 返回节点地址
func (c *JSONRPCClient) Endpoint() string {
	return c.endpoint
}

type jsonrpcRequest struct {
	JSONRPC string        `json:"jsonrpc"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
	ID      uint64        `json:"id"`
}

type jsonrpcResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  json.RawMessage `json:"result,omitempty"`
	Error   *RPCError       `json:"error,omitempty"`
	ID      uint64          `json:"id"`
}

// CallInto 发起一次 JSON-RPC 调用并把 result 解析到 result 中
func (c *JSONRPCClient) CallInto(ctx context.Context, method string, params []interface{}, result interface{}) error {
	err := c.call(ctx, method, params, result)
	if c.logger != nil {
		if err != nil {
			c.logger.Warnf("rpc %s %s failed: %v", c.endpoint, method, err)
		} else {
			c.logger.Debugf("rpc %s %s ok", c.endpoint, method)
		}
	}
	return err
}

func (c *JSONRPCClient) call(ctx context.Context, method string, params []interface{}, result interface{}) error {
	if params == nil {
		params = []interface{}{}
	}
	req := &jsonrpcRequest{
		JSONRPC: "2.0",
		Method:  method,
		Params:  params,
		ID:      c.nextID.Add(1),
	}

	reqBody, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(reqBody))
	if err != nil {
		return fmt.Errorf("create http request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK && len(respBody) == 0 {
		return fmt.Errorf("http status %d", resp.StatusCode)
	}

	var jsonResp jsonrpcResponse
	if err := json.Unmarshal(respBody, &jsonResp); err != nil {
		return fmt.Errorf("unmarshal response: %w", err)
	}
	if jsonResp.Error != nil {
		return jsonResp.Error
	}

	if result != nil && len(jsonResp.Result) > 0 {
		if err := json.Unmarshal(jsonResp.Result, result); err != nil {
			return fmt.Errorf("unmarshal result: %w", err)
		}
	}
	return nil
}

// ===== Node 接口实现 =====

func (c *JSONRPCClient) GetBlockItemStatus(ctx context.Context, hash string) (*BlockItemStatus, error) {
	var status *BlockItemStatus
	if err := c.CallInto(ctx, "getBlockItemStatus", []interface{}{hash}, &status); err != nil {
		return nil, err
	}
	if status == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, hash)
	}
	return status, nil
}

func (c *JSONRPCClient) WaitForTransactionFinalization(ctx context.Context, hash string) (*BlockItemSummary, error) {
	return WaitForFinalization(ctx, c, hash, c.pollInterval)
}

func (c *JSONRPCClient) InvokeContract(ctx context.Context, req *InvokeContractRequest) (*InvokeContractResult, error) {
	if req == nil {
		return nil, errors.New("nil invoke request")
	}
	var result InvokeContractResult
	if err := c.CallInto(ctx, "invokeInstance", []interface{}{req}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

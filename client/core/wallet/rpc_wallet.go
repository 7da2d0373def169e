package wallet

import (
	"context"
	"errors"
	"fmt"

	"github.com/chainorders/upwood-sub002/client/core/transport"
)

// userRejectedCode 钱包桥接约定的“用户拒绝”错误码
const userRejectedCode = 4001

// RPCWallet 通过 JSON-RPC 钱包桥接访问的钱包
type RPCWallet struct {
	caller transport.RawCaller
}

var _ Wallet = (*RPCWallet)(nil)

// NewRPCWallet 创建 RPC 钱包
func NewRPCWallet(caller transport.RawCaller) *RPCWallet {
	return &RPCWallet{caller: caller}
}

type sendResult struct {
	Hash string `json:"hash"`
}

func (w *RPCWallet) SendTransaction(ctx context.Context, account string, kind TransactionKind, payload *Payload, schema string) (string, error) {
	if account == "" {
		return "", ErrNoAccount
	}
	if payload == nil {
		return "", errors.New("nil payload")
	}
	params := []interface{}{account, kind, payload}
	if schema != "" {
		params = append(params, map[string]string{"type": "parameter", "value": schema})
	}

	var res sendResult
	if err := w.caller.CallInto(ctx, "sendTransaction", params, &res); err != nil {
		return "", mapError(err)
	}
	if res.Hash == "" {
		return "", errors.New("wallet returned empty transaction hash")
	}
	return res.Hash, nil
}

func (w *RPCWallet) SignMessage(ctx context.Context, account string, msg *Message) (SignatureMap, error) {
	if account == "" {
		return nil, ErrNoAccount
	}
	if msg == nil {
		return nil, errors.New("nil message")
	}
	var sigs SignatureMap
	if err := w.caller.CallInto(ctx, "signMessage", []interface{}{account, msg}, &sigs); err != nil {
		return nil, mapError(err)
	}
	if len(sigs) == 0 {
		return nil, errors.New("wallet returned no signatures")
	}
	return sigs, nil
}

func mapError(err error) error {
	var rpcErr *transport.RPCError
	if errors.As(err, &rpcErr) && rpcErr.Code == userRejectedCode {
		return fmt.Errorf("%w: %s", ErrRejected, rpcErr.Message)
	}
	return fmt.Errorf("wallet: %w", err)
}

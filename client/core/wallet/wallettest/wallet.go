// Package wallettest 提供 wallet.Wallet 的 testify mock
package wallettest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/chainorders/upwood-sub002/client/core/wallet"
)

// Wallet wallet.Wallet 的 mock 实现
type Wallet struct {
	mock.Mock
}

var _ wallet.Wallet = (*Wallet)(nil)

func (m *Wallet) SendTransaction(ctx context.Context, account string, kind wallet.TransactionKind, payload *wallet.Payload, schema string) (string, error) {
	args := m.Called(ctx, account, kind, payload, schema)
	return args.String(0), args.Error(1)
}

func (m *Wallet) SignMessage(ctx context.Context, account string, msg *wallet.Message) (wallet.SignatureMap, error) {
	args := m.Called(ctx, account, msg)
	sigs, _ := args.Get(0).(wallet.SignatureMap)
	return sigs, args.Error(1)
}

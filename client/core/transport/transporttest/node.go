// Package transporttest 提供 transport.Node 的 testify mock
package transporttest

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/chainorders/upwood-sub002/client/core/transport"
)

// Node transport.Node 的 mock 实现
type Node struct {
	mock.Mock
}

var _ transport.Node = (*Node)(nil)

func (m *Node) GetBlockItemStatus(ctx context.Context, hash string) (*transport.BlockItemStatus, error) {
	args := m.Called(ctx, hash)
	status, _ := args.Get(0).(*transport.BlockItemStatus)
	return status, args.Error(1)
}

func (m *Node) WaitForTransactionFinalization(ctx context.Context, hash string) (*transport.BlockItemSummary, error) {
	args := m.Called(ctx, hash)
	summary, _ := args.Get(0).(*transport.BlockItemSummary)
	return summary, args.Error(1)
}

func (m *Node) InvokeContract(ctx context.Context, req *transport.InvokeContractRequest) (*transport.InvokeContractResult, error) {
	args := m.Called(ctx, req)
	result, _ := args.Get(0).(*transport.InvokeContractResult)
	return result, args.Error(1)
}

// Received 构造 received 状态
func Received() *transport.BlockItemStatus {
	return &transport.BlockItemStatus{Status: transport.StatusReceived}
}

// Committed 构造 committed 状态
func Committed() *transport.BlockItemStatus {
	return &transport.BlockItemStatus{Status: transport.StatusCommitted}
}

// Finalized 构造携带摘要的 finalized 状态
func Finalized(summary *transport.BlockItemSummary) *transport.BlockItemStatus {
	return &transport.BlockItemStatus{Status: transport.StatusFinalized, Outcome: summary}
}

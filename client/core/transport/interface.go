// Package transport 节点提供方接口与 JSON-RPC 实现
package transport

import (
	"context"

	"github.com/chainorders/upwood-sub002/pkg/types"
)

// Node 节点接口 - 交易状态查询与合约只读调用的唯一通道
type Node interface {
	// GetBlockItemStatus 查询交易（block item）当前状态
	GetBlockItemStatus(ctx context.Context, hash string) (*BlockItemStatus, error)

	// WaitForTransactionFinalization 阻塞直到交易最终确定，返回其执行摘要
	WaitForTransactionFinalization(ctx context.Context, hash string) (*BlockItemSummary, error)

	// InvokeContract 不上链地模拟调用合约入口
	InvokeContract(ctx context.Context, req *InvokeContractRequest) (*InvokeContractResult, error)
}

// TransactionStatus 交易状态
type TransactionStatus string

const (
	StatusReceived  TransactionStatus = "received"
	StatusCommitted TransactionStatus = "committed"
	StatusFinalized TransactionStatus = "finalized"
)

// BlockItemStatus 交易状态查询结果；仅 finalized 时携带 Outcome
type BlockItemStatus struct {
	Status  TransactionStatus `json:"status"`
	Outcome *BlockItemSummary `json:"outcome,omitempty"`
}

// 交易摘要类型
const (
	ItemTypeAccountTransaction = "accountTransaction"
	ItemTypeCredentialDeploy   = "credentialDeployment"
	ItemTypeUpdate             = "chainUpdate"
)

// 账户交易类型
const (
	TxTypeUpdate       = "update"
	TxTypeInitContract = "initContract"
	TxTypeFailed       = "failed"
	TxTypeTransfer     = "transfer"
)

// BlockItemSummary 已确定交易的执行摘要
type BlockItemSummary struct {
	BlockHash       string                 `json:"blockHash"`
	Hash            string                 `json:"hash"`
	Sender          string                 `json:"sender,omitempty"`
	Type            string                 `json:"type"`            // accountTransaction / credentialDeployment / chainUpdate
	TransactionType string                 `json:"transactionType"` // update / initContract / failed / ...
	EnergyCost      Uint64                 `json:"energyCost"`
	ContractAddress *types.ContractAddress `json:"contractAddress,omitempty"` // update 的目标或 initContract 的新地址
	ReturnValue     HexBytes               `json:"returnValue,omitempty"`
	RejectReason    *RejectReason          `json:"rejectReason,omitempty"` // 仅 failed
}

// IsFailed 是否为被拒绝的账户交易
func (s *BlockItemSummary) IsFailed() bool {
	return s.Type == ItemTypeAccountTransaction && s.TransactionType == TxTypeFailed
}

// 拒绝原因标签
const (
	RejectTagReceive     = "RejectedReceive"
	RejectTagInit        = "RejectedInit"
	RejectTagOutOfEnergy = "OutOfEnergy"
)

// RejectReason 链上拒绝原因
type RejectReason struct {
	Tag             string                 `json:"tag"`
	Code            int32                  `json:"rejectReason"`
	ContractAddress *types.ContractAddress `json:"contractAddress,omitempty"`
	ReceiveName     string                 `json:"receiveName,omitempty"`
	Parameter       HexBytes               `json:"parameter,omitempty"`
	ReturnValue     HexBytes               `json:"returnValue,omitempty"`
}

// InvokeContractRequest 合约只读调用请求
type InvokeContractRequest struct {
	Invoker   string                `json:"invoker,omitempty"`
	Contract  types.ContractAddress `json:"contract"`
	Method    string                `json:"method"` // contract.entrypoint
	Amount    Uint64                `json:"amount"`
	Parameter HexBytes              `json:"parameter"`
	Energy    Uint64                `json:"energy,omitempty"`
}

// 只读调用结果标签
const (
	InvokeTagSuccess = "success"
	InvokeTagFailure = "failure"
)

// InvokeContractResult 合约只读调用结果
type InvokeContractResult struct {
	Tag         string        `json:"tag"`
	ReturnValue HexBytes      `json:"returnValue,omitempty"`
	Reason      *RejectReason `json:"reason,omitempty"`
	UsedEnergy  Uint64        `json:"usedEnergy"`
}

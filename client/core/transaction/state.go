// Package transaction 合约交易的提交、状态轮询与结果分类
//
// 状态机：
//
//	Init --Submit--> Sent(Received|Committed) --poll--> Finalized(Success|Rejected) --Acknowledge--> Init
//
// 每次用户操作持有一个 Submitter；Submitter 之间不共享状态。
package transaction

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/chainorders/upwood-sub002/client/core/contract"
	"github.com/chainorders/upwood-sub002/client/core/transport"
)

// Phase 状态机阶段
type Phase int

const (
	PhaseInit Phase = iota
	PhaseSent
	PhaseFinalized
)

func (p Phase) String() string {
	switch p {
	case PhaseInit:
		return "init"
	case PhaseSent:
		return "sent"
	case PhaseFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("phase(%d)", int(p))
	}
}

// OutcomeKind 最终结果类型
type OutcomeKind int

const (
	OutcomeSuccess OutcomeKind = iota
	OutcomeRejected
)

func (k OutcomeKind) String() string {
	if k == OutcomeRejected {
		return "rejected"
	}
	return "success"
}

// Outcome 已确定交易的分类结果
type Outcome struct {
	Kind    OutcomeKind
	Summary *transport.BlockItemSummary

	// Return 解码后的返回值（Success，且入口注册了返回 schema）
	Return any
	// Error 合约错误（Rejected 且为合约拒绝时）
	Error *contract.ContractError
	// Message 面向用户的说明；解码失败时记录原因
	Message string
}

// Succeeded 是否成功
func (o *Outcome) Succeeded() bool {
	return o != nil && o.Kind == OutcomeSuccess
}

// State 交易状态快照
//   - Init: Err 可能记录上一次提交失败的原因
//   - Sent: Hash/Status 有效；Err 非空表示轮询失败并已停止
//   - Finalized: Hash/Outcome 有效
type State struct {
	Phase     Phase
	AttemptID uuid.UUID
	Hash      string
	Status    transport.TransactionStatus
	Outcome   *Outcome
	Err       error
}

func (s State) String() string {
	switch s.Phase {
	case PhaseSent:
		if s.Err != nil {
			return fmt.Sprintf("sent(%s, %s, error: %v)", s.Hash, s.Status, s.Err)
		}
		return fmt.Sprintf("sent(%s, %s)", s.Hash, s.Status)
	case PhaseFinalized:
		if s.Outcome == nil {
			return fmt.Sprintf("finalized(%s)", s.Hash)
		}
		if s.Outcome.Kind == OutcomeRejected && s.Outcome.Error != nil && s.Outcome.Error.Variant != "" {
			return fmt.Sprintf("finalized(%s, rejected: %s)", s.Hash, s.Outcome.Error.Variant)
		}
		return fmt.Sprintf("finalized(%s, %s)", s.Hash, s.Outcome.Kind)
	default:
		if s.Err != nil {
			return fmt.Sprintf("init(error: %v)", s.Err)
		}
		return "init"
	}
}

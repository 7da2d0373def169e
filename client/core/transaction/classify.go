package transaction

import (
	"fmt"

	"github.com/chainorders/upwood-sub002/client/core/contract"
	"github.com/chainorders/upwood-sub002/client/core/transport"
)

// Classify 把已确定交易的摘要分类为成功或链上拒绝
//
// 解码失败不会改变分类，只会让结果退化为非结构化的 Message。
func Classify(m *contract.Method, summary *transport.BlockItemSummary) *Outcome {
	if summary == nil {
		return &Outcome{Kind: OutcomeRejected, Message: "finalized without outcome"}
	}
	if summary.Type != transport.ItemTypeAccountTransaction {
		return &Outcome{Kind: OutcomeRejected, Summary: summary, Message: fmt.Sprintf("unexpected block item type %q", summary.Type)}
	}
	if summary.TransactionType == transport.TxTypeFailed {
		return classifyRejection(m, summary)
	}

	out := &Outcome{Kind: OutcomeSuccess, Summary: summary}
	if m != nil && m.Kind() == contract.KindReceive && len(summary.ReturnValue) > 0 {
		v, err := contract.DeserializeReturn(m, summary.ReturnValue)
		if err != nil {
			out.Message = err.Error()
		} else {
			out.Return = v
		}
	}
	return out
}

func classifyRejection(m *contract.Method, summary *transport.BlockItemSummary) *Outcome {
	out := &Outcome{Kind: OutcomeRejected, Summary: summary}
	reason := summary.RejectReason
	if reason == nil {
		out.Message = "transaction failed"
		return out
	}

	switch reason.Tag {
	case transport.RejectTagReceive, transport.RejectTagInit:
		if m == nil {
			out.Error = &contract.ContractError{Code: reason.Code}
			out.Message = out.Error.Error()
			return out
		}
		ce, err := contract.DeserializeError(m, reason)
		out.Error = ce
		if err != nil {
			out.Message = err.Error()
			return out
		}
		if reason.Tag == transport.RejectTagInit && ce.Variant == "" {
			out.Message = fmt.Sprintf("contract init rejected with code %d", ce.Code)
			return out
		}
		out.Message = ce.Error()
	default:
		out.Message = reason.Tag
	}
	return out
}

package contract

import (
	"context"
	"fmt"

	"github.com/chainorders/upwood-sub002/client/core/transport"
	"github.com/chainorders/upwood-sub002/pkg/types"
)

// InvokeResult 只读调用结果：Success 时 Return 有效，否则 Error/Reject 有效
type InvokeResult[TOut, TErr any] struct {
	Success    bool
	Return     *TOut
	Error      *TErr
	Reject     *ContractError
	UsedEnergy uint64
}

// InvokeRequest 只读调用的上下文
type InvokeRequest struct {
	Contract types.ContractAddress
	Invoker  string
	Amount   uint64
}

// Invoke 在节点上模拟执行 receive 入口，不产生链上交易
func Invoke[TIn, TOut, TErr any](ctx context.Context, node transport.Node, m ReceiveMethod[TIn, TOut, TErr], req InvokeRequest, in TIn) (*InvokeResult[TOut, TErr], error) {
	param, err := m.Serialize(in)
	if err != nil {
		return nil, err
	}
	res, err := node.InvokeContract(ctx, &transport.InvokeContractRequest{
		Invoker:   req.Invoker,
		Contract:  req.Contract,
		Method:    m.ReceiveName(),
		Amount:    transport.Uint64(req.Amount),
		Parameter: param,
		Energy:    transport.Uint64(m.MaxEnergy()),
	})
	if err != nil {
		return nil, fmt.Errorf("invoke %s: %w", m.Method, err)
	}

	out := &InvokeResult[TOut, TErr]{UsedEnergy: uint64(res.UsedEnergy)}
	switch res.Tag {
	case transport.InvokeTagSuccess:
		out.Success = true
		if out.Return, err = m.DecodeReturn(res.ReturnValue); err != nil {
			return nil, err
		}
	case transport.InvokeTagFailure:
		reason := res.Reason
		if reason == nil {
			reason = &transport.RejectReason{}
		}
		if len(reason.ReturnValue) == 0 && len(res.ReturnValue) > 0 {
			copied := *reason
			copied.ReturnValue = res.ReturnValue
			reason = &copied
		}
		if out.Error, out.Reject, err = m.DecodeError(reason); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("invoke %s: unknown result tag %q", m.Method, res.Tag)
	}
	return out, nil
}

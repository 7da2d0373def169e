package transaction

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainorders/upwood-sub002/client/core/contract"
	"github.com/chainorders/upwood-sub002/client/core/schema"
	"github.com/chainorders/upwood-sub002/client/core/transport"
)

func TestClassify(t *testing.T) {
	ret := &schema.Type{Kind: schema.KindU32}
	m := contract.MustReceiveMethod("market", "balance", 1, contract.WithReturnSchema(mustB64(t, ret)))
	buy := buyMethod(t)
	initMethod := contract.MustInitMethod("abcd", "market", 1)

	tests := []struct {
		name    string
		method  *contract.Method
		summary *transport.BlockItemSummary
		kind    OutcomeKind
		message string
		variant string
		ret     any
	}{
		{
			name:    "missing summary",
			method:  m,
			kind:    OutcomeRejected,
			message: "finalized without outcome",
		},
		{
			name:    "not an account transaction",
			method:  m,
			summary: &transport.BlockItemSummary{Type: transport.ItemTypeUpdate},
			kind:    OutcomeRejected,
			message: `unexpected block item type "chainUpdate"`,
		},
		{
			name:    "success decodes return value",
			method:  m,
			summary: &transport.BlockItemSummary{
				Type: transport.ItemTypeAccountTransaction, TransactionType: transport.TxTypeUpdate,
				ReturnValue: []byte{5, 0, 0, 0},
			},
			kind: OutcomeSuccess,
			ret:  json.Number("5"),
		},
		{
			name:    "success with undecodable return value",
			method:  m,
			summary: &transport.BlockItemSummary{
				Type: transport.ItemTypeAccountTransaction, TransactionType: transport.TxTypeUpdate,
				ReturnValue: []byte{5},
			},
			kind: OutcomeSuccess,
		},
		{
			name:    "contract rejection decoded",
			method:  buy,
			summary: &transport.BlockItemSummary{
				Type: transport.ItemTypeAccountTransaction, TransactionType: transport.TxTypeFailed,
				RejectReason: &transport.RejectReason{Tag: transport.RejectTagReceive, Code: -8},
			},
			kind:    OutcomeRejected,
			variant: "InsufficientFunds",
			message: "contract rejected: InsufficientFunds (code -8)",
		},
		{
			name:    "init rejection without error schema",
			method:  initMethod,
			summary: &transport.BlockItemSummary{
				Type: transport.ItemTypeAccountTransaction, TransactionType: transport.TxTypeFailed,
				RejectReason: &transport.RejectReason{Tag: transport.RejectTagInit, Code: -2},
			},
			kind:    OutcomeRejected,
			message: "contract init rejected with code -2",
		},
		{
			name:    "non contract rejection",
			method:  buy,
			summary: &transport.BlockItemSummary{
				Type: transport.ItemTypeAccountTransaction, TransactionType: transport.TxTypeFailed,
				RejectReason: &transport.RejectReason{Tag: transport.RejectTagOutOfEnergy},
			},
			kind:    OutcomeRejected,
			message: "OutOfEnergy",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := Classify(tt.method, tt.summary)
			require.NotNil(t, out)
			assert.Equal(t, tt.kind, out.Kind)
			if tt.message != "" {
				assert.Equal(t, tt.message, out.Message)
			}
			if tt.variant != "" {
				require.NotNil(t, out.Error)
				assert.Equal(t, tt.variant, out.Error.Variant)
			}
			assert.Equal(t, tt.ret, out.Return)
		})
	}
}

func TestClassify_DecodeFailureKeepsRejection(t *testing.T) {
	out := Classify(buyMethod(t), &transport.BlockItemSummary{
		Type: transport.ItemTypeAccountTransaction, TransactionType: transport.TxTypeFailed,
		RejectReason: &transport.RejectReason{Tag: transport.RejectTagReceive, Code: 3},
	})
	assert.Equal(t, OutcomeRejected, out.Kind)
	require.NotNil(t, out.Error)
	assert.Equal(t, int32(3), out.Error.Code)
	assert.Contains(t, out.Message, "matches no variant")
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "init", State{}.String())
	assert.Equal(t, "sent(h, committed)", State{Phase: PhaseSent, Hash: "h", Status: transport.StatusCommitted}.String())
	assert.Equal(t, "finalized(h, success)", State{Phase: PhaseFinalized, Hash: "h", Outcome: &Outcome{}}.String())
}

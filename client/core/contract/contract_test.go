package contract

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/chainorders/upwood-sub002/client/core/schema"
	"github.com/chainorders/upwood-sub002/client/core/transport"
	"github.com/chainorders/upwood-sub002/client/core/transport/transporttest"
	"github.com/chainorders/upwood-sub002/pkg/types"
)

func b64(t *testing.T, typ *schema.Type) string {
	t.Helper()
	s, err := typ.Base64()
	require.NoError(t, err)
	return s
}

func buyParamsType() *schema.Type {
	return &schema.Type{Kind: schema.KindStruct, Fields: schema.Fields{Kind: schema.FieldsNamed, Named: []schema.Field{
		{Name: "token_id", Type: &schema.Type{Kind: schema.KindByteList, Size: schema.SizeU8}},
		{Name: "amount", Type: &schema.Type{Kind: schema.KindU64}},
	}}}
}

// errorsType 标签 7 对应 InsufficientFunds
func errorsType() *schema.Type {
	none := schema.Fields{Kind: schema.FieldsNone}
	return &schema.Type{Kind: schema.KindTaggedEnum, Variants: []schema.Variant{
		{Tag: 0, Name: "ParseError", Fields: none},
		{Tag: 7, Name: "InsufficientFunds", Fields: none},
		{Tag: 9, Name: "Paused", Fields: none},
	}}
}

func TestNewReceiveMethod(t *testing.T) {
	m, err := NewReceiveMethod("market", "buy", 30000,
		WithParamsSchema(b64(t, buyParamsType())),
		WithErrorSchema(b64(t, errorsType())),
		RequireParams(),
		WithParamsShape("Struct{token_id:ByteList<U8>,amount:u64}"),
	)
	require.NoError(t, err)
	assert.Equal(t, KindReceive, m.Kind())
	assert.Equal(t, "market.buy", m.ReceiveName())
	assert.Equal(t, "market.buy", m.String())
	assert.Equal(t, uint64(30000), m.MaxEnergy())
	assert.NotNil(t, m.ParamsType())
	assert.Nil(t, m.ReturnType())
	assert.NotEmpty(t, m.ParamsSchemaBase64())
}

func TestNewMethod_Errors(t *testing.T) {
	_, err := NewReceiveMethod("market", "buy", 1, RequireParams())
	assert.ErrorIs(t, err, ErrSchemaMissing)

	_, err = NewReceiveMethod("market", "buy", 1, WithParamsSchema(b64(t, buyParamsType())), WithParamsShape("u64"))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = NewReceiveMethod("market", "buy", 1, WithReturnShape("u64"))
	assert.ErrorIs(t, err, ErrShapeMismatch)

	_, err = NewReceiveMethod("market", "buy", 1, WithParamsSchema("%%%"))
	assert.ErrorIs(t, err, schema.ErrInvalidSchema)

	_, err = NewReceiveMethod("", "buy", 1)
	assert.ErrorIs(t, err, ErrInvalidMethod)

	_, err = NewInitMethod("", "market", 1)
	assert.ErrorIs(t, err, ErrInvalidMethod)

	assert.Panics(t, func() { MustReceiveMethod("market", "", 1) })
}

func TestNewInitMethod(t *testing.T) {
	m := MustInitMethod("0a1b", "market", 5000)
	assert.Equal(t, KindInit, m.Kind())
	assert.Equal(t, "init_market", m.InitName())
	assert.Equal(t, "0a1b", m.ModuleRef())
	assert.Equal(t, "init_market", m.String())
}

func TestSerializeParams(t *testing.T) {
	noSchema := MustReceiveMethod("market", "pause", 1000)

	_, err := SerializeParams(noSchema, map[string]any{"x": 1})
	assert.ErrorIs(t, err, ErrSchemaMissing)

	out, err := SerializeParams(noSchema, nil)
	require.NoError(t, err)
	assert.Empty(t, out)

	var typedNil *struct{ X int }
	out, err = SerializeParams(noSchema, typedNil)
	require.NoError(t, err)
	assert.Empty(t, out)

	out, err = SerializeParams(noSchema, Empty{})
	require.NoError(t, err)
	assert.Empty(t, out)

	// 无法规整的值在没有参数 schema 时同样报缺失
	_, err = SerializeParams(noSchema, make(chan int))
	assert.ErrorIs(t, err, ErrSchemaMissing)
	assert.NotErrorIs(t, err, schema.ErrSerialize)

	withSchema := MustReceiveMethod("market", "buy", 1000, WithParamsSchema(b64(t, buyParamsType())))
	type buyParams struct {
		TokenID string `json:"token_id"`
		Amount  uint64 `json:"amount"`
	}
	out, err = SerializeParams(withSchema, buyParams{TokenID: "01", Amount: 2})
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 1, 2, 0, 0, 0, 0, 0, 0, 0}, out)

	_, err = SerializeParams(withSchema, map[string]any{"token_id": "01"})
	assert.ErrorIs(t, err, schema.ErrSerialize)
}

func TestDeserializeReturn(t *testing.T) {
	noReturn := MustReceiveMethod("market", "buy", 1)
	v, err := DeserializeReturn(noReturn, []byte{1, 2, 3})
	require.NoError(t, err)
	assert.Nil(t, v)

	m := MustReceiveMethod("market", "balance", 1, WithReturnSchema(b64(t, &schema.Type{Kind: schema.KindU32})))
	v, err = DeserializeReturn(m, []byte{5, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, json.Number("5"), v)

	_, err = DeserializeReturn(m, []byte{5})
	assert.ErrorIs(t, err, ErrDecode)
}

func TestDeserializeError(t *testing.T) {
	m := MustReceiveMethod("market", "buy", 1, WithErrorSchema(b64(t, errorsType())))

	tests := []struct {
		name    string
		reason  *transport.RejectReason
		variant string
		wantErr bool
	}{
		{"code maps to tag", &transport.RejectReason{Code: 7}, "InsufficientFunds", false},
		{"negative code by declaration", &transport.RejectReason{Code: -1}, "ParseError", false},
		{"return value bytes win", &transport.RejectReason{Code: -42, ReturnValue: []byte{9}}, "Paused", false},
		{"unknown code", &transport.RejectReason{Code: 3}, "", true},
		{"malformed bytes", &transport.RejectReason{Code: 7, ReturnValue: []byte{1}}, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ce, err := DeserializeError(m, tt.reason)
			require.NotNil(t, ce)
			assert.Equal(t, tt.reason.Code, ce.Code)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrDecode)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.variant, ce.Variant)
			assert.Equal(t, map[string]any{tt.variant: []any{}}, ce.Value)
		})
	}
}

func TestDeserializeError_NoSchema(t *testing.T) {
	ce, err := DeserializeError(MustReceiveMethod("market", "buy", 1), &transport.RejectReason{Code: -3})
	require.NoError(t, err)
	assert.False(t, ce.Structured())
	assert.Equal(t, int32(-3), ce.Code)
	assert.EqualError(t, ce, "contract rejected with code -3")
}

type marketError struct {
	Variant
}

func TestTypedReceive(t *testing.T) {
	type buyParams struct {
		TokenID string `json:"token_id"`
		Amount  uint64 `json:"amount"`
	}
	m := NewTypedReceive[buyParams, uint32, Variant](MustReceiveMethod("market", "buy", 1,
		WithParamsSchema(b64(t, buyParamsType())),
		WithReturnSchema(b64(t, &schema.Type{Kind: schema.KindU32})),
		WithErrorSchema(b64(t, errorsType())),
	))

	raw, err := m.Serialize(buyParams{TokenID: "", Amount: 1})
	require.NoError(t, err)
	assert.Equal(t, []byte{0, 1, 0, 0, 0, 0, 0, 0, 0}, raw)

	ret, err := m.DecodeReturn([]byte{9, 0, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, uint32(9), *ret)

	typedErr, ce, err := m.DecodeError(&transport.RejectReason{Code: 7})
	require.NoError(t, err)
	assert.Equal(t, "InsufficientFunds", typedErr.Name)
	assert.Equal(t, "InsufficientFunds", ce.Variant)

	assert.Panics(t, func() { NewTypedReceive[Empty, Empty, Empty](MustInitMethod("ref", "market", 1)) })
}

func TestTypedEmptyParams(t *testing.T) {
	m := NewTypedReceive[Empty, Empty, marketError](MustReceiveMethod("market", "pause", 1))
	raw, err := m.Serialize(Empty{})
	require.NoError(t, err)
	assert.Empty(t, raw)

	initMethod := NewTypedInit[Empty, Variant](MustInitMethod("ref", "market", 1))
	raw, err = initMethod.Serialize(Empty{})
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestVariant_JSON(t *testing.T) {
	var v Variant
	require.NoError(t, json.Unmarshal([]byte(`{"Custom":[5]}`), &v))
	assert.Equal(t, "Custom", v.Name)
	assert.JSONEq(t, `[5]`, string(v.Fields))

	out, err := json.Marshal(Variant{Name: "Paused"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"Paused":[]}`, string(out))

	assert.Error(t, json.Unmarshal([]byte(`{"A":[],"B":[]}`), &v))
}

func TestInvoke(t *testing.T) {
	m := NewTypedReceive[Empty, uint32, Variant](MustReceiveMethod("market", "balance", 4000,
		WithReturnSchema(b64(t, &schema.Type{Kind: schema.KindU32})),
		WithErrorSchema(b64(t, errorsType())),
	))
	contractAddr := types.ContractAddress{Index: 3}

	t.Run("success", func(t *testing.T) {
		node := &transporttest.Node{}
		node.On("InvokeContract", mock.Anything, mock.MatchedBy(func(req *transport.InvokeContractRequest) bool {
			return req.Method == "market.balance" && req.Contract == contractAddr && uint64(req.Energy) == 4000 && len(req.Parameter) == 0
		})).Return(&transport.InvokeContractResult{Tag: transport.InvokeTagSuccess, ReturnValue: []byte{2, 0, 0, 0}, UsedEnergy: 12}, nil)

		res, err := Invoke(context.Background(), node, m, InvokeRequest{Contract: contractAddr}, Empty{})
		require.NoError(t, err)
		assert.True(t, res.Success)
		assert.Equal(t, uint32(2), *res.Return)
		assert.Equal(t, uint64(12), res.UsedEnergy)
		node.AssertExpectations(t)
	})

	t.Run("failure", func(t *testing.T) {
		node := &transporttest.Node{}
		node.On("InvokeContract", mock.Anything, mock.Anything).Return(&transport.InvokeContractResult{
			Tag:         transport.InvokeTagFailure,
			ReturnValue: []byte{7},
			Reason:      &transport.RejectReason{Tag: transport.RejectTagReceive, Code: -2},
		}, nil)

		res, err := Invoke(context.Background(), node, m, InvokeRequest{Contract: contractAddr}, Empty{})
		require.NoError(t, err)
		assert.False(t, res.Success)
		require.NotNil(t, res.Error)
		assert.Equal(t, "InsufficientFunds", res.Error.Name)
		assert.Equal(t, int32(-2), res.Reject.Code)
	})
}

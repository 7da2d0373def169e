// Package sponsor 代付交易：用户离线签名许可消息，由代付账户提交 permit 入口
package sponsor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/chainorders/upwood-sub002/client/core/contract"
	"github.com/chainorders/upwood-sub002/client/core/schema"
	"github.com/chainorders/upwood-sub002/client/core/transaction"
	"github.com/chainorders/upwood-sub002/client/core/wallet"
	"github.com/chainorders/upwood-sub002/pkg/types"
)

// PermitEntrypoint 代付合约的许可入口名
const PermitEntrypoint = "permit"

var (
	// ErrInvalidPermit 许可请求不完整
	ErrInvalidPermit = errors.New("invalid permit request")

	// ErrNoSignature 钱包没有返回签名
	ErrNoSignature = errors.New("wallet returned no signature")
)

// PermitMessageType 许可消息的 schema
//
//	PermitMessage { contract_address, nonce: u64, timestamp, entry_point: String<U16>, payload: List<U16, u8> }
func PermitMessageType() *schema.Type {
	return &schema.Type{Kind: schema.KindStruct, Fields: schema.Fields{Kind: schema.FieldsNamed, Named: []schema.Field{
		{Name: "contract_address", Type: &schema.Type{Kind: schema.KindContractAddress}},
		{Name: "nonce", Type: &schema.Type{Kind: schema.KindU64}},
		{Name: "timestamp", Type: &schema.Type{Kind: schema.KindTimestamp}},
		{Name: "entry_point", Type: &schema.Type{Kind: schema.KindString, Size: schema.SizeU16}},
		{Name: "payload", Type: &schema.Type{Kind: schema.KindList, Size: schema.SizeU16, Elem: &schema.Type{Kind: schema.KindU8}}},
	}}}
}

// signaturesType 账户签名：凭证索引 → 密钥索引 → Ed25519 签名
func signaturesType() *schema.Type {
	signature := &schema.Type{Kind: schema.KindEnum, Variants: []schema.Variant{
		{Tag: 0, Name: "Ed25519", Fields: schema.Fields{Kind: schema.FieldsUnnamed, Unnamed: []*schema.Type{
			{Kind: schema.KindByteArray, Len: 64},
		}}},
	}}
	credential := &schema.Type{Kind: schema.KindStruct, Fields: schema.Fields{Kind: schema.FieldsNamed, Named: []schema.Field{
		{Name: "sigs", Type: &schema.Type{Kind: schema.KindMap, Size: schema.SizeU32, Key: &schema.Type{Kind: schema.KindU8}, Value: signature}},
	}}}
	return &schema.Type{Kind: schema.KindStruct, Fields: schema.Fields{Kind: schema.FieldsNamed, Named: []schema.Field{
		{Name: "sigs", Type: &schema.Type{Kind: schema.KindMap, Size: schema.SizeU32, Key: &schema.Type{Kind: schema.KindU8}, Value: credential}},
	}}}
}

// PermitParamType permit 入口参数的 schema：{ signature, signer, message }
func PermitParamType() *schema.Type {
	return &schema.Type{Kind: schema.KindStruct, Fields: schema.Fields{Kind: schema.FieldsNamed, Named: []schema.Field{
		{Name: "signature", Type: signaturesType()},
		{Name: "signer", Type: &schema.Type{Kind: schema.KindAccountAddress}},
		{Name: "message", Type: PermitMessageType()},
	}}}
}

// PermitMethod 构造目标合约的 permit 入口描述
func PermitMethod(contractName string, maxEnergy uint64) (*contract.Method, error) {
	b64, err := PermitParamType().Base64()
	if err != nil {
		return nil, err
	}
	return contract.NewReceiveMethod(contractName, PermitEntrypoint, maxEnergy,
		contract.WithParamsSchema(b64),
		contract.RequireParams(),
	)
}

// Request 一次代付请求
type Request struct {
	// Signer 签名用户账户
	Signer string
	// Contract 目标合约
	Contract types.ContractAddress
	// Method 被代付调用的入口
	Method *contract.Method
	// Params 入口参数（JSON 形态）
	Params any
	// Nonce 合约为签名者记录的下一个 nonce
	Nonce uint64
	// Expiry 许可过期时间
	Expiry time.Time
}

// Permit 已签名的许可
type Permit struct {
	// Message 许可消息（JSON 形态）
	Message map[string]any
	// MessageBytes 用户签名的消息字节
	MessageBytes []byte
	// Signatures 钱包返回的签名
	Signatures wallet.SignatureMap
	// Param permit 入口参数（JSON 形态）
	Param map[string]any
}

// BuildMessage 序列化内层参数并构造许可消息
func BuildMessage(req *Request) (map[string]any, []byte, error) {
	if req == nil || req.Method == nil {
		return nil, nil, fmt.Errorf("%w: missing method", ErrInvalidPermit)
	}
	if req.Method.Kind() != contract.KindReceive {
		return nil, nil, fmt.Errorf("%w: %s is not a receive entrypoint", ErrInvalidPermit, req.Method)
	}
	if req.Expiry.IsZero() {
		return nil, nil, fmt.Errorf("%w: missing expiry", ErrInvalidPermit)
	}
	payload, err := contract.SerializeParams(req.Method, req.Params)
	if err != nil {
		return nil, nil, err
	}
	bytes := make([]any, len(payload))
	for i, b := range payload {
		bytes[i] = json.Number(strconv.Itoa(int(b)))
	}

	msg := map[string]any{
		"contract_address": map[string]any{
			"index":    json.Number(strconv.FormatUint(req.Contract.Index, 10)),
			"subindex": json.Number(strconv.FormatUint(req.Contract.Subindex, 10)),
		},
		"nonce":       json.Number(strconv.FormatUint(req.Nonce, 10)),
		"timestamp":   json.Number(strconv.FormatInt(req.Expiry.UnixMilli(), 10)),
		"entry_point": req.Method.Entrypoint(),
		"payload":     bytes,
	}
	raw, err := schema.Serialize(PermitMessageType(), msg)
	if err != nil {
		return nil, nil, fmt.Errorf("permit message: %w", err)
	}
	return msg, raw, nil
}

// Sign 由钱包对许可消息签名，返回可直接提交给 permit 入口的参数
func Sign(ctx context.Context, w wallet.Wallet, req *Request) (*Permit, error) {
	signer, err := types.ParseAccountAddress(req.signer())
	if err != nil {
		return nil, fmt.Errorf("%w: signer: %v", ErrInvalidPermit, err)
	}
	msg, raw, err := BuildMessage(req)
	if err != nil {
		return nil, err
	}
	msgSchema, err := PermitMessageType().Base64()
	if err != nil {
		return nil, err
	}

	sigs, err := w.SignMessage(ctx, req.Signer, &wallet.Message{Data: raw, Schema: msgSchema})
	if err != nil {
		return nil, err
	}
	sigValue, err := signatureValue(sigs)
	if err != nil {
		return nil, err
	}

	return &Permit{
		Message:      msg,
		MessageBytes: raw,
		Signatures:   sigs,
		Param: map[string]any{
			"signature": sigValue,
			"signer":    signer.String(),
			"message":   msg,
		},
	}, nil
}

func (r *Request) signer() string {
	if r == nil {
		return ""
	}
	return r.Signer
}

// signatureValue 按索引升序转换为 schema 值
func signatureValue(sigs wallet.SignatureMap) (map[string]any, error) {
	creds := make([]int, 0, len(sigs))
	for c, keys := range sigs {
		if len(keys) > 0 {
			creds = append(creds, int(c))
		}
	}
	if len(creds) == 0 {
		return nil, ErrNoSignature
	}
	sort.Ints(creds)

	outer := make([]any, 0, len(creds))
	for _, c := range creds {
		keys := sigs[uint8(c)]
		idx := make([]int, 0, len(keys))
		for k := range keys {
			idx = append(idx, int(k))
		}
		sort.Ints(idx)
		inner := make([]any, 0, len(idx))
		for _, k := range idx {
			inner = append(inner, []any{
				json.Number(strconv.Itoa(k)),
				map[string]any{"Ed25519": []any{keys[uint8(k)]}},
			})
		}
		outer = append(outer, []any{
			json.Number(strconv.Itoa(c)),
			map[string]any{"sigs": inner},
		})
	}
	return map[string]any{"sigs": outer}, nil
}

// TransactionRequest 代付账户提交 permit 的交易请求
func (p *Permit) TransactionRequest(sponsor string, permit *contract.Method, target types.ContractAddress) *transaction.Request {
	return &transaction.Request{
		Account:  sponsor,
		Method:   permit,
		Contract: target,
		Params:   p.Param,
	}
}

package contract

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/chainorders/upwood-sub002/client/core/transport"
)

// Empty 无参数入口的参数类型，序列化为空字节
type Empty struct{}

// ReceiveMethod 带静态类型的 receive 入口
//
// TIn/TOut/TErr 只在编译期约束调用方，运行时编解码完全由 schema 驱动。
// 类型与 schema 一致是构造方的责任，可用 WithParamsShape 等选项在启动时校验。
type ReceiveMethod[TIn, TOut, TErr any] struct {
	*Method
}

// NewTypedReceive 为入口描述绑定静态类型
func NewTypedReceive[TIn, TOut, TErr any](m *Method) ReceiveMethod[TIn, TOut, TErr] {
	if m.Kind() != KindReceive {
		panic(fmt.Sprintf("contract: %s is not a receive method", m))
	}
	return ReceiveMethod[TIn, TOut, TErr]{Method: m}
}

// Serialize 序列化参数
func (r ReceiveMethod[TIn, TOut, TErr]) Serialize(in TIn) ([]byte, error) {
	return SerializeParams(r.Method, in)
}

// DecodeReturn 解码返回值；入口无返回 schema 时返回 nil
func (r ReceiveMethod[TIn, TOut, TErr]) DecodeReturn(data []byte) (*TOut, error) {
	v, err := DeserializeReturn(r.Method, data)
	if err != nil || v == nil {
		return nil, err
	}
	out, err := convert[TOut](v)
	if err != nil {
		return nil, fmt.Errorf("%s return: %w: %v", r.Method, ErrDecode, err)
	}
	return out, nil
}

// DecodeError 解码拒绝原因；无结构化错误时 *TErr 为 nil
func (r ReceiveMethod[TIn, TOut, TErr]) DecodeError(reason *transport.RejectReason) (*TErr, *ContractError, error) {
	return decodeTypedError[TErr](r.Method, reason)
}

// InitMethod 带静态类型的 init 入口
type InitMethod[TIn, TErr any] struct {
	*Method
}

// NewTypedInit 为 init 入口绑定静态类型
func NewTypedInit[TIn, TErr any](m *Method) InitMethod[TIn, TErr] {
	if m.Kind() != KindInit {
		panic(fmt.Sprintf("contract: %s is not an init method", m))
	}
	return InitMethod[TIn, TErr]{Method: m}
}

// Serialize 序列化初始化参数
func (i InitMethod[TIn, TErr]) Serialize(in TIn) ([]byte, error) {
	return SerializeParams(i.Method, in)
}

// DecodeError 解码拒绝原因
func (i InitMethod[TIn, TErr]) DecodeError(reason *transport.RejectReason) (*TErr, *ContractError, error) {
	return decodeTypedError[TErr](i.Method, reason)
}

func decodeTypedError[TErr any](m *Method, reason *transport.RejectReason) (*TErr, *ContractError, error) {
	ce, err := DeserializeError(m, reason)
	if err != nil || ce == nil || ce.Value == nil {
		return nil, ce, err
	}
	out, err := convert[TErr](ce.Value)
	if err != nil {
		return nil, ce, fmt.Errorf("%s error: %w: %v", m, ErrDecode, err)
	}
	return out, ce, nil
}

// convert 通过 JSON 把 JSON 形态的值转换为具体 Go 类型
func convert[T any](v any) (*T, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := new(T)
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return nil, err
	}
	return out, nil
}

// Variant 单键枚举值的通用表示，例如 {"InsufficientFunds": []}
type Variant struct {
	Name   string
	Fields json.RawMessage
}

// UnmarshalJSON 解析单键对象
func (v *Variant) UnmarshalJSON(data []byte) error {
	var o map[string]json.RawMessage
	if err := json.Unmarshal(data, &o); err != nil {
		return err
	}
	if len(o) != 1 {
		return fmt.Errorf("enum value needs exactly one key, got %d", len(o))
	}
	for k, f := range o {
		v.Name, v.Fields = k, f
	}
	return nil
}

// MarshalJSON 编码为单键对象，无字段时为 []
func (v Variant) MarshalJSON() ([]byte, error) {
	fields := v.Fields
	if len(fields) == 0 {
		fields = json.RawMessage("[]")
	}
	return json.Marshal(map[string]json.RawMessage{v.Name: fields})
}

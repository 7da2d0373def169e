package contract

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/chainorders/upwood-sub002/client/core/schema"
	"github.com/chainorders/upwood-sub002/client/core/transport"
)

var (
	// ErrDecode 返回值/错误字节与 schema 不匹配
	ErrDecode = errors.New("decode error")
)

// SerializeParams 按入口的参数 schema 序列化参数
//
// value 为 nil（含 typed nil）或 Empty 时不产生任何字节；未注册参数 schema 却传入值时返回 ErrSchemaMissing。
func SerializeParams(m *Method, value any) ([]byte, error) {
	if isAbsent(value) {
		return []byte{}, nil
	}
	if m.paramsType == nil {
		return nil, fmt.Errorf("%s: %w: no params schema registered", m, ErrSchemaMissing)
	}
	normalized, err := schema.Normalize(value)
	if err != nil {
		return nil, fmt.Errorf("%s params: %w: %v", m, schema.ErrSerialize, err)
	}
	if normalized == nil {
		return []byte{}, nil
	}
	out, err := schema.Serialize(m.paramsType, normalized)
	if err != nil {
		return nil, fmt.Errorf("%s params: %w", m, err)
	}
	return out, nil
}

// isAbsent 参数缺省：nil、typed nil 或 Empty
func isAbsent(value any) bool {
	switch value.(type) {
	case nil, Empty, *Empty:
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// DeserializeReturn 按返回值 schema 解码；未注册 schema 表示入口无返回值，返回 nil
func DeserializeReturn(m *Method, data []byte) (any, error) {
	if m.returnType == nil {
		return nil, nil
	}
	v, err := schema.Deserialize(m.returnType, data)
	if err != nil {
		return nil, fmt.Errorf("%s return: %w: %v", m, ErrDecode, err)
	}
	return v, nil
}

// ContractError 链上拒绝的合约错误
// 未注册错误 schema 时只有 Code；否则 Variant/Value 为解码出的结构化错误
type ContractError struct {
	Code    int32
	Variant string
	Value   any
}

func (e *ContractError) Error() string {
	if e.Variant != "" {
		return fmt.Sprintf("contract rejected: %s (code %d)", e.Variant, e.Code)
	}
	return fmt.Sprintf("contract rejected with code %d", e.Code)
}

// Structured 是否解码出了结构化错误
func (e *ContractError) Structured() bool {
	return e.Value != nil
}

// DeserializeError 按错误 schema 解释拒绝原因
//
// 优先解码拒绝原因携带的返回值字节；节点未给出字节时，把拒绝码映射到枚举变体：
// 负数码 c 对应标签 -c-1（按声明顺序派生的拒绝码），非负码直接作为标签。
// 解码失败时仍返回只含 Code 的 ContractError，同时返回 ErrDecode。
func DeserializeError(m *Method, reason *transport.RejectReason) (*ContractError, error) {
	if reason == nil {
		return nil, fmt.Errorf("%s: %w: nil reject reason", m, ErrDecode)
	}
	ce := &ContractError{Code: reason.Code}
	if m.errorType == nil {
		return ce, nil
	}

	if len(reason.ReturnValue) > 0 {
		v, err := schema.Deserialize(m.errorType, reason.ReturnValue)
		if err != nil {
			return ce, fmt.Errorf("%s error: %w: %v", m, ErrDecode, err)
		}
		ce.Value = v
		ce.Variant = variantName(v)
		return ce, nil
	}

	t := m.errorType
	if t.Kind != schema.KindEnum && t.Kind != schema.KindTaggedEnum {
		return ce, nil
	}
	tag := int64(reason.Code)
	if tag < 0 {
		tag = -tag - 1
	}
	variant, ok := t.VariantByTag(uint32(tag))
	if !ok {
		return ce, fmt.Errorf("%s error: %w: reject code %d matches no variant", m, ErrDecode, reason.Code)
	}
	ce.Variant = variant.Name
	if variant.Fields.Kind == schema.FieldsNone {
		ce.Value = map[string]any{variant.Name: []any{}}
	}
	return ce, nil
}

// variantName 单键对象的键即枚举变体名
func variantName(v any) string {
	o, ok := v.(map[string]any)
	if !ok || len(o) != 1 {
		return ""
	}
	for k := range o {
		return k
	}
	return ""
}

// Package contract 合约入口描述与 schema 驱动的参数/返回值/错误编解码
package contract

import (
	"encoding/base64"
	"errors"
	"fmt"

	"github.com/chainorders/upwood-sub002/client/core/schema"
)

var (
	// ErrSchemaMissing 需要 schema 但入口未注册
	ErrSchemaMissing = errors.New("schema missing")

	// ErrShapeMismatch schema 结构与期望指纹不一致
	ErrShapeMismatch = errors.New("schema shape mismatch")

	// ErrInvalidMethod 入口描述无效
	ErrInvalidMethod = errors.New("invalid contract method")
)

// MethodKind 入口类型
type MethodKind int

const (
	KindReceive MethodKind = iota
	KindInit
)

func (k MethodKind) String() string {
	if k == KindInit {
		return "init"
	}
	return "receive"
}

// Method 合约入口描述（不可变）
// 由代码生成的常量在启动时构造一次，schema 在构造时解析完成
type Method struct {
	kind         MethodKind
	moduleRef    string
	contractName string
	entrypoint   string
	maxEnergy    uint64

	paramsSchema []byte
	returnSchema []byte
	errorSchema  []byte

	paramsType *schema.Type
	returnType *schema.Type
	errorType  *schema.Type
}

type methodConfig struct {
	params, ret, errs string
	requireParams     bool
	paramsShape       string
	returnShape       string
	errorShape        string
}

// MethodOption 构造选项
type MethodOption func(*methodConfig)

// WithParamsSchema 参数 schema（base64）
func WithParamsSchema(b64 string) MethodOption {
	return func(c *methodConfig) { c.params = b64 }
}

// WithReturnSchema 返回值 schema（base64）
func WithReturnSchema(b64 string) MethodOption {
	return func(c *methodConfig) { c.ret = b64 }
}

// WithErrorSchema 错误 schema（base64）
func WithErrorSchema(b64 string) MethodOption {
	return func(c *methodConfig) { c.errs = b64 }
}

// RequireParams 调用方会传入参数，缺少参数 schema 时构造失败
func RequireParams() MethodOption {
	return func(c *methodConfig) { c.requireParams = true }
}

// WithParamsShape 校验参数 schema 的结构指纹（schema.Type.String()）
func WithParamsShape(shape string) MethodOption {
	return func(c *methodConfig) { c.paramsShape = shape }
}

// WithReturnShape 校验返回值 schema 的结构指纹
func WithReturnShape(shape string) MethodOption {
	return func(c *methodConfig) { c.returnShape = shape }
}

// WithErrorShape 校验错误 schema 的结构指纹
func WithErrorShape(shape string) MethodOption {
	return func(c *methodConfig) { c.errorShape = shape }
}

// NewReceiveMethod 创建 receive 入口描述
func NewReceiveMethod(contractName, entrypoint string, maxEnergy uint64, opts ...MethodOption) (*Method, error) {
	if entrypoint == "" {
		return nil, fmt.Errorf("%w: empty entrypoint", ErrInvalidMethod)
	}
	return newMethod(KindReceive, "", contractName, entrypoint, maxEnergy, opts)
}

// NewInitMethod 创建 init 入口描述
func NewInitMethod(moduleRef, contractName string, maxEnergy uint64, opts ...MethodOption) (*Method, error) {
	if moduleRef == "" {
		return nil, fmt.Errorf("%w: empty module reference", ErrInvalidMethod)
	}
	return newMethod(KindInit, moduleRef, contractName, "", maxEnergy, opts)
}

// MustReceiveMethod NewReceiveMethod 的 panic 版本，供生成代码的包级变量使用
func MustReceiveMethod(contractName, entrypoint string, maxEnergy uint64, opts ...MethodOption) *Method {
	m, err := NewReceiveMethod(contractName, entrypoint, maxEnergy, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

// MustInitMethod NewInitMethod 的 panic 版本
func MustInitMethod(moduleRef, contractName string, maxEnergy uint64, opts ...MethodOption) *Method {
	m, err := NewInitMethod(moduleRef, contractName, maxEnergy, opts...)
	if err != nil {
		panic(err)
	}
	return m
}

func newMethod(kind MethodKind, moduleRef, contractName, entrypoint string, maxEnergy uint64, opts []MethodOption) (*Method, error) {
	if contractName == "" {
		return nil, fmt.Errorf("%w: empty contract name", ErrInvalidMethod)
	}
	cfg := &methodConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	m := &Method{
		kind:         kind,
		moduleRef:    moduleRef,
		contractName: contractName,
		entrypoint:   entrypoint,
		maxEnergy:    maxEnergy,
	}

	var err error
	if m.paramsSchema, m.paramsType, err = loadSchema(cfg.params, cfg.paramsShape); err != nil {
		return nil, fmt.Errorf("%s params: %w", m, err)
	}
	if m.returnSchema, m.returnType, err = loadSchema(cfg.ret, cfg.returnShape); err != nil {
		return nil, fmt.Errorf("%s return: %w", m, err)
	}
	if m.errorSchema, m.errorType, err = loadSchema(cfg.errs, cfg.errorShape); err != nil {
		return nil, fmt.Errorf("%s error: %w", m, err)
	}
	if cfg.requireParams && m.paramsType == nil {
		return nil, fmt.Errorf("%s: %w: params schema required", m, ErrSchemaMissing)
	}
	return m, nil
}

func loadSchema(b64, shape string) ([]byte, *schema.Type, error) {
	if b64 == "" {
		if shape != "" {
			return nil, nil, fmt.Errorf("%w: expected %s, no schema", ErrShapeMismatch, shape)
		}
		return nil, nil, nil
	}
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: base64: %v", schema.ErrInvalidSchema, err)
	}
	t, err := schema.ParseType(raw)
	if err != nil {
		return nil, nil, err
	}
	if shape != "" && t.String() != shape {
		return nil, nil, fmt.Errorf("%w: expected %s, got %s", ErrShapeMismatch, shape, t)
	}
	return raw, t, nil
}

// Kind 入口类型
func (m *Method) Kind() MethodKind { return m.kind }

// ModuleRef 模块引用（仅 init）
func (m *Method) ModuleRef() string { return m.moduleRef }

// ContractName 合约名
func (m *Method) ContractName() string { return m.contractName }

// Entrypoint 入口名（init 为空）
func (m *Method) Entrypoint() string { return m.entrypoint }

// MaxEnergy 能量上限
func (m *Method) MaxEnergy() uint64 { return m.maxEnergy }

// ReceiveName contract.entrypoint
func (m *Method) ReceiveName() string { return m.contractName + "." + m.entrypoint }

// InitName init_contract
func (m *Method) InitName() string { return "init_" + m.contractName }

// ParamsType 参数类型，未注册为 nil
func (m *Method) ParamsType() *schema.Type { return m.paramsType }

// ReturnType 返回值类型，未注册为 nil
func (m *Method) ReturnType() *schema.Type { return m.returnType }

// ErrorType 错误类型，未注册为 nil
func (m *Method) ErrorType() *schema.Type { return m.errorType }

// ParamsSchemaBase64 参数 schema 的 base64 形式，未注册为空串
func (m *Method) ParamsSchemaBase64() string {
	if m.paramsSchema == nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(m.paramsSchema)
}

func (m *Method) String() string {
	if m.kind == KindInit {
		return m.InitName()
	}
	return m.ReceiveName()
}

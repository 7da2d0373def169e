// Package wallet 钱包提供方接口：代表用户签名并提交交易
package wallet

import (
	"context"
	"errors"

	"github.com/chainorders/upwood-sub002/client/core/transport"
	"github.com/chainorders/upwood-sub002/pkg/types"
)

var (
	// ErrNoAccount 钱包未连接账户
	ErrNoAccount = errors.New("wallet has no connected account")

	// ErrRejected 用户在钱包中拒绝了请求
	ErrRejected = errors.New("request rejected by wallet user")

	// ErrUnsupported 钱包不支持该操作
	ErrUnsupported = errors.New("operation not supported by wallet")
)

// Wallet 钱包接口
// 交易签名、用户确认与广播均由钱包完成，本接口只关心结果哈希
type Wallet interface {
	// SendTransaction 签名并提交交易，返回交易哈希
	// schema: 参数 schema（base64），供钱包向用户展示参数；可为空
	SendTransaction(ctx context.Context, account string, kind TransactionKind, payload *Payload, schema string) (string, error)

	// SignMessage 对消息签名
	SignMessage(ctx context.Context, account string, msg *Message) (SignatureMap, error)
}

// TransactionKind 交易类型
type TransactionKind string

const (
	KindUpdate       TransactionKind = "update"
	KindInitContract TransactionKind = "initContract"
)

// Payload 合约交易载荷
//   - update: Address + ReceiveName
//   - initContract: ModuleRef + InitName
type Payload struct {
	Amount      transport.Uint64       `json:"amount"`
	Address     *types.ContractAddress `json:"address,omitempty"`
	ReceiveName string                 `json:"receiveName,omitempty"`
	ModuleRef   string                 `json:"moduleRef,omitempty"`
	InitName    string                 `json:"initName,omitempty"`
	MaxEnergy   transport.Uint64       `json:"maxContractExecutionEnergy"`
	Param       transport.HexBytes     `json:"param"`
}

// Message 待签名消息；Schema 非空时钱包按 schema 展示 Data
type Message struct {
	Data   transport.HexBytes `json:"data"`
	Schema string             `json:"schema,omitempty"`
}

// SignatureMap 凭证索引 → 密钥索引 → 签名（十六进制）
type SignatureMap map[uint8]map[uint8]string

// SenderFunc 把一个发送函数适配为 Wallet；不支持消息签名
type SenderFunc func(ctx context.Context, account string, kind TransactionKind, payload *Payload, schema string) (string, error)

// SendTransaction 调用 f
func (f SenderFunc) SendTransaction(ctx context.Context, account string, kind TransactionKind, payload *Payload, schema string) (string, error) {
	return f(ctx, account, kind, payload, schema)
}

// SignMessage 总是返回 ErrUnsupported
func (f SenderFunc) SignMessage(context.Context, string, *Message) (SignatureMap, error) {
	return nil, ErrUnsupported
}

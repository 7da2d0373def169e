// Package types 链上地址等跨包共享的基础类型
package types

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/btcutil/base58"
)

const (
	// AccountAddressSize 账户地址字节长度
	AccountAddressSize = 32

	// accountAddressVersion Base58Check 版本字节
	accountAddressVersion byte = 1
)

var (
	// ErrInvalidAddress 地址格式错误
	ErrInvalidAddress = errors.New("invalid address")
)

// AccountAddress 32 字节账户地址，文本形式为 Base58Check（版本字节 1）
type AccountAddress [AccountAddressSize]byte

// ParseAccountAddress 解析 Base58Check 账户地址
func ParseAccountAddress(s string) (AccountAddress, error) {
	var addr AccountAddress
	payload, version, err := base58.CheckDecode(s)
	if err != nil {
		return addr, fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	if version != accountAddressVersion {
		return addr, fmt.Errorf("%w: unexpected version byte %d", ErrInvalidAddress, version)
	}
	if len(payload) != AccountAddressSize {
		return addr, fmt.Errorf("%w: expected %d bytes, got %d", ErrInvalidAddress, AccountAddressSize, len(payload))
	}
	copy(addr[:], payload)
	return addr, nil
}

// String 返回 Base58Check 编码
func (a AccountAddress) String() string {
	return base58.CheckEncode(a[:], accountAddressVersion)
}

// MarshalJSON 以 Base58Check 字符串序列化
func (a AccountAddress) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.String())
}

// UnmarshalJSON 从 Base58Check 字符串反序列化
func (a *AccountAddress) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAddress, err)
	}
	parsed, err := ParseAccountAddress(s)
	if err != nil {
		return err
	}
	*a = parsed
	return nil
}

// ContractAddress 合约实例地址
type ContractAddress struct {
	Index    uint64 `json:"index"`
	Subindex uint64 `json:"subindex"`
}

// String 形如 <index,subindex>
func (c ContractAddress) String() string {
	return fmt.Sprintf("<%d,%d>", c.Index, c.Subindex)
}

// Package tokenid 定宽小端十六进制的代币 ID 编解码
//
// 合约以固定字节宽度的小端整数表示代币 ID，宽度是每个合约的常量（0~32 字节）。
// 宽度为 0 时代币 ID 的线上形式为空字符串。
package tokenid

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
)

// MaxByteSize 允许的最大字节宽度
const MaxByteSize = 32

var (
	// ErrEncoding 代币 ID 无法按给定宽度编解码
	ErrEncoding = errors.New("token id encoding error")
)

// Encode 将非负整数编码为 byteSize 字节的小端十六进制串
//
// 步骤：大端十六进制 → 左侧补零至 2*byteSize → 按字节翻转。
func Encode(value *big.Int, byteSize int) (string, error) {
	if err := checkSize(byteSize); err != nil {
		return "", err
	}
	if value == nil {
		return "", fmt.Errorf("%w: nil value", ErrEncoding)
	}
	if value.Sign() < 0 {
		return "", fmt.Errorf("%w: negative value %s", ErrEncoding, value)
	}
	// 0 字节的 token id 是单元类型，与取值无关
	if byteSize == 0 {
		return "", nil
	}

	be := value.Bytes()
	if len(be) > byteSize {
		return "", fmt.Errorf("%w: value %s does not fit in %d bytes", ErrEncoding, value, byteSize)
	}

	buf := make([]byte, byteSize)
	// 大端 be 右对齐后翻转，等价于直接倒序写入低位
	for i, b := range be {
		buf[len(be)-1-i] = b
	}
	return hex.EncodeToString(buf), nil
}

// EncodeUint64 Encode 的 uint64 便捷版本
func EncodeUint64(value uint64, byteSize int) (string, error) {
	return Encode(new(big.Int).SetUint64(value), byteSize)
}

// Decode Encode 的逆运算
func Decode(s string, byteSize int) (*big.Int, error) {
	if err := checkSize(byteSize); err != nil {
		return nil, err
	}
	if len(s) != 2*byteSize {
		return nil, fmt.Errorf("%w: expected %d hex chars, got %d", ErrEncoding, 2*byteSize, len(s))
	}
	le, err := hex.DecodeString(strings.ToLower(s))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncoding, err)
	}
	be := make([]byte, len(le))
	for i, b := range le {
		be[len(le)-1-i] = b
	}
	return new(big.Int).SetBytes(be), nil
}

func checkSize(byteSize int) error {
	if byteSize < 0 || byteSize > MaxByteSize {
		return fmt.Errorf("%w: byte size %d out of range [0, %d]", ErrEncoding, byteSize, MaxByteSize)
	}
	return nil
}

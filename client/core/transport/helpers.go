package transport

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// HexBytes 以十六进制字符串传输的字节串
type HexBytes []byte

// MarshalJSON 编码为十六进制字符串
func (h HexBytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(hex.EncodeToString(h))
}

// UnmarshalJSON 解析十六进制字符串（允许 0x 前缀，null 视为空）
func (h *HexBytes) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*h = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("hex bytes: %w", err)
	}
	raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
	if err != nil {
		return fmt.Errorf("hex bytes: %w", err)
	}
	*h = raw
	return nil
}

// Uint64 节点可能以数字或字符串（十进制/0x 十六进制）返回的 uint64
type Uint64 uint64

// MarshalJSON 编码为十进制字符串
func (u Uint64) MarshalJSON() ([]byte, error) {
	return json.Marshal(strconv.FormatUint(uint64(u), 10))
}

// UnmarshalJSON 兼容数字与字符串
func (u *Uint64) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		*u = 0
		return nil
	}
	base := 10
	if strings.HasPrefix(s, "0x") {
		s, base = s[2:], 16
	}
	v, err := strconv.ParseUint(s, base, 64)
	if err != nil {
		return fmt.Errorf("uint64: %w", err)
	}
	*u = Uint64(v)
	return nil
}

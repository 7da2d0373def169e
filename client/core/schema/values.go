package schema

import (
	"encoding/json"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
	"time"
)

// toBigInt 把 JSON 形态的整数值统一转换为 big.Int
func toBigInt(v any) (*big.Int, error) {
	switch n := v.(type) {
	case json.Number:
		return parseBigInt(string(n))
	case string:
		return parseBigInt(n)
	case *big.Int:
		if n == nil {
			return nil, fmt.Errorf("nil integer")
		}
		return new(big.Int).Set(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return nil, fmt.Errorf("non-integral number %v", n)
		}
		f := new(big.Float).SetFloat64(n)
		i, _ := f.Int(nil)
		return i, nil
	case float32:
		return toBigInt(float64(n))
	case int:
		return big.NewInt(int64(n)), nil
	case int8:
		return big.NewInt(int64(n)), nil
	case int16:
		return big.NewInt(int64(n)), nil
	case int32:
		return big.NewInt(int64(n)), nil
	case int64:
		return big.NewInt(n), nil
	case uint:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint16:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint32:
		return new(big.Int).SetUint64(uint64(n)), nil
	case uint64:
		return new(big.Int).SetUint64(n), nil
	default:
		return nil, fmt.Errorf("expected integer, got %T", v)
	}
}

func parseBigInt(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	i, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return nil, fmt.Errorf("invalid integer %q", s)
	}
	return i, nil
}

// integerRange 返回整数类型的取值范围
func integerRange(k Kind) (min, max *big.Int, width int, signed bool) {
	bits := map[Kind]int{
		KindU8: 8, KindU16: 16, KindU32: 32, KindU64: 64, KindU128: 128, KindAmount: 64,
		KindI8: 8, KindI16: 16, KindI32: 32, KindI64: 64, KindI128: 128,
	}[k]
	width = bits / 8
	switch k {
	case KindI8, KindI16, KindI32, KindI64, KindI128:
		signed = true
		max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits-1)), big.NewInt(1))
		min = new(big.Int).Neg(new(big.Int).Lsh(big.NewInt(1), uint(bits-1)))
	default:
		max = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(bits)), big.NewInt(1))
		min = big.NewInt(0)
	}
	return min, max, width, signed
}

// putLE 以 width 字节小端补码写出整数
func putLE(v *big.Int, width int) []byte {
	x := new(big.Int).Set(v)
	if x.Sign() < 0 {
		x.Add(x, new(big.Int).Lsh(big.NewInt(1), uint(width*8)))
	}
	be := x.Bytes()
	out := make([]byte, width)
	for i, b := range be {
		out[len(be)-1-i] = b
	}
	return out
}

// getLE 读取 width 字节小端补码整数
func getLE(b []byte, signed bool) *big.Int {
	be := make([]byte, len(b))
	for i, c := range b {
		be[len(b)-1-i] = c
	}
	x := new(big.Int).SetBytes(be)
	if signed && len(b) > 0 && b[len(b)-1]&0x80 != 0 {
		x.Sub(x, new(big.Int).Lsh(big.NewInt(1), uint(len(b)*8)))
	}
	return x
}

// parseTimestamp 接受 RFC3339 字符串或毫秒整数
func parseTimestamp(v any) (uint64, error) {
	if s, ok := v.(string); ok {
		ts, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp %q: %v", s, err)
		}
		ms := ts.UnixMilli()
		if ms < 0 {
			return 0, fmt.Errorf("timestamp %q before unix epoch", s)
		}
		return uint64(ms), nil
	}
	i, err := toBigInt(v)
	if err != nil {
		return 0, err
	}
	if i.Sign() < 0 || !i.IsUint64() {
		return 0, fmt.Errorf("timestamp %s out of range", i)
	}
	return i.Uint64(), nil
}

func formatTimestamp(ms uint64) string {
	return time.UnixMilli(int64(ms)).UTC().Format(time.RFC3339Nano)
}

var durationUnits = []struct {
	suffix string
	ms     uint64
}{
	{"d", 24 * 60 * 60 * 1000},
	{"h", 60 * 60 * 1000},
	{"ms", 1},
	{"m", 60 * 1000},
	{"s", 1000},
}

// parseDuration 解析 "1d 2h 3m 4s 5ms" 形式，或毫秒整数
func parseDuration(v any) (uint64, error) {
	s, ok := v.(string)
	if !ok {
		i, err := toBigInt(v)
		if err != nil {
			return 0, err
		}
		if i.Sign() < 0 || !i.IsUint64() {
			return 0, fmt.Errorf("duration %s out of range", i)
		}
		return i.Uint64(), nil
	}

	parts := strings.Fields(s)
	if len(parts) == 0 {
		return 0, fmt.Errorf("empty duration")
	}
	var total uint64
	for _, p := range parts {
		matched := false
		for _, u := range durationUnits {
			num, found := strings.CutSuffix(p, u.suffix)
			if !found {
				continue
			}
			n, err := strconv.ParseUint(num, 10, 64)
			if err != nil {
				continue
			}
			if n > (math.MaxUint64-total)/u.ms {
				return 0, fmt.Errorf("duration %q overflows", s)
			}
			total += n * u.ms
			matched = true
			break
		}
		if !matched {
			return 0, fmt.Errorf("invalid duration component %q", p)
		}
	}
	return total, nil
}

func formatDuration(ms uint64) string {
	if ms == 0 {
		return "0ms"
	}
	order := []struct {
		suffix string
		ms     uint64
	}{
		{"d", 24 * 60 * 60 * 1000},
		{"h", 60 * 60 * 1000},
		{"m", 60 * 1000},
		{"s", 1000},
		{"ms", 1},
	}
	var parts []string
	for _, u := range order {
		if n := ms / u.ms; n > 0 {
			parts = append(parts, strconv.FormatUint(n, 10)+u.suffix)
			ms -= n * u.ms
		}
	}
	return strings.Join(parts, " ")
}

// asArray 取 JSON 数组
func asArray(v any) ([]any, error) {
	switch a := v.(type) {
	case []any:
		return a, nil
	case nil:
		return nil, fmt.Errorf("expected array, got null")
	default:
		return nil, fmt.Errorf("expected array, got %T", v)
	}
}

// asObject 取 JSON 对象
func asObject(v any) (map[string]any, error) {
	o, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected object, got %T", v)
	}
	return o, nil
}

// Normalize 将任意 Go 值经 JSON 往返转换为 JSON 形态（整数保留为 json.Number）
func Normalize(v any) (any, error) {
	switch v.(type) {
	case nil, bool, string, json.Number:
		return v, nil
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return DecodeJSON(raw)
}

// DecodeJSON 解析 JSON 文本为 JSON 形态的值，数字保留为 json.Number
func DecodeJSON(raw []byte) (any, error) {
	dec := json.NewDecoder(strings.NewReader(string(raw)))
	dec.UseNumber()
	var out any
	if err := dec.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

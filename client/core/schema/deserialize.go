package schema

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/chainorders/upwood-sub002/pkg/types"
)

var (
	// ErrDeserialize 字节与 schema 不匹配，无法反序列化
	ErrDeserialize = errors.New("schema deserialize error")
)

// Deserialize 按类型 t 解码合约字节，要求恰好消费完所有字节
func Deserialize(t *Type, data []byte) (any, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrDeserialize)
	}
	r := &reader{buf: data}
	v, err := deserializeValue(r, t, "$")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDeserialize, err)
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrDeserialize, r.remaining())
	}
	return v, nil
}

// DeserializeVariant 只解码枚举标签，返回变体名称（不要求消费完字节）
func DeserializeVariant(t *Type, data []byte) (string, error) {
	if t == nil || (t.Kind != KindEnum && t.Kind != KindTaggedEnum) {
		return "", fmt.Errorf("%w: not an enum type", ErrDeserialize)
	}
	r := &reader{buf: data}
	v, err := readVariant(r, t)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDeserialize, err)
	}
	return v.Name, nil
}

func deserializeValue(r *reader, t *Type, path string) (any, error) {
	switch t.Kind {
	case KindUnit:
		return []any{}, nil

	case KindBool:
		b, err := r.u8()
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		switch b {
		case 0:
			return false, nil
		case 1:
			return true, nil
		default:
			return nil, fmt.Errorf("%s: invalid bool byte %d", path, b)
		}

	case KindU8, KindU16, KindU32, KindU64, KindI8, KindI16, KindI32, KindI64:
		_, _, width, signed := integerRange(t.Kind)
		b, err := r.take(width)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		return json.Number(getLE(b, signed).String()), nil

	case KindU128, KindI128, KindAmount:
		_, _, width, signed := integerRange(t.Kind)
		b, err := r.take(width)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		return getLE(b, signed).String(), nil

	case KindAccountAddress:
		b, err := r.take(types.AccountAddressSize)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		var addr types.AccountAddress
		copy(addr[:], b)
		return addr.String(), nil

	case KindContractAddress:
		index, err := r.u64()
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		sub, err := r.u64()
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		return map[string]any{
			"index":    json.Number(strconv.FormatUint(index, 10)),
			"subindex": json.Number(strconv.FormatUint(sub, 10)),
		}, nil

	case KindTimestamp:
		ms, err := r.u64()
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		return formatTimestamp(ms), nil

	case KindDuration:
		ms, err := r.u64()
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		return formatDuration(ms), nil

	case KindPair:
		a, err := deserializeValue(r, t.Key, path+"[0]")
		if err != nil {
			return nil, err
		}
		b, err := deserializeValue(r, t.Value, path+"[1]")
		if err != nil {
			return nil, err
		}
		return []any{a, b}, nil

	case KindList, KindSet:
		n, err := readCount(r, t.Size)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		out := make([]any, 0, n)
		for i := 0; i < n; i++ {
			e, err := deserializeValue(r, t.Elem, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil

	case KindMap:
		n, err := readCount(r, t.Size)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		out := make([]any, 0, n)
		for i := 0; i < n; i++ {
			k, err := deserializeValue(r, t.Key, fmt.Sprintf("%s[%d][0]", path, i))
			if err != nil {
				return nil, err
			}
			v, err := deserializeValue(r, t.Value, fmt.Sprintf("%s[%d][1]", path, i))
			if err != nil {
				return nil, err
			}
			out = append(out, []any{k, v})
		}
		return out, nil

	case KindArray:
		if int(t.Len) > r.remaining() && t.Elem.Kind != KindUnit {
			return nil, fmt.Errorf("%s: array length %d exceeds input", path, t.Len)
		}
		out := make([]any, 0, t.Len)
		for i := uint32(0); i < t.Len; i++ {
			e, err := deserializeValue(r, t.Elem, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out = append(out, e)
		}
		return out, nil

	case KindStruct:
		return deserializeFields(r, t.Fields, path)

	case KindEnum, KindTaggedEnum:
		variant, err := readVariant(r, t)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		inner, err := deserializeFields(r, variant.Fields, path+"."+variant.Name)
		if err != nil {
			return nil, err
		}
		return map[string]any{variant.Name: inner}, nil

	case KindString:
		return readString(r, t.Size, path)

	case KindContractName:
		s, err := readString(r, t.Size, path)
		if err != nil {
			return nil, err
		}
		name, ok := strings.CutPrefix(s, "init_")
		if !ok {
			return nil, fmt.Errorf("%s: contract name %q lacks init_ prefix", path, s)
		}
		return map[string]any{"contract": name}, nil

	case KindReceiveName:
		s, err := readString(r, t.Size, path)
		if err != nil {
			return nil, err
		}
		contract, fn, ok := strings.Cut(s, ".")
		if !ok {
			return nil, fmt.Errorf("%s: receive name %q lacks '.'", path, s)
		}
		return map[string]any{"contract": contract, "func": fn}, nil

	case KindULeb128, KindILeb128:
		v, err := readLeb128(r, t.Len, t.Kind == KindILeb128)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		return v.String(), nil

	case KindByteList:
		n, err := readCount(r, t.Size)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		b, err := r.take(n)
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		return hex.EncodeToString(b), nil

	case KindByteArray:
		b, err := r.take(int(t.Len))
		if err != nil {
			return nil, fmt.Errorf("%s: %v", path, err)
		}
		return hex.EncodeToString(b), nil

	default:
		return nil, fmt.Errorf("%s: unsupported kind %s", path, t.Kind)
	}
}

func deserializeFields(r *reader, f Fields, path string) (any, error) {
	switch f.Kind {
	case FieldsNamed:
		out := make(map[string]any, len(f.Named))
		for _, field := range f.Named {
			v, err := deserializeValue(r, field.Type, path+"."+field.Name)
			if err != nil {
				return nil, err
			}
			out[field.Name] = v
		}
		return out, nil
	case FieldsUnnamed:
		out := make([]any, 0, len(f.Unnamed))
		for i, ft := range f.Unnamed {
			v, err := deserializeValue(r, ft, fmt.Sprintf("%s[%d]", path, i))
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	default:
		return []any{}, nil
	}
}

func readVariant(r *reader, t *Type) (*Variant, error) {
	var tag uint32
	width := 1
	if t.Kind == KindEnum {
		width = t.enumTagWidth()
	}
	switch width {
	case 1:
		b, err := r.u8()
		if err != nil {
			return nil, err
		}
		tag = uint32(b)
	case 2:
		b, err := r.u16()
		if err != nil {
			return nil, err
		}
		tag = uint32(b)
	default:
		b, err := r.u32()
		if err != nil {
			return nil, err
		}
		tag = b
	}
	v, ok := t.VariantByTag(tag)
	if !ok {
		return nil, fmt.Errorf("unknown variant tag %d", tag)
	}
	return v, nil
}

// readCount 读取长度前缀，并保证不超过剩余字节
func readCount(r *reader, size SizeLength) (int, error) {
	n, err := r.length(size)
	if err != nil {
		return 0, err
	}
	if n > uint64(r.remaining()) {
		return 0, fmt.Errorf("length %d exceeds remaining input %d", n, r.remaining())
	}
	return int(n), nil
}

func readString(r *reader, size SizeLength, path string) (string, error) {
	n, err := readCount(r, size)
	if err != nil {
		return "", fmt.Errorf("%s: %v", path, err)
	}
	b, err := r.take(n)
	if err != nil {
		return "", fmt.Errorf("%s: %v", path, err)
	}
	if !utf8.Valid(b) {
		return "", fmt.Errorf("%s: invalid utf-8", path)
	}
	return string(b), nil
}

func readLeb128(r *reader, limit uint32, signed bool) (*big.Int, error) {
	out := new(big.Int)
	var shift uint
	for i := uint32(0); ; i++ {
		if limit > 0 && i >= limit {
			return nil, fmt.Errorf("leb128 exceeds %d bytes", limit)
		}
		b, err := r.u8()
		if err != nil {
			return nil, err
		}
		chunk := new(big.Int).Lsh(big.NewInt(int64(b&0x7f)), shift)
		out.Or(out, chunk)
		shift += 7
		if b&0x80 == 0 {
			if signed && b&0x40 != 0 {
				out.Sub(out, new(big.Int).Lsh(big.NewInt(1), shift))
			}
			return out, nil
		}
	}
}

package schema

import (
	"encoding/hex"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"unicode/utf8"

	"github.com/chainorders/upwood-sub002/pkg/types"
)

var (
	// ErrSerialize 值与 schema 不匹配，无法序列化
	ErrSerialize = errors.New("schema serialize error")
)

// Serialize 按类型 t 把 JSON 形态的值编码为合约字节
func Serialize(t *Type, value any) ([]byte, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil type", ErrSerialize)
	}
	w := &writer{}
	if err := serializeValue(w, t, value, "$"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSerialize, err)
	}
	return w.buf, nil
}

func serializeValue(w *writer, t *Type, v any, path string) error {
	switch t.Kind {
	case KindUnit:
		return nil

	case KindBool:
		b, ok := v.(bool)
		if !ok {
			return fmt.Errorf("%s: expected bool, got %T", path, v)
		}
		if b {
			w.u8(1)
		} else {
			w.u8(0)
		}
		return nil

	case KindU8, KindU16, KindU32, KindU64, KindI8, KindI16, KindI32, KindI64, KindU128, KindI128, KindAmount:
		i, err := toBigInt(v)
		if err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		min, max, width, _ := integerRange(t.Kind)
		if i.Cmp(min) < 0 || i.Cmp(max) > 0 {
			return fmt.Errorf("%s: %s out of range for %s", path, i, t.Kind)
		}
		w.bytes(putLE(i, width))
		return nil

	case KindAccountAddress:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%s: expected address string, got %T", path, v)
		}
		addr, err := types.ParseAccountAddress(s)
		if err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		w.bytes(addr[:])
		return nil

	case KindContractAddress:
		o, err := asObject(v)
		if err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		index, err := toUint64(o["index"])
		if err != nil {
			return fmt.Errorf("%s.index: %v", path, err)
		}
		var sub uint64
		if raw, ok := o["subindex"]; ok {
			if sub, err = toUint64(raw); err != nil {
				return fmt.Errorf("%s.subindex: %v", path, err)
			}
		}
		w.u64(index)
		w.u64(sub)
		return nil

	case KindTimestamp:
		ms, err := parseTimestamp(v)
		if err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		w.u64(ms)
		return nil

	case KindDuration:
		ms, err := parseDuration(v)
		if err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		w.u64(ms)
		return nil

	case KindPair:
		a, err := asArray(v)
		if err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		if len(a) != 2 {
			return fmt.Errorf("%s: pair needs 2 elements, got %d", path, len(a))
		}
		if err := serializeValue(w, t.Key, a[0], path+"[0]"); err != nil {
			return err
		}
		return serializeValue(w, t.Value, a[1], path+"[1]")

	case KindList, KindSet:
		a, err := asArray(v)
		if err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		if err := w.length(t.Size, len(a)); err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		if t.Kind == KindSet {
			return serializeDistinct(w, t.Elem, a, path, false)
		}
		for i, e := range a {
			if err := serializeValue(w, t.Elem, e, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil

	case KindMap:
		a, err := asArray(v)
		if err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		if err := w.length(t.Size, len(a)); err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		pair := &Type{Kind: KindPair, Key: t.Key, Value: t.Value}
		return serializeDistinct(w, pair, a, path, true)

	case KindArray:
		a, err := asArray(v)
		if err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		if len(a) != int(t.Len) {
			return fmt.Errorf("%s: array needs %d elements, got %d", path, t.Len, len(a))
		}
		for i, e := range a {
			if err := serializeValue(w, t.Elem, e, fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil

	case KindStruct:
		return serializeFields(w, t.Fields, v, path)

	case KindEnum, KindTaggedEnum:
		o, err := asObject(v)
		if err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		if len(o) != 1 {
			return fmt.Errorf("%s: enum value needs exactly one key, got %d", path, len(o))
		}
		for name, inner := range o {
			variant, ok := t.VariantByName(name)
			if !ok {
				return fmt.Errorf("%s: unknown variant %q", path, name)
			}
			if t.Kind == KindTaggedEnum {
				w.u8(uint8(variant.Tag))
			} else {
				switch t.enumTagWidth() {
				case 1:
					w.u8(uint8(variant.Tag))
				case 2:
					w.u16(uint16(variant.Tag))
				default:
					w.u32(variant.Tag)
				}
			}
			return serializeFields(w, variant.Fields, inner, path+"."+name)
		}
		return nil

	case KindString:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%s: expected string, got %T", path, v)
		}
		return writeString(w, t.Size, s, path)

	case KindContractName:
		o, err := asObject(v)
		if err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		name, ok := o["contract"].(string)
		if !ok {
			return fmt.Errorf("%s: expected {\"contract\": string}", path)
		}
		return writeString(w, t.Size, "init_"+name, path)

	case KindReceiveName:
		o, err := asObject(v)
		if err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		contract, ok1 := o["contract"].(string)
		fn, ok2 := o["func"].(string)
		if !ok1 || !ok2 {
			return fmt.Errorf("%s: expected {\"contract\": string, \"func\": string}", path)
		}
		return writeString(w, t.Size, contract+"."+fn, path)

	case KindULeb128, KindILeb128:
		i, err := toBigInt(v)
		if err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		encoded, err := encodeLeb128(i, t.Kind == KindILeb128)
		if err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		if t.Len > 0 && uint32(len(encoded)) > t.Len {
			return fmt.Errorf("%s: leb128 value needs %d bytes, limit %d", path, len(encoded), t.Len)
		}
		w.bytes(encoded)
		return nil

	case KindByteList, KindByteArray:
		s, ok := v.(string)
		if !ok {
			return fmt.Errorf("%s: expected hex string, got %T", path, v)
		}
		raw, err := hex.DecodeString(strings.TrimPrefix(s, "0x"))
		if err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		if t.Kind == KindByteArray {
			if len(raw) != int(t.Len) {
				return fmt.Errorf("%s: byte array needs %d bytes, got %d", path, t.Len, len(raw))
			}
		} else if err := w.length(t.Size, len(raw)); err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		w.bytes(raw)
		return nil

	default:
		return fmt.Errorf("%s: unsupported kind %s", path, t.Kind)
	}
}

func serializeFields(w *writer, f Fields, v any, path string) error {
	switch f.Kind {
	case FieldsNamed:
		o, err := asObject(v)
		if err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		for _, field := range f.Named {
			inner, ok := o[field.Name]
			if !ok && field.Type.Kind != KindUnit {
				return fmt.Errorf("%s: missing field %q", path, field.Name)
			}
			if err := serializeValue(w, field.Type, inner, path+"."+field.Name); err != nil {
				return err
			}
		}
		return nil
	case FieldsUnnamed:
		a, err := asArray(v)
		if err != nil {
			return fmt.Errorf("%s: %v", path, err)
		}
		if len(a) != len(f.Unnamed) {
			return fmt.Errorf("%s: expected %d unnamed fields, got %d", path, len(f.Unnamed), len(a))
		}
		for i, ft := range f.Unnamed {
			if err := serializeValue(w, ft, a[i], fmt.Sprintf("%s[%d]", path, i)); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}
}

// serializeDistinct Set 元素与 Map 键不允许重复，保持调用方给出的顺序
func serializeDistinct(w *writer, elem *Type, items []any, path string, keyOnly bool) error {
	seen := make(map[string]struct{}, len(items))
	for i, item := range items {
		sub := &writer{}
		if err := serializeValue(sub, elem, item, fmt.Sprintf("%s[%d]", path, i)); err != nil {
			return err
		}
		key := string(sub.buf)
		if keyOnly {
			kw := &writer{}
			// 序列化已成功，pair 的第一个分量必然可编码
			_ = serializeValue(kw, elem.Key, item.([]any)[0], path)
			key = string(kw.buf)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%s[%d]: duplicate element", path, i)
		}
		seen[key] = struct{}{}
		w.bytes(sub.buf)
	}
	return nil
}

func writeString(w *writer, size SizeLength, s, path string) error {
	if !utf8.ValidString(s) {
		return fmt.Errorf("%s: invalid utf-8", path)
	}
	if err := w.length(size, len(s)); err != nil {
		return fmt.Errorf("%s: %v", path, err)
	}
	w.bytes([]byte(s))
	return nil
}

func toUint64(v any) (uint64, error) {
	i, err := toBigInt(v)
	if err != nil {
		return 0, err
	}
	if i.Sign() < 0 || !i.IsUint64() {
		return 0, fmt.Errorf("%s out of u64 range", i)
	}
	return i.Uint64(), nil
}

// encodeLeb128 无符号/有符号 LEB128 编码
func encodeLeb128(v *big.Int, signed bool) ([]byte, error) {
	x := new(big.Int).Set(v)
	if !signed && x.Sign() < 0 {
		return nil, fmt.Errorf("negative value %s for unsigned leb128", v)
	}
	var out []byte
	mask := big.NewInt(0x7f)
	for {
		b := byte(new(big.Int).And(x, mask).Uint64())
		x.Rsh(x, 7)
		if signed {
			signBit := b&0x40 != 0
			if (x.Sign() == 0 && !signBit) || (x.Cmp(big.NewInt(-1)) == 0 && signBit) {
				return append(out, b), nil
			}
		} else if x.Sign() == 0 {
			return append(out, b), nil
		}
		out = append(out, b|0x80)
	}
}

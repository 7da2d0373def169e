package schema

import (
	"encoding/base64"
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

const (
	// maxDepth 类型嵌套深度上限
	maxDepth = 64
)

var (
	// ErrInvalidSchema schema 字节无法解析
	ErrInvalidSchema = errors.New("invalid schema")
)

// ParseTypeBase64 解析 base64 编码的 schema 类型
func ParseTypeBase64(s string) (*Type, error) {
	raw, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("%w: base64: %v", ErrInvalidSchema, err)
	}
	return ParseType(raw)
}

// ParseType 解析 schema 类型字节，要求恰好消费完所有字节
func ParseType(data []byte) (*Type, error) {
	r := &reader{buf: data}
	t, err := parseType(r, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSchema, err)
	}
	if r.remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes", ErrInvalidSchema, r.remaining())
	}
	return t, nil
}

func parseType(r *reader, depth int) (*Type, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("type nesting exceeds %d", maxDepth)
	}
	tag, err := r.u8()
	if err != nil {
		return nil, err
	}
	t := &Type{Kind: Kind(tag)}

	switch t.Kind {
	case KindUnit, KindBool, KindU8, KindU16, KindU32, KindU64, KindI8, KindI16, KindI32, KindI64,
		KindAmount, KindAccountAddress, KindContractAddress, KindTimestamp, KindDuration,
		KindU128, KindI128:
		return t, nil

	case KindPair:
		if t.Key, err = parseType(r, depth+1); err != nil {
			return nil, err
		}
		if t.Value, err = parseType(r, depth+1); err != nil {
			return nil, err
		}

	case KindList, KindSet:
		if t.Size, err = parseSizeLength(r); err != nil {
			return nil, err
		}
		if t.Elem, err = parseType(r, depth+1); err != nil {
			return nil, err
		}

	case KindMap:
		if t.Size, err = parseSizeLength(r); err != nil {
			return nil, err
		}
		if t.Key, err = parseType(r, depth+1); err != nil {
			return nil, err
		}
		if t.Value, err = parseType(r, depth+1); err != nil {
			return nil, err
		}

	case KindArray:
		if t.Len, err = r.u32(); err != nil {
			return nil, err
		}
		if t.Elem, err = parseType(r, depth+1); err != nil {
			return nil, err
		}

	case KindStruct:
		if t.Fields, err = parseFields(r, depth+1); err != nil {
			return nil, err
		}

	case KindEnum:
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		if int(n) > r.remaining() {
			return nil, fmt.Errorf("enum variant count %d exceeds input", n)
		}
		t.Variants = make([]Variant, 0, n)
		for i := uint32(0); i < n; i++ {
			name, err := r.schemaString()
			if err != nil {
				return nil, err
			}
			fields, err := parseFields(r, depth+1)
			if err != nil {
				return nil, err
			}
			t.Variants = append(t.Variants, Variant{Tag: i, Name: name, Fields: fields})
		}

	case KindTaggedEnum:
		n, err := r.u32()
		if err != nil {
			return nil, err
		}
		if int(n) > r.remaining() || n > 256 {
			return nil, fmt.Errorf("tagged enum variant count %d out of range", n)
		}
		t.Variants = make([]Variant, 0, n)
		for i := uint32(0); i < n; i++ {
			tag, err := r.u8()
			if err != nil {
				return nil, err
			}
			name, err := r.schemaString()
			if err != nil {
				return nil, err
			}
			fields, err := parseFields(r, depth+1)
			if err != nil {
				return nil, err
			}
			if _, dup := t.VariantByTag(uint32(tag)); dup {
				return nil, fmt.Errorf("duplicate tagged enum tag %d", tag)
			}
			t.Variants = append(t.Variants, Variant{Tag: uint32(tag), Name: name, Fields: fields})
		}

	case KindString, KindContractName, KindReceiveName, KindByteList:
		if t.Size, err = parseSizeLength(r); err != nil {
			return nil, err
		}

	case KindULeb128, KindILeb128, KindByteArray:
		if t.Len, err = r.u32(); err != nil {
			return nil, err
		}

	default:
		return nil, fmt.Errorf("unknown type tag %d", tag)
	}
	return t, nil
}

func parseSizeLength(r *reader) (SizeLength, error) {
	b, err := r.u8()
	if err != nil {
		return 0, err
	}
	if b > uint8(SizeU64) {
		return 0, fmt.Errorf("unknown size length %d", b)
	}
	return SizeLength(b), nil
}

func parseFields(r *reader, depth int) (Fields, error) {
	tag, err := r.u8()
	if err != nil {
		return Fields{}, err
	}
	switch FieldsKind(tag) {
	case FieldsNamed:
		n, err := r.u32()
		if err != nil {
			return Fields{}, err
		}
		if int(n) > r.remaining() {
			return Fields{}, fmt.Errorf("field count %d exceeds input", n)
		}
		named := make([]Field, 0, n)
		for i := uint32(0); i < n; i++ {
			name, err := r.schemaString()
			if err != nil {
				return Fields{}, err
			}
			ft, err := parseType(r, depth)
			if err != nil {
				return Fields{}, err
			}
			named = append(named, Field{Name: name, Type: ft})
		}
		return Fields{Kind: FieldsNamed, Named: named}, nil
	case FieldsUnnamed:
		n, err := r.u32()
		if err != nil {
			return Fields{}, err
		}
		if int(n) > r.remaining() {
			return Fields{}, fmt.Errorf("field count %d exceeds input", n)
		}
		unnamed := make([]*Type, 0, n)
		for i := uint32(0); i < n; i++ {
			ft, err := parseType(r, depth)
			if err != nil {
				return Fields{}, err
			}
			unnamed = append(unnamed, ft)
		}
		return Fields{Kind: FieldsUnnamed, Unnamed: unnamed}, nil
	case FieldsNone:
		return Fields{Kind: FieldsNone}, nil
	default:
		return Fields{}, fmt.Errorf("unknown fields tag %d", tag)
	}
}

// MarshalBinary 将类型编码回 schema 字节
func (t *Type) MarshalBinary() ([]byte, error) {
	w := &writer{}
	if err := encodeType(w, t); err != nil {
		return nil, err
	}
	return w.buf, nil
}

// Base64 返回 base64 编码的 schema 字节
func (t *Type) Base64() (string, error) {
	raw, err := t.MarshalBinary()
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}

func encodeType(w *writer, t *Type) error {
	if t == nil {
		return fmt.Errorf("%w: nil type", ErrInvalidSchema)
	}
	w.u8(uint8(t.Kind))
	switch t.Kind {
	case KindPair:
		if err := encodeType(w, t.Key); err != nil {
			return err
		}
		return encodeType(w, t.Value)
	case KindList, KindSet:
		w.u8(uint8(t.Size))
		return encodeType(w, t.Elem)
	case KindMap:
		w.u8(uint8(t.Size))
		if err := encodeType(w, t.Key); err != nil {
			return err
		}
		return encodeType(w, t.Value)
	case KindArray:
		w.u32(t.Len)
		return encodeType(w, t.Elem)
	case KindStruct:
		return encodeFields(w, t.Fields)
	case KindEnum:
		w.u32(uint32(len(t.Variants)))
		for _, v := range t.Variants {
			w.schemaString(v.Name)
			if err := encodeFields(w, v.Fields); err != nil {
				return err
			}
		}
	case KindTaggedEnum:
		w.u32(uint32(len(t.Variants)))
		for _, v := range t.Variants {
			if v.Tag > 0xff {
				return fmt.Errorf("%w: tagged enum tag %d exceeds u8", ErrInvalidSchema, v.Tag)
			}
			w.u8(uint8(v.Tag))
			w.schemaString(v.Name)
			if err := encodeFields(w, v.Fields); err != nil {
				return err
			}
		}
	case KindString, KindContractName, KindReceiveName, KindByteList:
		w.u8(uint8(t.Size))
	case KindULeb128, KindILeb128, KindByteArray:
		w.u32(t.Len)
	default:
		if t.Kind > KindTaggedEnum {
			return fmt.Errorf("%w: unknown kind %d", ErrInvalidSchema, t.Kind)
		}
	}
	return nil
}

func encodeFields(w *writer, f Fields) error {
	w.u8(uint8(f.Kind))
	switch f.Kind {
	case FieldsNamed:
		w.u32(uint32(len(f.Named)))
		for _, field := range f.Named {
			w.schemaString(field.Name)
			if err := encodeType(w, field.Type); err != nil {
				return err
			}
		}
	case FieldsUnnamed:
		w.u32(uint32(len(f.Unnamed)))
		for _, ft := range f.Unnamed {
			if err := encodeType(w, ft); err != nil {
				return err
			}
		}
	}
	return nil
}

// reader 小端字节读取器
type reader struct {
	buf []byte
	pos int
}

func (r *reader) remaining() int { return len(r.buf) - r.pos }

func (r *reader) take(n int) ([]byte, error) {
	if n < 0 || n > r.remaining() {
		return nil, fmt.Errorf("unexpected end of input: need %d bytes at offset %d, have %d", n, r.pos, r.remaining())
	}
	b := r.buf[r.pos : r.pos+n]
	r.pos += n
	return b, nil
}

func (r *reader) u8() (uint8, error) {
	b, err := r.take(1)
	if err != nil {
		return 0, err
	}
	return b[0], nil
}

func (r *reader) u16() (uint16, error) {
	b, err := r.take(2)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint16(b), nil
}

func (r *reader) u32() (uint32, error) {
	b, err := r.take(4)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint32(b), nil
}

func (r *reader) u64() (uint64, error) {
	b, err := r.take(8)
	if err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(b), nil
}

// schemaString schema 内部的字符串：u32 长度 + UTF-8 字节
func (r *reader) schemaString() (string, error) {
	n, err := r.u32()
	if err != nil {
		return "", err
	}
	b, err := r.take(int(n))
	if err != nil {
		return "", err
	}
	if !utf8.Valid(b) {
		return "", errors.New("invalid utf-8 in schema string")
	}
	return string(b), nil
}

// length 按 SizeLength 读取长度前缀
func (r *reader) length(size SizeLength) (uint64, error) {
	switch size {
	case SizeU8:
		v, err := r.u8()
		return uint64(v), err
	case SizeU16:
		v, err := r.u16()
		return uint64(v), err
	case SizeU32:
		v, err := r.u32()
		return uint64(v), err
	case SizeU64:
		return r.u64()
	default:
		return 0, fmt.Errorf("unknown size length %d", size)
	}
}

// writer 小端字节写入器
type writer struct {
	buf []byte
}

func (w *writer) u8(v uint8) { w.buf = append(w.buf, v) }

func (w *writer) u16(v uint16) { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }

func (w *writer) u32(v uint32) { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }

func (w *writer) u64(v uint64) { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }

func (w *writer) bytes(b []byte) { w.buf = append(w.buf, b...) }

func (w *writer) schemaString(s string) {
	w.u32(uint32(len(s)))
	w.bytes([]byte(s))
}

// length 按 SizeLength 写入长度前缀
func (w *writer) length(size SizeLength, n int) error {
	switch size {
	case SizeU8:
		if n > 0xff {
			return fmt.Errorf("length %d exceeds u8", n)
		}
		w.u8(uint8(n))
	case SizeU16:
		if n > 0xffff {
			return fmt.Errorf("length %d exceeds u16", n)
		}
		w.u16(uint16(n))
	case SizeU32:
		if uint64(n) > 0xffffffff {
			return fmt.Errorf("length %d exceeds u32", n)
		}
		w.u32(uint32(n))
	case SizeU64:
		w.u64(uint64(n))
	default:
		return fmt.Errorf("unknown size length %d", size)
	}
	return nil
}

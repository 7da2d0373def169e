// Package schema 合约二进制 schema 的类型描述与编解码
//
// 合约在构建时导出参数/返回值/错误类型的二进制 schema（通常以 base64 分发）。
// 本包负责：
//   - 解析 schema 类型描述（ParseType / ParseTypeBase64）
//   - 依据类型把 JSON 形态的值序列化为合约字节（Serialize）
//   - 把合约字节反序列化为 JSON 形态的值（Deserialize）
//
// JSON 形态约定：对象为 map[string]any，数组为 []any，整数为 json.Number，
// 128 位整数与 Amount 为十进制字符串。
package schema

import (
	"fmt"
	"strings"
)

// Kind 类型标签，数值即 schema 字节中的标签字节
type Kind uint8

const (
	KindUnit Kind = iota
	KindBool
	KindU8
	KindU16
	KindU32
	KindU64
	KindI8
	KindI16
	KindI32
	KindI64
	KindAmount
	KindAccountAddress
	KindContractAddress
	KindTimestamp
	KindDuration
	KindPair
	KindList
	KindSet
	KindMap
	KindArray
	KindStruct
	KindEnum
	KindString
	KindU128
	KindI128
	KindContractName
	KindReceiveName
	KindULeb128
	KindILeb128
	KindByteList
	KindByteArray
	KindTaggedEnum
)

var kindNames = [...]string{
	KindUnit:            "Unit",
	KindBool:            "Bool",
	KindU8:              "u8",
	KindU16:             "u16",
	KindU32:             "u32",
	KindU64:             "u64",
	KindI8:              "i8",
	KindI16:             "i16",
	KindI32:             "i32",
	KindI64:             "i64",
	KindAmount:          "Amount",
	KindAccountAddress:  "AccountAddress",
	KindContractAddress: "ContractAddress",
	KindTimestamp:       "Timestamp",
	KindDuration:        "Duration",
	KindPair:            "Pair",
	KindList:            "List",
	KindSet:             "Set",
	KindMap:             "Map",
	KindArray:           "Array",
	KindStruct:          "Struct",
	KindEnum:            "Enum",
	KindString:          "String",
	KindU128:            "u128",
	KindI128:            "i128",
	KindContractName:    "ContractName",
	KindReceiveName:     "ReceiveName",
	KindULeb128:         "ULeb128",
	KindILeb128:         "ILeb128",
	KindByteList:        "ByteList",
	KindByteArray:       "ByteArray",
	KindTaggedEnum:      "TaggedEnum",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// SizeLength 长度前缀的宽度
type SizeLength uint8

const (
	SizeU8 SizeLength = iota
	SizeU16
	SizeU32
	SizeU64
)

func (s SizeLength) String() string {
	switch s {
	case SizeU8:
		return "U8"
	case SizeU16:
		return "U16"
	case SizeU32:
		return "U32"
	case SizeU64:
		return "U64"
	default:
		return fmt.Sprintf("SizeLength(%d)", uint8(s))
	}
}

// FieldsKind 结构体/枚举变体的字段形式
type FieldsKind uint8

const (
	FieldsNamed FieldsKind = iota
	FieldsUnnamed
	FieldsNone
)

// Field 具名字段
type Field struct {
	Name string
	Type *Type
}

// Fields 字段集合
type Fields struct {
	Kind    FieldsKind
	Named   []Field
	Unnamed []*Type
}

// Variant 枚举变体；普通 Enum 的 Tag 等于下标
type Variant struct {
	Tag    uint32
	Name   string
	Fields Fields
}

// Type schema 类型树节点
type Type struct {
	Kind Kind

	// Size List/Set/Map/String/ContractName/ReceiveName/ByteList 的长度前缀
	Size SizeLength
	// Len Array/ByteArray 的固定长度，或 ULeb128/ILeb128 的最大字节数
	Len uint32

	// Elem List/Set/Array 的元素类型
	Elem *Type
	// Key/Value Map 的键值类型，Pair 的两个分量
	Key   *Type
	Value *Type

	Fields   Fields
	Variants []Variant
}

// VariantByTag 按线上标签查找枚举变体
func (t *Type) VariantByTag(tag uint32) (*Variant, bool) {
	for i := range t.Variants {
		if t.Variants[i].Tag == tag {
			return &t.Variants[i], true
		}
	}
	return nil, false
}

// VariantByName 按名称查找枚举变体
func (t *Type) VariantByName(name string) (*Variant, bool) {
	for i := range t.Variants {
		if t.Variants[i].Name == name {
			return &t.Variants[i], true
		}
	}
	return nil, false
}

// enumTagWidth 普通 Enum 的标签字节数
func (t *Type) enumTagWidth() int {
	switch n := len(t.Variants); {
	case n <= 1<<8:
		return 1
	case n <= 1<<16:
		return 2
	default:
		return 4
	}
}

// String 返回类型的规范结构指纹，可用于启动时校验 schema 形状
func (t *Type) String() string {
	var b strings.Builder
	t.render(&b)
	return b.String()
}

func (t *Type) render(b *strings.Builder) {
	if t == nil {
		b.WriteString("<nil>")
		return
	}
	switch t.Kind {
	case KindPair:
		b.WriteString("Pair<")
		t.Key.render(b)
		b.WriteString(",")
		t.Value.render(b)
		b.WriteString(">")
	case KindList, KindSet:
		fmt.Fprintf(b, "%s<%s,", t.Kind, t.Size)
		t.Elem.render(b)
		b.WriteString(">")
	case KindMap:
		fmt.Fprintf(b, "Map<%s,", t.Size)
		t.Key.render(b)
		b.WriteString(",")
		t.Value.render(b)
		b.WriteString(">")
	case KindArray:
		fmt.Fprintf(b, "Array<%d,", t.Len)
		t.Elem.render(b)
		b.WriteString(">")
	case KindStruct:
		b.WriteString("Struct")
		t.Fields.render(b)
	case KindEnum, KindTaggedEnum:
		b.WriteString(t.Kind.String())
		b.WriteString("{")
		for i, v := range t.Variants {
			if i > 0 {
				b.WriteString(",")
			}
			if t.Kind == KindTaggedEnum {
				fmt.Fprintf(b, "%d:", v.Tag)
			}
			b.WriteString(v.Name)
			if v.Fields.Kind != FieldsNone {
				v.Fields.render(b)
			}
		}
		b.WriteString("}")
	case KindString, KindContractName, KindReceiveName, KindByteList:
		fmt.Fprintf(b, "%s<%s>", t.Kind, t.Size)
	case KindULeb128, KindILeb128, KindByteArray:
		fmt.Fprintf(b, "%s<%d>", t.Kind, t.Len)
	default:
		b.WriteString(t.Kind.String())
	}
}

func (f Fields) render(b *strings.Builder) {
	switch f.Kind {
	case FieldsNamed:
		b.WriteString("{")
		for i, field := range f.Named {
			if i > 0 {
				b.WriteString(",")
			}
			b.WriteString(field.Name)
			b.WriteString(":")
			field.Type.render(b)
		}
		b.WriteString("}")
	case FieldsUnnamed:
		b.WriteString("(")
		for i, ft := range f.Unnamed {
			if i > 0 {
				b.WriteString(",")
			}
			ft.render(b)
		}
		b.WriteString(")")
	default:
		b.WriteString("()")
	}
}

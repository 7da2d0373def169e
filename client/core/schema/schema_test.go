package schema

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chainorders/upwood-sub002/pkg/types"
)

func named(fields ...Field) Fields { return Fields{Kind: FieldsNamed, Named: fields} }

func unitVariant(tag uint32, name string) Variant {
	return Variant{Tag: tag, Name: name, Fields: Fields{Kind: FieldsNone}}
}

func transferParamsType() *Type {
	return &Type{Kind: KindStruct, Fields: named(
		Field{Name: "token_id", Type: &Type{Kind: KindByteList, Size: SizeU8}},
		Field{Name: "amount", Type: &Type{Kind: KindULeb128, Len: 37}},
		Field{Name: "from", Type: &Type{Kind: KindAccountAddress}},
		Field{Name: "to", Type: &Type{Kind: KindContractAddress}},
		Field{Name: "memo", Type: &Type{Kind: KindString, Size: SizeU16}},
		Field{Name: "tags", Type: &Type{Kind: KindList, Size: SizeU32, Elem: &Type{Kind: KindU32}}},
	)}
}

func errorEnumType() *Type {
	return &Type{Kind: KindEnum, Variants: []Variant{
		unitVariant(0, "ParseParams"),
		unitVariant(1, "Unauthorized"),
		unitVariant(2, "InsufficientFunds"),
		{Tag: 3, Name: "Custom", Fields: Fields{Kind: FieldsUnnamed, Unnamed: []*Type{{Kind: KindI32}}}},
	}}
}

func TestParseType_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		typ  *Type
	}{
		{"u8", &Type{Kind: KindU8}},
		{"struct", transferParamsType()},
		{"enum", errorEnumType()},
		{"map", &Type{Kind: KindMap, Size: SizeU8, Key: &Type{Kind: KindString, Size: SizeU8}, Value: &Type{Kind: KindAmount}}},
		{"pair", &Type{Kind: KindPair, Key: &Type{Kind: KindBool}, Value: &Type{Kind: KindI128}}},
		{"array", &Type{Kind: KindArray, Len: 4, Elem: &Type{Kind: KindU16}}},
		{"tagged enum", &Type{Kind: KindTaggedEnum, Variants: []Variant{unitVariant(250, "A"), unitVariant(3, "B")}}},
		{"names", &Type{Kind: KindStruct, Fields: Fields{Kind: FieldsUnnamed, Unnamed: []*Type{
			{Kind: KindContractName, Size: SizeU16}, {Kind: KindReceiveName, Size: SizeU16},
		}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := tt.typ.MarshalBinary()
			require.NoError(t, err)

			parsed, err := ParseType(raw)
			require.NoError(t, err)
			assert.Equal(t, tt.typ.String(), parsed.String())

			b64, err := tt.typ.Base64()
			require.NoError(t, err)
			fromB64, err := ParseTypeBase64(b64)
			require.NoError(t, err)
			assert.Equal(t, parsed, fromB64)
		})
	}
}

func TestParseType_Invalid(t *testing.T) {
	tests := []struct {
		name string
		data []byte
	}{
		{"empty", nil},
		{"unknown tag", []byte{0xEE}},
		{"trailing", []byte{byte(KindU8), 0x00}},
		{"truncated list", []byte{byte(KindList)}},
		{"bad size length", []byte{byte(KindString), 9}},
		{"huge enum count", []byte{byte(KindEnum), 0xff, 0xff, 0xff, 0xff}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseType(tt.data)
			assert.ErrorIs(t, err, ErrInvalidSchema)
		})
	}

	_, err := ParseTypeBase64("!!!")
	assert.ErrorIs(t, err, ErrInvalidSchema)
}

func TestSerialize_Primitives(t *testing.T) {
	tests := []struct {
		name  string
		typ   *Type
		value any
		want  []byte
	}{
		{"bool", &Type{Kind: KindBool}, true, []byte{1}},
		{"u16", &Type{Kind: KindU16}, json.Number("258"), []byte{0x02, 0x01}},
		{"i8 negative", &Type{Kind: KindI8}, -1, []byte{0xff}},
		{"i32 negative", &Type{Kind: KindI32}, json.Number("-2"), []byte{0xfe, 0xff, 0xff, 0xff}},
		{"amount string", &Type{Kind: KindAmount}, "1000", []byte{0xe8, 0x03, 0, 0, 0, 0, 0, 0}},
		{"uleb128", &Type{Kind: KindULeb128, Len: 5}, 624485, []byte{0xe5, 0x8e, 0x26}},
		{"ileb128", &Type{Kind: KindILeb128, Len: 5}, -123456, []byte{0xc0, 0xbb, 0x78}},
		{"string u8", &Type{Kind: KindString, Size: SizeU8}, "hi", []byte{2, 'h', 'i'}},
		{"contract name", &Type{Kind: KindContractName, Size: SizeU8}, map[string]any{"contract": "c"}, []byte{6, 'i', 'n', 'i', 't', '_', 'c'}},
		{"receive name", &Type{Kind: KindReceiveName, Size: SizeU8}, map[string]any{"contract": "c", "func": "f"}, []byte{3, 'c', '.', 'f'}},
		{"byte array", &Type{Kind: KindByteArray, Len: 2}, "abcd", []byte{0xab, 0xcd}},
		{"unit", &Type{Kind: KindUnit}, nil, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Serialize(tt.typ, tt.value)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerialize_Errors(t *testing.T) {
	tests := []struct {
		name  string
		typ   *Type
		value any
	}{
		{"u8 overflow", &Type{Kind: KindU8}, 256},
		{"u64 negative", &Type{Kind: KindU64}, -1},
		{"non integral", &Type{Kind: KindU32}, 1.5},
		{"wrong type", &Type{Kind: KindBool}, "true"},
		{"unknown variant", errorEnumType(), map[string]any{"Nope": []any{}}},
		{"two variant keys", errorEnumType(), map[string]any{"ParseParams": []any{}, "Unauthorized": []any{}}},
		{"missing field", transferParamsType(), map[string]any{"token_id": ""}},
		{"array length", &Type{Kind: KindArray, Len: 2, Elem: &Type{Kind: KindU8}}, []any{1}},
		{"string too long", &Type{Kind: KindString, Size: SizeU8}, string(make([]byte, 300))},
		{"set duplicate", &Type{Kind: KindSet, Size: SizeU8, Elem: &Type{Kind: KindU8}}, []any{1, 1}},
		{"leb limit", &Type{Kind: KindULeb128, Len: 1}, 300},
		{"bad address", &Type{Kind: KindAccountAddress}, "xyz"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Serialize(tt.typ, tt.value)
			assert.ErrorIs(t, err, ErrSerialize)
		})
	}
}

func TestSerializeDeserialize_RoundTrip(t *testing.T) {
	var addr types.AccountAddress
	addr[5] = 9

	value := map[string]any{
		"token_id": "01000000",
		"amount":   "340282366920938463463374607431768211455",
		"from":     addr.String(),
		"to":       map[string]any{"index": json.Number("12"), "subindex": json.Number("0")},
		"memo":     "forest plot 7",
		"tags":     []any{json.Number("1"), json.Number("4294967295")},
	}

	typ := transferParamsType()
	raw, err := Serialize(typ, value)
	require.NoError(t, err)

	decoded, err := Deserialize(typ, raw)
	require.NoError(t, err)
	assert.Equal(t, value, decoded)
}

func TestDeserialize_Enum(t *testing.T) {
	typ := errorEnumType()

	v, err := Deserialize(typ, []byte{2})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"InsufficientFunds": []any{}}, v)

	v, err = Deserialize(typ, []byte{3, 0xf9, 0xff, 0xff, 0xff})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"Custom": []any{json.Number("-7")}}, v)

	name, err := DeserializeVariant(typ, []byte{1})
	require.NoError(t, err)
	assert.Equal(t, "Unauthorized", name)

	_, err = Deserialize(typ, []byte{9})
	assert.ErrorIs(t, err, ErrDeserialize)

	_, err = Deserialize(typ, []byte{2, 0})
	assert.ErrorIs(t, err, ErrDeserialize)
}

func TestDeserialize_Various(t *testing.T) {
	tests := []struct {
		name string
		typ  *Type
		data []byte
		want any
	}{
		{"timestamp", &Type{Kind: KindTimestamp}, []byte{0, 0, 0, 0, 0, 0, 0, 0}, "1970-01-01T00:00:00Z"},
		{"duration", &Type{Kind: KindDuration}, []byte{0xe8, 0x03, 0, 0, 0, 0, 0, 0}, "1s"},
		{"i128", &Type{Kind: KindI128}, append([]byte{0xfe}, repeat(0xff, 15)...), "-2"},
		{"map", &Type{Kind: KindMap, Size: SizeU8, Key: &Type{Kind: KindU8}, Value: &Type{Kind: KindBool}},
			[]byte{1, 7, 1}, []any{[]any{json.Number("7"), true}}},
		{"tagged enum", &Type{Kind: KindTaggedEnum, Variants: []Variant{unitVariant(250, "A")}}, []byte{250}, map[string]any{"A": []any{}}},
		{"ileb128", &Type{Kind: KindILeb128, Len: 4}, []byte{0x7f}, "-1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Deserialize(tt.typ, tt.data)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDeserialize_Malformed(t *testing.T) {
	tests := []struct {
		name string
		typ  *Type
		data []byte
	}{
		{"short u32", &Type{Kind: KindU32}, []byte{1, 2}},
		{"bad bool", &Type{Kind: KindBool}, []byte{2}},
		{"list length beyond input", &Type{Kind: KindList, Size: SizeU32, Elem: &Type{Kind: KindU8}}, []byte{0xff, 0xff, 0xff, 0x7f}},
		{"invalid utf8", &Type{Kind: KindString, Size: SizeU8}, []byte{1, 0xff}},
		{"contract name prefix", &Type{Kind: KindContractName, Size: SizeU8}, []byte{1, 'x'}},
		{"leb128 too long", &Type{Kind: KindULeb128, Len: 1}, []byte{0x80, 0x01}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Deserialize(tt.typ, tt.data)
			assert.ErrorIs(t, err, ErrDeserialize)
		})
	}
}

func TestDuration(t *testing.T) {
	ms, err := parseDuration("1d 2h 3m 4s 5ms")
	require.NoError(t, err)
	assert.Equal(t, uint64(93784005), ms)
	assert.Equal(t, "1d 2h 3m 4s 5ms", formatDuration(ms))

	_, err = parseDuration("3 weeks")
	assert.Error(t, err)
}

func TestType_String(t *testing.T) {
	assert.Equal(t,
		"Struct{token_id:ByteList<U8>,amount:ULeb128<37>,from:AccountAddress,to:ContractAddress,memo:String<U16>,tags:List<U32,u32>}",
		transferParamsType().String())
	assert.Equal(t, "Enum{ParseParams,Unauthorized,InsufficientFunds,Custom(i32)}", errorEnumType().String())
}

func TestNormalize(t *testing.T) {
	type params struct {
		Owner  string `json:"owner"`
		Amount uint64 `json:"amount"`
	}
	v, err := Normalize(params{Owner: "x", Amount: 18446744073709551615})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"owner": "x", "amount": json.Number("18446744073709551615")}, v)
}

func repeat(b byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = b
	}
	return out
}

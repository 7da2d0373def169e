package tokenid

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncode(t *testing.T) {
	tests := []struct {
		name     string
		value    int64
		byteSize int
		want     string
	}{
		{"zero width", 0, 0, ""},
		{"zero width ignores value", 5, 0, ""},
		{"one byte", 1, 1, "01"},
		{"little endian u32", 1, 4, "01000000"},
		{"two bytes", 0x0102, 2, "0201"},
		{"u64 value", 256, 8, "0001000000000000"},
		{"max u8", 255, 1, "ff"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Encode(big.NewInt(tt.value), tt.byteSize)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	tests := []struct {
		name     string
		value    *big.Int
		byteSize int
	}{
		{"negative", big.NewInt(-1), 4},
		{"overflow", big.NewInt(256), 1},
		{"negative in zero width", big.NewInt(-1), 0},
		{"width too large", big.NewInt(1), 33},
		{"negative width", big.NewInt(1), -1},
		{"nil", nil, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.value, tt.byteSize)
			assert.ErrorIs(t, err, ErrEncoding)
		})
	}
}

func TestRoundTrip_AllWidths(t *testing.T) {
	for n := 0; n <= MaxByteSize; n++ {
		// 0, 1, 最大值 256^n-1 以及一个中间值
		max := new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), uint(8*n)), big.NewInt(1))
		values := []*big.Int{big.NewInt(0), max}
		if n > 0 {
			values = append(values, big.NewInt(1), new(big.Int).Rsh(max, 3))
		}

		for _, v := range values {
			encoded, err := Encode(v, n)
			require.NoError(t, err, "n=%d v=%s", n, v)
			assert.Len(t, encoded, 2*n)

			decoded, err := Decode(encoded, n)
			require.NoError(t, err)
			assert.Equal(t, 0, v.Cmp(decoded), "n=%d v=%s decoded=%s", n, v, decoded)
		}
	}
}

func TestEncodeUint64(t *testing.T) {
	got, err := EncodeUint64(0xdeadbeef, 4)
	require.NoError(t, err)
	assert.Equal(t, "efbeadde", got)
}

func TestDecode_Errors(t *testing.T) {
	_, err := Decode("010", 2)
	assert.ErrorIs(t, err, ErrEncoding)

	_, err = Decode("zz", 1)
	assert.ErrorIs(t, err, ErrEncoding)

	v, err := Decode("EFBEADDE", 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xdeadbeef), v.Uint64())
}

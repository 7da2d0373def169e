package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"math/big"
	"testing"

	"github.com/pterm/pterm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{"", FormatJSON, false},
		{"json", FormatJSON, false},
		{"pretty", FormatPretty, false},
		{"table", FormatTable, false},
		{"text", FormatText, false},
		{"yaml", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrUnknownFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrint_JSON(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(FormatJSON, &buf)
	require.NoError(t, f.Print(map[string]any{"amount": "1.50", "id": "<01>"}))
	assert.Equal(t, `{"amount":"1.50","id":"<01>"}`+"\n", buf.String())

	buf.Reset()
	f = NewFormatter(FormatPretty, &buf)
	require.NoError(t, f.Print(map[string]any{"a": 1}))
	assert.Equal(t, "{\n  \"a\": 1\n}\n", buf.String())
}

func TestPrint_Text(t *testing.T) {
	var buf bytes.Buffer
	f := NewFormatter(FormatText, &buf)
	require.NoError(t, f.Print(map[string]any{"token_id": "0100", "value": big.NewInt(1)}))
	assert.Equal(t, "token_id: 0100\nvalue: 1\n", buf.String())

	buf.Reset()
	require.NoError(t, f.Print(json.Number("42")))
	assert.Equal(t, "42\n", buf.String())
}

func TestPrint_Table(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var buf bytes.Buffer
	f := NewFormatter(FormatTable, &buf)
	require.NoError(t, f.Print([]map[string]any{
		{"hash": "h1", "phase": "finalized"},
		{"hash": "h2", "status": nil},
	}))
	out := buf.String()
	for _, s := range []string{"hash", "phase", "status", "h1", "finalized", "h2", "-"} {
		assert.Contains(t, out, s)
	}

	buf.Reset()
	require.NoError(t, f.Print([]int{1, 2}))
	assert.Contains(t, buf.String(), "1,")
}

func TestSilentAndMessages(t *testing.T) {
	pterm.DisableStyling()
	defer pterm.EnableStyling()

	var data, log bytes.Buffer
	f := NewFormatter(FormatJSON, &data)
	f.SetLogWriter(&log)

	f.PrintInfo("watching")
	f.PrintSuccess("finalized")
	assert.Contains(t, log.String(), "watching")
	assert.Contains(t, log.String(), "finalized")
	assert.Empty(t, data.String())

	log.Reset()
	f.SetSilent(true)
	require.NoError(t, f.Print("x"))
	f.PrintWarning("ignored")
	f.PrintError(errors.New("boom"))
	assert.Empty(t, data.String())
	assert.NotContains(t, log.String(), "ignored")
	assert.Contains(t, log.String(), "boom")
	assert.Nil(t, f.Spinner("poll"))
}

package log

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestModuleRoutingCore_RoutesByModuleField(t *testing.T) {
	enc := zapcore.NewJSONEncoder(zapcore.EncoderConfig{MessageKey: "message", LevelKey: "level"})

	var chainBuf, appBuf bytes.Buffer
	core := &moduleRoutingCore{
		chainCore: zapcore.NewCore(enc, zapcore.AddSync(&chainBuf), zapcore.DebugLevel),
		appCore:   zapcore.NewCore(enc, zapcore.AddSync(&appBuf), zapcore.DebugLevel),
	}
	entry := zapcore.Entry{Message: "hello", Level: zapcore.InfoLevel}
	module := func(name string) []zapcore.Field {
		return []zapcore.Field{{Key: "module", Type: zapcore.StringType, String: name}}
	}

	tests := []struct {
		name      string
		core      zapcore.Core
		fields    []zapcore.Field
		wantChain bool
		wantApp   bool
	}{
		{"chain module", core, module("node"), true, false},
		{"app module", core, module("tx"), false, true},
		{"missing module", core, nil, true, true},
		{"unknown module", core, module("other"), true, true},
		{"module bound by With", core.With(module("wallet")), nil, true, false},
		{"entry field overrides bound module", core.With(module("wallet")), module("sponsor"), false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chainBuf.Reset()
			appBuf.Reset()
			require.NoError(t, tt.core.Write(entry, tt.fields))
			assert.Equal(t, tt.wantChain, chainBuf.Len() > 0)
			assert.Equal(t, tt.wantApp, appBuf.Len() > 0)
		})
	}
}

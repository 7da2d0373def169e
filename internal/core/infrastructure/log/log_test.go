package log

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"
	"go.uber.org/zap/zapcore"

	logconfig "github.com/chainorders/upwood-sub002/internal/config/log"
	logInterface "github.com/chainorders/upwood-sub002/pkg/interfaces/infrastructure/log"
)

func consoleLogger(t *testing.T, level string) (logInterface.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	logger, err := newLogger(logconfig.New(&logconfig.LogOptions{Level: level, ToConsole: true}), zapcore.AddSync(&buf))
	require.NoError(t, err)
	return logger, &buf
}

func TestConsoleLog(t *testing.T) {
	logger, buf := consoleLogger(t, InfoLevel)

	logger.Debug("hidden debug")
	logger.Info("submitted transaction")
	logger.With("module", "tx", "hash", "abc").Warnf("poll failed: %s", "timeout")
	require.NoError(t, logger.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden debug")
	assert.Contains(t, out, "submitted transaction")
	assert.Contains(t, out, "poll failed: timeout")
	assert.Contains(t, out, `"module": "tx"`)
	assert.Contains(t, out, `"hash": "abc"`)
}

func TestLogLevels(t *testing.T) {
	logger, buf := consoleLogger(t, WarnLevel)
	logger.Info("info line")
	logger.Warn("warn line")
	logger.Error("error line")

	out := buf.String()
	assert.NotContains(t, out, "info line")
	assert.Contains(t, out, "warn line")
	assert.Contains(t, out, "error line")
}

func TestFileLog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "upwood.log")
	logger, err := New(logconfig.New(&logconfig.LogOptions{Level: DebugLevel, FilePath: path}))
	require.NoError(t, err)

	logger.Debug("file debug")
	logger.With("module", "rpc").Info("file info")
	require.NoError(t, logger.Sync())

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `"message":"file debug"`)
	assert.Contains(t, string(content), `"module":"rpc"`)
}

func TestSplitByModule(t *testing.T) {
	dir := t.TempDir()
	logger, err := New(logconfig.New(&logconfig.LogOptions{
		Level:         InfoLevel,
		FilePath:      filepath.Join(dir, "upwood.log"),
		SplitByModule: true,
	}))
	require.NoError(t, err)

	NewModuleLogger(logger, "wallet").Info("wallet line")
	NewModuleLogger(logger, "tx").Info("tx line")
	logger.Info("untagged line")
	require.NoError(t, logger.Sync())

	chain, err := os.ReadFile(filepath.Join(dir, "upwood-chain.log"))
	require.NoError(t, err)
	app, err := os.ReadFile(filepath.Join(dir, "upwood-app.log"))
	require.NoError(t, err)

	assert.Contains(t, string(chain), "wallet line")
	assert.NotContains(t, string(chain), "tx line")
	assert.Contains(t, string(app), "tx line")
	assert.NotContains(t, string(app), "wallet line")
	assert.Contains(t, string(chain), "untagged line")
	assert.Contains(t, string(app), "untagged line")
}

func TestSetLoggerAndReset(t *testing.T) {
	original := GetLogger()
	t.Cleanup(func() { SetLogger(original) })

	custom, _ := consoleLogger(t, WarnLevel)
	SetLogger(custom)
	assert.Same(t, custom, GetLogger())

	SetLogger(nil)
	assert.Same(t, custom, GetLogger())

	ResetDefault()
	assert.NotSame(t, custom, GetLogger())
}

func TestModule(t *testing.T) {
	original := GetLogger()
	t.Cleanup(func() { SetLogger(original) })

	var logger logInterface.Logger
	app := fxtest.New(t,
		fx.Supply(logconfig.New(&logconfig.LogOptions{Level: ErrorLevel})),
		Module(),
		fx.Populate(&logger),
	)
	app.RequireStart()
	require.NotNil(t, logger)
	assert.Same(t, logger, GetLogger())
	assert.NotNil(t, logger.GetZapLogger())
	app.RequireStop()
}

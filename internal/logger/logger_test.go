package logger

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observe(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := Logger
	Logger = zap.New(core).Sugar()
	t.Cleanup(func() { Logger = prev })
	return logs
}

func TestHelpersAttachFields(t *testing.T) {
	logs := observe(t)

	LogInfo("item created", map[string]any{"itemId": "i1"})
	LogWarn("slow page", nil)
	LogDebug("request", map[string]any{"status": 200})
	LogError("request failed", errors.New("boom"), map[string]any{"path": "/sites"})

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	assert.Equal(t, "i1", entries[0].ContextMap()["itemId"])
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, int64(200), entries[2].ContextMap()["status"])
	assert.Equal(t, "boom", entries[3].ContextMap()["error"])
	assert.Equal(t, "/sites", entries[3].ContextMap()["path"])
}

func TestWithFields(t *testing.T) {
	logs := observe(t)

	WithFields(map[string]any{"flow": "sync"}).Infow("started")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "sync", logs.All()[0].ContextMap()["flow"])
}

func TestInitLoggerWritesFile(t *testing.T) {
	prev := Logger
	t.Cleanup(func() { Logger = prev })

	path := filepath.Join(t.TempDir(), "logs", "webflowcms.log")
	cfg := DefaultConfig()
	cfg.LogFormat = "json"
	cfg.LogFile = path
	require.NoError(t, InitLogger(cfg))

	Logger.Infow("hello")
	_ = Sync()

	assert.FileExists(t, path)
}

package utils

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/cppla/forumlite/config"
)

func TestInitLoggerWritesRollingFile(t *testing.T) {
	prevLogger, prevSugar := Logger, Sugar
	t.Cleanup(func() { Logger, Sugar = prevLogger, prevSugar })

	path := filepath.Join(t.TempDir(), "logs", "app.log")
	cfg := config.Default()
	cfg.LogPath = path
	cfg.LogLevel = "warn"
	require.NoError(t, InitLogger(cfg))

	Sugar.Infow("dropped below level")
	Sugar.Warnw("kept", "post_id", 7)
	_ = Logger.Sync()

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, float64(7), entry["post_id"])
}

func TestInitLoggerSilent(t *testing.T) {
	prevLogger, prevSugar := Logger, Sugar
	t.Cleanup(func() { Logger, Sugar = prevLogger, prevSugar })

	cfg := config.Default()
	cfg.LogLevel = "silent"
	require.NoError(t, InitLogger(cfg))
	assert.False(t, Logger.Core().Enabled(zap.ErrorLevel))
}

package logging

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/natefinch/lumberjack.v2"
)

func decodeLines(t *testing.T, raw []byte) []map[string]any {
	t.Helper()
	var out []map[string]any
	scanner := bufio.NewScanner(bytes.NewReader(raw))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		var rec map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &rec), line)
		out = append(out, rec)
	}
	return out
}

func TestLogger_WarnRecord(t *testing.T) {
	logger, buf := Buffer()

	logger.Warn("access token missing", map[string]any{"route": "/runs"})

	lines := decodeLines(t, buf.Bytes())
	require.Len(t, lines, 1)
	rec := lines[0]
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, "access token missing", rec["msg"])
	assert.Equal(t, "/runs", rec["route"])
	assert.Contains(t, rec, "hostname")
	assert.Contains(t, rec, "datetime")
	assert.Contains(t, rec, "date")
	assert.Contains(t, rec["source"], "TestLogger_WarnRecord")
}

func TestLogger_NilIsSafe(t *testing.T) {
	var logger *Logger
	assert.NotPanics(t, func() {
		logger.Info("ignored", nil)
		logger.Error("ignored", map[string]any{"err": "x"})
	})
	assert.NoError(t, logger.Close())
	assert.NotPanics(t, func() { Discard().Info("dropped", nil) })
}

func TestLogger_ConsoleSink(t *testing.T) {
	var out bytes.Buffer
	logger, err := New(Options{Console: true, Stdout: &out, Hostname: "h"})
	require.NoError(t, err)

	logger.Debug("fetching", map[string]any{"page": 2})

	text := out.String()
	assert.Contains(t, text, "level=DEBUG")
	assert.Contains(t, text, "msg=fetching")
	assert.Contains(t, text, "page=2")
	assert.Contains(t, text, "hostname=h")
}

func TestLogger_FileSinkWritesJSONAndDropsDebug(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cadence.log")
	logger, err := New(Options{FilePath: path, Hostname: "h"})
	require.NoError(t, err)

	logger.Debug("noise", nil)
	logger.Info("request", map[string]any{"status": 200})
	logger.Error("failed", map[string]any{"reason": "x"})
	require.NoError(t, logger.Close())

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := decodeLines(t, raw)
	require.Len(t, lines, 2)
	assert.Equal(t, "INFO", lines[0]["level"])
	assert.Equal(t, float64(200), lines[0]["status"])
	assert.Equal(t, "ERROR", lines[1]["level"])
	assert.Equal(t, "h", lines[1]["hostname"])
}

func TestLogger_FileSinkDefaults(t *testing.T) {
	logger, err := New(Options{FilePath: filepath.Join(t.TempDir(), "cadence.log")})
	require.NoError(t, err)
	defer logger.Close()

	rotator, ok := logger.closer.(*lumberjack.Logger)
	require.True(t, ok, "closer = %T", logger.closer)
	assert.Equal(t, DefaultMaxSizeMB, rotator.MaxSize)
	assert.Equal(t, 1, rotator.MaxSize, "smallest ceiling lumberjack supports")
	assert.Equal(t, DefaultMaxFiles, rotator.MaxBackups)
}

func TestLogger_FileSinkRotates(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cadence.log")
	logger, err := New(Options{FilePath: path, MaxSizeMB: 1, MaxFiles: 2})
	require.NoError(t, err)

	payload := strings.Repeat("x", 16*1024)
	for i := 0; i < 80; i++ {
		logger.Info("bulk", map[string]any{"payload": payload})
	}
	require.NoError(t, logger.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(entries), 2, "expected at least one rotated file")

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.LessOrEqual(t, info.Size(), int64(1024*1024))
}

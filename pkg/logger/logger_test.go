package logger

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelStyles(t *testing.T) {
	tests := []struct {
		level LogLevel
		name  string
		color int
	}{
		{LevelCritical, "CRITICAL", 0xFF0000},
		{LevelError, "ERROR", 0xFF0000},
		{LevelWarn, "WARN", 0xFFFF00},
		{LevelSuccess, "SUCCESS", 0x00FF00},
		{LevelInfo, "INFO", 0x0000FF},
		{LevelDebug, "DEBUG", 0x800080},
		{LevelSystem, "SYSTEM", 0x808080},
		{LogLevel(42), "UNKNOWN", 0xFFFFFF},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.name, tt.level.String())
			assert.Equal(t, tt.color, tt.level.DiscordColor())
			assert.NotEmpty(t, tt.level.Color())
		})
	}
}

func TestWriterLoggerFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWriterLogger(&buf)
	defer l.Close()

	l.Warn("sweep skipped", "Sweep")
	l.Success("sanction issued", "Sanctions")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "[WARN] [Sweep]: sweep skipped")
	assert.Contains(t, lines[1], "[SUCCESS] [Sanctions]: sanction issued")
	assert.NotContains(t, buf.String(), "\033[", "writer logger must not emit ANSI colors")
}

func TestWebhookRouting(t *testing.T) {
	l := NewWriterLogger(io.Discard)
	defer l.Close()
	l.errorWebhookURL = "errors"
	l.logsWebhookURL = "logs"

	assert.Equal(t, "errors", l.webhookFor(LevelCritical))
	assert.Equal(t, "errors", l.webhookFor(LevelError))
	assert.Equal(t, "logs", l.webhookFor(LevelInfo))
	assert.Equal(t, "", l.webhookFor(LevelDebug), "debug lines stay local")
}

func TestWebhookDeliveryFlushesOnClose(t *testing.T) {
	var mu sync.Mutex
	var bodies []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		mu.Lock()
		bodies = append(bodies, string(b))
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	l := newLogger(io.Discard, srv.URL, "")
	l.Error("sweep failed", "Sweep")
	l.Info("not for the error hook", "Sweep")
	l.Close()
	l.Error("after close", "Sweep")

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, bodies, 1)
	assert.Contains(t, bodies[0], "[ERROR] Sweep")
	assert.Contains(t, bodies[0], "sweep failed")
}

func TestNewLoggerCreatesFiles(t *testing.T) {
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	l := NewLogger("", "")
	l.Error("boom", "Test")
	l.Info("fine", "Test")
	l.Close()

	combined, err := os.ReadFile(filepath.Join(dir, "logs", "combined.log"))
	require.NoError(t, err)
	assert.Contains(t, string(combined), "[ERROR] [Test]: boom")
	assert.Contains(t, string(combined), "[INFO] [Test]: fine")

	errs, err := os.ReadFile(filepath.Join(dir, "logs", "error.log"))
	require.NoError(t, err)
	assert.Contains(t, string(errs), "boom")
	assert.NotContains(t, string(errs), "fine")
}

func TestGlobalLoggerInit(t *testing.T) {
	logger = nil
	once = sync.Once{}
	t.Cleanup(func() {
		logger = nil
		once = sync.Once{}
	})

	l := Init("", "")
	require.NotNil(t, l)
	assert.Same(t, l, Init("different", "different"))
	assert.Same(t, l, Get())
}

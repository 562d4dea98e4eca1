package logger

import (
	"bytes"
	"os"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
)

func TestLevels(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	Info("scan for user %d", 7)
	Success("ledger updated")
	Warning("degraded result")
	Error("classifier down: %v", "timeout")

	logged := buf.String()
	assert.Contains(t, logged, "scan for user 7")
	assert.Contains(t, logged, "✓ ledger updated")
	assert.Contains(t, logged, "⚠ degraded result")
	assert.Contains(t, logged, "✗ classifier down: timeout")
}

func TestDebug(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stdout)
		SetDebug(false)
	})

	Debug("hidden %d", 1)
	assert.Empty(t, buf.String())

	SetDebug(true)
	Debug("trace %v", []string{"idle", "failed"})
	assert.Contains(t, buf.String(), "DEBUG: trace [idle failed]")
}

func TestRequest(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(os.Stdout) })

	Request("POST", "/v1/waste/analyze", 200, 1500*time.Millisecond)
	Request("GET", "/health", 404, 300*time.Microsecond)

	logged := buf.String()
	assert.Contains(t, logged, "POST")
	assert.Contains(t, logged, "[200]")
	assert.Contains(t, logged, "(1.50s)")
	assert.Contains(t, logged, "(300µs)")
}

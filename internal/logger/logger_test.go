package logger

import (
	"bytes"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnvLogger_Debug(t *testing.T) {
	tests := []struct {
		name      string
		envValue  string
		expectLog bool
	}{
		{
			name:      "logs when SKM_DEBUG is set",
			envValue:  "1",
			expectLog: true,
		},
		{
			name:      "logs when SKM_DEBUG is any value",
			envValue:  "true",
			expectLog: true,
		},
		{
			name:      "does not log when SKM_DEBUG is empty",
			envValue:  "",
			expectLog: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			log.SetOutput(&buf)
			defer log.SetOutput(os.Stderr)

			if tt.envValue != "" {
				t.Setenv("SKM_DEBUG", tt.envValue)
			} else {
				os.Unsetenv("SKM_DEBUG")
			}

			l := NewEnvLogger("[test]")
			l.Debug("test message %s", "arg")

			if tt.expectLog {
				assert.Contains(t, buf.String(), "[test] test message arg")
			} else {
				assert.Empty(t, buf.String())
			}
		})
	}
}

func TestEnvLogger_Info(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := NewEnvLogger("[info-test]")
	l.Info("info message %d", 42)

	assert.Contains(t, buf.String(), "[info-test] info message 42")
}

func TestEnvLogger_WarnAndError(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := NewEnvLogger("[x]")
	l.Warn("watch out")
	l.Error("it broke")

	assert.Contains(t, buf.String(), "[x] WARN: watch out")
	assert.Contains(t, buf.String(), "[x] ERROR: it broke")
}

func TestNoopLogger(t *testing.T) {
	var buf bytes.Buffer
	log.SetOutput(&buf)
	defer log.SetOutput(os.Stderr)

	l := Noop()
	l.Debug("d")
	l.Info("i")
	l.Warn("w")
	l.Error("e")

	assert.Empty(t, buf.String())
}

func TestBufferLogger(t *testing.T) {
	l := NewBufferLogger()

	l.Debug("debug %d", 1)
	l.Info("info")
	l.Warn("warn")
	l.Error("error")

	assert.Len(t, l.Messages, 4)
	assert.Equal(t, "debug 1", l.Messages[0].Message)
	assert.True(t, l.HasLevel("warn"))
	assert.False(t, l.HasLevel("fatal"))

	l.Clear()
	assert.Empty(t, l.Messages)
}

func TestSetDefault(t *testing.T) {
	original := Default()
	defer SetDefault(original)

	buf := NewBufferLogger()
	SetDefault(buf)

	Default().Info("hello")
	assert.Len(t, buf.Messages, 1)
}

package errors

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestErrorCodes(t *testing.T) {
	codes := []string{
		ErrConfig,
		ErrScan,
		ErrStore,
		ErrParams,
		ErrAgent,
		ErrKeygen,
		ErrFS,
		ErrClipboard,
		ErrExec,
	}

	for _, code := range codes {
		assert.NotEmpty(t, code, "error code should not be empty")
	}

	// Verify codes are unique
	seen := make(map[string]bool)
	for _, code := range codes {
		assert.False(t, seen[code], "error code %q should be unique", code)
		seen[code] = true
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		name       string
		code       string
		message    string
		suggestion string
	}{
		{
			name:       "config error",
			code:       ErrConfig,
			message:    "Invalid configuration in .skm.yaml",
			suggestion: "Check your configuration file syntax",
		},
		{
			name:       "agent error",
			code:       ErrAgent,
			message:    "Cannot reach the SSH agent",
			suggestion: "Check that ssh-agent is running and SSH_AUTH_SOCK is set",
		},
		{
			name:       "keygen error",
			code:       ErrKeygen,
			message:    "ssh-keygen exited with code 1",
			suggestion: "Check the command output for details",
		},
		{
			name:       "params error",
			code:       ErrParams,
			message:    "RSA keys must be at least 2048 bits",
			suggestion: "Use 2048, 3072, or 4096",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.message, tt.suggestion)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.message, err.Message)
			assert.Equal(t, tt.suggestion, err.Suggestion)
			assert.Nil(t, err.Cause)
		})
	}
}

func TestErrorFormatting(t *testing.T) {
	tests := []struct {
		name          string
		err           *Error
		expectedParts []string
	}{
		{
			name: "basic error formatting",
			err:  New(ErrConfig, "Invalid configuration", "Check .skm.yaml syntax"),
			expectedParts: []string{
				"Invalid configuration",
				"Check .skm.yaml syntax",
			},
		},
		{
			name: "error with failure symbol",
			err:  New(ErrAgent, "Agent unreachable", "Start ssh-agent"),
			expectedParts: []string{
				"✗",
				"Agent unreachable",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			output := tt.err.Error()
			for _, part := range tt.expectedParts {
				assert.Contains(t, output, part, "output should contain %q", part)
			}
		})
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying failure")
	wrapped := Wrap(cause, "Operation failed")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrExec, wrapped.Code, "Wrap should default to ErrExec code")
	assert.Equal(t, "Operation failed", wrapped.Message)
	assert.Equal(t, cause, wrapped.Cause)
}

func TestWrapWithCode(t *testing.T) {
	cause := errors.New("file not found")
	wrapped := WrapWithCode(cause, ErrConfig, "Failed to load config", "Create .skm.yaml file")

	require.NotNil(t, wrapped)
	assert.Equal(t, ErrConfig, wrapped.Code)
	assert.Equal(t, "Failed to load config", wrapped.Message)
	assert.Equal(t, "Create .skm.yaml file", wrapped.Suggestion)
	assert.Equal(t, cause, wrapped.Cause)

	// Error message should include cause information
	assert.Contains(t, wrapped.Error(), "file not found")
}

func TestErrorsIs(t *testing.T) {
	cause := errors.New("specific error")
	wrapped := WrapWithCode(cause, ErrScan, "Scan failed", "")

	assert.True(t, errors.Is(wrapped, cause))
}

func TestErrorsAs(t *testing.T) {
	wrapped := New(ErrConfig, "Config error", "Fix config")

	var skmErr *Error
	ok := errors.As(wrapped, &skmErr)

	assert.True(t, ok)
	assert.Equal(t, ErrConfig, skmErr.Code)
}

func TestIsCode(t *testing.T) {
	err := New(ErrConfig, "Config error", "")

	assert.True(t, IsCode(err, ErrConfig))
	assert.False(t, IsCode(err, ErrAgent))
	assert.False(t, IsCode(errors.New("standard error"), ErrConfig))
	assert.False(t, IsCode(nil, ErrConfig))
}

func TestErrorMessageStructure(t *testing.T) {
	err := WrapWithCode(
		errors.New("dial unix: no such file or directory"),
		ErrAgent,
		"Cannot reach the SSH agent",
		"Run: skm doctor",
	)

	output := err.Error()
	lines := strings.Split(output, "\n")

	assert.True(t, strings.HasPrefix(strings.TrimSpace(lines[0]), "✗"), "First line should start with failure symbol")
	assert.Contains(t, lines[0], "Cannot reach the SSH agent")
}

func TestExitError(t *testing.T) {
	tests := []struct {
		name    string
		code    int
		wantMsg string
	}{
		{name: "zero exit code", code: 0, wantMsg: "exit code 0"},
		{name: "non-zero exit code", code: 1, wantMsg: "exit code 1"},
		{name: "signal exit code", code: 137, wantMsg: "exit code 137"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewExitError(tt.code)

			require.NotNil(t, err)
			assert.Equal(t, tt.code, err.Code)
			assert.Equal(t, tt.wantMsg, err.Error())
		})
	}
}

func TestGetExitCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantOk   bool
	}{
		{name: "ExitError returns code", err: NewExitError(42), wantCode: 42, wantOk: true},
		{name: "standard error returns false", err: errors.New("standard error"), wantCode: 0, wantOk: false},
		{name: "nil error returns false", err: nil, wantCode: 0, wantOk: false},
		{name: "structured Error returns false", err: New(ErrExec, "test", ""), wantCode: 0, wantOk: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, ok := GetExitCode(tt.err)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.wantCode, code)
		})
	}
}

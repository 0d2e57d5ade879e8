// Package progress_test tests terminal capability detection and symbol selection.
// Related: internal/progress/terminal.go
// Tags: progress, terminal, capabilities, env-vars, unicode, colors
package progress_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ariel-frischer/agentpipe/internal/progress"
)

func TestDetectTerminalCapabilities(t *testing.T) {
	tests := map[string]struct {
		env                 map[string]string
		wantSupportsColor   bool
		wantSupportsUnicode bool
	}{
		"NO_COLOR disables color": {
			env: map[string]string{"NO_COLOR": "1"},
		},
		"AGENTPIPE_ASCII forces ASCII": {
			env: map[string]string{"AGENTPIPE_ASCII": "1"},
		},
		"both": {
			env: map[string]string{"NO_COLOR": "1", "AGENTPIPE_ASCII": "1"},
		},
	}

	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			caps := progress.DetectTerminalCapabilities()
			if _, ok := tt.env["NO_COLOR"]; ok {
				assert.False(t, caps.SupportsColor)
			}
			if _, ok := tt.env["AGENTPIPE_ASCII"]; ok {
				assert.False(t, caps.SupportsUnicode)
			}
			if !caps.IsTTY {
				assert.Zero(t, caps.Width)
			}
		})
	}
}

func TestSelectSymbols(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		caps progress.TerminalCapabilities
		want progress.ProgressSymbols
	}{
		"unicode": {
			caps: progress.TerminalCapabilities{SupportsUnicode: true},
			want: progress.ProgressSymbols{Checkmark: "✓", Failure: "✗", Warning: "⚠", SpinnerSet: 14},
		},
		"ascii": {
			caps: progress.TerminalCapabilities{},
			want: progress.ProgressSymbols{Checkmark: "[OK]", Failure: "[FAIL]", Warning: "[WARN]", SpinnerSet: 9},
		},
	}

	for name, tt := range tests {
		tt := tt
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, progress.SelectSymbols(tt.caps))
		})
	}
}

func TestStepStatus_String(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "pending", progress.StepPending.String())
	assert.Equal(t, "in_progress", progress.StepInProgress.String())
	assert.Equal(t, "completed", progress.StepCompleted.String())
	assert.Equal(t, "failed", progress.StepFailed.String())
	assert.Equal(t, "unknown", progress.StepStatus(42).String())
}

package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/docmirror/docmirror/internal/config"
)

func TestExecute_UsageErrorsArePrinted(t *testing.T) {
	t.Cleanup(func() { rootCmd.SetArgs(nil) })

	tests := []struct {
		name string
		args []string
		want string
	}{
		{name: "extra argument", args: []string{"list", "extra"}, want: "extra"},
		{name: "unknown flag", args: []string{"list", "--bogus"}, want: "bogus"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			code := execute(tt.args, &stderr)

			assert.Equal(t, 1, code)
			assert.Contains(t, stderr.String(), "Error: ")
			assert.Contains(t, stderr.String(), tt.want)
		})
	}
}

func TestLoggingConfig(t *testing.T) {
	got := loggingConfig(config.LogConfig{
		Level:      "debug",
		File:       "docmirror.log",
		MaxSizeMB:  10,
		MaxBackups: 7,
		MaxAgeDays: 14,
		Caller:     true,
	})

	assert.Equal(t, "debug", got.Level)
	assert.Equal(t, "docmirror.log", got.File)
	assert.Equal(t, 10, got.MaxSizeMB)
	assert.Equal(t, 7, got.MaxBackups)
	assert.Equal(t, 14, got.MaxAgeDays)
	assert.True(t, got.WithCaller)
}

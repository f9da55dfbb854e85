package cli

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	assert.Equal(t, "uvcalc", cmd.Use)
	assert.Equal(t, Version, cmd.Version)

	for _, name := range []string{
		"version", "mass", "elements", "stock", "series", "calibrate",
		"calibrations", "sample", "run", "repl", "init", "doctor", "completion",
	} {
		sub, _, err := cmd.Find([]string{name})
		if assert.NoError(t, err, name) {
			assert.Equal(t, name, sub.Name())
		}
	}

	for _, flag := range []string{"config", "state", "verbose", "output", "precision"} {
		assert.NotNil(t, cmd.PersistentFlags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{"default is info", false, false},
		{"verbose is debug", true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.verbose)

			assert.Equal(t, tt.wantDebug, logger.Enabled(context.Background(), slog.LevelDebug))
			assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))

			logger.Info("saved calibration", slog.String("id", "abc"))
			assert.Contains(t, buf.String(), "id=abc")
		})
	}
}

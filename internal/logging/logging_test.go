package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func restore(t *testing.T) {
	t.Helper()
	logger := logrus.StandardLogger()
	level, formatter := logger.GetLevel(), logger.Formatter
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr)
		logger.SetLevel(level)
		logger.SetFormatter(formatter)
	})
}

func TestSetupJSON(t *testing.T) {
	restore(t)
	var buf bytes.Buffer

	log, err := SetupWriter(&buf, "debug", true)
	require.NoError(t, err)
	log.WithField("atlas", "DMA").Debug("loaded")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "loaded", line["msg"])
	assert.Equal(t, "cli", line["component"])
	assert.Equal(t, "DMA", line["atlas"])
	assert.Equal(t, "debug", line["level"])
}

func TestSetupLevels(t *testing.T) {
	tests := []struct {
		level   string
		want    logrus.Level
		wantErr bool
	}{
		{"", logrus.InfoLevel, false},
		{"warn", logrus.WarnLevel, false},
		{"ERROR", logrus.ErrorLevel, false},
		{"loud", logrus.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			restore(t)
			var buf bytes.Buffer
			_, err := SetupWriter(&buf, tt.level, false)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, logrus.GetLevel())
		})
	}
}

func TestSetupText(t *testing.T) {
	restore(t)
	var buf bytes.Buffer

	log, err := SetupWriter(&buf, "info", false)
	require.NoError(t, err)
	log.Debug("hidden")
	log.Info("shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "msg=shown")
	assert.Contains(t, buf.String(), "component=cli")
}

package logger

import (
	"strings"
	"testing"

	"github.com/hospital-ui/hospital-ui/config"
	"github.com/op/go-logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLevelFromConfig(t *testing.T) {
	lvl, err := LevelFromConfig(config.Warn)
	require.NoError(t, err)
	assert.Equal(t, logging.WARNING, lvl)

	_, err = LevelFromConfig(config.LogLevel("loud"))
	assert.Error(t, err)
}

func TestGetLogsFiltersByLevelNewestFirst(t *testing.T) {
	Info("first info")
	Warning("a warning")
	Debug("some debug")
	Info("second info")

	logs := GetLogs(10, "INFO")
	require.GreaterOrEqual(t, len(logs), 3)
	assert.True(t, strings.HasSuffix(logs[0], "second info"))
	for _, l := range logs {
		assert.NotContains(t, l, "some debug")
	}

	warnings := GetLogs(10, "WARNING")
	require.NotEmpty(t, warnings)
	assert.True(t, strings.HasSuffix(warnings[0], "a warning"))

	assert.Len(t, GetLogs(1, "DEBUG"), 1)
}

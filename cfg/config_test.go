package cfg

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFlagSet(t *testing.T) *pflag.FlagSet {
	t.Helper()
	flagSet := pflag.NewFlagSet("test", pflag.ContinueOnError)
	return flagSet
}

func TestLoadDefaults(t *testing.T) {
	flagSet := newFlagSet(t)
	v, err := BindFlags(flagSet)
	require.NoError(t, err)
	require.NoError(t, flagSet.Parse(nil))

	c, err := Load(v, "")

	require.NoError(t, err)
	assert.Equal(t, DefaultWorkers, c.Pool.Workers)
	assert.False(t, c.Pool.StartPaused)
	assert.Equal(t, DefaultAwaitPollInterval, c.Pool.AwaitPollInterval)
	assert.Equal(t, 30*time.Second, c.Pool.ShutdownTimeout)
	assert.Equal(t, InfoLogSeverity, c.Logging.Severity)
	assert.Equal(t, TextLogFormat, c.Logging.Format)
	assert.EqualValues(t, 512, c.Logging.LogRotate.MaxFileSizeMb)
	assert.True(t, c.Logging.LogRotate.Compress)
	assert.Equal(t, 1000, c.Bench.Tasks)
	assert.NoError(t, ValidateConfig(c))
}

func TestLoadFromFlags(t *testing.T) {
	flagSet := newFlagSet(t)
	v, err := BindFlags(flagSet)
	require.NoError(t, err)
	require.NoError(t, flagSet.Parse([]string{"--workers=3", "--start-paused", "--log-severity=debug", "--await-timeout=2s"}))

	c, err := Load(v, "")

	require.NoError(t, err)
	assert.Equal(t, 3, c.Pool.Workers)
	assert.True(t, c.Pool.StartPaused)
	assert.Equal(t, DebugLogSeverity, c.Logging.Severity)
	assert.Equal(t, 2*time.Second, c.Pool.AwaitTimeout)
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `pool:
  workers: 7
  await-poll-interval: 5ms
logging:
  severity: warning
  format: json
metrics:
  prometheus-port: 9091
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	flagSet := newFlagSet(t)
	v, err := BindFlags(flagSet)
	require.NoError(t, err)
	require.NoError(t, flagSet.Parse([]string{"--workers=2"}))

	c, err := Load(v, path)

	require.NoError(t, err)
	// Explicit flags win over the file.
	assert.Equal(t, 2, c.Pool.Workers)
	assert.Equal(t, 5*time.Millisecond, c.Pool.AwaitPollInterval)
	assert.Equal(t, WarningLogSeverity, c.Logging.Severity)
	assert.Equal(t, JSONLogFormat, c.Logging.Format)
	assert.EqualValues(t, 9091, c.Metrics.PrometheusPort)
}

func TestLoadInvalidSeverity(t *testing.T) {
	flagSet := newFlagSet(t)
	v, err := BindFlags(flagSet)
	require.NoError(t, err)
	require.NoError(t, flagSet.Parse([]string{"--log-severity=loud"}))

	_, err = Load(v, "")

	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	flagSet := newFlagSet(t)
	v, err := BindFlags(flagSet)
	require.NoError(t, err)

	_, err = Load(v, filepath.Join(t.TempDir(), "missing.yaml"))

	assert.Error(t, err)
}

package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"traintrack/internal/config"
)

const testConfigToml = `
[development]
environment = "development"
host = "localhost"
port = 8080
db_path = "./traintrack.db"
log_level = "trace"
log_to_stdout = true

[production]
environment = "production"
host = "0.0.0.0"
port = 9000
db_path = "/var/lib/traintrack/traintrack.db"
log_level = "debug"
logs_path = "/var/log/traintrack/server.log"
sentry_enabled = true
prometheus_metrics_host = "localhost"
prometheus_metrics_port = "2112"
tracing_enabled = true
`

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(testConfigToml), 0o600))

	devCfg, err := config.Load("dev", path)
	require.NoError(t, err)
	assert.Equal(t, 8080, devCfg.Port)
	assert.Equal(t, "./traintrack.db", devCfg.DBPath)
	assert.True(t, devCfg.LogToStdout)
	assert.False(t, devCfg.SentryEnabled)

	prodCfg, err := config.Load("production", path)
	require.NoError(t, err)
	assert.Equal(t, 9000, prodCfg.Port)
	assert.Equal(t, "debug", prodCfg.LogLevel)
	assert.True(t, prodCfg.SentryEnabled)
	assert.True(t, prodCfg.TracingEnabled)

	_, err = config.Load("staging", path)
	assert.Error(t, err)
}

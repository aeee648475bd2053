package executor_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/iotaledger/stream.go/configuration"
	"github.com/iotaledger/stream.go/executor"
)

func TestConfigFromConfiguration(t *testing.T) {
	filePath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(filePath, []byte(`
executor:
  workerCount: 8
  maxWait: 250ms
`), 0o600))

	config := configuration.New()
	require.NoError(t, config.LoadFile(filePath))

	cfg := executor.ConfigFromConfiguration(config, "executor")
	require.Equal(t, 8, cfg.WorkerCount)
	require.Equal(t, 250*time.Millisecond, cfg.MaxWait)

	// keys missing from the file fall back to the defaults
	require.Equal(t, executor.DefaultConfig().CapacityBound, cfg.CapacityBound)
	require.Equal(t, executor.DefaultConfig().MaxBatch, cfg.MaxBatch)
}

func TestConfigFromConfigurationEmpty(t *testing.T) {
	cfg := executor.ConfigFromConfiguration(configuration.New(), "executor")
	require.Equal(t, executor.DefaultConfig(), cfg)
}

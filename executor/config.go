package executor

import (
	"runtime"
	"time"

	"github.com/iotaledger/stream.go/configuration"
)

// Config holds the settings of an Executor.
type Config struct {
	// WorkerCount is the number of goroutines that process submitted computations.
	WorkerCount int `koanf:"workerCount"`

	// CapacityBound is the maximum tolerated number of in-flight computations before new submissions are throttled.
	CapacityBound int `koanf:"capacityBound"`

	// MaxWait is the upper bound on the time a single Harvest call may block.
	MaxWait time.Duration `koanf:"maxWait"`

	// MaxBatch is the maximum number of outcomes returned by a single Harvest call.
	MaxBatch int `koanf:"maxBatch"`
}

// DefaultConfig returns the default executor configuration.
func DefaultConfig() Config {
	return Config{
		WorkerCount:   2 * runtime.NumCPU(),
		CapacityBound: 64,
		MaxWait:       time.Second,
		MaxBatch:      16,
	}
}

// ConfigFromConfiguration reads the executor configuration from the given namespace of the given configuration,
// falling back to the defaults for missing keys.
func ConfigFromConfiguration(config *configuration.Configuration, namespace string) Config {
	cfg := DefaultConfig()

	if config.Exists(namespace + ".workerCount") {
		cfg.WorkerCount = config.Int(namespace + ".workerCount")
	}
	if config.Exists(namespace + ".capacityBound") {
		cfg.CapacityBound = config.Int(namespace + ".capacityBound")
	}
	if config.Exists(namespace + ".maxWait") {
		cfg.MaxWait = config.Duration(namespace + ".maxWait")
	}
	if config.Exists(namespace + ".maxBatch") {
		cfg.MaxBatch = config.Int(namespace + ".maxBatch")
	}

	return cfg
}

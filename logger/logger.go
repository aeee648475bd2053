// Package logger provides zap-backed named loggers that are configured once for the whole process.
package logger

import (
	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/iotaledger/stream.go/syncutils"
)

// Logger instances are used to write log messages of a named scope.
type Logger = zap.SugaredLogger

// ErrGlobalLoggerAlreadyInitialized is returned when the global logger was already initialized.
var ErrGlobalLoggerAlreadyInitialized = errors.New("global logger was already initialized")

var (
	root        = zap.NewNop()
	initialized bool
	mutex       syncutils.Mutex
)

// NewRootLogger creates a new root logger from the given configuration.
func NewRootLogger(cfg Config, opts ...zap.Option) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid log level %q", cfg.Level)
	}

	zapCfg := zap.Config{
		Level:             zap.NewAtomicLevelAt(level),
		Encoding:          cfg.Encoding,
		EncoderConfig:     defaultEncoderConfig,
		OutputPaths:       cfg.OutputPaths,
		ErrorOutputPaths:  cfg.OutputPaths,
		DisableCaller:     cfg.DisableCaller,
		DisableStacktrace: cfg.DisableStacktrace,
	}

	return zapCfg.Build(opts...)
}

// InitGlobalLogger initializes the global logger from the given configuration. It may be called at most once.
func InitGlobalLogger(cfg Config) error {
	mutex.Lock()
	defer mutex.Unlock()

	if initialized {
		return ErrGlobalLoggerAlreadyInitialized
	}

	rootLogger, err := NewRootLogger(cfg)
	if err != nil {
		return err
	}

	root = rootLogger
	initialized = true

	return nil
}

// SetGlobalLogger replaces the global logger (i.e. for tests).
func SetGlobalLogger(logger *zap.Logger) {
	mutex.Lock()
	defer mutex.Unlock()

	root = logger
	initialized = true
}

// NewLogger returns a new named child of the global root logger.
func NewLogger(name string) *Logger {
	mutex.Lock()
	defer mutex.Unlock()

	return root.Named(name).Sugar()
}

// NewNopLogger returns a logger that never writes out logs.
func NewNopLogger() *Logger {
	return zap.NewNop().Sugar()
}

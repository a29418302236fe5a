package logutils

import (
	"os"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	_zapLogger     *zap.Logger
	_initZapLogger sync.Once
)

// ZapLogger returns the process wide logger. Until OverrideRootLogger is called
// it is a production console logger at info level.
func ZapLogger() *zap.Logger {
	_initZapLogger.Do(func() {
		if _zapLogger != nil {
			return
		}
		_zapLogger = newLogger(zapcore.InfoLevel, zapcore.Lock(os.Stderr))
	})
	return _zapLogger
}

// OverrideRootLogger replaces the process wide logger.
func OverrideRootLogger(logger *zap.Logger) {
	_initZapLogger.Do(func() {})
	_zapLogger = logger
}

// NewZapLogger builds a JSON logger at the given level. Output goes to a
// rotated file when opts.Filename is set, to stderr otherwise.
func NewZapLogger(level string, opts FileOptions) (*zap.Logger, error) {
	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
	}

	syncer := zapcore.Lock(os.Stderr)
	if opts.Filename != "" {
		syncer = ZapSyncerWithRotation(opts)
	}

	return newLogger(lvl, syncer), nil
}

func newLogger(level zapcore.Level, syncer zapcore.WriteSyncer) *zap.Logger {
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), syncer, level)
	return zap.New(core, zap.AddCaller())
}

package logging

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/multierr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const fileName = "apiprobe.log"

// NewLogger returns a JSON logger writing to logDir/apiprobe.log with
// rotation. The close func flushes buffered entries and releases the file.
func NewLogger(logDir string) (*zap.Logger, func() error, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, nil, err
	}
	lj := &lumberjack.Logger{
		Filename:   filepath.Join(logDir, fileName),
		MaxSize:    10, // MB
		MaxBackups: 5,
		MaxAge:     14, // days
		Compress:   true,
	}
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "ts"
	core := zapcore.NewCore(zapcore.NewJSONEncoder(cfg), zapcore.AddSync(lj), zap.InfoLevel)
	logger := zap.New(core).With(zap.Int("pid", os.Getpid()))

	closeFn := func() error {
		return multierr.Combine(logger.Sync(), lj.Close())
	}
	return logger, closeFn, nil
}

// OpenOrNop is NewLogger for command-line tools: when the log file cannot be
// opened it reports the problem on stderr and returns a no-op logger.
func OpenOrNop(logDir string) (*zap.Logger, func() error) {
	logger, closeFn, err := NewLogger(logDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logging disabled: %v\n", err)
		return zap.NewNop(), func() error { return nil }
	}
	return logger, closeFn
}

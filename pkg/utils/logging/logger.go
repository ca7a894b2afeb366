package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options controls where logs are written
type Options struct {
	// Dir receives one JSON log file per run. Defaults to "logs".
	Dir string
	// Console receives human-readable output. Defaults to stdout.
	Console io.Writer
	// ConsoleLevel defaults to Info; the file always records Debug and above.
	ConsoleLevel zapcore.Level
	// Now stamps the file name. Defaults to time.Now.
	Now func() time.Time
}

// InitLogger initializes a zap logger with console and file outputs
// env is used to prefix the log file name
func InitLogger(env string) (*zap.Logger, error) {
	logger, _, err := New(env, Options{})
	return logger, err
}

// New builds the tee logger and returns it with the path of its log file
func New(env string, opts Options) (*zap.Logger, string, error) {
	if opts.Dir == "" {
		opts.Dir = "logs"
	}
	if opts.Console == nil {
		opts.Console = os.Stdout
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if env == "" {
		env = "default"
	}

	if err := os.MkdirAll(opts.Dir, 0755); err != nil {
		return nil, "", fmt.Errorf("failed to create logs directory: %w", err)
	}

	timestamp := opts.Now().Format("2006-01-02_15-04-05")
	logFileName := filepath.Join(opts.Dir, fmt.Sprintf("%s_%s.log", env, timestamp))
	logFile, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, "", fmt.Errorf("failed to open log file: %w", err)
	}

	consoleEncoderConfig := zap.NewDevelopmentEncoderConfig()
	consoleEncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	consoleEncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder

	fileEncoderConfig := zap.NewProductionEncoderConfig()
	fileEncoderConfig.TimeKey = "timestamp"
	fileEncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig), zapcore.AddSync(opts.Console), opts.ConsoleLevel),
		zapcore.NewCore(zapcore.NewJSONEncoder(fileEncoderConfig), zapcore.AddSync(logFile), zapcore.DebugLevel),
	)

	logger := zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("env", env))

	return logger, logFileName, nil
}

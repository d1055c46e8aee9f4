package utils

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	defaultLogLevel              = "info"
	logFileTimeKey               = "time"
	logFileLevelKey              = "level"
	logFileMessageKey            = "message"
	logDirectoryPermissions      = 0o755
	invalidLogLevelMessageFormat = "invalid log level %q: %w"
	logDirectoryMessageFormat    = "create log directory %s: %w"
)

// LoggerOptions configures the application logger. FilePath enables a second,
// rotating JSON sink in addition to the console.
type LoggerOptions struct {
	Level          string
	FilePath       string
	FileMaxSize    int
	FileMaxBackups int
	FileMaxAge     int
	FileCompress   bool
}

// NewApplicationLogger constructs a zap logger configured for human-readable console output.
func NewApplicationLogger(options LoggerOptions) (*zap.Logger, error) {
	levelName := strings.TrimSpace(options.Level)
	if levelName == "" {
		levelName = defaultLogLevel
	}
	level, levelError := zap.ParseAtomicLevel(levelName)
	if levelError != nil {
		return nil, fmt.Errorf(invalidLogLevelMessageFormat, levelName, levelError)
	}

	config := zap.NewProductionConfig()
	config.Level = level
	config.Encoding = "console"
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	config.EncoderConfig.TimeKey = ""
	config.EncoderConfig.LevelKey = ""
	config.EncoderConfig.NameKey = ""
	config.EncoderConfig.CallerKey = ""
	config.EncoderConfig.MessageKey = "message"
	config.EncoderConfig.StacktraceKey = ""
	consoleLogger, buildError := config.Build()
	if buildError != nil {
		return nil, buildError
	}
	if strings.TrimSpace(options.FilePath) == "" {
		return consoleLogger, nil
	}

	fileCore, fileError := newRotatingFileCore(options, level)
	if fileError != nil {
		return nil, fileError
	}
	return consoleLogger.WithOptions(zap.WrapCore(func(consoleCore zapcore.Core) zapcore.Core {
		return zapcore.NewTee(consoleCore, fileCore)
	})), nil
}

func newRotatingFileCore(options LoggerOptions, level zap.AtomicLevel) (zapcore.Core, error) {
	filePath := ExpandHomePath(options.FilePath)
	directory := filepath.Dir(filePath)
	if mkdirError := os.MkdirAll(directory, logDirectoryPermissions); mkdirError != nil {
		return nil, fmt.Errorf(logDirectoryMessageFormat, directory, mkdirError)
	}
	logWriter := &lumberjack.Logger{
		Filename:   filePath,
		MaxSize:    options.FileMaxSize,
		MaxBackups: options.FileMaxBackups,
		MaxAge:     options.FileMaxAge,
		Compress:   options.FileCompress,
	}
	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = logFileTimeKey
	encoderConfig.LevelKey = logFileLevelKey
	encoderConfig.MessageKey = logFileMessageKey
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(logWriter), level), nil
}

package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

type ILogger interface {
	Debug(module, message string, details map[string]interface{})
	Info(module, message string, details map[string]interface{})
	Warn(module, message string, details map[string]interface{})
	Error(module, message string, details map[string]interface{})
	Sync() error
}

// Options selects where engine logs go.
type Options struct {
	// FilePath is the rotated JSON log. Empty disables file output.
	FilePath string
	// Console mirrors records to stdout at debug level.
	Console bool
	// Production switches the console to JSON.
	Production bool
}

type ZapLogger struct {
	logger *zap.Logger
}

func New(opts Options) *ZapLogger {
	var cores []zapcore.Core
	if opts.FilePath != "" {
		rotator := &lumberjack.Logger{
			Filename:   opts.FilePath,
			MaxSize:    10,
			MaxBackups: 5,
			MaxAge:     30,
			Compress:   true,
		}
		cores = append(cores, zapcore.NewCore(jsonEncoder(), zapcore.AddSync(rotator), zap.InfoLevel))
	}
	if opts.Console {
		enc := jsonEncoder()
		if !opts.Production {
			enc = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
		}
		cores = append(cores, zapcore.NewCore(enc, zapcore.Lock(os.Stdout), zap.DebugLevel))
	}
	return fromCore(zapcore.NewTee(cores...))
}

// NewZapLogger is the engine's main logger: rotated file plus console.
func NewZapLogger(logFilePath string, isProd bool) *ZapLogger {
	return New(Options{FilePath: logFilePath, Console: true, Production: isProd})
}

// NewIsolatedLogger writes only to its own file. The websocket event stream
// uses one so pushed events stay out of the main log.
func NewIsolatedLogger(logFilePath string) *ZapLogger {
	return New(Options{FilePath: logFilePath})
}

func NewNopLogger() *ZapLogger {
	return &ZapLogger{logger: zap.NewNop()}
}

func fromCore(core zapcore.Core) *ZapLogger {
	// Skip the wrapper so call sites are reported.
	return &ZapLogger{logger: zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))}
}

func jsonEncoder() zapcore.Encoder {
	cfg := zap.NewProductionEncoderConfig()
	cfg.TimeKey = "timestamp"
	cfg.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.MessageKey = "message"
	cfg.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewJSONEncoder(cfg)
}

// fields lifts an "error" detail into a real zap error field at every level.
func fields(module string, details map[string]interface{}) []zap.Field {
	f := []zap.Field{zap.String("module", module)}
	if len(details) == 0 {
		return f
	}
	rest := make(map[string]interface{}, len(details))
	for k, v := range details {
		if err, ok := v.(error); ok && k == "error" {
			f = append(f, zap.Error(err))
			continue
		}
		rest[k] = v
	}
	if len(rest) > 0 {
		f = append(f, zap.Any("details", rest))
	}
	return f
}

func (l *ZapLogger) Debug(module, message string, details map[string]interface{}) {
	l.logger.Debug(message, fields(module, details)...)
}

func (l *ZapLogger) Info(module, message string, details map[string]interface{}) {
	l.logger.Info(message, fields(module, details)...)
}

func (l *ZapLogger) Warn(module, message string, details map[string]interface{}) {
	l.logger.Warn(message, fields(module, details)...)
}

func (l *ZapLogger) Error(module, message string, details map[string]interface{}) {
	l.logger.Error(message, fields(module, details)...)
}

func (l *ZapLogger) Sync() error {
	return l.logger.Sync()
}

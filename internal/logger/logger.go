package logger

import (
	"os"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logger shared by handlers, services and the
// database layer.
type Logger struct {
	*zap.SugaredLogger
	serviceName string
}

// New creates a logger for serviceName. Production environments get JSON
// output at info level, everything else a console encoder at debug level.
func New(serviceName, env string) *Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "timestamp",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "message",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    zapcore.LowercaseLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.MillisDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	level := zap.DebugLevel
	if env == "production" {
		encoder = zapcore.NewJSONEncoder(encoderConfig)
		level = zap.InfoLevel
	} else {
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(os.Stdout), zap.NewAtomicLevelAt(level))
	return FromCore(core, serviceName, zap.AddCaller(), zap.AddCallerSkip(1))
}

// FromCore builds a logger for serviceName on top of an existing zap core.
func FromCore(core zapcore.Core, serviceName string, opts ...zap.Option) *Logger {
	return wrap(zap.New(core, opts...), serviceName)
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return wrap(zap.NewNop(), "nop")
}

func wrap(z *zap.Logger, serviceName string) *Logger {
	return &Logger{
		SugaredLogger: z.Sugar().With("service", serviceName),
		serviceName:   serviceName,
	}
}

// WithUser returns a logger with the acting user attached.
func (l *Logger) WithUser(userID string) *Logger {
	return &Logger{
		SugaredLogger: l.With("user_id", userID),
		serviceName:   l.serviceName,
	}
}

// Audit logs a business event worth keeping, such as a purged reservation
// or an admin promotion.
func (l *Logger) Audit(msg string, keysAndValues ...interface{}) {
	l.With("audit", true, "at", time.Now().UTC()).Infow(msg, keysAndValues...)
}

func (l *Logger) Error(msg string, keysAndValues ...interface{}) {
	l.Errorw(msg, keysAndValues...)
}

func (l *Logger) Warn(msg string, keysAndValues ...interface{}) {
	l.Warnw(msg, keysAndValues...)
}

func (l *Logger) Info(msg string, keysAndValues ...interface{}) {
	l.Infow(msg, keysAndValues...)
}

func (l *Logger) Debug(msg string, keysAndValues ...interface{}) {
	l.Debugw(msg, keysAndValues...)
}

func (l *Logger) Fatal(msg string, keysAndValues ...interface{}) {
	l.Fatalw(msg, keysAndValues...)
}

// Printf lets the logger back GORM's logger.Writer.
func (l *Logger) Printf(format string, args ...interface{}) {
	l.Infof(format, args...)
}

// Sync flushes any buffered log entries.
func (l *Logger) Sync() error {
	return l.SugaredLogger.Sync()
}

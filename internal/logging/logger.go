package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var logger *zap.Logger

// LogLevelEnvVar is the environment variable that controls logging verbosity.
// When unset or empty, logging is silent (no zap output).
// Valid values: "debug", "info", "warn", "error"
const LogLevelEnvVar = "SSDPD_LOG_LEVEL"

// Initialize creates a new logger with the specified level.
// If level is empty, it checks SSDPD_LOG_LEVEL environment variable.
// If neither is set, logging is disabled (silent mode).
func Initialize(level string) error {
	if level == "" {
		level = os.Getenv(LogLevelEnvVar)
	}

	if level == "" {
		logger = zap.NewNop()
		return nil
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(parseLevel(level)),
		Development:      false,
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	var err error
	logger, err = config.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	return nil
}

// parseLevel maps a level name to a zap level. Unknown names fall back to info.
func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// SetLogger replaces the global logger. Tests use this with zaptest/observer.
func SetLogger(l *zap.Logger) {
	if l == nil {
		l = zap.NewNop()
	}
	logger = l
}

// GetLogger returns the global logger instance
func GetLogger() *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return logger
}

// Info logs an info message
func Info(msg string, fields ...zap.Field) {
	GetLogger().Info(msg, fields...)
}

// Debug logs a debug message
func Debug(msg string, fields ...zap.Field) {
	GetLogger().Debug(msg, fields...)
}

// Warn logs a warning message
func Warn(msg string, fields ...zap.Field) {
	GetLogger().Warn(msg, fields...)
}

// Error logs an error message
func Error(msg string, fields ...zap.Field) {
	GetLogger().Error(msg, fields...)
}

// LogParticipant logs a lifecycle event for a discovery participant.
// err may be nil; a non-nil err raises the entry to warn level.
func LogParticipant(kind, identifier, event string, err error) {
	fields := []zap.Field{
		zap.String("kind", kind),
		zap.String("event", event),
	}
	if identifier != "" {
		fields = append(fields, zap.String("identifier", identifier))
	}
	if err != nil {
		Warn("Participant event failed", append(fields, zap.Error(err))...)
		return
	}
	Info("Participant event", fields...)
}

// LogSSDPMessage logs a received SSDP request at debug level
func LogSSDPMessage(remoteAddr, method, nts, target, usn string) {
	Debug("SSDP message",
		zap.String("remote_addr", remoteAddr),
		zap.String("method", method),
		zap.String("nts", nts),
		zap.String("target", target),
		zap.String("usn", usn),
	)
}

// LogMulticastJoin logs the outcome of joining the discovery group on an interface
func LogMulticastJoin(iface string, group string, err error) {
	if err != nil {
		Error("Multicast join failed",
			zap.String("interface", iface),
			zap.String("group", group),
			zap.Error(err),
		)
		return
	}
	Debug("Joined multicast group",
		zap.String("interface", iface),
		zap.String("group", group),
	)
}

// Sync flushes any buffered log entries
func Sync() {
	if logger != nil {
		_ = logger.Sync()
	}
}

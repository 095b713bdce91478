package logger

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
)

// Logger wraps logrus.Logger with additional functionality
type Logger struct {
	*logrus.Logger
}

// New creates a new logger instance
func New(level string) *Logger {
	log := logrus.New()

	logLevel, err := logrus.ParseLevel(level)
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	log.SetLevel(logLevel)

	log.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02T15:04:05.000Z07:00",
		FieldMap: logrus.FieldMap{
			logrus.FieldKeyTime:  "timestamp",
			logrus.FieldKeyLevel: "level",
			logrus.FieldKeyMsg:   "message",
		},
	})

	log.SetOutput(os.Stdout)

	return &Logger{Logger: log}
}

// WithFields creates a new logger entry with the specified fields
func (l *Logger) WithFields(fields map[string]interface{}) *logrus.Entry {
	return l.Logger.WithFields(fields)
}

// WithField creates a new logger entry with a single field
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithError creates a new logger entry with an error field
func (l *Logger) WithError(err error) *logrus.Entry {
	return l.Logger.WithError(err)
}

// WithWallet creates a new logger entry with a wallet address field
func (l *Logger) WithWallet(walletAddress string) *logrus.Entry {
	return l.Logger.WithField("wallet_address", walletAddress)
}

// WithComponent creates a new logger entry with component name field
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.Logger.WithField("component", component)
}

// WithContext creates a logger with context-aware fields
func (l *Logger) WithContext(ctx context.Context) *logrus.Entry {
	entry := l.Logger.WithFields(logrus.Fields{})

	if requestID := ctx.Value("request_id"); requestID != nil {
		entry = entry.WithField("request_id", requestID)
	}
	if wallet := ctx.Value("wallet_address"); wallet != nil {
		entry = entry.WithField("wallet_address", wallet)
	}

	return entry
}

// Audit logs audit events with structured format
func (l *Logger) Audit(walletAddress, action, resource string, success bool, details map[string]interface{}) {
	entry := l.Logger.WithFields(logrus.Fields{
		"audit":          true,
		"wallet_address": walletAddress,
		"action":         action,
		"resource":       resource,
		"success":        success,
		"details":        details,
	})

	if success {
		entry.Info("Audit event")
	} else {
		entry.Warn("Audit event failed")
	}
}

// AccessDecision logs the outcome of an authorization check. Decisions
// answered from the local cache are flagged unauthoritative so they can
// be told apart from ledger answers in telemetry.
func (l *Logger) AccessDecision(ctx context.Context, patient, requester string, allowed bool, source string) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"access_decision": true,
		"patient":         patient,
		"requester":       requester,
		"allowed":         allowed,
		"source":          source,
		"unauthoritative": source == "local_cache",
	})

	if allowed {
		entry.Info("Access allowed")
	} else {
		entry.Info("Access denied")
	}
}

// LedgerTransaction logs contract call events
func (l *Logger) LedgerTransaction(ctx context.Context, contract, function string, success bool, txID string, details map[string]interface{}) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"ledger":         true,
		"contract":       contract,
		"function":       function,
		"success":        success,
		"transaction_id": txID,
		"details":        details,
	})

	if success {
		entry.Info("Ledger transaction submitted")
	} else {
		entry.Error("Ledger transaction failed")
	}
}

// StorageOperation logs local record store events
func (l *Logger) StorageOperation(ctx context.Context, operation, table string, success bool, details map[string]interface{}) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"storage":   true,
		"operation": operation,
		"table":     table,
		"success":   success,
		"details":   details,
	})

	if success {
		entry.Debug("Storage operation completed")
	} else {
		entry.Error("Storage operation failed")
	}
}

// HTTPRequest logs HTTP request events
func (l *Logger) HTTPRequest(ctx context.Context, method, path, userAgent, clientIP string, statusCode int, duration int64, details map[string]interface{}) {
	entry := l.WithContext(ctx).WithFields(logrus.Fields{
		"http_request": true,
		"method":       method,
		"path":         path,
		"user_agent":   userAgent,
		"client_ip":    clientIP,
		"status_code":  statusCode,
		"duration_ms":  duration,
		"details":      details,
	})

	if statusCode >= 400 {
		entry.Warn("HTTP request completed with error")
	} else {
		entry.Info("HTTP request completed")
	}
}

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"time"
)

// LogLevel represents different log levels for service operations
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

type requestIDKey struct{}

// WithRequestID attaches a request id that LogOperation copies into every record
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, requestID)
}

// ServiceLogger provides structured logging for service layer operations
type ServiceLogger struct {
	logger *slog.Logger
	config LogConfig
}

type LogConfig struct {
	Service       string
	Component     string
	EnableMetrics bool
	EnableDebug   bool
}

func NewServiceLogger(logger *slog.Logger, config LogConfig) *ServiceLogger {
	return &ServiceLogger{
		logger: logger.With("service", config.Service, "component", config.Component),
		config: config,
	}
}

// ===== OPERATION LOGGING =====

func (l *ServiceLogger) LogOperation(ctx context.Context, operation, tenantID string, examID uint, resourceType string, duration time.Duration, err error) {
	logLevel := LogLevelInfo
	status := "success"

	if err != nil {
		logLevel = LogLevelError
		status = "error"

		switch {
		case IsValidation(err):
			logLevel = LogLevelWarn
			status = "validation_error"
		case IsInvalidOperation(err):
			logLevel = LogLevelWarn
			status = "invalid_operation"
		case IsNotFound(err):
			status = "not_found"
		}
	}

	attrs := []slog.Attr{
		slog.String("operation", operation),
		slog.String("tenant_id", tenantID),
		slog.Uint64("exam_id", uint64(examID)),
		slog.String("resource_type", resourceType),
		slog.String("status", status),
		slog.Duration("duration", duration),
	}

	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))

		var validationErrs ValidationErrors
		var invalidOp *InvalidOperationError
		if errors.As(err, &validationErrs) {
			attrs = append(attrs, slog.Int("validation_errors_count", len(validationErrs)))
		} else if errors.As(err, &invalidOp) {
			attrs = append(attrs, slog.String("invalid_operation", invalidOp.Operation))
		}
	}

	if requestID, ok := ctx.Value(requestIDKey{}).(string); ok && requestID != "" {
		attrs = append(attrs, slog.String("request_id", requestID))
	}

	// Caller information for unexpected failures only
	if logLevel == LogLevelError {
		if pc, file, line, ok := runtime.Caller(2); ok {
			if fn := runtime.FuncForPC(pc); fn != nil {
				attrs = append(attrs,
					slog.String("caller_func", fn.Name()),
					slog.String("caller_file", file),
					slog.Int("caller_line", line),
				)
			}
		}
	}

	message := fmt.Sprintf("%s operation %s", operation, status)

	switch logLevel {
	case LogLevelDebug:
		if l.config.EnableDebug {
			l.logger.LogAttrs(ctx, slog.LevelDebug, message, attrs...)
		}
	case LogLevelInfo:
		l.logger.LogAttrs(ctx, slog.LevelInfo, message, attrs...)
	case LogLevelWarn:
		l.logger.LogAttrs(ctx, slog.LevelWarn, message, attrs...)
	case LogLevelError:
		l.logger.LogAttrs(ctx, slog.LevelError, message, attrs...)
	}
}

// ===== PERFORMANCE LOGGING =====

type AnalysisMetrics struct {
	LoadDuration     time.Duration
	ComputeDuration  time.Duration
	PersistDuration  time.Duration
	Attempts         int
	Questions        int
	FlaggedForReview int
}

func (l *ServiceLogger) LogAnalysisMetrics(ctx context.Context, tenantID string, examID uint, metrics AnalysisMetrics) {
	if !l.config.EnableMetrics {
		return
	}

	l.logger.LogAttrs(ctx, slog.LevelDebug, "Item analysis metrics",
		slog.String("tenant_id", tenantID),
		slog.Uint64("exam_id", uint64(examID)),
		slog.Duration("load_duration", metrics.LoadDuration),
		slog.Duration("compute_duration", metrics.ComputeDuration),
		slog.Duration("persist_duration", metrics.PersistDuration),
		slog.Int("attempts", metrics.Attempts),
		slog.Int("questions", metrics.Questions),
		slog.Int("flagged_for_review", metrics.FlaggedForReview),
	)
}

// ===== CONTEXTUAL LOGGER =====

// OperationLogger times one service call and logs its outcome
type OperationLogger struct {
	logger    *ServiceLogger
	ctx       context.Context
	operation string
	tenantID  string
	examID    uint
	startTime time.Time
}

func (l *ServiceLogger) WithOperation(ctx context.Context, operation, tenantID string, examID uint) *OperationLogger {
	return &OperationLogger{
		logger:    l,
		ctx:       ctx,
		operation: operation,
		tenantID:  tenantID,
		examID:    examID,
		startTime: time.Now(),
	}
}

func (ol *OperationLogger) LogResult(resourceType string, err error) {
	ol.logger.LogOperation(ol.ctx, ol.operation, ol.tenantID, ol.examID, resourceType, time.Since(ol.startTime), err)
}

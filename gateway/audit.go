package gateway

import (
	"log/slog"
	"net/http"
	"time"
)

// AuditEvent identifies the type of security-relevant action being logged.
type AuditEvent string

const (
	AuditLoginSuccess         AuditEvent = "login_success"
	AuditLoginFailure         AuditEvent = "login_failure"
	AuditLogout               AuditEvent = "logout"
	AuditDatasetRead          AuditEvent = "dataset_read"
	AuditDatasetReadFailed    AuditEvent = "dataset_read_failed"
	AuditDatasetWritten       AuditEvent = "dataset_written"
	AuditDatasetWriteRejected AuditEvent = "dataset_write_rejected"
	AuditDatasetWriteFailed   AuditEvent = "dataset_write_failed"
)

// auditLogger wraps slog.Logger for structured security audit logging.
type auditLogger struct {
	logger *slog.Logger
}

func newAuditLogger(logger *slog.Logger) *auditLogger {
	return &auditLogger{
		logger: logger.With("component", "audit"),
	}
}

func (al *auditLogger) log(event AuditEvent, r *http.Request, attrs ...slog.Attr) {
	baseAttrs := []slog.Attr{
		slog.String("event", string(event)),
		slog.String("remote_addr", r.RemoteAddr),
		slog.String("timestamp", time.Now().UTC().Format(time.RFC3339)),
	}
	baseAttrs = append(baseAttrs, attrs...)
	al.logger.LogAttrs(r.Context(), slog.LevelInfo, "audit", baseAttrs...)
}

func (al *auditLogger) logEvent(event AuditEvent, r *http.Request, extra ...slog.Attr) {
	al.log(event, r, extra...)
}

// logFailure logs a failed or rejected operation with its reason.
func (al *auditLogger) logFailure(event AuditEvent, r *http.Request, reason string, extra ...slog.Attr) {
	attrs := []slog.Attr{
		slog.String("reason", reason),
	}
	attrs = append(attrs, extra...)
	al.log(event, r, attrs...)
}

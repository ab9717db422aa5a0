package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AuditEventType identifies a studio lifecycle event.
type AuditEventType string

const (
	AuditSessionOpen  AuditEventType = "session_open"
	AuditSessionClose AuditEventType = "session_close"
	AuditTransition   AuditEventType = "transition"

	AuditGenerationRequest  AuditEventType = "generation_request"
	AuditGenerationResponse AuditEventType = "generation_response"
	AuditGenerationError    AuditEventType = "generation_error"
	AuditResultDiscarded    AuditEventType = "result_discarded"

	AuditCredentialGrant AuditEventType = "credential_grant"
	AuditCredentialReset AuditEventType = "credential_reset"

	AuditPostCreated AuditEventType = "post_created"
)

// AuditEvent is one JSON line in the audit log.
type AuditEvent struct {
	EventType  AuditEventType
	SessionID  string
	Operation  string // submit_idea, request_visual, submit_edit, ...
	From       string // step before the transition
	To         string // step after the transition
	Success    bool
	DurationMs int64
	Error      string
	Fields     map[string]interface{}
}

var (
	auditMu     sync.Mutex
	auditFile   *os.File
	auditSugar  *zap.SugaredLogger
	auditLogger = &AuditLogger{}
)

// AuditLogger writes audit events, optionally scoped to a session.
type AuditLogger struct {
	sessionID string
}

// InitAudit opens the audit log. It is a no-op unless debug mode is on.
func InitAudit() error {
	if !IsDebugMode() {
		return nil
	}

	loggersMu.RLock()
	dir := logsDir
	loggersMu.RUnlock()
	if dir == "" {
		return fmt.Errorf("logging not initialized")
	}

	auditMu.Lock()
	defer auditMu.Unlock()
	if auditFile != nil {
		return nil
	}

	path := filepath.Join(dir, fmt.Sprintf("%s_audit.log", time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.EpochMillisTimeEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(encCfg), zapcore.AddSync(file), zapcore.DebugLevel)

	auditFile = file
	auditSugar = zap.New(core).Sugar()
	return nil
}

// CloseAudit closes the audit log file
func CloseAudit() {
	auditMu.Lock()
	defer auditMu.Unlock()

	if auditSugar != nil {
		_ = auditSugar.Sync()
		auditSugar = nil
	}
	if auditFile != nil {
		auditFile.Close()
		auditFile = nil
	}
}

// Audit returns the global audit logger
func Audit() *AuditLogger {
	return auditLogger
}

// AuditWithSession creates an audit logger scoped to a session
func AuditWithSession(sessionID string) *AuditLogger {
	return &AuditLogger{sessionID: sessionID}
}

// Log writes an audit event
func (a *AuditLogger) Log(event AuditEvent) {
	auditMu.Lock()
	defer auditMu.Unlock()
	if auditSugar == nil {
		return
	}

	if event.SessionID == "" {
		event.SessionID = a.sessionID
	}

	kv := []interface{}{
		"event", string(event.EventType),
		"session", event.SessionID,
		"success", event.Success,
	}
	if event.Operation != "" {
		kv = append(kv, "op", event.Operation)
	}
	if event.From != "" || event.To != "" {
		kv = append(kv, "from", event.From, "to", event.To)
	}
	if event.DurationMs > 0 {
		kv = append(kv, "dur_ms", event.DurationMs)
	}
	if event.Error != "" {
		kv = append(kv, "error", event.Error)
	}
	for k, v := range event.Fields {
		kv = append(kv, k, v)
	}
	auditSugar.Infow(string(event.EventType), kv...)
}

// Transition records a step change.
func (a *AuditLogger) Transition(op, from, to string) {
	a.Log(AuditEvent{EventType: AuditTransition, Operation: op, From: from, To: to, Success: true})
}

// Generation records the outcome of a gateway call.
func (a *AuditLogger) Generation(op string, dur time.Duration, err error) {
	ev := AuditEvent{
		EventType:  AuditGenerationResponse,
		Operation:  op,
		Success:    err == nil,
		DurationMs: dur.Milliseconds(),
	}
	if err != nil {
		ev.EventType = AuditGenerationError
		ev.Error = err.Error()
	}
	a.Log(ev)
}

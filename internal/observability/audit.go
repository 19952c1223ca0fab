package observability

import (
	"log/slog"
	"net/http"
)

// Audit records a security-relevant portal event: signups, redemptions,
// logins, role changes, decisions. Trace identifiers are stamped by the
// logging pipeline; attrs must never carry raw tokens, passwords, or mailed
// links.
func Audit(r *http.Request, event string, attrs ...any) {
	base := []any{
		slog.String("event", event),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.String("request_id", r.Header.Get("X-Request-Id")),
		slog.String("remote_addr", r.RemoteAddr),
	}
	slog.InfoContext(r.Context(), "audit", append(base, attrs...)...)
}

package log

import (
	"context"
	"log/slog"
	"regexp"
	"strings"
)

// sensitiveKeys contains attribute keys whose values are always masked.
// These keys commonly carry credentials attached to fetch requests.
var sensitiveKeys = map[string]bool{
	// HTTP headers
	"authorization":       true,
	"proxy-authorization": true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,

	// Credentials
	"password":     true,
	"secret":       true,
	"token":        true,
	"api_key":      true,
	"apikey":       true,
	"api-key":      true,
	"access_token": true,
	"credential":   true,
	"credentials":  true,
	"auth":         true,
}

// sensitivePatterns contains value patterns masked regardless of key name.
var sensitivePatterns = []*regexp.Regexp{
	// JWT tokens
	regexp.MustCompile(`^eyJ[A-Za-z0-9_-]*\.eyJ[A-Za-z0-9_-]*\.[A-Za-z0-9_-]*$`),

	// Bearer tokens
	regexp.MustCompile(`(?i)^bearer\s+.+`),

	// Basic auth
	regexp.MustCompile(`(?i)^basic\s+[A-Za-z0-9+/=]+$`),
}

// MaskValue is the string used to replace sensitive values.
const MaskValue = "***REDACTED***"

// RedactHandler wraps an slog.Handler to mask credential-bearing values.
// It intercepts log records and sanitizes attribute values that match
// sensitive key names or value patterns before passing them on.
//
// Design decision: We use a handler wrapper rather than a custom logger
// because it integrates seamlessly with standard slog APIs and works with
// any underlying handler (text, JSON, etc.).
type RedactHandler struct {
	// handler is the underlying slog handler that receives sanitized records.
	handler slog.Handler
}

// NewRedactHandler creates a RedactHandler wrapping the given handler.
// If handler is nil, the returned RedactHandler uses slog.Default().Handler().
func NewRedactHandler(handler slog.Handler) *RedactHandler {
	if handler == nil {
		handler = slog.Default().Handler()
	}
	return &RedactHandler{handler: handler}
}

// Enabled reports whether the handler handles records at the given level.
func (h *RedactHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

// Handle sanitizes the record's attributes and forwards it.
func (h *RedactHandler) Handle(ctx context.Context, record slog.Record) error {
	sanitized := slog.NewRecord(record.Time, record.Level, record.Message, record.PC)
	record.Attrs(func(a slog.Attr) bool {
		sanitized.AddAttrs(sanitizeAttr(a))
		return true
	})
	return h.handler.Handle(ctx, sanitized)
}

// WithAttrs returns a new RedactHandler with the given (sanitized) attrs.
func (h *RedactHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	sanitized := make([]slog.Attr, len(attrs))
	for i, a := range attrs {
		sanitized[i] = sanitizeAttr(a)
	}
	return &RedactHandler{handler: h.handler.WithAttrs(sanitized)}
}

// WithGroup returns a new RedactHandler with the given group name.
func (h *RedactHandler) WithGroup(name string) slog.Handler {
	return &RedactHandler{handler: h.handler.WithGroup(name)}
}

// sanitizeAttr masks an attribute's value when the key or the value
// looks sensitive. Group attributes are sanitized recursively.
func sanitizeAttr(a slog.Attr) slog.Attr {
	if a.Value.Kind() == slog.KindGroup {
		members := a.Value.Group()
		sanitized := make([]slog.Attr, len(members))
		for i, m := range members {
			sanitized[i] = sanitizeAttr(m)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(sanitized...)}
	}

	if sensitiveKeys[strings.ToLower(a.Key)] {
		return slog.String(a.Key, MaskValue)
	}

	if a.Value.Kind() == slog.KindString {
		v := a.Value.String()
		for _, p := range sensitivePatterns {
			if p.MatchString(v) {
				return slog.String(a.Key, MaskValue)
			}
		}
	}

	return a
}

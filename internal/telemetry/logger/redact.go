package logger

import (
	"bytes"
	"log/slog"
	"strconv"
	"strings"
)

// Sensitive key patterns that should be redacted.
var sensitiveKeyPatterns = []string{
	"password",
	"requirepass",
	"secret",
	"credential",
	"auth",
}

// redactedValue is the placeholder for redacted sensitive data.
const redactedValue = "***REDACTED***"

// Limits applied by TruncateArgs.
const (
	MaxLoggedArgs   = 8
	MaxLoggedArgLen = 32
)

// redactSensitive redacts string attributes whose key looks like a
// credential, descending into groups.
func redactSensitive(a slog.Attr) slog.Attr {
	switch a.Value.Kind() {
	case slog.KindString:
		if a.Value.String() != "" && IsSensitiveKey(a.Key) {
			return slog.String(a.Key, redactedValue)
		}
	case slog.KindGroup:
		attrs := a.Value.Group()
		newAttrs := make([]slog.Attr, len(attrs))
		for i, attr := range attrs {
			newAttrs[i] = redactSensitive(attr)
		}
		return slog.Attr{Key: a.Key, Value: slog.GroupValue(newAttrs...)}
	}
	return a
}

// IsSensitiveKey checks if a key name suggests sensitive content.
func IsSensitiveKey(key string) bool {
	keyLower := strings.ToLower(key)
	for _, pattern := range sensitiveKeyPatterns {
		if strings.Contains(keyLower, pattern) {
			return true
		}
	}
	return false
}

// TruncateArgs renders a command for logging. At most MaxLoggedArgs
// arguments are shown, each cut to MaxLoggedArgLen bytes. Arguments of AUTH
// are never shown.
func TruncateArgs(args [][]byte) string {
	var b strings.Builder
	for i, arg := range args {
		if i == MaxLoggedArgs {
			b.WriteString(" ...(+")
			b.WriteString(strconv.Itoa(len(args) - i))
			b.WriteString(" more)")
			break
		}
		if i > 0 {
			b.WriteByte(' ')
			if bytes.EqualFold(args[0], []byte("auth")) {
				b.WriteString(redactedValue)
				continue
			}
		}
		if len(arg) > MaxLoggedArgLen {
			b.WriteString(strconv.Quote(string(arg[:MaxLoggedArgLen])))
			b.WriteString("...(")
			b.WriteString(strconv.Itoa(len(arg)))
			b.WriteString(" bytes)")
			continue
		}
		b.WriteString(strconv.Quote(string(arg)))
	}
	return b.String()
}

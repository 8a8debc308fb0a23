package log

import "strings"

// Redacted replaces values logged under sensitive keys.
const Redacted = "[REDACTED]"

var sensitiveKeys = map[string]struct{}{
	"wif":         {},
	"secret":      {},
	"password":    {},
	"passphrase":  {},
	"private_key": {},
	"privatekey":  {},
	"keys":        {},
}

// IsSensitiveKey reports whether values under key are replaced by Redacted.
func IsSensitiveKey(key string) bool {
	_, ok := sensitiveKeys[strings.ToLower(key)]
	return ok
}

// redactKV returns keysAndValues with sensitive values replaced.
// The input slice is copied only when a replacement is needed.
func redactKV(keysAndValues []any) []any {
	var out []any
	for i := 0; i+1 < len(keysAndValues); i += 2 {
		key, ok := keysAndValues[i].(string)
		if !ok || !IsSensitiveKey(key) {
			continue
		}
		if out == nil {
			out = append([]any(nil), keysAndValues...)
		}
		out[i+1] = Redacted
	}
	if out == nil {
		return keysAndValues
	}
	return out
}

package audit

import "strings"

// sensitiveKeyFragments are matched case-insensitively as substrings of a
// parameter key. Any value under a matching key is replaced with the literal
// string "[REDACTED]" before the entry is persisted.
var sensitiveKeyFragments = []string{
	"key", "token", "password", "secret", "credential", "auth",
}

const redactedValue = "[REDACTED]"

func isSensitiveKey(key string) bool {
	lower := strings.ToLower(key)
	for _, frag := range sensitiveKeyFragments {
		if strings.Contains(lower, frag) {
			return true
		}
	}
	return false
}

// Redact walks params recursively and returns a copy with every value whose
// key matches a sensitive fragment replaced by "[REDACTED]". Structure
// (nesting, non-sensitive siblings) is preserved verbatim.
func Redact(params map[string]any) map[string]any {
	return redactMap(params)
}

func redactMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	out := make(map[string]any, len(m))
	for k, v := range m {
		if isSensitiveKey(k) {
			out[k] = redactedValue
			continue
		}
		out[k] = redactValue(v)
	}
	return out
}

func redactValue(v any) any {
	switch typed := v.(type) {
	case map[string]any:
		return redactMap(typed)
	case []any:
		out := make([]any, len(typed))
		for i, elem := range typed {
			out[i] = redactValue(elem)
		}
		return out
	default:
		return v
	}
}

package executor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// GenerateIdempotencyKey returns a 16-character lowercase hex digest stable
// under argument-key reordering. Any change to toolName, any arg value, or
// sessionID changes the key.
func GenerateIdempotencyKey(toolName string, args map[string]any, sessionID string) string {
	canonical := canonicalize(args)
	payload := toolName + "|" + canonical + "|" + sessionID
	sum := sha256.Sum256([]byte(payload))
	return hex.EncodeToString(sum[:])[:16]
}

// canonicalize serializes v deterministically: map keys are sorted
// recursively so {a:1,b:2} and {b:2,a:1} produce identical output.
func canonicalize(v any) string {
	switch typed := v.(type) {
	case map[string]any:
		keys := make([]string, 0, len(typed))
		for k := range typed {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%s", k, canonicalize(typed[k])))
		}
		return "{" + strings.Join(parts, ",") + "}"
	case []any:
		parts := make([]string, 0, len(typed))
		for _, elem := range typed {
			parts = append(parts, canonicalize(elem))
		}
		return "[" + strings.Join(parts, ",") + "]"
	default:
		return fmt.Sprintf("%v", typed)
	}
}

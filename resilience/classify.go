package resilience

import "strings"

// Priority order: auth_required -> user_action -> retryable -> permanent.
// The default, when no pattern matches, is retryable (optimistic: assume a
// transient condition rather than give up).
var patterns = []struct {
	typ      ErrorType
	fragments []string
}{
	{ErrAuthRequired, []string{
		"unauthorized", "401", "403", "forbidden", "api key", "authentication",
		"access denied", "token expired", "missing credentials", "permission denied",
	}},
	{ErrUserAction, []string{
		"file not found", "enoent", "missing data", "missing input", "no data", "please provide",
	}},
	{ErrRetryable, []string{
		"rate limit", "429", "timeout", "timed out", "econnrefused", "econnreset",
		"etimedout", "socket hang up", "temporarily unavailable", "502", "503", "network",
	}},
	{ErrPermanent, []string{
		"invalid", "zod", "schema validation", "malformed", "unsupported", "unknown tool", "parse error",
	}},
}

// Classify maps an error message to its taxonomy type. It is a total
// function: non-matching input defaults to ErrRetryable.
func Classify(message string) ErrorType {
	lower := strings.ToLower(message)
	for _, p := range patterns {
		for _, frag := range p.fragments {
			if strings.Contains(lower, frag) {
				return p.typ
			}
		}
	}
	return ErrRetryable
}

// ClassifyErrorDetail re-classifies detail.Message and overrides detail.Type
// with the result. Upstream callers may hand the kernel a pre-populated
// ErrorDetail with a wrong or absent Type; this self-corrects it so
// misclassified upstream errors are retried/surfaced correctly regardless of
// what the caller claimed.
func ClassifyErrorDetail(detail *ErrorDetail) *ErrorDetail {
	if detail == nil {
		return nil
	}
	detail.Type = Classify(detail.Message)
	return detail
}

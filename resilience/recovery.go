package resilience

import "strings"

// alternatives maps each query server to its substitute servers. Command
// servers (reporter, decision) intentionally have no entry: there is no
// substitute for generating a report or making a gated decision.
var alternatives = map[string][]string{
	"geowiz":         {"research"},
	"econobot":       {"market", "research"},
	"curve-smith":    {"research"},
	"risk-analysis":  {"geowiz", "econobot"},
	"market":         {"econobot", "research"},
	"research":       {"geowiz"},
	"legal":          {"title"},
	"title":          {"legal"},
	"drilling":       {"geowiz"},
	"environmental":  {"research"},
	"infrastructure": {"market"},
}

// AlternativesFor returns the substitute server names for toolOrServer, or
// nil when there is none (unknown server, or a command server).
func AlternativesFor(toolOrServer string) []string {
	server, _, _ := splitServer(toolOrServer)
	alts, ok := alternatives[server]
	if !ok {
		return nil
	}
	return append([]string(nil), alts...)
}

func splitServer(toolOrServer string) (string, string, bool) {
	server, verb, hadVerb := strings.Cut(toolOrServer, ".")
	return server, verb, hadVerb
}

// alternativeToolNames converts bare server substitutes into their dotted
// "server.analyze" tool-name form, the shape scenario tests assert on.
func alternativeToolNames(toolOrServer string) []string {
	alts := AlternativesFor(toolOrServer)
	if len(alts) == 0 {
		return nil
	}
	out := make([]string, 0, len(alts))
	for _, a := range alts {
		out = append(out, a+".analyze")
	}
	return out
}

// BuildRecoveryGuide classifies detail.Message, then attaches concrete
// recovery steps, a retry-after hint (for retryable failures), and
// alternative tools for toolOrServer.
func BuildRecoveryGuide(toolOrServer string, detail ErrorDetail) ErrorDetail {
	out := detail
	out.Type = Classify(detail.Message)
	out.AlternativeTools = alternativeToolNames(toolOrServer)

	switch out.Type {
	case ErrAuthRequired:
		out.RecoverySteps = []string{
			"verify the caller's credentials are present and not expired",
			"request the required permission from an administrator",
			"retry the call once a valid credential is available",
		}
	case ErrUserAction:
		out.RecoverySteps = []string{
			"supply the missing input described in the error message",
			"verify the referenced file or data set exists",
			"resend the request once the input is available",
		}
	case ErrPermanent:
		out.RecoverySteps = []string{
			"the request is malformed or unsupported and will not succeed on retry",
			"correct the arguments against the tool's schema",
			"consult the tool documentation for supported inputs",
		}
	case ErrRetryable:
		out.RecoverySteps = []string{
			"wait for the suggested retry delay",
			"retry the call; transient failures typically clear on their own",
			"if retries are exhausted, consider one of the listed alternative tools",
		}
		out.RetryAfterMs = retryAfterMsFor(detail.Message)
	}
	return out
}

func retryAfterMsFor(message string) int64 {
	lower := strings.ToLower(message)
	switch {
	case strings.Contains(lower, "rate limit") || strings.Contains(lower, "429"):
		return 5000
	case strings.Contains(lower, "timeout") || strings.Contains(lower, "timed out") || strings.Contains(lower, "etimedout"):
		return 2000
	case strings.Contains(lower, "econnrefused"):
		return 1000
	default:
		return 2000
	}
}

package resilience

// ComputeDegradation builds a DegradationReport from the set of expected
// tool names and the names that actually succeeded.
func ComputeDegradation(expected []string, succeeded map[string]bool, failedWithReason map[string]string) DegradationReport {
	var missing, failed []string
	succeededCount := 0
	for _, name := range expected {
		switch {
		case succeeded[name]:
			succeededCount++
		case failedWithReason != nil:
			if _, failedHere := failedWithReason[name]; failedHere {
				failed = append(failed, name)
			} else {
				missing = append(missing, name)
			}
		default:
			missing = append(missing, name)
		}
	}

	completeness := 0
	if len(expected) > 0 {
		completeness = RoundPercent(succeededCount, len(expected))
	}

	var suggestions []string
	if completeness >= 50 {
		suggestions = append(suggestions, "partial results may be sufficient")
	} else {
		suggestions = append(suggestions, "insufficient — consider retrying")
	}

	alts := make(map[string][]string, len(failed))
	for _, name := range failed {
		alts[name] = alternativeToolNames(name)
	}

	return DegradationReport{
		Completeness: completeness,
		Missing:      missing,
		Failed:       failed,
		Suggestions:  suggestions,
		Alternatives: alts,
	}
}

// RoundPercent computes round(100*succeeded/total) using round-half-up, the
// same semantics every completeness computation in the kernel uses.
func RoundPercent(succeeded, total int) int {
	if total == 0 {
		return 0
	}
	return (100*succeeded + total/2) / total
}

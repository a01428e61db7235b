package session

import "parentcoach/internal/coach/profile"

// DefaultCompletenessThreshold is the percentage at which a profile counts as
// materially complete. A product constant with no stated derivation, so it is
// a parameter rather than an invariant.
const DefaultCompletenessThreshold = 80

// SelectMode decides the mode for a new session. The decision is made once at
// creation; existing sessions keep their mode for life.
//
//   - an explicit fresh-start request wins: discovery
//   - a profile that is started but below the threshold resumes intake:
//     partial-discovery
//   - a materially complete profile plus an explicit coaching request:
//     coaching
//   - otherwise the lightweight default: check-in
func SelectMode(requested Mode, completeness profile.Completeness, threshold int) Mode {
	if threshold <= 0 {
		threshold = DefaultCompletenessThreshold
	}
	if requested == ModeDiscovery {
		return ModeDiscovery
	}
	pct := completeness.CompletionPercentage
	if pct > 0 && pct < threshold {
		return ModePartialDiscovery
	}
	if pct >= threshold && requested == ModeCoaching {
		return ModeCoaching
	}
	return ModeCheckIn
}

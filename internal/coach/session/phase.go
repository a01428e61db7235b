package session

// PhaseConfig carries the tunable constants of the GROW state machine. The
// 2-minutes-per-turn estimate and the extension warning margin are product
// decisions, not structural ones, so they stay configurable.
type PhaseConfig struct {
	MinutesPerTurn      float64
	SetupOverheadMin    int
	ExtensionWarningMin int
}

// DefaultPhaseConfig returns the shipped heuristics: two minutes per
// exchange, one minute of setup, warn when five or fewer minutes remain.
func DefaultPhaseConfig() PhaseConfig {
	return PhaseConfig{
		MinutesPerTurn:      2,
		SetupOverheadMin:    1,
		ExtensionWarningMin: 5,
	}
}

func (c PhaseConfig) normalized() PhaseConfig {
	if c.MinutesPerTurn <= 0 {
		c.MinutesPerTurn = 2
	}
	if c.SetupOverheadMin < 0 {
		c.SetupOverheadMin = 0
	}
	if c.ExtensionWarningMin <= 0 {
		c.ExtensionWarningMin = 5
	}
	return c
}

// MinRealityDepth returns the minimum reality-exploration depth required
// before a session may leave the reality phase, keyed by time budget.
// Budgets outside the fixed set fall back to the 50-minute row.
func MinRealityDepth(budgetMinutes int) int {
	switch budgetMinutes {
	case 5:
		return 2
	case 15:
		return 6
	case 30:
		return 9
	default:
		return 10
	}
}

// TurnOutcome reports the signals raised by one phase-controller update.
type TurnOutcome struct {
	// ExtensionEligible is true when the session is close enough to its time
	// budget that the composer should have the assistant offer an extension.
	// Flipping TimeExtensionOffered is the caller's job, once the offer was
	// actually made.
	ExtensionEligible bool
}

// AdvanceTurn records one assistant turn against the session's phase state.
// Only coaching-mode sessions carry phase state; for every other mode this is
// a no-op. While the session sits in the reality phase the exploration depth
// increments by exactly one per turn, and ReadyForOptions latches on once the
// budget-derived threshold is met. The latch is one-way.
func (s *Session) AdvanceTurn(cfg PhaseConfig) TurnOutcome {
	if s.Mode != ModeCoaching {
		return TurnOutcome{}
	}
	cfg = cfg.normalized()

	if s.CurrentPhase == PhaseReality {
		s.RealityExplorationDepth++
	}
	if s.RealityExplorationDepth >= MinRealityDepth(s.TimeBudgetMinutes) {
		s.ReadyForOptions = true
	}

	elapsed := int(float64(s.RealityExplorationDepth)*cfg.MinutesPerTurn) + cfg.SetupOverheadMin
	if elapsed > s.TimeBudgetMinutes {
		elapsed = s.TimeBudgetMinutes
	}
	// Elapsed time is monotonically non-decreasing even if the heuristic
	// constants change mid-deployment.
	if elapsed > s.TimeElapsedMinutes {
		s.TimeElapsedMinutes = elapsed
	}

	var out TurnOutcome
	if !s.TimeExtensionOffered && s.TimeBudgetMinutes-s.TimeElapsedMinutes <= cfg.ExtensionWarningMin {
		out.ExtensionEligible = true
	}
	return out
}

// CanAdvanceToOptions is the combined gate for leaving the reality phase.
// Depth alone never moves the phase: the conversation must also have
// reflected emotions and explored exceptions.
func (s *Session) CanAdvanceToOptions() bool {
	return s.ReadyForOptions && s.EmotionsReflected && s.ExceptionsExplored
}

// AdvancePhase moves the session one step along the linear GROW sequence,
// honoring the options gate. It reports whether a transition happened.
// Closing is only ever reached by an explicit content-driven signal, never
// from time exhaustion, so this method stops at will.
func (s *Session) AdvancePhase() bool {
	if s.Mode != ModeCoaching {
		return false
	}
	switch s.CurrentPhase {
	case PhaseGoal:
		s.CurrentPhase = PhaseReality
		return true
	case PhaseReality:
		if !s.CanAdvanceToOptions() {
			return false
		}
		s.CurrentPhase = PhaseOptions
		return true
	case PhaseOptions:
		s.CurrentPhase = PhaseWill
		return true
	}
	return false
}

// Close marks the session's terminal phase. Driven by conversation content,
// outside the state machine's own rules.
func (s *Session) Close() {
	if s.Mode == ModeCoaching {
		s.CurrentPhase = PhaseClosing
	}
	s.Active = false
}

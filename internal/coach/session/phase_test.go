package session

import "testing"

func TestMinRealityDepth(t *testing.T) {
	cases := []struct {
		budget int
		want   int
	}{
		{5, 2},
		{15, 6},
		{30, 9},
		{50, 10},
		{0, 10},
		{45, 10},
		{90, 10},
	}
	for _, tc := range cases {
		if got := MinRealityDepth(tc.budget); got != tc.want {
			t.Fatalf("MinRealityDepth(%d) = %d, want %d", tc.budget, got, tc.want)
		}
	}
}

func TestAdvanceTurnNonCoachingIsNoop(t *testing.T) {
	s := New("s1", "u1", ModeCheckIn, 50)
	s.CurrentPhase = PhaseReality

	out := s.AdvanceTurn(DefaultPhaseConfig())
	if out.ExtensionEligible {
		t.Fatalf("check-in turn reported extension eligibility")
	}
	if s.RealityExplorationDepth != 0 || s.TimeElapsedMinutes != 0 {
		t.Fatalf("check-in turn mutated phase state: depth=%d elapsed=%d",
			s.RealityExplorationDepth, s.TimeElapsedMinutes)
	}
}

func TestAdvanceTurnFifteenMinuteSession(t *testing.T) {
	s := New("s1", "u1", ModeCoaching, 15)
	s.CurrentPhase = PhaseReality
	cfg := DefaultPhaseConfig()

	for turn := 1; turn <= 5; turn++ {
		s.AdvanceTurn(cfg)
		if s.ReadyForOptions {
			t.Fatalf("ready_for_options latched at depth %d, threshold is 6", s.RealityExplorationDepth)
		}
	}
	if s.RealityExplorationDepth != 5 {
		t.Fatalf("depth = %d after 5 turns, want 5", s.RealityExplorationDepth)
	}
	if s.TimeElapsedMinutes != 11 {
		t.Fatalf("elapsed = %d, want 11", s.TimeElapsedMinutes)
	}

	out := s.AdvanceTurn(cfg)
	if !s.ReadyForOptions {
		t.Fatalf("ready_for_options not latched at depth %d", s.RealityExplorationDepth)
	}
	if s.TimeElapsedMinutes != 13 {
		t.Fatalf("elapsed = %d, want 13", s.TimeElapsedMinutes)
	}
	if !out.ExtensionEligible {
		t.Fatalf("2 minutes remaining, extension not flagged")
	}
}

func TestAdvanceTurnFiftyMinuteSession(t *testing.T) {
	s := New("s1", "u1", ModeCoaching, 50)
	s.CurrentPhase = PhaseReality
	cfg := DefaultPhaseConfig()

	for turn := 1; turn <= 9; turn++ {
		s.AdvanceTurn(cfg)
	}
	if s.ReadyForOptions {
		t.Fatalf("ready_for_options latched at depth 9, threshold is 10")
	}

	s.AdvanceTurn(cfg)
	if !s.ReadyForOptions {
		t.Fatalf("ready_for_options not latched at depth 10")
	}
	if s.TimeElapsedMinutes != 21 {
		t.Fatalf("elapsed = %d, want 21", s.TimeElapsedMinutes)
	}
}

func TestReadyForOptionsLatchIsOneWay(t *testing.T) {
	s := New("s1", "u1", ModeCoaching, 5)
	s.CurrentPhase = PhaseReality
	cfg := DefaultPhaseConfig()

	s.AdvanceTurn(cfg)
	s.AdvanceTurn(cfg)
	if !s.ReadyForOptions {
		t.Fatalf("ready_for_options not latched at depth %d for 5-minute budget", s.RealityExplorationDepth)
	}

	// The latch must survive later turns and phase changes.
	s.AdvanceTurn(cfg)
	if !s.ReadyForOptions {
		t.Fatalf("ready_for_options un-latched")
	}
}

func TestElapsedCappedAtBudgetAndMonotonic(t *testing.T) {
	s := New("s1", "u1", ModeCoaching, 5)
	s.CurrentPhase = PhaseReality
	cfg := DefaultPhaseConfig()

	for i := 0; i < 10; i++ {
		s.AdvanceTurn(cfg)
		if s.TimeElapsedMinutes > s.TimeBudgetMinutes {
			t.Fatalf("elapsed %d exceeds budget %d", s.TimeElapsedMinutes, s.TimeBudgetMinutes)
		}
	}
	if s.TimeElapsedMinutes != 5 {
		t.Fatalf("elapsed = %d, want budget cap 5", s.TimeElapsedMinutes)
	}

	// Shrinking the heuristic must not walk elapsed time backwards.
	s.AdvanceTurn(PhaseConfig{MinutesPerTurn: 0.1, SetupOverheadMin: 0, ExtensionWarningMin: 5})
	if s.TimeElapsedMinutes != 5 {
		t.Fatalf("elapsed moved backwards to %d", s.TimeElapsedMinutes)
	}
}

func TestExtensionFlaggedOnlyUntilOffered(t *testing.T) {
	s := New("s1", "u1", ModeCoaching, 5)
	s.CurrentPhase = PhaseReality
	cfg := DefaultPhaseConfig()

	out := s.AdvanceTurn(cfg)
	if !out.ExtensionEligible {
		t.Fatalf("expected extension eligibility near a 5-minute budget")
	}
	s.TimeExtensionOffered = true
	out = s.AdvanceTurn(cfg)
	if out.ExtensionEligible {
		t.Fatalf("extension flagged again after it was offered")
	}
}

func TestAdvancePhaseHonorsOptionsGate(t *testing.T) {
	s := New("s1", "u1", ModeCoaching, 15)

	if !s.AdvancePhase() || s.CurrentPhase != PhaseReality {
		t.Fatalf("goal -> reality transition failed, phase=%s", s.CurrentPhase)
	}

	s.ReadyForOptions = true
	if s.AdvancePhase() {
		t.Fatalf("left reality without emotions and exceptions")
	}
	s.EmotionsReflected = true
	if s.AdvancePhase() {
		t.Fatalf("left reality without exceptions explored")
	}
	s.ExceptionsExplored = true
	if !s.AdvancePhase() || s.CurrentPhase != PhaseOptions {
		t.Fatalf("reality -> options transition failed, phase=%s", s.CurrentPhase)
	}
	if !s.AdvancePhase() || s.CurrentPhase != PhaseWill {
		t.Fatalf("options -> will transition failed, phase=%s", s.CurrentPhase)
	}

	// Closing is reached only via Close, never by stepping.
	if s.AdvancePhase() {
		t.Fatalf("stepped past will")
	}
	s.Close()
	if s.CurrentPhase != PhaseClosing || s.Active {
		t.Fatalf("close: phase=%s active=%t", s.CurrentPhase, s.Active)
	}
}

func TestDepthGateWithoutContentSignalsHoldsReality(t *testing.T) {
	s := New("s1", "u1", ModeCoaching, 5)
	s.CurrentPhase = PhaseReality
	cfg := DefaultPhaseConfig()

	for i := 0; i < 4; i++ {
		s.AdvanceTurn(cfg)
	}
	if !s.ReadyForOptions {
		t.Fatalf("depth threshold not reached after 4 turns on a 5-minute budget")
	}
	if s.CanAdvanceToOptions() {
		t.Fatalf("options gate open on depth alone")
	}
	if s.AdvancePhase() {
		t.Fatalf("phase advanced on depth alone")
	}
}

func TestNewSessionDefaults(t *testing.T) {
	s := New("s1", "u1", ModeCoaching, 0)
	if s.TimeBudgetMinutes != 50 {
		t.Fatalf("zero budget defaulted to %d, want 50", s.TimeBudgetMinutes)
	}
	if s.CurrentPhase != PhaseGoal || s.CrisisLevel != CrisisNone || !s.Active {
		t.Fatalf("unexpected initial state: %+v", s)
	}

	d := New("s2", "u1", ModeDiscovery, 50)
	if d.TimeBudgetMinutes != DiscoveryBudgetMinutes {
		t.Fatalf("discovery budget = %d, want %d", d.TimeBudgetMinutes, DiscoveryBudgetMinutes)
	}
}

func TestCrisisLevelMonotonic(t *testing.T) {
	s := New("s1", "u1", ModeCheckIn, 50)
	s.RaiseCrisisLevel(CrisisHigh)
	s.RaiseCrisisLevel(CrisisLow)
	if s.CrisisLevel != CrisisHigh {
		t.Fatalf("crisis level de-escalated to %s", s.CrisisLevel)
	}
	s.RaiseCrisisLevel(CrisisCritical)
	if s.CrisisLevel != CrisisCritical {
		t.Fatalf("crisis level = %s, want critical", s.CrisisLevel)
	}
}

func TestParseCrisisLevelFailsToMedium(t *testing.T) {
	if got := ParseCrisisLevel("HIGH"); got != CrisisHigh {
		t.Fatalf("ParseCrisisLevel(HIGH) = %s", got)
	}
	if got := ParseCrisisLevel("garbled"); got != CrisisMedium {
		t.Fatalf("unknown level parsed to %s, want medium", got)
	}
	if got := ParseCrisisLevel(""); got != CrisisMedium {
		t.Fatalf("empty level parsed to %s, want medium", got)
	}
}

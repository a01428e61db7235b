package session

import (
	"strings"
	"time"
)

// Mode is the conversational stance of one session. It is fixed at creation;
// a discovery session that completes intake hands off to a new session rather
// than mutating its own mode.
type Mode string

const (
	ModeDiscovery        Mode = "discovery"
	ModePartialDiscovery Mode = "partial-discovery"
	ModeCheckIn          Mode = "check-in"
	ModeCoaching         Mode = "coaching"
)

// ParseMode maps an explicit request parameter to a Mode. Unknown or empty
// values return false; the selector then decides from profile completeness.
func ParseMode(raw string) (Mode, bool) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeDiscovery:
		return ModeDiscovery, true
	case ModePartialDiscovery:
		return ModePartialDiscovery, true
	case ModeCheckIn:
		return ModeCheckIn, true
	case ModeCoaching:
		return ModeCoaching, true
	}
	return "", false
}

// Phase is a GROW coaching phase. Transitions are linear; only coaching mode
// sessions move through phases at all.
type Phase string

const (
	PhaseGoal    Phase = "goal"
	PhaseReality Phase = "reality"
	PhaseOptions Phase = "options"
	PhaseWill    Phase = "will"
	PhaseClosing Phase = "closing"
)

// CrisisLevel is monotonically non-decreasing within a session. Only an
// operator-side reset (outside this service) can lower it.
type CrisisLevel string

const (
	CrisisNone     CrisisLevel = "none"
	CrisisLow      CrisisLevel = "low"
	CrisisMedium   CrisisLevel = "medium"
	CrisisHigh     CrisisLevel = "high"
	CrisisCritical CrisisLevel = "critical"
)

func (c CrisisLevel) rank() int {
	switch c {
	case CrisisLow:
		return 1
	case CrisisMedium:
		return 2
	case CrisisHigh:
		return 3
	case CrisisCritical:
		return 4
	}
	return 0
}

// AtLeast reports whether c is at or above other.
func (c CrisisLevel) AtLeast(other CrisisLevel) bool {
	return c.rank() >= other.rank()
}

// Max returns the higher of the two levels. Used to keep Session.CrisisLevel
// monotonic regardless of what an assessment reports.
func (c CrisisLevel) Max(other CrisisLevel) CrisisLevel {
	if other.rank() > c.rank() {
		return other
	}
	return c
}

// ParseCrisisLevel normalizes an externally reported risk level. Unknown
// values map to medium rather than none: an indeterminate assessment must
// never read as "no crisis".
func ParseCrisisLevel(raw string) CrisisLevel {
	switch CrisisLevel(strings.ToLower(strings.TrimSpace(raw))) {
	case CrisisNone:
		return CrisisNone
	case CrisisLow:
		return CrisisLow
	case CrisisMedium:
		return CrisisMedium
	case CrisisHigh:
		return CrisisHigh
	case CrisisCritical:
		return CrisisCritical
	}
	return CrisisMedium
}

// DiscoveryBudgetMinutes is the implicit time budget of discovery sessions.
const DiscoveryBudgetMinutes = 10

// Session is one coaching conversation instance. The orchestration core
// borrows it for the duration of a request; the session store owns it between
// requests.
type Session struct {
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`

	Mode         Mode  `json:"mode"`
	CurrentPhase Phase `json:"current_phase"`

	RealityExplorationDepth int  `json:"reality_exploration_depth"`
	EmotionsReflected       bool `json:"emotions_reflected"`
	ExceptionsExplored      bool `json:"exceptions_explored"`
	ReadyForOptions         bool `json:"ready_for_options"`

	CrisisLevel CrisisLevel `json:"crisis_level"`

	TimeBudgetMinutes    int  `json:"time_budget_minutes"`
	TimeElapsedMinutes   int  `json:"time_elapsed_minutes"`
	TimeExtensionOffered bool `json:"time_extension_offered"`

	Active    bool      `json:"is_active"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// New returns a session in its initial state. Budget values outside the fixed
// set are kept as-is; the depth table treats them as the 50-minute row.
func New(sessionID, userID string, mode Mode, budgetMinutes int) Session {
	if budgetMinutes <= 0 {
		budgetMinutes = 50
	}
	if mode == ModeDiscovery {
		budgetMinutes = DiscoveryBudgetMinutes
	}
	now := time.Now().UTC()
	return Session{
		SessionID:         sessionID,
		UserID:            userID,
		Mode:              mode,
		CurrentPhase:      PhaseGoal,
		CrisisLevel:       CrisisNone,
		TimeBudgetMinutes: budgetMinutes,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

// RaiseCrisisLevel applies the monotonic update rule.
func (s *Session) RaiseCrisisLevel(level CrisisLevel) {
	s.CrisisLevel = s.CrisisLevel.Max(level)
}

// Turn is one persisted exchange entry (a user or assistant message).
type Turn struct {
	SessionID string    `json:"session_id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

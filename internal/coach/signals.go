package coach

import (
	"context"
	"encoding/json"
	"fmt"

	"parentcoach/internal/coach/session"
	"parentcoach/internal/llm"
)

const signalsPrompt = `You observe one exchange of a structured coaching session (GROW model)
between a coach and a parent. Judge only what this exchange shows.

Return a JSON object with exactly these boolean fields:
- goal_established: the parent has named a concrete goal for the session
- emotions_reflected: the coach reflected the parent's feelings and the parent confirmed
- exceptions_explored: moments when the problem was absent or smaller were discussed
- commitment_made: the parent committed to a specific action
- ready_to_close: the parent signalled they want to end the session

Rules:
- Only report true on clear evidence in this exchange; default to false.`

// turnSignals are the content-driven flags the phase controller cannot derive
// from state alone. They only ever flip session booleans false to true.
type turnSignals struct {
	GoalEstablished    bool `json:"goal_established"`
	EmotionsReflected  bool `json:"emotions_reflected"`
	ExceptionsExplored bool `json:"exceptions_explored"`
	CommitmentMade     bool `json:"commitment_made"`
	ReadyToClose       bool `json:"ready_to_close"`
}

func extractTurnSignals(ctx context.Context, client llm.Client, userMessage, reply string) (turnSignals, error) {
	raw, err := client.GenerateJSON(ctx, signalsPrompt, map[string]string{
		"parent_message": userMessage,
		"coach_reply":    reply,
	})
	if err != nil {
		return turnSignals{}, err
	}
	var sig turnSignals
	if err := json.Unmarshal(raw, &sig); err != nil {
		return turnSignals{}, fmt.Errorf("coach: decode turn signals: %w", err)
	}
	return sig, nil
}

// applyTurnSignals folds the extracted signals into the session. Booleans are
// one-way; phase transitions follow the linear GROW order and the options
// gate.
func applyTurnSignals(s *session.Session, sig turnSignals) {
	if sig.EmotionsReflected {
		s.EmotionsReflected = true
	}
	if sig.ExceptionsExplored {
		s.ExceptionsExplored = true
	}
	if sig.GoalEstablished && s.CurrentPhase == session.PhaseGoal {
		s.AdvancePhase()
	}
	if s.CurrentPhase == session.PhaseReality && s.CanAdvanceToOptions() {
		s.AdvancePhase()
	}
	if sig.CommitmentMade && s.CurrentPhase == session.PhaseOptions {
		s.AdvancePhase()
	}
	if sig.ReadyToClose {
		s.Close()
	}
}

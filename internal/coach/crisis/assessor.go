package crisis

import (
	"context"
	"encoding/json"
	"fmt"

	"parentcoach/internal/coach/session"
	"parentcoach/internal/llm"
)

const assessPrompt = `You are a clinical risk-assessment service for a parent coaching product.
Given a parent's message, judge the safety risk.

Return a JSON object with exactly these fields:
- risk_level (string, required): one of "none", "low", "medium", "high", "critical"
- urgency (string, required): one of "routine", "soon", "immediate"
- message (string, required): a short, warm, direct safety response to show the parent
- resources (array of strings, required): crisis resources appropriate to the risk level

Rules:
- Any mention of harming self or a child is at least "high".
- When uncertain, choose the higher risk level.
- The message must not contain coaching content, only safety support.`

// LLMAssessor backs the Assessor contract with a structured model call.
type LLMAssessor struct {
	client llm.Client
}

func NewLLMAssessor(client llm.Client) *LLMAssessor {
	return &LLMAssessor{client: client}
}

type assessPayload struct {
	RiskLevel string   `json:"risk_level"`
	Urgency   string   `json:"urgency"`
	Message   string   `json:"message"`
	Resources []string `json:"resources"`
}

func (a *LLMAssessor) Assess(ctx context.Context, message string) (Assessment, error) {
	raw, err := a.client.GenerateJSON(ctx, assessPrompt, map[string]string{"message": message})
	if err != nil {
		return Assessment{}, err
	}
	var payload assessPayload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Assessment{}, fmt.Errorf("crisis: decode assessment: %w", err)
	}
	if payload.Message == "" {
		return Assessment{}, fmt.Errorf("crisis: assessment missing message text")
	}
	return Assessment{
		RiskLevel: session.ParseCrisisLevel(payload.RiskLevel),
		Urgency:   payload.Urgency,
		Message:   payload.Message,
		Resources: payload.Resources,
	}, nil
}

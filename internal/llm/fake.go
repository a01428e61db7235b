package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// FakeClient returns deterministic payloads for offline runs and tests.
type FakeClient struct {
	// Reply overrides the canned reply text when non-empty.
	Reply string
	// RiskLevel is echoed back from GenerateJSON risk prompts.
	RiskLevel string

	ReplyErr error
	JSONErr  error
}

func NewFakeClient() *FakeClient { return &FakeClient{} }

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateReply(_ context.Context, instructions string, history []Message, userMessage string) (string, Usage, error) {
	if f.ReplyErr != nil {
		return "", Usage{}, f.ReplyErr
	}
	if f.Reply != "" {
		return f.Reply, fakeUsage(instructions, f.Reply), nil
	}
	reply := fmt.Sprintf("fake reply to %q (%d history messages)", userMessage, len(history))
	return reply, fakeUsage(instructions, reply), nil
}

func (f *FakeClient) GenerateJSON(_ context.Context, prompt string, _ any) (json.RawMessage, error) {
	if f.JSONErr != nil {
		return nil, f.JSONErr
	}
	var obj any
	switch {
	case strings.Contains(prompt, "risk"):
		level := f.RiskLevel
		if level == "" {
			level = "high"
		}
		obj = map[string]any{
			"risk_level": level,
			"urgency":    "immediate",
			"message":    "fake crisis guidance",
			"resources":  []string{"988 Suicide & Crisis Lifeline"},
		}
	case strings.Contains(prompt, "intake"):
		obj = map[string]any{}
	default:
		obj = map[string]any{}
	}
	b, _ := json.Marshal(obj)
	return json.RawMessage(b), nil
}

func fakeUsage(in, out string) Usage {
	return Usage{InputTokens: int32(len(in) / 4), OutputTokens: int32(len(out) / 4)}
}

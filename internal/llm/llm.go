package llm

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrInvalidJSON = errors.New("llm: invalid JSON from model")
	ErrEmptyReply  = errors.New("llm: empty reply from model")
)

// Message is one prior exchange entry handed to the generation service.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Usage is the token accounting reported by the generation service.
type Usage struct {
	InputTokens  int32 `json:"input_tokens"`
	OutputTokens int32 `json:"output_tokens"`
}

// Client abstracts the external language-generation service. GenerateReply
// produces conversational text from an instruction set plus history;
// GenerateJSON requests a structured application/json answer for
// classification-style calls.
type Client interface {
	Name() string
	GenerateReply(ctx context.Context, instructions string, history []Message, userMessage string) (string, Usage, error)
	GenerateJSON(ctx context.Context, prompt string, input any) (json.RawMessage, error)
	Close() error
}

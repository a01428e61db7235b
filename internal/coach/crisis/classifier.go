package crisis

import (
	"context"
	"fmt"

	"parentcoach/internal/coach/session"
)

// Assessment is the structured output of the external risk-assessment
// capability. It is ephemeral: only RiskLevel feeds back into the session.
type Assessment struct {
	RiskLevel session.CrisisLevel `json:"risk_level"`
	Urgency   string              `json:"urgency"`
	Message   string              `json:"message"`
	Resources []string            `json:"resources"`
}

// Assessor is the external stage-2 judgment. This package defines when it
// runs and what it must return, not how it decides.
type Assessor interface {
	Assess(ctx context.Context, message string) (Assessment, error)
}

// Result is the classifier's answer for one inbound message.
type Result struct {
	// ShouldEscalate is the stage-1 signal: lexicon hit or sticky prior level.
	ShouldEscalate bool
	// Assessment is populated only when stage 2 ran.
	Assessment Assessment
}

// Classifier performs the two-stage crisis check.
type Classifier struct {
	lex      *Lexicon
	assessor Assessor
}

func NewClassifier(lex *Lexicon, assessor Assessor) *Classifier {
	if lex == nil {
		lex = DefaultLexicon()
	}
	return &Classifier{lex: lex, assessor: assessor}
}

// LexiconVersion reports the version of the active lexicon asset.
func (c *Classifier) LexiconVersion() string { return c.lex.Version }

// Screen is stage 1: cheap, synchronous, no external call. Once a session
// sits at high or critical, every later message screens positive regardless
// of content; there is no automatic de-escalation here.
func (c *Classifier) Screen(message string, prior session.CrisisLevel) bool {
	if prior.AtLeast(session.CrisisHigh) {
		return true
	}
	return c.lex.Matches(message)
}

// Assess runs the full check. When stage 1 signals risk, the expensive
// stage-2 assessment runs; its error propagates untouched so the caller can
// fail safe: an indeterminate assessment is never mapped to "no crisis".
func (c *Classifier) Assess(ctx context.Context, message string, prior session.CrisisLevel) (Result, error) {
	if !c.Screen(message, prior) {
		return Result{}, nil
	}
	if c.assessor == nil {
		return Result{ShouldEscalate: true}, fmt.Errorf("crisis: no assessor configured")
	}
	assessment, err := c.assessor.Assess(ctx, message)
	if err != nil {
		return Result{ShouldEscalate: true}, fmt.Errorf("crisis: stage-2 assessment: %w", err)
	}
	return Result{ShouldEscalate: true, Assessment: assessment}, nil
}

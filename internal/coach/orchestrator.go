// Package coach sequences the per-message pipeline: crisis screening, session
// state, mode and phase control, prompt composition, and the external
// generation call.
package coach

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"parentcoach/internal/coach/crisis"
	"parentcoach/internal/coach/profile"
	"parentcoach/internal/coach/prompt"
	"parentcoach/internal/coach/session"
	"parentcoach/internal/llm"
)

var (
	ErrEmptyMessage = errors.New("coach: message is required")
	ErrNoUser       = errors.New("coach: user id is required")
	// ErrGenerationUnavailable covers a failed or unreachable generation
	// call; the caller surfaces a generic technical-difficulty response.
	ErrGenerationUnavailable = errors.New("coach: generation service unavailable")
	// ErrCrisisIndeterminate is the fail-safe path: the stage-2 assessment
	// did not complete, so the crisis status is unknown and must never be
	// treated as cleared.
	ErrCrisisIndeterminate = errors.New("coach: crisis assessment indeterminate")
)

// Config carries the orchestrator's tunables.
type Config struct {
	CompletenessThreshold int
	Phase                 session.PhaseConfig
	HistoryWindow         int
}

func DefaultConfig() Config {
	return Config{
		CompletenessThreshold: session.DefaultCompletenessThreshold,
		Phase:                 session.DefaultPhaseConfig(),
		HistoryWindow:         30,
	}
}

// Orchestrator coordinates one inbound message end to end.
type Orchestrator struct {
	sessions   SessionStore
	profiles   ProfileStore
	classifier *crisis.Classifier
	client     llm.Client
	cfg        Config
}

func NewOrchestrator(sessions SessionStore, profiles ProfileStore, classifier *crisis.Classifier, client llm.Client, cfg Config) *Orchestrator {
	if cfg.CompletenessThreshold <= 0 {
		cfg.CompletenessThreshold = session.DefaultCompletenessThreshold
	}
	if cfg.HistoryWindow <= 0 {
		cfg.HistoryWindow = 30
	}
	return &Orchestrator{
		sessions:   sessions,
		profiles:   profiles,
		classifier: classifier,
		client:     client,
		cfg:        cfg,
	}
}

// SubmitRequest is the single inbound operation.
type SubmitRequest struct {
	Message           string `json:"message"`
	SessionID         string `json:"session_id,omitempty"`
	UserID            string `json:"user_id"`
	TimeBudgetMinutes int    `json:"time_budget_minutes,omitempty"`
	ExplicitMode      string `json:"explicit_mode,omitempty"`
}

// SubmitResult is what every turn returns, crisis or not.
type SubmitResult struct {
	ReplyText  string        `json:"reply_text"`
	SessionID  string        `json:"session_id"`
	Mode       session.Mode  `json:"mode"`
	Phase      session.Phase `json:"phase,omitempty"`
	CrisisFlag bool          `json:"crisis_flag"`
	Resources  []string      `json:"resources,omitempty"`
	Usage      llm.Usage     `json:"usage"`
}

// HandleMessage runs the pipeline for one inbound message.
func (o *Orchestrator) HandleMessage(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	if strings.TrimSpace(req.Message) == "" {
		return SubmitResult{}, ErrEmptyMessage
	}
	if strings.TrimSpace(req.UserID) == "" {
		return SubmitResult{}, ErrNoUser
	}

	sess, created := o.loadOrCreate(req)

	// Crisis check runs before any coaching logic. An error here is
	// indeterminate, never "no crisis".
	crisisRes, err := o.classifier.Assess(ctx, req.Message, sess.CrisisLevel)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %v", ErrCrisisIndeterminate, err)
	}
	if crisisRes.ShouldEscalate {
		level := sess.CrisisLevel.Max(crisisRes.Assessment.RiskLevel)
		if level.AtLeast(session.CrisisHigh) {
			return o.handleCrisisTurn(sess, created, req.Message, crisisRes.Assessment, level)
		}
		// Confirmed low/medium: record the level, keep coaching.
		sess.RaiseCrisisLevel(level)
	}

	parent, _ := o.profiles.Parent(req.UserID)
	children := o.profiles.Children(req.UserID)
	completeness := profile.Evaluate(parent, children)

	// Phase state advances on a working copy; nothing persists unless the
	// generation call succeeds.
	next := sess
	outcome := next.AdvanceTurn(o.cfg.Phase)

	instructions, err := prompt.Compose(prompt.Input{
		Mode:           next.Mode,
		Session:        next,
		Completeness:   completeness,
		Parent:         parent,
		Children:       children,
		OfferExtension: outcome.ExtensionEligible,
	})
	if err != nil {
		return SubmitResult{}, err
	}

	history := toMessages(o.sessions.History(next.SessionID, o.cfg.HistoryWindow))
	reply, usage, err := o.client.GenerateReply(ctx, instructions, history, req.Message)
	if err != nil {
		return SubmitResult{}, fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
	}
	if outcome.ExtensionEligible {
		// The offer is in the reply now; don't offer twice.
		next.TimeExtensionOffered = true
	}

	o.runExtractors(ctx, &next, req.Message, reply)
	o.persistTurn(sess, next, created, req.Message, reply)

	return SubmitResult{
		ReplyText: reply,
		SessionID: next.SessionID,
		Mode:      next.Mode,
		Phase:     next.CurrentPhase,
		Usage:     usage,
	}, nil
}

// Sessions lists a user's sessions, newest first ordering is the store's.
func (o *Orchestrator) Sessions(userID string) []session.Session {
	return o.sessions.ListByUser(userID)
}

func (o *Orchestrator) loadOrCreate(req SubmitRequest) (session.Session, bool) {
	requested, _ := session.ParseMode(req.ExplicitMode)

	if requested != session.ModeDiscovery {
		if sid := strings.TrimSpace(req.SessionID); sid != "" {
			if sess, ok := o.sessions.Get(sid); ok && sess.UserID == req.UserID {
				return sess, false
			}
		}
		if sess, ok := o.sessions.GetActiveByUser(req.UserID); ok {
			return sess, false
		}
	}

	parent, _ := o.profiles.Parent(req.UserID)
	completeness := profile.Evaluate(parent, o.profiles.Children(req.UserID))
	mode := session.SelectMode(requested, completeness, o.cfg.CompletenessThreshold)
	return session.New(uuid.NewString(), req.UserID, mode, req.TimeBudgetMinutes), true
}

// handleCrisisTurn is the short-circuit path: the crisis level is persisted
// before the response counts as handled, and no coaching state moves.
func (o *Orchestrator) handleCrisisTurn(sess session.Session, created bool, userMessage string, assessment crisis.Assessment, level session.CrisisLevel) (SubmitResult, error) {
	sess.RaiseCrisisLevel(level)
	if created {
		if err := o.sessions.Put(sess); err != nil {
			return SubmitResult{}, fmt.Errorf("coach: persist crisis session: %w", err)
		}
	} else {
		if _, ok := o.sessions.Update(sess.SessionID, func(cur *session.Session) {
			cur.RaiseCrisisLevel(level)
			cur.UpdatedAt = time.Now().UTC()
		}); !ok {
			return SubmitResult{}, fmt.Errorf("coach: persist crisis level for session %s failed", sess.SessionID)
		}
	}

	reply := crisisReply(assessment)
	o.appendTurns(sess.SessionID, userMessage, reply)

	return SubmitResult{
		ReplyText:  reply,
		SessionID:  sess.SessionID,
		Mode:       sess.Mode,
		Phase:      sess.CurrentPhase,
		CrisisFlag: true,
		Resources:  assessment.Resources,
	}, nil
}

func crisisReply(a crisis.Assessment) string {
	var b strings.Builder
	b.WriteString(strings.TrimSpace(a.Message))
	if len(a.Resources) > 0 {
		b.WriteString("\n")
		for _, r := range a.Resources {
			b.WriteString("\n- ")
			b.WriteString(r)
		}
	}
	return b.String()
}

// runExtractors applies the content-driven, best-effort steps after a
// successful generation: GROW signals for coaching sessions, profile intake
// for discovery sessions. Failures are logged, never surfaced; the reply is
// already in hand.
func (o *Orchestrator) runExtractors(ctx context.Context, next *session.Session, userMessage, reply string) {
	switch next.Mode {
	case session.ModeCoaching:
		sig, err := extractTurnSignals(ctx, o.client, userMessage, reply)
		if err != nil {
			log.Printf("turn signal extraction failed for session %s: %v", next.SessionID, err)
			return
		}
		applyTurnSignals(next, sig)
	case session.ModeDiscovery, session.ModePartialDiscovery:
		if err := extractIntake(ctx, o.client, o.profiles, next.UserID, userMessage); err != nil {
			log.Printf("intake extraction failed for user %s: %v", next.UserID, err)
		}
	}
}

// persistTurn writes the updated session and both turn records. A failed
// write must not block the reply the user already earned, so failures are
// logged and the response proceeds.
func (o *Orchestrator) persistTurn(prev, next session.Session, created bool, userMessage, reply string) {
	next.UpdatedAt = time.Now().UTC()
	if created {
		if err := o.sessions.Put(next); err != nil {
			log.Printf("persist new session %s failed: %v", next.SessionID, err)
		}
	} else {
		if _, ok := o.sessions.Update(prev.SessionID, func(cur *session.Session) {
			*cur = next
		}); !ok {
			log.Printf("persist session %s failed", prev.SessionID)
		}
	}
	o.appendTurns(next.SessionID, userMessage, reply)
}

func (o *Orchestrator) appendTurns(sessionID, userMessage, reply string) {
	now := time.Now().UTC()
	for _, t := range []session.Turn{
		{SessionID: sessionID, Role: session.RoleUser, Content: userMessage, CreatedAt: now},
		{SessionID: sessionID, Role: session.RoleAssistant, Content: reply, CreatedAt: now},
	} {
		if err := o.sessions.AppendTurn(t); err != nil {
			log.Printf("append %s turn for session %s failed: %v", t.Role, sessionID, err)
		}
	}
}

func toMessages(turns []session.Turn) []llm.Message {
	msgs := make([]llm.Message, 0, len(turns))
	for _, t := range turns {
		msgs = append(msgs, llm.Message{Role: t.Role, Content: t.Content})
	}
	return msgs
}

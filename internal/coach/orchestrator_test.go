package coach

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"parentcoach/internal/coach/crisis"
	"parentcoach/internal/coach/profile"
	"parentcoach/internal/coach/session"
	"parentcoach/internal/llm"
	"parentcoach/internal/repository/profilestore"
	"parentcoach/internal/repository/sessionstore"
)

func newTestOrchestrator(t *testing.T, fake *llm.FakeClient) (*Orchestrator, *sessionstore.Store, *profilestore.Store) {
	t.Helper()
	dir := t.TempDir()
	sessions := sessionstore.New(filepath.Join(dir, "sessions.json"))
	profiles := profilestore.New(filepath.Join(dir, "profiles.json"))
	classifier := crisis.NewClassifier(nil, crisis.NewLLMAssessor(fake))
	return NewOrchestrator(sessions, profiles, classifier, fake, DefaultConfig()), sessions, profiles
}

func TestHandleMessageValidation(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, llm.NewFakeClient())
	ctx := context.Background()

	if _, err := orch.HandleMessage(ctx, SubmitRequest{UserID: "u1"}); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("empty message: %v", err)
	}
	if _, err := orch.HandleMessage(ctx, SubmitRequest{Message: "   "}); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("blank message: %v", err)
	}
	if _, err := orch.HandleMessage(ctx, SubmitRequest{Message: "hi"}); !errors.Is(err, ErrNoUser) {
		t.Fatalf("missing user: %v", err)
	}
}

func TestHandleMessageCreatesCheckInForNewUser(t *testing.T) {
	orch, sessions, _ := newTestOrchestrator(t, llm.NewFakeClient())

	res, err := orch.HandleMessage(context.Background(), SubmitRequest{
		Message: "rough morning again", UserID: "u1",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Mode != session.ModeCheckIn {
		t.Fatalf("new user with no profile got mode %s, want check-in", res.Mode)
	}
	if res.CrisisFlag {
		t.Fatalf("benign message flagged as crisis")
	}
	if res.ReplyText == "" || res.SessionID == "" {
		t.Fatalf("incomplete result: %+v", res)
	}

	stored, ok := sessions.Get(res.SessionID)
	if !ok || !stored.Active {
		t.Fatalf("session not persisted active: ok=%t %+v", ok, stored)
	}
	turns := sessions.History(res.SessionID, 10)
	if len(turns) != 2 || turns[0].Role != session.RoleUser || turns[1].Role != session.RoleAssistant {
		t.Fatalf("history = %+v", turns)
	}
}

func TestHandleMessageResumesActiveSession(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, llm.NewFakeClient())
	ctx := context.Background()

	first, err := orch.HandleMessage(ctx, SubmitRequest{Message: "hello", UserID: "u1"})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	second, err := orch.HandleMessage(ctx, SubmitRequest{Message: "more", UserID: "u1"})
	if err != nil {
		t.Fatalf("second: %v", err)
	}
	if second.SessionID != first.SessionID {
		t.Fatalf("active session not resumed: %s vs %s", second.SessionID, first.SessionID)
	}
}

func TestHandleMessageExplicitDiscoveryStartsFresh(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, llm.NewFakeClient())
	ctx := context.Background()

	first, err := orch.HandleMessage(ctx, SubmitRequest{Message: "hello", UserID: "u1"})
	if err != nil {
		t.Fatalf("first: %v", err)
	}
	fresh, err := orch.HandleMessage(ctx, SubmitRequest{
		Message: "let's start over", UserID: "u1", ExplicitMode: "discovery",
	})
	if err != nil {
		t.Fatalf("discovery: %v", err)
	}
	if fresh.SessionID == first.SessionID {
		t.Fatalf("explicit discovery reused the active session")
	}
	if fresh.Mode != session.ModeDiscovery {
		t.Fatalf("mode = %s, want discovery", fresh.Mode)
	}
}

func TestHandleMessageSelectsCoachingForCompleteProfile(t *testing.T) {
	orch, _, profiles := newTestOrchestrator(t, llm.NewFakeClient())

	now := time.Now().UTC()
	if err := profiles.PutParent(profile.ParentRecord{
		UserID: "u1", Name: "Dana", FamilyContext: "two kids", UpdatedAt: now,
	}); err != nil {
		t.Fatalf("put parent: %v", err)
	}
	if err := profiles.PutChild(profile.ChildRecord{
		ChildID: "c1", UserID: "u1", Name: "Theo", Age: 9,
		Challenges: "homework focus", SchoolType: "public", Therapy: "weekly OT",
		UpdatedAt: now,
	}); err != nil {
		t.Fatalf("put child: %v", err)
	}

	res, err := orch.HandleMessage(context.Background(), SubmitRequest{
		Message: "I want to work on mornings", UserID: "u1",
		ExplicitMode: "coaching", TimeBudgetMinutes: 30,
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Mode != session.ModeCoaching {
		t.Fatalf("mode = %s, want coaching", res.Mode)
	}
	if res.Phase != session.PhaseGoal {
		t.Fatalf("new coaching session in phase %s, want goal", res.Phase)
	}
}

func TestHandleMessagePartialProfileResumesIntake(t *testing.T) {
	orch, _, profiles := newTestOrchestrator(t, llm.NewFakeClient())

	if err := profiles.PutParent(profile.ParentRecord{
		UserID: "u1", Name: "Dana", UpdatedAt: time.Now().UTC(),
	}); err != nil {
		t.Fatalf("put parent: %v", err)
	}

	res, err := orch.HandleMessage(context.Background(), SubmitRequest{
		Message: "hi again", UserID: "u1", ExplicitMode: "coaching",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Mode != session.ModePartialDiscovery {
		t.Fatalf("mode = %s, want partial-discovery", res.Mode)
	}
}

func TestHandleMessageCrisisShortCircuit(t *testing.T) {
	orch, sessions, _ := newTestOrchestrator(t, llm.NewFakeClient())
	ctx := context.Background()

	res, err := orch.HandleMessage(ctx, SubmitRequest{
		Message: "I want to kill myself", UserID: "u1",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if !res.CrisisFlag {
		t.Fatalf("crisis message not flagged")
	}
	if len(res.Resources) == 0 {
		t.Fatalf("crisis response carries no resources")
	}
	if res.ReplyText == "" {
		t.Fatalf("crisis response is silent")
	}

	stored, ok := sessions.Get(res.SessionID)
	if !ok {
		t.Fatalf("crisis session not persisted")
	}
	if !stored.CrisisLevel.AtLeast(session.CrisisHigh) {
		t.Fatalf("stored crisis level = %s", stored.CrisisLevel)
	}
	if stored.CurrentPhase != session.PhaseGoal {
		t.Fatalf("crisis turn moved phase to %s", stored.CurrentPhase)
	}

	// Sticky: the next message short-circuits on the prior level even though
	// its content is benign.
	again, err := orch.HandleMessage(ctx, SubmitRequest{
		Message: "the weather is nice today", UserID: "u1",
	})
	if err != nil {
		t.Fatalf("follow-up: %v", err)
	}
	if !again.CrisisFlag {
		t.Fatalf("escalated session de-escalated on benign content")
	}
	if again.SessionID != res.SessionID {
		t.Fatalf("follow-up did not resume the escalated session")
	}
}

func TestHandleMessageLowRiskContinuesCoaching(t *testing.T) {
	fake := &llm.FakeClient{RiskLevel: "low"}
	orch, sessions, _ := newTestOrchestrator(t, fake)

	res, err := orch.HandleMessage(context.Background(), SubmitRequest{
		Message: "some days I can't cope", UserID: "u1",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.CrisisFlag {
		t.Fatalf("low risk short-circuited the turn")
	}
	stored, _ := sessions.Get(res.SessionID)
	if stored.CrisisLevel != session.CrisisLow {
		t.Fatalf("low level not recorded: %s", stored.CrisisLevel)
	}
}

func TestHandleMessageCrisisIndeterminateFailsSafe(t *testing.T) {
	fake := &llm.FakeClient{JSONErr: errors.New("model down")}
	orch, sessions, _ := newTestOrchestrator(t, fake)

	_, err := orch.HandleMessage(context.Background(), SubmitRequest{
		Message: "I want to kill myself", UserID: "u1",
	})
	if !errors.Is(err, ErrCrisisIndeterminate) {
		t.Fatalf("err = %v, want ErrCrisisIndeterminate", err)
	}
	if got := sessions.ListByUser("u1"); len(got) != 0 {
		t.Fatalf("indeterminate turn persisted state: %+v", got)
	}
}

func TestHandleMessageGenerationFailurePersistsNothing(t *testing.T) {
	fake := &llm.FakeClient{ReplyErr: errors.New("upstream 500")}
	orch, sessions, _ := newTestOrchestrator(t, fake)

	_, err := orch.HandleMessage(context.Background(), SubmitRequest{
		Message: "rough morning", UserID: "u1",
	})
	if !errors.Is(err, ErrGenerationUnavailable) {
		t.Fatalf("err = %v, want ErrGenerationUnavailable", err)
	}
	if got := sessions.ListByUser("u1"); len(got) != 0 {
		t.Fatalf("failed turn persisted sessions: %+v", got)
	}
}

func TestHandleMessageExtensionOfferedOnce(t *testing.T) {
	orch, sessions, _ := newTestOrchestrator(t, llm.NewFakeClient())
	ctx := context.Background()

	sess := session.New("sess-ext", "u1", session.ModeCoaching, 5)
	sess.CurrentPhase = session.PhaseReality
	sess.RealityExplorationDepth = 1
	if err := sessions.Put(sess); err != nil {
		t.Fatalf("seed: %v", err)
	}

	res, err := orch.HandleMessage(ctx, SubmitRequest{
		Message: "it keeps happening", UserID: "u1", SessionID: "sess-ext",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	stored, _ := sessions.Get(res.SessionID)
	if !stored.TimeExtensionOffered {
		t.Fatalf("extension offer not recorded near the budget limit")
	}
	if stored.RealityExplorationDepth != 2 {
		t.Fatalf("depth = %d, want 2", stored.RealityExplorationDepth)
	}
	if !stored.ReadyForOptions {
		t.Fatalf("depth threshold met but latch not set")
	}
}

func TestHandleMessageDiscoveryRunsIntake(t *testing.T) {
	orch, _, profiles := newTestOrchestrator(t, llm.NewFakeClient())

	res, err := orch.HandleMessage(context.Background(), SubmitRequest{
		Message: "I'm Dana, mother of Theo who is nine", UserID: "u1",
		ExplicitMode: "discovery",
	})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	if res.Mode != session.ModeDiscovery {
		t.Fatalf("mode = %s", res.Mode)
	}
	// The canned extractor returns no facts, but the parent record is still
	// initialized for the user.
	if _, ok := profiles.Parent("u1"); !ok {
		t.Fatalf("intake did not touch the profile store")
	}
}

func TestSessionsListing(t *testing.T) {
	orch, _, _ := newTestOrchestrator(t, llm.NewFakeClient())
	ctx := context.Background()

	if _, err := orch.HandleMessage(ctx, SubmitRequest{Message: "one", UserID: "u1"}); err != nil {
		t.Fatalf("first: %v", err)
	}
	if _, err := orch.HandleMessage(ctx, SubmitRequest{Message: "two", UserID: "u1", ExplicitMode: "discovery"}); err != nil {
		t.Fatalf("second: %v", err)
	}
	if got := orch.Sessions("u1"); len(got) != 2 {
		t.Fatalf("sessions listed = %d, want 2", len(got))
	}
	if got := orch.Sessions("stranger"); len(got) != 0 {
		t.Fatalf("stranger sees %d sessions", len(got))
	}
}

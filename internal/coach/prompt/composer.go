// Package prompt assembles the instruction set handed to the generation
// service. Composition is pure: identical inputs render byte-identical text,
// since this output plus the conversation history is the entire contract with
// the external model.
package prompt

import (
	"bytes"
	"fmt"
	"strings"

	"parentcoach/internal/coach/profile"
	"parentcoach/internal/coach/session"
)

// Input carries everything the composer may inject.
type Input struct {
	Mode         session.Mode
	Session      session.Session
	Completeness profile.Completeness
	Parent       profile.ParentRecord
	Children     []profile.ChildRecord

	// OfferExtension tells the coaching template to surface the
	// approaching-limit offer this turn.
	OfferExtension bool
}

const roleSection = `You are a warm, practical coach for parents of children with ADHD.
You never diagnose, never prescribe, and you keep replies short enough to read on a phone.`

// Compose selects the instruction template for the mode and renders it.
func Compose(in Input) (string, error) {
	switch in.Mode {
	case session.ModeDiscovery:
		return composeDiscovery(in), nil
	case session.ModePartialDiscovery:
		return composePartialDiscovery(in), nil
	case session.ModeCheckIn:
		return composeCheckIn(in), nil
	case session.ModeCoaching:
		return composeCoaching(in), nil
	}
	return "", fmt.Errorf("prompt: unknown mode %q", in.Mode)
}

func composeDiscovery(in Input) string {
	var buf bytes.Buffer
	writeSection(&buf, "ROLE", roleSection)
	writeSection(&buf, "STANCE", `This is a structured intake conversation. Get to know the family step by step:
the parent themselves, each child's name and age, the child's challenges and strengths,
school situation, and any medication or therapy. One topic at a time, one question per reply.`)
	writeSection(&buf, "KNOWN_FACTS", formatFacts(in.Parent, in.Children))
	writeSection(&buf, "RULES", formatList([]string{
		"Ask about exactly one missing topic per reply.",
		"Acknowledge what the parent shares before moving on.",
		"Never re-ask something already in KNOWN_FACTS.",
	}))
	return finish(&buf)
}

func composePartialDiscovery(in Input) string {
	var buf bytes.Buffer
	writeSection(&buf, "ROLE", roleSection)
	writeSection(&buf, "STANCE", `This is a resumed intake conversation. The profile below is partially complete.
Ask only for what is still missing, in the order listed; never re-ask known facts.`)
	writeSection(&buf, "STILL_MISSING", formatList(in.Completeness.MissingFields))
	writeSection(&buf, "RULES", formatList([]string{
		"Work through STILL_MISSING strictly top to bottom.",
		"One question per reply.",
		"If the parent changes topic, follow them briefly, then return to the list.",
	}))
	return finish(&buf)
}

func composeCheckIn(in Input) string {
	var buf bytes.Buffer
	writeSection(&buf, "ROLE", roleSection)
	writeSection(&buf, "STANCE", `This is a light, supportive check-in. Listen, reflect, and encourage.
No structured coaching agenda; follow the parent's lead.`)
	writeSection(&buf, "KNOWN_FACTS", formatFacts(in.Parent, in.Children))
	return finish(&buf)
}

func composeCoaching(in Input) string {
	s := in.Session
	var buf bytes.Buffer
	writeSection(&buf, "ROLE", roleSection)
	writeSection(&buf, "STANCE", `This is a structured coaching session following the GROW model:
Goal, Reality, Options, Will. Stay in the current phase; phase changes are decided elsewhere.`)
	writeSection(&buf, "KNOWN_FACTS", formatFacts(in.Parent, in.Children))
	writeSection(&buf, "PHASE_STATE", formatPhaseState(s))
	writeSection(&buf, "TIME", fmt.Sprintf("budget_minutes: %d\nelapsed_minutes: %d", s.TimeBudgetMinutes, s.TimeElapsedMinutes))
	rules := []string{phaseGuidance(s)}
	if in.OfferExtension {
		rules = append(rules, "Time is nearly up. Before anything else, offer the parent a short extension or a wrap-up, and respect their choice.")
	}
	writeSection(&buf, "RULES", formatList(rules))
	return finish(&buf)
}

func phaseGuidance(s session.Session) string {
	switch s.CurrentPhase {
	case session.PhaseGoal:
		return "Help the parent name one concrete goal for this session."
	case session.PhaseReality:
		if s.CanAdvanceToOptions() {
			return "The situation is well explored. Summarize what you heard and invite the parent toward options."
		}
		return "Keep exploring the current reality: feelings, concrete examples, and exceptions when things went better."
	case session.PhaseOptions:
		return "Brainstorm options with the parent. Let them generate ideas first; add at most one of your own."
	case session.PhaseWill:
		return "Turn the chosen option into one small, specific commitment for the coming week."
	case session.PhaseClosing:
		return "Wrap up warmly: summarize the commitment and end the session."
	}
	return "Follow the parent's lead."
}

func formatPhaseState(s session.Session) string {
	return fmt.Sprintf(
		"phase: %s\nreality_depth: %d\nmin_depth: %d\nready_for_options: %t\nemotions_reflected: %t\nexceptions_explored: %t\ncan_advance_to_options: %t",
		s.CurrentPhase,
		s.RealityExplorationDepth,
		session.MinRealityDepth(s.TimeBudgetMinutes),
		s.ReadyForOptions,
		s.EmotionsReflected,
		s.ExceptionsExplored,
		s.CanAdvanceToOptions(),
	)
}

func formatFacts(parent profile.ParentRecord, children []profile.ChildRecord) string {
	var buf strings.Builder
	if strings.TrimSpace(parent.Name) != "" {
		fmt.Fprintf(&buf, "- parent name: %s\n", parent.Name)
	}
	if strings.TrimSpace(parent.FamilyContext) != "" {
		fmt.Fprintf(&buf, "- family context: %s\n", parent.FamilyContext)
	}
	if strings.TrimSpace(parent.SupportNetwork) != "" {
		fmt.Fprintf(&buf, "- support network: %s\n", parent.SupportNetwork)
	}
	for _, ch := range children {
		if strings.TrimSpace(ch.Name) == "" {
			continue
		}
		fmt.Fprintf(&buf, "- child: %s", ch.Name)
		if ch.Age > 0 {
			fmt.Fprintf(&buf, ", age %d", ch.Age)
		}
		buf.WriteString("\n")
		writeChildFact(&buf, "challenges", ch.Challenges)
		writeChildFact(&buf, "strengths", ch.Strengths)
		writeChildFact(&buf, "school type", ch.SchoolType)
		writeChildFact(&buf, "grade level", ch.GradeLevel)
		writeChildFact(&buf, "medication", ch.Medication)
		writeChildFact(&buf, "therapy", ch.Therapy)
	}
	if buf.Len() == 0 {
		return "- nothing known yet"
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeChildFact(buf *strings.Builder, label, value string) {
	if strings.TrimSpace(value) == "" {
		return
	}
	fmt.Fprintf(buf, "  - %s: %s\n", label, value)
}

func formatList(items []string) string {
	var buf strings.Builder
	for _, item := range items {
		item = strings.TrimSpace(item)
		if item == "" {
			continue
		}
		fmt.Fprintf(&buf, "- %s\n", item)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func writeSection(buf *bytes.Buffer, title, body string) {
	if strings.TrimSpace(body) == "" {
		return
	}
	buf.WriteString("[")
	buf.WriteString(title)
	buf.WriteString("]\n")
	buf.WriteString(body)
	if !strings.HasSuffix(body, "\n") {
		buf.WriteString("\n")
	}
	buf.WriteString("\n")
}

func finish(buf *bytes.Buffer) string {
	return strings.TrimSpace(buf.String()) + "\n"
}

package coach

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"parentcoach/internal/coach/profile"
	"parentcoach/internal/llm"
)

const intakePrompt = `You extract intake facts from one message a parent sent during an
intake conversation for an ADHD parent coaching product.

Return a JSON object with these fields (omit anything the message does not state):
- parent_name (string)
- family_context (string): household or family situation in the parent's words
- support_network (string): who supports the family
- children (array of objects): name (string), age (number), challenges (string),
  strengths (string), school_type (string), grade_level (string),
  medication (string), therapy (string)

Rules:
- Extract only what the message states explicitly; never infer or embellish.
- Keep the parent's own wording for free-text fields.`

type intakeExtraction struct {
	ParentName     string `json:"parent_name"`
	FamilyContext  string `json:"family_context"`
	SupportNetwork string `json:"support_network"`
	Children       []struct {
		Name       string `json:"name"`
		Age        int    `json:"age"`
		Challenges string `json:"challenges"`
		Strengths  string `json:"strengths"`
		SchoolType string `json:"school_type"`
		GradeLevel string `json:"grade_level"`
		Medication string `json:"medication"`
		Therapy    string `json:"therapy"`
	} `json:"children"`
}

// extractIntake parses profile facts out of a discovery-mode message and
// merges them into the profile store. Existing values are never overwritten
// with blanks.
func extractIntake(ctx context.Context, client llm.Client, profiles ProfileStore, userID, message string) error {
	raw, err := client.GenerateJSON(ctx, intakePrompt, map[string]string{"message": message})
	if err != nil {
		return err
	}
	var ext intakeExtraction
	if err := json.Unmarshal(raw, &ext); err != nil {
		return fmt.Errorf("coach: decode intake extraction: %w", err)
	}

	now := time.Now().UTC()
	parent, _ := profiles.Parent(userID)
	parent.UserID = userID
	merge(&parent.Name, ext.ParentName)
	merge(&parent.FamilyContext, ext.FamilyContext)
	merge(&parent.SupportNetwork, ext.SupportNetwork)
	parent.UpdatedAt = now
	if err := profiles.PutParent(parent); err != nil {
		return err
	}

	existing := profiles.Children(userID)
	for _, c := range ext.Children {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		child := findChild(existing, c.Name)
		if child == nil {
			existing = append(existing, profile.ChildRecord{
				ChildID: uuid.NewString(),
				UserID:  userID,
				Name:    strings.TrimSpace(c.Name),
			})
			child = &existing[len(existing)-1]
		}
		if c.Age > 0 {
			child.Age = c.Age
		}
		merge(&child.Challenges, c.Challenges)
		merge(&child.Strengths, c.Strengths)
		merge(&child.SchoolType, c.SchoolType)
		merge(&child.GradeLevel, c.GradeLevel)
		merge(&child.Medication, c.Medication)
		merge(&child.Therapy, c.Therapy)
		child.UpdatedAt = now
		if err := profiles.PutChild(*child); err != nil {
			return err
		}
	}
	return nil
}

func merge(dst *string, src string) {
	if strings.TrimSpace(src) != "" {
		*dst = strings.TrimSpace(src)
	}
}

func findChild(children []profile.ChildRecord, name string) *profile.ChildRecord {
	name = strings.ToLower(strings.TrimSpace(name))
	for i := range children {
		if strings.ToLower(strings.TrimSpace(children[i].Name)) == name {
			return &children[i]
		}
	}
	return nil
}

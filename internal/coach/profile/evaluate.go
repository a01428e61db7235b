package profile

import "strings"

// Completeness is the derived snapshot of how much intake data exists for a
// user. It is recomputed per request from the stored records and never
// persisted itself.
type Completeness struct {
	CompletionPercentage int      `json:"completion_percentage"`
	MissingFields        []string `json:"missing_fields"`

	HasParentInfo    bool `json:"has_parent_info"`
	HasChildren      bool `json:"has_children"`
	HasChildDetails  bool `json:"has_child_details"`
	HasSchoolInfo    bool `json:"has_school_info"`
	HasTreatmentInfo bool `json:"has_treatment_info"`
}

// Missing-field prompts, one per tier, in the order downstream prompt
// composition asks about them. The order is part of the contract.
const (
	missingParentInfo = "the parent's name and family situation"
	missingChildren   = "at least one child's name and age"
	missingDetails    = "the child's main challenges and strengths"
	missingSchool     = "the child's school type or grade level"
	missingTreatment  = "current medication or therapy status"
)

func present(s string) bool { return strings.TrimSpace(s) != "" }

// Evaluate computes the completeness snapshot. Each tier has its own
// minimal-presence rule and is judged independently; the percentage is an
// equal weighting of the five tiers, which keeps it monotonic: filling any
// missing field can only raise or hold the score.
func Evaluate(parent ParentRecord, children []ChildRecord) Completeness {
	var c Completeness

	c.HasParentInfo = present(parent.Name) || present(parent.FamilyContext) || present(parent.SupportNetwork)

	var primary *ChildRecord
	for i := range children {
		ch := &children[i]
		if present(ch.Name) && ch.Age > 0 {
			c.HasChildren = true
			if primary == nil {
				primary = ch
			}
		}
		if present(ch.Challenges) || present(ch.Strengths) {
			c.HasChildDetails = true
		}
	}
	if primary == nil && len(children) > 0 {
		primary = &children[0]
	}
	if primary != nil {
		c.HasSchoolInfo = present(primary.SchoolType) || present(primary.GradeLevel)
		c.HasTreatmentInfo = present(primary.Medication) || present(primary.Therapy)
	}

	tiers := []struct {
		done   bool
		prompt string
	}{
		{c.HasParentInfo, missingParentInfo},
		{c.HasChildren, missingChildren},
		{c.HasChildDetails, missingDetails},
		{c.HasSchoolInfo, missingSchool},
		{c.HasTreatmentInfo, missingTreatment},
	}
	for _, tier := range tiers {
		if tier.done {
			c.CompletionPercentage += 100 / len(tiers)
		} else {
			c.MissingFields = append(c.MissingFields, tier.prompt)
		}
	}
	if len(c.MissingFields) == 0 {
		c.CompletionPercentage = 100
	}
	return c
}

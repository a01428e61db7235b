package profile

import "time"

// ParentRecord is the intake data stored for the parent. Every field is
// optional; presence is tracked per field by the evaluator.
type ParentRecord struct {
	UserID         string    `json:"user_id"`
	Name           string    `json:"name,omitempty"`
	FamilyContext  string    `json:"family_context,omitempty"`
	SupportNetwork string    `json:"support_network,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// ChildRecord is the intake data stored per child. Name and age together are
// what makes a child record count toward the children tier; the remaining
// fields feed the detail, school and treatment tiers.
type ChildRecord struct {
	ChildID    string `json:"child_id"`
	UserID     string `json:"user_id"`
	Name       string `json:"name,omitempty"`
	Age        int    `json:"age,omitempty"`
	Challenges string `json:"challenges,omitempty"`
	Strengths  string `json:"strengths,omitempty"`
	SchoolType string `json:"school_type,omitempty"`
	GradeLevel string `json:"grade_level,omitempty"`
	Medication string `json:"medication,omitempty"`
	Therapy    string `json:"therapy,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`
}

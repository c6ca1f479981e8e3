package catalog

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bolingo/core"
)

// Kind names a catalog.
type Kind string

const (
	KindSkill    Kind = "skill"
	KindInterest Kind = "interest"
)

// Proficiency levels, for skills only.
const (
	ProficiencyBeginner     = "beginner"
	ProficiencyIntermediate = "intermediate"
	ProficiencyAdvanced     = "advanced"
	ProficiencyExpert       = "expert"
)

var ProficiencyLevels = []string{ProficiencyBeginner, ProficiencyIntermediate, ProficiencyAdvanced, ProficiencyExpert}

func IsValidProficiency(p string) bool {
	for _, lvl := range ProficiencyLevels {
		if lvl == p {
			return true
		}
	}
	return false
}

// HasProficiency reports whether volunteer assignments of kind carry a proficiency level.
func (k Kind) HasProficiency() bool { return k == KindSkill }

// Entry is a skill or an interest.
type Entry struct {
	ID          string      `json:"id" db:"id"`
	Name        string      `json:"name" db:"name"`
	Description null.String `json:"description" db:"description"`
	CreatedAt   time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at" db:"updated_at"`
}

// VolunteerEntry is an Entry assigned to a volunteer.
type VolunteerEntry struct {
	Entry
	Proficiency null.String `json:"proficiency" db:"proficiency"`
	AssignedAt  time.Time   `json:"assigned_at" db:"assigned_at"`
}

type NewEntry struct {
	Name        string `json:"name" yaml:"name" validate:"required,notblank,max=100"`
	Description string `json:"description" yaml:"description" validate:"max=1000"`
}

func (ne *NewEntry) Validate(validate *validator.Validate) error {
	ne.Name = core.CleanString(ne.Name)
	ne.Description = core.CleanString(ne.Description)
	return validate.Struct(ne)
}

// UpdateEntry renames or re-describes an Entry. Nil fields are left untouched.
type UpdateEntry struct {
	Name        *string `json:"name" validate:"omitempty,notblank,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
}

func (ue *UpdateEntry) Validate(validate *validator.Validate) error {
	for _, s := range []*string{ue.Name, ue.Description} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	return validate.Struct(ue)
}

// Assignment is the body of a volunteer assignment.
type Assignment struct {
	Proficiency string `json:"proficiency"`
}

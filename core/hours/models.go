package hours

import (
	"math"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bolingo/core"
)

var errDateInFuture = errors.New("date can't be in the future")

// Record is time a volunteer spent on an Opportunity. Verified entries are read-only.
type Record struct {
	ID            string      `json:"id" db:"id"`
	VolunteerID   string      `json:"volunteer_id" db:"volunteer_id"`
	OpportunityID string      `json:"opportunity_id" db:"opportunity_id"`
	Hours         float64     `json:"hours" db:"hours"`
	Date          time.Time   `json:"date" db:"date"` // day worked, UTC midnight
	Notes         null.String `json:"notes" db:"notes"`
	VerifiedBy    null.String `json:"verified_by" db:"verified_by"`
	VerifiedAt    null.Time   `json:"verified_at" db:"verified_at"`
	CreatedAt     time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time   `json:"updated_at" db:"updated_at"`
}

func (h Record) IsVerified() bool { return h.VerifiedAt.Valid }

// Entry is a Record with the names a listing shows.
type Entry struct {
	Record
	VolunteerName    string `json:"volunteer_name" db:"volunteer_name"`
	OpportunityTitle string `json:"opportunity_title" db:"opportunity_title"`
}

// Summary totals the hours of a volunteer.
type Summary struct {
	TotalHours    float64 `json:"total_hours" db:"total_hours"`
	VerifiedHours float64 `json:"verified_hours" db:"verified_hours"`
	PendingHours  float64 `json:"pending_hours" db:"pending_hours"`
	Entries       int     `json:"entries" db:"entries"`
}

type NewHours struct {
	OpportunityID string    `json:"opportunity_id" validate:"required"`
	Hours         float64   `json:"hours" validate:"gt=0,lte=24"`
	Date          time.Time `json:"date" validate:"required"`
	Notes         string    `json:"notes" validate:"max=2000"`
}

func (nh *NewHours) Validate(validate *validator.Validate) error {
	nh.OpportunityID = core.CleanString(nh.OpportunityID)
	nh.Notes = core.CleanString(nh.Notes)
	nh.Hours = roundHours(nh.Hours)
	if err := validate.Struct(nh); err != nil {
		return err
	}
	return checkDate(nh.Date)
}

// UpdateHours holds the changes an owner may make to unverified Hours. Nil fields are left untouched.
type UpdateHours struct {
	Hours *float64   `json:"hours" validate:"omitempty,gt=0,lte=24"`
	Date  *time.Time `json:"date"`
	Notes *string    `json:"notes" validate:"omitempty,max=2000"`
}

func (uh *UpdateHours) Validate(validate *validator.Validate) error {
	if uh.Notes != nil {
		*uh.Notes = core.CleanString(*uh.Notes)
	}
	if uh.Hours != nil {
		*uh.Hours = roundHours(*uh.Hours)
	}
	if err := validate.Struct(uh); err != nil {
		return err
	}
	if uh.Date != nil {
		return checkDate(*uh.Date)
	}
	return nil
}

func (uh UpdateHours) apply(h *Record) {
	if uh.Hours != nil {
		h.Hours = roundHours(*uh.Hours)
	}
	if uh.Date != nil {
		h.Date = truncateDay(*uh.Date)
	}
	if uh.Notes != nil {
		h.Notes = null.NewString(*uh.Notes, *uh.Notes != "")
	}
}

func checkDate(date time.Time) error {
	if truncateDay(date).After(truncateDay(nowFunc())) {
		return core.NewValidationError(errDateInFuture, core.FieldError{Field: "date", Error: errDateInFuture.Error()})
	}
	return nil
}

func truncateDay(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// roundHours keeps two decimals, like the hours column does.
func roundHours(h float64) float64 {
	return math.Round(h*100) / 100
}

package opportunity

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bolingo/core"
)

// Statuses
const (
	StatusOpen      = "open"
	StatusFull      = "full"
	StatusCompleted = "completed"
	StatusCanceled  = "canceled"
)

var AllStatuses = []string{StatusOpen, StatusFull, StatusCompleted, StatusCanceled}

// Opportunity is a scheduled volunteering event.
type Opportunity struct {
	ID                string      `json:"id" db:"id"`
	Title             string      `json:"title" db:"title"`
	Description       string      `json:"description" db:"description"`
	Location          string      `json:"location" db:"location"`
	StartDate         time.Time   `json:"start_date" db:"start_date"`         // UTC
	EndDate           time.Time   `json:"end_date" db:"end_date"`             // UTC
	MaxVolunteers     null.Int    `json:"max_volunteers" db:"max_volunteers"` // null: unlimited
	Status            string      `json:"status" db:"status"`
	CreatedBy         null.String `json:"created_by" db:"created_by"`
	IsRecurring       bool        `json:"is_recurring" db:"is_recurring"`
	RecurrencePattern null.String `json:"recurrence_pattern" db:"recurrence_pattern"` // RRULE
	CreatedAt         time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time   `json:"updated_at" db:"updated_at"`
}

// Listing is an open Opportunity with its enrollment figures.
type Listing struct {
	Opportunity
	RsvpCount      int  `json:"rsvp_count"`
	SpotsRemaining *int `json:"spots_remaining"` // nil: unlimited
}

// EventRsvp is a volunteer enrolled in an Opportunity.
type EventRsvp struct {
	RsvpID      string    `json:"rsvp_id" db:"rsvp_id"`
	VolunteerID string    `json:"volunteer_id" db:"volunteer_id"`
	UserID      string    `json:"user_id" db:"user_id"`
	Name        string    `json:"name" db:"name"`
	Email       string    `json:"email" db:"email"`
	Status      string    `json:"status" db:"status"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// Occurrence is one instance of a (possibly recurring) Opportunity.
type Occurrence struct {
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
}

// SpotsRemaining returns capacity - rsvpCount (never negative), or nil when capacity is unlimited.
func SpotsRemaining(maxVolunteers null.Int, rsvpCount int) *int {
	if !maxVolunteers.Valid {
		return nil
	}
	spots := maxVolunteers.Int - rsvpCount
	if spots < 0 {
		spots = 0
	}
	return &spots
}

// IsFull reports whether a capped Opportunity has reached its capacity.
func IsFull(maxVolunteers null.Int, rsvpCount int) bool {
	return maxVolunteers.Valid && rsvpCount >= maxVolunteers.Int
}

// NewOpportunity contains information needed to create a new Opportunity.
type NewOpportunity struct {
	Title             string    `json:"title" validate:"required,notblank,max=255"`
	Description       string    `json:"description" validate:"max=5000"`
	Location          string    `json:"location" validate:"max=255"`
	StartDate         time.Time `json:"start_date" validate:"required"`
	EndDate           time.Time `json:"end_date" validate:"required"`
	MaxVolunteers     *int      `json:"max_volunteers" validate:"omitempty,min=1"`
	IsRecurring       bool      `json:"is_recurring"`
	RecurrencePattern string    `json:"recurrence_pattern" validate:"max=500"`
}

func (no *NewOpportunity) Validate(validate *validator.Validate) error {
	no.Title = core.CleanString(no.Title)
	no.Description = core.CleanString(no.Description)
	no.Location = core.CleanString(no.Location)
	no.RecurrencePattern = core.CleanString(no.RecurrencePattern)

	if err := validate.Struct(no); err != nil {
		return err
	}
	if err := checkDateRange(no.StartDate, no.EndDate); err != nil {
		return err
	}
	return checkRecurrence(no.IsRecurring, no.RecurrencePattern)
}

// UpdateOpportunity defines what information may be provided to modify an existing Opportunity.
// Nil fields are left untouched. UnlimitedCapacity removes the capacity.
type UpdateOpportunity struct {
	Title             *string    `json:"title" validate:"omitempty,notblank,max=255"`
	Description       *string    `json:"description" validate:"omitempty,max=5000"`
	Location          *string    `json:"location" validate:"omitempty,max=255"`
	StartDate         *time.Time `json:"start_date"`
	EndDate           *time.Time `json:"end_date"`
	MaxVolunteers     *int       `json:"max_volunteers" validate:"omitempty,min=1"`
	UnlimitedCapacity bool       `json:"unlimited_capacity"`
	IsRecurring       *bool      `json:"is_recurring"`
	RecurrencePattern *string    `json:"recurrence_pattern" validate:"omitempty,max=500"`
}

// Validate checks uo against the Opportunity it modifies: dates are checked on their merged values.
func (uo *UpdateOpportunity) Validate(orig Opportunity, validate *validator.Validate) error {
	for _, s := range []*string{uo.Title, uo.Description, uo.Location, uo.RecurrencePattern} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	if err := validate.Struct(uo); err != nil {
		return err
	}

	merged := orig
	uo.apply(&merged)
	if err := checkDateRange(merged.StartDate, merged.EndDate); err != nil {
		return err
	}
	return checkRecurrence(merged.IsRecurring, merged.RecurrencePattern.String)
}

func (uo UpdateOpportunity) apply(opp *Opportunity) {
	if uo.Title != nil {
		opp.Title = *uo.Title
	}
	if uo.Description != nil {
		opp.Description = *uo.Description
	}
	if uo.Location != nil {
		opp.Location = *uo.Location
	}
	if uo.StartDate != nil {
		opp.StartDate = uo.StartDate.UTC()
	}
	if uo.EndDate != nil {
		opp.EndDate = uo.EndDate.UTC()
	}
	if uo.UnlimitedCapacity {
		opp.MaxVolunteers = null.Int{}
	} else if uo.MaxVolunteers != nil {
		opp.MaxVolunteers = null.IntFrom(*uo.MaxVolunteers)
	}
	if uo.IsRecurring != nil {
		opp.IsRecurring = *uo.IsRecurring
	}
	if uo.RecurrencePattern != nil {
		opp.RecurrencePattern = null.NewString(*uo.RecurrencePattern, *uo.RecurrencePattern != "")
	}
}

// StatusUpdate moves an Opportunity through its lifecycle.
type StatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=open full completed canceled"`
}

// QueryFilter is the staff calendar filter. From/To select opportunities overlapping the range.
type QueryFilter struct {
	Search    string    `query:"search"`
	Statuses  []string  `query:"status"`
	From      time.Time // query "from", bound by the API
	To        time.Time // query "to", bound by the API
	CreatedBy string    `query:"created_by"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.CreatedBy = core.CleanString(qf.CreatedBy)
}

// OpenFilter selects a page of open opportunities.
type OpenFilter struct {
	Search string `query:"search"`
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
}

const (
	defaultOpenLimit = 50
	maxOpenLimit     = 100
)

func (of *OpenFilter) Clean() {
	of.Search = core.CleanString(of.Search)
	if of.Limit < 1 {
		of.Limit = defaultOpenLimit
	}
	if of.Limit > maxOpenLimit {
		of.Limit = maxOpenLimit
	}
	if of.Offset < 0 {
		of.Offset = 0
	}
}

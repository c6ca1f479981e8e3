package rsvp

import "time"

// Statuses
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusDeclined  = "declined"
	StatusAttended  = "attended"
	StatusNoShow    = "no_show"
)

var (
	AllStatuses = []string{StatusPending, StatusConfirmed, StatusDeclined, StatusAttended, StatusNoShow}

	// ActiveStatuses hold a spot in the Opportunity.
	ActiveStatuses = []string{StatusPending, StatusConfirmed}

	// DecisionStatuses can be set by staff. An Rsvp never goes back to pending.
	DecisionStatuses = []string{StatusConfirmed, StatusDeclined, StatusAttended, StatusNoShow}
)

func IsDecisionStatus(status string) bool {
	for _, s := range DecisionStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Rsvp is a volunteer's enrollment in an Opportunity.
type Rsvp struct {
	ID            string    `json:"id" db:"id"`
	VolunteerID   string    `json:"volunteer_id" db:"volunteer_id"`
	OpportunityID string    `json:"opportunity_id" db:"opportunity_id"`
	Status        string    `json:"status" db:"status"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// VolunteerRsvp is an Rsvp as listed to its volunteer.
type VolunteerRsvp struct {
	Rsvp
	OpportunityTitle string    `json:"opportunity_title" db:"opportunity_title"`
	StartDate        time.Time `json:"start_date" db:"start_date"`
	EndDate          time.Time `json:"end_date" db:"end_date"`
	Location         string    `json:"location" db:"location"`
}

// StatusUpdate is the staff decision on an Rsvp. Pending can't be set back.
type StatusUpdate struct {
	Status string `json:"status" validate:"required,oneof=confirmed declined attended no_show"`
}

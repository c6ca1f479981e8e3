package communication

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bolingo/core"
)

// Audiences
const (
	AudienceAll                  = "all"
	AudienceVolunteers           = "volunteers"
	AudienceOpportunity          = "opportunity"
	AudienceIncompleteOnboarding = "incomplete_onboarding"
)

var errMissingTarget = errors.New("audience target is missing")

// Communication is a sent bulk message.
type Communication struct {
	ID             string      `json:"id" db:"id"`
	SenderID       null.String `json:"sender_id" db:"sender_id"`
	Subject        string      `json:"subject" db:"subject"`
	Body           string      `json:"body" db:"body"`
	Audience       string      `json:"audience" db:"audience"`
	Target         null.String `json:"target" db:"target"` // opportunity id, or comma-separated volunteer ids
	RecipientCount int         `json:"recipient_count" db:"recipient_count"`
	CreatedAt      time.Time   `json:"created_at" db:"created_at"`
}

// Recipient is a volunteer a message is addressed to.
type Recipient struct {
	VolunteerID string `db:"volunteer_id"`
	Name        string `db:"name"`
	Email       string `db:"email"`
}

// BulkMessage is a message to send to an audience of volunteers.
type BulkMessage struct {
	Subject       string   `json:"subject" validate:"required,notblank,max=200"`
	Body          string   `json:"body" validate:"required,notblank,max=10000"`
	Audience      string   `json:"audience" validate:"required,oneof=all volunteers opportunity incomplete_onboarding"`
	VolunteerIDs  []string `json:"volunteer_ids" validate:"max=1000"`
	OpportunityID string   `json:"opportunity_id"`
	RsvpStatuses  []string `json:"rsvp_statuses" validate:"omitempty,dive,oneof=pending confirmed declined attended no_show"`
}

func (bm *BulkMessage) Validate(validate *validator.Validate) error {
	bm.Subject = core.CleanString(bm.Subject)
	bm.Body = core.CleanString(bm.Body)
	bm.Audience = core.CleanString(bm.Audience, true)
	bm.OpportunityID = core.CleanString(bm.OpportunityID)
	for i := range bm.VolunteerIDs {
		bm.VolunteerIDs[i] = core.CleanString(bm.VolunteerIDs[i])
	}
	if err := validate.Struct(bm); err != nil {
		return err
	}

	required := func(fld string) error {
		return core.NewValidationError(errMissingTarget, core.FieldError{Field: fld, Error: "this field is required for the " + bm.Audience + " audience"})
	}
	switch {
	case bm.Audience == AudienceVolunteers && len(bm.VolunteerIDs) == 0:
		return required("volunteer_ids")
	case bm.Audience == AudienceOpportunity && bm.OpportunityID == "":
		return required("opportunity_id")
	}
	return nil
}

package opportunity

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bolingo/core"
)

var (
	nowFunc = time.Now // mockable

	ErrNotFound = core.NewNotFoundError("OPPORTUNITY_NOT_FOUND", "opportunity not found")
)

type (
	Repository interface {
		CreateOpportunity(ctx context.Context, opp Opportunity) (Opportunity, error)
		GetOpportunityByID(ctx context.Context, id string, exec ...core.DBExecutor) (Opportunity, error)
		// GetOpportunityForUpdate loads the Opportunity and locks it until exec's transaction ends.
		GetOpportunityForUpdate(ctx context.Context, id string, exec core.DBExecutor) (Opportunity, error)
		UpdateOpportunity(ctx context.Context, opp Opportunity) (Opportunity, error)
		DeleteOpportunity(ctx context.Context, id string) error
		QueryOpportunities(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Opportunity, error)
		// ListOpenOpportunities returns a page of open opportunities starting after now, ordered by start date,
		// each with its pending/confirmed RSVP count. search matches title, description or location (case-insensitive).
		ListOpenOpportunities(ctx context.Context, now time.Time, search string, limit, offset int) ([]Listing, error)
		ListEventRsvps(ctx context.Context, opportunityID string) ([]EventRsvp, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create creates an open Opportunity owned by creatorID. no must have been validated.
func (svc *Service) Create(ctx context.Context, creatorID string, no NewOpportunity) (Opportunity, error) {
	now := nowFunc().UTC()
	opp := Opportunity{
		ID:                uuid.NewString(),
		Title:             no.Title,
		Description:       no.Description,
		Location:          no.Location,
		StartDate:         no.StartDate.UTC(),
		EndDate:           no.EndDate.UTC(),
		MaxVolunteers:     null.IntFromPtr(no.MaxVolunteers),
		Status:            StatusOpen,
		CreatedBy:         null.NewString(creatorID, creatorID != ""),
		IsRecurring:       no.IsRecurring,
		RecurrencePattern: null.NewString(no.RecurrencePattern, no.IsRecurring && no.RecurrencePattern != ""),
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	opp, err := svc.repo.CreateOpportunity(ctx, opp)
	return opp, errors.Wrap(err, "inserting opportunity")
}

func (svc *Service) GetByID(ctx context.Context, id string) (Opportunity, error) {
	return svc.repo.GetOpportunityByID(ctx, id)
}

// Update applies uo (validated against opp) to opp.
func (svc *Service) Update(ctx context.Context, opp Opportunity, uo UpdateOpportunity) (Opportunity, error) {
	uo.apply(&opp)
	if !opp.IsRecurring {
		opp.RecurrencePattern = null.String{}
	}
	opp.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateOpportunity(ctx, opp)
}

func (svc *Service) SetStatus(ctx context.Context, opp Opportunity, status string) (Opportunity, error) {
	opp.Status = status
	opp.UpdatedAt = nowFunc().UTC()
	return svc.repo.UpdateOpportunity(ctx, opp)
}

// Delete removes the Opportunity along with its RSVPs, hours and requirements.
func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.repo.DeleteOpportunity(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Opportunity, error) {
	filter.Clean()
	return svc.repo.QueryOpportunities(ctx, filter, ordering)
}

// ListOpen lists the open, future opportunities a volunteer can still join.
// Rows at capacity are dropped after pagination, so a page may hold fewer than filter.Limit rows.
func (svc *Service) ListOpen(ctx context.Context, filter OpenFilter) ([]Listing, error) {
	filter.Clean()
	rows, err := svc.repo.ListOpenOpportunities(ctx, nowFunc().UTC(), filter.Search, filter.Limit, filter.Offset)
	if err != nil {
		return nil, errors.Wrap(err, "listing open opportunities")
	}

	listings := make([]Listing, 0, len(rows))
	for _, row := range rows {
		if IsFull(row.MaxVolunteers, row.RsvpCount) {
			continue
		}
		row.SpotsRemaining = SpotsRemaining(row.MaxVolunteers, row.RsvpCount)
		listings = append(listings, row)
	}
	return listings, nil
}

// GetEventRsvps lists every volunteer enrolled in the Opportunity, with their RSVP status.
func (svc *Service) GetEventRsvps(ctx context.Context, id string) ([]EventRsvp, error) {
	if _, err := svc.repo.GetOpportunityByID(ctx, id); err != nil {
		return nil, err
	}
	rsvps, err := svc.repo.ListEventRsvps(ctx, id)
	if err != nil {
		return nil, errors.Wrap(err, "listing event rsvps")
	}
	if rsvps == nil {
		rsvps = []EventRsvp{}
	}
	return rsvps, nil
}

// Occurrences expands the Opportunity's schedule between from and to.
func (svc *Service) Occurrences(ctx context.Context, id string, from, to time.Time) ([]Occurrence, error) {
	opp, err := svc.repo.GetOpportunityByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return Occurrences(opp, from, to)
}

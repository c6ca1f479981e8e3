package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/opportunity"
	"github.com/trezcool/bolingo/core/rsvp"
)

type opportunityRepository struct {
	db *DB
}

var _ opportunity.Repository = (*opportunityRepository)(nil) // interface compliance check

func NewOpportunityRepository(db *DB) *opportunityRepository {
	return &opportunityRepository{db: db}
}

// activeRsvps counts the pending and confirmed RSVPs of opportunityID. Callers hold db.mu.
func (db *DB) activeRsvps(opportunityID string) int {
	n := 0
	for _, r := range db.rsvps {
		if r.OpportunityID != opportunityID {
			continue
		}
		for _, s := range rsvp.ActiveStatuses {
			if r.Status == s {
				n++
				break
			}
		}
	}
	return n
}

func (repo *opportunityRepository) CreateOpportunity(_ context.Context, opp opportunity.Opportunity) (opportunity.Opportunity, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.db.opportunities[opp.ID] = opp
	return opp, nil
}

func (repo *opportunityRepository) GetOpportunityByID(_ context.Context, id string, _ ...core.DBExecutor) (opportunity.Opportunity, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if opp, ok := repo.db.opportunities[id]; ok {
		return opp, nil
	}
	return opportunity.Opportunity{}, opportunity.ErrNotFound
}

// GetOpportunityForUpdate relies on DB.InTx for the lock.
func (repo *opportunityRepository) GetOpportunityForUpdate(ctx context.Context, id string, _ core.DBExecutor) (opportunity.Opportunity, error) {
	return repo.GetOpportunityByID(ctx, id)
}

func (repo *opportunityRepository) UpdateOpportunity(_ context.Context, opp opportunity.Opportunity) (opportunity.Opportunity, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.opportunities[opp.ID]
	if !ok {
		return opportunity.Opportunity{}, opportunity.ErrNotFound
	}
	opp.CreatedBy = orig.CreatedBy
	opp.CreatedAt = orig.CreatedAt
	repo.db.opportunities[opp.ID] = opp
	return opp, nil
}

func (repo *opportunityRepository) DeleteOpportunity(_ context.Context, id string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.opportunities[id]; !ok {
		return opportunity.ErrNotFound
	}
	delete(repo.db.opportunities, id)
	for rID, r := range repo.db.rsvps {
		if r.OpportunityID == id {
			delete(repo.db.rsvps, rID)
		}
	}
	for hID, h := range repo.db.hours {
		if h.OpportunityID == id {
			delete(repo.db.hours, hID)
		}
	}
	for _, tbl := range repo.db.catalogs {
		for l := range tbl.opportunityLinks {
			if l.ownerID == id {
				delete(tbl.opportunityLinks, l)
			}
		}
	}
	return nil
}

func (repo *opportunityRepository) QueryOpportunities(
	_ context.Context,
	filter opportunity.QueryFilter,
	ordering []core.DBOrdering,
) ([]opportunity.Opportunity, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	statuses := make(map[string]bool, len(filter.Statuses))
	for _, s := range filter.Statuses {
		statuses[s] = true
	}

	opps := make([]opportunity.Opportunity, 0)
	for _, opp := range repo.db.opportunities {
		if filter.Search != "" && !contains(filter.Search, opp.Title, opp.Description, opp.Location) {
			continue
		}
		if len(statuses) > 0 && !statuses[opp.Status] {
			continue
		}
		if !filter.From.IsZero() && opp.EndDate.Before(filter.From) {
			continue
		}
		if !filter.To.IsZero() && opp.StartDate.After(filter.To) {
			continue
		}
		if filter.CreatedBy != "" && opp.CreatedBy.String != filter.CreatedBy {
			continue
		}
		opps = append(opps, opp)
	}

	cmps := make([]func(a, b opportunity.Opportunity) int, 0, len(ordering)+2)
	for _, ord := range ordering {
		var cmp func(a, b opportunity.Opportunity) int
		switch ord.Field {
		case "title":
			cmp = func(a, b opportunity.Opportunity) int { return cmpString(a.Title, b.Title) }
		case "start_date":
			cmp = func(a, b opportunity.Opportunity) int { return cmpTime(a.StartDate, b.StartDate) }
		case "end_date":
			cmp = func(a, b opportunity.Opportunity) int { return cmpTime(a.EndDate, b.EndDate) }
		case "status":
			cmp = func(a, b opportunity.Opportunity) int { return cmpString(a.Status, b.Status) }
		case "created_at":
			cmp = func(a, b opportunity.Opportunity) int { return cmpTime(a.CreatedAt, b.CreatedAt) }
		default:
			continue
		}
		if !ord.Ascending {
			asc := cmp
			cmp = func(a, b opportunity.Opportunity) int { return -asc(a, b) }
		}
		cmps = append(cmps, cmp)
	}
	cmps = append(cmps,
		func(a, b opportunity.Opportunity) int { return cmpTime(a.StartDate, b.StartDate) },
		func(a, b opportunity.Opportunity) int { return cmpString(a.ID, b.ID) },
	)
	sortBy(opps, cmps...)
	return opps, nil
}

func (repo *opportunityRepository) ListOpenOpportunities(
	_ context.Context,
	now time.Time,
	search string,
	limit, offset int,
) ([]opportunity.Listing, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	listings := make([]opportunity.Listing, 0)
	for _, opp := range repo.db.opportunities {
		if opp.Status != opportunity.StatusOpen || !opp.StartDate.After(now) {
			continue
		}
		if search != "" && !contains(search, opp.Title, opp.Description, opp.Location) {
			continue
		}
		listings = append(listings, opportunity.Listing{Opportunity: opp, RsvpCount: repo.db.activeRsvps(opp.ID)})
	}
	sortBy(listings,
		func(a, b opportunity.Listing) int { return cmpTime(a.StartDate, b.StartDate) },
		func(a, b opportunity.Listing) int { return cmpString(a.ID, b.ID) },
	)
	return paginate(listings, limit, offset), nil
}

func (repo *opportunityRepository) ListEventRsvps(_ context.Context, opportunityID string) ([]opportunity.EventRsvp, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	rsvps := make([]opportunity.EventRsvp, 0)
	for _, r := range repo.db.rsvps {
		if r.OpportunityID != opportunityID {
			continue
		}
		vol := repo.db.withUser(repo.db.volunteers[r.VolunteerID])
		rsvps = append(rsvps, opportunity.EventRsvp{
			RsvpID:      r.ID,
			VolunteerID: r.VolunteerID,
			UserID:      vol.UserID,
			Name:        vol.Name,
			Email:       vol.Email,
			Status:      r.Status,
			CreatedAt:   r.CreatedAt,
		})
	}
	sortBy(rsvps,
		func(a, b opportunity.EventRsvp) int { return cmpTime(a.CreatedAt, b.CreatedAt) },
		func(a, b opportunity.EventRsvp) int { return cmpString(a.RsvpID, b.RsvpID) },
	)
	return rsvps, nil
}

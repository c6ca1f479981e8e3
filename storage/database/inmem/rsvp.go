package inmemdb

import (
	"context"
	"time"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/rsvp"
)

type rsvpRepository struct {
	db *DB
}

var _ rsvp.Repository = (*rsvpRepository)(nil) // interface compliance check

func NewRsvpRepository(db *DB) *rsvpRepository {
	return &rsvpRepository{db: db}
}

// findRsvp returns the Rsvp of the pair. Callers hold db.mu.
func (db *DB) findRsvp(volunteerID, opportunityID string) (rsvp.Rsvp, bool) {
	for _, r := range db.rsvps {
		if r.VolunteerID == volunteerID && r.OpportunityID == opportunityID {
			return r, true
		}
	}
	return rsvp.Rsvp{}, false
}

func (repo *rsvpRepository) GetRsvp(_ context.Context, volunteerID, opportunityID string, _ ...core.DBExecutor) (rsvp.Rsvp, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if r, ok := repo.db.findRsvp(volunteerID, opportunityID); ok {
		return r, nil
	}
	return rsvp.Rsvp{}, rsvp.ErrNotFound
}

func (repo *rsvpRepository) GetRsvpByID(_ context.Context, id string) (rsvp.Rsvp, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if r, ok := repo.db.rsvps[id]; ok {
		return r, nil
	}
	return rsvp.Rsvp{}, rsvp.ErrNotFound
}

func (repo *rsvpRepository) CountActiveRsvps(_ context.Context, opportunityID string, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.db.activeRsvps(opportunityID), nil
}

func (repo *rsvpRepository) CreateRsvp(_ context.Context, r rsvp.Rsvp, _ ...core.DBExecutor) (rsvp.Rsvp, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.findRsvp(r.VolunteerID, r.OpportunityID); ok {
		return rsvp.Rsvp{}, rsvp.ErrAlreadyRSVPd
	}
	repo.db.rsvps[r.ID] = r
	return r, nil
}

func (repo *rsvpRepository) DeleteRsvp(_ context.Context, volunteerID, opportunityID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	r, ok := repo.db.findRsvp(volunteerID, opportunityID)
	if !ok {
		return rsvp.ErrNotFound
	}
	delete(repo.db.rsvps, r.ID)
	return nil
}

func (repo *rsvpRepository) UpdateRsvpStatus(_ context.Context, id, status string, updatedAt time.Time) (rsvp.Rsvp, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	r, ok := repo.db.rsvps[id]
	if !ok {
		return rsvp.Rsvp{}, rsvp.ErrNotFound
	}
	r.Status = status
	r.UpdatedAt = updatedAt
	repo.db.rsvps[id] = r
	return r, nil
}

func (repo *rsvpRepository) ListVolunteerRsvps(_ context.Context, volunteerID string) ([]rsvp.VolunteerRsvp, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	rsvps := make([]rsvp.VolunteerRsvp, 0)
	for _, r := range repo.db.rsvps {
		if r.VolunteerID != volunteerID {
			continue
		}
		opp := repo.db.opportunities[r.OpportunityID]
		rsvps = append(rsvps, rsvp.VolunteerRsvp{
			Rsvp:             r,
			OpportunityTitle: opp.Title,
			StartDate:        opp.StartDate,
			EndDate:          opp.EndDate,
			Location:         opp.Location,
		})
	}
	sortBy(rsvps,
		func(a, b rsvp.VolunteerRsvp) int { return cmpTime(a.StartDate, b.StartDate) },
		func(a, b rsvp.VolunteerRsvp) int { return cmpString(a.ID, b.ID) },
	)
	return rsvps, nil
}

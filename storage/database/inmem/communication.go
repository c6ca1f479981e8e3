package inmemdb

import (
	"context"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/communication"
)

type communicationRepository struct {
	db *DB
}

var _ communication.Repository = (*communicationRepository)(nil) // interface compliance check

func NewCommunicationRepository(db *DB) *communicationRepository {
	return &communicationRepository{db: db}
}

// recipients lists the volunteers accepted by keep whose user is active, by name. Callers hold db.mu.
func (db *DB) recipients(keep func(volunteerID string) bool) []communication.Recipient {
	rcpts := make([]communication.Recipient, 0)
	for _, v := range db.volunteers {
		usr, ok := db.users[v.UserID]
		if !ok || !usr.IsActive || !keep(v.ID) {
			continue
		}
		rcpts = append(rcpts, communication.Recipient{VolunteerID: v.ID, Name: usr.Name, Email: usr.Email})
	}
	sortBy(rcpts,
		func(a, b communication.Recipient) int { return cmpString(a.Name, b.Name) },
		func(a, b communication.Recipient) int { return cmpString(a.VolunteerID, b.VolunteerID) },
	)
	return rcpts
}

func (repo *communicationRepository) ListActiveVolunteerRecipients(_ context.Context) ([]communication.Recipient, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.db.recipients(func(string) bool { return true }), nil
}

func (repo *communicationRepository) ListVolunteerRecipients(_ context.Context, ids []string) ([]communication.Recipient, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	wanted := make(map[string]bool, len(ids))
	for _, id := range ids {
		wanted[id] = true
	}
	return repo.db.recipients(func(id string) bool { return wanted[id] }), nil
}

func (repo *communicationRepository) ListOpportunityRecipients(
	_ context.Context,
	opportunityID string,
	statuses []string,
) ([]communication.Recipient, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	allowed := make(map[string]bool, len(statuses))
	for _, s := range statuses {
		allowed[s] = true
	}
	enrolled := make(map[string]bool)
	for _, r := range repo.db.rsvps {
		if r.OpportunityID == opportunityID && (len(allowed) == 0 || allowed[r.Status]) {
			enrolled[r.VolunteerID] = true
		}
	}
	return repo.db.recipients(func(id string) bool { return enrolled[id] }), nil
}

func (repo *communicationRepository) CreateCommunication(_ context.Context, c communication.Communication) (communication.Communication, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.db.communications[c.ID] = c
	return c, nil
}

func (repo *communicationRepository) ListCommunications(_ context.Context, page core.Pagination) ([]communication.Communication, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	comms := make([]communication.Communication, 0, len(repo.db.communications))
	for _, c := range repo.db.communications {
		comms = append(comms, c)
	}
	sortBy(comms,
		func(a, b communication.Communication) int { return -cmpTime(a.CreatedAt, b.CreatedAt) },
		func(a, b communication.Communication) int { return cmpString(a.ID, b.ID) },
	)
	return paginate(comms, page.Limit, page.Offset()), len(comms), nil
}

package inmemdb

import (
	"context"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/hours"
)

type hoursRepository struct {
	db *DB
}

var _ hours.Repository = (*hoursRepository)(nil) // interface compliance check

func NewHoursRepository(db *DB) *hoursRepository {
	return &hoursRepository{db: db}
}

// entry joins h with its volunteer and opportunity. Callers hold db.mu.
func (db *DB) entry(h hours.Record) hours.Entry {
	e := hours.Entry{Record: h, OpportunityTitle: db.opportunities[h.OpportunityID].Title}
	if vol, ok := db.volunteers[h.VolunteerID]; ok {
		e.VolunteerName = db.users[vol.UserID].Name
	}
	return e
}

func (repo *hoursRepository) CreateHours(_ context.Context, h hours.Record) (hours.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	repo.db.hours[h.ID] = h
	return h, nil
}

func (repo *hoursRepository) GetHoursByID(_ context.Context, id string) (hours.Record, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if h, ok := repo.db.hours[id]; ok {
		return h, nil
	}
	return hours.Record{}, hours.ErrNotFound
}

// GetHoursForUpdate relies on DB.InTx for the lock.
func (repo *hoursRepository) GetHoursForUpdate(ctx context.Context, id string, _ core.DBExecutor) (hours.Record, error) {
	return repo.GetHoursByID(ctx, id)
}

func (repo *hoursRepository) UpdateHours(_ context.Context, h hours.Record, _ ...core.DBExecutor) (hours.Record, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.hours[h.ID]
	if !ok {
		return hours.Record{}, hours.ErrNotFound
	}
	h.VolunteerID = orig.VolunteerID
	h.CreatedAt = orig.CreatedAt
	repo.db.hours[h.ID] = h
	return h, nil
}

func (repo *hoursRepository) DeleteHours(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.hours[id]; !ok {
		return hours.ErrNotFound
	}
	delete(repo.db.hours, id)
	return nil
}

func (repo *hoursRepository) ListVolunteerHours(_ context.Context, volunteerID string, verified *bool) ([]hours.Entry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	entries := make([]hours.Entry, 0)
	for _, h := range repo.db.hours {
		if h.VolunteerID != volunteerID {
			continue
		}
		if verified != nil && h.IsVerified() != *verified {
			continue
		}
		entries = append(entries, repo.db.entry(h))
	}
	sortBy(entries,
		func(a, b hours.Entry) int { return -cmpTime(a.Date, b.Date) },
		func(a, b hours.Entry) int { return -cmpTime(a.CreatedAt, b.CreatedAt) },
		func(a, b hours.Entry) int { return cmpString(a.ID, b.ID) },
	)
	return entries, nil
}

func (repo *hoursRepository) ListPendingHours(_ context.Context, page core.Pagination) ([]hours.Entry, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	entries := make([]hours.Entry, 0)
	for _, h := range repo.db.hours {
		if !h.IsVerified() {
			entries = append(entries, repo.db.entry(h))
		}
	}
	sortBy(entries,
		func(a, b hours.Entry) int { return cmpTime(a.CreatedAt, b.CreatedAt) },
		func(a, b hours.Entry) int { return cmpString(a.ID, b.ID) },
	)
	return paginate(entries, page.Limit, page.Offset()), len(entries), nil
}

func (repo *hoursRepository) SummarizeHours(_ context.Context, volunteerID string) (hours.Summary, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	var sum hours.Summary
	for _, h := range repo.db.hours {
		if h.VolunteerID != volunteerID {
			continue
		}
		sum.Entries++
		sum.TotalHours += h.Hours
		if h.IsVerified() {
			sum.VerifiedHours += h.Hours
		} else {
			sum.PendingHours += h.Hours
		}
	}
	return sum, nil
}

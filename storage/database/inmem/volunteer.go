package inmemdb

import (
	"context"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/volunteer"
)

type volunteerRepository struct {
	db *DB
}

var _ volunteer.Repository = (*volunteerRepository)(nil) // interface compliance check

func NewVolunteerRepository(db *DB) *volunteerRepository {
	return &volunteerRepository{db: db}
}

// withUser fills the user fields of v. Callers hold db.mu.
func (db *DB) withUser(v volunteer.Volunteer) volunteer.Volunteer {
	if usr, ok := db.users[v.UserID]; ok {
		v.Name = usr.Name
		v.Email = usr.Email
	}
	v.Availability = cloneAvailability(v.Availability)
	return v
}

// deleteVolunteer cascades like the volunteers foreign keys. Callers hold db.mu.
func (db *DB) deleteVolunteer(id string) {
	delete(db.volunteers, id)
	for rID, r := range db.rsvps {
		if r.VolunteerID == id {
			delete(db.rsvps, rID)
		}
	}
	for hID, h := range db.hours {
		if h.VolunteerID == id {
			delete(db.hours, hID)
		}
	}
	for _, tbl := range db.catalogs {
		for l := range tbl.volunteerLinks {
			if l.ownerID == id {
				delete(tbl.volunteerLinks, l)
			}
		}
	}
}

func cloneAvailability(a volunteer.Availability) volunteer.Availability {
	if a == nil {
		return nil
	}
	clone := make(volunteer.Availability, len(a))
	for day, slots := range a {
		clone[day] = append([]volunteer.TimeSlot{}, slots...)
	}
	return clone
}

func (repo *volunteerRepository) CreateVolunteer(_ context.Context, v volunteer.Volunteer, _ ...core.DBExecutor) (volunteer.Volunteer, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	v.Availability = cloneAvailability(v.Availability)
	repo.db.volunteers[v.ID] = v
	return repo.db.withUser(v), nil
}

func (repo *volunteerRepository) GetVolunteerByID(_ context.Context, id string, _ ...core.DBExecutor) (volunteer.Volunteer, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if v, ok := repo.db.volunteers[id]; ok {
		return repo.db.withUser(v), nil
	}
	return volunteer.Volunteer{}, volunteer.ErrNotFound
}

func (repo *volunteerRepository) GetVolunteerByUserID(_ context.Context, userID string, _ ...core.DBExecutor) (volunteer.Volunteer, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, v := range repo.db.volunteers {
		if v.UserID == userID {
			return repo.db.withUser(v), nil
		}
	}
	return volunteer.Volunteer{}, volunteer.ErrNotFound
}

func (repo *volunteerRepository) UpdateVolunteer(_ context.Context, v volunteer.Volunteer) (volunteer.Volunteer, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.volunteers[v.ID]
	if !ok {
		return volunteer.Volunteer{}, volunteer.ErrNotFound
	}
	v.UserID = orig.UserID
	v.CreatedAt = orig.CreatedAt
	v.Availability = cloneAvailability(v.Availability)
	repo.db.volunteers[v.ID] = v
	return repo.db.withUser(v), nil
}

func (repo *volunteerRepository) QueryVolunteers(
	_ context.Context,
	filter volunteer.QueryFilter,
	page core.Pagination,
) ([]volunteer.Volunteer, int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	vols := make([]volunteer.Volunteer, 0, len(repo.db.volunteers))
	for _, v := range repo.db.volunteers {
		v = repo.db.withUser(v)
		if filter.Search != "" && !contains(filter.Search, v.Name, v.Email) {
			continue
		}
		vols = append(vols, v)
	}
	sortBy(vols,
		func(a, b volunteer.Volunteer) int { return cmpString(a.Name, b.Name) },
		func(a, b volunteer.Volunteer) int { return cmpString(a.ID, b.ID) },
	)
	return paginate(vols, page.Limit, page.Offset()), len(vols), nil
}

package inmemdb

import (
	"context"

	"github.com/trezcool/bolingo/core/catalog"
	"github.com/trezcool/bolingo/core/onboarding"
	"github.com/trezcool/bolingo/core/volunteer"
)

type onboardingRepository struct {
	db *DB
}

var _ onboarding.Repository = (*onboardingRepository)(nil) // interface compliance check

func NewOnboardingRepository(db *DB) *onboardingRepository {
	return &onboardingRepository{db: db}
}

// facts gathers the Facts of v. Callers hold db.mu.
func (db *DB) facts(v volunteer.Volunteer) onboarding.Facts {
	v = db.withUser(v)
	f := onboarding.Facts{
		VolunteerID:  v.ID,
		UserID:       v.UserID,
		Name:         v.Name,
		Email:        v.Email,
		Phone:        v.Phone,
		Bio:          v.Bio,
		Availability: v.Availability,
		MediaRelease: v.MediaRelease,
	}
	for l := range db.catalogs[catalog.KindSkill].volunteerLinks {
		if l.ownerID == v.ID {
			f.SkillsCount++
		}
	}
	for l := range db.catalogs[catalog.KindInterest].volunteerLinks {
		if l.ownerID == v.ID {
			f.InterestsCount++
		}
	}
	return f
}

func (db *DB) searchVolunteers(search string) []volunteer.Volunteer {
	vols := make([]volunteer.Volunteer, 0, len(db.volunteers))
	for _, v := range db.volunteers {
		v = db.withUser(v)
		if search != "" && !contains(search, v.Name, v.Email) {
			continue
		}
		vols = append(vols, v)
	}
	sortBy(vols,
		func(a, b volunteer.Volunteer) int { return cmpString(a.Name, b.Name) },
		func(a, b volunteer.Volunteer) int { return cmpString(a.ID, b.ID) },
	)
	return vols
}

func (repo *onboardingRepository) GetOnboardingFacts(_ context.Context, volunteerID string) (onboarding.Facts, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if v, ok := repo.db.volunteers[volunteerID]; ok {
		return repo.db.facts(v), nil
	}
	return onboarding.Facts{}, volunteer.ErrNotFound
}

func (repo *onboardingRepository) GetOnboardingFactsByUserID(_ context.Context, userID string) (onboarding.Facts, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, v := range repo.db.volunteers {
		if v.UserID == userID {
			return repo.db.facts(v), nil
		}
	}
	return onboarding.Facts{}, volunteer.ErrNotFound
}

func (repo *onboardingRepository) QueryOnboardingFacts(_ context.Context, search string, limit, offset int) ([]onboarding.Facts, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	vols := paginate(repo.db.searchVolunteers(search), limit, offset)
	facts := make([]onboarding.Facts, 0, len(vols))
	for _, v := range vols {
		facts = append(facts, repo.db.facts(v))
	}
	return facts, nil
}

func (repo *onboardingRepository) CountVolunteers(_ context.Context, search string) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return len(repo.db.searchVolunteers(search)), nil
}

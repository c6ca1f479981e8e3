package inmemdb

import (
	"context"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func (repo *userRepository) CheckEmailUniqueness(_ context.Context, email string, excludedIDs ...string) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	excluded := make(map[string]bool, len(excludedIDs))
	for _, id := range excludedIDs {
		excluded[id] = true
	}
	for _, usr := range repo.db.users {
		if usr.Email == email && !excluded[usr.ID] {
			return user.ErrEmailExists
		}
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, u := range repo.db.users {
		if u.Email == usr.Email {
			return user.User{}, user.ErrEmailExists
		}
	}
	repo.db.users[usr.ID] = usr
	return usr, nil
}

func (repo *userRepository) GetUserByID(_ context.Context, id string, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if usr, ok := repo.db.users[id]; ok {
		return usr, nil
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, usr := range repo.db.users {
		if usr.Email == email {
			return usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) QueryUsers(_ context.Context, filter user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	roles := make(map[string]bool, len(filter.Roles))
	for _, r := range filter.Roles {
		roles[r] = true
	}

	users := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		if filter.Search != "" && !contains(filter.Search, usr.Name, usr.Email) {
			continue
		}
		if len(roles) > 0 && !roles[usr.Role] {
			continue
		}
		if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
			continue
		}
		if !filter.CreatedFrom.IsZero() && usr.CreatedAt.Before(filter.CreatedFrom) {
			continue
		}
		if !filter.CreatedTo.IsZero() && usr.CreatedAt.After(filter.CreatedTo) {
			continue
		}
		users = append(users, usr)
	}

	cmps := make([]func(a, b user.User) int, 0, len(ordering)+1)
	for _, ord := range ordering {
		var cmp func(a, b user.User) int
		switch ord.Field {
		case "name":
			cmp = func(a, b user.User) int { return cmpString(a.Name, b.Name) }
		case "email":
			cmp = func(a, b user.User) int { return cmpString(a.Email, b.Email) }
		case "role":
			cmp = func(a, b user.User) int { return cmpString(a.Role, b.Role) }
		case "created_at":
			cmp = func(a, b user.User) int { return cmpTime(a.CreatedAt, b.CreatedAt) }
		case "last_login":
			cmp = func(a, b user.User) int { return cmpTime(a.LastLogin.Time, b.LastLogin.Time) }
		default:
			continue
		}
		if !ord.Ascending {
			asc := cmp
			cmp = func(a, b user.User) int { return -asc(a, b) }
		}
		cmps = append(cmps, cmp)
	}
	cmps = append(cmps,
		func(a, b user.User) int { return cmpString(a.Name, b.Name) },
		func(a, b user.User) int { return cmpString(a.ID, b.ID) },
	)
	sortBy(users, cmps...)
	return users, nil
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if _, ok := repo.db.users[usr.ID]; !ok {
		return user.User{}, user.ErrNotFound
	}
	for _, u := range repo.db.users {
		if u.Email == usr.Email && u.ID != usr.ID {
			return user.User{}, user.ErrEmailExists
		}
	}
	repo.db.users[usr.ID] = usr
	return usr, nil
}

// DeleteUsersByID removes the users and, like the foreign keys do, their volunteer profile and its rows.
func (repo *userRepository) DeleteUsersByID(_ context.Context, ids ...string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	for _, id := range ids {
		delete(repo.db.users, id)
		for _, vol := range repo.db.volunteers {
			if vol.UserID == id {
				repo.db.deleteVolunteer(vol.ID)
			}
		}
		for oppID, opp := range repo.db.opportunities {
			if opp.CreatedBy.String == id {
				opp.CreatedBy.Valid = false
				opp.CreatedBy.String = ""
				repo.db.opportunities[oppID] = opp
			}
		}
	}
	return nil
}

package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/user"
)

var (
	userColumns = []string{"id", "name", "email", "role", "is_active", "password_hash", "created_at", "updated_at", "last_login"}

	userOrdering = map[string]string{
		"name":       "name",
		"email":      "email",
		"role":       "role",
		"is_active":  "is_active",
		"created_at": "created_at",
		"last_login": "last_login",
	}
)

type userRepository struct {
	baseRepository
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(exec core.DBExecutor) *userRepository {
	return &userRepository{baseRepository{exec: exec}}
}

func (repo userRepository) CheckEmailUniqueness(ctx context.Context, email string, excludedIDs ...string) error {
	q := psql.Select("COUNT(*)").From("users").Where(sq.Eq{"email": email})
	if ids := validIDs(excludedIDs); len(ids) > 0 {
		q = q.Where(sq.NotEq{"id": ids})
	}
	n, err := repo.count(ctx, repo.exec, q)
	if err != nil {
		return errors.Wrap(err, "checking email uniqueness")
	}
	if n > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	q := psql.Insert("users").Columns(userColumns...).Values(
		usr.ID, usr.Name, usr.Email, usr.Role, usr.IsActive, usr.PasswordHash, usr.CreatedAt, usr.UpdatedAt, usr.LastLogin,
	)
	if _, err := repo.execute(ctx, repo.getExec(exec), q); err != nil {
		if pqErrCode(err) == pqUniqueViolation {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) GetUserByID(ctx context.Context, id string, exec ...core.DBExecutor) (user.User, error) {
	if !isID(id) {
		return user.User{}, user.ErrNotFound
	}
	var usr user.User
	q := psql.Select(userColumns...).From("users").Where(sq.Eq{"id": id})
	if err := repo.get(ctx, repo.getExec(exec), &usr, q); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by ID")
	}
	return usr, nil
}

func (repo userRepository) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	var usr user.User
	q := psql.Select(userColumns...).From("users").Where(sq.Eq{"email": email})
	if err := repo.get(ctx, repo.exec, &usr, q); err != nil {
		return user.User{}, trapNoRowsErr(err, user.ErrNotFound, "finding user by email")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter user.QueryFilter, ordering []core.DBOrdering) ([]user.User, error) {
	q := psql.Select(userColumns...).From("users")

	if filter.Search != "" {
		q = q.Where(contains(filter.Search, "name", "email"))
	}
	if len(filter.Roles) > 0 {
		q = q.Where(sq.Eq{"role": filter.Roles})
	}
	if filter.IsActive != nil {
		q = q.Where(sq.Eq{"is_active": *filter.IsActive})
	}
	if !filter.CreatedFrom.IsZero() {
		q = q.Where(sq.GtOrEq{"created_at": filter.CreatedFrom.UTC()})
	}
	if !filter.CreatedTo.IsZero() {
		q = q.Where(sq.LtOrEq{"created_at": filter.CreatedTo.UTC()})
	}
	q = q.OrderBy(orderBy(ordering, userOrdering, "name ASC")...)

	users := make([]user.User, 0)
	if err := repo.selekt(ctx, repo.exec, &users, q); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	return users, nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	if !isID(usr.ID) {
		return user.User{}, user.ErrNotFound
	}
	q := psql.Update("users").SetMap(map[string]interface{}{
		"name":          usr.Name,
		"email":         usr.Email,
		"role":          usr.Role,
		"is_active":     usr.IsActive,
		"password_hash": usr.PasswordHash,
		"updated_at":    usr.UpdatedAt,
		"last_login":    usr.LastLogin,
	}).Where(sq.Eq{"id": usr.ID})

	n, err := repo.execute(ctx, repo.getExec(exec), q)
	if err != nil {
		if pqErrCode(err) == pqUniqueViolation {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}

func (repo userRepository) DeleteUsersByID(ctx context.Context, ids ...string) error {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return nil
	}
	if _, err := repo.execute(ctx, repo.exec, psql.Delete("users").Where(sq.Eq{"id": ids})); err != nil {
		return errors.Wrap(err, "deleting users")
	}
	return nil
}

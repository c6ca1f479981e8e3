package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/volunteer"
)

var volunteerColumns = []string{
	"v.id", "v.user_id", "u.name", "u.email", "v.phone", "v.bio", "v.availability", "v.media_release",
	"v.emergency_contact_name", "v.emergency_contact_phone", "v.created_at", "v.updated_at",
}

type volunteerRepository struct {
	baseRepository
}

var _ volunteer.Repository = (*volunteerRepository)(nil) // interface compliance check

func NewVolunteerRepository(exec core.DBExecutor) *volunteerRepository {
	return &volunteerRepository{baseRepository{exec: exec}}
}

func (repo volunteerRepository) selectVolunteers(cols ...string) sq.SelectBuilder {
	return psql.Select(cols...).From("volunteers v").Join("users u ON u.id = v.user_id")
}

func (repo volunteerRepository) CreateVolunteer(ctx context.Context, v volunteer.Volunteer, exec ...core.DBExecutor) (volunteer.Volunteer, error) {
	q := psql.Insert("volunteers").
		Columns("id", "user_id", "phone", "bio", "availability", "media_release",
			"emergency_contact_name", "emergency_contact_phone", "created_at", "updated_at").
		Values(v.ID, v.UserID, v.Phone, v.Bio, v.Availability, v.MediaRelease,
			v.EmergencyContactName, v.EmergencyContactPhone, v.CreatedAt, v.UpdatedAt)
	if _, err := repo.execute(ctx, repo.getExec(exec), q); err != nil {
		return volunteer.Volunteer{}, errors.Wrap(err, "inserting volunteer")
	}
	return v, nil
}

func (repo volunteerRepository) getBy(ctx context.Context, col, val string, exec []core.DBExecutor) (volunteer.Volunteer, error) {
	if !isID(val) {
		return volunteer.Volunteer{}, volunteer.ErrNotFound
	}
	var v volunteer.Volunteer
	q := repo.selectVolunteers(volunteerColumns...).Where(sq.Eq{col: val})
	if err := repo.get(ctx, repo.getExec(exec), &v, q); err != nil {
		return volunteer.Volunteer{}, trapNoRowsErr(err, volunteer.ErrNotFound, "finding volunteer")
	}
	return v, nil
}

func (repo volunteerRepository) GetVolunteerByID(ctx context.Context, id string, exec ...core.DBExecutor) (volunteer.Volunteer, error) {
	return repo.getBy(ctx, "v.id", id, exec)
}

func (repo volunteerRepository) GetVolunteerByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (volunteer.Volunteer, error) {
	return repo.getBy(ctx, "v.user_id", userID, exec)
}

func (repo volunteerRepository) UpdateVolunteer(ctx context.Context, v volunteer.Volunteer) (volunteer.Volunteer, error) {
	if !isID(v.ID) {
		return volunteer.Volunteer{}, volunteer.ErrNotFound
	}
	q := psql.Update("volunteers").SetMap(map[string]interface{}{
		"phone":                   v.Phone,
		"bio":                     v.Bio,
		"availability":            v.Availability,
		"media_release":           v.MediaRelease,
		"emergency_contact_name":  v.EmergencyContactName,
		"emergency_contact_phone": v.EmergencyContactPhone,
		"updated_at":              v.UpdatedAt,
	}).Where(sq.Eq{"id": v.ID})

	n, err := repo.execute(ctx, repo.exec, q)
	if err != nil {
		return volunteer.Volunteer{}, errors.Wrap(err, "updating volunteer")
	}
	if n == 0 {
		return volunteer.Volunteer{}, volunteer.ErrNotFound
	}
	return v, nil
}

func (repo volunteerRepository) QueryVolunteers(ctx context.Context, filter volunteer.QueryFilter, page core.Pagination) ([]volunteer.Volunteer, int, error) {
	q := repo.selectVolunteers(volunteerColumns...)
	cq := repo.selectVolunteers("COUNT(*)")
	if filter.Search != "" {
		q = q.Where(contains(filter.Search, "u.name", "u.email"))
		cq = cq.Where(contains(filter.Search, "u.name", "u.email"))
	}

	vols := make([]volunteer.Volunteer, 0)
	q = q.OrderBy("u.name ASC", "v.id ASC").Limit(uint64(page.Limit)).Offset(uint64(page.Offset()))
	if err := repo.selekt(ctx, repo.exec, &vols, q); err != nil {
		return nil, 0, errors.Wrap(err, "querying volunteers")
	}
	total, err := repo.count(ctx, repo.exec, cq)
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting volunteers")
	}
	return vols, total, nil
}

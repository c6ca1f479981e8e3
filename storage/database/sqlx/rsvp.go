package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/rsvp"
)

var rsvpColumns = []string{"id", "volunteer_id", "opportunity_id", "status", "created_at", "updated_at"}

type rsvpRepository struct {
	baseRepository
}

var _ rsvp.Repository = (*rsvpRepository)(nil) // interface compliance check

func NewRsvpRepository(exec core.DBExecutor) *rsvpRepository {
	return &rsvpRepository{baseRepository{exec: exec}}
}

func (repo rsvpRepository) getRsvp(ctx context.Context, exec core.DBExecutor, where sq.Eq) (rsvp.Rsvp, error) {
	var r rsvp.Rsvp
	if err := repo.get(ctx, exec, &r, psql.Select(rsvpColumns...).From("rsvps").Where(where)); err != nil {
		return rsvp.Rsvp{}, trapNoRowsErr(err, rsvp.ErrNotFound, "finding rsvp")
	}
	return r, nil
}

func (repo rsvpRepository) GetRsvp(ctx context.Context, volunteerID, opportunityID string, exec ...core.DBExecutor) (rsvp.Rsvp, error) {
	if !isID(volunteerID) || !isID(opportunityID) {
		return rsvp.Rsvp{}, rsvp.ErrNotFound
	}
	return repo.getRsvp(ctx, repo.getExec(exec), sq.Eq{"volunteer_id": volunteerID, "opportunity_id": opportunityID})
}

func (repo rsvpRepository) GetRsvpByID(ctx context.Context, id string) (rsvp.Rsvp, error) {
	if !isID(id) {
		return rsvp.Rsvp{}, rsvp.ErrNotFound
	}
	return repo.getRsvp(ctx, repo.exec, sq.Eq{"id": id})
}

func (repo rsvpRepository) CountActiveRsvps(ctx context.Context, opportunityID string, exec ...core.DBExecutor) (int, error) {
	if !isID(opportunityID) {
		return 0, nil
	}
	q := psql.Select("COUNT(*)").From("rsvps").
		Where(sq.Eq{"opportunity_id": opportunityID, "status": rsvp.ActiveStatuses})
	n, err := repo.count(ctx, repo.getExec(exec), q)
	return n, errors.Wrap(err, "counting rsvps")
}

func (repo rsvpRepository) CreateRsvp(ctx context.Context, r rsvp.Rsvp, exec ...core.DBExecutor) (rsvp.Rsvp, error) {
	q := psql.Insert("rsvps").Columns(rsvpColumns...).
		Values(r.ID, r.VolunteerID, r.OpportunityID, r.Status, r.CreatedAt, r.UpdatedAt)
	if _, err := repo.execute(ctx, repo.getExec(exec), q); err != nil {
		if pqErrCode(err) == pqUniqueViolation {
			return rsvp.Rsvp{}, rsvp.ErrAlreadyRSVPd
		}
		return rsvp.Rsvp{}, errors.Wrap(err, "inserting rsvp")
	}
	return r, nil
}

func (repo rsvpRepository) DeleteRsvp(ctx context.Context, volunteerID, opportunityID string) error {
	if !isID(volunteerID) || !isID(opportunityID) {
		return rsvp.ErrNotFound
	}
	q := psql.Delete("rsvps").Where(sq.Eq{"volunteer_id": volunteerID, "opportunity_id": opportunityID})
	n, err := repo.execute(ctx, repo.exec, q)
	if err != nil {
		return errors.Wrap(err, "deleting rsvp")
	}
	if n == 0 {
		return rsvp.ErrNotFound
	}
	return nil
}

func (repo rsvpRepository) UpdateRsvpStatus(ctx context.Context, id, status string, updatedAt time.Time) (rsvp.Rsvp, error) {
	if !isID(id) {
		return rsvp.Rsvp{}, rsvp.ErrNotFound
	}
	q := psql.Update("rsvps").
		Set("status", status).
		Set("updated_at", updatedAt).
		Where(sq.Eq{"id": id}).
		Suffix("RETURNING id, volunteer_id, opportunity_id, status, created_at, updated_at")

	var r rsvp.Rsvp
	if err := repo.get(ctx, repo.exec, &r, q); err != nil {
		return rsvp.Rsvp{}, trapNoRowsErr(err, rsvp.ErrNotFound, "updating rsvp status")
	}
	return r, nil
}

func (repo rsvpRepository) ListVolunteerRsvps(ctx context.Context, volunteerID string) ([]rsvp.VolunteerRsvp, error) {
	rsvps := make([]rsvp.VolunteerRsvp, 0)
	if !isID(volunteerID) {
		return rsvps, nil
	}
	q := psql.Select(
		"r.id", "r.volunteer_id", "r.opportunity_id", "r.status", "r.created_at", "r.updated_at",
		"o.title AS opportunity_title", "o.start_date", "o.end_date", "o.location",
	).
		From("rsvps r").
		Join("opportunities o ON o.id = r.opportunity_id").
		Where(sq.Eq{"r.volunteer_id": volunteerID}).
		OrderBy("o.start_date ASC")
	if err := repo.selekt(ctx, repo.exec, &rsvps, q); err != nil {
		return nil, errors.Wrap(err, "listing volunteer rsvps")
	}
	return rsvps, nil
}

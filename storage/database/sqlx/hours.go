package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/hours"
)

var (
	hoursColumns = []string{
		"id", "volunteer_id", "opportunity_id", "hours", "date", "notes", "verified_by", "verified_at", "created_at", "updated_at",
	}
	hoursEntryColumns = []string{
		"h.id", "h.volunteer_id", "h.opportunity_id", "h.hours", "h.date", "h.notes", "h.verified_by", "h.verified_at",
		"h.created_at", "h.updated_at", "u.name AS volunteer_name", "o.title AS opportunity_title",
	}
)

type hoursRepository struct {
	baseRepository
}

var _ hours.Repository = (*hoursRepository)(nil) // interface compliance check

func NewHoursRepository(exec core.DBExecutor) *hoursRepository {
	return &hoursRepository{baseRepository{exec: exec}}
}

func (repo hoursRepository) selectEntries() sq.SelectBuilder {
	return psql.Select(hoursEntryColumns...).
		From("volunteer_hours h").
		Join("volunteers v ON v.id = h.volunteer_id").
		Join("users u ON u.id = v.user_id").
		Join("opportunities o ON o.id = h.opportunity_id")
}

func (repo hoursRepository) CreateHours(ctx context.Context, h hours.Record) (hours.Record, error) {
	q := psql.Insert("volunteer_hours").Columns(hoursColumns...).Values(
		h.ID, h.VolunteerID, h.OpportunityID, h.Hours, h.Date, h.Notes, h.VerifiedBy, h.VerifiedAt, h.CreatedAt, h.UpdatedAt,
	)
	if _, err := repo.execute(ctx, repo.exec, q); err != nil {
		return hours.Record{}, errors.Wrap(err, "inserting hours")
	}
	return h, nil
}

func (repo hoursRepository) getHours(ctx context.Context, exec core.DBExecutor, q sq.SelectBuilder) (hours.Record, error) {
	var h hours.Record
	if err := repo.get(ctx, exec, &h, q); err != nil {
		return hours.Record{}, trapNoRowsErr(err, hours.ErrNotFound, "finding hours")
	}
	return h, nil
}

func (repo hoursRepository) GetHoursByID(ctx context.Context, id string) (hours.Record, error) {
	if !isID(id) {
		return hours.Record{}, hours.ErrNotFound
	}
	return repo.getHours(ctx, repo.exec, psql.Select(hoursColumns...).From("volunteer_hours").Where(sq.Eq{"id": id}))
}

func (repo hoursRepository) GetHoursForUpdate(ctx context.Context, id string, exec core.DBExecutor) (hours.Record, error) {
	if !isID(id) {
		return hours.Record{}, hours.ErrNotFound
	}
	q := psql.Select(hoursColumns...).From("volunteer_hours").Where(sq.Eq{"id": id}).Suffix("FOR UPDATE")
	return repo.getHours(ctx, repo.getExec([]core.DBExecutor{exec}), q)
}

func (repo hoursRepository) UpdateHours(ctx context.Context, h hours.Record, exec ...core.DBExecutor) (hours.Record, error) {
	if !isID(h.ID) {
		return hours.Record{}, hours.ErrNotFound
	}
	q := psql.Update("volunteer_hours").SetMap(map[string]interface{}{
		"hours":       h.Hours,
		"date":        h.Date,
		"notes":       h.Notes,
		"verified_by": h.VerifiedBy,
		"verified_at": h.VerifiedAt,
		"updated_at":  h.UpdatedAt,
	}).Where(sq.Eq{"id": h.ID})

	n, err := repo.execute(ctx, repo.getExec(exec), q)
	if err != nil {
		return hours.Record{}, errors.Wrap(err, "updating hours")
	}
	if n == 0 {
		return hours.Record{}, hours.ErrNotFound
	}
	return h, nil
}

func (repo hoursRepository) DeleteHours(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !isID(id) {
		return hours.ErrNotFound
	}
	n, err := repo.execute(ctx, repo.getExec(exec), psql.Delete("volunteer_hours").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting hours")
	}
	if n == 0 {
		return hours.ErrNotFound
	}
	return nil
}

func (repo hoursRepository) ListVolunteerHours(ctx context.Context, volunteerID string, verified *bool) ([]hours.Entry, error) {
	entries := make([]hours.Entry, 0)
	if !isID(volunteerID) {
		return entries, nil
	}
	q := repo.selectEntries().Where(sq.Eq{"h.volunteer_id": volunteerID})
	if verified != nil {
		if *verified {
			q = q.Where(sq.NotEq{"h.verified_at": nil})
		} else {
			q = q.Where(sq.Eq{"h.verified_at": nil})
		}
	}
	q = q.OrderBy("h.date DESC", "h.created_at DESC")
	if err := repo.selekt(ctx, repo.exec, &entries, q); err != nil {
		return nil, errors.Wrap(err, "listing volunteer hours")
	}
	return entries, nil
}

func (repo hoursRepository) ListPendingHours(ctx context.Context, page core.Pagination) ([]hours.Entry, int, error) {
	entries := make([]hours.Entry, 0)
	q := repo.selectEntries().
		Where(sq.Eq{"h.verified_at": nil}).
		OrderBy("h.created_at ASC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset()))
	if err := repo.selekt(ctx, repo.exec, &entries, q); err != nil {
		return nil, 0, errors.Wrap(err, "listing pending hours")
	}

	total, err := repo.count(ctx, repo.exec, psql.Select("COUNT(*)").From("volunteer_hours").Where(sq.Eq{"verified_at": nil}))
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting pending hours")
	}
	return entries, total, nil
}

func (repo hoursRepository) SummarizeHours(ctx context.Context, volunteerID string) (hours.Summary, error) {
	var sum hours.Summary
	if !isID(volunteerID) {
		return sum, nil
	}
	q := psql.Select(
		"COALESCE(SUM(hours), 0) AS total_hours",
		"COALESCE(SUM(hours) FILTER (WHERE verified_at IS NOT NULL), 0) AS verified_hours",
		"COALESCE(SUM(hours) FILTER (WHERE verified_at IS NULL), 0) AS pending_hours",
		"COUNT(*) AS entries",
	).From("volunteer_hours").Where(sq.Eq{"volunteer_id": volunteerID})
	if err := repo.get(ctx, repo.exec, &sum, q); err != nil {
		return hours.Summary{}, errors.Wrap(err, "summarizing hours")
	}
	return sum, nil
}

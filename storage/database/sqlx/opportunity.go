package sqlxrepos

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/opportunity"
	"github.com/trezcool/bolingo/core/rsvp"
)

var (
	opportunityColumns = []string{
		"o.id", "o.title", "o.description", "o.location", "o.start_date", "o.end_date", "o.max_volunteers",
		"o.status", "o.created_by", "o.is_recurring", "o.recurrence_pattern", "o.created_at", "o.updated_at",
	}

	opportunityOrdering = map[string]string{
		"title":      "o.title",
		"start_date": "o.start_date",
		"end_date":   "o.end_date",
		"status":     "o.status",
		"created_at": "o.created_at",
	}
)

// activeRsvpCounts joins the pending/confirmed RSVP count of each opportunity as "r.cnt".
const activeRsvpCounts = "(SELECT opportunity_id, COUNT(*) AS cnt FROM rsvps WHERE status IN (?, ?) GROUP BY opportunity_id) r" +
	" ON r.opportunity_id = o.id"

type (
	opportunityRepository struct {
		baseRepository
	}

	listingRow struct {
		opportunity.Opportunity
		RsvpCount flexInt `db:"rsvp_count"`
	}
)

var _ opportunity.Repository = (*opportunityRepository)(nil) // interface compliance check

func NewOpportunityRepository(exec core.DBExecutor) *opportunityRepository {
	return &opportunityRepository{baseRepository{exec: exec}}
}

func (repo opportunityRepository) selectOpportunities() sq.SelectBuilder {
	return psql.Select(opportunityColumns...).From("opportunities o")
}

func (repo opportunityRepository) CreateOpportunity(ctx context.Context, opp opportunity.Opportunity) (opportunity.Opportunity, error) {
	q := psql.Insert("opportunities").
		Columns("id", "title", "description", "location", "start_date", "end_date", "max_volunteers",
			"status", "created_by", "is_recurring", "recurrence_pattern", "created_at", "updated_at").
		Values(opp.ID, opp.Title, opp.Description, opp.Location, opp.StartDate, opp.EndDate, opp.MaxVolunteers,
			opp.Status, opp.CreatedBy, opp.IsRecurring, opp.RecurrencePattern, opp.CreatedAt, opp.UpdatedAt)
	if _, err := repo.execute(ctx, repo.exec, q); err != nil {
		return opportunity.Opportunity{}, errors.Wrap(err, "inserting opportunity")
	}
	return opp, nil
}

func (repo opportunityRepository) getOpportunity(ctx context.Context, exec core.DBExecutor, q sq.SelectBuilder) (opportunity.Opportunity, error) {
	var opp opportunity.Opportunity
	if err := repo.get(ctx, exec, &opp, q); err != nil {
		return opportunity.Opportunity{}, trapNoRowsErr(err, opportunity.ErrNotFound, "finding opportunity")
	}
	return opp, nil
}

func (repo opportunityRepository) GetOpportunityByID(ctx context.Context, id string, exec ...core.DBExecutor) (opportunity.Opportunity, error) {
	if !isID(id) {
		return opportunity.Opportunity{}, opportunity.ErrNotFound
	}
	return repo.getOpportunity(ctx, repo.getExec(exec), repo.selectOpportunities().Where(sq.Eq{"o.id": id}))
}

func (repo opportunityRepository) GetOpportunityForUpdate(ctx context.Context, id string, exec core.DBExecutor) (opportunity.Opportunity, error) {
	if !isID(id) {
		return opportunity.Opportunity{}, opportunity.ErrNotFound
	}
	q := repo.selectOpportunities().Where(sq.Eq{"o.id": id}).Suffix("FOR UPDATE")
	return repo.getOpportunity(ctx, repo.getExec([]core.DBExecutor{exec}), q)
}

func (repo opportunityRepository) UpdateOpportunity(ctx context.Context, opp opportunity.Opportunity) (opportunity.Opportunity, error) {
	if !isID(opp.ID) {
		return opportunity.Opportunity{}, opportunity.ErrNotFound
	}
	q := psql.Update("opportunities").SetMap(map[string]interface{}{
		"title":              opp.Title,
		"description":        opp.Description,
		"location":           opp.Location,
		"start_date":         opp.StartDate,
		"end_date":           opp.EndDate,
		"max_volunteers":     opp.MaxVolunteers,
		"status":             opp.Status,
		"is_recurring":       opp.IsRecurring,
		"recurrence_pattern": opp.RecurrencePattern,
		"updated_at":         opp.UpdatedAt,
	}).Where(sq.Eq{"id": opp.ID})

	n, err := repo.execute(ctx, repo.exec, q)
	if err != nil {
		return opportunity.Opportunity{}, errors.Wrap(err, "updating opportunity")
	}
	if n == 0 {
		return opportunity.Opportunity{}, opportunity.ErrNotFound
	}
	return opp, nil
}

func (repo opportunityRepository) DeleteOpportunity(ctx context.Context, id string) error {
	if !isID(id) {
		return opportunity.ErrNotFound
	}
	n, err := repo.execute(ctx, repo.exec, psql.Delete("opportunities").Where(sq.Eq{"id": id}))
	if err != nil {
		return errors.Wrap(err, "deleting opportunity")
	}
	if n == 0 {
		return opportunity.ErrNotFound
	}
	return nil
}

func (repo opportunityRepository) QueryOpportunities(
	ctx context.Context,
	filter opportunity.QueryFilter,
	ordering []core.DBOrdering,
) ([]opportunity.Opportunity, error) {
	q := repo.selectOpportunities()

	if filter.Search != "" {
		q = q.Where(contains(filter.Search, "o.title", "o.description", "o.location"))
	}
	if len(filter.Statuses) > 0 {
		q = q.Where(sq.Eq{"o.status": filter.Statuses})
	}
	// opportunities overlapping [From, To]
	if !filter.From.IsZero() {
		q = q.Where(sq.GtOrEq{"o.end_date": filter.From.UTC()})
	}
	if !filter.To.IsZero() {
		q = q.Where(sq.LtOrEq{"o.start_date": filter.To.UTC()})
	}
	if filter.CreatedBy != "" {
		if !isID(filter.CreatedBy) {
			return []opportunity.Opportunity{}, nil
		}
		q = q.Where(sq.Eq{"o.created_by": filter.CreatedBy})
	}
	q = q.OrderBy(orderBy(ordering, opportunityOrdering, "o.start_date ASC")...)

	opps := make([]opportunity.Opportunity, 0)
	if err := repo.selekt(ctx, repo.exec, &opps, q); err != nil {
		return nil, errors.Wrap(err, "querying opportunities")
	}
	return opps, nil
}

func (repo opportunityRepository) ListOpenOpportunities(
	ctx context.Context,
	now time.Time,
	search string,
	limit, offset int,
) ([]opportunity.Listing, error) {
	q := psql.Select(append(opportunityColumns, "COALESCE(r.cnt, 0) AS rsvp_count")...).
		From("opportunities o").
		LeftJoin(activeRsvpCounts, rsvp.StatusPending, rsvp.StatusConfirmed).
		Where(sq.Eq{"o.status": opportunity.StatusOpen}).
		Where(sq.Gt{"o.start_date": now})
	if search != "" {
		q = q.Where(contains(search, "o.title", "o.description", "o.location"))
	}
	q = q.OrderBy("o.start_date ASC", "o.id ASC").Limit(uint64(limit)).Offset(uint64(offset))

	var rows []listingRow
	if err := repo.selekt(ctx, repo.exec, &rows, q); err != nil {
		return nil, errors.Wrap(err, "listing open opportunities")
	}
	listings := make([]opportunity.Listing, 0, len(rows))
	for _, row := range rows {
		listings = append(listings, opportunity.Listing{Opportunity: row.Opportunity, RsvpCount: int(row.RsvpCount)})
	}
	return listings, nil
}

func (repo opportunityRepository) ListEventRsvps(ctx context.Context, opportunityID string) ([]opportunity.EventRsvp, error) {
	rsvps := make([]opportunity.EventRsvp, 0)
	if !isID(opportunityID) {
		return rsvps, nil
	}
	q := psql.Select("r.id AS rsvp_id", "r.volunteer_id", "v.user_id", "u.name", "u.email", "r.status", "r.created_at").
		From("rsvps r").
		Join("volunteers v ON v.id = r.volunteer_id").
		Join("users u ON u.id = v.user_id").
		Where(sq.Eq{"r.opportunity_id": opportunityID}).
		OrderBy("r.created_at ASC")
	if err := repo.selekt(ctx, repo.exec, &rsvps, q); err != nil {
		return nil, errors.Wrap(err, "listing event rsvps")
	}
	return rsvps, nil
}

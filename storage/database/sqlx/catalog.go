package sqlxrepos

import (
	"context"
	"fmt"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/catalog"
)

var catalogColumns = []string{"id", "name", "description", "created_at", "updated_at"}

// catalogTables names the tables backing one catalog.Kind.
type catalogTables struct {
	entries          string // skills
	volunteerLinks   string // volunteer_skills
	opportunityLinks string // opportunity_skills
	fk               string // skill_id
}

var tablesByKind = map[catalog.Kind]catalogTables{
	catalog.KindSkill: {
		entries:          "skills",
		volunteerLinks:   "volunteer_skills",
		opportunityLinks: "opportunity_skills",
		fk:               "skill_id",
	},
	catalog.KindInterest: {
		entries:          "interests",
		volunteerLinks:   "volunteer_interests",
		opportunityLinks: "opportunity_interests",
		fk:               "interest_id",
	},
}

type catalogRepository struct {
	baseRepository
	tables catalogTables
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(exec core.DBExecutor, kind catalog.Kind) *catalogRepository {
	tables, ok := tablesByKind[kind]
	if !ok {
		panic(fmt.Sprintf("sqlxrepos: unknown catalog kind %q", kind))
	}
	return &catalogRepository{baseRepository: baseRepository{exec: exec}, tables: tables}
}

func (repo catalogRepository) CreateEntry(ctx context.Context, e catalog.Entry, exec ...core.DBExecutor) (catalog.Entry, error) {
	q := psql.Insert(repo.tables.entries).Columns(catalogColumns...).
		Values(e.ID, e.Name, e.Description, e.CreatedAt, e.UpdatedAt)
	if _, err := repo.execute(ctx, repo.getExec(exec), q); err != nil {
		if pqErrCode(err) == pqUniqueViolation {
			return catalog.Entry{}, catalog.ErrNameExists
		}
		return catalog.Entry{}, errors.Wrap(err, "inserting catalog entry")
	}
	return e, nil
}

func (repo catalogRepository) getEntry(ctx context.Context, exec core.DBExecutor, where sq.Eq) (catalog.Entry, error) {
	var e catalog.Entry
	q := psql.Select(catalogColumns...).From(repo.tables.entries).Where(where)
	if err := repo.get(ctx, exec, &e, q); err != nil {
		return catalog.Entry{}, trapNoRowsErr(err, catalog.ErrNotFound, "finding catalog entry")
	}
	return e, nil
}

func (repo catalogRepository) GetEntryByID(ctx context.Context, id string, exec ...core.DBExecutor) (catalog.Entry, error) {
	if !isID(id) {
		return catalog.Entry{}, catalog.ErrNotFound
	}
	return repo.getEntry(ctx, repo.getExec(exec), sq.Eq{"id": id})
}

func (repo catalogRepository) GetEntryByName(ctx context.Context, name string, exec ...core.DBExecutor) (catalog.Entry, error) {
	return repo.getEntry(ctx, repo.getExec(exec), sq.Eq{"name": name})
}

func (repo catalogRepository) UpdateEntry(ctx context.Context, e catalog.Entry, exec ...core.DBExecutor) (catalog.Entry, error) {
	if !isID(e.ID) {
		return catalog.Entry{}, catalog.ErrNotFound
	}
	q := psql.Update(repo.tables.entries).SetMap(map[string]interface{}{
		"name":        e.Name,
		"description": e.Description,
		"updated_at":  e.UpdatedAt,
	}).Where(sq.Eq{"id": e.ID})

	n, err := repo.execute(ctx, repo.getExec(exec), q)
	if err != nil {
		if pqErrCode(err) == pqUniqueViolation {
			return catalog.Entry{}, catalog.ErrNameExists
		}
		return catalog.Entry{}, errors.Wrap(err, "updating catalog entry")
	}
	if n == 0 {
		return catalog.Entry{}, catalog.ErrNotFound
	}
	return e, nil
}

func (repo catalogRepository) DeleteEntry(ctx context.Context, id string, exec ...core.DBExecutor) error {
	if !isID(id) {
		return catalog.ErrNotFound
	}
	n, err := repo.execute(ctx, repo.getExec(exec), psql.Delete(repo.tables.entries).Where(sq.Eq{"id": id}))
	if err != nil {
		if pqErrCode(err) == pqForeignKeyViolation {
			return catalog.ErrInUse
		}
		return errors.Wrap(err, "deleting catalog entry")
	}
	if n == 0 {
		return catalog.ErrNotFound
	}
	return nil
}

func (repo catalogRepository) QueryEntries(ctx context.Context, search string) ([]catalog.Entry, error) {
	q := psql.Select(catalogColumns...).From(repo.tables.entries)
	if search != "" {
		q = q.Where(contains(search, "name"))
	}
	entries := make([]catalog.Entry, 0)
	if err := repo.selekt(ctx, repo.exec, &entries, q.OrderBy("name ASC")); err != nil {
		return nil, errors.Wrap(err, "querying catalog entries")
	}
	return entries, nil
}

func (repo catalogRepository) CountAssignments(ctx context.Context, id string, exec ...core.DBExecutor) (int, error) {
	if !isID(id) {
		return 0, nil
	}
	q := psql.Select(fmt.Sprintf(
		"(SELECT COUNT(*) FROM %s WHERE %s = ?) + (SELECT COUNT(*) FROM %s WHERE %s = ?)",
		repo.tables.volunteerLinks, repo.tables.fk, repo.tables.opportunityLinks, repo.tables.fk,
	), id, id)
	n, err := repo.count(ctx, repo.getExec(exec), q)
	return n, errors.Wrap(err, "counting assignments")
}

func (repo catalogRepository) link(ctx context.Context, q sq.InsertBuilder) error {
	if _, err := repo.execute(ctx, repo.exec, q); err != nil {
		switch pqErrCode(err) {
		case pqUniqueViolation:
			return catalog.ErrAlreadyAssigned
		case pqForeignKeyViolation:
			return catalog.ErrNotFound
		}
		return errors.Wrap(err, "inserting assignment")
	}
	return nil
}

func (repo catalogRepository) unlink(ctx context.Context, table, ownerCol, ownerID, entryID string) error {
	if !isID(ownerID) || !isID(entryID) {
		return catalog.ErrAssignmentNotFound
	}
	q := psql.Delete(table).Where(sq.Eq{ownerCol: ownerID, repo.tables.fk: entryID})
	n, err := repo.execute(ctx, repo.exec, q)
	if err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	if n == 0 {
		return catalog.ErrAssignmentNotFound
	}
	return nil
}

func (repo catalogRepository) AssignToVolunteer(
	ctx context.Context,
	volunteerID, entryID string,
	proficiency null.String,
	assignedAt time.Time,
) error {
	q := psql.Insert(repo.tables.volunteerLinks).
		Columns("volunteer_id", repo.tables.fk, "proficiency", "assigned_at").
		Values(volunteerID, entryID, proficiency, assignedAt)
	return repo.link(ctx, q)
}

func (repo catalogRepository) UnassignFromVolunteer(ctx context.Context, volunteerID, entryID string) error {
	return repo.unlink(ctx, repo.tables.volunteerLinks, "volunteer_id", volunteerID, entryID)
}

func (repo catalogRepository) ListVolunteerEntries(ctx context.Context, volunteerID string) ([]catalog.VolunteerEntry, error) {
	entries := make([]catalog.VolunteerEntry, 0)
	if !isID(volunteerID) {
		return entries, nil
	}
	q := psql.Select("e.id", "e.name", "e.description", "e.created_at", "e.updated_at", "l.proficiency", "l.assigned_at").
		From(repo.tables.entries + " e").
		Join(fmt.Sprintf("%s l ON l.%s = e.id", repo.tables.volunteerLinks, repo.tables.fk)).
		Where(sq.Eq{"l.volunteer_id": volunteerID}).
		OrderBy("e.name ASC")
	if err := repo.selekt(ctx, repo.exec, &entries, q); err != nil {
		return nil, errors.Wrap(err, "listing volunteer entries")
	}
	return entries, nil
}

func (repo catalogRepository) AssignToOpportunity(ctx context.Context, opportunityID, entryID string) error {
	q := psql.Insert(repo.tables.opportunityLinks).
		Columns("opportunity_id", repo.tables.fk).
		Values(opportunityID, entryID)
	return repo.link(ctx, q)
}

func (repo catalogRepository) UnassignFromOpportunity(ctx context.Context, opportunityID, entryID string) error {
	return repo.unlink(ctx, repo.tables.opportunityLinks, "opportunity_id", opportunityID, entryID)
}

func (repo catalogRepository) ListOpportunityEntries(ctx context.Context, opportunityID string) ([]catalog.Entry, error) {
	entries := make([]catalog.Entry, 0)
	if !isID(opportunityID) {
		return entries, nil
	}
	q := psql.Select("e.id", "e.name", "e.description", "e.created_at", "e.updated_at").
		From(repo.tables.entries + " e").
		Join(fmt.Sprintf("%s l ON l.%s = e.id", repo.tables.opportunityLinks, repo.tables.fk)).
		Where(sq.Eq{"l.opportunity_id": opportunityID}).
		OrderBy("e.name ASC")
	if err := repo.selekt(ctx, repo.exec, &entries, q); err != nil {
		return nil, errors.Wrap(err, "listing opportunity entries")
	}
	return entries, nil
}

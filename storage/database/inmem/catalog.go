package inmemdb

import (
	"context"
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/catalog"
)

type catalogRepository struct {
	db   *DB
	kind catalog.Kind
}

var _ catalog.Repository = (*catalogRepository)(nil) // interface compliance check

func NewCatalogRepository(db *DB, kind catalog.Kind) *catalogRepository {
	return &catalogRepository{db: db, kind: kind}
}

// table returns the kind's tables. Callers hold db.mu.
func (repo *catalogRepository) table() *catalogTable {
	return repo.db.catalogs[repo.kind]
}

// nameTaken is case-sensitive, like the unique index. Callers hold db.mu.
func (tbl *catalogTable) nameTaken(name, excludedID string) bool {
	for _, e := range tbl.entries {
		if e.Name == name && e.ID != excludedID {
			return true
		}
	}
	return false
}

func sortEntries[T any](items []T, entry func(T) catalog.Entry) {
	sortBy(items,
		func(a, b T) int { return cmpString(entry(a).Name, entry(b).Name) },
		func(a, b T) int { return cmpString(entry(a).ID, entry(b).ID) },
	)
}

func (repo *catalogRepository) CreateEntry(_ context.Context, e catalog.Entry, _ ...core.DBExecutor) (catalog.Entry, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	tbl := repo.table()
	if tbl.nameTaken(e.Name, "") {
		return catalog.Entry{}, catalog.ErrNameExists
	}
	tbl.entries[e.ID] = e
	return e, nil
}

func (repo *catalogRepository) GetEntryByID(_ context.Context, id string, _ ...core.DBExecutor) (catalog.Entry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if e, ok := repo.table().entries[id]; ok {
		return e, nil
	}
	return catalog.Entry{}, catalog.ErrNotFound
}

func (repo *catalogRepository) GetEntryByName(_ context.Context, name string, _ ...core.DBExecutor) (catalog.Entry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	for _, e := range repo.table().entries {
		if e.Name == name {
			return e, nil
		}
	}
	return catalog.Entry{}, catalog.ErrNotFound
}

func (repo *catalogRepository) UpdateEntry(_ context.Context, e catalog.Entry, _ ...core.DBExecutor) (catalog.Entry, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	tbl := repo.table()
	orig, ok := tbl.entries[e.ID]
	if !ok {
		return catalog.Entry{}, catalog.ErrNotFound
	}
	if tbl.nameTaken(e.Name, e.ID) {
		return catalog.Entry{}, catalog.ErrNameExists
	}
	e.CreatedAt = orig.CreatedAt
	tbl.entries[e.ID] = e
	return e, nil
}

func (repo *catalogRepository) DeleteEntry(_ context.Context, id string, _ ...core.DBExecutor) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	tbl := repo.table()
	if _, ok := tbl.entries[id]; !ok {
		return catalog.ErrNotFound
	}
	if tbl.assignments(id) > 0 {
		return catalog.ErrInUse
	}
	delete(tbl.entries, id)
	return nil
}

func (repo *catalogRepository) QueryEntries(_ context.Context, search string) ([]catalog.Entry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	entries := make([]catalog.Entry, 0)
	for _, e := range repo.table().entries {
		if search != "" && !contains(search, e.Name) {
			continue
		}
		entries = append(entries, e)
	}
	sortEntries(entries, func(e catalog.Entry) catalog.Entry { return e })
	return entries, nil
}

// assignments counts the links to entryID. Callers hold db.mu.
func (tbl *catalogTable) assignments(entryID string) int {
	n := 0
	for l := range tbl.volunteerLinks {
		if l.entryID == entryID {
			n++
		}
	}
	for l := range tbl.opportunityLinks {
		if l.entryID == entryID {
			n++
		}
	}
	return n
}

func (repo *catalogRepository) CountAssignments(_ context.Context, id string, _ ...core.DBExecutor) (int, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	return repo.table().assignments(id), nil
}

func (repo *catalogRepository) AssignToVolunteer(
	_ context.Context,
	volunteerID, entryID string,
	proficiency null.String,
	assignedAt time.Time,
) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	tbl := repo.table()
	l := link{ownerID: volunteerID, entryID: entryID}
	if _, ok := tbl.volunteerLinks[l]; ok {
		return catalog.ErrAlreadyAssigned
	}
	tbl.volunteerLinks[l] = volunteerLink{proficiency: proficiency.String, assignedAt: assignedAt}
	return nil
}

func (repo *catalogRepository) UnassignFromVolunteer(_ context.Context, volunteerID, entryID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	tbl := repo.table()
	l := link{ownerID: volunteerID, entryID: entryID}
	if _, ok := tbl.volunteerLinks[l]; !ok {
		return catalog.ErrAssignmentNotFound
	}
	delete(tbl.volunteerLinks, l)
	return nil
}

func (repo *catalogRepository) ListVolunteerEntries(_ context.Context, volunteerID string) ([]catalog.VolunteerEntry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	tbl := repo.table()
	entries := make([]catalog.VolunteerEntry, 0)
	for l, vl := range tbl.volunteerLinks {
		if l.ownerID != volunteerID {
			continue
		}
		entries = append(entries, catalog.VolunteerEntry{
			Entry:       tbl.entries[l.entryID],
			Proficiency: null.NewString(vl.proficiency, vl.proficiency != ""),
			AssignedAt:  vl.assignedAt,
		})
	}
	sortEntries(entries, func(e catalog.VolunteerEntry) catalog.Entry { return e.Entry })
	return entries, nil
}

func (repo *catalogRepository) AssignToOpportunity(_ context.Context, opportunityID, entryID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	tbl := repo.table()
	l := link{ownerID: opportunityID, entryID: entryID}
	if _, ok := tbl.opportunityLinks[l]; ok {
		return catalog.ErrAlreadyAssigned
	}
	tbl.opportunityLinks[l] = struct{}{}
	return nil
}

func (repo *catalogRepository) UnassignFromOpportunity(_ context.Context, opportunityID, entryID string) error {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	tbl := repo.table()
	l := link{ownerID: opportunityID, entryID: entryID}
	if _, ok := tbl.opportunityLinks[l]; !ok {
		return catalog.ErrAssignmentNotFound
	}
	delete(tbl.opportunityLinks, l)
	return nil
}

func (repo *catalogRepository) ListOpportunityEntries(_ context.Context, opportunityID string) ([]catalog.Entry, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	tbl := repo.table()
	entries := make([]catalog.Entry, 0)
	for l := range tbl.opportunityLinks {
		if l.ownerID == opportunityID {
			entries = append(entries, tbl.entries[l.entryID])
		}
	}
	sortEntries(entries, func(e catalog.Entry) catalog.Entry { return e })
	return entries, nil
}

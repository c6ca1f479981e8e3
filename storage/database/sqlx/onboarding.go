package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/onboarding"
	"github.com/trezcool/bolingo/core/volunteer"
)

var onboardingColumns = []string{
	"v.id AS volunteer_id", "v.user_id", "u.name", "u.email", "v.phone", "v.bio", "v.availability", "v.media_release",
	"(SELECT COUNT(*) FROM volunteer_skills s WHERE s.volunteer_id = v.id) AS skills_count",
	"(SELECT COUNT(*) FROM volunteer_interests i WHERE i.volunteer_id = v.id) AS interests_count",
}

type (
	onboardingRepository struct {
		baseRepository
	}

	factsRow struct {
		VolunteerID    string                 `db:"volunteer_id"`
		UserID         string                 `db:"user_id"`
		Name           string                 `db:"name"`
		Email          string                 `db:"email"`
		Phone          null.String            `db:"phone"`
		Bio            null.String            `db:"bio"`
		Availability   volunteer.Availability `db:"availability"`
		MediaRelease   bool                   `db:"media_release"`
		SkillsCount    flexInt                `db:"skills_count"`
		InterestsCount flexInt                `db:"interests_count"`
	}
)

func (row factsRow) facts() onboarding.Facts {
	return onboarding.Facts{
		VolunteerID:    row.VolunteerID,
		UserID:         row.UserID,
		Name:           row.Name,
		Email:          row.Email,
		Phone:          row.Phone,
		Bio:            row.Bio,
		Availability:   row.Availability,
		MediaRelease:   row.MediaRelease,
		SkillsCount:    int(row.SkillsCount),
		InterestsCount: int(row.InterestsCount),
	}
}

var _ onboarding.Repository = (*onboardingRepository)(nil) // interface compliance check

func NewOnboardingRepository(exec core.DBExecutor) *onboardingRepository {
	return &onboardingRepository{baseRepository{exec: exec}}
}

func (repo onboardingRepository) selectFacts(cols ...string) sq.SelectBuilder {
	return psql.Select(cols...).From("volunteers v").Join("users u ON u.id = v.user_id")
}

func (repo onboardingRepository) getFacts(ctx context.Context, col, val string) (onboarding.Facts, error) {
	if !isID(val) {
		return onboarding.Facts{}, volunteer.ErrNotFound
	}
	var row factsRow
	if err := repo.get(ctx, repo.exec, &row, repo.selectFacts(onboardingColumns...).Where(sq.Eq{col: val})); err != nil {
		return onboarding.Facts{}, trapNoRowsErr(err, volunteer.ErrNotFound, "finding onboarding facts")
	}
	return row.facts(), nil
}

func (repo onboardingRepository) GetOnboardingFacts(ctx context.Context, volunteerID string) (onboarding.Facts, error) {
	return repo.getFacts(ctx, "v.id", volunteerID)
}

func (repo onboardingRepository) GetOnboardingFactsByUserID(ctx context.Context, userID string) (onboarding.Facts, error) {
	return repo.getFacts(ctx, "v.user_id", userID)
}

func (repo onboardingRepository) QueryOnboardingFacts(ctx context.Context, search string, limit, offset int) ([]onboarding.Facts, error) {
	q := repo.selectFacts(onboardingColumns...)
	if search != "" {
		q = q.Where(contains(search, "u.name", "u.email"))
	}
	q = q.OrderBy("u.name ASC", "v.id ASC")
	if limit > 0 {
		q = q.Limit(uint64(limit)).Offset(uint64(offset))
	}

	var rows []factsRow
	if err := repo.selekt(ctx, repo.exec, &rows, q); err != nil {
		return nil, errors.Wrap(err, "querying onboarding facts")
	}
	facts := make([]onboarding.Facts, 0, len(rows))
	for _, row := range rows {
		facts = append(facts, row.facts())
	}
	return facts, nil
}

func (repo onboardingRepository) CountVolunteers(ctx context.Context, search string) (int, error) {
	q := repo.selectFacts("COUNT(*)")
	if search != "" {
		q = q.Where(contains(search, "u.name", "u.email"))
	}
	n, err := repo.count(ctx, repo.exec, q)
	return n, errors.Wrap(err, "counting volunteers")
}

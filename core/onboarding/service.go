package onboarding

import (
	"context"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/volunteer"
)

type (
	// Facts are the raw profile fields of a volunteer the Checklist is derived from.
	Facts struct {
		VolunteerID    string                 `db:"volunteer_id"`
		UserID         string                 `db:"user_id"`
		Name           string                 `db:"name"`
		Email          string                 `db:"email"`
		Phone          null.String            `db:"phone"`
		Bio            null.String            `db:"bio"`
		Availability   volunteer.Availability `db:"availability"`
		MediaRelease   bool                   `db:"media_release"`
		SkillsCount    int                    `db:"skills_count"`
		InterestsCount int                    `db:"interests_count"`
	}

	Status struct {
		VolunteerID          string    `json:"volunteer_id"`
		UserID               string    `json:"user_id"`
		Name                 string    `json:"name"`
		Email                string    `json:"email"`
		Checklist            Checklist `json:"checklist"`
		CompletionPercentage int       `json:"completion_percentage"`
		OnboardingComplete   bool      `json:"onboarding_complete"`
	}

	Repository interface {
		GetOnboardingFacts(ctx context.Context, volunteerID string) (Facts, error)
		GetOnboardingFactsByUserID(ctx context.Context, userID string) (Facts, error)
		// QueryOnboardingFacts lists volunteers by name. search does a case-insensitive match on name or email.
		// A limit < 1 lists them all.
		QueryOnboardingFacts(ctx context.Context, search string, limit, offset int) ([]Facts, error)
		CountVolunteers(ctx context.Context, search string) (int, error)
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// StatusFromFacts scores f.
func StatusFromFacts(f Facts) Status {
	checklist := BuildChecklist(f.Phone.String, f.Bio.String, f.Availability, f.SkillsCount, f.InterestsCount, f.MediaRelease)
	pct := CompletionFromChecklist(checklist)
	return Status{
		VolunteerID:          f.VolunteerID,
		UserID:               f.UserID,
		Name:                 f.Name,
		Email:                f.Email,
		Checklist:            checklist,
		CompletionPercentage: pct,
		OnboardingComplete:   pct == 100,
	}
}

// GetStatus scores the volunteer volunteerID. Returns volunteer.ErrNotFound if there is none.
func (svc *Service) GetStatus(ctx context.Context, volunteerID string) (Status, error) {
	f, err := svc.repo.GetOnboardingFacts(ctx, volunteerID)
	if err != nil {
		return Status{}, err
	}
	return StatusFromFacts(f), nil
}

// GetStatusForUser scores the volunteer owning userID.
func (svc *Service) GetStatusForUser(ctx context.Context, userID string) (Status, error) {
	f, err := svc.repo.GetOnboardingFactsByUserID(ctx, userID)
	if err != nil {
		return Status{}, err
	}
	return StatusFromFacts(f), nil
}

// List scores one page of volunteers.
func (svc *Service) List(ctx context.Context, page core.Pagination, search string) (core.Page[Status], error) {
	page.Clean()
	search = core.CleanString(search)

	var (
		facts []Facts
		total int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		facts, err = svc.repo.QueryOnboardingFacts(gctx, search, page.Limit, page.Offset())
		return errors.Wrap(err, "querying onboarding facts")
	})
	g.Go(func() error {
		var err error
		total, err = svc.repo.CountVolunteers(gctx, search)
		return errors.Wrap(err, "counting volunteers")
	})
	if err := g.Wait(); err != nil {
		return core.Page[Status]{}, err
	}

	statuses := make([]Status, 0, len(facts))
	for _, f := range facts {
		statuses = append(statuses, StatusFromFacts(f))
	}
	return core.NewPage(statuses, total, page), nil
}

// ListIncomplete scores every volunteer and keeps those who have not completed onboarding.
func (svc *Service) ListIncomplete(ctx context.Context) ([]Status, error) {
	facts, err := svc.repo.QueryOnboardingFacts(ctx, "", 0, 0)
	if err != nil {
		return nil, errors.Wrap(err, "querying onboarding facts")
	}
	var incomplete []Status
	for _, f := range facts {
		if st := StatusFromFacts(f); !st.OnboardingComplete {
			incomplete = append(incomplete, st)
		}
	}
	return incomplete, nil
}

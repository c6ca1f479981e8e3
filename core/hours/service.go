package hours

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/opportunity"
	"github.com/trezcool/bolingo/core/volunteer"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound        = core.NewNotFoundError("HOURS_NOT_FOUND", "hours not found")
	ErrAlreadyVerified = core.NewConflictError("HOURS_ALREADY_VERIFIED", "hours are already verified")
)

type (
	Repository interface {
		CreateHours(ctx context.Context, h Record) (Record, error)
		GetHoursByID(ctx context.Context, id string) (Record, error)
		// GetHoursForUpdate loads the Record and locks it until exec's transaction ends.
		GetHoursForUpdate(ctx context.Context, id string, exec core.DBExecutor) (Record, error)
		UpdateHours(ctx context.Context, h Record, exec ...core.DBExecutor) (Record, error)
		DeleteHours(ctx context.Context, id string, exec ...core.DBExecutor) error
		// ListVolunteerHours lists the records of volunteerID, latest first. verified filters on the verification state when set.
		ListVolunteerHours(ctx context.Context, volunteerID string, verified *bool) ([]Entry, error)
		// ListPendingHours returns one page of unverified records, oldest first, and the total count.
		ListPendingHours(ctx context.Context, page core.Pagination) ([]Entry, int, error)
		SummarizeHours(ctx context.Context, volunteerID string) (Summary, error)
	}

	Service struct {
		tx      core.Transactor
		repo    Repository
		oppRepo opportunity.Repository
		volRepo volunteer.Repository
	}
)

func NewService(tx core.Transactor, repo Repository, oppRepo opportunity.Repository, volRepo volunteer.Repository) *Service {
	return &Service{tx: tx, repo: repo, oppRepo: oppRepo, volRepo: volRepo}
}

// Log records hours for the volunteer owning userID. nh must have been validated.
func (svc *Service) Log(ctx context.Context, userID string, nh NewHours) (Record, error) {
	vol, err := svc.volRepo.GetVolunteerByUserID(ctx, userID)
	if err != nil {
		return Record{}, err
	}
	if _, err = svc.oppRepo.GetOpportunityByID(ctx, nh.OpportunityID); err != nil {
		return Record{}, err
	}

	now := nowFunc().UTC()
	h, err := svc.repo.CreateHours(ctx, Record{
		ID:            uuid.NewString(),
		VolunteerID:   vol.ID,
		OpportunityID: nh.OpportunityID,
		Hours:         roundHours(nh.Hours),
		Date:          truncateDay(nh.Date),
		Notes:         null.NewString(nh.Notes, nh.Notes != ""),
		CreatedAt:     now,
		UpdatedAt:     now,
	})
	return h, errors.Wrap(err, "inserting hours")
}

// editOwned locks the Record id, checks it belongs to the volunteer owning userID and are still unverified,
// then hands it to fn.
func (svc *Service) editOwned(ctx context.Context, userID, id string, fn func(h Record, exec core.DBExecutor) error) error {
	vol, err := svc.volRepo.GetVolunteerByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		h, err := svc.repo.GetHoursForUpdate(ctx, id, exec)
		if err != nil {
			return err
		}
		if h.VolunteerID != vol.ID {
			return ErrNotFound
		}
		if h.IsVerified() {
			return ErrAlreadyVerified
		}
		return fn(h, exec)
	})
}

// Update modifies an unverified Record of the volunteer owning userID. uh must have been validated.
func (svc *Service) Update(ctx context.Context, userID, id string, uh UpdateHours) (Record, error) {
	var updated Record
	err := svc.editOwned(ctx, userID, id, func(h Record, exec core.DBExecutor) error {
		uh.apply(&h)
		h.UpdatedAt = nowFunc().UTC()
		var err error
		updated, err = svc.repo.UpdateHours(ctx, h, exec)
		return err
	})
	return updated, err
}

// Delete removes an unverified Record of the volunteer owning userID.
func (svc *Service) Delete(ctx context.Context, userID, id string) error {
	return svc.editOwned(ctx, userID, id, func(h Record, exec core.DBExecutor) error {
		return svc.repo.DeleteHours(ctx, h.ID, exec)
	})
}

// Verify stamps the Record as checked by verifierID. A verified Record can't be verified again.
func (svc *Service) Verify(ctx context.Context, verifierID, id string) (Record, error) {
	var verified Record
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		h, err := svc.repo.GetHoursForUpdate(ctx, id, exec)
		if err != nil {
			return err
		}
		if h.IsVerified() {
			return ErrAlreadyVerified
		}
		now := nowFunc().UTC()
		h.VerifiedBy = null.StringFrom(verifierID)
		h.VerifiedAt = null.TimeFrom(now)
		h.UpdatedAt = now
		verified, err = svc.repo.UpdateHours(ctx, h, exec)
		return err
	})
	return verified, err
}

func (svc *Service) GetByID(ctx context.Context, id string) (Record, error) {
	return svc.repo.GetHoursByID(ctx, id)
}

func (svc *Service) ListForVolunteer(ctx context.Context, volunteerID string, verified *bool) ([]Entry, error) {
	if _, err := svc.volRepo.GetVolunteerByID(ctx, volunteerID); err != nil {
		return nil, err
	}
	entries, err := svc.repo.ListVolunteerHours(ctx, volunteerID, verified)
	if err != nil {
		return nil, errors.Wrap(err, "listing volunteer hours")
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

func (svc *Service) ListForUser(ctx context.Context, userID string, verified *bool) ([]Entry, error) {
	vol, err := svc.volRepo.GetVolunteerByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return svc.ListForVolunteer(ctx, vol.ID, verified)
}

// ListPending lists the records waiting for verification.
func (svc *Service) ListPending(ctx context.Context, page core.Pagination) (core.Page[Entry], error) {
	page.Clean()
	entries, total, err := svc.repo.ListPendingHours(ctx, page)
	if err != nil {
		return core.Page[Entry]{}, errors.Wrap(err, "listing pending hours")
	}
	return core.NewPage(entries, total, page), nil
}

func (svc *Service) Summary(ctx context.Context, volunteerID string) (Summary, error) {
	if _, err := svc.volRepo.GetVolunteerByID(ctx, volunteerID); err != nil {
		return Summary{}, err
	}
	sum, err := svc.repo.SummarizeHours(ctx, volunteerID)
	if err != nil {
		return Summary{}, errors.Wrap(err, "summarizing hours")
	}
	sum.TotalHours = roundHours(sum.TotalHours)
	sum.VerifiedHours = roundHours(sum.VerifiedHours)
	sum.PendingHours = roundHours(sum.PendingHours)
	return sum, nil
}

func (svc *Service) SummaryForUser(ctx context.Context, userID string) (Summary, error) {
	vol, err := svc.volRepo.GetVolunteerByUserID(ctx, userID)
	if err != nil {
		return Summary{}, err
	}
	return svc.Summary(ctx, vol.ID)
}

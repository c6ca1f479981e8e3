package volunteer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/user"
)

var ErrNotFound = core.NewNotFoundError("VOLUNTEER_NOT_FOUND", "volunteer not found")

type (
	Repository interface {
		CreateVolunteer(ctx context.Context, v Volunteer, exec ...core.DBExecutor) (Volunteer, error)
		GetVolunteerByID(ctx context.Context, id string, exec ...core.DBExecutor) (Volunteer, error)
		GetVolunteerByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (Volunteer, error)
		UpdateVolunteer(ctx context.Context, v Volunteer) (Volunteer, error)
		// QueryVolunteers returns one page of volunteers ordered by name, and the total matching filter.
		QueryVolunteers(ctx context.Context, filter QueryFilter, page core.Pagination) ([]Volunteer, int, error)
	}

	Service struct {
		tx     core.Transactor
		repo   Repository
		usrSvc *user.Service
	}
)

func NewService(tx core.Transactor, repo Repository, usrSvc *user.Service) *Service {
	return &Service{tx: tx, repo: repo, usrSvc: usrSvc}
}

// Register creates a volunteer account: the User (role volunteer) and its empty profile, atomically.
// nu must have been validated. The welcome mail is sent once both rows are committed.
func (svc *Service) Register(ctx context.Context, nu user.NewUser) (Volunteer, error) {
	nu.Role = user.RoleVolunteer

	var (
		usr user.User
		vol Volunteer
	)
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		var err error
		if usr, err = svc.usrSvc.Create(ctx, nu, exec); err != nil {
			return errors.Wrap(err, "creating user")
		}
		now := time.Now().UTC()
		vol, err = svc.repo.CreateVolunteer(ctx, Volunteer{
			ID:        uuid.NewString(),
			UserID:    usr.ID,
			Name:      usr.Name,
			Email:     usr.Email,
			CreatedAt: now,
			UpdatedAt: now,
		}, exec)
		return errors.Wrap(err, "creating volunteer")
	})
	if err != nil {
		return Volunteer{}, err
	}

	svc.usrSvc.SendWelcomeMail(usr)
	return vol, nil
}

func (svc *Service) GetByID(ctx context.Context, id string) (Volunteer, error) {
	return svc.repo.GetVolunteerByID(ctx, id)
}

func (svc *Service) GetByUserID(ctx context.Context, userID string) (Volunteer, error) {
	return svc.repo.GetVolunteerByUserID(ctx, userID)
}

// UpdateProfile applies up (already validated) to the profile of the volunteer owning userID.
func (svc *Service) UpdateProfile(ctx context.Context, userID string, up UpdateProfile) (Volunteer, error) {
	vol, err := svc.repo.GetVolunteerByUserID(ctx, userID)
	if err != nil {
		return Volunteer{}, err
	}
	up.apply(&vol)
	vol.UpdatedAt = time.Now().UTC()
	return svc.repo.UpdateVolunteer(ctx, vol)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, page core.Pagination) (core.Page[Volunteer], error) {
	filter.Clean()
	page.Clean()
	vols, total, err := svc.repo.QueryVolunteers(ctx, filter, page)
	if err != nil {
		return core.Page[Volunteer]{}, errors.Wrap(err, "querying volunteers")
	}
	return core.NewPage(vols, total, page), nil
}

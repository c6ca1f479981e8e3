package catalog

import (
	"context"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/opportunity"
	"github.com/trezcool/bolingo/core/volunteer"
)

var (
	// errors
	ErrNotFound           = core.NewNotFoundError("CATALOG_ENTRY_NOT_FOUND", "catalog entry not found")
	ErrNameExists         = core.NewConflictError("CATALOG_NAME_EXISTS", "an entry with this name already exists")
	ErrInUse              = core.NewConflictError("CATALOG_ENTRY_IN_USE", "entry is assigned to volunteers or opportunities")
	ErrAlreadyAssigned    = core.NewConflictError("ALREADY_ASSIGNED", "entry is already assigned")
	ErrAssignmentNotFound = core.NewNotFoundError("ASSIGNMENT_NOT_FOUND", "assignment not found")

	errProficiencyRequired   = errors.New("proficiency must be one of: beginner, intermediate, advanced, expert")
	errProficiencyNotAllowed = errors.New("proficiency is not supported")
)

type (
	// Repository stores the entries of one Kind and their assignments.
	Repository interface {
		// CreateEntry returns ErrNameExists if the name is taken.
		CreateEntry(ctx context.Context, e Entry, exec ...core.DBExecutor) (Entry, error)
		GetEntryByID(ctx context.Context, id string, exec ...core.DBExecutor) (Entry, error)
		// GetEntryByName matches name exactly (case-sensitive).
		GetEntryByName(ctx context.Context, name string, exec ...core.DBExecutor) (Entry, error)
		// UpdateEntry returns ErrNameExists if the new name is taken.
		UpdateEntry(ctx context.Context, e Entry, exec ...core.DBExecutor) (Entry, error)
		// DeleteEntry returns ErrInUse if the entry is still assigned.
		DeleteEntry(ctx context.Context, id string, exec ...core.DBExecutor) error
		// QueryEntries lists entries by name. search does a case-insensitive match on the name.
		QueryEntries(ctx context.Context, search string) ([]Entry, error)
		// CountAssignments counts the volunteers and opportunities the entry is assigned to.
		CountAssignments(ctx context.Context, id string, exec ...core.DBExecutor) (int, error)

		// AssignToVolunteer returns ErrAlreadyAssigned if the pair exists.
		AssignToVolunteer(ctx context.Context, volunteerID, entryID string, proficiency null.String, assignedAt time.Time) error
		// UnassignFromVolunteer returns ErrAssignmentNotFound if the pair does not exist.
		UnassignFromVolunteer(ctx context.Context, volunteerID, entryID string) error
		ListVolunteerEntries(ctx context.Context, volunteerID string) ([]VolunteerEntry, error)

		// AssignToOpportunity returns ErrAlreadyAssigned if the pair exists.
		AssignToOpportunity(ctx context.Context, opportunityID, entryID string) error
		// UnassignFromOpportunity returns ErrAssignmentNotFound if the pair does not exist.
		UnassignFromOpportunity(ctx context.Context, opportunityID, entryID string) error
		ListOpportunityEntries(ctx context.Context, opportunityID string) ([]Entry, error)
	}

	Service struct {
		kind    Kind
		tx      core.Transactor
		repo    Repository
		volRepo volunteer.Repository
		oppRepo opportunity.Repository
	}
)

func NewService(
	kind Kind,
	tx core.Transactor,
	repo Repository,
	volRepo volunteer.Repository,
	oppRepo opportunity.Repository,
) *Service {
	return &Service{kind: kind, tx: tx, repo: repo, volRepo: volRepo, oppRepo: oppRepo}
}

func (svc *Service) Kind() Kind { return svc.kind }

// checkName returns ErrNameExists if an entry other than excludedID is named name.
func (svc *Service) checkName(ctx context.Context, name, excludedID string, exec core.DBExecutor) error {
	e, err := svc.repo.GetEntryByName(ctx, name, exec)
	switch {
	case err == nil && e.ID != excludedID:
		return ErrNameExists
	case err == nil, errors.Cause(err) == ErrNotFound:
		return nil
	default:
		return errors.Wrap(err, "finding entry by name")
	}
}

// Create adds an entry to the catalog. ne must have been validated.
func (svc *Service) Create(ctx context.Context, ne NewEntry) (Entry, error) {
	var created Entry
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		if err := svc.checkName(ctx, ne.Name, "", exec); err != nil {
			return err
		}
		now := time.Now().UTC()
		var err error
		created, err = svc.repo.CreateEntry(ctx, Entry{
			ID:          uuid.NewString(),
			Name:        ne.Name,
			Description: null.NewString(ne.Description, ne.Description != ""),
			CreatedAt:   now,
			UpdatedAt:   now,
		}, exec)
		return err
	})
	return created, err
}

func (svc *Service) GetByID(ctx context.Context, id string) (Entry, error) {
	return svc.repo.GetEntryByID(ctx, id)
}

func (svc *Service) List(ctx context.Context, search string) ([]Entry, error) {
	entries, err := svc.repo.QueryEntries(ctx, core.CleanString(search))
	if err != nil {
		return nil, errors.Wrap(err, "querying entries")
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Update renames or re-describes the entry id. ue must have been validated.
func (svc *Service) Update(ctx context.Context, id string, ue UpdateEntry) (Entry, error) {
	var updated Entry
	err := svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		e, err := svc.repo.GetEntryByID(ctx, id, exec)
		if err != nil {
			return err
		}
		if ue.Name != nil && *ue.Name != e.Name {
			if err = svc.checkName(ctx, *ue.Name, e.ID, exec); err != nil {
				return err
			}
			e.Name = *ue.Name
		}
		if ue.Description != nil {
			e.Description = null.NewString(*ue.Description, *ue.Description != "")
		}
		e.UpdatedAt = time.Now().UTC()
		updated, err = svc.repo.UpdateEntry(ctx, e, exec)
		return err
	})
	return updated, err
}

// Delete removes an entry that nothing is assigned to.
func (svc *Service) Delete(ctx context.Context, id string) error {
	return svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		if _, err := svc.repo.GetEntryByID(ctx, id, exec); err != nil {
			return err
		}
		count, err := svc.repo.CountAssignments(ctx, id, exec)
		if err != nil {
			return errors.Wrap(err, "counting assignments")
		}
		if count > 0 {
			return ErrInUse
		}
		return svc.repo.DeleteEntry(ctx, id, exec)
	})
}

func (svc *Service) checkProficiency(proficiency string) (null.String, error) {
	invalid := func(err error) error {
		return core.NewValidationError(err, core.FieldError{Field: "proficiency", Error: err.Error()})
	}
	if !svc.kind.HasProficiency() {
		if proficiency != "" {
			return null.String{}, invalid(errProficiencyNotAllowed)
		}
		return null.String{}, nil
	}
	if !IsValidProficiency(proficiency) {
		return null.String{}, invalid(errProficiencyRequired)
	}
	return null.StringFrom(proficiency), nil
}

// AssignToVolunteer adds entryID to the volunteer's profile. Skills need a proficiency level, interests take none.
func (svc *Service) AssignToVolunteer(ctx context.Context, volunteerID, entryID, proficiency string) error {
	prof, err := svc.checkProficiency(core.CleanString(proficiency, true))
	if err != nil {
		return err
	}
	if _, err = svc.volRepo.GetVolunteerByID(ctx, volunteerID); err != nil {
		return err
	}
	if _, err = svc.repo.GetEntryByID(ctx, entryID); err != nil {
		return err
	}
	return svc.repo.AssignToVolunteer(ctx, volunteerID, entryID, prof, time.Now().UTC())
}

func (svc *Service) UnassignFromVolunteer(ctx context.Context, volunteerID, entryID string) error {
	return svc.repo.UnassignFromVolunteer(ctx, volunteerID, entryID)
}

func (svc *Service) ListForVolunteer(ctx context.Context, volunteerID string) ([]VolunteerEntry, error) {
	entries, err := svc.repo.ListVolunteerEntries(ctx, volunteerID)
	if err != nil {
		return nil, errors.Wrap(err, "listing volunteer entries")
	}
	if entries == nil {
		entries = []VolunteerEntry{}
	}
	return entries, nil
}

// AssignToOpportunity adds entryID to the requirements of the Opportunity.
func (svc *Service) AssignToOpportunity(ctx context.Context, opportunityID, entryID string) error {
	if _, err := svc.oppRepo.GetOpportunityByID(ctx, opportunityID); err != nil {
		return err
	}
	if _, err := svc.repo.GetEntryByID(ctx, entryID); err != nil {
		return err
	}
	return svc.repo.AssignToOpportunity(ctx, opportunityID, entryID)
}

func (svc *Service) UnassignFromOpportunity(ctx context.Context, opportunityID, entryID string) error {
	return svc.repo.UnassignFromOpportunity(ctx, opportunityID, entryID)
}

func (svc *Service) ListForOpportunity(ctx context.Context, opportunityID string) ([]Entry, error) {
	if _, err := svc.oppRepo.GetOpportunityByID(ctx, opportunityID); err != nil {
		return nil, err
	}
	entries, err := svc.repo.ListOpportunityEntries(ctx, opportunityID)
	if err != nil {
		return nil, errors.Wrap(err, "listing opportunity entries")
	}
	if entries == nil {
		entries = []Entry{}
	}
	return entries, nil
}

// Seed creates the entries of nes whose name is not taken yet, and returns how many were created.
func (svc *Service) Seed(ctx context.Context, validate *validator.Validate, nes []NewEntry) (int, error) {
	created := 0
	for i := range nes {
		if err := nes[i].Validate(validate); err != nil {
			return created, errors.Wrapf(err, "validating entry #%d", i)
		}
		if _, err := svc.Create(ctx, nes[i]); err != nil {
			if errors.Cause(err) == ErrNameExists {
				continue
			}
			return created, errors.Wrapf(err, "creating %s %q", svc.kind, nes[i].Name)
		}
		created++
	}
	return created, nil
}

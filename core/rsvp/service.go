package rsvp

import (
	"bytes"
	"context"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/opportunity"
	"github.com/trezcool/bolingo/core/volunteer"
)

var (
	nowFunc = time.Now // mockable

	// errors
	ErrNotFound           = core.NewNotFoundError("RSVP_NOT_FOUND", "rsvp not found")
	ErrAlreadyRSVPd       = core.NewConflictError("ALREADY_RSVPD", "already rsvp'd to this opportunity")
	ErrOpportunityFull    = core.NewConflictError("OPPORTUNITY_FULL", "opportunity is full")
	ErrOpportunityNotOpen = core.NewCodedValidationError("OPPORTUNITY_NOT_OPEN", "opportunity is not open")
	ErrOpportunityInPast  = core.NewCodedValidationError("OPPORTUNITY_IN_PAST", "opportunity has already started")
)

type (
	Repository interface {
		// GetRsvp returns the Rsvp of volunteerID to opportunityID.
		GetRsvp(ctx context.Context, volunteerID, opportunityID string, exec ...core.DBExecutor) (Rsvp, error)
		GetRsvpByID(ctx context.Context, id string) (Rsvp, error)
		// CountActiveRsvps counts the pending and confirmed RSVPs of opportunityID.
		CountActiveRsvps(ctx context.Context, opportunityID string, exec ...core.DBExecutor) (int, error)
		// CreateRsvp returns ErrAlreadyRSVPd if the pair is already enrolled.
		CreateRsvp(ctx context.Context, r Rsvp, exec ...core.DBExecutor) (Rsvp, error)
		// DeleteRsvp returns ErrNotFound if the pair is not enrolled.
		DeleteRsvp(ctx context.Context, volunteerID, opportunityID string) error
		UpdateRsvpStatus(ctx context.Context, id, status string, updatedAt time.Time) (Rsvp, error)
		ListVolunteerRsvps(ctx context.Context, volunteerID string) ([]VolunteerRsvp, error)
	}

	Service struct {
		tx      core.Transactor
		repo    Repository
		oppRepo opportunity.Repository
		volRepo volunteer.Repository
		mailSvc core.EmailService
	}
)

func NewService(
	tx core.Transactor,
	repo Repository,
	oppRepo opportunity.Repository,
	volRepo volunteer.Repository,
	mailSvc core.EmailService,
) *Service {
	return &Service{tx: tx, repo: repo, oppRepo: oppRepo, volRepo: volRepo, mailSvc: mailSvc}
}

// Create enrolls the volunteer owning userID in opportunityID, as pending.
// The Opportunity stays locked from the capacity check to the insert, so concurrent calls can't oversell it.
func (svc *Service) Create(ctx context.Context, userID, opportunityID string) (Rsvp, error) {
	vol, err := svc.volRepo.GetVolunteerByUserID(ctx, userID)
	if err != nil {
		return Rsvp{}, err
	}

	var r Rsvp
	err = svc.tx.InTx(ctx, func(exec core.DBExecutor) error {
		opp, err := svc.oppRepo.GetOpportunityForUpdate(ctx, opportunityID, exec)
		if err != nil {
			return err
		}
		now := nowFunc().UTC()
		if err = checkOpen(opp, now); err != nil {
			return err
		}

		if _, err = svc.repo.GetRsvp(ctx, vol.ID, opp.ID, exec); err == nil {
			return ErrAlreadyRSVPd
		} else if errors.Cause(err) != ErrNotFound {
			return errors.Wrap(err, "finding rsvp")
		}

		if opp.MaxVolunteers.Valid {
			count, err := svc.repo.CountActiveRsvps(ctx, opp.ID, exec)
			if err != nil {
				return errors.Wrap(err, "counting rsvps")
			}
			if opportunity.IsFull(opp.MaxVolunteers, count) {
				return ErrOpportunityFull
			}
		}

		r, err = svc.repo.CreateRsvp(ctx, Rsvp{
			ID:            uuid.NewString(),
			VolunteerID:   vol.ID,
			OpportunityID: opp.ID,
			Status:        StatusPending,
			CreatedAt:     now,
			UpdatedAt:     now,
		}, exec)
		if err != nil && errors.Cause(err) != ErrAlreadyRSVPd {
			return errors.Wrap(err, "inserting rsvp")
		}
		return err
	})
	if err != nil {
		return Rsvp{}, err
	}
	return r, nil
}

func checkOpen(opp opportunity.Opportunity, now time.Time) error {
	if opp.Status != opportunity.StatusOpen {
		return ErrOpportunityNotOpen
	}
	if !opp.StartDate.After(now) {
		return ErrOpportunityInPast
	}
	return nil
}

// Cancel withdraws the volunteer owning userID from opportunityID.
func (svc *Service) Cancel(ctx context.Context, userID, opportunityID string) error {
	vol, err := svc.volRepo.GetVolunteerByUserID(ctx, userID)
	if err != nil {
		return err
	}
	return svc.repo.DeleteRsvp(ctx, vol.ID, opportunityID)
}

// ListForVolunteer lists the RSVPs of the volunteer owning userID, soonest first.
func (svc *Service) ListForVolunteer(ctx context.Context, userID string) ([]VolunteerRsvp, error) {
	vol, err := svc.volRepo.GetVolunteerByUserID(ctx, userID)
	if err != nil {
		return nil, err
	}
	rsvps, err := svc.repo.ListVolunteerRsvps(ctx, vol.ID)
	if err != nil {
		return nil, errors.Wrap(err, "listing volunteer rsvps")
	}
	if rsvps == nil {
		rsvps = []VolunteerRsvp{}
	}
	return rsvps, nil
}

// UpdateStatus records the staff decision on an Rsvp and lets the volunteer know about it.
// Setting the current status again changes nothing and sends no mail.
func (svc *Service) UpdateStatus(ctx context.Context, id, status string) (Rsvp, error) {
	if !IsDecisionStatus(status) {
		return Rsvp{}, core.NewValidationError(
			errors.Errorf("invalid status: %q", status),
			core.FieldError{Field: "status", Error: "status must be one of " + strings.Join(DecisionStatuses, ", ")},
		)
	}
	r, err := svc.repo.GetRsvpByID(ctx, id)
	if err != nil {
		return Rsvp{}, err
	}
	if r.Status == status {
		return r, nil
	}
	if r, err = svc.repo.UpdateRsvpStatus(ctx, id, status, nowFunc().UTC()); err != nil {
		return Rsvp{}, err
	}

	vol, err := svc.volRepo.GetVolunteerByID(ctx, r.VolunteerID)
	if err != nil {
		return r, nil // the status is saved; only the notification is lost
	}
	opp, err := svc.oppRepo.GetOpportunityByID(ctx, r.OpportunityID)
	if err != nil {
		return r, nil
	}
	svc.sendStatusMail(r, vol, opp)
	return r, nil
}

// sendStatusMail tells the volunteer about the decision. Confirmations carry the event as an iCalendar file.
func (svc *Service) sendStatusMail(r Rsvp, vol volunteer.Volunteer, opp opportunity.Opportunity) {
	msg := &core.EmailMessage{
		To:           []mail.Address{{Name: vol.Name, Address: vol.Email}},
		Subject:      fmt.Sprintf("Your RSVP to %s", opp.Title),
		TemplateName: "rsvp_status",
		TemplateData: map[string]string{
			"Name":      vol.Name,
			"Title":     opp.Title,
			"StartDate": opp.StartDate.Format("Mon, 02 Jan 2006 15:04 MST"),
			"Status":    r.Status,
		},
	}
	if r.Status == StatusConfirmed {
		ics := opportunity.ICalendar(opp, r.ID, nowFunc())
		_ = msg.Attach(bytes.NewReader(ics), "invite.ics", "text/calendar; charset=utf-8; method=PUBLISH")
	}
	svc.mailSvc.SendMessages(msg)
}

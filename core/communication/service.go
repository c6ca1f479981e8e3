package communication

import (
	"context"
	"fmt"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/onboarding"
	"github.com/trezcool/bolingo/core/opportunity"
)

// renderConcurrency bounds the messages rendered at once.
const renderConcurrency = 8

var ErrNoRecipients = core.NewCodedValidationError("NO_RECIPIENTS", "the audience has no recipients")

type (
	Repository interface {
		// ListActiveVolunteerRecipients lists the volunteers whose user is active.
		ListActiveVolunteerRecipients(ctx context.Context) ([]Recipient, error)
		// ListVolunteerRecipients lists the active volunteers among ids.
		ListVolunteerRecipients(ctx context.Context, ids []string) ([]Recipient, error)
		// ListOpportunityRecipients lists the active volunteers enrolled in opportunityID.
		// statuses filters on the RSVP status when not empty.
		ListOpportunityRecipients(ctx context.Context, opportunityID string, statuses []string) ([]Recipient, error)
		CreateCommunication(ctx context.Context, c Communication) (Communication, error)
		// ListCommunications returns one page of sent messages, newest first, and the total count.
		ListCommunications(ctx context.Context, page core.Pagination) ([]Communication, int, error)
	}

	Service struct {
		repo    Repository
		oppRepo opportunity.Repository
		onbSvc  *onboarding.Service
		mailSvc core.EmailService
		logger  core.Logger
	}

	messageData struct {
		Name       string
		Body       string
		Paragraphs []string
	}
)

func NewService(
	repo Repository,
	oppRepo opportunity.Repository,
	onbSvc *onboarding.Service,
	mailSvc core.EmailService,
	logger core.Logger,
) *Service {
	return &Service{repo: repo, oppRepo: oppRepo, onbSvc: onbSvc, mailSvc: mailSvc, logger: logger}
}

func (svc *Service) recipients(ctx context.Context, bm BulkMessage) ([]Recipient, null.String, error) {
	switch bm.Audience {
	case AudienceAll:
		rcpts, err := svc.repo.ListActiveVolunteerRecipients(ctx)
		return rcpts, null.String{}, errors.Wrap(err, "listing volunteers")

	case AudienceVolunteers:
		rcpts, err := svc.repo.ListVolunteerRecipients(ctx, bm.VolunteerIDs)
		return rcpts, null.StringFrom(strings.Join(bm.VolunteerIDs, ",")), errors.Wrap(err, "listing volunteers")

	case AudienceOpportunity:
		if _, err := svc.oppRepo.GetOpportunityByID(ctx, bm.OpportunityID); err != nil {
			return nil, null.String{}, err
		}
		rcpts, err := svc.repo.ListOpportunityRecipients(ctx, bm.OpportunityID, bm.RsvpStatuses)
		return rcpts, null.StringFrom(bm.OpportunityID), errors.Wrap(err, "listing opportunity volunteers")

	case AudienceIncompleteOnboarding:
		statuses, err := svc.onbSvc.ListIncomplete(ctx)
		if err != nil {
			return nil, null.String{}, err
		}
		if len(statuses) == 0 {
			return nil, null.String{}, nil
		}
		ids := make([]string, 0, len(statuses))
		for _, st := range statuses {
			ids = append(ids, st.VolunteerID)
		}
		rcpts, err := svc.repo.ListVolunteerRecipients(ctx, ids) // drops inactive users
		return rcpts, null.String{}, errors.Wrap(err, "listing volunteers")
	}
	return nil, null.String{}, core.NewValidationError(
		errors.Errorf("unknown audience: %q", bm.Audience),
		core.FieldError{Field: "audience", Error: "unknown audience"},
	)
}

// Send records bm and mails it to its audience. bm must have been validated.
// A message that fails to render or send is logged and skipped.
func (svc *Service) Send(ctx context.Context, senderID string, bm BulkMessage) (Communication, error) {
	rcpts, target, err := svc.recipients(ctx, bm)
	if err != nil {
		return Communication{}, err
	}
	if len(rcpts) == 0 {
		return Communication{}, ErrNoRecipients
	}

	msgs, err := svc.renderMessages(ctx, bm, rcpts)
	if err != nil {
		return Communication{}, errors.Wrap(err, "rendering messages")
	}

	comm, err := svc.repo.CreateCommunication(ctx, Communication{
		ID:             uuid.NewString(),
		SenderID:       null.NewString(senderID, senderID != ""),
		Subject:        bm.Subject,
		Body:           bm.Body,
		Audience:       bm.Audience,
		Target:         target,
		RecipientCount: len(msgs),
		CreatedAt:      time.Now().UTC(),
	})
	if err != nil {
		return Communication{}, errors.Wrap(err, "inserting communication")
	}

	svc.mailSvc.SendMessages(msgs...)
	return comm, nil
}

// renderMessages renders one message per recipient. It only fails when ctx is done.
func (svc *Service) renderMessages(ctx context.Context, bm BulkMessage, rcpts []Recipient) ([]*core.EmailMessage, error) {
	var paragraphs []string
	for _, p := range strings.Split(bm.Body, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			paragraphs = append(paragraphs, p)
		}
	}

	var (
		mu   sync.Mutex
		msgs = make([]*core.EmailMessage, 0, len(rcpts))
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(renderConcurrency)
	for _, rcpt := range rcpts {
		rcpt := rcpt
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			msg := &core.EmailMessage{
				To:           []mail.Address{{Name: rcpt.Name, Address: rcpt.Email}},
				Subject:      bm.Subject,
				TemplateName: "bulk_message",
				TemplateData: messageData{Name: rcpt.Name, Body: bm.Body, Paragraphs: paragraphs},
			}
			if err := msg.Render(); err != nil {
				svc.logger.Error(fmt.Sprintf("communication.Service.Send: rendering message to %s: %v", rcpt.Email, err), err)
				return nil
			}
			mu.Lock()
			msgs = append(msgs, msg)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return msgs, nil
}

// List returns the sent messages, newest first.
func (svc *Service) List(ctx context.Context, page core.Pagination) (core.Page[Communication], error) {
	page.Clean()
	comms, total, err := svc.repo.ListCommunications(ctx, page)
	if err != nil {
		return core.Page[Communication]{}, errors.Wrap(err, "listing communications")
	}
	return core.NewPage(comms, total, page), nil
}

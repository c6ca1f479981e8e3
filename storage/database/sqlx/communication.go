package sqlxrepos

import (
	"context"

	sq "github.com/Masterminds/squirrel"
	"github.com/pkg/errors"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/communication"
)

var communicationColumns = []string{
	"id", "sender_id", "subject", "body", "audience", "target", "recipient_count", "created_at",
}

type communicationRepository struct {
	baseRepository
}

var _ communication.Repository = (*communicationRepository)(nil) // interface compliance check

func NewCommunicationRepository(exec core.DBExecutor) *communicationRepository {
	return &communicationRepository{baseRepository{exec: exec}}
}

func (repo communicationRepository) selectRecipients() sq.SelectBuilder {
	return psql.Select("v.id AS volunteer_id", "u.name", "u.email").
		From("volunteers v").
		Join("users u ON u.id = v.user_id").
		Where(sq.Eq{"u.is_active": true})
}

func (repo communicationRepository) listRecipients(ctx context.Context, q sq.SelectBuilder) ([]communication.Recipient, error) {
	rcpts := make([]communication.Recipient, 0)
	if err := repo.selekt(ctx, repo.exec, &rcpts, q.OrderBy("u.name ASC")); err != nil {
		return nil, errors.Wrap(err, "listing recipients")
	}
	return rcpts, nil
}

func (repo communicationRepository) ListActiveVolunteerRecipients(ctx context.Context) ([]communication.Recipient, error) {
	return repo.listRecipients(ctx, repo.selectRecipients())
}

func (repo communicationRepository) ListVolunteerRecipients(ctx context.Context, ids []string) ([]communication.Recipient, error) {
	ids = validIDs(ids)
	if len(ids) == 0 {
		return []communication.Recipient{}, nil
	}
	return repo.listRecipients(ctx, repo.selectRecipients().Where(sq.Eq{"v.id": ids}))
}

func (repo communicationRepository) ListOpportunityRecipients(
	ctx context.Context,
	opportunityID string,
	statuses []string,
) ([]communication.Recipient, error) {
	if !isID(opportunityID) {
		return []communication.Recipient{}, nil
	}
	q := repo.selectRecipients().
		Join("rsvps r ON r.volunteer_id = v.id").
		Where(sq.Eq{"r.opportunity_id": opportunityID})
	if len(statuses) > 0 {
		q = q.Where(sq.Eq{"r.status": statuses})
	}
	return repo.listRecipients(ctx, q)
}

func (repo communicationRepository) CreateCommunication(ctx context.Context, c communication.Communication) (communication.Communication, error) {
	q := psql.Insert("communications").Columns(communicationColumns...).
		Values(c.ID, c.SenderID, c.Subject, c.Body, c.Audience, c.Target, c.RecipientCount, c.CreatedAt)
	if _, err := repo.execute(ctx, repo.exec, q); err != nil {
		return communication.Communication{}, errors.Wrap(err, "inserting communication")
	}
	return c, nil
}

func (repo communicationRepository) ListCommunications(ctx context.Context, page core.Pagination) ([]communication.Communication, int, error) {
	comms := make([]communication.Communication, 0)
	q := psql.Select(communicationColumns...).From("communications").
		OrderBy("created_at DESC").
		Limit(uint64(page.Limit)).
		Offset(uint64(page.Offset()))
	if err := repo.selekt(ctx, repo.exec, &comms, q); err != nil {
		return nil, 0, errors.Wrap(err, "listing communications")
	}
	total, err := repo.count(ctx, repo.exec, psql.Select("COUNT(*)").From("communications"))
	if err != nil {
		return nil, 0, errors.Wrap(err, "counting communications")
	}
	return comms, total, nil
}

// Package testutil holds the fixtures shared by the package tests.
package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/trezcool/bolingo/apps/di"
	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/catalog"
	"github.com/trezcool/bolingo/core/opportunity"
	"github.com/trezcool/bolingo/core/user"
	"github.com/trezcool/bolingo/core/volunteer"
	emailsvc "github.com/trezcool/bolingo/services/email"
)

// Password satisfies the password policy.
const Password = "Gh7#Kp2!Wq9&"

// NewContainer returns the in-memory dependency graph, with mails kept in emailsvc.SentMessages.
func NewContainer(t *testing.T) *di.Container {
	t.Helper()

	conf := core.NewTestConfig()
	logger, err := di.NewLogger(conf)
	require.NoError(t, err)
	c, err := di.New(conf, logger)
	require.NoError(t, err)

	emailsvc.ResetSentMessages()
	t.Cleanup(func() {
		_ = c.Close()
		emailsvc.ResetSentMessages()
	})
	return c
}

func CreateUser(t *testing.T, c *di.Container, name, email, role string, isActive bool) user.User {
	t.Helper()

	ctx := context.Background()
	usr, err := c.UserSvc.Create(ctx, user.NewUser{
		Name:            name,
		Email:           email,
		Role:            role,
		Password:        Password,
		PasswordConfirm: Password,
	})
	require.NoError(t, err, "CreateUser()")

	if !isActive {
		usr, err = c.UserSvc.Update(ctx, usr, user.UpdateUser{
			Name:     usr.Name,
			Email:    usr.Email,
			Role:     usr.Role,
			IsActive: core.BoolPtr(false),
		})
		require.NoError(t, err, "CreateUser(): deactivating")
	}
	return usr
}

// CreateVolunteer registers a volunteer account.
func CreateVolunteer(t *testing.T, c *di.Container, name, email string) (user.User, volunteer.Volunteer) {
	t.Helper()

	ctx := context.Background()
	vol, err := c.VolunteerSvc.Register(ctx, user.NewUser{
		Name:            name,
		Email:           email,
		Password:        Password,
		PasswordConfirm: Password,
	})
	require.NoError(t, err, "CreateVolunteer()")
	usr, err := c.UserSvc.GetByID(ctx, vol.UserID)
	require.NoError(t, err, "CreateVolunteer(): finding user")
	return usr, vol
}

// CompleteProfile fills in every onboarding item of vol.
func CompleteProfile(t *testing.T, c *di.Container, vol volunteer.Volunteer) volunteer.Volunteer {
	t.Helper()

	ctx := context.Background()
	vol, err := c.VolunteerSvc.UpdateProfile(ctx, vol.UserID, volunteer.UpdateProfile{
		Phone:        core.StringPtr("+243 810 000 000"),
		Bio:          core.StringPtr("Happy to help on weekends."),
		Availability: &volunteer.Availability{"saturday": {"morning", "afternoon"}},
		MediaRelease: core.BoolPtr(true),
	})
	require.NoError(t, err, "CompleteProfile()")

	skill := CreateCatalogEntry(t, c.SkillSvc, "Skill of "+vol.Name)
	require.NoError(t, c.SkillSvc.AssignToVolunteer(ctx, vol.ID, skill.ID, catalog.ProficiencyAdvanced))
	interest := CreateCatalogEntry(t, c.InterestSvc, "Interest of "+vol.Name)
	require.NoError(t, c.InterestSvc.AssignToVolunteer(ctx, vol.ID, interest.ID, ""))
	return vol
}

func CreateCatalogEntry(t *testing.T, svc *catalog.Service, name string) catalog.Entry {
	t.Helper()

	e, err := svc.Create(context.Background(), catalog.NewEntry{Name: name})
	require.NoError(t, err, "CreateCatalogEntry()")
	return e
}

// CreateOpportunity creates an open Opportunity starting at start and lasting 3 hours.
// A nil capacity means unlimited.
func CreateOpportunity(t *testing.T, c *di.Container, creatorID, title string, start time.Time, capacity *int) opportunity.Opportunity {
	t.Helper()

	opp, err := c.OpportunitySvc.Create(context.Background(), creatorID, opportunity.NewOpportunity{
		Title:         title,
		Location:      "Community Hall",
		StartDate:     start,
		EndDate:       start.Add(3 * time.Hour),
		MaxVolunteers: capacity,
	})
	require.NoError(t, err, "CreateOpportunity()")
	return opp
}

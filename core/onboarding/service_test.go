package onboarding_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/catalog"
	"github.com/trezcool/bolingo/core/onboarding"
	"github.com/trezcool/bolingo/core/volunteer"
	"github.com/trezcool/bolingo/tests"
)

func TestService_GetStatus(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()
	svc := c.OnboardingSvc

	_, vol := testutil.CreateVolunteer(t, c, "Vee Volunteer", "vee@test.cd")

	t.Run("not found", func(t *testing.T) {
		_, err := svc.GetStatus(ctx, "nope")
		assert.Equal(t, volunteer.ErrNotFound, errors.Cause(err))
		_, err = svc.GetStatusForUser(ctx, "nope")
		assert.Equal(t, volunteer.ErrNotFound, errors.Cause(err))
	})

	t.Run("empty profile", func(t *testing.T) {
		st, err := svc.GetStatus(ctx, vol.ID)
		require.NoError(t, err)
		assert.Equal(t, onboarding.Checklist{}, st.Checklist)
		assert.Equal(t, 0, st.CompletionPercentage)
		assert.False(t, st.OnboardingComplete)
		assert.Equal(t, "Vee Volunteer", st.Name)
	})

	t.Run("first skill adds 20", func(t *testing.T) {
		before, err := svc.GetStatus(ctx, vol.ID)
		require.NoError(t, err)

		skill := testutil.CreateCatalogEntry(t, c.SkillSvc, "Carpentry")
		require.NoError(t, c.SkillSvc.AssignToVolunteer(ctx, vol.ID, skill.ID, catalog.ProficiencyBeginner))

		after, err := svc.GetStatus(ctx, vol.ID)
		require.NoError(t, err)
		assert.False(t, before.Checklist.SkillsAdded)
		assert.True(t, after.Checklist.SkillsAdded)
		assert.Equal(t, before.CompletionPercentage+20, after.CompletionPercentage)

		// a second skill changes nothing
		other := testutil.CreateCatalogEntry(t, c.SkillSvc, "Plumbing")
		require.NoError(t, c.SkillSvc.AssignToVolunteer(ctx, vol.ID, other.ID, catalog.ProficiencyExpert))
		again, err := svc.GetStatus(ctx, vol.ID)
		require.NoError(t, err)
		assert.Equal(t, after.CompletionPercentage, again.CompletionPercentage)
	})

	t.Run("filled profile", func(t *testing.T) {
		_, err := c.VolunteerSvc.UpdateProfile(ctx, vol.UserID, volunteer.UpdateProfile{
			Phone:        core.StringPtr("555-1234"),
			Bio:          core.StringPtr("hi"),
			Availability: &volunteer.Availability{volunteer.Monday: {volunteer.Morning}},
			MediaRelease: core.BoolPtr(true),
		})
		require.NoError(t, err)
		interest := testutil.CreateCatalogEntry(t, c.InterestSvc, "Youth")
		require.NoError(t, c.InterestSvc.AssignToVolunteer(ctx, vol.ID, interest.ID, ""))

		st, err := svc.GetStatusForUser(ctx, vol.UserID)
		require.NoError(t, err)
		assert.Equal(t, 100, st.CompletionPercentage)
		assert.True(t, st.OnboardingComplete)
	})

	t.Run("idempotent", func(t *testing.T) {
		first, err := svc.GetStatus(ctx, vol.ID)
		require.NoError(t, err)
		second, err := svc.GetStatus(ctx, vol.ID)
		require.NoError(t, err)
		assert.Equal(t, first, second)
	})
}

func TestService_List(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()
	svc := c.OnboardingSvc

	_, alice := testutil.CreateVolunteer(t, c, "Alice Doe", "alice@test.cd")
	_, bob := testutil.CreateVolunteer(t, c, "Bob Smith", "bob@test.cd")
	_, carol := testutil.CreateVolunteer(t, c, "Carol Doe", "carol@test.cd")
	testutil.CompleteProfile(t, c, bob)

	t.Run("first page", func(t *testing.T) {
		page, err := svc.List(ctx, core.Pagination{Page: 1, Limit: 2}, "")
		require.NoError(t, err)
		assert.Equal(t, 3, page.Total)
		require.Len(t, page.Items, 2)
		assert.Equal(t, alice.ID, page.Items[0].VolunteerID)
		assert.Equal(t, bob.ID, page.Items[1].VolunteerID)
		assert.True(t, page.Items[1].OnboardingComplete)
	})

	t.Run("search", func(t *testing.T) {
		page, err := svc.List(ctx, core.Pagination{}, "  DOE ")
		require.NoError(t, err)
		assert.Equal(t, 2, page.Total)
		require.Len(t, page.Items, 2)
		assert.Equal(t, carol.ID, page.Items[1].VolunteerID)
	})

	t.Run("incomplete", func(t *testing.T) {
		statuses, err := svc.ListIncomplete(ctx)
		require.NoError(t, err)
		require.Len(t, statuses, 2)
		assert.Equal(t, alice.ID, statuses[0].VolunteerID)
		assert.Equal(t, carol.ID, statuses[1].VolunteerID)
	})
}

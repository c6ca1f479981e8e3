package catalog_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/catalog"
	"github.com/trezcool/bolingo/core/opportunity"
	"github.com/trezcool/bolingo/core/user"
	"github.com/trezcool/bolingo/core/volunteer"
	"github.com/trezcool/bolingo/tests"
)

func TestService_Delete(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()
	svc := c.SkillSvc

	_, vol := testutil.CreateVolunteer(t, c, "Vee Volunteer", "vee@test.cd")
	staff := testutil.CreateUser(t, c, "Staff Member", "staff@test.cd", user.RoleStaff, true)
	opp := testutil.CreateOpportunity(t, c, staff.ID, "Build a shed", time.Now().Add(24*time.Hour), nil)

	t.Run("assigned to a volunteer", func(t *testing.T) {
		skill := testutil.CreateCatalogEntry(t, svc, "First Aid")
		require.NoError(t, svc.AssignToVolunteer(ctx, vol.ID, skill.ID, catalog.ProficiencyIntermediate))

		err := svc.Delete(ctx, skill.ID)
		assert.Equal(t, catalog.ErrInUse, errors.Cause(err))
		assert.True(t, core.IsConflict(err))

		_, err = svc.GetByID(ctx, skill.ID)
		assert.NoError(t, err, "the skill must remain")

		require.NoError(t, svc.UnassignFromVolunteer(ctx, vol.ID, skill.ID))
		assert.NoError(t, svc.Delete(ctx, skill.ID))
		_, err = svc.GetByID(ctx, skill.ID)
		assert.Equal(t, catalog.ErrNotFound, errors.Cause(err))
	})

	t.Run("required by an opportunity", func(t *testing.T) {
		skill := testutil.CreateCatalogEntry(t, svc, "Carpentry")
		require.NoError(t, svc.AssignToOpportunity(ctx, opp.ID, skill.ID))

		err := svc.Delete(ctx, skill.ID)
		assert.Equal(t, catalog.ErrInUse, errors.Cause(err))

		require.NoError(t, svc.UnassignFromOpportunity(ctx, opp.ID, skill.ID))
		assert.NoError(t, svc.Delete(ctx, skill.ID))
	})

	t.Run("not found", func(t *testing.T) {
		err := svc.Delete(ctx, "nope")
		assert.Equal(t, catalog.ErrNotFound, errors.Cause(err))
	})
}

func TestService_names(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()
	svc := c.InterestSvc

	env := testutil.CreateCatalogEntry(t, svc, "Environment")

	_, err := svc.Create(ctx, catalog.NewEntry{Name: "Environment"})
	assert.Equal(t, catalog.ErrNameExists, errors.Cause(err))

	lower, err := svc.Create(ctx, catalog.NewEntry{Name: "environment"})
	require.NoError(t, err, "names are case-sensitive")

	_, err = svc.Update(ctx, lower.ID, catalog.UpdateEntry{Name: core.StringPtr("Environment")})
	assert.Equal(t, catalog.ErrNameExists, errors.Cause(err))

	renamed, err := svc.Update(ctx, env.ID, catalog.UpdateEntry{Name: core.StringPtr("Environment"), Description: core.StringPtr("Parks & rivers")})
	require.NoError(t, err, "keeping its own name")
	assert.Equal(t, "Parks & rivers", renamed.Description.String)

	// skills and interests are separate catalogs
	_, err = c.SkillSvc.Create(ctx, catalog.NewEntry{Name: "Environment"})
	assert.NoError(t, err)

	entries, err := svc.List(ctx, "ENVIRON")
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	entries, err = svc.List(ctx, "lol")
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func TestService_AssignToVolunteer(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()

	_, vol := testutil.CreateVolunteer(t, c, "Vee Volunteer", "vee@test.cd")
	skill := testutil.CreateCatalogEntry(t, c.SkillSvc, "Cooking")
	interest := testutil.CreateCatalogEntry(t, c.InterestSvc, "Seniors")

	tests := []struct {
		name        string
		svc         *catalog.Service
		volunteerID string
		entryID     string
		proficiency string
		wantErr     error
		wantInvalid bool
	}{
		{name: "skill without proficiency", svc: c.SkillSvc, volunteerID: vol.ID, entryID: skill.ID, wantInvalid: true},
		{name: "skill with unknown proficiency", svc: c.SkillSvc, volunteerID: vol.ID, entryID: skill.ID, proficiency: "guru", wantInvalid: true},
		{name: "interest with proficiency", svc: c.InterestSvc, volunteerID: vol.ID, entryID: interest.ID, proficiency: "expert", wantInvalid: true},
		{name: "unknown volunteer", svc: c.SkillSvc, volunteerID: "nope", entryID: skill.ID, proficiency: "expert", wantErr: volunteer.ErrNotFound},
		{name: "unknown entry", svc: c.SkillSvc, volunteerID: vol.ID, entryID: "nope", proficiency: "expert", wantErr: catalog.ErrNotFound},
		{name: "skill", svc: c.SkillSvc, volunteerID: vol.ID, entryID: skill.ID, proficiency: " Expert "},
		{name: "skill again", svc: c.SkillSvc, volunteerID: vol.ID, entryID: skill.ID, proficiency: "beginner", wantErr: catalog.ErrAlreadyAssigned},
		{name: "interest", svc: c.InterestSvc, volunteerID: vol.ID, entryID: interest.ID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.svc.AssignToVolunteer(ctx, tt.volunteerID, tt.entryID, tt.proficiency)
			switch {
			case tt.wantInvalid:
				assert.True(t, core.IsValidation(err), "AssignToVolunteer() error = %v", err)
			case tt.wantErr != nil:
				assert.Equal(t, tt.wantErr, errors.Cause(err))
			default:
				assert.NoError(t, err)
			}
		})
	}

	skills, err := c.SkillSvc.ListForVolunteer(ctx, vol.ID)
	require.NoError(t, err)
	require.Len(t, skills, 1)
	assert.Equal(t, catalog.ProficiencyExpert, skills[0].Proficiency.String)

	interests, err := c.InterestSvc.ListForVolunteer(ctx, vol.ID)
	require.NoError(t, err)
	require.Len(t, interests, 1)
	assert.False(t, interests[0].Proficiency.Valid)

	err = c.InterestSvc.UnassignFromVolunteer(ctx, vol.ID, skill.ID)
	assert.Equal(t, catalog.ErrAssignmentNotFound, errors.Cause(err))
}

func TestService_opportunityRequirements(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()
	svc := c.SkillSvc

	staff := testutil.CreateUser(t, c, "Staff Member", "staff@test.cd", user.RoleStaff, true)
	opp := testutil.CreateOpportunity(t, c, staff.ID, "Build a shed", time.Now().Add(24*time.Hour), nil)
	wood := testutil.CreateCatalogEntry(t, svc, "Woodwork")
	paint := testutil.CreateCatalogEntry(t, svc, "Painting")

	require.NoError(t, svc.AssignToOpportunity(ctx, opp.ID, wood.ID))
	require.NoError(t, svc.AssignToOpportunity(ctx, opp.ID, paint.ID))
	assert.Equal(t, catalog.ErrAlreadyAssigned, errors.Cause(svc.AssignToOpportunity(ctx, opp.ID, wood.ID)))
	assert.Equal(t, opportunity.ErrNotFound, errors.Cause(svc.AssignToOpportunity(ctx, "nope", wood.ID)))

	entries, err := svc.ListForOpportunity(ctx, opp.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Painting", entries[0].Name)
	assert.Equal(t, "Woodwork", entries[1].Name)

	_, err = svc.ListForOpportunity(ctx, "nope")
	assert.Equal(t, opportunity.ErrNotFound, errors.Cause(err))
}

func TestService_Seed(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()

	testutil.CreateCatalogEntry(t, c.SkillSvc, "Driving")
	n, err := c.SkillSvc.Seed(ctx, c.Validate, []catalog.NewEntry{
		{Name: "Driving"},
		{Name: " Translation ", Description: "French, Lingala"},
		{Name: "Accounting"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	n, err = c.SkillSvc.Seed(ctx, c.Validate, []catalog.NewEntry{{Name: "Photography"}, {Name: ""}})
	assert.Error(t, err)
	assert.Equal(t, 1, n)

	entries, err := c.SkillSvc.List(ctx, "")
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name)
	}
	assert.Equal(t, []string{"Accounting", "Driving", "Photography", "Translation"}, names)
}

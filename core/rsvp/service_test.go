package rsvp_test

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bolingo/apps/di"
	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/opportunity"
	"github.com/trezcool/bolingo/core/rsvp"
	"github.com/trezcool/bolingo/core/user"
	"github.com/trezcool/bolingo/core/volunteer"
	emailsvc "github.com/trezcool/bolingo/services/email"
	"github.com/trezcool/bolingo/tests"
)

func createVolunteers(t *testing.T, c *di.Container, n int) []user.User {
	usrs := make([]user.User, 0, n)
	for i := 0; i < n; i++ {
		usr, _ := testutil.CreateVolunteer(t, c, fmt.Sprintf("Volunteer %02d", i), fmt.Sprintf("vol%02d@test.cd", i))
		usrs = append(usrs, usr)
	}
	return usrs
}

func listing(t *testing.T, c *di.Container, oppID string) (opportunity.Listing, bool) {
	t.Helper()

	listings, err := c.OpportunitySvc.ListOpen(context.Background(), opportunity.OpenFilter{Limit: 100})
	require.NoError(t, err)
	for _, l := range listings {
		if l.ID == oppID {
			return l, true
		}
	}
	return opportunity.Listing{}, false
}

func TestService_Create(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()
	svc := c.RsvpSvc

	staff := testutil.CreateUser(t, c, "Staff Member", "staff@test.cd", user.RoleStaff, true)
	vols := createVolunteers(t, c, 3)
	future := time.Now().Add(48 * time.Hour)

	t.Run("capacity 2", func(t *testing.T) {
		opp := testutil.CreateOpportunity(t, c, staff.ID, "Food drive", future, core.IntPtr(2))

		for _, v := range vols[:2] {
			r, err := svc.Create(ctx, v.ID, opp.ID)
			require.NoError(t, err)
			assert.Equal(t, rsvp.StatusPending, r.Status)
			assert.Equal(t, opp.ID, r.OpportunityID)
		}
		_, err := svc.Create(ctx, vols[2].ID, opp.ID)
		assert.Equal(t, rsvp.ErrOpportunityFull, errors.Cause(err))
		assert.Equal(t, "OPPORTUNITY_FULL", core.ErrorCode(err))

		_, listed := listing(t, c, opp.ID)
		assert.False(t, listed, "full opportunities are not listed")
	})

	t.Run("start in the past", func(t *testing.T) {
		for _, capacity := range []*int{nil, core.IntPtr(10)} {
			opp := testutil.CreateOpportunity(t, c, staff.ID, "Yesterday", time.Now().Add(-24*time.Hour), capacity)
			_, err := svc.Create(ctx, vols[0].ID, opp.ID)
			assert.Equal(t, rsvp.ErrOpportunityInPast, errors.Cause(err))
		}
	})

	t.Run("not open", func(t *testing.T) {
		opp := testutil.CreateOpportunity(t, c, staff.ID, "Canceled", future, nil)
		_, err := c.OpportunitySvc.SetStatus(ctx, opp, opportunity.StatusCanceled)
		require.NoError(t, err)

		_, err = svc.Create(ctx, vols[0].ID, opp.ID)
		assert.Equal(t, rsvp.ErrOpportunityNotOpen, errors.Cause(err))
	})

	t.Run("already rsvp'd", func(t *testing.T) {
		opp := testutil.CreateOpportunity(t, c, staff.ID, "Twice", future, nil)
		_, err := svc.Create(ctx, vols[0].ID, opp.ID)
		require.NoError(t, err)

		_, err = svc.Create(ctx, vols[0].ID, opp.ID)
		assert.Equal(t, rsvp.ErrAlreadyRSVPd, errors.Cause(err))
	})

	t.Run("unknown opportunity", func(t *testing.T) {
		_, err := svc.Create(ctx, vols[0].ID, "nope")
		assert.Equal(t, opportunity.ErrNotFound, errors.Cause(err))
	})

	t.Run("not a volunteer", func(t *testing.T) {
		opp := testutil.CreateOpportunity(t, c, staff.ID, "Staff only", future, nil)
		_, err := svc.Create(ctx, staff.ID, opp.ID)
		assert.Equal(t, volunteer.ErrNotFound, errors.Cause(err))
	})
}

// Each case lists the conditions; Create must succeed iff all of them hold.
func TestService_Create_acceptanceRule(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()

	staff := testutil.CreateUser(t, c, "Staff Member", "staff@test.cd", user.RoleStaff, true)
	vols := createVolunteers(t, c, 4)

	tests := []struct {
		status     string
		future     bool
		capacity   *int
		taken      int // rsvps before the call
		rsvpdFirst bool
	}{
		{status: opportunity.StatusOpen, future: true},
		{status: opportunity.StatusOpen, future: true, capacity: core.IntPtr(3), taken: 2},
		{status: opportunity.StatusOpen, future: true, capacity: core.IntPtr(2), taken: 2},
		{status: opportunity.StatusOpen, future: true, capacity: core.IntPtr(3), taken: 1, rsvpdFirst: true},
		{status: opportunity.StatusOpen, future: false},
		{status: opportunity.StatusFull, future: true},
		{status: opportunity.StatusCompleted, future: true, capacity: core.IntPtr(5)},
		{status: opportunity.StatusCanceled, future: false},
	}
	for i, tt := range tests {
		t.Run(fmt.Sprintf("%s/future=%v/taken=%d", tt.status, tt.future, tt.taken), func(t *testing.T) {
			start := time.Now().Add(24 * time.Hour)
			if !tt.future {
				start = time.Now().Add(-time.Hour)
			}
			opp := testutil.CreateOpportunity(t, c, staff.ID, fmt.Sprintf("Event %d", i), start, tt.capacity)
			for _, v := range vols[1 : 1+tt.taken] {
				_, err := c.RsvpSvc.Create(ctx, v.ID, opp.ID)
				require.NoError(t, err)
			}
			caller := vols[0]
			if tt.rsvpdFirst {
				caller = vols[1]
			}
			if tt.status != opportunity.StatusOpen {
				var err error
				opp, err = c.OpportunitySvc.SetStatus(ctx, opp, tt.status)
				require.NoError(t, err)
			}

			want := tt.status == opportunity.StatusOpen && tt.future && !tt.rsvpdFirst &&
				(tt.capacity == nil || tt.taken < *tt.capacity)
			_, err := c.RsvpSvc.Create(ctx, caller.ID, opp.ID)
			assert.Equal(t, want, err == nil, "Create() error = %v", err)
		})
	}
}

func TestService_Create_concurrent(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()

	staff := testutil.CreateUser(t, c, "Staff Member", "staff@test.cd", user.RoleStaff, true)
	vols := createVolunteers(t, c, 12)
	const capacity = 5
	opp := testutil.CreateOpportunity(t, c, staff.ID, "Popular", time.Now().Add(time.Hour), core.IntPtr(capacity))

	var (
		wg             sync.WaitGroup
		mu             sync.Mutex
		created, fulls int
	)
	for _, v := range vols {
		v := v
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.RsvpSvc.Create(ctx, v.ID, opp.ID)
			mu.Lock()
			defer mu.Unlock()
			switch errors.Cause(err) {
			case nil:
				created++
			case rsvp.ErrOpportunityFull:
				fulls++
			default:
				t.Errorf("Create() unexpected error = %v", err)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, capacity, created)
	assert.Equal(t, len(vols)-capacity, fulls)

	rsvps, err := c.OpportunitySvc.GetEventRsvps(ctx, opp.ID)
	require.NoError(t, err)
	assert.Len(t, rsvps, capacity)
}

func TestService_Cancel(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()
	svc := c.RsvpSvc

	staff := testutil.CreateUser(t, c, "Staff Member", "staff@test.cd", user.RoleStaff, true)
	vols := createVolunteers(t, c, 2)
	opp := testutil.CreateOpportunity(t, c, staff.ID, "Beach cleanup", time.Now().Add(72*time.Hour), core.IntPtr(4))

	_, err := svc.Create(ctx, vols[1].ID, opp.ID)
	require.NoError(t, err)
	before, ok := listing(t, c, opp.ID)
	require.True(t, ok)
	require.NotNil(t, before.SpotsRemaining)
	assert.Equal(t, 3, *before.SpotsRemaining)

	_, err = svc.Create(ctx, vols[0].ID, opp.ID)
	require.NoError(t, err)
	during, _ := listing(t, c, opp.ID)
	assert.Equal(t, 2, *during.SpotsRemaining)

	require.NoError(t, svc.Cancel(ctx, vols[0].ID, opp.ID))
	after, _ := listing(t, c, opp.ID)
	assert.Equal(t, *before.SpotsRemaining, *after.SpotsRemaining)
	assert.Equal(t, before.RsvpCount, after.RsvpCount)

	rsvps, err := svc.ListForVolunteer(ctx, vols[0].ID)
	require.NoError(t, err)
	assert.Empty(t, rsvps)

	err = svc.Cancel(ctx, vols[0].ID, opp.ID)
	assert.Equal(t, rsvp.ErrNotFound, errors.Cause(err))
	err = svc.Cancel(ctx, staff.ID, opp.ID)
	assert.Equal(t, volunteer.ErrNotFound, errors.Cause(err))
}

func TestService_UpdateStatus(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()
	svc := c.RsvpSvc

	staff := testutil.CreateUser(t, c, "Staff Member", "staff@test.cd", user.RoleStaff, true)
	usr, _ := testutil.CreateVolunteer(t, c, "Vee Volunteer", "vee@test.cd")
	opp := testutil.CreateOpportunity(t, c, staff.ID, "Soup kitchen", time.Now().Add(24*time.Hour), core.IntPtr(1))
	r, err := svc.Create(ctx, usr.ID, opp.ID)
	require.NoError(t, err)

	_, err = svc.UpdateStatus(ctx, r.ID, "lol")
	assert.True(t, core.IsValidation(err))
	_, err = svc.UpdateStatus(ctx, r.ID, rsvp.StatusPending)
	assert.True(t, core.IsValidation(err), "an rsvp never goes back to pending")
	_, err = svc.UpdateStatus(ctx, "nope", rsvp.StatusConfirmed)
	assert.Equal(t, rsvp.ErrNotFound, errors.Cause(err))

	emailsvc.ResetSentMessages()
	updated, err := svc.UpdateStatus(ctx, r.ID, rsvp.StatusDeclined)
	require.NoError(t, err)
	assert.Equal(t, rsvp.StatusDeclined, updated.Status)

	msgs := emailsvc.LastSentMessages(1)
	require.Len(t, msgs, 1)
	assert.Equal(t, "vee@test.cd", msgs[0].To[0].Address)
	assert.Equal(t, "Your RSVP to Soup kitchen", msgs[0].Subject)

	emailsvc.ResetSentMessages()
	again, err := svc.UpdateStatus(ctx, r.ID, rsvp.StatusDeclined)
	require.NoError(t, err)
	assert.Equal(t, updated.UpdatedAt, again.UpdatedAt)
	assert.Empty(t, emailsvc.SentMessages, "same status: no mail")

	// a declined rsvp frees its spot
	l, ok := listing(t, c, opp.ID)
	require.True(t, ok)
	assert.Equal(t, 1, *l.SpotsRemaining)

	rsvps, err := svc.ListForVolunteer(ctx, usr.ID)
	require.NoError(t, err)
	require.Len(t, rsvps, 1)
	assert.Equal(t, "Soup kitchen", rsvps[0].OpportunityTitle)
}

func TestService_UpdateStatus_confirmationInvite(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()
	svc := c.RsvpSvc

	staff := testutil.CreateUser(t, c, "Staff Member", "staff@test.cd", user.RoleStaff, true)
	usr, _ := testutil.CreateVolunteer(t, c, "Vee Volunteer", "vee@test.cd")
	opp := testutil.CreateOpportunity(t, c, staff.ID, "Soup kitchen", time.Now().Add(24*time.Hour), nil)
	r, err := svc.Create(ctx, usr.ID, opp.ID)
	require.NoError(t, err)

	emailsvc.ResetSentMessages()
	_, err = svc.UpdateStatus(ctx, r.ID, rsvp.StatusConfirmed)
	require.NoError(t, err)

	msgs := emailsvc.LastSentMessages(1)
	require.Len(t, msgs, 1)
	require.Len(t, msgs[0].Attachments, 1)
	at := msgs[0].Attachments[0]
	assert.Equal(t, "invite.ics", at.Filename)
	assert.True(t, strings.HasPrefix(at.ContentType, "text/calendar"))

	ics, err := base64.StdEncoding.DecodeString(at.Content.String())
	require.NoError(t, err)
	assert.Contains(t, string(ics), "UID:"+r.ID+"\r\n")
	assert.Contains(t, string(ics), "SUMMARY:Soup kitchen\r\n")

	// other decisions carry no invite
	emailsvc.ResetSentMessages()
	_, err = svc.UpdateStatus(ctx, r.ID, rsvp.StatusAttended)
	require.NoError(t, err)
	msgs = emailsvc.LastSentMessages(1)
	require.Len(t, msgs, 1)
	assert.Empty(t, msgs[0].Attachments)
}

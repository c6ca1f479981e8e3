package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/communication"
	"github.com/trezcool/bolingo/core/onboarding"
	"github.com/trezcool/bolingo/core/rsvp"
	"github.com/trezcool/bolingo/core/user"
	"github.com/trezcool/bolingo/tests"
)

func Test_onboardingApi(t *testing.T) {
	a := newApp(t)

	staff := testutil.CreateUser(t, a.c, "Sam Staff", "sam@test.cd", user.RoleStaff, true)
	alice, aliceVol := testutil.CreateVolunteer(t, a.c, "Alice", "alice@test.cd")
	bob, bobVol := testutil.CreateVolunteer(t, a.c, "Bob", "bob@test.cd")
	testutil.CompleteProfile(t, a.c, bobVol)
	staffToken := getToken(t, a, staff)

	tests := []httpTest{
		{name: "fresh profile", path: "/v1/onboarding/me", token: getToken(t, a, alice), wantCode: http.StatusOK, extra: 0},
		{name: "complete profile", path: "/v1/onboarding/me", token: getToken(t, a, bob), wantCode: http.StatusOK, extra: 100},
		{name: "staff has no checklist", path: "/v1/onboarding/me", token: staffToken, wantCode: http.StatusForbidden},
		{name: "by volunteer", path: "/v1/onboarding/volunteers/" + aliceVol.ID, token: staffToken, wantCode: http.StatusOK, extra: 0},
		{
			name: "unknown volunteer", path: "/v1/onboarding/volunteers/lol", token: staffToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, codedErr{Error: "volunteer not found", Code: "VOLUNTEER_NOT_FOUND"}),
		},
		{name: "volunteer can't look at others", path: "/v1/onboarding/volunteers/" + bobVol.ID, token: getToken(t, a, alice), wantCode: http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(tt)
			checkCodeAndData(t, tt, rec)
			if pct, ok := tt.extra.(int); ok {
				var st onboarding.Status
				unmarshal(t, rec, &st)
				assert.Equal(t, pct, st.CompletionPercentage)
				assert.Equal(t, pct == 100, st.OnboardingComplete)
			}
		})
	}

	t.Run("list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/onboarding/volunteers?search=bob", staffToken)
		a.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var page core.Page[onboarding.Status]
		unmarshal(t, rec, &page)
		assert.Equal(t, 1, page.Total)
		if assert.Len(t, page.Items, 1) {
			assert.Equal(t, bobVol.ID, page.Items[0].VolunteerID)
			assert.True(t, page.Items[0].Checklist.SkillsAdded)
		}
	})
}

func Test_communicationApi(t *testing.T) {
	a := newApp(t)
	ctx := context.Background()

	staff := testutil.CreateUser(t, a.c, "Sam Staff", "sam@test.cd", user.RoleStaff, true)
	alice, _ := testutil.CreateVolunteer(t, a.c, "Alice", "alice@test.cd")
	_, bobVol := testutil.CreateVolunteer(t, a.c, "Bob", "bob@test.cd")
	testutil.CompleteProfile(t, a.c, bobVol)
	staffToken := getToken(t, a, staff)

	opp := testutil.CreateOpportunity(t, a.c, staff.ID, "Food drive", time.Now().Add(72*time.Hour), nil)
	r, err := a.c.RsvpSvc.Create(ctx, alice.ID, opp.ID)
	require.NoError(t, err)
	_, err = a.c.RsvpSvc.UpdateStatus(ctx, r.ID, rsvp.StatusDeclined)
	require.NoError(t, err)

	msg := func(audience, oppID string, statuses ...string) []byte {
		return marchallObj(t, communication.BulkMessage{
			Subject:       "Schedule change",
			Body:          "Hi {{.Name}}, see you soon.",
			Audience:      audience,
			OpportunityID: oppID,
			RsvpStatuses:  statuses,
		})
	}

	tests := []httpTest{
		{name: "volunteer can't send", body: msg(communication.AudienceAll, ""), token: getToken(t, a, alice), wantCode: http.StatusForbidden},
		{name: "unknown audience", body: msg("lol", ""), wantCode: http.StatusBadRequest},
		{
			name: "opportunity audience without an opportunity", body: msg(communication.AudienceOpportunity, ""), wantCode: http.StatusBadRequest,
		},
		{
			name: "nobody confirmed", body: msg(communication.AudienceOpportunity, opp.ID, rsvp.StatusConfirmed), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, codedErr{Error: "the audience has no recipients", Code: "NO_RECIPIENTS"}),
		},
		{name: "declined volunteers", body: msg(communication.AudienceOpportunity, opp.ID, rsvp.StatusDeclined), wantCode: http.StatusCreated, extra: 1},
		{name: "incomplete onboarding", body: msg(communication.AudienceIncompleteOnboarding, ""), wantCode: http.StatusCreated, extra: 1},
		{name: "everyone", body: msg(communication.AudienceAll, ""), wantCode: http.StatusCreated, extra: 2},
	}
	for _, tt := range tests {
		tt.method = http.MethodPost
		tt.path = "/v1/communications"
		if tt.token == "" {
			tt.token = staffToken
		}

		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(tt)
			checkCodeAndData(t, tt, rec)
			if n, ok := tt.extra.(int); ok {
				var comm communication.Communication
				unmarshal(t, rec, &comm)
				assert.Equal(t, n, comm.RecipientCount)
				assert.Equal(t, staff.ID, comm.SenderID.String)
			}
		})
	}

	t.Run("history", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, "/v1/communications?limit=2", staffToken)
		a.ServeHTTP(rec, req)
		require.Equal(t, http.StatusOK, rec.Code)

		var page core.Page[communication.Communication]
		unmarshal(t, rec, &page)
		assert.Equal(t, 3, page.Total)
		assert.Equal(t, 2, page.TotalPages)
		assert.Len(t, page.Items, 2)
	})
}

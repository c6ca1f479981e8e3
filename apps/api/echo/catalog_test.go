package echoapi_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/bolingo/core/catalog"
	"github.com/trezcool/bolingo/core/user"
	"github.com/trezcool/bolingo/tests"
)

func Test_catalogApi_manage(t *testing.T) {
	a := newApp(t)

	staff := testutil.CreateUser(t, a.c, "Sam Staff", "sam@test.cd", user.RoleStaff, true)
	volUsr, vol := testutil.CreateVolunteer(t, a.c, "Val Volunteer", "val@test.cd")
	staffToken := getToken(t, a, staff)
	volToken := getToken(t, a, volUsr)

	firstAid := testutil.CreateCatalogEntry(t, a.c.SkillSvc, "First Aid")
	cooking := testutil.CreateCatalogEntry(t, a.c.SkillSvc, "Cooking")
	unused := testutil.CreateCatalogEntry(t, a.c.SkillSvc, "Juggling")
	env := testutil.CreateCatalogEntry(t, a.c.InterestSvc, "Environment")
	assert.NoError(t, a.c.SkillSvc.AssignToVolunteer(context.Background(), vol.ID, firstAid.ID, catalog.ProficiencyExpert))

	tests := []httpTest{
		{name: "list", path: "/v1/skills", token: volToken, wantCode: http.StatusOK, wantData: marchallList(t, cooking, firstAid, unused)},
		{name: "search", path: "/v1/skills?search=aid", token: volToken, wantCode: http.StatusOK, wantData: marchallList(t, firstAid)},
		{name: "retrieve", path: "/v1/interests/" + env.ID, token: volToken, wantCode: http.StatusOK, wantData: marchallObj(t, env)},
		{
			name: "retrieve unknown", path: "/v1/skills/" + env.ID, token: volToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, codedErr{Error: "catalog entry not found", Code: "CATALOG_ENTRY_NOT_FOUND"}),
		},
		{
			name: "volunteer can't create", method: http.MethodPost, path: "/v1/skills", token: volToken,
			body: marchallObj(t, catalog.NewEntry{Name: "Carpentry"}), wantCode: http.StatusForbidden,
		},
		{
			name: "blank name", method: http.MethodPost, path: "/v1/skills", token: staffToken,
			body: marchallObj(t, catalog.NewEntry{Name: "  "}), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"name": "this field cannot be blank"}),
		},
		{
			name: "name taken", method: http.MethodPost, path: "/v1/skills", token: staffToken,
			body: marchallObj(t, catalog.NewEntry{Name: "Cooking"}), wantCode: http.StatusConflict,
			wantData: marchallObj(t, codedErr{Error: "an entry with this name already exists", Code: "CATALOG_NAME_EXISTS"}),
		},
		{
			name: "same name in another catalog", method: http.MethodPost, path: "/v1/interests", token: staffToken,
			body: marchallObj(t, catalog.NewEntry{Name: "Cooking"}), wantCode: http.StatusCreated,
		},
		{
			name: "rename", method: http.MethodPut, path: "/v1/skills/" + cooking.ID, token: staffToken,
			body: []byte(`{"name": "Catering"}`), wantCode: http.StatusOK,
		},
		{
			name: "delete assigned", method: http.MethodDelete, path: "/v1/skills/" + firstAid.ID, token: staffToken, wantCode: http.StatusConflict,
			wantData: marchallObj(t, codedErr{Error: "entry is assigned to volunteers or opportunities", Code: "CATALOG_ENTRY_IN_USE"}),
		},
		{name: "delete", method: http.MethodDelete, path: "/v1/skills/" + unused.ID, token: staffToken, wantCode: http.StatusNoContent},
		{name: "deleted", path: "/v1/skills/" + unused.ID, token: staffToken, wantCode: http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkCodeAndData(t, tt, a.do(tt))
		})
	}
}

func Test_catalogApi_assignments(t *testing.T) {
	a := newApp(t)

	staff := testutil.CreateUser(t, a.c, "Sam Staff", "sam@test.cd", user.RoleStaff, true)
	volUsr, _ := testutil.CreateVolunteer(t, a.c, "Val Volunteer", "val@test.cd")
	staffToken := getToken(t, a, staff)
	volToken := getToken(t, a, volUsr)

	firstAid := testutil.CreateCatalogEntry(t, a.c.SkillSvc, "First Aid")
	env := testutil.CreateCatalogEntry(t, a.c.InterestSvc, "Environment")
	opp := testutil.CreateOpportunity(t, a.c, staff.ID, "Food drive", time.Now().Add(72*time.Hour), nil)
	oppSkills := "/v1/opportunities/" + opp.ID + "/skills"

	tests := []httpTest{
		{
			name: "skill without proficiency", method: http.MethodPost, path: "/v1/volunteers/me/skills/" + firstAid.ID, token: volToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"proficiency": "proficiency must be one of: beginner, intermediate, advanced, expert"}),
		},
		{
			name: "interest with proficiency", method: http.MethodPost, path: "/v1/volunteers/me/interests/" + env.ID, token: volToken,
			body: []byte(`{"proficiency": "expert"}`), wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"proficiency": "proficiency is not supported"}),
		},
		{
			name: "unknown skill", method: http.MethodPost, path: "/v1/volunteers/me/skills/" + env.ID, token: volToken,
			body: []byte(`{"proficiency": "expert"}`), wantCode: http.StatusNotFound,
		},
		{
			name: "staff has no profile", method: http.MethodPost, path: "/v1/volunteers/me/skills/" + firstAid.ID, token: staffToken,
			body: []byte(`{"proficiency": "expert"}`), wantCode: http.StatusForbidden,
		},
		{
			name: "assign skill", method: http.MethodPost, path: "/v1/volunteers/me/skills/" + firstAid.ID, token: volToken,
			body: []byte(`{"proficiency": " Expert "}`), wantCode: http.StatusNoContent,
		},
		{
			name: "assign skill twice", method: http.MethodPost, path: "/v1/volunteers/me/skills/" + firstAid.ID, token: volToken,
			body: []byte(`{"proficiency": "beginner"}`), wantCode: http.StatusConflict,
			wantData: marchallObj(t, codedErr{Error: "entry is already assigned", Code: "ALREADY_ASSIGNED"}),
		},
		{name: "assign interest", method: http.MethodPost, path: "/v1/volunteers/me/interests/" + env.ID, token: volToken, wantCode: http.StatusNoContent},
		{name: "my skills", path: "/v1/volunteers/me/skills", token: volToken, wantCode: http.StatusOK, extra: catalog.ProficiencyExpert},
		{name: "unassign interest", method: http.MethodDelete, path: "/v1/volunteers/me/interests/" + env.ID, token: volToken, wantCode: http.StatusNoContent},
		{
			name: "unassign interest twice", method: http.MethodDelete, path: "/v1/volunteers/me/interests/" + env.ID, token: volToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, codedErr{Error: "assignment not found", Code: "ASSIGNMENT_NOT_FOUND"}),
		},
		{name: "volunteer can't require skills", method: http.MethodPost, path: oppSkills + "/" + firstAid.ID, token: volToken, wantCode: http.StatusForbidden},
		{name: "require skill", method: http.MethodPost, path: oppSkills + "/" + firstAid.ID, token: staffToken, wantCode: http.StatusNoContent},
		{name: "required skills", path: oppSkills, token: volToken, wantCode: http.StatusOK, wantData: marchallList(t, firstAid)},
		{name: "drop requirement", method: http.MethodDelete, path: oppSkills + "/" + firstAid.ID, token: staffToken, wantCode: http.StatusNoContent},
		{name: "no required skills", path: oppSkills, token: volToken, wantCode: http.StatusOK, wantData: marchallList(t)},
		{
			name: "unknown opportunity", path: "/v1/opportunities/lol/skills", token: volToken, wantCode: http.StatusNotFound,
			wantData: marchallObj(t, codedErr{Error: "opportunity not found", Code: "OPPORTUNITY_NOT_FOUND"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(tt)
			checkCodeAndData(t, tt, rec)
			if prof, ok := tt.extra.(string); ok {
				var mine []catalog.VolunteerEntry
				unmarshal(t, rec, &mine)
				if assert.Len(t, mine, 1) {
					assert.Equal(t, firstAid.ID, mine[0].ID)
					assert.Equal(t, prof, mine[0].Proficiency.String)
				}
			}
		})
	}
}

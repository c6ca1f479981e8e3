package user_test

import (
	"context"
	"strings"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/bolingo/core"
	"github.com/trezcool/bolingo/core/user"
	emailsvc "github.com/trezcool/bolingo/services/email"
	"github.com/trezcool/bolingo/tests"
)

// failedTags lists the validation tags that err failed on.
func failedTags(err error) []string {
	var tags []string
	var vErrs validator.ValidationErrors
	if errors.As(err, &vErrs) {
		for _, e := range vErrs {
			tags = append(tags, e.Tag())
		}
	}
	var dErr *core.ValidationError
	if errors.As(err, &dErr) {
		for _, f := range dErr.Fields {
			tags = append(tags, f.Field)
		}
	}
	return tags
}

func TestNewUser_Validate(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()

	testutil.CreateUser(t, c, "Taken", "taken@test.cd", user.RoleStaff, true)

	nu := func(name, email, role, pwd string) user.NewUser {
		return user.NewUser{Name: name, Email: email, Role: role, Password: pwd, PasswordConfirm: pwd}
	}
	tests := []struct {
		name    string
		nu      user.NewUser
		wantTag string
	}{
		{name: "too short", nu: nu("Jane Doe", "jane@test.cd", "", "Ab1!"), wantTag: "pwdminlen"},
		{name: "whitespace", nu: nu("Jane Doe", "jane@test.cd", "", "Ab1! cdef"), wantTag: "pwdnospace"},
		{name: "all numeric", nu: nu("Jane Doe", "jane@test.cd", "", "1234567890"), wantTag: "pwdnotallnum"},
		{name: "no special", nu: nu("Jane Doe", "jane@test.cd", "", "Abcdef123"), wantTag: "pwdcplx"},
		{name: "no upper", nu: nu("Jane Doe", "jane@test.cd", "", "abcdef12#"), wantTag: "pwdcplx"},
		{name: "similar to email", nu: nu("Jane Doe", "jane.doe@test.cd", "", "Jane.Doe@test1"), wantTag: "pwdtoosim"},
		{name: "common", nu: nu("Jane Doe", "jane@test.cd", "", "P@ssw0rd"), wantTag: "pwdnocommon"},
		{name: "mismatch", nu: user.NewUser{Name: "Jane Doe", Email: "jane@test.cd", Password: testutil.Password, PasswordConfirm: "lol"}, wantTag: "eqfield"},
		{name: "bad email", nu: nu("Jane Doe", "jane", "", testutil.Password), wantTag: "email"},
		{name: "bad role", nu: nu("Jane Doe", "jane@test.cd", "boss", testutil.Password), wantTag: "role"},
		{name: "email taken", nu: nu("Jane Doe", " TAKEN@test.cd ", "", testutil.Password), wantTag: "email"},
		{name: "valid", nu: nu("  Jane Doe ", "Jane@Test.cd", "STAFF", testutil.Password)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(ctx, c.Validate, c.UserSvc)
			if tt.wantTag == "" {
				require.NoError(t, err)
				assert.Equal(t, "Jane Doe", tt.nu.Name)
				assert.Equal(t, "jane@test.cd", tt.nu.Email)
				assert.Equal(t, user.RoleStaff, tt.nu.Role)
				return
			}
			require.Error(t, err)
			assert.Contains(t, failedTags(err), tt.wantTag)
		})
	}
}

func TestUpdateUser_Validate(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, c, "Jane Doe", "jane@test.cd", user.RoleVolunteer, true)
	testutil.CreateUser(t, c, "Taken", "taken@test.cd", user.RoleStaff, true)

	t.Run("blank fields keep their value", func(t *testing.T) {
		uu := user.UpdateUser{Name: "  "}
		require.NoError(t, uu.Validate(ctx, usr, c.Validate, c.UserSvc))
		assert.Equal(t, usr.Name, uu.Name)
		assert.Equal(t, usr.Email, uu.Email)
		assert.Equal(t, usr.Role, uu.Role)
	})

	t.Run("own email is not a duplicate", func(t *testing.T) {
		uu := user.UpdateUser{Email: "JANE@test.cd"}
		assert.NoError(t, uu.Validate(ctx, usr, c.Validate, c.UserSvc))
	})

	t.Run("email taken", func(t *testing.T) {
		uu := user.UpdateUser{Email: "taken@test.cd"}
		err := uu.Validate(ctx, usr, c.Validate, c.UserSvc)
		assert.True(t, core.IsValidation(err))
	})

	t.Run("password needs confirmation", func(t *testing.T) {
		uu := user.UpdateUser{Password: testutil.Password}
		err := uu.Validate(ctx, usr, c.Validate, c.UserSvc)
		assert.Contains(t, failedTags(err), "required_with")
	})

	t.Run("weak password", func(t *testing.T) {
		uu := user.UpdateUser{Password: "weakweak", PasswordConfirm: "weakweak"}
		err := uu.Validate(ctx, usr, c.Validate, c.UserSvc)
		assert.Contains(t, failedTags(err), "pwdcplx")
	})
}

func TestService_Create(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()

	usr, err := c.UserSvc.Create(ctx, user.NewUser{Name: "Jane Doe", Email: "jane@test.cd", Password: testutil.Password})
	require.NoError(t, err)
	assert.Equal(t, user.RoleVolunteer, usr.Role, "default role")
	assert.True(t, usr.IsActive)
	assert.False(t, usr.LastLogin.Valid)
	assert.NoError(t, usr.CheckPassword(testutil.Password))
	assert.NotContains(t, string(usr.PasswordHash), testutil.Password)

	got, err := c.UserSvc.GetByEmail(ctx, " JANE@test.cd")
	require.NoError(t, err)
	assert.Equal(t, usr.ID, got.ID)

	_, err = c.UserSvc.GetByID(ctx, "unknown")
	assert.Equal(t, user.ErrNotFound, errors.Cause(err))
}

func TestService_Update(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, c, "Jane Doe", "jane@test.cd", user.RoleVolunteer, true)

	newPwd := "Zq8$Lm3@Tr6!"
	updated, err := c.UserSvc.Update(ctx, usr, user.UpdateUser{
		Name:     "Jane D.",
		Email:    usr.Email,
		Role:     user.RoleStaff,
		IsActive: core.BoolPtr(false),
		Password: newPwd,
	})
	require.NoError(t, err)
	assert.Equal(t, "Jane D.", updated.Name)
	assert.Equal(t, user.RoleStaff, updated.Role)
	assert.False(t, updated.IsActive)
	assert.NoError(t, updated.CheckPassword(newPwd))
	assert.True(t, updated.UpdatedAt.After(usr.UpdatedAt) || updated.UpdatedAt.Equal(usr.UpdatedAt))

	loggedIn, err := c.UserSvc.SetLastLogin(ctx, updated)
	require.NoError(t, err)
	assert.True(t, loggedIn.LastLogin.Valid)
}

func TestService_PasswordReset(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()

	usr := testutil.CreateUser(t, c, "Jane Doe", "jane@test.cd", user.RoleVolunteer, true)
	inactive := testutil.CreateUser(t, c, "Inactive", "inactive@test.cd", user.RoleVolunteer, false)

	t.Run("unknown email", func(t *testing.T) {
		err := c.UserSvc.RequestPasswordReset(ctx, "lol@test.cd")
		assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	})

	t.Run("inactive user", func(t *testing.T) {
		err := c.UserSvc.RequestPasswordReset(ctx, inactive.Email)
		assert.Equal(t, user.ErrNotFound, errors.Cause(err))
	})

	emailsvc.ResetSentMessages()
	require.NoError(t, c.UserSvc.RequestPasswordReset(ctx, "Jane@test.cd"))
	sent := emailsvc.LastSentMessages(1)
	require.Len(t, sent, 1)
	assert.Equal(t, usr.Email, sent[0].To[0].Address)
	data := sent[0].TemplateData.(map[string]string)
	uid, token := data["UID"], data["Token"]
	assert.Equal(t, user.EncodeUID(usr), uid)
	assert.True(t, strings.Contains(sent[0].TextContent, "/password-reset/"+uid+"/"+token))

	newPwd := "Zq8$Lm3@Tr6!"
	tests := []struct {
		name    string
		data    user.ResetUserPassword
		wantFld string
	}{
		{name: "bad uid", data: user.ResetUserPassword{UID: "%%%", Token: token, Password: newPwd, PasswordConfirm: newPwd}, wantFld: "uid"},
		{name: "unknown uid", data: user.ResetUserPassword{UID: user.EncodeUID(inactive) + "x", Token: token, Password: newPwd, PasswordConfirm: newPwd}, wantFld: "uid"},
		{name: "bad token", data: user.ResetUserPassword{UID: uid, Token: "lol", Password: newPwd, PasswordConfirm: newPwd}, wantFld: "token"},
		{name: "token of another user", data: user.ResetUserPassword{UID: user.EncodeUID(inactive), Token: token, Password: newPwd, PasswordConfirm: newPwd}, wantFld: "token"},
		{name: "reset", data: user.ResetUserPassword{UID: uid, Token: token, Password: newPwd, PasswordConfirm: newPwd}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.NoError(t, tt.data.Validate(c.Validate))
			err := c.UserSvc.ResetPassword(ctx, tt.data)
			if tt.wantFld != "" {
				require.True(t, core.IsValidation(err), "ResetPassword() error = %v", err)
				assert.Contains(t, failedTags(err), tt.wantFld)
				return
			}
			require.NoError(t, err)

			refreshed, err := c.UserSvc.GetByID(ctx, usr.ID)
			require.NoError(t, err)
			assert.NoError(t, refreshed.CheckPassword(newPwd))
		})
	}
}

func TestService_Query(t *testing.T) {
	c := testutil.NewContainer(t)
	ctx := context.Background()

	testutil.CreateUser(t, c, "Ann Admin", "ann@test.cd", user.RoleAdmin, true)
	testutil.CreateUser(t, c, "Sam Staff", "sam@test.cd", user.RoleStaff, true)
	testutil.CreateUser(t, c, "Val Volunteer", "val@test.cd", user.RoleVolunteer, false)

	tests := []struct {
		name   string
		filter *user.QueryFilter
		want   []string
	}{
		{name: "all", want: []string{"ann@test.cd", "sam@test.cd", "val@test.cd"}},
		{name: "search", filter: &user.QueryFilter{Search: "STAFF"}, want: []string{"sam@test.cd"}},
		{name: "roles", filter: &user.QueryFilter{Roles: []string{user.RoleAdmin, user.RoleVolunteer}}, want: []string{"ann@test.cd", "val@test.cd"}},
		{name: "inactive", filter: &user.QueryFilter{IsActive: core.BoolPtr(false)}, want: []string{"val@test.cd"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			usrs, err := c.UserSvc.Query(ctx, tt.filter, nil)
			require.NoError(t, err)
			got := make([]string, 0, len(usrs))
			for _, u := range usrs {
				got = append(got, u.Email)
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}
}

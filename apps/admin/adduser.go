package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/trezcool/bolingo/core/user"
)

func (cli *commandLine) addUserCmd() *cobra.Command {
	var name, email, role string

	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user, or update the role & password of an existing one. The password is prompted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := cli.readPassword()
			if err != nil {
				return err
			}
			usr, err := cli.addUser(cmd.Context(), name, email, role, pwd)
			if err != nil {
				return err
			}
			fmt.Fprintf(cli.out, "%s <%s> saved as %s\n", usr.Name, usr.Email, usr.Role)
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "the user's full name")
	cmd.Flags().StringVar(&email, "email", "", "the user's email")
	cmd.Flags().StringVar(&role, "role", user.RoleAdmin, "one of volunteer, staff or admin")
	_ = cmd.MarkFlagRequired("email")
	return cmd
}

// addUser updates or creates a user.User. Volunteers get their profile too.
func (cli *commandLine) addUser(ctx context.Context, name, email, role, pwd string) (user.User, error) {
	c := cli.c

	usr, err := c.UserSvc.GetByEmail(ctx, email)
	switch {
	case err == nil:
		isActive := true
		uu := user.UpdateUser{Name: name, Role: role, IsActive: &isActive, Password: pwd, PasswordConfirm: pwd}
		if err = uu.Validate(ctx, usr, c.Validate, c.UserSvc); err != nil {
			return user.User{}, err
		}
		return c.UserSvc.Update(ctx, usr, uu)

	case errors.Cause(err) == user.ErrNotFound:
		nu := user.NewUser{Name: name, Email: email, Role: role, Password: pwd, PasswordConfirm: pwd}
		if err = nu.Validate(ctx, c.Validate, c.UserSvc); err != nil {
			return user.User{}, err
		}
		if nu.Role != user.RoleVolunteer {
			return c.UserSvc.Create(ctx, nu)
		}
		vol, err := c.VolunteerSvc.Register(ctx, nu)
		if err != nil {
			return user.User{}, err
		}
		return c.UserSvc.GetByID(ctx, vol.UserID)

	default:
		return user.User{}, errors.Wrap(err, "finding user by email")
	}
}

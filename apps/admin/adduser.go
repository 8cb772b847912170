package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/user"
)

var errTeamAccount = errors.New("team accounts are created by registration")

// addUser updates or creates an active staff user.User
func (cli *commandLine) addUser(email, name, role, pwd string) error {
	ctx := context.Background()
	email = core.CleanString(email, true /* lower */)

	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return errors.Wrap(err, "finding user by email")
		}
		nu := user.NewUser{
			Name:            name,
			Email:           email,
			Password:        pwd,
			PasswordConfirm: pwd,
			Role:            role,
		}
		if err = nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
			return cli.humanize(err)
		}
		if nu.Role == user.RoleTeam {
			return errTeamAccount
		}
		_, err = cli.usrSvc.Create(ctx, nu)
		return errors.Wrap(err, "creating user")
	}

	if r := core.CleanStringUpper(role); r != usr.Role {
		return fmt.Errorf("%s is already a %s", email, user.RoleName(usr.Role))
	}
	active := true
	uu := user.UpdateUser{Name: name, IsActive: &active, Password: pwd, PasswordConfirm: pwd}
	if err = uu.Validate(usr, cli.validate); err != nil {
		return cli.humanize(err)
	}
	_, err = cli.usrSvc.Update(ctx, usr, uu)
	return errors.Wrap(err, "updating user")
}

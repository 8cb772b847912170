package main

import (
	"context"

	"github.com/kelna-terese/EvalX/core/user"
)

func (cli *commandLine) resetPassword(email, pwd string) error {
	ctx := context.Background()
	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	uu := user.UpdateUser{Password: pwd, PasswordConfirm: pwd}
	if err = uu.Validate(usr, cli.validate); err != nil {
		return cli.humanize(err)
	}
	_, err = cli.usrSvc.Update(ctx, usr, uu)
	return err
}

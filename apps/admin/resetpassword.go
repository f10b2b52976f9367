package main

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"github.com/trezcool/academia/core/account"
	"github.com/trezcool/academia/core/auth"
)

var errNotFound = errors.New("account not found")

func (cli *commandLine) resetPassword(role, id, pwd string) error {
	ctx := context.Background()
	pr := account.PasswordReset{Password: pwd}

	var (
		name  string
		found bool
		err   error
	)
	switch role {
	case auth.RoleStudent:
		std, ok, e := cli.acad.Students.ResetPassword(ctx, id, pr)
		name, found, err = std.Name, ok, e
	case auth.RoleTeacher:
		tch, ok, e := cli.acad.Teachers.ResetPassword(ctx, id, pr)
		name, found, err = tch.Name, ok, e
	default:
		return fmt.Errorf("unknown role %q", role)
	}
	if err != nil {
		return errors.Wrap(err, "resetting password")
	}
	if !found {
		return errNotFound
	}
	fmt.Fprintf(cli.out, "password of %s updated\n", name)
	return nil
}

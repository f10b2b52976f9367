package main

import "errors"

var errNoMigrations = errors.New("migrations need the postgres engine")

func (cli *commandLine) migrate(args []string) error {
	if cli.migrator == nil {
		return errNoMigrations
	}
	return cli.migrator(args[0], args[1:]...)
}

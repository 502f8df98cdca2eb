package main

import (
	"errors"

	"github.com/trezcool/tutor/storage/table/postgres"
)

var (
	migrateFunc = postgres.Migrate // mockable

	errNoDatabase = errors.New("migrations need the postgres store driver")
)

func (cli *commandLine) migrate(args []string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	return migrateFunc(cli.db, args[0], args[1:]...)
}

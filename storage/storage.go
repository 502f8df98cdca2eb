// Package storage opens the table store selected by configuration.
package storage

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/tutor/core"
	"github.com/trezcool/tutor/storage/table"
	"github.com/trezcool/tutor/storage/table/inmem"
	"github.com/trezcool/tutor/storage/table/postgres"
	"github.com/trezcool/tutor/storage/table/sheets"
)

// Drivers
const (
	DriverSheets   = "sheets"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

var ErrUnknownDriver = errors.New("unknown store driver")

// Open returns the configured store and a function releasing it.
func Open(ctx context.Context, conf core.StoreConfig) (table.Store, func() error, error) {
	noop := func() error { return nil }

	switch conf.Driver {
	case DriverSheets, "":
		store, err := sheets.Open(ctx, sheets.Options{
			SpreadsheetID:   conf.SpreadsheetID,
			CredentialsFile: conf.CredentialsFile,
			CredentialsJSON: conf.CredentialsJSON,
			Timeout:         conf.Timeout,
		})
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	case DriverPostgres:
		store, err := postgres.Open(conf.DatabaseURL)
		if err != nil {
			return nil, noop, err
		}
		return store, store.Close, nil
	case DriverMemory:
		store, err := inmem.Open(conf.SeedFile)
		if err != nil {
			return nil, noop, err
		}
		return store, noop, nil
	default:
		return nil, noop, errors.Wrap(ErrUnknownDriver, conf.Driver)
	}
}

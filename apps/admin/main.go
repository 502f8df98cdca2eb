package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/trezcool/tutor/core"
	"github.com/trezcool/tutor/core/tutor"
	logsvc "github.com/trezcool/tutor/services/logger"
	"github.com/trezcool/tutor/storage"
	"github.com/trezcool/tutor/storage/table"
	"github.com/trezcool/tutor/storage/table/postgres"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up record store
	ctx, cancel := context.WithTimeout(context.Background(), conf.Store.Timeout)
	store, closeStore, err := storage.Open(ctx, conf.Store)
	cancel()
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening %s store: %v", conf.Store.Driver, err), err)
	}

	// start CLI
	cli := commandLine{
		svc: tutor.NewService(table.NewRepository(store), logger),
		out: os.Stdout,
	}
	if pg, ok := store.(*postgres.Store); ok {
		cli.db = pg.DB()
	}

	code := 0
	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("\nerror: %s\n", err), err)
		}
		code = 1
	}
	if err = closeStore(); err != nil {
		logger.Error("closing store", err)
	}
	os.Exit(code)
}

package main

import (
	"fmt"
	"os"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/academy"
	"github.com/trezcool/academia/core/store"
	emailsvc "github.com/trezcool/academia/services/email"
	logsvc "github.com/trezcool/academia/services/logger"
	"github.com/trezcool/academia/storage/database"
	inmemdb "github.com/trezcool/academia/storage/database/inmem"
	"github.com/trezcool/academia/storage/database/pgstore"
)

func main() {
	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(os.Stderr, "admin", conf)
	logger.Enable(false)

	cli := commandLine{out: os.Stdout}
	hub := store.NewHub(logger)
	var st store.Store
	if conf.Database.InMemory() {
		st = inmemdb.Open(hub)
	} else {
		db, err := database.Open(conf)
		if err != nil {
			logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
		}
		defer func() { _ = db.Close() }()
		st = pgstore.New(db)
		cli.migrator = func(command string, args ...string) error {
			return database.RunMigrations(db, command, args...)
		}
	}

	acad, err := academy.New(academy.Deps{
		Conf:   conf,
		Store:  st,
		Feed:   hub,
		Logger: logger,
		Mailer: emailsvc.NewConsoleService(conf.AppName, conf.DefaultFromEmail),
	})
	if err != nil {
		logger.Fatal(fmt.Sprintf("initializing academy: %v", err), err)
	}
	cli.acad = acad

	if err = cli.run(os.Args); err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}

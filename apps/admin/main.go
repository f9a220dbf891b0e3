package main

import (
	"log"
	"os"

	"github.com/trezcool/semillero/core"
	"github.com/trezcool/semillero/services/logger"
	"github.com/trezcool/semillero/storage/database"
	"github.com/trezcool/semillero/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()
	zl, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatalf("setting up zap: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)
	defer logger.Sync()

	// set up DB
	db, err := database.Open(conf.Database)
	if err != nil {
		logger.Fatal("opening database (set database.driver and database.dsn)", err)
	}
	defer db.Close()

	// start CLI
	cli := commandLine{
		db:       db,
		profiles: sqlxdb.NewProfileStore(db),
		out:      os.Stdout,
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			logger.Error("command failed", err)
		}
		os.Exit(1)
	}
}

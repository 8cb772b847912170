package main

import (
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/user"
	logsvc "github.com/kelna-terese/EvalX/services/logger"
	"github.com/kelna-terese/EvalX/storage/database"
	sqlxrepos "github.com/kelna-terese/EvalX/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	if conf.Storage != core.StoragePostgres {
		logger.Fatal(fmt.Sprintf("admin commands need %s storage, got %q", core.StoragePostgres, conf.Storage))
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	user.LoadCommonPasswords(conf, logger)

	// set up DB
	if err := database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	// start CLI
	cli := commandLine{
		db:         db.DB,
		usrSvc:     user.NewService(sqlxrepos.NewUserRepository(db)),
		validate:   validate,
		translator: translator,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err))
		}
		os.Exit(1)
	}
}

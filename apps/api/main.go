package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // /debug/pprof
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	echoapi "github.com/kelna-terese/EvalX/apps/api/echo"
	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/evaluation"
	"github.com/kelna-terese/EvalX/core/report"
	"github.com/kelna-terese/EvalX/core/submission"
	"github.com/kelna-terese/EvalX/core/team"
	"github.com/kelna-terese/EvalX/core/user"
	emailsvc "github.com/kelna-terese/EvalX/services/email"
	"github.com/kelna-terese/EvalX/services/export"
	"github.com/kelna-terese/EvalX/services/filestore"
	logsvc "github.com/kelna-terese/EvalX/services/logger"
	metricsvc "github.com/kelna-terese/EvalX/services/metrics"
	"github.com/kelna-terese/EvalX/storage/database"
	inmemdb "github.com/kelna-terese/EvalX/storage/database/inmem"
	sqlxrepos "github.com/kelna-terese/EvalX/storage/database/sqlx"
)

// repositories are the storage backend of the services.
type repositories struct {
	users       user.Repository
	teams       team.Repository
	members     evaluation.Repository
	submissions submission.Repository
	tx          core.Transactor
	close       func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	dbLogger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	dbLogger.Enable(!conf.Debug)

	// set up storage
	repos, err := setUpStorage(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s storage: %v", conf.Storage, err), err)
	}
	defer func() {
		if err = repos.close(); err != nil {
			dbLogger.Fatal("Failed to close", err)
		}
	}()

	metrics := metricsvc.New()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger, metrics.NotificationsFailed)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger, metrics.NotificationsFailed)
	}
	files := filestore.NewLocal(conf.UploadDir, "/uploads")

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	team.InitValidators(validate)
	evaluation.InitValidators(validate, translator)

	core.ParseEmailTemplates(conf, logger)

	user.LoadCommonPasswords(conf, logger)

	usrSvc := user.NewService(repos.users)
	evalSvc := evaluation.NewService(repos.members, repos.tx, validate)
	teamSvc := team.NewService(repos.teams, repos.members, usrSvc, repos.tx, mailSvc, logger, validate)
	submissionSvc := submission.NewService(repos.submissions, files, usrSvc, mailSvc, logger, validate)
	reportSvc := report.NewService(evalSvc, teamSvc)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("storage").Set(conf.Storage)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(
		echoapi.ServerDeps{
			Conf:          conf,
			Logger:        logger,
			Metrics:       metrics,
			Validate:      validate,
			Translator:    translator,
			UserSvc:       usrSvc,
			TeamSvc:       teamSvc,
			EvalSvc:       evalSvc,
			SubmissionSvc: submissionSvc,
			ReportSvc:     reportSvc,
			Renderers: map[string]report.Renderer{
				"csv":  export.CSV{},
				"xlsx": export.XLSX{},
			},
		},
	)

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Fatal(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Fatal(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}
}

func setUpStorage(conf *core.Config) (*repositories, error) {
	switch conf.Storage {
	case core.StorageMemory:
		db := inmemdb.Open()
		return &repositories{
			users:       inmemdb.NewUserRepository(db),
			teams:       inmemdb.NewTeamRepository(db),
			members:     inmemdb.NewMemberRepository(db),
			submissions: inmemdb.NewSubmissionRepository(db),
			tx:          db,
			close:       func() error { return nil },
		}, nil

	case core.StoragePostgres:
		db, err := setUpDB(conf)
		if err != nil {
			return nil, err
		}
		return &repositories{
			users:       sqlxrepos.NewUserRepository(db),
			teams:       sqlxrepos.NewTeamRepository(db),
			members:     sqlxrepos.NewMemberRepository(db),
			submissions: sqlxrepos.NewSubmissionRepository(db),
			tx:          sqlxrepos.NewTransactor(db),
			close:       db.Close,
		}, nil
	}
	return nil, fmt.Errorf("unknown storage %q", conf.Storage)
}

func setUpDB(conf *core.Config) (*sqlx.DB, error) {
	if err := database.CreateIfNotExist(conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}

	if err = database.Migrate(db.DB, "up"); err != nil {
		return nil, err
	}
	return db, nil
}

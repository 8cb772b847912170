package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/evaluation"
	"github.com/kelna-terese/EvalX/core/report"
	"github.com/kelna-terese/EvalX/core/submission"
	"github.com/kelna-terese/EvalX/core/team"
	"github.com/kelna-terese/EvalX/core/user"
	metricsvc "github.com/kelna-terese/EvalX/services/metrics"
)

type (
	ServerDeps struct {
		Conf       *core.Config
		Logger     core.Logger
		Metrics    *metricsvc.Metrics
		Validate   *validator.Validate
		Translator ut.Translator

		UserSvc       *user.Service
		TeamSvc       *team.Service
		EvalSvc       *evaluation.Service
		SubmissionSvc *submission.Service
		ReportSvc     *report.Service

		// Renderers maps a report format (eg. "xlsx") to its renderer; JSON is always available.
		Renderers map[string]report.Renderer
	}

	Server struct {
		deps     ServerDeps
		app      *echo.Echo
		errors   chan error
		shutdown chan os.Signal
	}
)

var _ http.Handler = (*Server)(nil) // interface compliance check

func NewServer(deps ServerDeps) *Server {
	s := &Server{
		deps:     deps,
		app:      echo.New(),
		errors:   make(chan error, 1),
		shutdown: make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	conf := s.deps.Conf

	s.app.HideBanner = true
	s.app.Debug = conf.Debug
	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.deps.Logger, s.deps.Translator, s.signalShutdown)

	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(metricsMiddleware(s.deps.Metrics))
	if !conf.TestMode {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(conf.Debug || conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}

	s.app.GET("/", home)
	s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics.Handler()))
	s.app.Static("/uploads", conf.UploadDir)

	v1 := s.app.Group("/v1")
	jwt := middleware.JWTWithConfig(jwtConfig(conf))

	registerUserAPI(v1, jwt, s.deps)
	registerTeamAPI(v1, jwt, s.deps)
	registerDashboardAPI(v1, jwt, s.deps)
	registerScoreAPI(v1, jwt, s.deps)
	registerSlotAPI(v1, jwt, s.deps)
	registerReportAPI(v1, jwt, s.deps)
}

// Start blocks serving requests; a failure to serve is sent to Errors.
func (s *Server) Start() {
	if err := s.app.Start(s.deps.Conf.Server.Addr); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

// ShutdownSignal receives interrupts and internal shutdown requests.
func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default: // already shutting down
	}
}

func (s *Server) Shutdown(ctx context.Context) error {
	signal.Stop(s.shutdown)
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.app.ServeHTTP(w, r)
}

func home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to EvalX API!")
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/evaluation"
	"github.com/kelna-terese/EvalX/core/team"
	"github.com/kelna-terese/EvalX/core/user"
	metricsvc "github.com/kelna-terese/EvalX/services/metrics"
)

// Registration results
const (
	registrationOK      = "registered"
	registrationInvalid = "invalid"
	registrationNoGuide = "no_guide"
	registrationFailed  = "failed"
)

type teamApi struct {
	svc     *team.Service
	metrics *metricsvc.Metrics
}

func registerTeamAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := teamApi{
		svc:     deps.TeamSvc,
		metrics: deps.Metrics,
	}
	coordinatorOnly := roleMiddleware(user.RoleCoordinator)

	tg := g.Group("/teams")

	// un-authed endpoints
	tg.POST("/register", api.register)

	// authed endpoints
	ag := tg.Group("", jwt, roleMiddleware(user.StaffRoles...))
	ag.GET("", api.query)
	ag.GET("/:id", api.retrieve)
	ag.POST("/:id/approve", api.approve, coordinatorOnly)
	ag.POST("/:id/reopen", api.reopen, coordinatorOnly)
}

// TeamView is a Team along with its scored members.
type TeamView struct {
	team.Team
	Members []evaluation.ScoredMember `json:"members"`
}

func newTeamView(t team.Team) TeamView {
	return TeamView{Team: t, Members: evaluation.Score(t.Members...)}
}

func newTeamViews(teams []team.Team) []TeamView {
	views := make([]TeamView, 0, len(teams))
	for _, t := range teams {
		views = append(views, newTeamView(t))
	}
	return views
}

// Handlers

func (api *teamApi) register(ctx echo.Context) error {
	var data team.Registration
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Registration")
	}
	if err := api.svc.ValidateRegistration(ctx.Request().Context(), &data); err != nil {
		api.metrics.Registrations.WithLabelValues(registrationInvalid).Inc()
		return err
	}

	t, err := api.svc.Register(ctx.Request().Context(), data)
	if err != nil {
		// uniqueness races lost to a concurrent registration
		switch cause := errors.Cause(err); cause {
		case evaluation.ErrRegNumberExists:
			err = core.NewValidationError(cause, core.FieldError{Field: "members", Error: cause.Error()})
		case user.ErrEmailExists:
			err = core.NewValidationError(cause, core.FieldError{Field: "email", Error: cause.Error()})
		}

		switch {
		case errors.Cause(err) == team.ErrNoGuideAvailable:
			api.metrics.Registrations.WithLabelValues(registrationNoGuide).Inc()
		case isClientError(err):
			api.metrics.Registrations.WithLabelValues(registrationInvalid).Inc()
		default:
			api.metrics.Registrations.WithLabelValues(registrationFailed).Inc()
		}
		return errors.Wrap(err, "registering team")
	}
	api.metrics.Registrations.WithLabelValues(registrationOK).Inc()

	return ctx.JSON(http.StatusCreated, newTeamView(t))
}

// query lists teams with their members: newest first for coordinators, by ID otherwise.
func (api *teamApi) query(ctx echo.Context) error {
	ordering := team.ByID
	if contextHasAnyRole(ctx, []string{user.RoleCoordinator}) {
		ordering = team.ByNewest
	}
	teams, err := api.svc.Query(ctx.Request().Context(), nil, ordering)
	if err != nil {
		return errors.Wrap(err, "querying teams")
	}
	return ctx.JSON(http.StatusOK, newTeamViews(teams))
}

func (api *teamApi) retrieve(ctx echo.Context) error {
	t, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding team by ID")
	}
	// guides only see the teams they supervise
	if claims, _ := getContextClaims(ctx); claims.Role == user.RoleGuide && claims.Subject != t.GuideID {
		return errHttpNotFound
	}
	return ctx.JSON(http.StatusOK, newTeamView(t))
}

func (api *teamApi) approve(ctx echo.Context) error {
	var data team.ApproveTitle
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ApproveTitle")
	}
	t, err := api.svc.ApproveTitle(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "approving title")
	}
	return ctx.JSON(http.StatusOK, t)
}

func (api *teamApi) reopen(ctx echo.Context) error {
	t, err := api.svc.Reopen(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "reopening title")
	}
	return ctx.JSON(http.StatusOK, t)
}

// isClientError reports whether err is the caller's fault rather than a server failure.
func isClientError(err error) bool {
	switch errors.Cause(err).(type) {
	case *core.ValidationError, *core.MissingReference:
		return true
	}
	return false
}

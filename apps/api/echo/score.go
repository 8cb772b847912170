package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kelna-terese/EvalX/core/evaluation"
	"github.com/kelna-terese/EvalX/core/user"
	metricsvc "github.com/kelna-terese/EvalX/services/metrics"
)

// Batch kinds
const (
	batchSheet2     = "sheet2"
	batchReport     = "report"
	batchAttendance = "attendance"
)

type scoreApi struct {
	svc     *evaluation.Service
	metrics *metricsvc.Metrics
}

func registerScoreAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := scoreApi{
		svc:     deps.EvalSvc,
		metrics: deps.Metrics,
	}
	coordinatorOnly := roleMiddleware(user.RoleCoordinator)

	sg := g.Group("/scores", jwt, roleMiddleware(user.StaffRoles...))
	sg.GET("/rubric", api.rubric)
	sg.GET("/members", api.members)
	sg.PUT("/review/:cycle", api.submitReviews)
	sg.PUT("/report", api.submitReports)
	sg.PUT("/sheet2", api.submitSheet2, coordinatorOnly)
	sg.PUT("/attendance", api.submitAttendance, coordinatorOnly)
}

// contextScope is the scope of the members the context user evaluates.
func contextScope(ctx echo.Context) (evaluation.Scope, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return evaluation.Scope{}, errors.Wrap(err, "getting context claims")
	}
	e, ok := evaluation.EvaluatorForRole(claims.Role)
	if !ok {
		return evaluation.Scope{}, errHttpForbidden
	}
	return evaluation.Scope{Evaluator: e, GuideID: claims.Subject}, nil
}

// Handlers

func (api *scoreApi) rubric(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, echo.Map{
		"review": evaluation.ReviewItems,
		"sheet2": evaluation.Sheet2Items,
	})
}

func (api *scoreApi) members(ctx echo.Context) error {
	scope, err := contextScope(ctx)
	if err != nil {
		return err
	}
	return api.respondMembers(ctx, scope)
}

func (api *scoreApi) submitReviews(ctx echo.Context) error {
	scope, err := contextScope(ctx)
	if err != nil {
		return err
	}
	var batch evaluation.ReviewBatch
	if err = ctx.Bind(&batch); err != nil {
		return errors.Wrap(err, "binding to ReviewBatch")
	}
	batch.Cycle = evaluation.Cycle(ctx.Param("cycle"))

	if err = api.svc.SubmitReviews(ctx.Request().Context(), scope, batch); err != nil {
		return errors.Wrap(err, "submitting reviews")
	}
	api.metrics.ScoreBatches.WithLabelValues(string(batch.Cycle), string(scope.Evaluator)).Inc()
	return api.respondMembers(ctx, scope)
}

func (api *scoreApi) submitReports(ctx echo.Context) error {
	scope, err := contextScope(ctx)
	if err != nil {
		return err
	}
	var batch evaluation.MarkBatch
	if err = ctx.Bind(&batch); err != nil {
		return errors.Wrap(err, "binding to MarkBatch")
	}

	if err = api.svc.SubmitReports(ctx.Request().Context(), scope, batch); err != nil {
		return errors.Wrap(err, "submitting reports")
	}
	api.metrics.ScoreBatches.WithLabelValues(batchReport, string(scope.Evaluator)).Inc()
	return api.respondMembers(ctx, scope)
}

func (api *scoreApi) submitSheet2(ctx echo.Context) error {
	var batch evaluation.Sheet2Batch
	if err := ctx.Bind(&batch); err != nil {
		return errors.Wrap(err, "binding to Sheet2Batch")
	}

	if err := api.svc.SubmitSheet2(ctx.Request().Context(), batch); err != nil {
		return errors.Wrap(err, "submitting sheet 2")
	}
	api.metrics.ScoreBatches.WithLabelValues(batchSheet2, string(evaluation.Coordinator)).Inc()
	return api.respondMembers(ctx, evaluation.Scope{Evaluator: evaluation.Coordinator})
}

func (api *scoreApi) submitAttendance(ctx echo.Context) error {
	var batch evaluation.MarkBatch
	if err := ctx.Bind(&batch); err != nil {
		return errors.Wrap(err, "binding to MarkBatch")
	}

	if err := api.svc.SubmitAttendance(ctx.Request().Context(), batch); err != nil {
		return errors.Wrap(err, "submitting attendance")
	}
	api.metrics.ScoreBatches.WithLabelValues(batchAttendance, string(evaluation.Coordinator)).Inc()
	return api.respondMembers(ctx, evaluation.Scope{Evaluator: evaluation.Coordinator})
}

// respondMembers sends the scored members in scope.
func (api *scoreApi) respondMembers(ctx echo.Context, scope evaluation.Scope) error {
	members, err := api.svc.Members(ctx.Request().Context(), scope)
	if err != nil {
		return errors.Wrap(err, "querying members")
	}
	return ctx.JSON(http.StatusOK, evaluation.Score(members...))
}

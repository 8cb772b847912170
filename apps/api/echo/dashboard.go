package echoapi

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/evaluation"
	"github.com/kelna-terese/EvalX/core/submission"
	"github.com/kelna-terese/EvalX/core/team"
	"github.com/kelna-terese/EvalX/core/user"
)

type dashboardApi struct {
	teamSvc       *team.Service
	evalSvc       *evaluation.Service
	submissionSvc *submission.Service
}

func registerDashboardAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := dashboardApi{
		teamSvc:       deps.TeamSvc,
		evalSvc:       deps.EvalSvc,
		submissionSvc: deps.SubmissionSvc,
	}

	dg := g.Group("/dashboard", jwt)
	dg.GET("/team", api.team, roleMiddleware(user.RoleTeam))
	dg.GET("/coordinator", api.coordinator, roleMiddleware(user.RoleCoordinator))
	dg.GET("/hod", api.hod, roleMiddleware(user.RoleHOD))
	dg.GET("/guide", api.guide, roleMiddleware(user.RoleGuide))
}

type (
	TeamDashboard struct {
		Team           TeamView                `json:"team"`
		Slots          []submission.Slot       `json:"slots"`
		Submissions    []submission.Submission `json:"submissions"`
		SubmittedSlots []int64                 `json:"submitted_slots"`
	}

	CoordinatorDashboard struct {
		Teams       []TeamView                                `json:"teams"`
		Slots       map[submission.SlotType]submission.Slot   `json:"slots"`
		Submissions map[string]map[submission.SlotType]string `json:"submissions"`
		Members     []evaluation.ScoredMember                 `json:"members"`
		ServerTime  time.Time                                 `json:"server_time"`
	}
)

// Handlers

func (api *dashboardApi) team(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	rctx := ctx.Request().Context()

	t, err := api.teamSvc.GetByUser(rctx, claims.Subject)
	if err != nil {
		return errors.Wrap(err, "finding team by user")
	}
	slots, err := api.submissionSvc.ActiveSlots(rctx)
	if err != nil {
		return errors.Wrap(err, "querying active slots")
	}
	subs, err := api.submissionSvc.TeamSubmissions(rctx, t.ID)
	if err != nil {
		return errors.Wrap(err, "querying team submissions")
	}

	submitted := make([]int64, 0, len(subs))
	seen := make(map[int64]struct{}, len(subs))
	for _, sub := range subs {
		if _, ok := seen[sub.SlotID]; !ok {
			seen[sub.SlotID] = struct{}{}
			submitted = append(submitted, sub.SlotID)
		}
	}

	return ctx.JSON(http.StatusOK, TeamDashboard{
		Team:           newTeamView(t),
		Slots:          slots,
		Submissions:    subs,
		SubmittedSlots: submitted,
	})
}

func (api *dashboardApi) coordinator(ctx echo.Context) error {
	rctx := ctx.Request().Context()

	teams, err := api.teamSvc.Query(rctx, nil, team.ByNewest)
	if err != nil {
		return errors.Wrap(err, "querying teams")
	}
	slots, err := api.submissionSvc.SlotsByType(rctx)
	if err != nil {
		return errors.Wrap(err, "querying slots")
	}
	subs, err := api.submissionSvc.SubmissionsMap(rctx)
	if err != nil {
		return errors.Wrap(err, "querying submissions")
	}
	members, err := api.evalSvc.Members(rctx, evaluation.Scope{Evaluator: evaluation.Coordinator})
	if err != nil {
		return errors.Wrap(err, "querying members")
	}

	return ctx.JSON(http.StatusOK, CoordinatorDashboard{
		Teams:       newTeamViews(teams),
		Slots:       slots,
		Submissions: subs,
		Members:     evaluation.Score(members...),
		ServerTime:  core.NowFunc().UTC(),
	})
}

func (api *dashboardApi) hod(ctx echo.Context) error {
	teams, err := api.teamSvc.Query(ctx.Request().Context(), nil, team.ByID)
	if err != nil {
		return errors.Wrap(err, "querying teams")
	}
	return ctx.JSON(http.StatusOK, newTeamViews(teams))
}

func (api *dashboardApi) guide(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	teams, err := api.teamSvc.Query(ctx.Request().Context(), &team.QueryFilter{GuideID: claims.Subject}, team.ByID)
	if err != nil {
		return errors.Wrap(err, "querying teams")
	}
	return ctx.JSON(http.StatusOK, newTeamViews(teams))
}

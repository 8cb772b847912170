package echoapi

import (
	"io"
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/submission"
	"github.com/kelna-terese/EvalX/core/team"
	"github.com/kelna-terese/EvalX/core/user"
)

const docFileField = "doc_file"

var errInvalidDate = errors.New("invalid date, expected YYYY-MM-DD or YYYY-MM-DDTHH:MM")

type slotApi struct {
	svc     *submission.Service
	teamSvc *team.Service
}

func registerSlotAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := slotApi{
		svc:     deps.SubmissionSvc,
		teamSvc: deps.TeamSvc,
	}
	coordinatorOnly := roleMiddleware(user.RoleCoordinator)

	sg := g.Group("/slots", jwt)
	sg.GET("", api.query)
	sg.PUT("/:type", api.setDate, coordinatorOnly)
	sg.DELETE("/:type", api.destroy, coordinatorOnly)
	sg.POST("/:id/submissions", api.upload, roleMiddleware(user.RoleTeam))
}

type SetDateRequest struct {
	Date string `json:"date"`
}

// Handlers

// query lists every slot to staff and the active ones to teams.
func (api *slotApi) query(ctx echo.Context) error {
	var slots []submission.Slot
	var err error
	if contextHasAnyRole(ctx, []string{user.RoleTeam}) {
		slots, err = api.svc.ActiveSlots(ctx.Request().Context())
	} else {
		slots, err = api.svc.Slots(ctx.Request().Context())
	}
	if err != nil {
		return errors.Wrap(err, "querying slots")
	}
	return ctx.JSON(http.StatusOK, slots)
}

func (api *slotApi) setDate(ctx echo.Context) error {
	var data SetDateRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetDateRequest")
	}

	in := submission.SetDate{Type: submission.SlotType(core.CleanStringUpper(ctx.Param("type")))}
	if data.Date != "" {
		date, ok := parseDate(data.Date)
		if !ok {
			return core.NewValidationError(errInvalidDate, core.FieldError{Field: "date", Error: errInvalidDate.Error()})
		}
		in.Date = date
	}

	upd, err := api.svc.SetDate(ctx.Request().Context(), in)
	if err != nil {
		return errors.Wrap(err, "setting slot date")
	}
	return ctx.JSON(http.StatusOK, upd)
}

func (api *slotApi) destroy(ctx echo.Context) error {
	t := submission.SlotType(core.CleanStringUpper(ctx.Param("type")))
	if _, err := api.svc.DeleteSlot(ctx.Request().Context(), t); err != nil {
		return errors.Wrap(err, "deleting slot")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *slotApi) upload(ctx echo.Context) error {
	slotID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		return submission.ErrSlotNotFound
	}
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	t, err := api.teamSvc.GetByUser(ctx.Request().Context(), claims.Subject)
	if err != nil {
		return errors.Wrap(err, "finding team by user")
	}

	var filename string
	var content io.Reader
	fh, err := ctx.FormFile(docFileField)
	switch {
	case err == nil:
		f, err := fh.Open()
		if err != nil {
			return errors.Wrap(err, "opening uploaded file")
		}
		defer f.Close()
		filename, content = fh.Filename, f
	case err != http.ErrMissingFile && err != http.ErrNotMultipart:
		return errors.Wrap(err, "reading uploaded file")
	}

	sub, err := api.svc.Upload(ctx.Request().Context(), t.ID, slotID, filename, content)
	if err != nil {
		return errors.Wrap(err, "uploading submission")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

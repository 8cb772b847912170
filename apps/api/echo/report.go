package echoapi

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/kelna-terese/EvalX/core"
	"github.com/kelna-terese/EvalX/core/report"
	"github.com/kelna-terese/EvalX/core/user"
)

const formatJSON = "json"

var errUnsupportedFormat = errors.New("unsupported report format")

type reportApi struct {
	svc       *report.Service
	renderers map[string]report.Renderer
}

func registerReportAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps ServerDeps) {
	api := reportApi{
		svc:       deps.ReportSvc,
		renderers: deps.Renderers,
	}

	rg := g.Group("/reports", jwt, roleMiddleware(user.RoleCoordinator, user.RoleHOD))
	rg.GET("", api.kinds)
	rg.GET("/:kind", api.generate)
}

// Handlers

func (api *reportApi) kinds(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, report.Kinds)
}

func (api *reportApi) generate(ctx echo.Context) error {
	format := strings.ToLower(strings.TrimSpace(ctx.QueryParam("format")))
	if format == "" {
		format = formatJSON
	}
	renderer, ok := api.renderers[format]
	if !ok && format != formatJSON {
		return core.NewValidationError(errUnsupportedFormat, core.FieldError{Field: "format", Error: errUnsupportedFormat.Error()})
	}

	sheet, err := api.svc.Generate(ctx.Request().Context(), report.Kind(ctx.Param("kind")))
	if err != nil {
		return errors.Wrap(err, "generating report")
	}
	if format == formatJSON {
		return ctx.JSON(http.StatusOK, sheet)
	}

	var buf bytes.Buffer
	if err = renderer.Render(&buf, sheet); err != nil {
		return errors.Wrapf(err, "rendering %s report", format)
	}
	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", sheet.Filename+renderer.Extension()))
	return ctx.Blob(http.StatusOK, renderer.ContentType(), buf.Bytes())
}

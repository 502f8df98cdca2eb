package echoweb

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/tutor/core/tutor"
)

type tutorApi struct {
	svc tutor.Service
}

func registerAPI(g *echo.Group, deps Deps) {
	api := tutorApi{svc: deps.TutorSvc}

	g.GET("/events", api.events)
	g.GET("/metrics", api.metrics)
	g.POST("/homework/:id", api.toggleHomework)
}

// Handlers

func (api *tutorApi) events(ctx echo.Context) error {
	dash, err := api.svc.Dashboard(ctx.Request().Context(), getIdentity(ctx), nowFunc())
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, dash.Events)
}

// metrics answers the monthly metrics of the session owner.
// Teachers may pass `name` to get the metrics of one student.
func (api *tutorApi) metrics(ctx echo.Context) error {
	var data MetricsRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MetricsRequest")
	}
	month, err := data.month()
	if err != nil {
		return err
	}

	reqCtx := ctx.Request().Context()
	id := getIdentity(ctx)

	if data.Name != "" && id.IsTeacher() {
		m, err := api.svc.MonthlyReport(reqCtx, data.Name, month)
		if err != nil {
			return errors.Wrap(err, "computing monthly report")
		}
		return ctx.JSON(http.StatusOK, m)
	}

	dash, err := api.svc.Dashboard(reqCtx, id, month)
	if err != nil {
		return errors.Wrap(err, "building dashboard")
	}
	return ctx.JSON(http.StatusOK, dash.Metrics)
}

func (api *tutorApi) toggleHomework(ctx echo.Context) error {
	var data ToggleHomeworkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ToggleHomeworkRequest")
	}
	if err := api.svc.SetHomeworkDone(ctx.Request().Context(), getIdentity(ctx), ctx.Param("id"), data.Done); err != nil {
		return errors.Wrap(err, "updating homework")
	}
	return ctx.NoContent(http.StatusNoContent)
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/fee"
)

type feeApi struct {
	svc fee.Service
}

func registerFeeAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc fee.Service) {
	api := feeApi{svc: svc}

	fg := g.Group("/fee-reminders", jwt)
	fg.POST("", api.create, adminMiddleware())
	fg.GET("", api.query)
	fg.GET("/student/:studentID", api.queryByStudent)
	fg.GET("/:id", api.retrieve)
	fg.PUT("/:id/pay", api.markPaid, adminMiddleware())
	fg.PUT("/:id/overdue", api.markOverdue, adminMiddleware())
	fg.POST("/:id/send", api.send, adminMiddleware())
	fg.DELETE("/:id", api.destroy, adminMiddleware())
}

func (api *feeApi) create(ctx echo.Context) error {
	var data fee.NewReminder
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewReminder")
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	rem, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, rem)
}

func (api *feeApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	reminders, err := api.svc.Query(ctx.Request().Context(), actor)
	if err != nil {
		return err
	}
	if reminders == nil {
		reminders = []fee.Reminder{}
	}
	return ctx.JSON(http.StatusOK, reminders)
}

func (api *feeApi) queryByStudent(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	reminders, err := api.svc.QueryByStudent(ctx.Request().Context(), actor, ctx.Param("studentID"))
	if err != nil {
		return err
	}
	if reminders == nil {
		reminders = []fee.Reminder{}
	}
	return ctx.JSON(http.StatusOK, reminders)
}

func (api *feeApi) retrieve(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	rem, err := api.svc.GetByID(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rem)
}

func (api *feeApi) markPaid(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	rem, err := api.svc.MarkPaid(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rem)
}

func (api *feeApi) markOverdue(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	rem, err := api.svc.MarkOverdue(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, rem)
}

func (api *feeApi) send(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Send(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Reminder sent."})
}

func (api *feeApi) destroy(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/interview"
)

type interviewApi struct {
	svc interview.Service
}

func registerInterviewAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc interview.Service) {
	api := interviewApi{svc: svc}

	ig := g.Group("/mock-interviews", jwt)
	ig.POST("", api.create)
	ig.GET("", api.query)
	ig.GET("/mentor/:mentorID", api.queryByMentor)
	ig.GET("/student/:studentID", api.queryByStudent)
	ig.GET("/:id", api.retrieve)
	ig.PUT("/:id", api.update)
	ig.PUT("/:id/feedback", api.submitFeedback)
	ig.PUT("/:id/cancel", api.cancel)
}

func (api *interviewApi) create(ctx echo.Context) error {
	var data interview.NewMockInterview
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMockInterview")
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	mi, err := api.svc.Schedule(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, mi)
}

func (api *interviewApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	interviews, err := api.svc.Query(ctx.Request().Context(), actor)
	if err != nil {
		return err
	}
	if interviews == nil {
		interviews = []interview.MockInterview{}
	}
	return ctx.JSON(http.StatusOK, interviews)
}

func (api *interviewApi) queryByMentor(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	interviews, err := api.svc.QueryByMentor(ctx.Request().Context(), actor, ctx.Param("mentorID"))
	if err != nil {
		return err
	}
	if interviews == nil {
		interviews = []interview.MockInterview{}
	}
	return ctx.JSON(http.StatusOK, interviews)
}

func (api *interviewApi) queryByStudent(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	interviews, err := api.svc.QueryByStudent(ctx.Request().Context(), actor, ctx.Param("studentID"))
	if err != nil {
		return err
	}
	if interviews == nil {
		interviews = []interview.MockInterview{}
	}
	return ctx.JSON(http.StatusOK, interviews)
}

func (api *interviewApi) retrieve(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	mi, err := api.svc.GetByID(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mi)
}

func (api *interviewApi) update(ctx echo.Context) error {
	var data interview.UpdateMockInterview
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMockInterview")
	}
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	mi, err := api.svc.Update(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mi)
}

func (api *interviewApi) submitFeedback(ctx echo.Context) error {
	var data interview.InterviewFeedback
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to InterviewFeedback")
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	mi, err := api.svc.SubmitFeedback(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mi)
}

func (api *interviewApi) cancel(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	mi, err := api.svc.Cancel(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, mi)
}

package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/elimu/core"
	"github.com/trezcool/elimu/core/enroll"
)

type enrollApi struct {
	svc enroll.Service
}

func registerEnrollAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc enroll.Service) {
	api := enrollApi{svc: svc}

	eg := g.Group("/enrollments", jwt)
	eg.POST("", api.create)
	eg.GET("", api.query)
	eg.GET("/course/:courseID", api.queryByCourse)
	eg.GET("/student/:studentID", api.queryByStudent)
	eg.GET("/:id", api.retrieve)
	eg.PUT("/:id/status", api.setStatus)
	eg.DELETE("/:id", api.destroy)

	cg := g.Group("/certificates", jwt)
	cg.POST("", api.generateCertificate)
	cg.GET("", api.queryCertificates)
	cg.GET("/student/:studentID", api.queryCertificatesByStudent)
	cg.GET("/:id", api.retrieveCertificate)
	cg.POST("/:id/send", api.sendCertificate)
}

func (api *enrollApi) create(ctx echo.Context) error {
	var data enroll.NewEnrollment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEnrollment")
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	enr, err := api.svc.Enroll(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, enr)
}

func (api *enrollApi) query(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	enrollments, err := api.svc.Query(ctx.Request().Context(), actor)
	if err != nil {
		return err
	}
	if enrollments == nil {
		enrollments = []enroll.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *enrollApi) queryByCourse(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	enrollments, err := api.svc.QueryByCourse(ctx.Request().Context(), actor, ctx.Param("courseID"))
	if err != nil {
		return err
	}
	if enrollments == nil {
		enrollments = []enroll.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *enrollApi) queryByStudent(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	enrollments, err := api.svc.QueryByStudent(ctx.Request().Context(), actor, ctx.Param("studentID"))
	if err != nil {
		return err
	}
	if enrollments == nil {
		enrollments = []enroll.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, enrollments)
}

func (api *enrollApi) retrieve(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	enr, err := api.svc.GetByID(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enr)
}

type enrollmentStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=in_progress completed dropped"`
}

func (api *enrollApi) setStatus(ctx echo.Context) error {
	var data enrollmentStatusRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to enrollmentStatusRequest")
	}
	if err := core.Validate.Struct(data); err != nil {
		return err
	}
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	enr, err := api.svc.SetStatus(ctx.Request().Context(), actor, ctx.Param("id"), data.Status)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, enr)
}

func (api *enrollApi) destroy(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.Unenroll(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// Certificates

func (api *enrollApi) generateCertificate(ctx echo.Context) error {
	var data enroll.GenerateCertificate
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to GenerateCertificate")
	}
	if err := data.Validate(core.Validate); err != nil {
		return err
	}
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}

	cert, err := api.svc.GenerateCertificate(ctx.Request().Context(), actor, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, cert)
}

func (api *enrollApi) queryCertificates(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	certs, err := api.svc.QueryCertificates(ctx.Request().Context(), actor)
	if err != nil {
		return err
	}
	if certs == nil {
		certs = []enroll.Certificate{}
	}
	return ctx.JSON(http.StatusOK, certs)
}

func (api *enrollApi) queryCertificatesByStudent(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	certs, err := api.svc.QueryCertificatesByStudent(ctx.Request().Context(), actor, ctx.Param("studentID"))
	if err != nil {
		return err
	}
	if certs == nil {
		certs = []enroll.Certificate{}
	}
	return ctx.JSON(http.StatusOK, certs)
}

func (api *enrollApi) retrieveCertificate(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	cert, err := api.svc.GetCertificate(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, cert)
}

func (api *enrollApi) sendCertificate(ctx echo.Context) error {
	actor, err := getContextActor(ctx)
	if err != nil {
		return err
	}
	if err = api.svc.SendCertificate(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Certificate sent."})
}

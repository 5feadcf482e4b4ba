package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/learnpulse/backend/core/student"
)

type markApi struct {
	svc      *student.Service
	validate *validator.Validate
}

func registerMarkAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *student.Service, validate *validator.Validate) {
	api := markApi{svc: svc, validate: validate}

	mg := g.Group("/marks", jwt)
	mg.GET("", api.query) // any authed role; students only see their own
	mg.POST("", api.create, staffMiddleware())
	mg.PUT("/:id", api.updateScore, staffMiddleware())
	mg.DELETE("/:id", api.destroy, staffMiddleware())
}

// Handlers

func (api *markApi) query(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}

	var marks []student.Mark
	if claims.IsTeacher || claims.IsAdmin {
		if studentID := ctx.QueryParam("student_id"); studentID != "" {
			marks, err = api.svc.MarksForStudent(ctx.Request().Context(), studentID)
		} else {
			marks, err = api.svc.QueryAllMarks(ctx.Request().Context())
		}
	} else {
		// students only get the marks linked to their own record
		if claims.StudentID == "" {
			return errHttpForbidden
		}
		marks, err = api.svc.MarksForStudent(ctx.Request().Context(), claims.StudentID)
	}
	if err != nil {
		return errors.Wrap(err, "querying marks")
	}

	if marks == nil {
		marks = []student.Mark{}
	}
	return ctx.JSON(http.StatusOK, MarkListResponse{Marks: marks, Total: len(marks)})
}

func (api *markApi) create(ctx echo.Context) error {
	var data student.NewMark
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewMark")
	}
	data.Clean()
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	mark, err := api.svc.AddMark(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "adding mark")
	}
	return ctx.JSON(http.StatusCreated, mark)
}

func (api *markApi) updateScore(ctx echo.Context) error {
	var data UpdateMarkRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateMarkRequest")
	}
	if err := api.validate.Struct(&data); err != nil {
		return err
	}

	mark, err := api.svc.UpdateMarkScore(ctx.Request().Context(), ctx.Param("id"), data.Marks)
	if err != nil {
		if errors.Cause(err) == student.ErrMarkNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "updating mark score")
	}
	return ctx.JSON(http.StatusOK, mark)
}

func (api *markApi) destroy(ctx echo.Context) error {
	if err := api.svc.DeleteMark(ctx.Request().Context(), ctx.Param("id")); err != nil {
		if errors.Cause(err) == student.ErrMarkNotFound {
			return errHttpNotFound
		}
		return errors.Wrap(err, "deleting mark")
	}
	return ctx.NoContent(http.StatusNoContent)
}

type (
	MarkListResponse struct {
		Marks []student.Mark `json:"marks"`
		Total int            `json:"total"`
	}

	UpdateMarkRequest struct {
		Marks float64 `json:"marks" validate:"gte=0"`
	}
)

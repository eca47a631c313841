package echoapi

import (
	"bytes"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/gradebook/core"
	"github.com/trezcool/gradebook/core/gradebook"
	"github.com/trezcool/gradebook/services/spreadsheet"
)

var nowFunc = time.Now // mockable

type gradebookApi struct {
	svc gradebook.Service
}

func registerGradebookAPI(g *echo.Group, svc gradebook.Service, maxUploadBytes int64) {
	api := gradebookApi{svc: svc}

	g.GET("/meta", api.meta)
	g.GET("/dashboard", api.dashboard)
	g.POST("/reset", api.reset)

	sg := g.Group("/students")
	sg.GET("", api.queryStudents)
	sg.POST("", api.createStudent)
	sg.GET("/search", api.searchStudents)
	sg.GET("/:id", api.retrieveStudent)
	sg.PUT("/:id", api.updateStudent)
	sg.DELETE("/:id", api.destroyStudent)
	sg.GET("/:id/report", api.studentReport)
	sg.PUT("/:id/grade", api.setOverallGrade)

	ag := g.Group("/assignments")
	ag.GET("", api.queryAssignments)
	ag.POST("", api.createAssignment)
	ag.DELETE("/:id", api.destroyAssignment)

	g.GET("/gradebook", api.gradebook)
	g.PUT("/grades", api.setAssignmentScore)

	cg := g.Group("/classes")
	cg.GET("/:id", api.retrieveClass)
	cg.GET("/:id/export", api.exportClass)
	cg.POST("/:id/import", api.importStudents, uploadLimitMiddleware(maxUploadBytes))
}

// Handlers

func (api *gradebookApi) meta(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Meta())
}

func (api *gradebookApi) dashboard(ctx echo.Context) error {
	var filter gradebook.DashboardFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to DashboardFilter")
	}
	filter.GradeLevel = core.CleanString(filter.GradeLevel)
	filter.Section = core.CleanString(filter.Section)
	return ctx.JSON(http.StatusOK, api.svc.Dashboard(ctx.Request().Context(), filter))
}

func (api *gradebookApi) reset(ctx echo.Context) error {
	if err := api.svc.Reset(ctx.Request().Context()); err != nil {
		return errors.Wrap(err, "resetting data")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Data has been reset to default values."})
}

func (api *gradebookApi) queryStudents(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Students(ctx.Request().Context()))
}

func (api *gradebookApi) searchStudents(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Search(ctx.Request().Context(), ctx.QueryParam("q")))
}

func (api *gradebookApi) createStudent(ctx echo.Context) error {
	var data gradebook.NewStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewStudent")
	}
	st, err := api.svc.AddStudent(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating student")
	}
	return ctx.JSON(http.StatusCreated, st)
}

func (api *gradebookApi) retrieveStudent(ctx echo.Context) error {
	detail, err := api.svc.StudentDetail(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting student")
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *gradebookApi) studentReport(ctx echo.Context) error {
	report, err := api.svc.StudentReport(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "building student report")
	}
	return ctx.JSON(http.StatusOK, report)
}

func (api *gradebookApi) updateStudent(ctx echo.Context) error {
	var data gradebook.UpdateStudent
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateStudent")
	}
	st, err := api.svc.EditStudent(ctx.Request().Context(), ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating student")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *gradebookApi) destroyStudent(ctx echo.Context) error {
	if err := api.svc.DeleteStudent(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting student")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradebookApi) setOverallGrade(ctx echo.Context) error {
	var data gradebook.SetOverallGrade
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetOverallGrade")
	}
	data.StudentID = ctx.Param("id")
	st, err := api.svc.SetOverallGrade(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "setting overall grade")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *gradebookApi) queryAssignments(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, api.svc.Assignments(ctx.Request().Context()))
}

func (api *gradebookApi) createAssignment(ctx echo.Context) error {
	var data gradebook.NewAssignment
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewAssignment")
	}
	a, err := api.svc.AddAssignment(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating assignment")
	}
	return ctx.JSON(http.StatusCreated, a)
}

func (api *gradebookApi) destroyAssignment(ctx echo.Context) error {
	if err := api.svc.DeleteAssignment(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting assignment")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *gradebookApi) gradebook(ctx echo.Context) error {
	view := api.svc.Gradebook(ctx.Request().Context(), ctx.QueryParam("assignment_id"), ctx.QueryParam("class_id"))
	return ctx.JSON(http.StatusOK, view)
}

func (api *gradebookApi) setAssignmentScore(ctx echo.Context) error {
	var data gradebook.SetAssignmentScore
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetAssignmentScore")
	}
	if err := api.svc.SetAssignmentScore(ctx.Request().Context(), data); err != nil {
		return errors.Wrap(err, "setting assignment score")
	}
	return ctx.JSON(http.StatusOK, SuccessResponse{Success: "Grade updated."})
}

func (api *gradebookApi) retrieveClass(ctx echo.Context) error {
	view, err := api.svc.Class(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting class")
	}
	return ctx.JSON(http.StatusOK, view)
}

func (api *gradebookApi) exportClass(ctx echo.Context) error {
	var query ExportQuery
	if err := query.Bind(ctx); err != nil {
		return err
	}
	view, err := api.svc.Class(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting class")
	}

	var buf bytes.Buffer
	if query.Format == formatXLSX {
		err = spreadsheet.WriteXLSX(&buf, view)
	} else {
		err = spreadsheet.WriteCSV(&buf, view)
	}
	if err != nil {
		return errors.Wrap(err, "exporting roster")
	}

	filename := spreadsheet.ExportFilename(view.Class, query.Format, nowFunc())
	ctx.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return ctx.Blob(http.StatusOK, query.mimeType(), buf.Bytes())
}

func (api *gradebookApi) importStudents(ctx echo.Context) error {
	fh, err := ctx.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			return echo.NewHTTPError(http.StatusRequestEntityTooLarge, "file is too large")
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			return core.MissingField("file", "file is required")
		}
		return errors.Wrap(err, "reading upload")
	}
	file, err := fh.Open()
	if err != nil {
		return errors.Wrap(err, "opening upload")
	}
	defer file.Close()

	rows, err := spreadsheet.ReadStudents(file)
	if err != nil {
		return core.InvalidValue("file", "file is not a valid xlsx workbook")
	}
	res, err := api.svc.ImportStudents(ctx.Request().Context(), ctx.Param("id"), rows)
	if err != nil {
		return errors.Wrap(err, "importing students")
	}
	return ctx.JSON(http.StatusOK, res)
}

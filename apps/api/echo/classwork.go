package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core/academy"
	"github.com/trezcool/academia/core/auth"
	"github.com/trezcool/academia/core/classwork"
)

type classworkApi struct {
	svc *classwork.Service
}

type reviewRequest struct {
	Feedback string `json:"feedback"`
}

func registerClassworkAPI(g *echo.Group, jwt echo.MiddlewareFunc, acad *academy.Academy) {
	api := classworkApi{svc: acad.Classwork}
	tch := requireRole(auth.RoleTeacher)
	staff := requireRole(auth.RoleAdmin, auth.RoleTeacher)
	std := requireRole(auth.RoleStudent)

	hg := g.Group("/homework", jwt)
	hg.GET("", api.queryHomework)
	hg.POST("", api.assignHomework, tch)
	hg.GET("/:id", api.retrieveHomework)
	hg.DELETE("/:id", api.destroyHomework, staff)
	hg.GET("/:id/submissions", api.queryHomeworkSubmissions)
	hg.POST("/:id/submissions", api.submitHomework, std)
	g.PUT("/homework-submissions/:id/review", api.reviewHomework, jwt, tch)

	eg := g.Group("/exams", jwt)
	eg.GET("", api.queryExams)
	eg.POST("", api.createExam, tch)
	eg.GET("/:id", api.retrieveExam)
	eg.DELETE("/:id", api.destroyExam, staff)
	eg.GET("/:id/submissions", api.queryExamSubmissions, staff)
	eg.POST("/:id/submissions", api.submitExam, std)
	g.POST("/exam-submissions/:id/grade", api.gradeExam, jwt, tch)
	g.GET("/results", api.queryResults, jwt)

	ng := g.Group("/notes", jwt)
	ng.GET("", api.queryNotes)
	ng.POST("", api.createNote, tch)
	ng.DELETE("/:id", api.destroyNote, staff)
}

// scope restricts students to their class; staff filter with query params,
// teachers defaulting to their own items.
func scope(ctx echo.Context) (classwork.Scope, error) {
	id := contextIdentity(ctx)
	if id.Role == auth.RoleStudent {
		return classwork.ClassScope(id.GradeID, id.SubdivisionID), nil
	}
	var s classwork.Scope
	if err := bind(ctx, &s); err != nil {
		return s, err
	}
	if id.Role == auth.RoleTeacher && s == (classwork.Scope{}) {
		s.TeacherID = id.ID
	}
	return s, nil
}

// Submissions are only open to the class an item is assigned to; teachers grade and review
// their own items or those of the class they are in charge of.

func canSubmit(id auth.Identity, gradeID string, subdivisionID null.String) bool {
	return classwork.InClass(id.GradeID, id.SubdivisionID, gradeID, subdivisionID)
}

func canMark(id auth.Identity, teacherID, gradeID string, subdivisionID null.String) bool {
	return id.ID == teacherID || classwork.InClass(id.GradeID, id.SubdivisionID, gradeID, subdivisionID)
}

// Homework

func (api *classworkApi) assignHomework(ctx echo.Context) error {
	var data classwork.NewHomework
	if err := bind(ctx, &data); err != nil {
		return err
	}
	data.TeacherID = contextIdentity(ctx).ID
	hw, err := api.svc.AssignHomework(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "assigning homework")
	}
	return ctx.JSON(http.StatusCreated, hw)
}

func (api *classworkApi) queryHomework(ctx echo.Context) error {
	s, err := scope(ctx)
	if err != nil {
		return err
	}
	hws, err := api.svc.ListHomework(ctx.Request().Context(), s)
	if err != nil {
		return errors.Wrap(err, "querying homework")
	}
	return ctx.JSON(http.StatusOK, hws)
}

func (api *classworkApi) retrieveHomework(ctx echo.Context) error {
	hw, found, err := api.svc.GetHomework(ctx.Request().Context(), ctx.Param("id"))
	return render(ctx, http.StatusOK, hw, found, err)
}

func (api *classworkApi) destroyHomework(ctx echo.Context) error {
	if err := api.svc.DeleteHomework(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting homework")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classworkApi) submitHomework(ctx echo.Context) error {
	var data classwork.NewHomeworkSubmission
	if err := bind(ctx, &data); err != nil {
		return err
	}
	id := contextIdentity(ctx)
	hw, found, err := api.svc.GetHomework(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting homework")
	}
	if found && !canSubmit(id, hw.GradeID, hw.SubdivisionID) {
		return errHttpForbidden
	}
	data.HomeworkID = ctx.Param("id")
	data.StudentID = id.ID
	data.StudentName = id.Name
	sub, err := api.svc.SubmitHomework(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting homework")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

// queryHomeworkSubmissions lists the submissions of a homework; students only see their own.
func (api *classworkApi) queryHomeworkSubmissions(ctx echo.Context) error {
	var studentID string
	if id := contextIdentity(ctx); id.Role == auth.RoleStudent {
		studentID = id.ID
	}
	subs, err := api.svc.ListHomeworkSubmissions(ctx.Request().Context(), ctx.Param("id"), studentID)
	if err != nil {
		return errors.Wrap(err, "querying homework submissions")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *classworkApi) reviewHomework(ctx echo.Context) error {
	var data reviewRequest
	if err := bind(ctx, &data); err != nil {
		return err
	}
	hw, found, err := api.svc.HomeworkOfSubmission(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting homework")
	}
	if !found {
		return errHttpNotFound
	}
	if !canMark(contextIdentity(ctx), hw.TeacherID, hw.GradeID, hw.SubdivisionID) {
		return errHttpForbidden
	}
	sub, found, err := api.svc.ReviewHomework(ctx.Request().Context(), ctx.Param("id"), data.Feedback)
	return render(ctx, http.StatusOK, sub, found, err)
}

// Exams

func (api *classworkApi) createExam(ctx echo.Context) error {
	var data classwork.NewExam
	if err := bind(ctx, &data); err != nil {
		return err
	}
	data.TeacherID = contextIdentity(ctx).ID
	exam, err := api.svc.CreateExam(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating exam")
	}
	return ctx.JSON(http.StatusCreated, exam)
}

func (api *classworkApi) queryExams(ctx echo.Context) error {
	s, err := scope(ctx)
	if err != nil {
		return err
	}
	exams, err := api.svc.ListExams(ctx.Request().Context(), s)
	if err != nil {
		return errors.Wrap(err, "querying exams")
	}
	return ctx.JSON(http.StatusOK, exams)
}

func (api *classworkApi) retrieveExam(ctx echo.Context) error {
	exam, found, err := api.svc.GetExam(ctx.Request().Context(), ctx.Param("id"))
	return render(ctx, http.StatusOK, exam, found, err)
}

func (api *classworkApi) destroyExam(ctx echo.Context) error {
	if err := api.svc.DeleteExam(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting exam")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *classworkApi) submitExam(ctx echo.Context) error {
	var data classwork.NewExamSubmission
	if err := bind(ctx, &data); err != nil {
		return err
	}
	id := contextIdentity(ctx)
	exam, found, err := api.svc.GetExam(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting exam")
	}
	if found && !canSubmit(id, exam.GradeID, exam.SubdivisionID) {
		return errHttpForbidden
	}
	data.ExamID = ctx.Param("id")
	data.StudentID = id.ID
	data.StudentName = id.Name
	sub, err := api.svc.SubmitExam(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "submitting exam")
	}
	return ctx.JSON(http.StatusCreated, sub)
}

func (api *classworkApi) queryExamSubmissions(ctx echo.Context) error {
	subs, err := api.svc.ListExamSubmissions(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "querying exam submissions")
	}
	return ctx.JSON(http.StatusOK, subs)
}

func (api *classworkApi) gradeExam(ctx echo.Context) error {
	var data classwork.Grading
	if err := bind(ctx, &data); err != nil {
		return err
	}
	exam, found, err := api.svc.ExamOfSubmission(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "getting exam")
	}
	if !found {
		return errHttpNotFound
	}
	if !canMark(contextIdentity(ctx), exam.TeacherID, exam.GradeID, exam.SubdivisionID) {
		return errHttpForbidden
	}
	res, found, err := api.svc.GradeExam(ctx.Request().Context(), ctx.Param("id"), data)
	return render(ctx, http.StatusCreated, res, found, err)
}

// queryResults lists exam results; students only see their own.
func (api *classworkApi) queryResults(ctx echo.Context) error {
	var filter classwork.ResultFilter
	if err := bind(ctx, &filter); err != nil {
		return err
	}
	if id := contextIdentity(ctx); id.Role == auth.RoleStudent {
		filter.StudentID = id.ID
	}
	results, err := api.svc.ListResults(ctx.Request().Context(), filter)
	if err != nil {
		return errors.Wrap(err, "querying results")
	}
	return ctx.JSON(http.StatusOK, results)
}

// Study notes

func (api *classworkApi) createNote(ctx echo.Context) error {
	var data classwork.NewStudyNote
	if err := bind(ctx, &data); err != nil {
		return err
	}
	data.TeacherID = contextIdentity(ctx).ID
	note, err := api.svc.CreateNote(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "creating note")
	}
	return ctx.JSON(http.StatusCreated, note)
}

func (api *classworkApi) queryNotes(ctx echo.Context) error {
	s, err := scope(ctx)
	if err != nil {
		return err
	}
	notes, err := api.svc.ListNotes(ctx.Request().Context(), s)
	if err != nil {
		return errors.Wrap(err, "querying notes")
	}
	return ctx.JSON(http.StatusOK, notes)
}

func (api *classworkApi) destroyNote(ctx echo.Context) error {
	if err := api.svc.DeleteNote(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting note")
	}
	return ctx.NoContent(http.StatusNoContent)
}

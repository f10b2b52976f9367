package classwork

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/tests"
)

func setup() *Service {
	db, _ := testutil.NewStore()
	return NewService(db, testutil.NewValidator())
}

func TestScopeFilter(t *testing.T) {
	f := ClassScope("g1", "s1").filter()
	assert.Len(t, f.Where, 1)
	assert.Len(t, f.AnyOf, 2)

	f = Scope{GradeID: "g1", SubdivisionID: "s1", TeacherID: "t1"}.filter()
	assert.Len(t, f.Where, 3)
	assert.Empty(t, f.AnyOf)
}

func TestInClass(t *testing.T) {
	assert.True(t, InClass("g1", "sA", "g1", null.StringFrom("sA")))
	assert.True(t, InClass("g1", "sB", "g1", null.String{}), "grade-wide")
	assert.False(t, InClass("g1", "sB", "g1", null.StringFrom("sA")))
	assert.False(t, InClass("g2", "sA", "g1", null.String{}))
	assert.False(t, InClass("", "", "", null.String{}), "no class")
}

func TestService_Homework(t *testing.T) {
	svc := setup()
	ctx := context.Background()

	divA, err := svc.AssignHomework(ctx, NewHomework{GradeID: "g1", SubdivisionID: "sA", TeacherID: "t1", Title: "Fractions", DueDate: "2024-06-10"})
	require.NoError(t, err)
	gradeWide, err := svc.AssignHomework(ctx, NewHomework{GradeID: "g1", TeacherID: "t1", Title: "Essay", DueDate: "2024-06-12"})
	require.NoError(t, err)
	_, err = svc.AssignHomework(ctx, NewHomework{GradeID: "g1", SubdivisionID: "sB", TeacherID: "t2", Title: "Maps"})
	require.NoError(t, err)
	_, err = svc.AssignHomework(ctx, NewHomework{GradeID: "g1", Title: "No date", DueDate: "tomorrow"})
	assert.Error(t, err)

	hw, err := svc.ListHomework(ctx, ClassScope("g1", "sA"))
	require.NoError(t, err)
	assert.Equal(t, []Homework{gradeWide, divA}, hw)

	hw, err = svc.ListHomework(ctx, Scope{TeacherID: "t2"})
	require.NoError(t, err)
	assert.Len(t, hw, 1)

	// submit, resubmit, review, then resubmission is rejected
	sub, err := svc.SubmitHomework(ctx, NewHomeworkSubmission{HomeworkID: divA.ID, StudentID: "st1", StudentName: "Aarav", Content: "1/2"})
	require.NoError(t, err)
	assert.False(t, sub.Reviewed)
	resub, err := svc.SubmitHomework(ctx, NewHomeworkSubmission{HomeworkID: divA.ID, StudentID: "st1", StudentName: "Aarav", Content: "3/4"})
	require.NoError(t, err)
	assert.Equal(t, sub.ID, resub.ID)
	assert.Equal(t, "3/4", resub.Content)

	of, found, err := svc.HomeworkOfSubmission(ctx, sub.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, divA, of)
	_, found, err = svc.HomeworkOfSubmission(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	subs, err := svc.ListHomeworkSubmissions(ctx, divA.ID, "")
	require.NoError(t, err)
	assert.Len(t, subs, 1)

	reviewed, found, err := svc.ReviewHomework(ctx, sub.ID, " Well done ")
	require.NoError(t, err)
	require.True(t, found)
	assert.True(t, reviewed.Reviewed)
	assert.Equal(t, "Well done", reviewed.Feedback)

	_, err = svc.SubmitHomework(ctx, NewHomeworkSubmission{HomeworkID: divA.ID, StudentID: "st1", Content: "again"})
	assert.True(t, core.IsValidationError(err))
	_, err = svc.SubmitHomework(ctx, NewHomeworkSubmission{HomeworkID: "missing", StudentID: "st1", Content: "x"})
	assert.True(t, core.IsValidationError(err))
	_, err = svc.SubmitHomework(ctx, NewHomeworkSubmission{HomeworkID: divA.ID, StudentID: "st2"})
	assert.Error(t, err, "content or attachment is required")

	require.NoError(t, svc.DeleteHomework(ctx, divA.ID))
	subs, err = svc.ListHomeworkSubmissions(ctx, "", "st1")
	require.NoError(t, err)
	assert.Empty(t, subs)
}

func TestService_Exams(t *testing.T) {
	svc := setup()
	ctx := context.Background()

	exam, err := svc.CreateExam(ctx, NewExam{GradeID: "g1", SubdivisionID: "sA", TeacherID: "t1", Title: "Algebra", TotalMarks: 50, ExamDate: "2024-06-20", DurationMinutes: 60})
	require.NoError(t, err)
	_, err = svc.CreateExam(ctx, NewExam{GradeID: "g1", Title: "No marks", ExamDate: "2024-06-20"})
	assert.Error(t, err)

	exams, err := svc.ListExams(ctx, ClassScope("g1", "sA"))
	require.NoError(t, err)
	assert.Equal(t, []Exam{exam}, exams)

	sub, err := svc.SubmitExam(ctx, NewExamSubmission{ExamID: exam.ID, StudentID: "st1", StudentName: "Aarav", Answers: "x=2"})
	require.NoError(t, err)
	resub, err := svc.SubmitExam(ctx, NewExamSubmission{ExamID: exam.ID, StudentID: "st1", StudentName: "Aarav", Answers: "x=3"})
	require.NoError(t, err)
	assert.Equal(t, sub.ID, resub.ID)

	of, found, err := svc.ExamOfSubmission(ctx, sub.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, exam, of)

	_, _, err = svc.GradeExam(ctx, sub.ID, Grading{Marks: 51})
	assert.True(t, core.IsValidationError(err), "marks above total")
	_, _, err = svc.GradeExam(ctx, sub.ID, Grading{Marks: -1})
	assert.Error(t, err)

	res, found, err := svc.GradeExam(ctx, sub.ID, Grading{Marks: 42, Remarks: "Good"})
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, 42.0, res.Marks)
	assert.Equal(t, 50.0, res.TotalMarks)
	assert.Equal(t, "st1", res.StudentID)

	subs, err := svc.ListExamSubmissions(ctx, exam.ID)
	require.NoError(t, err)
	require.Len(t, subs, 1)
	assert.True(t, subs[0].Locked)

	_, err = svc.SubmitExam(ctx, NewExamSubmission{ExamID: exam.ID, StudentID: "st1", Answers: "x=4"})
	assert.True(t, core.IsValidationError(err), "graded submissions are locked")
	_, _, err = svc.GradeExam(ctx, sub.ID, Grading{Marks: 50})
	assert.True(t, core.IsValidationError(err))

	results, err := svc.ListResults(ctx, ResultFilter{StudentID: "st1"})
	require.NoError(t, err)
	assert.Equal(t, []ExamResult{res}, results)

	require.NoError(t, svc.DeleteExam(ctx, exam.ID))
	results, err = svc.ListResults(ctx, ResultFilter{ExamID: exam.ID})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestService_Notes(t *testing.T) {
	svc := setup()
	ctx := context.Background()

	note, err := svc.CreateNote(ctx, NewStudyNote{GradeID: "g1", TeacherID: "t1", Title: "Photosynthesis", FileURL: "https://cdn.localhost/notes.pdf"})
	require.NoError(t, err)
	_, err = svc.CreateNote(ctx, NewStudyNote{GradeID: "g1", Title: "Bad", FileURL: "notes.pdf"})
	assert.Error(t, err)

	notes, err := svc.ListNotes(ctx, ClassScope("g1", "sA"))
	require.NoError(t, err)
	assert.Equal(t, []StudyNote{note}, notes)

	require.NoError(t, svc.DeleteNote(ctx, note.ID))
	notes, err = svc.ListNotes(ctx, Scope{GradeID: "g1"})
	require.NoError(t, err)
	assert.Empty(t, notes)
}

// Package classwork manages what teachers hand out to their classes (homework, exams, study notes)
// and what students hand back.
package classwork

import (
	"context"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/store"
)

var (
	ErrAlreadyReviewed = errors.New("this submission was already reviewed")
	ErrLocked          = errors.New("this exam submission is locked")
	ErrUnknownHomework = errors.New("unknown homework")
	ErrUnknownExam     = errors.New("unknown exam")
)

type Service struct {
	store    store.Store
	validate *validator.Validate
}

func NewService(st store.Store, validate *validator.Validate) *Service {
	return &Service{store: st, validate: validate}
}

func (svc *Service) insert(ctx context.Context, collection string, input interface{}, row store.Row) (store.Row, error) {
	if err := svc.validate.Struct(input); err != nil {
		return nil, err
	}
	inserted, err := store.InsertOne(ctx, svc.store, collection, row)
	return inserted, errors.Wrapf(err, "creating %s", collection)
}

func (svc *Service) selectAll(ctx context.Context, collection string, f store.Filter) ([]store.Row, error) {
	rows, err := svc.store.Select(ctx, collection, f)
	return rows, errors.Wrapf(err, "listing %s", collection)
}

func (svc *Service) selectByID(ctx context.Context, collection, id string) (store.Row, bool, error) {
	row, found, err := store.SelectByID(ctx, svc.store, collection, id)
	return row, found, errors.Wrapf(err, "getting %s", collection)
}

func (svc *Service) delete(ctx context.Context, collection, id string) error {
	return errors.Wrapf(svc.store.Delete(ctx, collection, id), "deleting %s", collection)
}

// Homework

func (svc *Service) AssignHomework(ctx context.Context, nh NewHomework) (Homework, error) {
	row, err := svc.insert(ctx, store.Homework, nh, nh.toRow())
	if err != nil {
		return Homework{}, err
	}
	return homeworkFromRow(row), nil
}

// ListHomework returns the homework of scope, latest due date first.
func (svc *Service) ListHomework(ctx context.Context, scope Scope) ([]Homework, error) {
	rows, err := svc.selectAll(ctx, store.Homework, scope.filter(core.Desc("due_date"), core.Desc("created_at")))
	if err != nil {
		return nil, err
	}
	homework := make([]Homework, 0, len(rows))
	for _, r := range rows {
		homework = append(homework, homeworkFromRow(r))
	}
	return homework, nil
}

func (svc *Service) GetHomework(ctx context.Context, id string) (Homework, bool, error) {
	row, found, err := svc.selectByID(ctx, store.Homework, id)
	if err != nil || !found {
		return Homework{}, false, err
	}
	return homeworkFromRow(row), true, nil
}

// DeleteHomework deletes a homework and, by cascade, its submissions.
func (svc *Service) DeleteHomework(ctx context.Context, id string) error {
	return svc.delete(ctx, store.Homework, id)
}

// SubmitHomework records a student's submission. Resubmitting replaces the previous one until it is reviewed.
func (svc *Service) SubmitHomework(ctx context.Context, ns NewHomeworkSubmission) (HomeworkSubmission, error) {
	if err := svc.validate.Struct(ns); err != nil {
		return HomeworkSubmission{}, err
	}
	if _, found, err := svc.selectByID(ctx, store.Homework, ns.HomeworkID); err != nil {
		return HomeworkSubmission{}, err
	} else if !found {
		return HomeworkSubmission{}, core.NewFieldError("homeworkId", ErrUnknownHomework.Error())
	}

	changes := store.Row{
		"content":        ns.Content,
		"attachment_url": ns.AttachmentURL,
		"submitted_at":   core.NowFunc(),
	}
	prev, found, err := store.SelectOne(ctx, svc.store, store.HomeworkSubmissions,
		store.Where(store.Eq("homework_id", ns.HomeworkID), store.Eq("student_id", ns.StudentID)))
	if err != nil {
		return HomeworkSubmission{}, errors.Wrap(err, "getting homework submission")
	}
	if found {
		if prev.Bool("reviewed") {
			return HomeworkSubmission{}, core.NewFieldError("homeworkId", ErrAlreadyReviewed.Error())
		}
		row, err := svc.store.Update(ctx, store.HomeworkSubmissions, prev.String("id"), changes)
		if err != nil {
			return HomeworkSubmission{}, errors.Wrap(err, "updating homework submission")
		}
		if row != nil {
			return homeworkSubmissionFromRow(row), nil
		}
	}

	changes["homework_id"] = ns.HomeworkID
	changes["student_id"] = ns.StudentID
	changes["student_name"] = ns.StudentName
	changes["feedback"] = ""
	changes["reviewed"] = false
	row, err := store.InsertOne(ctx, svc.store, store.HomeworkSubmissions, changes)
	if err != nil {
		return HomeworkSubmission{}, errors.Wrap(err, "creating homework submission")
	}
	return homeworkSubmissionFromRow(row), nil
}

// ListHomeworkSubmissions filters submissions by homework and/or student.
func (svc *Service) ListHomeworkSubmissions(ctx context.Context, homeworkID, studentID string) ([]HomeworkSubmission, error) {
	f := store.Filter{OrderBy: []core.DBOrdering{core.Desc("submitted_at")}}
	if homeworkID != "" {
		f.Where = append(f.Where, store.Eq("homework_id", homeworkID))
	}
	if studentID != "" {
		f.Where = append(f.Where, store.Eq("student_id", studentID))
	}
	rows, err := svc.selectAll(ctx, store.HomeworkSubmissions, f)
	if err != nil {
		return nil, err
	}
	subs := make([]HomeworkSubmission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, homeworkSubmissionFromRow(r))
	}
	return subs, nil
}

// HomeworkOfSubmission returns the homework a submission answers.
func (svc *Service) HomeworkOfSubmission(ctx context.Context, submissionID string) (Homework, bool, error) {
	row, found, err := svc.selectByID(ctx, store.HomeworkSubmissions, submissionID)
	if err != nil || !found {
		return Homework{}, false, err
	}
	return svc.GetHomework(ctx, row.String("homework_id"))
}

// ReviewHomework stores the teacher's feedback; a reviewed submission cannot be replaced.
func (svc *Service) ReviewHomework(ctx context.Context, submissionID, feedback string) (HomeworkSubmission, bool, error) {
	row, err := svc.store.Update(ctx, store.HomeworkSubmissions, submissionID, store.Row{
		"feedback": core.CleanString(feedback),
		"reviewed": true,
	})
	if err != nil {
		return HomeworkSubmission{}, false, errors.Wrap(err, "reviewing homework submission")
	}
	if row == nil {
		return HomeworkSubmission{}, false, nil
	}
	return homeworkSubmissionFromRow(row), true, nil
}

// Exams

func (svc *Service) CreateExam(ctx context.Context, ne NewExam) (Exam, error) {
	row, err := svc.insert(ctx, store.Exams, ne, ne.toRow())
	if err != nil {
		return Exam{}, err
	}
	return examFromRow(row), nil
}

func (svc *Service) ListExams(ctx context.Context, scope Scope) ([]Exam, error) {
	rows, err := svc.selectAll(ctx, store.Exams, scope.filter(core.Desc("exam_date"), core.Desc("created_at")))
	if err != nil {
		return nil, err
	}
	exams := make([]Exam, 0, len(rows))
	for _, r := range rows {
		exams = append(exams, examFromRow(r))
	}
	return exams, nil
}

func (svc *Service) GetExam(ctx context.Context, id string) (Exam, bool, error) {
	row, found, err := svc.selectByID(ctx, store.Exams, id)
	if err != nil || !found {
		return Exam{}, false, err
	}
	return examFromRow(row), true, nil
}

// DeleteExam deletes an exam and, by cascade, its submissions and results.
func (svc *Service) DeleteExam(ctx context.Context, id string) error {
	return svc.delete(ctx, store.Exams, id)
}

// SubmitExam records a student's answers. Resubmitting replaces them until the submission is graded.
func (svc *Service) SubmitExam(ctx context.Context, ns NewExamSubmission) (ExamSubmission, error) {
	if err := svc.validate.Struct(ns); err != nil {
		return ExamSubmission{}, err
	}
	if _, found, err := svc.selectByID(ctx, store.Exams, ns.ExamID); err != nil {
		return ExamSubmission{}, err
	} else if !found {
		return ExamSubmission{}, core.NewFieldError("examId", ErrUnknownExam.Error())
	}

	prev, found, err := store.SelectOne(ctx, svc.store, store.ExamSubmissions,
		store.Where(store.Eq("exam_id", ns.ExamID), store.Eq("student_id", ns.StudentID)))
	if err != nil {
		return ExamSubmission{}, errors.Wrap(err, "getting exam submission")
	}
	if found {
		if prev.Bool("locked") {
			return ExamSubmission{}, core.NewFieldError("examId", ErrLocked.Error())
		}
		row, err := svc.store.Update(ctx, store.ExamSubmissions, prev.String("id"), store.Row{
			"answers":      ns.Answers,
			"submitted_at": core.NowFunc(),
		})
		if err != nil {
			return ExamSubmission{}, errors.Wrap(err, "updating exam submission")
		}
		if row != nil {
			return examSubmissionFromRow(row), nil
		}
	}

	row, err := store.InsertOne(ctx, svc.store, store.ExamSubmissions, store.Row{
		"exam_id":      ns.ExamID,
		"student_id":   ns.StudentID,
		"student_name": ns.StudentName,
		"answers":      ns.Answers,
		"submitted_at": core.NowFunc(),
		"locked":       false,
	})
	if err != nil {
		return ExamSubmission{}, errors.Wrap(err, "creating exam submission")
	}
	return examSubmissionFromRow(row), nil
}

func (svc *Service) ListExamSubmissions(ctx context.Context, examID string) ([]ExamSubmission, error) {
	rows, err := svc.selectAll(ctx, store.ExamSubmissions, store.Filter{
		Where:   []store.Cond{store.Eq("exam_id", examID)},
		OrderBy: []core.DBOrdering{core.Asc("student_name")},
	})
	if err != nil {
		return nil, err
	}
	subs := make([]ExamSubmission, 0, len(rows))
	for _, r := range rows {
		subs = append(subs, examSubmissionFromRow(r))
	}
	return subs, nil
}

// ExamOfSubmission returns the exam a submission answers.
func (svc *Service) ExamOfSubmission(ctx context.Context, submissionID string) (Exam, bool, error) {
	row, found, err := svc.selectByID(ctx, store.ExamSubmissions, submissionID)
	if err != nil || !found {
		return Exam{}, false, err
	}
	return svc.GetExam(ctx, row.String("exam_id"))
}

// GradeExam publishes the result of a submission then locks it.
// The two writes are not atomic; a submission left unlocked can be graded again, which replaces its result.
func (svc *Service) GradeExam(ctx context.Context, submissionID string, g Grading) (ExamResult, bool, error) {
	if err := svc.validate.Struct(g); err != nil {
		return ExamResult{}, false, err
	}
	subRow, found, err := svc.selectByID(ctx, store.ExamSubmissions, submissionID)
	if err != nil || !found {
		return ExamResult{}, false, err
	}
	sub := examSubmissionFromRow(subRow)
	if sub.Locked {
		return ExamResult{}, true, core.NewFieldError("submissionId", ErrLocked.Error())
	}
	exam, found, err := svc.GetExam(ctx, sub.ExamID)
	if err != nil {
		return ExamResult{}, true, err
	}
	if !found {
		return ExamResult{}, false, nil
	}
	if g.Marks > exam.TotalMarks {
		return ExamResult{}, true, core.NewFieldError("marks", "marks cannot exceed the total marks of the exam")
	}

	row, err := svc.store.Upsert(ctx, store.ExamResults, []string{"exam_id", "student_id"}, store.Row{
		"exam_id":      sub.ExamID,
		"student_id":   sub.StudentID,
		"marks":        g.Marks,
		"total_marks":  exam.TotalMarks,
		"remarks":      core.CleanString(g.Remarks),
		"published_at": core.NowFunc(),
	})
	if err != nil {
		return ExamResult{}, true, errors.Wrap(err, "publishing exam result")
	}
	if _, err = svc.store.Update(ctx, store.ExamSubmissions, sub.ID, store.Row{"locked": true}); err != nil {
		return examResultFromRow(row), true, errors.Wrap(err, "locking exam submission")
	}
	return examResultFromRow(row), true, nil
}

func (svc *Service) ListResults(ctx context.Context, f ResultFilter) ([]ExamResult, error) {
	sf := store.Filter{OrderBy: []core.DBOrdering{core.Desc("published_at")}}
	if f.ExamID != "" {
		sf.Where = append(sf.Where, store.Eq("exam_id", f.ExamID))
	}
	if f.StudentID != "" {
		sf.Where = append(sf.Where, store.Eq("student_id", f.StudentID))
	}
	rows, err := svc.selectAll(ctx, store.ExamResults, sf)
	if err != nil {
		return nil, err
	}
	results := make([]ExamResult, 0, len(rows))
	for _, r := range rows {
		results = append(results, examResultFromRow(r))
	}
	return results, nil
}

// Study notes

func (svc *Service) CreateNote(ctx context.Context, nn NewStudyNote) (StudyNote, error) {
	row, err := svc.insert(ctx, store.StudyNotes, nn, nn.toRow())
	if err != nil {
		return StudyNote{}, err
	}
	return studyNoteFromRow(row), nil
}

func (svc *Service) ListNotes(ctx context.Context, scope Scope) ([]StudyNote, error) {
	rows, err := svc.selectAll(ctx, store.StudyNotes, scope.filter(core.Desc("created_at")))
	if err != nil {
		return nil, err
	}
	notes := make([]StudyNote, 0, len(rows))
	for _, r := range rows {
		notes = append(notes, studyNoteFromRow(r))
	}
	return notes, nil
}

func (svc *Service) DeleteNote(ctx context.Context, id string) error {
	return svc.delete(ctx, store.StudyNotes, id)
}

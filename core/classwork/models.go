package classwork

import (
	"time"

	"github.com/volatiletech/null/v8"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/store"
)

// Scope selects classwork by class and/or teacher.
type Scope struct {
	GradeID       string `query:"gradeId"`
	SubdivisionID string `query:"subdivisionId"`
	TeacherID     string `query:"teacherId"`
	// GradeWide also selects the items assigned to the whole grade (no subdivision).
	GradeWide bool `query:"-"`
}

// ClassScope is what the students of a subdivision see.
func ClassScope(gradeID, subdivisionID string) Scope {
	return Scope{GradeID: gradeID, SubdivisionID: subdivisionID, GradeWide: true}
}

// InClass reports whether the class (grade, subdivision) receives an item assigned to
// itemGrade and, unless null, itemSubdivision.
func InClass(gradeID, subdivisionID, itemGrade string, itemSubdivision null.String) bool {
	if gradeID == "" || gradeID != itemGrade {
		return false
	}
	return !itemSubdivision.Valid || itemSubdivision.String == subdivisionID
}

func (s Scope) filter(orderBy ...core.DBOrdering) store.Filter {
	f := store.Filter{OrderBy: orderBy}
	if s.GradeID != "" {
		f.Where = append(f.Where, store.Eq("grade_id", s.GradeID))
	}
	if s.TeacherID != "" {
		f.Where = append(f.Where, store.Eq("teacher_id", s.TeacherID))
	}
	if s.SubdivisionID != "" {
		if s.GradeWide {
			f.AnyOf = []store.Cond{store.Eq("subdivision_id", s.SubdivisionID), store.Eq("subdivision_id", nil)}
		} else {
			f.Where = append(f.Where, store.Eq("subdivision_id", s.SubdivisionID))
		}
	}
	return f
}

type (
	Homework struct {
		ID            string      `json:"id"`
		GradeID       string      `json:"gradeId"`
		SubdivisionID null.String `json:"subdivisionId"`
		TeacherID     string      `json:"teacherId"`
		Title         string      `json:"title"`
		Description   string      `json:"description"`
		DueDate       string      `json:"dueDate"`
		AttachmentURL string      `json:"attachmentUrl"`
		CreatedAt     time.Time   `json:"createdAt"` // UTC
	}

	NewHomework struct {
		GradeID       string `json:"gradeId" validate:"required"`
		SubdivisionID string `json:"subdivisionId"`
		TeacherID     string `json:"-"`
		Title         string `json:"title" validate:"required"`
		Description   string `json:"description"`
		DueDate       string `json:"dueDate" validate:"omitempty,datetime=2006-01-02"`
		AttachmentURL string `json:"attachmentUrl" validate:"omitempty,url"`
	}

	HomeworkSubmission struct {
		ID            string    `json:"id"`
		HomeworkID    string    `json:"homeworkId"`
		StudentID     string    `json:"studentId"`
		StudentName   string    `json:"studentName"`
		Content       string    `json:"content"`
		AttachmentURL string    `json:"attachmentUrl"`
		SubmittedAt   time.Time `json:"submittedAt"` // UTC
		Feedback      string    `json:"feedback"`
		Reviewed      bool      `json:"reviewed"`
	}

	NewHomeworkSubmission struct {
		HomeworkID    string `json:"-"`
		StudentID     string `json:"-"`
		StudentName   string `json:"-"`
		Content       string `json:"content" validate:"required_without=AttachmentURL"`
		AttachmentURL string `json:"attachmentUrl" validate:"omitempty,url"`
	}

	Exam struct {
		ID              string      `json:"id"`
		GradeID         string      `json:"gradeId"`
		SubdivisionID   null.String `json:"subdivisionId"`
		TeacherID       string      `json:"teacherId"`
		Title           string      `json:"title"`
		Instructions    string      `json:"instructions"`
		QuestionsURL    string      `json:"questionsUrl"`
		TotalMarks      float64     `json:"totalMarks"`
		ExamDate        string      `json:"examDate"`
		DurationMinutes int         `json:"durationMinutes"`
		CreatedAt       time.Time   `json:"createdAt"` // UTC
	}

	NewExam struct {
		GradeID         string  `json:"gradeId" validate:"required"`
		SubdivisionID   string  `json:"subdivisionId"`
		TeacherID       string  `json:"-"`
		Title           string  `json:"title" validate:"required"`
		Instructions    string  `json:"instructions"`
		QuestionsURL    string  `json:"questionsUrl" validate:"omitempty,url"`
		TotalMarks      float64 `json:"totalMarks" validate:"gt=0"`
		ExamDate        string  `json:"examDate" validate:"required,datetime=2006-01-02"`
		DurationMinutes int     `json:"durationMinutes" validate:"gte=0"`
	}

	// ExamSubmission is locked once graded.
	ExamSubmission struct {
		ID          string    `json:"id"`
		ExamID      string    `json:"examId"`
		StudentID   string    `json:"studentId"`
		StudentName string    `json:"studentName"`
		Answers     string    `json:"answers"`
		SubmittedAt time.Time `json:"submittedAt"` // UTC
		Locked      bool      `json:"locked"`
	}

	NewExamSubmission struct {
		ExamID      string `json:"-"`
		StudentID   string `json:"-"`
		StudentName string `json:"-"`
		Answers     string `json:"answers" validate:"required"`
	}

	ExamResult struct {
		ID          string    `json:"id"`
		ExamID      string    `json:"examId"`
		StudentID   string    `json:"studentId"`
		Marks       float64   `json:"marks"`
		TotalMarks  float64   `json:"totalMarks"`
		Remarks     string    `json:"remarks"`
		PublishedAt time.Time `json:"publishedAt"` // UTC
	}

	Grading struct {
		Marks   float64 `json:"marks" validate:"gte=0"`
		Remarks string  `json:"remarks"`
	}

	ResultFilter struct {
		ExamID    string `query:"examId"`
		StudentID string `query:"studentId"`
	}

	StudyNote struct {
		ID            string      `json:"id"`
		GradeID       string      `json:"gradeId"`
		SubdivisionID null.String `json:"subdivisionId"`
		TeacherID     string      `json:"teacherId"`
		Title         string      `json:"title"`
		Content       string      `json:"content"`
		FileURL       string      `json:"fileUrl"`
		CreatedAt     time.Time   `json:"createdAt"` // UTC
	}

	NewStudyNote struct {
		GradeID       string `json:"gradeId" validate:"required"`
		SubdivisionID string `json:"subdivisionId"`
		TeacherID     string `json:"-"`
		Title         string `json:"title" validate:"required"`
		Content       string `json:"content"`
		FileURL       string `json:"fileUrl" validate:"omitempty,url"`
	}
)

func homeworkFromRow(r store.Row) Homework {
	return Homework{
		ID:            r.String("id"),
		GradeID:       r.String("grade_id"),
		SubdivisionID: r.NullString("subdivision_id"),
		TeacherID:     r.String("teacher_id"),
		Title:         r.String("title"),
		Description:   r.String("description"),
		DueDate:       r.Date("due_date"),
		AttachmentURL: r.String("attachment_url"),
		CreatedAt:     r.Time("created_at"),
	}
}

func (nh NewHomework) toRow() store.Row {
	return store.Row{
		"grade_id":       nh.GradeID,
		"subdivision_id": store.Nullable(nh.SubdivisionID),
		"teacher_id":     store.Nullable(nh.TeacherID),
		"title":          core.CleanString(nh.Title),
		"description":    nh.Description,
		"due_date":       store.Nullable(nh.DueDate),
		"attachment_url": nh.AttachmentURL,
		"created_at":     core.NowFunc(),
	}
}

func homeworkSubmissionFromRow(r store.Row) HomeworkSubmission {
	return HomeworkSubmission{
		ID:            r.String("id"),
		HomeworkID:    r.String("homework_id"),
		StudentID:     r.String("student_id"),
		StudentName:   r.String("student_name"),
		Content:       r.String("content"),
		AttachmentURL: r.String("attachment_url"),
		SubmittedAt:   r.Time("submitted_at"),
		Feedback:      r.String("feedback"),
		Reviewed:      r.Bool("reviewed"),
	}
}

func examFromRow(r store.Row) Exam {
	return Exam{
		ID:              r.String("id"),
		GradeID:         r.String("grade_id"),
		SubdivisionID:   r.NullString("subdivision_id"),
		TeacherID:       r.String("teacher_id"),
		Title:           r.String("title"),
		Instructions:    r.String("instructions"),
		QuestionsURL:    r.String("questions_url"),
		TotalMarks:      r.Float("total_marks"),
		ExamDate:        r.Date("exam_date"),
		DurationMinutes: r.Int("duration_minutes"),
		CreatedAt:       r.Time("created_at"),
	}
}

func (ne NewExam) toRow() store.Row {
	return store.Row{
		"grade_id":         ne.GradeID,
		"subdivision_id":   store.Nullable(ne.SubdivisionID),
		"teacher_id":       store.Nullable(ne.TeacherID),
		"title":            core.CleanString(ne.Title),
		"instructions":     ne.Instructions,
		"questions_url":    ne.QuestionsURL,
		"total_marks":      ne.TotalMarks,
		"exam_date":        ne.ExamDate,
		"duration_minutes": ne.DurationMinutes,
		"created_at":       core.NowFunc(),
	}
}

func examSubmissionFromRow(r store.Row) ExamSubmission {
	return ExamSubmission{
		ID:          r.String("id"),
		ExamID:      r.String("exam_id"),
		StudentID:   r.String("student_id"),
		StudentName: r.String("student_name"),
		Answers:     r.String("answers"),
		SubmittedAt: r.Time("submitted_at"),
		Locked:      r.Bool("locked"),
	}
}

func examResultFromRow(r store.Row) ExamResult {
	return ExamResult{
		ID:          r.String("id"),
		ExamID:      r.String("exam_id"),
		StudentID:   r.String("student_id"),
		Marks:       r.Float("marks"),
		TotalMarks:  r.Float("total_marks"),
		Remarks:     r.String("remarks"),
		PublishedAt: r.Time("published_at"),
	}
}

func studyNoteFromRow(r store.Row) StudyNote {
	return StudyNote{
		ID:            r.String("id"),
		GradeID:       r.String("grade_id"),
		SubdivisionID: r.NullString("subdivision_id"),
		TeacherID:     r.String("teacher_id"),
		Title:         r.String("title"),
		Content:       r.String("content"),
		FileURL:       r.String("file_url"),
		CreatedAt:     r.Time("created_at"),
	}
}

func (nn NewStudyNote) toRow() store.Row {
	return store.Row{
		"grade_id":       nn.GradeID,
		"subdivision_id": store.Nullable(nn.SubdivisionID),
		"teacher_id":     store.Nullable(nn.TeacherID),
		"title":          core.CleanString(nn.Title),
		"content":        nn.Content,
		"file_url":       nn.FileURL,
		"created_at":     core.NowFunc(),
	}
}

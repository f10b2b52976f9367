// Package store is the boundary to the remote data service: collection-style CRUD over rows
// keyed by snake_case column names, plus a coarse change feed per collection.
package store

import (
	"context"

	"github.com/trezcool/academia/core"
)

// Collections
const (
	Students            = "students"
	Teachers            = "teachers"
	Grades              = "grades"
	Subdivisions        = "subdivisions"
	Notices             = "notices"
	FeeSubmissions      = "fee_submissions"
	Attendance          = "attendance"
	Homework            = "homework"
	HomeworkSubmissions = "homework_submissions"
	Exams               = "exams"
	ExamSubmissions     = "exam_submissions"
	ExamResults         = "exam_results"
	Queries             = "queries"
	Products            = "products"
	Orders              = "orders"
	SystemSettings      = "system_settings"
	StudyNotes          = "study_notes"
	Enquiries           = "enquiries"
)

var collections = map[string]bool{
	Students: true, Teachers: true, Grades: true, Subdivisions: true, Notices: true,
	FeeSubmissions: true, Attendance: true, Homework: true, HomeworkSubmissions: true,
	Exams: true, ExamSubmissions: true, ExamResults: true, Queries: true, Products: true,
	Orders: true, SystemSettings: true, StudyNotes: true, Enquiries: true,
}

// IsCollection tells whether name is one of the known collections.
func IsCollection(name string) bool { return collections[name] }

// Store is implemented by every backend the façade can run on.
//
// Not found is never an error: Select returns an empty slice and Update returns a nil Row.
// Writes touching several collections are not atomic.
type Store interface {
	Select(ctx context.Context, collection string, f Filter) ([]Row, error)
	// Insert returns the stored rows, including generated ids and column defaults.
	Insert(ctx context.Context, collection string, rows ...Row) ([]Row, error)
	Update(ctx context.Context, collection, id string, changes Row) (Row, error)
	Delete(ctx context.Context, collection, id string) error
	// Upsert inserts row, or updates the row conflicting on conflictKey columns.
	Upsert(ctx context.Context, collection string, conflictKey []string, row Row) (Row, error)
}

// Cond is an equality condition on a column.
type Cond struct {
	Field string
	Value interface{}
}

func Eq(field string, value interface{}) Cond {
	return Cond{Field: field, Value: value}
}

// Filter selects rows matching every Where condition and, when AnyOf is set,
// at least one of the AnyOf conditions.
type Filter struct {
	Where   []Cond
	AnyOf   []Cond
	OrderBy []core.DBOrdering
	Limit   int
}

// Where is a shorthand for a Filter of AND-ed equality conditions.
func Where(conds ...Cond) Filter {
	return Filter{Where: conds}
}

// OrderedBy returns a copy of f ordered by ords, unless f already has an ordering.
func (f Filter) OrderedBy(ords ...core.DBOrdering) Filter {
	if len(f.OrderBy) == 0 {
		f.OrderBy = ords
	}
	return f
}

// SelectOne returns the first row matching f.
func SelectOne(ctx context.Context, st Store, collection string, f Filter) (Row, bool, error) {
	f.Limit = 1
	rows, err := st.Select(ctx, collection, f)
	if err != nil || len(rows) == 0 {
		return nil, false, err
	}
	return rows[0], true, nil
}

// SelectByID returns the row with the given id.
func SelectByID(ctx context.Context, st Store, collection, id string) (Row, bool, error) {
	if id == "" {
		return nil, false, nil
	}
	return SelectOne(ctx, st, collection, Where(Eq("id", id)))
}

// InsertOne inserts a single row and returns it as stored.
func InsertOne(ctx context.Context, st Store, collection string, row Row) (Row, error) {
	rows, err := st.Insert(ctx, collection, row)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return row, nil
	}
	return rows[0], nil
}

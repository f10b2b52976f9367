package academy

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/academia/core"
	"github.com/trezcool/academia/core/enquiry"
	"github.com/trezcool/academia/core/fee"
	"github.com/trezcool/academia/core/grade"
	"github.com/trezcool/academia/core/query"
	"github.com/trezcool/academia/core/shop"
	"github.com/trezcool/academia/core/student"
	"github.com/trezcool/academia/core/teacher"
	"github.com/trezcool/academia/services/email"
	"github.com/trezcool/academia/tests"
)

func setup(t *testing.T) *Academy {
	t.Helper()
	db, hub := testutil.NewStore()
	a, err := New(Deps{
		Conf:   core.NewTestConfig(),
		Store:  db,
		Feed:   hub,
		Logger: testutil.NewLogger(),
		Mailer: emailsvc.NewConsoleServiceMock(),
	})
	require.NoError(t, err)
	return a
}

func TestNew(t *testing.T) {
	db, hub := testutil.NewStore()
	_, err := New(Deps{Conf: core.NewTestConfig(), Store: db, Feed: hub, Logger: testutil.NewLogger()})
	assert.Error(t, err, "mailer is required")

	_, err = New(Deps{Store: db, Feed: hub, Logger: testutil.NewLogger(), Mailer: emailsvc.NewConsoleServiceMock()})
	assert.Error(t, err, "config is required")
}

func TestAcademy_Stats(t *testing.T) {
	a := setup(t)
	ctx := context.Background()

	st, err := a.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{}, st)

	g, err := a.Grades.CreateGrade(ctx, grade.NewGrade{GradeName: "Grade 5", Divisions: []string{"A", "B"}})
	require.NoError(t, err)
	aarav, err := a.Students.Create(ctx, student.NewStudent{Name: "Aarav", Mobile: "9876543210", GradeID: g.ID, MonthlyFees: 5000})
	require.NoError(t, err)
	diya, err := a.Students.Create(ctx, student.NewStudent{Name: "Diya", Mobile: "9000000001", GradeID: g.ID, MonthlyFees: 4000})
	require.NoError(t, err)
	_, err = a.Students.Create(ctx, student.NewStudent{Name: "Ravi", Mobile: "9000000002", GradeID: g.ID, MonthlyFees: 4000})
	require.NoError(t, err)
	_, _, err = a.Students.SetStatus(ctx, diya.ID, "Suspended")
	require.NoError(t, err)
	kavya, err := a.Teachers.Create(ctx, teacher.NewTeacher{Name: "Kavya", Mobile: "9123456789", GradeID: g.ID})
	require.NoError(t, err)

	paid, err := a.Fees.Submit(ctx, fee.NewSubmission{StudentID: aarav.ID, StudentName: "Aarav", Amount: 5000, TransactionRef: "UPI-1"})
	require.NoError(t, err)
	_, _, err = a.Fees.Approve(ctx, paid.ID)
	require.NoError(t, err)
	_, err = a.Fees.Submit(ctx, fee.NewSubmission{StudentName: "Guest parent", Amount: 1500, TransactionRef: "UPI-2"})
	require.NoError(t, err)

	_, err = a.Queries.Ask(ctx, query.NewQuery{StudentID: aarav.ID, TeacherID: kavya.ID, Subject: "Maths", Question: "What is x?"})
	require.NoError(t, err)

	prd, err := a.Shop.CreateProduct(ctx, shop.NewProduct{Name: "Hoodie", BasePrice: 1200})
	require.NoError(t, err)
	ord, err := a.Shop.RequestQuote(ctx, shop.NewOrder{StudentID: aarav.ID, ProductID: prd.ID})
	require.NoError(t, err)
	_, err = a.Shop.RequestQuote(ctx, shop.NewOrder{StudentID: aarav.ID, ProductID: prd.ID})
	require.NoError(t, err)
	_, _, err = a.Shop.UpdateStatus(ctx, ord.ID, shop.StatusRejected)
	require.NoError(t, err)

	_, err = a.Enquiries.Submit(ctx, enquiry.NewEnquiry{Name: "Meera", Mobile: "9800000000", Message: "Admissions?"})
	require.NoError(t, err)

	st, err = a.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{
		Students:            3,
		ActiveStudents:      2,
		StudentsWithDues:    1,
		ExpectedMonthlyFees: 9000,
		Teachers:            1,
		Grades:              1,
		PendingFees:         1,
		ApprovedRevenue:     5000,
		OpenQueries:         1,
		OpenOrders:          1,
		Enquiries:           1,
	}, st)
}

func TestAcademy_Login(t *testing.T) {
	a := setup(t)
	ctx := context.Background()

	std, err := a.Students.Create(ctx, student.NewStudent{Name: "Aarav", Mobile: "9876543210", GradeID: "g1"})
	require.NoError(t, err)

	id, err := a.Auth.Login(ctx, std.CustomID, "9876543210")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, std.ID, id.ID)

	id, err = a.Auth.Login(ctx, "admin", "admin@123")
	require.NoError(t, err)
	require.NotNil(t, id)
	assert.Equal(t, "admin", id.Role)
}
